package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/logger"
	"github.com/kilianp07/benchpsu/core/monitoring"
	"github.com/kilianp07/benchpsu/core/temperature"
)

type ownerKey struct{}

// Dispatcher is the goroutine safe entry point of the engine. Mutations are
// marshaled to the owner task started by Run; reads observe settled state.
type Dispatcher struct {
	cfg     Config
	engine  *Engine
	log     logger.Logger
	monitor monitoring.Monitor

	// mu is write locked by the owner task while it applies a message.
	mu sync.RWMutex

	slotMu sync.Mutex
	slots  map[slotKey]any

	queue     chan message
	done      chan struct{}
	closeOnce sync.Once
	sleep     func(time.Duration)
}

// New creates a dispatcher. Run must be started before mutations complete.
func New(cfg Config, channels []*channel.Channel, sensors []*temperature.Sensor, deps Deps) (*Dispatcher, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("dispatch: no channel configured")
	}
	for i, ch := range channels {
		if ch == nil || ch.Index != i {
			return nil, fmt.Errorf("dispatch: channel table entry %d is invalid", i)
		}
	}
	if sensors != nil && len(sensors) < len(channels)+1 {
		return nil, fmt.Errorf("dispatch: need %d temperature sensors, got %d", len(channels)+1, len(sensors))
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := NewEngine(channels, sensors, deps)
	return &Dispatcher{
		cfg:     cfg,
		engine:  e,
		log:     e.deps.Logger,
		monitor: e.deps.Monitor,
		slots:   make(map[slotKey]any),
		queue:   make(chan message, cfg.QueueSize),
		done:    make(chan struct{}),
		sleep:   time.Sleep,
	}, nil
}

// IsOwner reports whether ctx was handed out by the owner task.
func (d *Dispatcher) IsOwner(ctx context.Context) bool {
	owner, _ := ctx.Value(ownerKey{}).(*Dispatcher)
	return owner == d
}

// Run is the owner task. It applies queued messages in order until ctx is
// canceled, then rejects further mutations with ErrClosed.
func (d *Dispatcher) Run(ctx context.Context) {
	owner := context.WithValue(ctx, ownerKey{}, d)
	defer d.closeOnce.Do(func() { close(d.done) })
	d.log.Infof("dispatcher started queue_size=%d debounce=%s", d.cfg.QueueSize, d.cfg.Debounce())
	for {
		select {
		case <-ctx.Done():
			d.log.Infof("dispatcher stopped, %d message(s) dropped", len(d.queue))
			return
		case m := <-d.queue:
			queueDepth.Set(float64(len(d.queue)))
			d.handle(owner, m)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, m message) {
	spec := ops[m.op]
	var arg any
	if m.fn == nil {
		d.slotMu.Lock()
		arg = d.slots[slotKey{op: m.op, target: m.target}]
		d.slotMu.Unlock()
	}

	before := d.engine.CouplingType()
	start := time.Now()
	d.mu.Lock()
	func() {
		defer d.mu.Unlock()
		defer d.recoverApply(m)
		if m.fn != nil {
			m.fn(ctx, d.engine)
			return
		}
		spec.apply(d.engine, m.target, arg)
	}()
	applyLatency.WithLabelValues(spec.name).Observe(time.Since(start).Seconds())
	messagesApplied.WithLabelValues(spec.name).Inc()

	if after := d.engine.CouplingType(); after != before {
		couplingTransitions.WithLabelValues(after.String()).Inc()
		// later messages wait for the relays to settle
		d.sleep(d.cfg.Debounce())
	}
}

func (d *Dispatcher) recoverApply(m message) {
	r := recover()
	if r == nil {
		return
	}
	applyPanics.Inc()
	err := fmt.Errorf("dispatch: %s on target %d panicked: %v", m.op, m.target, r)
	d.log.Errorf("%v", err)
	d.monitor.CaptureException(err, map[string]string{"op": m.op.String(), "target": strconv.Itoa(m.target)})
}

func (d *Dispatcher) enqueue(ctx context.Context, m message) error {
	select {
	case <-d.done:
		return ErrClosed
	default:
	}
	select {
	case d.queue <- m:
		messagesEnqueued.WithLabelValues(m.op.String()).Inc()
		queueDepth.Set(float64(len(d.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrClosed
	}
}

// submit applies the operation directly on the owner task and otherwise
// stages its argument and enqueues it. It does not wait for the apply.
func (d *Dispatcher) submit(ctx context.Context, o op, target int, arg any) error {
	if d.IsOwner(ctx) {
		ops[o].apply(d.engine, target, arg)
		return nil
	}
	d.slotMu.Lock()
	d.slots[slotKey{op: o, target: target}] = arg
	d.slotMu.Unlock()
	return d.enqueue(ctx, message{op: o, target: target})
}

// Do runs fn on the owner task with exclusive access to the engine. The
// context given to fn lets dispatcher setters apply immediately.
func (d *Dispatcher) Do(ctx context.Context, fn func(ctx context.Context, e *Engine)) error {
	if d.IsOwner(ctx) {
		fn(ctx, d.engine)
		return nil
	}
	return d.enqueue(ctx, message{op: opDo, target: -1, fn: fn})
}

// Wait blocks until every message queued before the call has been applied.
func (d *Dispatcher) Wait(ctx context.Context) error {
	if d.IsOwner(ctx) {
		return nil
	}
	applied := make(chan struct{})
	if err := d.Do(ctx, func(context.Context, *Engine) { close(applied) }); err != nil {
		return err
	}
	select {
	case <-applied:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrClosed
	}
}

// view runs fn against settled state. On the owner task the write lock is
// already held.
func (d *Dispatcher) view(ctx context.Context, fn func(e *Engine) error) error {
	if d.IsOwner(ctx) {
		return fn(d.engine)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.engine)
}

func (d *Dispatcher) checkChannel(ch int) error {
	if ch < 0 || ch >= len(d.engine.topo.channels) {
		return fmt.Errorf("channel %d: %w", ch, ErrInvalidChannel)
	}
	return nil
}

func (d *Dispatcher) checkSensor(sensor int) error {
	if _, ok := d.engine.topo.Sensor(sensor); !ok {
		return fmt.Errorf("sensor %d: %w", sensor, ErrInvalidChannel)
	}
	return nil
}

func (d *Dispatcher) set(ctx context.Context, o op, ch int, arg any) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	return d.submit(ctx, o, ch, arg)
}

// read evaluates a getter under the read lock. Unknown channels read as the
// zero value.
func read[T any](d *Dispatcher, ch int, f func(*Engine, *channel.Channel) T) T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.engine.topo.Channel(ch)
	if !ok {
		var zero T
		return zero
	}
	return f(d.engine, c)
}

// ChannelCount returns the number of physical channels.
func (d *Dispatcher) ChannelCount() int { return len(d.engine.topo.channels) }
