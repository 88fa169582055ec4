package eventlog

import (
	"context"
	"time"

	"github.com/kilianp07/benchpsu/core/events"
	"github.com/kilianp07/benchpsu/infra/logger"
	"github.com/kilianp07/benchpsu/internal/eventbus"
)

const appendTimeout = 2 * time.Second

// Recorder appends every event published on a bus to a store.
type Recorder struct {
	store Store
	log   logger.Logger
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, log: logger.New("eventlog")}
}

// Run appends the events received on sub until ctx is canceled or sub is
// closed.
func (r *Recorder) Run(ctx context.Context, sub <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			actx, cancel := context.WithTimeout(context.Background(), appendTimeout)
			if err := r.store.Append(actx, ev); err != nil {
				r.log.Errorf("append event %s: %v", ev.Name, err)
			}
			cancel()
		}
	}
}

// Start subscribes to bus and runs the recorder in a goroutine.
func (r *Recorder) Start(ctx context.Context, bus *eventbus.Bus[events.Event]) {
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		r.Run(ctx, sub)
	}()
}
