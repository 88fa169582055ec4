package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/benchpsu/api"
	"github.com/kilianp07/benchpsu/config"
	"github.com/kilianp07/benchpsu/core/dispatch"
	"github.com/kilianp07/benchpsu/core/events"
	coremetrics "github.com/kilianp07/benchpsu/core/metrics"
	coremon "github.com/kilianp07/benchpsu/core/monitoring"
	"github.com/kilianp07/benchpsu/core/trigger"
	"github.com/kilianp07/benchpsu/infra/eventlog"
	"github.com/kilianp07/benchpsu/infra/logger"
	"github.com/kilianp07/benchpsu/infra/metrics"
	"github.com/kilianp07/benchpsu/infra/monitoring"
	"github.com/kilianp07/benchpsu/infra/mqtt"
	"github.com/kilianp07/benchpsu/infra/simulator"
	"github.com/kilianp07/benchpsu/infra/telemetry"
	"github.com/kilianp07/benchpsu/internal/eventbus"
)

const (
	eventBuffer  = 64
	flushTimeout = 2 * time.Second
)

// Service wires the dispatcher to the simulated hardware, the event log,
// the telemetry sinks and the MQTT remote.
type Service struct {
	Dispatcher *dispatch.Dispatcher
	Hardware   *simulator.Hardware
	Trigger    *trigger.Machine
	Events     *eventbus.Bus[events.Event]
	Store      eventlog.Store

	cfg       *config.Config
	sim       *simulator.Simulator
	sink      coremetrics.MetricsSink
	closers   []func()
	remote    *mqtt.PahoClient
	telemetry *telemetry.Manager
	monitor   coremon.Monitor
	log       logger.Logger
	wg        sync.WaitGroup
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Log); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")
	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry, cfg.Instrument.Name)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	hw := simulator.NewHardware(len(cfg.Instrument.Channels))
	channels, sensors, err := cfg.Instrument.Build(hw)
	if err != nil {
		return nil, err
	}
	bus := eventbus.New[events.Event](eventBuffer)
	trig := &trigger.Machine{}
	d, err := dispatch.New(cfg.Dispatch, channels, sensors, dispatch.Deps{
		Trigger:     trig,
		Events:      events.NewBusLog(bus),
		IOExpander:  hw,
		Calibration: hw,
		Status:      hw,
		Pages:       hw,
		Logger:      logger.New("dispatch"),
		Monitor:     monitor,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}

	svc := &Service{
		Dispatcher: d,
		Hardware:   hw,
		Trigger:    trig,
		Events:     bus,
		cfg:        cfg,
		monitor:    monitor,
		log:        logg,
	}
	if cfg.Simulator.Enabled {
		svc.sim = simulator.New(cfg.Simulator, hw)
	}
	if cfg.EventLog.Enabled() {
		store, err := eventlog.New(cfg.EventLog.Module())
		if err != nil {
			return nil, fmt.Errorf("event log: %w", err)
		}
		svc.Store = store
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc.trackClose(sink)
	if cfg.MQTT.Enabled() {
		remote, err := mqtt.NewPahoClient(cfg.MQTT, mqtt.WithHandler(NewCommandHandler(d)), mqtt.WithMonitor(monitor))
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.remote = remote
		sink = coremetrics.NewMultiSink(sink, remote)
		if cfg.Telemetry.Enabled {
			mgr, err := telemetry.NewManager(cfg.MQTT, d)
			if err != nil {
				svc.Close()
				return nil, fmt.Errorf("telemetry: %w", err)
			}
			svc.telemetry = mgr
		}
	}
	svc.sink = sink
	return svc, nil
}

// trackClose remembers sinks holding connections.
func (s *Service) trackClose(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case interface{ Close() }:
		s.closers = append(s.closers, v.Close)
	case interface{ Disconnect() }:
		s.closers = append(s.closers, v.Disconnect)
	case *coremetrics.MultiSink:
		for _, inner := range v.Sinks {
			s.trackClose(inner)
		}
	}
}

// Run starts the owner task and every background worker, then blocks until
// ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	go s.Dispatcher.Run(ctx)
	if s.Store != nil {
		sub := s.Events.Subscribe()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.Events.Unsubscribe(sub)
			eventlog.NewRecorder(s.Store).Run(ctx, sub)
		}()
	}
	metrics.StartEventCollector(ctx, s.Events, s.sink)
	go metrics.RunStatusSampler(ctx, s.Dispatcher, s.sink, s.cfg.Metrics.SampleInterval())
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, prometheus.DefaultGatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if addr := s.cfg.API.Addr; addr != "" {
		mux := api.NewMux(s.Dispatcher, s.Store, s.cfg.API.Token)
		go func() {
			if err := api.Serve(ctx, addr, mux); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	if s.telemetry != nil {
		go s.telemetry.Start(ctx)
	}
	if s.sim != nil {
		go s.sim.Run(ctx, s.Dispatcher, s.cfg.Simulator.Interval())
	}
	s.log.Infof("%s ready with %d channels", s.cfg.Instrument.Name, s.Dispatcher.ChannelCount())
	<-ctx.Done()
	return nil
}

// Handler returns the command handler used by the MQTT remote.
func (s *Service) Handler() *CommandHandler { return NewCommandHandler(s.Dispatcher) }

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.remote != nil {
		s.remote.Disconnect()
	}
	for _, c := range s.closers {
		c()
	}
	// closing the bus ends the recorder before its store goes away
	s.Events.Close()
	s.wg.Wait()
	var err error
	if s.Store != nil {
		err = s.Store.Close()
	}
	s.monitor.Flush(flushTimeout)
	return err
}
