package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/benchpsu/core/dispatch"
	"github.com/kilianp07/benchpsu/core/events"
	coremetrics "github.com/kilianp07/benchpsu/core/metrics"
	"github.com/kilianp07/benchpsu/infra/logger"
	"github.com/kilianp07/benchpsu/internal/eventbus"
)

var kindCoupling = map[events.Kind]dispatch.CouplingType{
	events.KindChannelsUncoupled:   dispatch.CouplingNone,
	events.KindCoupledInParallel:   dispatch.CouplingParallel,
	events.KindCoupledInSeries:     dispatch.CouplingSeries,
	events.KindCoupledInCommonGnd:  dispatch.CouplingCommonGnd,
	events.KindCoupledInSplitRails: dispatch.CouplingSplitRails,
}

// TopologyEventFrom converts an event log entry.
func TopologyEventFrom(ev events.Event) coremetrics.TopologyEvent {
	out := coremetrics.TopologyEvent{ID: ev.ID, Kind: ev.Kind.String(), Time: ev.Time}
	if c, ok := kindCoupling[ev.Kind]; ok {
		out.Coupling = c.String()
	}
	return out
}

// StartEventCollector forwards topology events from bus to sink until ctx
// is canceled. Sinks that do not record topology events are ignored.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.TopologyRecorder)
	if !ok {
		return
	}
	log := logger.New("event-collector")
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := rec.RecordTopologyEvent(TopologyEventFrom(ev)); err != nil {
					log.Warnf("record topology event %s: %v", ev.Name, err)
				}
			}
		}
	}()
}

// StatusSource returns the current channel table.
type StatusSource interface {
	Status() []dispatch.ChannelStatus
}

// RunStatusSampler records a snapshot of src every interval until ctx is
// canceled.
func RunStatusSampler(ctx context.Context, src StatusSource, sink coremetrics.MetricsSink, interval time.Duration) {
	if interval <= 0 {
		return
	}
	log := logger.New("status-sampler")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := sink.RecordChannelStatus(coremetrics.Snapshot(src.Status(), now)); err != nil {
				log.Warnf("record channel status: %v", err)
			}
		}
	}
}
