package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/benchpsu/internal/eventbus"
)

// Kind identifies an event.
type Kind int

const (
	KindChannelsUncoupled Kind = iota
	KindCoupledInParallel
	KindCoupledInSeries
	KindCoupledInCommonGnd
	KindCoupledInSplitRails
	KindChannelsTracked
)

var kindNames = map[Kind]string{
	KindChannelsUncoupled:   "channels_uncoupled",
	KindCoupledInParallel:   "coupled_in_parallel",
	KindCoupledInSeries:     "coupled_in_series",
	KindCoupledInCommonGnd:  "coupled_in_common_gnd",
	KindCoupledInSplitRails: "coupled_in_split_rails",
	KindChannelsTracked:     "channels_tracked",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind accepts the names returned by String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("events: unknown kind %q", s)
}

// Event is one entry of the event log.
type Event struct {
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	Name string    `json:"name"`
	Time time.Time `json:"time"`
}

// Log is the event log collaborator.
type Log interface {
	PushEvent(kind Kind)
}

// NopLog discards events.
type NopLog struct{}

func (NopLog) PushEvent(Kind) {}

// BusLog publishes every pushed event on a bus.
type BusLog struct {
	bus *eventbus.Bus[Event]
	now func() time.Time
}

func NewBusLog(bus *eventbus.Bus[Event]) *BusLog {
	return &BusLog{bus: bus, now: time.Now}
}

func (l *BusLog) PushEvent(kind Kind) {
	l.bus.Publish(Event{ID: uuid.NewString(), Kind: kind, Name: kind.String(), Time: l.now()})
}
