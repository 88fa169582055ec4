package dispatch

import (
	"sync"

	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/events"
	"github.com/kilianp07/benchpsu/core/list"
	"github.com/kilianp07/benchpsu/core/temperature"
	"github.com/kilianp07/benchpsu/core/trigger"
)

const allFeatures = channel.FeatureHardwareOVP | channel.FeatureRemoteSense |
	channel.FeatureRemoteProgramming | channel.FeatureCoupling

func testParams() channel.Params {
	return channel.Params{
		UMax: 40, IMax: 5,
		PTotal:            155,
		OPPMinLevel:       1,
		OPPDefaultLevel:   155,
		VoltageResolution: 0.01,
		CurrentResolution: 0.001,
		PowerResolution:   0.01,
		Features:          allFeatures,
	}
}

type recordingIO struct {
	switches []CouplingType
}

func (r *recordingIO) SwitchChannelCoupling(t CouplingType) { r.switches = append(r.switches, t) }

type recordingEvents struct {
	mu    sync.Mutex
	kinds []events.Kind
}

func (r *recordingEvents) PushEvent(k events.Kind) {
	r.mu.Lock()
	r.kinds = append(r.kinds, k)
	r.mu.Unlock()
}

func (r *recordingEvents) Kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Kind(nil), r.kinds...)
}

type recordingStatus struct {
	bits map[OperGroup]bool
}

func (r *recordingStatus) SetOperBits(g OperGroup, on bool) {
	if r.bits == nil {
		r.bits = make(map[OperGroup]bool)
	}
	r.bits[g] = on
}

type fakeCalibration struct{ enabled bool }

func (f *fakeCalibration) IsEnabled() bool { return f.enabled }

type fakePages struct{ main bool }

func (f *fakePages) IsMainPageActive() bool { return f.main }

type countingDriver struct {
	channel.NopDriver
	outputs int
}

func (c *countingDriver) ApplyOutput(int, bool) { c.outputs++ }

// fixture is a three channel instrument wired to recording collaborators.
type fixture struct {
	engine   *Engine
	channels []*channel.Channel
	sensors  []*temperature.Sensor
	io       *recordingIO
	events   *recordingEvents
	status   *recordingStatus
	trigger  *trigger.Machine
	lists    *list.MemoryStore
	settings *MemorySettings
	cal      *fakeCalibration
	pages    *fakePages
	driver   *countingDriver
}

func newFixture(mutate ...func(i int, p *channel.Params)) *fixture {
	f := &fixture{
		io:       &recordingIO{},
		events:   &recordingEvents{},
		status:   &recordingStatus{},
		trigger:  &trigger.Machine{},
		lists:    list.NewMemoryStore(),
		settings: &MemorySettings{},
		cal:      &fakeCalibration{},
		pages:    &fakePages{},
		driver:   &countingDriver{},
	}
	for i := 0; i < 3; i++ {
		p := testParams()
		for _, m := range mutate {
			m(i, &p)
		}
		f.channels = append(f.channels, channel.New(i, p, f.driver))
	}
	f.sensors = temperature.NewSensors(len(f.channels), 70, 10)
	f.engine = NewEngine(f.channels, f.sensors, f.deps())
	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Lists:       f.lists,
		Trigger:     f.trigger,
		Events:      f.events,
		IOExpander:  f.io,
		Calibration: f.cal,
		Settings:    f.settings,
		Status:      f.status,
		Pages:       f.pages,
	}
}
