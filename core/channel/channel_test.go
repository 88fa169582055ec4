package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDriver struct {
	setpoints int
	outputs   []bool
	sense     []bool
}

func (d *recordingDriver) ApplySetpoints(int, float64, float64)  { d.setpoints++ }
func (d *recordingDriver) ApplyOutput(_ int, enable bool)        { d.outputs = append(d.outputs, enable) }
func (d *recordingDriver) ApplyRemoteSensing(_ int, enable bool) { d.sense = append(d.sense, enable) }
func (d *recordingDriver) ApplyRemoteProgramming(int, bool)      {}

func testParams() Params {
	return Params{
		UMax: 40, UDef: 1,
		IMax: 5, IDef: 0.5,
		PTotal:            155,
		OPPDefaultLevel:   150,
		VoltageResolution: 0.01,
		CurrentResolution: 0.001,
		PowerResolution:   0.01,
		Features:          FeatureHardwareOVP | FeatureCoupling,
	}
}

func TestNew_Defaults(t *testing.T) {
	ch := New(2, testParams(), nil)

	assert.True(t, ch.IsOk())
	assert.False(t, ch.IsOutputEnabled())
	assert.Equal(t, 1.0, ch.U.Set)
	assert.Equal(t, 40.0, ch.GetVoltageLimit())
	assert.Equal(t, 5.0, ch.GetCurrentLimit())
	assert.Equal(t, 155.0, ch.GetPowerLimit())
	assert.Equal(t, 40.0, ch.ProtConf.ULevel)
	assert.Equal(t, 150.0, ch.ProtConf.PLevel)
	assert.Equal(t, DefaultYTViewRate, ch.YTViewRate)
	assert.True(t, ch.GetTriggerOutputState())
	assert.Equal(t, DisplayValueVoltage, ch.Flags.DisplayValue1)
	assert.Equal(t, DisplayValueCurrent, ch.Flags.DisplayValue2)
}

func TestCapabilities(t *testing.T) {
	ch := New(0, testParams(), nil)
	assert.True(t, ch.SupportsHardwareOVP())
	assert.True(t, ch.SupportsCoupling())
	assert.False(t, ch.SupportsRemoteSensing())
	assert.False(t, ch.SupportsRemoteProgramming())

	assert.True(t, (FeatureCoupling | FeatureRemoteSense).Has(FeatureCoupling))
	assert.False(t, FeatureCoupling.Has(FeatureCoupling|FeatureRemoteSense))
}

func TestRemoteModes_RequireFeature(t *testing.T) {
	d := &recordingDriver{}
	ch := New(0, testParams(), d)

	ch.RemoteSensingEnable(true)
	ch.RemoteProgrammingEnable(true)
	assert.False(t, ch.IsRemoteSensingEnabled())
	assert.False(t, ch.IsRemoteProgrammingEnabled())
	assert.Empty(t, d.sense)

	p := testParams()
	p.Features |= FeatureRemoteSense
	ch = New(0, p, d)
	ch.RemoteSensingEnable(true)
	assert.True(t, ch.IsRemoteSensingEnabled())
	assert.Equal(t, []bool{true}, d.sense)

	// switching off never needs the feature
	ch.RemoteProgrammingEnable(false)
	assert.False(t, ch.IsRemoteProgrammingEnabled())
}

func TestLimits_PullSetPointDown(t *testing.T) {
	ch := New(0, testParams(), nil)
	ch.SetVoltage(30)
	ch.SetCurrent(4)

	ch.SetVoltageLimit(12.346)
	ch.SetCurrentLimit(2)

	assert.Equal(t, 12.35, ch.GetVoltageLimit())
	assert.Equal(t, 12.35, ch.U.Set)
	assert.Equal(t, 2.0, ch.I.Set)

	ch.SetVoltageLimit(20)
	assert.Equal(t, 12.35, ch.U.Set)
}

func TestSyncOutput(t *testing.T) {
	d := &recordingDriver{}
	ch := New(0, testParams(), d)

	assert.False(t, ch.SyncOutput(), "nothing staged")

	ch.StageOutputEnable(true)
	assert.False(t, ch.IsOutputEnabled())
	assert.True(t, ch.Pending().Pending)
	assert.True(t, ch.SyncOutput())
	assert.True(t, ch.IsOutputEnabled())
	assert.False(t, ch.Pending().Pending)

	ch.StageOutputEnable(true)
	assert.False(t, ch.SyncOutput(), "unchanged state does not touch the relay")
	assert.False(t, ch.Pending().Pending)
	assert.Equal(t, []bool{true}, d.outputs)

	ch.StageOutputEnable(false)
	assert.True(t, ch.SyncOutput())
	assert.Equal(t, []bool{true, false}, d.outputs)
}

func TestRecordSample_RingAtCapacity(t *testing.T) {
	ch := New(0, testParams(), nil)
	for i := 0; i < historyCapacity+5; i++ {
		ch.RecordSample(Sample{U: float64(i)})
	}

	h := ch.History()
	require.Len(t, h, historyCapacity)
	assert.Equal(t, 5.0, h[0].U)
	assert.Equal(t, float64(historyCapacity+4), h[len(h)-1].U)

	h[0].U = -1
	assert.Equal(t, 5.0, ch.History()[0].U, "History returns a copy")

	ch.ResetHistory()
	assert.Empty(t, ch.History())
}

func TestUpdateMonitor_KeepsLast(t *testing.T) {
	ch := New(0, testParams(), nil)
	ch.UpdateMonitor(5, 1, 5.1, 1.1)
	ch.UpdateMonitor(6, 2, 6.1, 2.1)

	assert.Equal(t, 6.0, ch.U.Mon)
	assert.Equal(t, 5.0, ch.U.MonLast)
	assert.Equal(t, 2.1, ch.I.MonDac)
	assert.Equal(t, 1.1, ch.I.MonDacLast)
}

func TestProtection_ClearAndDisable(t *testing.T) {
	ch := New(0, testParams(), nil)
	ch.OCP.Tripped = true
	ch.ProtConf.UState = true
	ch.ProtConf.PState = true
	assert.True(t, ch.IsTripped())

	ch.ClearProtection()
	assert.False(t, ch.IsTripped())

	ch.DisableProtection()
	assert.False(t, ch.ProtConf.UState)
	assert.False(t, ch.ProtConf.PState)
}
