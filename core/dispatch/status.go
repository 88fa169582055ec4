package dispatch

// ChannelStatus is a settled view of one logical channel, published by the
// telemetry adapters.
type ChannelStatus struct {
	Index         int     `json:"index"`
	Coupling      string  `json:"coupling"`
	Mode          string  `json:"mode"`
	OutputEnabled bool    `json:"output_enabled"`
	USet          float64 `json:"u_set"`
	ISet          float64 `json:"i_set"`
	UMon          float64 `json:"u_mon"`
	IMon          float64 `json:"i_mon"`
	ULimit        float64 `json:"u_limit"`
	ILimit        float64 `json:"i_limit"`
	PowerLimit    float64 `json:"p_limit"`
	Tripped       bool    `json:"tripped"`
}

// Status captures every channel under one read lock.
func (d *Dispatcher) Status() []ChannelStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e := d.engine
	out := make([]ChannelStatus, 0, len(e.topo.channels))
	for _, ch := range e.topo.channels {
		out = append(out, ChannelStatus{
			Index:         ch.Index,
			Coupling:      e.CouplingType().String(),
			Mode:          e.resolve(ch, QuantityOther).Mode.String(),
			OutputEnabled: ch.IsOutputEnabled(),
			USet:          e.USet(ch),
			ISet:          e.ISet(ch),
			UMon:          e.UMon(ch),
			IMon:          e.IMon(ch),
			ULimit:        e.ULimit(ch),
			ILimit:        e.ILimit(ch),
			PowerLimit:    e.PowerLimit(ch),
			Tripped:       e.IsTripped(ch),
		})
	}
	return out
}
