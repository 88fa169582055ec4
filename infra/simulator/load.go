package simulator

import "sync"

// Load is a resistive load in front of one physical channel.
type Load struct {
	mu   sync.Mutex
	Ohms float64
}

// SetOhms replaces the resistance. Zero or negative opens the circuit.
func (l *Load) SetOhms(r float64) {
	l.mu.Lock()
	l.Ohms = r
	l.mu.Unlock()
}

// Solve returns the output voltage and current for the programmed setpoints.
// The channel regulates voltage until the load would draw more than iSet and
// then limits current.
func (l *Load) Solve(uSet, iSet float64, enabled bool) (u, i float64) {
	if !enabled {
		return 0, 0
	}
	l.mu.Lock()
	r := l.Ohms
	l.mu.Unlock()
	if r <= 0 {
		return uSet, 0
	}
	if iCV := uSet / r; iCV <= iSet {
		return uSet, iCV
	}
	return iSet * r, iSet
}
