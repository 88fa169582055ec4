// Package trigger defines the trigger subsystem contract used by the
// dispatcher and a minimal in-memory implementation of it.
package trigger

import "sync"

// Trigger is the collaborator that runs triggered and list sequences.
type Trigger interface {
	// Abort stops any initiated or running sequence.
	Abort()
	IsIdle() bool
	IsInitiated() bool
}

// State is the phase of the trigger subsystem.
type State int

const (
	StateIdle State = iota
	StateInitiated
	StateTriggered
)

// Machine is a goroutine-safe Trigger tracking its phase and abort count.
type Machine struct {
	mu     sync.Mutex
	state  State
	aborts int
}

func (m *Machine) Initiate() {
	m.mu.Lock()
	m.state = StateInitiated
	m.mu.Unlock()
}

// Fire moves an initiated sequence into the running phase.
func (m *Machine) Fire() {
	m.mu.Lock()
	if m.state == StateInitiated {
		m.state = StateTriggered
	}
	m.mu.Unlock()
}

func (m *Machine) Abort() {
	m.mu.Lock()
	m.state = StateIdle
	m.aborts++
	m.mu.Unlock()
}

func (m *Machine) IsIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateIdle
}

func (m *Machine) IsInitiated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateInitiated
}

// Aborts returns how many times Abort was called.
func (m *Machine) Aborts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aborts
}
