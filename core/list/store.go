// Package list stores the dwell, voltage and current arrays of list
// programs. Sequencing is handled elsewhere; this package only holds data.
package list

import "sync"

// MaxListLength bounds every list array.
const MaxListLength = 256

// Store is the list program collaborator. Lists are keyed by channel index.
type Store interface {
	DwellList(ch int) []float64
	SetDwellList(ch int, values []float64)
	VoltageList(ch int) []float64
	SetVoltageList(ch int, values []float64)
	CurrentList(ch int) []float64
	SetCurrentList(ch int, values []float64)
	ListCount(ch int) int
	SetListCount(ch int, count int)
	ResetChannelList(ch int)
}

type program struct {
	dwell   []float64
	voltage []float64
	current []float64
	count   int
}

// MemoryStore keeps list programs in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	programs map[int]*program
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{programs: make(map[int]*program)}
}

func (s *MemoryStore) get(ch int) *program {
	p, ok := s.programs[ch]
	if !ok {
		p = &program{count: 1}
		s.programs[ch] = p
	}
	return p
}

func bounded(values []float64) []float64 {
	if len(values) > MaxListLength {
		values = values[:MaxListLength]
	}
	return append([]float64(nil), values...)
}

func (s *MemoryStore) read(ch int, pick func(*program) []float64) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[ch]
	if !ok {
		return nil
	}
	return append([]float64(nil), pick(p)...)
}

func (s *MemoryStore) DwellList(ch int) []float64 {
	return s.read(ch, func(p *program) []float64 { return p.dwell })
}

func (s *MemoryStore) VoltageList(ch int) []float64 {
	return s.read(ch, func(p *program) []float64 { return p.voltage })
}

func (s *MemoryStore) CurrentList(ch int) []float64 {
	return s.read(ch, func(p *program) []float64 { return p.current })
}

func (s *MemoryStore) SetDwellList(ch int, values []float64) {
	s.mu.Lock()
	s.get(ch).dwell = bounded(values)
	s.mu.Unlock()
}

func (s *MemoryStore) SetVoltageList(ch int, values []float64) {
	s.mu.Lock()
	s.get(ch).voltage = bounded(values)
	s.mu.Unlock()
}

func (s *MemoryStore) SetCurrentList(ch int, values []float64) {
	s.mu.Lock()
	s.get(ch).current = bounded(values)
	s.mu.Unlock()
}

// ListCount returns how many times the list repeats; 0 means forever.
func (s *MemoryStore) ListCount(ch int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.programs[ch]; ok {
		return p.count
	}
	return 1
}

func (s *MemoryStore) SetListCount(ch int, count int) {
	s.mu.Lock()
	s.get(ch).count = count
	s.mu.Unlock()
}

// ResetChannelList drops every list of the channel.
func (s *MemoryStore) ResetChannelList(ch int) {
	s.mu.Lock()
	delete(s.programs, ch)
	s.mu.Unlock()
}
