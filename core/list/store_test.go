package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_Lists(t *testing.T) {
	tests := []struct {
		name string
		set  func(s *MemoryStore, ch int, v []float64)
		get  func(s *MemoryStore, ch int) []float64
	}{
		{"dwell", (*MemoryStore).SetDwellList, (*MemoryStore).DwellList},
		{"voltage", (*MemoryStore).SetVoltageList, (*MemoryStore).VoltageList},
		{"current", (*MemoryStore).SetCurrentList, (*MemoryStore).CurrentList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			assert.Nil(t, tt.get(s, 0))

			in := []float64{1, 2, 3}
			tt.set(s, 0, in)
			in[0] = 99
			assert.Equal(t, []float64{1, 2, 3}, tt.get(s, 0), "input is copied")

			out := tt.get(s, 0)
			out[1] = 99
			assert.Equal(t, []float64{1, 2, 3}, tt.get(s, 0), "output is copied")
			assert.Nil(t, tt.get(s, 1))
		})
	}
}

func TestMemoryStore_TruncatesAtMaxListLength(t *testing.T) {
	s := NewMemoryStore()
	long := make([]float64, MaxListLength+10)
	for i := range long {
		long[i] = float64(i)
	}

	s.SetVoltageList(0, long)

	got := s.VoltageList(0)
	assert.Len(t, got, MaxListLength)
	assert.Equal(t, float64(MaxListLength-1), got[len(got)-1])

	s.SetDwellList(0, long[:MaxListLength])
	assert.Len(t, s.DwellList(0), MaxListLength)
}

func TestMemoryStore_CountAndReset(t *testing.T) {
	s := NewMemoryStore()
	assert.Equal(t, 1, s.ListCount(0))

	s.SetListCount(0, 0)
	s.SetCurrentList(0, []float64{0.5})
	assert.Equal(t, 0, s.ListCount(0))

	s.ResetChannelList(0)
	assert.Equal(t, 1, s.ListCount(0))
	assert.Nil(t, s.CurrentList(0))
}
