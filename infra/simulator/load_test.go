package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Solve(t *testing.T) {
	cases := []struct {
		name         string
		ohms         float64
		uSet, iSet   float64
		enabled      bool
		wantU, wantI float64
	}{
		{"output off", 10, 12, 2, false, 0, 0},
		{"open circuit", 0, 12, 2, true, 12, 0},
		{"constant voltage", 10, 12, 2, true, 12, 1.2},
		{"constant current", 2, 12, 2, true, 4, 2},
		{"at the knee", 6, 12, 2, true, 12, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, i := (&Load{Ohms: tc.ohms}).Solve(tc.uSet, tc.iSet, tc.enabled)
			assert.InDelta(t, tc.wantU, u, 1e-9)
			assert.InDelta(t, tc.wantI, i, 1e-9)
		})
	}
}
