package simulator

import (
	"context"
	"math/rand"
	"time"

	"github.com/kilianp07/benchpsu/core/dispatch"
	"github.com/kilianp07/benchpsu/infra/logger"
)

// Target receives the simulated acquisitions.
type Target interface {
	UpdateMonitor(ctx context.Context, ch int, r dispatch.MonitorReading) error
}

// Simulator closes the loop between the programmed outputs and the monitor
// readings of the engine.
type Simulator struct {
	hw    *Hardware
	loads []*Load
	noise float64
	rng   *rand.Rand
	log   logger.Logger
}

func New(cfg Config, hw *Hardware) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	loads := make([]*Load, len(hw.outputs))
	for i := range loads {
		loads[i] = cfg.Load(i)
	}
	return &Simulator{
		hw:    hw,
		loads: loads,
		noise: cfg.NoisePct / 100,
		rng:   rand.New(rand.NewSource(seed)),
		log:   logger.New("simulator"),
	}
}

// Load returns the load of a physical channel.
func (s *Simulator) Load(ch int) *Load { return s.loads[ch] }

// Reading computes the acquisition of a physical channel.
func (s *Simulator) Reading(ch int) dispatch.MonitorReading {
	out := s.hw.Output(ch)
	u, i := s.loads[ch].Solve(out.USet, out.ISet, out.Enabled)
	return dispatch.MonitorReading{
		U:    s.jitter(u),
		I:    s.jitter(i),
		UDac: out.USet,
		IDac: out.ISet,
	}
}

func (s *Simulator) jitter(v float64) float64 {
	if s.noise == 0 || v == 0 {
		return v
	}
	return v * (1 + s.noise*(2*s.rng.Float64()-1))
}

// Step pushes one acquisition per channel.
func (s *Simulator) Step(ctx context.Context, t Target) error {
	for ch := range s.loads {
		if err := t.UpdateMonitor(ctx, ch, s.Reading(ch)); err != nil {
			return err
		}
	}
	return nil
}

// Run steps every interval until ctx is canceled.
func (s *Simulator) Run(ctx context.Context, t Target, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.log.Infof("simulating %d channels every %s", len(s.loads), interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Step(ctx, t); err != nil && ctx.Err() == nil {
				s.log.Warnf("monitor update: %v", err)
			}
		}
	}
}
