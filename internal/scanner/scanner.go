// Package scanner abstracts the palm-scanner hardware behind a capability
// interface so a real device driver can be swapped in without touching the
// enrollment or verification flows.
package scanner

import (
	"context"
	"errors"
	"math/rand"
	"sync"
)

// Outcome is the result of a single capture attempt.
type Outcome struct {
	// Success reports whether a palm was captured and matched quality
	// thresholds.
	Success bool
	// Quality is the capture quality in [0,1]; informational only.
	Quality float64
}

// ErrDeviceUnavailable indicates the scanner hardware could not be reached.
var ErrDeviceUnavailable = errors.New("palm scanner unavailable")

// Scanner is the palm-capture capability. BeginCapture blocks until the
// device reports an outcome or ctx is cancelled.
type Scanner interface {
	BeginCapture(ctx context.Context) (Outcome, error)
}

// Simulated is a stand-in driver that reports success at a configured
// rate. It exists because no real capture hardware backs this deployment;
// it is not a contract any real driver needs to honor.
type Simulated struct {
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated scanner with the given success rate
// in [0,1], seeded from seed.
func NewSimulated(successRate float64, seed int64) *Simulated {
	return &Simulated{
		successRate: successRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// BeginCapture rolls the configured success rate.
func (s *Simulated) BeginCapture(ctx context.Context) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	quality := 0.5 + s.rng.Float64()/2
	s.mu.Unlock()

	return Outcome{
		Success: roll < s.successRate,
		Quality: quality,
	}, nil
}

// Static is a deterministic scanner for tests.
type Static struct {
	Outcome Outcome
	Err     error
}

// BeginCapture returns the configured outcome.
func (s *Static) BeginCapture(ctx context.Context) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	return s.Outcome, s.Err
}
