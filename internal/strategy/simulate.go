package strategy

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Simulator fabricates a progress timeline and a savings percentage
// without touching the file's bytes. It is the universal fallback for
// kinds with no real strategy and for office files whose real path
// fails. It never fails.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand

	MinInterval time.Duration
	MaxInterval time.Duration
}

// NewSimulator builds a simulator with its own seedable random source
// so tests can make the timeline deterministic.
func NewSimulator(seed int64, minInterval, maxInterval time.Duration) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		rng:         rand.New(rand.NewSource(seed)),
		MinInterval: minInterval,
		MaxInterval: maxInterval,
	}
}

func (s *Simulator) Name() string { return "simulate" }

func (s *Simulator) Compress(ctx context.Context, filename string, data []byte, report Progress) (*Outcome, error) {
	interval := s.interval()

	width := 0.0
	for width < 100 {
		if interval > 0 {
			time.Sleep(interval)
		}
		width += s.step()
		if width > 100 {
			width = 100
		}
		report(int(width))
	}

	// Fabricated reduction in [20, 50); the original bytes are what
	// gets offered for download.
	savings := 20 + s.intn(30)
	return &Outcome{Data: data, Real: false, Savings: savings}, nil
}

func (s *Simulator) interval() time.Duration {
	if s.MaxInterval <= s.MinInterval {
		return s.MinInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.MinInterval + time.Duration(s.rng.Int63n(int64(s.MaxInterval-s.MinInterval)))
}

func (s *Simulator) step() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() * 5
}

func (s *Simulator) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
