// Package resilience implements Orbit's resilience primitives:
// penalty-box backoff, a bounded dead-letter queue,
// per-destination backpressure, reference-counted chunk GC, and a
// disk/throughput health monitor.
package resilience

import (
	"math"
	"sync"
	"time"
)

// PenaltyBoxConfig tunes the exponential backoff schedule.
type PenaltyBoxConfig struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	MaxPenalties  int
}

// DefaultPenaltyBoxConfig holds the package's fixed defaults.
func DefaultPenaltyBoxConfig() PenaltyBoxConfig {
	return PenaltyBoxConfig{
		InitialDelay:  time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
		MaxPenalties:  5,
	}
}

type penaltyState struct {
	count         int
	eligibleAfter time.Time
}

// PenaltyBox tracks per-key failure counts and exponential eligibility
// delays in a small map guarded by one mutex, one entry per key,
// cleared on success.
type PenaltyBox struct {
	cfg   PenaltyBoxConfig
	mu    sync.Mutex
	state map[string]*penaltyState
	now   func() time.Time
}

// NewPenaltyBox creates a PenaltyBox with cfg.
func NewPenaltyBox(cfg PenaltyBoxConfig) *PenaltyBox {
	return &PenaltyBox{cfg: cfg, state: make(map[string]*penaltyState), now: time.Now}
}

// Penalize records a failure for key and returns whether key has now
// exhausted its retry budget (count >= MaxPenalties).
func (p *PenaltyBox) Penalize(key string) (exhausted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.state[key]
	if !ok {
		s = &penaltyState{}
		p.state[key] = s
	}
	s.count++

	delay := time.Duration(float64(p.cfg.InitialDelay) * math.Pow(p.cfg.BackoffFactor, float64(s.count-1)))
	if delay > p.cfg.MaxDelay {
		delay = p.cfg.MaxDelay
	}
	s.eligibleAfter = p.now().Add(delay)

	return s.count >= p.cfg.MaxPenalties
}

// IsEligible reports whether key may be retried now: either it has no
// recorded failures, or its backoff window has elapsed.
func (p *PenaltyBox) IsEligible(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.state[key]
	if !ok {
		return true
	}
	return !p.now().Before(s.eligibleAfter)
}

// Clear resets key's failure state after a success.
func (p *PenaltyBox) Clear(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.state, key)
}
