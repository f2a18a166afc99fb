package fec

import (
	"sync"
	"time"
)

// RedundancyConfig tunes the loss-driven parity policy.
type RedundancyConfig struct {
	// EnableLossPct turns parity on once smoothed loss exceeds it.
	EnableLossPct float64
	// DisableLossPct turns parity back off once smoothed loss stays
	// under it for a full DisableHold.
	DisableLossPct float64
	// Hold is the minimum time between any two state changes, so a
	// single bad sample can't thrash the shard counts.
	Hold time.Duration
	// DisableHold is the (longer) quiet period required before parity
	// is dropped entirely.
	DisableHold time.Duration
	// BaseParity and MaxParity bound the recommended parity count.
	BaseParity int
	MaxParity  int
}

// DefaultRedundancyConfig matches a lossy-WAN posture: parity engages
// past 1% smoothed loss and disengages only after five quiet minutes
// under 0.5%.
func DefaultRedundancyConfig() RedundancyConfig {
	return RedundancyConfig{
		EnableLossPct:  1.0,
		DisableLossPct: 0.5,
		Hold:           30 * time.Second,
		DisableHold:    5 * time.Minute,
		BaseParity:     2,
		MaxParity:      4,
	}
}

// RedundancyPolicy decides from observed loss whether a transfer
// should pay for parity and how many shards. Loss is smoothed with an
// exponential moving average so the decision tracks the link, not the
// last datagram; enable/disable use separate thresholds and hold
// periods for hysteresis.
type RedundancyPolicy struct {
	cfg RedundancyConfig

	mu         sync.Mutex
	enabled    bool
	parity     int
	smoothed   float64
	haveSample bool
	lastChange time.Time
	now        func() time.Time
}

// emaAlpha weights the newest loss sample at 30%.
const emaAlpha = 0.3

// NewRedundancyPolicy starts disabled at cfg.BaseParity.
func NewRedundancyPolicy(cfg RedundancyConfig) *RedundancyPolicy {
	p := &RedundancyPolicy{cfg: cfg, parity: cfg.BaseParity, now: time.Now}
	p.lastChange = p.now()
	return p
}

// Observe folds one period's loss percentage into the smoothed rate
// and re-evaluates the enable/parity decision.
func (p *RedundancyPolicy) Observe(lossPct float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.haveSample {
		p.smoothed = lossPct
		p.haveSample = true
	} else {
		p.smoothed = emaAlpha*lossPct + (1-emaAlpha)*p.smoothed
	}

	quiet := p.now().Sub(p.lastChange)
	if quiet < p.cfg.Hold {
		return
	}

	switch {
	case !p.enabled && p.smoothed > p.cfg.EnableLossPct:
		p.enabled = true
		p.parity = p.cfg.BaseParity
		p.lastChange = p.now()
	case p.enabled && p.smoothed < p.cfg.DisableLossPct && quiet >= p.cfg.DisableHold:
		p.enabled = false
		p.lastChange = p.now()
	case p.enabled:
		p.retuneParityLocked()
	}
}

// retuneParityLocked steps the parity count with the smoothed loss:
// heavier loss buys more shards, a recovered link falls back to base.
func (p *RedundancyPolicy) retuneParityLocked() {
	want := p.parity
	switch {
	case p.smoothed > 5.0:
		want = p.cfg.MaxParity
	case p.smoothed > 3.0 && p.parity < 3:
		want = 3
	case p.smoothed < 2.0:
		want = p.cfg.BaseParity
	}
	if want != p.parity {
		p.parity = want
		p.lastChange = p.now()
	}
}

// Recommend returns the current decision: whether parity should be
// encoded at all, and with how many shards if so.
func (p *RedundancyPolicy) Recommend() (enabled bool, parity int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled, p.parity
}

// SmoothedLoss exposes the EMA for diagnostics and bulletin posts.
func (p *RedundancyPolicy) SmoothedLoss() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.smoothed
}
