package wormhole

import (
	"sync"

	"github.com/saworbit/orbit-sub003/internal/fec"
)

// LossSample is one observation period's network conditions, feeding
// TuneK's decision.
type LossSample struct {
	LossPercent float64
	P95RTOMs    float64
	RTTP50Ms    float64
}

// rttStableTolerance bounds how much the p50 RTT may drift between the
// two most recent samples and still count as "stable" for the decrease
// rule below.
const rttStableTolerance = 0.10 // 10%

// TuneK implements the adaptive parity rule: increase k
// when loss% > 2 or p95 retransmit timeout exceeds 250ms; decrease
// when loss% < 0.2 and the p50 RTT trend is stable; otherwise hold.
// history is ordered oldest-first; only the most recent sample and its
// predecessor (for RTT stability) are consulted.
func TuneK(history []LossSample, k, minK, maxK int) int {
	if len(history) == 0 {
		return clampK(k, minK, maxK)
	}
	latest := history[len(history)-1]

	if latest.LossPercent > 2.0 || latest.P95RTOMs > 250.0 {
		return clampK(k+1, minK, maxK)
	}

	if latest.LossPercent < 0.2 && rttStable(history) {
		return clampK(k-1, minK, maxK)
	}

	return clampK(k, minK, maxK)
}

func rttStable(history []LossSample) bool {
	if len(history) < 2 {
		return false
	}
	prev := history[len(history)-2].RTTP50Ms
	latest := history[len(history)-1].RTTP50Ms
	if prev == 0 {
		return latest == 0
	}
	delta := latest - prev
	if delta < 0 {
		delta = -delta
	}
	return delta/prev <= rttStableTolerance
}

func clampK(k, minK, maxK int) int {
	if k < minK {
		return minK
	}
	if k > maxK {
		return maxK
	}
	return k
}

// ParityController is a transfer-lifetime adaptive tuner: it keeps a
// rolling LossSample history for TuneK's per-round K decision, and
// delegates the enabled/redundancy hysteresis (hold windows, separate
// enable/disable thresholds) to an underlying fec.RedundancyPolicy, so
// a single bad sample doesn't thrash parity shard counts.
type ParityController struct {
	mu      sync.Mutex
	policy  *fec.RedundancyPolicy
	history []LossSample
	k       int
	minK    int
	maxK    int
}

// maxHistorySamples bounds how many LossSamples ParityController
// retains; only the most recent two are ever consulted by TuneK, but
// a short trailing window is kept for diagnostics.
const maxHistorySamples = 16

// NewParityController creates a ParityController seeded with k parity
// shards, bounded to [minK, maxK], and backed by an fec.RedundancyPolicy
// built from cfg for the enabled/redundancy hysteresis.
func NewParityController(cfg fec.RedundancyConfig, k, minK, maxK int) *ParityController {
	return &ParityController{
		policy: fec.NewRedundancyPolicy(cfg),
		k:      k,
		minK:   minK,
		maxK:   maxK,
	}
}

// Observe records one period's network conditions and updates both
// the parity-shard count (via TuneK) and the redundancy policy's
// enabled state (via the wrapped RedundancyPolicy).
func (c *ParityController) Observe(sample LossSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, sample)
	if len(c.history) > maxHistorySamples {
		c.history = c.history[len(c.history)-maxHistorySamples:]
	}
	c.k = TuneK(c.history, c.k, c.minK, c.maxK)
	c.policy.Observe(sample.LossPercent)
}

// Parameters returns the controller's current recommendation: whether
// parity is enabled at all, the tuned parity-shard count k, and the
// policy's own redundancy recommendation r.
func (c *ParityController) Parameters() (enabled bool, k, r int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	enabled, r = c.policy.Recommend()
	return enabled, c.k, r
}
