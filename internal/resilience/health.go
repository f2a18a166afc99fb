package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// AdvisoryKind is the closed set of health signals a HealthMonitor can
// emit.
type AdvisoryKind int

const (
	Healthy AdvisoryKind = iota
	DiskWarning
	DiskCritical
	DiskExhaustionPredicted
	ThroughputLow
	ErrorRateHigh
)

func (k AdvisoryKind) String() string {
	switch k {
	case Healthy:
		return "Healthy"
	case DiskWarning:
		return "DiskWarning"
	case DiskCritical:
		return "DiskCritical"
	case DiskExhaustionPredicted:
		return "DiskExhaustionPredicted"
	case ThroughputLow:
		return "ThroughputLow"
	case ErrorRateHigh:
		return "ErrorRateHigh"
	default:
		return "Unknown"
	}
}

// Advisory is one emitted health signal. ETASeconds is only meaningful
// for DiskExhaustionPredicted.
type Advisory struct {
	Kind       AdvisoryKind
	ETASeconds int64
}

// Message renders a human-readable advisory line suitable for
// internal/bulletin, using the same humanize idiom that package uses
// for byte counts and relative times.
func (a Advisory) Message(latest Sample) string {
	switch a.Kind {
	case DiskWarning, DiskCritical:
		return fmt.Sprintf("%s: %s free of %s", a.Kind, humanize.Bytes(latest.DiskAvailable), humanize.Bytes(latest.DiskTotal))
	case DiskExhaustionPredicted:
		return fmt.Sprintf("disk exhaustion predicted in %s", humanize.Time(time.Now().Add(time.Duration(a.ETASeconds)*time.Second)))
	case ThroughputLow:
		return fmt.Sprintf("throughput low: %s/s", humanize.Bytes(uint64(latest.Throughput)))
	case ErrorRateHigh:
		return fmt.Sprintf("error rate high: %d/%d ops", latest.ErrorCount, latest.TotalOps)
	default:
		return a.Kind.String()
	}
}

// Sample is one point-in-time health reading.
type Sample struct {
	At            time.Time
	DiskAvailable uint64
	DiskTotal     uint64
	Throughput    float64 // bytes/sec
	ErrorCount    uint64
	TotalOps      uint64
}

// HealthMonitorConfig tunes HealthMonitor's thresholds and history
// window.
type HealthMonitorConfig struct {
	HistorySize       int
	HistoryMaxAge     time.Duration
	DiskWarningRatio  float64 // disk_available/disk_total below this -> DiskWarning
	DiskCriticalRatio float64 // below this -> DiskCritical
	MinThroughputBPS  float64 // below this -> ThroughputLow
	MaxErrorRate      float64 // error_count/total_ops above this -> ErrorRateHigh
}

// DefaultHealthMonitorConfig provides reasonable defaults.
func DefaultHealthMonitorConfig() HealthMonitorConfig {
	return HealthMonitorConfig{
		HistorySize:       60,
		HistoryMaxAge:     10 * time.Minute,
		DiskWarningRatio:  0.20,
		DiskCriticalRatio: 0.05,
		MinThroughputBPS:  1024, // 1 KiB/s
		MaxErrorRate:      0.10,
	}
}

// HealthMonitor samples disk/throughput/error state over time and
// derives advisories, including a linear-regression prediction of
// disk exhaustion. Unlike internal/observability's point-in-time
// HealthChecker probes, the monitor reasons about trend, so it keeps a
// bounded time-series history.
type HealthMonitor struct {
	cfg HealthMonitorConfig

	mu      sync.Mutex
	history []Sample
}

// NewHealthMonitor creates a HealthMonitor with cfg.
func NewHealthMonitor(cfg HealthMonitorConfig) *HealthMonitor {
	return &HealthMonitor{cfg: cfg}
}

// Record adds a sample to the history, pruning entries older than
// HistoryMaxAge or beyond HistorySize, whichever bound bites first.
func (m *HealthMonitor) Record(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, s)

	cutoff := s.At.Add(-m.cfg.HistoryMaxAge)
	i := 0
	for ; i < len(m.history); i++ {
		if !m.history[i].At.Before(cutoff) {
			break
		}
	}
	m.history = m.history[i:]

	if len(m.history) > m.cfg.HistorySize {
		m.history = m.history[len(m.history)-m.cfg.HistorySize:]
	}
}

// Evaluate derives every advisory the current history supports. An
// empty or single-sample history with no threshold breach yields just
// Healthy.
func (m *HealthMonitor) Evaluate() []Advisory {
	m.mu.Lock()
	history := make([]Sample, len(m.history))
	copy(history, m.history)
	m.mu.Unlock()

	if len(history) == 0 {
		return []Advisory{{Kind: Healthy}}
	}
	latest := history[len(history)-1]

	var advisories []Advisory

	if latest.DiskTotal > 0 {
		ratio := float64(latest.DiskAvailable) / float64(latest.DiskTotal)
		switch {
		case ratio < m.cfg.DiskCriticalRatio:
			advisories = append(advisories, Advisory{Kind: DiskCritical})
		case ratio < m.cfg.DiskWarningRatio:
			advisories = append(advisories, Advisory{Kind: DiskWarning})
		}
	}

	if eta, ok := predictDiskExhaustion(history); ok {
		advisories = append(advisories, Advisory{Kind: DiskExhaustionPredicted, ETASeconds: eta})
	}

	if latest.Throughput > 0 && latest.Throughput < m.cfg.MinThroughputBPS {
		advisories = append(advisories, Advisory{Kind: ThroughputLow})
	}

	if latest.TotalOps > 0 {
		rate := float64(latest.ErrorCount) / float64(latest.TotalOps)
		if rate > m.cfg.MaxErrorRate {
			advisories = append(advisories, Advisory{Kind: ErrorRateHigh})
		}
	}

	if len(advisories) == 0 {
		return []Advisory{{Kind: Healthy}}
	}
	return advisories
}

// predictDiskExhaustion fits a least-squares line to DiskAvailable
// over time across history and, when the trend is decreasing,
// estimates seconds until it reaches zero.
func predictDiskExhaustion(history []Sample) (etaSeconds int64, ok bool) {
	if len(history) < 2 {
		return 0, false
	}

	t0 := history[0].At
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(history))
	for _, s := range history {
		x := s.At.Sub(t0).Seconds()
		y := float64(s.DiskAvailable)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	slope := (n*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return 0, false
	}
	intercept := (sumY - slope*sumX) / n

	latest := history[len(history)-1]
	tLatest := latest.At.Sub(t0).Seconds()
	currentFit := slope*tLatest + intercept
	if currentFit <= 0 {
		return 0, true
	}
	eta := -currentFit / slope
	if eta < 0 {
		eta = 0
	}
	return int64(eta), true
}
