package resilience

import (
	"testing"
	"time"
)

func TestHealthMonitorHealthyByDefault(t *testing.T) {
	m := NewHealthMonitor(DefaultHealthMonitorConfig())
	advisories := m.Evaluate()
	if len(advisories) != 1 || advisories[0].Kind != Healthy {
		t.Fatalf("expected [Healthy] with no samples, got %v", advisories)
	}
}

func TestHealthMonitorDiskWarningAndCritical(t *testing.T) {
	cfg := DefaultHealthMonitorConfig()
	m := NewHealthMonitor(cfg)
	base := time.Unix(1700000000, 0)

	m.Record(Sample{At: base, DiskAvailable: 15, DiskTotal: 100, TotalOps: 10})
	advisories := m.Evaluate()
	if !containsKind(advisories, DiskWarning) {
		t.Fatalf("expected DiskWarning at 15%% free, got %v", advisories)
	}

	m.Record(Sample{At: base.Add(time.Second), DiskAvailable: 3, DiskTotal: 100, TotalOps: 10})
	advisories = m.Evaluate()
	if !containsKind(advisories, DiskCritical) {
		t.Fatalf("expected DiskCritical at 3%% free, got %v", advisories)
	}
}

func TestHealthMonitorThroughputLow(t *testing.T) {
	cfg := DefaultHealthMonitorConfig()
	m := NewHealthMonitor(cfg)
	m.Record(Sample{At: time.Unix(1700000000, 0), DiskAvailable: 90, DiskTotal: 100, Throughput: 10})
	advisories := m.Evaluate()
	if !containsKind(advisories, ThroughputLow) {
		t.Fatalf("expected ThroughputLow, got %v", advisories)
	}
}

func TestHealthMonitorErrorRateHigh(t *testing.T) {
	cfg := DefaultHealthMonitorConfig()
	m := NewHealthMonitor(cfg)
	m.Record(Sample{At: time.Unix(1700000000, 0), DiskAvailable: 90, DiskTotal: 100, ErrorCount: 5, TotalOps: 10})
	advisories := m.Evaluate()
	if !containsKind(advisories, ErrorRateHigh) {
		t.Fatalf("expected ErrorRateHigh at 50%% error rate, got %v", advisories)
	}
}

func TestAdvisoryMessageIsHumanReadable(t *testing.T) {
	latest := Sample{DiskAvailable: 3 * 1 << 30, DiskTotal: 100 * 1 << 30}
	msg := Advisory{Kind: DiskWarning}.Message(latest)
	if msg == "" || msg == DiskWarning.String() {
		t.Fatalf("expected a humanized disk message, got %q", msg)
	}
}

func TestHealthMonitorPredictsDiskExhaustion(t *testing.T) {
	cfg := DefaultHealthMonitorConfig()
	m := NewHealthMonitor(cfg)
	base := time.Unix(1700000000, 0)

	// Disk draining at a steady 10 units/sec starting from 1000.
	for i := 0; i < 10; i++ {
		m.Record(Sample{
			At:            base.Add(time.Duration(i) * time.Second),
			DiskAvailable: uint64(1000 - i*10),
			DiskTotal:     100000,
			TotalOps:      1,
		})
	}

	advisories := m.Evaluate()
	var found *Advisory
	for i := range advisories {
		if advisories[i].Kind == DiskExhaustionPredicted {
			found = &advisories[i]
		}
	}
	if found == nil {
		t.Fatalf("expected DiskExhaustionPredicted, got %v", advisories)
	}
	// Remaining disk at last sample is 1000-90=910, draining at 10/sec -> ~91s.
	if found.ETASeconds < 80 || found.ETASeconds > 100 {
		t.Fatalf("expected ETA near 91s, got %d", found.ETASeconds)
	}
}

func TestHealthMonitorNoPredictionWhenDiskStable(t *testing.T) {
	cfg := DefaultHealthMonitorConfig()
	m := NewHealthMonitor(cfg)
	base := time.Unix(1700000000, 0)

	for i := 0; i < 5; i++ {
		m.Record(Sample{At: base.Add(time.Duration(i) * time.Second), DiskAvailable: 90000, DiskTotal: 100000, TotalOps: 1})
	}

	advisories := m.Evaluate()
	if containsKind(advisories, DiskExhaustionPredicted) {
		t.Fatalf("expected no prediction for stable disk, got %v", advisories)
	}
}

func TestHealthMonitorPrunesByAge(t *testing.T) {
	cfg := DefaultHealthMonitorConfig()
	cfg.HistoryMaxAge = 5 * time.Second
	m := NewHealthMonitor(cfg)
	base := time.Unix(1700000000, 0)

	m.Record(Sample{At: base, DiskAvailable: 100, DiskTotal: 100000, TotalOps: 1})
	m.Record(Sample{At: base.Add(20 * time.Second), DiskAvailable: 99000, DiskTotal: 100000, TotalOps: 1})

	m.mu.Lock()
	n := len(m.history)
	m.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected stale sample pruned, history len=%d", n)
	}
}

func TestHealthMonitorPrunesBySize(t *testing.T) {
	cfg := DefaultHealthMonitorConfig()
	cfg.HistorySize = 3
	cfg.HistoryMaxAge = time.Hour
	m := NewHealthMonitor(cfg)
	base := time.Unix(1700000000, 0)

	for i := 0; i < 10; i++ {
		m.Record(Sample{At: base.Add(time.Duration(i) * time.Second), DiskAvailable: 100, DiskTotal: 100000, TotalOps: 1})
	}

	m.mu.Lock()
	n := len(m.history)
	m.mu.Unlock()
	if n != 3 {
		t.Fatalf("expected history capped at 3, got %d", n)
	}
}

func containsKind(advisories []Advisory, kind AdvisoryKind) bool {
	for _, a := range advisories {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
