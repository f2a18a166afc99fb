package resilience

import (
	"testing"
	"time"
)

func TestPenaltyBoxUnknownKeyIsEligible(t *testing.T) {
	p := NewPenaltyBox(DefaultPenaltyBoxConfig())
	if !p.IsEligible("never-seen") {
		t.Fatal("expected an unknown key to be eligible")
	}
}

func TestPenaltyBoxBackoffMonotonicUpToMaxDelay(t *testing.T) {
	cfg := DefaultPenaltyBoxConfig()
	p := NewPenaltyBox(cfg)
	base := time.Unix(1700000000, 0)
	p.now = func() time.Time { return base }

	var prev time.Duration
	for i := 0; i < cfg.MaxPenalties+3; i++ {
		p.Penalize("peer-a")
		s := p.state["peer-a"]
		delay := s.eligibleAfter.Sub(base)
		if delay < prev {
			t.Fatalf("penalty %d: delay %v shrank below %v", i+1, delay, prev)
		}
		if delay > cfg.MaxDelay {
			t.Fatalf("penalty %d: delay %v exceeds MaxDelay %v", i+1, delay, cfg.MaxDelay)
		}
		prev = delay
	}
	if prev != cfg.MaxDelay {
		t.Fatalf("expected the delay to saturate at MaxDelay, got %v", prev)
	}
}

func TestPenaltyBoxExhaustsOnExactlyMaxPenalties(t *testing.T) {
	cfg := DefaultPenaltyBoxConfig()
	p := NewPenaltyBox(cfg)

	for i := 1; i < cfg.MaxPenalties; i++ {
		if p.Penalize("peer-b") {
			t.Fatalf("penalty %d of %d reported exhaustion early", i, cfg.MaxPenalties)
		}
	}
	if !p.Penalize("peer-b") {
		t.Fatalf("penalty %d did not report exhaustion", cfg.MaxPenalties)
	}
}

func TestPenaltyBoxEligibilityHonorsBackoffWindow(t *testing.T) {
	cfg := DefaultPenaltyBoxConfig()
	p := NewPenaltyBox(cfg)
	base := time.Unix(1700000000, 0)
	now := base
	p.now = func() time.Time { return now }

	p.Penalize("peer-c")
	if p.IsEligible("peer-c") {
		t.Fatal("expected ineligibility immediately after a penalty")
	}
	now = base.Add(cfg.InitialDelay)
	if !p.IsEligible("peer-c") {
		t.Fatal("expected eligibility once the backoff window elapsed")
	}
}

func TestPenaltyBoxClearResets(t *testing.T) {
	p := NewPenaltyBox(DefaultPenaltyBoxConfig())
	for i := 0; i < 3; i++ {
		p.Penalize("peer-d")
	}
	p.Clear("peer-d")
	if !p.IsEligible("peer-d") {
		t.Fatal("expected eligibility after Clear")
	}
	if p.Penalize("peer-d") {
		t.Fatal("expected the penalty count to restart from zero after Clear")
	}
}
