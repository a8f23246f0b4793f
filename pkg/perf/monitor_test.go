package perf

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
)

func snap(ms float64) model.PerformanceSnapshot {
	return model.PerformanceSnapshot{ResponseTimeMs: ms, Timestamp: time.Now()}
}

func TestRollingMeanAndTrend(t *testing.T) {
	m := NewMonitor(time.Second, 0, 10, nil)
	for _, ms := range []float64{10, 20, 30} {
		m.Record(snap(ms))
	}
	if got := m.RollingMean(); math.Abs(got-20) > 1e-9 {
		t.Errorf("mean = %v, want 20", got)
	}
	if got := m.Trend(); got <= 0 {
		t.Errorf("trend = %v, want positive for a degrading series", got)
	}
}

func TestHistoryBounded(t *testing.T) {
	m := NewMonitor(time.Second, 0, 5, nil)
	for i := 0; i < 20; i++ {
		m.Record(snap(float64(i)))
	}
	h := m.History()
	if len(h) != 5 {
		t.Fatalf("history length = %d, want 5", len(h))
	}
	if h[0].ResponseTimeMs != 15 {
		t.Errorf("oldest retained sample = %v, want 15", h[0].ResponseTimeMs)
	}
}

func TestBreachAutoAppliesSafeOnly(t *testing.T) {
	m := NewMonitor(time.Second, 100, 10, nil)

	var mu sync.Mutex
	var applied []string
	m.SetApplier(func(r Recommendation) error {
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, r.ID)
		return nil
	})

	// Three samples over threshold trigger the optimizer.
	for i := 0; i < 3; i++ {
		m.Record(snap(300))
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range applied {
		if id == RecReduceViews {
			t.Error("non-safe recommendation auto-applied")
		}
	}
	if len(applied) == 0 {
		t.Fatal("no safe recommendations applied on breach")
	}

	pending := m.Pending()
	found := false
	for _, r := range pending {
		if r.ID == RecReduceViews {
			found = true
		}
		if r.Safe {
			t.Errorf("safe recommendation %s queued for confirmation", r.ID)
		}
	}
	if !found {
		t.Error("reduce-views not queued despite severe breach")
	}
}

func TestPendingDeduplicated(t *testing.T) {
	m := NewMonitor(time.Second, 100, 10, nil)
	for i := 0; i < 6; i++ {
		m.Record(snap(300))
	}
	count := 0
	for _, r := range m.Pending() {
		if r.ID == RecReduceViews {
			count++
		}
	}
	if count != 1 {
		t.Errorf("reduce-views queued %d times, want 1", count)
	}
}

func TestNoBreachUnderThreshold(t *testing.T) {
	m := NewMonitor(time.Second, 100, 10, nil)
	applied := 0
	m.SetApplier(func(Recommendation) error {
		applied++
		return nil
	})
	for i := 0; i < 10; i++ {
		m.Record(snap(50))
	}
	if applied != 0 {
		t.Errorf("optimizer ran %d times under threshold", applied)
	}
	if len(m.Pending()) != 0 {
		t.Errorf("pending = %v under threshold", m.Pending())
	}
}

func TestConfirmAppliesAndRemoves(t *testing.T) {
	m := NewMonitor(time.Second, 100, 10, nil)
	var applied []string
	m.SetApplier(func(r Recommendation) error {
		applied = append(applied, r.ID)
		return nil
	})
	for i := 0; i < 3; i++ {
		m.Record(snap(300))
	}

	if err := m.Confirm(RecReduceViews); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range applied {
		if id == RecReduceViews {
			found = true
		}
	}
	if !found {
		t.Error("confirm did not apply the recommendation")
	}
	for _, r := range m.Pending() {
		if r.ID == RecReduceViews {
			t.Error("confirmed recommendation still pending")
		}
	}
}

func TestDismissRemovesWithoutApplying(t *testing.T) {
	m := NewMonitor(time.Second, 100, 10, nil)
	applied := 0
	m.SetApplier(func(r Recommendation) error {
		if r.ID == RecReduceViews {
			applied++
		}
		return nil
	})
	for i := 0; i < 3; i++ {
		m.Record(snap(300))
	}

	m.Dismiss(RecReduceViews)
	if applied != 0 {
		t.Error("dismiss applied the recommendation")
	}
	for _, r := range m.Pending() {
		if r.ID == RecReduceViews {
			t.Error("dismissed recommendation still pending")
		}
	}
}

func TestRecommendEscalation(t *testing.T) {
	mild := Recommend(120, 100, -1)
	for _, r := range mild {
		if r.ID == RecReduceViews {
			t.Error("mild improving breach suggested shedding views")
		}
	}

	severe := Recommend(200, 100, 0)
	found := false
	for _, r := range severe {
		if r.ID == RecReduceViews {
			found = true
			if r.Safe {
				t.Error("reduce-views marked safe")
			}
		}
	}
	if !found {
		t.Error("severe breach did not suggest shedding views")
	}
}
