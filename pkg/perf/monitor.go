// Package perf samples render/resource metrics on a fixed interval, keeps
// a rolling history, and turns sustained slowness into optimization
// recommendations. Safe recommendations are auto-applied; the rest wait
// for human confirmation.
package perf

import (
	"context"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/paneshell/paneshell/pkg/model"
)

// SampleFunc produces one performance observation. The host shell supplies
// this (render timing, runtime memory, frame pacing).
type SampleFunc func() model.PerformanceSnapshot

// Monitor keeps the rolling history and drives the optimizer.
type Monitor struct {
	interval    time.Duration
	thresholdMs float64
	capacity    int
	sample      SampleFunc

	mu      sync.Mutex
	history []model.PerformanceSnapshot
	pending []Recommendation
	applier func(Recommendation) error
	onRecs  func([]Recommendation)
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor creates a monitor. interval is the sampling period,
// thresholdMs the rolling-mean response time that triggers the optimizer,
// capacity the bounded history length.
func NewMonitor(interval time.Duration, thresholdMs float64, capacity int, sample SampleFunc) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if capacity <= 0 {
		capacity = 60
	}
	return &Monitor{
		interval:    interval,
		thresholdMs: thresholdMs,
		capacity:    capacity,
		sample:      sample,
	}
}

// SetApplier installs the mutator used to auto-apply safe recommendations.
// The optimizer's output re-enters the normal dirty/autosave path through
// whatever store mutations the applier performs.
func (p *Monitor) SetApplier(fn func(Recommendation) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applier = fn
}

// OnRecommendations registers a hook fired whenever the optimizer emits,
// including the non-safe ones queued for confirmation.
func (p *Monitor) OnRecommendations(fn func([]Recommendation)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRecs = fn
}

// Start begins periodic sampling until ctx is done or Stop is called.
func (p *Monitor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.sample == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Record(p.sample())
			}
		}
	}()
}

// Stop ends sampling.
func (p *Monitor) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Record appends one snapshot to the rolling history and evaluates the
// optimizer. Push-based hosts can call this directly instead of Start.
func (p *Monitor) Record(snap model.PerformanceSnapshot) {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	p.mu.Lock()
	p.history = append(p.history, snap)
	if len(p.history) > p.capacity {
		p.history = p.history[len(p.history)-p.capacity:]
	}
	mean := p.rollingMeanLocked()
	breach := p.thresholdMs > 0 && mean > p.thresholdMs && len(p.history) >= 3
	p.mu.Unlock()

	if breach {
		p.recommend(mean)
	}
}

// History returns a copy of the rolling snapshot history.
func (p *Monitor) History() []model.PerformanceSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.PerformanceSnapshot, len(p.history))
	copy(out, p.history)
	return out
}

// RollingMean returns the mean response time across the history, in ms.
func (p *Monitor) RollingMean() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rollingMeanLocked()
}

func (p *Monitor) rollingMeanLocked() float64 {
	if len(p.history) == 0 {
		return 0
	}
	xs := make([]float64, len(p.history))
	for i := range p.history {
		xs[i] = p.history[i].ResponseTimeMs
	}
	return stat.Mean(xs, nil)
}

// Trend returns the slope of response time over the history (ms per
// sample). Positive means degrading.
func (p *Monitor) Trend() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) < 2 {
		return 0
	}
	xs := make([]float64, len(p.history))
	ys := make([]float64, len(p.history))
	for i := range p.history {
		xs[i] = float64(i)
		ys[i] = p.history[i].ResponseTimeMs
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

// Pending returns recommendations awaiting human confirmation.
func (p *Monitor) Pending() []Recommendation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Recommendation, len(p.pending))
	copy(out, p.pending)
	return out
}

// Confirm applies a queued non-safe recommendation by id.
func (p *Monitor) Confirm(id string) error {
	p.mu.Lock()
	var rec *Recommendation
	idx := -1
	for i := range p.pending {
		if p.pending[i].ID == id {
			rec = &p.pending[i]
			idx = i
			break
		}
	}
	if rec == nil {
		p.mu.Unlock()
		return nil
	}
	r := *rec
	p.pending = append(p.pending[:idx], p.pending[idx+1:]...)
	applier := p.applier
	p.mu.Unlock()

	if applier == nil {
		return nil
	}
	return applier(r)
}

// Dismiss drops a queued recommendation without applying it.
func (p *Monitor) Dismiss(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.pending {
		if p.pending[i].ID == id {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return
		}
	}
}

func (p *Monitor) recommend(mean float64) {
	recs := Recommend(mean, p.thresholdMs, p.Trend())

	p.mu.Lock()
	applier := p.applier
	onRecs := p.onRecs
	for _, r := range recs {
		if !r.Safe && !p.queuedLocked(r.ID) {
			p.pending = append(p.pending, r)
		}
	}
	p.mu.Unlock()

	if applier != nil {
		for _, r := range recs {
			if r.Safe {
				_ = applier(r)
			}
		}
	}
	if onRecs != nil {
		onRecs(recs)
	}
}

func (p *Monitor) queuedLocked(id string) bool {
	for i := range p.pending {
		if p.pending[i].ID == id {
			return true
		}
	}
	return false
}
