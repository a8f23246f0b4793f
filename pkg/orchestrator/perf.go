package orchestrator

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/perf"
	"github.com/paneshell/paneshell/pkg/store"
)

// perfLoop adapts the performance monitor to the orchestrator: it feeds
// samples from observed render timings and applies the optimizer's safe
// recommendations back into engine state. Optimizer mutations go through
// the store, so they re-enter the normal dirty/autosave path.
type perfLoop struct {
	mon *perf.Monitor
	o   *Orchestrator

	mu         sync.Mutex
	lastRender time.Duration
	frames     int
	windowFrom time.Time
}

func newPerf(o *Orchestrator) *perfLoop {
	p := &perfLoop{o: o, windowFrom: time.Now()}
	p.mon = perf.NewMonitor(o.cfg.SampleInterval, o.cfg.ResponseThresholdMs, o.cfg.HistorySize, p.sample)
	p.mon.SetApplier(p.apply)
	return p
}

// ObserveRender records one frame's render duration. The host shell calls
// this from its render path.
func (p *perfLoop) ObserveRender(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRender = d
	p.frames++
}

// Monitor exposes the underlying performance monitor (history, pending
// recommendations, confirmation).
func (p *perfLoop) Monitor() *perf.Monitor { return p.mon }

func (p *perfLoop) start(ctx context.Context) { p.mon.Start(ctx) }

func (p *perfLoop) stop() { p.mon.Stop() }

// sample produces one snapshot from the observed render timings and the
// Go runtime's memory stats.
func (p *perfLoop) sample() model.PerformanceSnapshot {
	p.mu.Lock()
	last := p.lastRender
	frames := p.frames
	elapsed := time.Since(p.windowFrom)
	p.frames = 0
	p.windowFrom = time.Now()
	p.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fps := 0.0
	if elapsed > 0 {
		fps = float64(frames) / elapsed.Seconds()
	}
	return model.PerformanceSnapshot{
		ResponseTimeMs: float64(last) / float64(time.Millisecond),
		MemoryMB:       float64(mem.HeapAlloc) / (1024 * 1024),
		FrameRate:      fps,
		Timestamp:      time.Now(),
	}
}

// apply executes one recommendation. Only safe ones arrive here
// automatically; non-safe ones come through Confirm.
func (p *perfLoop) apply(rec perf.Recommendation) error {
	switch rec.ID {
	case perf.RecSimplifyAnimations:
		p.o.mu.Lock()
		p.o.animations = false
		p.o.mu.Unlock()
		return nil
	case perf.RecEnableVirtualization:
		p.o.mu.Lock()
		p.o.virtualization = true
		p.o.mu.Unlock()
		return nil
	case perf.RecReduceViews:
		return p.hideColdestView()
	default:
		return nil
	}
}

// hideColdestView hides the least-recently-focused visible view (lowest
// z-index), keeping at least one visible.
func (p *perfLoop) hideColdestView() error {
	layout := p.o.Store.Layout()
	coldest := -1
	visible := 0
	for i := range layout.Views {
		if !layout.Views[i].Visible {
			continue
		}
		visible++
		if coldest < 0 || layout.Views[i].ZIndex < layout.Views[coldest].ZIndex {
			coldest = i
		}
	}
	if coldest < 0 || visible <= 1 {
		return nil
	}
	return p.o.Store.Dispatch(store.SetViewVisible{ID: layout.Views[coldest].ID, Visible: false})
}
