// Package autosave persists the layout after dirty mutations. Saves are
// debounced, retried with capped exponential backoff, and blocked while a
// drag session is active.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/store"
)

// Backoff schedule for failed save attempts.
const (
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 8 * time.Second
)

// SaveFunc persists one layout snapshot and returns the persisted version.
type SaveFunc func(ctx context.Context, layout model.LayoutConfiguration) (int, error)

// Scheduler debounces and retries persistence.
type Scheduler struct {
	store       *store.Store
	save        SaveFunc
	delay       time.Duration
	timeout     time.Duration
	maxAttempts int

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	blocked bool // drag in progress
	pending bool // a save was due while blocked
	closed  bool
	saving  bool

	onSaved   func(version int)
	onFailure func(err error)
}

// New creates a scheduler saving through fn. delay is the quiet period
// after the last dirty mutation; timeout bounds each attempt; maxAttempts
// bounds retries.
func New(s *store.Store, fn SaveFunc, delay, timeout time.Duration, maxAttempts int) *Scheduler {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Scheduler{
		store:       s,
		save:        fn,
		delay:       delay,
		timeout:     timeout,
		maxAttempts: maxAttempts,
	}
}

// OnSaved registers a hook for confirmed saves.
func (a *Scheduler) OnSaved(fn func(version int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSaved = fn
}

// OnFailure registers a hook for saves that exhausted their retries. Dirty
// state is preserved; nothing is lost.
func (a *Scheduler) OnFailure(fn func(err error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFailure = fn
}

// Observe is a store subscriber: every dirty structural mutation re-arms
// the debounce timer.
func (a *Scheduler) Observe(ch store.Change) {
	if !ch.Dirty {
		return
	}
	a.Arm()
}

// Arm (re)starts the debounce timer. Each call resets it, so only the
// final mutation of a burst schedules a save.
func (a *Scheduler) Arm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.seq++
	seq := a.seq
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		a.fire(seq)
	})
}

// SetBlocked toggles the drag gate. Saves never commit while blocked; when
// the gate opens with mutations pending, the scheduler re-arms itself.
func (a *Scheduler) SetBlocked(blocked bool) {
	a.mu.Lock()
	a.blocked = blocked
	rearm := !blocked && (a.pending || a.store.Dirty())
	if rearm {
		a.pending = false
	}
	a.mu.Unlock()

	if rearm {
		a.Arm()
	}
}

// Close cancels pending timers. No saves fire afterwards.
func (a *Scheduler) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.seq++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// fire runs when the debounce window settles.
func (a *Scheduler) fire(seq uint64) {
	a.mu.Lock()
	if a.closed || seq != a.seq {
		a.mu.Unlock()
		return
	}
	if a.blocked {
		// Invariant: never persist while a drag session is active. The
		// save re-arms when the drag ends.
		a.pending = true
		a.mu.Unlock()
		return
	}
	if a.saving {
		a.pending = true
		a.mu.Unlock()
		return
	}
	a.saving = true
	a.mu.Unlock()

	a.run()
}

// run attempts the save with capped exponential backoff.
func (a *Scheduler) run() {
	var lastErr error
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			time.Sleep(backoff)
		}

		a.mu.Lock()
		if a.closed || a.blocked {
			// A drag started mid-retry: stop and re-arm on unblock.
			a.pending = !a.closed
			a.saving = false
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()

		if !a.store.Dirty() {
			break
		}

		layout, gen := a.store.Snapshot()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		version, err := a.save(ctx, layout)
		cancel()
		if err == nil {
			// Mutations dispatched mid-save stay dirty: MarkSaved only
			// clears state the persisted snapshot actually covers.
			a.store.MarkSaved(version, time.Now(), gen)
			if a.store.Dirty() {
				a.finishDirty(version)
				return
			}
			a.finish(nil, version)
			return
		}
		lastErr = err
	}
	if lastErr != nil {
		a.finish(fmt.Errorf("%w after %d attempts: %v", model.ErrPersistenceFailure, a.maxAttempts, lastErr), 0)
		return
	}
	a.finish(nil, -1)
}

// finishDirty handles a save that raced with newer mutations: the snapshot
// persisted, but the store is still dirty, so the scheduler re-arms to pick
// up what the save missed.
func (a *Scheduler) finishDirty(version int) {
	a.mu.Lock()
	a.pending = true
	a.mu.Unlock()
	a.finish(nil, version)
}

func (a *Scheduler) finish(err error, version int) {
	a.mu.Lock()
	a.saving = false
	rearm := a.pending && !a.closed && !a.blocked
	if rearm {
		a.pending = false
	}
	onSaved := a.onSaved
	onFailure := a.onFailure
	a.mu.Unlock()

	if err != nil && onFailure != nil {
		onFailure(err)
	}
	if err == nil && version >= 0 && onSaved != nil {
		onSaved(version)
	}
	if rearm {
		a.Arm()
	}
}

// SaveNow forces an immediate single-attempt save, used by explicit user
// saves and teardown flushes. It respects the drag gate.
func (a *Scheduler) SaveNow(ctx context.Context) error {
	a.mu.Lock()
	if a.blocked {
		a.pending = true
		a.mu.Unlock()
		return fmt.Errorf("save deferred: drag in progress")
	}
	a.mu.Unlock()

	if !a.store.Dirty() {
		return nil
	}
	layout, gen := a.store.Snapshot()
	version, err := a.save(ctx, layout)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistenceFailure, err)
	}
	a.store.MarkSaved(version, time.Now(), gen)
	return nil
}
