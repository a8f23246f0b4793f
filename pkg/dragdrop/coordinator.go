// Package dragdrop coordinates drag-and-drop reordering. One session may
// be live at a time: idle -> dragging -> committing|cancelled -> idle.
package dragdrop

import (
	"fmt"
	"sync"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
)

// State of the coordinator's session machine.
type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
)

// NoTarget marks a candidate position outside any valid drop region.
const NoTarget = -1

// Committer applies the drop commit. The lifecycle manager satisfies this.
type Committer interface {
	Reorder(viewID string, toIndex int) error
}

// Coordinator owns the exclusive drag session.
type Coordinator struct {
	mu       sync.Mutex
	commit   Committer
	state    State
	session  model.DragSession
	onActive []func(active bool)
}

// New creates an idle coordinator committing through c.
func New(c Committer) *Coordinator {
	return &Coordinator{commit: c, state: StateIdle}
}

// OnActiveChange registers a listener fired when a session starts or ends.
// The autosave scheduler uses this to block saves mid-drag.
func (d *Coordinator) OnActiveChange(fn func(active bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onActive = append(d.onActive, fn)
}

// Start begins a drag for the given view. Starting while another session
// is live is rejected.
func (d *Coordinator) Start(viewID string, pointer model.Position) error {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		return fmt.Errorf("%w: dragging %s", model.ErrDragActive, d.session.SourceViewID)
	}
	d.state = StateDragging
	d.session = model.DragSession{
		SourceViewID:  viewID,
		PointerOffset: pointer,
		Candidate:     NoTarget,
		StartedAt:     time.Now(),
	}
	fire := append([]func(bool){}, d.onActive...)
	d.mu.Unlock()

	for _, fn := range fire {
		fn(true)
	}
	return nil
}

// Over records the candidate target index for the current pointer
// position. Preview only: nothing is dispatched to the store. Pass
// NoTarget when the pointer is outside every valid region.
func (d *Coordinator) Over(candidate int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateDragging {
		return
	}
	d.session.Candidate = candidate
}

// Drop commits the move atomically through the committer. Dropping outside
// any valid target is a silent no-op. The session is cleared even when the
// commit fails, so the exclusive lock can never stick.
func (d *Coordinator) Drop() error {
	d.mu.Lock()
	if d.state != StateDragging {
		d.mu.Unlock()
		return model.ErrNoDragSession
	}
	session := d.session
	d.mu.Unlock()

	var err error
	if session.Candidate != NoTarget {
		err = d.commit.Reorder(session.SourceViewID, session.Candidate)
	}
	d.clear()
	return err
}

// Cancel abandons the session unconditionally.
func (d *Coordinator) Cancel() {
	d.mu.Lock()
	if d.state == StateIdle {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.clear()
}

// DropViewRemoved clears the session when its source view was removed
// out from under it.
func (d *Coordinator) DropViewRemoved(viewID string) {
	d.mu.Lock()
	if d.state != StateDragging || d.session.SourceViewID != viewID {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.clear()
}

// Active reports whether a drag session is live.
func (d *Coordinator) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == StateDragging
}

// Session returns a copy of the live session, if any.
func (d *Coordinator) Session() (model.DragSession, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session, d.state == StateDragging
}

func (d *Coordinator) clear() {
	d.mu.Lock()
	d.state = StateIdle
	d.session = model.DragSession{}
	fire := append([]func(bool){}, d.onActive...)
	d.mu.Unlock()

	for _, fn := range fire {
		fn(false)
	}
}
