// Package lifecycle implements the view lifecycle operations: add, remove,
// move, resize, select, copy and paste. Every mutation goes through the
// store's dispatch; this package adds id generation, bounds clamping, and
// the copy/paste buffer.
package lifecycle

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/store"
)

// Manager performs view operations against one store.
type Manager struct {
	store *store.Store

	mu        sync.Mutex
	container model.Size
	buffer    []model.ViewConfiguration
	offset    int
	clip      Clipboard
}

// New creates a manager. pasteOffset is the fixed position delta applied to
// pasted views so they never exactly overlap their source; zero means 2.
func New(s *store.Store, pasteOffset int) *Manager {
	if pasteOffset == 0 {
		pasteOffset = 2
	}
	return &Manager{
		store:  s,
		offset: pasteOffset,
		clip:   systemClipboard{},
	}
}

// SetContainer records the extents views are clamped into.
func (m *Manager) SetContainer(size model.Size) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.container = size
}

// SetClipboard swaps the clipboard implementation (tests use an in-memory
// one; headless hosts fall back automatically).
func (m *Manager) SetClipboard(c Clipboard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clip = c
}

// AddView appends a new view with a fresh unique id. Fails with
// ErrCapacityExceeded when the layout is at capacity.
func (m *Manager) AddView(v model.ViewConfiguration) (string, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Size.IsZero() {
		v.Size = model.Size{Width: 40, Height: 12}
	}
	v.Visible = true
	if err := m.store.Dispatch(store.AddView{View: v}); err != nil {
		return "", err
	}
	return v.ID, nil
}

// RemoveView removes a view; the store clears it from the selection and
// promotes the next tab when it was active.
func (m *Manager) RemoveView(id string) error {
	return m.store.Dispatch(store.RemoveView{ID: id})
}

// MoveView repositions a view, clamped to the container extents. An
// unreachable request that clamps back to the current position is a
// silent no-op, not an error.
func (m *Manager) MoveView(id string, pos model.Position) error {
	layout := m.store.Layout()
	v := layout.View(id)
	if v == nil {
		return fmt.Errorf("move view: %w: %s", model.ErrViewNotFound, id)
	}
	clamped := m.clampPosition(pos, v.Size)
	if clamped == v.Position {
		return nil
	}
	return m.store.Dispatch(store.MoveView{ID: id, Position: clamped})
}

// ResizeView changes a view's size, clamped to its min/max bounds and the
// container extents. A request that clamps back to the current size is a
// silent no-op.
func (m *Manager) ResizeView(id string, size model.Size) error {
	layout := m.store.Layout()
	v := layout.View(id)
	if v == nil {
		return fmt.Errorf("resize view: %w: %s", model.ErrViewNotFound, id)
	}
	if !v.Resizable {
		return nil
	}
	clamped := m.clampSize(size, v.MinSize, v.MaxSize)
	if clamped == v.Size {
		return nil
	}
	return m.store.Dispatch(store.ResizeView{ID: id, Size: clamped})
}

// SelectView toggles the view's selection membership under multiSelect,
// otherwise replaces the selection with it.
func (m *Manager) SelectView(id string, multiSelect bool) error {
	return m.store.Dispatch(store.SelectView{ID: id, Multi: multiSelect})
}

// FocusView raises the view to the top of the z-order (and activates its
// tab in tabbed mode).
func (m *Manager) FocusView(id string) error {
	return m.store.Dispatch(store.FocusView{ID: id})
}

// Reorder moves a view to a new index in the ordered list. Used by the
// drag coordinator's drop commit.
func (m *Manager) Reorder(id string, toIndex int) error {
	return m.store.Dispatch(store.ReorderView{ID: id, ToIndex: toIndex})
}

// CopySelected snapshots the selected views into the paste buffer and, best
// effort, onto the system clipboard as JSON. Returns the number copied.
func (m *Manager) CopySelected() (int, error) {
	ids := m.store.Selection()
	if len(ids) == 0 {
		return 0, nil
	}
	layout := m.store.Layout()
	snap := make([]model.ViewConfiguration, 0, len(ids))
	for _, id := range ids {
		if v := layout.View(id); v != nil {
			snap = append(snap, v.Clone())
		}
	}

	m.mu.Lock()
	m.buffer = snap
	clip := m.clip
	m.mu.Unlock()

	// Clipboard write is interop only; its failure never fails the copy.
	if clip != nil {
		_ = writeClipboard(clip, snap)
	}
	return len(snap), nil
}

// Paste creates independent new views from the paste buffer: fresh ids,
// title suffixed, position offset by the fixed delta. Returns the new ids.
func (m *Manager) Paste() ([]string, error) {
	m.mu.Lock()
	snap := m.buffer
	clip := m.clip
	offset := m.offset
	m.mu.Unlock()

	if len(snap) == 0 && clip != nil {
		if views, err := readClipboard(clip); err == nil {
			snap = views
		}
	}
	if len(snap) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(snap))
	for _, src := range snap {
		v := src.Clone()
		v.ID = uuid.NewString()
		if v.Title != "" {
			v.Title = v.Title + " (copy)"
		}
		v.Position.X += offset
		v.Position.Y += offset
		v.Position = m.clampPosition(v.Position, v.Size)
		if err := m.store.Dispatch(store.AddView{View: v}); err != nil {
			return ids, fmt.Errorf("paste: %w", err)
		}
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// clampPosition keeps a view of the given size inside the container. A
// zero container means no bounds are known yet and the position passes
// through unchanged.
func (m *Manager) clampPosition(pos model.Position, size model.Size) model.Position {
	m.mu.Lock()
	c := m.container
	m.mu.Unlock()

	if pos.X < 0 {
		pos.X = 0
	}
	if pos.Y < 0 {
		pos.Y = 0
	}
	if c.IsZero() {
		return pos
	}
	if maxX := c.Width - size.Width; maxX >= 0 && pos.X > maxX {
		pos.X = maxX
	}
	if maxY := c.Height - size.Height; maxY >= 0 && pos.Y > maxY {
		pos.Y = maxY
	}
	return pos
}

// clampSize bounds a size by the view's min/max and the container.
func (m *Manager) clampSize(size, min, max model.Size) model.Size {
	m.mu.Lock()
	c := m.container
	m.mu.Unlock()

	if size.Width < 1 {
		size.Width = 1
	}
	if size.Height < 1 {
		size.Height = 1
	}
	if min.Width > 0 && size.Width < min.Width {
		size.Width = min.Width
	}
	if min.Height > 0 && size.Height < min.Height {
		size.Height = min.Height
	}
	if max.Width > 0 && size.Width > max.Width {
		size.Width = max.Width
	}
	if max.Height > 0 && size.Height > max.Height {
		size.Height = max.Height
	}
	if !c.IsZero() {
		if size.Width > c.Width {
			size.Width = c.Width
		}
		if size.Height > c.Height {
			size.Height = c.Height
		}
	}
	return size
}
