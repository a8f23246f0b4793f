package store

import (
	"fmt"

	"github.com/paneshell/paneshell/pkg/model"
)

// SetMode switches the layout composition strategy. Entering tabbed mode
// promotes the first view to active when none is set.
type SetMode struct {
	Mode model.LayoutMode
}

func (a SetMode) Name() string     { return "set-mode" }
func (a SetMode) Structural() bool { return true }

func (a SetMode) Apply(d *Draft) error {
	if !a.Mode.IsValid() {
		return fmt.Errorf("%w: mode %q", model.ErrInvalidAction, a.Mode)
	}
	d.Layout.Mode = a.Mode
	if a.Mode == model.ModeTabbed && d.Layout.ActiveViewID == "" && len(d.Layout.Views) > 0 {
		d.Layout.ActiveViewID = d.Layout.Views[0].ID
	}
	return nil
}

// SetStructure replaces the shell's structural sizing.
type SetStructure struct {
	Structure model.Structure
}

func (a SetStructure) Name() string     { return "set-structure" }
func (a SetStructure) Structural() bool { return true }

func (a SetStructure) Apply(d *Draft) error {
	d.Layout.Structure = a.Structure
	return nil
}

// SetOverride installs (or replaces) the responsive override for one
// breakpoint.
type SetOverride struct {
	Breakpoint model.Breakpoint
	Partial    model.PartialStructure
}

func (a SetOverride) Name() string     { return "set-override" }
func (a SetOverride) Structural() bool { return true }

func (a SetOverride) Apply(d *Draft) error {
	if !a.Breakpoint.IsValid() {
		return fmt.Errorf("%w: breakpoint %q", model.ErrInvalidAction, a.Breakpoint)
	}
	if d.Layout.Overrides == nil {
		d.Layout.Overrides = make(map[model.Breakpoint]model.PartialStructure)
	}
	d.Layout.Overrides[a.Breakpoint] = a.Partial
	return nil
}

// AddView appends a view. Fails with ErrCapacityExceeded at the cap and
// with ErrDuplicateViewID on an id collision; both leave state unchanged.
type AddView struct {
	View model.ViewConfiguration
}

func (a AddView) Name() string     { return "add-view" }
func (a AddView) Structural() bool { return true }

func (a AddView) Apply(d *Draft) error {
	if len(d.Layout.Views) >= d.MaxViews {
		return fmt.Errorf("%w: max %d", model.ErrCapacityExceeded, d.MaxViews)
	}
	if err := a.View.Validate(); err != nil {
		return err
	}
	if d.Layout.ViewIndex(a.View.ID) >= 0 {
		return fmt.Errorf("%w: %s", model.ErrDuplicateViewID, a.View.ID)
	}
	d.Layout.Views = append(d.Layout.Views, a.View.Clone())
	if d.Layout.Mode == model.ModeTabbed && d.Layout.ActiveViewID == "" {
		d.Layout.ActiveViewID = a.View.ID
	}
	d.TouchView(a.View.ID)
	return nil
}

// RemoveView removes a view, drops it from the selection, and promotes the
// next view in order when the removed view was the tabbed-active one.
// Removing the last view clears the active id without error.
type RemoveView struct {
	ID string
}

func (a RemoveView) Name() string     { return "remove-view" }
func (a RemoveView) Structural() bool { return true }

func (a RemoveView) Apply(d *Draft) error {
	idx := d.Layout.ViewIndex(a.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	d.Layout.Views = append(d.Layout.Views[:idx], d.Layout.Views[idx+1:]...)
	delete(d.Selection, a.ID)
	delete(d.dirtyViews, a.ID)
	if d.Layout.ActiveViewID == a.ID {
		d.Layout.ActiveViewID = ""
		if len(d.Layout.Views) > 0 {
			// Promote the view that now occupies the removed slot, or the
			// new last view when the tail was removed.
			next := idx
			if next >= len(d.Layout.Views) {
				next = len(d.Layout.Views) - 1
			}
			d.Layout.ActiveViewID = d.Layout.Views[next].ID
		}
	}
	return nil
}

// MoveView repositions a view. Callers are expected to clamp the position
// to container extents first (see pkg/lifecycle).
type MoveView struct {
	ID       string
	Position model.Position
}

func (a MoveView) Name() string     { return "move-view" }
func (a MoveView) Structural() bool { return true }

func (a MoveView) Apply(d *Draft) error {
	v := d.Layout.View(a.ID)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	v.Position = a.Position
	d.TouchView(a.ID)
	return nil
}

// ResizeView changes a view's size. Callers clamp to min/max bounds first.
type ResizeView struct {
	ID   string
	Size model.Size
}

func (a ResizeView) Name() string     { return "resize-view" }
func (a ResizeView) Structural() bool { return true }

func (a ResizeView) Apply(d *Draft) error {
	v := d.Layout.View(a.ID)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	v.Size = a.Size
	d.TouchView(a.ID)
	return nil
}

// ReorderView moves a view to a new index in the ordered view list. The
// set of views is unchanged; only their order moves.
type ReorderView struct {
	ID      string
	ToIndex int
}

func (a ReorderView) Name() string     { return "reorder-view" }
func (a ReorderView) Structural() bool { return true }

func (a ReorderView) Apply(d *Draft) error {
	from := d.Layout.ViewIndex(a.ID)
	if from < 0 {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	to := a.ToIndex
	if to < 0 {
		to = 0
	}
	if to >= len(d.Layout.Views) {
		to = len(d.Layout.Views) - 1
	}
	if to == from {
		return nil
	}
	v := d.Layout.Views[from]
	rest := append(d.Layout.Views[:from], d.Layout.Views[from+1:]...)
	d.Layout.Views = append(rest[:to], append([]model.ViewConfiguration{v}, rest[to:]...)...)
	d.TouchView(a.ID)
	return nil
}

// SelectView replaces the selection with the given view, or toggles its
// membership when Multi is set.
type SelectView struct {
	ID    string
	Multi bool
}

func (a SelectView) Name() string     { return "select-view" }
func (a SelectView) Structural() bool { return false }

func (a SelectView) Apply(d *Draft) error {
	if d.Layout.ViewIndex(a.ID) < 0 {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	if a.Multi {
		if d.Selection[a.ID] {
			delete(d.Selection, a.ID)
		} else {
			d.Selection[a.ID] = true
		}
		return nil
	}
	for id := range d.Selection {
		delete(d.Selection, id)
	}
	d.Selection[a.ID] = true
	return nil
}

// ClearSelection empties the selection set.
type ClearSelection struct{}

func (a ClearSelection) Name() string     { return "clear-selection" }
func (a ClearSelection) Structural() bool { return false }

func (a ClearSelection) Apply(d *Draft) error {
	for id := range d.Selection {
		delete(d.Selection, id)
	}
	return nil
}

// FocusView raises a view to the top of the z-order and, in tabbed mode,
// makes it the active tab. The z-order is persisted, so focusing counts
// as a structural edit.
type FocusView struct {
	ID string
}

func (a FocusView) Name() string     { return "focus-view" }
func (a FocusView) Structural() bool { return true }

func (a FocusView) Apply(d *Draft) error {
	if err := d.RaiseView(a.ID); err != nil {
		return err
	}
	if d.Layout.Mode == model.ModeTabbed {
		d.Layout.ActiveViewID = a.ID
	}
	return nil
}

// SetActiveView selects the active tab explicitly. The active id is part
// of the persisted record.
type SetActiveView struct {
	ID string
}

func (a SetActiveView) Name() string     { return "set-active-view" }
func (a SetActiveView) Structural() bool { return true }

func (a SetActiveView) Apply(d *Draft) error {
	if d.Layout.ViewIndex(a.ID) < 0 {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	d.Layout.ActiveViewID = a.ID
	return nil
}

// SetViewTitle renames a view.
type SetViewTitle struct {
	ID    string
	Title string
}

func (a SetViewTitle) Name() string     { return "set-view-title" }
func (a SetViewTitle) Structural() bool { return true }

func (a SetViewTitle) Apply(d *Draft) error {
	v := d.Layout.View(a.ID)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	v.Title = a.Title
	d.TouchView(a.ID)
	return nil
}

// SetViewVisible shows or hides a view without removing it.
type SetViewVisible struct {
	ID      string
	Visible bool
}

func (a SetViewVisible) Name() string     { return "set-view-visible" }
func (a SetViewVisible) Structural() bool { return true }

func (a SetViewVisible) Apply(d *Draft) error {
	v := d.Layout.View(a.ID)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	v.Visible = a.Visible
	d.TouchView(a.ID)
	return nil
}

// SetViewLoadState records renderer acquisition progress. Not a user edit,
// so it never dirties the layout.
type SetViewLoadState struct {
	ID    string
	State model.LoadState
}

func (a SetViewLoadState) Name() string     { return "set-view-load-state" }
func (a SetViewLoadState) Structural() bool { return false }

func (a SetViewLoadState) Apply(d *Draft) error {
	v := d.Layout.View(a.ID)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	v.LoadState = a.State
	return nil
}

// UpdateViewMetrics overwrites a view's telemetry. Metrics are monotonic
// telemetry rather than user-owned state, so this applies regardless of
// dirty state and never dirties the layout itself.
type UpdateViewMetrics struct {
	ID      string
	Metrics map[string]float64
}

func (a UpdateViewMetrics) Name() string     { return "update-view-metrics" }
func (a UpdateViewMetrics) Structural() bool { return false }

func (a UpdateViewMetrics) Apply(d *Draft) error {
	v := d.Layout.View(a.ID)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	if v.Metrics == nil {
		v.Metrics = make(map[string]float64, len(a.Metrics))
	}
	for k, val := range a.Metrics {
		v.Metrics[k] = val
	}
	return nil
}

// ApplyRemoteView merges structural fields pushed by a remote peer. The
// sync subscriber only dispatches this when the target view is not locally
// dirty, so it neither sets the dirty flag nor touches the view's dirty
// mark. Nil fields are left as-is.
type ApplyRemoteView struct {
	ID       string
	Position *model.Position
	Size     *model.Size
	Title    *string
	Visible  *bool
}

func (a ApplyRemoteView) Name() string     { return "apply-remote-view" }
func (a ApplyRemoteView) Structural() bool { return false }

func (a ApplyRemoteView) Apply(d *Draft) error {
	v := d.Layout.View(a.ID)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, a.ID)
	}
	if a.Position != nil {
		v.Position = *a.Position
	}
	if a.Size != nil {
		v.Size = *a.Size
	}
	if a.Title != nil {
		v.Title = *a.Title
	}
	if a.Visible != nil {
		v.Visible = *a.Visible
	}
	return nil
}
