// Package store owns the layout configuration. All mutation flows through
// Dispatch: an action is applied to a draft copy, validated against the
// layout invariants, and only then swapped in. A failing action leaves
// state untouched.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
)

// Draft is the mutable working copy handed to an action. Actions mutate
// the draft freely; the store discards it wholesale on any error.
type Draft struct {
	Layout     *model.LayoutConfiguration
	Selection  map[string]bool
	MaxViews   int
	dirtyViews map[string]bool
	nextZ      func() int
}

// TouchView marks a view as locally dirty. Local structural actions call
// this so the sync merge policy can protect in-flight edits.
func (d *Draft) TouchView(id string) {
	d.dirtyViews[id] = true
}

// RaiseView assigns the view the next monotonically increasing z-index,
// making the last focused view topmost.
func (d *Draft) RaiseView(id string) error {
	v := d.Layout.View(id)
	if v == nil {
		return fmt.Errorf("%w: %s", model.ErrViewNotFound, id)
	}
	v.ZIndex = d.nextZ()
	return nil
}

// Action is one atomic mutation of the layout.
type Action interface {
	// Name identifies the action in change notifications and errors.
	Name() string
	// Structural reports whether the action represents a local structural
	// mutation. Structural actions set the dirty flag; telemetry and
	// remote-merge actions do not.
	Structural() bool
	// Apply mutates the draft. Returning an error aborts the dispatch.
	Apply(d *Draft) error
}

// Change describes one successful mutation, delivered to subscribers.
type Change struct {
	Action string
	Layout model.LayoutConfiguration
	Dirty  bool
}

// Store is the single source of truth for one workspace's layout.
type Store struct {
	mu         sync.Mutex
	layout     model.LayoutConfiguration
	maxViews   int
	dirty      bool
	dirtyViews map[string]bool
	selection  map[string]bool
	gen        uint64
	zCounter   int
	nextSub    int
	subs       map[int]func(Change)
}

// New creates a store around an initial layout. maxViews caps the number
// of concurrent views; zero means the default of 20.
func New(layout model.LayoutConfiguration, maxViews int) *Store {
	if maxViews <= 0 {
		maxViews = 20
	}
	z := 0
	for i := range layout.Views {
		if layout.Views[i].ZIndex > z {
			z = layout.Views[i].ZIndex
		}
	}
	return &Store{
		layout:     layout.Clone(),
		maxViews:   maxViews,
		dirtyViews: make(map[string]bool),
		selection:  make(map[string]bool),
		zCounter:   z,
		subs:       make(map[int]func(Change)),
	}
}

// Dispatch validates and applies one action atomically. On error the
// layout, selection, and dirty marks are unchanged.
func (s *Store) Dispatch(a Action) error {
	if a == nil {
		return model.ErrInvalidAction
	}

	s.mu.Lock()

	draftLayout := s.layout.Clone()
	draftSelection := make(map[string]bool, len(s.selection))
	for id := range s.selection {
		draftSelection[id] = true
	}
	draftDirtyViews := make(map[string]bool, len(s.dirtyViews))
	for id := range s.dirtyViews {
		draftDirtyViews[id] = true
	}
	zc := s.zCounter
	draft := &Draft{
		Layout:     &draftLayout,
		Selection:  draftSelection,
		MaxViews:   s.maxViews,
		dirtyViews: draftDirtyViews,
		nextZ: func() int {
			zc++
			return zc
		},
	}

	if err := a.Apply(draft); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", a.Name(), err)
	}
	if err := s.checkInvariants(draft); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", a.Name(), err)
	}

	s.layout = draftLayout
	s.selection = draftSelection
	s.dirtyViews = draftDirtyViews
	s.zCounter = zc
	if a.Structural() {
		s.dirty = true
		s.gen++
		s.layout.LastModified = time.Now()
	}

	change := Change{
		Action: a.Name(),
		Layout: s.layout.Clone(),
		Dirty:  s.dirty,
	}
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
	return nil
}

// checkInvariants enforces the layout invariants that must hold after
// every mutation.
func (s *Store) checkInvariants(d *Draft) error {
	l := d.Layout
	if err := l.Validate(); err != nil {
		return err
	}
	if len(l.Views) > d.MaxViews {
		return fmt.Errorf("%w: %d views, max %d", model.ErrCapacityExceeded, len(l.Views), d.MaxViews)
	}
	if l.Mode == model.ModeTabbed && len(l.Views) > 0 && l.ActiveViewID == "" {
		return fmt.Errorf("tabbed mode requires an active view")
	}
	for id := range d.Selection {
		if l.ViewIndex(id) < 0 {
			return fmt.Errorf("selection references missing view %s", id)
		}
	}
	return nil
}

// Subscribe registers a change listener and returns an unsubscribe func.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Layout returns a deep copy of the current layout.
func (s *Store) Layout() model.LayoutConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Clone()
}

// Snapshot returns a deep copy of the current layout together with the
// mutation generation it reflects. Savers pass the generation back to
// MarkSaved so a save that raced with newer mutations cannot clear their
// dirty state.
func (s *Store) Snapshot() (model.LayoutConfiguration, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Clone(), s.gen
}

// Dirty reports whether unsaved local mutations exist.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ViewDirty reports whether the given view has unsaved local structural
// edits. The sync subscriber consults this before merging remote
// structural fields.
func (s *Store) ViewDirty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyViews[id]
}

// Selection returns the selected view ids in layout order.
func (s *Store) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	order := make(map[string]int, len(s.layout.Views))
	for i := range s.layout.Views {
		order[s.layout.Views[i].ID] = i
	}
	sort.Slice(ids, func(a, b int) bool { return order[ids[a]] < order[ids[b]] })
	return ids
}

// MaxViews returns the configured view capacity.
func (s *Store) MaxViews() int {
	return s.maxViews
}

// MarkSaved records a confirmed successful persistence of the snapshot
// taken at gen. When no mutation landed since the snapshot, the dirty flag
// and all per-view dirty marks are cleared and the persisted version and
// timestamp are adopted without re-dirtying the layout. When the
// generation has advanced, only the version is adopted: the newer
// mutations stay dirty so the next save picks them up.
func (s *Store) MarkSaved(version int, at time.Time, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout.Version = version
	if gen != s.gen {
		return
	}
	s.dirty = false
	s.dirtyViews = make(map[string]bool)
	s.layout.LastModified = at
}
