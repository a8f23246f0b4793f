// Package syncer applies externally pushed updates to the layout store.
// Structural fields respect local dirty state; metrics always overwrite.
package syncer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/store"
)

// Event kinds accepted from the real-time channel.
const (
	EventView    = "view"
	EventMetrics = "metrics"
)

// Event is one pushed remote update.
type Event struct {
	Type     string          `json:"type"`
	TargetID string          `json:"target_id"`
	Data     json.RawMessage `json:"data"`
}

// viewData carries the structural fields a remote peer may update. Nil
// fields are untouched.
type viewData struct {
	Position *model.Position `json:"position,omitempty"`
	Size     *model.Size     `json:"size,omitempty"`
	Title    *string         `json:"title,omitempty"`
	Visible  *bool           `json:"visible,omitempty"`
}

// Stats counts the subscriber's observable outcomes.
type Stats struct {
	Applied   int // events merged into the store
	Conflicts int // structural updates dropped because the view was dirty
	Dropped   int // unknown or malformed events
}

// Subscriber merges remote events into the store. It never panics on
// unexpected event shapes; they are counted and dropped.
type Subscriber struct {
	store *store.Store

	mu       sync.Mutex
	stats    Stats
	onError  func(err error, ev Event)
	onConfl  func(ev Event)
}

// NewSubscriber creates a subscriber over the store.
func NewSubscriber(s *store.Store) *Subscriber {
	return &Subscriber{store: s}
}

// OnError registers a hook for dropped events (observability, not control
// flow).
func (s *Subscriber) OnError(fn func(err error, ev Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// OnConflict registers a hook fired when a structural update is dropped
// for a dirty view. Conflicts are logged, never surfaced as user errors.
func (s *Subscriber) OnConflict(fn func(ev Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfl = fn
}

// Apply merges one event.
//
// Merge policy: structural fields from a "view" event apply only when the
// target view has no unsaved local edits, so an in-progress drag or resize
// is never clobbered. "metrics" events are monotonic telemetry and always
// overwrite.
func (s *Subscriber) Apply(ev Event) {
	switch ev.Type {
	case EventView:
		s.applyView(ev)
	case EventMetrics:
		s.applyMetrics(ev)
	default:
		s.drop(fmt.Errorf("unknown event type %q", ev.Type), ev)
	}
}

func (s *Subscriber) applyView(ev Event) {
	var data viewData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		s.drop(fmt.Errorf("decode view update: %w", err), ev)
		return
	}
	if s.store.ViewDirty(ev.TargetID) {
		s.conflict(ev)
		return
	}
	err := s.store.Dispatch(store.ApplyRemoteView{
		ID:       ev.TargetID,
		Position: data.Position,
		Size:     data.Size,
		Title:    data.Title,
		Visible:  data.Visible,
	})
	if err != nil {
		s.drop(err, ev)
		return
	}
	s.applied()
}

func (s *Subscriber) applyMetrics(ev Event) {
	var metrics map[string]float64
	if err := json.Unmarshal(ev.Data, &metrics); err != nil {
		s.drop(fmt.Errorf("decode metrics update: %w", err), ev)
		return
	}
	err := s.store.Dispatch(store.UpdateViewMetrics{ID: ev.TargetID, Metrics: metrics})
	if err != nil {
		s.drop(err, ev)
		return
	}
	s.applied()
}

// Stats returns a snapshot of the subscriber's counters.
func (s *Subscriber) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Subscriber) applied() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Applied++
}

func (s *Subscriber) conflict(ev Event) {
	s.mu.Lock()
	s.stats.Conflicts++
	fn := s.onConfl
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (s *Subscriber) drop(err error, ev Event) {
	s.mu.Lock()
	s.stats.Dropped++
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(err, ev)
	}
}
