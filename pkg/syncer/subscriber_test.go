package syncer

import (
	"encoding/json"
	"testing"

	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(model.LayoutConfiguration{
		ID:   "layout",
		Mode: model.ModeGrid,
		Views: []model.ViewConfiguration{
			{ID: "v1", SourceRef: "demo:a", Visible: true, Title: "one"},
			{ID: "v2", SourceRef: "demo:b", Visible: true},
		},
	}, 10)
}

func viewEvent(t *testing.T, target string, data viewData) Event {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return Event{Type: EventView, TargetID: target, Data: raw}
}

func TestRemoteViewAppliesWhenClean(t *testing.T) {
	s := newStore(t)
	sub := NewSubscriber(s)

	title := "renamed remotely"
	sub.Apply(viewEvent(t, "v1", viewData{Title: &title}))

	if got := s.Layout().View("v1").Title; got != title {
		t.Errorf("title = %q, want %q", got, title)
	}
	if s.Dirty() {
		t.Error("remote apply dirtied the layout")
	}
	if st := sub.Stats(); st.Applied != 1 || st.Conflicts != 0 {
		t.Errorf("stats = %+v, want one applied", st)
	}
}

func TestRemoteViewDroppedWhenDirty(t *testing.T) {
	s := newStore(t)
	sub := NewSubscriber(s)

	var conflicts []Event
	sub.OnConflict(func(ev Event) { conflicts = append(conflicts, ev) })

	// Local edit marks v1 dirty.
	if err := s.Dispatch(store.MoveView{ID: "v1", Position: model.Position{X: 5}}); err != nil {
		t.Fatal(err)
	}

	pos := model.Position{X: 99}
	sub.Apply(viewEvent(t, "v1", viewData{Position: &pos}))

	if got := s.Layout().View("v1").Position.X; got != 5 {
		t.Errorf("local position clobbered: X = %d, want 5", got)
	}
	if st := sub.Stats(); st.Conflicts != 1 || st.Applied != 0 {
		t.Errorf("stats = %+v, want one conflict", st)
	}
	if len(conflicts) != 1 || conflicts[0].TargetID != "v1" {
		t.Errorf("conflict hook = %+v", conflicts)
	}
}

func TestRemoteViewAppliesToCleanSibling(t *testing.T) {
	s := newStore(t)
	sub := NewSubscriber(s)

	// v1 dirty, v2 clean: the v2 update still lands.
	if err := s.Dispatch(store.MoveView{ID: "v1", Position: model.Position{X: 5}}); err != nil {
		t.Fatal(err)
	}
	title := "sibling"
	sub.Apply(viewEvent(t, "v2", viewData{Title: &title}))

	if got := s.Layout().View("v2").Title; got != "sibling" {
		t.Errorf("clean sibling not updated: %q", got)
	}
}

func TestMetricsOverwriteEvenWhenDirty(t *testing.T) {
	s := newStore(t)
	sub := NewSubscriber(s)

	if err := s.Dispatch(store.MoveView{ID: "v1", Position: model.Position{X: 5}}); err != nil {
		t.Fatal(err)
	}

	raw, _ := json.Marshal(map[string]float64{"latency_ms": 42})
	sub.Apply(Event{Type: EventMetrics, TargetID: "v1", Data: raw})

	if got := s.Layout().View("v1").Metrics["latency_ms"]; got != 42 {
		t.Errorf("metrics = %v, want 42", got)
	}
	if st := sub.Stats(); st.Applied != 1 {
		t.Errorf("stats = %+v, want metrics applied", st)
	}
}

func TestUnknownEventDropped(t *testing.T) {
	s := newStore(t)
	sub := NewSubscriber(s)

	var dropped []error
	sub.OnError(func(err error, ev Event) { dropped = append(dropped, err) })

	sub.Apply(Event{Type: "presence", TargetID: "v1"})

	if st := sub.Stats(); st.Dropped != 1 {
		t.Errorf("stats = %+v, want one dropped", st)
	}
	if len(dropped) != 1 {
		t.Error("error hook not fired")
	}
}

func TestMalformedDataDropped(t *testing.T) {
	s := newStore(t)
	sub := NewSubscriber(s)

	sub.Apply(Event{Type: EventView, TargetID: "v1", Data: json.RawMessage(`{"position": "sideways"}`)})
	sub.Apply(Event{Type: EventMetrics, TargetID: "v1", Data: json.RawMessage(`[1,2,3]`)})

	if st := sub.Stats(); st.Dropped != 2 || st.Applied != 0 {
		t.Errorf("stats = %+v, want two dropped", st)
	}
	if got := s.Layout().View("v1").Title; got != "one" {
		t.Error("malformed event mutated state")
	}
}

func TestUnknownTargetDropped(t *testing.T) {
	s := newStore(t)
	sub := NewSubscriber(s)

	title := "x"
	sub.Apply(viewEvent(t, "ghost", viewData{Title: &title}))

	if st := sub.Stats(); st.Dropped != 1 {
		t.Errorf("stats = %+v, want dropped for unknown target", st)
	}
}
