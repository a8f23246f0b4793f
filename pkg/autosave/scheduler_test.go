package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/store"
)

// fakeSaver counts save attempts and can fail the first n of them.
type fakeSaver struct {
	mu       sync.Mutex
	calls    int
	failures int
	version  int
}

func (f *fakeSaver) save(ctx context.Context, layout model.LayoutConfiguration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return 0, errors.New("disk unavailable")
	}
	f.version++
	return f.version, nil
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(model.LayoutConfiguration{
		ID:   "layout",
		Mode: model.ModeGrid,
		Views: []model.ViewConfiguration{
			{ID: "v1", SourceRef: "demo:a", Visible: true},
		},
	}, 10)
}

func dirty(t *testing.T, s *store.Store) {
	t.Helper()
	if err := s.Dispatch(store.MoveView{ID: "v1", Position: model.Position{X: 1}}); err != nil {
		t.Fatal(err)
	}
}

func TestDebouncedSave(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{}
	a := New(s, saver.save, 30*time.Millisecond, time.Second, 1)
	defer a.Close()
	s.Subscribe(a.Observe)

	saved := make(chan int, 1)
	a.OnSaved(func(v int) { saved <- v })

	dirty(t, s)

	select {
	case v := <-saved:
		if v != 1 {
			t.Errorf("saved version = %d, want 1", v)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("save never fired")
	}
	if s.Dirty() {
		t.Error("dirty flag survived a confirmed save")
	}
}

func TestBurstCoalescesToOneSave(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{}
	a := New(s, saver.save, 50*time.Millisecond, time.Second, 1)
	defer a.Close()
	s.Subscribe(a.Observe)

	for i := 0; i < 10; i++ {
		dirty(t, s)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	if got := saver.count(); got != 1 {
		t.Errorf("save attempts = %d, want 1 for the whole burst", got)
	}
}

func TestBlockedDuringDrag(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{}
	a := New(s, saver.save, 20*time.Millisecond, time.Second, 1)
	defer a.Close()
	s.Subscribe(a.Observe)

	a.SetBlocked(true) // drag starts
	dirty(t, s)

	time.Sleep(100 * time.Millisecond)
	if got := saver.count(); got != 0 {
		t.Fatalf("save fired during drag: %d attempts", got)
	}
	if !s.Dirty() {
		t.Fatal("dirty flag lost while blocked")
	}

	a.SetBlocked(false) // drag ends
	time.Sleep(150 * time.Millisecond)
	if got := saver.count(); got != 1 {
		t.Errorf("save attempts after unblock = %d, want 1", got)
	}
}

func TestSaveNowRespectsDragGate(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{}
	a := New(s, saver.save, time.Hour, time.Second, 1)
	defer a.Close()

	dirty(t, s)
	a.SetBlocked(true)

	if err := a.SaveNow(context.Background()); err == nil {
		t.Error("SaveNow succeeded mid-drag")
	}
	if got := saver.count(); got != 0 {
		t.Errorf("SaveNow attempted a save mid-drag: %d", got)
	}
}

func TestSaveNowCleanIsNoOp(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{}
	a := New(s, saver.save, time.Hour, time.Second, 1)
	defer a.Close()

	if err := a.SaveNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := saver.count(); got != 0 {
		t.Errorf("clean SaveNow hit persistence: %d attempts", got)
	}
}

// blockingSaver stalls the first save until released and records the view
// count of every persisted snapshot.
type blockingSaver struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu        sync.Mutex
	calls     int
	lastViews int
}

func newBlockingSaver() *blockingSaver {
	return &blockingSaver{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingSaver) save(ctx context.Context, layout model.LayoutConfiguration) (int, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.lastViews = len(layout.Views)
	return layout.Version + 1, nil
}

func (b *blockingSaver) persistedViews() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastViews
}

func TestSaveNowKeepsMidSaveMutationDirty(t *testing.T) {
	s := newStore(t)
	saver := newBlockingSaver()
	a := New(s, saver.save, time.Hour, time.Second, 1)
	defer a.Close()

	dirty(t, s)
	done := make(chan error, 1)
	go func() { done <- a.SaveNow(context.Background()) }()

	// A mutation lands while the first save is in flight.
	<-saver.entered
	if err := s.Dispatch(store.AddView{View: model.ViewConfiguration{ID: "v2", SourceRef: "demo:b"}}); err != nil {
		t.Fatal(err)
	}
	close(saver.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if !s.Dirty() {
		t.Fatal("mid-save mutation marked clean without being persisted")
	}
	if !s.ViewDirty("v2") {
		t.Error("mid-save view lost its dirty mark")
	}

	if err := a.SaveNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Error("follow-up save left the store dirty")
	}
	if got := saver.persistedViews(); got != 2 {
		t.Errorf("persisted snapshot has %d views, want 2", got)
	}
}

func TestSchedulerResavesMidSaveMutation(t *testing.T) {
	s := newStore(t)
	saver := newBlockingSaver()
	a := New(s, saver.save, 20*time.Millisecond, time.Second, 1)
	defer a.Close()
	s.Subscribe(a.Observe)

	dirty(t, s)

	<-saver.entered
	if err := s.Dispatch(store.AddView{View: model.ViewConfiguration{ID: "v2", SourceRef: "demo:b"}}); err != nil {
		t.Fatal(err)
	}
	close(saver.release)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !s.Dirty() && saver.persistedViews() == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s.Dirty() {
		t.Fatal("mid-save mutation never flushed")
	}
	if got := saver.persistedViews(); got != 2 {
		t.Errorf("last persisted snapshot has %d views, want 2", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{failures: 2}
	a := New(s, saver.save, 20*time.Millisecond, time.Second, 4)
	defer a.Close()
	s.Subscribe(a.Observe)

	saved := make(chan int, 1)
	a.OnSaved(func(v int) { saved <- v })

	dirty(t, s)

	select {
	case <-saved:
	case <-time.After(5 * time.Second):
		t.Fatal("save never succeeded despite retry budget")
	}
	if got := saver.count(); got != 3 {
		t.Errorf("attempts = %d, want 3 (two failures then success)", got)
	}
	if s.Dirty() {
		t.Error("dirty flag survived the eventual success")
	}
}

func TestExhaustedRetriesPreserveDirty(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{failures: 100}
	a := New(s, saver.save, 20*time.Millisecond, time.Second, 2)
	defer a.Close()
	s.Subscribe(a.Observe)

	failed := make(chan error, 1)
	a.OnFailure(func(err error) { failed <- err })

	dirty(t, s)

	select {
	case err := <-failed:
		if !errors.Is(err, model.ErrPersistenceFailure) {
			t.Errorf("failure = %v, want ErrPersistenceFailure", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("failure hook never fired")
	}
	if !s.Dirty() {
		t.Error("dirty flag cleared without a confirmed save")
	}
}

func TestCloseCancelsPendingSave(t *testing.T) {
	s := newStore(t)
	saver := &fakeSaver{}
	a := New(s, saver.save, 30*time.Millisecond, time.Second, 1)
	s.Subscribe(a.Observe)

	dirty(t, s)
	a.Close()

	time.Sleep(120 * time.Millisecond)
	if got := saver.count(); got != 0 {
		t.Errorf("save fired after Close: %d", got)
	}
}
