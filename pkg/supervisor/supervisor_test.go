package supervisor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
)

func TestRenderPanePanicContained(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()

	out, failed := s.RenderPane("v1", func() string {
		panic("renderer exploded")
	})
	if !failed {
		t.Fatal("panic not reported as failure")
	}
	if !strings.Contains(out, "v1") {
		t.Errorf("fallback output %q does not identify the pane", out)
	}

	errs := s.Errors()
	if len(errs) != 1 {
		t.Fatalf("recorded errors = %d, want 1", len(errs))
	}
	if errs[0].Category != model.CategoryRender || errs[0].Severity != model.SeverityError {
		t.Errorf("error classified as %s/%s", errs[0].Category, errs[0].Severity)
	}
	// A render failure alone is not critical.
	if s.Recovering() {
		t.Error("pane failure entered recovery mode")
	}
}

func TestRenderPaneHealthy(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()
	out, failed := s.RenderPane("v1", func() string { return "content" })
	if failed || out != "content" {
		t.Errorf("healthy render = %q/%v", out, failed)
	}
}

func TestGuardRecordsErrors(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()

	if err := s.Guard("load", func() error { return errors.New("boom") }); err == nil {
		t.Fatal("error swallowed")
	}
	if s.Recovering() {
		t.Error("plain error entered recovery mode")
	}

	if err := s.Guard("merge", func() error { panic("bad") }); err == nil {
		t.Fatal("panic swallowed")
	}
	if !s.Recovering() {
		t.Error("critical panic did not enter recovery mode")
	}
}

func TestRecoveryCooldownClears(t *testing.T) {
	s := New(50 * time.Millisecond)
	defer s.Close()

	var transitions []bool
	s.OnRecoveryChange(func(r bool) { transitions = append(transitions, r) })

	s.Record(model.CategoryInternal, model.SeverityCritical, "meltdown", "test")
	if !s.Recovering() {
		t.Fatal("critical error did not enter recovery")
	}

	time.Sleep(120 * time.Millisecond)
	if s.Recovering() {
		t.Error("recovery mode did not clear after cooldown")
	}
	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Errorf("transitions = %v, want [true false]", transitions)
	}
}

func TestRepeatedCriticalExtendsCooldown(t *testing.T) {
	s := New(80 * time.Millisecond)
	defer s.Close()

	s.Record(model.CategoryInternal, model.SeverityCritical, "first", "test")
	time.Sleep(50 * time.Millisecond)
	s.Record(model.CategoryInternal, model.SeverityCritical, "second", "test")
	time.Sleep(50 * time.Millisecond)

	// 100ms after the first error but only 50ms after the second: still in.
	if !s.Recovering() {
		t.Error("second critical error did not extend recovery")
	}
	time.Sleep(80 * time.Millisecond)
	if s.Recovering() {
		t.Error("recovery never cleared")
	}
}

func TestErrorHistoryBounded(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()
	for i := 0; i < maxErrors+20; i++ {
		s.Record(model.CategoryRender, model.SeverityWarning, "w", "test")
	}
	if got := len(s.Errors()); got != maxErrors {
		t.Errorf("history length = %d, want %d", got, maxErrors)
	}
}

func TestResolve(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()
	le := s.Record(model.CategorySync, model.SeverityWarning, "conflict", "v1")
	s.Resolve(le.ID)

	for _, e := range s.Errors() {
		if e.ID == le.ID && !e.Resolved {
			t.Error("error not marked resolved")
		}
	}
}
