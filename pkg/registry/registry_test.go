package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
)

func TestKind(t *testing.T) {
	tests := []struct {
		ref, want string
	}{
		{"metrics:cpu", "metrics"},
		{"demo:pane", "demo"},
		{"plain", "plain"},
		{":odd", ":odd"},
	}
	for _, tt := range tests {
		if got := Kind(tt.ref); got != tt.want {
			t.Errorf("Kind(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func resolve(t *testing.T, r *Registry, viewID, ref string) error {
	t.Helper()
	done := make(chan error, 1)
	r.Acquire(viewID, ref, Callbacks{}, func(_ string, err error) { done <- err })
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition never resolved")
		return nil
	}
}

func TestAcquireResolvesRenderer(t *testing.T) {
	r := New()
	r.Register("demo", func(sourceRef string, cb Callbacks) (Renderer, error) {
		return RendererFunc(func(p Props) string { return "ok:" + p.ID }), nil
	})

	if err := resolve(t, r, "v1", "demo:pane"); err != nil {
		t.Fatal(err)
	}
	renderer, ok := r.Renderer("v1")
	if !ok {
		t.Fatal("renderer not stored after resolution")
	}
	if got := renderer.Render(Props{ID: "v1"}); got != "ok:v1" {
		t.Errorf("render = %q", got)
	}
}

func TestAcquireUnknownKind(t *testing.T) {
	r := New()
	err := resolve(t, r, "v1", "mystery:thing")
	if !errors.Is(err, model.ErrRendererNotRegistered) {
		t.Fatalf("err = %v, want ErrRendererNotRegistered", err)
	}
	if _, ok := r.Renderer("v1"); ok {
		t.Error("failed acquisition stored a renderer")
	}
}

func TestAcquireFactoryError(t *testing.T) {
	r := New()
	r.Register("flaky", func(sourceRef string, cb Callbacks) (Renderer, error) {
		return nil, errors.New("backend down")
	})
	if err := resolve(t, r, "v1", "flaky:x"); err == nil {
		t.Fatal("factory error swallowed")
	}
	if _, ok := r.Renderer("v1"); ok {
		t.Error("failed acquisition stored a renderer")
	}
}

func TestRelease(t *testing.T) {
	r := New()
	r.Register("demo", func(sourceRef string, cb Callbacks) (Renderer, error) {
		return RendererFunc(func(Props) string { return "x" }), nil
	})
	if err := resolve(t, r, "v1", "demo:pane"); err != nil {
		t.Fatal(err)
	}
	r.Release("v1")
	if _, ok := r.Renderer("v1"); ok {
		t.Error("released renderer still resolvable")
	}
}
