// Package registry maps sourceRef kinds to renderer factories. The
// orchestrator stays independent of any concrete UI: a renderer is just a
// unit that accepts the standard props/callbacks contract.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/paneshell/paneshell/pkg/model"
)

// Props are the render inputs handed to a hosted pane each frame.
type Props struct {
	ID       string
	Title    string
	Position model.Position
	Size     model.Size
	Visible  bool
}

// Callbacks are the hooks a pane implementation reports through.
type Callbacks struct {
	// OnStateChange receives opaque pane state the host may persist.
	OnStateChange func(viewID string, paneState map[string]any)
	// OnPerformanceUpdate receives pane-reported metrics.
	OnPerformanceUpdate func(viewID string, metrics map[string]float64)
}

// Renderer is one renderable pane unit.
type Renderer interface {
	Render(props Props) string
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(props Props) string

// Render calls f.
func (f RendererFunc) Render(props Props) string { return f(props) }

// Factory produces a renderer for a view. Factories may be slow (loading a
// plugin, fetching a dashboard definition); acquisition is deferred so the
// shell renders a loading placeholder in the meantime.
type Factory func(sourceRef string, cb Callbacks) (Renderer, error)

// Registry resolves sourceRefs to renderers. The kind is the sourceRef
// scheme: "metrics:cpu" resolves through the "metrics" factory.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	resolved  map[string]Renderer // by view id
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		resolved:  make(map[string]Renderer),
	}
}

// Register installs the factory for a sourceRef kind.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Kind extracts the factory kind from a sourceRef.
func Kind(sourceRef string) string {
	if i := strings.IndexByte(sourceRef, ':'); i > 0 {
		return sourceRef[:i]
	}
	return sourceRef
}

// Acquire resolves the renderer for a view asynchronously. It returns
// immediately; onResolved fires exactly once from a separate goroutine
// with either the renderer or the resolution error. Until then the view
// stays in its loading-placeholder state.
func (r *Registry) Acquire(viewID, sourceRef string, cb Callbacks, onResolved func(viewID string, err error)) {
	r.mu.Lock()
	factory, ok := r.factories[Kind(sourceRef)]
	r.mu.Unlock()

	go func() {
		if !ok {
			onResolved(viewID, fmt.Errorf("%w: %s", model.ErrRendererNotRegistered, sourceRef))
			return
		}
		renderer, err := factory(sourceRef, cb)
		if err != nil {
			onResolved(viewID, fmt.Errorf("acquire %s: %w", sourceRef, err))
			return
		}
		r.mu.Lock()
		r.resolved[viewID] = renderer
		r.mu.Unlock()
		onResolved(viewID, nil)
	}()
}

// Renderer returns the resolved renderer for a view, if ready.
func (r *Registry) Renderer(viewID string) (Renderer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	renderer, ok := r.resolved[viewID]
	return renderer, ok
}

// Release forgets a view's renderer (view removed or workspace teardown).
func (r *Registry) Release(viewID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resolved, viewID)
}
