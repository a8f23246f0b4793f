// Package orchestrator assembles the layout engine: store, lifecycle,
// drag coordination, responsive monitoring, sync, autosave, performance
// monitoring, and the error supervisor. The Orchestrator is an explicit,
// constructible object owned by its workspace context, with init/teardown
// lifecycle; it is never a hidden singleton.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/paneshell/paneshell/pkg/autosave"
	"github.com/paneshell/paneshell/pkg/compose"
	"github.com/paneshell/paneshell/pkg/config"
	"github.com/paneshell/paneshell/pkg/dragdrop"
	"github.com/paneshell/paneshell/pkg/lifecycle"
	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/persist"
	"github.com/paneshell/paneshell/pkg/registry"
	"github.com/paneshell/paneshell/pkg/store"
	"github.com/paneshell/paneshell/pkg/supervisor"
	"github.com/paneshell/paneshell/pkg/syncer"
	"github.com/paneshell/paneshell/pkg/viewport"
)

// Orchestrator owns one workspace's layout engine.
type Orchestrator struct {
	cfg config.Config

	Store      *store.Store
	Lifecycle  *lifecycle.Manager
	Drag       *dragdrop.Coordinator
	Monitor    *viewport.Monitor
	Syncer     *syncer.Subscriber
	Autosave   *autosave.Scheduler
	Perf       *perfLoop
	Supervisor *supervisor.Supervisor
	Persist    *persist.Store
	Registry   *registry.Registry

	feed     *syncer.Feed
	strategy compose.Strategy

	mu             sync.Mutex
	virtualization bool
	animations     bool
	notices        []string
	cancel         context.CancelFunc
	unsubs         []func()
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithPersist injects an already-open persistence store (tests, shared DB).
func WithPersist(p *persist.Store) Option {
	return func(o *Orchestrator) { o.Persist = p }
}

// WithStrategy supplies the custom-mode composition strategy.
func WithStrategy(s compose.Strategy) Option {
	return func(o *Orchestrator) { o.strategy = s }
}

// New builds an orchestrator for the given config. Init must be called
// before use.
func New(cfg config.Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:        cfg,
		Registry:   registry.New(),
		Supervisor: supervisor.New(cfg.RecoveryCooldown),
		animations: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Persist == nil {
		path := cfg.DBPath
		if path == "" {
			path = persist.DefaultPath()
		}
		p, err := persist.Open(path)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		o.Persist = p
	}
	return o, nil
}

// Init loads (or creates) the layout and starts the engine's background
// work. layoutID may be empty to create a fresh default layout.
func (o *Orchestrator) Init(ctx context.Context, layoutID string) error {
	layout, err := o.loadOrCreate(ctx, layoutID)
	if err != nil {
		return err
	}

	o.Store = store.New(layout, o.cfg.MaxConcurrentViews)
	o.Lifecycle = lifecycle.New(o.Store, o.cfg.PasteOffset)
	o.Drag = dragdrop.New(o.Lifecycle)
	o.Monitor = viewport.NewMonitor(o.cfg.Debounce, o.cfg.DefaultBreakpoint,
		viewport.WithClassifier(viewport.TerminalClassifier),
		viewport.WithModeProvider(func() model.LayoutMode { return o.Store.Layout().Mode }),
	)
	o.Syncer = syncer.NewSubscriber(o.Store)
	o.Autosave = autosave.New(o.Store, o.Persist.Save,
		o.cfg.AutosaveDelay, o.cfg.SaveTimeout, o.cfg.MaxSaveAttempts)
	o.Perf = newPerf(o)

	o.wire()

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	// Concurrent startup of the async feeds. The viewport seed is a
	// one-shot probe; headless hosts simply keep the default breakpoint.
	g, gctx := errgroup.WithContext(runCtx)
	if o.cfg.SpoolPath != "" {
		o.feed = syncer.NewFeed(o.cfg.SpoolPath, o.Syncer)
		g.Go(func() error { return o.feed.Start(gctx) })
	}
	g.Go(func() error {
		if ev, ok := viewport.ProbeTerminal(); ok {
			o.Monitor.Observe(ev)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		cancel()
		return fmt.Errorf("orchestrator init: %w", err)
	}

	o.Perf.start(runCtx)
	return nil
}

// wire connects the components' observation points.
func (o *Orchestrator) wire() {
	o.unsubs = append(o.unsubs, o.Store.Subscribe(o.Autosave.Observe))
	o.Drag.OnActiveChange(o.Autosave.SetBlocked)

	o.Syncer.OnConflict(func(ev syncer.Event) {
		o.Supervisor.Record(model.CategorySync, model.SeverityWarning,
			fmt.Sprintf("remote %s update for dirty view dropped", ev.Type), ev.TargetID)
	})
	o.Syncer.OnError(func(err error, ev syncer.Event) {
		o.Supervisor.Record(model.CategorySync, model.SeverityWarning, err.Error(), ev.TargetID)
	})

	o.Autosave.OnFailure(func(err error) {
		o.Supervisor.Record(model.CategoryPersistence, model.SeverityError, err.Error(), "autosave")
		o.notify(fmt.Sprintf("autosave failed: %v", err))
	})

	// Collapse the sidebar when a phone-sized viewport settles. Installed
	// as a responsive override so render-time structure resolution picks
	// it up; re-dispatch is skipped once present.
	adapt := func(state viewport.State) {
		if state.Breakpoint != model.BreakpointMobile {
			return
		}
		layout := o.Store.Layout()
		if _, ok := layout.Overrides[model.BreakpointMobile]; ok {
			return
		}
		hidden := model.RegionConfig{Size: 0, Visible: false}
		_ = o.Store.Dispatch(store.SetOverride{
			Breakpoint: model.BreakpointMobile,
			Partial:    model.PartialStructure{Sidebar: &hidden},
		})
	}
	for _, mode := range []model.LayoutMode{model.ModeSingle, model.ModeSplit, model.ModeTabbed, model.ModeGrid, model.ModeCustom} {
		o.Monitor.RegisterAdaptation(mode, adapt)
	}
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, layoutID string) (model.LayoutConfiguration, error) {
	if layoutID != "" {
		layout, err := o.Persist.Load(ctx, layoutID)
		if err == nil {
			return layout, nil
		}
		if !errors.Is(err, persist.ErrNotFound) {
			return model.LayoutConfiguration{}, err
		}
		// Missing id falls through to a fresh layout under that id.
	}
	return DefaultLayout(layoutID), nil
}

// DefaultLayout builds a fresh grid layout. id may be empty.
func DefaultLayout(id string) model.LayoutConfiguration {
	if id == "" {
		id = uuid.NewString()
	}
	return model.LayoutConfiguration{
		ID:   id,
		Name: "workspace",
		Mode: model.ModeGrid,
		Structure: model.Structure{
			Header:  model.RegionConfig{Size: 1, Visible: true, Fixed: true},
			Sidebar: model.RegionConfig{Size: 24, Visible: true},
			Content: model.RegionConfig{Size: 0, Visible: true},
			Footer:  model.RegionConfig{Size: 1, Visible: true, Fixed: true},
		},
		LastModified: time.Now(),
	}
}

// Arrangement derives the current render plan.
func (o *Orchestrator) Arrangement() compose.Arrangement {
	layout := o.Store.Layout()
	state := o.Monitor.Current()
	opts := []compose.Option{compose.WithActiveView(layout.ActiveViewID)}
	if o.strategy != nil {
		opts = append(opts, compose.WithStrategy(o.strategy))
	}
	return compose.Render(layout.Mode, layout.Views, state.Breakpoint, opts...)
}

// AddView creates a view and begins acquiring its renderer. The view shows
// its loading placeholder until acquisition resolves.
func (o *Orchestrator) AddView(v model.ViewConfiguration) (string, error) {
	v.LoadState = model.LoadPending
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	id, err := o.Lifecycle.AddView(v)
	if err != nil {
		return "", err
	}
	cb := registry.Callbacks{
		OnPerformanceUpdate: func(viewID string, metrics map[string]float64) {
			_ = o.Store.Dispatch(store.UpdateViewMetrics{ID: viewID, Metrics: metrics})
		},
	}
	o.Registry.Acquire(id, v.SourceRef, cb, func(viewID string, err error) {
		state := model.LoadReady
		if err != nil {
			state = model.LoadFailed
			o.Supervisor.Record(model.CategoryRender, model.SeverityWarning, err.Error(), viewID)
		}
		_ = o.Store.Dispatch(store.SetViewLoadState{ID: viewID, State: state})
	})
	return id, nil
}

// RemoveView removes a view, clearing any drag session that references it
// and releasing its renderer.
func (o *Orchestrator) RemoveView(id string) error {
	o.Drag.DropViewRemoved(id)
	if err := o.Lifecycle.RemoveView(id); err != nil {
		return err
	}
	o.Registry.Release(id)
	return nil
}

// RenderPane renders one pane in isolation: loading placeholder while the
// renderer is pending, fallback text when the renderer panics.
func (o *Orchestrator) RenderPane(viewID string, props registry.Props) string {
	renderer, ok := o.Registry.Renderer(viewID)
	if !ok {
		return "loading…"
	}
	out, _ := o.Supervisor.RenderPane(viewID, func() string {
		return renderer.Render(props)
	})
	return out
}

// Virtualization reports whether off-screen panes should skip rendering.
func (o *Orchestrator) Virtualization() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.virtualization
}

// Animations reports whether pane transitions should animate.
func (o *Orchestrator) Animations() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.animations
}

// Notices drains user-facing notifications (persistence failures and the
// like). Non-blocking and dismissible by consumption.
func (o *Orchestrator) Notices() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.notices
	o.notices = nil
	return out
}

func (o *Orchestrator) notify(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices = append(o.notices, msg)
}

// Save forces an immediate persistence attempt (explicit user save).
func (o *Orchestrator) Save(ctx context.Context) error {
	return o.Autosave.SaveNow(ctx)
}

// Teardown stops background work, flushes a final save when safe, and
// closes the persistence store. Pending timers are cancelled so nothing
// leaks past the workspace's lifetime.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	if o.cancel != nil {
		o.cancel()
	}
	o.Perf.stop()
	o.Monitor.Stop()
	if o.feed != nil {
		o.feed.Close()
	}

	var saveErr error
	if o.Store.Dirty() && !o.Drag.Active() {
		saveErr = o.Autosave.SaveNow(ctx)
	}
	o.Autosave.Close()
	o.Supervisor.Close()
	for _, unsub := range o.unsubs {
		unsub()
	}
	if err := o.Persist.Close(); err != nil && saveErr == nil {
		saveErr = err
	}
	return saveErr
}
