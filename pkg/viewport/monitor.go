// Package viewport observes raw viewport resize events, debounces noisy
// bursts, and emits discrete breakpoint/orientation transitions.
package viewport

import (
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/paneshell/paneshell/pkg/model"
)

// Event is one raw viewport measurement, pre-debounce.
type Event struct {
	Width  int
	Height int
}

// State is the settled viewport classification.
type State struct {
	Breakpoint  model.Breakpoint
	Orientation model.Orientation
	DeviceType  string
	Width       int
	Height      int
}

// Observer delivers raw viewport size changes. Subscribe returns an
// unsubscribe func. Injecting this keeps the monitor testable without a
// real display surface.
type Observer interface {
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Classifier maps raw dimensions to a breakpoint and orientation. The
// default uses the pixel thresholds in pkg/model; terminal hosts supply
// a cell-based classifier instead.
type Classifier func(width, height int) (model.Breakpoint, model.Orientation)

// DefaultClassifier classifies by the standard width thresholds.
func DefaultClassifier(width, height int) (model.Breakpoint, model.Orientation) {
	return model.BreakpointForWidth(width), model.OrientationFor(width, height)
}

// AdaptationFunc adjusts the layout when the breakpoint changes. One may be
// registered per layout mode; the one matching the current mode runs on
// each confirmed transition.
type AdaptationFunc func(State)

// Monitor debounces raw resize events and emits at most one transition per
// settled burst, even when the burst crosses several thresholds transiently.
type Monitor struct {
	mu          sync.Mutex
	debounce    time.Duration
	classify    Classifier
	mode        func() model.LayoutMode
	adaptations map[model.LayoutMode]AdaptationFunc
	onChange    []func(State)

	current State
	primed  bool // true once any measurement has settled

	timer   *time.Timer
	seq     uint64
	pending Event

	unsubscribe func()
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClassifier overrides the default breakpoint classifier.
func WithClassifier(c Classifier) Option {
	return func(m *Monitor) { m.classify = c }
}

// WithModeProvider supplies the current layout mode for adaptation lookup.
func WithModeProvider(fn func() model.LayoutMode) Option {
	return func(m *Monitor) { m.mode = fn }
}

// NewMonitor creates a monitor with the given debounce window and fallback
// breakpoint. The fallback is reported until a real measurement settles,
// so headless and test environments never observe an empty state.
func NewMonitor(debounce time.Duration, fallback model.Breakpoint, opts ...Option) *Monitor {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if !fallback.IsValid() {
		fallback = model.BreakpointDesktop
	}
	m := &Monitor{
		debounce:    debounce,
		classify:    DefaultClassifier,
		adaptations: make(map[model.LayoutMode]AdaptationFunc),
		current: State{
			Breakpoint:  fallback,
			Orientation: model.OrientationLandscape,
			DeviceType:  deviceTypeFor(fallback),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start subscribes to the observer. A nil observer leaves the monitor on
// its fallback state rather than failing.
func (m *Monitor) Start(obs Observer) {
	if obs == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = obs.Subscribe(m.Observe)
}

// Stop unsubscribes and cancels any pending debounce timer.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.seq++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Observe feeds one raw resize event. Rapid calls within the debounce
// window coalesce; only the final settled measurement is classified.
func (m *Monitor) Observe(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = ev
	m.seq++
	seq := m.seq

	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		m.settle(seq)
	})
}

// settle classifies the pending measurement if it is still the newest one.
// Only the most recently scheduled callback runs, which keeps a burst that
// crosses several thresholds down to a single emitted transition.
func (m *Monitor) settle(seq uint64) {
	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	ev := m.pending

	bp, orient := m.classify(ev.Width, ev.Height)
	next := State{
		Breakpoint:  bp,
		Orientation: orient,
		DeviceType:  deviceTypeFor(bp),
		Width:       ev.Width,
		Height:      ev.Height,
	}
	changed := !m.primed ||
		next.Breakpoint != m.current.Breakpoint ||
		next.Orientation != m.current.Orientation
	m.primed = true
	m.current = next

	var fire []func(State)
	if changed {
		fire = append(fire, m.onChange...)
		if m.mode != nil {
			if adapt, ok := m.adaptations[m.mode()]; ok {
				fire = append(fire, adapt)
			}
		}
	}
	m.mu.Unlock()

	for _, fn := range fire {
		fn(next)
	}
}

// Current returns the latest settled state (or the fallback before any
// measurement has arrived).
func (m *Monitor) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnChange registers a callback fired on each confirmed transition.
func (m *Monitor) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// RegisterAdaptation installs the per-mode adaptation invoked on each
// confirmed breakpoint change while that mode is current.
func (m *Monitor) RegisterAdaptation(mode model.LayoutMode, fn AdaptationFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adaptations[mode] = fn
}

func deviceTypeFor(bp model.Breakpoint) string {
	switch bp {
	case model.BreakpointMobile:
		return "phone"
	case model.BreakpointTablet:
		return "tablet"
	default:
		return "desktop"
	}
}

// ProbeTerminal measures the attached terminal as a one-shot fallback for
// hosts without a live observer. Returns false when no terminal is
// available (headless/CI), in which case callers should stay on the
// configured default breakpoint.
func ProbeTerminal() (Event, bool) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return Event{}, false
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return Event{}, false
	}
	return Event{Width: w, Height: h}, true
}

// TerminalClassifier classifies terminal cell dimensions: narrow terminals
// behave like mobile, mid-size like tablet.
func TerminalClassifier(width, height int) (model.Breakpoint, model.Orientation) {
	var bp model.Breakpoint
	switch {
	case width < 80:
		bp = model.BreakpointMobile
	case width < 160:
		bp = model.BreakpointTablet
	default:
		bp = model.BreakpointDesktop
	}
	return bp, model.OrientationFor(width, height)
}
