// Package ui is the terminal shell over the layout engine: a bubbletea
// program that renders the composed arrangement and translates keys and
// mouse events into engine operations.
package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/paneshell/paneshell/pkg/dragdrop"
	"github.com/paneshell/paneshell/pkg/export"
	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/orchestrator"
	"github.com/paneshell/paneshell/pkg/store"
	"github.com/paneshell/paneshell/pkg/viewport"
)

// refreshInterval drives the periodic redraw that picks up async engine
// changes (load-state resolution, breakpoint settles, sync applies).
const refreshInterval = 250 * time.Millisecond

const noticeDuration = 4 * time.Second

// tickMsg is the periodic refresh signal.
type tickMsg time.Time

// paneHit is one pane's screen rectangle, kept per frame for mouse
// hit-testing.
type paneHit struct {
	ViewID string
	Index  int
	X, Y   int
	W, H   int
}

// ViewTemplate produces the configuration for the nth view added through
// the shell's add key.
type ViewTemplate func(n int) model.ViewConfiguration

// Model is the shell's bubbletea model.
type Model struct {
	orch *orchestrator.Orchestrator

	width  int
	height int

	focusedID string
	added     int
	template  ViewTemplate

	switcher *Switcher
	showHelp bool

	notice      string
	noticeUntil time.Time

	hits     *hitIndex
	dragging bool
}

// ModelOption configures the shell model.
type ModelOption func(*Model)

// WithViewTemplate overrides how new views are stamped out.
func WithViewTemplate(t ViewTemplate) ModelOption {
	return func(m *Model) { m.template = t }
}

// NewModel builds the shell over an initialized orchestrator.
func NewModel(o *orchestrator.Orchestrator, opts ...ModelOption) Model {
	m := Model{
		orch: o,
		hits: &hitIndex{},
		template: func(n int) model.ViewConfiguration {
			return model.ViewConfiguration{
				Title:     fmt.Sprintf("view %d", n),
				SourceRef: "demo:pane",
				Resizable: true,
				Draggable: true,
			}
		},
	}
	for _, opt := range opts {
		opt(&m)
	}
	if views := o.Store.Layout().Views; len(views) > 0 {
		m.focusedID = views[0].ID
		m.added = len(views)
	}
	return m
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update routes one event.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.orch.Monitor.Observe(viewport.Event{Width: msg.Width, Height: msg.Height})
		m.orch.Lifecycle.SetContainer(model.Size{Width: msg.Width, Height: m.contentHeight()})
		return m, nil

	case tickMsg:
		for _, n := range m.orch.Notices() {
			m.setNotice(n)
		}
		if !m.noticeUntil.IsZero() && time.Now().After(m.noticeUntil) {
			m.notice = ""
			m.noticeUntil = time.Time{}
		}
		return m, tick()

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.switcher != nil {
		chosen, done := m.switcher.Update(msg)
		if done {
			m.switcher = nil
			if chosen != "" {
				m.focusedID = chosen
				m.report(m.orch.Lifecycle.FocusView(chosen))
			}
		}
		return m, nil
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = true

	case "/":
		m.switcher = NewSwitcher(m.orch.Store.Layout().Views, m.width)

	case "a":
		m.added++
		id, err := m.orch.AddView(m.template(m.added))
		if err != nil {
			m.added--
			m.setNotice(fmt.Sprintf("add view: %v", err))
			return m, nil
		}
		m.focusedID = id
		m.report(m.orch.Lifecycle.FocusView(id))

	case "x":
		if m.focusedID != "" {
			m.report(m.orch.RemoveView(m.focusedID))
			m.focusedID = m.orch.Store.Layout().ActiveViewID
			if m.focusedID == "" {
				if views := m.orch.Store.Layout().Views; len(views) > 0 {
					m.focusedID = views[0].ID
				}
			}
		}

	case "tab":
		m.focusNext()

	case "v":
		if m.focusedID != "" {
			m.report(m.orch.Lifecycle.SelectView(m.focusedID, false))
		}

	case "V":
		if m.focusedID != "" {
			m.report(m.orch.Lifecycle.SelectView(m.focusedID, true))
		}

	case "c":
		n, err := m.orch.Lifecycle.CopySelected()
		m.report(err)
		if err == nil && n > 0 {
			m.setNotice(fmt.Sprintf("copied %d view(s)", n))
		}

	case "p":
		ids, err := m.orch.Lifecycle.Paste()
		m.report(err)
		if len(ids) > 0 {
			m.focusedID = ids[len(ids)-1]
			m.setNotice(fmt.Sprintf("pasted %d view(s)", len(ids)))
		}

	case "m":
		m.cycleMode()

	case "[":
		m.stepTab(-1)
	case "]":
		m.stepTab(1)

	case "up":
		m.nudge(0, -1)
	case "down":
		m.nudge(0, 1)
	case "left":
		m.nudge(-1, 0)
	case "right":
		m.nudge(1, 0)

	case "+", "=":
		m.grow(2, 1)
	case "-", "_":
		m.grow(-2, -1)

	case "o":
		if pending := m.orch.Perf.Monitor().Pending(); len(pending) > 0 {
			m.report(m.orch.Perf.Monitor().Confirm(pending[0].ID))
			m.setNotice("applied: " + pending[0].Title)
		}
	case "O":
		if pending := m.orch.Perf.Monitor().Pending(); len(pending) > 0 {
			m.orch.Perf.Monitor().Dismiss(pending[0].ID)
		}

	case "w":
		if err := m.orch.Save(context.Background()); err != nil {
			m.setNotice(fmt.Sprintf("save failed: %v", err))
		} else {
			m.setNotice("layout saved")
		}

	case "e":
		m.exportSnapshot()

	case "esc":
		if m.dragging {
			m.orch.Drag.Cancel()
			m.dragging = false
		} else {
			m.report(m.orch.Store.Dispatch(store.ClearSelection{}))
		}
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		hit := m.hitAt(msg.X, msg.Y)
		if hit == nil {
			return m, nil
		}
		v := m.orch.Store.Layout().View(hit.ViewID)
		if v == nil || !v.Draggable {
			m.focusedID = hit.ViewID
			m.report(m.orch.Lifecycle.FocusView(hit.ViewID))
			return m, nil
		}
		m.focusedID = hit.ViewID
		m.report(m.orch.Lifecycle.FocusView(hit.ViewID))
		offset := model.Position{X: msg.X - hit.X, Y: msg.Y - hit.Y}
		if err := m.orch.Drag.Start(hit.ViewID, offset); err == nil {
			m.dragging = true
		}

	case tea.MouseActionMotion:
		if !m.dragging {
			return m, nil
		}
		if hit := m.hitAt(msg.X, msg.Y); hit != nil {
			m.orch.Drag.Over(hit.Index)
		} else {
			m.orch.Drag.Over(dragdrop.NoTarget)
		}

	case tea.MouseActionRelease:
		if !m.dragging {
			return m, nil
		}
		m.dragging = false
		m.report(m.orch.Drag.Drop())
	}
	return m, nil
}

// focusNext moves focus to the next view in layout order.
func (m *Model) focusNext() {
	views := m.orch.Store.Layout().Views
	if len(views) == 0 {
		return
	}
	next := 0
	for i := range views {
		if views[i].ID == m.focusedID {
			next = (i + 1) % len(views)
			break
		}
	}
	m.focusedID = views[next].ID
	m.report(m.orch.Lifecycle.FocusView(m.focusedID))
}

var modeCycle = []model.LayoutMode{
	model.ModeSingle, model.ModeSplit, model.ModeTabbed, model.ModeGrid, model.ModeCustom,
}

func (m *Model) cycleMode() {
	cur := m.orch.Store.Layout().Mode
	next := modeCycle[0]
	for i, mode := range modeCycle {
		if mode == cur {
			next = modeCycle[(i+1)%len(modeCycle)]
			break
		}
	}
	m.report(m.orch.Store.Dispatch(store.SetMode{Mode: next}))
}

func (m *Model) stepTab(delta int) {
	a := m.orch.Arrangement()
	if len(a.Tabs) == 0 {
		return
	}
	cur := 0
	for i, id := range a.Tabs {
		if id == a.ActiveTab {
			cur = i
			break
		}
	}
	next := (cur + delta + len(a.Tabs)) % len(a.Tabs)
	m.report(m.orch.Store.Dispatch(store.SetActiveView{ID: a.Tabs[next]}))
	m.focusedID = a.Tabs[next]
}

func (m *Model) nudge(dx, dy int) {
	v := m.orch.Store.Layout().View(m.focusedID)
	if v == nil {
		return
	}
	m.report(m.orch.Lifecycle.MoveView(v.ID, model.Position{
		X: v.Position.X + dx, Y: v.Position.Y + dy,
		Row: v.Position.Row, Col: v.Position.Col,
	}))
}

func (m *Model) grow(dw, dh int) {
	v := m.orch.Store.Layout().View(m.focusedID)
	if v == nil {
		return
	}
	m.report(m.orch.Lifecycle.ResizeView(v.ID, model.Size{
		Width: v.Size.Width + dw, Height: v.Size.Height + dh,
	}))
}

func (m *Model) exportSnapshot() {
	a := m.orch.Arrangement()
	titles := make(map[string]string)
	for _, v := range m.orch.Store.Layout().Views {
		titles[v.ID] = v.Title
	}
	if err := export.WriteSVGFile("paneshell-layout.svg", a, titles); err != nil {
		m.setNotice(fmt.Sprintf("export: %v", err))
		return
	}
	if err := export.WritePNG("paneshell-layout.png", a, titles, 1600); err != nil {
		m.setNotice(fmt.Sprintf("export: %v", err))
		return
	}
	m.setNotice("exported paneshell-layout.{svg,png}")
}

func (m *Model) hitAt(x, y int) *paneHit {
	return m.hits.at(x, y)
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeUntil = time.Now().Add(noticeDuration)
}

// report surfaces an operation error in the notice line. nil is ignored so
// call sites stay single-line.
func (m *Model) report(err error) {
	if err != nil {
		m.setNotice(err.Error())
	}
}

func (m Model) contentHeight() int {
	h := m.height - 2 // header + footer
	if m.orch.Store.Layout().Mode == model.ModeTabbed {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}
