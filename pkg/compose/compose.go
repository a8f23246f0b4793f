// Package compose derives a renderable arrangement from a layout mode, the
// ordered view list, and the current breakpoint. Render is pure: no state
// is read or written beyond its arguments.
package compose

import (
	"math"

	"github.com/paneshell/paneshell/pkg/model"
)

// CellKind distinguishes the roles a cell can play in an arrangement.
type CellKind string

const (
	CellPane        CellKind = "pane"
	CellPlaceholder CellKind = "placeholder"
	CellDivider     CellKind = "divider"
)

// Cell is one renderable slot in the arrangement.
type Cell struct {
	Kind   CellKind
	ViewID string
	Row    int
	Col    int
	Active bool // tabbed mode: this cell is the active tab
}

// Arrangement is the derived render plan for one frame.
type Arrangement struct {
	Mode       model.LayoutMode
	Breakpoint model.Breakpoint
	Rows       int
	Cols       int
	Cells      []Cell

	// Tabs lists every view id in tab order (tabbed mode only).
	Tabs []string
	// ActiveTab is the id of the active tab, empty when no views exist.
	ActiveTab string
	// Deferred lists views retained in state but not rendered this frame
	// (split mode beyond the first two, hidden views).
	Deferred []string
}

// Strategy computes a custom arrangement. The engine guarantees only the
// props/callbacks contract around it, not its internal shape.
type Strategy interface {
	Arrange(views []model.ViewConfiguration, bp model.Breakpoint) Arrangement
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(views []model.ViewConfiguration, bp model.Breakpoint) Arrangement

// Arrange calls f.
func (f StrategyFunc) Arrange(views []model.ViewConfiguration, bp model.Breakpoint) Arrangement {
	return f(views, bp)
}

// Render derives the arrangement for the given inputs. Ties for "first"
// are broken by slice index: insertion order is authoritative.
func Render(mode model.LayoutMode, views []model.ViewConfiguration, bp model.Breakpoint, opts ...Option) Arrangement {
	cfg := renderConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch mode {
	case model.ModeSingle:
		return renderSingle(views, bp)
	case model.ModeSplit:
		return renderSplit(views, bp)
	case model.ModeTabbed:
		return renderTabbed(views, bp, cfg.activeViewID)
	case model.ModeGrid:
		return renderGrid(views, bp)
	case model.ModeCustom:
		if cfg.strategy != nil {
			a := cfg.strategy.Arrange(views, bp)
			a.Mode = model.ModeCustom
			a.Breakpoint = bp
			return a
		}
		// No strategy supplied: fall back to grid so custom mode degrades
		// instead of rendering nothing.
		a := renderGrid(views, bp)
		a.Mode = model.ModeCustom
		return a
	default:
		return renderSingle(views, bp)
	}
}

// Option tunes a single Render call.
type Option func(*renderConfig)

type renderConfig struct {
	activeViewID string
	strategy     Strategy
}

// WithActiveView supplies the tabbed-active view id.
func WithActiveView(id string) Option {
	return func(c *renderConfig) { c.activeViewID = id }
}

// WithStrategy supplies the pluggable custom-mode strategy.
func WithStrategy(s Strategy) Option {
	return func(c *renderConfig) { c.strategy = s }
}

// GridDims computes the grid shape for n views: columns = ceil(sqrt(n)),
// rows = ceil(n / columns). Zero views yield a 0x0 grid.
func GridDims(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return rows, cols
}

func renderSingle(views []model.ViewConfiguration, bp model.Breakpoint) Arrangement {
	a := Arrangement{Mode: model.ModeSingle, Breakpoint: bp, Rows: 1, Cols: 1}
	first := -1
	for i := range views {
		if views[i].Visible {
			first = i
			break
		}
	}
	if first < 0 {
		a.Cells = []Cell{{Kind: CellPlaceholder}}
		for i := range views {
			a.Deferred = append(a.Deferred, views[i].ID)
		}
		return a
	}
	a.Cells = []Cell{{Kind: CellPane, ViewID: views[first].ID}}
	for i := range views {
		if i != first {
			a.Deferred = append(a.Deferred, views[i].ID)
		}
	}
	return a
}

func renderSplit(views []model.ViewConfiguration, bp model.Breakpoint) Arrangement {
	a := Arrangement{Mode: model.ModeSplit, Breakpoint: bp, Rows: 1, Cols: 3}
	switch {
	case len(views) == 0:
		a.Cells = []Cell{{Kind: CellPlaceholder}}
		a.Cols = 1
	case len(views) == 1:
		a.Cells = []Cell{{Kind: CellPane, ViewID: views[0].ID}}
		a.Cols = 1
	default:
		// First two views side by side with a resizable divider between
		// them; the rest stay in state, unrendered until promoted.
		a.Cells = []Cell{
			{Kind: CellPane, ViewID: views[0].ID, Col: 0},
			{Kind: CellDivider, Col: 1},
			{Kind: CellPane, ViewID: views[1].ID, Col: 2},
		}
		for i := 2; i < len(views); i++ {
			a.Deferred = append(a.Deferred, views[i].ID)
		}
	}
	return a
}

func renderTabbed(views []model.ViewConfiguration, bp model.Breakpoint, activeID string) Arrangement {
	a := Arrangement{Mode: model.ModeTabbed, Breakpoint: bp, Rows: 1, Cols: 1}
	if len(views) == 0 {
		a.Cells = []Cell{{Kind: CellPlaceholder}}
		return a
	}
	active := -1
	for i := range views {
		a.Tabs = append(a.Tabs, views[i].ID)
		if views[i].ID == activeID {
			active = i
		}
	}
	if active < 0 {
		active = 0
	}
	a.ActiveTab = views[active].ID
	a.Cells = []Cell{{Kind: CellPane, ViewID: views[active].ID, Active: true}}
	for i := range views {
		if i != active {
			a.Deferred = append(a.Deferred, views[i].ID)
		}
	}
	return a
}

func renderGrid(views []model.ViewConfiguration, bp model.Breakpoint) Arrangement {
	rows, cols := GridDims(len(views))
	a := Arrangement{Mode: model.ModeGrid, Breakpoint: bp, Rows: rows, Cols: cols}
	if len(views) == 0 {
		a.Rows, a.Cols = 1, 1
		a.Cells = []Cell{{Kind: CellPlaceholder}}
		return a
	}
	// Cells fill in insertion order with no gaps: removals upstream reflow
	// the remaining views into the same order.
	for i := range views {
		a.Cells = append(a.Cells, Cell{
			Kind:   CellPane,
			ViewID: views[i].ID,
			Row:    i / cols,
			Col:    i % cols,
		})
	}
	// Unused trailing slots become placeholders so cell geometry stays
	// stable across rows.
	for i := len(views); i < rows*cols; i++ {
		a.Cells = append(a.Cells, Cell{
			Kind: CellPlaceholder,
			Row:  i / cols,
			Col:  i % cols,
		})
	}
	return a
}
