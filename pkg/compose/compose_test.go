package compose

import (
	"fmt"
	"testing"

	"github.com/paneshell/paneshell/pkg/model"
)

func views(n int) []model.ViewConfiguration {
	out := make([]model.ViewConfiguration, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.ViewConfiguration{
			ID:        fmt.Sprintf("v%d", i),
			SourceRef: "demo:test",
			Visible:   true,
		})
	}
	return out
}

func TestGridDims(t *testing.T) {
	tests := []struct {
		n, rows, cols int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{6, 2, 3},
		{7, 3, 3},
		{9, 3, 3},
		{10, 3, 4},
	}
	for _, tt := range tests {
		rows, cols := GridDims(tt.n)
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("GridDims(%d) = %dx%d, want %dx%d", tt.n, rows, cols, tt.rows, tt.cols)
		}
	}
}

func TestRenderGridFillsInOrder(t *testing.T) {
	a := Render(model.ModeGrid, views(5), model.BreakpointDesktop)
	if a.Rows != 2 || a.Cols != 3 {
		t.Fatalf("grid shape = %dx%d, want 2x3", a.Rows, a.Cols)
	}
	if len(a.Cells) != 6 {
		t.Fatalf("cell count = %d, want all 6 grid slots", len(a.Cells))
	}
	// Insertion order, row-major, no gaps.
	wantPos := []struct{ row, col int }{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}}
	for i, cell := range a.Cells[:5] {
		if cell.Kind != CellPane || cell.ViewID != fmt.Sprintf("v%d", i+1) {
			t.Errorf("cell %d holds %s, want v%d", i, cell.ViewID, i+1)
		}
		if cell.Row != wantPos[i].row || cell.Col != wantPos[i].col {
			t.Errorf("cell %d at (%d,%d), want (%d,%d)", i, cell.Row, cell.Col, wantPos[i].row, wantPos[i].col)
		}
	}
	// The unused sixth slot renders as an empty placeholder so the last
	// row's panes do not stretch.
	last := a.Cells[5]
	if last.Kind != CellPlaceholder || last.Row != 1 || last.Col != 2 {
		t.Errorf("trailing slot = %+v, want placeholder at (1,2)", last)
	}
}

func TestRenderGridEmpty(t *testing.T) {
	a := Render(model.ModeGrid, nil, model.BreakpointDesktop)
	if len(a.Cells) != 1 || a.Cells[0].Kind != CellPlaceholder {
		t.Errorf("empty grid = %+v, want single placeholder", a.Cells)
	}
}

func TestRenderSplit(t *testing.T) {
	a := Render(model.ModeSplit, views(3), model.BreakpointDesktop)

	var panes []string
	dividers := 0
	for _, c := range a.Cells {
		switch c.Kind {
		case CellPane:
			panes = append(panes, c.ViewID)
		case CellDivider:
			dividers++
		}
	}
	if len(panes) != 2 || panes[0] != "v1" || panes[1] != "v2" {
		t.Errorf("split panes = %v, want [v1 v2]", panes)
	}
	if dividers != 1 {
		t.Errorf("dividers = %d, want 1", dividers)
	}
	if len(a.Deferred) != 1 || a.Deferred[0] != "v3" {
		t.Errorf("deferred = %v, want [v3]", a.Deferred)
	}
}

func TestRenderSplitSingleView(t *testing.T) {
	a := Render(model.ModeSplit, views(1), model.BreakpointDesktop)
	if len(a.Cells) != 1 || a.Cells[0].ViewID != "v1" {
		t.Errorf("one-view split = %+v, want just v1", a.Cells)
	}
}

func TestRenderSingle(t *testing.T) {
	vs := views(3)
	vs[0].Visible = false
	a := Render(model.ModeSingle, vs, model.BreakpointDesktop)

	if len(a.Cells) != 1 || a.Cells[0].ViewID != "v2" {
		t.Fatalf("single cell = %+v, want first visible view v2", a.Cells)
	}
	if len(a.Deferred) != 2 {
		t.Errorf("deferred = %v, want the other two views", a.Deferred)
	}
}

func TestRenderTabbed(t *testing.T) {
	a := Render(model.ModeTabbed, views(3), model.BreakpointDesktop, WithActiveView("v2"))

	if a.ActiveTab != "v2" {
		t.Errorf("active tab = %s, want v2", a.ActiveTab)
	}
	if len(a.Tabs) != 3 {
		t.Errorf("tabs = %v, want all three", a.Tabs)
	}
	if len(a.Cells) != 1 || a.Cells[0].ViewID != "v2" || !a.Cells[0].Active {
		t.Errorf("rendered cell = %+v, want active v2", a.Cells)
	}
	if len(a.Deferred) != 2 {
		t.Errorf("deferred = %v, want inactive tabs", a.Deferred)
	}
}

func TestRenderTabbedFallsBackToFirst(t *testing.T) {
	a := Render(model.ModeTabbed, views(2), model.BreakpointDesktop, WithActiveView("missing"))
	if a.ActiveTab != "v1" {
		t.Errorf("active tab = %s, want fallback v1", a.ActiveTab)
	}
}

func TestRenderCustomStrategy(t *testing.T) {
	strat := StrategyFunc(func(vs []model.ViewConfiguration, bp model.Breakpoint) Arrangement {
		return Arrangement{Rows: 1, Cols: len(vs), Cells: []Cell{{Kind: CellPane, ViewID: "v1"}}}
	})
	a := Render(model.ModeCustom, views(2), model.BreakpointTablet, WithStrategy(strat))
	if a.Mode != model.ModeCustom {
		t.Errorf("mode = %s, want custom", a.Mode)
	}
	if a.Breakpoint != model.BreakpointTablet {
		t.Errorf("breakpoint = %s, want tablet", a.Breakpoint)
	}
	if a.Cols != 2 {
		t.Errorf("strategy output not used: cols = %d", a.Cols)
	}
}

func TestRenderCustomWithoutStrategyDegradesToGrid(t *testing.T) {
	a := Render(model.ModeCustom, views(4), model.BreakpointDesktop)
	if a.Mode != model.ModeCustom {
		t.Errorf("mode = %s, want custom", a.Mode)
	}
	if a.Rows != 2 || a.Cols != 2 {
		t.Errorf("fallback shape = %dx%d, want 2x2 grid", a.Rows, a.Cols)
	}
}

func TestRenderIsPure(t *testing.T) {
	vs := views(3)
	a1 := Render(model.ModeGrid, vs, model.BreakpointDesktop)
	a2 := Render(model.ModeGrid, vs, model.BreakpointDesktop)
	if len(a1.Cells) != len(a2.Cells) {
		t.Fatal("repeated render differs")
	}
	for i := range a1.Cells {
		if a1.Cells[i] != a2.Cells[i] {
			t.Errorf("cell %d differs between identical renders", i)
		}
	}
}
