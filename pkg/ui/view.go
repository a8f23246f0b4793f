package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/paneshell/paneshell/pkg/compose"
	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/registry"
	"github.com/paneshell/paneshell/pkg/viewport"
)

// hitIndex is the per-frame pane geometry shared between View (writes) and
// Update (reads for mouse hit-testing). bubbletea copies the model by
// value, so the rectangles live behind a pointer.
type hitIndex struct {
	mu    sync.Mutex
	rects []paneHit
}

func (h *hitIndex) set(rects []paneHit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rects = rects
}

func (h *hitIndex) at(x, y int) *paneHit {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.rects {
		r := h.rects[i]
		if x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H {
			return &r
		}
	}
	return nil
}

// View renders one frame and reports its duration to the performance
// monitor.
func (m Model) View() string {
	start := time.Now()
	out := m.renderFrame()
	m.orch.Perf.ObserveRender(time.Since(start))
	return out
}

func (m Model) renderFrame() string {
	if m.width == 0 || m.height == 0 {
		return "initializing…"
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, renderHelp(m.width))
	}
	if m.switcher != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.switcher.View())
	}

	layout := m.orch.Store.Layout()
	state := m.orch.Monitor.Current()
	structure := layout.StructureFor(state.Breakpoint)
	a := m.orch.Arrangement()

	var rects []paneHit
	var sections []string
	y := 0

	if structure.Header.Visible {
		sections = append(sections, m.renderHeader(layout, state))
		y++
	}

	contentH := m.height
	if structure.Header.Visible {
		contentH--
	}
	if structure.Footer.Visible {
		contentH--
	}
	if a.Mode == model.ModeTabbed && len(a.Tabs) > 0 {
		sections = append(sections, m.renderTabBar(a, layout))
		y++
		contentH--
	}
	if contentH < 1 {
		contentH = 1
	}

	contentW := m.width
	var sidebar string
	sidebarW := 0
	if structure.Sidebar.Visible && structure.Sidebar.Size > 0 && structure.Sidebar.Size < m.width {
		sidebarW = structure.Sidebar.Size
		contentW -= sidebarW
		sidebar = m.renderSidebar(layout, sidebarW, contentH)
	}

	content := m.renderContent(a, layout, contentW, contentH, sidebarW, y, &rects)
	if sidebar != "" {
		content = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	}
	sections = append(sections, content)

	if structure.Footer.Visible {
		sections = append(sections, m.renderFooter(layout))
	}

	m.hits.set(rects)
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader(layout model.LayoutConfiguration, state viewport.State) string {
	badge := headerBadgeStyle.Render("paneshell")
	parts := []string{
		badge,
		headerStyle.Render(layout.Name),
		headerStyle.Render(string(layout.Mode)),
		headerStyle.Render(fmt.Sprintf("%s %dx%d", state.Breakpoint, state.Width, state.Height)),
		headerStyle.Render(fmt.Sprintf("views %d/%d", len(layout.Views), m.orch.Store.MaxViews())),
	}
	if m.orch.Store.Dirty() {
		parts = append(parts, dirtyBadgeStyle.Render("unsaved"))
	}
	if m.orch.Supervisor.Recovering() {
		parts = append(parts, recoveryBadgeStyle.Render("recovery"))
	}
	if pending := m.orch.Perf.Monitor().Pending(); len(pending) > 0 {
		parts = append(parts, dirtyBadgeStyle.Render(fmt.Sprintf("%d perf hint(s) · o to apply", len(pending))))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	return truncateCell(line, m.width)
}

func (m Model) renderTabBar(a compose.Arrangement, layout model.LayoutConfiguration) string {
	var tabs []string
	for _, id := range a.Tabs {
		title := id
		if v := layout.View(id); v != nil && v.Title != "" {
			title = v.Title
		}
		label := truncateCell(title, 20)
		if id == a.ActiveTab {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return truncateCell(lipgloss.JoinHorizontal(lipgloss.Center, tabs...), m.width)
}

func (m Model) renderSidebar(layout model.LayoutConfiguration, w, h int) string {
	ordered := make([]model.ViewConfiguration, len(layout.Views))
	copy(ordered, layout.Views)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex > ordered[j].ZIndex })

	var b strings.Builder
	b.WriteString(sidebarActiveStyle.Render("views"))
	b.WriteString("\n")
	for i, v := range ordered {
		if i >= h-1 {
			break
		}
		title := v.Title
		if title == "" {
			title = shortID(v.ID)
		}
		mark := "  "
		if v.ID == m.focusedID {
			mark = "▸ "
		}
		if m.orch.Store.ViewDirty(v.ID) {
			title += " *"
		}
		line := mark + truncateCell(title, w-4)
		if v.ID == m.focusedID {
			line = sidebarActiveStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return sidebarStyle.Width(w - 2).Height(h).Render(b.String())
}

func (m Model) renderContent(a compose.Arrangement, layout model.LayoutConfiguration, w, h, xOff, yOff int, rects *[]paneHit) string {
	rows := groupRows(a.Cells)
	if len(rows) == 0 {
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center,
			emptyStateStyle.Render("no views · press a to add one"))
	}

	session, liveDrag := m.orch.Drag.Session()

	rowH := h / len(rows)
	if rowH < 3 {
		rowH = 3
	}

	paneIndex := 0
	var rendered []string
	y := yOff
	for ri, row := range rows {
		height := rowH
		if ri == len(rows)-1 {
			height = h - rowH*(len(rows)-1)
			if height < 3 {
				height = 3
			}
		}

		dividers := 0
		panes := 0
		for _, c := range row {
			if c.Kind == compose.CellDivider {
				dividers++
			} else {
				panes++
			}
		}
		colW := w
		if panes > 0 {
			colW = (w - dividers) / panes
		}

		x := xOff
		var parts []string
		for ci, c := range row {
			if c.Kind == compose.CellDivider {
				parts = append(parts, dividerColumn(height))
				x++
				continue
			}
			width := colW
			if ci == len(row)-1 {
				width = w - (x - xOff)
			}
			if width < 4 {
				width = 4
			}

			if c.Kind == compose.CellPlaceholder {
				parts = append(parts, lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
					emptyStateStyle.Render("empty")))
				x += width
				continue
			}

			v := layout.View(c.ViewID)
			if v == nil {
				x += width
				continue
			}
			*rects = append(*rects, paneHit{ViewID: c.ViewID, Index: paneIndex, X: x, Y: y, W: width, H: height})

			chrome := paneChrome{
				Title:    paneTitle(*v),
				Body:     m.paneBody(*v, width, height),
				Width:    width,
				Height:   height,
				Focused:  c.ViewID == m.focusedID || c.Active,
				Selected: m.isSelected(c.ViewID),
				Failed:   v.LoadState == model.LoadFailed,
			}
			if liveDrag {
				chrome.Dragging = session.SourceViewID == c.ViewID
				chrome.DropHint = session.Candidate == paneIndex && session.SourceViewID != c.ViewID
			}
			parts = append(parts, chrome.render())
			paneIndex++
			x += width
		}
		rendered = append(rendered, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
		y += height
	}
	return strings.Join(rendered, "\n")
}

func (m Model) paneBody(v model.ViewConfiguration, w, h int) string {
	switch {
	case !v.Visible:
		return emptyStateStyle.Render("hidden")
	case v.LoadState == model.LoadFailed:
		return "renderer unavailable"
	default:
		return m.orch.RenderPane(v.ID, registry.Props{
			ID:       v.ID,
			Title:    v.Title,
			Position: v.Position,
			Size:     model.Size{Width: w - 2, Height: h - 3},
			Visible:  v.Visible,
		})
	}
}

func (m Model) renderFooter(layout model.LayoutConfiguration) string {
	if m.notice != "" {
		return truncateCell(noticeStyle.Render(m.notice), m.width)
	}
	hints := "a add · x close · tab focus · m mode · / switch · c/p copy/paste · w save · ? help · q quit"
	if sel := m.orch.Store.Selection(); len(sel) > 0 {
		hints = fmt.Sprintf("%d selected · %s", len(sel), hints)
	}
	return truncateCell(footerStyle.Render(hints), m.width)
}

func (m Model) isSelected(id string) bool {
	for _, s := range m.orch.Store.Selection() {
		if s == id {
			return true
		}
	}
	return false
}

func paneTitle(v model.ViewConfiguration) string {
	if v.Title != "" {
		if v.LoadState == model.LoadPending {
			return v.Title + " (loading)"
		}
		return v.Title
	}
	return shortID(v.ID)
}

func dividerColumn(h int) string {
	lines := make([]string, h)
	for i := range lines {
		lines[i] = dividerStyle.Render("│")
	}
	return strings.Join(lines, "\n")
}

// groupRows buckets cells by row, preserving column order within each.
func groupRows(cells []compose.Cell) [][]compose.Cell {
	byRow := make(map[int][]compose.Cell)
	maxRow := -1
	for _, c := range cells {
		byRow[c.Row] = append(byRow[c.Row], c)
		if c.Row > maxRow {
			maxRow = c.Row
		}
	}
	var rows [][]compose.Cell
	for r := 0; r <= maxRow; r++ {
		row := byRow[r]
		sort.SliceStable(row, func(i, j int) bool { return row[i].Col < row[j].Col })
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}
