package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// paneChrome draws one pane: bordered box, title bar, body content. The
// border color signals state (focused, selected, dragging, failed).
type paneChrome struct {
	Title    string
	Body     string
	Width    int
	Height   int
	Focused  bool
	Selected bool
	Dragging bool
	DropHint bool
	Failed   bool
}

func (p paneChrome) render() string {
	borderColor := ColorBgHighlight
	switch {
	case p.Failed:
		borderColor = ColorDanger
	case p.Dragging:
		borderColor = ColorWarning
	case p.DropHint:
		borderColor = ColorSuccess
	case p.Focused:
		borderColor = ColorPrimary
	case p.Selected:
		borderColor = ColorInfo
	}

	innerWidth := p.Width - 2
	innerHeight := p.Height - 2
	if innerWidth < 1 || innerHeight < 1 {
		return ""
	}

	title := truncateCell(p.Title, innerWidth-2)
	titleStyle := lipgloss.NewStyle().Foreground(ColorSubtext)
	if p.Focused {
		titleStyle = titleStyle.Foreground(ColorText).Bold(true)
	}
	if p.Selected {
		title = "✓ " + truncateCell(p.Title, innerWidth-4)
	}

	body := clampBody(p.Body, innerWidth, innerHeight-1)

	content := titleStyle.Render(title) + "\n" + body

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(innerWidth).
		Height(innerHeight).
		Render(content)
}

// clampBody cuts the body to the pane's inner extents line by line.
func clampBody(body string, width, height int) string {
	if height < 1 {
		return ""
	}
	lines := strings.Split(body, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = truncateCell(line, width)
	}
	return strings.Join(lines, "\n")
}

// truncateCell cuts a string to a display-cell width, rune aware.
func truncateCell(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max-1, "…")
}
