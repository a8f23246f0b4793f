package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired with semantic accents
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.Color("#282A36")
	ColorBgSubtle    = lipgloss.Color("#363949")
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")

	ColorPrimary = lipgloss.Color("#BD93F9")
	ColorInfo    = lipgloss.Color("#8BE9FD")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorDanger  = lipgloss.Color("#FF5555")
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPONENT STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorBgHighlight).
			Bold(true).
			Padding(0, 1)

	headerBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorBg).
				Background(ColorPrimary).
				Padding(0, 1)

	dirtyBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorBg).
			Background(ColorWarning).
			Padding(0, 1)

	recoveryBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorDanger).
				Bold(true).
				Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	noticeStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	sidebarStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(ColorBgHighlight).
			Padding(0, 1)

	sidebarActiveStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true)

	emptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	dividerStyle = lipgloss.NewStyle().
			Foreground(ColorBgHighlight)

	tabStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorBg).
			Background(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)
