package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/paneshell/paneshell/pkg/model"
)

// switcherItem is one selectable view in the switcher overlay.
type switcherItem struct {
	ID    string
	Title string
}

// switcherItems implements fuzzy.Source over the view list.
type switcherItems []switcherItem

func (s switcherItems) String(i int) string { return s[i].Title }
func (s switcherItems) Len() int            { return len(s) }

// Switcher is the fuzzy view-switcher overlay: type to filter, enter to
// focus the selected view.
type Switcher struct {
	input    textinput.Model
	all      switcherItems
	filtered switcherItems
	cursor   int
	width    int
}

// NewSwitcher builds the overlay over the current view list.
func NewSwitcher(views []model.ViewConfiguration, width int) *Switcher {
	ti := textinput.New()
	ti.Placeholder = "Jump to view..."
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	items := make(switcherItems, 0, len(views))
	for _, v := range views {
		title := v.Title
		if title == "" {
			title = v.ID
		}
		items = append(items, switcherItem{ID: v.ID, Title: title})
	}
	return &Switcher{input: ti, all: items, filtered: items, width: width}
}

// Update handles one key event. It returns the id of the chosen view when
// the user confirms, and done=true when the overlay should close.
func (s *Switcher) Update(msg tea.KeyMsg) (chosen string, done bool) {
	switch msg.String() {
	case "esc":
		return "", true
	case "enter":
		if s.cursor < len(s.filtered) {
			return s.filtered[s.cursor].ID, true
		}
		return "", true
	case "up", "ctrl+k":
		if s.cursor > 0 {
			s.cursor--
		}
		return "", false
	case "down", "ctrl+j":
		if s.cursor < len(s.filtered)-1 {
			s.cursor++
		}
		return "", false
	}

	s.input, _ = s.input.Update(msg)
	s.filter()
	return "", false
}

func (s *Switcher) filter() {
	query := strings.TrimSpace(s.input.Value())
	if query == "" {
		s.filtered = s.all
	} else {
		matches := fuzzy.FindFrom(query, s.all)
		filtered := make(switcherItems, 0, len(matches))
		for _, m := range matches {
			filtered = append(filtered, s.all[m.Index])
		}
		s.filtered = filtered
	}
	if s.cursor >= len(s.filtered) {
		s.cursor = 0
	}
}

// View renders the overlay.
func (s *Switcher) View() string {
	var b strings.Builder
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	if len(s.filtered) == 0 {
		b.WriteString(emptyStateStyle.Render("no matching views"))
	}
	for i, item := range s.filtered {
		line := fmt.Sprintf("%s  %s", truncateCell(item.Title, 32), lipgloss.NewStyle().Foreground(ColorMuted).Render(shortID(item.ID)))
		if i == s.cursor {
			line = sidebarActiveStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return overlayStyle.Render(b.String())
}

// shortID abbreviates a uuid for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
