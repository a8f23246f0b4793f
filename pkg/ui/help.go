package ui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# paneshell

## Views
| Key | Action |
|-----|--------|
| a | add view |
| x | remove focused view |
| tab | focus next view |
| v | select focused view |
| V | toggle focused view in multi-selection |
| c | copy selection |
| p | paste |
| / | fuzzy view switcher |

## Layout
| Key | Action |
|-----|--------|
| m | cycle layout mode |
| arrows | move focused view |
| +/- | resize focused view |
| [ / ] | previous / next tab |

## Drag
Press and hold the left mouse button on a pane, drag over a target
slot, release to drop. Esc cancels a drag.

## Session
| Key | Action |
|-----|--------|
| w | save layout now |
| e | export layout snapshot (SVG + PNG) |
| ? | toggle this help |
| q | quit |
`

// renderHelp renders the help markdown sized to the current terminal.
func renderHelp(width int) string {
	wrap := width - 8
	if wrap > 80 {
		wrap = 80
	}
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return overlayStyle.Render(out)
}
