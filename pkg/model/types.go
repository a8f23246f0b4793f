package model

import (
	"fmt"
	"time"
)

// LayoutMode is the structural composition strategy for a layout.
type LayoutMode string

const (
	ModeSingle LayoutMode = "single"
	ModeSplit  LayoutMode = "split"
	ModeTabbed LayoutMode = "tabbed"
	ModeGrid   LayoutMode = "grid"
	ModeCustom LayoutMode = "custom"
)

// IsValid returns true if the mode is a recognized value
func (m LayoutMode) IsValid() bool {
	switch m {
	case ModeSingle, ModeSplit, ModeTabbed, ModeGrid, ModeCustom:
		return true
	}
	return false
}

// Breakpoint is a discrete viewport size class.
type Breakpoint string

const (
	BreakpointMobile  Breakpoint = "mobile"
	BreakpointTablet  Breakpoint = "tablet"
	BreakpointDesktop Breakpoint = "desktop"
)

// IsValid returns true if the breakpoint is a recognized value
func (b Breakpoint) IsValid() bool {
	switch b {
	case BreakpointMobile, BreakpointTablet, BreakpointDesktop:
		return true
	}
	return false
}

// Width thresholds separating the breakpoint classes.
const (
	MobileMaxWidth = 640
	TabletMaxWidth = 1024
)

// BreakpointForWidth classifies a viewport width into a breakpoint.
func BreakpointForWidth(width int) Breakpoint {
	switch {
	case width < MobileMaxWidth:
		return BreakpointMobile
	case width < TabletMaxWidth:
		return BreakpointTablet
	default:
		return BreakpointDesktop
	}
}

// Orientation of the viewport.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// OrientationFor derives the orientation from viewport dimensions.
// Square viewports count as landscape.
func OrientationFor(width, height int) Orientation {
	if height > width {
		return OrientationPortrait
	}
	return OrientationLandscape
}

// Position locates a view inside the content area. X/Y are free-form
// coordinates; Row/Col are used by grid and tabbed arrangements.
type Position struct {
	X   int `json:"x"`
	Y   int `json:"y"`
	Row int `json:"row,omitempty"`
	Col int `json:"col,omitempty"`
}

// Size is a width/height pair in layout cells.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero returns true when both dimensions are unset.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// RegionConfig describes one structural region of the shell
// (header, sidebar, content, footer).
type RegionConfig struct {
	Size    int  `json:"size"`
	Visible bool `json:"visible"`
	Fixed   bool `json:"fixed"`
}

// Structure is the shell's structural sizing: the four regions that frame
// the composed view area.
type Structure struct {
	Header  RegionConfig `json:"header"`
	Sidebar RegionConfig `json:"sidebar"`
	Content RegionConfig `json:"content"`
	Footer  RegionConfig `json:"footer"`
}

// PartialStructure overrides a subset of regions for one breakpoint.
// Nil fields leave the base region untouched.
type PartialStructure struct {
	Header  *RegionConfig `json:"header,omitempty"`
	Sidebar *RegionConfig `json:"sidebar,omitempty"`
	Content *RegionConfig `json:"content,omitempty"`
	Footer  *RegionConfig `json:"footer,omitempty"`
}

// Apply returns a copy of base with the overrides applied.
func (p PartialStructure) Apply(base Structure) Structure {
	out := base
	if p.Header != nil {
		out.Header = *p.Header
	}
	if p.Sidebar != nil {
		out.Sidebar = *p.Sidebar
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.Footer != nil {
		out.Footer = *p.Footer
	}
	return out
}

// LoadState tracks deferred acquisition of a view's renderer implementation.
type LoadState string

const (
	LoadPending LoadState = "pending"
	LoadReady   LoadState = "ready"
	LoadFailed  LoadState = "failed"
)

// ViewConfiguration describes one hosted pane.
type ViewConfiguration struct {
	ID        string    `json:"id"`
	SourceRef string    `json:"source_ref"`
	Title     string    `json:"title,omitempty"`
	Position  Position  `json:"position"`
	Size      Size      `json:"size"`
	ZIndex    int       `json:"z_index"`
	Visible   bool      `json:"visible"`
	Resizable bool      `json:"resizable,omitempty"`
	Draggable bool      `json:"draggable,omitempty"`
	MinSize   Size      `json:"min_size,omitempty"`
	MaxSize   Size      `json:"max_size,omitempty"`
	Perms     []string  `json:"permissions,omitempty"`
	LoadState LoadState `json:"-"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Metrics is pane-reported telemetry. It is overwritten by remote
	// updates regardless of local dirty state.
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Clone creates a deep copy of the view configuration
func (v ViewConfiguration) Clone() ViewConfiguration {
	clone := v
	if v.Perms != nil {
		clone.Perms = make([]string, len(v.Perms))
		copy(clone.Perms, v.Perms)
	}
	if v.Metrics != nil {
		clone.Metrics = make(map[string]float64, len(v.Metrics))
		for k, val := range v.Metrics {
			clone.Metrics[k] = val
		}
	}
	return clone
}

// Validate checks if the view data is logically valid
func (v *ViewConfiguration) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("view ID cannot be empty")
	}
	if v.SourceRef == "" {
		return fmt.Errorf("view %s: source ref cannot be empty", v.ID)
	}
	if v.Size.Width < 0 || v.Size.Height < 0 {
		return fmt.Errorf("view %s: size cannot be negative", v.ID)
	}
	if v.MaxSize.Width > 0 && v.MinSize.Width > v.MaxSize.Width {
		return fmt.Errorf("view %s: min width %d exceeds max width %d", v.ID, v.MinSize.Width, v.MaxSize.Width)
	}
	if v.MaxSize.Height > 0 && v.MinSize.Height > v.MaxSize.Height {
		return fmt.Errorf("view %s: min height %d exceeds max height %d", v.ID, v.MinSize.Height, v.MaxSize.Height)
	}
	return nil
}

// LayoutConfiguration is the single source of truth for one workspace's
// layout: its mode, structural sizing, and ordered views. Order is
// significant for grid and tabbed rendering.
type LayoutConfiguration struct {
	ID           string                          `json:"id"`
	Name         string                          `json:"name"`
	Mode         LayoutMode                      `json:"mode"`
	Structure    Structure                       `json:"structure"`
	Views        []ViewConfiguration             `json:"views"`
	Overrides    map[Breakpoint]PartialStructure `json:"responsive_overrides,omitempty"`
	ActiveViewID string                          `json:"active_view_id,omitempty"`
	Version      int                             `json:"version"`
	LastModified time.Time                       `json:"last_modified"`
}

// Clone creates a deep copy of the layout configuration
func (l LayoutConfiguration) Clone() LayoutConfiguration {
	clone := l
	if l.Views != nil {
		clone.Views = make([]ViewConfiguration, len(l.Views))
		for i, v := range l.Views {
			clone.Views[i] = v.Clone()
		}
	}
	if l.Overrides != nil {
		clone.Overrides = make(map[Breakpoint]PartialStructure, len(l.Overrides))
		for bp, ps := range l.Overrides {
			clone.Overrides[bp] = ps
		}
	}
	return clone
}

// Validate checks the layout's internal consistency: mode, unique view ids,
// and that the active view (if set) exists.
func (l *LayoutConfiguration) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("layout ID cannot be empty")
	}
	if !l.Mode.IsValid() {
		return fmt.Errorf("invalid layout mode: %s", l.Mode)
	}
	seen := make(map[string]bool, len(l.Views))
	for i := range l.Views {
		if err := l.Views[i].Validate(); err != nil {
			return err
		}
		if seen[l.Views[i].ID] {
			return fmt.Errorf("duplicate view ID: %s", l.Views[i].ID)
		}
		seen[l.Views[i].ID] = true
	}
	if l.ActiveViewID != "" && !seen[l.ActiveViewID] {
		return fmt.Errorf("active view %s does not exist", l.ActiveViewID)
	}
	return nil
}

// ViewIndex returns the index of the view with the given id, or -1.
func (l LayoutConfiguration) ViewIndex(id string) int {
	for i := range l.Views {
		if l.Views[i].ID == id {
			return i
		}
	}
	return -1
}

// View returns a pointer into the layout's view slice for the given id,
// or nil. Value receiver: the pointer addresses the shared backing array,
// so it works on snapshot copies too.
func (l LayoutConfiguration) View(id string) *ViewConfiguration {
	if i := l.ViewIndex(id); i >= 0 {
		return &l.Views[i]
	}
	return nil
}

// StructureFor resolves the structure for a breakpoint, applying any
// registered responsive override.
func (l LayoutConfiguration) StructureFor(bp Breakpoint) Structure {
	if ps, ok := l.Overrides[bp]; ok {
		return ps.Apply(l.Structure)
	}
	return l.Structure
}

// DragSession tracks one in-progress drag. At most one exists at a time.
type DragSession struct {
	SourceViewID  string
	PointerOffset Position
	Candidate     int // candidate insertion index, -1 when outside any target
	StartedAt     time.Time
}

// PerformanceSnapshot is one sampled observation of render/resource cost.
type PerformanceSnapshot struct {
	ResponseTimeMs float64   `json:"response_time_ms"`
	MemoryMB       float64   `json:"memory_mb"`
	FrameRate      float64   `json:"frame_rate"`
	Timestamp      time.Time `json:"timestamp"`
}

// ErrorCategory classifies a recorded layout error.
type ErrorCategory string

const (
	CategoryRender      ErrorCategory = "render"
	CategoryPersistence ErrorCategory = "persistence"
	CategorySync        ErrorCategory = "sync"
	CategoryInternal    ErrorCategory = "internal"
)

// ErrorSeverity ranks a recorded layout error.
type ErrorSeverity string

const (
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// LayoutError is one recorded failure inside the orchestration engine.
type LayoutError struct {
	ID        string        `json:"id"`
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Context   string        `json:"context,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Resolved  bool          `json:"resolved"`
}
