package perf

import "fmt"

// Recommendation ids.
const (
	RecSimplifyAnimations   = "simplify-animations"
	RecEnableVirtualization = "enable-virtualization"
	RecReduceViews          = "reduce-views"
)

// Recommendation is one suggested layout adjustment. Safe recommendations
// are non-destructive and may be auto-applied; the rest require human
// confirmation before they mutate the layout.
type Recommendation struct {
	ID     string
	Title  string
	Detail string
	Safe   bool
}

// Recommend derives the recommendation set for a threshold breach. The
// heuristics escalate: mild breaches only touch rendering cost, sustained
// or worsening breaches suggest shedding views.
func Recommend(meanMs, thresholdMs, trend float64) []Recommendation {
	recs := []Recommendation{
		{
			ID:     RecSimplifyAnimations,
			Title:  "Simplify animations",
			Detail: fmt.Sprintf("mean response %.0fms over %.0fms threshold; disable pane transitions", meanMs, thresholdMs),
			Safe:   true,
		},
		{
			ID:     RecEnableVirtualization,
			Title:  "Virtualize off-screen panes",
			Detail: "skip rendering panes outside the visible arrangement",
			Safe:   true,
		},
	}
	// Shedding rendered views changes what the user sees, so it always
	// waits for confirmation.
	if meanMs > thresholdMs*1.5 || trend > 0 {
		recs = append(recs, Recommendation{
			ID:     RecReduceViews,
			Title:  "Reduce concurrent views",
			Detail: fmt.Sprintf("mean response %.0fms; hide least-recently-focused panes", meanMs),
			Safe:   false,
		})
	}
	return recs
}
