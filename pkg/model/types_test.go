package model

import (
	"testing"
	"time"
)

func TestBreakpointForWidth(t *testing.T) {
	tests := []struct {
		width int
		want  Breakpoint
	}{
		{0, BreakpointMobile},
		{639, BreakpointMobile},
		{640, BreakpointTablet},
		{1023, BreakpointTablet},
		{1024, BreakpointDesktop},
		{2560, BreakpointDesktop},
	}
	for _, tt := range tests {
		if got := BreakpointForWidth(tt.width); got != tt.want {
			t.Errorf("BreakpointForWidth(%d) = %s, want %s", tt.width, got, tt.want)
		}
	}
}

func TestOrientationFor(t *testing.T) {
	if got := OrientationFor(100, 200); got != OrientationPortrait {
		t.Errorf("tall viewport = %s, want portrait", got)
	}
	if got := OrientationFor(200, 100); got != OrientationLandscape {
		t.Errorf("wide viewport = %s, want landscape", got)
	}
	if got := OrientationFor(100, 100); got != OrientationLandscape {
		t.Errorf("square viewport = %s, want landscape", got)
	}
}

func TestPartialStructureApply(t *testing.T) {
	base := Structure{
		Header:  RegionConfig{Size: 1, Visible: true},
		Sidebar: RegionConfig{Size: 24, Visible: true},
		Content: RegionConfig{Visible: true},
		Footer:  RegionConfig{Size: 1, Visible: true},
	}
	hidden := RegionConfig{Size: 0, Visible: false}
	out := PartialStructure{Sidebar: &hidden}.Apply(base)

	if out.Sidebar.Visible {
		t.Error("sidebar override not applied")
	}
	if !out.Header.Visible || !out.Footer.Visible {
		t.Error("unoverridden regions changed")
	}
	if base.Sidebar.Visible != true {
		t.Error("Apply mutated the base structure")
	}
}

func TestViewConfigurationValidate(t *testing.T) {
	tests := []struct {
		name    string
		view    ViewConfiguration
		wantErr bool
	}{
		{"valid", ViewConfiguration{ID: "v1", SourceRef: "demo:x"}, false},
		{"missing id", ViewConfiguration{SourceRef: "demo:x"}, true},
		{"missing source", ViewConfiguration{ID: "v1"}, true},
		{"negative size", ViewConfiguration{ID: "v1", SourceRef: "demo:x", Size: Size{Width: -1}}, true},
		{"min over max", ViewConfiguration{
			ID: "v1", SourceRef: "demo:x",
			MinSize: Size{Width: 50}, MaxSize: Size{Width: 20},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.view.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLayoutConfigurationValidate(t *testing.T) {
	valid := LayoutConfiguration{
		ID:   "l1",
		Mode: ModeGrid,
		Views: []ViewConfiguration{
			{ID: "v1", SourceRef: "demo:a"},
			{ID: "v2", SourceRef: "demo:b"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid layout rejected: %v", err)
	}

	dup := valid.Clone()
	dup.Views = append(dup.Views, ViewConfiguration{ID: "v1", SourceRef: "demo:c"})
	if err := dup.Validate(); err == nil {
		t.Error("duplicate view id accepted")
	}

	badActive := valid.Clone()
	badActive.ActiveViewID = "missing"
	if err := badActive.Validate(); err == nil {
		t.Error("dangling active view accepted")
	}

	badMode := valid.Clone()
	badMode.Mode = "diagonal"
	if err := badMode.Validate(); err == nil {
		t.Error("invalid mode accepted")
	}
}

func TestCloneIndependence(t *testing.T) {
	l := LayoutConfiguration{
		ID:   "l1",
		Mode: ModeGrid,
		Views: []ViewConfiguration{{
			ID: "v1", SourceRef: "demo:a",
			Perms:   []string{"read"},
			Metrics: map[string]float64{"cpu": 1},
		}},
		Overrides:    map[Breakpoint]PartialStructure{BreakpointMobile: {}},
		LastModified: time.Now(),
	}
	c := l.Clone()
	c.Views[0].Title = "changed"
	c.Views[0].Perms[0] = "write"
	c.Views[0].Metrics["cpu"] = 99
	delete(c.Overrides, BreakpointMobile)

	if l.Views[0].Title == "changed" {
		t.Error("clone shares view slice")
	}
	if l.Views[0].Perms[0] != "read" {
		t.Error("clone shares perms slice")
	}
	if l.Views[0].Metrics["cpu"] != 1 {
		t.Error("clone shares metrics map")
	}
	if _, ok := l.Overrides[BreakpointMobile]; !ok {
		t.Error("clone shares overrides map")
	}
}

func TestStructureFor(t *testing.T) {
	hidden := RegionConfig{Visible: false}
	l := LayoutConfiguration{
		ID:   "l1",
		Mode: ModeGrid,
		Structure: Structure{
			Sidebar: RegionConfig{Size: 24, Visible: true},
		},
		Overrides: map[Breakpoint]PartialStructure{
			BreakpointMobile: {Sidebar: &hidden},
		},
	}
	if l.StructureFor(BreakpointMobile).Sidebar.Visible {
		t.Error("mobile override ignored")
	}
	if !l.StructureFor(BreakpointDesktop).Sidebar.Visible {
		t.Error("desktop structure altered by mobile override")
	}
}
