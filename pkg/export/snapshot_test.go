package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paneshell/paneshell/pkg/compose"
	"github.com/paneshell/paneshell/pkg/model"
)

func sampleArrangement() compose.Arrangement {
	return compose.Arrangement{
		Mode: model.ModeGrid,
		Rows: 2,
		Cols: 2,
		Cells: []compose.Cell{
			{Kind: compose.CellPane, ViewID: "v1", Row: 0, Col: 0, Active: true},
			{Kind: compose.CellPane, ViewID: "v2", Row: 0, Col: 1},
			{Kind: compose.CellPane, ViewID: "v3", Row: 1, Col: 0},
		},
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	titles := map[string]string{"v1": "Metrics", "v2": "Logs"}
	if err := WriteSVG(&buf, sampleArrangement(), titles); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("output is not an SVG document")
	}
	if !strings.Contains(out, "Metrics") || !strings.Contains(out, "Logs") {
		t.Error("titles missing from snapshot")
	}
	// Untitled views fall back to their id.
	if !strings.Contains(out, "v3") {
		t.Error("untitled view label missing")
	}
}

func TestWriteSVGPlaceholderAndDivider(t *testing.T) {
	a := compose.Arrangement{
		Mode: model.ModeSplit,
		Rows: 1,
		Cols: 3,
		Cells: []compose.Cell{
			{Kind: compose.CellPane, ViewID: "v1", Col: 0},
			{Kind: compose.CellDivider, Col: 1},
			{Kind: compose.CellPlaceholder, Col: 2},
		},
	}
	var buf bytes.Buffer
	if err := WriteSVG(&buf, a, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "empty") {
		t.Error("placeholder label missing")
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.png")
	if err := WritePNG(path, sampleArrangement(), nil, 0); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("output is not a PNG file")
	}
}

func TestWritePNGScalesDown(t *testing.T) {
	// A wide arrangement with a small maxWidth exercises the downscale path.
	a := compose.Arrangement{Mode: model.ModeGrid, Rows: 1, Cols: 6}
	for i := 0; i < 6; i++ {
		a.Cells = append(a.Cells, compose.Cell{Kind: compose.CellPane, ViewID: "v", Col: i})
	}
	path := filepath.Join(t.TempDir(), "snap.png")
	if err := WritePNG(path, a, nil, 400); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := truncateLabel("short", 10); got != "short" {
		t.Errorf("short label altered: %q", got)
	}
	got := truncateLabel("an extremely long pane title", 10)
	if len(got) > 12 { // 9 bytes + multibyte ellipsis
		t.Errorf("label not truncated: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncation marker missing: %q", got)
	}
}
