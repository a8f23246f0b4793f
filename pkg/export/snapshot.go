// Package export renders schematic snapshots of a composed arrangement,
// for sharing a layout or debugging composition without a live terminal.
package export

import (
	"fmt"
	"image"
	"io"
	"os"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/draw"

	"github.com/paneshell/paneshell/pkg/compose"
)

// Cell pixel geometry for snapshot rendering.
const (
	cellWidth  = 220
	cellHeight = 140
	cellGap    = 12
	margin     = 24
)

// Palette for the schematic (matches the shell's dark theme).
var (
	colorBg     = "#282A36"
	colorPane   = "#44475A"
	colorActive = "#BD93F9"
	colorEmpty  = "#363949"
	colorText   = "#F8F8F2"
)

// WriteSVG renders the arrangement as an SVG schematic.
func WriteSVG(w io.Writer, a compose.Arrangement, titles map[string]string) error {
	width, height := canvasSize(a)
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+colorBg)

	for _, cell := range a.Cells {
		x, y, cw, ch := cellRect(a, cell)
		switch cell.Kind {
		case compose.CellDivider:
			canvas.Rect(x+cw/2-2, y, 4, ch, "fill:"+colorEmpty)
		case compose.CellPlaceholder:
			canvas.Rect(x, y, cw, ch, fmt.Sprintf("fill:%s;stroke:%s;stroke-dasharray:6", colorEmpty, colorPane))
			canvas.Text(x+cw/2, y+ch/2, "empty",
				fmt.Sprintf("fill:%s;text-anchor:middle;font-family:monospace;font-size:14px", colorText))
		default:
			fill := colorPane
			if cell.Active {
				fill = colorActive
			}
			canvas.Rect(x, y, cw, ch, "fill:"+fill+";rx:6")
			label := cell.ViewID
			if t, ok := titles[cell.ViewID]; ok && t != "" {
				label = t
			}
			canvas.Text(x+cw/2, y+ch/2, truncateLabel(label, 24),
				fmt.Sprintf("fill:%s;text-anchor:middle;font-family:monospace;font-size:13px", colorText))
		}
	}
	canvas.End()
	return nil
}

// WriteSVGFile renders the arrangement as an SVG schematic at path.
func WriteSVGFile(path string, a compose.Arrangement, titles map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	return WriteSVG(f, a, titles)
}

// WritePNG renders the arrangement to a PNG file. maxWidth bounds the
// output (0 means native size); larger renders are scaled down.
func WritePNG(path string, a compose.Arrangement, titles map[string]string, maxWidth int) error {
	width, height := canvasSize(a)
	dc := gg.NewContext(width, height)

	dc.SetHexColor(colorBg)
	dc.Clear()

	for _, cell := range a.Cells {
		x, y, cw, ch := cellRect(a, cell)
		fx, fy, fw, fh := float64(x), float64(y), float64(cw), float64(ch)
		switch cell.Kind {
		case compose.CellDivider:
			dc.SetHexColor(colorEmpty)
			dc.DrawRectangle(fx+fw/2-2, fy, 4, fh)
			dc.Fill()
		case compose.CellPlaceholder:
			dc.SetHexColor(colorEmpty)
			dc.DrawRoundedRectangle(fx, fy, fw, fh, 6)
			dc.Fill()
		default:
			if cell.Active {
				dc.SetHexColor(colorActive)
			} else {
				dc.SetHexColor(colorPane)
			}
			dc.DrawRoundedRectangle(fx, fy, fw, fh, 6)
			dc.Fill()
			label := cell.ViewID
			if t, ok := titles[cell.ViewID]; ok && t != "" {
				label = t
			}
			dc.SetHexColor(colorText)
			dc.DrawStringAnchored(truncateLabel(label, 24), fx+fw/2, fy+fh/2, 0.5, 0.5)
		}
	}

	img := dc.Image()
	if maxWidth > 0 && width > maxWidth {
		img = scaleDown(img, maxWidth)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	if err := gg.NewContextForImage(img).EncodePNG(f); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func canvasSize(a compose.Arrangement) (int, int) {
	cols := a.Cols
	rows := a.Rows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	width := margin*2 + cols*cellWidth + (cols-1)*cellGap
	height := margin*2 + rows*cellHeight + (rows-1)*cellGap
	return width, height
}

func cellRect(a compose.Arrangement, cell compose.Cell) (x, y, w, h int) {
	col := cell.Col
	row := cell.Row
	x = margin + col*(cellWidth+cellGap)
	y = margin + row*(cellHeight+cellGap)
	w = cellWidth
	h = cellHeight
	if cell.Kind == compose.CellDivider {
		w = cellGap * 2
	}
	return x, y, w, h
}

// scaleDown resizes the snapshot preserving aspect ratio.
func scaleDown(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, int(float64(bounds.Dy())*ratio)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
