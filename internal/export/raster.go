package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/luvatrix/planops/internal/render"
)

// Raster geometry. basicfont.Face7x13 gives fixed metrics, so the pixel
// layout is a pure function of the tree and the image encodes identically
// across runs.
const (
	cellWidth  = 8
	rowHeight  = 22
	barHeight  = 14
	headerH    = 40
	marginX    = 12
	marginY    = 8
	glyphWidth = 7
)

var (
	rasterBackground = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	rasterEdge       = color.RGBA{R: 0x1F, G: 0x29, B: 0x37, A: 0xFF}
	rasterText       = color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xFF}
	rasterGrid       = color.RGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xFF}
)

// RasterGantt encodes the Gantt tree as a PNG. It draws the same
// column/row geometry as the text adapters with the palette keyed off the
// same status enum, so visual and textual outputs stay consistent.
func RasterGantt(tree *render.GanttTree) ([]byte, error) {
	labelPx := tree.LabelWidth * glyphWidth
	chartPx := tree.Columns * cellWidth
	annotPx := 30 * glyphWidth
	width := marginX*2 + labelPx + chartPx + annotPx
	height := headerH + len(tree.Rows)*rowHeight + marginY*2

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(rasterBackground), image.Point{}, draw.Src)

	title := tree.Title
	if title == "" {
		title = "Milestone Gantt"
	}
	drawText(img, marginX, marginY+13, title)
	drawText(img, marginX, marginY+28, fmt.Sprintf("Baseline start: %s  |  Window: %d weeks",
		tree.BaselineStart.Format("2006-01-02"), tree.Weeks))

	chartX := marginX + labelPx
	drawWeekGrid(img, tree, chartX, headerH, len(tree.Rows)*rowHeight)

	for i, row := range tree.Rows {
		y := headerH + i*rowHeight
		drawText(img, marginX, y+14, trimPad(row.Label))
		drawBar(img, tree, row, chartX, y)
		annotX := chartX + chartPx + glyphWidth
		drawText(img, annotX, y+14, row.Annotation)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawWeekGrid draws a vertical rule at each week boundary.
func drawWeekGrid(img *image.RGBA, tree *render.GanttTree, chartX, top, chartH int) {
	for w := 1; w <= tree.Weeks; w++ {
		x := chartX + tree.Mapper.ColumnStart(w)*cellWidth
		for y := top; y < top+chartH; y++ {
			img.SetRGBA(x, y, rasterGrid)
		}
	}
}

// drawBar fills the row's occupied column range with its status color and
// outlines it with the shared edge color.
func drawBar(img *image.RGBA, tree *render.GanttTree, row render.GanttRow, chartX, y int) {
	style := render.StyleFor(row.Status)
	x0 := chartX + row.StartCol*cellWidth
	x1 := chartX + (row.EndCol+1)*cellWidth
	y0 := y + (rowHeight-barHeight)/2
	y1 := y0 + barHeight

	fill := image.Rect(x0, y0, x1, y1)
	draw.Draw(img, fill, image.NewUniform(style.Color), image.Point{}, draw.Src)

	for x := x0; x < x1; x++ {
		img.SetRGBA(x, y0, rasterEdge)
		img.SetRGBA(x, y1-1, rasterEdge)
	}
	for yy := y0; yy < y1; yy++ {
		img.SetRGBA(x0, yy, rasterEdge)
		img.SetRGBA(x1-1, yy, rasterEdge)
	}
}

// drawText renders s with the fixed 7x13 face; the baseline sits at y.
func drawText(img *image.RGBA, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(rasterText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// trimPad drops the trailing pad spaces the text adapters need.
func trimPad(label string) string {
	end := len(label)
	for end > 0 && label[end-1] == ' ' {
		end--
	}
	return label[:end]
}
