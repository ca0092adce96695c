package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/randytsao24/pmsstatus/internal/models"
)

const cellPadding = 8

var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorTitle      = color.RGBA{0x2c, 0x3e, 0x50, 0xff}
	colorHeader     = color.RGBA{0xdf, 0xe6, 0xee, 0xff}
	colorStripe     = color.RGBA{0xf5, 0xf7, 0xfa, 0xff}
	colorGrid       = color.RGBA{0xc8, 0xd0, 0xd8, 0xff}
	colorText       = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorTitleText  = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// column widths as fractions of the image width
var columns = []struct {
	title string
	frac  float64
	value func(models.Station) string
}{
	{"Name", 0.30, func(s models.Station) string { return s.Name }},
	{"Property", 0.25, func(s models.Station) string { return s.Property }},
	{"Status", 0.20, func(s models.Station) string { return s.Status }},
	{"Info", 0.25, func(s models.Station) string { return s.StatInfo }},
}

// TableRenderer draws stations as a striped PNG table
type TableRenderer struct {
	mu   sync.Mutex // font.Face implementations are not safe for concurrent use
	face font.Face
}

// NewTableRenderer creates a renderer using face, or the built-in 7x13
// bitmap font when face is nil
func NewTableRenderer(face font.Face) *TableRenderer {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &TableRenderer{face: face}
}

// LoadFontFace reads a TrueType or OpenType font file. The bitmap default
// only covers ASCII, so deployments with CJK station names should set one.
func LoadFontFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	return face, nil
}

// Render draws req and encodes it as PNG. The image is exactly
// req.Width x req.Height.
func (r *TableRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", req.Width, req.Height)
	}
	rowHeight := req.RowHeight
	if rowHeight <= 0 {
		rowHeight = req.Height / (len(req.Stations) + extraRows)
	}

	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	r.mu.Lock()
	defer r.mu.Unlock()

	// title row
	fillRow(img, 0, rowHeight, colorTitle)
	r.drawText(img, cellPadding, 0, rowHeight, req.Width-2*cellPadding, "Print stations - updated "+req.TimestampLabel, colorTitleText)

	// header row
	fillRow(img, rowHeight, rowHeight, colorHeader)
	x := 0
	for i, col := range columns {
		w := columnWidth(req.Width, i, x)
		r.drawText(img, x+cellPadding, rowHeight, rowHeight, w-2*cellPadding, col.title, colorText)
		x += w
	}

	for i, st := range req.Stations {
		if i%64 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		top := (i + extraRows) * rowHeight
		if i%2 == 1 {
			fillRow(img, top, rowHeight, colorStripe)
		}
		x := 0
		for c, col := range columns {
			w := columnWidth(req.Width, c, x)
			r.drawText(img, x+cellPadding, top, rowHeight, w-2*cellPadding, col.value(st), colorText)
			x += w
		}
		hLine(img, top, colorGrid)
	}

	// column separators below the title
	x = 0
	for i := range columns[:len(columns)-1] {
		x += columnWidth(req.Width, i, x)
		vLine(img, x, rowHeight, req.Height, colorGrid)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawText writes s vertically centered in the row starting at top,
// clipped to maxWidth pixels
func (r *TableRenderer) drawText(img draw.Image, x, top, rowHeight, maxWidth int, s string, c color.Color) {
	s = fit(r.face, s, maxWidth)
	if s == "" {
		return
	}
	m := r.face.Metrics()
	baseline := top + (rowHeight+m.Ascent.Ceil()-m.Descent.Ceil())/2

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// fit drops trailing runes until s is at most maxWidth pixels wide
func fit(face font.Face, s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	limit := fixed.I(maxWidth)
	if font.MeasureString(face, s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if font.MeasureString(face, string(runes)+"..") <= limit {
			return string(runes) + ".."
		}
	}
	return ""
}

// columnWidth gives the last column whatever is left so rounding never
// leaves a gap at the right edge
func columnWidth(total, i, x int) int {
	if i == len(columns)-1 {
		return total - x
	}
	return int(float64(total) * columns[i].frac)
}

func fillRow(img *image.RGBA, top, height int, c color.Color) {
	rect := image.Rect(0, top, img.Bounds().Dx(), top+height)
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func hLine(img *image.RGBA, y int, c color.Color) {
	for x := 0; x < img.Bounds().Dx(); x++ {
		img.Set(x, y, c)
	}
}

func vLine(img *image.RGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y < y1; y++ {
		img.Set(x, y, c)
	}
}
