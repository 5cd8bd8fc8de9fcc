package ui

import (
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-term/engine/font"
	"golang.org/x/image/draw"
)

// TextTerminal is a Terminal that rasterizes a fixed set of lines from the font atlas straight into
// an image. It stands in for a real terminal widget on the software backend, where the default
// framebuffer is an image the terminal can draw into.
type TextTerminal struct {
	target   func() draw.Image
	font     *font.Font
	lines    []string
	fg       color.Color
	margin   int
	visible  bool
	embedded bool
}

var (
	_ Terminal     = &TextTerminal{}
	_ FontConsumer = &TextTerminal{}
)

// NewTextTerminal creates a hidden terminal that draws into the image returned by target on each Render.
//
// Parameters:
//   - target: returns the image standing in for the bound framebuffer
//   - lines: the text to show, one entry per row
//
// Returns:
//   - *TextTerminal: the terminal
func NewTextTerminal(target func() draw.Image, lines ...string) *TextTerminal {
	return &TextTerminal{
		target: target,
		lines:  lines,
		fg:     color.RGBA{R: 0x33, G: 0xff, B: 0x66, A: 0xff},
		margin: 8,
	}
}

// SetFont sets the font glyphs are drawn with.
func (t *TextTerminal) SetFont(f *font.Font) {
	t.font = f
}

// SetLines replaces the displayed text.
func (t *TextTerminal) SetLines(lines ...string) {
	t.lines = lines
}

// SetForeground sets the text color.
func (t *TextTerminal) SetForeground(c color.Color) {
	t.fg = c
}

func (t *TextTerminal) ToggleVisibility() {
	t.visible = !t.visible
}

func (t *TextTerminal) SetEmbedded(embedded bool) {
	t.embedded = embedded
}

func (t *TextTerminal) Visible() bool {
	return t.visible
}

// Render fills the terminal area with WindowBackground and draws every line. An embedded terminal
// covers the whole target; a floating one covers only the text block plus margin.
func (t *TextTerminal) Render() {
	if !t.visible || t.font == nil || t.target == nil {
		return
	}
	dst := t.target()
	if dst == nil || dst.Bounds().Empty() {
		return
	}

	area := dst.Bounds()
	if !t.embedded {
		area = t.textBounds().Add(dst.Bounds().Min).Intersect(dst.Bounds())
	}
	draw.Draw(dst, area, image.NewUniform(WindowBackgroundRGBA()), image.Point{}, draw.Src)

	atlas := t.font.Atlas().Image()
	fg := image.NewUniform(t.fg)
	origin := dst.Bounds().Min.Add(image.Pt(t.margin, t.margin))

	for row, line := range t.lines {
		pen := origin.Add(image.Pt(0, t.font.Ascent()+row*t.font.LineHeight()))
		for _, r := range line {
			g := t.font.GlyphOrFallback(r)
			dr := image.Rectangle{Max: g.Bounds.Size()}.Add(pen.Add(g.Offset))
			if clipped := dr.Intersect(area); !clipped.Empty() {
				mp := g.Bounds.Min.Add(clipped.Min.Sub(dr.Min))
				draw.DrawMask(dst, clipped, fg, image.Point{}, atlas, mp, draw.Over)
			}
			pen.X += g.Advance
		}
	}
}

// textBounds returns the area the text block occupies, margin included, relative to the target origin.
func (t *TextTerminal) textBounds() image.Rectangle {
	width := 0
	for _, line := range t.lines {
		w := 0
		for _, r := range line {
			w += t.font.GlyphOrFallback(r).Advance
		}
		width = max(width, w)
	}
	height := len(t.lines) * t.font.LineHeight()
	return image.Rect(0, 0, width+2*t.margin, height+2*t.margin)
}
