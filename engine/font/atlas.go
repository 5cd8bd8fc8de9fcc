package font

import (
	"image"
	"slices"
	"unicode"

	"github.com/Carmen-Shannon/oxy-term/common"
)

// fallbackRune is drawn for missing code points when the font has no U+FFFD glyph.
const fallbackRune = '?'

// Glyph locates one rasterized code point inside the atlas bitmap.
type Glyph struct {
	// Rune is the code point this glyph renders.
	Rune rune
	// Source is the name of the font file (or built-in face) that supplied the glyph.
	Source string
	// Bounds is the glyph's pixel rectangle inside the atlas image. Empty for blank glyphs such as space.
	Bounds image.Rectangle
	// Offset is the vector from the pen position on the baseline to Bounds.Min.
	Offset image.Point
	// Advance is the horizontal pen advance in pixels.
	Advance int
	// U0, V0, U1, V1 are Bounds normalized to the atlas dimensions.
	U0, V0, U1, V1 float32
}

// Font is the handle handed to the UI framework: one atlas layer made of a base font plus
// any fonts merged into it, each contributing glyphs only for the code points it claimed.
type Font struct {
	name       string
	pixelSize  float64
	ascent     int
	lineHeight int
	builtin    bool
	sources    []string
	glyphs     map[rune]Glyph
	atlas      *Atlas
}

// Name returns the name of the layer's base font.
func (f *Font) Name() string {
	return f.name
}

// PixelSize returns the requested pixel height the glyphs were rasterized at.
func (f *Font) PixelSize() float64 {
	return f.pixelSize
}

// Ascent returns the distance in pixels from the top of a line to the baseline.
func (f *Font) Ascent() int {
	return f.ascent
}

// LineHeight returns the recommended distance in pixels between consecutive baselines.
func (f *Font) LineHeight() int {
	return f.lineHeight
}

// IsDefault reports whether this font is the built-in fallback face.
func (f *Font) IsDefault() bool {
	return f.builtin
}

// Sources returns the names of the fonts that make up this layer, base font first.
func (f *Font) Sources() []string {
	return slices.Clone(f.sources)
}

// Atlas returns the atlas holding this font's glyph bitmaps.
func (f *Font) Atlas() *Atlas {
	return f.atlas
}

// HasGlyph reports whether the code point was rasterized into the atlas.
//
// Parameters:
//   - r: the code point to look up
//
// Returns:
//   - bool: true if a glyph exists for r
func (f *Font) HasGlyph(r rune) bool {
	_, ok := f.glyphs[r]
	return ok
}

// Glyph returns the glyph for a code point.
//
// Parameters:
//   - r: the code point to look up
//
// Returns:
//   - Glyph: the glyph, or the zero Glyph if absent
//   - bool: true if the glyph exists
func (f *Font) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// GlyphOrFallback returns the glyph for a code point. A code point that was not loaded is drawn
// with the replacement glyph (U+FFFD), or with '?' when the font has no replacement glyph, so
// missing characters keep their cell instead of collapsing the line.
//
// Parameters:
//   - r: the code point to look up
//
// Returns:
//   - Glyph: the glyph to draw, the zero Glyph only if the font has neither placeholder
func (f *Font) GlyphOrFallback(r rune) Glyph {
	for _, c := range [...]rune{r, unicode.ReplacementChar, fallbackRune} {
		if g, ok := f.glyphs[c]; ok {
			return g
		}
	}
	return Glyph{}
}

// Coverage returns every code point in the font, ascending.
//
// Returns:
//   - []rune: the sorted code points
func (f *Font) Coverage() []rune {
	runes := make([]rune, 0, len(f.glyphs))
	for r := range f.glyphs {
		runes = append(runes, r)
	}
	slices.Sort(runes)
	return runes
}

// GlyphCount returns the number of glyphs in the font.
func (f *Font) GlyphCount() int {
	return len(f.glyphs)
}

// Atlas is the single glyph bitmap shared by every font built in one pass.
// It is immutable once built; a font change requires building a new atlas.
type Atlas struct {
	image     *image.Alpha
	fonts     []*Font
	textureID uint32
}

// Image returns the atlas coverage bitmap.
func (a *Atlas) Image() *image.Alpha {
	return a.image
}

// Fonts returns the atlas layers in the order they were added.
func (a *Atlas) Fonts() []*Font {
	return slices.Clone(a.fonts)
}

// StagingData returns the atlas pixels in the form the renderer backend uploads.
//
// Returns:
//   - common.TextureStagingData: single-channel pixel data and dimensions
func (a *Atlas) StagingData() common.TextureStagingData {
	b := a.image.Bounds()
	return common.TextureStagingData{
		Pixels: a.image.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Format: common.TextureFormatAlpha,
	}
}

// TextureID returns the GPU texture the atlas was uploaded to, or 0 if not uploaded.
func (a *Atlas) TextureID() uint32 {
	return a.textureID
}

// SetTextureID records the GPU texture the atlas was uploaded to.
//
// Parameters:
//   - id: the backend texture handle
func (a *Atlas) SetTextureID(id uint32) {
	a.textureID = id
}
