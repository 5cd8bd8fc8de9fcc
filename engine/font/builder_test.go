package font

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"unicode"

	"github.com/Carmen-Shannon/oxy-term/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	latinRanges = NewRanges(0x20, 0x7E)
	greekRanges = NewRanges(0x0370, 0x03FF)
)

// writeFont writes a font file into dir and returns its path.
func writeFont(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// captureLogs routes the package logger into a buffer for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { common.SetLogger(nil) })
	return &buf
}

func TestAddFontErrors(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder()

	err := b.AddFont(FontConfig{Path: writeFont(t, dir, "gomono.ttf", gomono.TTF), PixelSize: 16, Ranges: greekRanges, MergeMode: true})
	assert.ErrorIs(t, err, ErrNoBaseFont)

	err = b.AddFont(FontConfig{Path: filepath.Join(dir, "missing.ttf"), PixelSize: 16})
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	err = b.AddFont(FontConfig{Path: writeFont(t, dir, "garbage.ttf", []byte("not a font")), PixelSize: 16})
	assert.Error(t, err)

	err = b.AddFont(FontConfig{Path: filepath.Join(dir, "gomono.ttf"), PixelSize: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, 0, b.Staged())

	_, err = b.Build()
	assert.ErrorIs(t, err, ErrNoBaseFont)
}

func TestBuildMergesAuxiliaryRanges(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(WithWorkers(4), WithChunkSize(16))

	require.NoError(t, b.AddFont(FontConfig{Path: writeFont(t, dir, "goregular.ttf", goregular.TTF), PixelSize: 16, Ranges: latinRanges}))
	require.NoError(t, b.AddFont(FontConfig{Path: writeFont(t, dir, "gomono.ttf", gomono.TTF), PixelSize: 16, Ranges: greekRanges, MergeMode: true}))
	assert.Equal(t, 2, b.Staged())

	atlas, err := b.Build()
	require.NoError(t, err)
	require.Len(t, atlas.Fonts(), 1, "merged fonts share one layer")

	f := atlas.Fonts()[0]
	assert.Equal(t, "goregular", f.Name())
	assert.Equal(t, []string{"goregular", "gomono"}, f.Sources())
	assert.False(t, f.IsDefault())
	assert.Greater(t, f.LineHeight(), 0)
	assert.Greater(t, f.Ascent(), 0)

	a, ok := f.Glyph('A')
	require.True(t, ok)
	assert.Equal(t, "goregular", a.Source)

	alpha, ok := f.Glyph('α')
	require.True(t, ok)
	assert.Equal(t, "gomono", alpha.Source)

	assert.False(t, f.HasGlyph(0x2500), "box drawing was not requested")
}

func TestBuildFirstSourceKeepsOverlap(t *testing.T) {
	dir := t.TempDir()
	logs := captureLogs(t)
	b := NewBuilder()

	require.NoError(t, b.AddFont(FontConfig{Path: writeFont(t, dir, "goregular.ttf", goregular.TTF), PixelSize: 16, Ranges: latinRanges}))
	require.NoError(t, b.AddFont(FontConfig{Path: writeFont(t, dir, "gomono.ttf", gomono.TTF), PixelSize: 16, Ranges: NewRanges('A', 'Z'), MergeMode: true}))

	atlas, err := b.Build()
	require.NoError(t, err)

	f := atlas.Fonts()[0]
	for r := 'A'; r <= 'Z'; r++ {
		g, ok := f.Glyph(r)
		require.True(t, ok)
		assert.Equal(t, "goregular", g.Source)
	}
	assert.Contains(t, logs.String(), "already claimed")
}

func TestBuildSeparateLayers(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder()

	require.NoError(t, b.AddFont(FontConfig{Path: writeFont(t, dir, "goregular.ttf", goregular.TTF), PixelSize: 16, Ranges: latinRanges}))
	require.NoError(t, b.AddFont(FontConfig{Path: writeFont(t, dir, "gomono.ttf", gomono.TTF), PixelSize: 24, Ranges: latinRanges}))

	atlas, err := b.Build()
	require.NoError(t, err)
	require.Len(t, atlas.Fonts(), 2)

	regular, mono := atlas.Fonts()[0], atlas.Fonts()[1]
	assert.Equal(t, regular.Coverage(), mono.Coverage(), "each layer claims its own code points")
	assert.Greater(t, mono.LineHeight(), regular.LineHeight())

	ga, _ := regular.Glyph('A')
	gb, _ := mono.Glyph('A')
	assert.False(t, ga.Bounds.Overlaps(gb.Bounds))
}

func TestAtlasGeometry(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(WithAtlasWidth(256), WithPadding(2))

	require.NoError(t, b.AddFont(FontConfig{Path: writeFont(t, dir, "goregular.ttf", goregular.TTF), PixelSize: 20, Ranges: latinRanges}))
	atlas, err := b.Build()
	require.NoError(t, err)

	img := atlas.Image()
	size := img.Bounds().Size()
	assert.Equal(t, 256, size.X)
	assert.Equal(t, 0, size.Y&(size.Y-1), "height is a power of two")

	staging := atlas.StagingData()
	assert.True(t, staging.Valid())
	assert.Equal(t, common.TextureFormatAlpha, staging.Format)

	f := atlas.Fonts()[0]
	var placed []Glyph
	for _, r := range f.Coverage() {
		g, _ := f.Glyph(r)
		if g.Bounds.Empty() {
			continue
		}
		assert.True(t, g.Bounds.In(img.Bounds()))
		assert.InDelta(t, float32(g.Bounds.Min.X)/float32(size.X), g.U0, 1e-6)
		assert.InDelta(t, float32(g.Bounds.Max.Y)/float32(size.Y), g.V1, 1e-6)
		for _, p := range placed {
			assert.Falsef(t, g.Bounds.Overlaps(p.Bounds), "%U overlaps %U", g.Rune, p.Rune)
		}
		placed = append(placed, g)
	}
	require.NotEmpty(t, placed)

	space, ok := f.Glyph(' ')
	require.True(t, ok)
	assert.Greater(t, space.Advance, 0)

	a, _ := f.Glyph('A')
	ink := 0
	for y := a.Bounds.Min.Y; y < a.Bounds.Max.Y; y++ {
		for x := a.Bounds.Min.X; x < a.Bounds.Max.X; x++ {
			if img.AlphaAt(x, y).A > 0 {
				ink++
			}
		}
	}
	assert.Greater(t, ink, 0, "glyph pixels are copied into the atlas")
}

func TestBuildAtlasIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	path := writeFont(t, dir, "goregular.ttf", goregular.TTF)
	b := NewBuilder()

	first := b.BuildAtlas(path, 18)
	second := b.BuildAtlas(path, 18)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.False(t, first.IsDefault())
	assert.Equal(t, first.Coverage(), second.Coverage())
	assert.Equal(t, 1, b.Staged(), "rebuilding clears earlier sources")
	assert.True(t, first.HasGlyph(0x2500), "primary ranges include box drawing")
}

func TestBuildAtlasMissingPrimary(t *testing.T) {
	logs := captureLogs(t)
	b := NewBuilder()

	f := b.BuildAtlas(filepath.Join(t.TempDir(), "SourceCodePro-Regular.ttf"), 18)

	require.NotNil(t, f)
	assert.True(t, f.IsDefault())
	assert.Equal(t, builtinName, f.Name())
	assert.True(t, f.HasGlyph('A'))
	assert.Contains(t, logs.String(), "primary font not found")
}

func TestBuildAtlasMissingAuxiliary(t *testing.T) {
	dir := t.TempDir()
	logs := captureLogs(t)
	path := writeFont(t, dir, "goregular.ttf", goregular.TTF)
	b := NewBuilder()

	f := b.BuildAtlas(path, 18, DefaultAuxiliaryFonts(dir)...)

	require.NotNil(t, f)
	assert.False(t, f.IsDefault())
	assert.True(t, f.HasGlyph('A'))
	assert.False(t, f.HasGlyph(0x2801))
	assert.Equal(t, []string{"goregular"}, f.Sources())

	placeholder := f.GlyphOrFallback(0x2801)
	assert.Positive(t, placeholder.Advance, "a skipped range still advances the pen")
	assert.False(t, placeholder.Bounds.Empty(), "a skipped range draws a placeholder")
	assert.Contains(t, []rune{unicode.ReplacementChar, '?'}, placeholder.Rune)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "auxiliary font unavailable")
}

func TestBuildAtlasAuxiliaryBackfill(t *testing.T) {
	dir := t.TempDir()
	path := writeFont(t, dir, "goregular.ttf", goregular.TTF)
	aux := AuxiliaryFont{Path: writeFont(t, dir, "gomono.ttf", gomono.TTF), Ranges: greekRanges}
	b := NewBuilder()

	f := b.BuildAtlas(path, 18, aux)

	g, ok := f.Glyph('Ω')
	require.True(t, ok)
	assert.Equal(t, "gomono", g.Source)
}

func TestBuildAtlasWarnsOnAuxiliaryOverlap(t *testing.T) {
	dir := t.TempDir()
	logs := captureLogs(t)
	path := writeFont(t, dir, "goregular.ttf", goregular.TTF)
	aux := AuxiliaryFont{Path: writeFont(t, dir, "gomono.ttf", gomono.TTF), Ranges: NewRanges('A', 'Z')}
	b := NewBuilder()

	f := b.BuildAtlas(path, 18, aux)

	g, ok := f.Glyph('A')
	require.True(t, ok)
	assert.Equal(t, "goregular", g.Source, "the primary keeps code points an auxiliary also requests")
	assert.Contains(t, logs.String(), "auxiliary range overlaps earlier fonts")
	assert.Contains(t, logs.String(), "codePoints=26")
	assert.Contains(t, logs.String(), "first=U+0041")
}

func TestBuildAtlasDisjointAuxiliaryDoesNotWarn(t *testing.T) {
	dir := t.TempDir()
	logs := captureLogs(t)
	path := writeFont(t, dir, "goregular.ttf", goregular.TTF)
	aux := AuxiliaryFont{Path: writeFont(t, dir, "gomono.ttf", gomono.TTF), Ranges: greekRanges}
	b := NewBuilder()

	b.BuildAtlas(path, 18, aux)

	assert.NotContains(t, logs.String(), "auxiliary range overlaps")
}

func TestDefaultFont(t *testing.T) {
	f := Default()

	assert.True(t, f.IsDefault())
	assert.Equal(t, 13, f.LineHeight())
	assert.True(t, f.HasGlyph('~'))
	assert.True(t, f.HasGlyph(unicode.ReplacementChar))
	assert.False(t, f.HasGlyph('é'))

	fallback := f.GlyphOrFallback('é')
	assert.Equal(t, unicode.ReplacementChar, fallback.Rune)
}

func TestGlyphOrFallbackPlaceholders(t *testing.T) {
	withReplacement := &Font{glyphs: map[rune]Glyph{
		'?':                     {Rune: '?', Advance: 7},
		unicode.ReplacementChar: {Rune: unicode.ReplacementChar, Advance: 9},
	}}
	assert.Equal(t, unicode.ReplacementChar, withReplacement.GlyphOrFallback(0x2801).Rune)

	questionOnly := &Font{glyphs: map[rune]Glyph{'?': {Rune: '?', Advance: 7}}}
	assert.Equal(t, '?', questionOnly.GlyphOrFallback(0x2801).Rune)
	assert.Equal(t, 7, questionOnly.GlyphOrFallback(0x2801).Advance)

	empty := &Font{glyphs: map[rune]Glyph{}}
	assert.Equal(t, Glyph{}, empty.GlyphOrFallback('x'))
}

func TestFontPath(t *testing.T) {
	assert.Equal(t, filepath.Join("fonts", "SourceCodePro-Regular.ttf"), FontPath("fonts", DefaultFontName))
	assert.Equal(t, filepath.Join("fonts", "x.otf"), FontPath("fonts", "x.otf"))
}
