package font

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-term/common"
)

// DefaultFontName is the primary font file name, without extension, looked up in the font directory.
const DefaultFontName = "SourceCodePro-Regular"

// DefaultPixelSize is the primary font rasterization height in pixels.
const DefaultPixelSize = 18.0

// FontPath joins a font directory and a font name into the path of its .ttf file.
//
// Parameters:
//   - dir: the font directory
//   - name: the font file name, with or without the .ttf extension
//
// Returns:
//   - string: the font file path
func FontPath(dir, name string) string {
	if filepath.Ext(name) == "" {
		name += ".ttf"
	}
	return filepath.Join(dir, name)
}

// DefaultAuxiliaryFonts returns the auxiliary fonts merged into the primary layer by default:
// DejaVuSans for the Braille block.
//
// Parameters:
//   - dir: the font directory
//
// Returns:
//   - []AuxiliaryFont: the auxiliary fonts
func DefaultAuxiliaryFonts(dir string) []AuxiliaryFont {
	return []AuxiliaryFont{
		{Path: FontPath(dir, "DejaVuSans"), Ranges: BrailleRanges()},
	}
}

// Default builds a font from the built-in 7x13 bitmap face only. It never fails.
//
// Returns:
//   - *Font: the built-in default font
func Default() *Font {
	b := &builder{
		atlasWidth: defaultAtlasWidth,
		padding:    defaultPadding,
		workers:    1,
		chunkSize:  defaultChunkSize,
	}
	return b.buildDefault()
}

func (b *builder) BuildAtlas(primaryPath string, pixelSize float64, aux ...AuxiliaryFont) *Font {
	log := common.Logger().With(slog.String("component", "font"))

	if cwd, err := os.Getwd(); err == nil {
		log.Debug("loading fonts", "cwd", cwd, "primary", primaryPath)
	}

	b.Clear()
	err := b.AddFont(FontConfig{
		Path:      primaryPath,
		PixelSize: pixelSize,
		Ranges:    PrimaryRanges(),
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error("primary font not found, using built-in default", "path", primaryPath)
		} else {
			log.Error("primary font unusable, using built-in default", "path", primaryPath, "error", err)
		}
		return b.buildDefault()
	}

	claimed := PrimaryRanges()
	for _, a := range aux {
		if shared := Overlap(claimed, a.Ranges); len(shared) > 0 {
			log.Warn("auxiliary range overlaps earlier fonts, earlier fonts keep those code points",
				"path", a.Path,
				"codePoints", len(shared),
				"first", fmt.Sprintf("%U", shared[0]),
			)
		}
		claimed = MergeRanges(claimed, a.Ranges)

		err := b.AddFont(FontConfig{
			Path:      a.Path,
			PixelSize: pixelSize,
			Ranges:    a.Ranges,
			MergeMode: true,
		})
		if err != nil {
			log.Warn("auxiliary font unavailable, range skipped",
				"path", a.Path,
				"codePoints", CountRanges(a.Ranges),
				"error", err,
			)
		}
	}

	atlas, err := b.Build()
	if err != nil {
		log.Error("font atlas build failed, using built-in default", "error", err)
		return b.buildDefault()
	}
	primary := atlas.Fonts()[0]
	if primary.GlyphCount() == 0 {
		log.Error("primary font has no glyphs in range, using built-in default", "path", primaryPath)
		return b.buildDefault()
	}
	return primary
}

// buildDefault replaces the staged sources with the built-in face and builds it.
func (b *builder) buildDefault() *Font {
	b.Clear()
	b.AddFontDefault()
	atlas, err := b.Build()
	if err != nil {
		// The built-in face is compiled in, so this only fails on a programming error.
		panic(err)
	}
	return atlas.Fonts()[0]
}
