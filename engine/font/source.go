package font

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	gotext "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// builtinName is the source name reported for glyphs from the built-in fallback face.
const builtinName = "builtin-7x13"

// glyphSource is one staged font: where its glyphs come from and which code points it may claim.
type glyphSource struct {
	name      string
	pixelSize float64
	ranges    *unicode.RangeTable
	merge     bool
	builtin   bool

	// covers reports whether the font maps the code point to a real glyph.
	covers func(r rune) bool

	// newFace returns a face private to the caller. Faces are not shared between goroutines.
	newFace func() (xfont.Face, error)
}

// newFileSource reads and parses a TrueType/OpenType file.
// Coverage comes from the font's cmap via go-text; rasterization uses x/image faces.
func newFileSource(cfg FontConfig) (*glyphSource, error) {
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", cfg.Path, err)
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", cfg.Path, err)
	}

	cmap, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read character map of %s: %w", cfg.Path, err)
	}

	name := cfg.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(cfg.Path), filepath.Ext(cfg.Path))
	}

	size := cfg.PixelSize
	return &glyphSource{
		name:      name,
		pixelSize: size,
		ranges:    cfg.Ranges,
		merge:     cfg.MergeMode,
		covers: func(r rune) bool {
			_, ok := cmap.NominalGlyph(r)
			return ok
		},
		newFace: func() (xfont.Face, error) {
			// 72 DPI makes the point size equal to the pixel size.
			return opentype.NewFace(parsed, &opentype.FaceOptions{
				Size:    size,
				DPI:     72,
				Hinting: xfont.HintingFull,
			})
		},
	}, nil
}

// newBuiltinSource wraps the self-contained 7x13 bitmap face used when no font file is usable.
func newBuiltinSource() *glyphSource {
	face := basicfont.Face7x13
	return &glyphSource{
		name:      builtinName,
		pixelSize: float64(face.Height),
		ranges:    DefaultRanges(),
		builtin:   true,
		covers: func(r rune) bool {
			for _, rng := range face.Ranges {
				if rng.Low <= r && r < rng.High {
					return true
				}
			}
			return false
		},
		newFace: func() (xfont.Face, error) {
			// basicfont faces are safe for concurrent use.
			return face, nil
		},
	}
}
