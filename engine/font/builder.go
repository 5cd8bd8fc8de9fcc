package font

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"
	"unicode"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-term/common"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/rangetable"
)

const (
	defaultAtlasWidth = 1024
	defaultPadding    = 1
	defaultChunkSize  = 256
)

var (
	// ErrNoBaseFont is returned when a merge-mode font is staged, or Build is called, before any base font.
	ErrNoBaseFont = errors.New("font: no base font staged")

	// ErrInvalidConfig is returned for a FontConfig that cannot be staged.
	ErrInvalidConfig = errors.New("font: invalid font config")
)

// FontConfig describes one font file to stage into the atlas.
type FontConfig struct {
	// Path is the font file location.
	Path string
	// Name overrides the source name reported on glyphs. Defaults to the file name without extension.
	Name string
	// PixelSize is the rasterization height in pixels.
	PixelSize float64
	// Ranges restricts which code points this font may contribute. Nil means PrimaryRanges for a base font.
	Ranges *unicode.RangeTable
	// MergeMode adds the glyphs into the previous base font's layer instead of starting a new layer.
	MergeMode bool
}

// AuxiliaryFont is a font merged into the primary layer for one named code point range only.
type AuxiliaryFont struct {
	// Path is the font file location.
	Path string
	// Ranges is the code point set this font backfills.
	Ranges *unicode.RangeTable
}

// Builder stages font sources and rasterizes them into a single atlas.
// Sources are staged in order: a non-merge source starts a new layer and every merge source that
// follows joins that layer. Within a layer the first source to claim a code point keeps it.
type Builder interface {
	// Clear drops every staged source so the next build starts from scratch.
	Clear()

	// AddFont stages a font file.
	//
	// Parameters:
	//   - cfg: the font file, size, ranges and merge mode
	//
	// Returns:
	//   - error: ErrNoBaseFont for a merge source with no base staged, ErrInvalidConfig for bad sizes or
	//     missing merge ranges, or a wrapped read/parse error (errors.Is(err, fs.ErrNotExist) for missing files)
	AddFont(cfg FontConfig) error

	// AddFontDefault stages the built-in 7x13 bitmap face as a new layer.
	AddFontDefault()

	// Staged returns the number of sources currently staged.
	//
	// Returns:
	//   - int: staged source count
	Staged() int

	// Build rasterizes every staged source into one atlas.
	//
	// Returns:
	//   - *Atlas: the built atlas
	//   - error: ErrNoBaseFont if nothing is staged, or a rasterization error
	Build() (*Atlas, error)

	// BuildAtlas clears any staged sources, stages the primary font with PrimaryRanges and merges each
	// auxiliary font for its own ranges, then builds. A missing or unusable primary font yields the
	// built-in default; a missing auxiliary font only drops its range. The result is never nil.
	//
	// Parameters:
	//   - primaryPath: the primary font file
	//   - pixelSize: the rasterization height in pixels
	//   - aux: fonts merged into the primary layer for their own ranges
	//
	// Returns:
	//   - *Font: the primary layer, or the built-in default font
	BuildAtlas(primaryPath string, pixelSize float64, aux ...AuxiliaryFont) *Font
}

// builder is the implementation of the Builder interface.
type builder struct {
	sources []*glyphSource

	atlasWidth int
	padding    int
	workers    int
	chunkSize  int
}

var _ Builder = &builder{}

// NewBuilder creates an empty Builder.
//
// Parameters:
//   - options: functional options for atlas width, padding and rasterization workers
//
// Returns:
//   - Builder: the new builder
func NewBuilder(options ...BuilderOption) Builder {
	b := &builder{
		atlasWidth: defaultAtlasWidth,
		padding:    defaultPadding,
		workers:    max(runtime.NumCPU(), 1),
		chunkSize:  defaultChunkSize,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *builder) Clear() {
	b.sources = nil
}

func (b *builder) AddFont(cfg FontConfig) error {
	if cfg.PixelSize <= 0 {
		return fmt.Errorf("%w: pixel size %v for %s", ErrInvalidConfig, cfg.PixelSize, cfg.Path)
	}
	if cfg.MergeMode {
		if len(b.sources) == 0 {
			return fmt.Errorf("%w: cannot merge %s", ErrNoBaseFont, cfg.Path)
		}
		if cfg.Ranges == nil {
			return fmt.Errorf("%w: merge font %s has no ranges", ErrInvalidConfig, cfg.Path)
		}
	} else if cfg.Ranges == nil {
		cfg.Ranges = PrimaryRanges()
	}

	src, err := newFileSource(cfg)
	if err != nil {
		return err
	}
	b.sources = append(b.sources, src)
	return nil
}

func (b *builder) AddFontDefault() {
	b.sources = append(b.sources, newBuiltinSource())
}

func (b *builder) Staged() int {
	return len(b.sources)
}

// layerPlan is the code point assignment for one atlas layer.
type layerPlan struct {
	sources []*glyphSource
	runes   [][]rune
}

// rasterJob is a batch of code points rasterized from one source by one worker task.
type rasterJob struct {
	layer  int
	source *glyphSource
	runes  []rune
}

// rasterGlyph is a rasterized code point waiting to be packed.
type rasterGlyph struct {
	layer   int
	r       rune
	source  string
	mask    *image.Alpha
	offset  image.Point
	advance int
}

func (b *builder) Build() (*Atlas, error) {
	if len(b.sources) == 0 || b.sources[0].merge {
		return nil, ErrNoBaseFont
	}
	log := common.Logger().With(slog.String("component", "font"))

	layers := b.planLayers(log)

	jobs := make([]rasterJob, 0)
	for li, layer := range layers {
		for si, src := range layer.sources {
			for chunk := range slices.Chunk(layer.runes[si], b.chunkSize) {
				jobs = append(jobs, rasterJob{layer: li, source: src, runes: chunk})
			}
		}
	}

	glyphs, err := b.rasterize(jobs)
	if err != nil {
		return nil, err
	}

	glyphs = slices.DeleteFunc(glyphs, func(g rasterGlyph) bool {
		if g.mask.Bounds().Dx()+2*b.padding > b.atlasWidth {
			log.Warn("glyph wider than atlas, dropped", "rune", fmt.Sprintf("%U", g.r), "source", g.source)
			return true
		}
		return false
	})

	img, rects := b.pack(glyphs)
	atlas := &Atlas{image: img}

	for _, layer := range layers {
		f, err := newLayerFont(layer, atlas)
		if err != nil {
			return nil, err
		}
		atlas.fonts = append(atlas.fonts, f)
	}

	size := img.Bounds().Size()
	for i, g := range glyphs {
		r := rects[i]
		atlas.fonts[g.layer].glyphs[g.r] = Glyph{
			Rune:    g.r,
			Source:  g.source,
			Bounds:  r,
			Offset:  g.offset,
			Advance: g.advance,
			U0:      float32(r.Min.X) / float32(size.X),
			V0:      float32(r.Min.Y) / float32(size.Y),
			U1:      float32(r.Max.X) / float32(size.X),
			V1:      float32(r.Max.Y) / float32(size.Y),
		}
	}

	log.Info("font atlas built",
		"width", size.X,
		"height", size.Y,
		"layers", len(atlas.fonts),
		"glyphs", len(glyphs),
	)
	return atlas, nil
}

// planLayers groups staged sources into layers and assigns each covered code point to exactly one source.
func (b *builder) planLayers(log *slog.Logger) []*layerPlan {
	var layers []*layerPlan
	var claimed map[rune]string

	for _, src := range b.sources {
		if !src.merge || len(layers) == 0 {
			layers = append(layers, &layerPlan{})
			claimed = make(map[rune]string)
		}
		layer := layers[len(layers)-1]

		var runes []rune
		collisions := 0
		rangetable.Visit(src.ranges, func(r rune) {
			if !src.covers(r) {
				return
			}
			if _, taken := claimed[r]; taken {
				collisions++
				return
			}
			claimed[r] = src.name
			runes = append(runes, r)
		})

		if collisions > 0 {
			log.Debug("code points already claimed in layer, keeping earlier source",
				"source", src.name,
				"collisions", collisions,
			)
		}
		log.Debug("font source planned",
			"source", src.name,
			"merge", src.merge,
			"requested", CountRanges(src.ranges),
			"claimed", len(runes),
		)

		layer.sources = append(layer.sources, src)
		layer.runes = append(layer.runes, runes)
	}
	return layers
}

// rasterize fans the jobs out over a worker pool and returns every glyph ordered by layer then code point.
// It returns only once every job has finished.
func (b *builder) rasterize(jobs []rasterJob) ([]rasterGlyph, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	results := make([][]rasterGlyph, len(jobs))
	errs := make([]error, len(jobs))

	pool := worker.NewDynamicWorkerPool(min(b.workers, len(jobs)), len(jobs), time.Second)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		idx, j := i, job
		pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: j.source.name,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[idx] = fmt.Errorf("rasterizing %s panicked: %v", j.source.name, r)
					}
				}()
				results[idx], errs[idx] = rasterizeJob(j)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var glyphs []rasterGlyph
	for _, r := range results {
		glyphs = append(glyphs, r...)
	}
	slices.SortFunc(glyphs, func(a, b rasterGlyph) int {
		if c := cmp.Compare(a.layer, b.layer); c != 0 {
			return c
		}
		return cmp.Compare(a.r, b.r)
	})
	return glyphs, nil
}

// rasterizeJob renders each code point of the job with a face owned by this call.
func rasterizeJob(job rasterJob) ([]rasterGlyph, error) {
	face, err := job.source.newFace()
	if err != nil {
		return nil, fmt.Errorf("failed to create face for %s: %w", job.source.name, err)
	}
	defer face.Close()

	out := make([]rasterGlyph, 0, len(job.runes))
	for _, r := range job.runes {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		// The face reuses its mask buffer between calls, so copy it out.
		img := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
		if mask != nil && !dr.Empty() {
			draw.Draw(img, img.Bounds(), mask, maskp, draw.Src)
		}
		out = append(out, rasterGlyph{
			layer:   job.layer,
			r:       r,
			source:  job.source.name,
			mask:    img,
			offset:  dr.Min,
			advance: advance.Round(),
		})
	}
	return out, nil
}

// pack places glyphs on shelves left to right, top to bottom, and draws them into the atlas image.
// Blank glyphs get an empty rectangle and no pixels.
func (b *builder) pack(glyphs []rasterGlyph) (*image.Alpha, []image.Rectangle) {
	rects := make([]image.Rectangle, len(glyphs))
	x, y, rowH := b.padding, b.padding, 0

	for i, g := range glyphs {
		w, h := g.mask.Bounds().Dx(), g.mask.Bounds().Dy()
		if w == 0 || h == 0 {
			continue
		}
		if x+w+b.padding > b.atlasWidth {
			x = b.padding
			y += rowH + b.padding
			rowH = 0
		}
		rects[i] = image.Rect(x, y, x+w, y+h)
		x += w + b.padding
		rowH = max(rowH, h)
	}

	img := image.NewAlpha(image.Rect(0, 0, b.atlasWidth, nextPowerOfTwo(y+rowH+b.padding)))
	for i, g := range glyphs {
		if rects[i].Empty() {
			continue
		}
		draw.Draw(img, rects[i], g.mask, image.Point{}, draw.Src)
	}
	return img, rects
}

// newLayerFont creates the Font handle for a layer, reading vertical metrics from its base source.
func newLayerFont(layer *layerPlan, atlas *Atlas) (*Font, error) {
	base := layer.sources[0]
	face, err := base.newFace()
	if err != nil {
		return nil, fmt.Errorf("failed to create face for %s: %w", base.name, err)
	}
	defer face.Close()
	m := face.Metrics()

	names := make([]string, 0, len(layer.sources))
	for _, s := range layer.sources {
		names = append(names, s.name)
	}

	return &Font{
		name:       base.name,
		pixelSize:  base.pixelSize,
		ascent:     m.Ascent.Ceil(),
		lineHeight: m.Height.Ceil(),
		builtin:    base.builtin,
		sources:    names,
		glyphs:     make(map[rune]Glyph),
		atlas:      atlas,
	}, nil
}

// nextPowerOfTwo returns the smallest power of two >= n, and 1 for n <= 1.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
