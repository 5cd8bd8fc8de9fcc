package font

// BuilderOption is a functional option for configuring a Builder.
type BuilderOption func(b *builder)

// WithAtlasWidth sets the fixed pixel width of the atlas image. The height grows to the next power of two.
// Values <= 0 are treated as the default (1024).
//
// Parameters:
//   - width: atlas width in pixels
//
// Returns:
//   - BuilderOption: option function to apply
func WithAtlasWidth(width int) BuilderOption {
	return func(b *builder) {
		if width <= 0 {
			width = defaultAtlasWidth
		}
		b.atlasWidth = width
	}
}

// WithPadding sets the empty border in pixels kept between packed glyphs.
//
// Parameters:
//   - padding: pixels between glyphs (negative values are treated as 0)
//
// Returns:
//   - BuilderOption: option function to apply
func WithPadding(padding int) BuilderOption {
	return func(b *builder) {
		b.padding = max(padding, 0)
	}
}

// WithWorkers sets how many goroutines rasterize glyphs during Build.
// Values <= 0 are treated as 1.
//
// Parameters:
//   - workers: the rasterization worker count
//
// Returns:
//   - BuilderOption: option function to apply
func WithWorkers(workers int) BuilderOption {
	return func(b *builder) {
		b.workers = max(workers, 1)
	}
}

// WithChunkSize sets how many code points a single rasterization task handles.
// Values <= 0 are treated as the default (256).
//
// Parameters:
//   - size: code points per task
//
// Returns:
//   - BuilderOption: option function to apply
func WithChunkSize(size int) BuilderOption {
	return func(b *builder) {
		if size <= 0 {
			size = defaultChunkSize
		}
		b.chunkSize = size
	}
}
