package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithClearColor sets the color the window framebuffer is cleared to before the UI draws and
// after each capture. The default is opaque black.
//
// Parameters:
//   - r, g, b, a: the clear color channels in [0,1]
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(r, g, b, a float32) RendererBuilderOption {
	return func(rd *renderer) {
		rd.clearColor = [4]float32{r, g, b, a}
	}
}
