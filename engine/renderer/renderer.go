package renderer

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-term/common"
	"github.com/Carmen-Shannon/oxy-term/engine/font"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend RendererBackend

	target    CaptureTarget
	hasTarget bool

	clearColor [4]float32

	atlasTextures []uint32

	log *slog.Logger
}

// Renderer owns the capture side of the frame: the offscreen CaptureTarget that receives a copy of
// the UI draw, the preparation of the default framebuffer before the UI draws, and the GPU copies
// of font atlases. It is the only component that allocates or frees GPU memory while the loop runs.
//
// All methods must be called from the thread that owns the graphics context.
type Renderer interface {
	// Backend returns the backend the renderer issues commands through.
	//
	// Returns:
	//   - RendererBackend: the backend
	Backend() RendererBackend

	// EnsureCaptureTarget makes the capture target match the surface size. It does nothing when the
	// size is unchanged. Otherwise the previous texture, renderbuffer and framebuffer are released
	// before the new ones are allocated, and framebuffer completeness is checked once for the new
	// target. Zero-sized surfaces (a minimized window) are ignored and keep the current target.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	//
	// Returns:
	//   - error: error if the new framebuffer is incomplete; the renderer then has no target
	EnsureCaptureTarget(width, height int) error

	// BeginDefaultTarget binds the window framebuffer, sets the viewport and clears it so the UI
	// draws onto a known background.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	BeginDefaultTarget(width, height int)

	// CaptureFrame copies the window framebuffer's color buffer into the capture target at the
	// same size, binds the window framebuffer again and clears it for the post effect.
	// Does nothing when no capture target exists.
	CaptureFrame()

	// CaptureTarget returns the current capture target.
	//
	// Returns:
	//   - CaptureTarget: the target
	//   - bool: false if no target has been allocated
	CaptureTarget() (CaptureTarget, bool)

	// UploadAtlas copies a font atlas into a GPU texture and records the handle on the atlas.
	// The texture is released by Destroy.
	//
	// Parameters:
	//   - atlas: the atlas to upload
	//
	// Returns:
	//   - error: error if the upload failed
	UploadAtlas(atlas *font.Atlas) error

	// Destroy releases the capture target and every uploaded atlas texture.
	Destroy()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer on top of an initialized backend. No GPU resources are allocated
// until EnsureCaptureTarget is first called.
//
// Parameters:
//   - backend: the backend to issue commands through
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new Renderer
func NewRenderer(backend RendererBackend, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		backend:    backend,
		clearColor: [4]float32{0, 0, 0, 1},
	}
	for _, opt := range options {
		opt(r)
	}
	r.log = common.Logger().With(
		slog.String("component", "renderer"),
		slog.String("backend", backend.Type().String()),
	)
	return r
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) EnsureCaptureTarget(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if r.hasTarget && r.target.Width == width && r.target.Height == height {
		return nil
	}

	if r.hasTarget {
		r.backend.ReleaseCaptureTarget(r.target)
		r.target = CaptureTarget{}
		r.hasTarget = false
	}

	t, err := r.backend.CreateCaptureTarget(width, height)
	if err != nil {
		return fmt.Errorf("failed to create capture target: %w", err)
	}
	r.target = t
	r.hasTarget = true

	r.log.Debug("capture target allocated", "width", width, "height", height)
	return nil
}

func (r *renderer) BeginDefaultTarget(width, height int) {
	r.backend.BindDefaultTarget(width, height)
	r.backend.ClearDefaultTarget(r.clearColor)
}

func (r *renderer) CaptureFrame() {
	if !r.hasTarget {
		return
	}
	r.backend.BlitToCaptureTarget(r.target)
	r.backend.BindDefaultTarget(r.target.Width, r.target.Height)
	r.backend.ClearDefaultTarget(r.clearColor)
}

func (r *renderer) CaptureTarget() (CaptureTarget, bool) {
	return r.target, r.hasTarget
}

func (r *renderer) UploadAtlas(atlas *font.Atlas) error {
	if atlas == nil {
		return fmt.Errorf("no atlas to upload")
	}
	tex, err := r.backend.UploadTexture(atlas.StagingData())
	if err != nil {
		return fmt.Errorf("failed to upload font atlas: %w", err)
	}
	atlas.SetTextureID(tex)
	r.atlasTextures = append(r.atlasTextures, tex)
	return nil
}

func (r *renderer) Destroy() {
	if r.hasTarget {
		r.backend.ReleaseCaptureTarget(r.target)
		r.target = CaptureTarget{}
		r.hasTarget = false
	}
	for _, tex := range r.atlasTextures {
		r.backend.DeleteTexture(tex)
	}
	r.atlasTextures = nil
}
