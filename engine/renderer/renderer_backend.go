package renderer

import (
	"fmt"
)

// RendererBackendType identifies the graphics backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeOpenGL selects the OpenGL 3.3 core-profile backend. A context must be current.
	BackendTypeOpenGL RendererBackendType = iota

	// BackendTypeSoftware selects the CPU backend, which needs no window or context.
	BackendTypeSoftware
)

// String returns the backend name used in logs.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeOpenGL:
		return "opengl"
	case BackendTypeSoftware:
		return "software"
	default:
		return fmt.Sprintf("backend(%d)", int(t))
	}
}

// CaptureTarget is the offscreen color texture, depth/stencil renderbuffer and framebuffer that
// receive a copy of each frame's UI draw. Handles are backend specific; zero means unallocated.
type CaptureTarget struct {
	Texture      uint32
	Renderbuffer uint32
	Framebuffer  uint32
	Width        int
	Height       int
}

// Quad is an uploaded full-screen quad: a vertex array and its vertex buffer.
type Quad struct {
	VAO         uint32
	VBO         uint32
	VertexCount int32
}

// QuadVertices returns the two triangles covering clip space, interleaved as vec2 position then
// vec2 texture coordinate.
//
// Returns:
//   - []float32: 6 vertices of 4 floats each
func QuadVertices() []float32 {
	return []float32{
		// positions  // texcoords
		-1.0, -1.0, 0.0, 0.0,
		1.0, -1.0, 1.0, 0.0,
		1.0, 1.0, 1.0, 1.0,

		-1.0, -1.0, 0.0, 0.0,
		1.0, 1.0, 1.0, 1.0,
		-1.0, 1.0, 0.0, 1.0,
	}
}

// quadStride is the byte size of one interleaved quad vertex.
const quadStride = 4 * 4

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface shared by every graphics API implementation.
type RendererBackend interface {
	glRendererBackend
}

// NewRendererBackend creates the backend for the given type. The OpenGL backend loads the GL
// function pointers of the context current on the calling thread.
//
// Parameters:
//   - backendType: the backend to create
//
// Returns:
//   - RendererBackend: the initialized backend
//   - error: error if the graphics API could not be initialized
func NewRendererBackend(backendType RendererBackendType) (RendererBackend, error) {
	switch backendType {
	case BackendTypeOpenGL:
		b := newGLRendererBackend()
		if err := b.Init(); err != nil {
			return nil, err
		}
		return b, nil
	case BackendTypeSoftware:
		return NewSoftwareRendererBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported renderer backend %s", backendType)
	}
}
