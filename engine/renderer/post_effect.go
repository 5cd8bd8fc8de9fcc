package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-term/common"
	"github.com/Carmen-Shannon/oxy-term/engine/renderer/shader"
)

// Uniform names the CRT program reads.
const (
	UniformTime          = "time"
	UniformScreenTexture = "screenTexture"
	UniformResolution    = "resolution"
)

// postEffect is the implementation of the PostEffect interface.
type postEffect struct {
	backend RendererBackend
	shader  shader.Shader
	quad    Quad
}

// PostEffect draws the captured frame onto the window through the CRT program using a full-screen quad.
type PostEffect interface {
	// DrawEffect binds the program, sets the time, screenTexture and resolution uniforms that the
	// program exposes, binds the texture to unit 0 and draws the quad into the bound framebuffer.
	// Uniforms the program does not expose are skipped.
	//
	// Parameters:
	//   - texture: the captured frame texture
	//   - time: seconds since startup, drives the animated distortion
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	DrawEffect(texture uint32, time float64, width, height int)

	// Shader returns the program the effect draws with.
	Shader() shader.Shader

	// Quad returns the full-screen quad.
	Quad() Quad

	// Destroy releases the quad. The shader stays owned by its creator.
	Destroy()
}

var _ PostEffect = &postEffect{}

// NewPostEffect uploads the full-screen quad and prepares to draw with the given shader.
// Uniforms missing from the shader are logged once as warnings; the effect still draws.
//
// Parameters:
//   - backend: the backend to draw through
//   - s: the linked CRT shader
//
// Returns:
//   - PostEffect: the post effect stage
//   - error: error if the quad could not be created
func NewPostEffect(backend RendererBackend, s shader.Shader) (PostEffect, error) {
	if s == nil {
		return nil, fmt.Errorf("post effect requires a shader")
	}
	q, err := backend.CreateQuad(QuadVertices())
	if err != nil {
		return nil, fmt.Errorf("failed to create full-screen quad: %w", err)
	}

	for _, name := range []string{UniformTime, UniformScreenTexture, UniformResolution} {
		if _, ok := s.Uniform(name); !ok {
			common.Logger().Warn("post effect uniform not found, skipping", "component", "renderer", "shader", s.Key(), "uniform", name)
		}
	}

	return &postEffect{
		backend: backend,
		shader:  s,
		quad:    q,
	}, nil
}

func (p *postEffect) DrawEffect(texture uint32, time float64, width, height int) {
	p.backend.UseProgram(p.shader.Program())

	if loc, ok := p.shader.Uniform(UniformTime); ok {
		p.backend.SetUniform1f(loc, float32(time))
	}
	if loc, ok := p.shader.Uniform(UniformScreenTexture); ok {
		p.backend.SetUniform1i(loc, 0)
	}
	if loc, ok := p.shader.Uniform(UniformResolution); ok {
		p.backend.SetUniform2f(loc, float32(width), float32(height))
	}

	p.backend.BindTexture(0, texture)
	p.backend.DrawQuad(p.quad)
}

func (p *postEffect) Shader() shader.Shader {
	return p.shader
}

func (p *postEffect) Quad() Quad {
	return p.quad
}

func (p *postEffect) Destroy() {
	p.backend.ReleaseQuad(p.quad)
	p.quad = Quad{}
}
