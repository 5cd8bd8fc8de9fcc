package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-term/common"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// glRendererBackend is the operation set every backend implements. The names and semantics follow
// OpenGL 3.3 core, which is the API the post-processing pipeline is written against.
type glRendererBackend interface {
	// Type returns which backend implementation this is.
	Type() RendererBackendType

	// CreateCaptureTarget allocates an RGBA8 color texture with linear filtering, a depth24/stencil8
	// renderbuffer and a framebuffer with both attached, then verifies framebuffer completeness.
	// The default framebuffer is bound again before returning.
	//
	// Parameters:
	//   - width: target width in pixels
	//   - height: target height in pixels
	//
	// Returns:
	//   - CaptureTarget: the allocated handles and their size
	//   - error: error if the framebuffer is incomplete, in which case nothing stays allocated
	CreateCaptureTarget(width, height int) (CaptureTarget, error)

	// ReleaseCaptureTarget deletes the framebuffer, texture and renderbuffer of the target.
	//
	// Parameters:
	//   - target: the target to release
	ReleaseCaptureTarget(target CaptureTarget)

	// BindDefaultTarget binds the window's framebuffer and sets the viewport to the given size.
	//
	// Parameters:
	//   - width: viewport width in pixels
	//   - height: viewport height in pixels
	BindDefaultTarget(width, height int)

	// ClearDefaultTarget clears the color, depth and stencil buffers of the bound framebuffer.
	//
	// Parameters:
	//   - color: the clear color as RGBA in [0,1]
	ClearDefaultTarget(color [4]float32)

	// BlitToCaptureTarget copies the default framebuffer's color buffer into the target's framebuffer
	// at the same size with nearest filtering, then binds the default framebuffer again.
	//
	// Parameters:
	//   - target: the destination capture target
	BlitToCaptureTarget(target CaptureTarget)

	// CreateQuad uploads interleaved vec2 position and vec2 texcoord vertices into a vertex array.
	//
	// Parameters:
	//   - vertices: the interleaved vertex data
	//
	// Returns:
	//   - Quad: the uploaded quad
	//   - error: error if the vertex data is not a whole number of vertices
	CreateQuad(vertices []float32) (Quad, error)

	// ReleaseQuad deletes the quad's vertex array and vertex buffer.
	//
	// Parameters:
	//   - q: the quad to release
	ReleaseQuad(q Quad)

	// DrawQuad draws the quad as triangles with the current program and bound textures.
	//
	// Parameters:
	//   - q: the quad to draw
	DrawQuad(q Quad)

	// CompileProgram compiles and links a vertex and fragment shader pair.
	//
	// Parameters:
	//   - vertexSrc: GLSL vertex shader source
	//   - fragmentSrc: GLSL fragment shader source
	//
	// Returns:
	//   - uint32: the linked program handle
	//   - error: error containing the driver's info log if compilation or linking fails
	CompileProgram(vertexSrc, fragmentSrc string) (uint32, error)

	// DeleteProgram deletes a linked program.
	DeleteProgram(program uint32)

	// UseProgram makes the program current for subsequent uniform writes and draws.
	UseProgram(program uint32)

	// UniformLocation looks up a named uniform.
	//
	// Parameters:
	//   - program: the linked program
	//   - name: the uniform name
	//
	// Returns:
	//   - int32: the uniform location, or -1 if the program has no active uniform with that name
	UniformLocation(program uint32, name string) int32

	// SetUniform1f writes a float uniform of the current program.
	SetUniform1f(location int32, v float32)

	// SetUniform1i writes an int or sampler uniform of the current program.
	SetUniform1i(location int32, v int32)

	// SetUniform2f writes a vec2 uniform of the current program.
	SetUniform2f(location int32, x, y float32)

	// BindTexture binds a 2D texture to a texture unit.
	//
	// Parameters:
	//   - unit: the texture unit index, 0 for GL_TEXTURE0
	//   - texture: the texture handle
	BindTexture(unit uint32, texture uint32)

	// UploadTexture creates a 2D texture from staged pixels. Single channel data is sampled as
	// white with the coverage in alpha.
	//
	// Parameters:
	//   - data: the staged pixels
	//
	// Returns:
	//   - uint32: the texture handle
	//   - error: error if the staging data does not match its dimensions
	UploadTexture(data common.TextureStagingData) (uint32, error)

	// DeleteTexture deletes a texture created by UploadTexture.
	DeleteTexture(texture uint32)
}

// glRendererBackendImpl drives the OpenGL context that is current on the calling thread.
type glRendererBackendImpl struct {
	version  string
	renderer string
}

var _ RendererBackend = &glRendererBackendImpl{}

func newGLRendererBackend() *glRendererBackendImpl {
	return &glRendererBackendImpl{}
}

// Init loads the OpenGL function pointers. Must be called with the window's context current.
func (b *glRendererBackendImpl) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	b.version = gl.GoStr(gl.GetString(gl.VERSION))
	b.renderer = gl.GoStr(gl.GetString(gl.RENDERER))

	common.Logger().Info("OpenGL initialized", "version", b.version, "renderer", b.renderer)
	return nil
}

func (b *glRendererBackendImpl) Type() RendererBackendType {
	return BackendTypeOpenGL
}

func (b *glRendererBackendImpl) CreateCaptureTarget(width, height int) (CaptureTarget, error) {
	t := CaptureTarget{Width: width, Height: height}

	gl.GenFramebuffers(1, &t.Framebuffer)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.Framebuffer)

	gl.GenTextures(1, &t.Texture)
	gl.BindTexture(gl.TEXTURE_2D, t.Texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.Texture, 0)

	gl.GenRenderbuffers(1, &t.Renderbuffer)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.Renderbuffer)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, t.Renderbuffer)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		b.ReleaseCaptureTarget(t)
		return CaptureTarget{}, fmt.Errorf("capture framebuffer %dx%d incomplete: status 0x%x", width, height, status)
	}
	return t, nil
}

func (b *glRendererBackendImpl) ReleaseCaptureTarget(target CaptureTarget) {
	if target.Framebuffer != 0 {
		gl.DeleteFramebuffers(1, &target.Framebuffer)
	}
	if target.Texture != 0 {
		gl.DeleteTextures(1, &target.Texture)
	}
	if target.Renderbuffer != 0 {
		gl.DeleteRenderbuffers(1, &target.Renderbuffer)
	}
}

func (b *glRendererBackendImpl) BindDefaultTarget(width, height int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (b *glRendererBackendImpl) ClearDefaultTarget(color [4]float32) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
}

func (b *glRendererBackendImpl) BlitToCaptureTarget(target CaptureTarget) {
	w, h := int32(target.Width), int32(target.Height)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, target.Framebuffer)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (b *glRendererBackendImpl) CreateQuad(vertices []float32) (Quad, error) {
	if len(vertices) == 0 || len(vertices)%4 != 0 {
		return Quad{}, fmt.Errorf("quad vertex data has %d floats, want a non-zero multiple of 4", len(vertices))
	}
	q := Quad{VertexCount: int32(len(vertices) / 4)}

	gl.GenVertexArrays(1, &q.VAO)
	gl.GenBuffers(1, &q.VBO)
	gl.BindVertexArray(q.VAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, quadStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, quadStride, 2*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return q, nil
}

func (b *glRendererBackendImpl) ReleaseQuad(q Quad) {
	if q.VBO != 0 {
		gl.DeleteBuffers(1, &q.VBO)
	}
	if q.VAO != 0 {
		gl.DeleteVertexArrays(1, &q.VAO)
	}
}

func (b *glRendererBackendImpl) DrawQuad(q Quad) {
	gl.BindVertexArray(q.VAO)
	gl.DrawArrays(gl.TRIANGLES, 0, q.VertexCount)
	gl.BindVertexArray(0)
}

func (b *glRendererBackendImpl) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, fmt.Errorf("fragment shader: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("program link failed: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

// compileShader compiles one shader stage, returning the driver's info log on failure.
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (b *glRendererBackendImpl) DeleteProgram(program uint32) {
	if program != 0 {
		gl.DeleteProgram(program)
	}
}

func (b *glRendererBackendImpl) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (b *glRendererBackendImpl) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (b *glRendererBackendImpl) SetUniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (b *glRendererBackendImpl) SetUniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (b *glRendererBackendImpl) SetUniform2f(location int32, x, y float32) {
	gl.Uniform2f(location, x, y)
}

func (b *glRendererBackendImpl) BindTexture(unit uint32, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (b *glRendererBackendImpl) UploadTexture(data common.TextureStagingData) (uint32, error) {
	if !data.Valid() {
		return 0, fmt.Errorf("texture staging data %dx%d has %d bytes", data.Width, data.Height, len(data.Pixels))
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	w, h := int32(data.Width), int32(data.Height)
	switch data.Format {
	case common.TextureFormatAlpha:
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, w, h, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(data.Pixels))
		swizzle := []int32{gl.ONE, gl.ONE, gl.ONE, gl.RED}
		gl.TexParameteriv(gl.TEXTURE_2D, gl.TEXTURE_SWIZZLE_RGBA, &swizzle[0])
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	default:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data.Pixels))
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex, nil
}

func (b *glRendererBackendImpl) DeleteTexture(texture uint32) {
	if texture != 0 {
		gl.DeleteTextures(1, &texture)
	}
}
