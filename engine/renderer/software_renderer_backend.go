package renderer

import (
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strings"

	"github.com/Carmen-Shannon/oxy-term/common"
	"golang.org/x/image/draw"
)

// SoftwareStats counts the resources a SoftwareRendererBackend has allocated and released and the
// frame operations it has executed.
type SoftwareStats struct {
	CaptureTargetsCreated  int
	CaptureTargetsReleased int
	TexturesUploaded       int
	TexturesDeleted        int
	QuadsCreated           int
	QuadsReleased          int
	ProgramsCompiled       int
	ProgramsDeleted        int
	Blits                  int
	Draws                  int
	Clears                 int
}

// SoftwareRendererBackend is a CPU implementation of RendererBackend backed by in-memory images.
// The default framebuffer is an RGBA image that callers may draw into directly. Drawing a quad
// copies the texture bound to unit 0 onto the default framebuffer, which makes every program behave
// as a pass-through effect.
//
// Like a GL context it belongs to the goroutine driving the frame loop and is not safe for
// concurrent use.
type SoftwareRendererBackend interface {
	RendererBackend

	// DefaultTarget returns the image standing in for the window's framebuffer.
	//
	// Returns:
	//   - *image.RGBA: the default framebuffer, sized by the last BindDefaultTarget call
	DefaultTarget() *image.RGBA

	// TextureImage returns the pixels of a live texture.
	//
	// Parameters:
	//   - texture: the texture handle
	//
	// Returns:
	//   - image.Image: the texture pixels
	//   - bool: false if the handle is unknown or deleted
	TextureImage(texture uint32) (image.Image, bool)

	// UniformValue returns the last value written to a named uniform of a program.
	//
	// Parameters:
	//   - program: the program handle
	//   - name: the uniform name
	//
	// Returns:
	//   - any: float32, int32 or [2]float32 depending on the setter used
	//   - bool: false if the uniform was never written
	UniformValue(program uint32, name string) (any, bool)

	// Stats returns the allocation and operation counters.
	//
	// Returns:
	//   - SoftwareStats: a copy of the counters
	Stats() SoftwareStats

	// Live returns the number of textures, framebuffers and quads that are allocated and not yet released.
	//
	// Returns:
	//   - int: live handle count
	Live() int

	// FailNextCaptureTarget makes the next CreateCaptureTarget call report an incomplete framebuffer.
	FailNextCaptureTarget()
}

// softwareProgram is a compiled program: the uniform names declared in its sources and their values.
type softwareProgram struct {
	uniforms []string
	values   map[int32]any
}

// softwareRendererBackendImpl is the implementation of the SoftwareRendererBackend interface.
type softwareRendererBackendImpl struct {
	nextHandle uint32

	defaultTarget *image.RGBA
	textures      map[uint32]draw.Image
	framebuffers  map[uint32]uint32
	renderbuffers map[uint32]image.Point
	quads         map[uint32]Quad
	programs      map[uint32]*softwareProgram

	currentProgram uint32
	boundTextures  map[uint32]uint32

	failNextTarget bool
	stats          SoftwareStats
}

var _ SoftwareRendererBackend = &softwareRendererBackendImpl{}

// uniformDecl matches GLSL uniform declarations such as "uniform vec2 resolution;".
var uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)

// NewSoftwareRendererBackend creates a backend that renders into memory and needs no graphics context.
//
// Returns:
//   - SoftwareRendererBackend: the new backend
func NewSoftwareRendererBackend() SoftwareRendererBackend {
	return &softwareRendererBackendImpl{
		defaultTarget: image.NewRGBA(image.Rect(0, 0, 0, 0)),
		textures:      make(map[uint32]draw.Image),
		framebuffers:  make(map[uint32]uint32),
		renderbuffers: make(map[uint32]image.Point),
		quads:         make(map[uint32]Quad),
		programs:      make(map[uint32]*softwareProgram),
		boundTextures: make(map[uint32]uint32),
	}
}

// handle returns a fresh non-zero handle.
func (b *softwareRendererBackendImpl) handle() uint32 {
	b.nextHandle++
	return b.nextHandle
}

func (b *softwareRendererBackendImpl) Type() RendererBackendType {
	return BackendTypeSoftware
}

func (b *softwareRendererBackendImpl) CreateCaptureTarget(width, height int) (CaptureTarget, error) {
	if width <= 0 || height <= 0 || b.failNextTarget {
		b.failNextTarget = false
		return CaptureTarget{}, fmt.Errorf("capture framebuffer %dx%d incomplete", width, height)
	}

	t := CaptureTarget{
		Texture:      b.handle(),
		Renderbuffer: b.handle(),
		Framebuffer:  b.handle(),
		Width:        width,
		Height:       height,
	}
	b.textures[t.Texture] = image.NewRGBA(image.Rect(0, 0, width, height))
	b.renderbuffers[t.Renderbuffer] = image.Pt(width, height)
	b.framebuffers[t.Framebuffer] = t.Texture
	b.stats.CaptureTargetsCreated++
	return t, nil
}

func (b *softwareRendererBackendImpl) ReleaseCaptureTarget(target CaptureTarget) {
	delete(b.framebuffers, target.Framebuffer)
	delete(b.textures, target.Texture)
	delete(b.renderbuffers, target.Renderbuffer)
	b.stats.CaptureTargetsReleased++
}

func (b *softwareRendererBackendImpl) BindDefaultTarget(width, height int) {
	if b.defaultTarget.Bounds().Dx() != width || b.defaultTarget.Bounds().Dy() != height {
		b.defaultTarget = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	}
}

func (b *softwareRendererBackendImpl) ClearDefaultTarget(c [4]float32) {
	fill := color.RGBA{
		R: unitToByte(c[0]),
		G: unitToByte(c[1]),
		B: unitToByte(c[2]),
		A: unitToByte(c[3]),
	}
	draw.Draw(b.defaultTarget, b.defaultTarget.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	b.stats.Clears++
}

func (b *softwareRendererBackendImpl) BlitToCaptureTarget(target CaptureTarget) {
	tex, ok := b.framebuffers[target.Framebuffer]
	if !ok {
		return
	}
	dst := b.textures[tex]
	src := image.Rect(0, 0, target.Width, target.Height).Intersect(b.defaultTarget.Bounds())
	draw.NearestNeighbor.Scale(dst, image.Rect(0, 0, src.Dx(), src.Dy()), b.defaultTarget, src, draw.Src, nil)
	b.stats.Blits++
}

func (b *softwareRendererBackendImpl) CreateQuad(vertices []float32) (Quad, error) {
	if len(vertices) == 0 || len(vertices)%4 != 0 {
		return Quad{}, fmt.Errorf("quad vertex data has %d floats, want a non-zero multiple of 4", len(vertices))
	}

	q := Quad{VAO: b.handle(), VBO: b.handle(), VertexCount: int32(len(vertices) / 4)}
	b.quads[q.VAO] = q
	b.stats.QuadsCreated++
	return q, nil
}

func (b *softwareRendererBackendImpl) ReleaseQuad(q Quad) {
	delete(b.quads, q.VAO)
	b.stats.QuadsReleased++
}

func (b *softwareRendererBackendImpl) DrawQuad(q Quad) {
	if _, ok := b.quads[q.VAO]; !ok {
		return
	}
	b.stats.Draws++

	src, ok := b.textures[b.boundTextures[0]]
	if !ok {
		return
	}
	draw.NearestNeighbor.Scale(b.defaultTarget, b.defaultTarget.Bounds(), src, src.Bounds(), draw.Src, nil)
}

func (b *softwareRendererBackendImpl) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	for stage, src := range map[string]string{"vertex": vertexSrc, "fragment": fragmentSrc} {
		if !strings.Contains(src, "void main") {
			return 0, fmt.Errorf("%s shader: compile failed: no main function", stage)
		}
	}

	p := &softwareProgram{values: make(map[int32]any)}
	seen := make(map[string]bool)
	for _, src := range []string{vertexSrc, fragmentSrc} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				p.uniforms = append(p.uniforms, m[1])
			}
		}
	}

	id := b.handle()
	b.programs[id] = p
	b.stats.ProgramsCompiled++
	return id, nil
}

func (b *softwareRendererBackendImpl) DeleteProgram(program uint32) {
	if _, ok := b.programs[program]; ok {
		delete(b.programs, program)
		b.stats.ProgramsDeleted++
	}
}

func (b *softwareRendererBackendImpl) UseProgram(program uint32) {
	b.currentProgram = program
}

func (b *softwareRendererBackendImpl) UniformLocation(program uint32, name string) int32 {
	p, ok := b.programs[program]
	if !ok {
		return -1
	}
	for i, u := range p.uniforms {
		if u == name {
			return int32(i)
		}
	}
	return -1
}

// setUniform records a value on the current program, ignoring location -1 like OpenGL does.
func (b *softwareRendererBackendImpl) setUniform(location int32, v any) {
	if location < 0 {
		return
	}
	if p, ok := b.programs[b.currentProgram]; ok {
		p.values[location] = v
	}
}

func (b *softwareRendererBackendImpl) SetUniform1f(location int32, v float32) {
	b.setUniform(location, v)
}

func (b *softwareRendererBackendImpl) SetUniform1i(location int32, v int32) {
	b.setUniform(location, v)
}

func (b *softwareRendererBackendImpl) SetUniform2f(location int32, x, y float32) {
	b.setUniform(location, [2]float32{x, y})
}

func (b *softwareRendererBackendImpl) BindTexture(unit uint32, texture uint32) {
	b.boundTextures[unit] = texture
}

func (b *softwareRendererBackendImpl) UploadTexture(data common.TextureStagingData) (uint32, error) {
	if !data.Valid() {
		return 0, fmt.Errorf("texture staging data %dx%d has %d bytes", data.Width, data.Height, len(data.Pixels))
	}

	rect := image.Rect(0, 0, int(data.Width), int(data.Height))
	var img draw.Image
	switch data.Format {
	case common.TextureFormatAlpha:
		a := image.NewAlpha(rect)
		copy(a.Pix, data.Pixels)
		img = a
	default:
		rgba := image.NewRGBA(rect)
		copy(rgba.Pix, data.Pixels)
		img = rgba
	}

	id := b.handle()
	b.textures[id] = img
	b.stats.TexturesUploaded++
	return id, nil
}

func (b *softwareRendererBackendImpl) DeleteTexture(texture uint32) {
	if _, ok := b.textures[texture]; ok {
		delete(b.textures, texture)
		b.stats.TexturesDeleted++
	}
}

func (b *softwareRendererBackendImpl) DefaultTarget() *image.RGBA {
	return b.defaultTarget
}

func (b *softwareRendererBackendImpl) TextureImage(texture uint32) (image.Image, bool) {
	img, ok := b.textures[texture]
	return img, ok
}

func (b *softwareRendererBackendImpl) UniformValue(program uint32, name string) (any, bool) {
	p, ok := b.programs[program]
	if !ok {
		return nil, false
	}
	for i, u := range p.uniforms {
		if u == name {
			v, ok := p.values[int32(i)]
			return v, ok
		}
	}
	return nil, false
}

func (b *softwareRendererBackendImpl) Stats() SoftwareStats {
	return b.stats
}

func (b *softwareRendererBackendImpl) Live() int {
	return len(b.textures) + len(b.framebuffers) + len(b.renderbuffers) + len(b.quads)
}

func (b *softwareRendererBackendImpl) FailNextCaptureTarget() {
	b.failNextTarget = true
}

// unitToByte converts a [0,1] channel to 8 bits.
func unitToByte(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1)*255 + 0.5)
}
