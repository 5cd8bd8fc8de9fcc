package renderer

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-term/engine/font"
	"github.com/Carmen-Shannon/oxy-term/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crtVertex = `#version 330 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aTexCoords;
out vec2 TexCoords;
void main() {
    TexCoords = aTexCoords;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
`

const crtFragment = `#version 330 core
in vec2 TexCoords;
out vec4 FragColor;
uniform sampler2D screenTexture;
uniform float time;
uniform vec2 resolution;
void main() {
    FragColor = texture(screenTexture, TexCoords);
}
`

// loadTestShader writes a shader pair to a temp dir and compiles it on the backend.
func loadTestShader(t *testing.T, b RendererBackend, fragment string) shader.Shader {
	t.Helper()
	dir := t.TempDir()
	vp := filepath.Join(dir, "vertex.glsl")
	fp := filepath.Join(dir, "fragment.glsl")
	require.NoError(t, os.WriteFile(vp, []byte(crtVertex), 0o644))
	require.NoError(t, os.WriteFile(fp, []byte(fragment), 0o644))
	s, err := shader.LoadShader(b, vp, fp)
	require.NoError(t, err)
	return s
}

// paintPattern fills the image with a position-dependent color.
func paintPattern(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, patternAt(x, y))
		}
	}
}

func patternAt(x, y int) color.RGBA {
	return color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: 255}
}

func TestEnsureCaptureTargetTracksSurfaceSize(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b)

	_, ok := r.CaptureTarget()
	assert.False(t, ok, "nothing is allocated before the first frame")

	require.NoError(t, r.EnsureCaptureTarget(800, 600))
	require.NoError(t, r.EnsureCaptureTarget(800, 600))
	assert.Equal(t, 1, b.Stats().CaptureTargetsCreated, "same size does not reallocate")

	require.NoError(t, r.EnsureCaptureTarget(1024, 768))
	target, ok := r.CaptureTarget()
	require.True(t, ok)
	assert.Equal(t, 1024, target.Width)
	assert.Equal(t, 768, target.Height)
	assert.Equal(t, 2, b.Stats().CaptureTargetsCreated)
	assert.Equal(t, 1, b.Stats().CaptureTargetsReleased)
	assert.Equal(t, 3, b.Live(), "exactly one texture, renderbuffer and framebuffer")
}

func TestEnsureCaptureTargetIgnoresZeroSize(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b)

	require.NoError(t, r.EnsureCaptureTarget(640, 480))
	require.NoError(t, r.EnsureCaptureTarget(0, 0))
	require.NoError(t, r.EnsureCaptureTarget(640, 0))

	target, ok := r.CaptureTarget()
	require.True(t, ok)
	assert.Equal(t, image.Pt(640, 480), image.Pt(target.Width, target.Height))
	assert.Equal(t, 1, b.Stats().CaptureTargetsCreated)
}

func TestLiveResizeNeverLeaks(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b)

	sizes := []image.Point{{1200, 750}, {1180, 740}, {1100, 700}, {1100, 700}, {900, 600}, {0, 0}, {1920, 1080}, {1920, 1080}}
	for _, s := range sizes {
		require.NoError(t, r.EnsureCaptureTarget(s.X, s.Y))
		st := b.Stats()
		assert.Equal(t, 1, st.CaptureTargetsCreated-st.CaptureTargetsReleased)

		if s.X > 0 && s.Y > 0 {
			target, _ := r.CaptureTarget()
			assert.Equal(t, s, image.Pt(target.Width, target.Height))
		}
	}
	assert.Equal(t, 5, b.Stats().CaptureTargetsCreated)

	r.Destroy()
	assert.Equal(t, 0, b.Live())
	_, ok := r.CaptureTarget()
	assert.False(t, ok)
}

func TestIncompleteCaptureTarget(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b)
	require.NoError(t, r.EnsureCaptureTarget(320, 200))

	b.FailNextCaptureTarget()
	err := r.EnsureCaptureTarget(640, 400)
	assert.ErrorContains(t, err, "incomplete")

	_, ok := r.CaptureTarget()
	assert.False(t, ok, "the old target is released before the new one is attempted")
	assert.Equal(t, 0, b.Live())

	r.CaptureFrame()
	assert.Equal(t, 0, b.Stats().Blits)
}

func TestCaptureFrameCopiesDefaultTarget(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b)
	const w, h = 64, 48

	require.NoError(t, r.EnsureCaptureTarget(w, h))
	r.BeginDefaultTarget(w, h)
	paintPattern(b.DefaultTarget())

	r.CaptureFrame()

	target, _ := r.CaptureTarget()
	img, ok := b.TextureImage(target.Texture)
	require.True(t, ok)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			require.Equal(t, patternAt(x, y), color.RGBAModel.Convert(img.At(x, y)), "pixel %d,%d", x, y)
		}
	}

	assert.Equal(t, color.RGBA{A: 255}, b.DefaultTarget().RGBAAt(w/2, h/2), "default target is cleared after capture")
	assert.Equal(t, 1, b.Stats().Blits)
}

func TestBeginDefaultTargetClearColor(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b, WithClearColor(1, 0, 0, 1))

	r.BeginDefaultTarget(4, 4)

	assert.Equal(t, image.Rect(0, 0, 4, 4), b.DefaultTarget().Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, b.DefaultTarget().RGBAAt(1, 1))
}

func TestFirstFrameThroughPostEffect(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b)
	s := loadTestShader(t, b, crtFragment)
	effect, err := NewPostEffect(b, s)
	require.NoError(t, err)
	const w, h = 120, 75

	require.NoError(t, r.EnsureCaptureTarget(w, h))
	r.BeginDefaultTarget(w, h)
	paintPattern(b.DefaultTarget())
	r.CaptureFrame()
	target, _ := r.CaptureTarget()
	effect.DrawEffect(target.Texture, 1.5, w, h)

	assert.Equal(t, patternAt(10, 20), b.DefaultTarget().RGBAAt(10, 20), "pass-through effect shows the captured frame")

	v, ok := b.UniformValue(s.Program(), UniformTime)
	require.True(t, ok)
	assert.Equal(t, float32(1.5), v)
	v, _ = b.UniformValue(s.Program(), UniformScreenTexture)
	assert.Equal(t, int32(0), v)
	v, _ = b.UniformValue(s.Program(), UniformResolution)
	assert.Equal(t, [2]float32{w, h}, v)
	assert.Equal(t, 1, b.Stats().Draws)

	effect.Destroy()
	s.Release()
	r.Destroy()
	assert.Equal(t, 0, b.Live())
}

func TestPostEffectSkipsMissingUniforms(t *testing.T) {
	b := NewSoftwareRendererBackend()
	s := loadTestShader(t, b, `#version 330 core
in vec2 TexCoords;
out vec4 FragColor;
uniform sampler2D screenTexture;
void main() {
    FragColor = texture(screenTexture, TexCoords);
}
`)
	effect, err := NewPostEffect(b, s)
	require.NoError(t, err)

	effect.DrawEffect(0, 2, 10, 10)

	_, ok := b.UniformValue(s.Program(), UniformTime)
	assert.False(t, ok)
	_, ok = b.UniformValue(s.Program(), UniformScreenTexture)
	assert.True(t, ok)
	assert.Equal(t, 1, b.Stats().Draws)
}

func TestUploadAtlas(t *testing.T) {
	b := NewSoftwareRendererBackend()
	r := NewRenderer(b)
	atlas := font.Default().Atlas()

	require.NoError(t, r.UploadAtlas(atlas))
	require.NotZero(t, atlas.TextureID())

	img, ok := b.TextureImage(atlas.TextureID())
	require.True(t, ok)
	assert.Equal(t, atlas.Image().Bounds(), img.Bounds())

	assert.Error(t, r.UploadAtlas(nil))

	r.Destroy()
	_, ok = b.TextureImage(atlas.TextureID())
	assert.False(t, ok)
	assert.Equal(t, 1, b.Stats().TexturesDeleted)
}

func TestQuadVertices(t *testing.T) {
	v := QuadVertices()
	require.Len(t, v, 24)

	for i := 0; i < len(v); i += 4 {
		assert.Contains(t, []float32{-1, 1}, v[i])
		assert.Contains(t, []float32{-1, 1}, v[i+1])
		assert.Equal(t, (v[i]+1)/2, v[i+2], "u follows x")
		assert.Equal(t, (v[i+1]+1)/2, v[i+3], "v follows y")
	}
}

func TestNewRendererBackend(t *testing.T) {
	b, err := NewRendererBackend(BackendTypeSoftware)
	require.NoError(t, err)
	assert.Equal(t, BackendTypeSoftware, b.Type())

	_, err = NewRendererBackend(RendererBackendType(42))
	assert.Error(t, err)
	assert.Equal(t, "opengl", BackendTypeOpenGL.String())
}

func TestSoftwareCompileRejectsMissingMain(t *testing.T) {
	b := NewSoftwareRendererBackend()

	_, err := b.CompileProgram(crtVertex, "uniform float time;")
	assert.ErrorContains(t, err, "fragment shader")
}

func TestSoftwareHandlesAreDistinct(t *testing.T) {
	b := NewSoftwareRendererBackend()

	target, err := b.CreateCaptureTarget(4, 4)
	require.NoError(t, err)
	q, err := b.CreateQuad(QuadVertices())
	require.NoError(t, err)
	program, err := b.CompileProgram(crtVertex, crtFragment)
	require.NoError(t, err)

	seen := map[uint32]bool{}
	for _, h := range []uint32{target.Texture, target.Renderbuffer, target.Framebuffer, q.VAO, q.VBO, program} {
		assert.NotZero(t, h)
		assert.False(t, seen[h], "handle %d reused", h)
		seen[h] = true
	}
	assert.Equal(t, 4, b.Live())

	b.ReleaseCaptureTarget(target)
	b.ReleaseQuad(q)
	assert.Zero(t, b.Live())
}
