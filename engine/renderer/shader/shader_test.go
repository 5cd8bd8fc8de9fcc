package shader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertex = `layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aTexCoords;
out vec2 TexCoords;
void main() {
    TexCoords = aTexCoords;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
`

const testFragment = `#version 330 core
in vec2 TexCoords;
out vec4 FragColor;
uniform sampler2D screenTexture;
uniform float time;
uniform vec2 resolution;
void main() {
    FragColor = texture(screenTexture, TexCoords);
}
`

// fakeCompiler records compiled sources and resolves uniforms from a fixed table.
type fakeCompiler struct {
	vertex, fragment string
	err              error
	locations        map[string]int32
	lookups          map[string]int
	deleted          []uint32
}

func newFakeCompiler() *fakeCompiler {
	return &fakeCompiler{
		locations: map[string]int32{"screenTexture": 0, "time": 1, "resolution": 2},
		lookups:   make(map[string]int),
	}
}

func (c *fakeCompiler) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.vertex, c.fragment = vertexSrc, fragmentSrc
	return 7, nil
}

func (c *fakeCompiler) UniformLocation(_ uint32, name string) int32 {
	c.lookups[name]++
	if loc, ok := c.locations[name]; ok {
		return loc
	}
	return -1
}

func (c *fakeCompiler) DeleteProgram(program uint32) {
	c.deleted = append(c.deleted, program)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadShader(t *testing.T) {
	dir := t.TempDir()
	c := newFakeCompiler()

	s, err := LoadShader(c, writeFile(t, dir, "vertex.glsl", testVertex), writeFile(t, dir, "fragment.glsl", testFragment))
	require.NoError(t, err)

	assert.Equal(t, "fragment", s.Key())
	assert.Equal(t, uint32(7), s.Program())
	assert.True(t, strings.HasPrefix(c.vertex, DefaultVersion+"\n"), "missing version is added")
	assert.Equal(t, 1, strings.Count(c.fragment, "#version"))
	assert.Equal(t, []Declaration{
		{Name: "screenTexture", Type: "sampler2D"},
		{Name: "time", Type: "float"},
		{Name: "resolution", Type: "vec2"},
	}, s.Declarations())
}

func TestUniformLookupIsCached(t *testing.T) {
	dir := t.TempDir()
	c := newFakeCompiler()
	s, err := LoadShader(c, writeFile(t, dir, "v.glsl", testVertex), writeFile(t, dir, "f.glsl", testFragment))
	require.NoError(t, err)

	loc, ok := s.Uniform("time")
	assert.True(t, ok)
	assert.Equal(t, int32(1), loc)

	loc, ok = s.Uniform("scanlines")
	assert.False(t, ok)
	assert.Equal(t, int32(-1), loc)

	s.Uniform("time")
	s.Uniform("scanlines")
	assert.Equal(t, 1, c.lookups["time"])
	assert.Equal(t, 1, c.lookups["scanlines"], "misses are cached too")
}

func TestShaderRelease(t *testing.T) {
	dir := t.TempDir()
	c := newFakeCompiler()
	s, err := LoadShader(c, writeFile(t, dir, "v.glsl", testVertex), writeFile(t, dir, "f.glsl", testFragment))
	require.NoError(t, err)

	s.Release()
	s.Release()

	assert.Equal(t, []uint32{7}, c.deleted)
	assert.Equal(t, uint32(0), s.Program())
}

func TestNewShaderErrors(t *testing.T) {
	dir := t.TempDir()
	vertex := writeFile(t, dir, "v.glsl", testVertex)
	fragment := writeFile(t, dir, "f.glsl", testFragment)

	_, err := NewShader(newFakeCompiler(), WithVertexPath(vertex))
	assert.Error(t, err)

	_, err = LoadShader(newFakeCompiler(), vertex, filepath.Join(dir, "missing.glsl"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = LoadShader(newFakeCompiler(), vertex, writeFile(t, dir, "empty.glsl", " \n\t\n"))
	assert.ErrorIs(t, err, ErrEmptySource)

	failing := newFakeCompiler()
	failing.err = errors.New("0:3(1): error: syntax error")
	_, err = LoadShader(failing, vertex, fragment)
	assert.ErrorContains(t, err, "syntax error")
}

func TestShaderDefinesAndKey(t *testing.T) {
	dir := t.TempDir()
	c := newFakeCompiler()

	s, err := NewShader(c,
		WithKey("crt"),
		WithVertexPath(writeFile(t, dir, "v.glsl", testVertex)),
		WithFragmentPath(writeFile(t, dir, "f.glsl", testFragment)),
		WithVersion("#version 410 core"),
		WithDefine("SCANLINES", "1"),
		WithDefines(map[string]string{"CURVATURE": "0.25"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "crt", s.Key())
	assert.True(t, strings.HasPrefix(c.vertex, "#version 410 core\n#define CURVATURE 0.25\n#define SCANLINES 1\n"))
	assert.True(t, strings.HasPrefix(c.fragment, "#version 330 core\n#define CURVATURE 0.25\n"), "a declared version wins")
}

func TestPreProcessorIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib/noise.glsl", "uniform float seed;\nfloat noise(vec2 p) { return seed; }\n")
	main := writeFile(t, dir, "main.glsl", "#include \"lib/noise.glsl\"\nuniform float time;\nvoid main() {}\n")

	pp := NewPreProcessor("", nil)
	src, err := pp.Process(main)
	require.NoError(t, err)

	assert.Contains(t, src, "float noise(vec2 p)")
	assert.NotContains(t, src, "#include")
	assert.Equal(t, []Declaration{{Name: "seed", Type: "float"}, {Name: "time", Type: "float"}}, pp.Declarations())
}

func TestPreProcessorIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.glsl", "#include \"b.glsl\"\n")
	writeFile(t, dir, "b.glsl", "#include \"a.glsl\"\n")

	_, err := NewPreProcessor("", nil).Process(filepath.Join(dir, "a.glsl"))
	assert.ErrorContains(t, err, "include cycle")
}

func TestPreProcessorSource(t *testing.T) {
	pp := NewPreProcessor("", map[string]string{"FLAG": ""})

	src, err := pp.ProcessSource("void main() {}", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion+"\n#define FLAG\nvoid main() {}", src)

	_, err = pp.ProcessSource("", "")
	assert.ErrorIs(t, err, ErrEmptySource)
}
