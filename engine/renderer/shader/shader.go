package shader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-term/common"
)

// ErrEmptySource is returned when a shader file or source string contains no code.
var ErrEmptySource = errors.New("shader: empty source")

// Compiler builds GPU programs from GLSL source. The renderer backends implement it.
type Compiler interface {
	// CompileProgram compiles and links a vertex and fragment shader pair.
	//
	// Parameters:
	//   - vertexSrc: GLSL vertex shader source
	//   - fragmentSrc: GLSL fragment shader source
	//
	// Returns:
	//   - uint32: the linked program handle
	//   - error: error if compilation or linking fails
	CompileProgram(vertexSrc, fragmentSrc string) (uint32, error)

	// UniformLocation looks up a named uniform, returning -1 if the program has none by that name.
	UniformLocation(program uint32, name string) int32

	// DeleteProgram deletes a linked program.
	DeleteProgram(program uint32)
}

// shader is the implementation of the Shader interface.
// It holds the processed sources, the linked program and the uniform locations looked up so far.
type shader struct {
	key          string
	vertexPath   string
	fragmentPath string
	version      string
	defines      map[string]string

	vertexSource   string
	fragmentSource string
	declarations   []Declaration

	compiler Compiler
	program  uint32
	uniforms map[string]int32
}

// Shader is a linked vertex/fragment program loaded from GLSL files, with cached named-uniform lookup.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used in logs.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Program returns the linked program handle, or 0 after Release.
	//
	// Returns:
	//   - uint32: the program handle
	Program() uint32

	// VertexPath returns the file the vertex stage was loaded from.
	VertexPath() string

	// FragmentPath returns the file the fragment stage was loaded from.
	FragmentPath() string

	// VertexSource returns the processed vertex stage source that was compiled.
	VertexSource() string

	// FragmentSource returns the processed fragment stage source that was compiled.
	FragmentSource() string

	// Declarations returns the uniforms declared across both stages, vertex stage first.
	//
	// Returns:
	//   - []Declaration: the declared uniforms
	Declarations() []Declaration

	// Uniform looks up a named uniform. Results, including misses, are cached per name.
	// A declared uniform the driver optimized away reports false.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - int32: the uniform location, or -1
	//   - bool: true if the program exposes the uniform
	Uniform(name string) (int32, bool)

	// Release deletes the program. The Shader must not be used afterwards.
	Release()
}

var _ Shader = &shader{}

// NewShader reads, pre-processes, compiles and links a vertex/fragment pair.
// A shader that fails here leaves nothing allocated on the GPU.
//
// Parameters:
//   - compiler: the backend that compiles the program
//   - options: functional options; WithVertexPath and WithFragmentPath are required
//
// Returns:
//   - Shader: the linked shader
//   - error: error if a path is missing, a file cannot be read, a source is empty, or compilation fails
func NewShader(compiler Compiler, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		compiler: compiler,
		uniforms: make(map[string]int32),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.vertexPath == "" || s.fragmentPath == "" {
		return nil, fmt.Errorf("shader %q: vertex and fragment paths are required", s.key)
	}
	if s.key == "" {
		s.key = strings.TrimSuffix(filepath.Base(s.fragmentPath), filepath.Ext(s.fragmentPath))
	}

	seen := make(map[string]bool)
	for _, stage := range []struct {
		path string
		dst  *string
	}{
		{s.vertexPath, &s.vertexSource},
		{s.fragmentPath, &s.fragmentSource},
	} {
		pp := NewPreProcessor(s.version, s.defines)
		src, err := pp.Process(stage.path)
		if err != nil {
			return nil, fmt.Errorf("shader %q: %s: %w", s.key, stage.path, err)
		}
		*stage.dst = src
		for _, d := range pp.Declarations() {
			if !seen[d.Name] {
				seen[d.Name] = true
				s.declarations = append(s.declarations, d)
			}
		}
	}

	program, err := compiler.CompileProgram(s.vertexSource, s.fragmentSource)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", s.key, err)
	}
	s.program = program

	common.Logger().Debug("shader loaded",
		"component", "shader",
		"key", s.key,
		"vertex", s.vertexPath,
		"fragment", s.fragmentPath,
		"uniforms", len(s.declarations),
	)
	return s, nil
}

// LoadShader loads the program from a vertex and fragment file pair.
//
// Parameters:
//   - compiler: the backend that compiles the program
//   - vertexPath: the vertex stage file
//   - fragmentPath: the fragment stage file
//
// Returns:
//   - Shader: the linked shader
//   - error: error if loading or compilation fails
func LoadShader(compiler Compiler, vertexPath, fragmentPath string) (Shader, error) {
	return NewShader(compiler, WithVertexPath(vertexPath), WithFragmentPath(fragmentPath))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Program() uint32 {
	return s.program
}

func (s *shader) VertexPath() string {
	return s.vertexPath
}

func (s *shader) FragmentPath() string {
	return s.fragmentPath
}

func (s *shader) VertexSource() string {
	return s.vertexSource
}

func (s *shader) FragmentSource() string {
	return s.fragmentSource
}

func (s *shader) Declarations() []Declaration {
	return s.declarations
}

func (s *shader) Uniform(name string) (int32, bool) {
	loc, ok := s.uniforms[name]
	if !ok {
		loc = s.compiler.UniformLocation(s.program, name)
		s.uniforms[name] = loc
	}
	return loc, loc >= 0
}

func (s *shader) Release() {
	if s.program == 0 {
		return
	}
	s.compiler.DeleteProgram(s.program)
	s.program = 0
	clear(s.uniforms)
}
