package shader

import "maps"

// ShaderBuilderOption is a functional option for configuring a shader in NewShader.
type ShaderBuilderOption func(s *shader)

// WithKey sets the identifier used in logs and errors. Defaults to the fragment file name.
//
// Parameters:
//   - key: the shader key
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithKey(key string) ShaderBuilderOption {
	return func(s *shader) {
		s.key = key
	}
}

// WithVertexPath sets the file the vertex stage is read from.
//
// Parameters:
//   - path: the GLSL vertex shader file
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithVertexPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexPath = path
	}
}

// WithFragmentPath sets the file the fragment stage is read from.
//
// Parameters:
//   - path: the GLSL fragment shader file
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithFragmentPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.fragmentPath = path
	}
}

// WithVersion sets the #version directive added to stages that do not declare one.
//
// Parameters:
//   - version: the full directive, e.g. "#version 410 core"
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithVersion(version string) ShaderBuilderOption {
	return func(s *shader) {
		s.version = version
	}
}

// WithDefine adds a macro emitted after the #version directive of both stages.
//
// Parameters:
//   - name: the macro name
//   - value: the macro value, may be empty
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithDefine(name, value string) ShaderBuilderOption {
	return func(s *shader) {
		if s.defines == nil {
			s.defines = make(map[string]string)
		}
		s.defines[name] = value
	}
}

// WithDefines adds several macros at once.
//
// Parameters:
//   - defines: macro names to values
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithDefines(defines map[string]string) ShaderBuilderOption {
	return func(s *shader) {
		if s.defines == nil {
			s.defines = make(map[string]string)
		}
		maps.Copy(s.defines, defines)
	}
}
