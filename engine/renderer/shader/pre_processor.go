// pre_processor.go implements the GLSL source pre-processor. It resolves #include
// directives relative to the including file, guarantees a #version directive on the
// first line, injects #define lines requested by the caller right after it, and
// collects the uniform declarations so the loader can report which uniforms the
// program is expected to expose.
package shader

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// DefaultVersion is the #version directive prepended to sources that do not declare one.
const DefaultVersion = "#version 330 core"

var (
	versionDirective = regexp.MustCompile(`^\s*#version\b`)
	includeDirective = regexp.MustCompile(`^\s*#include\s+"([^"]+)"\s*$`)
	uniformDecl      = regexp.MustCompile(`^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)
)

// Declaration is a uniform declared in processed shader source.
type Declaration struct {
	// Name is the uniform identifier.
	Name string
	// Type is the GLSL type name, e.g. "float", "vec2" or "sampler2D".
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// version is the directive prepended to sources without one.
	version string

	// defines are emitted as "#define KEY VALUE" lines after the version directive, sorted by key.
	defines map[string]string

	// declarations accumulates uniforms during a Process call. Reset at the start of each Process invocation.
	declarations []Declaration
}

// PreProcessor turns a GLSL file into compilable source.
type PreProcessor interface {
	// Process reads the file at path and returns the expanded source. #include "file" lines are
	// replaced by the named file, resolved against the directory of the file that includes it.
	// A missing #version directive is added, and configured defines follow the version line.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - path: the GLSL file to process
	//
	// Returns:
	//   - string: the processed source
	//   - error: error if a file cannot be read, an include is cyclic, or the result is empty
	Process(path string) (string, error)

	// ProcessSource is Process for source held in memory. Includes resolve against dir.
	//
	// Parameters:
	//   - source: the GLSL source
	//   - dir: the directory includes resolve against
	//
	// Returns:
	//   - string: the processed source
	//   - error: error if an include cannot be read or is cyclic, or the source is empty
	ProcessSource(source, dir string) (string, error)

	// Declarations returns the uniforms declared in the source of the most recent Process call, in
	// source order with duplicates removed.
	//
	// Returns:
	//   - []Declaration: the declared uniforms
	Declarations() []Declaration
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor.
//
// Parameters:
//   - version: the #version directive for sources without one; empty uses DefaultVersion
//   - defines: macros emitted after the version directive; may be nil
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(version string, defines map[string]string) PreProcessor {
	if version == "" {
		version = DefaultVersion
	}
	return &preProcessor{
		version: version,
		defines: maps.Clone(defines),
	}
}

func (p *preProcessor) Process(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read shader source %q: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return p.process(string(data), filepath.Dir(abs), map[string]bool{abs: true})
}

func (p *preProcessor) ProcessSource(source, dir string) (string, error) {
	return p.process(source, dir, map[string]bool{})
}

func (p *preProcessor) process(source, dir string, visiting map[string]bool) (string, error) {
	p.declarations = p.declarations[:0]

	if strings.TrimSpace(source) == "" {
		return "", ErrEmptySource
	}

	expanded, err := p.expand(source, dir, visiting)
	if err != nil {
		return "", err
	}

	lines := strings.Split(expanded, "\n")
	out := make([]string, 0, len(lines)+len(p.defines)+1)

	// The version directive must be the first line of the source.
	versionAt := slices.IndexFunc(lines, versionDirective.MatchString)
	if versionAt >= 0 {
		out = append(out, strings.TrimSpace(lines[versionAt]))
		lines = slices.Delete(lines, versionAt, versionAt+1)
	} else {
		out = append(out, p.version)
	}
	for _, k := range slices.Sorted(maps.Keys(p.defines)) {
		out = append(out, strings.TrimSpace(fmt.Sprintf("#define %s %s", k, p.defines[k])))
	}

	seen := make(map[string]bool)
	for _, line := range lines {
		if m := uniformDecl.FindStringSubmatch(line); m != nil && !seen[m[2]] {
			seen[m[2]] = true
			p.declarations = append(p.declarations, Declaration{Name: m[2], Type: m[1]})
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}

// expand replaces include lines recursively. visiting holds the absolute paths on the current include chain.
func (p *preProcessor) expand(source, dir string, visiting map[string]bool) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		m := includeDirective.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}

		path := m[1]
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if visiting[path] {
			return "", fmt.Errorf("line %d: include cycle through %q", i+1, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("line %d: failed to read include %q: %w", i+1, m[1], err)
		}

		visiting[path] = true
		inner, err := p.expand(string(data), filepath.Dir(path), visiting)
		delete(visiting, path)
		if err != nil {
			return "", err
		}
		out = append(out, inner)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Declaration {
	return slices.Clone(p.declarations)
}
