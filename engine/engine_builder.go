package engine

import (
	"github.com/Carmen-Shannon/oxy-term/common"
	"github.com/Carmen-Shannon/oxy-term/engine/font"
	"github.com/Carmen-Shannon/oxy-term/engine/pacer"
	"github.com/Carmen-Shannon/oxy-term/engine/renderer"
	"github.com/Carmen-Shannon/oxy-term/engine/ui"
	"github.com/Carmen-Shannon/oxy-term/engine/window"
)

const (
	// DefaultFontDir is the directory fonts are loaded from, relative to the working directory.
	DefaultFontDir = "fonts"

	// DefaultVertexShaderPath is the CRT vertex shader loaded when no path is configured.
	DefaultVertexShaderPath = "shaders/vertex.glsl"

	// DefaultFragmentShaderPath is the CRT fragment shader loaded when no path is configured.
	DefaultFragmentShaderPath = "shaders/fragment.glsl"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the once-per-second FPS report.
//
// Parameters:
//   - enabled: if true, enables the FPS report
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The window's graphics context must already be current.
// The engine does not close a window it did not create.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions sets the options used when the engine creates its own window.
//
// Parameters:
//   - options: window builder options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithBackendType selects the renderer backend created during Init. Defaults to OpenGL.
//
// Parameters:
//   - backendType: the backend to create
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackendType(backendType renderer.RendererBackendType) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = backendType
	}
}

// WithRendererBackend supplies an already initialized renderer backend, overriding WithBackendType.
//
// Parameters:
//   - backend: the backend to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererBackend(backend renderer.RendererBackend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = backend
	}
}

// WithUI sets the immediate-mode UI framework. Defaults to a framework that draws nothing.
//
// Parameters:
//   - framework: the UI framework
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithUI(framework ui.Framework) EngineBuilderOption {
	return func(e *engine) {
		if framework != nil {
			e.framework = framework
		}
	}
}

// WithTerminal sets the terminal widget drawn each frame. Defaults to a terminal that draws nothing.
//
// Parameters:
//   - terminal: the terminal widget
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTerminal(terminal ui.Terminal) EngineBuilderOption {
	return func(e *engine) {
		if terminal != nil {
			e.terminal = terminal
		}
	}
}

// WithEmbeddedTerminal makes the terminal fill the window instead of floating. Defaults to floating.
//
// Parameters:
//   - embedded: true to fill the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEmbeddedTerminal(embedded bool) EngineBuilderOption {
	return func(e *engine) {
		e.embedded = embedded
	}
}

// WithKeyBindings replaces the window-level key bindings. A zero key disables its action.
//
// Parameters:
//   - keys: the key bindings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyBindings(keys common.KeyBindings) EngineBuilderOption {
	return func(e *engine) {
		e.keys = keys
	}
}

// WithTargetFPS caps the frame rate. Values <= 0 keep the default of 60.
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTargetFPS(fps float64) EngineBuilderOption {
	return WithPacerOptions(pacer.WithTargetFPS(fps))
}

// WithPacerOptions forwards options to the frame pacer.
//
// Parameters:
//   - options: frame pacer options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPacerOptions(options ...pacer.FramePacerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.pacerOptions = append(e.pacerOptions, options...)
	}
}

// WithFontDir sets the directory the primary and auxiliary fonts are loaded from.
//
// Parameters:
//   - dir: the font directory
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFontDir(dir string) EngineBuilderOption {
	return func(e *engine) {
		e.fontDir = dir
	}
}

// WithFontName sets the primary font file name. A name without extension gets ".ttf".
//
// Parameters:
//   - name: the primary font name
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFontName(name string) EngineBuilderOption {
	return func(e *engine) {
		e.fontName = common.Coalesce(name, e.fontName)
	}
}

// WithFontSize sets the pixel size every font is rasterized at. Values <= 0 keep the default.
//
// Parameters:
//   - size: pixel size
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFontSize(size float64) EngineBuilderOption {
	return func(e *engine) {
		if size > 0 {
			e.fontSize = size
		}
	}
}

// WithAuxiliaryFonts replaces the fonts merged into the primary. Pass no fonts to disable merging.
//
// Parameters:
//   - fonts: auxiliary fonts with the ranges they contribute
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAuxiliaryFonts(fonts ...font.AuxiliaryFont) EngineBuilderOption {
	return func(e *engine) {
		e.auxFonts = append([]font.AuxiliaryFont{}, fonts...)
	}
}

// WithShaderPaths sets the CRT shader stages loaded during Init.
//
// Parameters:
//   - vertexPath: vertex shader path
//   - fragmentPath: fragment shader path
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderPaths(vertexPath, fragmentPath string) EngineBuilderOption {
	return func(e *engine) {
		e.vertexPath = vertexPath
		e.fragmentPath = fragmentPath
	}
}

// WithFrameCallback registers a function called after every frame with the frame count.
//
// Parameters:
//   - callback: the function to call
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameCallback(callback func(frame uint64)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}
