package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-term/common"
	"github.com/Carmen-Shannon/oxy-term/engine/font"
	"github.com/Carmen-Shannon/oxy-term/engine/pacer"
	"github.com/Carmen-Shannon/oxy-term/engine/profiler"
	"github.com/Carmen-Shannon/oxy-term/engine/renderer"
	"github.com/Carmen-Shannon/oxy-term/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-term/engine/ui"
	"github.com/Carmen-Shannon/oxy-term/engine/window"
)

// ErrNotInitialized is returned by Run when Init has not completed successfully.
var ErrNotInitialized = errors.New("engine: not initialized")

// engine is the implementation of the Engine interface.
type engine struct {
	window        window.Window
	windowOptions []window.WindowBuilderOption
	ownsWindow    bool

	backendType renderer.RendererBackendType
	backend     renderer.RendererBackend
	renderer    renderer.Renderer
	effect      renderer.PostEffect
	shader      shader.Shader

	vertexPath   string
	fragmentPath string

	fontDir  string
	fontName string
	fontSize float64
	auxFonts []font.AuxiliaryFont
	font     *font.Font

	framework ui.Framework
	terminal  ui.Terminal
	embedded  bool
	keys      common.KeyBindings

	pacer        pacer.FramePacer
	pacerOptions []pacer.FramePacerBuilderOption
	clock        *pacer.FrameClock

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameCallback func(frame uint64)

	initialized bool
	log         *slog.Logger
}

// Engine hosts the terminal UI in a window and composites every frame through the CRT post effect.
//
// Init builds everything in order: window and context, renderer backend, font atlas, CRT shader,
// initial capture target, post effect. Run then drives the frame loop on the calling goroutine
// until the window is asked to close. The calling goroutine must stay the same from Init to Destroy
// because it owns the graphics context.
type Engine interface {
	// Init creates the window (unless one was supplied), the renderer, the font atlas, the CRT shader
	// and the capture target, then makes the terminal visible. Missing fonts degrade to the built-in
	// face; every other failure is returned.
	//
	// Returns:
	//   - error: error if the window, graphics API, shader, capture target or quad could not be created
	Init() error

	// Run executes frames until the window reports it should close. A panic inside a frame is
	// recovered, logged and returned as an error so Destroy can still release resources.
	//
	// Returns:
	//   - error: ErrNotInitialized before a successful Init, or the recovered panic
	Run() error

	// Frame executes a single iteration of the loop: wait or poll for events, resize the capture
	// target, draw the UI, capture it, draw the post effect, present and pace. Does nothing before Init.
	Frame()

	// Quit asks the loop to stop after the current frame.
	Quit()

	// Destroy releases GPU resources, then closes the window if the engine created it.
	Destroy()

	// Window returns the host window, or nil before Init.
	Window() window.Window

	// Renderer returns the render pipeline, or nil before Init.
	Renderer() renderer.Renderer

	// Font returns the active font handed to the UI, or nil before Init.
	Font() *font.Font

	// FrameCount returns the number of frames executed.
	FrameCount() uint64
}

var _ Engine = &engine{}

// NewEngine creates an Engine with the given options. Nothing is created until Init.
//
// Parameters:
//   - options: functional options for the window, backend, fonts, shaders, UI and pacing
//
// Returns:
//   - Engine: the new engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		backendType:  renderer.BackendTypeOpenGL,
		vertexPath:   DefaultVertexShaderPath,
		fragmentPath: DefaultFragmentShaderPath,
		fontDir:      DefaultFontDir,
		fontName:     font.DefaultFontName,
		fontSize:     font.DefaultPixelSize,
		framework:    &ui.NopFramework{},
		terminal:     &ui.NopTerminal{},
		keys:         common.DefaultKeyBindings(),
		profiler:     profiler.NewProfiler(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.auxFonts == nil {
		e.auxFonts = font.DefaultAuxiliaryFonts(e.fontDir)
	}
	e.log = common.Logger().With(slog.String("component", "engine"))
	return e
}

func (e *engine) Init() error {
	if e.window == nil {
		w, err := window.NewWindow(e.windowOptions...)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		e.window = w
		e.ownsWindow = true
	}

	if e.backend == nil {
		b, err := renderer.NewRendererBackend(e.backendType)
		if err != nil {
			return fmt.Errorf("failed to create renderer backend: %w", err)
		}
		e.backend = b
	}
	e.renderer = renderer.NewRenderer(e.backend)

	e.font = font.NewBuilder().BuildAtlas(font.FontPath(e.fontDir, e.fontName), e.fontSize, e.auxFonts...)
	if err := e.renderer.UploadAtlas(e.font.Atlas()); err != nil {
		e.log.Error("font atlas upload failed, text will not render", "error", err)
	}
	e.framework.SetFont(e.font)
	if fc, ok := e.terminal.(ui.FontConsumer); ok {
		fc.SetFont(e.font)
	}

	s, err := shader.LoadShader(e.backend, e.vertexPath, e.fragmentPath)
	if err != nil {
		return fmt.Errorf("failed to load CRT shader: %w", err)
	}
	e.shader = s

	width, height := e.window.FramebufferSize()
	if err := e.renderer.EnsureCaptureTarget(width, height); err != nil {
		return err
	}

	effect, err := renderer.NewPostEffect(e.backend, e.shader)
	if err != nil {
		return err
	}
	e.effect = effect

	e.pacer = pacer.NewFramePacer(e.window, e.pacerOptions...)
	e.clock = pacer.NewFrameClock(e.pacer.Now())

	e.window.SetResizeCallback(func(width, height int) {
		e.log.Debug("framebuffer resized", "width", width, "height", height)
	})
	e.window.SetFocusCallback(func(focused bool) {
		e.log.Debug("focus changed", "focused", focused)
	})
	e.window.SetKeyDownCallback(e.handleKeyDown)

	e.terminal.SetEmbedded(e.embedded)
	e.terminal.ToggleVisibility()

	e.initialized = true
	e.log.Info("engine initialized",
		"backend", e.backend.Type().String(),
		"font", e.font.Name(),
		"fontDefault", e.font.IsDefault(),
		"fontSize", e.font.PixelSize(),
		"glyphs", e.font.GlyphCount(),
		"width", width,
		"height", height,
	)
	return nil
}

func (e *engine) Run() (err error) {
	if !e.initialized {
		return ErrNotInitialized
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("render loop recovered from panic", "panic", r)
			err = fmt.Errorf("render loop panic: %v", r)
		}
	}()

	for !e.window.ShouldClose() {
		e.Frame()
	}
	e.log.Info("window closed", "frames", e.clock.Frame())
	return nil
}

func (e *engine) Frame() {
	if !e.initialized {
		return
	}
	frameStart := e.pacer.Now()
	e.pacer.PollOrWait(e.window.Focused())

	if fps, ok := e.clock.Tick(frameStart); ok && e.profilingEnabled {
		e.profiler.Report(fps)
	}

	width, height := e.window.FramebufferSize()
	if width > 0 && height > 0 {
		if err := e.renderer.EnsureCaptureTarget(width, height); err != nil {
			panic(err)
		}

		e.framework.NewFrame()
		e.renderer.BeginDefaultTarget(width, height)
		e.terminal.Render()
		e.framework.Render()

		e.renderer.CaptureFrame()
		if target, ok := e.renderer.CaptureTarget(); ok {
			e.effect.DrawEffect(target.Texture, e.window.Time(), width, height)
		}
		e.window.SwapBuffers()
	}

	if e.frameCallback != nil {
		e.frameCallback(e.clock.Frame())
	}
	e.pacer.PaceFrame(frameStart)
}

// handleKeyDown applies the window-level key bindings. Unbound keys are left to the UI framework.
func (e *engine) handleKeyDown(keyCode uint32) {
	switch keyCode {
	case 0:
	case e.keys.Quit:
		e.Quit()
	case e.keys.ToggleTerminal:
		e.terminal.ToggleVisibility()
		e.log.Debug("terminal visibility toggled", "visible", e.terminal.Visible())
	case e.keys.ToggleEmbedded:
		e.embedded = !e.embedded
		e.terminal.SetEmbedded(e.embedded)
		e.log.Debug("terminal embedding toggled", "embedded", e.embedded)
	}
}

func (e *engine) Quit() {
	if e.window != nil {
		e.window.SetShouldClose(true)
	}
}

func (e *engine) Destroy() {
	if e.effect != nil {
		e.effect.Destroy()
		e.effect = nil
	}
	if e.shader != nil {
		e.shader.Release()
		e.shader = nil
	}
	if e.renderer != nil {
		e.renderer.Destroy()
	}
	if e.ownsWindow && e.window != nil {
		if err := e.window.Close(); err != nil {
			e.log.Warn("failed to close window", "error", err)
		}
		e.ownsWindow = false
	}
	e.initialized = false
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Font() *font.Font {
	return e.font
}

func (e *engine) FrameCount() uint64 {
	if e.clock == nil {
		return 0
	}
	return e.clock.Frame()
}
