package window

import (
	"fmt"
	"time"
)

// Window owns the native window and its OpenGL context.
// All GPU work elsewhere in the engine assumes this window's context is current on the calling thread.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetFocusCallback sets the function called when the window gains or loses input focus.
	//
	// Parameters:
	//   - callback: function receiving true when focus is gained, false when it is lost
	SetFocusCallback(callback func(focused bool))

	// SetKeyDownCallback sets the function called when a key is pressed or auto-repeats.
	//
	// Parameters:
	//   - callback: function receiving the key code, see the Key constants in package common
	SetKeyDownCallback(callback func(keyCode uint32))

	// ShouldClose reports whether the window system has requested the window to close.
	//
	// Returns:
	//   - bool: true once a close request has been raised
	ShouldClose() bool

	// SetShouldClose raises or clears the close request.
	//
	// Parameters:
	//   - value: true to request the window to close
	SetShouldClose(value bool)

	// Close destroys the window and terminates the windowing subsystem.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error

	// PollEvents processes pending window events without blocking.
	PollEvents()

	// WaitEventsTimeout blocks until an event arrives or the timeout elapses, then processes pending events.
	//
	// Parameters:
	//   - timeout: the longest time to block
	WaitEventsTimeout(timeout time.Duration)

	// ConsumeRedrawRequest reports whether the OS asked for a repaint since the last call and clears the request.
	//
	// Returns:
	//   - bool: true if a redraw was requested
	ConsumeRedrawRequest() bool

	// SwapBuffers presents the back buffer.
	SwapBuffers()

	// FramebufferSize queries the current framebuffer size directly from the window system.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	FramebufferSize() (int, int)

	// Width returns the last observed framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the last observed framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// Focused reports whether the window currently has input focus.
	//
	// Returns:
	//   - bool: true if focused
	Focused() bool

	// Time returns the seconds elapsed since the windowing subsystem was initialized.
	//
	// Returns:
	//   - float64: elapsed seconds
	Time() float64
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth and maxHeight bound the window size during resize. Zero leaves the bound unset.
	maxWidth  int
	maxHeight int

	// minWidth and minHeight bound the window size during resize. Zero leaves the bound unset.
	minWidth  int
	minHeight int

	// width and height are the current framebuffer size in pixels.
	width  int
	height int

	// focused tracks input focus as reported by the window system.
	focused bool

	// resizable controls whether the user may resize the window.
	resizable bool

	// swapInterval is the number of vertical blanks to wait per buffer swap (1 = vsync).
	swapInterval int

	// contextMajor and contextMinor are the minimum OpenGL context version requested.
	contextMajor int
	contextMinor int

	// redrawRequested is set by the refresh callback and cleared by ConsumeRedrawRequest.
	redrawRequested bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)

	// onFocus is called when input focus changes.
	onFocus func(focused bool)

	// onKeyDown is called when a key is pressed.
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates the window and makes its OpenGL context current on the calling thread.
// Applies default values first, then each option in order. There is no degraded mode: any failure
// here leaves the process without a context and should be treated as fatal by the caller.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: error if the windowing subsystem, the window, or its context could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

// newEngineWindow applies defaults and options without touching the window system.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:        "TERD",
		width:        1200,
		height:       750,
		focused:      true,
		resizable:    true,
		swapInterval: 1,
		contextMajor: 3,
		contextMinor: 3,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetFocusCallback(callback func(focused bool)) {
	w.onFocus = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) ShouldClose() bool {
	return platformShouldClose(w)
}

func (w *engineWindow) SetShouldClose(value bool) {
	platformSetShouldClose(w, value)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) PollEvents() {
	platformPollEvents()
}

func (w *engineWindow) WaitEventsTimeout(timeout time.Duration) {
	platformWaitEventsTimeout(timeout)
}

func (w *engineWindow) ConsumeRedrawRequest() bool {
	requested := w.redrawRequested
	w.redrawRequested = false
	return requested
}

func (w *engineWindow) SwapBuffers() {
	platformSwapBuffers(w)
}

func (w *engineWindow) FramebufferSize() (int, int) {
	return platformFramebufferSize(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) Focused() bool {
	return platformFocused(w)
}

func (w *engineWindow) Time() float64 {
	return platformTime()
}

// handleResize records the new framebuffer size and forwards it to the resize callback.
func (w *engineWindow) handleResize(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// handleFocus records the focus state and forwards it to the focus callback.
func (w *engineWindow) handleFocus(focused bool) {
	w.focused = focused
	if w.onFocus != nil {
		w.onFocus(focused)
	}
}

// handleKeyDown forwards a key press to the key callback.
func (w *engineWindow) handleKeyDown(keyCode uint32) {
	if w.onKeyDown != nil {
		w.onKeyDown(keyCode)
	}
}

// handleRefresh marks a pending redraw. The platform layer also wakes any blocked event wait.
func (w *engineWindow) handleRefresh() {
	w.redrawRequested = true
}
