package window

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-term/common"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent *engineWindow
	window *glfw.Window
}

// newPlatformWindow initializes GLFW, creates the window with an OpenGL core-profile context,
// makes that context current and registers the window callbacks.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	// The context, the event queue and every GL call must stay on one OS thread.
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ContextVersionMajor, w.contextMajor)
	glfw.WindowHint(glfw.ContextVersionMinor, w.contextMinor)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if runtime.GOOS == "darwin" {
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}
	if w.resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}

	win.MakeContextCurrent()
	glfw.SwapInterval(w.swapInterval)

	win.SetSizeLimits(sizeLimit(w.minWidth), sizeLimit(w.minHeight), sizeLimit(w.maxWidth), sizeLimit(w.maxHeight))

	gw := &glfwWindow{
		parent: w,
		window: win,
	}
	w.internalWindow = gw

	// A repaint request from the OS (window drag, live resize) posts an empty event so that a
	// blocked WaitEventsTimeout returns immediately and the loop redraws instead of stalling.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetRefreshCallback
	win.SetRefreshCallback(func(_ *glfw.Window) {
		w.handleRefresh()
		glfw.PostEmptyEvent()
	})

	// Use framebuffer size callback for pixel-accurate resize events.
	// On high-DPI displays (e.g., macOS Retina), framebuffer size differs from window size.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.handleResize(width, height)
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFocusCallback
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		w.handleFocus(focused)
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyUnknown || action == glfw.Release {
			return
		}
		w.handleKeyDown(uint32(key))
	})

	// Update stored dimensions to reflect actual framebuffer size (may differ from requested on high-DPI).
	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight
	w.focused = win.GetAttrib(glfw.Focused) == glfw.True

	common.Logger().Info("window created",
		"title", w.title,
		"width", fbWidth,
		"height", fbHeight,
		"gl", fmt.Sprintf("%d.%d core", w.contextMajor, w.contextMinor),
		"swapInterval", w.swapInterval,
	)

	return nil
}

// sizeLimit maps an unset (zero) size bound to glfw.DontCare.
func sizeLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

// platformWindow returns the GLFW window or nil if the window was never created.
func platformWindow(w *engineWindow) *glfw.Window {
	if w.internalWindow == nil {
		return nil
	}
	return w.internalWindow.(*glfwWindow).window
}

// platformShouldClose returns true if the window is missing or GLFW reports a close request.
func platformShouldClose(w *engineWindow) bool {
	win := platformWindow(w)
	if win == nil {
		return true
	}
	return win.ShouldClose()
}

// platformSetShouldClose raises or clears the GLFW close flag.
func platformSetShouldClose(w *engineWindow, value bool) {
	if win := platformWindow(w); win != nil {
		win.SetShouldClose(value)
	}
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
// Returns an error if the internal window has not been initialized.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	win := platformWindow(w)
	if win == nil {
		return fmt.Errorf("window is not initialized")
	}
	win.SetShouldClose(true)
	win.Destroy()
	w.internalWindow = nil
	glfw.Terminate()
	return nil
}

// platformPollEvents processes pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformPollEvents() {
	glfw.PollEvents()
}

// platformWaitEventsTimeout blocks for at most timeout waiting for events.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#WaitEventsTimeout
func platformWaitEventsTimeout(timeout time.Duration) {
	glfw.WaitEventsTimeout(timeout.Seconds())
}

// platformSwapBuffers presents the back buffer of the window.
func platformSwapBuffers(w *engineWindow) {
	if win := platformWindow(w); win != nil {
		win.SwapBuffers()
	}
}

// platformFramebufferSize queries the live framebuffer size, falling back to the last observed size.
func platformFramebufferSize(w *engineWindow) (int, int) {
	win := platformWindow(w)
	if win == nil {
		return w.width, w.height
	}
	return win.GetFramebufferSize()
}

// platformFocused queries GLFW for the focus attribute, falling back to the last observed state.
func platformFocused(w *engineWindow) bool {
	win := platformWindow(w)
	if win == nil {
		return w.focused
	}
	return win.GetAttrib(glfw.Focused) == glfw.True
}

// platformTime returns the GLFW timer in seconds.
func platformTime() float64 {
	return glfw.GetTime()
}
