// Package ui defines what the engine expects from the immediate-mode UI framework and the terminal
// widget drawn with it. The engine only drives the per-frame entry points; layout, input and
// terminal emulation belong to the implementations.
package ui

import (
	"image/color"

	"github.com/Carmen-Shannon/oxy-term/engine/font"
)

// WindowBackground is the background color of UI windows, a dark bluish grey.
var WindowBackground = [4]float32{0.12, 0.15, 0.20, 1.0}

// WindowBackgroundRGBA returns WindowBackground as an 8-bit color.
func WindowBackgroundRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(WindowBackground[0]*255 + 0.5),
		G: uint8(WindowBackground[1]*255 + 0.5),
		B: uint8(WindowBackground[2]*255 + 0.5),
		A: uint8(WindowBackground[3]*255 + 0.5),
	}
}

// Framework is the immediate-mode UI framework that records draw commands each frame and
// executes them into the bound framebuffer.
type Framework interface {
	// NewFrame starts recording a frame.
	NewFrame()

	// Render executes the recorded frame into the currently bound framebuffer.
	Render()

	// SetFont makes the font the default for every widget.
	//
	// Parameters:
	//   - f: the font handle, never nil
	SetFont(f *font.Font)
}

// Terminal is the terminal widget. Render must be called between Framework.NewFrame and Framework.Render.
type Terminal interface {
	// Render draws the terminal for the current frame.
	Render()

	// ToggleVisibility shows a hidden terminal or hides a visible one.
	ToggleVisibility()

	// SetEmbedded controls whether the terminal fills the host window instead of floating.
	//
	// Parameters:
	//   - embedded: true to fill the host window
	SetEmbedded(embedded bool)

	// Visible reports whether the terminal draws anything.
	Visible() bool
}

// FontConsumer is implemented by terminals that render text themselves and need the active font.
type FontConsumer interface {
	SetFont(f *font.Font)
}

// NopFramework is a Framework that records and draws nothing.
type NopFramework struct {
	Frames int
	Font   *font.Font
}

var _ Framework = &NopFramework{}

func (n *NopFramework) NewFrame() {
	n.Frames++
}

func (n *NopFramework) Render() {}

func (n *NopFramework) SetFont(f *font.Font) {
	n.Font = f
}

// NopTerminal is a Terminal that only tracks its state.
type NopTerminal struct {
	Renders  int
	visible  bool
	embedded bool
}

var _ Terminal = &NopTerminal{}

func (n *NopTerminal) Render() {
	if n.visible {
		n.Renders++
	}
}

func (n *NopTerminal) ToggleVisibility() {
	n.visible = !n.visible
}

func (n *NopTerminal) SetEmbedded(embedded bool) {
	n.embedded = embedded
}

func (n *NopTerminal) Visible() bool {
	return n.visible
}

// Embedded reports the last value passed to SetEmbedded.
func (n *NopTerminal) Embedded() bool {
	return n.embedded
}
