package common

// Virtual key codes delivered by Window key callbacks.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA      = 65 // A key (ASCII)
	KeyEscape = 256
	KeyF1     = 290
	KeyF11    = 300
)

// KeyBindings maps the host's window-level actions onto keys. Every other key belongs to the terminal.
type KeyBindings struct {
	// Quit requests the window to close.
	Quit uint32

	// ToggleTerminal shows or hides the terminal.
	ToggleTerminal uint32

	// ToggleEmbedded switches the terminal between filling the window and floating.
	ToggleEmbedded uint32
}

// DefaultKeyBindings returns Escape to quit, F1 to toggle the terminal and F11 to toggle embedding.
//
// Returns:
//   - KeyBindings: the default bindings
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Quit:           KeyEscape,
		ToggleTerminal: KeyF1,
		ToggleEmbedded: KeyF11,
	}
}
