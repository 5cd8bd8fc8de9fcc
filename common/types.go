// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// TextureFormat identifies the channel layout of staged texture pixels.
type TextureFormat int

const (
	// TextureFormatAlpha is a single 8-bit coverage channel per pixel, used for glyph atlases.
	TextureFormatAlpha TextureFormat = iota

	// TextureFormatRGBA is four 8-bit channels per pixel.
	TextureFormatRGBA
)

// TextureStagingData holds pixel data for a texture pending GPU upload.
// The font atlas is staged this way before the renderer backend creates the GPU texture.
type TextureStagingData struct {
	// Pixels is the tightly packed pixel data, row-major, top row first.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Format describes how many bytes each pixel occupies in Pixels.
	Format TextureFormat
}

// BytesPerPixel returns the number of bytes a single pixel occupies for the staged format.
//
// Returns:
//   - int: 1 for TextureFormatAlpha, 4 for TextureFormatRGBA
func (t TextureStagingData) BytesPerPixel() int {
	if t.Format == TextureFormatRGBA {
		return 4
	}
	return 1
}

// Valid reports whether the staged pixel slice matches the declared dimensions.
//
// Returns:
//   - bool: true if the texture is non-empty and len(Pixels) == Width*Height*BytesPerPixel
func (t TextureStagingData) Valid() bool {
	if t.Width == 0 || t.Height == 0 {
		return false
	}
	return len(t.Pixels) == int(t.Width)*int(t.Height)*t.BytesPerPixel()
}
