package termrender

import "image/color"

// Palette256 is the standard 256-color palette: 16 named colors (0-15),
// 216 color cube (16-231), 24 grayscale (232-255).
var Palette256 = [256]color.RGBA{
	// Standard colors (0-7)
	{0, 0, 0, 255},       // Black
	{205, 49, 49, 255},   // Red
	{13, 188, 121, 255},  // Green
	{229, 229, 16, 255},  // Yellow
	{36, 114, 200, 255},  // Blue
	{188, 63, 188, 255},  // Magenta
	{17, 168, 205, 255},  // Cyan
	{229, 229, 229, 255}, // White

	// Bright colors (8-15)
	{102, 102, 102, 255}, // Bright Black
	{241, 76, 76, 255},   // Bright Red
	{35, 209, 139, 255},  // Bright Green
	{245, 245, 67, 255},  // Bright Yellow
	{59, 142, 234, 255},  // Bright Blue
	{214, 112, 214, 255}, // Bright Magenta
	{41, 184, 219, 255},  // Bright Cyan
	{255, 255, 255, 255}, // Bright White

	// 16-231 (color cube) and 232-255 (grayscale) are generated in init.
}

func init() {
	// Generate 216 color cube (16-231)
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				Palette256[i] = color.RGBA{
					R: uint8(r * 51),
					G: uint8(g * 51),
					B: uint8(b * 51),
					A: 255,
				}
				i++
			}
		}
	}

	// Generate grayscale (232-255)
	for j := 0; j < 24; j++ {
		gray := uint8(8 + j*10)
		Palette256[232+j] = color.RGBA{gray, gray, gray, 255}
	}
}

// DefaultForeground is the default text color (light gray).
var DefaultForeground = color.RGBA{229, 229, 229, 255}

// DefaultBackground is the default background color (black).
var DefaultBackground = color.RGBA{0, 0, 0, 255}

// DefaultCursorColor is the default cursor overlay color (light gray).
var DefaultCursorColor = color.RGBA{229, 229, 229, 255}

// RGBA8 resolves the color to a concrete RGBA value using Palette256.
// fg selects which default the ColorDefault mode resolves to.
func (c Color) RGBA8(fg bool) color.RGBA {
	switch c.Mode {
	case ColorBasic, ColorIndexed:
		return Palette256[c.Index]
	case ColorRGB:
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	default:
		if fg {
			return DefaultForeground
		}
		return DefaultBackground
	}
}

// resolveAttrColors returns the effective foreground and background of a
// cell, honoring reverse video and bold brightening of basic colors.
func resolveAttrColors(a Attr) (fg, bg color.RGBA) {
	fgc, bgc := a.Fg, a.Bg
	if a.HasFlag(StyleReverse) {
		fgc, bgc = bgc, fgc
	}
	// Bold promotes basic colors 0-7 to their bright variants.
	if a.HasFlag(StyleBold) && fgc.Mode == ColorBasic && fgc.Index < 8 {
		fgc.Index += 8
	}
	return fgc.RGBA8(true), bgc.RGBA8(false)
}
