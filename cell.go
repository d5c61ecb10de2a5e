package termrender

// StyleFlags is a bitmask of cell rendering attributes.
type StyleFlags uint8

const (
	StyleBold StyleFlags = 1 << iota
	StyleBlink
	StyleUnderline
	StyleReverse
	// StyleDoubleWidthLeft marks the first column of a wide character.
	StyleDoubleWidthLeft
	// StyleDoubleWidthRight marks the spacer column of a wide character
	// (skipped during rendering).
	StyleDoubleWidthRight
)

// ColorMode selects which color representation is active in a Color.
// Exactly one mode is active at a time.
type ColorMode uint8

const (
	// ColorDefault resolves to the default foreground or background.
	ColorDefault ColorMode = iota
	// ColorBasic is one of the 16 standard terminal colors (index 0-15).
	ColorBasic
	// ColorIndexed is a 256-color palette index.
	ColorIndexed
	// ColorRGB is a 24-bit truecolor value.
	ColorRGB
)

// Color is a compact terminal color value. Only the fields belonging to the
// active Mode are meaningful; the constructors below zero the rest so that
// two colors compare equal with == exactly when they denote the same color.
type Color struct {
	Mode  ColorMode
	Index uint8 // ColorBasic (0-15) or ColorIndexed (0-255)
	R     uint8 // ColorRGB
	G     uint8
	B     uint8
}

// BasicColor returns one of the 16 standard colors. Index is masked to 0-15.
func BasicColor(index uint8) Color {
	return Color{Mode: ColorBasic, Index: index & 0x0f}
}

// IndexedColor returns a 256-color palette color.
func IndexedColor(index uint8) Color {
	return Color{Mode: ColorIndexed, Index: index}
}

// RGBColor returns a 24-bit truecolor value.
func RGBColor(r, g, b uint8) Color {
	return Color{Mode: ColorRGB, R: r, G: g, B: b}
}

// Attr bundles the colors and style flags applied to a cell.
type Attr struct {
	Fg    Color
	Bg    Color
	Flags StyleFlags
}

// DefaultAttr is the reset state of the grid: white text on black.
var DefaultAttr = Attr{Fg: BasicColor(7), Bg: BasicColor(0)}

// HasFlag returns true if the specified style flag is set.
func (a Attr) HasFlag(flag StyleFlags) bool {
	return a.Flags&flag != 0
}

// WithFlag returns a copy of the attribute with the flag enabled.
func (a Attr) WithFlag(flag StyleFlags) Attr {
	a.Flags |= flag
	return a
}

// CellImage identifies the bitmap fragment displayed in place of a glyph.
// The backend resolves ID against its image store; U/V are normalized
// texture coordinates of the fragment within that image.
type CellImage struct {
	ID             uint32
	U0, V0, U1, V1 float32
}

// Cell is one character-and-attributes unit of the screen grid. Wide
// characters occupy two cells: the glyph cell carries StyleDoubleWidthLeft
// and the following spacer carries StyleDoubleWidthRight. If Image is
// non-nil the cell shows a bitmap fragment instead of the glyph.
//
// Cells are plain values; two cells are equal iff all fields match.
type Cell struct {
	Rune  rune
	Attr  Attr
	Image *CellImage
}

// NewCell returns a blank cell: space character, default attributes.
func NewCell() Cell {
	return Cell{Rune: ' ', Attr: DefaultAttr}
}

// IsWideSpacer returns true if this is the second cell of a wide character.
func (c Cell) IsWideSpacer() bool {
	return c.Attr.HasFlag(StyleDoubleWidthRight)
}

// HasImage returns true if this cell shows a bitmap fragment.
func (c Cell) HasImage() bool {
	return c.Image != nil
}

// sanitizeRune replaces control characters with a space. Grid cells never
// store codepoints below 0x20 or DEL.
func sanitizeRune(r rune) rune {
	if r < 0x20 || r == 0x7f {
		return ' '
	}
	return r
}
