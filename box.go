package termrender

// BoxStyle selects the frame glyph set used by DrawBox.
type BoxStyle int

const (
	// BoxSingle draws single-line frames.
	BoxSingle BoxStyle = iota
	// BoxDouble draws double-line frames.
	BoxDouble
	// BoxMixed draws double-line top/bottom edges with single-line sides.
	BoxMixed
)

// boxGlyphs holds the frame runes for one style: corners clockwise from
// top-left, then the horizontal and vertical edge runes.
type boxGlyphs struct {
	tl, tr, br, bl rune
	h, v           rune
}

var boxStyles = [...]boxGlyphs{
	BoxSingle: {'┌', '┐', '┘', '└', '─', '│'},
	BoxDouble: {'╔', '╗', '╝', '╚', '═', '║'},
	BoxMixed:  {'╒', '╕', '╛', '╘', '═', '│'},
}

// DrawBox draws a frame with inclusive corners (left, top) and (right,
// bottom) using border for the frame, fills the interior cells' attributes
// with fill, and optionally paints a drop shadow. The interior keeps its
// glyphs; callers wanting a blank interior write spaces over it first.
// Degenerate rectangles are ignored. Drawing goes through the normal
// clip/offset transform; only the shadow bypasses the clip rectangle.
func (s *GridScreen) DrawBox(left, top, right, bottom int, border, fill Attr, style BoxStyle, shadow bool) {
	if right <= left || bottom <= top {
		return
	}
	g := boxStyles[BoxSingle]
	if int(style) >= 0 && int(style) < len(boxStyles) {
		g = boxStyles[style]
	}

	s.PutChar(left, top, g.tl, border)
	s.PutChar(right, top, g.tr, border)
	s.PutChar(left, bottom, g.bl, border)
	s.PutChar(right, bottom, g.br, border)

	for x := left + 1; x < right; x++ {
		s.PutChar(x, top, g.h, border)
		s.PutChar(x, bottom, g.h, border)
	}
	for y := top + 1; y < bottom; y++ {
		s.PutChar(left, y, g.v, border)
		s.PutChar(right, y, g.v, border)
	}

	// Interior keeps its glyphs; only the attributes change.
	for y := top + 1; y < bottom; y++ {
		for x := left + 1; x < right; x++ {
			s.PutAttr(x, y, fill)
		}
	}

	if shadow {
		s.drawBoxShadow(left, top, right, bottom)
	}
}

// drawBoxShadow paints the 1-cell-wide, 1-row-tall L-shape offset below and
// to the right of the box, restoring default attributes so underlying
// content reads as shadowed. It bypasses the clip rectangle (a shadow must
// stay visible when its box straddles a clip boundary) but still honors the
// draw offset.
func (s *GridScreen) drawBoxShadow(left, top, right, bottom int) {
	for y := top + 1; y <= bottom+1; y++ {
		s.putAttrUnclipped(right+1, y, DefaultAttr)
	}
	for x := left + 1; x <= right; x++ {
		s.putAttrUnclipped(x, bottom+1, DefaultAttr)
	}
}

// putAttrUnclipped applies the draw offset and grid bounds check but skips
// the clip rectangle.
func (s *GridScreen) putAttrUnclipped(x, y int, attr Attr) {
	px, py := x+s.offsetX, y+s.offsetY
	if px < 0 || px >= s.width || py < 0 || py >= s.height {
		return
	}
	c := s.logical[py][px]
	c.Attr = attr
	s.put(px, py, c)
}
