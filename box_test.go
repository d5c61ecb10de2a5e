package termrender

import (
	"testing"
)

func TestDrawBoxSingle(t *testing.T) {
	s := NewGridScreen()
	border := Attr{Fg: BasicColor(7), Bg: BasicColor(4)}
	fill := Attr{Fg: BasicColor(0), Bg: BasicColor(4)}

	s.DrawBox(2, 2, 10, 6, border, fill, BoxSingle, false)

	corners := map[[2]int]rune{
		{2, 2}: '┌', {10, 2}: '┐',
		{2, 6}: '└', {10, 6}: '┘',
	}
	for pos, want := range corners {
		if got := s.CharAt(pos[0], pos[1]); got != want {
			t.Errorf("corner (%d,%d): expected %q, got %q", pos[0], pos[1], want, got)
		}
	}
	if s.CharAt(5, 2) != '─' || s.CharAt(5, 6) != '─' {
		t.Error("expected horizontal edges")
	}
	if s.CharAt(2, 4) != '│' || s.CharAt(10, 4) != '│' {
		t.Error("expected vertical edges")
	}
	if s.AttrAt(2, 2) != border {
		t.Error("expected border attr on frame")
	}
}

func TestDrawBoxStyles(t *testing.T) {
	tests := []struct {
		style  BoxStyle
		tl, tr rune
		bl, br rune
		h, v   rune
	}{
		{BoxSingle, '┌', '┐', '└', '┘', '─', '│'},
		{BoxDouble, '╔', '╗', '╚', '╝', '═', '║'},
		{BoxMixed, '╒', '╕', '╘', '╛', '═', '│'},
	}

	for _, tt := range tests {
		s := NewGridScreen()
		s.DrawBox(0, 0, 4, 4, DefaultAttr, DefaultAttr, tt.style, false)

		if s.CharAt(0, 0) != tt.tl || s.CharAt(4, 0) != tt.tr {
			t.Errorf("style %d: unexpected top corners %q %q", tt.style, s.CharAt(0, 0), s.CharAt(4, 0))
		}
		if s.CharAt(0, 4) != tt.bl || s.CharAt(4, 4) != tt.br {
			t.Errorf("style %d: unexpected bottom corners %q %q", tt.style, s.CharAt(0, 4), s.CharAt(4, 4))
		}
		if s.CharAt(2, 0) != tt.h {
			t.Errorf("style %d: expected horizontal %q, got %q", tt.style, tt.h, s.CharAt(2, 0))
		}
		if s.CharAt(0, 2) != tt.v {
			t.Errorf("style %d: expected vertical %q, got %q", tt.style, tt.v, s.CharAt(0, 2))
		}
	}
}

func TestDrawBoxInteriorKeepsGlyphs(t *testing.T) {
	s := NewGridScreen()
	s.PutChar(5, 4, 'Q', DefaultAttr)
	fill := Attr{Fg: BasicColor(0), Bg: BasicColor(4)}

	s.DrawBox(2, 2, 10, 6, DefaultAttr, fill, BoxSingle, false)

	// The interior takes the background attribute but keeps its content.
	if s.CharAt(5, 4) != 'Q' {
		t.Errorf("expected interior glyph preserved, got %q", s.CharAt(5, 4))
	}
	if s.AttrAt(5, 4) != fill {
		t.Errorf("expected fill attr in interior, got %+v", s.AttrAt(5, 4))
	}
}

func TestDrawBoxDegenerate(t *testing.T) {
	s := NewGridScreen()
	s.Flush(nil)
	s.DrawBox(5, 5, 5, 8, DefaultAttr, DefaultAttr, BoxSingle, false)
	s.DrawBox(5, 5, 8, 5, DefaultAttr, DefaultAttr, BoxSingle, false)
	if s.IsDirty() {
		t.Error("expected degenerate boxes to draw nothing")
	}
}

func TestDrawBoxShadowBypassesClip(t *testing.T) {
	s := NewGridScreen()
	shadowAttr := Attr{Fg: BasicColor(3), Bg: BasicColor(4)}
	// Pre-paint the cells the shadow will land on with non-default attrs.
	for y := 0; y <= 8; y++ {
		for x := 0; x <= 12; x++ {
			s.PutAttr(x, y, shadowAttr)
		}
	}

	// Clip tight around the box; the shadow falls outside it.
	s.SetClip(Rect{Left: 2, Top: 2, Right: 11, Bottom: 7})
	s.DrawBox(2, 2, 10, 6, DefaultAttr, DefaultAttr, BoxSingle, true)

	// Right strip at x=11, rows 3..7 and bottom strip at y=7, cols 3..11:
	// default attributes despite the clip rectangle.
	if s.CellAt(11, 4).Attr != DefaultAttr {
		t.Errorf("expected shadow right strip to bypass clip, got %+v", s.CellAt(11, 4).Attr)
	}
	if s.CellAt(5, 7).Attr != DefaultAttr {
		t.Errorf("expected shadow bottom strip to bypass clip, got %+v", s.CellAt(5, 7).Attr)
	}
	// The shadow does not reach above its L-shape.
	if s.CellAt(11, 2).Attr != shadowAttr {
		t.Errorf("expected no shadow at (11,2), got %+v", s.CellAt(11, 2).Attr)
	}
}

func TestDrawBoxShadowHonorsOffset(t *testing.T) {
	s := NewGridScreen()
	s.SetOffset(20, 10)
	other := Attr{Fg: BasicColor(1), Bg: BasicColor(5)}
	s.PutAttr(5, 2, other)

	s.DrawBox(0, 0, 4, 3, DefaultAttr, DefaultAttr, BoxSingle, true)

	// Box frame translated by the offset.
	if s.CellAt(20, 10).Rune != '┌' {
		t.Errorf("expected translated corner, got %q", s.CellAt(20, 10).Rune)
	}
	// Shadow strip translated too: (5,2) lands at (25,12).
	if s.CellAt(25, 12).Attr != DefaultAttr {
		t.Errorf("expected translated shadow strip, got %+v", s.CellAt(25, 12).Attr)
	}
}
