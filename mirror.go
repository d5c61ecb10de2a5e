package termrender

import "sync"

// MirrorScreen fans every operation out to an ordered collection of member
// screens, keeping them in sync. It is the component used for shared
// sessions, where each mirrored viewer may drive its member from its own
// backend goroutine: one mutex guards the member slice and every public
// operation acquires it uniformly.
//
// Dimension queries return the minimum across members so a logical write is
// never addressed past what the smallest member can hold. Selection queries
// are serviced by the first member, whose content is canonical (all members
// receive identical writes).
type MirrorScreen struct {
	mu      sync.Mutex
	screens []Screen
}

var _ Screen = (*MirrorScreen)(nil)

// NewMirrorScreen creates a mirror over one or more member screens.
func NewMirrorScreen(primary Screen, others ...Screen) *MirrorScreen {
	return &MirrorScreen{screens: append([]Screen{primary}, others...)}
}

// AddScreen appends a member. The new member is fully invalidated so its
// first flush repaints everything.
func (m *MirrorScreen) AddScreen(s Screen) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.InvalidateAll()
	m.screens = append(m.screens, s)
}

// RemoveScreen detaches a member. Removal is refused (returns false) when
// it would leave the mirror without members.
func (m *MirrorScreen) RemoveScreen(s Screen) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.screens) <= 1 {
		return false
	}
	for i, member := range m.screens {
		if member == s {
			m.screens = append(m.screens[:i], m.screens[i+1:]...)
			return true
		}
	}
	return false
}

// Screens returns a snapshot of the current members.
func (m *MirrorScreen) Screens() []Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Screen, len(m.screens))
	copy(out, m.screens)
	return out
}

// Width returns the minimum width across members.
func (m *MirrorScreen) Width() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.screens[0].Width()
	for _, s := range m.screens[1:] {
		if sw := s.Width(); sw < w {
			w = sw
		}
	}
	return w
}

// Height returns the minimum height across members.
func (m *MirrorScreen) Height() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.screens[0].Height()
	for _, s := range m.screens[1:] {
		if sh := s.Height(); sh < h {
			h = sh
		}
	}
	return h
}

// SetSize resizes only the members whose size differs from the request.
// Members already at the requested size keep their buffers and are told to
// fully invalidate instead, so one viewer's resize does not blow away
// another's buffer, yet all repaint to stay consistent.
func (m *MirrorScreen) SetSize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		if s.Width() == width && s.Height() == height {
			s.InvalidateAll()
		} else {
			s.SetSize(width, height)
		}
	}
}

// Reset resets every member.
func (m *MirrorScreen) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.Reset()
	}
}

// SetClip broadcasts the clip rectangle to every member.
func (m *MirrorScreen) SetClip(r Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.SetClip(r)
	}
}

// ClearClip restores the full clip rectangle on every member.
func (m *MirrorScreen) ClearClip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.ClearClip()
	}
}

// Clip returns the first member's clip rectangle.
func (m *MirrorScreen) Clip() Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[0].Clip()
}

// SetOffset broadcasts the draw offset to every member.
func (m *MirrorScreen) SetOffset(dx, dy int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.SetOffset(dx, dy)
	}
}

// Offset returns the first member's draw offset.
func (m *MirrorScreen) Offset() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[0].Offset()
}

// PutChar broadcasts a glyph write to every member.
func (m *MirrorScreen) PutChar(x, y int, r rune, attr Attr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.PutChar(x, y, r, attr)
	}
}

// PutAttr broadcasts an attribute write to every member.
func (m *MirrorScreen) PutAttr(x, y int, attr Attr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.PutAttr(x, y, attr)
	}
}

// PutString broadcasts a string write to every member.
func (m *MirrorScreen) PutString(x, y int, str string, attr Attr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.PutString(x, y, str, attr)
	}
}

// PutImage broadcasts an image fragment write to every member.
func (m *MirrorScreen) PutImage(x, y int, img *CellImage, attr Attr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.PutImage(x, y, img, attr)
	}
}

// CharAt reads from the first member.
func (m *MirrorScreen) CharAt(x, y int) rune {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[0].CharAt(x, y)
}

// AttrAt reads from the first member.
func (m *MirrorScreen) AttrAt(x, y int) Attr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[0].AttrAt(x, y)
}

// CellAt reads from the first member.
func (m *MirrorScreen) CellAt(x, y int) Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[0].CellAt(x, y)
}

// PutCursor broadcasts cursor state to every member.
func (m *MirrorScreen) PutCursor(visible bool, x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.PutCursor(visible, x, y)
	}
}

// Cursor returns the first member's cursor state.
func (m *MirrorScreen) Cursor() (bool, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[0].Cursor()
}

// DrawBox broadcasts a box draw to every member.
func (m *MirrorScreen) DrawBox(left, top, right, bottom int, border, fill Attr, style BoxStyle, shadow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.DrawBox(left, top, right, bottom, border, fill, style, shadow)
	}
}

// IsDirty returns true if any member must repaint.
func (m *MirrorScreen) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		if s.IsDirty() {
			return true
		}
	}
	return false
}

// Flush reconciles every member. Dirty cells are reported from the first
// member, whose content defines the canonical view; backends that render
// each viewer separately flush their member screens directly instead.
func (m *MirrorScreen) Flush(visit func(x, y int, c Cell)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screens[0].Flush(visit)
	for _, s := range m.screens[1:] {
		s.Flush(nil)
	}
}

// InvalidateAll forces a full repaint on every member.
func (m *MirrorScreen) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.screens {
		s.InvalidateAll()
	}
}

// SelectionText extracts text from the first member.
func (m *MirrorScreen) SelectionText(r Rect) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[0].SelectionText(r)
}
