package termrender

const (
	// DefaultWidth is the default screen width in columns.
	DefaultWidth = 80
	// DefaultHeight is the default screen height in rows.
	DefaultHeight = 24
)

// Rect is a half-open cell rectangle: [Left, Right) x [Top, Bottom).
type Rect struct {
	Left, Top, Right, Bottom int
}

// Contains returns true if (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Empty returns true if the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Screen is the drawing surface shared by the grid-backed implementation
// and the fan-out mirror. Coordinates passed to drawing operations go
// through a two-stage transform: the unmodified point is tested against the
// clip rectangle, and only then is the draw offset added and the result
// bounds-checked against the grid. Writes failing either stage are silently
// dropped; partially visible widgets are normal, not errors.
type Screen interface {
	// Width and Height report the grid dimensions in cells.
	Width() int
	Height() int

	// SetSize destructively resizes the grid. All content is lost, clip
	// and offset are reset, and the next Flush repaints every cell.
	// Resizing to the current size is a no-op.
	SetSize(width, height int)

	// Reset clears the logical grid to blank cells with default
	// attributes, resets clip/offset, hides the cursor, and forces a full
	// repaint on the next Flush.
	Reset()

	// SetClip restricts subsequent drawing to r (pre-offset coordinates).
	// ClearClip restores the full-grid clip rectangle.
	SetClip(r Rect)
	ClearClip()
	Clip() Rect

	// SetOffset translates subsequent drawing by (dx, dy) after the clip
	// test.
	SetOffset(dx, dy int)
	Offset() (dx, dy int)

	// PutChar writes one glyph with attributes to the logical grid.
	// Control characters are stored as spaces.
	PutChar(x, y int, r rune, attr Attr)

	// PutAttr replaces the attributes of a cell, keeping its glyph.
	PutAttr(x, y int, attr Attr)

	// PutString writes a string left to right starting at (x, y). Wide
	// runes occupy two cells; the spacer cell is written automatically.
	PutString(x, y int, s string, attr Attr)

	// PutImage writes a bitmap fragment reference into a cell.
	PutImage(x, y int, img *CellImage, attr Attr)

	// CharAt and AttrAt read the logical grid through the draw offset
	// (the writer's view). The clip rectangle does not apply to reads.
	CharAt(x, y int) rune
	AttrAt(x, y int) Attr

	// CellAt reads the logical grid at raw grid coordinates (the
	// backend's view). Out-of-bounds reads return a blank cell.
	CellAt(x, y int) Cell

	// PutCursor updates cursor visibility and position. The cell the
	// cursor leaves is forced dirty so the overlay is erased on the next
	// Flush.
	PutCursor(visible bool, x, y int)
	Cursor() (visible bool, x, y int)

	// DrawBox draws a frame with inclusive corners (left, top) and
	// (right, bottom), fills the interior with fill, and optionally
	// paints a drop shadow. The interior fill changes attributes only;
	// callers wanting a blank interior write spaces over it first.
	DrawBox(left, top, right, bottom int, border, fill Attr, style BoxStyle, shadow bool)

	// IsDirty returns true if any logical cell differs from its physical
	// counterpart, any cell is forced dirty, or any cell blinks. Blinking
	// cells are unconditionally dirty every poll; the backend owns the
	// blink timer.
	IsDirty() bool

	// Flush reconciles the physical grid with the logical grid, invoking
	// visit (if non-nil) for every dirty cell at raw grid coordinates.
	Flush(visit func(x, y int, c Cell))

	// InvalidateAll forces a full repaint on the next Flush without
	// touching the logical grid.
	InvalidateAll()

	// SelectionText extracts the text inside r (raw grid coordinates),
	// one line per row with trailing blanks trimmed.
	SelectionText(r Rect) string
}

// GridScreen is the grid-backed Screen: a logical grid holding what should
// be shown and a physical grid holding what was last flushed. It performs
// no locking; the hot write path stays allocation-free and lock-free for
// the single-threaded case. Wrap it in a MirrorScreen (or external locking)
// when multiple goroutines draw concurrently.
type GridScreen struct {
	width  int
	height int

	logical  [][]Cell // [y][x]
	physical [][]Cell
	forced   [][]bool // physical cells that must repaint regardless of diff

	clip    Rect
	offsetX int
	offsetY int

	cursorVisible bool
	cursorX       int
	cursorY       int

	cleared bool // full repaint pending
}

var _ Screen = (*GridScreen)(nil)

// ScreenOption configures a GridScreen.
type ScreenOption func(*GridScreen)

// WithSize sets the initial grid dimensions.
func WithSize(width, height int) ScreenOption {
	return func(s *GridScreen) {
		if width > 0 && height > 0 {
			s.width = width
			s.height = height
		}
	}
}

// NewGridScreen creates a screen with a blank 80x24 grid unless WithSize
// overrides the dimensions.
func NewGridScreen(opts ...ScreenOption) *GridScreen {
	s := &GridScreen{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(s)
	}
	s.alloc()
	return s
}

func (s *GridScreen) alloc() {
	s.logical = newGrid(s.width, s.height)
	s.physical = newGrid(s.width, s.height)
	s.forced = make([][]bool, s.height)
	for y := range s.forced {
		s.forced[y] = make([]bool, s.width)
	}
	s.clip = Rect{0, 0, s.width, s.height}
	s.offsetX, s.offsetY = 0, 0
	s.cleared = true
}

func newGrid(width, height int) [][]Cell {
	g := make([][]Cell, height)
	for y := range g {
		g[y] = make([]Cell, width)
		for x := range g[y] {
			g[y][x] = NewCell()
		}
	}
	return g
}

// Width returns the grid width in columns.
func (s *GridScreen) Width() int { return s.width }

// Height returns the grid height in rows.
func (s *GridScreen) Height() int { return s.height }

// SetSize destructively reallocates both grids. Content is lost, clip and
// offset are reset, and the next Flush repaints everything. A call with the
// current dimensions is a no-op.
func (s *GridScreen) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == s.width && height == s.height {
		return
	}
	s.width = width
	s.height = height
	s.alloc()
}

// Reset blanks the logical grid and restores the initial drawing state.
func (s *GridScreen) Reset() {
	for y := range s.logical {
		for x := range s.logical[y] {
			s.logical[y][x] = NewCell()
		}
	}
	s.clip = Rect{0, 0, s.width, s.height}
	s.offsetX, s.offsetY = 0, 0
	s.cursorVisible = false
	s.cursorX, s.cursorY = 0, 0
	s.cleared = true
}

// SetClip restricts drawing to r. The rectangle is tested against the
// caller's unmodified coordinates, before the draw offset applies.
func (s *GridScreen) SetClip(r Rect) { s.clip = r }

// ClearClip restores the full-grid clip rectangle.
func (s *GridScreen) ClearClip() { s.clip = Rect{0, 0, s.width, s.height} }

// Clip returns the active clip rectangle.
func (s *GridScreen) Clip() Rect { return s.clip }

// SetOffset translates drawing by (dx, dy) after the clip test. Combined
// with SetClip this lets a caller clip to a sub-region while independently
// translating drawing into a different absolute position (scrolling
// viewports, floating windows).
func (s *GridScreen) SetOffset(dx, dy int) {
	s.offsetX, s.offsetY = dx, dy
}

// Offset returns the active draw offset.
func (s *GridScreen) Offset() (int, int) { return s.offsetX, s.offsetY }

// translate runs the two-stage transform: clip test on the unmodified
// point, then offset and grid bounds check. ok is false when the write must
// be dropped.
func (s *GridScreen) translate(x, y int) (px, py int, ok bool) {
	if !s.clip.Contains(x, y) {
		return 0, 0, false
	}
	px, py = x+s.offsetX, y+s.offsetY
	if px < 0 || px >= s.width || py < 0 || py >= s.height {
		return 0, 0, false
	}
	return px, py, true
}

// put stores a cell at translated grid coordinates and keeps the cursor
// overlay honest: a write landing on the cursor cell forces that cell to
// repaint even if the flush diff would otherwise skip it.
func (s *GridScreen) put(px, py int, c Cell) {
	s.logical[py][px] = c
	if s.cursorVisible && px == s.cursorX && py == s.cursorY {
		s.forced[py][px] = true
	}
}

// PutChar writes one glyph to the logical grid. Out-of-clip and
// out-of-grid writes are silently dropped.
func (s *GridScreen) PutChar(x, y int, r rune, attr Attr) {
	px, py, ok := s.translate(x, y)
	if !ok {
		return
	}
	s.put(px, py, Cell{Rune: sanitizeRune(r), Attr: attr})
}

// PutAttr replaces the attributes of a cell, keeping glyph and image.
func (s *GridScreen) PutAttr(x, y int, attr Attr) {
	px, py, ok := s.translate(x, y)
	if !ok {
		return
	}
	c := s.logical[py][px]
	c.Attr = attr
	s.put(px, py, c)
}

// PutString writes a string left to right. Wide runes take two cells: the
// glyph cell is flagged double-width-left and a spacer cell flagged
// double-width-right follows. Each cell is clipped independently.
func (s *GridScreen) PutString(x, y int, str string, attr Attr) {
	for _, r := range str {
		if IsWideRune(r) {
			s.PutChar(x, y, r, attr.WithFlag(StyleDoubleWidthLeft))
			s.PutChar(x+1, y, ' ', attr.WithFlag(StyleDoubleWidthRight))
			x += 2
			continue
		}
		s.PutChar(x, y, r, attr)
		x++
	}
}

// PutImage writes a bitmap fragment reference into a cell.
func (s *GridScreen) PutImage(x, y int, img *CellImage, attr Attr) {
	px, py, ok := s.translate(x, y)
	if !ok {
		return
	}
	s.put(px, py, Cell{Rune: ' ', Attr: attr, Image: img})
}

// CharAt reads the glyph at (x, y) through the draw offset.
func (s *GridScreen) CharAt(x, y int) rune {
	px, py := x+s.offsetX, y+s.offsetY
	if px < 0 || px >= s.width || py < 0 || py >= s.height {
		return ' '
	}
	return s.logical[py][px].Rune
}

// AttrAt reads the attributes at (x, y) through the draw offset.
func (s *GridScreen) AttrAt(x, y int) Attr {
	px, py := x+s.offsetX, y+s.offsetY
	if px < 0 || px >= s.width || py < 0 || py >= s.height {
		return DefaultAttr
	}
	return s.logical[py][px].Attr
}

// CellAt reads the logical grid at raw grid coordinates.
func (s *GridScreen) CellAt(x, y int) Cell {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return NewCell()
	}
	return s.logical[y][x]
}

// PutCursor updates cursor state. The previous cursor cell is forced dirty
// before the position changes, so moving the cursor always repaints the
// cell it left and the backend can erase the overlay.
func (s *GridScreen) PutCursor(visible bool, x, y int) {
	if s.cursorX >= 0 && s.cursorX < s.width && s.cursorY >= 0 && s.cursorY < s.height {
		s.forced[s.cursorY][s.cursorX] = true
	}
	s.cursorVisible = visible
	s.cursorX, s.cursorY = x, y
}

// Cursor returns cursor visibility and position.
func (s *GridScreen) Cursor() (bool, int, int) {
	return s.cursorVisible, s.cursorX, s.cursorY
}

// InvalidateAll forces the next Flush to repaint every cell without
// reallocating or touching logical content.
func (s *GridScreen) InvalidateAll() { s.cleared = true }

// cellDirty reports whether the cell at raw coordinates must repaint.
func (s *GridScreen) cellDirty(x, y int) bool {
	if s.cleared || s.forced[y][x] {
		return true
	}
	c := s.logical[y][x]
	if c.Attr.HasFlag(StyleBlink) {
		return true
	}
	return c != s.physical[y][x]
}

// IsDirty returns true if any cell must repaint. Blinking cells keep the
// screen permanently dirty; their visibility alternates on a timer owned by
// the backend.
func (s *GridScreen) IsDirty() bool {
	if s.cleared {
		return true
	}
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			if s.cellDirty(x, y) {
				return true
			}
		}
	}
	return false
}

// Flush copies the logical grid onto the physical grid, visiting every
// dirty cell. After Flush the screen is clean except for blinking cells,
// which report dirty again on the next poll.
func (s *GridScreen) Flush(visit func(x, y int, c Cell)) {
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			if s.cellDirty(x, y) {
				if visit != nil {
					visit(x, y, s.logical[y][x])
				}
				s.physical[y][x] = s.logical[y][x]
			}
			s.forced[y][x] = false
		}
	}
	s.cleared = false
}

// SelectionText extracts the text inside r at raw grid coordinates. Wide
// character spacers are skipped and trailing blanks are trimmed per line.
func (s *GridScreen) SelectionText(r Rect) string {
	if r.Left < 0 {
		r.Left = 0
	}
	if r.Top < 0 {
		r.Top = 0
	}
	if r.Right > s.width {
		r.Right = s.width
	}
	if r.Bottom > s.height {
		r.Bottom = s.height
	}
	if r.Empty() {
		return ""
	}

	out := make([]rune, 0, (r.Right-r.Left+1)*(r.Bottom-r.Top))
	for y := r.Top; y < r.Bottom; y++ {
		line := make([]rune, 0, r.Right-r.Left)
		lastNonBlank := -1
		for x := r.Left; x < r.Right; x++ {
			c := s.logical[y][x]
			if c.IsWideSpacer() {
				continue
			}
			line = append(line, c.Rune)
			if c.Rune != ' ' {
				lastNonBlank = len(line) - 1
			}
		}
		if y > r.Top {
			out = append(out, '\n')
		}
		out = append(out, line[:lastNonBlank+1]...)
	}
	return string(out)
}
