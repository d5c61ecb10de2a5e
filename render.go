package termrender

import (
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// RenderConfig controls how a screen is rasterized to an image.
type RenderConfig struct {
	// Font face used for glyphs. If nil, uses basicfont.Face7x13.
	Font font.Face

	// CellWidth and CellHeight override the cell pixel dimensions.
	// If zero, derived from font metrics.
	CellWidth  int
	CellHeight int

	// CursorColor fills the cursor cell. If nil, cursor pixels are
	// inverted instead.
	CursorColor *color.RGBA

	// ShowCursor controls whether the cursor overlay is drawn. Default
	// true.
	ShowCursor *bool
}

// LoadFont loads a TrueType or OpenType font from a file path.
func LoadFont(path string, size float64) (font.Face, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return LoadFontFromBytes(data, size)
}

// LoadFontFromBytes loads a TrueType or OpenType font from raw bytes.
func LoadFontFromBytes(data []byte, size float64) (font.Face, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}

	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Render rasterizes the screen's logical grid to an RGBA image: the
// reference rendering any backend can diff against. Image cells are drawn
// as their background only (the backend composites the actual bitmap, e.g.
// via SixelEncoder). cfg may be nil for defaults.
func Render(s Screen, cfg *RenderConfig) *image.RGBA {
	if cfg == nil {
		cfg = &RenderConfig{}
	}

	face := cfg.Font
	if face == nil {
		face = basicfont.Face7x13
	}

	cellWidth := cfg.CellWidth
	cellHeight := cfg.CellHeight
	if cellWidth == 0 {
		adv, _ := face.GlyphAdvance('M')
		cellWidth = adv.Ceil()
		if cellWidth == 0 {
			cellWidth = 7 // fallback for basicfont
		}
	}
	if cellHeight == 0 {
		cellHeight = face.Metrics().Height.Ceil()
	}

	showCursor := true
	if cfg.ShowCursor != nil {
		showCursor = *cfg.ShowCursor
	}

	width, height := s.Width(), s.Height()
	imgWidth := width * cellWidth
	imgHeight := height * cellHeight
	img := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			cell := s.CellAt(col, row)
			if cell.IsWideSpacer() {
				continue
			}

			x := col * cellWidth
			y := row * cellHeight
			fg, bg := resolveAttrColors(cell.Attr)

			cw := cellWidth
			if cell.Attr.HasFlag(StyleDoubleWidthLeft) {
				cw *= 2
			}
			for py := 0; py < cellHeight; py++ {
				for px := 0; px < cw; px++ {
					img.SetRGBA(x+px, y+py, bg)
				}
			}

			if cell.HasImage() || cell.Rune == ' ' {
				continue
			}

			baseline := y + face.Metrics().Ascent.Ceil()
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(fg),
				Face: face,
				Dot:  fixed.P(x, baseline),
			}
			d.DrawString(string(cell.Rune))

			if cell.Attr.HasFlag(StyleUnderline) {
				underlineY := baseline + 2
				for px := 0; px < cw; px++ {
					if underlineY < imgHeight {
						img.SetRGBA(x+px, underlineY, fg)
					}
				}
			}
		}
	}

	if visible, cx, cy := s.Cursor(); showCursor && visible {
		drawCursorOverlay(img, cfg, cx*cellWidth, cy*cellHeight, cellWidth, cellHeight)
	}

	return img
}

// drawCursorOverlay paints the cursor cell, either with a solid color or
// by inverting the pixels beneath it.
func drawCursorOverlay(img *image.RGBA, cfg *RenderConfig, x, y, cellWidth, cellHeight int) {
	bounds := img.Bounds()
	for py := 0; py < cellHeight; py++ {
		for px := 0; px < cellWidth; px++ {
			cx, cy := x+px, y+py
			if cx >= bounds.Max.X || cy >= bounds.Max.Y {
				continue
			}
			if cfg.CursorColor != nil {
				img.SetRGBA(cx, cy, *cfg.CursorColor)
				continue
			}
			existing := img.RGBAAt(cx, cy)
			img.SetRGBA(cx, cy, color.RGBA{
				R: 255 - existing.R,
				G: 255 - existing.G,
				B: 255 - existing.B,
				A: 255,
			})
		}
	}
}
