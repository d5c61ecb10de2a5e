package termrender

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

var (
	// ErrPaletteSize reports a requested palette size outside the
	// supported power-of-two set (2 through 2048).
	ErrPaletteSize = errors.New("palette size must be a power of two between 2 and 2048")

	// ErrEmptyImage reports a zero-size or fully transparent bitmap.
	ErrEmptyImage = errors.New("image has no encodable pixels")

	// ErrUnsupportedFormat reports an indexed source image with an
	// unexpected internal pixel layout.
	ErrUnsupportedFormat = errors.New("image format not supported")
)

const (
	// DefaultPaletteSize is the palette budget used when no option
	// overrides it.
	DefaultPaletteSize = 256

	// fastModePaletteCap caps the effective palette size in fast mode,
	// trading banding for speed.
	fastModePaletteCap = 64

	// defaultAlphaThreshold treats pixels with alpha below 40% of the
	// maximum as fully transparent.
	defaultAlphaThreshold = 102

	// defaultSampleWindow is the number of sampled pixels budgeted per
	// target palette color; large images are sampled with a stride so the
	// total stays within window * palette size.
	defaultSampleWindow = 1024
)

// SixelEncoder converts bitmaps into sixel bitstreams: it quantizes the
// image to a bounded palette, dithers the result when quantization was
// lossy, and serializes the indexed pixels into the run-length-encoded wire
// format. An encoder holds only configuration; concurrent Encode calls on
// different images are safe.
type SixelEncoder struct {
	paletteSize    int
	fast           bool
	transparency   bool
	alphaThreshold uint8
	sampleWindow   int
	maxWidth       int
	maxHeight      int
}

// SixelOption configures a SixelEncoder.
type SixelOption func(*SixelEncoder)

// WithPaletteSize sets the palette budget. Valid sizes are the powers of
// two from 2 through 2048; NewSixelEncoder rejects anything else.
func WithPaletteSize(n int) SixelOption {
	return func(e *SixelEncoder) { e.paletteSize = n }
}

// WithFastMode caps the effective palette size regardless of the requested
// size, trading banding for speed.
func WithFastMode() SixelOption {
	return func(e *SixelEncoder) { e.fast = true }
}

// WithTransparency controls whether sub-threshold alpha maps to the
// transparent sentinel (default true). When disabled, translucent pixels
// are encoded as opaque.
func WithTransparency(enabled bool) SixelOption {
	return func(e *SixelEncoder) { e.transparency = enabled }
}

// WithAlphaThreshold sets the 8-bit alpha value below which a pixel counts
// as fully transparent.
func WithAlphaThreshold(threshold uint8) SixelOption {
	return func(e *SixelEncoder) { e.alphaThreshold = threshold }
}

// WithSampleWindow sets how many pixels are sampled per target palette
// color before large images switch to strided sampling.
func WithSampleWindow(n int) SixelOption {
	return func(e *SixelEncoder) {
		if n > 0 {
			e.sampleWindow = n
		}
	}
}

// WithMaxSize scales down source bitmaps exceeding the given pixel
// dimensions before encoding. Zero disables scaling (the default).
func WithMaxSize(width, height int) SixelOption {
	return func(e *SixelEncoder) {
		e.maxWidth, e.maxHeight = width, height
	}
}

// NewSixelEncoder creates an encoder, validating the configured palette
// size against the supported power-of-two set.
func NewSixelEncoder(opts ...SixelOption) (*SixelEncoder, error) {
	e := &SixelEncoder{
		paletteSize:    DefaultPaletteSize,
		transparency:   true,
		alphaThreshold: defaultAlphaThreshold,
		sampleWindow:   defaultSampleWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !validPaletteSize(e.paletteSize) {
		return nil, fmt.Errorf("%w: got %d", ErrPaletteSize, e.paletteSize)
	}
	return e, nil
}

func validPaletteSize(n int) bool {
	if n < 2 || n > 2048 {
		return false
	}
	return n&(n-1) == 0
}

// effectivePaletteSize applies the fast-mode cap.
func (e *SixelEncoder) effectivePaletteSize() int {
	if e.fast && e.paletteSize > fastModePaletteCap {
		return fastModePaletteCap
	}
	return e.paletteSize
}

// SixelResult is one complete encode: the raw sixel payload (raster header,
// palette definitions, and pixel bands, without the device-control
// introducer/terminator) plus the metadata the caller needs to wrap it.
// Transparent tells the caller to select the transparent-background
// introducer variant.
type SixelResult struct {
	Data        []byte
	Width       int
	Height      int
	Transparent bool
	Palette     *Palette
}

// indexedImage is the dithered intermediate: one palette index (or the
// transparent sentinel) per pixel, consumed exactly once by serialize.
type indexedImage struct {
	width, height int
	indices       []int
}

func newIndexedImage(width, height int) *indexedImage {
	return &indexedImage{width: width, height: height, indices: make([]int, width*height)}
}

func (s *indexedImage) at(x, y int) int     { return s.indices[y*s.width+x] }
func (s *indexedImage) set(x, y, index int) { s.indices[y*s.width+x] = index }

// Encode converts a bitmap into a sixel bitstream. A failed encode yields
// no partial stream: the result is either complete and valid or an error.
func (e *SixelEncoder) Encode(img image.Image) (*SixelResult, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-size image", ErrEmptyImage)
	}

	// The direct-indexed path reuses the source palette verbatim, so it
	// only applies when no scaling is needed; oversized paletted sources
	// go through the scaled RGBA path like any other image.
	if pal, ok := img.(*image.Paletted); ok && len(pal.Palette) <= e.effectivePaletteSize() && !e.exceedsMaxSize(bounds) {
		return e.encodeIndexed(pal)
	}

	src := e.toNRGBA(img)
	palette, indexed, transparent, err := e.quantize(src)
	if err != nil {
		return nil, err
	}

	return &SixelResult{
		Data:        serializeSixel(palette, indexed),
		Width:       indexed.width,
		Height:      indexed.height,
		Transparent: transparent,
		Palette:     palette,
	}, nil
}

// encodeIndexed is the direct-indexed path: the source's native palette is
// reused unchanged, so there is no quantization error and no dithering.
func (e *SixelEncoder) encodeIndexed(src *image.Paletted) (*SixelResult, error) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if len(src.Palette) == 0 {
		return nil, fmt.Errorf("%w: indexed image with empty palette", ErrEmptyImage)
	}
	if src.Stride < w || len(src.Pix) < (h-1)*src.Stride+w {
		return nil, fmt.Errorf("%w: indexed pixel storage shorter than bounds", ErrUnsupportedFormat)
	}

	palette := &Palette{
		Type:   QuantizeDirectIndexed,
		Colors: make([]RGB, len(src.Palette)),
		lookup: make(map[RGB]int, len(src.Palette)),
	}
	transparentEntry := make([]bool, len(src.Palette))
	for i, c := range src.Palette {
		r, g, b, a := c.RGBA()
		if e.transparency && uint8(a>>8) < e.alphaThreshold {
			transparentEntry[i] = true
			continue
		}
		palette.Colors[i] = sixelRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		if _, ok := palette.lookup[palette.Colors[i]]; !ok {
			palette.lookup[palette.Colors[i]] = i
		}
	}

	indexed := newIndexedImage(w, h)
	transparent := false
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x, pi := range row {
			if int(pi) >= len(src.Palette) {
				return nil, fmt.Errorf("%w: palette index %d out of range", ErrUnsupportedFormat, pi)
			}
			if transparentEntry[pi] {
				indexed.set(x, y, TransparentIndex)
				transparent = true
				continue
			}
			indexed.set(x, y, int(pi))
		}
	}

	return &SixelResult{
		Data:        serializeSixel(palette, indexed),
		Width:       w,
		Height:      h,
		Transparent: transparent,
		Palette:     palette,
	}, nil
}

// exceedsMaxSize reports whether the bounds are larger than the configured
// maximum raster size.
func (e *SixelEncoder) exceedsMaxSize(b image.Rectangle) bool {
	return (e.maxWidth > 0 && b.Dx() > e.maxWidth) || (e.maxHeight > 0 && b.Dy() > e.maxHeight)
}

// toNRGBA converts (and, when WithMaxSize applies, scales) the source into
// straight-alpha RGBA pixels.
func (e *SixelEncoder) toNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	dw, dh := w, h
	if e.maxWidth > 0 && dw > e.maxWidth {
		dh = dh * e.maxWidth / dw
		dw = e.maxWidth
	}
	if e.maxHeight > 0 && dh > e.maxHeight {
		dw = dw * e.maxHeight / dh
		dh = e.maxHeight
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	if dw == w && dh == h {
		xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	}
	return dst
}

// transparentAt reports whether the pixel's alpha falls below the opacity
// threshold.
func (e *SixelEncoder) transparentAt(src *image.NRGBA, x, y int) bool {
	if !e.transparency {
		return false
	}
	return src.Pix[y*src.Stride+x*4+3] < e.alphaThreshold
}

// pixelRGB reduces one source pixel into sixel color space.
func pixelRGB(src *image.NRGBA, x, y int) RGB {
	off := y*src.Stride + x*4
	return sixelRGB(src.Pix[off], src.Pix[off+1], src.Pix[off+2])
}

// quantize samples the bitmap, builds the palette (direct map when the
// distinct colors fit the budget, median cut otherwise), and produces the
// indexed intermediate, dithering only on the lossy path.
func (e *SixelEncoder) quantize(src *image.NRGBA) (*Palette, *indexedImage, bool, error) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	size := e.effectivePaletteSize()

	pop, transparent := e.samplePopulation(src, size)
	if len(pop) == 0 {
		return nil, nil, false, fmt.Errorf("%w: no opaque pixels to quantize", ErrEmptyImage)
	}

	var palette *Palette
	if len(pop) <= size {
		palette = directMapPalette(pop)
	} else {
		palette = medianCutPalette(pop, size)
	}

	indexed := newIndexedImage(w, h)
	if palette.Type == QuantizeDirectMap {
		// Exact palette: every pixel maps without error, no dithering.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if e.transparentAt(src, x, y) {
					indexed.set(x, y, TransparentIndex)
					continue
				}
				indexed.set(x, y, palette.Index(pixelRGB(src, x, y)))
			}
		}
	} else {
		e.dither(src, palette, indexed)
	}
	return palette, indexed, transparent, nil
}

// samplePopulation counts the distinct colors present, striding through
// large images so the sample stays within sampleWindow pixels per target
// color. Returns the population in first-seen order and whether any pixel
// fell below the opacity threshold.
func (e *SixelEncoder) samplePopulation(src *image.NRGBA, size int) ([]popColor, bool) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	total := w * h

	step := 1
	if budget := e.sampleWindow * size; total > budget {
		step = (total + budget - 1) / budget
	}

	counts := make(map[RGB]int)
	var order []RGB
	transparent := false

	for i := 0; i < total; i += step {
		x, y := i%w, i/w
		if e.transparentAt(src, x, y) {
			transparent = true
			continue
		}
		c := pixelRGB(src, x, y)
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}

	// A strided pass can miss sub-threshold pixels; the transparency
	// report must be exact because it selects the introducer variant.
	if step > 1 && !transparent && e.transparency {
		for i := 3; i < len(src.Pix); i += 4 {
			if src.Pix[i] < e.alphaThreshold {
				transparent = true
				break
			}
		}
	}

	pop := make([]popColor, len(order))
	for i, c := range order {
		pop[i] = popColor{c: c, count: counts[c]}
	}
	return pop, transparent
}

// Error-diffusion weights, rescaled for sixel's compressed channel range
// (roughly 40% of 8-bit): right 3/6, lower-left 1/6, lower 2/6 of the
// quantization error.
const ditherDenom = 6

// dither maps each opaque pixel to its nearest palette entry and diffuses
// the quantization error to unvisited neighbors. Transparent pixels are
// never diffused into or out of; error shares aimed at them are dropped.
func (e *SixelEncoder) dither(src *image.NRGBA, palette *Palette, indexed *indexedImage) {
	w, h := indexed.width, indexed.height

	// Carried error per channel for the current and next row.
	cur := make([][3]int32, w)
	next := make([][3]int32, w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if e.transparentAt(src, x, y) {
				indexed.set(x, y, TransparentIndex)
				cur[x] = [3]int32{}
				continue
			}

			c := pixelRGB(src, x, y)
			c.R = clampChannel(c.R + cur[x][0]/ditherDenom)
			c.G = clampChannel(c.G + cur[x][1]/ditherDenom)
			c.B = clampChannel(c.B + cur[x][2]/ditherDenom)

			idx := palette.Index(c)
			indexed.set(x, y, idx)

			pc := palette.Colors[idx]
			errR := c.R - pc.R
			errG := c.G - pc.G
			errB := c.B - pc.B

			if x+1 < w {
				cur[x+1][0] += errR * 3
				cur[x+1][1] += errG * 3
				cur[x+1][2] += errB * 3
			}
			if y+1 < h {
				if x > 0 {
					next[x-1][0] += errR
					next[x-1][1] += errG
					next[x-1][2] += errB
				}
				next[x][0] += errR * 2
				next[x][1] += errG * 2
				next[x][2] += errB * 2
			}
			cur[x] = [3]int32{}
		}
		cur, next = next, cur
		for i := range next {
			next[i] = [3]int32{}
		}
	}
}

func clampChannel(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > sixelMax {
		return sixelMax
	}
	return v
}

// serializeSixel emits the wire format: a raster-attributes header with the
// pixel dimensions, palette definitions for every color actually
// referenced, then horizontal bands of six pixel rows. Within a band each
// used color gets one pass of sixel bytes (column bitmask + 63), with
// identical consecutive bytes run-length compressed as !<count><byte>.
// Bands are separated by the line-advance marker; the final one is not
// terminated.
func serializeSixel(palette *Palette, img *indexedImage) []byte {
	var buf bytes.Buffer

	used := make([]bool, palette.Len())
	for _, idx := range img.indices {
		if idx >= 0 {
			used[idx] = true
		}
	}

	fmt.Fprintf(&buf, "\"1;1;%d;%d", img.width, img.height)
	for i, c := range palette.Colors {
		if used[i] {
			fmt.Fprintf(&buf, "#%d;2;%d;%d;%d", i, c.R, c.G, c.B)
		}
	}

	for y0 := 0; y0 < img.height; y0 += 6 {
		if y0 > 0 {
			buf.WriteByte('-')
		}
		rows := img.height - y0
		if rows > 6 {
			rows = 6
		}

		for color := range used {
			if !used[color] {
				continue
			}
			masks := bandMasks(img, y0, rows, color)
			if masks == nil {
				continue
			}
			buf.WriteByte('$')
			fmt.Fprintf(&buf, "#%d", color)
			writeRuns(&buf, masks)
		}
	}
	return buf.Bytes()
}

// bandMasks computes the per-column sixel bitmasks of one color within a
// band (bit i set when row y0+i shows the color). Returns nil when the
// color is absent from the band; trailing empty columns are trimmed.
func bandMasks(img *indexedImage, y0, rows, color int) []byte {
	masks := make([]byte, img.width)
	last := -1
	for x := 0; x < img.width; x++ {
		var mask byte
		for dy := 0; dy < rows; dy++ {
			if img.at(x, y0+dy) == color {
				mask |= 1 << dy
			}
		}
		masks[x] = mask
		if mask != 0 {
			last = x
		}
	}
	if last < 0 {
		return nil
	}
	return masks[:last+1]
}

// writeRuns emits sixel bytes with run-length compression for runs of two
// or more.
func writeRuns(buf *bytes.Buffer, masks []byte) {
	for i := 0; i < len(masks); {
		j := i
		for j < len(masks) && masks[j] == masks[i] {
			j++
		}
		count := j - i
		b := byte('?' + masks[i])
		if count > 1 {
			fmt.Fprintf(buf, "!%d%c", count, b)
		} else {
			buf.WriteByte(b)
		}
		i = j
	}
}
