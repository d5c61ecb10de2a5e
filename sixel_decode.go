package termrender

import (
	"fmt"
	"image"
)

// DecodedSixel is the result of parsing a sixel payload back into pixels.
// PaletteEntries holds the color definitions seen in the stream, in sixel's
// 0-100 channel space, keyed by palette index.
type DecodedSixel struct {
	Image          *image.NRGBA
	Width          int
	Height         int
	PaletteEntries map[int]RGB
	Transparent    bool
}

// sixelDecoder walks a sixel byte stream, accumulating lit pixels per
// position with the currently selected color.
type sixelDecoder struct {
	palette     map[int]RGB
	colorIndex  int
	x, y        int
	maxX, maxY  int
	rasterW     int
	rasterH     int
	pixels      map[[2]int]RGB
	transparent bool
}

// DecodeSixel parses a sixel payload (the bytes between the device-control
// introducer and terminator, without them). Only RGB (type 2) color
// definitions are supported; HLS definitions report ErrUnsupportedFormat.
// transparentBackground mirrors the introducer variant the payload was
// wrapped in.
func DecodeSixel(data []byte, transparentBackground bool) (*DecodedSixel, error) {
	d := &sixelDecoder{
		palette:     make(map[int]RGB),
		pixels:      make(map[[2]int]RGB),
		maxX:        -1,
		maxY:        -1,
		transparent: transparentBackground,
	}
	if err := d.parse(data); err != nil {
		return nil, err
	}
	return d.result(), nil
}

func (d *sixelDecoder) parse(data []byte) error {
	i := 0
	for i < len(data) {
		b := data[i]
		i++

		switch {
		case b == '$':
			// Carriage return: back to the start of the band.
			d.x = 0

		case b == '-':
			// Line advance: next six-pixel band.
			d.x = 0
			d.y += 6

		case b == '!':
			// Run-length form: !<count><byte>
			count, rest := parseSixelNumber(data, i)
			i = rest
			if i < len(data) {
				sixel := data[i]
				i++
				if sixel >= '?' && sixel <= '~' {
					d.draw(sixel, count)
				}
			}

		case b == '#':
			// Color select or definition:
			// #<index> or #<index>;<type>;<v1>;<v2>;<v3>
			index, rest := parseSixelNumber(data, i)
			i = rest
			if i < len(data) && data[i] == ';' {
				params := make([]int, 0, 4)
				for len(params) < 4 && i < len(data) && data[i] == ';' {
					var v int
					v, i = parseSixelNumber(data, i+1)
					params = append(params, v)
				}
				if len(params) == 4 {
					if params[0] != 2 {
						return fmt.Errorf("%w: sixel color type %d (only RGB supported)", ErrUnsupportedFormat, params[0])
					}
					d.palette[index] = RGB{
						R: clampChannel(int32(params[1])),
						G: clampChannel(int32(params[2])),
						B: clampChannel(int32(params[3])),
					}
				}
			}
			d.colorIndex = index

		case b == '"':
			// Raster attributes: "<Pan>;<Pad>;<Ph>;<Pv>
			params := make([]int, 0, 4)
			for len(params) < 4 && i < len(data) {
				var v int
				v, i = parseSixelNumber(data, i)
				params = append(params, v)
				if i < len(data) && data[i] == ';' {
					i++
				} else {
					break
				}
			}
			if len(params) == 4 {
				d.rasterW, d.rasterH = params[2], params[3]
			}

		case b >= '?' && b <= '~':
			d.draw(b, 1)
		}
	}
	return nil
}

func parseSixelNumber(data []byte, i int) (int, int) {
	n := 0
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		n = n*10 + int(data[i]-'0')
		i++
	}
	return n, i
}

// draw lights the rows encoded in one sixel byte, count columns wide, in
// the currently selected color.
func (d *sixelDecoder) draw(b byte, count int) {
	if count <= 0 {
		count = 1
	}
	bits := b - '?'
	c := d.palette[d.colorIndex]

	for r := 0; r < count; r++ {
		for bit := 0; bit < 6; bit++ {
			if bits&(1<<bit) == 0 {
				continue
			}
			px, py := d.x, d.y+bit
			d.pixels[[2]int{px, py}] = c
			if px > d.maxX {
				d.maxX = px
			}
			if py > d.maxY {
				d.maxY = py
			}
		}
		d.x++
	}
}

func (d *sixelDecoder) result() *DecodedSixel {
	w, h := d.rasterW, d.rasterH
	if w <= d.maxX {
		w = d.maxX + 1
	}
	if h <= d.maxY {
		h = d.maxY + 1
	}
	out := &DecodedSixel{
		Width:          w,
		Height:         h,
		PaletteEntries: d.palette,
		Transparent:    d.transparent,
	}
	if w <= 0 || h <= 0 {
		return out
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if !d.transparent {
		bg := d.palette[0]
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = channelTo8(bg.R)
			img.Pix[i+1] = channelTo8(bg.G)
			img.Pix[i+2] = channelTo8(bg.B)
			img.Pix[i+3] = 255
		}
	}
	for pos, c := range d.pixels {
		x, y := pos[0], pos[1]
		if x < 0 || x >= w || y < 0 || y >= h {
			continue
		}
		off := img.PixOffset(x, y)
		img.Pix[off] = channelTo8(c.R)
		img.Pix[off+1] = channelTo8(c.G)
		img.Pix[off+2] = channelTo8(c.B)
		img.Pix[off+3] = 255
	}
	out.Image = img
	return out
}

// channelTo8 rescales a 0-100 sixel channel back to 8 bits.
func channelTo8(v int32) uint8 {
	return uint8((int(v)*255 + sixelMax/2) / sixelMax)
}
