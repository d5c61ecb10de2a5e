// Package termrender is the rendering core of a terminal/text-UI toolkit:
// a virtual character-cell screen with double-buffered diffing, and a
// bitmap-to-sixel encoder. Applications draw styled characters (and
// embedded bitmap fragments) into an abstract grid, and only the changed
// regions are handed to the backend for transmission.
//
// # Screens
//
// [GridScreen] owns two equal-sized grids of [Cell]: the logical grid
// (what should be shown) and the physical grid (what was last flushed).
// Drawing goes through a clip rectangle and a draw offset, so widgets can
// render partially visible content without bounds errors:
//
//	s := termrender.NewGridScreen()
//	s.PutString(0, 0, "Hi", termrender.DefaultAttr)
//	if s.IsDirty() {
//	    s.Flush(func(x, y int, c termrender.Cell) {
//	        // transmit cell to the terminal
//	    })
//	}
//
// [MirrorScreen] composes several screens behind the same [Screen]
// interface, broadcasting every mutation under one mutex. It is the
// building block for shared sessions where multiple viewers must stay in
// sync.
//
// # Sixel encoding
//
// [SixelEncoder] converts a bitmap into the sixel wire format: the image
// is quantized to a bounded palette (reusing an indexed source palette,
// mapping distinct colors directly, or median-cut partitioning with a
// PCA-accelerated nearest-color search), dithered when quantization was
// lossy, and serialized with run-length compression:
//
//	enc, _ := termrender.NewSixelEncoder(termrender.WithPaletteSize(256))
//	res, err := enc.Encode(img)
//	if err != nil {
//	    // no partial stream is ever produced
//	}
//	// wrap res.Data in the DCS introducer; res.Transparent selects
//	// the background variant
//
// [DecodeSixel] parses a payload back into pixels, and [Render] rasterizes
// a screen to an RGBA image for testing or thumbnailing.
//
// # Concurrency
//
// GridScreen performs no locking; wrap it externally (or use MirrorScreen,
// which locks every operation) when multiple goroutines draw. Encoders are
// pure configuration: concurrent Encode calls on different images are
// safe.
package termrender
