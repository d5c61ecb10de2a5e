package termrender

import (
	"math"
	"sort"
)

// Sixel encodes each color channel in the range 0-100.
const sixelMax = 100

const (
	// monoSnapDistance is the Euclidean distance (in sixel channel space)
	// under which a sampled pixel snaps to pure black or white. Keeps UI
	// chrome and text rendered as images legible.
	monoSnapDistance = 9

	// bucketSnapDistance is the distance under which a median-cut bucket
	// representative snaps to pure black or white.
	bucketSnapDistance = 20

	// nearestCacheSize bounds the FIFO cache of recent exact RGB lookups.
	nearestCacheSize = 16
)

// RGB is a color in sixel's 0-100-per-channel space.
type RGB struct {
	R, G, B int32
}

var (
	rgbBlack = RGB{0, 0, 0}
	rgbWhite = RGB{sixelMax, sixelMax, sixelMax}
)

// sixelRGB rescales 8-bit channels into sixel space, snapping near-black
// and near-white values to the pure extremes.
func sixelRGB(r, g, b uint8) RGB {
	c := RGB{
		R: int32(r) * sixelMax / 255,
		G: int32(g) * sixelMax / 255,
		B: int32(b) * sixelMax / 255,
	}
	if c.dist2(rgbBlack) <= monoSnapDistance*monoSnapDistance {
		return rgbBlack
	}
	if c.dist2(rgbWhite) <= monoSnapDistance*monoSnapDistance {
		return rgbWhite
	}
	return c
}

// dist2 returns the squared Euclidean distance between two colors.
func (c RGB) dist2(o RGB) int64 {
	dr := int64(c.R - o.R)
	dg := int64(c.G - o.G)
	db := int64(c.B - o.B)
	return dr*dr + dg*dg + db*db
}

func (c RGB) channel(i int) int32 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// QuantizationType identifies which strategy produced a palette.
type QuantizationType int

const (
	// QuantizeDirectIndexed reuses the native palette of an indexed
	// source image unchanged.
	QuantizeDirectIndexed QuantizationType = iota
	// QuantizeDirectMap assigns each distinct sampled color its own slot.
	QuantizeDirectMap
	// QuantizeMedianCut partitions the color population recursively.
	QuantizeMedianCut
)

// TransparentIndex is the sentinel index of fully transparent pixels.
const TransparentIndex = -1

// Palette is the bounded color table of one encode. It is immutable once
// built; a fresh Palette is allocated per encode, so concurrent encodes on
// different images are safe while sharing one in-progress Palette is not.
type Palette struct {
	Type   QuantizationType
	Colors []RGB

	lookup map[RGB]int
	search *pcaSearch
}

// Len returns the number of palette entries.
func (p *Palette) Len() int { return len(p.Colors) }

// Index maps a color to its palette index: exact sampled colors hit the
// lookup table, anything else (dithered values on the median-cut path)
// falls back to the nearest-color search.
func (p *Palette) Index(c RGB) int {
	if i, ok := p.lookup[c]; ok {
		return i
	}
	return p.FindNearest(c)
}

// FindNearest returns the palette index with minimal Euclidean distance to
// c. Median-cut palettes use the principal-axis search structure; the small
// direct palettes scan linearly.
func (p *Palette) FindNearest(c RGB) int {
	if p.search != nil {
		return p.search.find(c)
	}
	best, bestD := 0, int64(math.MaxInt64)
	for i, pc := range p.Colors {
		if d := c.dist2(pc); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// popColor is one distinct sampled color with its population count.
type popColor struct {
	c     RGB
	count int
}

// directMapPalette builds the exact palette used when the distinct sampled
// colors fit the budget. Slot order follows sampling order.
func directMapPalette(pop []popColor) *Palette {
	p := &Palette{
		Type:   QuantizeDirectMap,
		Colors: make([]RGB, len(pop)),
		lookup: make(map[RGB]int, len(pop)),
	}
	for i, pc := range pop {
		p.Colors[i] = pc.c
		p.lookup[pc.c] = i
	}
	return p
}

// medianCutPalette partitions the population into the largest power of two
// buckets not exceeding size and represents each bucket by its
// population-weighted average. The buckets nearest pure black and pure
// white (within bucketSnapDistance) snap to the extremes to preserve
// contrast for text-like content.
func medianCutPalette(pop []popColor, size int) *Palette {
	target := largestPow2(size)
	buckets := [][]popColor{pop}

	for len(buckets) < target {
		next := make([][]popColor, 0, len(buckets)*2)
		progress := false
		for i, b := range buckets {
			// A split adds one bucket; skip it once the level would
			// exceed the target.
			if len(b) < 2 || len(next)+(len(buckets)-i) >= target {
				next = append(next, b)
				continue
			}
			lo, hi := splitBucket(b)
			next = append(next, lo, hi)
			progress = true
		}
		buckets = next
		if !progress {
			break
		}
	}

	p := &Palette{
		Type:   QuantizeMedianCut,
		Colors: make([]RGB, len(buckets)),
		lookup: make(map[RGB]int, len(pop)),
	}
	for i, b := range buckets {
		p.Colors[i] = bucketAverage(b)
		for _, pc := range b {
			p.lookup[pc.c] = i
		}
	}
	snapExtremes(p.Colors)
	p.search = newPCASearch(p.Colors)
	return p
}

// splitBucket sorts the bucket along its widest channel and splits it at
// the median population point. Both halves are non-empty.
func splitBucket(b []popColor) (lo, hi []popColor) {
	ch := widestChannel(b)
	sort.Slice(b, func(i, j int) bool {
		return b[i].c.channel(ch) < b[j].c.channel(ch)
	})

	total := 0
	for _, pc := range b {
		total += pc.count
	}
	half := total / 2
	acc := 0
	split := 0
	for i, pc := range b {
		acc += pc.count
		if acc >= half {
			split = i + 1
			break
		}
	}
	if split >= len(b) {
		split = len(b) - 1
	}
	if split < 1 {
		split = 1
	}
	return b[:split], b[split:]
}

// widestChannel returns the channel index (0=R, 1=G, 2=B) with the largest
// value range within the bucket.
func widestChannel(b []popColor) int {
	var min, max [3]int32
	for i := range min {
		min[i], max[i] = math.MaxInt32, math.MinInt32
	}
	for _, pc := range b {
		for ch := 0; ch < 3; ch++ {
			v := pc.c.channel(ch)
			if v < min[ch] {
				min[ch] = v
			}
			if v > max[ch] {
				max[ch] = v
			}
		}
	}
	widest := 0
	for ch := 1; ch < 3; ch++ {
		if max[ch]-min[ch] > max[widest]-min[widest] {
			widest = ch
		}
	}
	return widest
}

// bucketAverage returns the population-weighted average color of a bucket.
// An empty bucket is a quantization bug, not bad input.
func bucketAverage(b []popColor) RGB {
	var r, g, bl, n int64
	for _, pc := range b {
		w := int64(pc.count)
		r += int64(pc.c.R) * w
		g += int64(pc.c.G) * w
		bl += int64(pc.c.B) * w
		n += w
	}
	if n == 0 {
		panic("termrender: empty median-cut bucket")
	}
	return RGB{
		R: int32((r + n/2) / n),
		G: int32((g + n/2) / n),
		B: int32((bl + n/2) / n),
	}
}

// snapExtremes snaps the palette entry closest to pure black and the one
// closest to pure white (each within bucketSnapDistance) to the exact
// extreme.
func snapExtremes(colors []RGB) {
	const limit = bucketSnapDistance * bucketSnapDistance
	blackIdx, whiteIdx := -1, -1
	blackD, whiteD := int64(limit), int64(limit)
	for i, c := range colors {
		if d := c.dist2(rgbBlack); d <= blackD {
			blackIdx, blackD = i, d
		}
		if d := c.dist2(rgbWhite); d <= whiteD {
			whiteIdx, whiteD = i, d
		}
	}
	if blackIdx >= 0 {
		colors[blackIdx] = rgbBlack
	}
	if whiteIdx >= 0 && whiteIdx != blackIdx {
		colors[whiteIdx] = rgbWhite
	}
}

// largestPow2 returns the largest power of two less than or equal to n
// (minimum 1).
func largestPow2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// pcaSearch is the nearest-neighbor structure for median-cut palettes:
// palette entries sorted by their projection onto the first principal axis
// of the palette's RGB covariance, searched with a pruned outward walk from
// the binary-search insertion point. Axis distance never exceeds true
// distance, so a direction stops as soon as its axis distance alone beats
// the best candidate found.
type pcaSearch struct {
	axis   [3]float64
	mean   [3]float64
	proj   []float64 // sorted ascending
	index  []int     // palette index per proj entry
	colors []RGB

	cache    [nearestCacheSize]nearestCacheEntry
	cacheLen int
	cachePos int
}

type nearestCacheEntry struct {
	c     RGB
	index int
}

func newPCASearch(colors []RGB) *pcaSearch {
	s := &pcaSearch{colors: colors}

	n := float64(len(colors))
	for _, c := range colors {
		s.mean[0] += float64(c.R)
		s.mean[1] += float64(c.G)
		s.mean[2] += float64(c.B)
	}
	for i := range s.mean {
		s.mean[i] /= n
	}

	var cov [3][3]float64
	for _, c := range colors {
		d := [3]float64{
			float64(c.R) - s.mean[0],
			float64(c.G) - s.mean[1],
			float64(c.B) - s.mean[2],
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[i][j] += d[i] * d[j]
			}
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cov[i][j] /= n
		}
	}

	s.axis = principalAxis(cov)

	s.proj = make([]float64, len(colors))
	s.index = make([]int, len(colors))
	for i := range colors {
		s.proj[i] = s.project(colors[i])
		s.index[i] = i
	}
	sort.Sort(byProjection{s})
	return s
}

// byProjection sorts proj and index together.
type byProjection struct{ s *pcaSearch }

func (b byProjection) Len() int           { return len(b.s.proj) }
func (b byProjection) Less(i, j int) bool { return b.s.proj[i] < b.s.proj[j] }
func (b byProjection) Swap(i, j int) {
	b.s.proj[i], b.s.proj[j] = b.s.proj[j], b.s.proj[i]
	b.s.index[i], b.s.index[j] = b.s.index[j], b.s.index[i]
}

// principalAxis extracts the dominant eigenvector of a symmetric 3x3
// matrix by power iteration. Degenerate (near-zero variance) input falls
// back to the red axis.
func principalAxis(m [3][3]float64) [3]float64 {
	v := [3]float64{1, 1, 1}
	for iter := 0; iter < 64; iter++ {
		var w [3]float64
		for i := 0; i < 3; i++ {
			w[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
		}
		norm := math.Sqrt(w[0]*w[0] + w[1]*w[1] + w[2]*w[2])
		if norm < 1e-9 {
			return [3]float64{1, 0, 0}
		}
		for i := range w {
			w[i] /= norm
		}
		v = w
	}
	return v
}

func (s *pcaSearch) project(c RGB) float64 {
	return (float64(c.R)-s.mean[0])*s.axis[0] +
		(float64(c.G)-s.mean[1])*s.axis[1] +
		(float64(c.B)-s.mean[2])*s.axis[2]
}

// find returns the palette index nearest to c in true Euclidean distance.
func (s *pcaSearch) find(c RGB) int {
	for i := 0; i < s.cacheLen; i++ {
		if s.cache[i].c == c {
			return s.cache[i].index
		}
	}

	p := s.project(c)
	start := sort.SearchFloat64s(s.proj, p)

	best := -1
	bestD := int64(math.MaxInt64)

	// Walk upward from the insertion point.
	for i := start; i < len(s.proj); i++ {
		axis := s.proj[i] - p
		if best >= 0 && axis*axis >= float64(bestD) {
			break
		}
		if d := c.dist2(s.colors[s.index[i]]); d < bestD {
			best, bestD = s.index[i], d
		}
	}
	// Walk downward.
	for i := start - 1; i >= 0; i-- {
		axis := p - s.proj[i]
		if best >= 0 && axis*axis >= float64(bestD) {
			break
		}
		if d := c.dist2(s.colors[s.index[i]]); d < bestD {
			best, bestD = s.index[i], d
		}
	}

	s.cache[s.cachePos] = nearestCacheEntry{c: c, index: best}
	s.cachePos = (s.cachePos + 1) % nearestCacheSize
	if s.cacheLen < nearestCacheSize {
		s.cacheLen++
	}
	return best
}
