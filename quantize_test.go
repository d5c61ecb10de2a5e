package termrender

import (
	"math"
	"math/rand"
	"testing"
)

func TestSixelRGBRescale(t *testing.T) {
	c := sixelRGB(255, 0, 128)
	if c.R != 100 {
		t.Errorf("expected 255 to rescale to 100, got %d", c.R)
	}
	if c.G != 0 {
		t.Errorf("expected 0 to rescale to 0, got %d", c.G)
	}
	if c.B != 50 {
		t.Errorf("expected 128 to rescale to 50, got %d", c.B)
	}
}

func TestSixelRGBSnapsNearBlackAndWhite(t *testing.T) {
	if c := sixelRGB(10, 10, 10); c != rgbBlack {
		t.Errorf("expected near-black to snap to pure black, got %+v", c)
	}
	if c := sixelRGB(250, 250, 250); c != rgbWhite {
		t.Errorf("expected near-white to snap to pure white, got %+v", c)
	}
	if c := sixelRGB(128, 128, 128); c == rgbBlack || c == rgbWhite {
		t.Error("expected mid-gray to stay unsnapped")
	}
}

func TestDirectMapPalette(t *testing.T) {
	pop := []popColor{
		{c: RGB{100, 0, 0}, count: 4},
		{c: RGB{0, 100, 0}, count: 2},
		{c: RGB{0, 0, 100}, count: 1},
	}
	p := directMapPalette(pop)

	if p.Type != QuantizeDirectMap {
		t.Errorf("expected direct-map type, got %d", p.Type)
	}
	if p.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", p.Len())
	}
	for i, pc := range pop {
		if p.Index(pc.c) != i {
			t.Errorf("expected color %d to keep its slot", i)
		}
	}
}

func TestMedianCutPaletteBound(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, size := range []int{2, 4, 8, 16, 64} {
		pop := make([]popColor, 0, size*8)
		seen := map[RGB]bool{}
		for len(pop) < size*8 {
			c := RGB{rng.Int31n(101), rng.Int31n(101), rng.Int31n(101)}
			if seen[c] {
				continue
			}
			seen[c] = true
			pop = append(pop, popColor{c: c, count: 1 + rng.Intn(50)})
		}

		p := medianCutPalette(pop, size)
		if p.Type != QuantizeMedianCut {
			t.Errorf("size %d: expected median-cut type", size)
		}
		if p.Len() > size {
			t.Errorf("size %d: palette has %d entries", size, p.Len())
		}
		if p.Len()&(p.Len()-1) != 0 {
			t.Errorf("size %d: palette size %d is not a power of two", size, p.Len())
		}
	}
}

func TestMedianCutLookupCoversPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	pop := make([]popColor, 0, 128)
	seen := map[RGB]bool{}
	for len(pop) < 128 {
		c := RGB{rng.Int31n(101), rng.Int31n(101), rng.Int31n(101)}
		if seen[c] {
			continue
		}
		seen[c] = true
		pop = append(pop, popColor{c: c, count: 1})
	}

	p := medianCutPalette(pop, 16)
	for _, pc := range pop {
		idx := p.Index(pc.c)
		if idx < 0 || idx >= p.Len() {
			t.Fatalf("population color %+v mapped to invalid index %d", pc.c, idx)
		}
	}
}

func TestSnapExtremes(t *testing.T) {
	colors := []RGB{
		{5, 5, 5},    // near black
		{50, 50, 50}, // mid
		{95, 96, 97}, // near white
	}
	snapExtremes(colors)

	if colors[0] != rgbBlack {
		t.Errorf("expected near-black bucket snapped, got %+v", colors[0])
	}
	if colors[2] != rgbWhite {
		t.Errorf("expected near-white bucket snapped, got %+v", colors[2])
	}
	if colors[1] != (RGB{50, 50, 50}) {
		t.Errorf("expected mid bucket untouched, got %+v", colors[1])
	}
}

func TestFindNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(30)
		colors := make([]RGB, 0, n)
		seen := map[RGB]bool{}
		for len(colors) < n {
			c := RGB{rng.Int31n(101), rng.Int31n(101), rng.Int31n(101)}
			if seen[c] {
				continue
			}
			seen[c] = true
			colors = append(colors, c)
		}
		search := newPCASearch(colors)

		for q := 0; q < 100; q++ {
			c := RGB{rng.Int31n(101), rng.Int31n(101), rng.Int31n(101)}

			got := search.find(c)
			bestD := int64(math.MaxInt64)
			for _, pc := range colors {
				if d := c.dist2(pc); d < bestD {
					bestD = d
				}
			}
			if d := c.dist2(colors[got]); d != bestD {
				t.Fatalf("trial %d: query %+v got distance %d, brute force %d", trial, c, d, bestD)
			}
		}
	}
}

func TestNearestCacheReturnsConsistentResults(t *testing.T) {
	colors := []RGB{{0, 0, 0}, {100, 100, 100}, {100, 0, 0}, {0, 100, 0}}
	search := newPCASearch(colors)

	q := RGB{90, 5, 5}
	first := search.find(q)
	// Second lookup hits the FIFO cache.
	if second := search.find(q); second != first {
		t.Errorf("expected cached lookup to agree: %d vs %d", first, second)
	}
}

func TestLargestPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 2, 4: 4, 5: 4, 255: 128, 256: 256, 2048: 2048}
	for in, want := range cases {
		if got := largestPow2(in); got != want {
			t.Errorf("largestPow2(%d): expected %d, got %d", in, want, got)
		}
	}
}

func TestPaletteFindNearestSmallPalette(t *testing.T) {
	p := directMapPalette([]popColor{
		{c: RGB{0, 0, 0}, count: 1},
		{c: RGB{100, 100, 100}, count: 1},
	})

	if p.FindNearest(RGB{10, 10, 10}) != 0 {
		t.Error("expected dark query to map to black")
	}
	if p.FindNearest(RGB{90, 90, 90}) != 1 {
		t.Error("expected light query to map to white")
	}
}
