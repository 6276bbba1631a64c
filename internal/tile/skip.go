package tile

import "image"

// SkipPolicy controls the border-emptiness heuristic: a tile is skipped
// when more than Threshold of its sampled border pixels are exactly the
// pad color (black). This is a cheap proxy for "the tile lies entirely
// outside the original image footprint", not an exact test; a tile of
// genuinely black water pixels along the border would also be skipped.
// The 0.93 default threshold is inherited from the tuning of the original
// workflow; no stricter rationale is known.
type SkipPolicy struct {
	Enabled    bool
	Threshold  float64 // fraction of sampled border pixels, e.g. 0.93
	SampleStep int     // pixel step along each edge, e.g. 8
}

// DefaultSkipPolicy returns the production heuristic settings.
func DefaultSkipPolicy() SkipPolicy {
	return SkipPolicy{Enabled: true, Threshold: 0.93, SampleStep: 8}
}

// ShouldSkip samples the four edges of the tile's rectangle within img and
// reports whether the empty fraction exceeds the threshold.
func (p SkipPolicy) ShouldSkip(img image.Image, t Tile) bool {
	if !p.Enabled {
		return false
	}
	step := p.SampleStep
	if step <= 0 {
		step = 8
	}

	left, top := t.Left, t.Top
	right, bottom := t.Left+t.Size-1, t.Top+t.Size-1

	empty, total := 0, 0
	for f := 0; f < t.Size-1; f += step {
		for _, pt := range [4][2]int{
			{left + f, top},    // top edge
			{left, top + f},    // left edge
			{right, top + f},   // right edge
			{left + f, bottom}, // bottom edge
		} {
			if isPadColor(img, pt[0], pt[1]) {
				empty++
			}
			total++
		}
	}
	return total > 0 && float64(empty)/float64(total) > p.Threshold
}

// isPadColor reports whether the pixel is exactly black, the color used
// for all padding.
func isPadColor(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r == 0 && g == 0 && b == 0
}
