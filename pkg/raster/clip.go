package raster

import "math"

// clipSegment trims a segment to the frame grown by the brush margin so that
// far off-screen endpoints do not cost a walk over every virtual pixel.
// Segments already inside the margin are returned untouched.
func (c *Canvas) clipSegment(x1, y1, x2, y2, thickness int) (int, int, int, int, bool) {
	margin := max(thickness, 1) + 1
	minX, minY := -margin, -margin
	maxX, maxY := c.width-1+margin, c.height-1+margin

	inside := func(x, y int) bool {
		return x >= minX && x <= maxX && y >= minY && y <= maxY
	}
	if inside(x1, y1) && inside(x2, y2) {
		return x1, y1, x2, y2, true
	}

	// Liang-Barsky.
	fx1, fy1 := float64(x1), float64(y1)
	dx, dy := float64(x2-x1), float64(y2-y1)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, fx1 - float64(minX)},
		{dx, float64(maxX) - fx1},
		{-dy, fy1 - float64(minY)},
		{dy, float64(maxY) - fy1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return int(math.Round(fx1 + t0*dx)), int(math.Round(fy1 + t0*dy)),
		int(math.Round(fx1 + t1*dx)), int(math.Round(fy1 + t1*dy)), true
}
