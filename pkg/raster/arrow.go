package raster

import (
	"image/color"
	"math"
)

const (
	arrowHeadLength = 15
	arrowHeadAngle  = math.Pi / 6
)

// Arrow draws a line from start to end and a fixed-size chevron at the end.
func (c *Canvas) Arrow(x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	c.Line(x1, y1, x2, y2, col, thickness)

	angle := math.Atan2(float64(y2-y1), float64(x2-x1))
	for _, side := range []float64{-arrowHeadAngle, arrowHeadAngle} {
		hx := int(float64(x2) - arrowHeadLength*math.Cos(angle+side))
		hy := int(float64(y2) - arrowHeadLength*math.Sin(angle+side))
		c.Line(x2, y2, hx, hy, col, thickness)
	}
}
