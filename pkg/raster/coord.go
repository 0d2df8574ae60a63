package raster

// NormalizedMax is the upper bound of the resolution-independent coordinate
// space shared with the input simulation layer.
const NormalizedMax = 1000

// NormalizeCoordinate maps coord in [0, NormalizedMax] onto [0, maxDimension]
// with floor rounding. Out-of-range input is clamped.
func NormalizeCoordinate(coord, maxDimension int) int {
	if maxDimension <= 0 {
		return 0
	}
	coord = min(max(coord, 0), NormalizedMax)
	return coord * maxDimension / NormalizedMax
}
