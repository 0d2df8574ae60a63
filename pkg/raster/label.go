package raster

import (
	"image/color"
	"strconv"
)

const (
	glyphScale   = 2
	glyphAdvance = 12
)

var digitGlyphs = [10][7]string{
	{" ### ", "#   #", "#   #", "#   #", "#   #", "#   #", " ### "},
	{"  #  ", " ##  ", "  #  ", "  #  ", "  #  ", "  #  ", " ### "},
	{" ### ", "#   #", "    #", "  ## ", " #   ", "#    ", "#####"},
	{" ### ", "#   #", "    #", "  ## ", "    #", "#   #", " ### "},
	{"   # ", "  ## ", " # # ", "#  # ", "#####", "   # ", "   # "},
	{"#####", "#    ", "#### ", "    #", "    #", "#   #", " ### "},
	{" ### ", "#    ", "#    ", "#### ", "#   #", "#   #", " ### "},
	{"#####", "    #", "   # ", "  #  ", "  #  ", "  #  ", "  #  "},
	{" ### ", "#   #", "#   #", " ### ", "#   #", "#   #", " ### "},
	{" ### ", "#   #", "#   #", " ####", "    #", "    #", " ### "},
}

// Label draws the digits of a decimal number with its top-left corner at
// (x, y) using a 5x7 bitmap font at 2x scale. The sign is not drawn.
func (c *Canvas) Label(x, y, n int, col color.RGBA) {
	offset := 0
	for _, ch := range strconv.Itoa(n) {
		if ch < '0' || ch > '9' {
			continue
		}
		glyph := digitGlyphs[ch-'0']
		for row, line := range glyph {
			for colIdx := 0; colIdx < len(line); colIdx++ {
				if line[colIdx] != '#' {
					continue
				}
				for sy := 0; sy < glyphScale; sy++ {
					for sx := 0; sx < glyphScale; sx++ {
						c.Set(x+offset+colIdx*glyphScale+sx, y+row*glyphScale+sy, col)
					}
				}
			}
		}
		offset += glyphAdvance
	}
}
