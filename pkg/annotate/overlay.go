package annotate

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/offlinefirst/screenframe/pkg/raster"
)

// ActionKind names an input action that can be visualised.
type ActionKind string

const (
	LeftClick       ActionKind = "left_click"
	DoubleLeftClick ActionKind = "double_left_click"
	RightClick      ActionKind = "right_click"
	Drag            ActionKind = "drag"
)

func (k ActionKind) arity() int {
	switch k {
	case LeftClick, DoubleLeftClick, RightClick:
		return 2
	case Drag:
		return 4
	default:
		return 0
	}
}

// Action is one previously executed input action. Coordinates are in the
// normalized [0, raster.NormalizedMax] space. X2/Y2 are only used by drags.
type Action struct {
	Kind   ActionKind
	X1, Y1 int
	X2, Y2 int
}

func (a Action) String() string {
	if a.Kind == Drag {
		return fmt.Sprintf("%s:%d,%d,%d,%d", a.Kind, a.X1, a.Y1, a.X2, a.Y2)
	}
	return fmt.Sprintf("%s:%d,%d", a.Kind, a.X1, a.Y1)
}

// ParseAction parses "kind:x,y" or "drag:x1,y1,x2,y2".
func ParseAction(s string) (Action, error) {
	kind, rawArgs, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Action{}, fmt.Errorf("action %q: expected kind:coordinates", s)
	}
	k := ActionKind(strings.ToLower(strings.TrimSpace(kind)))
	want := k.arity()
	if want == 0 {
		return Action{}, fmt.Errorf("action %q: unknown kind %q", s, kind)
	}
	parts := strings.Split(rawArgs, ",")
	if len(parts) != want {
		return Action{}, fmt.Errorf("action %q: %s takes %d coordinates, got %d", s, k, want, len(parts))
	}
	coords := make([]int, want)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Action{}, fmt.Errorf("action %q: coordinate %d: %w", s, i+1, err)
		}
		coords[i] = v
	}
	a := Action{Kind: k, X1: coords[0], Y1: coords[1]}
	if k == Drag {
		a.X2, a.Y2 = coords[2], coords[3]
	}
	return a, nil
}

// ColorPair is the primary/secondary colour used for one marker.
type ColorPair struct {
	Primary   color.RGBA
	Secondary color.RGBA
}

// DefaultPalette rotates through contrasting pairs so adjacent markers stay
// distinguishable.
var DefaultPalette = []ColorPair{
	{Primary: raster.Red, Secondary: raster.Green},
	{Primary: raster.Blue, Secondary: raster.Yellow},
	{Primary: raster.Green, Secondary: raster.Red},
	{Primary: raster.Yellow, Secondary: raster.Blue},
}

// PairPalette turns a flat colour list into marker pairs: consecutive colours
// form a pair, then the same pairs are repeated with roles swapped. Red,
// green, blue, yellow yields DefaultPalette.
func PairPalette(colors []color.RGBA) ([]ColorPair, error) {
	if len(colors) == 0 {
		return DefaultPalette, nil
	}
	if len(colors)%2 != 0 {
		return nil, fmt.Errorf("palette needs an even number of colours, got %d", len(colors))
	}
	pairs := make([]ColorPair, 0, len(colors))
	for i := 0; i < len(colors); i += 2 {
		pairs = append(pairs, ColorPair{Primary: colors[i], Secondary: colors[i+1]})
	}
	for i := 0; i < len(colors); i += 2 {
		pairs = append(pairs, ColorPair{Primary: colors[i+1], Secondary: colors[i]})
	}
	return pairs, nil
}

const (
	clickCrosshairSize      = 25
	clickCrosshairThickness = 3
	clickRingRadius         = 40
	clickLabelOffset        = 30
	dragThickness           = 4
	dragEndRadius           = 15
	dragLabelOffset         = 20
)

// ActionOverlay marks the actions of the previous cycle on the frame so the
// next inference step can see where it clicked. Markers are numbered when
// more than one action is shown.
type ActionOverlay struct {
	Actions []Action
	Palette []ColorPair
}

// Annotate draws every action in place.
func (o ActionOverlay) Annotate(pix []byte, width, height int) ([]byte, error) {
	palette := o.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	numbered := len(o.Actions) > 1
	canvas := raster.NewCanvas(pix, width, height)

	index := 0
	for _, a := range o.Actions {
		if a.Kind.arity() == 0 {
			continue
		}
		index++
		colors := palette[(index-1)%len(palette)]
		x1 := raster.NormalizeCoordinate(a.X1, width)
		y1 := raster.NormalizeCoordinate(a.Y1, height)

		switch a.Kind {
		case LeftClick, DoubleLeftClick, RightClick:
			if a.Kind == RightClick {
				colors = ColorPair{Primary: raster.Blue, Secondary: raster.Yellow}
			}
			canvas.Crosshair(x1, y1, clickCrosshairSize, colors.Primary, clickCrosshairThickness)
			canvas.Circle(x1, y1, clickRingRadius, colors.Secondary, false)
			if numbered {
				canvas.Label(x1+clickLabelOffset, y1-clickLabelOffset, index, colors.Primary)
			}
		case Drag:
			x2 := raster.NormalizeCoordinate(a.X2, width)
			y2 := raster.NormalizeCoordinate(a.Y2, height)
			canvas.Arrow(x1, y1, x2, y2, colors.Primary, dragThickness)
			canvas.Circle(x1, y1, dragEndRadius, colors.Secondary, true)
			canvas.Circle(x2, y2, dragEndRadius, colors.Primary, true)
			if numbered {
				canvas.Label(x1+dragLabelOffset, y1-dragLabelOffset, index, colors.Primary)
			}
		}
	}
	return pix, nil
}
