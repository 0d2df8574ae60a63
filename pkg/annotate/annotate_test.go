package annotate

import (
	"errors"
	"image/color"
	"reflect"
	"testing"

	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/raster"
)

func transmissionBuffer(w, h int) frame.Buffer {
	return frame.New(frame.Size{Width: w, Height: h}, frame.OrderTransmission)
}

func pixel(pix []byte, width, x, y int) color.RGBA {
	i := (y*width + x) * 4
	return color.RGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: pix[i+3]}
}

func TestApplyWithoutAnnotatorIsIdentity(t *testing.T) {
	buf := transmissionBuffer(4, 3)
	buf.Pix[0] = 42

	out, err := Apply(buf, nil)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if &out.Pix[0] != &buf.Pix[0] || out.Size != buf.Size || out.Order != buf.Order {
		t.Fatalf("expected the input buffer back unchanged")
	}
}

func TestApplyCallsAnnotatorOnceAndReturnsItsOutput(t *testing.T) {
	buf := transmissionBuffer(5, 2)
	replacement := make([]byte, len(buf.Pix))
	replacement[3] = 7

	calls := 0
	out, err := Apply(buf, Func(func(pix []byte, width, height int) ([]byte, error) {
		calls++
		if width != 5 || height != 2 {
			t.Fatalf("annotator got %dx%d, want 5x2", width, height)
		}
		if len(pix) != len(buf.Pix) {
			t.Fatalf("annotator got %d bytes", len(pix))
		}
		return replacement, nil
	}))
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("annotator called %d times", calls)
	}
	if &out.Pix[0] != &replacement[0] {
		t.Fatalf("expected annotator output to be returned verbatim")
	}
	if out.Size != buf.Size || out.Order != frame.OrderTransmission {
		t.Fatalf("unexpected metadata %+v", out)
	}
}

func TestApplyPropagatesAnnotatorErrorUnchanged(t *testing.T) {
	sentinel := errors.New("overlay failed")
	_, err := Apply(transmissionBuffer(2, 2), Func(func([]byte, int, int) ([]byte, error) {
		return nil, sentinel
	}))
	if err != sentinel {
		t.Fatalf("expected the annotator error itself, got %v", err)
	}
}

func TestChainRunsInOrderAndStopsOnError(t *testing.T) {
	var order []string
	step := func(name string, err error) Annotator {
		return Func(func(pix []byte, _, _ int) ([]byte, error) {
			order = append(order, name)
			if err != nil {
				return nil, err
			}
			out := append([]byte(nil), pix...)
			return append(out, name[0]), nil
		})
	}

	out, err := Chain(step("a", nil), nil, step("b", nil)).Annotate([]byte{}, 0, 0)
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}
	if string(out) != "ab" {
		t.Fatalf("expected outputs to feed forward, got %q", out)
	}

	order = nil
	boom := errors.New("boom")
	if _, err := Chain(step("a", nil), step("b", boom), step("c", nil)).Annotate(nil, 0, 0); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Fatalf("chain did not stop at first error: %v", order)
	}
}

func TestCommandsDrawInPlace(t *testing.T) {
	buf := transmissionBuffer(10, 10)
	out, err := Apply(buf, Commands(raster.LineCmd{X1: 0, Y1: 0, X2: 9, Y2: 0, Color: raster.Red, Thickness: 1}))
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if pixel(out.Pix, 10, 9, 0) != raster.Red {
		t.Fatalf("line not drawn")
	}
}

func TestActionOverlayClick(t *testing.T) {
	const w, h = 200, 100
	buf := transmissionBuffer(w, h)
	overlay := ActionOverlay{Actions: []Action{{Kind: LeftClick, X1: 500, Y1: 500}}}

	out, err := Apply(buf, overlay)
	if err != nil {
		t.Fatalf("overlay returned error: %v", err)
	}
	if got := pixel(out.Pix, w, 100, 50); got != raster.Red {
		t.Fatalf("crosshair centre = %v, want red", got)
	}
	if got := pixel(out.Pix, w, 140, 50); got != raster.Green {
		t.Fatalf("ring pixel = %v, want green", got)
	}
	if got := pixel(out.Pix, w, 134, 20); got != (color.RGBA{}) {
		t.Fatalf("single action should not be numbered, got %v", got)
	}
}

func TestActionOverlayNumbersMultipleActionsAndRotatesPalette(t *testing.T) {
	const w, h = 200, 100
	overlay := ActionOverlay{Actions: []Action{
		{Kind: LeftClick, X1: 500, Y1: 500},
		{Kind: "scroll", X1: 1, Y1: 1},
		{Kind: Drag, X1: 900, Y1: 900, X2: 950, Y2: 950},
	}}
	out, err := Apply(transmissionBuffer(w, h), overlay)
	if err != nil {
		t.Fatalf("overlay returned error: %v", err)
	}
	// Digit "1" at (130, 20): glyph column 2 is lit in the first row.
	if got := pixel(out.Pix, w, 134, 20); got != raster.Red {
		t.Fatalf("label pixel = %v, want red", got)
	}
	// The unknown action is skipped, so the drag takes the second pair.
	// The end disc is drawn last, so sample the start disc away from it.
	if got := pixel(out.Pix, w, 170, 85); got != raster.Yellow {
		t.Fatalf("drag start = %v, want yellow", got)
	}
	if got := pixel(out.Pix, w, 190, 95); got != raster.Blue {
		t.Fatalf("drag end = %v, want blue", got)
	}
}

func TestActionOverlayRightClickUsesFixedColours(t *testing.T) {
	const w, h = 200, 100
	overlay := ActionOverlay{
		Actions: []Action{{Kind: RightClick, X1: 250, Y1: 500}},
		Palette: []ColorPair{{Primary: raster.White, Secondary: raster.Black}},
	}
	out, err := Apply(transmissionBuffer(w, h), overlay)
	if err != nil {
		t.Fatalf("overlay returned error: %v", err)
	}
	if got := pixel(out.Pix, w, 50, 50); got != raster.Blue {
		t.Fatalf("centre = %v, want blue", got)
	}
	if got := pixel(out.Pix, w, 90, 50); got != raster.Yellow {
		t.Fatalf("ring = %v, want yellow", got)
	}
}

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
		err  bool
	}{
		{in: "left_click:500,300", want: Action{Kind: LeftClick, X1: 500, Y1: 300}},
		{in: " Right_Click: 10 , 20 ", want: Action{Kind: RightClick, X1: 10, Y1: 20}},
		{in: "double_left_click:0,1000", want: Action{Kind: DoubleLeftClick, X1: 0, Y1: 1000}},
		{in: "drag:1,2,3,4", want: Action{Kind: Drag, X1: 1, Y1: 2, X2: 3, Y2: 4}},
		{in: "drag:1,2", err: true},
		{in: "left_click:1,2,3", err: true},
		{in: "hover:1,2", err: true},
		{in: "left_click", err: true},
		{in: "left_click:a,b", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAction(tc.in)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if again, err := ParseAction(got.String()); err != nil || again != got {
				t.Fatalf("String() did not parse back: %q", got.String())
			}
		})
	}
}

func TestPairPalette(t *testing.T) {
	pairs, err := PairPalette([]color.RGBA{raster.Red, raster.Green, raster.Blue, raster.Yellow})
	if err != nil {
		t.Fatalf("PairPalette returned error: %v", err)
	}
	if !reflect.DeepEqual(pairs, DefaultPalette) {
		t.Fatalf("got %+v, want default palette", pairs)
	}
	if _, err := PairPalette([]color.RGBA{raster.Red}); err == nil {
		t.Fatalf("expected error for odd palette")
	}
	if pairs, _ := PairPalette(nil); len(pairs) != len(DefaultPalette) {
		t.Fatalf("expected default palette for empty input")
	}
}
