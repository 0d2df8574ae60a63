package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/screenframe/pkg/annotate"
	"github.com/offlinefirst/screenframe/pkg/capture"
	"github.com/offlinefirst/screenframe/pkg/config"
	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/pngenc"
)

func newDoctorCommand() command {
	return command{
		name:        "doctor",
		description: "Report capture support and run a pipeline self-test",
		example:     "doctor --display",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("display", false, "Also attempt one capture from the live display")
		},
		run: runDoctor,
	}
}

func runDoctor(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	dpi := enableDPI()
	env := detectEnv()
	fmt.Fprintf(stdout, "Version: %s\n", versionString())
	fmt.Fprintf(stdout, "Display capture: provider=%s available=%t permission=%s\n", env.Provider, env.Available, env.Permission)
	if env.Message != "" {
		fmt.Fprintf(stdout, "  %s\n", env.Message)
	}
	if env.Guidance != "" {
		fmt.Fprintf(stdout, "  guidance: %s\n", env.Guidance)
	}
	fmt.Fprintf(stdout, "DPI awareness: %s\n", dpi)

	selfTest, err := doctorSelfTest(ctx)
	if err != nil {
		fmt.Fprintf(stdout, "Pipeline self-test: FAILED (%v)\n", err)
		return fmt.Errorf("pipeline self-test: %w", err)
	}
	fmt.Fprintf(stdout, "Pipeline self-test: ok (%s, %d bytes, %s)\n", selfTest.Image.Size(), selfTest.Image.Len(), selfTest.Timings.Total())

	if boolFlag(fs, "display") {
		pipeline, err := newPipeline(ctx, config.SourceDisplay)
		if err != nil {
			return err
		}
		res, err := pipeline.Capture(context.Background(), capture.Request{})
		if err != nil {
			ctx.Logger.Warn("display capture failed", "error", err)
			fmt.Fprintf(stdout, "Display capture: FAILED (%v)\n", err)
			return fmt.Errorf("display capture: %w", err)
		}
		fmt.Fprintf(stdout, "Display capture: ok (%s via %s, %d bytes)\n", res.NativeSize, res.Backend, res.Image.Len())
	}
	return nil
}

// doctorSelfTest runs every stage on a synthetic frame with a marker drawn
// on it and checks the encoded stream starts with the PNG signature.
func doctorSelfTest(ctx *AppContext) (capture.Result, error) {
	pipeline, err := newPipeline(ctx, config.SourceSynthetic)
	if err != nil {
		return capture.Result{}, err
	}
	overlay := annotate.ActionOverlay{Actions: []annotate.Action{
		{Kind: annotate.LeftClick, X1: 100, Y1: 100},
		{Kind: annotate.Drag, X1: 200, Y1: 200, X2: 400, Y2: 300},
	}}
	res, err := pipeline.Capture(context.Background(), capture.Request{
		Target:    frame.Size{Width: 480},
		Annotator: overlay,
	})
	if err != nil {
		return capture.Result{}, err
	}
	if !bytes.HasPrefix(res.Image.Bytes(), pngenc.Signature[:]) {
		return capture.Result{}, fmt.Errorf("encoded output is missing the PNG signature")
	}
	return res, nil
}
