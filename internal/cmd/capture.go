package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.design/x/clipboard"

	"github.com/offlinefirst/screenframe/pkg/capture"
	"github.com/offlinefirst/screenframe/pkg/pngenc"
)

func newCaptureCommand() command {
	return command{
		name:        "capture",
		description: "Capture one frame, annotate it and write a PNG",
		example:     "capture --out shot.png --mark left_click:500,300",
		configure: func(fs *flag.FlagSet) {
			fs.String("out", "screenshot.png", "Output PNG path (\"-\" writes to stdout)")
			fs.Int("width", -1, "Target width in pixels (default: capture.target_width, 0 keeps aspect ratio)")
			fs.Int("height", -1, "Target height in pixels (default: capture.target_height, 0 keeps aspect ratio)")
			fs.Bool("native", false, "Keep the display's physical resolution")
			fs.String("source", "", "Capture source override (display, synthetic)")
			fs.Var(new(stringList), "mark", "Action to draw, e.g. left_click:120,40 or drag:10,10,200,200 (repeatable)")
			fs.Bool("clipboard", false, "Also copy the PNG to the system clipboard")
			fs.Bool("data-url", false, "Print the PNG as a base64 data URL")
		},
		run: runCaptureFrame,
	}
}

// copyToClipboard is extracted for testability.
var copyToClipboard = func(png []byte) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("initialise clipboard: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func runCaptureFrame(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	out := strings.TrimSpace(stringFlag(fs, "out"))
	if out == "" {
		return fmt.Errorf("--out must not be empty")
	}
	target := targetSize(ctx.Config, intFlag(fs, "width"), intFlag(fs, "height"), boolFlag(fs, "native"))
	sourceName := resolveSource(ctx.Config, stringFlag(fs, "source"))

	overlay, err := buildOverlay(ctx.Config, stringListFlag(fs, "mark"))
	if err != nil {
		return fmt.Errorf("parse marks: %w", err)
	}

	dpi := enableDPI()
	ctx.Logger.Info("capture command invoked", "source", sourceName, "target", target.String(), "dpi_awareness", string(dpi), "out", out)

	pipeline, err := newPipeline(ctx, sourceName)
	if err != nil {
		return err
	}
	res, err := pipeline.Capture(context.Background(), capture.Request{Target: target, Annotator: overlay})
	if err != nil {
		ctx.Logger.Error("capture failed", "error", err)
		return fmt.Errorf("capture frame: %w", err)
	}

	if out == "-" {
		if _, err := res.Image.WriteTo(stdout); err != nil {
			return fmt.Errorf("write PNG to stdout: %w", err)
		}
	} else {
		if err := writeImage(out, res.Image); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s (%s from %s via %s, %d bytes, %s)\n", out, res.Image.Size(), res.NativeSize, res.Backend, res.Image.Len(), res.Timings.Total())
	}

	if boolFlag(fs, "clipboard") {
		if err := copyToClipboard(res.Image.Bytes()); err != nil {
			ctx.Logger.Warn("clipboard copy failed", "error", err)
			fmt.Fprintf(stderr, "clipboard unavailable: %v\n", err)
		} else if out != "-" {
			fmt.Fprintln(stdout, "Copied PNG to clipboard")
		}
	}
	if boolFlag(fs, "data-url") && out != "-" {
		fmt.Fprintln(stdout, res.Image.DataURL())
	}
	return nil
}

func writeImage(path string, img pngenc.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if _, err := img.WriteTo(file); err != nil {
		file.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	return nil
}
