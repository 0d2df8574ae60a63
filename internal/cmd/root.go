package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/offlinefirst/screenframe/internal/buildinfo"
	"github.com/offlinefirst/screenframe/pkg/config"
	"github.com/offlinefirst/screenframe/pkg/logging"
)

const binaryName = "screenframe"

type command struct {
	name        string
	description string
	// example is shown under the command in the root help.
	example   string
	configure func(fs *flag.FlagSet)
	run       func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error
	skipInit  bool
}

// AppContext carries the resolved configuration and logger shared by every
// command that needs them.
type AppContext struct {
	Config config.Config
	Logger *slog.Logger
}

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (o *globalOptions) bind(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Path to config file (default: ./config.yaml if present)")
	fs.StringVar(&o.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "", "Override logging.format (json, console)")
}

// RootCommand dispatches to the capture, watch, doctor and version commands.
type RootCommand struct {
	order    []string
	commands map[string]command
	stdout   io.Writer
	stderr   io.Writer
	appCtx   *AppContext
	globals  globalOptions
}

// NewRootCommand registers every subcommand in the order help lists them.
func NewRootCommand() *RootCommand {
	rc := &RootCommand{
		commands: make(map[string]command),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	rc.register(newCaptureCommand())
	rc.register(newWatchCommand())
	rc.register(newDoctorCommand())
	rc.register(newVersionCommand())

	return rc
}

func (rc *RootCommand) register(cmd command) {
	if _, exists := rc.commands[cmd.name]; !exists {
		rc.order = append(rc.order, cmd.name)
	}
	rc.commands[cmd.name] = cmd
}

// Execute parses global flags, resolves the command and runs it. Commands
// that need configuration get it loaded once, after their own flags parse.
func (rc *RootCommand) Execute(args []string) error {
	rootFlags := flag.NewFlagSet(binaryName, flag.ContinueOnError)
	rootFlags.SetOutput(rc.stderr)
	rootFlags.Usage = func() { rc.printHelp(rootFlags) }
	rc.globals.bind(rootFlags)

	if err := rootFlags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	remaining := rootFlags.Args()
	if len(remaining) == 0 || remaining[0] == "help" {
		rc.printHelp(rootFlags)
		return nil
	}

	name := remaining[0]
	subcommand, ok := rc.commands[name]
	if !ok {
		fmt.Fprintf(rc.stderr, "%s: unknown command %q (known: %s)\n", binaryName, name, strings.Join(rc.order, ", "))
		return fmt.Errorf("unknown command %q", name)
	}

	fs := flag.NewFlagSet(subcommand.name, flag.ContinueOnError)
	fs.SetOutput(rc.stderr)
	if subcommand.configure != nil {
		subcommand.configure(fs)
	}
	fs.Usage = func() { rc.printCommandHelp(subcommand, fs) }

	if err := fs.Parse(remaining[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var ctx *AppContext
	if !subcommand.skipInit {
		var err error
		if ctx, err = rc.ensureAppContext(); err != nil {
			return err
		}
		ctx.Logger.Debug("dispatching command", "command", subcommand.name, "args", fs.Args())
	}

	return subcommand.run(fs, fs.Args(), ctx, rc.stdout, rc.stderr)
}

func (rc *RootCommand) ensureAppContext() (*AppContext, error) {
	if rc.appCtx != nil {
		return rc.appCtx, nil
	}

	cfg, err := config.Load(rc.globals.configPath)
	if err != nil {
		return nil, err
	}
	if err := applyLoggingOverrides(&cfg, rc.globals); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: rc.stderr,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		"source", cfg.Source,
		"capture_source", cfg.Capture.Source,
		"target", fmt.Sprintf("%dx%d", cfg.Capture.TargetWidth, cfg.Capture.TargetHeight),
		"runs_dir", cfg.Paths.RunsDir,
	)

	rc.appCtx = &AppContext{Config: cfg, Logger: logger}
	return rc.appCtx, nil
}

func applyLoggingOverrides(cfg *config.Config, globals globalOptions) error {
	if globals.logLevel != "" {
		lvl, err := config.NormalizeLogLevel(globals.logLevel)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		cfg.Logging.Level = lvl
	}
	if globals.logFormat != "" {
		format, err := config.NormalizeFormat(globals.logFormat)
		if err != nil {
			return fmt.Errorf("--log-format: %w", err)
		}
		cfg.Logging.Format = format
	}
	return nil
}

func (rc *RootCommand) printHelp(rootFlags *flag.FlagSet) {
	out := rc.stdout
	fmt.Fprintf(out, "%s %s\n", binaryName, versionString())
	fmt.Fprintln(out, "Captures the primary display, scales and annotates the frame, and encodes it as PNG.")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Usage: %s [global flags] <command> [command flags]\n", binaryName)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, name := range rc.order {
		cmd := rc.commands[name]
		fmt.Fprintf(out, "  %-8s %s\n", cmd.name, cmd.description)
		if cmd.example != "" {
			fmt.Fprintf(out, "           e.g. %s %s\n", binaryName, cmd.example)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Global flags:")
	printFlags(out, rootFlags)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run '%s <command> -h' for command flags.\n", binaryName)
}

func (rc *RootCommand) printCommandHelp(cmd command, fs *flag.FlagSet) {
	fmt.Fprintf(rc.stdout, "Usage: %s %s [flags]\n", binaryName, cmd.name)
	fmt.Fprintln(rc.stdout, cmd.description)
	if cmd.example != "" {
		fmt.Fprintf(rc.stdout, "Example: %s %s\n", binaryName, cmd.example)
	}
	fmt.Fprintln(rc.stdout)
	printFlags(rc.stdout, fs)
}

func printFlags(out io.Writer, fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		name, usage := flag.UnquoteUsage(f)
		line := "  --" + f.Name
		if name != "" {
			line += " " + name
		}
		fmt.Fprintf(out, "%-24s %s", line, usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			fmt.Fprintf(out, " (default %s)", f.DefValue)
		}
		fmt.Fprintln(out)
	})
}

// versionString reports the build version with the toolchain and OS, e.g.
// "v0.3.0 (go1.22.4/windows)".
func versionString() string {
	return fmt.Sprintf("%s (%s/%s)", buildinfo.Version(), runtimeVersion(), runtimeGOOS())
}

// Swapped in tests.
var (
	runtimeVersion = runtime.Version
	runtimeGOOS    = func() string { return runtime.GOOS }
)
