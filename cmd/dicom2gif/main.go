package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard"
	"github.com/mrsinham/dicom2gif/internal/config"
	"github.com/mrsinham/dicom2gif/internal/convert"
	"github.com/mrsinham/dicom2gif/internal/dicom"
	"github.com/mrsinham/dicom2gif/internal/image"
	"github.com/mrsinham/dicom2gif/internal/logging"
	"github.com/spf13/pflag"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Check for wizard subcommand (before flag parsing)
	if len(os.Args) > 1 && os.Args[1] == "wizard" {
		if err := runWizard(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func runWizard(args []string) error {
	fs := pflag.NewFlagSet("dicom2gif wizard", pflag.ContinueOnError)
	from := fs.String("from", "", "Pre-fill the wizard from a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return wizard.Run(*from)
}

// run parses args, converts the input and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("dicom2gif", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	// dcm_path style names from older scripts keep working.
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.SortFlags = false

	pattern := fs.StringP("pattern", "p", dicom.DefaultPattern, "File name glob used when DCM_PATH is a directory")
	outFile := fs.StringP("out-file", "o", "", "Output file for a single DICOM file (extension picks the format)")
	format := fs.StringP("format", "f", config.DefaultFormat, "Output format: gif, apng, tiff")
	duration := fs.StringP("duration", "d", "", "Frame duration in ms or as a Go duration (e.g. 100, 80ms)")
	windowing := fs.StringP("windowing", "w", config.DefaultWindowing, "Windowing: dicom, full, a preset, or CENTER,WIDTH")
	frames := fs.String("frames", "", "Frame range, 1-based inclusive (e.g. 5, 3-10, -20, 8-)")
	annotate := fs.Bool("annotate", false, "Burn an i/n frame counter into each frame")

	configFile := fs.String("config", "", "Load settings from a YAML config file")
	saveConfig := fs.String("save-config", "", "Save the effective settings to a YAML file")
	logLevel := fs.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	listPresets := fs.Bool("list-presets", false, "List windowing presets and exit")
	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.BoolP("help", "h", false, "Show help message")

	fs.Usage = func() { printUsage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(fs, stdout)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *showHelp {
		printHelp(fs, stdout)
		return 0
	}

	if *showVersion {
		fmt.Fprintf(stdout, "dicom2gif %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		return 0
	}

	if *listPresets {
		printPresets(stdout)
		return 0
	}

	// Settings precedence: defaults, config file, environment, explicit flags
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if fs.Changed("pattern") {
		cfg.Pattern = *pattern
	}
	if fs.Changed("out-file") {
		cfg.OutFile = *outFile
	}
	if fs.Changed("format") {
		cfg.Format = *format
	}
	if fs.Changed("duration") {
		cfg.Duration = *duration
	}
	if fs.Changed("windowing") {
		cfg.Windowing = *windowing
	}
	if fs.Changed("frames") {
		cfg.Frames = *frames
	}
	if fs.Changed("annotate") {
		cfg.Annotate = *annotate
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *saveConfig != "" {
		if err := config.Save(cfg, *saveConfig); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "✓ Configuration saved to %s\n", *saveConfig)
	}

	if fs.NArg() != 1 {
		if *saveConfig != "" && fs.NArg() == 0 {
			return 0
		}
		fmt.Fprintf(stderr, "Error: expected exactly one DCM_PATH, got %d\n\n", fs.NArg())
		printUsage(fs, stderr)
		return 1
	}
	input := fs.Arg(0)

	opts, err := cfg.Options()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	opts.Logger = logging.NewLogger(cfg.LogLevel, stderr)
	opts.Progress = func(done, total int, out string, err error) {
		if err != nil {
			fmt.Fprintf(stdout, "✗ [%d/%d] %s: %v\n", done, total, out, err)
			return
		}
		fmt.Fprintf(stdout, "✓ [%d/%d] Wrote %s\n", done, total, out)
	}

	report, err := convert.Run(input, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	if !report.OK() {
		return 1
	}

	if n := len(report.Failed); n > 0 {
		fmt.Fprintf(stdout, "\n%d series written, %d failed\n", len(report.Written), n)
	}
	return 0
}

func printPresets(w io.Writer) {
	fmt.Fprintln(w, "Windowing presets (center, width):")
	for _, p := range image.Presets() {
		fmt.Fprintf(w, "  %-12s %6g %6g\n", p.Name, p.Center, p.Width)
	}
}

func printUsage(fs *pflag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: dicom2gif [options] DCM_PATH")
	fmt.Fprintln(w, "       dicom2gif wizard [--from FILE]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'dicom2gif --help' for more information.")
}

func printHelp(fs *pflag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "dicom2gif - Convert DICOM series to animated GIF, APNG or multi-page TIFF")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  dicom2gif [options] DCM_PATH")
	fmt.Fprintln(w, "  dicom2gif wizard [--from FILE]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "DCM_PATH is a DICOM file or a directory. A directory is scanned")
	fmt.Fprintln(w, "recursively, files are grouped by series, and each series is written")
	fmt.Fprintln(w, "next to its first file with the format extension.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "WINDOWING:")
	fmt.Fprintln(w, "  dicom          Window center/width from the file, full range if absent")
	fmt.Fprintln(w, "  full           Minimum to maximum of the whole series")
	fmt.Fprintln(w, "  PRESET         A named preset, see --list-presets")
	fmt.Fprintln(w, "  CENTER,WIDTH   Explicit window, e.g. 40,400")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "FRAME DURATION:")
	fmt.Fprintln(w, "  Without --duration, frames use FrameTime, then acquisition timestamps,")
	fmt.Fprintln(w, "  then 100ms.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "ENVIRONMENT:")
	fmt.Fprintf(w, "  %-22s Log level\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %-22s File pattern\n", config.EnvPattern)
	fmt.Fprintf(w, "  %-22s Output format\n", config.EnvFormat)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  # Convert one multi-frame file to cine.gif")
	fmt.Fprintln(w, "  dicom2gif cine.dcm")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  # Every series of a study as APNG with a lung window")
	fmt.Fprintln(w, "  dicom2gif --format apng --windowing lung ./study")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  # Frames 10 to 40 at 50ms with a frame counter")
	fmt.Fprintln(w, "  dicom2gif --frames 10-40 -d 50 --annotate -o out/loop.gif cine.dcm")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  # Interactive mode")
	fmt.Fprintln(w, "  dicom2gif wizard")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Exit status is 0 when at least one file was written, 1 otherwise.")
}
