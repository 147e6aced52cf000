package main

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"image/gif"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/kettek/apng"
	"github.com/mrsinham/dicom2gif/internal/dicom/dicomtest"
	"github.com/mrsinham/dicom2gif/internal/encode"
)

// binaryPath holds the path to the compiled binary (set once in TestMain)
var binaryPath string

// testContext holds state for a single scenario
type testContext struct {
	tmpDir   string
	exitCode int
	output   string
}

// buildBinary compiles the dicom2gif binary once
func buildBinary() (string, error) {
	tmpFile, err := os.CreateTemp("", "dicom2gif-test-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_ = tmpFile.Close()

	_, thisFile, _, _ := runtime.Caller(0)

	cmd := exec.Command("go", "build", "-o", tmpFile.Name(), ".")
	cmd.Dir = filepath.Dir(thisFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build failed: %w\n%s", err, stderr.String())
	}

	return tmpFile.Name(), nil
}

// TestMain compiles the binary once before running all tests
func TestMain(m *testing.M) {
	var err error
	binaryPath, err = buildBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build binary: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = os.Remove(binaryPath)
	os.Exit(code)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &testContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tmpDir, err := os.MkdirTemp("", "dicom2gif-e2e-*")
		if err != nil {
			return ctx, err
		}
		tc.tmpDir = tmpDir
		return ctx, nil
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.tmpDir != "" {
			_ = os.RemoveAll(tc.tmpDir)
		}
		return ctx, nil
	})

	sc.Step(`^dicom2gif is built$`, tc.dicom2gifIsBuilt)
	sc.Step(`^a multi-frame DICOM file "([^"]*)" with (\d+) frames$`, tc.aMultiFrameFile)
	sc.Step(`^a multi-frame DICOM file "([^"]*)" with (\d+) frames and a frame time of (\d+)ms$`, tc.aMultiFrameFileWithFrameTime)
	sc.Step(`^a DICOM series in "([^"]*)" with (\d+) files$`, tc.aDICOMSeries)
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, tc.aFileContaining)
	sc.Step(`^I run dicom2gif with "([^"]*)"$`, tc.iRunDicom2gifWith)
	sc.Step(`^the exit code should be (\d+)$`, tc.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^"([^"]*)" should exist$`, tc.shouldExist)
	sc.Step(`^"([^"]*)" should not exist$`, tc.shouldNotExist)
	sc.Step(`^"([^"]*)" should be a GIF with (\d+) frames$`, tc.shouldBeGIFWithFrames)
	sc.Step(`^"([^"]*)" should have a frame delay of (\d+) centiseconds$`, tc.shouldHaveGIFDelay)
	sc.Step(`^"([^"]*)" should be an APNG with (\d+) frames$`, tc.shouldBeAPNGWithFrames)
	sc.Step(`^"([^"]*)" should be a TIFF with (\d+) pages$`, tc.shouldBeTIFFWithPages)
}

func (tc *testContext) path(p string) string {
	return filepath.Join(tc.tmpDir, p)
}

func (tc *testContext) dicom2gifIsBuilt() error {
	if binaryPath == "" {
		return fmt.Errorf("binary not built")
	}
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		return fmt.Errorf("binary does not exist at %s", binaryPath)
	}
	return nil
}

func rampFrames(n, rows, cols int) [][]uint16 {
	frames := make([][]uint16, n)
	for i := range frames {
		frames[i] = dicomtest.Ramp(rows, cols, uint16(i*50), 10)
	}
	return frames
}

// seriesUID derives a stable numeric UID from a fixture path.
func seriesUID(path string) string {
	return fmt.Sprintf("1.2.826.0.1.3680043.2.%d", crc32.ChecksumIEEE([]byte(path)))
}

func (tc *testContext) aMultiFrameFile(path string, n int) error {
	return tc.aMultiFrameFileWithFrameTime(path, n, 0)
}

func (tc *testContext) aMultiFrameFileWithFrameTime(path string, n, frameTime int) error {
	return dicomtest.Write(tc.path(path), dicomtest.Image{
		SeriesUID: seriesUID(path),
		Rows:      16,
		Cols:      16,
		Frames:    rampFrames(n, 16, 16),
		FrameTime: float64(frameTime),
		Window:    &[2]float64{400, 800},
	})
}

func (tc *testContext) aDICOMSeries(dir string, n int) error {
	_, err := dicomtest.WriteSeries(tc.path(dir), "IM", dicomtest.Image{
		SeriesUID: seriesUID(dir),
		Rows:      8,
		Cols:      8,
	}, rampFrames(n, 8, 8))
	return err
}

func (tc *testContext) aFileContaining(path, content string) error {
	full := tc.path(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	content = strings.ReplaceAll(content, `\n`, "\n")
	return os.WriteFile(full, []byte(content), 0o644)
}

func (tc *testContext) iRunDicom2gifWith(args string) error {
	args = strings.ReplaceAll(args, "{tmpdir}", tc.tmpDir)
	argList := splitArgs(args)

	cmd := exec.Command(binaryPath, argList...)
	cmd.Env = os.Environ()
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	tc.output = output.String()

	if exitErr, ok := err.(*exec.ExitError); ok {
		tc.exitCode = exitErr.ExitCode()
	} else if err != nil {
		return fmt.Errorf("failed to run command: %w", err)
	} else {
		tc.exitCode = 0
	}

	return nil
}

func (tc *testContext) theExitCodeShouldBe(expected int) error {
	if tc.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nOutput:\n%s", expected, tc.exitCode, tc.output)
	}
	return nil
}

func (tc *testContext) theOutputShouldContain(expected string) error {
	expected = strings.ReplaceAll(expected, "{tmpdir}", tc.tmpDir)
	if !strings.Contains(tc.output, expected) {
		return fmt.Errorf("output does not contain %q\nOutput:\n%s", expected, tc.output)
	}
	return nil
}

func (tc *testContext) shouldExist(path string) error {
	if _, err := os.Stat(tc.path(path)); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	return nil
}

func (tc *testContext) shouldNotExist(path string) error {
	if _, err := os.Stat(tc.path(path)); !os.IsNotExist(err) {
		return fmt.Errorf("path should not exist: %s", path)
	}
	return nil
}

func (tc *testContext) decodeGIF(path string) (*gif.GIF, error) {
	f, err := os.Open(tc.path(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return gif.DecodeAll(f)
}

func (tc *testContext) shouldBeGIFWithFrames(path string, n int) error {
	g, err := tc.decodeGIF(path)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(g.Image) != n {
		return fmt.Errorf("expected %d frames, got %d", n, len(g.Image))
	}
	return nil
}

func (tc *testContext) shouldHaveGIFDelay(path string, cs int) error {
	g, err := tc.decodeGIF(path)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	for i, d := range g.Delay {
		if d != cs {
			return fmt.Errorf("frame %d has delay %d, expected %d", i, d, cs)
		}
	}
	return nil
}

func (tc *testContext) shouldBeAPNGWithFrames(path string, n int) error {
	f, err := os.Open(tc.path(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	a, err := apng.DecodeAll(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(a.Frames) != n {
		return fmt.Errorf("expected %d frames, got %d", n, len(a.Frames))
	}
	return nil
}

func (tc *testContext) shouldBeTIFFWithPages(path string, n int) error {
	f, err := os.Open(tc.path(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	pages, err := encode.CountPages(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if pages != n {
		return fmt.Errorf("expected %d pages, got %d", n, pages)
	}
	return nil
}

// splitArgs splits a command line string into arguments
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false

	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}
