package screenshot

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	kscreen "github.com/kbinani/screenshot"

	"github.com/nailuu/shotput/internal/platform"
)

// Tool is one of the supported external screenshot programs.
type Tool string

const (
	Maim      Tool = "maim"
	Grim      Tool = "grim"
	Scrot     Tool = "scrot"
	Spectacle Tool = "spectacle"
	Flameshot Tool = "flameshot"
)

// ParseTool validates a tool name against the supported set. Unknown names
// are rejected here, before anything is executed.
func ParseTool(name string) (Tool, error) {
	switch t := Tool(name); t {
	case Maim, Grim, Scrot, Spectacle, Flameshot:
		return t, nil
	}
	return "", fmt.Errorf("unsupported screenshot tool %q (supported: maim, grim, scrot, spectacle, flameshot)", name)
}

// required lists the executables a tool needs for region capture.
func (t Tool) required() []string {
	if t == Grim {
		return []string{"grim", "slurp"}
	}
	return []string{string(t)}
}

// Declared as vars so tests can substitute fake tools and a fake display.
var (
	lookPath = exec.LookPath

	newCommand = func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		return exec.CommandContext(ctx, name, arg...)
	}

	numDisplays    = kscreen.NumActiveDisplays
	captureDisplay = kscreen.CaptureDisplay
)

// Capturer drives screenshot acquisition. tool selects the external program
// for region capture; when empty the first available tool is used. Monitor
// capture goes through the external tool only when it can target an index
// (flameshot, scrot) and is done in-process otherwise.
type Capturer struct {
	tool    Tool
	logger  *log.Logger
	verbose bool
}

func New(tool Tool, logger *log.Logger, verbose bool) *Capturer {
	return &Capturer{tool: tool, logger: logger, verbose: verbose}
}

// Capture is a PNG byte stream plus the bookkeeping needed to settle the
// producing tool and remove any backing temp file.
type Capture struct {
	filename string

	tool     Tool
	reader   io.Reader
	closer   io.Closer
	wait     func() error // nil once the tool has exited
	stderr   *bytes.Buffer
	tmpPath  string
	once     sync.Once
	closeErr error
}

// Name returns the filename hint for the captured image.
func (c *Capture) Name() string {
	return c.filename
}

func (c *Capture) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// Close releases the stream and removes any backing temp file. Safe to call
// more than once; the temp file is removed exactly once.
func (c *Capture) Close() error {
	c.once.Do(func() {
		if c.closer != nil {
			c.closeErr = c.closer.Close()
		}
		if c.tmpPath != "" {
			if err := os.Remove(c.tmpPath); err != nil && c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}

// Finish reaps the producing tool once the stream has been consumed (or
// abandoned) and reports a non-zero exit. It closes the stream first so the
// tool cannot stay blocked writing to a dead pipe. File-backed captures
// settle at creation time, so Finish is a no-op for them.
func (c *Capture) Finish() error {
	if c.wait == nil {
		return nil
	}
	wait := c.wait
	c.wait = nil
	c.Close()
	if err := wait(); err != nil {
		return toolExitError(c.tool, err, c.stderr)
	}
	return nil
}

// Region captures an interactively selected screen region as a PNG stream.
// maim, grim and flameshot stream the image over stdout; scrot and
// spectacle write a temp file that the returned Capture owns.
func (c *Capturer) Region(ctx context.Context) (*Capture, error) {
	tool, err := c.resolveTool()
	if err != nil {
		return nil, err
	}

	switch tool {
	case Maim:
		return c.stream(ctx, tool, "maim", "-s")
	case Grim:
		geom, err := c.selectGeometry(ctx)
		if err != nil {
			return nil, err
		}
		return c.stream(ctx, tool, "grim", "-g", geom, "-")
	case Flameshot:
		return c.stream(ctx, tool, "flameshot", "gui", "-r")
	case Scrot:
		return c.captureToFile(ctx, tool, func(path string) []string {
			return []string{"scrot", "-s", path}
		})
	case Spectacle:
		return c.captureToFile(ctx, tool, func(path string) []string {
			return []string{"spectacle", "-b", "-r", "-n", "-o", path}
		})
	}
	return nil, fmt.Errorf("unsupported screenshot tool %q", tool)
}

// Monitor captures the display with the given index into a temp file and
// returns a Capture backed by it. The temp file is removed by Close.
func (c *Capturer) Monitor(ctx context.Context, index int) (*Capture, error) {
	path := tempPath()

	var err error
	switch c.tool {
	case Flameshot:
		err = c.monitorTool(ctx, Flameshot, index, "flameshot", "screen", "-n", strconv.Itoa(index), "-p", path)
	case Scrot:
		err = c.monitorTool(ctx, Scrot, index, "scrot", "-M", strconv.Itoa(index), path)
	default:
		err = c.monitorNative(index, path)
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("read monitor %d capture: %w", index, err)
	}
	if c.verbose {
		c.logger.Printf("screenshot: monitor %d staged at %s", index, path)
	}

	return &Capture{
		filename: fmt.Sprintf("monitor-%d.png", index),
		tool:     c.tool,
		reader:   f,
		closer:   f,
		tmpPath:  path,
	}, nil
}

// resolveTool returns the configured tool after checking its executables
// exist, or detects the first available one when none is configured.
func (c *Capturer) resolveTool() (Tool, error) {
	if c.tool != "" {
		for _, bin := range c.tool.required() {
			if _, err := lookPath(bin); err != nil {
				return "", fmt.Errorf("screenshot tool %s is not installed (missing %q)", c.tool, bin)
			}
		}
		return c.tool, nil
	}

	for _, t := range detectOrder() {
		if toolAvailable(t) {
			if c.verbose {
				c.logger.Printf("screenshot tool: %s", t)
			}
			return t, nil
		}
	}
	return "", errors.New("no screenshot tool found: install one of maim, grim (with slurp), scrot, spectacle, flameshot")
}

// Preference order for auto-detection. maim and scrot are X11-only, so
// Wayland sessions try the Wayland-native tools first.
func detectOrder() []Tool {
	if platform.SessionIsWayland() {
		return []Tool{Grim, Flameshot, Spectacle, Maim, Scrot}
	}
	return []Tool{Maim, Scrot, Flameshot, Spectacle, Grim}
}

func toolAvailable(t Tool) bool {
	for _, bin := range t.required() {
		if _, err := lookPath(bin); err != nil {
			return false
		}
	}
	return true
}

// selectGeometry runs slurp and returns the chosen region in grim's
// geometry syntax. A non-zero exit usually means the selection was
// cancelled.
func (c *Capturer) selectGeometry(ctx context.Context) (string, error) {
	cmd := newCommand(ctx, "slurp")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(exitErr.Stderr)) > 0 {
			return "", fmt.Errorf("slurp: %s", bytes.TrimSpace(exitErr.Stderr))
		}
		return "", fmt.Errorf("slurp: %w", err)
	}
	geom := string(bytes.TrimSpace(out))
	if geom == "" {
		return "", errors.New("slurp returned no selection")
	}
	return geom, nil
}

// stream starts a tool that writes the image to stdout and returns once the
// first byte is available, so the interactive selection completes before
// anything downstream runs. A clean exit with no output is an aborted
// selection.
func (c *Capturer) stream(ctx context.Context, tool Tool, name string, arg ...string) (*Capture, error) {
	cmd := newCommand(ctx, name, arg...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stdout pipe: %w", tool, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", tool, err)
	}

	br := bufio.NewReader(stdout)
	if _, err := br.Peek(1); err != nil {
		if waitErr := cmd.Wait(); waitErr != nil {
			return nil, toolExitError(tool, waitErr, &stderr)
		}
		return nil, fmt.Errorf("%s produced no image data (selection cancelled)", tool)
	}

	if c.verbose {
		c.logger.Printf("screenshot: streaming region from %s", tool)
	}

	return &Capture{
		filename: "selection.png",
		tool:     tool,
		reader:   br,
		closer:   stdout,
		wait:     cmd.Wait,
		stderr:   &stderr,
	}, nil
}

// captureToFile runs a tool that can only write to a path, then serves the
// result back as a stream. The tool has exited by the time this returns.
func (c *Capturer) captureToFile(ctx context.Context, tool Tool, argsFor func(path string) []string) (*Capture, error) {
	path := tempPath()
	args := argsFor(path)

	cmd := newCommand(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(path)
		return nil, toolExitError(tool, err, &stderr)
	}

	f, err := os.Open(path)
	if err != nil {
		os.Remove(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s produced no image data (selection cancelled)", tool)
		}
		return nil, fmt.Errorf("read %s output: %w", tool, err)
	}
	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%s produced no image data (selection cancelled)", tool)
	}

	return &Capture{
		filename: "selection.png",
		tool:     tool,
		reader:   f,
		closer:   f,
		tmpPath:  path,
	}, nil
}

func (c *Capturer) monitorTool(ctx context.Context, tool Tool, index int, name string, arg ...string) error {
	if _, err := lookPath(name); err != nil {
		return fmt.Errorf("screenshot tool %s is not installed (missing %q)", tool, name)
	}

	cmd := newCommand(ctx, name, arg...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("capture monitor %d: %w", index, toolExitError(tool, err, &stderr))
	}
	return nil
}

// monitorNative captures a display with the in-process capturer and encodes
// it to path as PNG.
func (c *Capturer) monitorNative(index int, path string) error {
	n := numDisplays()
	if n == 0 {
		return errors.New("in-process capture found no active displays; use flameshot or scrot as the screenshot tool")
	}
	if index >= n {
		return fmt.Errorf("monitor index %d out of range: %d active displays", index, n)
	}

	img, err := captureDisplay(index)
	if err != nil {
		return fmt.Errorf("capture monitor %d: %w", index, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stage monitor %d capture: %w", index, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode monitor %d capture: %w", index, err)
	}
	return f.Close()
}

func toolExitError(tool Tool, err error, stderr *bytes.Buffer) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("%s exited with status %d: %s", tool, exitErr.ExitCode(), msg)
		}
		return fmt.Errorf("%s exited with status %d", tool, exitErr.ExitCode())
	}
	return fmt.Errorf("%s: %w", tool, err)
}

// tempPath returns a unique staging path under the system temp directory.
func tempPath() string {
	return filepath.Join(os.TempDir(), "shotput-"+uuid.NewString()+".png")
}
