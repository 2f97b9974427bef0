package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/nailuu/shotput/internal/platform"
)

// ErrNoImage is returned by ReadImage when no readable image type is on the
// clipboard. Callers detect it with errors.Is.
var ErrNoImage = errors.New("no image data found in clipboard")

type backend int

const (
	backendWayland backend = iota
	backendX11
)

// Image types tried in order when reading; the first non-empty result wins.
var imageTypes = []struct {
	mime     string
	filename string
}{
	{"image/png", "clipboard.png"},
	{"image/jpeg", "clipboard.jpg"},
}

// Client reads and writes the desktop clipboard through the session's
// clipboard tool: wl-clipboard under Wayland, xclip under X11. The backend
// is chosen once at construction.
type Client struct {
	backend backend
	logger  *log.Logger
	verbose bool
}

// Declared as vars so tests can substitute fake tools.
var (
	lookPath = exec.LookPath

	newCommand = func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		return exec.CommandContext(ctx, name, arg...)
	}
)

// NewClient picks a clipboard backend: wl-clipboard in a Wayland session
// when wl-paste resolves, xclip otherwise. No usable tool is an error.
func NewClient(logger *log.Logger, verbose bool) (*Client, error) {
	if platform.SessionIsWayland() {
		if _, err := lookPath("wl-paste"); err == nil {
			if verbose {
				logger.Println("clipboard backend: wl-clipboard")
			}
			return &Client{backend: backendWayland, logger: logger, verbose: verbose}, nil
		}
	}

	if _, err := lookPath("xclip"); err == nil {
		if verbose {
			logger.Println("clipboard backend: xclip")
		}
		return &Client{backend: backendX11, logger: logger, verbose: verbose}, nil
	}

	return nil, errors.New("no clipboard tool found: install wl-clipboard (Wayland) or xclip (X11)")
}

// ReadImage returns the clipboard's image bytes and a filename hint, trying
// image/png then image/jpeg. An exhausted fallback chain is ErrNoImage.
func (c *Client) ReadImage(ctx context.Context) ([]byte, string, error) {
	for _, it := range imageTypes {
		data, err := c.paste(ctx, it.mime)
		if err != nil {
			if c.verbose {
				c.logger.Printf("clipboard: no %s: %v", it.mime, err)
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		if c.verbose {
			c.logger.Printf("clipboard: read %s (%d bytes)", it.mime, len(data))
		}
		return data, it.filename, nil
	}
	return nil, "", ErrNoImage
}

func (c *Client) paste(ctx context.Context, mime string) ([]byte, error) {
	var cmd *exec.Cmd
	switch c.backend {
	case backendWayland:
		cmd = newCommand(ctx, "wl-paste", "--type", mime)
	default:
		cmd = newCommand(ctx, "xclip", "-selection", "clipboard", "-t", mime, "-o")
	}

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(exitErr.Stderr)) > 0 {
			return nil, fmt.Errorf("%s: %s", cmd.Args[0], bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w", cmd.Args[0], err)
	}
	return out, nil
}

// WriteText places text on the clipboard. Failures are reported but callers
// treat them as non-fatal; the upload already succeeded by the time this runs.
func (c *Client) WriteText(ctx context.Context, text string) error {
	var cmd *exec.Cmd
	switch c.backend {
	case backendWayland:
		cmd = newCommand(ctx, "wl-copy")
	default:
		cmd = newCommand(ctx, "xclip", "-selection", "clipboard")
	}
	cmd.Stdin = strings.NewReader(text)

	if out, err := cmd.CombinedOutput(); err != nil {
		if msg := bytes.TrimSpace(out); len(msg) > 0 {
			return fmt.Errorf("%s: %s", cmd.Args[0], msg)
		}
		return fmt.Errorf("%s: %w", cmd.Args[0], err)
	}
	return nil
}
