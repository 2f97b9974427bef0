package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/nailuu/shotput/internal/clipboard"
	"github.com/nailuu/shotput/internal/options"
	"github.com/nailuu/shotput/internal/screenshot"
)

// Clipboard abstracts clipboard reads for testability.
type Clipboard interface {
	ReadImage(ctx context.Context) ([]byte, string, error)
}

// ClipboardFactory creates the clipboard client. It runs only when the
// request actually reads the clipboard, so other modes never require a
// clipboard tool to be installed.
type ClipboardFactory func() (Clipboard, error)

// Shot is one acquired screenshot: a byte stream plus settlement of the
// producing tool. *screenshot.Capture implements it.
type Shot interface {
	io.ReadCloser
	Finish() error
	Name() string
}

// Screens abstracts screenshot acquisition.
type Screens interface {
	Region(ctx context.Context) (Shot, error)
	Monitor(ctx context.Context, index int) (Shot, error)
}

// Payload is the image a request resolved to: a byte stream, a filename
// hint for the upload form, and the source it came from.
type Payload struct {
	Filename string
	Mode     options.SourceMode

	rc       io.ReadCloser
	finish   func() error
	once     sync.Once
	closeErr error
}

func (p *Payload) Read(b []byte) (int, error) {
	return p.rc.Read(b)
}

// Close releases the stream and any staging file behind it. Safe to call
// more than once.
func (p *Payload) Close() error {
	p.once.Do(func() { p.closeErr = p.rc.Close() })
	return p.closeErr
}

// Finish settles the producing tool once the stream has been consumed or
// abandoned. A tool failure reported here takes precedence over whatever
// the consumer did with the bytes.
func (p *Payload) Finish() error {
	if p.finish == nil {
		return nil
	}
	return p.finish()
}

// Resolver turns a validated request into an image payload.
type Resolver struct {
	logger    *log.Logger
	verbose   bool
	clipboard ClipboardFactory
	screens   Screens
}

// NewResolver wires the real clipboard and screenshot backends. tool may be
// empty, in which case region capture auto-detects one.
func NewResolver(tool screenshot.Tool, logger *log.Logger, verbose bool) *Resolver {
	return &Resolver{
		logger:  logger,
		verbose: verbose,
		clipboard: func() (Clipboard, error) {
			return clipboard.NewClient(logger, verbose)
		},
		screens: capturerScreens{screenshot.New(tool, logger, verbose)},
	}
}

// Resolve acquires the image bytes for the request's source mode. The
// caller owns the returned payload and must Close it on every path.
func (r *Resolver) Resolve(ctx context.Context, req *options.UploadRequest) (*Payload, error) {
	switch req.Source {
	case options.File:
		return r.fromFile(req.FilePath)
	case options.Clipboard:
		return r.fromClipboard(ctx)
	case options.RegionScreenshot:
		return r.fromRegion(ctx)
	case options.MonitorScreenshot:
		return r.fromMonitor(ctx, req.MonitorIndex)
	default:
		return nil, fmt.Errorf("unhandled source mode %v", req.Source)
	}
}

func (r *Resolver) fromFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if r.verbose {
		r.logger.Printf("source: file %s", path)
	}
	return &Payload{Filename: filepath.Base(path), Mode: options.File, rc: f}, nil
}

func (r *Resolver) fromClipboard(ctx context.Context) (*Payload, error) {
	client, err := r.clipboard()
	if err != nil {
		return nil, err
	}
	data, filename, err := client.ReadImage(ctx)
	if err != nil {
		return nil, err
	}
	if r.verbose {
		r.logger.Printf("source: clipboard %s (%d bytes)", filename, len(data))
	}
	return &Payload{
		Filename: filename,
		Mode:     options.Clipboard,
		rc:       io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (r *Resolver) fromRegion(ctx context.Context) (*Payload, error) {
	shot, err := r.screens.Region(ctx)
	if err != nil {
		return nil, fmt.Errorf("region capture: %w", err)
	}
	return &Payload{
		Filename: shot.Name(),
		Mode:     options.RegionScreenshot,
		rc:       shot,
		finish:   shot.Finish,
	}, nil
}

func (r *Resolver) fromMonitor(ctx context.Context, index int) (*Payload, error) {
	shot, err := r.screens.Monitor(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("monitor capture: %w", err)
	}
	return &Payload{
		Filename: shot.Name(),
		Mode:     options.MonitorScreenshot,
		rc:       shot,
		finish:   shot.Finish,
	}, nil
}

// capturerScreens adapts *screenshot.Capturer to the Screens interface.
type capturerScreens struct {
	c *screenshot.Capturer
}

func (s capturerScreens) Region(ctx context.Context) (Shot, error) {
	shot, err := s.c.Region(ctx)
	if err != nil {
		return nil, err
	}
	return shot, nil
}

func (s capturerScreens) Monitor(ctx context.Context, index int) (Shot, error) {
	shot, err := s.c.Monitor(ctx, index)
	if err != nil {
		return nil, err
	}
	return shot, nil
}
