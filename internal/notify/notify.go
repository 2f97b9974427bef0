package notify

import (
	"context"
	"log"
	"os/exec"
)

// Notifier posts desktop notifications about the upload outcome. Delivery
// is fire-and-forget; implementations never return errors.
type Notifier interface {
	Success(ctx context.Context, url string)
	Failure(ctx context.Context, reason string)
}

// Declared as vars so tests can substitute a fake notify-send.
var (
	lookPath = exec.LookPath

	newCommand = func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		return exec.CommandContext(ctx, name, arg...)
	}
)

// New returns a desktop notifier when notify-send is available and a no-op
// otherwise. The capability check happens once, here.
func New(logger *log.Logger, verbose bool) Notifier {
	if _, err := lookPath("notify-send"); err != nil {
		if verbose {
			logger.Println("notify-send not found; notifications disabled")
		}
		return Noop{}
	}
	return desktop{logger: logger, verbose: verbose}
}

// Noop drops all notifications.
type Noop struct{}

func (Noop) Success(context.Context, string) {}
func (Noop) Failure(context.Context, string) {}

type desktop struct {
	logger  *log.Logger
	verbose bool
}

func (d desktop) Success(ctx context.Context, url string) {
	d.send(ctx, "Upload complete", url)
}

func (d desktop) Failure(ctx context.Context, reason string) {
	d.send(ctx, "Upload failed", reason)
}

func (d desktop) send(ctx context.Context, summary, body string) {
	cmd := newCommand(ctx, "notify-send", "-a", "shotput", summary, body)
	if err := cmd.Run(); err != nil && d.verbose {
		d.logger.Printf("notify: %v", err)
	}
}
