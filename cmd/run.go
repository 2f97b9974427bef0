package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nailuu/shotput/internal/clipboard"
	"github.com/nailuu/shotput/internal/config"
	"github.com/nailuu/shotput/internal/notify"
	"github.com/nailuu/shotput/internal/options"
	"github.com/nailuu/shotput/internal/screenshot"
	"github.com/nailuu/shotput/internal/source"
	"github.com/nailuu/shotput/internal/upload"
)

// urlCopier is the slice of the clipboard client the pipeline needs for its
// final best-effort copy.
type urlCopier interface {
	WriteText(ctx context.Context, text string) error
}

// Declared as vars so tests can substitute fakes.
var (
	newNotifier = func(logger *log.Logger, verbose bool) notify.Notifier {
		return notify.New(logger, verbose)
	}

	newClipboard = func(logger *log.Logger, verbose bool) (urlCopier, error) {
		return clipboard.NewClient(logger, verbose)
	}
)

func newLogger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "", 0)
}

// run is the whole pipeline: load defaults, validate the request, acquire
// the image, upload it, and report the URL.
func run(cmd *cobra.Command, args []string, logger *log.Logger, notifier notify.Notifier) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return err
	}

	tool, err := resolveTool(toolFlag, cfg.Tool)
	if err != nil {
		return err
	}

	format := outputFormat
	if !cmd.Flags().Changed("markdown") && !cmd.Flags().Changed("org") {
		format = cfg.OutputFormat()
	}

	monitorVal, monitorSet := resolveMonitorArg(cmd.Flags().Changed("monitor"), monitorRaw, cfg.Monitor)

	req, err := options.New(options.Inputs{
		Positional:    args,
		ExpireRaw:     expireRaw,
		DefaultExpire: cfg.Expire,
		Name:          customName,
		Format:        format,
		SelectRegion:  selectRegion,
		MonitorRaw:    monitorVal,
		MonitorSet:    monitorSet,
		APIKey:        apiKey,
	})
	if err != nil {
		return err
	}

	if verbose {
		logger.Printf("source mode: %s", req.Source)
	}

	resolver := source.NewResolver(tool, logger, verbose)
	payload, err := resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}
	defer payload.Close()

	client := upload.NewClient(cfg.Endpoint, logger, verbose)
	res, upErr := client.Upload(ctx, req, payload, payload.Filename)

	// The capture tool's exit status outranks whatever the API said about
	// the bytes it received.
	if err := payload.Finish(); err != nil {
		return err
	}
	if upErr != nil {
		return upErr
	}

	formatted := req.Format.Render(res.URL)
	fmt.Fprintln(cmd.OutOrStdout(), formatted)

	copyToClipboard(ctx, logger, formatted)
	notifier.Success(ctx, res.URL)
	return nil
}

// resolveTool applies the flag-beats-config layering for the screenshot
// tool. Either layer may be empty.
func resolveTool(flagVal, cfgVal string) (screenshot.Tool, error) {
	name := flagVal
	if name == "" {
		name = cfgVal
	}
	if name == "" {
		return "", nil
	}
	return screenshot.ParseTool(name)
}

// resolveMonitorArg turns the bare -M sentinel into the config file's
// default monitor index, leaving explicit values untouched.
func resolveMonitorArg(changed bool, raw string, cfgIndex int) (string, bool) {
	if !changed {
		return "", false
	}
	if raw == monitorDefault {
		return strconv.Itoa(cfgIndex), true
	}
	return raw, true
}

// copyToClipboard is best-effort: the URL was already printed, so a copy
// failure only warns.
func copyToClipboard(ctx context.Context, logger *log.Logger, text string) {
	clip, err := newClipboard(logger, verbose)
	if err != nil {
		logger.Printf("Warning: clipboard copy skipped: %v", err)
		return
	}
	if err := clip.WriteText(ctx, text); err != nil {
		logger.Printf("Warning: clipboard copy failed: %v", err)
	}
}
