package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nailuu/shotput/internal/options"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

var (
	expireRaw    string
	customName   string
	outputFormat options.OutputFormat
	selectRegion bool
	monitorRaw   string
	toolFlag     string
	configPath   string
	verbose      bool
)

// monitorDefault is the NoOptDefVal sentinel a bare -M parses to; run()
// replaces it with the config file's default monitor index.
const monitorDefault = "default"

var rootCmd = &cobra.Command{
	Use:   "shotput [filepath]",
	Short: "Upload an image from the clipboard, a file or a screenshot and print the URL",
	Long: `shotput uploads an image to the configured image host and prints the
shareable URL.

The image comes from exactly one of four sources:
  clipboard (default)    the current clipboard image (PNG first, then JPEG)
  filepath               a local image file given as the only argument
  -s, --select           an interactively selected screen region
  -M, --monitor[=NUM]    a full capture of one monitor

The URL is printed raw, or wrapped for Markdown (--markdown) or Org-mode
(--org); when both format flags appear the last one wins. The printed text
is also copied to the clipboard. Expirations are written <n>[s|m|h|d] with
minutes as the default unit, or 0/none/never to keep the upload forever.

The API key comes from the SHOTPUT_API_KEY environment variable, or api_key
in ~/.config/shotput/config.yaml. The config file can also set defaults:
expire (in seconds), markdown, org, tool, monitor and endpoint.

Note: -M takes its value with an equals sign (-M=2 or --monitor=2). A bare
-M captures the monitor the config file names as the default.`,
	Args:    cobra.ArbitraryArgs,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		notifier := newNotifier(logger, verbose)
		err := run(cmd, args, logger, notifier)
		if err != nil {
			notifier.Failure(cmd.Context(), err.Error())
		}
		return err
	},
}

// formatValue backs --markdown and --org. Both flags write the same target,
// so whichever the command line sets last decides the format.
type formatValue struct {
	target *options.OutputFormat
	format options.OutputFormat
}

func (f *formatValue) String() string { return "" }

func (f *formatValue) Type() string { return "" }

func (f *formatValue) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*f.target = f.format
	}
	return nil
}

// ExecuteContext runs the root command. Called by main.main().
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\n%s", err, c.UsageString())
	})

	flags := rootCmd.Flags()
	flags.StringVarP(&expireRaw, "expire", "e", "", "auto-delete delay: <n>[s|m|h|d] or 0/none/never")
	flags.StringVarP(&customName, "name", "n", "", "custom name for the upload")
	flags.Var(&formatValue{&outputFormat, options.Markdown}, "markdown", "print the URL as ![](URL)")
	flags.Var(&formatValue{&outputFormat, options.Org}, "org", "print the URL as [[URL][]]")
	flags.BoolVarP(&selectRegion, "select", "s", false, "interactively select a screen region")
	flags.StringVarP(&monitorRaw, "monitor", "M", "", "capture monitor NUM (bare -M uses the configured default)")
	flags.StringVar(&toolFlag, "tool", "", "screenshot tool: maim|grim|scrot|spectacle|flameshot")
	flags.StringVar(&configPath, "config", "", "alternate config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "diagnostic logging to stderr")

	flags.Lookup("markdown").NoOptDefVal = "true"
	flags.Lookup("org").NoOptDefVal = "true"
	flags.Lookup("monitor").NoOptDefVal = monitorDefault
}
