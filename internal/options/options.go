package options

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// SourceMode selects the strategy used to obtain the image bytes.
type SourceMode int

const (
	Clipboard SourceMode = iota
	File
	RegionScreenshot
	MonitorScreenshot
)

func (m SourceMode) String() string {
	switch m {
	case Clipboard:
		return "clipboard"
	case File:
		return "file"
	case RegionScreenshot:
		return "region screenshot"
	case MonitorScreenshot:
		return "monitor screenshot"
	default:
		return fmt.Sprintf("SourceMode(%d)", int(m))
	}
}

// OutputFormat selects how the resulting URL is printed.
type OutputFormat int

const (
	Raw OutputFormat = iota
	Markdown
	Org
)

// Render formats url for the chosen output style. Markdown wraps it in an
// image link, Org in a link with an empty description slot.
func (f OutputFormat) Render(url string) string {
	switch f {
	case Markdown:
		return "![](" + url + ")"
	case Org:
		return "[[" + url + "][]]"
	default:
		return url
	}
}

func (f OutputFormat) String() string {
	switch f {
	case Markdown:
		return "markdown"
	case Org:
		return "org"
	default:
		return "raw"
	}
}

// Expiration bounds accepted by the upload API, in seconds.
const (
	MinExpireSeconds = 60
	MaxExpireSeconds = 15552000
)

var expirePattern = regexp.MustCompile(`^([0-9]+)([smhd]?)$`)

var unitSeconds = map[string]int{
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
}

// ParseExpiration converts a duration string into seconds. "0", "none" and
// "never" mean no expiration and return 0. Otherwise the input must match
// <number>[s|m|h|d]; a missing unit means minutes. The result must fall
// within [MinExpireSeconds, MaxExpireSeconds].
func ParseExpiration(raw string) (int, error) {
	switch raw {
	case "0", "none", "never":
		return 0, nil
	}

	m := expirePattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("invalid expiration %q: expected <number>[s|m|h|d] (default unit is minutes), or 0/none/never", raw)
	}

	value, err := strconv.Atoi(m[1])
	if err != nil {
		// The pattern only admits digits, so this is an overflow.
		return 0, fmt.Errorf("invalid expiration %q: %w", raw, err)
	}

	unit := m[2]
	if unit == "" {
		unit = "m"
	}

	seconds := value * unitSeconds[unit]
	if seconds < MinExpireSeconds || seconds > MaxExpireSeconds {
		return 0, fmt.Errorf("expiration %q is out of range: must be between %d and %d seconds", raw, MinExpireSeconds, MaxExpireSeconds)
	}
	return seconds, nil
}

var monitorPattern = regexp.MustCompile(`^[0-9]+$`)

// UploadRequest is the validated, immutable description of one upload.
// Exactly one source mode holds; FilePath is set only for File and
// MonitorIndex only for MonitorScreenshot.
type UploadRequest struct {
	Source        SourceMode
	FilePath      string
	MonitorIndex  int
	ExpireSeconds int // 0 = no expiration
	CustomName    string
	Format        OutputFormat
	APIKey        string
}

// Inputs carries the raw command-line values plus the defaults already
// layered from the config file. Empty strings mean "not supplied".
type Inputs struct {
	Positional []string

	ExpireRaw     string // -e/--expire as typed
	DefaultExpire int    // config default, already in seconds, 0 = none

	Name string

	Format OutputFormat

	SelectRegion bool
	MonitorRaw   string // -M/--monitor as typed
	MonitorSet   bool

	APIKey string
}

// New validates the inputs and builds the UploadRequest. All validation
// happens here, before any external tool or network interaction.
func New(in Inputs) (*UploadRequest, error) {
	if len(in.Positional) > 1 {
		return nil, fmt.Errorf("expected at most one file path, got %q and %q", in.Positional[0], in.Positional[1])
	}

	filePath := ""
	if len(in.Positional) == 1 {
		filePath = in.Positional[0]
	}

	// The four source modes are mutually exclusive by construction.
	switch {
	case filePath != "" && in.SelectRegion:
		return nil, fmt.Errorf("cannot combine a file path (%s) with --select", filePath)
	case filePath != "" && in.MonitorSet:
		return nil, fmt.Errorf("cannot combine a file path (%s) with --monitor", filePath)
	case in.SelectRegion && in.MonitorSet:
		return nil, fmt.Errorf("--select and --monitor are mutually exclusive")
	}

	req := &UploadRequest{
		Source:     Clipboard,
		CustomName: in.Name,
		Format:     in.Format,
		APIKey:     in.APIKey,
	}

	switch {
	case filePath != "":
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read file %q: %w", filePath, err)
		}
		f.Close()
		req.Source = File
		req.FilePath = filePath
	case in.SelectRegion:
		req.Source = RegionScreenshot
	case in.MonitorSet:
		if !monitorPattern.MatchString(in.MonitorRaw) {
			return nil, fmt.Errorf("invalid monitor index %q: must be a non-negative integer", in.MonitorRaw)
		}
		index, err := strconv.Atoi(in.MonitorRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid monitor index %q: %w", in.MonitorRaw, err)
		}
		req.Source = MonitorScreenshot
		req.MonitorIndex = index
	}

	if in.ExpireRaw != "" {
		seconds, err := ParseExpiration(in.ExpireRaw)
		if err != nil {
			return nil, err
		}
		req.ExpireSeconds = seconds
	} else {
		req.ExpireSeconds = in.DefaultExpire
	}

	if req.APIKey == "" {
		return nil, fmt.Errorf("upload request requires an API key")
	}

	return req, nil
}
