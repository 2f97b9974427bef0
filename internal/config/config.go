package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nailuu/shotput/internal/options"
	"github.com/nailuu/shotput/internal/screenshot"
)

// EnvAPIKey overrides api_key from the config file when set and non-empty.
const EnvAPIKey = "SHOTPUT_API_KEY"

// ErrAPIKeyNotFound reports that neither the environment nor the config file
// supplied an API key. Callers distinguish it from other validation errors
// with errors.Is.
var ErrAPIKeyNotFound = errors.New("no API key found: set " + EnvAPIKey + " or api_key in the config file")

// File holds the on-disk defaults. The zero value is a valid configuration;
// CLI flags overlay these afterwards.
type File struct {
	APIKey   string `yaml:"api_key"`
	Expire   int    `yaml:"expire"` // seconds, 0 = no expiration
	Markdown bool   `yaml:"markdown"`
	Org      bool   `yaml:"org"`
	Tool     string `yaml:"tool"`
	Monitor  int    `yaml:"monitor"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultPath returns the default config location, e.g.
// ~/.config/shotput/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "shotput", "config.yaml"), nil
}

// Load reads the config file at path. An empty path means the default
// location, where a missing (or unresolvable) file simply yields the zero
// configuration; an explicitly given path must exist.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return &File{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Expire != 0 && (f.Expire < options.MinExpireSeconds || f.Expire > options.MaxExpireSeconds) {
		return fmt.Errorf("expire %d out of range: must be 0 or between %d and %d seconds",
			f.Expire, options.MinExpireSeconds, options.MaxExpireSeconds)
	}
	if f.Monitor < 0 {
		return fmt.Errorf("monitor index %d must be non-negative", f.Monitor)
	}
	if f.Tool != "" {
		if _, err := screenshot.ParseTool(f.Tool); err != nil {
			return err
		}
	}
	return nil
}

// ResolveAPIKey returns the API key, preferring the environment over the
// file. An empty string counts as unset at both layers.
func (f *File) ResolveAPIKey() (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}
	if f.APIKey != "" {
		return f.APIKey, nil
	}
	return "", ErrAPIKeyNotFound
}

// OutputFormat maps the markdown/org booleans to a default format. Org wins
// when both are set.
func (f *File) OutputFormat() options.OutputFormat {
	switch {
	case f.Org:
		return options.Org
	case f.Markdown:
		return options.Markdown
	default:
		return options.Raw
	}
}
