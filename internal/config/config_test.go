package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nailuu/shotput/internal/options"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExplicitPath(t *testing.T) {
	path := writeConfig(t, `
api_key: secret
expire: 600
org: true
tool: grim
monitor: 1
endpoint: http://localhost:9999/upload
`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.APIKey != "secret" {
		t.Errorf("APIKey = %q, want %q", f.APIKey, "secret")
	}
	if f.Expire != 600 {
		t.Errorf("Expire = %d, want 600", f.Expire)
	}
	if !f.Org || f.Markdown {
		t.Errorf("Org = %v, Markdown = %v, want true/false", f.Org, f.Markdown)
	}
	if f.Tool != "grim" {
		t.Errorf("Tool = %q, want %q", f.Tool, "grim")
	}
	if f.Monitor != 1 {
		t.Errorf("Monitor = %d, want 1", f.Monitor)
	}
	if f.Endpoint != "http://localhost:9999/upload" {
		t.Errorf("Endpoint = %q", f.Endpoint)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config, got nil")
	}
}

func TestLoad_DefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *f != (File{}) {
		t.Errorf("Load() = %+v, want zero File", f)
	}
}

func TestLoad_DefaultPathPresent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "shotput"), 0755); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(dir, "shotput", "config.yaml"), []byte("api_key: fromfile\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	f, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.APIKey != "fromfile" {
		t.Errorf("APIKey = %q, want %q", f.APIKey, "fromfile")
	}
}

func TestLoad_MalformedYAMLNamesFile(t *testing.T) {
	path := writeConfig(t, "api_key: [unclosed\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"expire_zero_ok", "expire: 0\n", false},
		{"expire_minimum_ok", "expire: 60\n", false},
		{"expire_below_range", "expire: 59\n", true},
		{"expire_above_range", "expire: 15552001\n", true},
		{"monitor_negative", "monitor: -1\n", true},
		{"tool_valid", "tool: flameshot\n", false},
		{"tool_unknown", "tool: gimp\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Load(%q) expected error, got nil", tt.content)
				}
				if !strings.Contains(err.Error(), path) {
					t.Errorf("error %q does not name the file", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load(%q) error: %v", tt.content, err)
			}
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("env_beats_file", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "fromenv")
		f := &File{APIKey: "fromfile"}
		key, err := f.ResolveAPIKey()
		if err != nil {
			t.Fatalf("ResolveAPIKey() error: %v", err)
		}
		if key != "fromenv" {
			t.Errorf("key = %q, want %q", key, "fromenv")
		}
	})

	t.Run("file_when_env_empty", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		f := &File{APIKey: "fromfile"}
		key, err := f.ResolveAPIKey()
		if err != nil {
			t.Fatalf("ResolveAPIKey() error: %v", err)
		}
		if key != "fromfile" {
			t.Errorf("key = %q, want %q", key, "fromfile")
		}
	})

	t.Run("neither_is_sentinel", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		_, err := (&File{}).ResolveAPIKey()
		if !errors.Is(err, ErrAPIKeyNotFound) {
			t.Fatalf("error = %v, want ErrAPIKeyNotFound", err)
		}
	})
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		name string
		file File
		want options.OutputFormat
	}{
		{"neither", File{}, options.Raw},
		{"markdown", File{Markdown: true}, options.Markdown},
		{"org", File{Org: true}, options.Org},
		{"org_wins_over_markdown", File{Markdown: true, Org: true}, options.Org},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.file.OutputFormat(); got != tt.want {
				t.Errorf("OutputFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}
