package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/glaze/internal/config"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRunConfig_Validate(t *testing.T) {
	path := writeConfig(t, "backend: xrender\nlog_level: warn\n")

	var out bytes.Buffer
	if code := runConfig([]string{"validate", "--path", path}, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if out.String() != "config: ok\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunConfig_ValidateFails(t *testing.T) {
	path := writeConfig(t, "glx_swap_method: triple\n")

	var out bytes.Buffer
	if code := runConfig([]string{"validate", "--path", path}, &out); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestRunConfig_ValidateMissingShader(t *testing.T) {
	path := writeConfig(t, "window_shader: missing.glsl\n")

	var out bytes.Buffer
	if code := runConfig([]string{"validate", "--path", path}, &out); code != 1 {
		t.Fatalf("expected exit 1 for unreadable shader, got %d", code)
	}
}

func TestRunConfig_PrintDefaults(t *testing.T) {
	var out bytes.Buffer
	if code := runConfig([]string{"print", "--defaults"}, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"glx_swap_method: undefined", "log_level: info", "reconcile_interval: 10s"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestRunConfig_Explain(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	var out bytes.Buffer
	if code := runConfig([]string{"explain", "--path", path, "log_level"}, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	got := out.String()
	if !strings.Contains(got, "source: file:") || !strings.Contains(got, ":1:12") {
		t.Fatalf("expected file source in output:\n%s", got)
	}
	if !strings.Contains(got, "debug") {
		t.Fatalf("expected value in output:\n%s", got)
	}
}

func TestRunConfig_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glaze", "config.yaml")

	var out bytes.Buffer
	if code := runConfig([]string{"init", "--path", path}, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := config.LoadFromPath(path); err != nil {
		t.Fatalf("expected written config to load, got %v", err)
	}
	if code := runConfig([]string{"init", "--path", path}, &out); code != 1 {
		t.Fatalf("expected exit 1 for existing file, got %d", code)
	}
	if code := runConfig([]string{"init", "--path", path, "--force"}, &out); code != 0 {
		t.Fatalf("expected --force to overwrite, got %d", code)
	}
}

func TestRunConfig_UnknownSubcommand(t *testing.T) {
	var out bytes.Buffer
	if code := runConfig([]string{"frobnicate"}, &out); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceFile, File: "/etc/glaze.yaml", Line: 3, Column: 5}, "file:/etc/glaze.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "/etc/glaze.yaml"}, "file:/etc/glaze.yaml"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceDefault, Name: "defaults"}, "default:defaults"},
		{config.Source{Kind: config.SourceDefault}, "default"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Fatalf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestPrintBackends_PriorityOrder(t *testing.T) {
	var out bytes.Buffer
	printBackends(&out)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected both backends listed, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "glx ") || !strings.HasPrefix(lines[1], "xrender ") {
		t.Fatalf("expected glx before xrender, got %q", out.String())
	}
}
