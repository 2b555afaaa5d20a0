package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/glaze/internal/session"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.ReconcileInterval != DefaultReconcileInterval {
		t.Fatalf("expected reconcile_interval %v, got %v", DefaultReconcileInterval, cfg.ReconcileInterval)
	}
	if cfg.GLXSwapMethod != "undefined" {
		t.Fatalf("expected glx_swap_method undefined, got %q", cfg.GLXSwapMethod)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), res.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), res.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromPath_AllKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		`display: ":1"`,
		"backend: xrender",
		"glx_no_stencil: true",
		"glx_swap_method: buffer-age",
		"blur_kernels:",
		"  - width: 3",
		"    height: 1",
		"    weights: [0.25, 0.5, 0.25]",
		"window_shader: /usr/share/glaze/invert.glsl",
		"log_level: debug",
		"reconcile_interval: 2s",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := &Config{
		Display:       ":1",
		Backend:       "xrender",
		GLXNoStencil:  true,
		GLXSwapMethod: "buffer-age",
		BlurKernels: []BlurKernel{
			{Width: 3, Height: 1, Weights: []float64{0.25, 0.5, 0.25}},
		},
		WindowShader:      "/usr/share/glaze/invert.glsl",
		LogLevel:          "debug",
		ReconcileInterval: 2 * time.Second,
	}
	if diff := cmp.Diff(want, res.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_StrictUnknownKernelKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "blur_kernels:\n  - width: 1\n    height: 1\n    weight: [1]\n")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error for misspelled kernel key")
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(configD, "10-base.yaml"), "log_level: error\nbackend: glx\n")
	writeFile(t, filepath.Join(configD, "20-override.yaml"), "log_level: warn\n")
	writeFile(t, filepath.Join(configD, "notes.txt"), "not yaml: [\n")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"log_level: debug",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "debug" {
		t.Fatalf("expected log_level debug, got %q", res.Config.LogLevel)
	}
	if res.Config.Backend != "glx" {
		t.Fatalf("expected backend from include, got %q", res.Config.Backend)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files loaded, got %v", res.Files)
	}
	if filepath.Base(res.Files[2]) != "config.yaml" {
		t.Fatalf("expected main file last, got %v", res.Files)
	}
}

func TestLoadFromPath_KernelListReplacedNotAppended(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), strings.Join([]string{
		"blur_kernels:",
		"  - {width: 1, height: 1, weights: [1]}",
		"  - {width: 1, height: 1, weights: [1]}",
		"",
	}, "\n"))
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include: base.yaml",
		"blur_kernels:",
		"  - {width: 3, height: 1, weights: [1, 2, 1]}",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []BlurKernel{{Width: 3, Height: 1, Weights: []float64{1, 2, 1}}}
	if diff := cmp.Diff(want, res.Config.BlurKernels); diff != "" {
		t.Fatalf("kernels mismatch (-want +got):\n%s", diff)
	}
	if _, ok := res.Sources["blur_kernels.1"]; ok {
		t.Fatalf("expected stale kernel source from include to be dropped")
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorsCarrySources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"glx_swap_method: bogus",
		"blur_kernels:",
		"  - width: 2",
		"    height: 3",
		"    weights: [1, 2, 3, 4, 5, 6]",
		"",
	}, "\n"))

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, path+":1:18: glx_swap_method") {
		t.Fatalf("expected swap method error with position, got %v", err)
	}
	if !strings.Contains(msg, path+":3:5: blur_kernels.0") {
		t.Fatalf("expected kernel error with position, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a *ValidationError in %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		path   string
	}{
		{"bad swap method", func(c *Config) { c.GLXSwapMethod = "copy" }, "glx_swap_method"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"zero interval", func(c *Config) { c.ReconcileInterval = 0 }, "reconcile_interval"},
		{"padded backend", func(c *Config) { c.Backend = " glx" }, "backend"},
		{"even kernel", func(c *Config) {
			c.BlurKernels = []BlurKernel{{Width: 4, Height: 1, Weights: []float64{1, 1, 1, 1}}}
		}, "blur_kernels.0"},
		{"empty kernel", func(c *Config) {
			c.BlurKernels = []BlurKernel{{}}
		}, "blur_kernels.0"},
		{"weight count", func(c *Config) {
			c.BlurKernels = []BlurKernel{
				{Width: 1, Height: 1, Weights: []float64{1}},
				{Width: 3, Height: 3, Weights: []float64{1, 2, 3}},
			}
		}, "blur_kernels.1"},
		{"too many kernels", func(c *Config) {
			for i := 0; i <= MaxBlurKernels; i++ {
				c.BlurKernels = append(c.BlurKernels, BlurKernel{Width: 1, Height: 1, Weights: []float64{1}})
			}
		}, "blur_kernels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GLXSwapMethod = "copy"
	cfg.LogLevel = "loud"
	cfg.ReconcileInterval = -time.Second

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, path := range []string{"glx_swap_method", "log_level", "reconcile_interval"} {
		if !strings.Contains(err.Error(), path+":") {
			t.Fatalf("expected %s in %v", path, err)
		}
	}
}

func TestOptions(t *testing.T) {
	dir := t.TempDir()
	shader := filepath.Join(dir, "shaders", "dim.glsl")
	if err := os.MkdirAll(filepath.Dir(shader), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	const src = "uniform float opacity;\nvoid main() { gl_FragColor = vec4(0.0); }\n"
	writeFile(t, shader, src)

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"backend: glx",
		"glx_no_stencil: true",
		"glx_swap_method: buffer-age",
		"window_shader: shaders/dim.glsl",
		"blur_kernels:",
		"  - {width: 1, height: 3, weights: [1, 2, 1]}",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.WindowShader != shader {
		t.Fatalf("expected shader path resolved to %q, got %q", shader, res.Config.WindowShader)
	}

	opts, err := res.Config.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	want := session.Options{
		Backend:      "glx",
		GLXNoStencil: true,
		SwapMethod:   session.SwapBufferAge,
		BlurKernels: []session.BlurKernel{
			{Width: 1, Height: 3, Weights: []float64{1, 2, 1}},
		},
		WindowShader: src,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions_MissingShader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowShader = filepath.Join(t.TempDir(), "missing.glsl")

	if _, err := cfg.Options(); err == nil {
		t.Fatalf("expected error for missing shader")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Fatalf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"backend: xrender",
		"blur_kernels:",
		"  - width: 3",
		"    height: 1",
		"    weights: [1, 2, 1]",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "backend")
	if err != nil {
		t.Fatalf("explain backend: %v", err)
	}
	if val != "xrender" {
		t.Fatalf("expected backend xrender, got %v", val)
	}
	if src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("expected file source on line 1, got %+v", src)
	}

	val, src, err = Explain(res, "blur_kernels.0.width")
	if err != nil {
		t.Fatalf("explain kernel width: %v", err)
	}
	if val != 3 {
		t.Fatalf("expected width 3, got %v", val)
	}
	if src.Line != 3 {
		t.Fatalf("expected width on line 3, got %+v", src)
	}

	val, src, err = Explain(res, "reconcile_interval")
	if err != nil {
		t.Fatalf("explain reconcile_interval: %v", err)
	}
	if val != DefaultReconcileInterval {
		t.Fatalf("expected default interval, got %v", val)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %+v", src)
	}

	for _, bad := range []string{"", "nope", "backend.x", "blur_kernels.7", "blur_kernels.0.depth"} {
		if _, _, err := Explain(res, bad); err == nil {
			t.Fatalf("expected error for path %q", bad)
		}
	}
	if _, _, err := Explain(res, "nope"); !errors.Is(err, ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath, got %v", err)
	}
}

func TestSave_LoadsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "glx"
	cfg.GLXSwapMethod = "buffer-age"
	cfg.ReconcileInterval = 30 * time.Second
	cfg.BlurKernels = []BlurKernel{{Width: 3, Height: 3, Weights: []float64{1, 2, 1, 2, 4, 2, 1, 2, 1}}}

	path := filepath.Join(t.TempDir(), "glaze", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(cfg, res.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "chatty"

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.Save(path); err == nil {
		t.Fatalf("expected save to fail validation")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file written, got %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	want := filepath.Join(home, ".config", "glaze", "config.yaml")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
