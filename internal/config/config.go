package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/glaze/internal/session"
)

const (
	// DefaultReconcileInterval is how often the daemon re-lists windows
	// when reconcile_interval is not set.
	DefaultReconcileInterval = 10 * time.Second

	// MaxBlurKernels is the number of blur passes the GL backend keeps
	// shader programs for.
	MaxBlurKernels = 5
)

// BlurKernel is one convolution pass of the background blur.
type BlurKernel struct {
	Width   int       `yaml:"width"`
	Height  int       `yaml:"height"`
	Weights []float64 `yaml:"weights,flow"`
}

// Config is the effective daemon configuration.
type Config struct {
	// Display overrides $DISPLAY when non-empty.
	Display string `yaml:"display"`
	// Backend forces a rendering backend; empty selects by priority.
	Backend       string       `yaml:"backend"`
	GLXNoStencil  bool         `yaml:"glx_no_stencil"`
	GLXSwapMethod string       `yaml:"glx_swap_method"`
	BlurKernels   []BlurKernel `yaml:"blur_kernels"`
	// WindowShader is the path of a custom GLSL fragment shader.
	WindowShader      string        `yaml:"window_shader"`
	LogLevel          string        `yaml:"log_level"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		GLXSwapMethod:     session.SwapUndefined.String(),
		BlurKernels:       []BlurKernel{},
		LogLevel:          "info",
		ReconcileInterval: DefaultReconcileInterval,
	}
}

// Validate checks the effective configuration. Every problem is reported,
// joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Backend) != c.Backend {
		errs = append(errs, &ValidationError{Path: "backend", Err: fmt.Errorf("backend must not contain surrounding whitespace")})
	}
	if _, err := session.ParseSwapMethod(c.GLXSwapMethod); err != nil {
		errs = append(errs, &ValidationError{Path: "glx_swap_method", Err: err})
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, &ValidationError{Path: "log_level", Err: err})
	}
	if c.ReconcileInterval <= 0 {
		errs = append(errs, &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be > 0")})
	}
	if len(c.BlurKernels) > MaxBlurKernels {
		errs = append(errs, &ValidationError{Path: "blur_kernels", Err: fmt.Errorf("at most %d blur kernels are supported, got %d", MaxBlurKernels, len(c.BlurKernels))})
	}
	for i, k := range c.BlurKernels {
		if err := validateKernel(k); err != nil {
			errs = append(errs, &ValidationError{Path: fmt.Sprintf("blur_kernels.%d", i), Err: err})
		}
	}

	return errors.Join(errs...)
}

func validateKernel(k BlurKernel) error {
	if k.Width <= 0 || k.Height <= 0 {
		return fmt.Errorf("kernel size must be positive, got %dx%d", k.Width, k.Height)
	}
	if k.Width%2 == 0 || k.Height%2 == 0 {
		return fmt.Errorf("kernel size must be odd, got %dx%d", k.Width, k.Height)
	}
	if len(k.Weights) != k.Width*k.Height {
		return fmt.Errorf("kernel %dx%d needs %d weights, got %d", k.Width, k.Height, k.Width*k.Height, len(k.Weights))
	}
	return nil
}

// Options converts the configuration into the render options handed to
// backends. The window shader file is read here.
func (c *Config) Options() (session.Options, error) {
	swap, err := session.ParseSwapMethod(c.GLXSwapMethod)
	if err != nil {
		return session.Options{}, err
	}

	opts := session.Options{
		Backend:      c.Backend,
		GLXNoStencil: c.GLXNoStencil,
		SwapMethod:   swap,
	}
	for _, k := range c.BlurKernels {
		opts.BlurKernels = append(opts.BlurKernels, session.BlurKernel{
			Width:   k.Width,
			Height:  k.Height,
			Weights: append([]float64(nil), k.Weights...),
		})
	}
	if c.WindowShader != "" {
		src, err := os.ReadFile(c.WindowShader)
		if err != nil {
			return session.Options{}, fmt.Errorf("failed to read window shader: %w", err)
		}
		opts.WindowShader = string(src)
	}
	return opts, nil
}

// SlogLevel returns log_level as a slog level. Invalid values fall back to
// info; Validate reports them.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path, creating parent directories.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
