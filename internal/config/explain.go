package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownPath is returned by Explain for a path naming no config key.
var ErrUnknownPath = errors.New("unknown config path")

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	display
//	backend
//	glx_no_stencil
//	glx_swap_method
//	blur_kernels
//	blur_kernels.<index>
//	blur_kernels.<index>.width
//	window_shader
//	log_level
//	reconcile_interval
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, errors.New("no config loaded")
	}
	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	src, set := res.Sources[path]
	if !set {
		src = Source{Kind: SourceDefault, Name: "defaults"}
	}
	return value, src, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] == "blur_kernels" {
		return lookupKernel(cfg.BlurKernels, path, parts[1:])
	}
	if len(parts) != 1 {
		return nil, unknownPath(path)
	}

	switch parts[0] {
	case "display":
		return cfg.Display, nil
	case "backend":
		return cfg.Backend, nil
	case "glx_no_stencil":
		return cfg.GLXNoStencil, nil
	case "glx_swap_method":
		return cfg.GLXSwapMethod, nil
	case "window_shader":
		return cfg.WindowShader, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "reconcile_interval":
		return cfg.ReconcileInterval, nil
	default:
		return nil, unknownPath(path)
	}
}

func lookupKernel(kernels []BlurKernel, path string, parts []string) (any, error) {
	if len(parts) == 0 {
		return kernels, nil
	}
	i, err := strconv.Atoi(parts[0])
	if err != nil || i < 0 {
		return nil, unknownPath(path)
	}
	if i >= len(kernels) {
		return nil, fmt.Errorf("blur_kernels has %d entries, no index %d", len(kernels), i)
	}
	k := kernels[i]
	if len(parts) == 1 {
		return k, nil
	}
	if len(parts) != 2 {
		return nil, unknownPath(path)
	}
	switch parts[1] {
	case "width":
		return k.Width, nil
	case "height":
		return k.Height, nil
	case "weights":
		return k.Weights, nil
	default:
		return nil, unknownPath(path)
	}
}

func unknownPath(path string) error {
	return fmt.Errorf("%w: %q", ErrUnknownPath, path)
}
