package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig is one file's view of the configuration. Nil fields were not
// set by that file.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Display           *string        `yaml:"display"`
	Backend           *string        `yaml:"backend"`
	GLXNoStencil      *bool          `yaml:"glx_no_stencil"`
	GLXSwapMethod     *string        `yaml:"glx_swap_method"`
	BlurKernels       *[]BlurKernel  `yaml:"blur_kernels"`
	WindowShader      *string        `yaml:"window_shader"`
	LogLevel          *string        `yaml:"log_level"`
	ReconcileInterval *time.Duration `yaml:"reconcile_interval"`
}

// merge returns c with every field set in overlay replacing its own.
// Kernel lists are replaced whole, not appended.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.GLXNoStencil != nil {
		out.GLXNoStencil = overlay.GLXNoStencil
	}
	if overlay.GLXSwapMethod != nil {
		out.GLXSwapMethod = overlay.GLXSwapMethod
	}
	if overlay.BlurKernels != nil {
		kernels := append([]BlurKernel(nil), (*overlay.BlurKernels)...)
		out.BlurKernels = &kernels
	}
	if overlay.WindowShader != nil {
		out.WindowShader = overlay.WindowShader
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.ReconcileInterval != nil {
		out.ReconcileInterval = overlay.ReconcileInterval
	}

	return out
}
