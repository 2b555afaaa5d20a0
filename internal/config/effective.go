package config

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.GLXNoStencil != nil {
		cfg.GLXNoStencil = *raw.GLXNoStencil
	}
	if raw.GLXSwapMethod != nil {
		cfg.GLXSwapMethod = *raw.GLXSwapMethod
	}
	if raw.BlurKernels != nil {
		cfg.BlurKernels = append([]BlurKernel{}, (*raw.BlurKernels)...)
	}
	if raw.WindowShader != nil {
		cfg.WindowShader = *raw.WindowShader
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.ReconcileInterval != nil {
		cfg.ReconcileInterval = *raw.ReconcileInterval
	}

	return cfg
}

// attachSourceContext fills in the file position of every validation error
// whose path was written by a config file.
func attachSourceContext(err error, sources map[string]Source) error {
	if err == nil {
		return nil
	}
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		var verr *ValidationError
		if !errors.As(e, &verr) || verr.Path == "" {
			continue
		}
		if src, ok := sources[verr.Path]; ok {
			verr.Source = src
		}
	}
	return err
}
