package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, translates it into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter binds routed params to the Go struct of an action handler.
type Converter interface {
	// DecodeParams converts each declared param to its declared type and
	// stores it in the tagged field of paramsStruct, applying defaults and
	// required checks. Values without a declaration are ignored.
	DecodeParams(
		ctx context.Context,
		paramsStruct any,
		values map[string]cty.Value,
		defs map[string]*ParamDefinition,
	) error

	// ToCtyValue converts a native Go value into its cty.Value.
	ToCtyValue(v any) (cty.Value, error)
}
