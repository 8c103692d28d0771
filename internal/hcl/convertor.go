package hcl

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeParams resolves every declared param from values (or its default),
// converts it to the declared type and, when paramsStruct is a non-nil
// pointer, stores it in the field tagged `param:"<name>"`.
func (c *Converter) DecodeParams(
	ctx context.Context,
	paramsStruct any,
	values map[string]cty.Value,
	defs map[string]*config.ParamDefinition,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting param decoding.", "declared", len(defs), "given", len(values))

	resolved, err := c.resolve(values, defs)
	if err != nil {
		return err
	}

	if paramsStruct == nil {
		logger.Debug("No params struct given, params validated only.")
		return nil
	}

	structVal := reflect.ValueOf(paramsStruct)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() || structVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("paramsStruct must be a non-nil pointer to a struct, got %T", paramsStruct)
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		name := config.ParamName(field)
		if name == "" {
			continue
		}
		val, ok := resolved[name]
		if !ok {
			continue
		}
		if err := c.decode(ctx, val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode param '%s': %w", name, err)
		}
	}

	logger.Debug("Finished param decoding successfully.")
	return nil
}

// resolve applies defaults, required checks and declared types.
func (c *Converter) resolve(values map[string]cty.Value, defs map[string]*config.ParamDefinition) (map[string]cty.Value, error) {
	resolved := make(map[string]cty.Value, len(defs))

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	// Sorted so the first reported error is deterministic.
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		val, given := values[name]
		if !given || val.IsNull() {
			switch {
			case def.Default != nil:
				val = *def.Default
			case def.Required:
				return nil, fmt.Errorf("%w: %q", config.ErrMissingParam, name)
			default:
				continue
			}
		}

		converted, err := convert.Convert(val, def.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %q must be %s: %v", config.ErrInvalidParam, name, def.Type.FriendlyName(), err)
		}
		resolved[name] = converted
	}
	return resolved, nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}
	if valPtr.Elem().Kind() == reflect.Interface {
		return fmt.Errorf("cannot decode into interface type %s", valPtr.Elem().Type())
	}

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}

	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}

	return gocty.FromCtyValue(convertedVal, goVal)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}
