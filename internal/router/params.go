package router

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Params is the residual argument set of an invocation. Values are cty values
// so strings, numbers, bools and nested collections share one representation.
type Params map[string]cty.Value

// Clone returns a shallow copy of p. The result is never nil.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in lexical order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the named parameter converted to a string. The second result
// is false when the key is absent, null, or not convertible to a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v.IsNull() || !v.IsKnown() {
		return "", false
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", false
	}
	return sv.AsString(), true
}

// ToValue converts a native Go value into a cty.Value. Nested map[string]any
// and []any values become objects and tuples.
func ToValue(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return val, nil
	case map[string]any:
		if len(val) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(val))
		for k, elem := range val {
			cv, err := ToValue(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(val))
		for i, elem := range val {
			cv, err := ToValue(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = cv
		}
		return cty.TupleVal(elems), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// toParams builds a private working copy of the arguments passed to Handle.
func toParams(arguments any) (Params, error) {
	switch args := arguments.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return args.Clone(), nil
	case map[string]cty.Value:
		return Params(args).Clone(), nil
	case map[string]string:
		p := make(Params, len(args))
		for k, v := range args {
			p[k] = cty.StringVal(v)
		}
		return p, nil
	case map[string]any:
		p := make(Params, len(args))
		for k, v := range args {
			cv, err := ToValue(v)
			if err != nil {
				return nil, &InvalidArgumentTypeError{Got: fmt.Sprintf("%T", v), Key: k, Reason: err.Error()}
			}
			p[k] = cv
		}
		return p, nil
	case cty.Value:
		return fromCtyValue(args)
	}

	// An empty list carries no arguments and is accepted as an empty mapping.
	rv := reflect.ValueOf(arguments)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() == 0 {
		return Params{}, nil
	}
	return nil, &InvalidArgumentTypeError{Got: fmt.Sprintf("%T", arguments)}
}

func fromCtyValue(v cty.Value) (Params, error) {
	if v.IsNull() {
		return Params{}, nil
	}
	if !v.IsKnown() {
		return nil, &InvalidArgumentTypeError{Got: v.Type().FriendlyName(), Reason: "value is unknown"}
	}

	ty := v.Type()
	switch {
	case ty.IsObjectType() || ty.IsMapType():
		p := make(Params, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			p[k.AsString()] = elem
		}
		return p, nil
	case (ty.IsTupleType() || ty.IsListType() || ty.IsSetType()) && v.LengthInt() == 0:
		return Params{}, nil
	}
	return nil, &InvalidArgumentTypeError{Got: ty.FriendlyName()}
}

// extractName removes key from p and returns its value as a routing name.
// Absent and null values leave the name unset.
func extractName(p Params, key string) (*string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	delete(p, key)

	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() || !v.Type().IsPrimitiveType() {
		return nil, &InvalidArgumentTypeError{Got: v.Type().FriendlyName(), Key: key, Reason: "names must be strings"}
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return nil, &InvalidArgumentTypeError{Got: v.Type().FriendlyName(), Key: key, Reason: err.Error()}
	}
	name := sv.AsString()
	return &name, nil
}
