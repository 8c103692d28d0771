package config

import (
	"errors"
	"reflect"
	"strings"
)

// ParamTag is the struct tag naming the routed param a field receives.
const ParamTag = "param"

var (
	// ErrMissingParam is returned when a required param was not routed.
	ErrMissingParam = errors.New("missing required param")
	// ErrInvalidParam is returned when a param cannot become its declared type.
	ErrInvalidParam = errors.New("invalid param")
)

// ParamName returns the param a struct field is bound to, or "" when the
// field carries no usable `param` tag.
func ParamName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	name := strings.Split(field.Tag.Get(ParamTag), ",")[0]
	if name == "-" {
		return ""
	}
	return name
}
