package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/router"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between manifests and Go code.
// Every action must name a registered handler, and the handler's params struct
// must match the declared params in presence and type.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)
	used := make(map[string]struct{})

	keys := make([]string, 0, len(r.DefinitionRegistry))
	for key := range r.DefinitionRegistry {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		task := r.DefinitionRegistry[key]
		for _, actionName := range task.ActionNames() {
			def := task.Actions[actionName]
			owner := fmt.Sprintf("%s %s", key, actionName)

			for name := range def.Params {
				if router.IsReserved(name) {
					errs = append(errs, fmt.Sprintf("action '%s': param '%s' is a reserved routing key and can never be routed", owner, name))
				}
			}

			handler, ok := r.HandlerRegistry[def.Handler]
			if !ok {
				errs = append(errs, fmt.Sprintf("action '%s': handler '%s' is not registered", owner, def.Handler))
				continue
			}
			used[def.Handler] = struct{}{}

			errs = append(errs, r.validateParams(ctx, owner, def, handler)...)
		}
	}

	for name := range r.HandlerRegistry {
		if _, ok := used[name]; !ok {
			logger.Warn("Handler is registered but no manifest action uses it.", "handler", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (r *Registry) validateParams(ctx context.Context, owner string, def *config.ActionDefinition, handler *RegisteredAction) []string {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	if handler.ParamsType == nil {
		// Without a struct the handler reads Call.Raw; declarations still validate input.
		return nil
	}
	if handler.ParamsType.Kind() != reflect.Struct {
		return []string{fmt.Sprintf("action '%s': params type %s is not a struct", owner, handler.ParamsType)}
	}

	goParams := make(map[string]reflect.StructField)
	for i := 0; i < handler.ParamsType.NumField(); i++ {
		field := handler.ParamsType.Field(i)
		if name := config.ParamName(field); name != "" {
			goParams[name] = field
		}
	}

	// Check for presence mismatches
	for name := range goParams {
		if _, ok := def.Params[name]; !ok {
			errs = append(errs, fmt.Sprintf("action '%s': Go struct has field for param '%s' which is not declared in manifest", owner, name))
		}
	}
	for name := range def.Params {
		if _, ok := goParams[name]; !ok {
			errs = append(errs, fmt.Sprintf("action '%s': manifest declares param '%s' which is not found in Go struct", owner, name))
		}
	}

	// Check for type mismatches
	for name, paramDef := range def.Params {
		goField, ok := goParams[name]
		if !ok {
			continue
		}

		if goField.Type.Kind() == reflect.Interface {
			errs = append(errs, fmt.Sprintf("action '%s', param '%s': Go struct field '%s' is an interface; use cty.Value for untyped params", owner, name, goField.Name))
			continue
		}
		if paramDef.Type.Equals(cty.DynamicPseudoType) {
			logger.Warn("Manifest declares a param with 'type = any', which disables static type checking.", "action", owner, "param", name)
			continue
		}

		goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("action '%s', param '%s': could not imply cty type from Go field type %s: %v", owner, name, goField.Type, err))
			continue
		}
		if goFieldType.Equals(cty.DynamicPseudoType) {
			continue
		}
		if !paramDef.Type.Equals(goFieldType) {
			errs = append(errs, fmt.Sprintf("action '%s', param '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
				owner, name, paramDef.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
		}
	}

	sort.Strings(errs)
	return errs
}
