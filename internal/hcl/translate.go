// This file contains the logic for translating HCL schema structs (from the
// schema package) into the format-agnostic configuration model.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/router"
	"github.com/vk/taskroute/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateRouter evaluates the `router` block into router defaults.
func translateRouter(b *schema.RouterBlock) (*config.RouterDefaults, error) {
	params := map[string]cty.Value{}

	if b.DefaultParams != nil {
		val, diags := b.DefaultParams.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default_params in router block: %w", diags)
		}
		if !val.IsNull() {
			ty := val.Type()
			if !ty.IsObjectType() && !ty.IsMapType() {
				return nil, fmt.Errorf("router default_params must be an object, got %s", ty.FriendlyName())
			}
			for it := val.ElementIterator(); it.Next(); {
				k, v := it.Element()
				params[k.AsString()] = v
			}
		}
	}

	return &config.RouterDefaults{
		Module: b.DefaultModule,
		Task:   b.DefaultTask,
		Action: b.DefaultAction,
		Params: params,
	}, nil
}

// translateDispatcher overrides the fields of dst the block sets.
func translateDispatcher(b *schema.DispatcherBlock, dst *config.DispatcherDefaults) {
	if b.DefaultModule != nil {
		dst.Module = *b.DefaultModule
	}
	if b.DefaultTask != nil {
		dst.Task = *b.DefaultTask
	}
	if b.DefaultAction != nil {
		dst.Action = *b.DefaultAction
	}
}

// translateTask converts the HCL-specific task schema into the agnostic model.
func translateTask(ctx context.Context, s *schema.TaskDefinition) (*config.TaskDefinition, error) {
	t := &config.TaskDefinition{
		Name:        s.Name,
		Module:      s.Module,
		Description: s.Description,
		Actions:     make(map[string]*config.ActionDefinition),
	}

	for _, a := range s.Actions {
		if _, dup := t.Actions[a.Name]; dup {
			return nil, fmt.Errorf("task '%s' declares action '%s' more than once", s.Name, a.Name)
		}
		action, err := translateAction(ctx, a, t.Key())
		if err != nil {
			return nil, err
		}
		t.Actions[a.Name] = action
	}
	return t, nil
}

func translateAction(ctx context.Context, s *schema.ActionDefinition, taskKey string) (*config.ActionDefinition, error) {
	a := &config.ActionDefinition{
		Name:        s.Name,
		Handler:     s.Handler,
		Description: s.Description,
		AllowExtra:  s.AllowExtra,
		Params:      make(map[string]*config.ParamDefinition),
	}
	owner := fmt.Sprintf("%s %s", taskKey, s.Name)
	positions := make(map[int]string)

	for _, p := range s.Params {
		if _, dup := a.Params[p.Name]; dup {
			return nil, fmt.Errorf("action '%s' declares param '%s' more than once", owner, p.Name)
		}
		param, err := translateParamDefinition(ctx, p, owner)
		if err != nil {
			return nil, err
		}
		if param.Position != nil {
			if other, taken := positions[*param.Position]; taken {
				return nil, fmt.Errorf("action '%s': params '%s' and '%s' both claim position %d", owner, other, p.Name, *param.Position)
			}
			positions[*param.Position] = p.Name
		}
		a.Params[p.Name] = param
	}
	return a, nil
}

// translateParamDefinition processes a single HCL param block, handling its
// default value and type parsing.
func translateParamDefinition(ctx context.Context, in *schema.ParamDefinition, owner string) (*config.ParamDefinition, error) {
	if router.IsReserved(in.Name) {
		return nil, fmt.Errorf("action '%s' declares param '%s', which is a reserved routing key", owner, in.Name)
	}
	if in.Position != nil && *in.Position < 0 {
		return nil, fmt.Errorf("param '%s' in action '%s' has negative position %d", in.Name, owner, *in.Position)
	}

	var defaultVal *cty.Value

	if in.Default != nil {
		val, diags := in.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for param '%s' in action '%s': %w", in.Name, owner, diags)
		}
		if !val.IsNull() {
			defaultVal = &val
		}
	}

	if in.Required && defaultVal != nil {
		return nil, fmt.Errorf("param '%s' in action '%s' is required and cannot have a default", in.Name, owner)
	}

	parsedType, err := parseParamType(ctx, in.Type)
	if err != nil {
		return nil, fmt.Errorf("in action '%s', param '%s': %w", owner, in.Name, err)
	}

	return &config.ParamDefinition{
		Name:        in.Name,
		Type:        parsedType,
		Description: in.Description,
		Default:     defaultVal,
		Required:    in.Required,
		Position:    in.Position,
	}, nil
}

// isNullExpr reports whether expr is the placeholder gohcl assigns to an
// omitted optional attribute.
func isNullExpr(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if len(expr.Variables()) > 0 {
		return false
	}
	val, diags := expr.Value(nil)
	return !diags.HasErrors() && val.IsNull()
}
