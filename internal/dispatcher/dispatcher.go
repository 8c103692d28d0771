// Package dispatcher runs the action handler for a route resolved by the
// router, applying its own default task and action when the route names none.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/registry"
	"github.com/vk/taskroute/internal/router"
)

// ErrUnknownParam is returned when an action that does not allow extra
// params receives an undeclared one.
var ErrUnknownParam = errors.New("unknown param")

// ErrConflictingParam is returned when a param is given both by name and at
// its declared position.
var ErrConflictingParam = errors.New("param given both by name and by position")

// NotFoundError reports a task or action with no definition.
type NotFoundError struct {
	Kind       string // "task" or "action"
	Name       string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("unknown %s '%s'", e.Kind, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean '%s'?", e.Suggestion)
	}
	return msg
}

// Route is the outcome of routing one invocation. A nil name was not given.
type Route struct {
	Module *string
	Task   *string
	Action *string
	Params router.Params
}

// FromRouter reads the resolved state of r.
func FromRouter(r *router.Router) Route {
	var route Route
	if name, ok := r.GetModuleName(); ok {
		route.Module = &name
	}
	if name, ok := r.GetTaskName(); ok {
		route.Task = &name
	}
	if name, ok := r.GetActionName(); ok {
		route.Action = &name
	}
	route.Params = r.GetParams()
	return route
}

var _ di.InjectionAware = (*Dispatcher)(nil)

// Dispatcher looks up and runs action handlers.
type Dispatcher struct {
	registry  *registry.Registry
	converter config.Converter
	defaults  config.DispatcherDefaults
	container *di.Container
}

// New creates a Dispatcher. Empty defaults fall back to the built-in
// task and action.
func New(reg *registry.Registry, converter config.Converter, defaults config.DispatcherDefaults) *Dispatcher {
	if defaults.Task == "" {
		defaults.Task = config.DefaultTask
	}
	if defaults.Action == "" {
		defaults.Action = config.DefaultAction
	}
	return &Dispatcher{
		registry:  reg,
		converter: converter,
		defaults:  defaults,
	}
}

// SetDI sets the container handed to every action.
func (d *Dispatcher) SetDI(c *di.Container) {
	d.container = c
}

// GetDI returns the container handed to every action.
func (d *Dispatcher) GetDI() *di.Container {
	return d.container
}

// Resolve fills the names the route leaves unset from the dispatcher defaults.
func (d *Dispatcher) Resolve(route Route) (module, task, action string) {
	module, task, action = d.defaults.Module, d.defaults.Task, d.defaults.Action
	if route.Module != nil {
		module = *route.Module
	}
	if route.Task != nil {
		task = *route.Task
	}
	if route.Action != nil {
		action = *route.Action
	}
	return module, task, action
}

// Dispatch runs the handler of the route's action.
func (d *Dispatcher) Dispatch(ctx context.Context, route Route) error {
	module, task, action := d.Resolve(route)
	ctx = ctxlog.With(ctx, "task", config.TaskKey(module, task), "action", action)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Dispatching route.", "params", len(route.Params))

	taskDef, ok := d.registry.Task(module, task)
	if !ok {
		return &NotFoundError{
			Kind:       "task",
			Name:       config.TaskKey(module, task),
			Suggestion: suggest(config.TaskKey(module, task), d.taskKeys()),
		}
	}
	actionDef, ok := taskDef.Actions[action]
	if !ok {
		return &NotFoundError{
			Kind:       "action",
			Name:       action,
			Suggestion: suggest(action, taskDef.ActionNames()),
		}
	}
	handler, ok := d.registry.HandlerRegistry[actionDef.Handler]
	if !ok {
		return fmt.Errorf("action '%s %s': handler '%s' is not registered", taskDef.Key(), action, actionDef.Handler)
	}

	params, err := bindPositional(route.Params, actionDef)
	if err != nil {
		return fmt.Errorf("action '%s %s': %w", taskDef.Key(), action, err)
	}
	extra := router.Params{}
	for name, val := range params {
		if _, declared := actionDef.Params[name]; !declared {
			extra[name] = val
		}
	}
	if len(extra) > 0 && !actionDef.AllowExtra {
		return fmt.Errorf("action '%s %s': %w: %s", taskDef.Key(), action, ErrUnknownParam, strings.Join(extra.Keys(), ", "))
	}

	var paramsStruct any
	if handler.NewParams != nil {
		paramsStruct = handler.NewParams()
	}
	if err := d.converter.DecodeParams(ctx, paramsStruct, params, actionDef.Params); err != nil {
		return fmt.Errorf("action '%s %s': %w", taskDef.Key(), action, err)
	}

	call := &registry.Call{
		Module: module,
		Task:   task,
		Action: action,
		Params: paramsStruct,
		Raw:    params.Clone(),
		Extra:  extra,
		DI:     d.container,
	}

	logger.Info("Running action.", "handler", actionDef.Handler)
	if err := handler.Fn(ctx, call); err != nil {
		return fmt.Errorf("action '%s %s' failed: %w", taskDef.Key(), action, err)
	}
	logger.Debug("Action finished.")
	return nil
}

// bindPositional returns a copy of params in which every positional param
// ("0", "1", ...) claimed by a declared param's position is stored under
// that param's name.
func bindPositional(params router.Params, def *config.ActionDefinition) (router.Params, error) {
	bound := params.Clone()
	names := make([]string, 0, len(def.Params))
	for name := range def.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := def.Params[name]
		if p.Position == nil {
			continue
		}
		key := strconv.Itoa(*p.Position)
		val, ok := bound[key]
		if !ok {
			continue
		}
		if _, named := bound[name]; named {
			return nil, fmt.Errorf("%w: '%s' (position %d)", ErrConflictingParam, name, *p.Position)
		}
		bound[name] = val
		delete(bound, key)
	}
	return bound, nil
}

func (d *Dispatcher) taskKeys() []string {
	keys := make([]string, 0, len(d.registry.DefinitionRegistry))
	for key := range d.registry.DefinitionRegistry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// suggest returns the candidate closest to name, or "" when none is close
// enough to be a plausible typo.
func suggest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c))
		if bestDist == -1 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist == -1 || bestDist > limit {
		return ""
	}
	return best
}
