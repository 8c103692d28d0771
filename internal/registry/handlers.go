package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/router"
)

// Call carries everything an action handler receives for one invocation.
type Call struct {
	Module string
	Task   string
	Action string

	// Params is the pointer returned by NewParams, populated from the routed
	// params. It is nil for actions registered without a params struct.
	Params any
	// Raw holds every routed param, declared or not.
	Raw router.Params
	// Extra holds the routed params the manifest does not declare.
	Extra router.Params

	DI *di.Container
}

// HandlerFunc runs one action.
type HandlerFunc func(ctx context.Context, call *Call) error

// RegisteredAction holds the compiled Go parts of an action.
type RegisteredAction struct {
	// NewParams returns a pointer to a fresh params struct. Optional.
	NewParams func() any
	// ParamsType is the struct type NewParams points to, used for validation.
	ParamsType reflect.Type
	Fn         HandlerFunc
}

// RegisterAction registers a Go handler under the name manifests refer to.
func (r *Registry) RegisterAction(name string, handler *RegisteredAction) {
	if _, exists := r.HandlerRegistry[name]; exists {
		panic(fmt.Sprintf("action handler with name '%s' already registered", name))
	}
	if handler == nil || handler.Fn == nil {
		panic(fmt.Sprintf("action handler '%s' has no handler function", name))
	}
	if handler.NewParams != nil && handler.ParamsType == nil {
		handler.ParamsType = reflect.TypeOf(handler.NewParams()).Elem()
	}
	slog.Debug("Registering action handler.", "name", name)
	r.HandlerRegistry[name] = handler
}
