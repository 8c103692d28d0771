package testutil

import (
	"context"
	"sync"

	"github.com/vk/taskroute/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers action handlers by name.
type SimpleModule struct {
	Actions map[string]*registry.RegisteredAction
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	for name, action := range m.Actions {
		r.RegisterAction(name, action)
	}
}

// Recorder collects the calls of the handlers it creates.
type Recorder struct {
	mu    sync.Mutex
	calls []*registry.Call
}

// Action returns a handler, with an optional params struct, that records
// every call.
func (rec *Recorder) Action(newParams func() any) *registry.RegisteredAction {
	return &registry.RegisteredAction{
		NewParams: newParams,
		Fn: func(_ context.Context, call *registry.Call) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.calls = append(rec.calls, call)
			return nil
		},
	}
}

// Calls returns the recorded calls in order.
func (rec *Recorder) Calls() []*registry.Call {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]*registry.Call(nil), rec.calls...)
}
