package config

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Built-in fallbacks used when no `dispatcher` block names defaults.
const (
	DefaultTask   = "help"
	DefaultAction = "main"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration: routing defaults and all task manifests.
type Model struct {
	Router     *RouterDefaults
	Dispatcher *DispatcherDefaults
	Tasks      map[string]*TaskDefinition
}

// NewModel returns an empty model with the built-in dispatcher defaults.
func NewModel() *Model {
	return &Model{
		Router: &RouterDefaults{Params: map[string]cty.Value{}},
		Dispatcher: &DispatcherDefaults{
			Task:   DefaultTask,
			Action: DefaultAction,
		},
		Tasks: make(map[string]*TaskDefinition),
	}
}

// RouterDefaults holds the defaults handed to the router. The router stores
// them without applying them.
type RouterDefaults struct {
	Module *string
	Task   *string
	Action *string
	Params map[string]cty.Value
}

// DispatcherDefaults names the task and action the dispatcher falls back to
// when an invocation does not name one.
type DispatcherDefaults struct {
	Module string
	Task   string
	Action string
}

// TaskDefinition is the format-agnostic representation of a `task` manifest.
type TaskDefinition struct {
	Name        string
	Module      string
	Description string
	Actions     map[string]*ActionDefinition
	SourceFile  string
}

// ActionNames returns the action names of the task in lexical order.
func (t *TaskDefinition) ActionNames() []string {
	names := make([]string, 0, len(t.Actions))
	for name := range t.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActionDefinition maps one action of a task to a Go handler.
type ActionDefinition struct {
	Name        string
	Handler     string
	Description string
	AllowExtra  bool
	Params      map[string]*ParamDefinition
}

// ParamDefinition defines a single routed param accepted by an action.
// Position, when set, binds the positional param of that index ("0", "1", ...)
// to this name.
type ParamDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Required    bool
	Position    *int
}

// TaskNames returns all task keys in lexical order.
func (m *Model) TaskNames() []string {
	names := make([]string, 0, len(m.Tasks))
	for name := range m.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TaskKey is the key of a task in Model.Tasks. Tasks outside any module
// are keyed by their bare name.
func TaskKey(module, task string) string {
	if module == "" {
		return task
	}
	return module + ":" + task
}

// Key returns the Model.Tasks key of t.
func (t *TaskDefinition) Key() string {
	return TaskKey(t.Module, t.Name)
}
