package registry

import (
	"sort"

	"github.com/vk/taskroute/internal/config"
)

// Module is the interface that all built-in modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered handlers and task definitions for
// a single application instance.
type Registry struct {
	HandlerRegistry    map[string]*RegisteredAction
	DefinitionRegistry map[string]*config.TaskDefinition
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		HandlerRegistry:    make(map[string]*RegisteredAction),
		DefinitionRegistry: make(map[string]*config.TaskDefinition),
	}
}

// PopulateDefinitionsFromModel copies the loaded task definitions from the
// config model into the registry for easy access during dispatch.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	for key, val := range model.Tasks {
		r.DefinitionRegistry[key] = val
	}
}

// Task returns the definition of a task.
func (r *Registry) Task(module, task string) (*config.TaskDefinition, bool) {
	def, ok := r.DefinitionRegistry[config.TaskKey(module, task)]
	return def, ok
}

// Route describes one dispatchable module/task/action combination.
type Route struct {
	Module      string
	Task        string
	Action      string
	Description string
	Params      []*config.ParamDefinition
}

// Routes returns every defined action, sorted by task key then action.
func (r *Registry) Routes() []Route {
	keys := make([]string, 0, len(r.DefinitionRegistry))
	for key := range r.DefinitionRegistry {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var routes []Route
	for _, key := range keys {
		task := r.DefinitionRegistry[key]
		for _, name := range task.ActionNames() {
			action := task.Actions[name]
			desc := action.Description
			if desc == "" {
				desc = task.Description
			}
			routes = append(routes, Route{
				Module:      task.Module,
				Task:        task.Name,
				Action:      name,
				Description: desc,
				Params:      sortedParams(action.Params),
			})
		}
	}
	return routes
}

func sortedParams(defs map[string]*config.ParamDefinition) []*config.ParamDefinition {
	out := make([]*config.ParamDefinition, 0, len(defs))
	for _, def := range defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
