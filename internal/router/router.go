package router

// Reserved argument keys consumed by Handle.
const (
	KeyModule = "module"
	KeyTask   = "task"
	KeyAction = "action"
)

// IsReserved reports whether key names the module, task or action rather
// than a param.
func IsReserved(key string) bool {
	return key == KeyModule || key == KeyTask || key == KeyAction
}

// Injector is the dependency-injection container handed to the router. The
// router stores it for collaborators and never consults it while routing.
type Injector interface {
	Get(name string) (any, error)
}

// Router resolves the module, task and action of a single invocation from
// its argument mapping.
type Router struct {
	injector Injector

	defaultModule *string
	defaultTask   *string
	defaultAction *string
	defaultParams Params

	module *string
	task   *string
	action *string
	params Params
}

// New creates a Router with empty params and no resolved names.
func New() *Router {
	return &Router{
		params:        Params{},
		defaultParams: Params{},
	}
}

// SetDI sets the dependency injector, replacing any previous one.
func (r *Router) SetDI(injector Injector) {
	r.injector = injector
}

// GetDI returns the dependency injector, or nil if none was set.
func (r *Router) GetDI() Injector {
	return r.injector
}

// SetDefaultModule sets the name of the default module.
func (r *Router) SetDefaultModule(name string) {
	r.defaultModule = &name
}

// SetDefaultTask sets the name of the default task.
func (r *Router) SetDefaultTask(name string) {
	r.defaultTask = &name
}

// SetDefaultAction sets the name of the default action.
func (r *Router) SetDefaultAction(name string) {
	r.defaultAction = &name
}

// SetDefaultParams stores a copy of the default params.
func (r *Router) SetDefaultParams(params Params) {
	r.defaultParams = params.Clone()
}

// Handle routes the given arguments. arguments may be nil, a Params or other
// string-keyed map, or a cty object/map value. Any other shape returns an
// error matching ErrInvalidArgumentType and leaves the router unchanged.
//
// The "module", "task" and "action" keys are extracted into the resolved
// names; the remaining keys become the params. Every call replaces the
// previous result entirely. The caller's map is not modified.
func (r *Router) Handle(arguments any) error {
	working, err := toParams(arguments)
	if err != nil {
		return err
	}

	module, err := extractName(working, KeyModule)
	if err != nil {
		return err
	}
	task, err := extractName(working, KeyTask)
	if err != nil {
		return err
	}
	action, err := extractName(working, KeyAction)
	if err != nil {
		return err
	}

	r.module = module
	r.task = task
	r.action = action
	r.params = working
	return nil
}

// GetModuleName returns the processed module name. ok is false when the last
// Handle call carried no module.
func (r *Router) GetModuleName() (name string, ok bool) {
	return deref(r.module)
}

// GetTaskName returns the processed task name.
func (r *Router) GetTaskName() (name string, ok bool) {
	return deref(r.task)
}

// GetActionName returns the processed action name.
func (r *Router) GetActionName() (name string, ok bool) {
	return deref(r.action)
}

// GetParams returns a copy of the processed extra params. It is never nil.
func (r *Router) GetParams() Params {
	return r.params.Clone()
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
