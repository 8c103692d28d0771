package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Routing Defaults ---

// RouterBlock represents the `router` block. Its defaults are handed to the
// router, which stores them without substituting them.
type RouterBlock struct {
	DefaultModule *string        `hcl:"default_module,optional"`
	DefaultTask   *string        `hcl:"default_task,optional"`
	DefaultAction *string        `hcl:"default_action,optional"`
	DefaultParams hcl.Expression `hcl:"default_params,optional"`
}

// DispatcherBlock represents the `dispatcher` block, naming the task and
// action run when an invocation does not name one.
type DispatcherBlock struct {
	DefaultModule *string `hcl:"default_module,optional"`
	DefaultTask   *string `hcl:"default_task,optional"`
	DefaultAction *string `hcl:"default_action,optional"`
}

// --- Task Manifest Schemas ---

// ParamDefinition defines a single routed param accepted by an action.
type ParamDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Required    bool           `hcl:"required,optional"`
	Position    *int           `hcl:"position,optional"`
}

// ActionDefinition maps one action of a task to a registered Go handler.
type ActionDefinition struct {
	Name        string             `hcl:"name,label"`
	Handler     string             `hcl:"handler"`
	Description string             `hcl:"description,optional"`
	AllowExtra  bool               `hcl:"allow_extra,optional"`
	Params      []*ParamDefinition `hcl:"param,block"`
}

// TaskDefinition represents the HCL manifest of a `task` (command group).
type TaskDefinition struct {
	Name        string              `hcl:"name,label"`
	Module      string              `hcl:"module,optional"`
	Description string              `hcl:"description,optional"`
	Actions     []*ActionDefinition `hcl:"action,block"`
}

// FileRoot represents every top-level block a configuration file may hold.
type FileRoot struct {
	Router     *RouterBlock      `hcl:"router,block"`
	Dispatcher *DispatcherBlock  `hcl:"dispatcher,block"`
	Tasks      []*TaskDefinition `hcl:"task,block"`
}
