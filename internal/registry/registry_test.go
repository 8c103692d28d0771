package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskroute/internal/config"
	"github.com/zclconf/go-cty/cty"
)

func noop(context.Context, *Call) error { return nil }

func modelWith(params map[string]*config.ParamDefinition) *config.Model {
	m := config.NewModel()
	m.Tasks["videos"] = &config.TaskDefinition{
		Name:        "videos",
		Description: "Video jobs",
		Actions: map[string]*config.ActionDefinition{
			"process": {Name: "process", Handler: "ProcessVideo", Params: params},
		},
	}
	return m
}

func TestRegisterAction_DuplicatePanics(t *testing.T) {
	r := New()
	r.RegisterAction("ProcessVideo", &RegisteredAction{Fn: noop})

	require.Panics(t, func() {
		r.RegisterAction("ProcessVideo", &RegisteredAction{Fn: noop})
	})
}

func TestRegisterAction_RequiresFn(t *testing.T) {
	require.Panics(t, func() { New().RegisterAction("Empty", &RegisteredAction{}) })
	require.Panics(t, func() { New().RegisterAction("Nil", nil) })
}

func TestRegisterAction_InfersParamsType(t *testing.T) {
	type params struct {
		ID int `param:"id"`
	}
	r := New()
	r.RegisterAction("ProcessVideo", &RegisteredAction{
		NewParams: func() any { return new(params) },
		Fn:        noop,
	})

	require.NotNil(t, r.HandlerRegistry["ProcessVideo"].ParamsType)
	assert.Equal(t, "params", r.HandlerRegistry["ProcessVideo"].ParamsType.Name())
}

func TestValidateRegistry(t *testing.T) {
	type goodParams struct {
		ID     int       `param:"id"`
		Format *string   `param:"format"`
		Extra  cty.Value `param:"extra"`
		skip   string
	}
	type wrongTypeParams struct {
		ID     string  `param:"id"`
		Format *string `param:"format"`
		Extra  any     `param:"extra"`
	}
	type mismatchParams struct {
		ID    int `param:"id"`
		Other int `param:"other"`
	}

	declared := map[string]*config.ParamDefinition{
		"id":     {Name: "id", Type: cty.Number, Required: true},
		"format": {Name: "format", Type: cty.String},
		"extra":  {Name: "extra", Type: cty.DynamicPseudoType},
	}

	testCases := []struct {
		name         string
		handler      *RegisteredAction
		register     bool
		expectErr    bool
		errFragments []string
	}{
		{
			name:     "matching struct",
			handler:  &RegisteredAction{NewParams: func() any { return new(goodParams) }, Fn: noop},
			register: true,
		},
		{
			name:     "handler without params struct",
			handler:  &RegisteredAction{Fn: noop},
			register: true,
		},
		{
			name:         "handler not registered",
			register:     false,
			expectErr:    true,
			errFragments: []string{"handler 'ProcessVideo' is not registered"},
		},
		{
			name:      "type mismatch and interface field",
			handler:   &RegisteredAction{NewParams: func() any { return new(wrongTypeParams) }, Fn: noop},
			register:  true,
			expectErr: true,
			errFragments: []string{
				"param 'id': type mismatch",
				"param 'extra': Go struct field 'Extra' is an interface",
			},
		},
		{
			name:      "presence mismatch",
			handler:   &RegisteredAction{NewParams: func() any { return new(mismatchParams) }, Fn: noop},
			register:  true,
			expectErr: true,
			errFragments: []string{
				"Go struct has field for param 'other'",
				"manifest declares param 'format'",
				"manifest declares param 'extra'",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			r := New()
			if tc.register {
				r.RegisterAction("ProcessVideo", tc.handler)
			}
			r.PopulateDefinitionsFromModel(modelWith(declared))

			// --- Act ---
			err := r.ValidateRegistry(context.Background())

			// --- Assert ---
			if !tc.expectErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, frag := range tc.errFragments {
				assert.Contains(t, err.Error(), frag)
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	r := New()
	m := config.NewModel()
	m.Tasks["main:videos"] = &config.TaskDefinition{
		Name:        "videos",
		Module:      "main",
		Description: "Video jobs",
		Actions: map[string]*config.ActionDefinition{
			"process": {Name: "process", Description: "Process one video", Params: map[string]*config.ParamDefinition{
				"id":     {Name: "id", Type: cty.Number},
				"format": {Name: "format", Type: cty.String},
			}},
			"list": {Name: "list"},
		},
	}
	m.Tasks["help"] = &config.TaskDefinition{
		Name:    "help",
		Actions: map[string]*config.ActionDefinition{"main": {Name: "main", Description: "Show help"}},
	}
	r.PopulateDefinitionsFromModel(m)

	routes := r.Routes()

	require.Len(t, routes, 3)
	assert.Equal(t, Route{Task: "help", Action: "main", Description: "Show help", Params: []*config.ParamDefinition{}}, routes[0])
	assert.Equal(t, "list", routes[1].Action)
	assert.Equal(t, "Video jobs", routes[1].Description, "task description is the fallback")
	assert.Equal(t, "process", routes[2].Action)
	require.Len(t, routes[2].Params, 2)
	assert.Equal(t, "format", routes[2].Params[0].Name)

	task, ok := r.Task("main", "videos")
	require.True(t, ok)
	assert.Equal(t, "videos", task.Name)
	_, ok = r.Task("", "videos")
	assert.False(t, ok)
}

func TestValidateRegistry_ReservedParamName(t *testing.T) {
	r := New()
	r.RegisterAction("ProcessVideo", &RegisteredAction{Fn: noop})
	r.PopulateDefinitionsFromModel(modelWith(map[string]*config.ParamDefinition{
		"action": {Name: "action", Type: cty.String},
	}))

	err := r.ValidateRegistry(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "param 'action' is a reserved routing key")
}
