package dispatcher

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/hcl"
	"github.com/vk/taskroute/internal/registry"
	"github.com/vk/taskroute/internal/router"
	"github.com/zclconf/go-cty/cty"
)

type processParams struct {
	ID     int    `param:"id"`
	Format string `param:"format"`
}

type harness struct {
	dispatcher *Dispatcher
	calls      []*registry.Call
}

func strPtr(s string) *string { return &s }

func newHarness(t *testing.T, defaults config.DispatcherDefaults) *harness {
	t.Helper()
	h := &harness{}

	reg := registry.New()
	record := func(ctx context.Context, call *registry.Call) error {
		h.calls = append(h.calls, call)
		return nil
	}
	reg.RegisterAction("ProcessVideo", &registry.RegisteredAction{
		NewParams: func() any { return new(processParams) },
		Fn:        record,
	})
	reg.RegisterAction("ListVideos", &registry.RegisteredAction{Fn: record})
	reg.RegisterAction("Help", &registry.RegisteredAction{Fn: record})
	reg.RegisterAction("Fail", &registry.RegisteredAction{
		Fn: func(context.Context, *registry.Call) error { return errors.New("disk full") },
	})

	mp4 := cty.StringVal("mp4")
	zero, one := 0, 1
	model := config.NewModel()
	model.Tasks["main:videos"] = &config.TaskDefinition{
		Name:   "videos",
		Module: "main",
		Actions: map[string]*config.ActionDefinition{
			"process": {
				Name:    "process",
				Handler: "ProcessVideo",
				Params: map[string]*config.ParamDefinition{
					"id":     {Name: "id", Type: cty.Number, Required: true, Position: &zero},
					"format": {Name: "format", Type: cty.String, Default: &mp4, Position: &one},
				},
			},
			"list": {Name: "list", Handler: "ListVideos", AllowExtra: true, Params: map[string]*config.ParamDefinition{}},
			"fail": {Name: "fail", Handler: "Fail", Params: map[string]*config.ParamDefinition{}},
		},
	}
	model.Tasks["help"] = &config.TaskDefinition{
		Name: "help",
		Actions: map[string]*config.ActionDefinition{
			"main": {Name: "main", Handler: "Help", Params: map[string]*config.ParamDefinition{}},
		},
	}
	reg.PopulateDefinitionsFromModel(model)
	require.NoError(t, reg.ValidateRegistry(context.Background()))

	h.dispatcher = New(reg, hcl.NewConverter(), defaults)
	h.dispatcher.SetDI(di.New())
	return h
}

func routeFor(t *testing.T, args map[string]string) Route {
	t.Helper()
	r := router.New()
	require.NoError(t, r.Handle(args))
	return FromRouter(r)
}

func TestDispatch_DecodesDeclaredParams(t *testing.T) {
	// --- Arrange ---
	h := newHarness(t, config.DispatcherDefaults{})
	route := routeFor(t, map[string]string{"module": "main", "task": "videos", "action": "process", "id": "5"})

	// --- Act ---
	err := h.dispatcher.Dispatch(context.Background(), route)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, h.calls, 1)
	call := h.calls[0]
	assert.Equal(t, "main", call.Module)
	assert.Equal(t, "videos", call.Task)
	assert.Equal(t, "process", call.Action)
	assert.Equal(t, &processParams{ID: 5, Format: "mp4"}, call.Params)
	assert.Empty(t, call.Extra)
	assert.Same(t, h.dispatcher.GetDI(), call.DI)
}

func TestDispatch_BindsPositionalParams(t *testing.T) {
	h := newHarness(t, config.DispatcherDefaults{})
	route := routeFor(t, map[string]string{"module": "main", "task": "videos", "action": "process", "0": "7", "1": "webm"})

	require.NoError(t, h.dispatcher.Dispatch(context.Background(), route))

	require.Len(t, h.calls, 1)
	assert.Equal(t, &processParams{ID: 7, Format: "webm"}, h.calls[0].Params)
	assert.ElementsMatch(t, []string{"format", "id"}, h.calls[0].Raw.Keys(), "positions are stored under their names")
	assert.Equal(t, []string{"0", "1"}, route.Params.Keys(), "route params are not modified")
}

func TestDispatch_AppliesDispatcherDefaults(t *testing.T) {
	h := newHarness(t, config.DispatcherDefaults{})

	require.NoError(t, h.dispatcher.Dispatch(context.Background(), routeFor(t, nil)))

	require.Len(t, h.calls, 1)
	assert.Equal(t, config.DefaultTask, h.calls[0].Task)
	assert.Equal(t, config.DefaultAction, h.calls[0].Action)
}

func TestDispatch_ConfiguredDefaults(t *testing.T) {
	h := newHarness(t, config.DispatcherDefaults{Module: "main", Task: "videos", Action: "list"})

	require.NoError(t, h.dispatcher.Dispatch(context.Background(), Route{Params: router.Params{"page": cty.StringVal("2")}}))

	require.Len(t, h.calls, 1)
	assert.Equal(t, "list", h.calls[0].Action)
	assert.True(t, h.calls[0].Extra["page"].RawEquals(cty.StringVal("2")))
	assert.Nil(t, h.calls[0].Params)
}

func TestDispatch_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		route       Route
		wantIs      error
		wantContain string
	}{
		{
			name:        "unknown task with suggestion",
			route:       Route{Module: strPtr("main"), Task: strPtr("vidoes")},
			wantContain: "unknown task 'main:vidoes'; did you mean 'main:videos'?",
		},
		{
			name:        "unknown action with suggestion",
			route:       Route{Module: strPtr("main"), Task: strPtr("videos"), Action: strPtr("proces")},
			wantContain: "did you mean 'process'?",
		},
		{
			name:        "unknown task without suggestion",
			route:       Route{Task: strPtr("zzzzzzzzzz")},
			wantContain: "unknown task 'zzzzzzzzzz'",
		},
		{
			name:   "missing required param",
			route:  Route{Module: strPtr("main"), Task: strPtr("videos"), Action: strPtr("process")},
			wantIs: config.ErrMissingParam,
		},
		{
			name: "invalid param type",
			route: Route{Module: strPtr("main"), Task: strPtr("videos"), Action: strPtr("process"),
				Params: router.Params{"id": cty.StringVal("five")}},
			wantIs: config.ErrInvalidParam,
		},
		{
			name: "undeclared param",
			route: Route{Module: strPtr("main"), Task: strPtr("videos"), Action: strPtr("process"),
				Params: router.Params{"id": cty.StringVal("5"), "colour": cty.StringVal("red")}},
			wantIs:      ErrUnknownParam,
			wantContain: "colour",
		},
		{
			name: "param given by name and position",
			route: Route{Module: strPtr("main"), Task: strPtr("videos"), Action: strPtr("process"),
				Params: router.Params{"0": cty.StringVal("5"), "id": cty.StringVal("6")}},
			wantIs:      ErrConflictingParam,
			wantContain: "'id' (position 0)",
		},
		{
			name: "unclaimed position",
			route: Route{Module: strPtr("main"), Task: strPtr("videos"), Action: strPtr("process"),
				Params: router.Params{"0": cty.StringVal("5"), "2": cty.StringVal("x")}},
			wantIs:      ErrUnknownParam,
			wantContain: ": 2",
		},
		{
			name:        "handler failure",
			route:       Route{Module: strPtr("main"), Task: strPtr("videos"), Action: strPtr("fail")},
			wantContain: "action 'main:videos fail' failed: disk full",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, config.DispatcherDefaults{})

			err := h.dispatcher.Dispatch(context.Background(), tc.route)

			require.Error(t, err)
			if tc.wantIs != nil {
				require.ErrorIs(t, err, tc.wantIs)
			}
			if tc.wantContain != "" {
				require.Contains(t, err.Error(), tc.wantContain)
			}
			require.Empty(t, h.calls, "recording handlers must not run")
		})
	}
}

func TestDispatch_NotFoundErrorType(t *testing.T) {
	h := newHarness(t, config.DispatcherDefaults{})

	err := h.dispatcher.Dispatch(context.Background(), Route{Task: strPtr("nope")})

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "task", nf.Kind)
	assert.Equal(t, "nope", nf.Name)
}

func TestFromRouter(t *testing.T) {
	route := routeFor(t, map[string]string{"task": "videos", "id": "5"})

	assert.Nil(t, route.Module)
	require.NotNil(t, route.Task)
	assert.Equal(t, "videos", *route.Task)
	assert.Nil(t, route.Action)
	assert.True(t, reflect.DeepEqual([]string{"id"}, route.Params.Keys()))
}

func TestSuggest(t *testing.T) {
	candidates := []string{"help", "print", "env", "socketio"}

	assert.Equal(t, "print", suggest("prnit", candidates))
	assert.Equal(t, "socketio", suggest("sockteio", candidates))
	assert.Equal(t, "", suggest("deploy", candidates))
	assert.Equal(t, "", suggest("anything", nil))
}
