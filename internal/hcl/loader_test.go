package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskroute/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// writeFiles lays out the given relative paths under a temp dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func load(t *testing.T, files map[string]string) (*config.Model, error) {
	t.Helper()
	root := writeFiles(t, files)
	model, _, err := NewLoader().Load(context.Background(), root)
	return model, err
}

const videosHCL = `
task "videos" {
  module      = "main"
  description = "Video jobs"

  action "process" {
    handler     = "ProcessVideo"
    description = "Process one video"

    param "id" {
      type     = number
      required = true
    }
    param "format" {
      type    = string
      default = "mp4"
    }
    param "tags" {
      type = list(string)
    }
    param "meta" {}
  }
}
`

func TestLoad_TaskManifest(t *testing.T) {
	// --- Act ---
	model, err := load(t, map[string]string{"modules/videos/manifest.hcl": videosHCL})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, model.Tasks, "main:videos")

	task := model.Tasks["main:videos"]
	assert.Equal(t, "videos", task.Name)
	assert.Equal(t, "main", task.Module)
	assert.Equal(t, "Video jobs", task.Description)
	assert.Contains(t, task.SourceFile, "manifest.hcl")

	action := task.Actions["process"]
	require.NotNil(t, action)
	assert.Equal(t, "ProcessVideo", action.Handler)
	assert.False(t, action.AllowExtra)
	require.Len(t, action.Params, 4)

	id := action.Params["id"]
	assert.True(t, id.Type.Equals(cty.Number))
	assert.True(t, id.Required)
	assert.Nil(t, id.Default)

	format := action.Params["format"]
	assert.True(t, format.Type.Equals(cty.String))
	require.NotNil(t, format.Default)
	assert.True(t, format.Default.RawEquals(cty.StringVal("mp4")))

	assert.True(t, action.Params["tags"].Type.Equals(cty.List(cty.String)))
	assert.True(t, action.Params["meta"].Type.Equals(cty.DynamicPseudoType), "omitted type means any")

	// Built-in dispatcher defaults survive when no dispatcher block is present.
	assert.Equal(t, config.DefaultTask, model.Dispatcher.Task)
	assert.Equal(t, config.DefaultAction, model.Dispatcher.Action)
}

func TestLoad_RouterAndDispatcherBlocks(t *testing.T) {
	model, err := load(t, map[string]string{
		"taskroute.hcl": `
router {
  default_module = "main"
  default_task   = "videos"
  default_params = { verbose = false, retries = 3 }
}

dispatcher {
  default_task = "print"
}
`,
	})

	require.NoError(t, err)
	require.NotNil(t, model.Router.Module)
	assert.Equal(t, "main", *model.Router.Module)
	require.NotNil(t, model.Router.Task)
	assert.Equal(t, "videos", *model.Router.Task)
	assert.Nil(t, model.Router.Action)
	require.Len(t, model.Router.Params, 2)
	assert.True(t, model.Router.Params["verbose"].RawEquals(cty.False))
	assert.True(t, model.Router.Params["retries"].Equals(cty.NumberIntVal(3)).True())

	assert.Equal(t, "print", model.Dispatcher.Task)
	assert.Equal(t, config.DefaultAction, model.Dispatcher.Action, "unset fields keep their default")
}

func TestLoad_TaskSpanningFiles(t *testing.T) {
	model, err := load(t, map[string]string{
		"a.hcl": `task "env" {
  action "list" { handler = "ListEnv" }
}`,
		"b.hcl": `task "env" {
  description = "Environment"
  action "get" { handler = "GetEnv" }
}`,
	})

	require.NoError(t, err)
	task := model.Tasks["env"]
	require.NotNil(t, task)
	assert.Equal(t, []string{"get", "list"}, task.ActionNames())
	assert.Equal(t, "Environment", task.Description)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		files       map[string]string
		errContains string
	}{
		{
			name:        "syntax error",
			files:       map[string]string{"bad.hcl": `task "x" {`},
			errContains: "failed to parse HCL file",
		},
		{
			name:        "unknown block",
			files:       map[string]string{"bad.hcl": `step "print" "a" {}`},
			errContains: "failed to decode HCL file",
		},
		{
			name: "duplicate action across files",
			files: map[string]string{
				"a.hcl": `task "env" {
  action "list" { handler = "ListEnv" }
}`,
				"b.hcl": `task "env" {
  action "list" { handler = "ListEnv2" }
}`,
			},
			errContains: "action 'list' of task 'env' is already defined",
		},
		{
			name: "duplicate action in one task",
			files: map[string]string{"a.hcl": `task "env" {
  action "list" { handler = "A" }
  action "list" { handler = "B" }
}`},
			errContains: "declares action 'list' more than once",
		},
		{
			name: "required with default",
			files: map[string]string{"a.hcl": `task "t" {
  action "a" {
    handler = "H"
    param "p" {
      type     = string
      required = true
      default  = "x"
    }
  }
}`},
			errContains: "is required and cannot have a default",
		},
		{
			name: "unknown type",
			files: map[string]string{"a.hcl": `task "t" {
  action "a" {
    handler = "H"
    param "p" { type = float }
  }
}`},
			errContains: `unknown primitive type "float"`,
		},
		{
			name: "collection of any",
			files: map[string]string{"a.hcl": `task "t" {
  action "a" {
    handler = "H"
    param "p" { type = list(any) }
  }
}`},
			errContains: "collection types cannot contain type 'any'",
		},
		{
			name:        "non-object default params",
			files:       map[string]string{"a.hcl": `router { default_params = "verbose" }`},
			errContains: "router default_params must be an object",
		},
		{
			name: "reserved param name",
			files: map[string]string{"a.hcl": `task "help" {
  action "main" {
    handler = "H"
    param "task" { type = string }
  }
}`},
			errContains: "declares param 'task', which is a reserved routing key",
		},
		{
			name: "negative position",
			files: map[string]string{"a.hcl": `task "t" {
  action "a" {
    handler = "H"
    param "p" { position = -1 }
  }
}`},
			errContains: "has negative position -1",
		},
		{
			name: "shared position",
			files: map[string]string{"a.hcl": `task "t" {
  action "a" {
    handler = "H"
    param "p" { position = 0 }
    param "q" { position = 0 }
  }
}`},
			errContains: "both claim position 0",
		},
		{
			name:        "missing handler attribute",
			files: map[string]string{"a.hcl": `task "t" {
  action "a" {}
}`},
			errContains: "failed to decode HCL file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.files)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errContains)
		})
	}
}

func TestLoad_MissingPathIsNotAnError(t *testing.T) {
	model, _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.Empty(t, model.Tasks)
}

func TestLoad_ParamPosition(t *testing.T) {
	model, err := load(t, map[string]string{"a.hcl": `task "env" {
  action "get" {
    handler = "GetEnv"
    param "name" {
      type     = string
      position = 0
    }
    param "fallback" { type = string }
  }
}`})

	require.NoError(t, err)
	params := model.Tasks["env"].Actions["get"].Params
	require.NotNil(t, params["name"].Position)
	assert.Equal(t, 0, *params["name"].Position)
	assert.Nil(t, params["fallback"].Position)
}
