package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/taskroute/internal/app"
	"github.com/vk/taskroute/internal/hcl"
	"github.com/vk/taskroute/internal/registry"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, args map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, args, modules...)
}

// RunIntegrationTestWithContext writes files under a temp dir, builds an app
// that loads `modules/` as the modules path and `taskroute.hcl` (when given)
// as the config path, then routes and dispatches args.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, args map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Write all HCL files to a temporary root directory. The test provides
	//    relative paths (e.g., "modules/x/manifest.hcl").
	tmpDir := t.TempDir()
	modulesDir := filepath.Join(tmpDir, "modules")
	require.NoError(t, os.MkdirAll(modulesDir, 0o755))
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	// 2. Configure the app.
	appConfig := &app.Config{
		ModulesPath: modulesDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		Arguments:   args,
	}
	if _, ok := files["taskroute.hcl"]; ok {
		appConfig.ConfigPath = filepath.Join(tmpDir, "taskroute.hcl")
	}

	out, logs := &app.SafeBuffer{}, &app.SafeBuffer{}
	appConfig.LogWriter = logs

	// 3. Build the app, turning startup panics into an error.
	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(out, appConfig, hcl.NewLoader(), modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logs.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	// 4. Route and dispatch.
	runErr := testApp.Run(ctx)

	if os.Getenv("TASKROUTE_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}

	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}
