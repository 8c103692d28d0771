package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. Action output
// and log output are captured separately.
func SetupAppTest(t *testing.T, appConfig *Config, loader config.Loader, modules ...registry.Module) (a *App, out, logs *SafeBuffer) {
	t.Helper()

	out, logs = &SafeBuffer{}, &SafeBuffer{}
	appConfig.LogLevel = "debug"
	appConfig.LogWriter = logs
	a = NewApp(out, appConfig, loader, modules...)

	t.Cleanup(func() {
		if os.Getenv("TASKROUTE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return a, out, logs
}
