package env_vars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/registry"
)

// ErrNotSet is returned by `env get` for a variable that is not set.
var ErrNotSet = errors.New("environment variable is not set")

// Module implements the registry.Module interface for this package.
type Module struct{}

// ListParams defines the params of `env list`.
type ListParams struct {
	Prefix string `param:"prefix"`
}

// GetParams defines the params of `env get`.
type GetParams struct {
	Name string `param:"name"`
}

// Environ returns the environment as a map. It is a variable so tests can
// substitute a fixed environment.
var Environ = func() map[string]string {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

// ListEnvVars is the handler for `env list`.
func ListEnvVars(ctx context.Context, call *registry.Call) error {
	params := call.Params.(*ListParams)
	out, err := di.Resolve[io.Writer](call.DI, di.ServiceOutput)
	if err != nil {
		return err
	}

	env := Environ()
	names := make([]string, 0, len(env))
	for name := range env {
		if strings.HasPrefix(name, params.Prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	ctxlog.FromContext(ctx).Debug("Listing environment variables.", "prefix", params.Prefix, "count", len(names))

	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%s=%s\n", name, env[name]); err != nil {
			return err
		}
	}
	return nil
}

// GetEnvVar is the handler for `env get`.
func GetEnvVar(ctx context.Context, call *registry.Call) error {
	params := call.Params.(*GetParams)
	out, err := di.Resolve[io.Writer](call.DI, di.ServiceOutput)
	if err != nil {
		return err
	}

	val, ok := Environ()[params.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSet, params.Name)
	}
	_, err = fmt.Fprintln(out, val)
	return err
}

// Register registers the handlers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("ListEnvVars", &registry.RegisteredAction{
		NewParams: func() any { return new(ListParams) },
		Fn:        ListEnvVars,
	})
	r.RegisterAction("GetEnvVar", &registry.RegisteredAction{
		NewParams: func() any { return new(GetParams) },
		Fn:        GetEnvVar,
	})
}
