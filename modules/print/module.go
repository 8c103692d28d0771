package print

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// PrintParams is the handler for `print params`. It writes every routed
// param to the output service, one `key = value` line per param.
func PrintParams(ctx context.Context, call *registry.Call) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Printing params.", "count", len(call.Raw))

	out, err := di.Resolve[io.Writer](call.DI, di.ServiceOutput)
	if err != nil {
		return err
	}

	if len(call.Raw) == 0 {
		_, err := fmt.Fprintln(out, "(no params)")
		return err
	}

	// Keys are sorted for consistent output.
	for _, k := range call.Raw.Keys() {
		rendered, err := Render(call.Raw[k])
		if err != nil {
			return fmt.Errorf("cannot render param '%s': %w", k, err)
		}
		if _, err := fmt.Fprintf(out, "%s = %s\n", k, rendered); err != nil {
			return err
		}
	}
	return nil
}

// Render formats a param value as JSON. Null values render as `null`.
func Render(v cty.Value) (string, error) {
	if v.IsNull() {
		return "null", nil
	}
	if !v.IsWhollyKnown() {
		return "(unknown)", nil
	}
	b, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("PrintParams", &registry.RegisteredAction{
		Fn: PrintParams,
	})
}
