package help

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/registry"
	"github.com/zclconf/go-cty/cty"

	prnt "github.com/vk/taskroute/modules/print"
)

// Usage is the synopsis printed above the action list.
const Usage = "Usage: taskroute [options] [module:]task [action] [key=value | value ...]"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the params of `help main`. Topic filters the listing to
// one task key.
type Params struct {
	Topic *string `param:"topic"`
}

// ShowHelp is the handler for `help main`. It reads the routes from the
// registry service and writes them to the output service.
func ShowHelp(ctx context.Context, call *registry.Call) error {
	params := call.Params.(*Params)
	reg, err := di.Resolve[*registry.Registry](call.DI, di.ServiceRegistry)
	if err != nil {
		return err
	}
	out, err := di.Resolve[io.Writer](call.DI, di.ServiceOutput)
	if err != nil {
		return err
	}

	routes := reg.Routes()
	if params.Topic != nil {
		filtered := routes[:0:0]
		for _, r := range routes {
			if config.TaskKey(r.Module, r.Task) == *params.Topic {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("no actions found for task '%s'", *params.Topic)
		}
		routes = filtered
	}

	fmt.Fprintf(out, "%s\n\nAvailable actions:\n", Usage)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range routes {
		fmt.Fprintf(tw, "  %s %s\t%s\n", config.TaskKey(r.Module, r.Task), r.Action, r.Description)
		for _, p := range r.Params {
			fmt.Fprintf(tw, "      %s\t%s\n", p.Name, describeParam(p))
		}
	}
	return tw.Flush()
}

func describeParam(p *config.ParamDefinition) string {
	typeName := "any"
	if !p.Type.Equals(cty.DynamicPseudoType) {
		typeName = p.Type.FriendlyName()
	}
	attrs := []string{typeName}
	if p.Required {
		attrs = append(attrs, "required")
	}
	if p.Position != nil {
		attrs = append(attrs, fmt.Sprintf("position %d", *p.Position))
	}
	if p.Default != nil {
		if def, err := prnt.Render(*p.Default); err == nil {
			attrs = append(attrs, "default "+def)
		}
	}
	desc := "(" + strings.Join(attrs, ", ") + ")"
	if p.Description != "" {
		desc += " " + p.Description
	}
	return desc
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("ShowHelp", &registry.RegisteredAction{
		NewParams: func() any { return new(Params) },
		Fn:        ShowHelp,
	})
}
