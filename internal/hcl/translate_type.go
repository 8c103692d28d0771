package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// paramPrimitives are the keywords accepted as a param `type`.
var paramPrimitives = map[string]cty.Type{
	"string": cty.String,
	"number": cty.Number,
	"bool":   cty.Bool,
	"any":    cty.DynamicPseudoType,
}

// paramCollections are the one-argument type constructors, e.g. `list(string)`.
var paramCollections = map[string]func(cty.Type) cty.Type{
	"list": cty.List,
	"map":  cty.Map,
	"set":  cty.Set,
}

// parseParamType converts the `type` expression of a param block into a
// cty.Type. An omitted type means `any`. Collections must name a concrete
// element type, since routed values are converted to it.
func parseParamType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	if isNullExpr(expr) {
		ctxlog.FromContext(ctx).Debug("Param type omitted, using any.")
		return cty.DynamicPseudoType, nil
	}

	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.NilType, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		name := v.Traversal.RootName()
		t, ok := paramPrimitives[name]
		if !ok {
			return cty.NilType, fmt.Errorf("unknown primitive type %q", name)
		}
		return t, nil

	case *hclsyntax.FunctionCallExpr:
		build, ok := paramCollections[v.Name]
		if !ok {
			return cty.NilType, fmt.Errorf("unknown type constructor function %q", v.Name)
		}
		if len(v.Args) != 1 {
			return cty.NilType, fmt.Errorf("type constructor %s() requires exactly one argument, got %d", v.Name, len(v.Args))
		}
		elem, err := parseParamType(ctx, v.Args[0])
		if err != nil {
			return cty.NilType, err
		}
		if elem.Equals(cty.DynamicPseudoType) {
			return cty.NilType, fmt.Errorf("collection types cannot contain type 'any'")
		}
		return build(elem), nil

	default:
		return cty.NilType, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}
