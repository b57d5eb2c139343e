package graphql

import (
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/tournevent/freightquote/internal/api"
	"github.com/tournevent/freightquote/pkg/freight"
)

// argumentMap resolves a field's arguments against the request variables.
func argumentMap(field *ast.Field, vars map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(field.Arguments))
	for _, a := range field.Arguments {
		v, err := a.Value.Value(vars)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", a.Name, err)
		}
		args[a.Name] = v
	}
	return args, nil
}

// decodeArgument converts a resolved argument value into target.
func decodeArgument(value any, target any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}

func quoteInputFromArgs(field *ast.Field, vars map[string]any) (api.QuoteInput, error) {
	var input api.QuoteInput
	args, err := argumentMap(field, vars)
	if err != nil {
		return input, invalidArgs(err)
	}
	raw, ok := args["input"]
	if !ok || raw == nil {
		return input, invalidArgs(fmt.Errorf("missing or invalid 'input' argument"))
	}
	if err := decodeArgument(raw, &input); err != nil {
		return input, invalidArgs(err)
	}
	return input, nil
}

func weightInputFromArgs(field *ast.Field, vars map[string]any) (api.WeightInput, error) {
	var input api.WeightInput
	args, err := argumentMap(field, vars)
	if err != nil {
		return input, invalidArgs(err)
	}
	if raw, ok := args["input"]; ok {
		args, _ = raw.(map[string]any)
	}
	if err := decodeArgument(args, &input); err != nil {
		return input, invalidArgs(err)
	}
	return input, nil
}

func invalidArgs(err error) error {
	return freight.NewError(freight.CodeInvalidShipment, "invalid arguments").WithCause(err)
}

// project keeps only the selected fields of v. Values are first flattened
// to their JSON form so field names follow the json tags.
func project(v any, set ast.SelectionSet) (any, error) {
	if len(set) == 0 {
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return selectFields(generic, set)
}

func selectFields(v any, set ast.SelectionSet) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			p, err := selectFields(item, set)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(set))
		for _, sel := range set {
			f, ok := sel.(*ast.Field)
			if !ok {
				return nil, queryError("fragments are not supported")
			}
			if len(f.SelectionSet) == 0 {
				out[responseKey(f)] = t[f.Name]
				continue
			}
			p, err := selectFields(t[f.Name], f.SelectionSet)
			if err != nil {
				return nil, err
			}
			out[responseKey(f)] = p
		}
		return out, nil
	default:
		return nil, queryError("selection set on scalar value")
	}
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}
