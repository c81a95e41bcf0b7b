package interp

import (
	"fmt"
	"regexp"

	"go.starlark.net/starlark"
)

var backtickPattern = regexp.MustCompile("`([^`]+)`")

// evalExpression resolves an expression marker: every backtick-quoted
// reference is textually replaced by its resolved value, then the
// whole text is evaluated as a single sandboxed Starlark expression.
func (r *resolver) evalExpression(content, path string) (any, error) {
	matches := backtickPattern.FindAllStringSubmatchIndex(content, -1)
	expr := content
	if len(matches) > 0 {
		var b []byte
		pos := 0
		for _, m := range matches {
			name := content[m[2]:m[3]]
			var rendered string
			if isEnvRef(name) {
				raw, ok := r.env[name]
				if !ok {
					return nil, fmt.Errorf("environment variable %s is not set", name)
				}
				rendered = raw
			} else {
				v, err := r.resolvePath(name)
				if err != nil {
					return nil, err
				}
				rendered = renderValue(v)
			}
			b = append(b, content[pos:m[0]]...)
			b = append(b, rendered...)
			pos = m[1]
		}
		b = append(b, content[pos:]...)
		expr = string(b)
	}

	thread := &starlark.Thread{
		Name: "interp",
		Print: func(_ *starlark.Thread, _ string) {
			// Suppress print inside expressions.
		},
	}
	v, err := starlark.Eval(thread, "expr.star", expr, starlark.StringDict{})
	if err != nil {
		return nil, fmt.Errorf("expression %q failed: %w", expr, err)
	}
	return fromStarlark(v)
}

// fromStarlark converts a Starlark value to a plain Go value.
func fromStarlark(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer too large")
		}
		return i, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		list := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			item, err := fromStarlark(val.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	case starlark.Tuple:
		list := make([]any, len(val))
		for i, item := range val {
			converted, err := fromStarlark(item)
			if err != nil {
				return nil, err
			}
			list[i] = converted
		}
		return list, nil
	case *starlark.Dict:
		dict := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			value, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			dict[string(key)] = value
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}
