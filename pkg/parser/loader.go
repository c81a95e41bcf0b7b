package parser

import (
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/synconf/synconf/pkg/conf"
)

// LoadYAMLFile loads a YAML document. The top level must be a
// mapping; an empty document yields an empty mapping.
func LoadYAMLFile(path string) (*conf.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	n, err := conf.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return topLevelMapping(n, path)
}

// LoadCUEFile compiles and evaluates a CUE file and converts the
// concrete result into a tree.
func LoadCUEFile(path string) (*conf.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ctx := cuecontext.New()
	val := ctx.CompileString(string(data), cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", path, err)
	}
	n, err := cueToNode(val)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", path, err)
	}
	return topLevelMapping(n, path)
}

func topLevelMapping(n conf.Node, path string) (*conf.Mapping, error) {
	switch val := n.(type) {
	case *conf.Mapping:
		return val, nil
	case *conf.Scalar:
		if val.Value == nil {
			return conf.NewMapping(), nil
		}
	}
	return nil, fmt.Errorf("document %s: top level must be a mapping", path)
}

func cueToNode(v cue.Value) (conf.Node, error) {
	switch v.Kind() {
	case cue.StructKind:
		m := conf.NewMapping()
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		for iter.Next() {
			child, err := cueToNode(iter.Value())
			if err != nil {
				return nil, err
			}
			m.Set(fieldLabel(iter.Selector()), child)
		}
		return m, nil
	case cue.ListKind:
		seq := &conf.Sequence{}
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		for iter.Next() {
			item, err := cueToNode(iter.Value())
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, item)
		}
		return seq, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return &conf.Scalar{Value: s}, nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return &conf.Scalar{Value: i}, nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return &conf.Scalar{Value: f}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return &conf.Scalar{Value: b}, nil
	case cue.NullKind:
		return &conf.Scalar{Value: nil}, nil
	default:
		return nil, fmt.Errorf("value at %s is not concrete", v.Path())
	}
}

// fieldLabel renders a struct field selector as a plain key.
func fieldLabel(sel cue.Selector) string {
	label := sel.String()
	if len(label) > 1 && label[0] == '"' {
		if unquoted, err := strconv.Unquote(label); err == nil {
			return unquoted
		}
	}
	return label
}
