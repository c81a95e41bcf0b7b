// Package realize turns resolved configuration trees into live object
// graphs. Instantiation is deepest-first: a descriptor mapping's
// children are realized before its own constructor runs, so every
// constructor sees finished arguments.
package realize

import (
	"fmt"
	"sort"

	"github.com/synconf/synconf/pkg/conf"
	"github.com/synconf/synconf/pkg/interp"
	"github.com/synconf/synconf/pkg/signature"
)

// Constructor resolves descriptors and builds their products. The
// signature registry implements it.
type Constructor interface {
	signature.Provider

	// Construct builds the product of a descriptor from realized
	// keyword arguments. receiver is the realized self value for
	// bound-method descriptors, nil otherwise.
	Construct(descriptor string, kwargs map[string]any, receiver any) (any, error)
}

// Options configures a realization.
type Options struct {
	// Overwrites are dotted-path assignments applied to a deep copy
	// of the tree before instantiation. The source tree is never
	// mutated.
	Overwrites map[string]any

	// Env is the environment snapshot for interpolation markers that
	// overwrites may introduce.
	Env map[string]string
}

// Error reports a failed construction. It wraps the underlying cause
// once, with the owning path.
type Error struct {
	Path       string
	Descriptor string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("realization of %s at %s failed: %v", e.Descriptor, path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Realize builds the object graph for the whole tree.
func Realize(root *conf.Mapping, c Constructor, opts Options) (any, error) {
	work, err := prepare(root, opts)
	if err != nil {
		return nil, err
	}
	return realizeNode(work, "", c)
}

// At builds the object graph for the sub-tree at the dotted path.
// Overwrites are rooted at the tree root, not the sub-tree.
func At(root *conf.Mapping, path string, c Constructor, opts Options) (any, error) {
	work, err := prepare(root, opts)
	if err != nil {
		return nil, err
	}
	n, err := conf.Get(work, path)
	if err != nil {
		return nil, err
	}
	return realizeNode(n, path, c)
}

// prepare applies overwrites to a deep copy and re-runs interpolation
// so markers introduced by an overwrite resolve against the final
// values.
func prepare(root *conf.Mapping, opts Options) (*conf.Mapping, error) {
	if len(opts.Overwrites) == 0 {
		return root, nil
	}
	work := root.Clone().(*conf.Mapping)
	paths := make([]string, 0, len(opts.Overwrites))
	for p := range opts.Overwrites {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := conf.Set(work, p, conf.FromAny(opts.Overwrites[p])); err != nil {
			return nil, err
		}
	}
	if err := interp.Resolve(work, interp.Options{Env: opts.Env}); err != nil {
		return nil, err
	}
	return work, nil
}

func realizeNode(n conf.Node, path string, c Constructor) (any, error) {
	switch val := n.(type) {
	case *conf.Scalar:
		return val.Value, nil
	case *conf.Sequence:
		out := make([]any, len(val.Items))
		for i, item := range val.Items {
			v, err := realizeNode(item, fmt.Sprintf("%s[%d]", path, i), c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *conf.Mapping:
		desc, ok := val.Descriptor()
		if !ok || desc == conf.ListMarker {
			return realizeStructural(val, path, c)
		}
		return realizeObject(val, path, desc, c)
	default:
		return nil, fmt.Errorf("unsupported node type %T at %s", n, path)
	}
}

func realizeStructural(m *conf.Mapping, path string, c Constructor) (map[string]any, error) {
	out := make(map[string]any, m.Len())
	for _, key := range m.Keys() {
		if key == conf.TypeKey {
			continue
		}
		child, _ := m.Get(key)
		v, err := realizeNode(child, conf.JoinPath(path, key), c)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func realizeObject(m *conf.Mapping, path, desc string, c Constructor) (any, error) {
	var receiver any
	kwargs := make(map[string]any)
	for _, key := range m.Keys() {
		if key == conf.TypeKey {
			continue
		}
		child, _ := m.Get(key)
		v, err := realizeNode(child, conf.JoinPath(path, key), c)
		if err != nil {
			return nil, err
		}
		if key == conf.SelfKey {
			receiver = v
			continue
		}
		kwargs[key] = v
	}
	out, err := c.Construct(desc, kwargs, receiver)
	if err != nil {
		return nil, &Error{Path: path, Descriptor: desc, Err: err}
	}
	return out, nil
}
