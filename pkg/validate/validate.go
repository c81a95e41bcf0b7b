// Package validate completes defaults and validates a resolved
// configuration tree against the signatures of its descriptors. All
// faults of a tree are collected in one pass and reported together.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/synconf/synconf/pkg/conf"
	"github.com/synconf/synconf/pkg/signature"
)

// Options configures a validation pass.
type Options struct {
	// Types enables type-constraint checking.
	Types bool

	// Mapping enables missing/unexpected key checking.
	Mapping bool

	// Exclude lists dotted paths to skip. Entries are matched exactly
	// or as doublestar globs over the dot-separated path.
	Exclude []string
}

// Complete injects declared defaults into every descriptor-bearing
// mapping. A parameter already present keeps its authored value, even
// when it equals the default. Descriptors the provider does not know
// are left alone; Validate reports them.
func Complete(root *conf.Mapping, p signature.Provider) error {
	return completeNode(root, "", p)
}

func completeNode(n conf.Node, path string, p signature.Provider) error {
	switch val := n.(type) {
	case *conf.Mapping:
		if desc, ok := val.Descriptor(); ok && desc != conf.ListMarker {
			sig, err := signature.Expand(p, desc)
			if err != nil {
				var unknown *signature.UnknownDescriptorError
				if !errors.As(err, &unknown) {
					return fmt.Errorf("at %s: %w", displayPath(path), err)
				}
			} else {
				for _, param := range sig.Parameters {
					if !param.HasDefault {
						continue
					}
					if _, present := val.Get(param.Name); present {
						continue
					}
					val.Set(param.Name, conf.FromAny(param.Default))
				}
			}
		}
		for _, key := range val.Keys() {
			child, _ := val.Get(key)
			if err := completeNode(child, conf.JoinPath(path, key), p); err != nil {
				return err
			}
		}
	case *conf.Sequence:
		for i, item := range val.Items {
			if err := completeNode(item, fmt.Sprintf("%s[%d]", path, i), p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks every descriptor-bearing mapping in the tree and
// returns a single *AggregateError carrying all faults, or nil.
func Validate(root *conf.Mapping, p signature.Provider, opts Options) error {
	c := &checker{p: p, opts: opts}
	c.walk(root, "")
	if len(c.faults) > 0 {
		return &AggregateError{Faults: c.faults}
	}
	return nil
}

type checker struct {
	p      signature.Provider
	opts   Options
	faults []error
}

func (c *checker) walk(n conf.Node, path string) {
	switch val := n.(type) {
	case *conf.Mapping:
		if desc, ok := val.Descriptor(); ok && desc != conf.ListMarker {
			c.checkObject(val, path, desc)
		}
		for _, key := range val.Keys() {
			child, _ := val.Get(key)
			c.walk(child, conf.JoinPath(path, key))
		}
	case *conf.Sequence:
		for i, item := range val.Items {
			c.walk(item, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

func (c *checker) checkObject(m *conf.Mapping, path, desc string) {
	sig, err := signature.Expand(c.p, desc)
	if err != nil {
		c.faults = append(c.faults, &DescriptorFault{
			Path:       displayPath(path),
			Descriptor: desc,
			Err:        err,
		})
		return
	}

	declared := make(map[string]signature.Parameter, len(sig.Parameters))
	for _, param := range sig.Parameters {
		declared[param.Name] = param
	}

	if c.opts.Mapping {
		var missing, unexpected []string
		for _, param := range sig.Parameters {
			if !param.Required {
				continue
			}
			if _, present := m.Get(param.Name); present {
				continue
			}
			full := conf.JoinPath(path, param.Name)
			if c.excluded(full) {
				continue
			}
			missing = append(missing, full)
		}
		if !sig.AcceptsAnyForward {
			for _, key := range m.Keys() {
				if key == conf.TypeKey {
					continue
				}
				if _, ok := declared[key]; ok {
					continue
				}
				full := conf.JoinPath(path, key)
				if c.excluded(full) {
					continue
				}
				unexpected = append(unexpected, full)
			}
		}
		if len(missing) > 0 || len(unexpected) > 0 {
			c.faults = append(c.faults, &MappingFault{
				Descriptor: desc,
				Path:       displayPath(path),
				Missing:    missing,
				Unexpected: unexpected,
			})
		}
	}

	if c.opts.Types {
		for _, key := range m.Keys() {
			if key == conf.TypeKey {
				continue
			}
			param, ok := declared[key]
			if !ok || param.Type == nil {
				continue
			}
			full := conf.JoinPath(path, key)
			if c.excluded(full) {
				continue
			}
			child, _ := m.Get(key)
			if !c.conforms(child, param.Type) {
				c.faults = append(c.faults, &TypeFault{
					Path:       full,
					Expected:   param.Type.String(),
					Actual:     renderActual(child),
					ActualKind: kindOf(child),
				})
			}
		}
	}
}

// conforms reports whether a tree value satisfies a type constraint.
// Primitive kinds match the exact runtime type; there is no numeric
// widening.
func (c *checker) conforms(n conf.Node, ts *signature.TypeSpec) bool {
	switch ts.Kind {
	case signature.KindAny:
		return true
	case signature.KindNull:
		s, ok := n.(*conf.Scalar)
		return ok && s.Value == nil
	case signature.KindString:
		s, ok := n.(*conf.Scalar)
		if !ok {
			return false
		}
		_, ok = s.Value.(string)
		return ok
	case signature.KindInt:
		s, ok := n.(*conf.Scalar)
		if !ok {
			return false
		}
		_, ok = s.Value.(int64)
		return ok
	case signature.KindFloat:
		s, ok := n.(*conf.Scalar)
		if !ok {
			return false
		}
		_, ok = s.Value.(float64)
		return ok
	case signature.KindBool:
		s, ok := n.(*conf.Scalar)
		if !ok {
			return false
		}
		_, ok = s.Value.(bool)
		return ok
	case signature.KindList:
		_, ok := n.(*conf.Sequence)
		return ok
	case signature.KindMap:
		m, ok := n.(*conf.Mapping)
		if !ok {
			return false
		}
		_, hasDesc := m.Descriptor()
		return !hasDesc
	case signature.KindChoice:
		s, ok := n.(*conf.Scalar)
		if !ok {
			return false
		}
		for _, choice := range ts.Choices {
			if s.Value == choice {
				return true
			}
		}
		return false
	case signature.KindUnion:
		for _, alt := range ts.Alts {
			if c.conforms(n, alt) {
				return true
			}
		}
		return false
	case signature.KindObject:
		m, ok := n.(*conf.Mapping)
		if !ok {
			return false
		}
		desc, ok := m.Descriptor()
		if !ok {
			return false
		}
		sig, err := c.p.Describe(desc)
		if err != nil {
			return false
		}
		return productConforms(sig.Product, ts.Object)
	case signature.KindTypeOf:
		s, ok := n.(*conf.Scalar)
		if !ok {
			// A descriptor mapping here is an instance, not a type.
			return false
		}
		name, ok := s.Value.(string)
		if !ok {
			return false
		}
		sig, err := c.p.Describe(name)
		if err != nil {
			return false
		}
		return productConforms(sig.Product, ts.Object)
	default:
		return false
	}
}

// productConforms reports whether a constructor's product type
// satisfies the expected type: interface satisfaction, assignability,
// or identity after stripping pointers.
func productConforms(product, expected reflect.Type) bool {
	if product == nil || expected == nil {
		return false
	}
	if expected.Kind() == reflect.Interface {
		return product.Implements(expected)
	}
	if product.AssignableTo(expected) {
		return true
	}
	return stripPtr(product) == stripPtr(expected)
}

func stripPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func (c *checker) excluded(path string) bool {
	for _, pattern := range c.opts.Exclude {
		if pattern == path {
			return true
		}
		ok, err := doublestar.Match(slashed(pattern), slashed(path))
		if err == nil && ok {
			return true
		}
	}
	return false
}

func slashed(path string) string {
	return strings.ReplaceAll(path, ".", "/")
}

func kindOf(n conf.Node) string {
	switch val := n.(type) {
	case *conf.Scalar:
		switch val.Value.(type) {
		case nil:
			return "null"
		case string:
			return "string"
		case int64:
			return "int"
		case float64:
			return "float"
		case bool:
			return "bool"
		default:
			return fmt.Sprintf("%T", val.Value)
		}
	case *conf.Sequence:
		return "list"
	case *conf.Mapping:
		if desc, ok := val.Descriptor(); ok {
			return desc
		}
		return "map"
	default:
		return fmt.Sprintf("%T", n)
	}
}

func renderActual(n conf.Node) string {
	switch val := n.(type) {
	case *conf.Scalar:
		if val.Value == nil {
			return "null"
		}
		return fmt.Sprintf("%v", val.Value)
	case *conf.Sequence:
		return fmt.Sprintf("list of %d item(s)", len(val.Items))
	case *conf.Mapping:
		if desc, ok := val.Descriptor(); ok {
			return desc + " instance"
		}
		return fmt.Sprintf("mapping with %d key(s)", val.Len())
	default:
		return fmt.Sprintf("%T", n)
	}
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
