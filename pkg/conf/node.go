// Package conf provides the configuration tree model: an ordered,
// mutable tree of scalars, mappings, and sequences with dotted-path
// addressing, layered merging, and marker handling (TYPE, LIST, REMOVE).
package conf

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Reserved keys and sentinel values recognized throughout the tree.
const (
	// TypeKey marks a mapping as describing an object of the named descriptor.
	TypeKey = "TYPE"

	// ListMarker is the TypeKey value that marks a mapping as an ordered list.
	ListMarker = "LIST"

	// RemoveMarker is the scalar value that deletes the addressed key on merge.
	RemoveMarker = "REMOVE"

	// SelfKey holds the receiver sub-tree for bound-method descriptors.
	SelfKey = "self"
)

// Node is a value in the configuration tree. Implementations are
// *Scalar, *Mapping, and *Sequence.
type Node interface {
	// Clone returns a deep copy of the node.
	Clone() Node

	node()
}

// Scalar is a leaf value: string, int64, float64, bool, or nil.
type Scalar struct {
	Value any
}

func (s *Scalar) node() {}

// Clone returns a deep copy of the scalar.
func (s *Scalar) Clone() Node {
	return &Scalar{Value: s.Value}
}

// Mapping is an ordered string-keyed mapping. Iteration order is
// insertion order; re-assigning an existing key keeps its position.
type Mapping struct {
	keys     []string
	children map[string]Node
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{children: make(map[string]Node)}
}

func (m *Mapping) node() {}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the child for key.
func (m *Mapping) Get(key string) (Node, bool) {
	n, ok := m.children[key]
	return n, ok
}

// Set assigns key to value. An existing key keeps its position; a new
// key is appended.
func (m *Mapping) Set(key string, value Node) {
	if m.children == nil {
		m.children = make(map[string]Node)
	}
	if _, ok := m.children[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.children[key] = value
}

// Delete removes key and reports whether it was present.
func (m *Mapping) Delete(key string) bool {
	if _, ok := m.children[key]; !ok {
		return false
	}
	delete(m.children, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Descriptor returns the object descriptor carried by the TypeKey
// entry, if the mapping has one with a string value.
func (m *Mapping) Descriptor() (string, bool) {
	n, ok := m.children[TypeKey]
	if !ok {
		return "", false
	}
	s, ok := n.(*Scalar)
	if !ok {
		return "", false
	}
	name, ok := s.Value.(string)
	return name, ok
}

// IsList reports whether the mapping carries the list marker.
func (m *Mapping) IsList() bool {
	d, ok := m.Descriptor()
	return ok && d == ListMarker
}

// Clone returns a deep copy of the mapping.
func (m *Mapping) Clone() Node {
	out := NewMapping()
	for _, k := range m.keys {
		out.Set(k, m.children[k].Clone())
	}
	return out
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	Items []Node
}

func (s *Sequence) node() {}

// Clone returns a deep copy of the sequence.
func (s *Sequence) Clone() Node {
	out := &Sequence{Items: make([]Node, len(s.Items))}
	for i, item := range s.Items {
		out.Items[i] = item.Clone()
	}
	return out
}

// IsRemove reports whether n is the removal sentinel.
func IsRemove(n Node) bool {
	s, ok := n.(*Scalar)
	if !ok {
		return false
	}
	v, ok := s.Value.(string)
	return ok && v == RemoveMarker
}

// FromAny converts a plain Go value into a tree node. Map keys are
// sorted so the result is deterministic.
func FromAny(v any) Node {
	switch val := v.(type) {
	case nil:
		return &Scalar{Value: nil}
	case Node:
		return val.Clone()
	case []any:
		out := &Sequence{Items: make([]Node, len(val))}
		for i, item := range val {
			out.Items[i] = FromAny(item)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMapping()
		for _, k := range keys {
			out.Set(k, FromAny(val[k]))
		}
		return out
	default:
		return &Scalar{Value: normalizeScalar(v)}
	}
}

// ToAny converts a tree node into plain Go values (map[string]any,
// []any, scalars). Mapping order is lost.
func ToAny(n Node) any {
	switch val := n.(type) {
	case *Scalar:
		return val.Value
	case *Sequence:
		out := make([]any, len(val.Items))
		for i, item := range val.Items {
			out[i] = ToAny(item)
		}
		return out
	case *Mapping:
		out := make(map[string]any, val.Len())
		for _, k := range val.keys {
			out[k] = ToAny(val.children[k])
		}
		return out
	default:
		return nil
	}
}

// normalizeScalar widens integer kinds to int64 and float kinds to
// float64 so scalar comparisons have one representation per kind.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}

// ParseLiteral parses text as a single YAML scalar or flow literal.
// "8080" becomes int64, "true" bool, "[1, 2]" a sequence, and plain
// words stay strings.
func ParseLiteral(text string) (Node, error) {
	var y yaml.Node
	if err := yaml.Unmarshal([]byte(text), &y); err != nil {
		return nil, fmt.Errorf("invalid literal %q: %w", text, err)
	}
	return yamlToNode(&y)
}

// DecodeYAML decodes a YAML document into a tree, preserving mapping
// key order.
func DecodeYAML(data []byte) (Node, error) {
	var y yaml.Node
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, err
	}
	return yamlToNode(&y)
}

// EncodeYAML renders a tree as YAML, preserving mapping key order.
func EncodeYAML(n Node) ([]byte, error) {
	y, err := nodeToYAML(n)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(y)
}

func yamlToNode(y *yaml.Node) (Node, error) {
	switch y.Kind {
	case 0:
		// Empty document.
		return &Scalar{Value: nil}, nil
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return &Scalar{Value: nil}, nil
		}
		return yamlToNode(y.Content[0])
	case yaml.AliasNode:
		return yamlToNode(y.Alias)
	case yaml.ScalarNode:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, err
		}
		return &Scalar{Value: normalizeScalar(v)}, nil
	case yaml.SequenceNode:
		out := &Sequence{Items: make([]Node, len(y.Content))}
		for i, item := range y.Content {
			n, err := yamlToNode(item)
			if err != nil {
				return nil, err
			}
			out.Items[i] = n
		}
		return out, nil
	case yaml.MappingNode:
		out := NewMapping()
		for i := 0; i+1 < len(y.Content); i += 2 {
			var key string
			if err := y.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("mapping key at line %d: %w", y.Content[i].Line, err)
			}
			n, err := yamlToNode(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(key, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", y.Kind)
	}
}

func nodeToYAML(n Node) (*yaml.Node, error) {
	switch val := n.(type) {
	case *Scalar:
		y := &yaml.Node{}
		if err := y.Encode(val.Value); err != nil {
			return nil, err
		}
		return y, nil
	case *Sequence:
		y := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range val.Items {
			c, err := nodeToYAML(item)
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, c)
		}
		return y, nil
	case *Mapping:
		y := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range val.keys {
			ky := &yaml.Node{}
			if err := ky.Encode(k); err != nil {
				return nil, err
			}
			c, err := nodeToYAML(val.children[k])
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, ky, c)
		}
		return y, nil
	default:
		return nil, fmt.Errorf("unsupported node type %T", n)
	}
}
