package conf

import (
	"fmt"
	"strings"
)

// PathError reports a dotted-path lookup that could not be completed.
type PathError struct {
	// Path is the full requested path.
	Path string

	// Missing is the first segment that could not be traversed.
	Missing string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("path %q not found (missing %q)", e.Path, e.Missing)
}

// SplitPath splits a dotted path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// JoinPath joins path segments with dots.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}

// Get returns the node addressed by the dotted path. An empty path
// returns root.
func Get(root Node, path string) (Node, error) {
	if path == "" {
		return root, nil
	}
	current := root
	for _, seg := range SplitPath(path) {
		m, ok := current.(*Mapping)
		if !ok {
			return nil, &PathError{Path: path, Missing: seg}
		}
		child, ok := m.Get(seg)
		if !ok {
			return nil, &PathError{Path: path, Missing: seg}
		}
		current = child
	}
	return current, nil
}

// Has reports whether the dotted path exists.
func Has(root Node, path string) bool {
	_, err := Get(root, path)
	return err == nil
}

// Set assigns the node at the dotted path, creating intermediate
// mappings as needed. A non-mapping value on the way is replaced by a
// fresh mapping so the assignment always wins.
func Set(root *Mapping, path string, value Node) error {
	if path == "" {
		return fmt.Errorf("cannot set empty path")
	}
	segments := SplitPath(path)
	current := root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := current.Get(seg)
		if !ok {
			next := NewMapping()
			current.Set(seg, next)
			current = next
			continue
		}
		m, ok := child.(*Mapping)
		if !ok {
			m = NewMapping()
			current.Set(seg, m)
		}
		current = m
	}
	current.Set(segments[len(segments)-1], value)
	return nil
}

// Delete removes the node at the dotted path. A missing path is an
// error; use Remove semantics during merging for tolerant deletion.
func Delete(root *Mapping, path string) error {
	parent, last, err := parentOf(root, path)
	if err != nil {
		return err
	}
	if !parent.Delete(last) {
		return &PathError{Path: path, Missing: last}
	}
	return nil
}

// deleteIfPresent removes the node at the dotted path, treating an
// absent path as a no-op.
func deleteIfPresent(root *Mapping, path string) {
	parent, last, err := parentOf(root, path)
	if err != nil {
		return
	}
	parent.Delete(last)
}

func parentOf(root *Mapping, path string) (*Mapping, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("cannot address empty path")
	}
	segments := SplitPath(path)
	current := root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := current.Get(seg)
		if !ok {
			return nil, "", &PathError{Path: path, Missing: seg}
		}
		m, ok := child.(*Mapping)
		if !ok {
			return nil, "", &PathError{Path: path, Missing: seg}
		}
		current = m
	}
	return current, segments[len(segments)-1], nil
}
