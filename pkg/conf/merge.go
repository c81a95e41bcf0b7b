package conf

import (
	"fmt"
	"strings"
)

// Patch is one merge layer: either a whole document or a single
// dotted-path override.
type Patch struct {
	// Doc is the document to deep-merge when non-nil.
	Doc *Mapping

	// Path and Value describe an override when Doc is nil.
	Path  string
	Value Node
}

// DocumentPatch wraps a whole document as a patch.
func DocumentPatch(doc *Mapping) Patch {
	return Patch{Doc: doc}
}

// OverridePatch wraps a single path assignment as a patch.
func OverridePatch(path string, value Node) Patch {
	return Patch{Path: path, Value: value}
}

// PatchError reports an override token that could not be parsed.
type PatchError struct {
	Token  string
	Reason string
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	return fmt.Sprintf("malformed override %q: %s", e.Token, e.Reason)
}

// ParseOverride parses a "path=value" token. The value is parsed as a
// YAML scalar or flow literal, so "port=8080" assigns an integer and
// "tags=[a, b]" assigns a sequence.
func ParseOverride(token string) (Patch, error) {
	idx := strings.Index(token, "=")
	if idx < 0 {
		return Patch{}, &PatchError{Token: token, Reason: "expected path=value"}
	}
	path := strings.TrimSpace(token[:idx])
	if path == "" {
		return Patch{}, &PatchError{Token: token, Reason: "empty path"}
	}
	value, err := ParseLiteral(token[idx+1:])
	if err != nil {
		return Patch{}, &PatchError{Token: token, Reason: err.Error()}
	}
	return OverridePatch(path, value), nil
}

// Apply merges the patches into root in order. Later patches win.
// Mapping values deep-merge into existing mappings; every other
// combination replaces the previous value wholesale. A RemoveMarker
// value deletes the addressed key, and deleting an absent key is a
// no-op.
func Apply(root *Mapping, patches ...Patch) error {
	for _, p := range patches {
		if p.Doc != nil {
			mergeMapping(root, p.Doc)
			continue
		}
		if p.Path == "" {
			return fmt.Errorf("patch has neither document nor path")
		}
		if IsRemove(p.Value) {
			deleteIfPresent(root, p.Path)
			continue
		}
		if err := Set(root, p.Path, p.Value.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func mergeMapping(dst, src *Mapping) {
	for _, key := range src.Keys() {
		sv, _ := src.Get(key)
		if IsRemove(sv) {
			dst.Delete(key)
			continue
		}
		if dv, ok := dst.Get(key); ok {
			dm, dok := dv.(*Mapping)
			sm, sok := sv.(*Mapping)
			if dok && sok {
				mergeMapping(dm, sm)
				continue
			}
		}
		dst.Set(key, sv.Clone())
	}
}

// Finalize resolves the structural markers left after merging: any
// surviving RemoveMarker values are stripped, and every mapping
// carrying the list marker is converted into a sequence of its values
// in insertion order.
func Finalize(root *Mapping) Node {
	stripRemove(root)
	return convertLists(root)
}

func stripRemove(n Node) {
	switch val := n.(type) {
	case *Mapping:
		for _, key := range val.Keys() {
			child, _ := val.Get(key)
			if IsRemove(child) {
				val.Delete(key)
				continue
			}
			stripRemove(child)
		}
	case *Sequence:
		items := val.Items[:0]
		for _, item := range val.Items {
			if IsRemove(item) {
				continue
			}
			stripRemove(item)
			items = append(items, item)
		}
		val.Items = items
	}
}

func convertLists(n Node) Node {
	switch val := n.(type) {
	case *Mapping:
		for _, key := range val.Keys() {
			child, _ := val.Get(key)
			val.Set(key, convertLists(child))
		}
		if val.IsList() {
			seq := &Sequence{}
			for _, key := range val.Keys() {
				if key == TypeKey {
					continue
				}
				child, _ := val.Get(key)
				seq.Items = append(seq.Items, child)
			}
			return seq
		}
		return val
	case *Sequence:
		for i, item := range val.Items {
			val.Items[i] = convertLists(item)
		}
		return val
	default:
		return n
	}
}
