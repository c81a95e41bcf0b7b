// Package interp resolves interpolation markers inside a configuration
// tree. A marker is written ((content)) and is one of three things: a
// dotted path reference to another value in the same tree, an
// environment variable reference (upper-case names), or a Starlark
// expression containing backtick-quoted references. Resolution chases
// dependencies depth-first, memoizes resolved values back into the
// tree, and reports cycles with the full ordered chain.
package interp

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/synconf/synconf/pkg/conf"
)

var envRefPattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

// Options configures a resolution pass.
type Options struct {
	// Env is the environment snapshot visible to ((NAME)) references.
	// The resolver never reads the process environment itself.
	Env map[string]string
}

// Resolve resolves every marker in the tree in place. The tree is
// left fully resolved on success; resolving it again is a no-op.
func Resolve(root *conf.Mapping, opts Options) error {
	r := &resolver{
		root:   root,
		env:    opts.Env,
		active: make(map[string]bool),
	}
	return r.walkMapping(root, "", true)
}

type resolver struct {
	root *conf.Mapping
	env  map[string]string

	// stack is the ordered chain of paths currently being resolved;
	// active mirrors it for O(1) revisit checks.
	stack  []string
	active map[string]bool
}

// walkMapping resolves markers in every string leaf below m.
// addressable is true while the prefix is a real dotted path; below a
// sequence item the labels are display-only and conf.Get cannot
// traverse them, so scalars resolve in place without the memoizing
// path machinery.
func (r *resolver) walkMapping(m *conf.Mapping, prefix string, addressable bool) error {
	for _, key := range m.Keys() {
		child, _ := m.Get(key)
		path := conf.JoinPath(prefix, key)
		switch val := child.(type) {
		case *conf.Mapping:
			if err := r.walkMapping(val, path, addressable); err != nil {
				return err
			}
		case *conf.Sequence:
			if err := r.walkSequence(val, path); err != nil {
				return err
			}
		case *conf.Scalar:
			s, ok := val.Value.(string)
			if !ok || !hasMarker(s) {
				continue
			}
			if addressable {
				if _, err := r.resolvePath(path); err != nil {
					return err
				}
				continue
			}
			v, err := r.resolveString(s, path)
			if err != nil {
				return err
			}
			m.Set(key, conf.FromAny(v))
		}
	}
	return nil
}

// walkSequence resolves markers inside sequence items. Items are not
// addressable by dotted paths, so they cannot participate in cycles;
// resolved values are written back by index.
func (r *resolver) walkSequence(seq *conf.Sequence, prefix string) error {
	for i, item := range seq.Items {
		label := fmt.Sprintf("%s[%d]", prefix, i)
		switch val := item.(type) {
		case *conf.Mapping:
			if err := r.walkMapping(val, label, false); err != nil {
				return err
			}
		case *conf.Sequence:
			if err := r.walkSequence(val, label); err != nil {
				return err
			}
		case *conf.Scalar:
			s, ok := val.Value.(string)
			if ok && hasMarker(s) {
				v, err := r.resolveString(s, label)
				if err != nil {
					return err
				}
				seq.Items[i] = conf.FromAny(v)
			}
		}
	}
	return nil
}

// resolvePath resolves the value at the dotted path and returns it as
// a plain Go value. String values holding markers are resolved first
// and the result is memoized back into the tree.
func (r *resolver) resolvePath(path string) (any, error) {
	n, err := conf.Get(r.root, path)
	if err != nil {
		return nil, err
	}
	switch val := n.(type) {
	case *conf.Mapping:
		if err := r.walkMapping(val, path, true); err != nil {
			return nil, err
		}
		return conf.ToAny(val), nil
	case *conf.Sequence:
		if err := r.walkSequence(val, path); err != nil {
			return nil, err
		}
		return conf.ToAny(val), nil
	case *conf.Scalar:
		s, ok := val.Value.(string)
		if !ok || !hasMarker(s) {
			return val.Value, nil
		}
		if r.active[path] {
			return nil, r.cycleError(path)
		}
		r.active[path] = true
		r.stack = append(r.stack, path)
		v, err := r.resolveString(s, path)
		r.stack = r.stack[:len(r.stack)-1]
		delete(r.active, path)
		if err != nil {
			return nil, err
		}
		if err := conf.Set(r.root, path, conf.FromAny(v)); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return conf.ToAny(n), nil
	}
}

func (r *resolver) cycleError(path string) error {
	first := 0
	for i, p := range r.stack {
		if p == path {
			first = i
			break
		}
	}
	chain := make([]string, 0, len(r.stack)-first+1)
	chain = append(chain, r.stack[first:]...)
	chain = append(chain, path)
	return &CycleError{Chain: chain}
}

// resolveString resolves every marker inside raw. A string that is
// exactly one marker yields the referenced value with its native
// type; any surrounding text concatenates the rendered values into a
// string, which is then re-parsed as a YAML literal so numeric and
// boolean spellings regain their types.
func (r *resolver) resolveString(raw, path string) (any, error) {
	spans := scan(raw)
	if len(spans) == 0 {
		return raw, nil
	}
	if len(spans) == 1 && spans[0].start == 0 && spans[0].end == len(raw) {
		return r.resolveMarker(spans[0].content, path)
	}
	var b strings.Builder
	pos := 0
	for _, sp := range spans {
		b.WriteString(raw[pos:sp.start])
		v, err := r.resolveMarker(sp.content, path)
		if err != nil {
			return nil, err
		}
		b.WriteString(renderValue(v))
		pos = sp.end
	}
	b.WriteString(raw[pos:])
	return reparse(b.String()), nil
}

// resolveMarker resolves one marker's content at the given owner path.
func (r *resolver) resolveMarker(content, path string) (any, error) {
	if strings.Contains(content, "`") {
		v, err := r.evalExpression(content, path)
		if err != nil {
			return nil, r.fault(path, content, err)
		}
		return v, nil
	}
	if isEnvRef(content) {
		raw, ok := r.env[content]
		if !ok {
			return nil, r.fault(path, content, fmt.Errorf("environment variable %s is not set", content))
		}
		return reparse(raw), nil
	}
	v, err := r.resolvePath(content)
	if err != nil {
		var pe *conf.PathError
		if errors.As(err, &pe) {
			return nil, r.fault(path, content, fmt.Errorf("unknown parameter path %q", content))
		}
		return nil, err
	}
	return v, nil
}

// fault wraps an error as a ResolveError unless it already carries
// resolution context.
func (r *resolver) fault(path, marker string, err error) error {
	var re *ResolveError
	var ce *CycleError
	if errors.As(err, &re) || errors.As(err, &ce) {
		return err
	}
	return &ResolveError{Path: path, Marker: marker, Err: err}
}

// isEnvRef reports whether content names an environment variable:
// only upper-case letters, digits, and underscores, with at least one
// letter.
func isEnvRef(content string) bool {
	return envRefPattern.MatchString(content) &&
		strings.ContainsAny(content, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
}

// reparse interprets a string as a YAML literal so "8080" becomes an
// integer and "true" a boolean. Text that does not parse stays a
// string.
func reparse(s string) any {
	n, err := conf.ParseLiteral(s)
	if err != nil {
		return s
	}
	return conf.ToAny(n)
}

// renderValue renders a resolved value for textual substitution.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
