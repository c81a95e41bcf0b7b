// Package sweep expands parameter sweeps into independent override
// sets, one per variant. Variants come from either the cartesian
// product of explicit value lists or a named generator; the two entry
// points are distinct and never guessed from token shape.
package sweep

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Generator yields override token sets, one per variant.
type Generator func() ([][]string, error)

// Registry maps generator names to generators.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds a generator under the given name.
func (r *Registry) Register(name string, g Generator) error {
	if name == "" {
		return fmt.Errorf("empty generator name")
	}
	if _, exists := r.generators[name]; exists {
		return fmt.Errorf("generator %q already registered", name)
	}
	r.generators[name] = g
	return nil
}

// Lookup returns the generator registered under name.
func (r *Registry) Lookup(name string) (Generator, error) {
	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown generator %q", name)
	}
	return g, nil
}

// Names returns the registered generator names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.generators))
	for name := range r.generators {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SpecError reports a sweep spec that could not be parsed.
type SpecError struct {
	Spec   string
	Reason string
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	return fmt.Sprintf("malformed sweep spec %q: %s", e.Spec, e.Reason)
}

// Cartesian expands specs of the form "path=[v1, v2, ...]" into the
// cartesian product of their values. Specs are loops left to right,
// outermost first, so the first spec's value varies slowest. A spec
// with a single value "path=v" pins that value in every variant.
func Cartesian(specs []string) ([][]string, error) {
	combos := [][]string{{}}
	for _, spec := range specs {
		idx := strings.Index(spec, "=")
		if idx <= 0 {
			return nil, &SpecError{Spec: spec, Reason: "expected path=value or path=[values]"}
		}
		key := strings.TrimSpace(spec[:idx])
		raw := strings.TrimSpace(spec[idx+1:])

		var values []string
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			values = splitTop(raw[1 : len(raw)-1])
		} else {
			values = []string{raw}
		}
		if len(values) == 0 {
			return nil, &SpecError{Spec: spec, Reason: "empty value list"}
		}

		next := make([][]string, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				extended := make([]string, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, key+"="+v))
			}
		}
		combos = next
	}
	return combos, nil
}

// Generate expands the named generator into override token sets.
func Generate(r *Registry, name string) ([][]string, error) {
	g, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return g()
}

// Variant is one sweep combination with its run identity.
type Variant struct {
	RunID     string
	Overrides []string
}

// Variants assigns a fresh run ID to every combination.
func Variants(combos [][]string) []Variant {
	out := make([]Variant, len(combos))
	for i, combo := range combos {
		out[i] = Variant{RunID: uuid.NewString(), Overrides: combo}
	}
	return out
}

// splitTop splits a comma-separated list at bracket depth zero, so
// nested flow collections stay intact.
func splitTop(raw string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(raw[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(raw[start:]); part != "" {
		out = append(out, part)
	}
	return out
}
