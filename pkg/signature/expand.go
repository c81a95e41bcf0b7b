package signature

import (
	"errors"
	"fmt"
	"strings"

	"github.com/synconf/synconf/pkg/conf"
)

// ErrForwardingCycle reports a forwarding chain that revisits a
// descriptor.
var ErrForwardingCycle = errors.New("forwarding cycle detected")

// Expand resolves the full parameter set of a descriptor by following
// forwarding targets transitively. The first (outermost) definition
// of a name wins; names the forwarding callable fixes itself are
// dropped from deeper signatures. Receiver information comes from the
// outermost signature only.
func Expand(p Provider, descriptor string) (*Signature, error) {
	merged := &Signature{Descriptor: descriptor}
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	fixed := make(map[string]bool)
	var chain []string

	desc := descriptor
	for desc != "" {
		if visited[desc] {
			return nil, fmt.Errorf("%w: %s", ErrForwardingCycle,
				strings.Join(append(chain, desc), " -> "))
		}
		visited[desc] = true
		chain = append(chain, desc)

		sig, err := p.Describe(desc)
		if err != nil {
			return nil, err
		}
		if len(chain) == 1 {
			merged.Receiver = sig.Receiver
			merged.Product = sig.Product
		}
		if sig.AcceptsAnyForward {
			merged.AcceptsAnyForward = true
		}

		next := ""
		for _, param := range sig.Parameters {
			if param.ForwardsTo != "" {
				next = param.ForwardsTo
				for _, f := range param.Fixed {
					fixed[f] = true
				}
				continue
			}
			// Deeper receivers are bound by their own callables.
			if len(chain) > 1 && param.Name == conf.SelfKey {
				continue
			}
			if seen[param.Name] || fixed[param.Name] {
				continue
			}
			seen[param.Name] = true
			merged.Parameters = append(merged.Parameters, param)
		}
		desc = next
	}
	return merged, nil
}

// Chain returns the raw signatures along the forwarding chain,
// outermost first.
func Chain(p Provider, descriptor string) ([]*Signature, error) {
	visited := make(map[string]bool)
	var names []string
	var sigs []*Signature

	desc := descriptor
	for desc != "" {
		if visited[desc] {
			return nil, fmt.Errorf("%w: %s", ErrForwardingCycle,
				strings.Join(append(names, desc), " -> "))
		}
		visited[desc] = true
		names = append(names, desc)

		sig, err := p.Describe(desc)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)

		desc = ""
		for _, param := range sig.Parameters {
			if param.ForwardsTo != "" {
				desc = param.ForwardsTo
				break
			}
		}
	}
	return sigs, nil
}
