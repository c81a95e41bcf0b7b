package sweep

import (
	"fmt"
	"strings"

	"github.com/synconf/synconf/pkg/conf"
	"github.com/synconf/synconf/pkg/parser"
)

// Result is one parsed sweep variant.
type Result struct {
	Variant
	Config *conf.Config
}

// Run parses every combination as an independent configuration: the
// base tokens first, then the combination's overrides. The output
// order is the combination order.
func Run(p *parser.Parser, base []string, combos [][]string) ([]Result, error) {
	results := make([]Result, 0, len(combos))
	for _, v := range Variants(combos) {
		tokens := make([]string, 0, len(base)+len(v.Overrides))
		tokens = append(tokens, base...)
		tokens = append(tokens, v.Overrides...)
		cfg, err := p.Parse(tokens)
		if err != nil {
			return nil, fmt.Errorf("variant [%s]: %w", strings.Join(v.Overrides, " "), err)
		}
		results = append(results, Result{Variant: v, Config: cfg})
	}
	return results, nil
}
