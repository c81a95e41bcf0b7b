// Package parser runs the full configuration pipeline: load sources,
// merge layers, finalize structural markers, resolve interpolation,
// complete defaults, and validate. Each invocation builds one
// independent tree.
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/synconf/synconf/pkg/conf"
	"github.com/synconf/synconf/pkg/interp"
	"github.com/synconf/synconf/pkg/signature"
	"github.com/synconf/synconf/pkg/telemetry"
	"github.com/synconf/synconf/pkg/validate"
)

// Options configures a parser.
type Options struct {
	// Provider resolves descriptors for default completion and
	// validation. Required when any validation flag is set.
	Provider signature.Provider

	// ValidateTypes enables type-constraint checking.
	ValidateTypes bool

	// ValidateMapping enables missing/unexpected key checking.
	ValidateMapping bool

	// Exclude lists dotted paths (exact or doublestar globs) exempt
	// from validation.
	Exclude []string `validate:"omitempty,dive,required"`

	// Env is the environment snapshot visible to interpolation. The
	// parser never reads the process environment itself; see
	// EnvSnapshot.
	Env map[string]string

	// Logger receives stage logs. Nil disables logging.
	Logger *telemetry.Logger
}

// Parser builds configurations from ordered source tokens.
type Parser struct {
	opts Options
	log  *telemetry.Logger
}

// New creates a parser after validating its options.
func New(opts Options) (*Parser, error) {
	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid parser options: %w", err)
	}
	if (opts.ValidateTypes || opts.ValidateMapping) && opts.Provider == nil {
		return nil, fmt.Errorf("validation requires a signature provider")
	}
	log := opts.Logger
	if log == nil {
		log = telemetry.Nop()
	}
	return &Parser{opts: opts, log: log.NewComponentLogger("parser")}, nil
}

// UnknownSourceError reports a token that is neither a document file
// nor an override.
type UnknownSourceError struct {
	Token string
}

// Error implements the error interface.
func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("cannot classify source %q: expected a .yaml/.yml/.cue file or a path=value override", e.Token)
}

// Parse runs the pipeline over the ordered source tokens. Later
// tokens override earlier ones.
func (p *Parser) Parse(tokens []string) (*conf.Config, error) {
	runID := uuid.NewString()
	log := p.log.WithRunID(runID)
	log.Debugf("parsing %d source token(s)", len(tokens))

	patches := make([]conf.Patch, 0, len(tokens))
	for _, tok := range tokens {
		patch, err := classify(tok)
		if err != nil {
			return nil, err
		}
		patches = append(patches, patch)
	}

	root := conf.NewMapping()
	if err := conf.Apply(root, patches...); err != nil {
		return nil, err
	}
	finalized := conf.Finalize(root)
	m, ok := finalized.(*conf.Mapping)
	if !ok {
		return nil, fmt.Errorf("top level of the merged configuration must be a mapping")
	}
	log.Debug("sources merged")

	env := p.opts.Env
	if env == nil {
		env = map[string]string{}
	}
	if err := interp.Resolve(m, interp.Options{Env: env}); err != nil {
		return nil, err
	}
	log.Debug("interpolation resolved")

	if p.opts.Provider != nil {
		if err := validate.Complete(m, p.opts.Provider); err != nil {
			return nil, err
		}
		log.Debug("defaults completed")
	}

	if p.opts.ValidateTypes || p.opts.ValidateMapping {
		err := validate.Validate(m, p.opts.Provider, validate.Options{
			Types:   p.opts.ValidateTypes,
			Mapping: p.opts.ValidateMapping,
			Exclude: p.opts.Exclude,
		})
		if err != nil {
			return nil, err
		}
		log.Debug("validated")
	}

	return conf.NewConfig(m), nil
}

// classify turns one source token into a patch.
func classify(token string) (conf.Patch, error) {
	switch {
	case strings.HasSuffix(token, ".yaml"), strings.HasSuffix(token, ".yml"):
		doc, err := LoadYAMLFile(token)
		if err != nil {
			return conf.Patch{}, err
		}
		return conf.DocumentPatch(doc), nil
	case strings.HasSuffix(token, ".cue"):
		doc, err := LoadCUEFile(token)
		if err != nil {
			return conf.Patch{}, err
		}
		return conf.DocumentPatch(doc), nil
	case strings.Contains(token, "="):
		return conf.ParseOverride(token)
	default:
		return conf.Patch{}, &UnknownSourceError{Token: token}
	}
}

// EnvSnapshot captures the current process environment as a map, for
// passing to Options.Env once at startup.
func EnvSnapshot() map[string]string {
	env := os.Environ()
	out := make(map[string]string, len(env))
	for _, kv := range env {
		if idx := strings.Index(kv, "="); idx >= 0 {
			out[kv[:idx]] = kv[idx+1:]
		}
	}
	return out
}
