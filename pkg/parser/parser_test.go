package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/synconf/synconf/pkg/interp"
	"github.com/synconf/synconf/pkg/signature"
	"github.com/synconf/synconf/pkg/validate"
)

type Optimizer struct {
	LR       float64
	Momentum float64
}

type optimizerArgs struct {
	LR       float64 `conf:"lr" default:"0.01"`
	Momentum float64 `conf:"momentum" default:"0.9"`
}

func newOptimizer(a optimizerArgs) *Optimizer {
	return &Optimizer{LR: a.LR, Momentum: a.Momentum}
}

func newTestProvider(t *testing.T) *signature.Registry {
	t.Helper()
	r := signature.NewRegistry()
	r.MustRegister("demo.Optimizer", newOptimizer)
	return r
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return path
}

func TestParser_LayeredSourcesWithOverrides(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.yaml", `
server:
  port: 8080
  timeout: 30
`)
	site := writeFile(t, dir, "site.yaml", `
server:
  timeout: 10
  debug: true
`)

	p, err := New(Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	cfg, err := p.Parse([]string{base, site, "server.port=9090"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := cfg.Get("server")
	if err != nil {
		t.Fatalf("Expected server to exist, got: %v", err)
	}
	want := map[string]any{"port": int64(9090), "timeout": int64(10), "debug": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParser_FullPipeline(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.yaml", `
optimizer:
  TYPE: demo.Optimizer
  lr: ((BASE_LR))
callbacks:
  TYPE: LIST
  log: 10
  ckpt: 5
`)
	patch := writeFile(t, dir, "patch.yaml", `
callbacks:
  ckpt: REMOVE
  stop: 3
`)

	p, err := New(Options{
		Provider:        newTestProvider(t),
		ValidateTypes:   true,
		ValidateMapping: true,
		Env:             map[string]string{"BASE_LR": "0.05"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	cfg, err := p.Parse([]string{base, patch})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	lr, _ := cfg.Get("optimizer.lr")
	if lr != float64(0.05) {
		t.Errorf("Expected the environment reference to resolve to 0.05, got %v (%T)", lr, lr)
	}
	momentum, _ := cfg.Get("optimizer.momentum")
	if momentum != float64(0.9) {
		t.Errorf("Expected the default momentum 0.9, got %v", momentum)
	}
	callbacks, _ := cfg.Get("callbacks")
	if !reflect.DeepEqual(callbacks, []any{int64(10), int64(3)}) {
		t.Errorf("Expected [10, 3], got %v", callbacks)
	}
}

func TestParser_ValidationFaultsAggregate(t *testing.T) {
	base := writeFile(t, t.TempDir(), "base.yaml", `
optimizer:
  TYPE: demo.Optimizer
  lr: fast
  bogus: 1
`)
	p, err := New(Options{
		Provider:        newTestProvider(t),
		ValidateTypes:   true,
		ValidateMapping: true,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err = p.Parse([]string{base})
	var agg *validate.AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("Expected an AggregateError, got %T: %v", err, err)
	}
	if len(agg.Faults) != 2 {
		t.Errorf("Expected 2 faults, got %d: %v", len(agg.Faults), agg)
	}
}

func TestParser_InterpolationFaultSurfaces(t *testing.T) {
	base := writeFile(t, t.TempDir(), "base.yaml", "x: ((no.such.path))\n")
	p, err := New(Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	_, err = p.Parse([]string{base})
	var re *interp.ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("Expected a ResolveError, got %T: %v", err, err)
	}
}

func TestParser_UnknownSource(t *testing.T) {
	p, err := New(Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	_, err = p.Parse([]string{"not-a-source"})
	var use *UnknownSourceError
	if !errors.As(err, &use) {
		t.Fatalf("Expected an UnknownSourceError, got %T", err)
	}
	if use.Token != "not-a-source" {
		t.Errorf("Expected the offending token, got %q", use.Token)
	}
}

func TestParser_ValidationRequiresProvider(t *testing.T) {
	_, err := New(Options{ValidateTypes: true})
	if err == nil {
		t.Error("Expected an error when validation is enabled without a provider")
	}
}

func TestParser_TopLevelMustBeMapping(t *testing.T) {
	base := writeFile(t, t.TempDir(), "base.yaml", "- 1\n- 2\n")
	p, err := New(Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := p.Parse([]string{base}); err == nil {
		t.Error("Expected an error for a sequence document")
	}
}

func TestEnvSnapshot(t *testing.T) {
	t.Setenv("SYNCONF_TEST_VAR", "hello")
	env := EnvSnapshot()
	if env["SYNCONF_TEST_VAR"] != "hello" {
		t.Errorf("Expected the snapshot to carry the variable, got %q", env["SYNCONF_TEST_VAR"])
	}
}
