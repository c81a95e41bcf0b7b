package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/synconf/synconf/pkg/conf"
	"github.com/synconf/synconf/pkg/signature"
)

type Tunable interface {
	Rate() float64
}

type Optimizer struct {
	LR       float64
	Momentum float64
}

func (o *Optimizer) Rate() float64 { return o.LR }

type optimizerArgs struct {
	LR       float64 `conf:"lr" default:"0.01"`
	Momentum float64 `conf:"momentum" default:"0.9"`
}

func newOptimizer(a optimizerArgs) *Optimizer {
	return &Optimizer{LR: a.LR, Momentum: a.Momentum}
}

type Model struct {
	Features  int
	Percent   float64
	Optimizer *Optimizer
	Mode      string
}

type modelArgs struct {
	Features  int        `conf:"features"`
	Percent   float64    `conf:"percent" default:"0.5"`
	Optimizer *Optimizer `conf:"optimizer"`
	Mode      string     `conf:"mode" choice:"train, eval" default:"train"`
}

func newModel(a modelArgs) *Model {
	return &Model{Features: a.Features, Percent: a.Percent, Optimizer: a.Optimizer, Mode: a.Mode}
}

type sweeperArgs struct {
	Cls signature.TypeOf[Tunable] `conf:"cls"`
}

func newSweeper(a sweeperArgs) string { return a.Cls.Descriptor }

type flexibleArgs struct {
	Name string         `conf:"name" default:"x"`
	Rest map[string]any `conf:",remain"`
}

func newFlexible(a flexibleArgs) map[string]any { return a.Rest }

func newTestProvider(t *testing.T) *signature.Registry {
	t.Helper()
	r := signature.NewRegistry()
	r.MustRegister("demo.Optimizer", newOptimizer)
	r.MustRegister("demo.Model", newModel)
	r.MustRegister("demo.Sweeper", newSweeper)
	r.MustRegister("demo.Flexible", newFlexible)
	return r
}

func mustTree(t *testing.T, doc string) *conf.Mapping {
	t.Helper()
	n, err := conf.DecodeYAML([]byte(doc))
	if err != nil {
		t.Fatalf("Expected document to parse, got: %v", err)
	}
	return n.(*conf.Mapping)
}

func mustAggregate(t *testing.T, err error) *AggregateError {
	t.Helper()
	if err == nil {
		t.Fatal("Expected validation faults")
	}
	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("Expected an AggregateError, got %T", err)
	}
	return agg
}

func TestComplete_InjectsDefaults(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
model:
  TYPE: demo.Model
  features: 10
  percent: 0.9
  optimizer:
    TYPE: demo.Optimizer
    lr: 0.1
`)
	if err := Complete(root, p); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	checks := map[string]any{
		"model.percent":            float64(0.9),
		"model.mode":               "train",
		"model.optimizer.lr":       float64(0.1),
		"model.optimizer.momentum": float64(0.9),
	}
	for path, want := range checks {
		n, err := conf.Get(root, path)
		if err != nil {
			t.Fatalf("Expected %s to exist, got: %v", path, err)
		}
		if got := conf.ToAny(n); got != want {
			t.Errorf("Expected %s to be %v, got %v", path, want, got)
		}
	}
}

func TestComplete_UnknownDescriptorIgnored(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
thing:
  TYPE: demo.Ghost
  x: 1
`)
	if err := Complete(root, p); err != nil {
		t.Fatalf("Expected unknown descriptors to be skipped, got: %v", err)
	}
}

func TestValidate_MappingFaults(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
model:
  TYPE: demo.Model
  bogus: 1
`)
	agg := mustAggregate(t, Validate(root, p, Options{Mapping: true}))
	if len(agg.Faults) != 1 {
		t.Fatalf("Expected 1 fault, got %d: %v", len(agg.Faults), agg)
	}
	mf, ok := agg.Faults[0].(*MappingFault)
	if !ok {
		t.Fatalf("Expected a MappingFault, got %T", agg.Faults[0])
	}
	if mf.Descriptor != "demo.Model" || mf.Path != "model" {
		t.Errorf("Expected fault for demo.Model at model, got %s at %s", mf.Descriptor, mf.Path)
	}
	wantMissing := []string{"model.features", "model.optimizer"}
	if len(mf.Missing) != 2 || mf.Missing[0] != wantMissing[0] || mf.Missing[1] != wantMissing[1] {
		t.Errorf("Expected missing %v, got %v", wantMissing, mf.Missing)
	}
	if len(mf.Unexpected) != 1 || mf.Unexpected[0] != "model.bogus" {
		t.Errorf("Expected unexpected [model.bogus], got %v", mf.Unexpected)
	}
}

func TestValidate_TypeFaults(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
model:
  TYPE: demo.Model
  features: many
  percent: 1
  mode: test
  optimizer: null
`)
	agg := mustAggregate(t, Validate(root, p, Options{Types: true}))
	if len(agg.Faults) != 3 {
		t.Fatalf("Expected 3 faults, got %d: %v", len(agg.Faults), agg)
	}

	byPath := make(map[string]*TypeFault)
	for _, f := range agg.Faults {
		tf, ok := f.(*TypeFault)
		if !ok {
			t.Fatalf("Expected only TypeFaults, got %T", f)
		}
		byPath[tf.Path] = tf
	}

	if tf := byPath["model.features"]; tf == nil || tf.Expected != "int" || tf.ActualKind != "string" {
		t.Errorf("Expected int fault for model.features, got %+v", tf)
	}
	// Integers do not widen to float.
	if tf := byPath["model.percent"]; tf == nil || tf.Expected != "float" || tf.ActualKind != "int" {
		t.Errorf("Expected float fault for model.percent, got %+v", tf)
	}
	if tf := byPath["model.mode"]; tf == nil || tf.Expected != "choice[train, eval]" {
		t.Errorf("Expected choice fault for model.mode, got %+v", tf)
	}
}

func TestValidate_ObjectConformance(t *testing.T) {
	p := newTestProvider(t)

	valid := mustTree(t, `
model:
  TYPE: demo.Model
  features: 1
  optimizer:
    TYPE: demo.Optimizer
    lr: 0.1
`)
	if err := Validate(valid, p, Options{Types: true}); err != nil {
		t.Fatalf("Expected a conforming instance, got: %v", err)
	}

	wrong := mustTree(t, `
model:
  TYPE: demo.Model
  features: 1
  optimizer:
    TYPE: demo.Sweeper
    cls: demo.Optimizer
`)
	agg := mustAggregate(t, Validate(wrong, p, Options{Types: true}))
	found := false
	for _, f := range agg.Faults {
		if tf, ok := f.(*TypeFault); ok && tf.Path == "model.optimizer" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a type fault at model.optimizer, got %v", agg)
	}
}

func TestValidate_TypeDenotation(t *testing.T) {
	p := newTestProvider(t)

	valid := mustTree(t, `
sweep:
  TYPE: demo.Sweeper
  cls: demo.Optimizer
`)
	if err := Validate(valid, p, Options{Types: true}); err != nil {
		t.Fatalf("Expected *Optimizer to satisfy Tunable, got: %v", err)
	}

	wrong := mustTree(t, `
sweep:
  TYPE: demo.Sweeper
  cls: demo.Model
`)
	agg := mustAggregate(t, Validate(wrong, p, Options{Types: true}))
	tf, ok := agg.Faults[0].(*TypeFault)
	if !ok || tf.Path != "sweep.cls" {
		t.Fatalf("Expected a type fault at sweep.cls, got %v", agg)
	}
	if !strings.Contains(tf.Expected, "type[") {
		t.Errorf("Expected a type denotation constraint, got %q", tf.Expected)
	}
}

func TestValidate_Exclusions(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
model:
  TYPE: demo.Model
  features: many
  bogus: 1
  optimizer: null
`)
	opts := Options{
		Types:   true,
		Mapping: true,
		Exclude: []string{"model.features", "model.**"},
	}
	if err := Validate(root, p, opts); err != nil {
		t.Errorf("Expected exclusions to suppress all faults, got: %v", err)
	}

	// The exact path alone keeps the other faults.
	opts.Exclude = []string{"model.features"}
	agg := mustAggregate(t, Validate(root, p, opts))
	for _, f := range agg.Faults {
		if tf, ok := f.(*TypeFault); ok && tf.Path == "model.features" {
			t.Errorf("Expected model.features to be excluded, got %v", tf)
		}
	}
}

func TestValidate_UnknownDescriptor(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
thing:
  TYPE: demo.Ghost
`)
	agg := mustAggregate(t, Validate(root, p, Options{Mapping: true}))
	df, ok := agg.Faults[0].(*DescriptorFault)
	if !ok {
		t.Fatalf("Expected a DescriptorFault, got %T", agg.Faults[0])
	}
	var ue *signature.UnknownDescriptorError
	if !errors.As(df, &ue) {
		t.Errorf("Expected the fault to wrap the unknown-descriptor error, got: %v", df)
	}
}

func TestValidate_AcceptsAnyForward(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
box:
  TYPE: demo.Flexible
  anything: 1
  extra: [a, b]
`)
	if err := Validate(root, p, Options{Mapping: true}); err != nil {
		t.Errorf("Expected arbitrary keys to be accepted, got: %v", err)
	}
}

func TestValidate_AggregatesAcrossObjects(t *testing.T) {
	p := newTestProvider(t)
	root := mustTree(t, `
a:
  TYPE: demo.Model
  features: many
  optimizer: null
b:
  TYPE: demo.Ghost
`)
	agg := mustAggregate(t, Validate(root, p, Options{Types: true, Mapping: true}))
	if len(agg.Faults) != 2 {
		t.Fatalf("Expected 2 faults in one pass, got %d: %v", len(agg.Faults), agg)
	}
	if !strings.Contains(agg.Error(), "2 fault(s)") {
		t.Errorf("Expected the aggregate message to carry the count, got %q", agg.Error())
	}
}
