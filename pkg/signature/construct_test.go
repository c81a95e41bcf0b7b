package signature

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestConstruct_DefaultsFillMissingArguments(t *testing.T) {
	r := newTestRegistry()
	v, err := r.Construct("test.Optimizer", map[string]any{"lr": float64(0.02)}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	opt := v.(*Optimizer)
	if opt.LR != 0.02 {
		t.Errorf("Expected lr 0.02, got %v", opt.LR)
	}
	if opt.Momentum != 0.9 {
		t.Errorf("Expected default momentum 0.9, got %v", opt.Momentum)
	}
}

func TestConstruct_ScalarBridging(t *testing.T) {
	r := newTestRegistry()
	opt := &Optimizer{LR: 0.01}
	v, err := r.Construct("test.Model", map[string]any{
		"features":  int64(10),
		"optimizer": opt,
	}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	model := v.(*Model)
	if model.Features != 10 {
		t.Errorf("Expected 10 features, got %d", model.Features)
	}
	if model.Optimizer != opt {
		t.Error("Expected the optimizer instance to be passed through")
	}
}

func TestConstruct_IntFillsFloatArgument(t *testing.T) {
	r := newTestRegistry()
	v, err := r.Construct("test.Optimizer", map[string]any{"lr": int64(1)}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v.(*Optimizer).LR != 1.0 {
		t.Errorf("Expected 1.0, got %v", v.(*Optimizer).LR)
	}
}

func TestConstruct_UnexpectedArgument(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Construct("test.Optimizer", map[string]any{"bogus": 1}, nil)
	if err == nil {
		t.Fatal("Expected an error for an unexpected argument")
	}
	if !strings.Contains(err.Error(), "unexpected argument") {
		t.Errorf("Expected an unexpected-argument message, got: %v", err)
	}
}

func TestConstruct_RemainCollectsLeftovers(t *testing.T) {
	r := newTestRegistry()
	v, err := r.Construct("test.Trainer", map[string]any{
		"epochs":   int64(3),
		"lr":       float64(0.5),
		"momentum": float64(0.7),
	}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	tr := v.(*Trainer)
	if tr.Epochs != 3 || tr.LR != 0.5 {
		t.Errorf("Expected epochs 3 and lr 0.5, got %d and %v", tr.Epochs, tr.LR)
	}
	want := map[string]any{"momentum": float64(0.7)}
	if !reflect.DeepEqual(tr.Rest, want) {
		t.Errorf("Expected leftovers %v, got %v", want, tr.Rest)
	}
}

func TestConstruct_BoundMethodReceiver(t *testing.T) {
	r := newTestRegistry()
	tr := &Trainer{Epochs: 1}

	v, err := r.Construct("test.Trainer.run", map[string]any{"epochs": int64(2)}, tr)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != "ran 2" {
		t.Errorf("Expected 'ran 2', got %v", v)
	}

	if _, err := r.Construct("test.Trainer.run", nil, nil); err == nil {
		t.Error("Expected an error without a receiver")
	}
	if _, err := r.Construct("test.Trainer.run", nil, "not a trainer"); err == nil {
		t.Error("Expected an error for a mismatched receiver")
	}
}

func TestConstruct_TypeDenotation(t *testing.T) {
	r := newTestRegistry()
	v, err := r.Construct("test.Sweeper", map[string]any{"cls": "test.Optimizer"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	sw := v.(*Sweeper)
	if sw.Cls.Type != reflect.TypeOf(&Optimizer{}) {
		t.Errorf("Expected *Optimizer, got %s", sw.Cls.Type)
	}
	if sw.Cls.Descriptor != "test.Optimizer" {
		t.Errorf("Expected descriptor 'test.Optimizer', got %q", sw.Cls.Descriptor)
	}

	if _, err := r.Construct("test.Sweeper", map[string]any{"cls": "test.Nowhere"}, nil); err == nil {
		t.Error("Expected an error for an unknown type denotation")
	}
	if _, err := r.Construct("test.Sweeper", map[string]any{"cls": 42}, nil); err == nil {
		t.Error("Expected an error for a non-string type denotation")
	}
}

func TestConstruct_NullHandling(t *testing.T) {
	r := newTestRegistry()

	v, err := r.Construct("test.Model", map[string]any{
		"features":  int64(1),
		"optimizer": nil,
	}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v.(*Model).Optimizer != nil {
		t.Error("Expected a nil optimizer")
	}

	if _, err := r.Construct("test.Model", map[string]any{"features": nil}, nil); err == nil {
		t.Error("Expected an error assigning null to an int argument")
	}
}

func TestConstruct_NestedStructFromMap(t *testing.T) {
	r := newTestRegistry()
	v, err := r.Construct("test.Model", map[string]any{
		"features":  int64(4),
		"optimizer": map[string]any{"l_r": float64(0.3)},
	}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	model := v.(*Model)
	if model.Optimizer == nil || model.Optimizer.LR != 0.3 {
		t.Errorf("Expected a decoded optimizer with lr 0.3, got %+v", model.Optimizer)
	}
}

func TestConstruct_ConstructorError(t *testing.T) {
	r := newTestRegistry()
	r.MustRegister("test.Failing", func(gadgetArgs) (int, error) {
		return 0, fmt.Errorf("boom")
	})
	_, err := r.Construct("test.Failing", nil, nil)
	if err == nil || err.Error() != "boom" {
		t.Errorf("Expected the constructor error to pass through, got: %v", err)
	}
}

func TestConstruct_UnknownDescriptor(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Construct("test.Nowhere", nil, nil)
	var ue *UnknownDescriptorError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected an UnknownDescriptorError, got %T", err)
	}
}
