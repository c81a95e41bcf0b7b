package sweep

import (
	"errors"
	"reflect"
	"testing"
)

func TestCartesian_Product(t *testing.T) {
	combos, err := Cartesian([]string{
		"model.lr=[0.1, 0.01]",
		"model.layers=[2, 4]",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// The first spec varies slowest.
	want := [][]string{
		{"model.lr=0.1", "model.layers=2"},
		{"model.lr=0.1", "model.layers=4"},
		{"model.lr=0.01", "model.layers=2"},
		{"model.lr=0.01", "model.layers=4"},
	}
	if !reflect.DeepEqual(combos, want) {
		t.Errorf("Expected %v, got %v", want, combos)
	}
}

func TestCartesian_SingleValuePins(t *testing.T) {
	combos, err := Cartesian([]string{
		"seed=42",
		"lr=[0.1, 0.2]",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := [][]string{
		{"seed=42", "lr=0.1"},
		{"seed=42", "lr=0.2"},
	}
	if !reflect.DeepEqual(combos, want) {
		t.Errorf("Expected %v, got %v", want, combos)
	}
}

func TestCartesian_NoSpecs(t *testing.T) {
	combos, err := Cartesian(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(combos) != 1 || len(combos[0]) != 0 {
		t.Errorf("Expected one empty combination, got %v", combos)
	}
}

func TestCartesian_MalformedSpec(t *testing.T) {
	for _, spec := range []string{"noequals", "=[1, 2]", "x=[]"} {
		_, err := Cartesian([]string{spec})
		var se *SpecError
		if !errors.As(err, &se) {
			t.Errorf("Expected a SpecError for %q, got %T", spec, err)
		}
	}
}

func TestCartesian_NestedValuesStayIntact(t *testing.T) {
	combos, err := Cartesian([]string{"layers=[[1, 2], [3, 4]]"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := [][]string{
		{"layers=[1, 2]"},
		{"layers=[3, 4]"},
	}
	if !reflect.DeepEqual(combos, want) {
		t.Errorf("Expected %v, got %v", want, combos)
	}
}

func TestSplitTop(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"1, 2, 3", []string{"1", "2", "3"}},
		{"[1, 2], [3, 4]", []string{"[1, 2]", "[3, 4]"}},
		{"{a: 1, b: 2}, x", []string{"{a: 1, b: 2}", "x"}},
		{"f(a, b), c", []string{"f(a, b)", "c"}},
		{" a , , b ", []string{"a", "b"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitTop(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitTop(%q): expected %v, got %v", tt.raw, tt.want, got)
		}
	}
}

func TestRegistry_Generators(t *testing.T) {
	r := NewRegistry()
	err := r.Register("nightly", func() ([][]string, error) {
		return [][]string{{"seed=1"}, {"seed=2"}}, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	combos, err := Generate(r, "nightly")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(combos) != 2 {
		t.Errorf("Expected 2 combinations, got %d", len(combos))
	}

	if _, err := Generate(r, "missing"); err == nil {
		t.Error("Expected an error for an unknown generator")
	}
	if err := r.Register("nightly", nil); err == nil {
		t.Error("Expected an error for a duplicate registration")
	}
	if err := r.Register("", nil); err == nil {
		t.Error("Expected an error for an empty name")
	}
	if got := r.Names(); len(got) != 1 || got[0] != "nightly" {
		t.Errorf("Expected [nightly], got %v", got)
	}
}

func TestVariants_AssignDistinctRunIDs(t *testing.T) {
	vars := Variants([][]string{{"a=1"}, {"a=2"}, {"a=3"}})
	if len(vars) != 3 {
		t.Fatalf("Expected 3 variants, got %d", len(vars))
	}
	seen := make(map[string]bool)
	for _, v := range vars {
		if v.RunID == "" {
			t.Error("Expected a non-empty run ID")
		}
		if seen[v.RunID] {
			t.Errorf("Expected distinct run IDs, got %q twice", v.RunID)
		}
		seen[v.RunID] = true
	}
}
