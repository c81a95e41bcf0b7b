package validate

import (
	"fmt"
	"strings"
)

// TypeFault reports a value that does not conform to its declared
// type constraint.
type TypeFault struct {
	// Path is the dotted path of the offending parameter.
	Path string

	// Expected is the rendered type constraint.
	Expected string

	// Actual is the rendered offending value.
	Actual string

	// ActualKind is the concrete kind of the offending value.
	ActualKind string
}

// Error implements the error interface.
func (f *TypeFault) Error() string {
	return fmt.Sprintf("type mismatch\n  parameter: %s\n  expected:  %s\n  actual:    %s (%s)",
		f.Path, f.Expected, f.Actual, f.ActualKind)
}

// MappingFault reports missing required parameters and unexpected
// keys of one descriptor-bearing mapping.
type MappingFault struct {
	// Descriptor owns the faulted mapping.
	Descriptor string

	// Path is the dotted path of the mapping.
	Path string

	// Missing lists full paths of required parameters that are absent.
	Missing []string

	// Unexpected lists full paths of keys no parameter declares.
	Unexpected []string
}

// Error implements the error interface.
func (f *MappingFault) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid mapping for %s at %s", f.Descriptor, f.Path)
	if len(f.Missing) > 0 {
		fmt.Fprintf(&b, "\n  missing:    %s", strings.Join(f.Missing, ", "))
	}
	if len(f.Unexpected) > 0 {
		fmt.Fprintf(&b, "\n  unexpected: %s", strings.Join(f.Unexpected, ", "))
	}
	return b.String()
}

// DescriptorFault reports a descriptor the provider cannot describe.
type DescriptorFault struct {
	Path       string
	Descriptor string
	Err        error
}

// Error implements the error interface.
func (f *DescriptorFault) Error() string {
	return fmt.Sprintf("descriptor %q at %s: %v", f.Descriptor, f.Path, f.Err)
}

// Unwrap returns the underlying error.
func (f *DescriptorFault) Unwrap() error {
	return f.Err
}

// AggregateError carries every fault found in one validation pass.
type AggregateError struct {
	Faults []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "configuration validation failed with %d fault(s):", len(e.Faults))
	for _, f := range e.Faults {
		b.WriteString("\n\n")
		b.WriteString(f.Error())
	}
	return b.String()
}
