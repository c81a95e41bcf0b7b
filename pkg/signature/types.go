// Package signature describes constructable objects: for every
// descriptor name it can report the parameters a constructor accepts,
// their type constraints, and their defaults. The engine consumes the
// Provider interface; Registry is the reflection-backed implementation
// that derives signatures from tagged Go argument structs.
package signature

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind enumerates the type-constraint kinds.
type Kind int

const (
	// KindAny accepts every value.
	KindAny Kind = iota

	// KindNull accepts only the null value.
	KindNull

	// KindString accepts strings.
	KindString

	// KindInt accepts integers. Floats do not conform, even when whole.
	KindInt

	// KindFloat accepts floats. Integers do not widen.
	KindFloat

	// KindBool accepts booleans.
	KindBool

	// KindList accepts sequences; element types are not constrained.
	KindList

	// KindMap accepts plain mappings without a descriptor.
	KindMap

	// KindObject accepts an instance of the named product type or a
	// sub-type of it (interface satisfaction or identity).
	KindObject

	// KindTypeOf accepts a type denotation, not an instance.
	KindTypeOf

	// KindChoice accepts one value out of a closed set.
	KindChoice

	// KindUnion accepts a value conforming to any alternative.
	KindUnion
)

// TypeSpec is one type constraint.
type TypeSpec struct {
	Kind Kind

	// Object is the expected product type for KindObject and KindTypeOf.
	Object reflect.Type

	// Choices is the closed value set for KindChoice.
	Choices []any

	// Alts are the alternatives for KindUnion.
	Alts []*TypeSpec
}

// String renders the constraint for fault messages.
func (t *TypeSpec) String() string {
	switch t.Kind {
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindObject:
		return typeName(t.Object)
	case KindTypeOf:
		return "type[" + typeName(t.Object) + "]"
	case KindChoice:
		parts := make([]string, len(t.Choices))
		for i, c := range t.Choices {
			parts[i] = fmt.Sprintf("%v", c)
		}
		return "choice[" + strings.Join(parts, ", ") + "]"
	case KindUnion:
		parts := make([]string, len(t.Alts))
		for i, a := range t.Alts {
			parts[i] = a.String()
		}
		return "union[" + strings.Join(parts, ", ") + "]"
	default:
		return "unknown"
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// Parameter is one constructor parameter.
type Parameter struct {
	Name string
	Type *TypeSpec

	// Default and HasDefault describe the declared default value.
	Default    any
	HasDefault bool

	// Required is true when the parameter has no default.
	Required bool

	// ForwardsTo names the descriptor that receives leftover keys.
	// A parameter with a forwarding target contributes no key itself.
	ForwardsTo string

	// Fixed lists parameter names of the forwarding target that this
	// callable sets itself; they are not settable through it.
	Fixed []string
}

// Signature describes one constructable descriptor.
type Signature struct {
	// Descriptor is the name the signature was looked up under.
	Descriptor string

	// Receiver is the descriptor of the bound-method receiver, empty
	// for plain constructors.
	Receiver string

	// Product is the Go type the constructor returns.
	Product reflect.Type

	// Parameters in declaration order.
	Parameters []Parameter

	// AcceptsAnyForward is true when the callable absorbs arbitrary
	// extra keys itself.
	AcceptsAnyForward bool
}

// Provider resolves descriptor names to signatures.
type Provider interface {
	Describe(descriptor string) (*Signature, error)
}

// UnknownDescriptorError reports a descriptor with no registration.
type UnknownDescriptorError struct {
	Descriptor string
}

// Error implements the error interface.
func (e *UnknownDescriptorError) Error() string {
	return fmt.Sprintf("unknown descriptor %q", e.Descriptor)
}

// TypeOf marks an argument field whose configured value denotes a
// type rather than an instance. T is the type (often an interface)
// the denoted type must be assignable to.
type TypeOf[T any] struct {
	// Type is the product type selected by the configuration.
	Type reflect.Type

	// Descriptor is the descriptor name that selected it.
	Descriptor string
}

// Expects returns the type the denoted type must be assignable to.
func (TypeOf[T]) Expects() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeExpector is implemented by TypeOf instantiations.
type typeExpector interface {
	Expects() reflect.Type
}

var typeExpectorIface = reflect.TypeOf((*typeExpector)(nil)).Elem()
