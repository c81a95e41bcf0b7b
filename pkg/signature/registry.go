package signature

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/synconf/synconf/pkg/conf"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Registry maps descriptor names to constructors. A constructor is a
// function taking a single argument struct and returning the product,
// optionally with an error:
//
//	func(Args) (T, error)
//
// Parameter specs are derived from the argument struct's fields:
//
//	Rate    float64        `conf:"rate" default:"0.01"`
//	Mode    string         `choice:"train, eval"`
//	Extra   any            `oneof:"float, string, null"`
//	Toy     ToyLike        `conf:"toy"`
//	ToyCls  TypeOf[ToyLike]
//	Rest    map[string]any `conf:",remain" forward:"demo.Base" fixed:"batch_size"`
//
// A field without a conf tag is named by its snake-cased field name.
// A ",remain" field collects keys not named by any other field; with
// a forward tag those keys belong to the named descriptor, without
// one the callable accepts arbitrary keys itself.
type Registry struct {
	entries map[string]*entry
}

type entry struct {
	fn       reflect.Value
	args     reflect.Type
	product  reflect.Type
	receiver string
	sig      *Signature
	hasErr   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a plain constructor under the descriptor name.
func (r *Registry) Register(descriptor string, fn any) error {
	return r.register(descriptor, "", fn)
}

// RegisterMethod adds a bound-method constructor. The function takes
// the receiver as its first argument; at realization time the
// receiver comes from the reserved self key.
func (r *Registry) RegisterMethod(descriptor, receiver string, fn any) error {
	if receiver == "" {
		return fmt.Errorf("descriptor %q: empty receiver descriptor", descriptor)
	}
	return r.register(descriptor, receiver, fn)
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(descriptor string, fn any) {
	if err := r.Register(descriptor, fn); err != nil {
		panic(err)
	}
}

// MustRegisterMethod is RegisterMethod that panics on error.
func (r *Registry) MustRegisterMethod(descriptor, receiver string, fn any) {
	if err := r.RegisterMethod(descriptor, receiver, fn); err != nil {
		panic(err)
	}
}

func (r *Registry) register(descriptor, receiver string, fn any) error {
	if descriptor == "" {
		return fmt.Errorf("empty descriptor name")
	}
	if _, exists := r.entries[descriptor]; exists {
		return fmt.Errorf("descriptor %q already registered", descriptor)
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return fmt.Errorf("descriptor %q: constructor must be a function, got %T", descriptor, fn)
	}
	wantIn := 1
	if receiver != "" {
		wantIn = 2
	}
	if t.NumIn() != wantIn {
		return fmt.Errorf("descriptor %q: constructor must take %d argument(s), has %d", descriptor, wantIn, t.NumIn())
	}
	argsType := t.In(wantIn - 1)
	if argsType.Kind() != reflect.Struct {
		return fmt.Errorf("descriptor %q: argument must be a struct, got %s", descriptor, argsType)
	}
	hasErr := false
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errType {
			return fmt.Errorf("descriptor %q: second return value must be error", descriptor)
		}
		hasErr = true
	default:
		return fmt.Errorf("descriptor %q: constructor must return the product, optionally with an error", descriptor)
	}

	e := &entry{
		fn:       v,
		args:     argsType,
		product:  t.Out(0),
		receiver: receiver,
		hasErr:   hasErr,
	}
	sig, err := r.deriveSignature(descriptor, e, t)
	if err != nil {
		return err
	}
	e.sig = sig
	r.entries[descriptor] = e
	return nil
}

// Describe implements Provider. The returned signature is shared and
// must not be mutated.
func (r *Registry) Describe(descriptor string) (*Signature, error) {
	e, ok := r.entries[descriptor]
	if !ok {
		return nil, &UnknownDescriptorError{Descriptor: descriptor}
	}
	return e.sig, nil
}

// Descriptors returns every registered descriptor name, sorted.
func (r *Registry) Descriptors() []string {
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) deriveSignature(descriptor string, e *entry, fnType reflect.Type) (*Signature, error) {
	sig := &Signature{
		Descriptor: descriptor,
		Receiver:   e.receiver,
		Product:    e.product,
	}
	if e.receiver != "" {
		recvSpec, err := specForType(fnType.In(0))
		if err != nil {
			return nil, fmt.Errorf("descriptor %q receiver: %w", descriptor, err)
		}
		sig.Parameters = append(sig.Parameters, Parameter{
			Name:     conf.SelfKey,
			Type:     recvSpec,
			Required: true,
		})
	}
	for i := 0; i < e.args.NumField(); i++ {
		f := e.args.Field(i)
		if !f.IsExported() {
			continue
		}
		name, remain, skip := fieldName(f)
		if skip {
			continue
		}
		if remain {
			forward := f.Tag.Get("forward")
			if forward == "" {
				sig.AcceptsAnyForward = true
				continue
			}
			sig.Parameters = append(sig.Parameters, Parameter{
				Name:       name,
				ForwardsTo: forward,
				Fixed:      splitComma(f.Tag.Get("fixed")),
			})
			continue
		}
		spec, err := specForField(f)
		if err != nil {
			return nil, fmt.Errorf("descriptor %q parameter %q: %w", descriptor, name, err)
		}
		param := Parameter{Name: name, Type: spec}
		if raw, ok := f.Tag.Lookup("default"); ok {
			def, err := parseDefault(raw, f.Type)
			if err != nil {
				return nil, fmt.Errorf("descriptor %q parameter %q: %w", descriptor, name, err)
			}
			param.Default = def
			param.HasDefault = true
		}
		param.Required = !param.HasDefault
		sig.Parameters = append(sig.Parameters, param)
	}
	return sig, nil
}

// fieldName resolves a field's parameter name from the conf tag.
func fieldName(f reflect.StructField) (name string, remain, skip bool) {
	tag := f.Tag.Get("conf")
	name = tag
	if idx := strings.Index(tag, ","); idx >= 0 {
		name = tag[:idx]
		for _, opt := range strings.Split(tag[idx+1:], ",") {
			if opt == "remain" {
				remain = true
			}
		}
	}
	if name == "-" {
		return "", false, true
	}
	if name == "" {
		name = snakeCase(f.Name)
	}
	return name, remain, false
}

// specForField derives the type constraint for one argument field,
// honoring the choice and oneof tags.
func specForField(f reflect.StructField) (*TypeSpec, error) {
	if raw, ok := f.Tag.Lookup("choice"); ok {
		values := splitComma(raw)
		if len(values) == 0 {
			return nil, fmt.Errorf("empty choice tag")
		}
		choices := make([]any, len(values))
		for i, v := range values {
			n, err := conf.ParseLiteral(v)
			if err != nil {
				return nil, fmt.Errorf("choice value %q: %w", v, err)
			}
			choices[i] = conf.ToAny(n)
		}
		return &TypeSpec{Kind: KindChoice, Choices: choices}, nil
	}
	if raw, ok := f.Tag.Lookup("oneof"); ok {
		names := splitComma(raw)
		if len(names) < 2 {
			return nil, fmt.Errorf("oneof tag needs at least two alternatives")
		}
		alts := make([]*TypeSpec, len(names))
		for i, n := range names {
			alt, err := specForName(n)
			if err != nil {
				return nil, err
			}
			alts[i] = alt
		}
		return &TypeSpec{Kind: KindUnion, Alts: alts}, nil
	}
	return specForType(f.Type)
}

func specForName(name string) (*TypeSpec, error) {
	switch name {
	case "any":
		return &TypeSpec{Kind: KindAny}, nil
	case "null":
		return &TypeSpec{Kind: KindNull}, nil
	case "string":
		return &TypeSpec{Kind: KindString}, nil
	case "int":
		return &TypeSpec{Kind: KindInt}, nil
	case "float":
		return &TypeSpec{Kind: KindFloat}, nil
	case "bool":
		return &TypeSpec{Kind: KindBool}, nil
	case "list":
		return &TypeSpec{Kind: KindList}, nil
	case "map":
		return &TypeSpec{Kind: KindMap}, nil
	default:
		return nil, fmt.Errorf("unknown type name %q in oneof tag", name)
	}
}

func specForType(t reflect.Type) (*TypeSpec, error) {
	if t.Implements(typeExpectorIface) {
		expected := reflect.Zero(t).Interface().(typeExpector).Expects()
		return &TypeSpec{Kind: KindTypeOf, Object: expected}, nil
	}
	switch t.Kind() {
	case reflect.String:
		return &TypeSpec{Kind: KindString}, nil
	case reflect.Bool:
		return &TypeSpec{Kind: KindBool}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &TypeSpec{Kind: KindInt}, nil
	case reflect.Float32, reflect.Float64:
		return &TypeSpec{Kind: KindFloat}, nil
	case reflect.Slice, reflect.Array:
		return &TypeSpec{Kind: KindList}, nil
	case reflect.Map:
		return &TypeSpec{Kind: KindMap}, nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return &TypeSpec{Kind: KindAny}, nil
		}
		return &TypeSpec{Kind: KindObject, Object: t}, nil
	case reflect.Ptr:
		inner, err := specForType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &TypeSpec{Kind: KindUnion, Alts: []*TypeSpec{inner, {Kind: KindNull}}}, nil
	case reflect.Struct:
		return &TypeSpec{Kind: KindObject, Object: t}, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %s", t)
	}
}

// parseDefault parses a default tag as a YAML literal and aligns the
// numeric representation with the field's kind.
func parseDefault(raw string, t reflect.Type) (any, error) {
	n, err := conf.ParseLiteral(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid default %q: %w", raw, err)
	}
	v := conf.ToAny(n)
	if i, ok := v.(int64); ok {
		switch t.Kind() {
		case reflect.Float32, reflect.Float64:
			return float64(i), nil
		}
	}
	return v, nil
}

func splitComma(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
