package signature

import (
	"fmt"
	"reflect"
)

// Construct invokes the constructor registered under the descriptor.
// kwargs are decoded into the argument struct by parameter name;
// missing parameters fall back to their declared defaults. For
// bound-method descriptors the receiver must be the realized value of
// the reserved self key.
func (r *Registry) Construct(descriptor string, kwargs map[string]any, receiver any) (any, error) {
	e, ok := r.entries[descriptor]
	if !ok {
		return nil, &UnknownDescriptorError{Descriptor: descriptor}
	}

	args := reflect.New(e.args).Elem()
	used := make(map[string]bool, len(kwargs))
	remainIdx := -1

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
			remainIdx = i
			continue
		}
		if v, present := kwargs[name]; present {
			if err := r.decodeInto(args.Field(i), v); err != nil {
				return nil, fmt.Errorf("argument %q of %s: %w", name, descriptor, err)
			}
			used[name] = true
			continue
		}
		if raw, hasDefault := f.Tag.Lookup("default"); hasDefault {
			def, err := parseDefault(raw, f.Type)
			if err != nil {
				return nil, fmt.Errorf("argument %q of %s: %w", name, descriptor, err)
			}
			if err := r.decodeInto(args.Field(i), def); err != nil {
				return nil, fmt.Errorf("argument %q of %s: %w", name, descriptor, err)
			}
		}
	}

	if remainIdx >= 0 {
		rest := make(map[string]any)
		for k, v := range kwargs {
			if !used[k] {
				rest[k] = v
			}
		}
		if err := r.decodeInto(args.Field(remainIdx), rest); err != nil {
			return nil, fmt.Errorf("forwarded arguments of %s: %w", descriptor, err)
		}
	} else {
		for k := range kwargs {
			if !used[k] {
				return nil, fmt.Errorf("unexpected argument %q for %s", k, descriptor)
			}
		}
	}

	in := []reflect.Value{args}
	if e.receiver != "" {
		if receiver == nil {
			return nil, fmt.Errorf("descriptor %s requires a receiver", descriptor)
		}
		rv := reflect.ValueOf(receiver)
		want := e.fn.Type().In(0)
		if !rv.Type().AssignableTo(want) {
			if !rv.Type().ConvertibleTo(want) {
				return nil, fmt.Errorf("descriptor %s: receiver %s is not assignable to %s",
					descriptor, rv.Type(), want)
			}
			rv = rv.Convert(want)
		}
		in = []reflect.Value{rv, args}
	}

	out := e.fn.Call(in)
	if e.hasErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// decodeInto assigns a realized value to an argument field, bridging
// the tree's scalar representation (int64, float64) to the field's
// declared kind.
func (r *Registry) decodeInto(fv reflect.Value, v any) error {
	t := fv.Type()

	if t.Implements(typeExpectorIface) {
		name, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a descriptor name, got %T", v)
		}
		e, ok := r.entries[name]
		if !ok {
			return &UnknownDescriptorError{Descriptor: name}
		}
		tv := reflect.New(t).Elem()
		tv.FieldByName("Type").Set(reflect.ValueOf(e.product))
		tv.FieldByName("Descriptor").SetString(name)
		fv.Set(tv)
		return nil
	}

	if v == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
			fv.Set(reflect.Zero(t))
			return nil
		default:
			return fmt.Errorf("cannot assign null to %s", t)
		}
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		fv.Set(rv)
		return nil
	}

	switch t.Kind() {
	case reflect.Ptr:
		p := reflect.New(t.Elem())
		if err := r.decodeInto(p.Elem(), v); err != nil {
			return err
		}
		fv.Set(p)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := v.(int64); ok {
			if fv.OverflowInt(i) {
				return fmt.Errorf("value %d overflows %s", i, t)
			}
			fv.SetInt(i)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := v.(int64); ok && i >= 0 {
			u := uint64(i)
			if fv.OverflowUint(u) {
				return fmt.Errorf("value %d overflows %s", i, t)
			}
			fv.SetUint(u)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch n := v.(type) {
		case float64:
			fv.SetFloat(n)
			return nil
		case int64:
			fv.SetFloat(float64(n))
			return nil
		}
	case reflect.Slice:
		if items, ok := v.([]any); ok {
			out := reflect.MakeSlice(t, len(items), len(items))
			for i, item := range items {
				if err := r.decodeInto(out.Index(i), item); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			fv.Set(out)
			return nil
		}
	case reflect.Map:
		if m, ok := v.(map[string]any); ok && t.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(t, len(m))
			for k, item := range m {
				ev := reflect.New(t.Elem()).Elem()
				if err := r.decodeInto(ev, item); err != nil {
					return fmt.Errorf("key %q: %w", k, err)
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
			}
			fv.Set(out)
			return nil
		}
	case reflect.Struct:
		if m, ok := v.(map[string]any); ok {
			for i := 0; i < t.NumField(); i++ {
				f := t.Field(i)
				if !f.IsExported() {
					continue
				}
				name, _, skip := fieldName(f)
				if skip {
					continue
				}
				if item, present := m[name]; present {
					if err := r.decodeInto(fv.Field(i), item); err != nil {
						return fmt.Errorf("field %q: %w", name, err)
					}
				}
			}
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", v, t)
}
