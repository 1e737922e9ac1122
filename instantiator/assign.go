package instantiator

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/reoring/jsondecode/source"
)

// assign stores the native decoded value v into dst, converting between the
// decoder's native forms and the field type.
func assign(dst reflect.Value, v any) error {
	// Gracefully handle nulls: nillable fields become nil, others keep zero.
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	vv := reflect.ValueOf(v)
	if vv.Type().AssignableTo(dst.Type()) {
		dst.Set(vv)
		return nil
	}
	switch dst.Kind() {
	case reflect.Pointer:
		if vv.Kind() == reflect.Pointer && vv.Elem().Type().AssignableTo(dst.Type().Elem()) {
			dst.Set(vv)
			return nil
		}
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Struct:
		if vv.Kind() == reflect.Pointer && vv.Elem().Type().AssignableTo(dst.Type()) {
			dst.Set(vv.Elem())
			return nil
		}
	case reflect.Bool:
		if b, ok := v.(bool); ok {
			dst.SetBool(b)
			return nil
		}
	case reflect.String:
		if s, ok := v.(string); ok {
			dst.SetString(s)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := asInt(v)
		if !ok {
			break
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := asInt(v)
		if !ok {
			break
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int64:
			f = float64(n)
		default:
			return mismatch(v, dst)
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("%v overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	case reflect.Slice, reflect.Array:
		items, err := elements(v)
		if err != nil {
			return err
		}
		if items == nil {
			break
		}
		return assignList(dst, items)
	case reflect.Map:
		return assignMap(dst, v)
	}
	return mismatch(v, dst)
}

func mismatch(v any, dst reflect.Value) error {
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// elements returns the items of a list-like native value, or nil when v is
// not list-like.
func elements(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case *source.Sequence:
		if x.Keyed() {
			return nil, fmt.Errorf("cannot assign a keyed sequence to a list")
		}
		return x.Values()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func assignList(dst reflect.Value, items []any) error {
	if dst.Kind() == reflect.Array {
		if len(items) > dst.Len() {
			return fmt.Errorf("%d elements do not fit %s", len(items), dst.Type())
		}
		for i, it := range items {
			if err := assign(dst.Index(i), it); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	}
	s := reflect.MakeSlice(dst.Type(), len(items), len(items))
	for i, it := range items {
		if err := assign(s.Index(i), it); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	dst.Set(s)
	return nil
}

func assignMap(dst reflect.Value, v any) error {
	var om *source.OrderedMap
	switch x := v.(type) {
	case *source.OrderedMap:
		om = x
	case *Object:
		om = x.OrderedMap
	case *source.Sequence:
		m, err := x.Map()
		if err != nil {
			return err
		}
		om = m
	case map[string]any:
		om = source.NewOrderedMap(len(x))
		for k, e := range x {
			om.Set(k, e)
		}
	default:
		return mismatch(v, dst)
	}
	mt := dst.Type()
	out := reflect.MakeMapWithSize(mt, om.Len())
	for k, e := range om.All() {
		key := reflect.New(mt.Key()).Elem()
		if err := mapKey(key, k); err != nil {
			return err
		}
		val := reflect.New(mt.Elem()).Elem()
		if err := assign(val, e); err != nil {
			return fmt.Errorf("[%s]: %w", k, err)
		}
		out.SetMapIndex(key, val)
	}
	dst.Set(out)
	return nil
}

func mapKey(dst reflect.Value, k string) error {
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(k)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(k, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("map key %q: %w", k, err)
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(k, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("map key %q: %w", k, err)
		}
		dst.SetUint(n)
		return nil
	case reflect.Interface:
		dst.Set(reflect.ValueOf(k))
		return nil
	}
	return fmt.Errorf("unsupported map key type %s", dst.Type())
}
