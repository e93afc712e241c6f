package pmap

import (
	"math"
	"reflect"
)

// SameValueZero reports whether a and b are the same value: equal by
// ==, except that a floating-point NaN is the same as any other NaN.
// This holds for named float types, complex numbers with a NaN part,
// and arrays, structs and interfaces holding them. Values of
// non-comparable types (slices, maps, functions) are the same only when
// they refer to the same underlying storage; functions are never the
// same.
func SameValueZero[V any](a, b V) bool {
	switch x := any(a).(type) {
	case float64:
		y, ok := any(b).(float64)
		return ok && sameFloat(x, y)
	case string:
		y, ok := any(b).(string)
		return ok && x == y
	case int:
		y, ok := any(b).(int)
		return ok && x == y
	}
	return sameValue(reflect.ValueOf(any(a)), reflect.ValueOf(any(b)))
}

func sameFloat(x, y float64) bool {
	return x == y || (math.IsNaN(x) && math.IsNaN(y))
}

func sameValue(va, vb reflect.Value) bool {
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Float32, reflect.Float64:
		return sameFloat(va.Float(), vb.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := va.Complex(), vb.Complex()
		return sameFloat(real(x), real(y)) && sameFloat(imag(x), imag(y))
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return sameValue(va.Elem(), vb.Elem())
	case reflect.Array:
		for i := 0; i < va.Len(); i++ {
			if !sameValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !sameValue(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len() && va.Cap() == vb.Cap()
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return false
	}
	return va.Equal(vb)
}
