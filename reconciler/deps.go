package reconciler

import (
	"math"
	"reflect"

	"github.com/delaneyj/fiberparty/fiber"
)

// areHookInputsEqual reports whether two dependency lists hold the same values
// at every position. Lists of different length are never equal.
func areHookInputsEqual(next, prev []any) bool {
	if next == nil || prev == nil || len(next) != len(prev) {
		return false
	}
	for i := range next {
		if !sameValue(next[i], prev[i]) {
			return false
		}
	}
	return true
}

// sameValue compares by identity for reference kinds and by value otherwise.
// NaN equals NaN and +0 differs from -0.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		if fa == 0 && fb == 0 {
			return math.Signbit(fa) == math.Signbit(fb)
		}
		return fa == fb
	case reflect.Func:
		return fiber.TypeID(a) == fiber.TypeID(b)
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	return false
}

// propsChanged compares host props, ignoring children.
func propsChanged(prev, next fiber.Props) bool {
	n := 0
	for k, v := range next {
		if k == fiber.ChildrenProp {
			continue
		}
		n++
		pv, ok := prev[k]
		if !ok || !sameValue(pv, v) {
			return true
		}
	}
	for k := range prev {
		if k != fiber.ChildrenProp {
			n--
		}
	}
	return n != 0
}
