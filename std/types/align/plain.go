package align

import (
	"fmt"
	"reflect"
	"sync"
)

var plainCache sync.Map // reflect.Type -> bool

// IsPlain reports whether values of t can be duplicated by a raw memory copy
// and stored outside the Go heap: no pointers, slices, maps, strings,
// interfaces, channels or functions anywhere inside.
func IsPlain(t reflect.Type) bool {
	if v, ok := plainCache.Load(t); ok {
		return v.(bool)
	}
	plain := isPlain(t)
	plainCache.Store(t, plain)
	return plain
}

func isPlain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || isPlain(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isPlain(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		// Uintptr is excluded as well: it usually hides a pointer.
		return false
	}
}

// CheckPlain panics if T is not plain.
func CheckPlain[T any]() {
	if t := reflect.TypeFor[T](); !IsPlain(t) {
		panic(fmt.Sprintf("align: %s holds references and cannot live off-heap", t))
	}
}
