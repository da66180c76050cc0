package fiber

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Props are the attributes of an element. Child descriptors live under
// ChildrenProp.
type Props map[string]any

const (
	ChildrenProp = "children"
	TextProp     = "text"
)

// Children returns the raw child descriptors of p.
func (p Props) Children() any {
	if p == nil {
		return nil
	}
	return p[ChildrenProp]
}

// Element is a declarative description of one node: a host type name, a
// component function or Fragment.
type Element struct {
	Type  any
	Key   string
	Props Props
}

type FragmentType struct{}

// Fragment groups children without a host node of its own.
var Fragment = FragmentType{}

var (
	fragmentID = xxhash.Sum64String("fiberparty:fragment")
	textID     = xxhash.Sum64String("fiberparty:text")
)

// TypeID is a stable identity for an element type, used to decide whether a
// fiber can be reused for a new element.
//
// Component functions are identified by the func value itself, not its code:
// two closures of one literal, or method values bound to different receivers,
// are different types. A closure or method value built during every render is
// therefore a new type each time and remounts; hoist it to keep state.
func TypeID(t any) uint64 {
	switch v := t.(type) {
	case nil:
		return 0
	case string:
		return xxhash.Sum64String("host:" + v)
	case FragmentType:
		return fragmentID
	}
	rv := reflect.ValueOf(t)
	if rv.Kind() == reflect.Func {
		return funcID(t)
	}
	return xxhash.Sum64String(rv.Type().String() + ":" + fmt.Sprint(t))
}

// funcID is the address of the closure object held in the interface data
// word. A fiber keeps its Type alive, so the address is not reused while a
// fiber still compares against it.
func funcID(t any) uint64 {
	type eface struct {
		typ, data unsafe.Pointer
	}
	return uint64(uintptr((*eface)(unsafe.Pointer(&t)).data))
}

// TypeName is a human readable type name for diagnostics.
func TypeName(t any) string {
	switch v := t.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case FragmentType:
		return "Fragment"
	}
	rv := reflect.ValueOf(t)
	if rv.Kind() == reflect.Func {
		if fn := runtimeFuncName(rv); fn != "" {
			return fn
		}
	}
	return rv.Type().String()
}

func runtimeFuncName(rv reflect.Value) string {
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
