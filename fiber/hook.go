package fiber

import "reflect"

type HookKind uint8

const (
	StateHook HookKind = iota
	EffectHook
	RefHook
	MemoHook
)

func (k HookKind) String() string {
	switch k {
	case StateHook:
		return "state"
	case EffectHook:
		return "effect"
	case RefHook:
		return "ref"
	case MemoHook:
		return "memo"
	default:
		return "unknown"
	}
}

// Hook is one local state cell of a function component, linked in call order.
type Hook struct {
	Kind HookKind
	// ValueType is the Go type the hook was declared with, nil for effects.
	ValueType     reflect.Type
	MemoizedState any
	BaseState     any
	BaseQueue     *Update
	Queue         *UpdateQueue
	Next          *Hook
}

type EffectTag uint8

const (
	// HookHasEffect marks an effect whose create must run this commit.
	HookHasEffect EffectTag = 1 << iota
	HookPassive
)

// Effect is a deferred side effect. Deps == nil means run after every render.
type Effect struct {
	Tag     EffectTag
	Create  func() (destroy func())
	Destroy func()
	Deps    []any
	Next    *Effect
	// Component names the owning component in diagnostics.
	Component string
}

// EffectQueue is the function component update queue: the tail of a circular
// effect list.
type EffectQueue struct {
	LastEffect *Effect
}

// Push appends e in O(1).
func (q *EffectQueue) Push(e *Effect) {
	if q.LastEffect == nil {
		e.Next = e
	} else {
		e.Next = q.LastEffect.Next
		q.LastEffect.Next = e
	}
	q.LastEffect = e
}

// EachEffect visits the circular list ending at last, head first.
func EachEffect(last *Effect, fn func(*Effect)) {
	if last == nil {
		return
	}
	first := last.Next
	e := first
	for {
		next := e.Next
		fn(e)
		e = next
		if e == first {
			return
		}
	}
}
