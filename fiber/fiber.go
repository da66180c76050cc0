package fiber

import (
	"log/slog"
	"reflect"
)

// Fiber is one unit of work: a component or host node instance for one tree
// generation. A committed fiber and its work-in-progress copy point at each
// other through Alternate.
type Fiber struct {
	Tag    Tag
	Key    string
	Type   any
	TypeID uint64

	PendingProps  Props
	MemoizedProps Props
	// MemoizedState is the hook list head for function components and
	// *RootState for the host root.
	MemoizedState any
	// StateNode is the host instance, or the *FiberRoot for the host root.
	StateNode any

	Return  *Fiber
	Child   *Fiber
	Sibling *Fiber
	Index   int

	Alternate *Fiber

	Flags        Flags
	SubtreeFlags Flags
	// UpdateQueue is a *UpdateQueue for the host root and an *EffectQueue
	// for function components.
	UpdateQueue any
	Deletions   []*Fiber
}

func NewFiber(tag Tag, pendingProps Props, key string) *Fiber {
	return &Fiber{
		Tag:          tag,
		Key:          key,
		PendingProps: pendingProps,
	}
}

// CreateWorkInProgress returns the alternate of current prepared for a new
// pass, allocating and cross-linking it the first time.
func CreateWorkInProgress(current *Fiber, pendingProps Props) *Fiber {
	wip := current.Alternate
	if wip == nil {
		wip = NewFiber(current.Tag, pendingProps, current.Key)
		wip.StateNode = current.StateNode

		wip.Alternate = current
		current.Alternate = wip
	} else {
		wip.PendingProps = pendingProps
		wip.Flags = NoFlags
		wip.SubtreeFlags = NoFlags
		wip.Deletions = nil
	}
	wip.Type = current.Type
	wip.TypeID = current.TypeID
	wip.UpdateQueue = current.UpdateQueue
	wip.Child = current.Child
	wip.Index = current.Index
	wip.MemoizedProps = current.MemoizedProps
	wip.MemoizedState = current.MemoizedState

	return wip
}

// CreateFiberFromElement maps an element to a new fiber. Unknown element types
// are reported on logger and treated as function components that render
// nothing.
func CreateFiberFromElement(el Element, logger *slog.Logger) *Fiber {
	var tag Tag
	switch t := el.Type.(type) {
	case string:
		tag = HostComponent
	case FragmentType:
		return CreateFiberFromFragment(el.Props.Children(), el.Key)
	default:
		if t != nil && reflect.TypeOf(t).Kind() == reflect.Func {
			tag = FunctionComponent
		} else {
			tag = FunctionComponent
			if logger != nil {
				logger.Warn("unrecognized element type", "type", TypeName(el.Type), "key", el.Key)
			}
		}
	}

	f := NewFiber(tag, el.Props, el.Key)
	f.Type = el.Type
	f.TypeID = TypeID(el.Type)
	return f
}

// CreateFiberFromFragment wraps a raw child sequence in a Fragment fiber.
func CreateFiberFromFragment(children any, key string) *Fiber {
	f := NewFiber(FragmentTag, Props{ChildrenProp: children}, key)
	f.Type = Fragment
	f.TypeID = fragmentID
	return f
}

func CreateFiberFromText(text string) *Fiber {
	f := NewFiber(HostText, Props{TextProp: text}, "")
	f.TypeID = textID
	return f
}

func CreateHostRootFiber() *Fiber {
	f := NewFiber(HostRoot, nil, "")
	f.UpdateQueue = NewUpdateQueue()
	f.MemoizedState = &RootState{}
	return f
}

// Text returns the text of a HostText fiber's props.
func (p Props) Text() string {
	s, _ := p[TextProp].(string)
	return s
}

// HostRootOf follows Return links up to the HostRoot fiber.
func HostRootOf(f *Fiber) *Fiber {
	for f != nil && f.Tag != HostRoot {
		f = f.Return
	}
	return f
}
