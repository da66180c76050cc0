package reconciler

import (
	"fmt"
	"reflect"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/lanes"
)

// Component is a function component. It may only call hooks through rc, and
// only while it is being rendered.
type Component func(rc *RenderContext, props fiber.Props) any

// RenderContext carries the hook cursors of the component being rendered.
// It is only valid for the duration of that render.
type RenderContext struct {
	r          *Reconciler
	fiber      *fiber.Fiber
	current    *fiber.Fiber
	lane       lanes.Lane
	dispatcher hookDispatcher

	currentHook *fiber.Hook
	wipHook     *fiber.Hook
	effects     *fiber.EffectQueue
	index       int
	name        string
	released    bool
}

func (r *Reconciler) acquireRenderContext(current, wip *fiber.Fiber, lane lanes.Lane) *RenderContext {
	rc := &RenderContext{
		r:       r,
		fiber:   wip,
		current: current,
		lane:    lane,
	}
	if current == nil {
		rc.dispatcher = mountDispatcher{}
	} else {
		rc.dispatcher = updateDispatcher{}
	}
	return rc
}

func (rc *RenderContext) release() {
	rc.released = true
	rc.fiber = nil
	rc.current = nil
	rc.currentHook = nil
	rc.wipHook = nil
	rc.effects = nil
	rc.dispatcher = nil
}

// Lane is the lane being rendered.
func (rc *RenderContext) Lane() lanes.Lane {
	if rc == nil || rc.released {
		panic(ErrHookOutsideRender)
	}
	return rc.lane
}

func (rc *RenderContext) active() {
	if rc == nil || rc.released {
		panic(ErrHookOutsideRender)
	}
}

func (rc *RenderContext) componentName() string {
	if rc.name == "" {
		rc.name = fiber.TypeName(rc.fiber.Type)
	}
	return rc.name
}

func (rc *RenderContext) mountHook(kind fiber.HookKind, typ reflect.Type) *fiber.Hook {
	h := &fiber.Hook{Kind: kind, ValueType: typ}
	rc.appendHook(h)
	return h
}

// updateHook clones the hook at the next position of the previous render.
func (rc *RenderContext) updateHook(kind fiber.HookKind, typ reflect.Type) *fiber.Hook {
	var next *fiber.Hook
	if rc.currentHook == nil {
		next, _ = rc.current.MemoizedState.(*fiber.Hook)
	} else {
		next = rc.currentHook.Next
	}
	if next == nil {
		panic(fmt.Errorf("%w: rendered more hooks than during the previous render (%s at position %d)", ErrHookOrder, kind, rc.index))
	}
	if next.Kind != kind {
		panic(fmt.Errorf("%w: expected %s hook at position %d, got %s", ErrHookOrder, next.Kind, rc.index, kind))
	}
	if next.ValueType != typ {
		panic(fmt.Errorf("%w: expected %s hook of %v at position %d, got %v", ErrHookOrder, kind, next.ValueType, rc.index, typ))
	}
	rc.currentHook = next

	h := &fiber.Hook{
		Kind:          kind,
		ValueType:     typ,
		MemoizedState: next.MemoizedState,
		BaseState:     next.BaseState,
		BaseQueue:     next.BaseQueue,
		Queue:         next.Queue,
	}
	rc.appendHook(h)
	return h
}

func (rc *RenderContext) appendHook(h *fiber.Hook) {
	if rc.wipHook == nil {
		rc.fiber.MemoizedState = h
	} else {
		rc.wipHook.Next = h
	}
	rc.wipHook = h
	rc.index++
}

// finish checks that an update render consumed every hook of the previous one.
func (rc *RenderContext) finish() {
	if rc.current == nil {
		return
	}
	var rest *fiber.Hook
	if rc.currentHook == nil {
		rest, _ = rc.current.MemoizedState.(*fiber.Hook)
	} else {
		rest = rc.currentHook.Next
	}
	if rest != nil {
		panic(fmt.Errorf("%w: rendered fewer hooks than during the previous render (%d)", ErrHookOrder, rc.index))
	}
}

func (rc *RenderContext) pushEffect(tag fiber.EffectTag, create func() func(), destroy func(), deps []any) *fiber.Effect {
	e := &fiber.Effect{
		Tag:       tag,
		Create:    create,
		Destroy:   destroy,
		Deps:      deps,
		Component: rc.componentName(),
	}
	if rc.effects == nil {
		rc.effects = &fiber.EffectQueue{}
		rc.fiber.UpdateQueue = rc.effects
	}
	rc.effects.Push(e)
	return e
}

func asComponent(t any) Component {
	switch c := t.(type) {
	case Component:
		return c
	case func(*RenderContext, fiber.Props) any:
		return c
	}
	return nil
}

// renderWithHooks runs the component of wip and returns its children. Hook
// faults and panics raised by the component abort the render as a
// *RenderError.
func (r *Reconciler) renderWithHooks(current, wip *fiber.Fiber, lane lanes.Lane) (children any, err error) {
	wip.MemoizedState = nil
	wip.UpdateQueue = nil

	comp := asComponent(wip.Type)
	if comp == nil {
		if r.development {
			r.logger.Warn("component has an unsupported signature", "type", fiber.TypeName(wip.Type))
		}
		return nil, nil
	}

	rc := r.acquireRenderContext(current, wip, lane)
	defer rc.release()
	defer func() {
		if rec := recover(); rec != nil {
			children = nil
			err = &RenderError{
				Op:        "render",
				Component: fiber.TypeName(wip.Type),
				Lane:      lane,
				Err:       asError(rec),
			}
		}
	}()

	children = comp(rc, wip.PendingProps)
	rc.finish()
	return children, nil
}
