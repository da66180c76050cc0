package reconciler

import (
	"reflect"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/lanes"
)

// hookDispatcher is chosen once per render: mount when the fiber has no
// committed alternate, update otherwise.
type hookDispatcher interface {
	useReducer(rc *RenderContext, typ reflect.Type, reducer fiber.Reducer, init func() any) (any, *fiber.UpdateQueue)
	useEffect(rc *RenderContext, create func() func(), deps []any)
	useRef(rc *RenderContext, typ reflect.Type, init func() any) any
	useMemo(rc *RenderContext, typ reflect.Type, compute func() any, deps []any) any
}

type memoState struct {
	value any
	deps  []any
}

type mountDispatcher struct{}

func (mountDispatcher) useReducer(rc *RenderContext, typ reflect.Type, _ fiber.Reducer, init func() any) (any, *fiber.UpdateQueue) {
	h := rc.mountHook(fiber.StateHook, typ)
	v := init()
	h.MemoizedState = v
	h.BaseState = v
	h.Queue = fiber.NewUpdateQueue()
	return v, h.Queue
}

func (mountDispatcher) useEffect(rc *RenderContext, create func() func(), deps []any) {
	h := rc.mountHook(fiber.EffectHook, nil)
	rc.fiber.Flags |= fiber.PassiveEffect
	h.MemoizedState = rc.pushEffect(fiber.HookHasEffect|fiber.HookPassive, create, nil, deps)
}

func (mountDispatcher) useRef(rc *RenderContext, typ reflect.Type, init func() any) any {
	h := rc.mountHook(fiber.RefHook, typ)
	h.MemoizedState = init()
	return h.MemoizedState
}

func (mountDispatcher) useMemo(rc *RenderContext, typ reflect.Type, compute func() any, deps []any) any {
	h := rc.mountHook(fiber.MemoHook, typ)
	v := compute()
	h.MemoizedState = &memoState{value: v, deps: deps}
	return v
}

type updateDispatcher struct{}

func (updateDispatcher) useReducer(rc *RenderContext, typ reflect.Type, reducer fiber.Reducer, _ func() any) (any, *fiber.UpdateQueue) {
	h := rc.updateHook(fiber.StateHook, typ)
	cur := rc.currentHook

	// pending updates move onto the committed hook so an abandoned render
	// cannot lose them
	baseQueue := fiber.AppendPending(cur.BaseQueue, h.Queue.TakePending())
	cur.BaseQueue = baseQueue

	res := fiber.ProcessUpdateQueue(cur.BaseState, baseQueue, rc.lane, reducer)
	h.MemoizedState = res.MemoizedState
	h.BaseState = res.BaseState
	h.BaseQueue = res.BaseQueue
	rc.r.skippedLanes = lanes.MergeLanes(rc.r.skippedLanes, res.SkippedLanes)
	return h.MemoizedState, h.Queue
}

func (updateDispatcher) useEffect(rc *RenderContext, create func() func(), deps []any) {
	h := rc.updateHook(fiber.EffectHook, nil)
	var destroy func()
	if prev, ok := h.MemoizedState.(*fiber.Effect); ok {
		destroy = prev.Destroy
		if deps != nil && areHookInputsEqual(deps, prev.Deps) {
			h.MemoizedState = rc.pushEffect(fiber.HookPassive, create, destroy, deps)
			return
		}
	}
	rc.fiber.Flags |= fiber.PassiveEffect
	h.MemoizedState = rc.pushEffect(fiber.HookHasEffect|fiber.HookPassive, create, destroy, deps)
}

func (updateDispatcher) useRef(rc *RenderContext, typ reflect.Type, _ func() any) any {
	return rc.updateHook(fiber.RefHook, typ).MemoizedState
}

func (updateDispatcher) useMemo(rc *RenderContext, typ reflect.Type, compute func() any, deps []any) any {
	h := rc.updateHook(fiber.MemoHook, typ)
	if prev, ok := h.MemoizedState.(*memoState); ok && deps != nil && areHookInputsEqual(deps, prev.deps) {
		return prev.value
	}
	v := compute()
	h.MemoizedState = &memoState{value: v, deps: deps}
	return v
}

// Dispatch queues updates for one state cell. It stays valid after the render
// that returned it and may be used from any goroutine.
type Dispatch[T any] struct {
	r     *Reconciler
	fiber *fiber.Fiber
	queue *fiber.UpdateQueue
}

// Set replaces the state with v. It returns ErrRootUnmounted when the
// component is no longer mounted, in which case the update is dropped.
func (d Dispatch[T]) Set(v T) error {
	_, err := d.r.DispatchUpdate(d.fiber, d.queue, func(any) any { return v })
	return err
}

// Update replaces the state with fn applied to the previous state.
func (d Dispatch[T]) Update(fn func(prev T) T) error {
	_, err := d.r.DispatchUpdate(d.fiber, d.queue, func(prev any) any { return fn(as[T](prev)) })
	return err
}

// UpdateAtLane is Update on an explicit lane.
func (d Dispatch[T]) UpdateAtLane(lane lanes.Lane, fn func(prev T) T) error {
	_, err := d.r.DispatchUpdateAtLane(d.fiber, d.queue, func(prev any) any { return fn(as[T](prev)) }, lane)
	return err
}

// Queue is the update queue behind d.
func (d Dispatch[T]) Queue() *fiber.UpdateQueue {
	return d.queue
}

func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

// UseState declares a state cell holding initial on mount.
func UseState[T any](rc *RenderContext, initial T) (T, Dispatch[T]) {
	return UseLazyState(rc, func() T { return initial })
}

// UseLazyState is UseState with an initial value computed only on mount.
func UseLazyState[T any](rc *RenderContext, init func() T) (T, Dispatch[T]) {
	rc.active()
	v, q := rc.dispatcher.useReducer(rc, reflect.TypeFor[Dispatch[T]](), fiber.BasicStateReducer, func() any { return init() })
	d, ok := q.Dispatch.(Dispatch[T])
	if !ok {
		d = Dispatch[T]{r: rc.r, fiber: rc.fiber, queue: q}
		q.Dispatch = d
	}
	return as[T](v), d
}

// UseReducer declares a state cell folded by reducer. The returned dispatch
// reports ErrRootUnmounted like Dispatch.Set.
func UseReducer[S, A any](rc *RenderContext, reducer func(S, A) S, initial S) (S, func(A) error) {
	rc.active()
	fold := func(state, action any) any {
		return reducer(as[S](state), as[A](action))
	}
	v, q := rc.dispatcher.useReducer(rc, reflect.TypeFor[func(S, A) S](), fold, func() any { return initial })
	dispatch, ok := q.Dispatch.(func(A) error)
	if !ok {
		r, f := rc.r, rc.fiber
		dispatch = func(action A) error {
			_, err := r.DispatchUpdate(f, q, action)
			return err
		}
		q.Dispatch = dispatch
	}
	return as[S](v), dispatch
}

// UseEffect schedules create to run after commit. With nil deps it runs after
// every render, otherwise only when an element of deps changed. The function
// returned by create runs before the next create and on unmount.
func UseEffect(rc *RenderContext, create func() func(), deps []any) {
	rc.active()
	rc.dispatcher.useEffect(rc, create, deps)
}

type Ref[T any] struct {
	Current T
}

// UseRef returns the same *Ref on every render of the component.
func UseRef[T any](rc *RenderContext, initial T) *Ref[T] {
	rc.active()
	return rc.dispatcher.useRef(rc, reflect.TypeFor[*Ref[T]](), func() any { return &Ref[T]{Current: initial} }).(*Ref[T])
}

// UseMemo caches compute's result until an element of deps changes.
func UseMemo[T any](rc *RenderContext, compute func() T, deps []any) T {
	rc.active()
	return as[T](rc.dispatcher.useMemo(rc, reflect.TypeFor[T](), func() any { return compute() }, deps))
}
