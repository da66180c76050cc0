package reconciler

import (
	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/lanes"
)

// beginWork resolves the children of wip and returns the first one.
func (r *Reconciler) beginWork(current, wip *fiber.Fiber, lane lanes.Lane) (*fiber.Fiber, error) {
	switch wip.Tag {
	case fiber.HostRoot:
		r.updateHostRoot(current, wip, lane)
	case fiber.FunctionComponent:
		children, err := r.renderWithHooks(current, wip, lane)
		if err != nil {
			return nil, err
		}
		r.reconcileChildren(current, wip, children)
	case fiber.HostComponent, fiber.FragmentTag:
		r.reconcileChildren(current, wip, wip.PendingProps.Children())
	case fiber.HostText:
		return nil, nil
	}
	return wip.Child, nil
}

func (r *Reconciler) updateHostRoot(current, wip *fiber.Fiber, lane lanes.Lane) {
	q := wip.UpdateQueue.(*fiber.UpdateQueue)
	prev := current.MemoizedState.(*fiber.RootState)

	baseQueue := fiber.AppendPending(prev.BaseQueue, q.TakePending())
	prev.BaseQueue = baseQueue

	res := fiber.ProcessUpdateQueue(prev.BaseState, baseQueue, lane, rootReducer)
	wip.MemoizedState = &fiber.RootState{
		Element:   res.MemoizedState,
		BaseState: res.BaseState,
		BaseQueue: res.BaseQueue,
	}
	r.skippedLanes = lanes.MergeLanes(r.skippedLanes, res.SkippedLanes)
	r.reconcileChildren(current, wip, res.MemoizedState)
}

func (r *Reconciler) reconcileChildren(current, wip *fiber.Fiber, nextChildren any) {
	c := childReconciler{r: r, trackSideEffects: current != nil}
	var first *fiber.Fiber
	if current != nil {
		first = current.Child
	}
	wip.Child = c.reconcileChildFibers(wip, first, nextChildren)
}
