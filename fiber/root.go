package fiber

import (
	"sync"
	"sync/atomic"

	"github.com/delaneyj/fiberparty/lanes"
	"github.com/delaneyj/fiberparty/scheduler"
)

var rootIDs atomic.Uint64

// FiberRoot owns one mounted output target.
//
// PendingLanes, FinishedLane and the callback fields may be touched by
// dispatches from other goroutines; hold the root's lock while reading or
// writing them.
type FiberRoot struct {
	sync.Mutex

	ID        uint64
	Container any
	Current   *Fiber
	// FinishedWork is a completed work-in-progress tree awaiting commit.
	FinishedWork *Fiber

	PendingLanes lanes.Lanes
	FinishedLane lanes.Lane

	PendingPassiveEffects PendingPassiveEffects

	CallbackNode     scheduler.Handle
	CallbackPriority scheduler.Priority
	// InterleavedLanes are lanes marked while a pass on this root was
	// rendering; they survive MarkRootFinished.
	InterleavedLanes lanes.Lanes
	RenderingLane    lanes.Lane
}

// PendingPassiveEffects are effect list tails collected during commit.
type PendingPassiveEffects struct {
	Unmount []*Effect
	Update  []*Effect
}

func (p *PendingPassiveEffects) Empty() bool {
	return len(p.Unmount) == 0 && len(p.Update) == 0
}

// RootState is the memoized state of the host root fiber.
type RootState struct {
	Element   any
	BaseState any
	BaseQueue *Update
}

func NewFiberRoot(container any) *FiberRoot {
	current := CreateHostRootFiber()
	root := &FiberRoot{
		ID:        rootIDs.Add(1),
		Container: container,
		Current:   current,
	}
	current.StateNode = root
	return root
}

// MarkRootUpdated adds lane to the pending set.
func MarkRootUpdated(root *FiberRoot, lane lanes.Lane) {
	root.Lock()
	defer root.Unlock()
	root.PendingLanes = lanes.MergeLanes(root.PendingLanes, lane)
	if root.RenderingLane != lanes.NoLane {
		root.InterleavedLanes = lanes.MergeLanes(root.InterleavedLanes, lane)
	}
}

// MarkRootFinished drops lane from the pending set once its updates were
// consumed, keeping lanes that were marked again while rendering.
func MarkRootFinished(root *FiberRoot, lane lanes.Lane) {
	root.Lock()
	defer root.Unlock()
	root.PendingLanes = lanes.MergeLanes(lanes.RemoveLanes(root.PendingLanes, lane), root.InterleavedLanes)
	root.InterleavedLanes = lanes.NoLanes
	root.RenderingLane = lanes.NoLane
	root.FinishedLane = lanes.NoLane
}

// Lanes returns a snapshot of the pending lanes.
func (root *FiberRoot) Lanes() lanes.Lanes {
	root.Lock()
	defer root.Unlock()
	return root.PendingLanes
}
