package reconciler

import (
	"time"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/lanes"
	"github.com/delaneyj/fiberparty/scheduler"
)

// ensureRootIsScheduled makes sure exactly one scheduler task exists for the
// most urgent pending lane of root.
func (r *Reconciler) ensureRootIsScheduled(root *fiber.FiberRoot) {
	root.Lock()
	defer root.Unlock()

	next := lanes.PickHighestPriorityLane(root.PendingLanes)
	if next == lanes.NoLane {
		if root.CallbackNode != nil {
			r.scheduler.CancelCallback(root.CallbackNode)
		}
		root.CallbackNode = nil
		root.CallbackPriority = scheduler.NoPriority
		return
	}

	p := lanes.ToSchedulerPriority(next)
	if root.CallbackNode != nil {
		if root.CallbackPriority == p {
			return
		}
		r.scheduler.CancelCallback(root.CallbackNode)
	}
	root.CallbackNode = r.scheduler.ScheduleCallback(p, func(didTimeout bool) scheduler.Work {
		return r.performWorkOnRoot(root, didTimeout)
	})
	root.CallbackPriority = p
}

func (r *Reconciler) continuation(root *fiber.FiberRoot, original scheduler.Handle) scheduler.Work {
	root.Lock()
	defer root.Unlock()
	if root.CallbackNode != original {
		return nil
	}
	return func(didTimeout bool) scheduler.Work {
		return r.performWorkOnRoot(root, didTimeout)
	}
}

// performWorkOnRoot renders the most urgent pending lane of root and commits
// it once the tree is complete. It yields between fibers unless the lane is
// sync or the task expired.
func (r *Reconciler) performWorkOnRoot(root *fiber.FiberRoot, didTimeout bool) scheduler.Work {
	r.mu.Lock()
	defer r.mu.Unlock()

	root.Lock()
	original := root.CallbackNode
	root.Unlock()

	r.flushPassiveEffectsLocked()

	root.Lock()
	if root.CallbackNode != original {
		root.Unlock()
		return nil
	}
	lane := lanes.PickHighestPriorityLane(root.PendingLanes)
	if lane == lanes.NoLane {
		root.CallbackNode = nil
		root.CallbackPriority = scheduler.NoPriority
		root.Unlock()
		return nil
	}
	root.Unlock()

	if r.wipRoot != root || r.wipRenderLane != lane || r.workInProgress == nil {
		r.prepareFreshStack(root, lane)
	}

	start := time.Now()
	err := r.workLoop(lane != lanes.SyncLane && !didTimeout)
	r.metrics.RenderSlice(time.Since(start))

	if err != nil {
		r.handleRenderFault(root, lane, err)
		r.ensureRootIsScheduled(root)
		return r.continuation(root, original)
	}

	if r.workInProgress != nil {
		r.logger.Debug("render pass yielded", "root", root.ID, "lane", lane, "units", r.unitsOfWork)
		return r.continuation(root, original)
	}

	skipped := r.skippedLanes
	units := r.unitsOfWork
	r.resetWorkInProgress()

	root.Lock()
	root.FinishedWork = root.Current.Alternate
	root.FinishedLane = lane
	root.Unlock()

	r.commitRoot(root, skipped)
	r.logger.Debug("render pass committed", "root", root.ID, "lane", lane, "units", units)

	r.ensureRootIsScheduled(root)
	return r.continuation(root, original)
}

func (r *Reconciler) prepareFreshStack(root *fiber.FiberRoot, lane lanes.Lane) {
	if prev := r.wipRoot; prev != nil && r.workInProgress != nil {
		r.metrics.Interrupted()
		r.logger.Debug("render pass restarted", "root", prev.ID, "lane", r.wipRenderLane, "next_root", root.ID, "next_lane", lane)
		if prev != root {
			prev.Lock()
			prev.RenderingLane = lanes.NoLane
			prev.InterleavedLanes = lanes.NoLanes
			prev.Unlock()
		}
	}

	root.Lock()
	root.FinishedWork = nil
	root.FinishedLane = lanes.NoLane
	root.RenderingLane = lane
	root.InterleavedLanes = lanes.NoLanes
	current := root.Current
	root.Unlock()

	r.wipRoot = root
	r.wipRenderLane = lane
	r.workInProgress = fiber.CreateWorkInProgress(current, nil)
	r.skippedLanes = lanes.NoLanes
	r.unitsOfWork = 0

	r.metrics.RenderPass(lane.String())
	r.logger.Debug("render pass started", "root", root.ID, "lane", lane)
}

func (r *Reconciler) resetWorkInProgress() {
	r.wipRoot = nil
	r.workInProgress = nil
	r.wipRenderLane = lanes.NoLane
	r.skippedLanes = lanes.NoLanes
	r.unitsOfWork = 0
}

// handleRenderFault discards the work-in-progress tree and drops lane. The
// committed tree is left untouched.
func (r *Reconciler) handleRenderFault(root *fiber.FiberRoot, lane lanes.Lane, err error) {
	r.resetWorkInProgress()
	fiber.MarkRootFinished(root, lane)
	r.metrics.RenderFault()
	r.logger.Error("render pass failed", "root", root.ID, "lane", lane, "error", err)
	r.reportError(root, err)
}

func (r *Reconciler) workLoop(yield bool) error {
	for r.workInProgress != nil {
		if err := r.performUnitOfWork(r.workInProgress); err != nil {
			return err
		}
		if yield && r.workInProgress != nil && r.scheduler.ShouldYield() {
			return nil
		}
	}
	return nil
}

func (r *Reconciler) performUnitOfWork(unit *fiber.Fiber) error {
	next, err := r.beginWork(unit.Alternate, unit, r.wipRenderLane)
	if err != nil {
		return err
	}
	unit.MemoizedProps = unit.PendingProps
	r.unitsOfWork++

	if next != nil {
		r.workInProgress = next
		return nil
	}
	r.completeUnitOfWork(unit)
	return nil
}

func (r *Reconciler) completeUnitOfWork(unit *fiber.Fiber) {
	completed := unit
	for completed != nil {
		r.completeWork(completed.Alternate, completed)
		if sibling := completed.Sibling; sibling != nil {
			r.workInProgress = sibling
			return
		}
		completed = completed.Return
		r.workInProgress = completed
	}
}
