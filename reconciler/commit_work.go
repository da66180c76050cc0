package reconciler

import (
	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/lanes"
	"github.com/delaneyj/fiberparty/scheduler"
)

// commitRoot swaps the finished tree in and applies its host mutations.
// skipped are lanes whose updates were left in queues by the pass.
func (r *Reconciler) commitRoot(root *fiber.FiberRoot, skipped lanes.Lanes) {
	root.Lock()
	finished := root.FinishedWork
	lane := root.FinishedLane
	if finished == nil {
		root.Unlock()
		return
	}
	root.FinishedWork = nil
	root.Current = finished
	root.Unlock()

	fiber.MarkRootFinished(root, lane)
	if skipped != lanes.NoLanes {
		fiber.MarkRootUpdated(root, skipped)
	}

	r.commitMutationEffects(root, finished)
	r.metrics.Commit()

	if !root.PendingPassiveEffects.Empty() && r.passiveRoots.Add(root) {
		r.scheduler.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Work {
			r.FlushPassiveEffects()
			return nil
		})
	}
}

func (r *Reconciler) commitMutationEffects(root *fiber.FiberRoot, f *fiber.Fiber) {
	for _, deleted := range f.Deletions {
		r.commitDeletion(root, f, deleted)
	}
	f.Deletions = nil

	if f.SubtreeFlags&(fiber.MutationMask|fiber.PassiveMask) != 0 {
		for c := f.Child; c != nil; c = c.Sibling {
			r.commitMutationEffects(root, c)
		}
	}

	if f.Flags&fiber.Placement != 0 {
		r.commitPlacement(root, f)
		f.Flags &^= fiber.Placement
	}
	if f.Flags&fiber.UpdateFlag != 0 {
		r.commitUpdate(f)
	}
	if f.Flags&fiber.PassiveEffect != 0 {
		if q, ok := f.UpdateQueue.(*fiber.EffectQueue); ok && q.LastEffect != nil {
			root.PendingPassiveEffects.Update = append(root.PendingPassiveEffects.Update, q.LastEffect)
		}
	}
}

func (r *Reconciler) commitUpdate(f *fiber.Fiber) {
	var prev fiber.Props
	if f.Alternate != nil {
		prev = f.Alternate.MemoizedProps
	}
	switch f.Tag {
	case fiber.HostComponent:
		r.host.CommitUpdate(f.StateNode, prev, f.MemoizedProps)
		r.metrics.HostOp("update")
	case fiber.HostText:
		r.host.CommitTextUpdate(f.StateNode, prev.Text(), f.MemoizedProps.Text())
		r.metrics.HostOp("update-text")
	}
}

func isHostParent(f *fiber.Fiber) bool {
	return f.Tag == fiber.HostComponent || f.Tag == fiber.HostRoot
}

func isHost(f *fiber.Fiber) bool {
	return f.Tag == fiber.HostComponent || f.Tag == fiber.HostText
}

// hostParentOf returns the host instance children of f are attached to,
// starting the search at f itself.
func hostParentOf(root *fiber.FiberRoot, f *fiber.Fiber) any {
	for p := f; p != nil; p = p.Return {
		switch p.Tag {
		case fiber.HostComponent:
			return p.StateNode
		case fiber.HostRoot:
			return root.Container
		}
	}
	panic("fiberparty: fiber has no host parent")
}

func (r *Reconciler) commitPlacement(root *fiber.FiberRoot, f *fiber.Fiber) {
	parent := hostParentOf(root, f.Return)
	before := getHostSibling(f)
	r.insertOrAppendPlacementNode(f, before, parent)
}

// getHostSibling finds the host instance f must be inserted before. Siblings
// that are themselves being placed are skipped since they are not attached
// yet.
func getHostSibling(f *fiber.Fiber) any {
	node := f
siblings:
	for {
		for node.Sibling == nil {
			if node.Return == nil || isHostParent(node.Return) {
				return nil
			}
			node = node.Return
		}
		node.Sibling.Return = node.Return
		node = node.Sibling
		for !isHost(node) {
			if node.Flags&fiber.Placement != 0 || node.Child == nil {
				continue siblings
			}
			node.Child.Return = node
			node = node.Child
		}
		if node.Flags&fiber.Placement == 0 {
			return node.StateNode
		}
	}
}

func (r *Reconciler) insertOrAppendPlacementNode(f *fiber.Fiber, before, parent any) {
	if isHost(f) {
		inst := r.ensureHostInstance(f)
		if before != nil {
			r.host.InsertBefore(parent, inst, before)
			r.metrics.HostOp("insert")
		} else {
			r.host.AppendChild(parent, inst)
			r.metrics.HostOp("append")
		}
		return
	}
	for c := f.Child; c != nil; c = c.Sibling {
		r.insertOrAppendPlacementNode(c, before, parent)
	}
}

// ensureHostInstance creates the host instance of a newly placed fiber along
// with its whole host subtree.
func (r *Reconciler) ensureHostInstance(f *fiber.Fiber) any {
	if f.StateNode != nil {
		return f.StateNode
	}
	switch f.Tag {
	case fiber.HostText:
		f.StateNode = r.host.CreateTextInstance(f.MemoizedProps.Text())
		r.metrics.HostOp("create-text")
	case fiber.HostComponent:
		typ, _ := f.Type.(string)
		f.StateNode = r.host.CreateInstance(typ, f.MemoizedProps)
		r.metrics.HostOp("create")
		r.appendAllChildren(f.StateNode, f)
	}
	return f.StateNode
}

func (r *Reconciler) appendAllChildren(parent any, f *fiber.Fiber) {
	for c := f.Child; c != nil; c = c.Sibling {
		if isHost(c) {
			r.host.AppendChild(parent, r.ensureHostInstance(c))
			r.metrics.HostOp("append")
			continue
		}
		r.appendAllChildren(parent, c)
	}
}

// commitDeletion detaches the top level host nodes of deleted and queues the
// passive destroys of every component below it.
func (r *Reconciler) commitDeletion(root *fiber.FiberRoot, parent, deleted *fiber.Fiber) {
	r.removeHostChildren(hostParentOf(root, parent), deleted)
	collectUnmountEffects(root, deleted)

	deleted.Return = nil
	if deleted.Alternate != nil {
		deleted.Alternate.Return = nil
	}
}

func (r *Reconciler) removeHostChildren(parent any, f *fiber.Fiber) {
	if isHost(f) {
		if f.StateNode != nil {
			r.host.RemoveChild(parent, f.StateNode)
			r.metrics.HostOp("remove")
		}
		return
	}
	for c := f.Child; c != nil; c = c.Sibling {
		r.removeHostChildren(parent, c)
	}
}

func collectUnmountEffects(root *fiber.FiberRoot, f *fiber.Fiber) {
	if f.Tag == fiber.FunctionComponent {
		if q, ok := f.UpdateQueue.(*fiber.EffectQueue); ok && q.LastEffect != nil {
			root.PendingPassiveEffects.Unmount = append(root.PendingPassiveEffects.Unmount, q.LastEffect)
		}
	}
	for c := f.Child; c != nil; c = c.Sibling {
		collectUnmountEffects(root, c)
	}
}
