package reconciler

import "github.com/delaneyj/fiberparty/fiber"

// completeWork flags host nodes whose props or text changed and folds child
// flags into wip. Host instances are never touched here.
func (r *Reconciler) completeWork(current, wip *fiber.Fiber) {
	switch wip.Tag {
	case fiber.HostComponent:
		if current != nil && wip.StateNode != nil && propsChanged(current.MemoizedProps, wip.MemoizedProps) {
			wip.Flags |= fiber.UpdateFlag
		}
	case fiber.HostText:
		if current != nil && wip.StateNode != nil && current.MemoizedProps.Text() != wip.MemoizedProps.Text() {
			wip.Flags |= fiber.UpdateFlag
		}
	}
	bubbleProperties(wip)
}

func bubbleProperties(wip *fiber.Fiber) {
	var subtree fiber.Flags
	for c := wip.Child; c != nil; c = c.Sibling {
		subtree |= c.SubtreeFlags | c.Flags
		c.Return = wip
	}
	wip.SubtreeFlags |= subtree
}
