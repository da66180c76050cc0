package reconciler

import (
	"cmp"
	"runtime/debug"
	"slices"
	"time"

	"github.com/delaneyj/fiberparty/fiber"
)

// FlushPassiveEffects runs every pending effect destroy and create. It
// reports whether anything was pending.
func (r *Reconciler) FlushPassiveEffects() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushPassiveEffectsLocked()
}

func (r *Reconciler) flushPassiveEffectsLocked() bool {
	if r.passiveRoots.Cardinality() == 0 {
		return false
	}
	roots := r.passiveRoots.ToSlice()
	r.passiveRoots.Clear()
	slices.SortFunc(roots, func(a, b *fiber.FiberRoot) int {
		return cmp.Compare(a.ID, b.ID)
	})

	batches := make([]fiber.PendingPassiveEffects, len(roots))
	for i, root := range roots {
		batches[i] = root.PendingPassiveEffects
		root.PendingPassiveEffects = fiber.PendingPassiveEffects{}
	}

	for i, root := range roots {
		for _, last := range batches[i].Unmount {
			fiber.EachEffect(last, func(e *fiber.Effect) {
				if e.Tag&fiber.HookPassive != 0 {
					r.runDestroy(root, "unmount", e)
				}
			})
		}
	}
	for i, root := range roots {
		for _, last := range batches[i].Update {
			fiber.EachEffect(last, func(e *fiber.Effect) {
				if e.Tag&(fiber.HookPassive|fiber.HookHasEffect) == fiber.HookPassive|fiber.HookHasEffect {
					r.runDestroy(root, "destroy", e)
				}
			})
		}
	}
	for i, root := range roots {
		for _, last := range batches[i].Update {
			fiber.EachEffect(last, func(e *fiber.Effect) {
				if e.Tag&(fiber.HookPassive|fiber.HookHasEffect) == fiber.HookPassive|fiber.HookHasEffect {
					r.runCreate(root, e)
				}
			})
		}
	}
	return true
}

func (r *Reconciler) runDestroy(root *fiber.FiberRoot, phase string, e *fiber.Effect) {
	destroy := e.Destroy
	if destroy == nil {
		return
	}
	e.Destroy = nil
	r.safeCall(root, phase, e.Component, destroy)
}

func (r *Reconciler) runCreate(root *fiber.FiberRoot, e *fiber.Effect) {
	if e.Create == nil {
		return
	}
	r.safeCall(root, "create", e.Component, func() {
		e.Destroy = e.Create()
	})
}

// safeCall runs one effect callback, turning a panic into an *EffectError so
// the rest of the batch still runs.
func (r *Reconciler) safeCall(root *fiber.FiberRoot, phase, component string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := &EffectError{
				Phase:      phase,
				Component:  component,
				Value:      rec,
				StackTrace: string(debug.Stack()),
				Timestamp:  time.Now(),
			}
			r.metrics.EffectFailure()
			r.logger.Error("effect callback panicked", "root", root.ID, "phase", phase, "component", component, "error", err)
			r.reportError(root, err)
		}
	}()
	r.metrics.PassiveEffect(phase)
	fn()
}
