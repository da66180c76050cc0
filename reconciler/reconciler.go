package reconciler

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/internal/logging"
	"github.com/delaneyj/fiberparty/lanes"
	"github.com/delaneyj/fiberparty/metrics"
	"github.com/delaneyj/fiberparty/scheduler"
)

// HostAdapter applies committed mutations to an output surface. The reconciler
// only calls it during commit, in tree order.
type HostAdapter interface {
	CreateInstance(typ string, props fiber.Props) any
	CreateTextInstance(text string) any
	AppendChild(parent, child any)
	InsertBefore(parent, child, before any)
	RemoveChild(parent, child any)
	CommitUpdate(instance any, oldProps, newProps fiber.Props)
	CommitTextUpdate(instance any, oldText, newText string)
}

// OnErrorFunc receives render faults and recovered effect panics.
type OnErrorFunc func(root *fiber.FiberRoot, err error)

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithOnError(fn OnErrorFunc) Option {
	return func(r *Reconciler) {
		r.onError = fn
	}
}

// WithDevelopment enables diagnostics such as unrecognized element warnings.
func WithDevelopment(enabled bool) Option {
	return func(r *Reconciler) {
		r.development = enabled
	}
}

// Reconciler drives render and commit passes for a set of roots sharing one
// host surface and one scheduler.
type Reconciler struct {
	host        HostAdapter
	scheduler   scheduler.Scheduler
	logger      *slog.Logger
	metrics     *metrics.Metrics
	onError     OnErrorFunc
	development bool

	eventPriority atomic.Uint32

	roots        mapset.Set[*fiber.FiberRoot]
	passiveRoots mapset.Set[*fiber.FiberRoot]

	// mu serializes render, commit and passive passes. Dispatch never takes it.
	mu             sync.Mutex
	wipRoot        *fiber.FiberRoot
	workInProgress *fiber.Fiber
	wipRenderLane  lanes.Lane
	skippedLanes   lanes.Lanes
	unitsOfWork    int
}

func New(host HostAdapter, sched scheduler.Scheduler, opts ...Option) *Reconciler {
	r := &Reconciler{
		host:         host,
		scheduler:    sched,
		logger:       logging.NewNop(),
		roots:        mapset.NewSet[*fiber.FiberRoot](),
		passiveRoots: mapset.NewSet[*fiber.FiberRoot](),
	}
	r.eventPriority.Store(uint32(lanes.DefaultEvent))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRoot mounts an empty tree on container.
func (r *Reconciler) CreateRoot(container any) *fiber.FiberRoot {
	root := fiber.NewFiberRoot(container)
	r.roots.Add(root)
	r.logger.Debug("root created", "root", root.ID)
	return root
}

// UpdateRoot schedules element as the new content of root and returns the lane
// the update was queued on.
func (r *Reconciler) UpdateRoot(root *fiber.FiberRoot, element any) (lanes.Lane, error) {
	if !r.roots.Contains(root) {
		return lanes.NoLane, ErrRootUnmounted
	}
	return r.updateContainer(root, element), nil
}

// Unmount renders nothing into root at discrete priority and stops accepting
// updates for it. Effects of the removed tree are destroyed by the next
// passive pass.
func (r *Reconciler) Unmount(root *fiber.FiberRoot) error {
	if !r.roots.Contains(root) {
		return ErrRootUnmounted
	}
	r.RunWithPriority(lanes.DiscreteEvent, func() {
		r.updateContainer(root, nil)
	})
	r.roots.Remove(root)
	r.logger.Debug("root unmounted", "root", root.ID)
	return nil
}

// Roots returns the mounted roots in creation order.
func (r *Reconciler) Roots() []*fiber.FiberRoot {
	roots := r.roots.ToSlice()
	slices.SortFunc(roots, func(a, b *fiber.FiberRoot) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return roots
}

// rootUpdate wraps a root element so element values are never mistaken for
// updater functions.
type rootUpdate struct {
	element any
}

func rootReducer(_, action any) any {
	return action.(rootUpdate).element
}

func (r *Reconciler) updateContainer(root *fiber.FiberRoot, element any) lanes.Lane {
	lane := r.RequestUpdateLane()
	root.Lock()
	q := root.Current.UpdateQueue.(*fiber.UpdateQueue)
	root.Unlock()
	fiber.EnqueueUpdate(q, fiber.CreateUpdate(rootUpdate{element: element}, lane))
	r.scheduleUpdateOnFiber(root, lane)
	return lane
}

// RunWithPriority runs fn with p as the priority of every update it triggers.
func (r *Reconciler) RunWithPriority(p lanes.EventPriority, fn func()) {
	prev := r.eventPriority.Swap(uint32(p))
	defer r.eventPriority.Store(prev)
	fn()
}

// RequestUpdateLane returns the lane for an update issued right now.
func (r *Reconciler) RequestUpdateLane() lanes.Lane {
	return lanes.RequestLane(lanes.EventPriority(r.eventPriority.Load()))
}

// DispatchUpdate queues action on q, which belongs to the state cell of f, and
// schedules a pass. It is safe to call from any goroutine.
func (r *Reconciler) DispatchUpdate(f *fiber.Fiber, q *fiber.UpdateQueue, action any) (lanes.Lane, error) {
	return r.dispatchAtLane(f, q, action, r.RequestUpdateLane())
}

// DispatchUpdateAtLane is DispatchUpdate with an explicit lane.
func (r *Reconciler) DispatchUpdateAtLane(f *fiber.Fiber, q *fiber.UpdateQueue, action any, lane lanes.Lane) (lanes.Lane, error) {
	if !lanes.Valid(lane) {
		return lanes.NoLane, ErrInvalidLane
	}
	return r.dispatchAtLane(f, q, action, lane)
}

func (r *Reconciler) dispatchAtLane(f *fiber.Fiber, q *fiber.UpdateQueue, action any, lane lanes.Lane) (lanes.Lane, error) {
	root := rootOf(f)
	if root == nil || !r.roots.Contains(root) {
		r.logger.Debug("update on unmounted component ignored", "component", fiber.TypeName(f.Type))
		return lanes.NoLane, ErrRootUnmounted
	}
	fiber.EnqueueUpdate(q, fiber.CreateUpdate(action, lane))
	r.scheduleUpdateOnFiber(root, lane)
	return lane, nil
}

func rootOf(f *fiber.Fiber) *fiber.FiberRoot {
	hr := fiber.HostRootOf(f)
	if hr == nil {
		return nil
	}
	root, _ := hr.StateNode.(*fiber.FiberRoot)
	return root
}

func (r *Reconciler) scheduleUpdateOnFiber(root *fiber.FiberRoot, lane lanes.Lane) {
	fiber.MarkRootUpdated(root, lane)
	r.ensureRootIsScheduled(root)
}

func (r *Reconciler) reportError(root *fiber.FiberRoot, err error) {
	if r.onError != nil {
		r.onError(root, err)
	}
}
