// Package scheduler turns priority hints into timed callbacks.
//
// The reconciler only consumes the Scheduler interface. Loop is the in-process
// implementation used by the benchmarks and the tests: a min-heap of tasks
// ordered by expiration time, drained either synchronously with Flush or by a
// background goroutine started with Run.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

type Priority int

const (
	NoPriority Priority = iota
	ImmediatePriority
	UserBlockingPriority
	NormalPriority
	LowPriority
	IdlePriority
)

func (p Priority) String() string {
	switch p {
	case ImmediatePriority:
		return "immediate"
	case UserBlockingPriority:
		return "user-blocking"
	case NormalPriority:
		return "normal"
	case LowPriority:
		return "low"
	case IdlePriority:
		return "idle"
	default:
		return "none"
	}
}

// Timeout is how long a task of this priority may wait before it is treated
// as expired and run without yielding.
func (p Priority) Timeout() time.Duration {
	switch p {
	case ImmediatePriority:
		return -time.Millisecond
	case UserBlockingPriority:
		return 250 * time.Millisecond
	case LowPriority:
		return 10 * time.Second
	case IdlePriority:
		return time.Duration(1<<62 - 1)
	default:
		return 5 * time.Second
	}
}

// Work is one slice of a scheduled callback. Returning a non-nil Work asks
// the scheduler to continue with it at the same priority.
type Work func(didTimeout bool) Work

// Handle identifies a scheduled callback for cancellation.
type Handle = *Task

type Scheduler interface {
	ScheduleCallback(p Priority, work Work) Handle
	CancelCallback(h Handle)
	ShouldYield() bool
}

type Task struct {
	id             uint64
	priority       Priority
	work           Work
	expirationTime time.Time
	index          int
}

func (t *Task) Priority() Priority {
	return t.priority
}

type Option func(*Loop)

// WithTimeSlice sets how long a task may run before ShouldYield reports true.
func WithTimeSlice(d time.Duration) Option {
	return func(l *Loop) {
		l.timeSlice = d
	}
}

// WithYield replaces the time based yield check.
func WithYield(fn func() bool) Option {
	return func(l *Loop) {
		l.shouldYield = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

type Loop struct {
	mu          sync.Mutex
	queue       taskHeap
	nextID      uint64
	timeSlice   time.Duration
	sliceStart  time.Time
	shouldYield func() bool
	now         func() time.Time
	wake        chan struct{}
}

var _ Scheduler = (*Loop)(nil)

func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		timeSlice: 5 * time.Millisecond,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loop) ScheduleCallback(p Priority, work Work) Handle {
	l.mu.Lock()
	l.nextID++
	t := &Task{
		id:             l.nextID,
		priority:       p,
		work:           work,
		expirationTime: l.now().Add(p.Timeout()),
	}
	heap.Push(&l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return t
}

func (l *Loop) CancelCallback(h Handle) {
	if h == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h.work = nil
	if h.index >= 0 && h.index < len(l.queue) && l.queue[h.index] == h {
		heap.Remove(&l.queue, h.index)
	}
}

func (l *Loop) ShouldYield() bool {
	if l.shouldYield != nil {
		return l.shouldYield()
	}
	return l.now().Sub(l.sliceStart) >= l.timeSlice
}

// Len reports the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Flush runs queued tasks on the calling goroutine until the queue is empty,
// including tasks scheduled while flushing.
func (l *Loop) Flush() {
	for l.runNext() {
	}
}

// FlushOne runs the single most urgent task slice. It reports false when the
// queue was empty.
func (l *Loop) FlushOne() bool {
	return l.runNext()
}

// Run drains the queue whenever work is scheduled until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) runNext() bool {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false
	}
	t := l.queue[0]
	work := t.work
	now := l.now()
	didTimeout := !t.expirationTime.After(now)
	l.sliceStart = now
	l.mu.Unlock()

	if work == nil {
		l.mu.Lock()
		if t.index >= 0 && t.index < len(l.queue) && l.queue[t.index] == t {
			heap.Remove(&l.queue, t.index)
		}
		l.mu.Unlock()
		return true
	}

	next := work(didTimeout)

	l.mu.Lock()
	defer l.mu.Unlock()
	// the task may have been cancelled by its own work
	if t.work == nil {
		if t.index >= 0 && t.index < len(l.queue) && l.queue[t.index] == t {
			heap.Remove(&l.queue, t.index)
		}
		return true
	}
	if next != nil {
		t.work = next
		return true
	}
	if t.index >= 0 && t.index < len(l.queue) && l.queue[t.index] == t {
		heap.Remove(&l.queue, t.index)
	}
	t.work = nil
	return true
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if !h[i].expirationTime.Equal(h[j].expirationTime) {
		return h[i].expirationTime.Before(h[j].expirationTime)
	}
	return h[i].id < h[j].id
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
