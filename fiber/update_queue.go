package fiber

import (
	"sync"

	"github.com/delaneyj/fiberparty/lanes"
)

// Update is one queued state mutation. Action is either a replacement value or
// a func(prev any) any.
type Update struct {
	Action any
	Lane   lanes.Lane
	next   *Update
}

func (u *Update) Next() *Update {
	return u.next
}

type SharedQueue struct {
	// Pending is the tail of a circular list; Pending.Next() is the head.
	Pending *Update
}

// UpdateQueue collects updates for one piece of state. Enqueueing is safe from
// any goroutine.
type UpdateQueue struct {
	mu     sync.Mutex
	Shared SharedQueue
	// Dispatch is the bound dispatch function handed out to callers.
	Dispatch any
}

func NewUpdateQueue() *UpdateQueue {
	return &UpdateQueue{}
}

func CreateUpdate(action any, lane lanes.Lane) *Update {
	return &Update{Action: action, Lane: lane}
}

// EnqueueUpdate appends u as the new tail in O(1).
func EnqueueUpdate(q *UpdateQueue, u *Update) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.Shared.Pending
	if pending == nil {
		u.next = u
	} else {
		u.next = pending.next
		pending.next = u
	}
	q.Shared.Pending = u
}

// TakePending detaches and returns the pending list tail.
func (q *UpdateQueue) TakePending() *Update {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.Shared.Pending
	q.Shared.Pending = nil
	return pending
}

func (q *UpdateQueue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.Shared.Pending != nil
}

// AppendPending splices the circular list pending after baseQueue and returns
// the new tail.
func AppendPending(baseQueue, pending *Update) *Update {
	if pending == nil {
		return baseQueue
	}
	if baseQueue == nil {
		return pending
	}
	baseFirst := baseQueue.next
	baseQueue.next = pending.next
	pending.next = baseFirst
	return pending
}

// Reducer folds one action into the previous state.
type Reducer func(state, action any) any

// BasicStateReducer applies func(any) any actions and treats anything else as
// a replacement value.
func BasicStateReducer(state, action any) any {
	if fn, ok := action.(func(any) any); ok {
		return fn(state)
	}
	return action
}

type UpdateResult struct {
	MemoizedState any
	// BaseState is the state before the first skipped update.
	BaseState any
	// BaseQueue holds the skipped updates and everything after them.
	BaseQueue    *Update
	SkippedLanes lanes.Lanes
}

// ProcessUpdateQueue replays the circular list ending at baseQueue in
// insertion order, folding every update whose lane is in renderLanes.
//
// Skipped updates are kept in the returned BaseQueue. Once one update is
// skipped every later one is kept too, rebased to NoLane, so a later pass
// replays them on top of BaseState in their original order.
func ProcessUpdateQueue(baseState any, baseQueue *Update, renderLanes lanes.Lanes, reducer Reducer) UpdateResult {
	res := UpdateResult{MemoizedState: baseState, BaseState: baseState}
	if baseQueue == nil {
		return res
	}
	if reducer == nil {
		reducer = BasicStateReducer
	}

	var (
		newState                  = baseState
		newBaseState              any
		newBaseFirst, newBaseLast *Update
	)
	first := baseQueue.next
	u := first
	for {
		if !lanes.IsSubsetOfLanes(u.Lane, renderLanes) {
			clone := &Update{Action: u.Action, Lane: u.Lane}
			if newBaseLast == nil {
				newBaseFirst = clone
				newBaseState = newState
			} else {
				newBaseLast.next = clone
			}
			newBaseLast = clone
			res.SkippedLanes = lanes.MergeLanes(res.SkippedLanes, u.Lane)
		} else {
			if newBaseLast != nil {
				clone := &Update{Action: u.Action, Lane: lanes.NoLane}
				newBaseLast.next = clone
				newBaseLast = clone
			}
			newState = reducer(newState, u.Action)
		}

		u = u.next
		if u == first {
			break
		}
	}

	if newBaseLast == nil {
		newBaseState = newState
	} else {
		newBaseLast.next = newBaseFirst
	}

	res.MemoizedState = newState
	res.BaseState = newBaseState
	res.BaseQueue = newBaseLast
	return res
}
