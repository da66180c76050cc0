// Package lanes encodes update priority as a bitset.
//
// A lower bit is a more urgent lane. A set of lanes is the union of their
// bits, so merging and filtering pending work is plain bit arithmetic.
package lanes

import (
	"math/bits"

	"github.com/delaneyj/fiberparty/scheduler"
)

type Lane uint32

// Lanes is a set of Lane bits.
type Lanes = Lane

const (
	NoLane  Lane = 0
	NoLanes      = NoLane
)

const (
	SyncLane Lane = 1 << iota
	InputContinuousLane
	DefaultLane
	TransitionLane
	IdleLane

	AllLanes = SyncLane | InputContinuousLane | DefaultLane | TransitionLane | IdleLane
)

// EventPriority is the context an update is requested from.
type EventPriority uint8

const (
	DefaultEvent EventPriority = iota
	DiscreteEvent
	ContinuousEvent
	TransitionEvent
	IdleEvent
)

func (l Lane) String() string {
	switch l {
	case NoLane:
		return "none"
	case SyncLane:
		return "sync"
	case InputContinuousLane:
		return "input-continuous"
	case DefaultLane:
		return "default"
	case TransitionLane:
		return "transition"
	case IdleLane:
		return "idle"
	default:
		return "mixed"
	}
}

// RequestLane picks the lane for an update triggered from ctx.
func RequestLane(ctx EventPriority) Lane {
	switch ctx {
	case DiscreteEvent:
		return SyncLane
	case ContinuousEvent:
		return InputContinuousLane
	case TransitionEvent:
		return TransitionLane
	case IdleEvent:
		return IdleLane
	default:
		return DefaultLane
	}
}

func MergeLanes(a, b Lanes) Lanes {
	return a | b
}

func RemoveLanes(set, subset Lanes) Lanes {
	return set &^ subset
}

// PickHighestPriorityLane isolates the lowest set bit.
func PickHighestPriorityLane(pending Lanes) Lane {
	return pending & -pending
}

// IsSubsetOfLanes reports whether every bit of subset is in set. NoLane is a
// subset of everything.
func IsSubsetOfLanes(subset, set Lanes) bool {
	return set&subset == subset
}

func IncludesSomeLane(a, b Lanes) bool {
	return a&b != NoLanes
}

// Valid reports whether l is exactly one declared lane.
func Valid(l Lane) bool {
	return l != NoLane && l&AllLanes == l && bits.OnesCount32(uint32(l)) == 1
}

// ToSchedulerPriority is the fixed lane to priority hint table.
func ToSchedulerPriority(l Lane) scheduler.Priority {
	switch PickHighestPriorityLane(l) {
	case SyncLane:
		return scheduler.ImmediatePriority
	case InputContinuousLane:
		return scheduler.UserBlockingPriority
	case DefaultLane:
		return scheduler.NormalPriority
	case TransitionLane:
		return scheduler.LowPriority
	case IdleLane:
		return scheduler.IdlePriority
	default:
		return scheduler.NoPriority
	}
}
