package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/delaneyj/fiberparty/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushRunsByPriorityThenInsertionOrder(t *testing.T) {
	l := scheduler.NewLoop()
	order := []string{}
	record := func(name string) scheduler.Work {
		return func(bool) scheduler.Work {
			order = append(order, name)
			return nil
		}
	}

	l.ScheduleCallback(scheduler.NormalPriority, record("normal-1"))
	l.ScheduleCallback(scheduler.IdlePriority, record("idle"))
	l.ScheduleCallback(scheduler.ImmediatePriority, record("immediate"))
	l.ScheduleCallback(scheduler.NormalPriority, record("normal-2"))
	l.ScheduleCallback(scheduler.UserBlockingPriority, record("user-blocking"))

	l.Flush()
	assert.Equal(t, []string{"immediate", "user-blocking", "normal-1", "normal-2", "idle"}, order)
	assert.Equal(t, 0, l.Len())
}

func TestCancelCallback(t *testing.T) {
	l := scheduler.NewLoop()
	ran := false
	h := l.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Work {
		ran = true
		return nil
	})
	l.CancelCallback(h)
	l.CancelCallback(nil)
	l.Flush()
	assert.False(t, ran)
}

func TestContinuationKeepsTaskQueued(t *testing.T) {
	l := scheduler.NewLoop()
	slices := 0
	var work scheduler.Work
	work = func(bool) scheduler.Work {
		slices++
		if slices < 3 {
			return work
		}
		return nil
	}
	l.ScheduleCallback(scheduler.NormalPriority, work)

	require.True(t, l.FlushOne())
	assert.Equal(t, 1, l.Len())
	l.Flush()
	assert.Equal(t, 3, slices)
	assert.False(t, l.FlushOne())
}

func TestHigherPriorityRunsBeforeContinuation(t *testing.T) {
	l := scheduler.NewLoop()
	order := []string{}
	first := true
	var low scheduler.Work
	low = func(bool) scheduler.Work {
		order = append(order, "low")
		if first {
			first = false
			l.ScheduleCallback(scheduler.ImmediatePriority, func(bool) scheduler.Work {
				order = append(order, "urgent")
				return nil
			})
			return low
		}
		return nil
	}
	l.ScheduleCallback(scheduler.LowPriority, low)
	l.Flush()
	assert.Equal(t, []string{"low", "urgent", "low"}, order)
}

func TestShouldYield(t *testing.T) {
	now := time.Unix(0, 0)
	l := scheduler.NewLoop(
		scheduler.WithClock(func() time.Time { return now }),
		scheduler.WithTimeSlice(5*time.Millisecond),
	)
	var yields []bool
	l.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Work {
		yields = append(yields, l.ShouldYield())
		now = now.Add(6 * time.Millisecond)
		yields = append(yields, l.ShouldYield())
		return nil
	})
	l.Flush()
	assert.Equal(t, []bool{false, true}, yields)

	custom := scheduler.NewLoop(scheduler.WithYield(func() bool { return true }))
	assert.True(t, custom.ShouldYield())
}

func TestDidTimeout(t *testing.T) {
	l := scheduler.NewLoop()
	var timeouts []bool
	l.ScheduleCallback(scheduler.ImmediatePriority, func(didTimeout bool) scheduler.Work {
		timeouts = append(timeouts, didTimeout)
		return nil
	})
	l.ScheduleCallback(scheduler.IdlePriority, func(didTimeout bool) scheduler.Work {
		timeouts = append(timeouts, didTimeout)
		return nil
	})
	l.Flush()
	assert.Equal(t, []bool{true, false}, timeouts)
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	l := scheduler.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()

	ran := make(chan struct{})
	l.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Work {
		close(ran)
		return nil
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "immediate", scheduler.ImmediatePriority.String())
	assert.Equal(t, "idle", scheduler.IdlePriority.String())
	assert.Equal(t, "none", scheduler.NoPriority.String())
}
