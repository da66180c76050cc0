package reconciler_test

import (
	"testing"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/lanes"
	"github.com/delaneyj/fiberparty/reconciler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseReducer(t *testing.T) {
	h := newHarness(t, nil)

	var dispatch func(string) error
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		n, d := reconciler.UseReducer(rc, func(n int, action string) int {
			switch action {
			case "inc":
				return n + 1
			case "dec":
				return n - 1
			}
			return n
		}, 0)
		dispatch = d
		return n
	}
	h.render(t, el(comp, nil))

	dispatch("inc")
	dispatch("inc")
	dispatch("dec")
	dispatch("noop")
	h.loop.Flush()

	assert.Equal(t, "1", h.text())
}

func TestUseLazyStateInitialisesOnce(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	var set reconciler.Dispatch[string]
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		s, d := reconciler.UseLazyState(rc, func() string {
			calls++
			return "init"
		})
		set = d
		return s
	}
	h.render(t, el(comp, nil))
	set.Set("next")
	h.loop.Flush()

	assert.Equal(t, "next", h.text())
	assert.Equal(t, 1, calls)
}

func TestDispatchIsStableAcrossRenders(t *testing.T) {
	h := newHarness(t, nil)

	var dispatches []reconciler.Dispatch[int]
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		n, d := reconciler.UseState(rc, 0)
		dispatches = append(dispatches, d)
		return n
	}
	h.render(t, el(comp, nil))
	dispatches[0].Set(1)
	h.loop.Flush()

	require.Len(t, dispatches, 2)
	assert.Equal(t, dispatches[0], dispatches[1])
	assert.Same(t, dispatches[0].Queue(), dispatches[1].Queue())
}

func TestUseRefAndUseMemo(t *testing.T) {
	h := newHarness(t, nil)

	var (
		refs     []*reconciler.Ref[int]
		computed int
	)
	comp := func(rc *reconciler.RenderContext, props fiber.Props) any {
		ref := reconciler.UseRef(rc, 7)
		refs = append(refs, ref)
		ref.Current++

		dep := props["dep"]
		return reconciler.UseMemo(rc, func() string {
			computed++
			return dep.(string) + "!"
		}, []any{dep})
	}

	h.render(t, el(comp, fiber.Props{"dep": "a"}))
	h.render(t, el(comp, fiber.Props{"dep": "a"}))
	assert.Equal(t, 1, computed)
	assert.Equal(t, "a!", h.text())

	h.render(t, el(comp, fiber.Props{"dep": "b"}))
	assert.Equal(t, 2, computed)
	assert.Equal(t, "b!", h.text())

	require.Len(t, refs, 3)
	assert.Same(t, refs[0], refs[2])
	assert.Equal(t, 10, refs[2].Current)
}

func TestHookOutsideRender(t *testing.T) {
	h := newHarness(t, nil)

	var captured *reconciler.RenderContext
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		captured = rc
		return nil
	}
	h.render(t, el(comp, nil))
	require.NotNil(t, captured)

	assert.PanicsWithError(t, reconciler.ErrHookOutsideRender.Error(), func() {
		reconciler.UseState(captured, 0)
	})
	assert.PanicsWithError(t, reconciler.ErrHookOutsideRender.Error(), func() {
		reconciler.UseEffect(nil, func() func() { return nil }, nil)
	})
	assert.PanicsWithError(t, reconciler.ErrHookOutsideRender.Error(), func() {
		captured.Lane()
	})
}

func TestHookOrderFaults(t *testing.T) {
	cases := map[string]struct {
		first, second func(rc *reconciler.RenderContext)
	}{
		"more hooks": {
			first: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, 0)
			},
			second: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, 0)
				reconciler.UseState(rc, 0)
			},
		},
		"fewer hooks": {
			first: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, 0)
				reconciler.UseRef(rc, 0)
			},
			second: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, 0)
			},
		},
		"kind mismatch": {
			first: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, 0)
			},
			second: func(rc *reconciler.RenderContext) {
				reconciler.UseEffect(rc, func() func() { return nil }, nil)
			},
		},
		"state swapped for reducer": {
			first: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, 0)
			},
			second: func(rc *reconciler.RenderContext) {
				reconciler.UseReducer(rc, func(n, delta int) int { return n + delta }, 0)
			},
		},
		"state type changed": {
			first: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, 0)
			},
			second: func(rc *reconciler.RenderContext) {
				reconciler.UseState(rc, "zero")
			},
		},
		"ref type changed": {
			first: func(rc *reconciler.RenderContext) {
				reconciler.UseRef(rc, 0)
			},
			second: func(rc *reconciler.RenderContext) {
				reconciler.UseRef(rc, "")
			},
		},
		"memo type changed": {
			first: func(rc *reconciler.RenderContext) {
				reconciler.UseMemo(rc, func() int { return 1 }, []any{})
			},
			second: func(rc *reconciler.RenderContext) {
				reconciler.UseMemo(rc, func() string { return "1" }, []any{})
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, nil)

			renders := 0
			comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
				renders++
				if renders == 1 {
					tc.first(rc)
				} else {
					tc.second(rc)
				}
				return "mounted"
			}
			h.render(t, el(comp, nil))
			require.Empty(t, h.errs)
			committed := h.root.Current

			h.render(t, el(comp, nil))

			require.Len(t, h.errs, 1)
			assert.ErrorIs(t, h.errs[0], reconciler.ErrHookOrder)
			assert.Same(t, committed, h.root.Current)
			assert.Equal(t, "mounted", h.text())
		})
	}
}

func TestDispatchAtExplicitLane(t *testing.T) {
	h := newHarness(t, nil)

	var set reconciler.Dispatch[int]
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		n, d := reconciler.UseState(rc, 0)
		set = d
		return n
	}
	h.render(t, el(comp, nil))

	err := set.UpdateAtLane(lanes.SyncLane|lanes.DefaultLane, func(n int) int { return n + 1 })
	assert.ErrorIs(t, err, reconciler.ErrInvalidLane)

	require.NoError(t, set.UpdateAtLane(lanes.TransitionLane, func(n int) int { return n + 2 }))
	assert.Equal(t, lanes.TransitionLane, h.root.Lanes())
	h.loop.Flush()
	assert.Equal(t, "2", h.text())
}

func TestDispatchAfterUnmount(t *testing.T) {
	h := newHarness(t, nil)

	var (
		set      reconciler.Dispatch[int]
		dispatch func(int) error
	)
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		n, d := reconciler.UseState(rc, 0)
		set = d
		_, dispatch = reconciler.UseReducer(rc, func(n, delta int) int { return n + delta }, 0)
		return n
	}
	h.render(t, el(comp, nil))

	require.NoError(t, set.Set(1))
	require.NoError(t, dispatch(1))
	h.loop.Flush()
	require.Equal(t, "1", h.text())

	require.NoError(t, h.r.Unmount(h.root))
	h.loop.Flush()

	assert.ErrorIs(t, set.Set(2), reconciler.ErrRootUnmounted)
	assert.ErrorIs(t, set.Update(func(n int) int { return n + 1 }), reconciler.ErrRootUnmounted)
	assert.ErrorIs(t, dispatch(1), reconciler.ErrRootUnmounted)
	assert.Zero(t, h.loop.Len())
}
