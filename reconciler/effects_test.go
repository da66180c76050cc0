package reconciler_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/metrics"
	"github.com/delaneyj/fiberparty/reconciler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectDependencies(t *testing.T) {
	h := newHarness(t, nil)

	var log []string
	comp := func(rc *reconciler.RenderContext, props fiber.Props) any {
		a := props["a"].(int)
		reconciler.UseEffect(rc, func() func() {
			log = append(log, fmt.Sprintf("create %d", a))
			return func() {
				log = append(log, fmt.Sprintf("destroy %d", a))
			}
		}, []any{a})
		return nil
	}

	h.render(t, el(comp, fiber.Props{"a": 1}))
	assert.Equal(t, []string{"create 1"}, log)

	h.render(t, el(comp, fiber.Props{"a": 1}))
	assert.Equal(t, []string{"create 1"}, log)

	h.render(t, el(comp, fiber.Props{"a": 2}))
	assert.Equal(t, []string{"create 1", "destroy 1", "create 2"}, log)

	require.NoError(t, h.r.Unmount(h.root))
	h.loop.Flush()
	assert.Equal(t, []string{"create 1", "destroy 1", "create 2", "destroy 2"}, log)
}

func TestEffectWithoutDepsRunsEveryRender(t *testing.T) {
	h := newHarness(t, nil)

	creates := 0
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		reconciler.UseEffect(rc, func() func() {
			creates++
			return nil
		}, nil)
		return nil
	}
	for range 3 {
		h.render(t, el(comp, nil))
	}
	assert.Equal(t, 3, creates)
}

func TestDestroysRunBeforeCreates(t *testing.T) {
	h := newHarness(t, nil)

	var log []string
	effect := func(rc *reconciler.RenderContext, props fiber.Props) any {
		name := props["name"].(string)
		reconciler.UseEffect(rc, func() func() {
			log = append(log, "create "+name)
			return func() { log = append(log, "destroy "+name) }
		}, nil)
		return nil
	}
	app := func(withC bool) fiber.Element {
		children := []any{
			fiber.Element{Type: effect, Key: "a", Props: fiber.Props{"name": "a"}},
			fiber.Element{Type: effect, Key: "b", Props: fiber.Props{"name": "b"}},
		}
		if withC {
			children = append(children, fiber.Element{Type: effect, Key: "c", Props: fiber.Props{"name": "c"}})
		}
		return el("div", nil, children...)
	}

	h.render(t, app(true))
	assert.Equal(t, []string{"create a", "create b", "create c"}, log)

	log = nil
	h.render(t, app(false))
	assert.Equal(t, []string{"destroy c", "destroy a", "destroy b", "create a", "create b"}, log)
}

func TestEffectCanDispatch(t *testing.T) {
	h := newHarness(t, nil)

	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		n, set := reconciler.UseState(rc, 0)
		reconciler.UseEffect(rc, func() func() {
			if n < 3 {
				set.Set(n + 1)
			}
			return nil
		}, []any{n})
		return n
	}
	h.render(t, el(comp, nil))

	assert.Equal(t, "3", h.text())
}

func TestEffectPanicsAreIsolated(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, nil, reconciler.WithMetrics(metrics.New(reg)))

	ran := false
	comp := func(rc *reconciler.RenderContext, _ fiber.Props) any {
		reconciler.UseEffect(rc, func() func() {
			panic(errors.New("effect failed"))
		}, []any{})
		reconciler.UseEffect(rc, func() func() {
			ran = true
			return nil
		}, []any{})
		return "rendered"
	}
	h.render(t, el(comp, nil))

	assert.True(t, ran)
	assert.Equal(t, "rendered", h.text())
	require.Len(t, h.errs, 1)

	var effectErr *reconciler.EffectError
	require.ErrorAs(t, h.errs[0], &effectErr)
	assert.Equal(t, "create", effectErr.Phase)
	assert.NotEmpty(t, effectErr.StackTrace)
	assert.EqualError(t, errors.Unwrap(effectErr), "effect failed")

	expected := `
# HELP fiberparty_effect_failures_total Effect callbacks that panicked
# TYPE fiberparty_effect_failures_total counter
fiberparty_effect_failures_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fiberparty_effect_failures_total"))
}
