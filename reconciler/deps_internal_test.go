package reconciler

import (
	"math"
	"testing"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/stretchr/testify/assert"
)

func TestAreHookInputsEqual(t *testing.T) {
	shared := &struct{ n int }{1}
	slice := []int{1, 2}

	assert.True(t, areHookInputsEqual([]any{}, []any{}))
	assert.True(t, areHookInputsEqual([]any{1, "a", shared}, []any{1, "a", shared}))
	assert.True(t, areHookInputsEqual([]any{slice}, []any{slice}))
	assert.True(t, areHookInputsEqual([]any{math.NaN()}, []any{math.NaN()}))
	assert.True(t, areHookInputsEqual([]any{nil}, []any{nil}))

	assert.False(t, areHookInputsEqual(nil, nil))
	assert.False(t, areHookInputsEqual([]any{1}, nil))
	assert.False(t, areHookInputsEqual([]any{1}, []any{1, 2}))
	assert.False(t, areHookInputsEqual([]any{1}, []any{int64(1)}))
	assert.False(t, areHookInputsEqual([]any{&struct{ n int }{1}}, []any{shared}))
	assert.False(t, areHookInputsEqual([]any{[]int{1, 2}}, []any{slice}))
	assert.False(t, areHookInputsEqual([]any{0.0}, []any{math.Copysign(0, -1)}))
	assert.False(t, areHookInputsEqual([]any{nil}, []any{0}))
}

func TestSameValueStructs(t *testing.T) {
	type point struct{ X, Y int }
	type holder struct{ S []int }

	assert.True(t, sameValue(point{1, 2}, point{1, 2}))
	assert.False(t, sameValue(point{1, 2}, point{2, 1}))
	assert.False(t, sameValue(holder{}, holder{}))
}

func TestPropsChanged(t *testing.T) {
	prev := fiber.Props{"class": "a", fiber.ChildrenProp: "x"}

	assert.False(t, propsChanged(prev, fiber.Props{"class": "a", fiber.ChildrenProp: "y"}))
	assert.True(t, propsChanged(prev, fiber.Props{"class": "b"}))
	assert.True(t, propsChanged(prev, fiber.Props{"class": "a", "id": "z"}))
	assert.True(t, propsChanged(prev, fiber.Props{fiber.ChildrenProp: "x"}))
	assert.False(t, propsChanged(nil, fiber.Props{}))
}

func TestSameValueFuncs(t *testing.T) {
	handler := func(n int) func() int { return func() int { return n } }
	one, two := handler(1), handler(2)

	assert.True(t, sameValue(one, one))
	assert.False(t, sameValue(one, two))
	assert.True(t, propsChanged(fiber.Props{"onClick": one}, fiber.Props{"onClick": two}))
	assert.False(t, propsChanged(fiber.Props{"onClick": one}, fiber.Props{"onClick": one}))
}
