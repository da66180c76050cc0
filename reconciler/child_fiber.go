package reconciler

import (
	"fmt"
	"reflect"

	"github.com/delaneyj/fiberparty/fiber"
)

// childReconciler diffs the previous children of a fiber against new child
// descriptors. On mount it skips flagging since the whole subtree is placed at
// once.
type childReconciler struct {
	r                *Reconciler
	trackSideEffects bool
}

type childKey struct {
	key   string
	index int
}

func keyOf(key string, index int) childKey {
	if key != "" {
		return childKey{key: key, index: -1}
	}
	return childKey{index: index}
}

func (c childReconciler) reconcileChildFibers(ret, first *fiber.Fiber, newChild any) *fiber.Fiber {
	if el, ok := asElement(newChild); ok && isFragment(el) && el.Key == "" {
		newChild = el.Props.Children()
	}

	if el, ok := asElement(newChild); ok {
		return c.placeSingleChild(c.reconcileSingleElement(ret, first, el))
	}
	if text, ok := asText(newChild); ok {
		return c.placeSingleChild(c.reconcileSingleText(ret, first, text))
	}
	if items, ok := asSlice(newChild); ok {
		return c.reconcileChildrenArray(ret, first, items)
	}
	return c.deleteRemainingChildren(ret, first)
}

func asElement(v any) (fiber.Element, bool) {
	switch el := v.(type) {
	case fiber.Element:
		return el, true
	case *fiber.Element:
		if el != nil {
			return *el, true
		}
	}
	return fiber.Element{}, false
}

func isFragment(el fiber.Element) bool {
	_, ok := el.Type.(fiber.FragmentType)
	return ok
}

// asText accepts strings and numbers. Booleans and nil render nothing.
func asText(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []fiber.Element:
		items := make([]any, len(s))
		for i, el := range s {
			items[i] = el
		}
		return items, true
	case nil, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func (c childReconciler) placeSingleChild(f *fiber.Fiber) *fiber.Fiber {
	if c.trackSideEffects && f.Alternate == nil {
		f.Flags |= fiber.Placement
	}
	return f
}

func (c childReconciler) deleteChild(ret, child *fiber.Fiber) {
	if !c.trackSideEffects {
		return
	}
	ret.Deletions = append(ret.Deletions, child)
	ret.Flags |= fiber.ChildDeletion
}

func (c childReconciler) deleteRemainingChildren(ret, child *fiber.Fiber) *fiber.Fiber {
	for ; child != nil; child = child.Sibling {
		c.deleteChild(ret, child)
	}
	return nil
}

func (c childReconciler) useFiber(f *fiber.Fiber, props fiber.Props) *fiber.Fiber {
	clone := fiber.CreateWorkInProgress(f, props)
	clone.Index = 0
	clone.Sibling = nil
	return clone
}

func (c childReconciler) createFromElement(ret *fiber.Fiber, el fiber.Element) *fiber.Fiber {
	var logger = c.r.logger
	if !c.r.development {
		logger = nil
	}
	f := fiber.CreateFiberFromElement(el, logger)
	f.Return = ret
	return f
}

func (c childReconciler) reconcileSingleElement(ret, first *fiber.Fiber, el fiber.Element) *fiber.Fiber {
	id := fiber.TypeID(el.Type)
	for child := first; child != nil; child = child.Sibling {
		if child.Key != el.Key {
			c.deleteChild(ret, child)
			continue
		}
		if child.TypeID == id {
			c.deleteRemainingChildren(ret, child.Sibling)
			existing := c.useFiber(child, el.Props)
			existing.Type = el.Type
			existing.Return = ret
			return existing
		}
		c.deleteRemainingChildren(ret, child)
		break
	}
	return c.createFromElement(ret, el)
}

func (c childReconciler) reconcileSingleText(ret, first *fiber.Fiber, text string) *fiber.Fiber {
	if first != nil && first.Tag == fiber.HostText {
		c.deleteRemainingChildren(ret, first.Sibling)
		existing := c.useFiber(first, fiber.Props{fiber.TextProp: text})
		existing.Return = ret
		return existing
	}
	c.deleteRemainingChildren(ret, first)
	created := fiber.CreateFiberFromText(text)
	created.Return = ret
	return created
}

// placeChild records the new index of f and flags it for placement when it
// is new or moved left of an already placed sibling.
func (c childReconciler) placeChild(f *fiber.Fiber, lastPlacedIndex, newIndex int) int {
	f.Index = newIndex
	if !c.trackSideEffects {
		return lastPlacedIndex
	}
	if current := f.Alternate; current != nil {
		if current.Index < lastPlacedIndex {
			f.Flags |= fiber.Placement
			return lastPlacedIndex
		}
		return current.Index
	}
	f.Flags |= fiber.Placement
	return lastPlacedIndex
}

func (c childReconciler) updateTextNode(ret, current *fiber.Fiber, text string) *fiber.Fiber {
	if current == nil || current.Tag != fiber.HostText {
		created := fiber.CreateFiberFromText(text)
		created.Return = ret
		return created
	}
	existing := c.useFiber(current, fiber.Props{fiber.TextProp: text})
	existing.Return = ret
	return existing
}

func (c childReconciler) updateElement(ret, current *fiber.Fiber, el fiber.Element) *fiber.Fiber {
	if current != nil && current.TypeID == fiber.TypeID(el.Type) {
		existing := c.useFiber(current, el.Props)
		existing.Type = el.Type
		existing.Return = ret
		return existing
	}
	return c.createFromElement(ret, el)
}

func (c childReconciler) updateFragment(ret, current *fiber.Fiber, items []any, key string) *fiber.Fiber {
	if current == nil || current.Tag != fiber.FragmentTag {
		created := fiber.CreateFiberFromFragment(items, key)
		created.Return = ret
		return created
	}
	existing := c.useFiber(current, fiber.Props{fiber.ChildrenProp: items})
	existing.Return = ret
	return existing
}

func (c childReconciler) createChild(ret *fiber.Fiber, newChild any) *fiber.Fiber {
	if text, ok := asText(newChild); ok {
		created := fiber.CreateFiberFromText(text)
		created.Return = ret
		return created
	}
	if el, ok := asElement(newChild); ok {
		return c.createFromElement(ret, el)
	}
	if items, ok := asSlice(newChild); ok {
		created := fiber.CreateFiberFromFragment(items, "")
		created.Return = ret
		return created
	}
	return nil
}

// updateSlot reuses old for newChild when their keys agree. It returns nil
// on a key mismatch or an empty child.
func (c childReconciler) updateSlot(ret, old *fiber.Fiber, newChild any) *fiber.Fiber {
	key := ""
	if old != nil {
		key = old.Key
	}
	if text, ok := asText(newChild); ok {
		if key != "" {
			return nil
		}
		return c.updateTextNode(ret, old, text)
	}
	if el, ok := asElement(newChild); ok {
		if el.Key != key {
			return nil
		}
		return c.updateElement(ret, old, el)
	}
	if items, ok := asSlice(newChild); ok {
		if key != "" {
			return nil
		}
		return c.updateFragment(ret, old, items, "")
	}
	return nil
}

func (c childReconciler) updateFromMap(existing map[childKey]*fiber.Fiber, ret *fiber.Fiber, newIndex int, newChild any) *fiber.Fiber {
	if text, ok := asText(newChild); ok {
		return c.updateTextNode(ret, existing[keyOf("", newIndex)], text)
	}
	if el, ok := asElement(newChild); ok {
		return c.updateElement(ret, existing[keyOf(el.Key, newIndex)], el)
	}
	if items, ok := asSlice(newChild); ok {
		return c.updateFragment(ret, existing[keyOf("", newIndex)], items, "")
	}
	return nil
}

// reconcileChildrenArray matches children in order until the first key
// mismatch, then falls back to a key map for the rest.
func (c childReconciler) reconcileChildrenArray(ret, first *fiber.Fiber, items []any) *fiber.Fiber {
	var (
		resultFirst, previous *fiber.Fiber
		lastPlacedIndex       int
		newIndex              int
		old                   = first
		nextOld               *fiber.Fiber
	)
	link := func(f *fiber.Fiber) {
		if previous == nil {
			resultFirst = f
		} else {
			previous.Sibling = f
		}
		previous = f
	}

	for ; old != nil && newIndex < len(items); newIndex++ {
		if old.Index > newIndex {
			nextOld = old
			old = nil
		} else {
			nextOld = old.Sibling
		}
		f := c.updateSlot(ret, old, items[newIndex])
		if f == nil {
			if old == nil {
				old = nextOld
			}
			break
		}
		if c.trackSideEffects && old != nil && f.Alternate == nil {
			c.deleteChild(ret, old)
		}
		lastPlacedIndex = c.placeChild(f, lastPlacedIndex, newIndex)
		link(f)
		old = nextOld
	}

	if newIndex == len(items) {
		c.deleteRemainingChildren(ret, old)
		return resultFirst
	}

	if old == nil {
		for ; newIndex < len(items); newIndex++ {
			f := c.createChild(ret, items[newIndex])
			if f == nil {
				continue
			}
			lastPlacedIndex = c.placeChild(f, lastPlacedIndex, newIndex)
			link(f)
		}
		return resultFirst
	}

	existing := make(map[childKey]*fiber.Fiber)
	for f := old; f != nil; f = f.Sibling {
		existing[keyOf(f.Key, f.Index)] = f
	}
	for ; newIndex < len(items); newIndex++ {
		f := c.updateFromMap(existing, ret, newIndex, items[newIndex])
		if f == nil {
			continue
		}
		if c.trackSideEffects && f.Alternate != nil {
			delete(existing, keyOf(f.Key, newIndex))
		}
		lastPlacedIndex = c.placeChild(f, lastPlacedIndex, newIndex)
		link(f)
	}

	if c.trackSideEffects {
		for f := old; f != nil; f = f.Sibling {
			if existing[keyOf(f.Key, f.Index)] == f {
				c.deleteChild(ret, f)
			}
		}
	}
	return resultFirst
}
