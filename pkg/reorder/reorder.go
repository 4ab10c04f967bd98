// Package reorder maintains the arrangement of a document's pages and moves
// single pages within it in response to drag-and-drop gestures.
package reorder

import "slices"

// Controller holds an ordered sequence of 1-indexed page identifiers.
// The sequence is always a permutation of [1..N].
//
// A Controller is owned by a single hosting view and is not safe for
// concurrent use.
type Controller struct {
	order     []int
	dragged   int
	dragging  bool
	observers []func([]int)
}

// New initializes a controller with the sequence [1..n].
// A non-positive n yields an empty controller on which every gesture is a no-op.
func New(n int) *Controller {
	c := &Controller{}
	if n <= 0 {
		return c
	}

	c.order = make([]int, n)
	for i := range n {
		c.order[i] = i + 1
	}
	return c
}

// Len returns the page count N.
func (c *Controller) Len() int {
	return len(c.order)
}

// Order returns a copy of the current sequence.
func (c *Controller) Order() []int {
	return slices.Clone(c.order)
}

// Observe registers fn to receive every emitted sequence.
func (c *Controller) Observe(fn func([]int)) {
	c.observers = append(c.observers, fn)
}

// Dragging returns the page being moved, if a drag is in progress.
func (c *Controller) Dragging() (int, bool) {
	return c.dragged, c.dragging
}

// BeginDrag records id as the page being moved. A drag already in
// progress is replaced. Ids outside the sequence are ignored.
func (c *Controller) BeginDrag(id int) {
	if !c.contains(id) {
		return
	}
	c.dragged = id
	c.dragging = true
}

// DragOver reports whether dropping on target would be accepted.
// It never changes state.
func (c *Controller) DragOver(target int) bool {
	return c.dragging && c.contains(target)
}

// Drop moves the dragged page immediately before target and emits the new
// sequence. It returns the current sequence and false when no drag is in
// progress, target is the dragged page, or target is unknown.
func (c *Controller) Drop(target int) ([]int, bool) {
	if !c.dragging || target == c.dragged || !c.contains(target) {
		return c.Order(), false
	}

	from := slices.Index(c.order, c.dragged)
	c.order = slices.Delete(c.order, from, from+1)

	to := slices.Index(c.order, target)
	c.order = slices.Insert(c.order, to, c.dragged)

	order := c.Order()
	for _, fn := range c.observers {
		fn(slices.Clone(order))
	}
	return order, true
}

// EndDrag clears the drag whether or not a drop occurred.
func (c *Controller) EndDrag() {
	c.dragged = 0
	c.dragging = false
}

func (c *Controller) contains(id int) bool {
	return id >= 1 && id <= len(c.order)
}
