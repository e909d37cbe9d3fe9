package value

// Heap is the intrusive singly-linked list of every Object allocated
// during a run. There is no collector; Alloc and Walk give a future one
// the shape it needs (vm.Roots() plus Heap.Walk) without touching the
// dispatch loop.
type Heap struct {
	head *Object
}

// Alloc links obj onto the heap and returns it.
func (h *Heap) Alloc(obj *Object) *Object {
	obj.Next = h.head
	h.head = obj
	return obj
}

// Walk visits every live object, most-recently-allocated first.
func (h *Heap) Walk(fn func(*Object)) {
	for o := h.head; o != nil; o = o.Next {
		fn(o)
	}
}

// Count returns the number of allocations currently on the heap.
func (h *Heap) Count() int {
	n := 0
	h.Walk(func(*Object) { n++ })
	return n
}
