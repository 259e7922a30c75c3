package capture

// Flatten returns every event of the forest in depth-first pre-order:
// each node precedes its children and siblings keep their recorded order.
//
// An explicit stack is used so arbitrarily deep marker nesting cannot
// exhaust the goroutine stack. The input is not modified.
func Flatten(roots []*Event) []*Event {
	var out []*Event
	Walk(roots, func(ev *Event) bool {
		out = append(out, ev)
		return true
	})
	return out
}

// Walk visits events in the same order as Flatten without materializing the
// sequence. Traversal stops as soon as fn returns false.
// Nil entries are skipped.
func Walk(roots []*Event, fn func(*Event) bool) {
	stack := make([]*Event, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		ev := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ev == nil {
			continue
		}
		if !fn(ev) {
			return
		}
		// Push children reversed so the first child is popped next.
		for i := len(ev.Children) - 1; i >= 0; i-- {
			stack = append(stack, ev.Children[i])
		}
	}
}

// Count returns the number of events in the forest.
func Count(roots []*Event) int {
	n := 0
	Walk(roots, func(*Event) bool {
		n++
		return true
	})
	return n
}
