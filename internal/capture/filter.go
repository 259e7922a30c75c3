package capture

import "fmt"

// Range is an inclusive event-id window.
// When Enabled is false every id is in range.
//
// Start <= End is assumed; inverted ranges select nothing.
type Range struct {
	Enabled bool
	Start   EventID
	End     EventID
}

// Contains reports whether id falls inside the window.
func (r Range) Contains(id EventID) bool {
	if !r.Enabled {
		return true
	}
	return id >= r.Start && id <= r.End
}

// String renders the window as "start-end", or "all" when disabled.
func (r Range) String() string {
	if !r.Enabled {
		return "all"
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Selected reports whether ev contributes to the shader index.
// Both conditions must hold: ev is a draw or dispatch action, and its id lies
// within r. The predicate has no memory of previously seen events.
func Selected(ev *Event, r Range) bool {
	if ev == nil || !ev.Flags.Has(SelectMask) {
		return false
	}
	return r.Contains(ev.ID)
}

// Select flattens roots and keeps the selected events, in flattened order.
func Select(roots []*Event, r Range) []*Event {
	var out []*Event
	Walk(roots, func(ev *Event) bool {
		if Selected(ev, r) {
			out = append(out, ev)
		}
		return true
	})
	return out
}
