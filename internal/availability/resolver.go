package availability

// Resolve labels every slot of the canonical grid against the set of
// slot strings occupied by active events.  A slot is booked when its
// label appears in booked; otherwise it is selected when it equals the
// caller's currently chosen slot, and available in all other cases.
//
// A booked slot is never reported as selected even when selected names
// it: selecting a booked slot is a no-op.  Callers resolving a new
// date pass an empty selected string, so no selection carries over
// between dates.
func Resolve(booked map[string]struct{}, selected string) []TimeSlot {
	slots := Grid()
	for i := range slots {
		if _, ok := booked[slots[i].Label]; ok {
			slots[i].Status = StatusBooked
			continue
		}
		if selected != "" && slots[i].Label == selected {
			slots[i].Status = StatusSelected
		}
	}
	return slots
}

// BookedSet builds the booked-slot set from the slot strings of the
// fetched events.  When editing an existing event the caller excludes
// that event from the fetch itself, so its current slot remains
// selectable.  Slot strings are compared verbatim; events are expected
// to carry canonical grid labels.
func BookedSet(slots []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set
}
