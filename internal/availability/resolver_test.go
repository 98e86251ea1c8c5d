package availability

import "testing"

func statusOf(slots []TimeSlot, label string) string {
	for _, s := range slots {
		if s.Label == label {
			return s.Status
		}
	}
	return ""
}

func TestResolveMarksExactlyBookedSlots(t *testing.T) {
	booked := BookedSet([]string{"10:00-11:30", "14:00-15:30"})
	slots := Resolve(booked, "")

	for _, s := range slots {
		_, isBooked := booked[s.Label]
		if isBooked && s.Status != StatusBooked {
			t.Errorf("slot %s = %s, want booked", s.Label, s.Status)
		}
		if !isBooked && s.Status != StatusAvailable {
			t.Errorf("slot %s = %s, want available", s.Label, s.Status)
		}
	}
}

func TestResolveSelection(t *testing.T) {
	t.Run("free slot becomes selected", func(t *testing.T) {
		slots := Resolve(BookedSet([]string{"10:00-11:30"}), "16:00-17:30")
		if got := statusOf(slots, "16:00-17:30"); got != StatusSelected {
			t.Errorf("selected slot = %s, want %s", got, StatusSelected)
		}
	})

	t.Run("selecting a booked slot is a no-op", func(t *testing.T) {
		slots := Resolve(BookedSet([]string{"10:00-11:30"}), "10:00-11:30")
		if got := statusOf(slots, "10:00-11:30"); got != StatusBooked {
			t.Errorf("booked slot = %s, want %s", got, StatusBooked)
		}
		for _, s := range slots {
			if s.Status == StatusSelected {
				t.Errorf("slot %s unexpectedly selected", s.Label)
			}
		}
	})

	t.Run("empty selection marks nothing", func(t *testing.T) {
		// A date change resets the selection: the client re-resolves with
		// an empty selected string and no slot may carry the old mark.
		slots := Resolve(BookedSet(nil), "")
		for _, s := range slots {
			if s.Status != StatusAvailable {
				t.Errorf("slot %s = %s, want available", s.Label, s.Status)
			}
		}
	})

	t.Run("off-grid selection marks nothing", func(t *testing.T) {
		slots := Resolve(BookedSet(nil), "09:00-10:30")
		for _, s := range slots {
			if s.Status == StatusSelected {
				t.Errorf("slot %s unexpectedly selected", s.Label)
			}
		}
	})
}

func TestResolveFullDay(t *testing.T) {
	var labels []string
	for _, s := range Grid() {
		labels = append(labels, s.Label)
	}
	slots := Resolve(BookedSet(labels), "12:00-13:30")
	for _, s := range slots {
		if s.Status != StatusBooked {
			t.Errorf("slot %s = %s, want booked", s.Label, s.Status)
		}
	}
}

func TestBookedSet(t *testing.T) {
	set := BookedSet([]string{"08:00-09:30", "08:00-09:30", "20:00-21:30"})
	if len(set) != 2 {
		t.Errorf("set size = %d, want 2", len(set))
	}
	if _, ok := set["08:00-09:30"]; !ok {
		t.Error("missing 08:00-09:30")
	}
	if _, ok := set["10:00-11:30"]; ok {
		t.Error("unexpected 10:00-11:30")
	}
	if len(BookedSet(nil)) != 0 {
		t.Error("nil input should yield an empty set")
	}
}
