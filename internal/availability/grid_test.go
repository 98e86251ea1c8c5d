package availability

import "testing"

func TestGridShape(t *testing.T) {
	slots := Grid()
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(slots))
	}
	if slots[0].Label != "08:00-09:30" {
		t.Errorf("first slot = %s, want 08:00-09:30", slots[0].Label)
	}
	if slots[len(slots)-1].Label != "20:00-21:30" {
		t.Errorf("last slot = %s, want 20:00-21:30", slots[len(slots)-1].Label)
	}
	for _, s := range slots {
		if s.Status != StatusAvailable {
			t.Errorf("slot %s starts as %s, want %s", s.Label, s.Status, StatusAvailable)
		}
		if s.Label != s.Start+"-"+s.End {
			t.Errorf("slot label %s does not match start/end %s-%s", s.Label, s.Start, s.End)
		}
	}

	// Slots start every two hours.
	want := []string{"08:00", "10:00", "12:00", "14:00", "16:00", "18:00", "20:00"}
	for i, s := range slots {
		if s.Start != want[i] {
			t.Errorf("slot %d starts at %s, want %s", i, s.Start, want[i])
		}
	}
}

func TestValidSlot(t *testing.T) {
	for _, s := range Grid() {
		if !ValidSlot(s.Label) {
			t.Errorf("grid slot %s reported invalid", s.Label)
		}
	}
	for _, label := range []string{"", "09:00-10:30", "10:00-11:30 ", "10:00", "22:00-23:30"} {
		if ValidSlot(label) {
			t.Errorf("label %q reported valid", label)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-08-28")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2026 || d.Month() != 8 || d.Day() != 28 {
		t.Errorf("parsed %v, want 2026-08-28", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Errorf("parsed date carries a clock: %v", d)
	}
	if _, err := ParseDate("28-08-2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Error("expected error for empty date")
	}
}
