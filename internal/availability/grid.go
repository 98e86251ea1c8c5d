// Package availability derives the free/booked state of a field's
// daily time-slot grid from the active events booked on it.  Slot
// statuses are computed per request and never persisted.
package availability

import (
	"fmt"
	"time"
)

// Slot statuses reported by Resolve.
const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
	StatusSelected  = "selected"
)

// Grid parameters.  The service day offers seven 90-minute slots
// starting every two hours from 08:00, the last ending at 21:30.
const (
	gridSlots     = 7
	gridFirstHour = 8
	slotMinutes   = 90
	slotPitchMin  = 120
)

// TimeSlot is one interval of the daily grid together with its derived
// status.  Start and End are "HH:MM" strings; Label is the canonical
// slot string stored on events ("HH:MM-HH:MM").
type TimeSlot struct {
	Label  string `json:"label"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

// Grid returns the canonical daily slot grid with every slot marked
// available.  The grid is identical for all fields and dates.
func Grid() []TimeSlot {
	slots := make([]TimeSlot, 0, gridSlots)
	for i := 0; i < gridSlots; i++ {
		startMin := gridFirstHour*60 + i*slotPitchMin
		endMin := startMin + slotMinutes
		start := fmt.Sprintf("%02d:%02d", startMin/60, startMin%60)
		end := fmt.Sprintf("%02d:%02d", endMin/60, endMin%60)
		slots = append(slots, TimeSlot{
			Label:  start + "-" + end,
			Start:  start,
			End:    end,
			Status: StatusAvailable,
		})
	}
	return slots
}

// ValidSlot reports whether label names a slot of the canonical grid.
// Event creation rejects labels outside the grid before touching the
// database.
func ValidSlot(label string) bool {
	for _, s := range Grid() {
		if s.Label == label {
			return true
		}
	}
	return false
}

// ParseDate parses a calendar day in "2006-01-02" form into a UTC
// time with a zero clock, matching how event dates are stored.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
