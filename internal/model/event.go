package model

import "time"

// Event lifecycle status values.  An event is active while it is
// `open` or `full`; cancelled and completed events release their
// time slot.
const (
	EventStatusOpen      = "open"
	EventStatusFull      = "full"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Event represents a scheduled match on a particular field.  An event
// occupies exactly one time slot of the daily grid on a calendar day;
// at most one active event may hold a given (field, date, slot)
// combination.  Events may be public or private and may belong to a
// group.  This struct corresponds to a row in the `events` table.
//
// Fields:
//  ID          – primary key identifier.
//  FieldID     – field on which the match is played.
//  Date        – calendar day of the match (time part is zero).
//  TimeSlot    – slot string from the daily grid, e.g. "10:00-11:30".
//  Title       – short description shown in listings.
//  OrganizerID – user who created the event; holds elevated permissions.
//  MaxPlayers  – participant capacity including the organizer.
//  IsPrivate   – whether the event is hidden from public browse.
//  GroupID     – owning group (nil for standalone events).
//  Status      – lifecycle status (open, full, cancelled, completed).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64    // events.id
	FieldID     uint64    // events.field_id
	Date        time.Time // events.event_date (DATE column)
	TimeSlot    string    // events.time_slot
	Title       string    // events.title
	OrganizerID uint64    // events.organizer_id
	MaxPlayers  uint32    // events.max_players
	IsPrivate   bool      // events.is_private
	GroupID     *uint64   // events.group_id (nullable)
	Status      string    // events.status
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}

// EventParticipant links a user to an event they joined.  The pair
// (EventID, UserID) is unique; the organizer is inserted as the first
// participant when the event is created.
//
// Fields:
//  ID       – primary key identifier.
//  EventID  – event being joined.
//  UserID   – joining user.
//  JoinedAt – when the user joined.
type EventParticipant struct {
	ID       uint64    // event_participants.id
	EventID  uint64    // event_participants.event_id
	UserID   uint64    // event_participants.user_id
	JoinedAt time.Time // event_participants.joined_at
}
