// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrSlotTaken signals that another active event
// already occupies the requested field, date and time slot.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as cancelling an event that is already
// cancelled. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSlotTaken is returned when an insert or update would give two
// active events the same (field, date, time slot) combination. The
// uniqueness is enforced by the database, so two organizers racing for
// the same free slot cannot both win; the loser receives this error
// and should re-resolve availability. Handlers translate it into an
// HTTP 409 response with a distinguishable error kind.
var ErrSlotTaken = errors.New("slot already booked")

// ErrEventNotFound is returned when an event lookup matches no row.
var ErrEventNotFound = errors.New("event not found")

// ErrFieldNotFound is returned when a field lookup matches no row.
var ErrFieldNotFound = errors.New("field not found")

// ErrGroupNotFound is returned when a group lookup matches no row.
var ErrGroupNotFound = errors.New("group not found")

// ErrAlreadyJoined is returned when a user joins an event or group
// they already belong to.
var ErrAlreadyJoined = errors.New("already joined")

// ErrEventFull is returned when a join would exceed the event's
// participant capacity.
var ErrEventFull = errors.New("event full")

// ErrNotMember is returned when an operation requires an existing
// membership the user does not hold, such as leaving an event they
// never joined.
var ErrNotMember = errors.New("not a member")
