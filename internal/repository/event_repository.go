package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pitchside/pitchside/internal/model"
)

// EventRepo provides CRUD operations for events and their participants.
// An event occupies one time slot of the daily grid on one field and
// calendar day.  The events table carries a generated `active_slot`
// column (1 while status is open or full, NULL otherwise) with a
// unique key over (field_id, event_date, time_slot, active_slot), so
// the database rejects a second active event for the same slot.  All
// date columns are DATE values interpreted in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can coordinate
// multi-repository transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// Create inserts a new event and its organizer as the first
// participant inside one transaction.  The generated ID and the
// database-populated defaults are written back onto ev.  When another
// active event already holds the slot, ErrSlotTaken is returned and
// nothing is inserted.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO events (field_id, event_date, time_slot, title, organizer_id, max_players, is_private, group_id, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		ev.FieldID, ev.Date.Format("2006-01-02"), ev.TimeSlot, ev.Title,
		ev.OrganizerID, ev.MaxPlayers, ev.IsPrivate, ev.GroupID, model.EventStatusOpen)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlotTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)

	// The organizer always participates in their own event.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_participants (event_id, user_id) VALUES (?, ?)`,
		ev.ID, ev.OrganizerID); err != nil {
		return err
	}

	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT id, field_id, event_date, time_slot, title, organizer_id, max_players, is_private, group_id, status, created_at, updated_at
                 FROM events WHERE id = ?`
	if err := scanEvent(tx.QueryRowContext(ctx, sel, ev.ID), ev); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner, ev *model.Event) error {
	var groupID sql.NullInt64
	err := row.Scan(&ev.ID, &ev.FieldID, &ev.Date, &ev.TimeSlot, &ev.Title,
		&ev.OrganizerID, &ev.MaxPlayers, &ev.IsPrivate, &groupID, &ev.Status,
		&ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return err
	}
	if groupID.Valid {
		gid := uint64(groupID.Int64)
		ev.GroupID = &gid
	} else {
		ev.GroupID = nil
	}
	return nil
}

// GetByID fetches a single event.  ErrEventNotFound is returned when
// the id matches no row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT id, field_id, event_date, time_slot, title, organizer_id, max_players, is_private, group_id, status, created_at, updated_at
               FROM events WHERE id = ? LIMIT 1`
	var ev model.Event
	err := scanEvent(r.db.QueryRowContext(ctx, q, id), &ev)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// ListActiveSlots returns the time-slot strings of all active (open or
// full) events for the given field and date.  When excludeID is
// non-zero that event is left out, so an organizer editing an event
// can re-select its current slot.  The result feeds the availability
// resolver's booked set.
func (r *EventRepo) ListActiveSlots(ctx context.Context, fieldID uint64, date time.Time, excludeID uint64) ([]string, error) {
	q := `SELECT time_slot FROM events
          WHERE field_id = ? AND event_date = ? AND status IN ('open','full')`
	args := []interface{}{fieldID, date.Format("2006-01-02")}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// EventDetail is an event joined with its field name and participant
// count, as returned by the listing queries.
type EventDetail struct {
	ID           uint64  `json:"id"`
	FieldID      uint64  `json:"field_id"`
	FieldName    string  `json:"field_name"`
	Date         string  `json:"date"`
	TimeSlot     string  `json:"time_slot"`
	Title        string  `json:"title"`
	OrganizerID  uint64  `json:"organizer_id"`
	MaxPlayers   uint32  `json:"max_players"`
	IsPrivate    bool    `json:"is_private"`
	GroupID      *uint64 `json:"group_id,omitempty"`
	Status       string  `json:"status"`
	Participants uint32  `json:"participants"`
}

const detailSelect = `SELECT e.id, e.field_id, f.name, e.event_date, e.time_slot, e.title,
                             e.organizer_id, e.max_players, e.is_private, e.group_id, e.status,
                             (SELECT COUNT(*) FROM event_participants p WHERE p.event_id = e.id)
                      FROM events e
                      JOIN fields f ON f.id = e.field_id`

func collectDetails(rows *sql.Rows) ([]EventDetail, error) {
	defer rows.Close()
	details := make([]EventDetail, 0)
	for rows.Next() {
		var d EventDetail
		var date time.Time
		var groupID sql.NullInt64
		if err := rows.Scan(&d.ID, &d.FieldID, &d.FieldName, &date, &d.TimeSlot, &d.Title,
			&d.OrganizerID, &d.MaxPlayers, &d.IsPrivate, &groupID, &d.Status, &d.Participants); err != nil {
			return nil, err
		}
		d.Date = date.Format("2006-01-02")
		if groupID.Valid {
			gid := uint64(groupID.Int64)
			d.GroupID = &gid
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ListByFieldAndDate returns the active events on a field for one
// calendar day, ordered by time slot.
func (r *EventRepo) ListByFieldAndDate(ctx context.Context, fieldID uint64, date time.Time) ([]EventDetail, error) {
	q := detailSelect + `
        WHERE e.field_id = ? AND e.event_date = ? AND e.status IN ('open','full')
        ORDER BY e.time_slot`
	rows, err := r.db.QueryContext(ctx, q, fieldID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// ListPublicUpcoming returns public active events within the given
// date range (inclusive), ordered by date then slot.  Private events
// are never exposed here.
func (r *EventRepo) ListPublicUpcoming(ctx context.Context, from, to time.Time) ([]EventDetail, error) {
	q := detailSelect + `
        WHERE e.is_private = 0 AND e.status IN ('open','full')
          AND e.event_date BETWEEN ? AND ?
        ORDER BY e.event_date, e.time_slot`
	rows, err := r.db.QueryContext(ctx, q, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// ListByUser returns every event the user participates in, newest
// date first.  Cancelled events are included so users can see what
// was called off.
func (r *EventRepo) ListByUser(ctx context.Context, userID uint64) ([]EventDetail, error) {
	q := detailSelect + `
        JOIN event_participants me ON me.event_id = e.id AND me.user_id = ?
        ORDER BY e.event_date DESC, e.time_slot`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// ListByGroup returns the active events owned by a group.
func (r *EventRepo) ListByGroup(ctx context.Context, groupID uint64) ([]EventDetail, error) {
	q := detailSelect + `
        WHERE e.group_id = ? AND e.status IN ('open','full')
        ORDER BY e.event_date, e.time_slot`
	rows, err := r.db.QueryContext(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// ParticipantInfo is one participant row joined with the user's
// display name.
type ParticipantInfo struct {
	UserID      uint64 `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Participants lists the participants of an event ordered by join
// time.
func (r *EventRepo) Participants(ctx context.Context, eventID uint64) ([]ParticipantInfo, error) {
	const q = `SELECT p.user_id, u.display_name
               FROM event_participants p
               JOIN users u ON u.id = p.user_id
               WHERE p.event_id = ?
               ORDER BY p.joined_at`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ParticipantInfo, 0)
	for rows.Next() {
		var p ParticipantInfo
		if err := rows.Scan(&p.UserID, &p.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParticipantIDs returns just the user ids of an event's participants,
// used when fanning out notifications.
func (r *EventRepo) ParticipantIDs(ctx context.Context, eventID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM event_participants WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// JoinTx adds a user to an event within the provided transaction.  The
// event row is locked for the duration so the capacity check and the
// status flip cannot race with a concurrent join.  It returns the
// updated participant count and enforces, in order: event exists and
// is open (ErrEventNotFound / ErrConflict), capacity not exceeded
// (ErrEventFull), no duplicate membership (ErrAlreadyJoined).  Group
// membership for private group events is checked by the handler before
// starting the transaction.
func (r *EventRepo) JoinTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64) (uint32, error) {
	const sel = `SELECT status, max_players FROM events WHERE id = ? FOR UPDATE`
	var status string
	var maxPlayers uint32
	err := tx.QueryRowContext(ctx, sel, eventID).Scan(&status, &maxPlayers)
	if err == sql.ErrNoRows {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}
	if status != model.EventStatusOpen {
		if status == model.EventStatusFull {
			return 0, ErrEventFull
		}
		return 0, ErrConflict
	}
	var count uint32
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_participants WHERE event_id = ?`, eventID).Scan(&count); err != nil {
		return 0, err
	}
	if count >= maxPlayers {
		return 0, ErrEventFull
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_participants (event_id, user_id) VALUES (?, ?)`, eventID, userID); err != nil {
		if isDuplicate(err) {
			return 0, ErrAlreadyJoined
		}
		return 0, err
	}
	count++
	if count >= maxPlayers {
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET status = ? WHERE id = ?`, model.EventStatusFull, eventID); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// LeaveTx removes a user from an event within the provided
// transaction and reopens a full event.  The organizer cannot leave
// their own event (ErrForbidden); they cancel it instead.
func (r *EventRepo) LeaveTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64) error {
	const sel = `SELECT organizer_id, status FROM events WHERE id = ? FOR UPDATE`
	var organizerID uint64
	var status string
	err := tx.QueryRowContext(ctx, sel, eventID).Scan(&organizerID, &status)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if organizerID == userID {
		return ErrForbidden
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotMember
	}
	if status == model.EventStatusFull {
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET status = ? WHERE id = ?`, model.EventStatusOpen, eventID); err != nil {
			return err
		}
	}
	return nil
}

// EventUpdate carries the organizer-editable columns of an event.
// Nil pointers leave the corresponding column untouched.
type EventUpdate struct {
	Title      *string
	Date       *time.Time
	TimeSlot   *string
	MaxPlayers *uint32
	IsPrivate  *bool
}

// Update applies a partial update to an event on behalf of its
// organizer.  Moving the event to a slot held by another active event
// returns ErrSlotTaken.  Only open or full events can be edited;
// cancelled and completed ones return ErrConflict.  Shrinking
// MaxPlayers below the current participant count is rejected with
// ErrConflict, and the status is recomputed against the new capacity.
func (r *EventRepo) Update(ctx context.Context, eventID, organizerID uint64, upd EventUpdate) (model.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Event{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var ev model.Event
	const sel = `SELECT id, field_id, event_date, time_slot, title, organizer_id, max_players, is_private, group_id, status, created_at, updated_at
                 FROM events WHERE id = ? FOR UPDATE`
	err = scanEvent(tx.QueryRowContext(ctx, sel, eventID), &ev)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	if ev.OrganizerID != organizerID {
		return model.Event{}, ErrForbidden
	}
	if ev.Status != model.EventStatusOpen && ev.Status != model.EventStatusFull {
		return model.Event{}, ErrConflict
	}

	var count uint32
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_participants WHERE event_id = ?`, eventID).Scan(&count); err != nil {
		return model.Event{}, err
	}

	if upd.Title != nil {
		ev.Title = *upd.Title
	}
	if upd.Date != nil {
		ev.Date = *upd.Date
	}
	if upd.TimeSlot != nil {
		ev.TimeSlot = *upd.TimeSlot
	}
	if upd.MaxPlayers != nil {
		if *upd.MaxPlayers < count {
			return model.Event{}, ErrConflict
		}
		ev.MaxPlayers = *upd.MaxPlayers
	}
	if upd.IsPrivate != nil {
		ev.IsPrivate = *upd.IsPrivate
	}
	// Recompute status against the (possibly new) capacity.
	if count >= ev.MaxPlayers {
		ev.Status = model.EventStatusFull
	} else {
		ev.Status = model.EventStatusOpen
	}

	const updQ = `UPDATE events SET event_date = ?, time_slot = ?, title = ?, max_players = ?, is_private = ?, status = ?
                  WHERE id = ?`
	if _, err := tx.ExecContext(ctx, updQ,
		ev.Date.Format("2006-01-02"), ev.TimeSlot, ev.Title, ev.MaxPlayers, ev.IsPrivate, ev.Status, eventID); err != nil {
		if isDuplicate(err) {
			return model.Event{}, ErrSlotTaken
		}
		return model.Event{}, err
	}
	if err := scanEvent(tx.QueryRowContext(ctx,
		`SELECT id, field_id, event_date, time_slot, title, organizer_id, max_players, is_private, group_id, status, created_at, updated_at
         FROM events WHERE id = ?`, eventID), &ev); err != nil {
		return model.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Event{}, err
	}
	committed = true
	return ev, nil
}

// setStatus transitions an event's lifecycle status on behalf of its
// organizer, releasing the slot when it leaves the active states.
func (r *EventRepo) setStatus(ctx context.Context, eventID, organizerID uint64, to string) error {
	const sel = `SELECT organizer_id, status FROM events WHERE id = ? LIMIT 1`
	var actualOrganizer uint64
	var status string
	err := r.db.QueryRowContext(ctx, sel, eventID).Scan(&actualOrganizer, &status)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if actualOrganizer != organizerID {
		return ErrForbidden
	}
	if status != model.EventStatusOpen && status != model.EventStatusFull {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, `UPDATE events SET status = ? WHERE id = ?`, to, eventID)
	return err
}

// Cancel marks an event cancelled.  Cancelling frees the slot: the
// generated active_slot column becomes NULL, so the grid opens up for
// a new booking.
func (r *EventRepo) Cancel(ctx context.Context, eventID, organizerID uint64) error {
	return r.setStatus(ctx, eventID, organizerID, model.EventStatusCancelled)
}

// Complete marks an event completed after it has been played.
func (r *EventRepo) Complete(ctx context.Context, eventID, organizerID uint64) error {
	return r.setStatus(ctx, eventID, organizerID, model.EventStatusCompleted)
}
