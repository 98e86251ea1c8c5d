package repository

import (
	"context"
	"database/sql"

	"github.com/pitchside/pitchside/internal/model"
)

// NotificationRepo provides access to the per-user notifications
// written by the queue consumer and read by the notification
// endpoints.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the
// given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts one notification row.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `INSERT INTO notifications (user_id, kind, message, event_id, group_id) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, n.UserID, n.Kind, n.Message, n.EventID, n.GroupID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// CreateForUsers fans one message out to multiple recipients in a
// single multi-row insert.  Passing an empty recipient list has no
// effect and returns nil.
func (r *NotificationRepo) CreateForUsers(ctx context.Context, userIDs []uint64, kind, message string, eventID, groupID *uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	query := `INSERT INTO notifications (user_id, kind, message, event_id, group_id) VALUES `
	args := make([]interface{}, 0, len(userIDs)*5)
	for i, uid := range userIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, uid, kind, message, eventID, groupID)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByUser returns the user's notifications, newest first, limited
// to the most recent 100.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	const q = `SELECT id, user_id, kind, message, event_id, group_id, read_at, created_at
               FROM notifications
               WHERE user_id = ?
               ORDER BY created_at DESC
               LIMIT 100`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		var eventID, groupID sql.NullInt64
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &eventID, &groupID, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if eventID.Valid {
			v := uint64(eventID.Int64)
			n.EventID = &v
		}
		if groupID.Valid {
			v := uint64(groupID.Int64)
			n.GroupID = &v
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead stamps a notification as read on behalf of its recipient.
// Rows belonging to other users are not touched; the caller receives
// sql.ErrNoRows so handlers can answer 404.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE id = ? AND user_id = ? AND read_at IS NULL`,
		notificationID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
