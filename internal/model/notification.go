package model

import "time"

// Notification kinds produced by the queue consumer.
const (
	NotificationInvite    = "group_invite"
	NotificationUpdated   = "event_updated"
	NotificationCancelled = "event_cancelled"
)

// Notification is a per-user message about an invitation, an event
// update or a cancellation.  Rows are written by the background queue
// consumer and read by the notifications endpoints.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – recipient of the notification.
//  Kind      – one of the Notification* constants.
//  Message   – human-readable body.
//  EventID   – related event (nullable).
//  GroupID   – related group (nullable).
//  ReadAt    – when the user marked it read (null while unread).
//  CreatedAt – creation timestamp.
type Notification struct {
	ID        uint64     // notifications.id
	UserID    uint64     // notifications.user_id
	Kind      string     // notifications.kind
	Message   string     // notifications.message
	EventID   *uint64    // notifications.event_id (nullable)
	GroupID   *uint64    // notifications.group_id (nullable)
	ReadAt    *time.Time // notifications.read_at (nullable)
	CreatedAt time.Time  // notifications.created_at
}
