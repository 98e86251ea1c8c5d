// Package queue defines message payloads exchanged over the message broker.
package queue

// MatchNotificationEvent is published whenever something happens that
// players should hear about: a group invitation, an edit to an event
// they joined, or a cancellation. It carries the recipient list and the
// rendered message so the consumer can persist notification rows
// without querying the primary database.
type MatchNotificationEvent struct {
	Kind       string   `json:"kind"` // group_invite | event_updated | event_cancelled
	Message    string   `json:"message"`
	Recipients []uint64 `json:"recipients"`
	EventID    *uint64  `json:"event_id,omitempty"`
	GroupID    *uint64  `json:"group_id,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}
