package models

import (
	"time"

	id "docutrack/pkg/domain"
)

// Notification informs one user about a document transition.
//
// Invariants:
//   - Created only as a side effect of a status transition
//   - Read starts false and only moves to true
type Notification struct {
	ID         id.NotificationID `json:"id"`
	UserID     id.UserID         `json:"user_id"`
	DocumentID *id.DocumentID    `json:"document_id,omitempty"`
	Message    string            `json:"message"`
	Read       bool              `json:"read"`
	CreatedAt  time.Time         `json:"created_at"`
}

// MarkRead flips the read flag. It returns false when already read.
func (n *Notification) MarkRead() bool {
	if n.Read {
		return false
	}
	n.Read = true
	return true
}

// Event is the message published for asynchronous delivery.
type Event struct {
	NotificationID id.NotificationID `json:"notification_id"`
	UserID         id.UserID         `json:"user_id"`
	DocumentID     *id.DocumentID    `json:"document_id,omitempty"`
	Message        string            `json:"message"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (n *Notification) Event() Event {
	return Event{
		NotificationID: n.ID,
		UserID:         n.UserID,
		DocumentID:     n.DocumentID,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
}
