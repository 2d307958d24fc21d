// Package policy decides who is notified when a document changes status.
package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dirmodels "docutrack/internal/directory/models"
	docmodels "docutrack/internal/document/models"
	"docutrack/internal/notification/models"
	id "docutrack/pkg/domain"
)

const titleLimit = 30

// IDFunc generates notification IDs.
type IDFunc func() id.NotificationID

func newID() id.NotificationID {
	return id.NotificationID(uuid.New())
}

// Policy builds notifications for a transition. It is deterministic given its
// ID source.
type Policy struct {
	newID IDFunc
}

func New(opts ...Option) *Policy {
	p := &Policy{newID: newID}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Option func(*Policy)

func WithIDs(fn IDFunc) Option {
	return func(p *Policy) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// For returns the notifications caused by updated moving from previous to its
// current status under actor. users is the directory used to resolve the
// recipient office's members.
//
// Rule A notifies every member of the recipient office (except the actor)
// when a document arrives as Sent or Forwarded. Rule B notifies the sender,
// when it is someone other than the actor, of progress to Received, Approved,
// Completed or Disapproved. No notification is produced when the status did
// not change.
func (p *Policy) For(updated *docmodels.Document, previous docmodels.Status, actor *dirmodels.User, users []*dirmodels.User, now time.Time) []*models.Notification {
	if updated == nil || actor == nil || updated.Status == previous {
		return nil
	}
	docID := updated.ID
	title := truncate(updated.Title)
	var out []*models.Notification

	if updated.Status == docmodels.StatusSent || updated.Status == docmodels.StatusForwarded {
		msg := fmt.Sprintf("Document \"%s...\" was sent to your office by %s (%s).", title, actor.Name, actor.Office)
		for _, u := range users {
			if u == nil || u.Office != updated.RecipientOffice || u.ID == actor.ID {
				continue
			}
			out = append(out, p.build(u.ID, &docID, msg, now))
		}
	}

	if updated.Sender != nil && updated.Sender.ID != actor.ID {
		if msg, ok := senderMessage(updated.Status, title, actor); ok {
			out = append(out, p.build(updated.Sender.ID, &docID, msg, now))
		}
	}
	return out
}

func senderMessage(status docmodels.Status, title string, actor *dirmodels.User) (string, bool) {
	quoted := "\"" + title + "...\""
	switch status {
	case docmodels.StatusReceived:
		return fmt.Sprintf("Your document %s was received by %s at %s.", quoted, actor.Name, actor.Office), true
	case docmodels.StatusApproved:
		return fmt.Sprintf("Your document %s was approved by %s.", quoted, actor.Name), true
	case docmodels.StatusCompleted:
		return fmt.Sprintf("Your document %s has been marked as completed.", quoted), true
	case docmodels.StatusDisapproved:
		return fmt.Sprintf("Your document %s was disapproved by %s.", quoted, actor.Name), true
	}
	return "", false
}

func (p *Policy) build(userID id.UserID, docID *id.DocumentID, msg string, now time.Time) *models.Notification {
	return &models.Notification{
		ID:         p.newID(),
		UserID:     userID,
		DocumentID: docID,
		Message:    msg,
		CreatedAt:  now,
	}
}

// truncate keeps at most titleLimit runes.
func truncate(title string) string {
	r := []rune(title)
	if len(r) <= titleLimit {
		return title
	}
	return string(r[:titleLimit])
}
