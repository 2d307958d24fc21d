package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	dirmodels "docutrack/internal/directory/models"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
)

// UnknownSenderName is displayed when the sender has been deleted.
const UnknownSenderName = "Unknown User"

const maxTitleLength = 200

// Document is the aggregate root of the tracking workflow.
//
// Invariants:
//   - ID and TrackingNumber are immutable after construction
//   - History is newest first and never empty once created
//   - UpdatedAt always equals History[0].Timestamp
//   - Status, RecipientOffice and History change only through the lifecycle engine
//   - Sender may be nil after the sending user is deleted
type Document struct {
	ID              id.DocumentID   `json:"id"`
	TrackingNumber  string          `json:"tracking_number"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Priority        Priority        `json:"priority"`
	DeliveryType    DeliveryType    `json:"delivery_type"`
	Status          Status          `json:"status"`
	Sender          *dirmodels.User `json:"sender"`
	RecipientOffice string          `json:"recipient_office"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	History         History         `json:"history"`
}

// Draft collects the caller-supplied fields of a new document.
type Draft struct {
	Title           string
	Description     string
	Category        string
	Priority        Priority
	DeliveryType    DeliveryType
	RecipientOffice string
}

// NewDocument builds a Draft document with its "Created" history entry.
func NewDocument(docID id.DocumentID, trackingNumber string, d Draft, sender *dirmodels.User, entryID string, now time.Time) (*Document, error) {
	if sender == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document sender is required")
	}
	doc := &Document{
		ID:              docID,
		TrackingNumber:  trackingNumber,
		Title:           strings.TrimSpace(d.Title),
		Description:     strings.TrimSpace(d.Description),
		Category:        strings.TrimSpace(d.Category),
		Priority:        d.Priority,
		DeliveryType:    d.DeliveryType,
		Status:          StatusDraft,
		Sender:          sender.Snapshot(),
		RecipientOffice: strings.TrimSpace(d.RecipientOffice),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if doc.Category == "" {
		doc.Category = DefaultCategory
	}
	if doc.Priority == "" {
		doc.Priority = DefaultPriority
	}
	if doc.DeliveryType == "" {
		doc.DeliveryType = DeliveryInternal
	}
	if err := doc.validateFields(); err != nil {
		return nil, err
	}
	doc.History = NewHistory(HistoryEntry{
		ID:        entryID,
		Timestamp: now,
		Action:    ActionCreated,
		User:      *sender.Snapshot(),
		Office:    sender.Office,
		Remarks:   "Document created",
	})
	return doc, nil
}

func (d *Document) validateFields() error {
	if d.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "document id is required")
	}
	if d.TrackingNumber == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "tracking number is required")
	}
	if d.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if utf8.RuneCountInString(d.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if d.RecipientOffice == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient office is required")
	}
	if !d.Priority.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "priority must be Low, Medium or High")
	}
	return nil
}

// CanEditDraft checks that userID may edit the document's draft fields.
func (d *Document) CanEditDraft(userID id.UserID) error {
	if d.Status != StatusDraft {
		return dErrors.New(dErrors.CodeNotPermitted, "only drafts can be edited")
	}
	if !d.IsSentBy(userID) {
		return dErrors.New(dErrors.CodeNotPermitted, "only the sender can edit a draft")
	}
	return nil
}

// ApplyDraftEdit replaces the editable fields. Status, history and UpdatedAt
// are untouched. Call CanEditDraft first.
func (d *Document) ApplyDraftEdit(edit Draft) error {
	next := *d
	next.Title = strings.TrimSpace(edit.Title)
	next.Description = strings.TrimSpace(edit.Description)
	next.Category = strings.TrimSpace(edit.Category)
	next.Priority = edit.Priority
	next.DeliveryType = edit.DeliveryType
	next.RecipientOffice = strings.TrimSpace(edit.RecipientOffice)
	if next.Category == "" {
		next.Category = d.Category
	}
	if next.Priority == "" {
		next.Priority = d.Priority
	}
	if next.DeliveryType == "" {
		next.DeliveryType = d.DeliveryType
	}
	if err := next.validateFields(); err != nil {
		return err
	}
	*d = next
	return nil
}

// IsSentBy reports whether userID is the document's sender. A cleared sender
// matches nobody.
func (d *Document) IsSentBy(userID id.UserID) bool {
	return d.Sender != nil && d.Sender.ID == userID
}

func (d *Document) SenderName() string {
	if d.Sender == nil {
		return UnknownSenderName
	}
	return d.Sender.Name
}

// LastOffice is the office recorded on history[0], the office that most
// recently handled the document.
func (d *Document) LastOffice() string {
	latest, ok := d.History.Latest()
	if !ok {
		return ""
	}
	return latest.Office
}

// Clone returns a copy that shares nothing mutable with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Sender = d.Sender.Snapshot()
	c.History = NewHistory(d.History.Entries()...)
	return &c
}

// FormatTrackingNumber renders the human-typable tracking number used for
// QR and manual lookup.
func FormatTrackingNumber(now time.Time, serial int) string {
	return fmt.Sprintf("TDC-%04d-%02d-%05d", now.Year(), int(now.Month()), serial)
}
