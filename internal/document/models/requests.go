package models

import (
	"strings"
	"unicode/utf8"

	dErrors "docutrack/pkg/domain-errors"
)

const (
	maxDescriptionLength = 5000
	maxCategoryLength    = 50
	maxRemarksLength     = 1000
	maxQueryLength       = 200
)

// CreateDocumentRequest is the payload for a new draft. Category and priority
// are optional; when omitted they come from the classifier or the defaults.
type CreateDocumentRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Priority        string `json:"priority"`
	DeliveryType    string `json:"delivery_type"`
	RecipientOffice string `json:"recipient_office"`
}

func (r *CreateDocumentRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	r.Priority = strings.TrimSpace(r.Priority)
	r.DeliveryType = strings.TrimSpace(r.DeliveryType)
	r.RecipientOffice = strings.TrimSpace(r.RecipientOffice)
}

// Follows validation order: Size -> Required -> Semantic.
func (r *CreateDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateDocumentSizes(r.Title, r.Description, r.Category); err != nil {
		return err
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.RecipientOffice == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient office is required")
	}
	return validateEnums(r.Priority, r.DeliveryType)
}

// Draft converts the request into draft fields. Call Validate first.
func (r *CreateDocumentRequest) Draft() Draft {
	d := Draft{
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		RecipientOffice: r.RecipientOffice,
	}
	if r.Priority != "" {
		d.Priority, _ = ParsePriority(r.Priority)
	}
	d.DeliveryType, _ = ParseDeliveryType(r.DeliveryType)
	return d
}

// UpdateDraftRequest replaces the editable fields of a draft. Empty category,
// priority and delivery type keep the current values.
type UpdateDraftRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Priority        string `json:"priority"`
	DeliveryType    string `json:"delivery_type"`
	RecipientOffice string `json:"recipient_office"`
}

func (r *UpdateDraftRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	r.Priority = strings.TrimSpace(r.Priority)
	r.DeliveryType = strings.TrimSpace(r.DeliveryType)
	r.RecipientOffice = strings.TrimSpace(r.RecipientOffice)
}

func (r *UpdateDraftRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateDocumentSizes(r.Title, r.Description, r.Category); err != nil {
		return err
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.RecipientOffice == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient office is required")
	}
	return validateEnums(r.Priority, r.DeliveryType)
}

func (r *UpdateDraftRequest) Draft() Draft {
	d := Draft{
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		RecipientOffice: r.RecipientOffice,
	}
	if r.Priority != "" {
		d.Priority, _ = ParsePriority(r.Priority)
	}
	if r.DeliveryType != "" {
		d.DeliveryType, _ = ParseDeliveryType(r.DeliveryType)
	}
	return d
}

// ActionRequest asks the engine to perform an action on a document.
type ActionRequest struct {
	Action       string `json:"action"`
	TargetOffice string `json:"target_office"`
	Remarks      string `json:"remarks"`
}

func (r *ActionRequest) Normalize() {
	if r == nil {
		return
	}
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.TargetOffice = strings.TrimSpace(r.TargetOffice)
	r.Remarks = strings.TrimSpace(r.Remarks)
}

// Validate checks shape only. Whether the action is known and offered is
// decided by the lifecycle engine.
func (r *ActionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if utf8.RuneCountInString(r.Remarks) > maxRemarksLength {
		return dErrors.New(dErrors.CodeValidation, "remarks must be 1000 characters or less")
	}
	if utf8.RuneCountInString(r.TargetOffice) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "target office is too long")
	}
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	return nil
}

// ListQuery filters the document list.
type ListQuery struct {
	Query string
}

func (q *ListQuery) Normalize() {
	q.Query = strings.TrimSpace(q.Query)
}

func (q *ListQuery) Validate() error {
	if utf8.RuneCountInString(q.Query) > maxQueryLength {
		return dErrors.New(dErrors.CodeValidation, "query must be 200 characters or less")
	}
	return nil
}

func validateDocumentSizes(title, description, category string) error {
	if utf8.RuneCountInString(title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be 5000 characters or less")
	}
	if utf8.RuneCountInString(category) > maxCategoryLength {
		return dErrors.New(dErrors.CodeValidation, "category must be 50 characters or less")
	}
	return nil
}

func validateEnums(priority, delivery string) error {
	if priority != "" {
		if _, err := ParsePriority(priority); err != nil {
			return err
		}
	}
	if _, err := ParseDeliveryType(delivery); err != nil {
		return err
	}
	return nil
}
