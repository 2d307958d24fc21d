package models

import (
	"strings"

	dErrors "docutrack/pkg/domain-errors"
)

// Status is the position of a document in its lifecycle.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusSent      Status = "Sent"
	StatusReceived  Status = "Received"
	StatusForwarded Status = "Forwarded"
	// StatusForApproval is declared for compatibility with stored data but no
	// transition produces it.
	StatusForApproval Status = "For Approval"
	StatusApproved    Status = "Approved"
	StatusReleased    Status = "Released"
	StatusCompleted   Status = "Completed"
	StatusDisapproved Status = "Disapproved"
)

var allStatuses = []Status{
	StatusDraft, StatusSent, StatusReceived, StatusForwarded, StatusForApproval,
	StatusApproved, StatusReleased, StatusCompleted, StatusDisapproved,
}

// Statuses lists every declared status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s Status) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusDisapproved
}

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown status "+v)
	}
	return s, nil
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ParsePriority accepts the three priorities case-insensitively.
func ParsePriority(v string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "priority must be Low, Medium or High")
}

// DeliveryType is informational and never affects routing.
type DeliveryType string

const (
	DeliveryInternal DeliveryType = "Internal"
	DeliveryExternal DeliveryType = "External"
)

func ParseDeliveryType(v string) (DeliveryType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "internal":
		return DeliveryInternal, nil
	case "external":
		return DeliveryExternal, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "delivery type must be Internal or External")
}

const (
	DefaultCategory = "General"
	DefaultPriority = PriorityMedium
)
