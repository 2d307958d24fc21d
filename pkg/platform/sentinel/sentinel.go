// Package sentinel defines the storage-level facts stores report. Services
// match them with errors.Is and translate them into domain errors; they never
// reach HTTP responses directly.
package sentinel

import "errors"

var (
	// ErrNotFound: no user, office, document or notification with that key.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyUsed: a unique key such as a tracking number, office name or
	// user ID is taken.
	ErrAlreadyUsed = errors.New("already used")
	// ErrConflict: the write is blocked by rows that still reference the
	// target, e.g. deleting an office that has members.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the call's arguments cannot be stored as given.
	ErrInvalidState = errors.New("invalid state")
)
