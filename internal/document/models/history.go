package models

import (
	"encoding/json"
	"time"

	dirmodels "docutrack/internal/directory/models"
)

// HistoryAction labels a history entry. The set is closed so clients can group
// and decorate entries by label.
type HistoryAction string

const (
	ActionCreated             HistoryAction = "Created"
	ActionSent                HistoryAction = "Sent"
	ActionReceived            HistoryAction = "Received"
	ActionForwarded           HistoryAction = "Forwarded"
	ActionApproved            HistoryAction = "Approved"
	ActionCompleted           HistoryAction = "Completed"
	ActionReturnedToSender    HistoryAction = "Returned to Sender"
	ActionCancelled           HistoryAction = "Cancel"
	ActionReleased            HistoryAction = "Released"
	ActionTransactionFinished HistoryAction = "Transaction Finished"
)

func (a HistoryAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionSent, ActionReceived, ActionForwarded, ActionApproved,
		ActionCompleted, ActionReturnedToSender, ActionCancelled, ActionReleased,
		ActionTransactionFinished:
		return true
	}
	return false
}

// HistoryEntry records one step of a document's life. Entries are immutable
// once constructed; User is a snapshot of the actor at that moment.
type HistoryEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    HistoryAction  `json:"action"`
	User      dirmodels.User `json:"user"`
	Office    string         `json:"office"`
	Remarks   string         `json:"remarks,omitempty"`
}

// History is an append-only log read newest first. The zero value is empty.
// Entries are never exposed by reference: Entries returns a copy and Prepend
// returns a new History.
type History struct {
	entries []HistoryEntry
}

// NewHistory builds a history from entries already ordered newest first.
func NewHistory(entries ...HistoryEntry) History {
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return History{entries: out}
}

// Prepend returns a new history with e as the most recent entry.
func (h History) Prepend(e HistoryEntry) History {
	out := make([]HistoryEntry, 0, len(h.entries)+1)
	out = append(out, e)
	out = append(out, h.entries...)
	return History{entries: out}
}

func (h History) Len() int {
	return len(h.entries)
}

// Latest returns history[0].
func (h History) Latest() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[0], true
}

// Entries returns a copy of the log, newest first.
func (h History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h History) MarshalJSON() ([]byte, error) {
	if h.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.entries)
}

func (h *History) UnmarshalJSON(b []byte) error {
	var entries []HistoryEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	h.entries = entries
	return nil
}
