// Package visibility decides which documents an actor may see.
package visibility

import (
	"strings"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/document/models"
)

// CanSee reports whether actor may see doc.
//
// A Super Admin sees everything. Anyone else sees documents they sent and
// documents addressed to their office once received: a Sent document stays
// hidden from the destination office until someone there receives it, and a
// Draft is visible to its sender alone.
func CanSee(doc *models.Document, actor *dirmodels.User) bool {
	if doc == nil || actor == nil {
		return false
	}
	if actor.IsSuperAdmin() {
		return true
	}
	if doc.IsSentBy(actor.ID) {
		return true
	}
	if doc.Status == models.StatusDraft || doc.Status == models.StatusSent {
		return false
	}
	return doc.RecipientOffice == actor.Office
}

// Matches reports whether doc matches a free-text query over title,
// description, tracking number and sender name. An empty query matches all.
func Matches(doc *models.Document, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	fields := []string{doc.Title, doc.Description, doc.TrackingNumber}
	if doc.Sender != nil {
		fields = append(fields, doc.Sender.Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Filter returns the documents actor may see that match query, in input
// order. A nil actor sees nothing.
func Filter(docs []*models.Document, actor *dirmodels.User, query string) []*models.Document {
	out := make([]*models.Document, 0, len(docs))
	if actor == nil {
		return out
	}
	for _, doc := range docs {
		if CanSee(doc, actor) && Matches(doc, query) {
			out = append(out, doc)
		}
	}
	return out
}
