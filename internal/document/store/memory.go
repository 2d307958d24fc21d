package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/document/models"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
)

// SenderLookup resolves the current record of a document's sender.
type SenderLookup interface {
	FindByID(ctx context.Context, userID id.UserID) (*dirmodels.User, error)
}

// InMemoryDocuments is a thread-safe document store indexed by ID and
// tracking number. It stores and returns clones.
//
// Reads replace the stored sender with the user's current record from
// senders, and with nil once that user is gone. A nil lookup returns the
// sender as it was when the document was written.
type InMemoryDocuments struct {
	mu         sync.RWMutex
	docs       map[id.DocumentID]*models.Document
	byTracking map[string]id.DocumentID
	senders    SenderLookup
}

func NewInMemoryDocuments(senders SenderLookup) *InMemoryDocuments {
	return &InMemoryDocuments{
		docs:       make(map[id.DocumentID]*models.Document),
		byTracking: make(map[string]id.DocumentID),
		senders:    senders,
	}
}

func (s *InMemoryDocuments) List(ctx context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	out := make([]*models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d.Clone())
	}
	s.mu.RUnlock()
	if err := s.resolveSenders(ctx, out...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InMemoryDocuments) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	d, ok := s.docs[docID]
	if ok {
		d = d.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	if err := s.resolveSenders(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *InMemoryDocuments) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Document, error) {
	s.mu.RLock()
	docID, ok := s.byTracking[trackingNumber]
	var d *models.Document
	if ok {
		d = s.docs[docID].Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tracking number %q: %w", trackingNumber, sentinel.ErrNotFound)
	}
	if err := s.resolveSenders(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// resolveSenders looks each sender up at most once per call.
func (s *InMemoryDocuments) resolveSenders(ctx context.Context, docs ...*models.Document) error {
	if s.senders == nil {
		return nil
	}
	current := make(map[id.UserID]*dirmodels.User)
	for _, d := range docs {
		if d.Sender == nil {
			continue
		}
		senderID := d.Sender.ID
		u, seen := current[senderID]
		if !seen {
			var err error
			u, err = s.senders.FindByID(ctx, senderID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("resolve sender %s: %w", senderID, err)
			}
			current[senderID] = u
		}
		d.Sender = u.Snapshot()
	}
	return nil
}

// Create rejects a reused ID or tracking number with sentinel.ErrAlreadyUsed.
func (s *InMemoryDocuments) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrAlreadyUsed)
	}
	if _, exists := s.byTracking[doc.TrackingNumber]; exists {
		return fmt.Errorf("tracking number %q: %w", doc.TrackingNumber, sentinel.ErrAlreadyUsed)
	}
	s.docs[doc.ID] = doc.Clone()
	s.byTracking[doc.TrackingNumber] = doc.ID
	return nil
}

// Replace overwrites the stored snapshot. The tracking number is immutable
// so the index is left alone.
func (s *InMemoryDocuments) Replace(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[doc.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrNotFound)
	}
	next := doc.Clone()
	next.TrackingNumber = existing.TrackingNumber
	s.docs[doc.ID] = next
	return nil
}

// ClearSender detaches userID from every document it sent and reports how
// many documents changed. History entries are left as recorded.
func (s *InMemoryDocuments) ClearSender(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.docs {
		if d.IsSentBy(userID) {
			d.Sender = nil
			n++
		}
	}
	return n, nil
}
