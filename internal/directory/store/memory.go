package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"docutrack/internal/directory/models"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
)

// InMemoryUsers is a thread-safe user store. It returns copies so callers
// cannot mutate stored records.
type InMemoryUsers struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{users: make(map[id.UserID]*models.User)}
}

func (s *InMemoryUsers) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryUsers) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return u.Snapshot(), nil
}

func (s *InMemoryUsers) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return fmt.Errorf("user %s: %w", u.ID, sentinel.ErrAlreadyUsed)
	}
	s.users[u.ID] = u.Snapshot()
	return nil
}

func (s *InMemoryUsers) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, sentinel.ErrNotFound)
	}
	s.users[u.ID] = u.Snapshot()
	return nil
}

func (s *InMemoryUsers) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	delete(s.users, userID)
	return nil
}

func (s *InMemoryUsers) CountByOffice(_ context.Context, office string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if models.SameOffice(u.Office, office) {
			n++
		}
	}
	return n, nil
}

// InMemoryOffices keys offices by their case-folded name.
type InMemoryOffices struct {
	mu      sync.RWMutex
	offices map[string]*models.Office
}

func NewInMemoryOffices() *InMemoryOffices {
	return &InMemoryOffices{offices: make(map[string]*models.Office)}
}

func officeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *InMemoryOffices) List(_ context.Context) ([]*models.Office, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Office, 0, len(s.offices))
	for _, o := range s.offices {
		c := *o
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryOffices) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offices[officeKey(name)]
	return ok && o.Name == strings.TrimSpace(name), nil
}

// CreateIfNameAvailable rejects names that collide case-insensitively.
func (s *InMemoryOffices) CreateIfNameAvailable(_ context.Context, office *models.Office) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := officeKey(office.Name)
	if _, exists := s.offices[key]; exists {
		return fmt.Errorf("office %q: %w", office.Name, sentinel.ErrAlreadyUsed)
	}
	c := *office
	s.offices[key] = &c
	return nil
}

func (s *InMemoryOffices) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := officeKey(name)
	if _, ok := s.offices[key]; !ok {
		return fmt.Errorf("office %q: %w", name, sentinel.ErrNotFound)
	}
	delete(s.offices, key)
	return nil
}
