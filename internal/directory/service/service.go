// Package service owns users and offices: administration, profile edits and
// the referential guard on office deletion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	dirmetrics "docutrack/internal/directory/metrics"
	"docutrack/internal/directory/models"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/sentinel"
	"docutrack/pkg/platform/tx"
	"docutrack/pkg/requestcontext"
)

type UserStore interface {
	List(ctx context.Context) ([]*models.User, error)
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
	CountByOffice(ctx context.Context, office string) (int, error)
}

type OfficeStore interface {
	List(ctx context.Context) ([]*models.Office, error)
	Exists(ctx context.Context, name string) (bool, error)
	CreateIfNameAvailable(ctx context.Context, office *models.Office) error
	Delete(ctx context.Context, name string) error
}

// SenderCleaner detaches a deleted user from the documents they sent.
type SenderCleaner interface {
	ClearSender(ctx context.Context, userID id.UserID) (int, error)
}

type Service struct {
	users   UserStore
	offices OfficeStore
	senders SenderCleaner
	tx      tx.Runner
	logger  *slog.Logger
	metrics *dirmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *dirmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx sets the unit of work for multi-store writes. Defaults to a lock
// runner suitable for the in-memory stores.
func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

func New(users UserStore, offices OfficeStore, senders SenderCleaner, opts ...Option) *Service {
	s := &Service{users: users, offices: offices, senders: senders}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewLockRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func requireSuperAdmin(actor *models.User) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "a session is required")
	}
	if !actor.IsSuperAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "super admin role required")
	}
	return nil
}

func wrapUserErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
}

// ListUsers returns every user sorted by name. It backs the session picker
// and forward-target lookups, so it is not role gated.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

// CreateUser adds a user to an existing office.
func (s *Service) CreateUser(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role, _ := models.ParseRole(req.Role)

	var created *models.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requireOffice(txCtx, req.Office); err != nil {
			return err
		}
		u, err := models.NewUser(id.UserID(uuid.New()), req.Name, req.Position, req.Office, role)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		u.AvatarURL = req.AvatarURL
		if err := s.users.Create(txCtx, u); err != nil {
			return s.translateUserWrite(err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementUsersCreated()
	s.logger.InfoContext(ctx, "user created",
		"user_id", created.ID.String(),
		"office", created.Office,
		"role", string(created.Role),
		"request_id", requestcontext.RequestID(ctx),
	)
	return created, nil
}

// UpdateUser applies an admin edit. Documents read their sender from the user
// store, so a moved sender is routed to at the new office.
func (s *Service) UpdateUser(ctx context.Context, actor *models.User, userID id.UserID, req *models.UpdateUserRequest) (*models.User, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.users.FindByID(txCtx, userID)
		if err != nil {
			return wrapUserErr(err)
		}
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Position != nil {
			u.Position = *req.Position
		}
		if req.AvatarURL != nil {
			u.AvatarURL = *req.AvatarURL
		}
		if req.Role != nil {
			u.Role, _ = models.ParseRole(*req.Role)
		}
		if req.Office != nil && *req.Office != u.Office {
			if err := s.requireOffice(txCtx, *req.Office); err != nil {
				return err
			}
			u.Office = *req.Office
		}
		if err := u.Validate(); err != nil {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		if err := s.users.Update(txCtx, u); err != nil {
			return s.translateUserWrite(err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user updated",
		"user_id", updated.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// DeleteUser removes the user and clears their sender reference on every
// document in the same unit of work. Documents themselves are kept.
func (s *Service) DeleteUser(ctx context.Context, actor *models.User, userID id.UserID) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}

	detached := 0
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.FindByID(txCtx, userID); err != nil {
			return wrapUserErr(err)
		}
		n, err := s.senders.ClearSender(txCtx, userID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to detach user from documents")
		}
		if err := s.users.Delete(txCtx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
		}
		detached = n
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementUsersDeleted(detached)
	s.logger.InfoContext(ctx, "user deleted",
		"user_id", userID.String(),
		"documents_detached", detached,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// UpdateProfile lets the actor edit their own name, position and avatar.
func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, req *models.ProfileUpdate) (*models.User, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "a session is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Position != nil {
		u.Position = *req.Position
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, s.translateUserWrite(err)
	}
	return u, nil
}

func (s *Service) translateUserWrite(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "user already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user or office not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}
}

func (s *Service) requireOffice(ctx context.Context, name string) error {
	ok, err := s.offices.Exists(ctx, name)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up office")
	}
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "office "+name+" does not exist")
	}
	return nil
}

func (s *Service) ListOffices(ctx context.Context) ([]*models.Office, error) {
	offices, err := s.offices.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list offices")
	}
	return offices, nil
}

// OfficeNames returns the office names in display order.
func (s *Service) OfficeNames(ctx context.Context) ([]string, error) {
	offices, err := s.ListOffices(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(offices))
	for _, o := range offices {
		names = append(names, o.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Service) OfficeExists(ctx context.Context, name string) (bool, error) {
	ok, err := s.offices.Exists(ctx, name)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up office")
	}
	return ok, nil
}

// AddOffice creates an office. Names are trimmed and unique ignoring case.
func (s *Service) AddOffice(ctx context.Context, actor *models.User, req *models.CreateOfficeRequest) (*models.Office, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	office, err := models.NewOffice(req.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.offices.CreateIfNameAvailable(ctx, office); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "office "+office.Name+" already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create office")
	}

	s.metrics.IncrementOfficesCreated()
	s.logger.InfoContext(ctx, "office created",
		"office", office.Name,
		"request_id", requestcontext.RequestID(ctx),
	)
	return office, nil
}

// DeleteOffice removes an office with no assigned users. An office in use
// yields *models.OfficeInUseError and nothing changes.
func (s *Service) DeleteOffice(ctx context.Context, actor *models.User, name string) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		n, err := s.users.CountByOffice(txCtx, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count office users")
		}
		if n > 0 {
			return &models.OfficeInUseError{Office: name, BlockingUsers: n}
		}
		if err := s.offices.Delete(txCtx, name); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "office not found")
			case errors.Is(err, sentinel.ErrConflict):
				return &models.OfficeInUseError{Office: name, BlockingUsers: 1}
			default:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete office")
			}
		}
		s.logger.InfoContext(ctx, "office deleted",
			"office", name,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	})
}
