package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,OfficeStore,SenderCleaner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docutrack/internal/directory/models"
	"docutrack/internal/directory/service/mocks"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/httputil"
	"docutrack/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	users   *mocks.MockUserStore
	offices *mocks.MockOfficeStore
	senders *mocks.MockSenderCleaner
	service *Service

	superAdmin *models.User
	staff      *models.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.offices = mocks.NewMockOfficeStore(s.ctrl)
	s.senders = mocks.NewMockSenderCleaner(s.ctrl)
	s.service = New(s.users, s.offices, s.senders,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	s.superAdmin = &models.User{ID: id.UserID(uuid.New()), Name: "System Administrator", Office: "Records Section", Role: models.RoleSuperAdmin}
	s.staff = &models.User{ID: id.UserID(uuid.New()), Name: "Richard", Office: "Cashier Section", Role: models.RoleStaff}
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestRoleGate() {
	ctx := context.Background()

	s.Run("staff cannot administer users", func() {
		_, err := s.service.CreateUser(ctx, s.staff, &models.CreateUserRequest{Name: "X", Office: "HR Section", Role: "Staff"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin is not super admin", func() {
		admin := &models.User{ID: id.UserID(uuid.New()), Name: "Josh", Office: "Records Section", Role: models.RoleAdmin}
		err := s.service.DeleteOffice(ctx, admin, "HR Section")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("no session", func() {
		_, err := s.service.AddOffice(ctx, nil, &models.CreateOfficeRequest{Name: "Legal"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestCreateUser() {
	ctx := context.Background()

	s.Run("creates user in existing office", func() {
		s.offices.EXPECT().Exists(gomock.Any(), "HR Section").Return(true, nil)
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
			s.Equal("Hana", u.Name)
			s.Equal(models.RoleApprover, u.Role)
			return nil
		})

		u, err := s.service.CreateUser(ctx, s.superAdmin, &models.CreateUserRequest{
			Name: " Hana ", Position: "Chief", Office: "HR Section", Role: "Approver",
		})
		s.Require().NoError(err)
		s.False(u.ID.IsNil())
	})

	s.Run("unknown office is a validation error", func() {
		s.offices.EXPECT().Exists(gomock.Any(), "Nowhere").Return(false, nil)
		_, err := s.service.CreateUser(ctx, s.superAdmin, &models.CreateUserRequest{Name: "Hana", Office: "Nowhere", Role: "Staff"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown role is rejected before any lookup", func() {
		_, err := s.service.CreateUser(ctx, s.superAdmin, &models.CreateUserRequest{Name: "Hana", Office: "HR Section", Role: "Owner"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestUpdateUser() {
	ctx := context.Background()
	target := &models.User{ID: id.UserID(uuid.New()), Name: "Daisy", Office: "SGOD Section", Role: models.RoleApprover}

	s.Run("moves user to another office", func() {
		s.users.EXPECT().FindByID(gomock.Any(), target.ID).Return(target.Snapshot(), nil)
		s.offices.EXPECT().Exists(gomock.Any(), "HR Section").Return(true, nil)
		s.users.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		office := "HR Section"
		u, err := s.service.UpdateUser(ctx, s.superAdmin, target.ID, &models.UpdateUserRequest{Office: &office})
		s.Require().NoError(err)
		s.Equal("HR Section", u.Office)
		s.Equal("Daisy", u.Name)
	})

	s.Run("missing user", func() {
		s.users.EXPECT().FindByID(gomock.Any(), target.ID).Return(nil, sentinel.ErrNotFound)
		name := "New"
		_, err := s.service.UpdateUser(ctx, s.superAdmin, target.ID, &models.UpdateUserRequest{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDeleteUser() {
	ctx := context.Background()
	target := &models.User{ID: id.UserID(uuid.New()), Name: "Richard", Office: "Cashier Section", Role: models.RoleStaff}

	s.Run("clears sender then deletes", func() {
		gomock.InOrder(
			s.users.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil),
			s.senders.EXPECT().ClearSender(gomock.Any(), target.ID).Return(3, nil),
			s.users.EXPECT().Delete(gomock.Any(), target.ID).Return(nil),
		)
		s.Require().NoError(s.service.DeleteUser(ctx, s.superAdmin, target.ID))
	})

	s.Run("clear failure leaves the user in place", func() {
		s.users.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil)
		s.senders.EXPECT().ClearSender(gomock.Any(), target.ID).Return(0, errors.New("db down"))
		err := s.service.DeleteUser(ctx, s.superAdmin, target.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("unknown user", func() {
		s.users.EXPECT().FindByID(gomock.Any(), target.ID).Return(nil, sentinel.ErrNotFound)
		err := s.service.DeleteUser(ctx, s.superAdmin, target.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUpdateProfile() {
	ctx := context.Background()

	s.Run("edits name position and avatar only", func() {
		s.users.EXPECT().FindByID(gomock.Any(), s.staff.ID).Return(s.staff.Snapshot(), nil)
		s.users.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		name, avatar := "Richard D.", "https://cdn.example.com/a.png"
		u, err := s.service.UpdateProfile(ctx, s.staff, &models.ProfileUpdate{Name: &name, AvatarURL: &avatar})
		s.Require().NoError(err)
		s.Equal("Richard D.", u.Name)
		s.Equal(avatar, u.AvatarURL)
		s.Equal(models.RoleStaff, u.Role)
		s.Equal("Cashier Section", u.Office)
	})

	s.Run("empty name rejected", func() {
		empty := "  "
		_, err := s.service.UpdateProfile(ctx, s.staff, &models.ProfileUpdate{Name: &empty})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestAddOffice() {
	ctx := context.Background()

	s.Run("trims the name", func() {
		s.offices.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o *models.Office) error {
			s.Equal("Legal Section", o.Name)
			return nil
		})
		o, err := s.service.AddOffice(ctx, s.superAdmin, &models.CreateOfficeRequest{Name: "  Legal Section "})
		s.Require().NoError(err)
		s.Equal("Legal Section", o.Name)
	})

	s.Run("duplicate ignoring case is a conflict", func() {
		s.offices.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		_, err := s.service.AddOffice(ctx, s.superAdmin, &models.CreateOfficeRequest{Name: "hr section"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("empty name", func() {
		_, err := s.service.AddOffice(ctx, s.superAdmin, &models.CreateOfficeRequest{Name: "   "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestDeleteOffice() {
	ctx := context.Background()

	s.Run("office in use reports blocking users", func() {
		s.users.EXPECT().CountByOffice(gomock.Any(), "SGOD Section").Return(2, nil)

		err := s.service.DeleteOffice(ctx, s.superAdmin, "SGOD Section")
		var inUse *models.OfficeInUseError
		s.Require().ErrorAs(err, &inUse)
		s.Equal(2, inUse.BlockingUsers)
		s.True(dErrors.HasCode(err, dErrors.CodeReferentialConflict))
		s.Equal(409, httputil.StatusFor(dErrors.CodeOf(err)))
	})

	s.Run("unused office is deleted", func() {
		s.users.EXPECT().CountByOffice(gomock.Any(), "Legal Section").Return(0, nil)
		s.offices.EXPECT().Delete(gomock.Any(), "Legal Section").Return(nil)
		s.NoError(s.service.DeleteOffice(ctx, s.superAdmin, "Legal Section"))
	})

	s.Run("unknown office", func() {
		s.users.EXPECT().CountByOffice(gomock.Any(), "Nowhere").Return(0, nil)
		s.offices.EXPECT().Delete(gomock.Any(), "Nowhere").Return(sentinel.ErrNotFound)
		s.True(dErrors.HasCode(s.service.DeleteOffice(ctx, s.superAdmin, "Nowhere"), dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestOfficeNames() {
	s.offices.EXPECT().List(gomock.Any()).Return([]*models.Office{{Name: "SGOD Section"}, {Name: "Cashier Section"}}, nil)
	names, err := s.service.OfficeNames(context.Background())
	s.Require().NoError(err)
	s.Equal([]string{"Cashier Section", "SGOD Section"}, names)
}
