// Package seed installs the default offices and users of a fresh
// deployment. Seeding is idempotent: existing records are left alone.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docutrack/internal/directory/models"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
}

type OfficeStore interface {
	CreateIfNameAvailable(ctx context.Context, office *models.Office) error
}

var Offices = []string{
	"Cashier Section",
	"Records Section",
	"SGOD Section",
	"HR Section",
	"Accounting Section",
}

// userNamespace derives stable IDs so seeded users keep their identity across
// restarts of the in-memory stack.
var userNamespace = uuid.MustParse("6f1c7d2e-3a0b-4f7e-9a57-7d1f0c2b9e41")

type defaultUser struct {
	name     string
	position string
	office   string
	role     models.Role
}

var users = []defaultUser{
	{"Richard", "Clerk", "Cashier Section", models.RoleStaff},
	{"Josh", "Records Officer", "Records Section", models.RoleAdmin},
	{"Daisy", "Chief", "SGOD Section", models.RoleApprover},
	{"System Administrator", "Administrator", "Records Section", models.RoleSuperAdmin},
}

// UserID returns the ID a seeded user is created with.
func UserID(name string) id.UserID {
	return id.UserID(uuid.NewSHA1(userNamespace, []byte(name)))
}

// Defaults creates the default offices, then the default users.
func Defaults(ctx context.Context, offices OfficeStore, userStore UserStore, logger *slog.Logger) error {
	created := 0
	now := time.Now()
	for _, name := range Offices {
		office, err := models.NewOffice(name, now)
		if err != nil {
			return err
		}
		switch err := offices.CreateIfNameAvailable(ctx, office); {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
		case err != nil:
			return fmt.Errorf("seed office %q: %w", name, err)
		default:
			created++
		}
	}

	for _, du := range users {
		u, err := models.NewUser(UserID(du.name), du.name, du.position, du.office, du.role)
		if err != nil {
			return err
		}
		switch err := userStore.Create(ctx, u); {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
		case err != nil:
			return fmt.Errorf("seed user %q: %w", du.name, err)
		default:
			created++
		}
	}

	logger.InfoContext(ctx, "seeded default directory", "created", created)
	return nil
}
