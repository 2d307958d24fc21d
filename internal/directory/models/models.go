package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
)

// Role is drawn from an ordered permission set.
type Role string

const (
	RoleStaff      Role = "Staff"
	RoleApprover   Role = "Approver"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "Super Admin"
)

var roleRank = map[Role]int{
	RoleStaff:      1,
	RoleApprover:   2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// ParseRole validates a role name at trust boundaries.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if _, ok := roleRank[r]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the permissions of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other] && roleRank[other] > 0
}

// User is an actor in the workflow.
//
// Invariants:
//   - Name and Office are non-empty
//   - Office names an existing office (enforced by the directory service)
//   - Role is one of the four known roles
type User struct {
	ID        id.UserID `json:"id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Office    string    `json:"office"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

func NewUser(userID id.UserID, name, position, office string, role Role) (*User, error) {
	u := &User{
		ID:       userID,
		Name:     strings.TrimSpace(name),
		Position: strings.TrimSpace(position),
		Office:   strings.TrimSpace(office),
		Role:     role,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Validate() error {
	if u.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "user id is required")
	}
	if u.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "user name is required")
	}
	if u.Office == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "user office is required")
	}
	if !u.Role.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "user role is invalid")
	}
	return nil
}

func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

// Snapshot returns a detached copy, as recorded on history entries.
func (u *User) Snapshot() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

const maxOfficeNameLength = 100

// Office is a name-keyed organizational unit. Documents reference offices by
// name, so the name is the identity.
type Office struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewOffice(name string, now time.Time) (*Office, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "office name is required")
	}
	if utf8.RuneCountInString(name) > maxOfficeNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "office name must be 100 characters or less")
	}
	return &Office{Name: name, CreatedAt: now}, nil
}

// SameOffice compares office names the way uniqueness is enforced:
// trimmed and case-insensitive.
func SameOffice(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// OfficeInUseError rejects deletion of an office that still has users.
type OfficeInUseError struct {
	Office        string
	BlockingUsers int
}

func (e *OfficeInUseError) Error() string {
	return fmt.Sprintf("office %q has %d assigned user(s)", e.Office, e.BlockingUsers)
}

func (e *OfficeInUseError) Unwrap() error {
	return dErrors.New(dErrors.CodeReferentialConflict,
		fmt.Sprintf("cannot delete office %q: %d user(s) are still assigned to it", e.Office, e.BlockingUsers))
}

func (e *OfficeInUseError) ErrorDetails() map[string]any {
	return map[string]any{"blocking_users": e.BlockingUsers}
}
