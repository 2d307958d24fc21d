package models

import (
	"strings"
	"unicode/utf8"

	dErrors "docutrack/pkg/domain-errors"
)

const (
	maxNameLength      = 100
	maxPositionLength  = 100
	maxAvatarURLLength = 2048
)

// CreateUserRequest is the admin payload for a new user.
type CreateUserRequest struct {
	Name      string `json:"name"`
	Position  string `json:"position"`
	Office    string `json:"office"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

func (r *CreateUserRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Position = strings.TrimSpace(r.Position)
	r.Office = strings.TrimSpace(r.Office)
	r.Role = strings.TrimSpace(r.Role)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
}

// Follows validation order: Size -> Required -> Semantic.
func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSizes(r.Name, r.Position, r.AvatarURL); err != nil {
		return err
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Office == "" {
		return dErrors.New(dErrors.CodeValidation, "office is required")
	}
	if r.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if _, err := ParseRole(r.Role); err != nil {
		return err
	}
	return nil
}

// UpdateUserRequest is the admin payload for editing a user. Nil fields are
// left unchanged.
type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty"`
	Position  *string `json:"position,omitempty"`
	Office    *string `json:"office,omitempty"`
	Role      *string `json:"role,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (r *UpdateUserRequest) Normalize() {
	if r == nil {
		return
	}
	trimPtr(r.Name)
	trimPtr(r.Position)
	trimPtr(r.Office)
	trimPtr(r.Role)
	trimPtr(r.AvatarURL)
}

func (r *UpdateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSizes(deref(r.Name), deref(r.Position), deref(r.AvatarURL)); err != nil {
		return err
	}
	if r.Name != nil && *r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name must not be empty")
	}
	if r.Office != nil && *r.Office == "" {
		return dErrors.New(dErrors.CodeValidation, "office must not be empty")
	}
	if r.Role != nil {
		if _, err := ParseRole(*r.Role); err != nil {
			return err
		}
	}
	return nil
}

// ProfileUpdate is a user's edit of their own profile. Role and office are
// not editable here.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	Position  *string `json:"position,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (r *ProfileUpdate) Normalize() {
	if r == nil {
		return
	}
	trimPtr(r.Name)
	trimPtr(r.Position)
	trimPtr(r.AvatarURL)
}

func (r *ProfileUpdate) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSizes(deref(r.Name), deref(r.Position), deref(r.AvatarURL)); err != nil {
		return err
	}
	if r.Name != nil && *r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name must not be empty")
	}
	return nil
}

type CreateOfficeRequest struct {
	Name string `json:"name"`
}

func (r *CreateOfficeRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateOfficeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if utf8.RuneCountInString(r.Name) > maxOfficeNameLength {
		return dErrors.New(dErrors.CodeValidation, "office name must be 100 characters or less")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "office name is required")
	}
	return nil
}

func validateSizes(name, position, avatarURL string) error {
	if utf8.RuneCountInString(name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 100 characters or less")
	}
	if utf8.RuneCountInString(position) > maxPositionLength {
		return dErrors.New(dErrors.CodeValidation, "position must be 100 characters or less")
	}
	if len(avatarURL) > maxAvatarURLLength {
		return dErrors.New(dErrors.CodeValidation, "avatar_url is too long")
	}
	return nil
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
