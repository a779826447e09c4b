package model

import "time"

// Role is the kind of account a profile holds.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEducator Role = "EDUCADOR"
	RoleGuardian Role = "RESPONSAVEL"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEducator, RoleGuardian:
		return true
	}
	return false
}

// Profile is a staff member or guardian account.
type Profile struct {
	ID            int       `json:"id"`
	InstitutionID int       `json:"institution_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Role          Role      `json:"role"`
	PasswordHash  string    `json:"-"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileFilter narrows profile listings.
type ProfileFilter struct {
	Role   Role
	Search string
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token       string   `json:"token"`
	Profile     Profile  `json:"profile"`
	Permissions []string `json:"permissions"`
}

// ChangePasswordRequest is the payload for changing one's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,min=6,max=128"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=128,nefield=CurrentPassword"`
}

// CreateProfileRequest is the payload for creating a staff or guardian account.
type CreateProfileRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Role     Role   `json:"role" binding:"required,oneof=ADMIN EDUCADOR RESPONSAVEL"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateProfileRequest is the payload for updating an account. An empty password keeps the current one.
type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Role     Role   `json:"role" binding:"required,oneof=ADMIN EDUCADOR RESPONSAVEL"`
	Password string `json:"password" binding:"omitempty,min=6,max=128"`
	Active   *bool  `json:"active"`
}

// Viewer identifies the authenticated caller on whose behalf a service acts.
type Viewer struct {
	ProfileID     int
	InstitutionID int
	Role          Role
}

// IsGuardian reports whether the viewer only sees their own children.
func (v Viewer) IsGuardian() bool {
	return v.Role == RoleGuardian
}
