package models

import (
	"encoding/json"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var Roles = []string{RoleAdmin, RoleUser}

type User struct {
	ID           int        `json:"id"`
	Nom          string     `json:"nom"`
	Prenom       string     `json:"prenom"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	Role         string     `json:"role"`
	Permissions  []string   `json:"permissions"` // legacy page list, derived from user_page_permissions
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// RegisterRequest is the body of /auth/register and /auth/create-admin
type RegisterRequest struct {
	Nom      string `json:"nom" validate:"required,max=100"`
	Prenom   string `json:"prenom" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token       string                `json:"token"`
	User        *User                 `json:"user"`
	Permissions []EffectivePermission `json:"permissions"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// CreateUserRequest carries the legacy permissions field untyped: historical
// clients send it as an array, a JSON string, a comma list or an object.
type CreateUserRequest struct {
	Nom         string          `json:"nom" validate:"required,max=100"`
	Prenom      string          `json:"prenom" validate:"required,max=100"`
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=8"`
	Role        string          `json:"role" validate:"omitempty,oneof=admin user"`
	Permissions json.RawMessage `json:"permissions,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// UpdateUserRequest only touches the fields present in the body
type UpdateUserRequest struct {
	Nom         *string         `json:"nom,omitempty" validate:"omitempty,max=100"`
	Prenom      *string         `json:"prenom,omitempty" validate:"omitempty,max=100"`
	Email       *string         `json:"email,omitempty" validate:"omitempty,email"`
	Password    *string         `json:"password,omitempty" validate:"omitempty,min=8"`
	Role        *string         `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
	Permissions json.RawMessage `json:"permissions,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
}
