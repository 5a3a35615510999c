package models

import (
	"fmt"
	"strings"
)

// Role distinguishes regular users from administrators.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// SuperAdminUsername is the built-in administrator that can never be deleted or edited.
const SuperAdminUsername = "Chetan"

// DefaultSuperAdminPassword seeds the super-admin when no password is configured.
const DefaultSuperAdminPassword = "123"

// ParseRole accepts "USER" or "ADMIN" in any case.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents an account in the credential store.
// It maps to the `users` table in SQLite.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash uint64 `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`
}

// IsSuperAdmin reports whether u is the protected built-in administrator.
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Username == SuperAdminUsername
}
