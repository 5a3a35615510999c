// Package credential manages user and admin accounts.
package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

// Account is the public view of a stored user.
type Account struct {
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	Protected bool        `json:"protected,omitempty"` // super-admin: cannot be edited or deleted
}

type Store struct {
	users repository.UserRepositoryI
	log   logrus.FieldLogger
}

func NewStore(users repository.UserRepositoryI, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{users: users, log: log}
}

// Register creates a new account with the given role.
func (s *Store) Register(ctx context.Context, username, password string, role models.Role) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user %q: %w", username, errs.ErrAlreadyExists)
	}
	if _, err := s.users.Create(ctx, username, HashPassword(password), role); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user": username, "role": role}).Info("account registered")
	return nil
}

// Authenticate reports whether the password matches and the account holds expected.
func (s *Store) Authenticate(ctx context.Context, username, password string, expected models.Role) (bool, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return u.PasswordHash == HashPassword(password) && u.Role == expected, nil
}

// Delete removes an account. The super-admin cannot be removed.
func (s *Store) Delete(ctx context.Context, username string) error {
	if username == models.SuperAdminUsername {
		return fmt.Errorf("delete %q: %w", username, errs.ErrForbidden)
	}
	if err := s.users.Delete(ctx, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %q: %w", username, errs.ErrNotFound)
		}
		return err
	}
	s.log.WithField("user", username).Info("account deleted")
	return nil
}

// Edit overwrites the password and role of an account. The super-admin cannot be edited.
func (s *Store) Edit(ctx context.Context, username, newPassword string, newRole models.Role) error {
	if username == models.SuperAdminUsername {
		return fmt.Errorf("edit %q: %w", username, errs.ErrForbidden)
	}
	if err := s.users.Update(ctx, username, HashPassword(newPassword), newRole); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %q: %w", username, errs.ErrNotFound)
		}
		return err
	}
	s.log.WithFields(logrus.Fields{"user": username, "role": newRole}).Info("account edited")
	return nil
}

// ListAll returns every account in creation order.
func (s *Store) ListAll(ctx context.Context) ([]Account, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, Account{Username: u.Username, Role: u.Role, Protected: u.IsSuperAdmin()})
	}
	return out, nil
}

// Lookup returns the stored user or nil when absent.
func (s *Store) Lookup(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// Restore inserts an account with a precomputed hash. Existing usernames are left untouched
// and reported as false.
func (s *Store) Restore(ctx context.Context, username string, hash uint64, role models.Role) (bool, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if _, err := s.users.Create(ctx, username, hash, role); err != nil {
		return false, err
	}
	return true, nil
}

// Users returns the full stored records, hashes included. Used by export.
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// EnsureSuperAdmin seeds the built-in administrator when it is missing.
// An existing super-admin keeps its stored password.
func (s *Store) EnsureSuperAdmin(ctx context.Context, password string) error {
	if password == "" {
		password = models.DefaultSuperAdminPassword
	}
	existing, err := s.users.GetByUsername(ctx, models.SuperAdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			return fmt.Errorf("super-admin %q is stored with role %s", models.SuperAdminUsername, existing.Role)
		}
		return nil
	}
	if _, err := s.users.Create(ctx, models.SuperAdminUsername, HashPassword(password), models.RoleAdmin); err != nil {
		return err
	}
	s.log.WithField("user", models.SuperAdminUsername).Info("super-admin seeded")
	return nil
}
