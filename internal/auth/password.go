package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/ivyforms/ivyforms/internal/model"
)

const bcryptCost = 12

// Hash returns a bcrypt hash of the password.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(b), err
}

// Verify reports whether password matches the stored bcrypt hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// UserCreator is the minimal interface needed for seeding the first admin.
type UserCreator interface {
	CountAll(ctx context.Context) (int, error)
	Create(ctx context.Context, u *model.AdminUser, passwordHash string) error
}

type SeedAdmin struct {
	Username string
	Email    string
	Password string
}

// SeedFirstAdmin creates the initial super_admin account if the
// admin_users table is empty. It reports whether an account was created.
func SeedFirstAdmin(ctx context.Context, users UserCreator, seed SeedAdmin) bool {
	if seed.Email == "" || seed.Password == "" {
		return false
	}

	count, err := users.CountAll(ctx)
	if err != nil {
		slog.Error("seed: failed to count admin users", "err", err)
		return false
	}
	if count > 0 {
		return false
	}

	hash, err := Hash(seed.Password)
	if err != nil {
		slog.Error("seed: failed to hash password", "err", err)
		return false
	}

	username := seed.Username
	if username == "" {
		username = "admin"
	}
	u := &model.AdminUser{Username: username, Email: seed.Email, Role: model.RoleSuperAdmin}
	if err := users.Create(ctx, u, hash); err != nil {
		slog.Error("seed: failed to create admin user", "err", err)
		return false
	}
	slog.Info("seed: created first super_admin", "username", u.Username, "email", u.Email)
	return true
}
