package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
)

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, email, first_name, last_name, role, created_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }, extra ...any) (*model.AdminUser, error) {
	var (
		u         model.AdminUser
		role      string
		created   int64
		lastLogin sql.NullInt64
	)
	dest := append([]any{&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &role, &created, &lastLogin}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	u.CreatedAt = fromUnix(created)
	if lastLogin.Valid {
		t := fromUnix(lastLogin.Int64)
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *UserStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.db.conn().queryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, apperr.Query("count admin users", err)
	}
	return n, nil
}

// Create assigns u a new id and stores it with the given password hash.
func (s *UserStore) Create(ctx context.Context, u *model.AdminUser, passwordHash string) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Username == "" {
		return apperr.Validation("username is required")
	}
	if !model.ValidEmail(u.Email) {
		return apperr.Validation("email %q is not a valid address", u.Email)
	}
	if !u.Role.CanManage() {
		return apperr.Validation("role %q is not supported", u.Role)
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)

	_, err := s.db.conn().exec(ctx, `
		INSERT INTO admin_users (id, username, email, first_name, last_name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, passwordHash, string(u.Role), unix(u.CreatedAt))
	if isUniqueViolation(err) {
		return apperr.Validation("username or email is already taken")
	}
	if err != nil {
		return apperr.Query("insert admin user", err)
	}
	return nil
}

// GetByLogin finds a user by username or email and returns the password hash
// alongside it.
func (s *UserStore) GetByLogin(ctx context.Context, login string) (*model.AdminUser, string, error) {
	login = strings.TrimSpace(login)
	var hash string
	u, err := scanUser(s.db.conn().queryRow(ctx,
		`SELECT `+userColumns+`, password_hash FROM admin_users WHERE username = ? OR email = ?`,
		login, strings.ToLower(login)), &hash)
	if err != nil {
		return nil, "", notFoundOr(err, "admin user", login)
	}
	return u, hash, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.AdminUser, error) {
	u, err := scanUser(s.db.conn().queryRow(ctx, `SELECT `+userColumns+` FROM admin_users WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "admin user", id)
	}
	return u, nil
}

func (s *UserStore) ListAll(ctx context.Context) ([]model.AdminUser, error) {
	rows, err := s.db.conn().query(ctx, `SELECT `+userColumns+` FROM admin_users ORDER BY created_at, username`)
	if err != nil {
		return nil, apperr.Query("list admin users", err)
	}
	defer rows.Close()

	users := []model.AdminUser{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Query("scan admin user", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list admin users", err)
	}
	return users, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.db.conn().exec(ctx, `UPDATE admin_users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return apperr.Query("update password", err)
	}
	return mustAffect(res, "admin user", id)
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.db.conn().exec(ctx, `UPDATE admin_users SET last_login_at = ? WHERE id = ?`, unix(time.Now()), id)
	if err != nil {
		return apperr.Query("update last login", err)
	}
	return nil
}

// Delete removes a user. The last super admin cannot be deleted.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == model.RoleSuperAdmin {
		var supers int
		if err := s.db.conn().queryRow(ctx,
			`SELECT COUNT(*) FROM admin_users WHERE role = ?`, string(model.RoleSuperAdmin)).Scan(&supers); err != nil {
			return apperr.Query("count super admins", err)
		}
		if supers <= 1 {
			return apperr.Forbidden("cannot delete the last super_admin account")
		}
	}
	res, err := s.db.conn().exec(ctx, `DELETE FROM admin_users WHERE id = ?`, id)
	if err != nil {
		return apperr.Query("delete admin user", err)
	}
	return mustAffect(res, "admin user", id)
}
