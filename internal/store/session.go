package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/ivyforms/ivyforms/internal/apperr"
)

const SessionTTL = 4 * time.Hour

type SessionStore struct {
	db  *DB
	now func() time.Time
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Create inserts a new session and returns its ID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	id := newToken()
	expiresAt := s.now().Add(SessionTTL).UTC()
	slog.Debug("store: creating session", "user_id", userID, "expires_at", expiresAt.Format(time.RFC3339))
	if _, err := s.db.conn().exec(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`,
		id, userID, unix(expiresAt)); err != nil {
		return "", apperr.Query("create session", err)
	}
	return id, nil
}

// GetUserID validates the session and returns the associated user ID.
// Returns a NotFound error if the session does not exist or is expired.
func (s *SessionStore) GetUserID(ctx context.Context, sessionID string) (string, error) {
	var userID string
	err := s.db.conn().queryRow(ctx,
		`SELECT user_id FROM sessions WHERE id = ? AND expires_at > ?`,
		sessionID, unix(s.now())).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFound("session expired or unknown")
	} else if err != nil {
		return "", apperr.Query("load session", err)
	}
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.conn().exec(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return apperr.Query("delete session", err)
	}
	return nil
}

// DeleteAllByUserID removes all sessions for a user (used on password change).
func (s *SessionStore) DeleteAllByUserID(ctx context.Context, userID string) error {
	if _, err := s.db.conn().exec(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return apperr.Query("delete sessions", err)
	}
	return nil
}

// DeleteExpired removes expired sessions.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.conn().exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, unix(s.now()))
	if err != nil {
		return 0, apperr.Query("delete expired sessions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func newToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
