package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/crypto"
	"github.com/ivyforms/ivyforms/internal/model"
)

// SettingsStore keeps the site settings as a single encrypted JSON row.
type SettingsStore struct {
	db       *DB
	crypter  *crypto.Crypter
	defaults model.Settings
}

// NewSettingsStore returns a store that seeds itself from defaults the first
// time settings are loaded.
func NewSettingsStore(db *DB, crypter *crypto.Crypter, defaults model.Settings) *SettingsStore {
	return &SettingsStore{db: db, crypter: crypter, defaults: defaults}
}

// Load decrypts and returns the current settings. Seeds from defaults if no row exists.
func (s *SettingsStore) Load(ctx context.Context) (*model.Settings, error) {
	var data []byte
	err := s.db.conn().queryRow(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := s.defaults
		if err := s.Save(ctx, &defaults); err != nil {
			return nil, err
		}
		slog.Info("settings: seeded from defaults")
		return &defaults, nil
	} else if err != nil {
		return nil, apperr.Query("load settings", err)
	}

	plaintext, err := s.crypter.Decrypt(data)
	if err != nil {
		slog.Error("settings: decryption failed", "err", err)
		return nil, apperr.Query("decrypt settings", err)
	}
	var settings model.Settings
	if err := json.Unmarshal(plaintext, &settings); err != nil {
		return nil, apperr.Query("decode settings", err)
	}
	return &settings, nil
}

// Save validates, encrypts and persists settings.
func (s *SettingsStore) Save(ctx context.Context, settings *model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	ciphertext, err := s.crypter.Encrypt(raw)
	if err != nil {
		return fmt.Errorf("encrypt settings: %w", err)
	}
	_, err = s.db.conn().exec(ctx, `
		INSERT INTO settings (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		ciphertext, unix(time.Now()))
	if err != nil {
		return apperr.Query("save settings", err)
	}
	return nil
}

// Update replaces the settings. An empty SMTP password keeps the stored one.
func (s *SettingsStore) Update(ctx context.Context, in model.Settings) (*model.Settings, error) {
	cur, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if in.SMTPPass == "" {
		in.SMTPPass = cur.SMTPPass
	}
	if err := s.Save(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}
