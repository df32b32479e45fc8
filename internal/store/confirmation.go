package store

import (
	"context"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
)

type ConfirmationStore struct {
	db *DB
}

func NewConfirmationStore(db *DB) *ConfirmationStore {
	return &ConfirmationStore{db: db}
}

const confirmationColumns = `id, form_id, name, enabled, type, message, url, page_id`

func scanConfirmation(row interface{ Scan(...any) error }) (model.Confirmation, error) {
	var (
		c  model.Confirmation
		ct string
	)
	err := row.Scan(&c.ID, &c.FormID, &c.Name, &c.Enabled, &ct, &c.Message, &c.URL, &c.PageID)
	c.Type = model.ConfirmationType(ct)
	return c, err
}

// ListByForm returns a form's confirmations in evaluation order.
func (s *ConfirmationStore) ListByForm(ctx context.Context, formID int64) ([]model.Confirmation, error) {
	rows, err := s.db.conn().query(ctx,
		`SELECT `+confirmationColumns+` FROM confirmations WHERE form_id = ? ORDER BY id`, formID)
	if err != nil {
		return nil, apperr.Query("list confirmations", err)
	}
	defer rows.Close()

	out := []model.Confirmation{}
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, apperr.Query("scan confirmation", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list confirmations", err)
	}
	return out, nil
}

func (s *ConfirmationStore) Get(ctx context.Context, id int64) (*model.Confirmation, error) {
	c, err := scanConfirmation(s.db.conn().queryRow(ctx,
		`SELECT `+confirmationColumns+` FROM confirmations WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "confirmation", id)
	}
	return &c, nil
}

func (s *ConfirmationStore) Create(ctx context.Context, cf *model.Confirmation) error {
	cf.ID = 0
	if err := cf.Validate(); err != nil {
		return err
	}
	id, err := insertConfirmation(ctx, s.db.conn(), cf)
	if err != nil {
		return err
	}
	cf.ID = id
	return nil
}

func insertConfirmation(ctx context.Context, c conn, cf *model.Confirmation) (int64, error) {
	id, err := c.insert(ctx, `
		INSERT INTO confirmations (form_id, name, enabled, type, message, url, page_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cf.FormID, cf.Name, cf.Enabled, string(cf.Type), cf.Message, cf.URL, cf.PageID)
	if err != nil {
		return 0, apperr.Query("insert confirmation", err)
	}
	return id, nil
}

func (s *ConfirmationStore) Update(ctx context.Context, cf *model.Confirmation) error {
	if err := cf.Validate(); err != nil {
		return err
	}
	res, err := s.db.conn().exec(ctx, `
		UPDATE confirmations
		SET name = ?, enabled = ?, type = ?, message = ?, url = ?, page_id = ?
		WHERE id = ?`,
		cf.Name, cf.Enabled, string(cf.Type), cf.Message, cf.URL, cf.PageID, cf.ID)
	if err != nil {
		return apperr.Query("update confirmation", err)
	}
	return mustAffect(res, "confirmation", cf.ID)
}

func (s *ConfirmationStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn().exec(ctx, `DELETE FROM confirmations WHERE id = ?`, id)
	if err != nil {
		return apperr.Query("delete confirmation", err)
	}
	return mustAffect(res, "confirmation", id)
}
