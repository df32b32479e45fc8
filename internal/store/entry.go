package store

import (
	"context"
	"time"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
)

type EntryStore struct {
	db *DB
}

func NewEntryStore(db *DB) *EntryStore {
	return &EntryStore{db: db}
}

const entryColumns = `id, form_id, status, starred, ip, user_agent, referer, post_id, user_id, created_at`

func scanEntry(row interface{ Scan(...any) error }) (model.Entry, error) {
	var (
		e       model.Entry
		status  string
		created int64
	)
	err := row.Scan(&e.ID, &e.FormID, &status, &e.Starred, &e.IP, &e.UserAgent, &e.Referer, &e.PostID, &e.UserID, &created)
	e.Status = model.EntryStatus(status)
	e.CreatedAt = fromUnix(created)
	return e, err
}

// Create stores the entry and its field values in one transaction.
func (s *EntryStore) Create(ctx context.Context, e *model.Entry) error {
	if e.Status == "" {
		e.Status = model.EntryUnread
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	return s.db.withTx(ctx, func(c conn) error {
		id, err := c.insert(ctx, `
			INSERT INTO entries (form_id, status, starred, ip, user_agent, referer, post_id, user_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.FormID, string(e.Status), e.Starred, e.IP, e.UserAgent, e.Referer, e.PostID, e.UserID, unix(e.CreatedAt))
		if err != nil {
			return apperr.Query("insert entry", err)
		}
		e.ID = id
		for i := range e.Fields {
			f := &e.Fields[i]
			f.EntryID = id
			fid, err := c.insert(ctx,
				`INSERT INTO entry_fields (entry_id, field_id, value) VALUES (?, ?, ?)`,
				id, f.FieldID, f.Value)
			if err != nil {
				return apperr.Query("insert entry field", err)
			}
			f.ID = fid
		}
		return nil
	})
}

// Get loads an entry with its field values.
func (s *EntryStore) Get(ctx context.Context, id int64) (*model.Entry, error) {
	c := s.db.conn()
	e, err := scanEntry(c.queryRow(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "entry", id)
	}

	rows, err := c.query(ctx,
		`SELECT id, entry_id, field_id, value FROM entry_fields WHERE entry_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, apperr.Query("list entry fields", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f model.EntryField
		if err := rows.Scan(&f.ID, &f.EntryID, &f.FieldID, &f.Value); err != nil {
			return nil, apperr.Query("scan entry field", err)
		}
		e.Fields = append(e.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list entry fields", err)
	}
	return &e, nil
}

// ListByForm returns one page of a form's entries, newest first, and the
// total number of entries for the form.
func (s *EntryStore) ListByForm(ctx context.Context, formID int64, limit, offset int) ([]model.Entry, int, error) {
	if limit <= 0 {
		return nil, 0, apperr.InvalidArgument("limit must be positive")
	}
	if offset < 0 {
		return nil, 0, apperr.InvalidArgument("offset must not be negative")
	}
	c := s.db.conn()

	var total int
	if err := c.queryRow(ctx, `SELECT COUNT(*) FROM entries WHERE form_id = ?`, formID).Scan(&total); err != nil {
		return nil, 0, apperr.Query("count entries", err)
	}

	rows, err := c.query(ctx, `
		SELECT `+entryColumns+` FROM entries WHERE form_id = ?
		ORDER BY id DESC LIMIT ? OFFSET ?`, formID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Query("list entries", err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, apperr.Query("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Query("list entries", err)
	}
	return entries, total, nil
}

func (s *EntryStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn().exec(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return apperr.Query("delete entry", err)
	}
	return mustAffect(res, "entry", id)
}

func (s *EntryStore) SetStatus(ctx context.Context, id int64, status model.EntryStatus) error {
	if status != model.EntryRead && status != model.EntryUnread {
		return apperr.Validation("entry status %q is not supported", status)
	}
	res, err := s.db.conn().exec(ctx, `UPDATE entries SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return apperr.Query("update entry", err)
	}
	return mustAffect(res, "entry", id)
}

func (s *EntryStore) SetStarred(ctx context.Context, id int64, starred bool) error {
	res, err := s.db.conn().exec(ctx, `UPDATE entries SET starred = ? WHERE id = ?`, starred, id)
	if err != nil {
		return apperr.Query("update entry", err)
	}
	return mustAffect(res, "entry", id)
}
