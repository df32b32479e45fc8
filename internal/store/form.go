package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
)

type FormStore struct {
	db *DB
}

func NewFormStore(db *DB) *FormStore {
	return &FormStore{db: db}
}

const formColumns = `id, name, description, status, show_title, created_at, updated_at`

func scanForm(row interface{ Scan(...any) error }) (model.Form, error) {
	var (
		f                model.Form
		status           string
		created, updated int64
	)
	err := row.Scan(&f.ID, &f.Name, &f.Description, &status, &f.ShowTitle, &created, &updated)
	f.Status = model.FormStatus(status)
	f.CreatedAt = fromUnix(created)
	f.UpdatedAt = fromUnix(updated)
	return f, err
}

// List returns every form without fields, newest first.
func (s *FormStore) List(ctx context.Context) ([]model.Form, error) {
	rows, err := s.db.conn().query(ctx, `SELECT `+formColumns+` FROM forms ORDER BY id DESC`)
	if err != nil {
		return nil, apperr.Query("list forms", err)
	}
	defer rows.Close()

	forms := []model.Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, apperr.Query("scan form", err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list forms", err)
	}
	return forms, nil
}

// Get loads a form with its fields and their options.
func (s *FormStore) Get(ctx context.Context, id int64) (*model.Form, error) {
	c := s.db.conn()
	f, err := scanForm(c.queryRow(ctx, `SELECT `+formColumns+` FROM forms WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "form", id)
	}
	fields, err := loadFields(ctx, c, id)
	if err != nil {
		return nil, err
	}
	f.Fields = fields
	return &f, nil
}

func loadFields(ctx context.Context, c conn, formID int64) ([]model.Field, error) {
	rows, err := c.query(ctx, `
		SELECT id, form_id, type, field_index, name, label, placeholder, required
		FROM fields WHERE form_id = ? ORDER BY field_index, id`, formID)
	if err != nil {
		return nil, apperr.Query("list fields", err)
	}
	var fields []model.Field
	byID := map[int64]int{}
	for rows.Next() {
		var (
			f  model.Field
			ft string
		)
		if err := rows.Scan(&f.ID, &f.FormID, &ft, &f.Index, &f.Name, &f.Label, &f.Placeholder, &f.Required); err != nil {
			rows.Close()
			return nil, apperr.Query("scan field", err)
		}
		f.Type = model.FieldType(ft)
		byID[f.ID] = len(fields)
		fields = append(fields, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list fields", err)
	}
	if len(fields) == 0 {
		return fields, nil
	}

	rows, err = c.query(ctx, `
		SELECT o.id, o.field_id, o.label, o.value, o.position
		FROM field_options o JOIN fields f ON f.id = o.field_id
		WHERE f.form_id = ? ORDER BY o.field_id, o.position, o.id`, formID)
	if err != nil {
		return nil, apperr.Query("list field options", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o model.FieldOption
		if err := rows.Scan(&o.ID, &o.FieldID, &o.Label, &o.Value, &o.Position); err != nil {
			return nil, apperr.Query("scan field option", err)
		}
		if i, ok := byID[o.FieldID]; ok {
			fields[i].Options = append(fields[i].Options, o)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list field options", err)
	}
	return fields, nil
}

// Create validates and inserts f together with its fields. IDs and
// timestamps are written back into f.
func (s *FormStore) Create(ctx context.Context, f *model.Form) error {
	f.ID = 0
	if err := f.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	return s.db.withTx(ctx, func(c conn) error {
		id, err := c.insert(ctx, `
			INSERT INTO forms (name, description, status, show_title, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			f.Name, f.Description, string(f.Status), f.ShowTitle, unix(now), unix(now))
		if err != nil {
			return apperr.Query("insert form", err)
		}
		f.ID, f.CreatedAt, f.UpdatedAt = id, now, now
		return insertFields(ctx, c, id, f.Fields)
	})
}

func insertFields(ctx context.Context, c conn, formID int64, fields []model.Field) error {
	for i := range fields {
		fl := &fields[i]
		fl.FormID = formID
		id, err := c.insert(ctx, `
			INSERT INTO fields (form_id, type, field_index, name, label, placeholder, required)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			formID, string(fl.Type), fl.Index, fl.Name, fl.Label, fl.Placeholder, fl.Required)
		if err != nil {
			return apperr.Query("insert field", err)
		}
		fl.ID = id
		if err := insertOptions(ctx, c, fl); err != nil {
			return err
		}
	}
	return nil
}

func insertOptions(ctx context.Context, c conn, fl *model.Field) error {
	for j := range fl.Options {
		o := &fl.Options[j]
		o.ID = 0
		o.FieldID = fl.ID
		if o.Position == 0 {
			o.Position = j
		}
		oid, err := c.insert(ctx, `
			INSERT INTO field_options (field_id, label, value, position) VALUES (?, ?, ?, ?)`,
			fl.ID, o.Label, o.Value, o.Position)
		if err != nil {
			return apperr.Query("insert field option", err)
		}
		o.ID = oid
	}
	return nil
}

func fieldIDs(ctx context.Context, c conn, formID int64) (map[int64]bool, error) {
	rows, err := c.query(ctx, `SELECT id FROM fields WHERE form_id = ?`, formID)
	if err != nil {
		return nil, apperr.Query("list field ids", err)
	}
	defer rows.Close()
	ids := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Query("scan field id", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list field ids", err)
	}
	return ids, nil
}

// Update writes the form's own columns. Fields are replaced separately.
func (s *FormStore) Update(ctx context.Context, f *model.Form) error {
	if f.ID == 0 {
		return apperr.InvalidArgument("form id is required")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.conn().exec(ctx, `
		UPDATE forms SET name = ?, description = ?, status = ?, show_title = ?, updated_at = ?
		WHERE id = ?`,
		f.Name, f.Description, string(f.Status), f.ShowTitle, unix(now), f.ID)
	if err != nil {
		return apperr.Query("update form", err)
	}
	if err := mustAffect(res, "form", f.ID); err != nil {
		return err
	}
	f.UpdatedAt = now
	return nil
}

// ReplaceFields saves the form's field set in one transaction. Fields
// carrying an id of this form are updated in place, fields with id 0 are
// inserted and existing fields left out of the set are deleted. Entries keep
// pointing at the fields they were submitted against. Field indexes must be
// unique within the form.
func (s *FormStore) ReplaceFields(ctx context.Context, formID int64, fields []model.Field) ([]model.Field, error) {
	seen := map[int]bool{}
	names := map[string]bool{}
	ids := map[int64]bool{}
	for i := range fields {
		fields[i].FormID = formID
		if err := fields[i].Validate(); err != nil {
			return nil, err
		}
		if seen[fields[i].Index] {
			return nil, apperr.Validation("field index %d is used twice", fields[i].Index)
		}
		seen[fields[i].Index] = true
		n := fields[i].InputName()
		if names[n] {
			return nil, apperr.Validation("field name %q is used twice", n)
		}
		names[n] = true
		if id := fields[i].ID; id != 0 {
			if ids[id] {
				return nil, apperr.Validation("field id %d is used twice", id)
			}
			ids[id] = true
		}
	}

	err := s.db.withTx(ctx, func(c conn) error {
		res, err := c.exec(ctx, `UPDATE forms SET updated_at = ? WHERE id = ?`, unix(time.Now()), formID)
		if err != nil {
			return apperr.Query("touch form", err)
		}
		if err := mustAffect(res, "form", formID); err != nil {
			return err
		}
		existing, err := fieldIDs(ctx, c, formID)
		if err != nil {
			return err
		}
		for id := range ids {
			if !existing[id] {
				return apperr.Validation("field %d does not belong to form %d", id, formID)
			}
		}
		for id := range existing {
			if ids[id] {
				continue
			}
			if _, err := c.exec(ctx, `DELETE FROM field_options WHERE field_id = ?`, id); err != nil {
				return apperr.Query("delete field options", err)
			}
			if _, err := c.exec(ctx, `DELETE FROM fields WHERE id = ?`, id); err != nil {
				return apperr.Query("delete field", err)
			}
		}

		var added []int
		for i := range fields {
			fl := &fields[i]
			if fl.ID == 0 {
				added = append(added, i)
				continue
			}
			if _, err := c.exec(ctx, `
				UPDATE fields SET type = ?, field_index = ?, name = ?, label = ?, placeholder = ?, required = ?
				WHERE id = ? AND form_id = ?`,
				string(fl.Type), fl.Index, fl.Name, fl.Label, fl.Placeholder, fl.Required, fl.ID, formID); err != nil {
				return apperr.Query("update field", err)
			}
			if _, err := c.exec(ctx, `DELETE FROM field_options WHERE field_id = ?`, fl.ID); err != nil {
				return apperr.Query("delete field options", err)
			}
			if err := insertOptions(ctx, c, fl); err != nil {
				return err
			}
		}
		for _, i := range added {
			if err := insertFields(ctx, c, formID, fields[i:i+1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// Delete removes the form. Fields, notifications, confirmations and entries
// cascade.
func (s *FormStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn().exec(ctx, `DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return apperr.Query("delete form", err)
	}
	return mustAffect(res, "form", id)
}

// Duplicate copies a form with its fields, notifications and confirmations.
// The copy starts as a draft.
func (s *FormStore) Duplicate(ctx context.Context, id int64) (*model.Form, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	nots, err := NewNotificationStore(s.db).ListByForm(ctx, id)
	if err != nil {
		return nil, err
	}
	confs, err := NewConfirmationStore(s.db).ListByForm(ctx, id)
	if err != nil {
		return nil, err
	}

	cp := *src
	cp.ID = 0
	cp.Name = src.Name + " (copy)"
	cp.Status = model.FormDraft
	cp.Fields = make([]model.Field, len(src.Fields))
	for i, fl := range src.Fields {
		fl.ID = 0
		fl.Options = append([]model.FieldOption(nil), fl.Options...)
		for j := range fl.Options {
			fl.Options[j].ID = 0
		}
		cp.Fields[i] = fl
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	err = s.db.withTx(ctx, func(c conn) error {
		newID, err := c.insert(ctx, `
			INSERT INTO forms (name, description, status, show_title, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cp.Name, cp.Description, string(cp.Status), cp.ShowTitle, unix(now), unix(now))
		if err != nil {
			return apperr.Query("insert form", err)
		}
		cp.ID, cp.CreatedAt, cp.UpdatedAt = newID, now, now
		if err := insertFields(ctx, c, newID, cp.Fields); err != nil {
			return err
		}
		for _, n := range nots {
			n.FormID = newID
			if _, err := insertNotification(ctx, c, &n); err != nil {
				return err
			}
		}
		for _, cf := range confs {
			cf.FormID = newID
			if _, err := insertConfirmation(ctx, c, &cf); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("store: form duplicated", "source_id", id, "form_id", cp.ID)
	return &cp, nil
}

// SeedDefault creates the starter contact form, its admin notification and
// a success message when no forms exist yet.
func (s *FormStore) SeedDefault(ctx context.Context, adminEmail string) error {
	var n int
	if err := s.db.conn().queryRow(ctx, `SELECT COUNT(*) FROM forms`).Scan(&n); err != nil {
		return apperr.Query("count forms", err)
	}
	if n > 0 {
		return nil
	}

	f := model.DefaultContactForm()
	if err := s.Create(ctx, &f); err != nil {
		return err
	}
	if adminEmail != "" {
		if err := NewNotificationStore(s.db).Create(ctx, &model.Notification{
			FormID:  f.ID,
			Name:    "Admin Notification",
			Enabled: true,
			To:      adminEmail,
			Subject: "New submission: " + f.Name,
			Message: "{{all_fields}}",
		}); err != nil {
			return err
		}
	}
	if err := NewConfirmationStore(s.db).Create(ctx, &model.Confirmation{
		FormID:  f.ID,
		Name:    "Default Confirmation",
		Enabled: true,
		Type:    model.ConfirmSuccessMessage,
		Message: "Thanks {{text_0}}, we received your message.",
	}); err != nil {
		return err
	}
	slog.Info("store: seeded default form", "form_id", f.ID)
	return nil
}
