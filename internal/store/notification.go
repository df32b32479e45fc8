package store

import (
	"context"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
)

type NotificationStore struct {
	db *DB
}

func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationColumns = `id, form_id, name, enabled, send_to, send_from, reply_to, subject, message`

func scanNotification(row interface{ Scan(...any) error }) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.FormID, &n.Name, &n.Enabled, &n.To, &n.From, &n.ReplyTo, &n.Subject, &n.Message)
	return n, err
}

// ListByForm returns a form's notifications in creation order.
func (s *NotificationStore) ListByForm(ctx context.Context, formID int64) ([]model.Notification, error) {
	rows, err := s.db.conn().query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE form_id = ? ORDER BY id`, formID)
	if err != nil {
		return nil, apperr.Query("list notifications", err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperr.Query("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list notifications", err)
	}
	return out, nil
}

// ListEnabled returns only the notifications that fire on submission.
func (s *NotificationStore) ListEnabled(ctx context.Context, formID int64) ([]model.Notification, error) {
	all, err := s.ListByForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, n := range all {
		if n.Enabled {
			enabled = append(enabled, n)
		}
	}
	return enabled, nil
}

func (s *NotificationStore) Get(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := scanNotification(s.db.conn().queryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "notification", id)
	}
	return &n, nil
}

func (s *NotificationStore) Create(ctx context.Context, n *model.Notification) error {
	n.ID = 0
	if err := n.Validate(); err != nil {
		return err
	}
	id, err := insertNotification(ctx, s.db.conn(), n)
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

func insertNotification(ctx context.Context, c conn, n *model.Notification) (int64, error) {
	id, err := c.insert(ctx, `
		INSERT INTO notifications (form_id, name, enabled, send_to, send_from, reply_to, subject, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.FormID, n.Name, n.Enabled, n.To, n.From, n.ReplyTo, n.Subject, n.Message)
	if err != nil {
		return 0, apperr.Query("insert notification", err)
	}
	return id, nil
}

// Update rewrites everything but the owning form.
func (s *NotificationStore) Update(ctx context.Context, n *model.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	res, err := s.db.conn().exec(ctx, `
		UPDATE notifications
		SET name = ?, enabled = ?, send_to = ?, send_from = ?, reply_to = ?, subject = ?, message = ?
		WHERE id = ?`,
		n.Name, n.Enabled, n.To, n.From, n.ReplyTo, n.Subject, n.Message, n.ID)
	if err != nil {
		return apperr.Query("update notification", err)
	}
	return mustAffect(res, "notification", n.ID)
}

func (s *NotificationStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn().exec(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return apperr.Query("delete notification", err)
	}
	return mustAffect(res, "notification", id)
}
