// Package submission runs a public form submission end to end: validate,
// store the entry, send notifications and pick the confirmation.
package submission

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/auth"
	"github.com/ivyforms/ivyforms/internal/confirmation"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

type FormReader interface {
	Get(ctx context.Context, id int64) (*model.Form, error)
}

type NotificationLister interface {
	ListEnabled(ctx context.Context, formID int64) ([]model.Notification, error)
}

type ConfirmationLister interface {
	ListByForm(ctx context.Context, formID int64) ([]model.Confirmation, error)
}

type EntryWriter interface {
	Create(ctx context.Context, e *model.Entry) error
}

type SettingsLoader interface {
	Load(ctx context.Context) (*model.Settings, error)
}

type NonceVerifier interface {
	Verify(action, token string) error
}

// Notifier delivers one rendered notification. *mailer.Mailer satisfies it.
type Notifier interface {
	SendNotification(n model.Notification, formData placeholder.FieldData) error
}

// Request is the public submit payload. Fields are keyed by field id, input
// name or composite key.
type Request struct {
	Nonce   string         `json:"nonce"`
	PostID  int64          `json:"postId"`
	Referer string         `json:"referer"`
	Fields  map[string]any `json:"fields"`
}

type Result struct {
	EntryID int64 `json:"entryId"`
	confirmation.Outcome
	NotificationsSent   int `json:"-"`
	NotificationsFailed int `json:"-"`
}

type Service struct {
	Forms         FormReader
	Notifications NotificationLister
	Confirmations ConfirmationLister
	Entries       EntryWriter
	Settings      SettingsLoader
	Pages         placeholder.PostFinder
	Nonces        NonceVerifier
	Mailer        Notifier
	Logger        *slog.Logger
	Now           func() time.Time
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Submit stores a submission for a published form. Notification failures
// are logged and never fail the submission.
func (s *Service) Submit(ctx context.Context, formID int64, req Request, meta placeholder.Meta) (*Result, error) {
	form, err := s.Forms.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.Published() {
		return nil, apperr.NotFound("form %d not found", formID)
	}
	if err := s.Nonces.Verify(auth.FormAction(formID), req.Nonce); err != nil {
		return nil, err
	}

	values, err := collect(form, req.Fields)
	if err != nil {
		return nil, err
	}

	entry := &model.Entry{
		FormID:    form.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Referer:   meta.Referer,
		PostID:    meta.PostID,
	}
	if meta.User != nil {
		entry.UserID = meta.User.ID
	}
	if s.Now != nil {
		entry.CreatedAt = s.Now().UTC().Truncate(time.Second)
	}
	for _, f := range form.Fields {
		if v, ok := values[f.ID]; ok {
			entry.Fields = append(entry.Fields, model.EntryField{FieldID: f.ID, Value: model.EncodeValue(v)})
		}
	}
	if err := s.Entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	log := s.logger().With("form_id", form.ID, "entry_id", entry.ID)
	log.Info("submission: entry stored")

	settings, err := s.Settings.Load(ctx)
	if err != nil {
		log.Error("submission: settings unavailable", "err", err)
		settings = &model.Settings{}
	}

	fieldData := placeholder.BuildFieldData(form.Fields, values, FormatValue)
	labels := placeholder.BuildFieldLabels(form.Fields)
	general := FormatGeneral((&placeholder.GeneralDataBuilder{Settings: *settings, Posts: s.Pages, Now: s.Now}).
		Build(ctx, entry.ID, meta))

	res := &Result{EntryID: entry.ID}
	s.notify(ctx, log, form, values, req.Nonce, res)

	confs, err := s.Confirmations.ListByForm(ctx, form.ID)
	if err != nil {
		log.Error("submission: confirmations unavailable", "err", err)
	}
	resolver := confirmation.Resolver{Pages: s.Pages}
	res.Outcome = resolver.Resolve(ctx, confs, fieldData, general, labels)
	return res, nil
}

func (s *Service) notify(ctx context.Context, log *slog.Logger, form *model.Form, values map[int64]any, nonce string, res *Result) {
	if s.Mailer == nil {
		return
	}
	nots, err := s.Notifications.ListEnabled(ctx, form.ID)
	if err != nil {
		log.Error("submission: notifications unavailable", "err", err)
		return
	}
	if len(nots) == 0 {
		return
	}

	formData := MailData(form, values, nonce)
	for _, n := range nots {
		if err := s.Mailer.SendNotification(n, formData); err != nil {
			res.NotificationsFailed++
			log.Error("submission: notification failed", "notification_id", n.ID, "err", err)
			continue
		}
		res.NotificationsSent++
		log.Info("submission: notification sent", "notification_id", n.ID)
	}
}

// MailData is the request-shaped data a notification is rendered with:
// submitted values under each field's input name, in form order, followed
// by the reserved formId and nonce keys.
func MailData(form *model.Form, values map[int64]any, nonce string) placeholder.FieldData {
	data := make(placeholder.FieldData, 0, len(form.Fields)+2)
	for _, f := range form.Fields {
		if v, ok := values[f.ID]; ok {
			data.Set(f.InputName(), v)
		}
	}
	data.Set("formId", strconv.FormatInt(form.ID, 10))
	data.Set("nonce", nonce)
	return data
}
