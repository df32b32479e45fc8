package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/auth"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

type fakeForms map[int64]*model.Form

func (f fakeForms) Get(ctx context.Context, id int64) (*model.Form, error) {
	if form, ok := f[id]; ok {
		return form, nil
	}
	return nil, apperr.NotFound("form %d not found", id)
}

type fakeNotifications []model.Notification

func (f fakeNotifications) ListEnabled(ctx context.Context, formID int64) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f {
		if n.FormID == formID && n.Enabled {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeConfirmations []model.Confirmation

func (f fakeConfirmations) ListByForm(ctx context.Context, formID int64) ([]model.Confirmation, error) {
	return f, nil
}

type fakeEntries struct {
	stored []model.Entry
	err    error
}

func (f *fakeEntries) Create(ctx context.Context, e *model.Entry) error {
	if f.err != nil {
		return f.err
	}
	e.ID = int64(len(f.stored) + 100)
	f.stored = append(f.stored, *e)
	return nil
}

type fakeSettings struct{ s model.Settings }

func (f fakeSettings) Load(ctx context.Context) (*model.Settings, error) { return &f.s, nil }

type sent struct {
	n    model.Notification
	data placeholder.FieldData
}

type captureMailer struct {
	sent []sent
	fail map[int64]bool
}

func (c *captureMailer) SendNotification(n model.Notification, data placeholder.FieldData) error {
	if c.fail[n.ID] {
		return errors.New("smtp: connection refused")
	}
	c.sent = append(c.sent, sent{n, data})
	return nil
}

type fixture struct {
	svc     *Service
	entries *fakeEntries
	mail    *captureMailer
	nonces  *auth.Nonces
}

func contactForm() *model.Form {
	return &model.Form{
		ID:     7,
		Name:   "Contact",
		Status: model.FormPublished,
		Fields: []model.Field{
			{ID: 11, FormID: 7, Type: model.FieldText, Index: 0, Name: "your_name", Label: "Name", Required: true},
			{ID: 12, FormID: 7, Type: model.FieldEmail, Index: 1, Label: "Email", Required: true},
			{ID: 13, FormID: 7, Type: model.FieldCheckbox, Index: 2, Label: "Topics", Options: []model.FieldOption{
				{Value: "sales"}, {Value: "support"},
			}},
			{ID: 14, FormID: 7, Type: model.FieldTextarea, Index: 3, Label: "Message"},
		},
	}
}

func newFixture(confs ...model.Confirmation) *fixture {
	draft := contactForm()
	draft.ID = 8
	draft.Status = model.FormDraft

	nonces := auth.NewNonces("nonce-secret-1234", time.Hour)
	entries := &fakeEntries{}
	mail := &captureMailer{fail: map[int64]bool{}}
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	return &fixture{
		svc: &Service{
			Forms: fakeForms{7: contactForm(), 8: draft},
			Notifications: fakeNotifications{
				{ID: 1, FormID: 7, Name: "Admin", Enabled: true, To: "admin@example.com", Message: "{{all_fields}}"},
				{ID: 2, FormID: 7, Name: "Off", Enabled: false, To: "off@example.com"},
				{ID: 3, FormID: 7, Name: "Copy", Enabled: true, To: "copy@example.com", Message: "Hi {{your_name}}"},
			},
			Confirmations: fakeConfirmations(confs),
			Entries:       entries,
			Settings:      fakeSettings{model.Settings{SiteTitle: "Ivy"}},
			Nonces:        nonces,
			Mailer:        mail,
			Now:           func() time.Time { return now },
		},
		entries: entries,
		mail:    mail,
		nonces:  nonces,
	}
}

func (fx *fixture) request(fields map[string]any) Request {
	return Request{Nonce: fx.nonces.Issue(auth.FormAction(7)), Fields: fields}
}

func TestSubmitStoresEntryAndNotifies(t *testing.T) {
	fx := newFixture(model.Confirmation{
		Name: "Thanks", Enabled: true, Type: model.ConfirmSuccessMessage,
		Message: "Thanks {{text_0}} from {{wp.site_title}} (#{{wp.entry_id}})",
	})
	meta := placeholder.Meta{IP: "192.0.2.1", UserAgent: "test"}

	res, err := fx.svc.Submit(context.Background(), 7, fx.request(map[string]any{
		"your_name": "Ann",
		"12":        "ann@example.com",
		"checkbox_2": []any{"sales", "support"},
	}), meta)
	require.NoError(t, err)

	assert.Equal(t, int64(100), res.EntryID)
	assert.Equal(t, model.ConfirmSuccessMessage, res.Type)
	assert.Equal(t, "Thanks Ann from Ivy (#100)", res.Message)
	assert.Equal(t, 2, res.NotificationsSent)
	assert.Zero(t, res.NotificationsFailed)

	require.Len(t, fx.entries.stored, 1)
	e := fx.entries.stored[0]
	assert.Equal(t, "192.0.2.1", e.IP)
	assert.Equal(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), e.CreatedAt)
	require.Len(t, e.Fields, 3)
	assert.Equal(t, `["sales","support"]`, e.Fields[2].Value)

	require.Len(t, fx.mail.sent, 2)
	data := fx.mail.sent[0].data
	v, ok := data.Get("your_name")
	require.True(t, ok)
	assert.Equal(t, "Ann", v)
	_, ok = data.Get("email_1")
	assert.True(t, ok)
	v, _ = data.Get("formId")
	assert.Equal(t, "7", v)
}

func TestSubmitNotificationFailureDoesNotFail(t *testing.T) {
	fx := newFixture()
	fx.mail.fail[1] = true

	res, err := fx.svc.Submit(context.Background(), 7, fx.request(map[string]any{
		"your_name": "Ann", "email_1": "ann@example.com",
	}), placeholder.Meta{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.NotificationsSent)
	assert.Equal(t, 1, res.NotificationsFailed)
	assert.Equal(t, model.ConfirmSuccessMessage, res.Type)
	assert.Empty(t, res.Message)
}

func TestSubmitRejects(t *testing.T) {
	valid := map[string]any{"your_name": "Ann", "email_1": "ann@example.com"}
	with := func(k string, v any) map[string]any {
		m := map[string]any{}
		for kk, vv := range valid {
			m[kk] = vv
		}
		m[k] = v
		return m
	}

	tests := []struct {
		name   string
		formID int64
		nonce  string
		fields map[string]any
		kind   apperr.Kind
	}{
		{"unknown form", 99, "", valid, apperr.KindNotFound},
		{"draft form", 8, "", valid, apperr.KindNotFound},
		{"bad nonce", 7, "123.abc", valid, apperr.KindForbidden},
		{"missing required", 7, "", with("your_name", "  "), apperr.KindValidation},
		{"bad email", 7, "", with("email_1", "nope"), apperr.KindValidation},
		{"bad option", 7, "", with("13", []any{"sales", "spam"}), apperr.KindValidation},
		{"list for single field", 7, "", with("your_name", []any{"a", "b"}), apperr.KindValidation},
		{"object value", 7, "", with("14", map[string]any{"x": 1}), apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			req := fx.request(tt.fields)
			if tt.nonce != "" {
				req.Nonce = tt.nonce
			}
			_, err := fx.svc.Submit(context.Background(), tt.formID, req, placeholder.Meta{})
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Empty(t, fx.entries.stored)
			assert.Empty(t, fx.mail.sent)
		})
	}
}

func TestSubmitEntryStoreFailure(t *testing.T) {
	fx := newFixture()
	fx.entries.err = apperr.Query("insert entry", errors.New("disk full"))
	_, err := fx.svc.Submit(context.Background(), 7, fx.request(map[string]any{
		"your_name": "Ann", "email_1": "ann@example.com",
	}), placeholder.Meta{})
	assert.True(t, apperr.Is(err, apperr.KindQuery))
	assert.Empty(t, fx.mail.sent)
}

func TestSubmitSanitizesRequestValuesInConfirmation(t *testing.T) {
	fx := newFixture(model.Confirmation{
		Name: "Thanks", Enabled: true, Type: model.ConfirmSuccessMessage,
		Message: "<p>From {{wp.referer}} via {{wp.user_agent}}</p>",
	})
	meta := placeholder.Meta{
		IP:        "192.0.2.1",
		UserAgent: `<img src=x onerror="alert(1)">Mozilla`,
		Referer:   `https://example.com/<script>alert(1)</script>`,
	}
	res, err := fx.svc.Submit(context.Background(), 7, fx.request(map[string]any{
		"your_name": "Ann", "email_1": "ann@example.com",
	}), meta)
	require.NoError(t, err)
	assert.Equal(t, "<p>From https://example.com/ via Mozilla</p>", res.Message)

	// The stored entry keeps what the client sent.
	require.Len(t, fx.entries.stored, 1)
	assert.Equal(t, meta.UserAgent, fx.entries.stored[0].UserAgent)
}

func TestSubmitRedirect(t *testing.T) {
	fx := newFixture(
		model.Confirmation{Name: "Off", Enabled: false, Type: model.ConfirmSuccessMessage, Message: "no"},
		model.Confirmation{Name: "Go", Enabled: true, Type: model.ConfirmRedirectURL, URL: "https://example.com/thanks"},
	)
	res, err := fx.svc.Submit(context.Background(), 7, fx.request(map[string]any{
		"your_name": "Ann", "email_1": "ann@example.com",
	}), placeholder.Meta{})
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmRedirectURL, res.Type)
	assert.Equal(t, "https://example.com/thanks", res.RedirectURL)
}

func TestFormatValue(t *testing.T) {
	text := model.Field{Type: model.FieldText}
	area := model.Field{Type: model.FieldTextarea}

	assert.Equal(t, "hi", FormatValue(text, "<b>hi</b>"))
	assert.Equal(t, "<b>hi</b><br>\nthere", FormatValue(area, "<b>hi</b>\nthere"))
	assert.Equal(t, "", FormatValue(area, "<script>alert(1)</script>"))
	assert.Equal(t, []string{"a", "b"}, FormatValue(text, []string{"<i>a</i>", "b"}))
}

func TestFormatGeneral(t *testing.T) {
	got := FormatGeneral(placeholder.GeneralData{
		"site_title": "Ivy <b>Forms</b>",
		"referer":    "<script>x</script>",
		"entry_id":   int64(5),
	})
	assert.Equal(t, "Ivy Forms", got["site_title"])
	assert.Equal(t, "", got["referer"])
	assert.Equal(t, int64(5), got["entry_id"])
}

func TestMailData(t *testing.T) {
	form := contactForm()
	data := MailData(form, map[int64]any{11: "Ann", 13: []string{"sales"}}, "tok")
	keys := make([]string, len(data))
	for i, f := range data {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"your_name", "checkbox_2", "formId", "nonce"}, keys)
}
