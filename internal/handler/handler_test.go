package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/mailer"
	appmw "github.com/ivyforms/ivyforms/internal/middleware"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
	"github.com/ivyforms/ivyforms/internal/submission"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type body struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, body) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var b body
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b), rr.Body.String())
	}
	return rr, b
}

type fakeForms map[int64]*model.Form

func (f fakeForms) Get(ctx context.Context, id int64) (*model.Form, error) {
	if form, ok := f[id]; ok {
		return form, nil
	}
	return nil, apperr.NotFound("form %d not found", id)
}

var contactForm = &model.Form{
	ID: 1, Name: "Contact", Status: model.FormPublished,
	Fields: []model.Field{
		{ID: 10, FormID: 1, Type: model.FieldText, Label: "Name"},
		{ID: 11, FormID: 1, Type: model.FieldCheckbox, Index: 1, Label: "Topics"},
	},
}

func TestAppErrorResponse(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperr.NotFound("form 3 not found"), http.StatusNotFound, "form 3 not found"},
		{apperr.InvalidArgument("bad id"), http.StatusBadRequest, "bad id"},
		{apperr.Validation("name is required"), http.StatusUnprocessableEntity, "name is required"},
		{apperr.Forbidden("invalid nonce"), http.StatusForbidden, "invalid nonce"},
		{apperr.Query("load form", errors.New("disk on fire")), http.StatusInternalServerError, "the server encountered a problem and could not process your request"},
		{errors.New("plain"), http.StatusInternalServerError, "the server encountered a problem and could not process your request"},
	}
	h := &BaseHandler{Logger: quiet}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			rr, b := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				h.appErrorResponse(w, r, tt.err)
			}), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, b.Message)
			assert.JSONEq(t, `{}`, string(b.Data))
		})
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "body must not be empty"},
		{"syntax", `{"a":`, "badly-formed JSON"},
		{"unknown field", `{"nope":1}`, "unknown field"},
		{"two values", `{} {}`, "single JSON value"},
		{"wrong type", `{"starred":"yes"}`, `incorrect JSON type for field "starred"`},
	}
	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				Starred bool `json:"starred"`
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := h.readJSON(httptest.NewRecorder(), req, &dst)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

type fakeEntries struct {
	entry         *model.Entry
	limit, offset int
	status        model.EntryStatus
}

func (f *fakeEntries) Get(ctx context.Context, id int64) (*model.Entry, error) {
	if f.entry == nil || f.entry.ID != id {
		return nil, apperr.NotFound("entry %d not found", id)
	}
	return f.entry, nil
}

func (f *fakeEntries) ListByForm(ctx context.Context, formID int64, limit, offset int) ([]model.Entry, int, error) {
	f.limit, f.offset = limit, offset
	return []model.Entry{}, 42, nil
}

func (f *fakeEntries) Delete(ctx context.Context, id int64) error { return nil }

func (f *fakeEntries) SetStatus(ctx context.Context, id int64, status model.EntryStatus) error {
	f.status = status
	return nil
}

func (f *fakeEntries) SetStarred(ctx context.Context, id int64, starred bool) error { return nil }

func entryRouter(entries *fakeEntries) http.Handler {
	h := NewEntryHandler(quiet, fakeForms{1: contactForm}, entries)
	r := chi.NewRouter()
	r.Get("/forms/{id}/entries", h.List)
	r.Get("/entries/{eid}", h.Get)
	r.Post("/entries/{eid}/read", h.MarkRead)
	return r
}

func TestEntryListPaging(t *testing.T) {
	tests := []struct {
		query  string
		status int
		limit  int
		offset int
	}{
		{"", http.StatusOK, 20, 0},
		{"?page=3&perPage=10", http.StatusOK, 10, 20},
		{"?perPage=101", http.StatusBadRequest, 0, 0},
		{"?page=0", http.StatusBadRequest, 0, 0},
		{"?page=two", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			entries := &fakeEntries{}
			rr, b := serve(t, entryRouter(entries), httptest.NewRequest(http.MethodGet, "/forms/1/entries"+tt.query, nil))
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			assert.Equal(t, tt.limit, entries.limit)
			assert.Equal(t, tt.offset, entries.offset)
			assert.Contains(t, string(b.Data), `"total":42`)
		})
	}

	rr, _ := serve(t, entryRouter(&fakeEntries{}), httptest.NewRequest(http.MethodGet, "/forms/9/entries", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEntryGetDecodesValues(t *testing.T) {
	entries := &fakeEntries{entry: &model.Entry{ID: 5, FormID: 1, Fields: []model.EntryField{
		{FieldID: 10, Value: "Ann"},
		{FieldID: 11, Value: model.EncodeValue([]string{"a", "b"})},
		{FieldID: 99, Value: "orphan"},
	}}}
	rr, b := serve(t, entryRouter(entries), httptest.NewRequest(http.MethodGet, "/entries/5", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var view struct {
		Values []entryValue `json:"values"`
	}
	require.NoError(t, json.Unmarshal(b.Data, &view))
	require.Len(t, view.Values, 3)
	assert.Equal(t, "Name", view.Values[0].Label)
	assert.Equal(t, []any{"a", "b"}, view.Values[1].Value)
	assert.Equal(t, "", view.Values[2].Label)
}

func TestEntryMarkRead(t *testing.T) {
	entries := &fakeEntries{}
	rr, _ := serve(t, entryRouter(entries), httptest.NewRequest(http.MethodPost, "/entries/5/read", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.EntryRead, entries.status)

	rr, _ = serve(t, entryRouter(entries), httptest.NewRequest(http.MethodPost, "/entries/5/read", strings.NewReader(`{"read":false}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.EntryUnread, entries.status)
}

type fakeSettings struct {
	s model.Settings
}

func (f *fakeSettings) Load(ctx context.Context) (*model.Settings, error) {
	s := f.s
	return &s, nil
}

func (f *fakeSettings) Update(ctx context.Context, in model.Settings) (*model.Settings, error) {
	if in.SMTPPass == "" {
		in.SMTPPass = f.s.SMTPPass
	}
	f.s = in
	return f.Load(ctx)
}

type fakeMailer struct {
	cfg     *mailer.Config
	sendErr error
}

func (f *fakeMailer) Reconfigure(cfg *mailer.Config) { f.cfg = cfg }
func (f *fakeMailer) SendTest() error                { return f.sendErr }

func TestSettingsHandler(t *testing.T) {
	store := &fakeSettings{s: model.Settings{SiteTitle: "Ivy", SMTPHost: "mail.example.com", SMTPPass: "hunter2"}}
	m := &fakeMailer{}
	h := NewSettingsHandler(quiet, store, m)

	rr, b := serve(t, http.HandlerFunc(h.Get), httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, string(b.Data), "hunter2")
	assert.Contains(t, string(b.Data), `"siteTitle":"Ivy"`)

	req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"siteTitle":"Ivy 2","smtpHost":"smtp.example.com","smtpPort":2525}`))
	rr, b = serve(t, http.HandlerFunc(h.Update), req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotContains(t, string(b.Data), "hunter2")
	require.NotNil(t, m.cfg)
	assert.Equal(t, "smtp.example.com", m.cfg.Host)
	assert.Equal(t, 2525, m.cfg.Port)
	assert.Equal(t, "hunter2", m.cfg.Pass)

	m.sendErr = errors.New("connection refused")
	rr, b = serve(t, http.HandlerFunc(h.TestEmail), httptest.NewRequest(http.MethodPost, "/settings/test-email", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, b.Message, "connection refused")
}

type fakeSubmitter struct {
	formID int64
	req    submission.Request
	meta   placeholder.Meta
}

func (f *fakeSubmitter) Submit(ctx context.Context, formID int64, req submission.Request, meta placeholder.Meta) (*submission.Result, error) {
	f.formID, f.req, f.meta = formID, req, meta
	return &submission.Result{EntryID: 7}, nil
}

type fixedNonce string

func (n fixedNonce) Issue(action string) string { return string(n) + ":" + action }

func TestPublicSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	h := NewPublicHandler(quiet, fakeForms{1: contactForm}, &fakeSettings{}, fixedNonce("n"), sub, nil, "/api")
	r := chi.NewRouter()
	r.Get("/forms/{id}/public", h.Form)
	r.Post("/forms/{id}/submit", h.Submit)

	req := httptest.NewRequest(http.MethodPost, "/forms/1/submit", strings.NewReader(`{"nonce":"tok","postId":4,"fields":{"10":"Ann"}}`))
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("Referer", "https://example.com/contact")
	req.Header.Set("User-Agent", "test-agent")
	req = req.WithContext(appmw.WithUser(req.Context(), &model.AdminUser{ID: "u1"}, "sid"))

	rr, b := serve(t, r, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "submission received", b.Message)
	assert.Contains(t, string(b.Data), `"entryId":7`)
	assert.Equal(t, int64(1), sub.formID)
	assert.Equal(t, "tok", sub.req.Nonce)
	assert.Equal(t, "Ann", sub.req.Fields["10"])
	assert.Equal(t, "203.0.113.9", sub.meta.IP)
	assert.Equal(t, "test-agent", sub.meta.UserAgent)
	assert.Equal(t, "https://example.com/contact", sub.meta.Referer)
	assert.Equal(t, int64(4), sub.meta.PostID)
	require.NotNil(t, sub.meta.User)
	assert.Equal(t, "u1", sub.meta.User.ID)

	rr, _ = serve(t, r, httptest.NewRequest(http.MethodPost, "/forms/1/submit", strings.NewReader(`{"postId":-1}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, b = serve(t, r, httptest.NewRequest(http.MethodGet, "/forms/1/public", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(b.Data), `"nonce":"n:ivyforms_submit_1"`)
}

func TestPublicFormHidesDrafts(t *testing.T) {
	draft := &model.Form{ID: 2, Name: "Draft", Status: model.FormDraft}
	h := NewPublicHandler(quiet, fakeForms{2: draft}, &fakeSettings{}, fixedNonce("n"), &fakeSubmitter{}, nil, "/api")
	r := chi.NewRouter()
	r.Get("/forms/{id}/public", h.Form)
	r.Get("/forms/{id}", h.Render)

	rr, _ := serve(t, r, httptest.NewRequest(http.MethodGet, "/forms/2/public", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/forms/2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type fakeSessions struct {
	deleted string
}

func (f *fakeSessions) Create(ctx context.Context, userID string) (string, error) {
	return "sid-" + userID, nil
}

func (f *fakeSessions) Delete(ctx context.Context, sessionID string) error {
	f.deleted = sessionID
	return nil
}

func TestLogoutClearsSession(t *testing.T) {
	sessions := &fakeSessions{}
	h := NewAuthHandler(quiet, nil, sessions, fixedNonce("n"), true)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(appmw.WithUser(req.Context(), &model.AdminUser{ID: "u1"}, "sid-u1"))
	rr, _ := serve(t, http.HandlerFunc(h.Logout), req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sid-u1", sessions.deleted)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, appmw.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
	assert.True(t, cookies[0].Secure)
}
