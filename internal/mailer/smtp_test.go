package mailer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

func TestFormatMessageWithPlainText(t *testing.T) {
	cfg := &Config{
		FromName:    "IvyForms",
		FromAddress: "noreply@example.org",
	}

	msg := Message{
		To:      []string{"user@example.org"},
		Subject: "Test Subject",
		Body:    "This is a test email.",
	}

	result := New(cfg).formatMessage(msg)

	cases := []struct {
		name string
		want string
	}{
		{"from header", "From: IvyForms <noreply@example.org>"},
		{"to header", "To: user@example.org"},
		{"subject header", "Subject: Test Subject"},
		{"mime header", "MIME-Version: 1.0"},
		{"content type header", "Content-Type: text/plain; charset=UTF-8"},
		{"body", "\r\n\r\nThis is a test email."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, result, tc.want)
		})
	}
	assert.NotContains(t, result, "Reply-To:")
}

func TestFormatMessageWithMultipleRecipients(t *testing.T) {
	cfg := &Config{FromName: "IvyForms", FromAddress: "noreply@example.org"}
	msg := Message{
		To: []string{"a@example.org", "b@example.org"},
	}

	result := New(cfg).formatMessage(msg)
	assert.Contains(t, result, "To: a@example.org, b@example.org")
}

func TestFormatMessageStripsHeaderInjection(t *testing.T) {
	m := New(&Config{FromAddress: "noreply@example.org"})
	result := m.formatMessage(Message{
		To:      []string{"a@example.org"},
		Subject: "Hi\r\nBcc: victim@example.org",
		IsHTML:  true,
	})

	assert.NotContains(t, result, "\r\nBcc:")
	assert.Contains(t, result, "Content-Type: text/html; charset=UTF-8")
}

func TestFormatMessageUsesMessageSender(t *testing.T) {
	m := New(&Config{FromName: "IvyForms", FromAddress: "noreply@example.org"})
	result := m.formatMessage(Message{To: []string{"a@example.org"}, From: "forms@example.org"})

	assert.Contains(t, result, "From: forms@example.org\r\n")
}

func captureSend(t *testing.T, m *Mailer) *Message {
	t.Helper()
	var captured Message
	m.sendFn = func(msg Message) error {
		captured = msg
		return nil
	}
	return &captured
}

func TestSendNotification(t *testing.T) {
	m := New(&Config{FromAddress: "noreply@example.org"})
	captured := captureSend(t, m)

	n := model.Notification{
		To:      "admin@example.org, ops@example.org",
		From:    "forms@example.org",
		ReplyTo: "ann@example.org",
		Subject: "New entry from {{your_name}}",
		Message: "From {{your_name}} via {{wp.site_url}}:\n{{all_fields}}",
	}
	data := placeholder.FieldData{
		{Key: "formId", Value: "3"},
		{Key: "nonce", Value: "abc"},
		{Key: "your_name", Value: "Ann <b>"},
		{Key: "topics", Value: []string{"news", "events"}},
	}

	require.NoError(t, m.SendNotification(n, data))

	assert.Equal(t, []string{"admin@example.org", "ops@example.org"}, captured.To)
	assert.Equal(t, "forms@example.org", captured.From)
	assert.Equal(t, "ann@example.org", captured.ReplyTo)
	assert.Equal(t, "New entry from {{your_name}}", captured.Subject, "subject is not substituted")
	assert.True(t, captured.IsHTML)
	assert.True(t, strings.HasPrefix(captured.Body, "From Ann <b> via :\n<table"))
	assert.Contains(t, captured.Body, `<th align="left">Your Name</th><td>Ann &lt;b&gt;</td>`)
	assert.Contains(t, captured.Body, `<th align="left">Topics</th><td>news, events</td>`)
	assert.NotContains(t, captured.Body, "Form Id")
	assert.NotContains(t, captured.Body, "Nonce")
}

func TestSendNotificationReplyTo(t *testing.T) {
	cases := []struct {
		name    string
		from    string
		replyTo string
		want    string
	}{
		{"empty reply-to", "forms@example.org", "", ""},
		{"same as from", "forms@example.org", "forms@example.org", ""},
		{"different", "forms@example.org", "ann@example.org", "ann@example.org"},
		{"no from", "", "ann@example.org", "ann@example.org"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(&Config{FromAddress: "noreply@example.org"})
			captured := captureSend(t, m)

			n := model.Notification{To: "admin@example.org", From: tc.from, ReplyTo: tc.replyTo}
			require.NoError(t, m.SendNotification(n, nil))
			assert.Equal(t, tc.want, captured.ReplyTo)

			header := m.formatMessage(*captured)
			assert.Equal(t, tc.want != "", strings.Contains(header, "Reply-To: "+tc.want))
		})
	}
}

func TestSendNotificationTransportError(t *testing.T) {
	m := New(&Config{})
	boom := errors.New("connection refused")
	m.sendFn = func(Message) error { return boom }

	err := m.SendNotification(model.Notification{To: "a@example.org"}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestSendWithoutRecipients(t *testing.T) {
	m := New(&Config{})
	captureSend(t, m)
	assert.Error(t, m.SendNotification(model.Notification{}, nil))
}

func TestSendSMTPNotConfigured(t *testing.T) {
	m := New(nil)
	assert.False(t, m.Configured())
	assert.ErrorIs(t, m.SendNotification(model.Notification{To: "a@example.org"}, nil), errNotConfigured)
}

func TestSendTest(t *testing.T) {
	m := New(&Config{})
	captured := captureSend(t, m)
	assert.Error(t, m.SendTest())

	m.Reconfigure(&Config{AdminEmail: "admin@example.org", Host: "smtp.example.org"})
	require.NoError(t, m.SendTest())
	assert.Equal(t, []string{"admin@example.org"}, captured.To)
	assert.True(t, m.Configured())
}

func TestNewConfigFromSettings(t *testing.T) {
	cfg := NewConfigFromSettings(&model.Settings{SMTPHost: "mail", SMTPPort: 2525, AdminEmail: "a@example.org"})
	assert.Equal(t, "mail", cfg.Host)
	assert.Equal(t, 2525, cfg.Port)
	assert.Equal(t, "a@example.org", cfg.AdminEmail)
	assert.Equal(t, &Config{}, NewConfigFromSettings(nil))
}
