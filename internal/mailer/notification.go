package mailer

import (
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

// SendNotification renders n's message against formData and hands it to the
// transport. Addresses and subject are used as stored. The transport's result
// is returned unchanged; nothing is retried.
func (m *Mailer) SendNotification(n model.Notification, formData placeholder.FieldData) error {
	msg := Message{
		To:      model.SplitAddresses(n.To),
		From:    n.From,
		Subject: n.Subject,
		Body:    RenderBody(n.Message, formData),
		IsHTML:  true,
	}
	if n.ReplyTo != "" && n.ReplyTo != n.From {
		msg.ReplyTo = n.ReplyTo
	}
	return m.send(msg)
}
