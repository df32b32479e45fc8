package model

import "github.com/ivyforms/ivyforms/internal/apperr"

// Notification is an email template bound to a form and sent on submission.
type Notification struct {
	ID      int64  `json:"id" yaml:"-"`
	FormID  int64  `json:"formId" yaml:"-"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	To      string `json:"to" yaml:"to"`
	From    string `json:"from" yaml:"from,omitempty"`
	ReplyTo string `json:"replyTo" yaml:"replyTo,omitempty"`
	Subject string `json:"subject" yaml:"subject"`
	Message string `json:"message" yaml:"message"`
}

func (n *Notification) Validate() error {
	if err := checkID("notification id", n.ID); err != nil {
		return err
	}
	if err := checkID("notification form id", n.FormID); err != nil {
		return err
	}
	if err := requireLen("notification name", n.Name, 255); err != nil {
		return err
	}
	if err := maxLen("notification subject", n.Subject, 255); err != nil {
		return err
	}
	if err := checkAddresses("notification recipient", n.To, true); err != nil {
		return err
	}
	if n.From != "" && !ValidEmail(n.From) {
		return apperr.Validation("notification sender %q is not a valid address", n.From)
	}
	if n.ReplyTo != "" && !ValidEmail(n.ReplyTo) {
		return apperr.Validation("notification reply-to %q is not a valid address", n.ReplyTo)
	}
	return nil
}
