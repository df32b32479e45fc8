// Package confirmation decides what a submitter sees after a successful
// submission.
package confirmation

import (
	"context"

	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

// ResolveSuccessMessage renders the first enabled success message. It returns
// "" when the form has none.
func ResolveSuccessMessage(confirmations []model.Confirmation, fieldData placeholder.FieldData, generalData placeholder.GeneralData, labels placeholder.Labels) string {
	for _, c := range confirmations {
		if c.Enabled && c.Type == model.ConfirmSuccessMessage {
			return placeholder.Replace(c.Message, fieldData, generalData, labels)
		}
	}
	return ""
}

// Outcome is the action returned to the submitter.
type Outcome struct {
	Type        model.ConfirmationType `json:"type"`
	Message     string                 `json:"message,omitempty"`
	RedirectURL string                 `json:"redirectUrl,omitempty"`
}

// Resolver picks the first enabled confirmation of any type.
type Resolver struct {
	Pages placeholder.PostFinder
}

// Resolve returns the outcome of the first enabled confirmation. A page
// redirect whose page no longer exists falls through to the next one; with no
// usable confirmation the outcome is an empty success message.
func (r *Resolver) Resolve(ctx context.Context, confirmations []model.Confirmation, fieldData placeholder.FieldData, generalData placeholder.GeneralData, labels placeholder.Labels) Outcome {
	for _, c := range confirmations {
		if !c.Enabled {
			continue
		}
		switch c.Type {
		case model.ConfirmSuccessMessage:
			return Outcome{
				Type:    c.Type,
				Message: placeholder.Replace(c.Message, fieldData, generalData, labels),
			}
		case model.ConfirmRedirectURL:
			return Outcome{Type: c.Type, RedirectURL: c.URL}
		case model.ConfirmRedirectPage:
			if r.Pages == nil {
				continue
			}
			p, err := r.Pages.GetPage(ctx, c.PageID)
			if err != nil || p == nil {
				continue
			}
			return Outcome{Type: c.Type, RedirectURL: p.Permalink}
		}
	}
	return Outcome{Type: model.ConfirmSuccessMessage}
}
