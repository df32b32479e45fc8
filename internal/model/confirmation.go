package model

import (
	"net/url"

	"github.com/ivyforms/ivyforms/internal/apperr"
)

type ConfirmationType string

const (
	ConfirmSuccessMessage ConfirmationType = "successMessage"
	ConfirmRedirectURL    ConfirmationType = "redirectToUrl"
	ConfirmRedirectPage   ConfirmationType = "redirectToPage"
)

// Confirmation is a form's post-submission action.
type Confirmation struct {
	ID      int64            `json:"id" yaml:"-"`
	FormID  int64            `json:"formId" yaml:"-"`
	Name    string           `json:"name" yaml:"name"`
	Enabled bool             `json:"enabled" yaml:"enabled"`
	Type    ConfirmationType `json:"type" yaml:"type"`
	Message string           `json:"message" yaml:"message,omitempty"`
	URL     string           `json:"url" yaml:"url,omitempty"`
	PageID  int64            `json:"pageId" yaml:"pageId,omitempty"`
}

func (c *Confirmation) Validate() error {
	if err := checkID("confirmation id", c.ID); err != nil {
		return err
	}
	if err := checkID("confirmation form id", c.FormID); err != nil {
		return err
	}
	if err := checkID("confirmation page id", c.PageID); err != nil {
		return err
	}
	if err := requireLen("confirmation name", c.Name, 255); err != nil {
		return err
	}
	switch c.Type {
	case ConfirmSuccessMessage:
	case ConfirmRedirectURL:
		u, err := url.Parse(c.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return apperr.Validation("confirmation url %q is not an absolute URL", c.URL)
		}
	case ConfirmRedirectPage:
		if c.PageID == 0 {
			return apperr.Validation("confirmation page is required")
		}
	default:
		return apperr.Validation("confirmation type %q is not supported", c.Type)
	}
	return nil
}
