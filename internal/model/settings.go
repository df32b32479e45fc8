package model

import "github.com/ivyforms/ivyforms/internal/apperr"

type Settings struct {
	SiteURL             string `json:"siteUrl"`
	SiteTitle           string `json:"siteTitle"`
	AdminEmail          string `json:"adminEmail"`
	DateFormat          string `json:"dateFormat"`
	SMTPHost            string `json:"smtpHost"`
	SMTPPort            int    `json:"smtpPort"`
	SMTPUser            string `json:"smtpUser"`
	SMTPPass            string `json:"smtpPass,omitempty"`
	SMTPFromAddress     string `json:"smtpFromAddress"`
	SMTPFromName        string `json:"smtpFromName"`
	SubmissionRateLimit int    `json:"submissionRateLimit"`
	DeleteDataOnRemove  bool   `json:"deleteDataOnRemove"`
}

func (s *Settings) Validate() error {
	if s.AdminEmail != "" && !ValidEmail(s.AdminEmail) {
		return apperr.Validation("admin email %q is not a valid address", s.AdminEmail)
	}
	if s.SMTPFromAddress != "" && !ValidEmail(s.SMTPFromAddress) {
		return apperr.Validation("sender address %q is not a valid address", s.SMTPFromAddress)
	}
	if s.SMTPPort < 0 || s.SMTPPort > 65535 {
		return apperr.Validation("smtp port %d is out of range", s.SMTPPort)
	}
	if s.SubmissionRateLimit < 0 {
		return apperr.Validation("submission rate limit must not be negative")
	}
	return maxLen("site title", s.SiteTitle, 255)
}

// Masked returns a copy safe to send to the admin UI.
func (s Settings) Masked() Settings {
	s.SMTPPass = ""
	return s
}
