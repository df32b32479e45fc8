package placeholder

import (
	"context"
	"strconv"
	"time"

	"github.com/ivyforms/ivyforms/internal/model"
)

// Formatter turns a stored value into its display form before it is
// registered, e.g. sanitised HTML for rich text fields.
type Formatter func(f model.Field, value any) any

// BuildFieldData registers every submitted value under both the field's
// composite key and its raw id, in form field order.
func BuildFieldData(fields []model.Field, values map[int64]any, format Formatter) FieldData {
	data := make(FieldData, 0, 2*len(values))
	for _, f := range fields {
		v, ok := values[f.ID]
		if !ok {
			continue
		}
		if format != nil {
			v = format(f, v)
		}
		data.Set(f.Key(), v)
		data.Set(strconv.FormatInt(f.ID, 10), v)
	}
	return data
}

// BuildFieldLabels maps the same two keys per field to its label.
func BuildFieldLabels(fields []model.Field) Labels {
	labels := make(Labels, 2*len(fields))
	for _, f := range fields {
		labels[f.Key()] = f.Label
		labels[strconv.FormatInt(f.ID, 10)] = f.Label
	}
	return labels
}

// PostFinder resolves the content item a form was submitted from.
type PostFinder interface {
	GetPage(ctx context.Context, id int64) (*model.Page, error)
}

// Meta describes the request a submission arrived with.
type Meta struct {
	IP        string
	UserAgent string
	Referer   string
	PostID    int64
	User      *model.AdminUser
}

const DefaultDateFormat = "January 2, 2006"

// GeneralDataBuilder assembles {{wp.*}} values from site settings and the
// submitting request. A zero builder is usable.
type GeneralDataBuilder struct {
	Settings model.Settings
	Posts    PostFinder
	Now      func() time.Time
}

func (b *GeneralDataBuilder) Build(ctx context.Context, entryID int64, meta Meta) GeneralData {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	layout := b.Settings.DateFormat
	if layout == "" {
		layout = DefaultDateFormat
	}

	data := GeneralData{
		"site_url":     b.Settings.SiteURL,
		"site_title":   b.Settings.SiteTitle,
		"admin_email":  b.Settings.AdminEmail,
		"current_date": now().Format(layout),
		"user_ip":      meta.IP,
		"user_agent":   meta.UserAgent,
	}
	if meta.Referer != "" {
		data["referer"] = meta.Referer
	}

	if meta.PostID > 0 && b.Posts != nil {
		if p, err := b.Posts.GetPage(ctx, meta.PostID); err == nil && p != nil {
			data["post_id"] = p.ID
			data["post_title"] = p.Title
			data["post_url"] = p.Permalink
		}
	}

	if u := meta.User; u != nil {
		data["user_id"] = u.ID
		data["user_login"] = u.Username
		data["user_email"] = u.Email
		data["user_first_name"] = u.FirstName
		data["user_last_name"] = u.LastName
	}

	if entryID != 0 {
		data["entry_id"] = entryID
	}
	return data
}
