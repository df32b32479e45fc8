package submission

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

const maxValueLen = 65535

// normalize turns a decoded JSON value into a string or a []string.
func normalize(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		if t {
			return "1", true
		}
		return "", true
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := normalize(e)
			str, isStr := s.(string)
			if !ok || !isStr {
				return nil, false
			}
			if str != "" {
				out = append(out, str)
			}
		}
		return out, true
	}
	return nil, false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	}
	return v == nil
}

func label(f *model.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key()
}

// lookup finds a field's submitted value by id, input name or composite key.
func lookup(in map[string]any, f *model.Field) (any, bool) {
	for _, k := range []string{strconv.FormatInt(f.ID, 10), f.InputName(), f.Key()} {
		if v, ok := in[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// collect validates the submitted values against the form and returns them
// keyed by field id. Empty optional fields are omitted.
func collect(form *model.Form, in map[string]any) (map[int64]any, error) {
	values := make(map[int64]any, len(form.Fields))
	for i := range form.Fields {
		f := &form.Fields[i]
		raw, _ := lookup(in, f)
		v, ok := normalize(raw)
		if !ok {
			return nil, apperr.Validation("%s has an unsupported value", label(f))
		}
		if list, isList := v.([]string); isList && f.Type != model.FieldCheckbox {
			if len(list) > 1 {
				return nil, apperr.Validation("%s accepts a single value", label(f))
			}
			v = strings.Join(list, "")
		}
		if isEmpty(v) {
			if f.Required {
				return nil, apperr.Validation("%s is required", label(f))
			}
			continue
		}
		if err := check(f, v); err != nil {
			return nil, err
		}
		values[f.ID] = v
	}
	return values, nil
}

func check(f *model.Field, v any) error {
	items, ok := v.([]string)
	if !ok {
		items = []string{v.(string)}
	}
	for _, s := range items {
		if utf8.RuneCountInString(s) > maxValueLen {
			return apperr.Validation("%s is too long", label(f))
		}
		switch f.Type {
		case model.FieldEmail:
			if !model.ValidEmail(s) {
				return apperr.Validation("%s must be a valid email address", label(f))
			}
		case model.FieldNumber:
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return apperr.Validation("%s must be a number", label(f))
			}
		case model.FieldURL:
			u, err := url.Parse(s)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return apperr.Validation("%s must be a valid URL", label(f))
			}
		}
		if f.HasOptions() && !f.AllowsOption(s) {
			return apperr.Validation("%s has an invalid choice %q", label(f), s)
		}
	}
	return nil
}

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// FormatValue renders a submitted value for the confirmation message, which
// the submitter's browser displays as HTML. Multi-line text keeps its line
// breaks; everything else is reduced to text.
func FormatValue(f model.Field, v any) any {
	switch t := v.(type) {
	case string:
		if f.Type == model.FieldTextarea {
			return strings.ReplaceAll(ugcPolicy.Sanitize(t), "\n", "<br>\n")
		}
		return strictPolicy.Sanitize(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = strictPolicy.Sanitize(s)
		}
		return out
	}
	return v
}

// FormatGeneral reduces every string in data to text for the confirmation
// message. Request values such as the referer and user agent come from the
// client.
func FormatGeneral(data placeholder.GeneralData) placeholder.GeneralData {
	out := make(placeholder.GeneralData, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			v = strictPolicy.Sanitize(s)
		}
		out[k] = v
	}
	return out
}
