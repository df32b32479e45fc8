package placeholder

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is one addressable value in a FieldData set.
type Field struct {
	Key   string
	Value any
}

// FieldData is an ordered key/value set. Order drives {{all_data}} and the
// mailer's {{all_fields}} table.
type FieldData []Field

// Set adds key or replaces its value in place.
func (d *FieldData) Set(key string, value any) {
	for i := range *d {
		if (*d)[i].Key == key {
			(*d)[i].Value = value
			return
		}
	}
	*d = append(*d, Field{Key: key, Value: value})
}

func (d FieldData) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Labels maps the same keys as FieldData to human readable field labels.
type Labels map[string]string

// GeneralData holds site and request values addressed as {{wp.key}}.
type GeneralData map[string]any

// Stringify renders a value for substitution. List values keep their order
// and drop empty entries, joined with sep.
func Stringify(v any, sep string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		parts := make([]string, 0, len(t))
		for _, s := range t {
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := Stringify(e, sep); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	case bool:
		if t {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
