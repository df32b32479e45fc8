package model

import (
	"encoding/json"
	"strings"
	"time"
)

type EntryStatus string

const (
	EntryUnread EntryStatus = "unread"
	EntryRead   EntryStatus = "read"
)

// Entry is a stored form submission.
type Entry struct {
	ID        int64        `json:"id"`
	FormID    int64        `json:"formId"`
	Status    EntryStatus  `json:"status"`
	Starred   bool         `json:"starred"`
	IP        string       `json:"ip"`
	UserAgent string       `json:"userAgent"`
	Referer   string       `json:"referer"`
	PostID    int64        `json:"postId"`
	UserID    string       `json:"userId,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	Fields    []EntryField `json:"fields,omitempty"`
}

type EntryField struct {
	ID      int64  `json:"id"`
	EntryID int64  `json:"entryId"`
	FieldID int64  `json:"fieldId"`
	Value   string `json:"value"`
}

// EncodeValue stores list values as a JSON array and everything else as
// plain text.
func EncodeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		b, _ := json.Marshal(t)
		return string(b)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}

// DecodeValue reverses EncodeValue.
func DecodeValue(s string) any {
	if strings.HasPrefix(s, "[") {
		var list []string
		if json.Unmarshal([]byte(s), &list) == nil {
			return list
		}
	}
	return s
}

// Values returns the entry's decoded values keyed by field id.
func (e *Entry) Values() map[int64]any {
	out := make(map[int64]any, len(e.Fields))
	for _, f := range e.Fields {
		out[f.FieldID] = DecodeValue(f.Value)
	}
	return out
}

// Page is a publishable content item that confirmations can redirect to and
// submissions can originate from.
type Page struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
}

func (p *Page) Validate() error {
	if err := checkID("page id", p.ID); err != nil {
		return err
	}
	if err := requireLen("page title", p.Title, 255); err != nil {
		return err
	}
	return requireLen("page permalink", p.Permalink, 2048)
}
