package model

import (
	"regexp"
	"strconv"
	"time"

	"github.com/ivyforms/ivyforms/internal/apperr"
)

type FormStatus string

const (
	FormDraft     FormStatus = "draft"
	FormPublished FormStatus = "published"
)

type Form struct {
	ID          int64      `json:"id" yaml:"-"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description,omitempty"`
	Status      FormStatus `json:"status" yaml:"status"`
	ShowTitle   bool       `json:"showTitle" yaml:"showTitle"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"-"`
	Fields      []Field    `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Validate checks the form and its fields. An empty status defaults to draft.
func (f *Form) Validate() error {
	if err := checkID("form id", f.ID); err != nil {
		return err
	}
	if err := requireLen("form name", f.Name, 255); err != nil {
		return err
	}
	switch f.Status {
	case FormDraft, FormPublished:
	case "":
		f.Status = FormDraft
	default:
		return apperr.Validation("form status %q is not supported", f.Status)
	}
	for i := range f.Fields {
		if err := f.Fields[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (f *Form) Published() bool { return f.Status == FormPublished }

// FieldByID returns the field with the given id, or nil.
func (f *Form) FieldByID(id int64) *Field {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i]
		}
	}
	return nil
}

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldPhone    FieldType = "phone"
	FieldURL      FieldType = "url"
	FieldHidden   FieldType = "hidden"
)

var fieldTypes = map[FieldType]bool{
	FieldText: true, FieldTextarea: true, FieldEmail: true, FieldNumber: true,
	FieldSelect: true, FieldRadio: true, FieldCheckbox: true, FieldDate: true,
	FieldPhone: true, FieldURL: true, FieldHidden: true,
}

var inputName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ReservedInputNames are request keys that never carry field values.
var ReservedInputNames = map[string]bool{"formId": true, "nonce": true}

type Field struct {
	ID          int64         `json:"id" yaml:"-"`
	FormID      int64         `json:"formId" yaml:"-"`
	Type        FieldType     `json:"type" yaml:"type"`
	Index       int           `json:"index" yaml:"index"`
	Name        string        `json:"name" yaml:"name,omitempty"`
	Label       string        `json:"label" yaml:"label"`
	Placeholder string        `json:"placeholder" yaml:"placeholder,omitempty"`
	Required    bool          `json:"required" yaml:"required"`
	Options     []FieldOption `json:"options,omitempty" yaml:"options,omitempty"`
}

func (f *Field) Validate() error {
	if err := checkID("field id", f.ID); err != nil {
		return err
	}
	if err := checkID("field form id", f.FormID); err != nil {
		return err
	}
	if !fieldTypes[f.Type] {
		return apperr.Validation("field type %q is not supported", f.Type)
	}
	if f.Index < 0 {
		return apperr.Validation("field index must not be negative")
	}
	if f.Name != "" && !inputName.MatchString(f.Name) {
		return apperr.Validation("field name %q may only contain letters, digits, '_' and '-'", f.Name)
	}
	if ReservedInputNames[f.Name] {
		return apperr.Validation("field name %q is reserved", f.Name)
	}
	if err := maxLen("field label", f.Label, 255); err != nil {
		return err
	}
	if err := maxLen("field placeholder", f.Placeholder, 255); err != nil {
		return err
	}
	for i := range f.Options {
		if err := f.Options[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Key is the composite "<type>_<index>" address of the field.
func (f *Field) Key() string {
	return string(f.Type) + "_" + strconv.Itoa(f.Index)
}

// InputName is the key the field's value is submitted under in
// notification data. It defaults to Key.
func (f *Field) InputName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Key()
}

// HasOptions reports whether submitted values must match one of the options.
func (f *Field) HasOptions() bool {
	switch f.Type {
	case FieldSelect, FieldRadio, FieldCheckbox:
		return len(f.Options) > 0
	}
	return false
}

// AllowsOption reports whether v is one of the field's option values.
func (f *Field) AllowsOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

type FieldOption struct {
	ID       int64  `json:"id" yaml:"-"`
	FieldID  int64  `json:"fieldId" yaml:"-"`
	Label    string `json:"label" yaml:"label"`
	Value    string `json:"value" yaml:"value"`
	Position int    `json:"position" yaml:"position"`
}

func (o *FieldOption) Validate() error {
	if err := checkID("option id", o.ID); err != nil {
		return err
	}
	if err := maxLen("option label", o.Label, 255); err != nil {
		return err
	}
	return requireLen("option value", o.Value, 255)
}

// DefaultContactForm returns the starter form created on first run.
func DefaultContactForm() Form {
	return Form{
		Name:        "Contact Form",
		Description: "Get in touch with us.",
		Status:      FormPublished,
		ShowTitle:   true,
		Fields: []Field{
			{Type: FieldText, Index: 0, Name: "your_name", Label: "Name", Placeholder: "Your name", Required: true},
			{Type: FieldEmail, Index: 1, Name: "your_email", Label: "Email", Placeholder: "you@example.com", Required: true},
			{Type: FieldTextarea, Index: 2, Name: "your_message", Label: "Message", Placeholder: "How can we help?", Required: true},
		},
	}
}
