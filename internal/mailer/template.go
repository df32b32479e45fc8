package mailer

import (
	"html"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

const AllFieldsToken = "all_fields"

var (
	titleCaser   = cases.Title(language.Und, cases.NoLower)
	keySeparator = strings.NewReplacer("_", " ", "-", " ")
)

// RenderBody substitutes raw submitted values into a notification message.
// {{all_fields}} expands to an HTML table of every submitted value; general
// site data and field labels are not available here.
func RenderBody(tmpl string, formData placeholder.FieldData) string {
	return placeholder.NewReplacer().
		Fields(formData, nil).
		Token(AllFieldsToken, AllFieldsTable(formData)).
		Replace(tmpl)
}

// AllFieldsTable renders formData as a two column HTML table, skipping
// reserved request keys. Labels are the title-cased keys.
func AllFieldsTable(formData placeholder.FieldData) string {
	var b strings.Builder
	b.WriteString(`<table cellpadding="6" cellspacing="0" border="1" style="border-collapse:collapse">`)
	for _, f := range formData {
		if model.ReservedInputNames[f.Key] {
			continue
		}
		b.WriteString("\n<tr><th align=\"left\">")
		b.WriteString(html.EscapeString(KeyLabel(f.Key)))
		b.WriteString("</th><td>")
		b.WriteString(html.EscapeString(placeholder.Stringify(f.Value, ", ")))
		b.WriteString("</td></tr>")
	}
	b.WriteString("\n</table>")
	return b.String()
}

// KeyLabel turns "first_name" into "First Name".
func KeyLabel(key string) string {
	return titleCaser.String(keySeparator.Replace(key))
}

// RenderPreview substitutes sample values for display in the form editor.
// A field's placeholder text is used as its sample, falling back to
// "[Label]".
func RenderPreview(tmpl string, fields []model.Field) string {
	var data placeholder.FieldData
	for _, f := range fields {
		sample := f.Placeholder
		if sample == "" {
			sample = "[" + f.Label + "]"
		}
		data.Set(f.InputName(), sample)
	}
	return RenderBody(tmpl, data)
}
