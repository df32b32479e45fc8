package placeholder

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var leftover = regexp.MustCompile(`\{\{[^}]+\}\}`)

func TestReplace_NoTokensUnchanged(t *testing.T) {
	templates := []string{
		"",
		"plain text",
		"single { brace } pairs",
		"{{}} has an empty token",
		"{{a}b}} is not a token",
		"multi\nline\ttext with unicode ✓",
	}
	data := FieldData{{Key: "name", Value: "Ann"}}
	for _, tmpl := range templates {
		assert.Equal(t, tmpl, Replace(tmpl, data, GeneralData{"site_url": "x"}, nil), "template %q", tmpl)
	}
}

func TestReplace_NeverLeavesTemplateTokens(t *testing.T) {
	cases := []struct {
		tmpl string
		want string
	}{
		{"{{missing}}", ""},
		{"{{{a}}}", "}"},
		{"{{a}}}}", "}}"},
		{"{{{{a}}}}", "}}"},
		{"x {{ spaced }} y", "x  y"},
		{"Hi {{name}}, {{wp.unknown}}!", "Hi Ann, !"},
		{"{{name}}{{name}}{{nope}}", "AnnAnn"},
		{"{{a{{name}}b}}", ""},
		{"{{{{name}}}}", ""},
		{"{{x {{name}} y}}", ""},
	}
	data := FieldData{{Key: "name", Value: "Ann"}}
	for _, tc := range cases {
		t.Run(tc.tmpl, func(t *testing.T) {
			got := Replace(tc.tmpl, data, nil, nil)
			assert.Equal(t, tc.want, got)
			assert.NotRegexp(t, leftover, got)
		})
	}
}

func TestReplace_BracesFromValuesSurvive(t *testing.T) {
	data := FieldData{{Key: "name", Value: "}}"}, {Key: "open", Value: "{{"}}
	assert.Equal(t, "{{x}}", Replace("{{open}}x{{name}}", data, nil, nil))
	assert.Equal(t, "a}}b", Replace("a{{name}}b", data, nil, nil))
}

func TestReplace_SimpleField(t *testing.T) {
	got := Replace("Hello {{name}}", FieldData{{Key: "name", Value: "Ann"}}, GeneralData{}, Labels{})
	assert.Equal(t, "Hello Ann", got)
}

func TestReplace_MissingTokenStripped(t *testing.T) {
	assert.Equal(t, "", Replace("{{missing}}", nil, nil, nil))
}

func TestReplace_AllDataSuppressesDuplicateLabels(t *testing.T) {
	data := FieldData{
		{Key: "text_0", Value: "Ann"},
		{Key: "12", Value: "Ann"},
		{Key: "email_1", Value: "ann@example.com"},
		{Key: "13", Value: "ann@example.com"},
	}
	labels := Labels{"text_0": "Name", "12": "Name", "email_1": "Email", "13": "Email"}

	got := Replace("{{all_data}}", data, nil, labels)

	assert.Equal(t, "Name: Ann\nEmail: ann@example.com", got)
	assert.Equal(t, 1, strings.Count(got, "Name: Ann"))
}

func TestReplace_AllDataWithoutLabelsIsEmpty(t *testing.T) {
	got := Replace("[{{all_data}}]", FieldData{{Key: "text_0", Value: "Ann"}}, nil, nil)
	assert.Equal(t, "[]", got)
}

func TestReplace_AllDataStrippedWhenNoFields(t *testing.T) {
	assert.Equal(t, "data: ", Replace("data: {{all_data}}", nil, nil, Labels{"x": "X"}))
}

func TestReplace_GeneralData(t *testing.T) {
	general := GeneralData{"site_url": "https://example.com", "entry_id": int64(7)}
	got := Replace("{{wp.site_url}} #{{wp.entry_id}} {{site_url}}", nil, general, nil)
	assert.Equal(t, "https://example.com #7 ", got)
}

func TestReplace_ListValuesFlattened(t *testing.T) {
	data := FieldData{{Key: "checkbox_2", Value: []string{"red", "", "blue"}}}
	assert.Equal(t, "red blue", Replace("{{checkbox_2}}", data, nil, nil))

	data = FieldData{{Key: "checkbox_2", Value: []any{"a", nil, 3}}}
	assert.Equal(t, "a 3", Replace("{{checkbox_2}}", data, nil, nil))
}

func TestReplace_KeysAreLiteral(t *testing.T) {
	data := FieldData{{Key: "a.b*(c)", Value: "hit"}}
	assert.Equal(t, "hit|", Replace("{{a.b*(c)}}|{{aXb*(c)}}", data, nil, nil))

	data = FieldData{{Key: "a}", Value: "brace"}}
	assert.Equal(t, "brace", Replace("{{a}}}", data, nil, nil))
}

func TestReplace_OverlappingKeys(t *testing.T) {
	general := GeneralData{"user": "ann", "user_id": 4}
	assert.Equal(t, "ann/4", Replace("{{wp.user}}/{{wp.user_id}}", nil, general, nil))
}

func TestReplace_NestedBraces(t *testing.T) {
	data := FieldData{{Key: "name", Value: "Ann"}}
	assert.Equal(t, "{Ann}", Replace("{{{name}}}", data, nil, nil))
}

func TestReplace_ValuesAreNotRescanned(t *testing.T) {
	data := FieldData{
		{Key: "name", Value: "{{wp.site_url}}"},
		{Key: "note", Value: "literal {{braces}} kept"},
	}
	general := GeneralData{"site_url": "https://example.com"}

	got := Replace("{{name}} | {{note}} | {{gone}}", data, general, nil)

	assert.Equal(t, "{{wp.site_url}} | literal {{braces}} kept | ", got)
}

func TestReplacer_ExtraToken(t *testing.T) {
	r := NewReplacer().
		Fields(FieldData{{Key: "name", Value: "Ann"}}, nil).
		Token("all_fields", "<table></table>")

	assert.Equal(t, "Ann <table></table>", r.Replace("{{name}} {{all_fields}}"))
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "1"},
		{false, ""},
		{42, "42"},
		{int64(-3), "-3"},
		{1.5, "1.5"},
		{[]string{"a", "b"}, "a, b"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Stringify(tc.in, ", "), "%v", tc.in)
	}
}

func TestFieldDataSet(t *testing.T) {
	var d FieldData
	d.Set("a", 1)
	d.Set("b", 2)
	d.Set("a", 3)

	assert.Len(t, d, 2)
	v, ok := d.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, "a", d[0].Key)

	_, ok = d.Get("missing")
	assert.False(t, ok)
}
