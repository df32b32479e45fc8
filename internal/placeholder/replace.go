package placeholder

import (
	"bytes"
	"strings"
)

const (
	AllDataToken  = "all_data"
	generalPrefix = "wp."
)

// Replacer collects token values and applies them to templates. The zero
// value is not usable; call NewReplacer.
type Replacer struct {
	tokens map[string]string
	maxLen int
}

func NewReplacer() *Replacer {
	return &Replacer{tokens: make(map[string]string)}
}

// Token registers {{name}} -> value.
func (r *Replacer) Token(name, value string) *Replacer {
	tok := "{{" + name + "}}"
	r.tokens[tok] = value
	if len(tok) > r.maxLen {
		r.maxLen = len(tok)
	}
	return r
}

// Fields registers every field value and, when data is non-empty, the
// {{all_data}} aggregate built from labels. A label contributes one line only,
// so a field addressed by both its composite key and its id appears once.
func (r *Replacer) Fields(data FieldData, labels Labels) *Replacer {
	var lines []string
	used := make(map[string]bool)
	for _, f := range data {
		value := Stringify(f.Value, " ")
		r.Token(f.Key, value)

		label, ok := labels[f.Key]
		if !ok || used[label] {
			continue
		}
		used[label] = true
		lines = append(lines, label+": "+value)
	}
	if len(data) > 0 {
		r.Token(AllDataToken, strings.Join(lines, "\n"))
	}
	return r
}

// General registers {{wp.key}} for each entry.
func (r *Replacer) General(data GeneralData) *Replacer {
	for k, v := range data {
		r.Token(generalPrefix+k, Stringify(v, " "))
	}
	return r
}

// Replace substitutes registered tokens in one pass, then strips every
// leftover {{...}} span whose opening and closing braces both come from the
// template. A span may enclose substituted text. Braces inside inserted
// values are never stripped.
func (r *Replacer) Replace(template string) string {
	if template == "" {
		return ""
	}

	out := make([]byte, 0, len(template))
	fromValue := make([]bool, 0, len(template))
	for i := 0; i < len(template); {
		if strings.HasPrefix(template[i:], "{{") {
			if n, value, ok := r.match(template[i:]); ok {
				out = append(out, value...)
				for range len(value) {
					fromValue = append(fromValue, true)
				}
				i += n
				continue
			}
		}
		out = append(out, template[i])
		fromValue = append(fromValue, false)
		i++
	}
	return stripLeftovers(out, fromValue)
}

// stripLeftovers removes spans matching {{[^}]+}}, scanning left to right
// without overlap, where all four braces are template bytes.
func stripLeftovers(out []byte, fromValue []bool) string {
	var b strings.Builder
	b.Grow(len(out))
	for p := 0; p < len(out); {
		if end := leftoverAt(out, fromValue, p); end > 0 {
			p = end
			continue
		}
		b.WriteByte(out[p])
		p++
	}
	return b.String()
}

// leftoverAt returns the end of the leftover span starting at p, or 0.
func leftoverAt(out []byte, fromValue []bool, p int) int {
	if p+1 >= len(out) || out[p] != '{' || out[p+1] != '{' || fromValue[p] || fromValue[p+1] {
		return 0
	}
	q := bytes.IndexByte(out[p+2:], '}')
	if q <= 0 {
		return 0
	}
	q += p + 2
	if q+1 >= len(out) || out[q+1] != '}' || fromValue[q] || fromValue[q+1] {
		return 0
	}
	return q + 2
}

// match finds the shortest registered token at the start of s.
func (r *Replacer) match(s string) (int, string, bool) {
	end := 2
	for {
		j := strings.Index(s[end:], "}}")
		if j < 0 {
			return 0, "", false
		}
		end += j + 2
		if end > r.maxLen {
			return 0, "", false
		}
		if v, ok := r.tokens[s[:end]]; ok {
			return end, v, true
		}
		// Keys may themselves end in '}'.
		end--
	}
}

// Replace renders template with field values, site/request values and the
// labels used for {{all_data}}. Any argument may be nil.
func Replace(template string, fieldData FieldData, generalData GeneralData, fieldLabels Labels) string {
	if template == "" {
		return ""
	}
	return NewReplacer().
		Fields(fieldData, fieldLabels).
		General(generalData).
		Replace(template)
}
