package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// SchemaField is one entry of a schema's "fields" array. Schemas are stored
// opaquely; this is only the part the service reads back out of them.
type SchemaField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// DirectorySchema is the document shape the inference service produces.
type DirectorySchema struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Fields      []SchemaField `json:"fields"`
}

// SchemaFields extracts the declared fields of schema. Schemas without a
// fields array yield nil.
func SchemaFields(schema json.RawMessage) []SchemaField {
	if !gjson.ValidBytes(schema) {
		return nil
	}
	var fields []SchemaField
	gjson.GetBytes(schema, "fields").ForEach(func(_, f gjson.Result) bool {
		name := f.Get("name").String()
		if name == "" {
			return true
		}
		fields = append(fields, SchemaField{
			Name:        name,
			Label:       f.Get("label").String(),
			Type:        f.Get("type").String(),
			Required:    f.Get("required").Bool(),
			Description: f.Get("description").String(),
		})
		return true
	})
	return fields
}

// MissingRequired lists the required fields of schema that data leaves
// absent or blank.
func MissingRequired(schema json.RawMessage, data map[string]interface{}) []string {
	var missing []string
	for _, f := range SchemaFields(schema) {
		if !f.Required {
			continue
		}
		if isBlank(data[f.Name]) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []interface{}:
		return len(t) == 0
	}
	return false
}

// Slugify turns a display name into a lowercase, hyphen separated slug.
func Slugify(name string) string {
	return joinWords(name, '-')
}

// fieldKey turns a human label into a snake_case field name.
func fieldKey(label string) string {
	return joinWords(label, '_')
}

func joinWords(s string, sep rune) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// splitList splits a free-text answer such as "name, address; phone" into
// distinct entries.
func splitList(answer string) []string {
	parts := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	seen := make(map[string]bool, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		key := fieldKey(p)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// stripCodeFence removes a ```json fence some models wrap their output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func describeFields(fields []SchemaField) string {
	var b strings.Builder
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "- %s (%s, %s)", f.Name, orDefault(f.Type, "text"), req)
		if f.Description != "" {
			fmt.Fprintf(&b, ": %s", f.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
