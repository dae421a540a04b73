package importer

import (
	"strings"

	"github.com/hugh/leadhub/internal/database/models"
)

// FieldSpec describes one importable lead field. The catalog of specs
// is configuration handed to the pipeline, not baked into it.
type FieldSpec struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Allowed  []string `json:"allowed_values,omitempty"`
	Default  string   `json:"default,omitempty"`
}

// MappingEntry associates one lead field with one spreadsheet column.
// Column is empty when a required field has no matching header yet.
type MappingEntry struct {
	Field    string `json:"field"`
	Column   string `json:"column"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
}

// DefaultLeadFields is the standard import catalog for lead records.
func DefaultLeadFields() []FieldSpec {
	return []FieldSpec{
		{Name: "name", Label: "Name", Required: true},
		{Name: "email", Label: "Email", Required: true},
		{Name: "phone", Label: "Phone", Required: true},
		{Name: "company", Label: "Company"},
		{Name: "position", Label: "Position"},
		{Name: "location", Label: "Location"},
		{Name: "source", Label: "Source", Allowed: sourceValues(), Default: string(models.SourceImport)},
		{Name: "priority", Label: "Priority", Allowed: priorityValues(), Default: string(models.PriorityMedium)},
	}
}

func sourceValues() []string {
	out := make([]string, len(models.LeadSources))
	for i, s := range models.LeadSources {
		out[i] = string(s)
	}
	return out
}

func priorityValues() []string {
	out := make([]string, len(models.LeadPriorities))
	for i, p := range models.LeadPriorities {
		out[i] = string(p)
	}
	return out
}

// SuggestMapping proposes a column for each lead field from the sheet's
// headers. Matching is deterministic: a case-insensitive exact match of
// the field's name or label wins over substring containment in either
// direction, and within a rule the leftmost header wins. Required
// fields are always present in the result, with an empty column when
// nothing matched; optional fields appear only when matched. The caller
// may freely edit the result before import.
func SuggestMapping(fields []FieldSpec, headers []string) []MappingEntry {
	var out []MappingEntry
	for _, field := range fields {
		column, ok := bestHeader(field, headers)
		if !ok && !field.Required {
			continue
		}
		out = append(out, MappingEntry{
			Field:    field.Name,
			Column:   column,
			Required: field.Required,
			Default:  field.Default,
		})
	}
	return out
}

func bestHeader(field FieldSpec, headers []string) (string, bool) {
	name := strings.ToLower(field.Name)
	label := strings.ToLower(field.Label)

	// Rule 1: exact match on internal name or display label.
	for _, h := range headers {
		lh := strings.ToLower(strings.TrimSpace(h))
		if lh == "" {
			continue
		}
		if lh == name || lh == label {
			return h, true
		}
	}

	// Rule 2: substring containment in either direction.
	for _, h := range headers {
		lh := strings.ToLower(strings.TrimSpace(h))
		if lh == "" {
			continue
		}
		if strings.Contains(lh, name) || strings.Contains(name, lh) ||
			strings.Contains(lh, label) || strings.Contains(label, lh) {
			return h, true
		}
	}

	return "", false
}
