package importer

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern is the import-side email check. The API layer applies a
// stricter RFC-like pattern on manual entry.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateRow checks one raw row against the active mapping and either
// returns a normalized row or the full list of field-level errors,
// never both. Fields are validated independently so a row can
// accumulate several errors before being rejected.
func ValidateRow(catalog []FieldSpec, mapping []MappingEntry, headers []string, row Row) (MappedRow, []RowError) {
	specs := make(map[string]FieldSpec, len(catalog))
	for _, f := range catalog {
		specs[f.Name] = f
	}

	columnIdx := make(map[string]int, len(headers))
	for i, h := range headers {
		columnIdx[strings.TrimSpace(h)] = i
	}

	mapped := MappedRow{Number: row.Number, Fields: make(map[string]string)}
	var errs []RowError

	for _, entry := range mapping {
		spec, ok := specs[entry.Field]
		if !ok {
			continue
		}

		raw := ""
		if idx, ok := columnIdx[entry.Column]; ok && idx < len(row.Cells) {
			raw = strings.TrimSpace(row.Cells[idx])
		}

		if raw == "" {
			if entry.Required {
				errs = append(errs, RowError{
					Row:     row.Number,
					Field:   spec.Name,
					Message: fmt.Sprintf("%s is required", spec.Label),
				})
				continue
			}
			// Optional: fall back to the field's default, or keep empty.
			if entry.Default != "" {
				mapped.Fields[spec.Name] = entry.Default
			} else {
				mapped.Fields[spec.Name] = ""
			}
			continue
		}

		switch {
		case spec.Name == "email":
			if !emailPattern.MatchString(raw) {
				errs = append(errs, RowError{
					Row:     row.Number,
					Field:   spec.Name,
					Message: fmt.Sprintf("invalid email format: %s", raw),
				})
				continue
			}
			mapped.Fields[spec.Name] = strings.ToLower(raw)

		case len(spec.Allowed) > 0:
			// Enum values must match case-sensitively after trimming.
			if !contains(spec.Allowed, raw) {
				errs = append(errs, RowError{
					Row:     row.Number,
					Field:   spec.Name,
					Message: fmt.Sprintf("invalid %s %q, allowed values: %s", spec.Name, raw, strings.Join(spec.Allowed, ", ")),
				})
				continue
			}
			mapped.Fields[spec.Name] = raw

		default:
			mapped.Fields[spec.Name] = raw
		}
	}

	if len(errs) > 0 {
		return MappedRow{}, errs
	}
	return mapped, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
