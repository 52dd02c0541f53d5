package record

import (
	"fmt"
	"regexp"

	"github.com/openextract/openextract/internal/template"
)

// ValidationReport summarizes how a merged field map measures up against
// the template that produced it. Validity reflects errors only; warnings
// never invalidate a record.
type ValidationReport struct {
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	FieldsExtracted int      `json:"fields_extracted"`
	FieldsTotal     int      `json:"fields_total"`
}

// Validate checks a merged field map against the template's declared
// requirements. A required field that is absent or empty is an error; a
// value that fails its field's validation pattern is a warning.
func Validate(fields map[string]any, tmpl *template.Definition) *ValidationReport {
	report := &ValidationReport{
		Errors:      []string{},
		Warnings:    []string{},
		FieldsTotal: len(tmpl.Fields),
	}

	for _, field := range tmpl.Fields {
		value, present := fields[field.FieldName]

		if !present {
			if field.Required {
				report.Errors = append(report.Errors,
					fmt.Sprintf("required field %q not in results", field.FieldName))
			}
			continue
		}

		if isEmpty(value) {
			if field.Required {
				report.Errors = append(report.Errors,
					fmt.Sprintf("required field %q is empty", field.FieldName))
			}
			continue
		}
		report.FieldsExtracted++

		if field.Validation == "" {
			continue
		}
		rendered := formatCell(value)
		matched, err := regexp.MatchString(field.Validation, rendered)
		if err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("field %q has an invalid validation pattern %q", field.FieldName, field.Validation))
			continue
		}
		if !matched {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("field %q value %q does not match pattern %q", field.FieldName, rendered, field.Validation))
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
