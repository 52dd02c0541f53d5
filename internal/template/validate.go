package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	templateIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	fieldNamePattern  = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// Validate checks a template definition for structural problems and returns
// one message per problem. A template that validates clean is safe to run
// through the extraction engine without further property checks.
func Validate(tmpl *Definition) []string {
	var errs []string

	if tmpl.TemplateID == "" {
		errs = append(errs, "missing required property: template_id")
	} else if !templateIDPattern.MatchString(tmpl.TemplateID) {
		errs = append(errs, "template_id must contain only lowercase letters, digits, and hyphens")
	}

	if tmpl.TemplateName == "" {
		errs = append(errs, "missing required property: template_name")
	}
	if tmpl.Description == "" {
		errs = append(errs, "missing required property: description")
	}
	if tmpl.DocumentType == "" {
		errs = append(errs, "missing required property: document_type")
	}

	if tmpl.Version == "" {
		errs = append(errs, "missing required property: version")
	} else if !validSemver(tmpl.Version) {
		errs = append(errs, fmt.Sprintf("version %q must be in semantic format (e.g. 1.0.0)", tmpl.Version))
	}

	if len(tmpl.Fields) == 0 {
		errs = append(errs, "missing required property: fields")
	}

	seen := make(map[string]bool, len(tmpl.Fields))
	for i := range tmpl.Fields {
		field := &tmpl.Fields[i]
		errs = append(errs, validateField(field, i)...)
		if field.FieldName != "" {
			if seen[field.FieldName] {
				errs = append(errs, fmt.Sprintf("field %d: duplicate field_name %q", i, field.FieldName))
			}
			seen[field.FieldName] = true
		}
	}

	if len(tmpl.OutputFormat.Columns) == 0 {
		errs = append(errs, "output_format must include csv_headers")
	}
	for _, col := range tmpl.OutputFormat.Columns {
		if !seen[col] {
			errs = append(errs, fmt.Sprintf("output column %q does not match any field", col))
		}
	}

	return errs
}

func validateField(field *FieldDefinition, index int) []string {
	var errs []string
	prefix := fmt.Sprintf("field %d", index)

	if field.FieldName == "" {
		errs = append(errs, prefix+": missing required property: field_name")
	} else if !fieldNamePattern.MatchString(field.FieldName) {
		errs = append(errs, fmt.Sprintf("%s: field_name %q must be snake_case", prefix, field.FieldName))
	}

	if field.DisplayName == "" {
		errs = append(errs, prefix+": missing required property: display_name")
	}

	if field.DataType == "" {
		errs = append(errs, prefix+": missing required property: data_type")
	} else if !contains(ValidDataTypes, field.DataType) {
		errs = append(errs, fmt.Sprintf("%s: invalid data_type %q", prefix, field.DataType))
	}

	switch field.ExtractionMethod {
	case "":
		errs = append(errs, prefix+": missing required property: extraction_method")
	case MethodPattern:
		if field.Pattern == "" {
			errs = append(errs, prefix+": pattern extraction_method requires a pattern")
		}
	case MethodPosition:
		if field.Position == nil {
			errs = append(errs, prefix+": position extraction_method requires a position descriptor")
		}
	case MethodKeywordProximity:
		if len(field.Keywords) == 0 {
			errs = append(errs, prefix+": keyword_proximity extraction_method requires keywords")
		}
	default:
		errs = append(errs, fmt.Sprintf("%s: invalid extraction_method %q", prefix, field.ExtractionMethod))
	}

	return errs
}

// validSemver reports whether the version has exactly three numeric
// dot-separated components.
func validSemver(version string) bool {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil || part == "" {
			return false
		}
	}
	return true
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
