// Package template loads, validates, and indexes the declarative extraction
// templates that drive the field extraction engine.
package template

// Extraction method names accepted in field definitions.
const (
	MethodPattern          = "pattern"
	MethodPosition         = "position"
	MethodKeywordProximity = "keyword_proximity"
)

// Data type names accepted in field definitions. The parsing behavior for
// each lives in the coerce package.
var ValidDataTypes = []string{
	"string", "integer", "currency", "decimal", "date", "boolean", "percentage",
}

// ValidMethods lists the accepted extraction method names.
var ValidMethods = []string{
	MethodPattern, MethodPosition, MethodKeywordProximity,
}

// Definition describes one document type: its identity, its fields, and how
// extracted records are laid out. Definitions are immutable once loaded;
// reload replaces them wholesale.
type Definition struct {
	TemplateID   string            `json:"template_id"`
	TemplateName string            `json:"template_name"`
	Description  string            `json:"description"`
	DocumentType string            `json:"document_type"`
	Version      string            `json:"version"`
	Tags         []string          `json:"tags,omitempty"`
	Fields       []FieldDefinition `json:"fields"`
	OutputFormat OutputFormatSpec  `json:"output_format"`

	// Category is derived from the template's location under the catalog
	// directory, not from the file itself.
	Category string `json:"-"`
	FilePath string `json:"-"`
}

// FieldDefinition is one named, typed unit of data within a template.
// Method-specific properties are only meaningful for the matching
// extraction_method and are checked at load time.
type FieldDefinition struct {
	FieldName        string    `json:"field_name"`
	DisplayName      string    `json:"display_name"`
	DataType         string    `json:"data_type"`
	Required         bool      `json:"required"`
	ExtractionMethod string    `json:"extraction_method"`
	Pattern          string    `json:"pattern,omitempty"`
	FallbackPatterns []string  `json:"fallback_patterns,omitempty"`
	Keywords         []string  `json:"keywords,omitempty"`
	MaxDistance      int       `json:"max_distance,omitempty"`
	Position         *Position `json:"position,omitempty"`
	DefaultValue     string    `json:"default_value,omitempty"`
	Validation       string    `json:"validation,omitempty"`
	LineCode         string    `json:"line_code,omitempty"`
}

// Position describes a page region for position-based extraction.
type Position struct {
	Page int     `json:"page"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// OutputFormatSpec selects the output layout for assembled records.
type OutputFormatSpec struct {
	Columns          []string `json:"csv_headers"`
	DateFormat       string   `json:"date_format,omitempty"`
	IncludeLineCodes bool     `json:"include_line_codes,omitempty"`
}

// Summary is the lightweight listing view of a template.
type Summary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	DocumentType string `json:"document_type"`
	Version      string `json:"version"`
}

// Field returns the definition of the named field, or nil.
func (d *Definition) Field(name string) *FieldDefinition {
	for i := range d.Fields {
		if d.Fields[i].FieldName == name {
			return &d.Fields[i]
		}
	}
	return nil
}

func (d *Definition) summary() Summary {
	name := d.TemplateName
	if name == "" {
		name = d.TemplateID
	}
	category := d.Category
	if category == "" {
		category = "other"
	}
	return Summary{
		ID:           d.TemplateID,
		Name:         name,
		Description:  d.Description,
		Category:     category,
		DocumentType: d.DocumentType,
		Version:      d.Version,
	}
}
