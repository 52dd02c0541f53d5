// Package record renders merged extraction results into tabular form and
// checks them against template-declared requirements.
package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/openextract/openextract/internal/coerce"
	"github.com/openextract/openextract/internal/template"
)

// Vertical-layout column names. Every template with include_line_codes set
// renders into these four columns regardless of its own output columns.
var verticalColumns = []string{"line_code", "field_name", "display_name", "value"}

// Table is an assembled tabular record. Horizontal layouts carry a single
// row; vertical layouts carry one row per template field; batch tables
// carry one row per document.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Assemble renders a merged field map into the layout the template's
// output spec selects. The field map is not modified.
func Assemble(fields map[string]any, tmpl *template.Definition) *Table {
	if tmpl.OutputFormat.IncludeLineCodes {
		return assembleVertical(fields, tmpl)
	}
	return assembleHorizontal(fields, tmpl)
}

// assembleHorizontal produces one row with one cell per declared output
// column. Templates that declare no columns fall back to the field list
// order.
func assembleHorizontal(fields map[string]any, tmpl *template.Definition) *Table {
	columns := tmpl.OutputFormat.Columns
	if len(columns) == 0 {
		columns = make([]string, 0, len(tmpl.Fields))
		for _, field := range tmpl.Fields {
			columns = append(columns, field.FieldName)
		}
	}

	row := make([]string, 0, len(columns))
	for _, column := range columns {
		value := fields[column]
		if field := tmpl.Field(column); field != nil && field.DataType == coerce.TypeDate {
			if iso, ok := value.(string); ok && iso != "" {
				value = coerce.FormatDate(iso, tmpl.OutputFormat.DateFormat)
			}
		}
		row = append(row, formatCell(value))
	}

	return &Table{Columns: columns, Rows: [][]string{row}}
}

// assembleVertical produces one row per declared field carrying its line
// code, names, and display-formatted value. Fields without a line code
// render a "-" marker.
func assembleVertical(fields map[string]any, tmpl *template.Definition) *Table {
	rows := make([][]string, 0, len(tmpl.Fields))
	for _, field := range tmpl.Fields {
		value := fields[field.FieldName]

		switch field.DataType {
		case coerce.TypeDate:
			if iso, ok := value.(string); ok && iso != "" {
				value = coerce.FormatDate(iso, tmpl.OutputFormat.DateFormat)
			}
		case coerce.TypeCurrency:
			switch v := value.(type) {
			case float64:
				value = coerce.FormatCurrency(v)
			case int:
				value = coerce.FormatCurrency(float64(v))
			}
		}

		lineCode := field.LineCode
		if lineCode == "" {
			lineCode = "-"
		}
		displayName := field.DisplayName
		if displayName == "" {
			displayName = field.FieldName
		}

		rows = append(rows, []string{lineCode, field.FieldName, displayName, formatCell(value)})
	}

	return &Table{Columns: verticalColumns, Rows: rows}
}

// formatCell renders a merged-map value as a cell string. Missing values
// render empty rather than as a null marker.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// AddColumn appends a column with the same value in every row. Batch
// processing uses it to tag each row with its source file.
func (t *Table) AddColumn(name, value string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], value)
	}
}

// Append concatenates another table's rows onto this one. The tables must
// share a column layout; rows from a mismatched table are dropped with an
// error.
func (t *Table) Append(other *Table) error {
	if len(other.Columns) != len(t.Columns) {
		return fmt.Errorf("column count mismatch: %d vs %d", len(other.Columns), len(t.Columns))
	}
	for i, column := range t.Columns {
		if other.Columns[i] != column {
			return fmt.Errorf("column %d mismatch: %q vs %q", i, other.Columns[i], column)
		}
	}
	t.Rows = append(t.Rows, other.Rows...)
	return nil
}

// WriteCSV writes the table, header row first.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// String renders the table as aligned plain text for terminal display.
func (t *Table) String() string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	return sb.String()
}

// Maps returns the rows as column-keyed maps, the shape JSON output uses.
func (t *Table) Maps() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, column := range t.Columns {
			if i < len(row) {
				m[column] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}
