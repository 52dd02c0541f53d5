package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceTemplateJSON = `{
  "template_id": "test-invoice",
  "template_name": "Test Invoice",
  "description": "Invoice fields for catalog tests",
  "document_type": "invoice",
  "version": "1.0.0",
  "tags": ["invoice", "billing"],
  "fields": [
    {
      "field_name": "invoice_number",
      "display_name": "Invoice Number",
      "data_type": "string",
      "required": true,
      "extraction_method": "pattern",
      "pattern": "Invoice\\s*#?\\s*([A-Z0-9-]+)"
    },
    {
      "field_name": "total_amount",
      "display_name": "Total",
      "data_type": "currency",
      "required": false,
      "extraction_method": "keyword_proximity",
      "keywords": ["Total Due"]
    }
  ],
  "output_format": {
    "csv_headers": ["invoice_number", "total_amount"]
  }
}`

const payrollTemplateJSON = `{
  "template_id": "test-payroll",
  "template_name": "Payroll Summary",
  "description": "Payroll register fields",
  "document_type": "payroll",
  "version": "2.1.0",
  "tags": ["payroll"],
  "fields": [
    {
      "field_name": "pay_period",
      "display_name": "Pay Period",
      "data_type": "string",
      "required": true,
      "extraction_method": "pattern",
      "pattern": "Pay Period\\s*:?\\s*(\\S+)"
    }
  ],
  "output_format": {
    "csv_headers": ["pay_period"]
  }
}`

// writeTemplate writes content under dir/relPath, creating directories as
// needed, and returns the full path.
func writeTemplate(t *testing.T, dir, relPath, content string) string {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "invoices/test-invoice.json", invoiceTemplateJSON)
	writeTemplate(t, dir, "payroll/test-payroll.json", payrollTemplateJSON)

	catalog, err := NewCatalog(dir)
	require.NoError(t, err)
	return catalog, dir
}

func TestNewCatalog(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	assert.Equal(t, 2, catalog.Count())
}

func TestNewCatalogMissingDirectory(t *testing.T) {
	_, err := NewCatalog(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestNewCatalogNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeTemplate(t, dir, "plain.json", invoiceTemplateJSON)
	_, err := NewCatalog(file)
	assert.Error(t, err)
}

func TestCatalogSkipsReservedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "invoices/test-invoice.json", invoiceTemplateJSON)
	writeTemplate(t, dir, "_schema.json", `{"$schema": "http://json-schema.org/draft-07/schema#"}`)

	catalog, err := NewCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Count())
}

func TestCatalogSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "invoices/test-invoice.json", invoiceTemplateJSON)
	writeTemplate(t, dir, "broken/not-json.json", `{not valid json`)
	writeTemplate(t, dir, "broken/no-fields.json", `{"template_id": "empty", "fields": []}`)

	catalog, err := NewCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Count())
	assert.Equal(t, []string{"test-invoice"}, catalog.KnownIDs())
}

func TestCatalogGet(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	tmpl, ok := catalog.Get("test-invoice")
	require.True(t, ok)
	assert.Equal(t, "Test Invoice", tmpl.TemplateName)
	assert.Equal(t, "invoices", tmpl.Category)
	assert.Len(t, tmpl.Fields, 2)

	_, ok = catalog.Get("no-such-template")
	assert.False(t, ok)
}

func TestCatalogCategoryFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "test-invoice.json", invoiceTemplateJSON)

	catalog, err := NewCatalog(dir)
	require.NoError(t, err)

	tmpl, ok := catalog.Get("test-invoice")
	require.True(t, ok)
	assert.Equal(t, "other", tmpl.Category, "root-level templates fall into the other category")
}

func TestCatalogList(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	summaries := catalog.List()
	require.Len(t, summaries, 2)

	// Sorted by category then name.
	assert.Equal(t, "test-invoice", summaries[0].ID)
	assert.Equal(t, "invoices", summaries[0].Category)
	assert.Equal(t, "test-payroll", summaries[1].ID)
	assert.Equal(t, "payroll", summaries[1].Category)
}

func TestCatalogListByCategory(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	invoices := catalog.ListByCategory("invoices")
	require.Len(t, invoices, 1)
	assert.Equal(t, "test-invoice", invoices[0].ID)

	// Category match is case-insensitive.
	assert.Len(t, catalog.ListByCategory("INVOICES"), 1)
	assert.Empty(t, catalog.ListByCategory("unknown"))
}

func TestCatalogListByDocumentType(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	payroll := catalog.ListByDocumentType("payroll")
	require.Len(t, payroll, 1)
	assert.Equal(t, "test-payroll", payroll[0].ID)
	assert.Empty(t, catalog.ListByDocumentType("tax-form"))
}

func TestCatalogSearch(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"invoice", []string{"test-invoice"}},
		{"BILLING", []string{"test-invoice"}},
		{"payroll register", []string{"test-payroll"}},
		{"test", []string{"test-invoice", "test-payroll"}},
		{"mortgage", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results := catalog.Search(tt.query)
			var ids []string
			for _, s := range results {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCatalogKnownIDs(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	assert.Equal(t, []string{"test-invoice", "test-payroll"}, catalog.KnownIDs())
}

func TestCatalogCategories(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	assert.Equal(t, []string{"invoices", "payroll"}, catalog.Categories())
}

func TestCatalogReload(t *testing.T) {
	catalog, dir := newTestCatalog(t)
	require.Equal(t, 2, catalog.Count())

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "payroll")))
	require.NoError(t, catalog.Reload())

	assert.Equal(t, 1, catalog.Count())
	_, ok := catalog.Get("test-payroll")
	assert.False(t, ok)
}

// TestShippedTemplatesValidate loads the repository's template catalog and
// checks every template passes validation.
func TestShippedTemplatesValidate(t *testing.T) {
	dir := filepath.Join("..", "..", "templates")
	if _, err := os.Stat(dir); err != nil {
		t.Skipf("shipped templates not present: %v", err)
	}

	catalog, err := NewCatalog(dir)
	require.NoError(t, err)
	require.Greater(t, catalog.Count(), 0)

	for _, id := range catalog.KnownIDs() {
		tmpl, ok := catalog.Get(id)
		require.True(t, ok)
		assert.Empty(t, Validate(tmpl), "template %s should validate clean", id)
	}

	assert.Contains(t, catalog.Categories(), "401k")
	_, ok := catalog.Get("form-5500-sf")
	assert.True(t, ok)
}
