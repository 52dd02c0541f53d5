package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openextract/openextract/internal/document"
	"github.com/openextract/openextract/internal/template"
)

const testTemplateJSON = `{
  "template_id": "generic-invoice",
  "template_name": "Generic Invoice",
  "description": "Invoice header fields",
  "document_type": "invoice",
  "version": "1.0.0",
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
      "display_name": "Total Amount",
      "data_type": "currency",
      "required": false,
      "extraction_method": "keyword_proximity",
      "keywords": ["Total Due", "Amount Due"]
    }
  ],
  "output_format": {
    "csv_headers": ["invoice_number", "total_amount"],
    "date_format": "YYYY-MM-DD"
  }
}`

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "generic-invoice.json"), []byte(testTemplateJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog, err := template.NewCatalog(dir)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return NewService(catalog, document.NewExtractor(0), nil)
}

func TestExtractUnknownTemplate(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Extract(context.Background(), ExtractRequest{
		DocumentPath: "whatever.pdf",
		TemplateID:   "no-such-template",
	})

	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "generic-invoice") {
		t.Errorf("error should list known templates: %v", err)
	}
}

func TestExtractMissingDocument(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Extract(context.Background(), ExtractRequest{
		DocumentPath: filepath.Join(t.TempDir(), "missing.pdf"),
		TemplateID:   "generic-invoice",
	})

	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestExtractCanceledContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Extract(ctx, ExtractRequest{DocumentPath: "x.pdf", TemplateID: "generic-invoice"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestValidateUnknownTemplate(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Validate(map[string]any{}, "no-such-template")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestValidateRequiredField(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.Validate(map[string]any{"total_amount": 99.0}, "generic-invoice")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.Valid {
		t.Error("expected invalid report")
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "invoice_number") {
		t.Errorf("expected one error naming invoice_number, got %v", report.Errors)
	}
}

func TestExtractBatchEmpty(t *testing.T) {
	svc := newTestService(t)

	table, err := svc.ExtractBatch(context.Background(), nil, "generic-invoice", BatchOptions{})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Errorf("expected empty table, got %d rows", len(table.Rows))
	}
}

func TestExtractBatchContinueOnError(t *testing.T) {
	svc := newTestService(t)
	paths := []string{
		filepath.Join(t.TempDir(), "a.pdf"),
		filepath.Join(t.TempDir(), "b.pdf"),
	}

	table, err := svc.ExtractBatch(context.Background(), paths, "generic-invoice", BatchOptions{
		ContinueOnError: true,
		Workers:         2,
	})
	if err != nil {
		t.Fatalf("continue-on-error batch must not fail: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Errorf("expected all items skipped, got %d rows", len(table.Rows))
	}
}

func TestExtractBatchAbortOnError(t *testing.T) {
	svc := newTestService(t)
	paths := []string{filepath.Join(t.TempDir(), "a.pdf")}

	_, err := svc.ExtractBatch(context.Background(), paths, "generic-invoice", BatchOptions{
		ContinueOnError: false,
	})
	if err == nil {
		t.Fatal("expected batch to abort on item failure")
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected item error to propagate, got %v", err)
	}
}
