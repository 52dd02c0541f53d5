package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openextract/openextract/internal/config"
	"github.com/openextract/openextract/internal/document"
	"github.com/openextract/openextract/internal/extractor"
	"github.com/openextract/openextract/internal/template"
)

const invoiceTemplateJSON = `{
  "template_id": "generic-invoice",
  "template_name": "Generic Invoice",
  "description": "Invoice header fields",
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
    }
  ],
  "output_format": {
    "csv_headers": ["invoice_number"]
  }
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	templatesDir := t.TempDir()
	categoryDir := filepath.Join(templatesDir, "invoices")
	if err := os.MkdirAll(categoryDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(categoryDir, "generic-invoice.json"), []byte(invoiceTemplateJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := template.NewCatalog(templatesDir)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}

	cfg := &config.Config{
		Mode:         "stdio",
		TemplatesDir: templatesDir,
		Version:      "1.0.0",
		ServerName:   "test-server",
		MaxFileSize:  1024 * 1024,
		LogLevel:     "info",
	}
	service := extractor.NewService(catalog, document.NewExtractor(cfg.MaxFileSize), nil)

	server, err := NewServer(cfg, service, catalog)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t)

	if server.mcpServer == nil {
		t.Error("mcpServer should be initialized")
	}
	if server.catalog.Count() != 1 {
		t.Errorf("expected 1 template loaded, got %d", server.catalog.Count())
	}
}

func TestNewServer_NilDependencies(t *testing.T) {
	cfg := config.DefaultConfig()

	if _, err := NewServer(cfg, nil, nil); err == nil {
		t.Error("expected error for nil service")
	}
}

func TestServer_HandleListTemplates(t *testing.T) {
	server := newTestServer(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	result, err := server.handleListTemplates(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := extractTextFromResult(result)
	if !strings.Contains(text, "generic-invoice") {
		t.Errorf("listing should contain the template id, got: %s", text)
	}
	if !strings.Contains(text, "invoices:") {
		t.Errorf("listing should group by category, got: %s", text)
	}
}

func TestServer_HandleListTemplates_UnknownCategory(t *testing.T) {
	server := newTestServer(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"category": "no-such-category",
			},
		},
	}

	result, err := server.handleListTemplates(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := extractTextFromResult(result)
	if !strings.Contains(text, "No templates in category") {
		t.Errorf("expected empty-category message, got: %s", text)
	}
}

func TestServer_HandleTemplateInfo(t *testing.T) {
	server := newTestServer(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"template": "generic-invoice",
			},
		},
	}

	result, err := server.handleTemplateInfo(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := extractTextFromResult(result)
	for _, want := range []string{"Generic Invoice", "invoice_number", "pattern", "required", "horizontal"} {
		if !strings.Contains(text, want) {
			t.Errorf("template info should contain %q, got: %s", want, text)
		}
	}
}

func TestServer_HandleTemplateInfo_NotFound(t *testing.T) {
	server := newTestServer(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"template": "nope",
			},
		},
	}

	result, err := server.handleTemplateInfo(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown template")
	}
}

func TestServer_HandleSearchTemplates(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		query     string
		wantMatch bool
	}{
		{"invoice", true},
		{"BILLING", true},
		{"payroll", false},
	}

	for _, tt := range tests {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"query": tt.query,
				},
			},
		}

		result, err := server.handleSearchTemplates(context.Background(), request)
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}

		text := extractTextFromResult(result)
		gotMatch := strings.Contains(text, "generic-invoice")
		if gotMatch != tt.wantMatch {
			t.Errorf("query %q: match = %t, want %t (text: %s)", tt.query, gotMatch, tt.wantMatch, text)
		}
	}
}

func TestServer_HandleExtractDocument_MissingDocument(t *testing.T) {
	server := newTestServer(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"path":     filepath.Join(t.TempDir(), "missing.pdf"),
				"template": "generic-invoice",
			},
		},
	}

	result, err := server.handleExtractDocument(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing document")
	}
}

func TestServer_HandleExtractDocument_MissingArguments(t *testing.T) {
	server := newTestServer(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	result, err := server.handleExtractDocument(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result when path is absent")
	}
}

func TestServer_HandleServerInfo(t *testing.T) {
	server := newTestServer(t)

	request := mcp.CallToolRequest{}

	result, err := server.handleServerInfo(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := extractTextFromResult(result)
	for _, want := range []string{"test-server", "Templates loaded: 1", "extract_document", "list_templates"} {
		if !strings.Contains(text, want) {
			t.Errorf("server info should contain %q, got: %s", want, text)
		}
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	// Try to extract text content
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		// Handle pointer to TextContent as well
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
