package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openextract/openextract/internal/config"
	"github.com/openextract/openextract/internal/descriptions"
	"github.com/openextract/openextract/internal/extractor"
	"github.com/openextract/openextract/internal/pagerange"
	"github.com/openextract/openextract/internal/template"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *extractor.Service
	catalog   *template.Catalog
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *extractor.Service, catalog *template.Catalog) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		catalog:   catalog,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractDocumentTool := mcp.NewTool(
		"extract_document",
		mcp.WithDescription(descriptions.ExtractDocumentDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template identifier (see list_templates)"),
		),
		mcp.WithString("pages",
			mcp.Description("Optional page selection like '1-3,5'; all pages when omitted"),
		),
	)
	s.mcpServer.AddTool(extractDocumentTool, s.handleExtractDocument)

	listTemplatesTool := mcp.NewTool(
		"list_templates",
		mcp.WithDescription(descriptions.ListTemplatesDescription),
		mcp.WithString("category",
			mcp.Description("Optional category filter"),
		),
	)
	s.mcpServer.AddTool(listTemplatesTool, s.handleListTemplates)

	templateInfoTool := mcp.NewTool(
		"template_info",
		mcp.WithDescription(descriptions.TemplateInfoDescription),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template identifier"),
		),
	)
	s.mcpServer.AddTool(templateInfoTool, s.handleTemplateInfo)

	searchTemplatesTool := mcp.NewTool(
		"search_templates",
		mcp.WithDescription(descriptions.SearchTemplatesDescription),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive substring to search for"),
		),
	)
	s.mcpServer.AddTool(searchTemplatesTool, s.handleSearchTemplates)

	validateExtractionTool := mcp.NewTool(
		"validate_extraction",
		mcp.WithDescription(descriptions.ValidateExtractionDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template identifier"),
		),
	)
	s.mcpServer.AddTool(validateExtractionTool, s.handleValidateExtraction)

	serverInfoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templateID, err := request.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var pageSpec string
	if v, ok := request.GetArguments()["pages"].(string); ok {
		pageSpec = v
	}
	pages, err := pagerange.Pages(pageSpec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Extract(ctx, extractor.ExtractRequest{
		DocumentPath: path,
		TemplateID:   templateID,
		Pages:        pages,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Extracted %s with template %s\n\n", result.DocumentPath, result.TemplateID)
	responseText += result.Table.String()

	fieldsJSON, err := json.MarshalIndent(result.Fields, "", "  ")
	if err == nil {
		responseText += "\nFields:\n" + string(fieldsJSON) + "\n"
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var summaries []template.Summary
	if category, ok := args["category"].(string); ok && category != "" {
		summaries = s.catalog.ListByCategory(category)
		if len(summaries) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No templates in category %q (categories: %s)",
				category, strings.Join(s.catalog.Categories(), ", "))), nil
		}
	} else {
		summaries = s.catalog.List()
	}

	if len(summaries) == 0 {
		return mcp.NewToolResultText("No templates loaded"), nil
	}

	return mcp.NewToolResultText(s.formatTemplateList(summaries)), nil
}

func (s *Server) handleTemplateInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := request.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tmpl, ok := s.catalog.Get(templateID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("template not found: %q (known templates: %s)",
			templateID, strings.Join(s.catalog.KnownIDs(), ", "))), nil
	}

	return mcp.NewToolResultText(s.formatTemplateInfo(tmpl)), nil
}

func (s *Server) handleSearchTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches := s.catalog.Search(query)
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No templates match %q", query)), nil
	}

	responseText := fmt.Sprintf("Found %d template(s) matching %q:\n\n", len(matches), query)
	responseText += s.formatTemplateList(matches)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleValidateExtraction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templateID, err := request.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Extract(ctx, extractor.ExtractRequest{
		DocumentPath: path,
		TemplateID:   templateID,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.service.Validate(result.Fields, templateID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Validation for %s (template %s)\n", path, templateID)
	responseText += fmt.Sprintf("Valid: %t\n", report.Valid)
	responseText += fmt.Sprintf("Fields extracted: %d of %d\n", report.FieldsExtracted, report.FieldsTotal)

	if len(report.Errors) > 0 {
		responseText += "\nErrors:\n"
		for _, e := range report.Errors {
			responseText += "  - " + e + "\n"
		}
	}
	if len(report.Warnings) > 0 {
		responseText += "\nWarnings:\n"
		for _, w := range report.Warnings {
			responseText += "  - " + w + "\n"
		}
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	responseText := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	responseText += fmt.Sprintf("Template directory: %s\n", s.config.TemplatesDir)
	responseText += fmt.Sprintf("Templates loaded: %d\n", s.catalog.Count())
	responseText += fmt.Sprintf("Max file size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	responseText += fmt.Sprintf("OCR enabled: %t\n", s.config.OCREnabled)

	if categories := s.catalog.Categories(); len(categories) > 0 {
		responseText += fmt.Sprintf("Categories: %s\n", strings.Join(categories, ", "))
	}

	responseText += "\nAvailable Tools:\n"
	responseText += "  extract_document     Extract fields from a PDF using a template\n"
	responseText += "  list_templates       List templates, optionally by category\n"
	responseText += "  template_info        Show one template's fields and layout\n"
	responseText += "  search_templates     Search templates by keyword\n"
	responseText += "  validate_extraction  Extract and check required fields\n"
	responseText += "  server_info          This summary\n"

	responseText += "\nStart with list_templates, then extract_document with a path and template id.\n"

	return mcp.NewToolResultText(responseText), nil
}

// Formatting methods
func (s *Server) formatTemplateList(summaries []template.Summary) string {
	var text string
	lastCategory := ""
	for _, summary := range summaries {
		if summary.Category != lastCategory {
			text += fmt.Sprintf("%s:\n", summary.Category)
			lastCategory = summary.Category
		}
		text += fmt.Sprintf("  %s - %s (v%s, %s)\n",
			summary.ID, summary.Name, summary.Version, summary.DocumentType)
		if summary.Description != "" {
			text += fmt.Sprintf("    %s\n", summary.Description)
		}
	}
	return text
}

func (s *Server) formatTemplateInfo(tmpl *template.Definition) string {
	text := fmt.Sprintf("Template: %s (%s)\n", tmpl.TemplateName, tmpl.TemplateID)
	text += fmt.Sprintf("Version: %s\n", tmpl.Version)
	text += fmt.Sprintf("Category: %s\n", tmpl.Category)
	text += fmt.Sprintf("Document type: %s\n", tmpl.DocumentType)
	if tmpl.Description != "" {
		text += fmt.Sprintf("Description: %s\n", tmpl.Description)
	}
	if len(tmpl.Tags) > 0 {
		text += fmt.Sprintf("Tags: %s\n", strings.Join(tmpl.Tags, ", "))
	}

	layout := "horizontal"
	if tmpl.OutputFormat.IncludeLineCodes {
		layout = "vertical (line codes)"
	}
	text += fmt.Sprintf("Output layout: %s\n", layout)
	if tmpl.OutputFormat.DateFormat != "" {
		text += fmt.Sprintf("Date format: %s\n", tmpl.OutputFormat.DateFormat)
	}

	text += fmt.Sprintf("\nFields (%d):\n", len(tmpl.Fields))
	for _, field := range tmpl.Fields {
		required := ""
		if field.Required {
			required = ", required"
		}
		text += fmt.Sprintf("  %s (%s, %s%s)\n",
			field.FieldName, field.DataType, field.ExtractionMethod, required)
		if field.DisplayName != "" && field.DisplayName != field.FieldName {
			text += fmt.Sprintf("    %s\n", field.DisplayName)
		}
	}

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting extraction MCP server in stdio mode")
		log.Printf("Template directory: %s", s.config.TemplatesDir)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// The mark3labs transport is stdio-first; HTTP transport stays on the
	// stdio path until the SSE server is wired up.
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
