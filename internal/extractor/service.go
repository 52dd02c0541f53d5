// Package extractor orchestrates a single-document extraction: template
// lookup, document text access, the generic field-extraction pass, the
// placeholder-decoding passes where they apply, and final assembly.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/openextract/openextract/internal/document"
	"github.com/openextract/openextract/internal/engine"
	"github.com/openextract/openextract/internal/form5500"
	"github.com/openextract/openextract/internal/ocr"
	"github.com/openextract/openextract/internal/record"
	"github.com/openextract/openextract/internal/template"
)

// Sentinel errors for the two user-visible single-document failures.
// Everything else degrades to nulls or warnings.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrDocumentNotFound = errors.New("document not found")
)

// Service runs template-driven extraction over documents. It holds no
// per-document state and is safe for concurrent use.
type Service struct {
	catalog   *template.Catalog
	documents *document.Extractor
	engine    *engine.Engine
	decoder   *form5500.Decoder
	ocrClient *ocr.Client
}

// NewService creates an extraction service. ocrClient may be nil, in which
// case extraction relies solely on the embedded text layer.
func NewService(catalog *template.Catalog, documents *document.Extractor, ocrClient *ocr.Client) *Service {
	return &Service{
		catalog:   catalog,
		documents: documents,
		engine:    engine.New(),
		decoder:   form5500.NewDecoder(),
		ocrClient: ocrClient,
	}
}

// ExtractRequest identifies one document and the template to apply.
type ExtractRequest struct {
	DocumentPath string
	TemplateID   string
	Pages        []int
}

// ExtractResult carries the merged field map and its assembled table.
type ExtractResult struct {
	DocumentPath string
	TemplateID   string
	Fields       map[string]any
	Table        *record.Table
}

// Extract runs the full pipeline for one document. It fails only on a
// missing template or document; per-field misses surface as nulls in the
// result.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpl, ok := s.catalog.Get(req.TemplateID)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known templates: %s)",
			ErrTemplateNotFound, req.TemplateID, strings.Join(s.catalog.KnownIDs(), ", "))
	}

	if _, err := os.Stat(req.DocumentPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, req.DocumentPath)
	}

	text, err := s.documents.ExtractText(req.DocumentPath, req.Pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document text: %w", err)
	}

	fields := s.engine.ExtractFields(text, tmpl)

	if form5500.Applies(tmpl.TemplateID) {
		fields = s.decodePlaceholders(req, tmpl, text, fields)
	}

	return &ExtractResult{
		DocumentPath: req.DocumentPath,
		TemplateID:   req.TemplateID,
		Fields:       fields,
		Table:        record.Assemble(fields, tmpl),
	}, nil
}

// decodePlaceholders runs the form-family decoding passes and folds their
// results over the generic pass. The pattern pass prefers OCR-derived text
// when available, since the form family's embedded layer carries obfuscated
// digit strings in place of real values. Every failure here is soft.
func (s *Service) decodePlaceholders(req ExtractRequest, tmpl *template.Definition, text string, fields map[string]any) map[string]any {
	patternText := text
	if s.ocrClient != nil {
		ocrText, err := s.ocrClient.ExtractText(req.DocumentPath, req.Pages)
		if err != nil {
			log.Printf("Warning: OCR unavailable for %s, using embedded text layer: %v", req.DocumentPath, err)
		} else if ocrText != "" {
			patternText = ocrText
		}
	}
	patternPass := s.decoder.PatternPass(patternText)

	var positionalPass map[string]any
	words, err := s.documents.ExtractWords(req.DocumentPath)
	if err != nil {
		log.Printf("Warning: positioned words unavailable for %s: %v", req.DocumentPath, err)
	} else {
		positionalPass = s.decoder.PositionalPass(words)
	}

	return form5500.Merge(positionalPass, patternPass, fields)
}

// Validate checks a merged field map against its template's requirements.
func (s *Service) Validate(fields map[string]any, templateID string) (*record.ValidationReport, error) {
	tmpl, ok := s.catalog.Get(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known templates: %s)",
			ErrTemplateNotFound, templateID, strings.Join(s.catalog.KnownIDs(), ", "))
	}
	return record.Validate(fields, tmpl), nil
}

// BatchOptions controls batch processing. Workers below 1 run documents
// sequentially.
type BatchOptions struct {
	ContinueOnError bool
	Workers         int
}

// ExtractBatch runs the same template over many documents and concatenates
// the per-document tables, tagging each row with its source file. Document
// extractions are independent and run concurrently up to the worker limit.
// The failure policy is per item: with ContinueOnError a failed document is
// logged and skipped, otherwise the first failure aborts the batch.
func (s *Service) ExtractBatch(ctx context.Context, paths []string, templateID string, opts BatchOptions) (*record.Table, error) {
	if len(paths) == 0 {
		return &record.Table{}, nil
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type item struct {
		table *record.Table
		err   error
	}
	results := make([]item, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if batchCtx.Err() != nil {
				results[i].err = batchCtx.Err()
				return
			}

			res, err := s.Extract(batchCtx, ExtractRequest{DocumentPath: path, TemplateID: templateID})
			if err != nil {
				results[i].err = err
				if !opts.ContinueOnError {
					cancel()
				}
				return
			}
			res.Table.AddColumn("_source_file", path)
			results[i].table = res.Table
		}(i, path)
	}
	wg.Wait()

	var combined *record.Table
	for i, r := range results {
		if r.err != nil {
			if !opts.ContinueOnError {
				if errors.Is(r.err, context.Canceled) {
					continue
				}
				return nil, fmt.Errorf("failed to process %s: %w", paths[i], r.err)
			}
			log.Printf("Error processing %s: %v", paths[i], r.err)
			continue
		}
		if combined == nil {
			combined = r.table
			continue
		}
		if err := combined.Append(r.table); err != nil {
			return nil, fmt.Errorf("failed to combine results for %s: %w", paths[i], err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if combined == nil {
		return &record.Table{}, nil
	}
	return combined, nil
}
