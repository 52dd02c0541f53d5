package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/openextract/openextract/internal/config"
	"github.com/openextract/openextract/internal/document"
	"github.com/openextract/openextract/internal/extractor"
	"github.com/openextract/openextract/internal/ocr"
	"github.com/openextract/openextract/internal/pagerange"
	"github.com/openextract/openextract/internal/record"
	"github.com/openextract/openextract/internal/template"
)

var (
	templateID      = flag.String("template", "", "Template identifier to apply (required; see -list)")
	templatesDir    = flag.String("templates", config.DefaultTemplatesDir, "Template catalog directory")
	outputFormat    = flag.String("format", "text", "Output format: text, csv, json")
	outputPath      = flag.String("output", "", "Write output to a file instead of stdout")
	pageSpec        = flag.String("pages", "", "Pages to read, like 1-3,5 (all pages when empty)")
	validate        = flag.Bool("validate", false, "Check results against the template's requirements")
	listTemplates   = flag.Bool("list", false, "List available templates and exit")
	workers         = flag.Int("workers", config.DefaultBatchWorkers, "Concurrent documents when processing several files")
	continueOnError = flag.Bool("continue-on-error", true, "Skip failed documents instead of aborting the batch")
	ocrEnabled      = flag.Bool("ocr", false, "Enable OCR for documents with unusable text layers")
	tessdataPrefix  = flag.String("tessdata", "", "Tesseract data directory (empty uses the system default)")
	help            = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	catalog, err := template.NewCatalog(*templatesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load templates from %s: %v\n", *templatesDir, err)
		os.Exit(1)
	}

	if *listTemplates {
		printTemplateList(catalog)
		return
	}

	if *templateID == "" {
		fmt.Fprintf(os.Stderr, "Error: -template is required\n\n")
		printUsage()
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one PDF file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	var ocrClient *ocr.Client
	if *ocrEnabled {
		ocrClient = ocr.NewClient(*tessdataPrefix, config.DefaultOCRDPI)
	}
	service := extractor.NewService(catalog, document.NewExtractor(config.DefaultMaxFileSize), ocrClient)

	pages, err := pagerange.Pages(*pageSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if flag.NArg() == 1 {
		runSingle(ctx, service, flag.Arg(0), pages)
		return
	}
	runBatch(ctx, service, flag.Args())
}

func runSingle(ctx context.Context, service *extractor.Service, path string, pages []int) {
	result, err := service.Extract(ctx, extractor.ExtractRequest{
		DocumentPath: path,
		TemplateID:   *templateID,
		Pages:        pages,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeTable(result.Table); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	if *validate {
		report, err := service.Validate(result.Fields, *templateID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printReport(report)
		if !report.Valid {
			os.Exit(2)
		}
	}
}

func runBatch(ctx context.Context, service *extractor.Service, paths []string) {
	table, err := service.ExtractBatch(ctx, paths, *templateID, extractor.BatchOptions{
		ContinueOnError: *continueOnError,
		Workers:         *workers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeTable(table); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func writeTable(table *record.Table) error {
	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch *outputFormat {
	case "csv":
		return table.WriteCSV(out)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(table.Maps())
	case "text":
		_, err := fmt.Fprint(out, table.String())
		return err
	default:
		return fmt.Errorf("unknown output format: %s", *outputFormat)
	}
}

func printReport(report *record.ValidationReport) {
	fmt.Fprintf(os.Stderr, "\nValidation: valid=%t, extracted %d of %d fields\n",
		report.Valid, report.FieldsExtracted, report.FieldsTotal)
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "  error: %s\n", e)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}
}

func printTemplateList(catalog *template.Catalog) {
	lastCategory := ""
	for _, summary := range catalog.List() {
		if summary.Category != lastCategory {
			fmt.Printf("%s:\n", summary.Category)
			lastCategory = summary.Category
		}
		fmt.Printf("  %-24s %s (v%s)\n", summary.ID, summary.Name, summary.Version)
	}
}

func printHelp() {
	fmt.Println("extract-form - apply an extraction template to PDF documents")
	fmt.Println()
	fmt.Println("Extracts the fields a template declares and renders them as text, CSV, or")
	fmt.Println("JSON. With several input files the documents are processed concurrently and")
	fmt.Println("each output row is tagged with its source file.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -template           Template identifier (required; see -list)")
	fmt.Println("  -templates          Template catalog directory (default: templates)")
	fmt.Println("  -format             Output format: text (default), csv, json")
	fmt.Println("  -output             Write to a file instead of stdout")
	fmt.Println("  -pages              Pages to read in single-file mode, like 1-3,5")
	fmt.Println("  -validate           Check the result against required fields and patterns")
	fmt.Println("  -list               List available templates and exit")
	fmt.Println("  -workers            Concurrent documents in batch mode")
	fmt.Println("  -continue-on-error  Skip failed documents instead of aborting")
	fmt.Println("  -ocr                Enable OCR for documents with unusable text layers")
	fmt.Println("  -tessdata           Tesseract data directory")
	fmt.Println("  -help               Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  extract-form -list")
	fmt.Println("  extract-form -template generic-invoice invoice.pdf")
	fmt.Println("  extract-form -template form-5500-sf -validate filing.pdf")
	fmt.Println("  extract-form -template w2 -format csv -output out.csv w2/*.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  extract-form [OPTIONS] <pdf_file> [<pdf_file> ...]")
}
