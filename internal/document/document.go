// Package document is the page-text and word-position collaborator. Given a
// PDF it yields page-delimited plain text and a flat list of word tokens
// with page-relative coordinates. It does no interpretation of the text.
package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Word is a text token with its bounding-box origin within a page.
type Word struct {
	Text string
	Page int
	X    float64
	Y    float64
}

// Extractor reads page text and positioned words from PDF files.
type Extractor struct {
	maxFileSize int64
	maxTextSize int
}

// NewExtractor creates a document extractor with the given file size
// limit. A non-positive limit selects the 100MB default.
func NewExtractor(maxFileSize int64) *Extractor {
	if maxFileSize <= 0 {
		maxFileSize = 100 * 1024 * 1024
	}
	return &Extractor{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024,
	}
}

// PageMarker renders the visible page-boundary marker used to join pages.
func PageMarker(pageNum int) string {
	return fmt.Sprintf("--- PAGE %d ---", pageNum)
}

// ExtractText returns the document's plain text, pages joined with a
// visible page-boundary marker. When pages is non-empty only those
// (1-indexed) pages are read; out-of-range page numbers are ignored.
func (e *Extractor) ExtractText(path string, pages []int) (string, error) {
	fileInfo, err := e.statFile(path)
	if err != nil {
		return "", err
	}
	if err := e.validateFile(path, fileInfo); err != nil {
		return "", err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageNums := e.pagesToRead(pages, reader.NumPage())

	var builder strings.Builder
	total := 0
	for _, pageNum := range pageNums {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Keep going; a single unreadable page should not sink the
			// whole document.
			continue
		}

		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(PageMarker(pageNum))
		builder.WriteString("\n")

		if total+len(content) > e.maxTextSize {
			remaining := e.maxTextSize - total
			if remaining > 0 {
				builder.WriteString(content[:remaining])
			}
			break
		}
		builder.WriteString(content)
		total += len(content)
	}

	return builder.String(), nil
}

// ExtractWords returns every text token in the document with its page
// number and bounding-box origin.
func (e *Extractor) ExtractWords(path string) ([]Word, error) {
	fileInfo, err := e.statFile(path)
	if err != nil {
		return nil, err
	}
	if err := e.validateFile(path, fileInfo); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var words []Word
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageWords := e.wordsFromPage(page, pageNum)
		words = append(words, pageWords...)
	}

	return words, nil
}

func (e *Extractor) wordsFromPage(page pdf.Page, pageNum int) []Word {
	defer func() {
		// Malformed content streams can panic inside the parser.
		_ = recover()
	}()

	content := page.Content()
	words := make([]Word, 0, len(content.Text))
	for _, text := range content.Text {
		if strings.TrimSpace(text.S) == "" {
			continue
		}
		words = append(words, Word{
			Text: text.S,
			Page: pageNum,
			X:    text.X,
			Y:    text.Y,
		})
	}
	return words
}

func (e *Extractor) statFile(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	return fileInfo, nil
}

func (e *Extractor) validateFile(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() > e.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), e.maxFileSize)
	}
	return nil
}

func (e *Extractor) pagesToRead(requested []int, totalPages int) []int {
	if len(requested) == 0 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	var valid []int
	for _, page := range requested {
		if page >= 1 && page <= totalPages {
			valid = append(valid, page)
		}
	}
	return valid
}
