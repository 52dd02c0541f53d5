// Package ocr derives page text from rendered page images for documents
// whose embedded text layer is missing or unusable. It is an optional
// collaborator; callers treat any failure here as a soft miss and fall
// back to the embedded text layer.
package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/openextract/openextract/internal/document"
)

// Client runs tesseract over page images extracted from a document.
type Client struct {
	tessdataPrefix string
	language       string
	dpi            int
}

// NewClient creates an OCR client. An empty tessdataPrefix leaves the
// tesseract default in place; dpi values below 70 fall back to 300.
func NewClient(tessdataPrefix string, dpi int) *Client {
	if dpi < 70 {
		dpi = 300
	}
	return &Client{
		tessdataPrefix: tessdataPrefix,
		language:       "eng",
		dpi:            dpi,
	}
}

// ExtractText extracts the document's page images to a scratch directory,
// runs OCR over each, and returns the recognized text joined with page
// boundary markers. An image that fails to recognize contributes an empty
// page rather than failing the whole document.
func (c *Client) ExtractText(pdfPath string, pages []int) (string, error) {
	tempDir, err := os.MkdirTemp("", "openextract-ocr-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(pdfPath, tempDir, pageSelection(pages), conf); err != nil {
		return "", fmt.Errorf("failed to extract page images: %w", err)
	}

	images, err := imageFiles(tempDir)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("document has no extractable page images")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if c.tessdataPrefix != "" {
		client.SetTessdataPrefix(c.tessdataPrefix)
	}
	if err := client.SetLanguage(c.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetVariable("user_defined_dpi", strconv.Itoa(c.dpi)); err != nil {
		return "", fmt.Errorf("failed to set OCR resolution: %w", err)
	}

	var parts []string
	for i, imgPath := range images {
		text := c.recognize(client, imgPath)
		parts = append(parts, document.PageMarker(i+1)+"\n"+text)
	}
	return strings.Join(parts, "\n"), nil
}

// recognize runs tesseract over one image. Failures yield an empty page.
func (c *Client) recognize(client *gosseract.Client, imgPath string) string {
	if err := client.SetImage(imgPath); err != nil {
		return ""
	}
	text, err := client.Text()
	if err != nil {
		return ""
	}
	return text
}

// imageFiles lists the extracted image files in name order. pdfcpu names
// them by page, so name order is page order.
func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// pageSelection converts a 1-indexed page list to the selection syntax the
// image extractor expects. Nil means all pages.
func pageSelection(pages []int) []string {
	if len(pages) == 0 {
		return nil
	}
	selected := make([]string, 0, len(pages))
	for _, p := range pages {
		if p > 0 {
			selected = append(selected, strconv.Itoa(p))
		}
	}
	if len(selected) == 0 {
		return nil
	}
	return selected
}
