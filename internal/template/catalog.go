package template

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Catalog holds the loaded template index. It is safe for concurrent
// readers; Reload swaps the whole index under a write lock.
type Catalog struct {
	dir string

	mu        sync.RWMutex
	templates map[string]*Definition
}

// NewCatalog loads all templates under dir and returns the catalog. A
// malformed or incomplete template file is skipped with a warning; loading
// only fails when the directory itself is unusable.
func NewCatalog(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// load discovers template files recursively and indexes them by ID.
func (c *Catalog) load() error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("templates directory not found: %s: %w", c.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("templates path is not a directory: %s", c.dir)
	}

	templates := make(map[string]*Definition)

	walkErr := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		// Schema and example files are reserved and never loaded.
		if strings.HasPrefix(d.Name(), "_") {
			return nil
		}

		tmpl, err := c.parseFile(path)
		if err != nil {
			log.Printf("warning: could not load template %s: %v", path, err)
			return nil
		}

		if errs := Validate(tmpl); len(errs) > 0 {
			log.Printf("warning: skipping invalid template %s: %s", path, strings.Join(errs, "; "))
			return nil
		}

		templates[tmpl.TemplateID] = tmpl
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("failed to scan templates directory: %w", walkErr)
	}

	c.mu.Lock()
	c.templates = templates
	c.mu.Unlock()
	return nil
}

func (c *Catalog) parseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmpl Definition
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if tmpl.TemplateID == "" {
		return nil, fmt.Errorf("missing template_id")
	}
	if len(tmpl.Fields) == 0 {
		return nil, fmt.Errorf("missing fields")
	}

	tmpl.FilePath = path
	tmpl.Category = c.categoryFor(path)
	return &tmpl, nil
}

// categoryFor derives the category from the template's directory relative
// to the catalog root.
func (c *Catalog) categoryFor(path string) string {
	rel, err := filepath.Rel(c.dir, path)
	if err != nil {
		return "other"
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return "other"
	}
	return filepath.ToSlash(dir)
}

// Get returns the template with the given ID.
func (c *Catalog) Get(id string) (*Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpl, ok := c.templates[id]
	return tmpl, ok
}

// List returns summaries of all templates, sorted by category then name.
func (c *Catalog) List() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summaries := make([]Summary, 0, len(c.templates))
	for _, tmpl := range c.templates {
		summaries = append(summaries, tmpl.summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Category != summaries[j].Category {
			return summaries[i].Category < summaries[j].Category
		}
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// ListByCategory returns summaries of templates in the given category.
func (c *Catalog) ListByCategory(category string) []Summary {
	var filtered []Summary
	for _, s := range c.List() {
		if strings.EqualFold(s.Category, category) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// ListByDocumentType returns summaries of templates with the given
// document type tag.
func (c *Catalog) ListByDocumentType(documentType string) []Summary {
	var filtered []Summary
	for _, s := range c.List() {
		if strings.EqualFold(s.DocumentType, documentType) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Search returns templates whose name, description, tags, or ID contain the
// query (case-insensitive substring).
func (c *Catalog) Search(query string) []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q := strings.ToLower(query)
	var results []Summary
	for _, tmpl := range c.templates {
		if c.matches(tmpl, q) {
			results = append(results, tmpl.summary())
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Category != results[j].Category {
			return results[i].Category < results[j].Category
		}
		return results[i].Name < results[j].Name
	})
	return results
}

func (c *Catalog) matches(tmpl *Definition, q string) bool {
	if strings.Contains(strings.ToLower(tmpl.TemplateName), q) {
		return true
	}
	if strings.Contains(strings.ToLower(tmpl.Description), q) {
		return true
	}
	for _, tag := range tmpl.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(tmpl.TemplateID), q)
}

// KnownIDs returns the sorted list of loaded template identifiers.
func (c *Catalog) KnownIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of loaded templates.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

// Categories returns the sorted list of categories present in the catalog.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	for _, tmpl := range c.templates {
		cat := tmpl.Category
		if cat == "" {
			cat = "other"
		}
		seen[cat] = true
	}

	categories := make([]string, 0, len(seen))
	for cat := range seen {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return categories
}

// Reload clears the index and re-runs discovery from disk.
func (c *Catalog) Reload() error {
	return c.load()
}
