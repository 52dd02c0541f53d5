// Package engine runs a template's field definitions over document text and
// produces a map of field name to typed value. One strategy exists per
// extraction method; a field that no strategy can satisfy contributes its
// default value or nil, never an error.
package engine

import (
	"regexp"
	"strings"

	"github.com/openextract/openextract/internal/coerce"
	"github.com/openextract/openextract/internal/template"
)

const defaultMaxDistance = 50

// Strategy extracts a raw string for one field from document text.
type Strategy interface {
	Extract(text string, field *template.FieldDefinition) (string, bool)
}

// Engine dispatches fields to their extraction strategies and coerces the
// results. It is stateless and safe for concurrent use.
type Engine struct {
	strategies map[string]Strategy
}

// New creates an extraction engine with the standard strategy set.
func New() *Engine {
	pattern := &patternStrategy{}
	return &Engine{
		strategies: map[string]Strategy{
			template.MethodPattern:          pattern,
			template.MethodPosition:         &positionStrategy{fallback: pattern},
			template.MethodKeywordProximity: &keywordStrategy{},
		},
	}
}

// ExtractFields runs every field in the template against the document text.
// The returned map has an entry for every declared field; fields that could
// not be extracted or coerced map to nil.
func (e *Engine) ExtractFields(text string, tmpl *template.Definition) map[string]any {
	record := make(map[string]any, len(tmpl.Fields))

	for i := range tmpl.Fields {
		field := &tmpl.Fields[i]
		record[field.FieldName] = e.extractField(text, field)
	}

	return record
}

func (e *Engine) extractField(text string, field *template.FieldDefinition) any {
	strategy, ok := e.strategies[field.ExtractionMethod]
	if !ok {
		return coerce.Value(field.DefaultValue, field.DataType)
	}

	raw, found := strategy.Extract(text, field)
	if !found {
		raw = field.DefaultValue
	}
	return coerce.Value(raw, field.DataType)
}

// patternStrategy tries the primary pattern, then each fallback pattern in
// declared order, case-insensitively across lines. The first non-empty
// captured group wins.
type patternStrategy struct{}

func (s *patternStrategy) Extract(text string, field *template.FieldDefinition) (string, bool) {
	patterns := make([]string, 0, 1+len(field.FallbackPatterns))
	if field.Pattern != "" {
		patterns = append(patterns, field.Pattern)
	}
	patterns = append(patterns, field.FallbackPatterns...)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		re, err := regexp.Compile("(?im)" + pattern)
		if err != nil {
			// A broken pattern is a soft miss; fallbacks may still match.
			continue
		}

		match := re.FindStringSubmatch(text)
		if len(match) > 1 && match[1] != "" {
			return coerce.CleanText(match[1]), true
		}
	}

	return "", false
}

// positionStrategy is intended to read values from a page region. Without a
// geometric text pipeline behind the engine it degrades to the pattern
// strategy; this is a stub, not an implementation of regional extraction.
type positionStrategy struct {
	fallback Strategy
}

func (s *positionStrategy) Extract(text string, field *template.FieldDefinition) (string, bool) {
	return s.fallback.Extract(text, field)
}

// keywordStrategy searches for each keyword in declared order and captures
// the run of tokens following it, up to the field's max distance. The first
// keyword that produces a match wins.
type keywordStrategy struct{}

func (s *keywordStrategy) Extract(text string, field *template.FieldDefinition) (string, bool) {
	maxDistance := field.MaxDistance
	if maxDistance <= 0 {
		maxDistance = defaultMaxDistance
	}

	for _, keyword := range field.Keywords {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(keyword) + `\s*[:=]?\s*(\S+(?:\s+\S+)*)`)
		if err != nil {
			continue
		}

		match := re.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}

		value := match[1]
		if len(value) > maxDistance {
			value = value[:maxDistance]
		}
		if idx := strings.IndexByte(value, '\n'); idx >= 0 {
			value = value[:idx]
		}
		return coerce.CleanText(value), true
	}

	return "", false
}
