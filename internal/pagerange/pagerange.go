// Package pagerange parses page selection specs like "1-3,5" into the
// 1-indexed page lists the document extractor consumes.
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PageRange represents an inclusive range of pages.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Parse converts a spec like "1-3,5,7-9" into ranges. Whitespace around
// separators is ignored. An empty spec yields no ranges, which callers
// treat as all pages.
func Parse(spec string) ([]PageRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var ranges []PageRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		r, err := parsePart(part)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parsePart(part string) (PageRange, error) {
	if start, end, ok := strings.Cut(part, "-"); ok {
		s, err := parsePage(strings.TrimSpace(start))
		if err != nil {
			return PageRange{}, err
		}
		e, err := parsePage(strings.TrimSpace(end))
		if err != nil {
			return PageRange{}, err
		}
		if e < s {
			return PageRange{}, fmt.Errorf("invalid page range %q: end before start", part)
		}
		return PageRange{Start: s, End: e}, nil
	}

	p, err := parsePage(part)
	if err != nil {
		return PageRange{}, err
	}
	return PageRange{Start: p, End: p}, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", n)
	}
	return n, nil
}

// Expand flattens ranges into a sorted, de-duplicated page list.
func Expand(ranges []PageRange) []int {
	seen := make(map[int]bool)
	for _, r := range ranges {
		for p := r.Start; p <= r.End; p++ {
			seen[p] = true
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Pages parses a spec and returns the flattened page list in one step.
func Pages(spec string) ([]int, error) {
	ranges, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, nil
	}
	return Expand(ranges), nil
}
