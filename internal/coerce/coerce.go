// Package coerce converts raw extracted strings into typed values and back
// into display strings. Parsers never return errors: malformed input yields
// a nil value so that validation can be handled in one place downstream.
package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Data type names as they appear in template field definitions.
const (
	TypeString     = "string"
	TypeInteger    = "integer"
	TypeCurrency   = "currency"
	TypeDecimal    = "decimal"
	TypeDate       = "date"
	TypeBoolean    = "boolean"
	TypePercentage = "percentage"
)

var (
	currencySymbols = regexp.MustCompile(`[$£€¥,\s]`)
	separators      = regexp.MustCompile(`[,\s]`)
	percentChars    = regexp.MustCompile(`[%\s]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	nonDigits       = regexp.MustCompile(`\D`)
)

// dateInputLayouts are tried in order; the first layout that parses wins.
// The ordering matters for ambiguous day/month inputs and mirrors the
// month-first convention of the supported form families.
var dateInputLayouts = []string{
	"01/02/2006",
	"01-02-2006",
	"01/02/06",
	"01-02-06",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// dateOutputLayouts maps the named display formats allowed in template
// output specs to Go time layouts.
var dateOutputLayouts = map[string]string{
	"YYYY-MM-DD": "2006-01-02",
	"MM/DD/YYYY": "01/02/2006",
	"DD/MM/YYYY": "02/01/2006",
	"YYYY/MM/DD": "2006/01/02",
	"MM-DD-YYYY": "01-02-2006",
	"DD-MM-YYYY": "02-01-2006",
}

// truthyValues is the fixed vocabulary accepted as boolean true.
var truthyValues = map[string]bool{
	"true":    true,
	"yes":     true,
	"1":       true,
	"x":       true,
	"checked": true,
}

// Currency parses a currency string such as "$1,234.56" or "(1,234.56)".
// A value wholly wrapped in parentheses is negative.
func Currency(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}

	cleaned := currencySymbols.ReplaceAllString(value, "")
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Integer parses an integer string, tolerating thousands separators and a
// trailing decimal part ("1,234.0" parses as 1234).
func Integer(value string) (int, bool) {
	if value == "" {
		return 0, false
	}

	cleaned := separators.ReplaceAllString(value, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// Percentage parses a percentage string, keeping the percentage magnitude
// ("12.5%" parses as 12.5, not 0.125).
func Percentage(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}

	cleaned := percentChars.ReplaceAllString(value, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Date parses a date in any supported input layout and returns it as an ISO
// calendar string (YYYY-MM-DD).
func Date(value string) (string, bool) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return "", false
	}

	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Boolean reports whether the value belongs to the truthy vocabulary.
func Boolean(value string) bool {
	return truthyValues[strings.ToLower(strings.TrimSpace(value))]
}

// CleanText collapses whitespace runs to single spaces and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}

// Value coerces a raw extracted string to the given data type. It returns
// nil when the string cannot be interpreted as that type; it never fails.
func Value(raw, dataType string) any {
	if raw == "" {
		return nil
	}

	switch dataType {
	case TypeInteger:
		if n, ok := Integer(raw); ok {
			return n
		}
		return nil
	case TypeCurrency, TypeDecimal:
		if f, ok := Currency(raw); ok {
			return f
		}
		return nil
	case TypePercentage:
		if f, ok := Percentage(raw); ok {
			return f
		}
		return nil
	case TypeDate:
		if iso, ok := Date(raw); ok {
			return iso
		}
		return nil
	case TypeBoolean:
		return Boolean(raw)
	default:
		return CleanText(raw)
	}
}

// FormatDate renders an ISO date string in the named output format. Unknown
// format names fall back to ISO; values that are not ISO dates pass through
// unchanged.
func FormatDate(isoDate, outputFormat string) string {
	if isoDate == "" {
		return ""
	}

	layout, ok := dateOutputLayouts[outputFormat]
	if !ok {
		layout = "2006-01-02"
	}

	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return t.Format(layout)
}

// FormatCurrency renders a currency value with thousands separators and no
// decimal places, e.g. 1234567.0 -> "$1,234,567".
func FormatCurrency(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	digits := strconv.FormatFloat(value, 'f', 0, 64)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')

	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// NormalizeEIN normalizes an employer identification number to XX-XXXXXXX.
func NormalizeEIN(ein string) (string, bool) {
	digits := nonDigits.ReplaceAllString(ein, "")
	if len(digits) != 9 {
		return "", false
	}
	return digits[:2] + "-" + digits[2:], true
}

// NormalizeSSN normalizes a social security number to XXX-XX-XXXX.
func NormalizeSSN(ssn string) (string, bool) {
	digits := nonDigits.ReplaceAllString(ssn, "")
	if len(digits) != 9 {
		return "", false
	}
	return digits[:3] + "-" + digits[3:5] + "-" + digits[5:], true
}
