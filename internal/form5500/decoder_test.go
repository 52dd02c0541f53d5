package form5500

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openextract/openextract/internal/document"
)

func TestPatternPass_PlanYearDates(t *testing.T) {
	d := NewDecoder()
	text := "For calendar plan year 2023 or fiscal plan year beginning 01/01/2023 and ending 12/31/2023"

	got := d.PatternPass(text)

	assert.Equal(t, "2023-01-01", got["plan_year_begin"])
	assert.Equal(t, "2023-12-31", got["plan_year_end"])
}

func TestPatternPass_ParticipantCounts(t *testing.T) {
	d := NewDecoder()
	text := "Total participants 5a 487\nTotal participants end of year 5b 512"

	got := d.PatternPass(text)

	assert.Equal(t, 487, got["total_participants_boy"])
	assert.Equal(t, 512, got["total_participants_eoy"])
}

func TestPatternPass_FinancialLines(t *testing.T) {
	d := NewDecoder()
	text := "7a $1,250,000 $1,380,500\n" +
		"7b $10,000 $12,000\n" +
		"7c $1,240,000 $1,368,500\n" +
		"8a(1) $85,000\n" +
		"8h $42,750\n"

	got := d.PatternPass(text)

	assert.Equal(t, 1250000.0, got["total_assets_boy"])
	assert.Equal(t, 1380500.0, got["total_plan_assets_eoy"])
	assert.Equal(t, 10000.0, got["total_liabilities_boy"])
	assert.Equal(t, 1368500.0, got["net_assets_eoy"])
	assert.Equal(t, 85000.0, got["employer_contributions"])
	assert.Equal(t, 42750.0, got["total_expenses"])
}

func TestPatternPass_TextualMarkers(t *testing.T) {
	d := NewDecoder()
	text := "This is a single-employer plan. This is the first return filed.\n" +
		"An extension was granted via Form 5558.\n" +
		"Name of plan\n ACME 401(K) SAVINGS PLAN (PN) 001\n" +
		"Effective date of plan 07/01/2010\n" +
		"Employer Identification Number (EIN) 12-3456789\n" +
		"SPRINGFIELD, IL 62704"

	got := d.PatternPass(text)

	assert.Equal(t, "Single-employer", got["plan_type"])
	assert.Equal(t, true, got["is_first_return"])
	assert.Equal(t, false, got["is_amended_return"])
	assert.Equal(t, "Form 5558", got["filing_extension"])
	assert.Equal(t, "ACME 401(K) SAVINGS PLAN", got["plan_name"])
	assert.Equal(t, "001", got["plan_number"])
	assert.Equal(t, "2010-07-01", got["effective_date"])
	assert.Equal(t, "12-3456789", got["ein"])
	assert.Equal(t, "IL", got["sponsor_state"])
	assert.Equal(t, "62704", got["sponsor_zip"])
}

func TestPatternPass_ComplianceDefaults(t *testing.T) {
	d := NewDecoder()
	got := d.PatternPass("")

	assert.Equal(t, "No", got["failed_contribution_transmittal"])
	assert.Equal(t, "Yes", got["fidelity_bond_coverage"])
}

func TestStripPlaceholder_Participants(t *testing.T) {
	d := NewDecoder()

	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"1234567738", "738", true},
		{"123456812", "812", true},
		{"487", "487", true},
		{"1234567042", "42", true},
		{"", "", false},
		{"12x4567", "", false},
	}

	for _, tt := range tests {
		got, ok := d.StripPlaceholder(tt.raw, true)
		require.Equal(t, tt.ok, ok, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestDecodeValue_KnownPrefix(t *testing.T) {
	d := NewDecoder()

	// Token from the financial-value pass: the longest known prefix is
	// stripped and the first plausible candidate length accepted.
	value, ok := d.DecodeValue("-1234567819004132")
	require.True(t, ok)
	assert.GreaterOrEqual(t, value, 100.0)
	assert.LessOrEqual(t, value, 500_000_000.0)
}

func TestDecodeValue_SlidingWindowFallback(t *testing.T) {
	d := NewDecoder()

	// Generic 1234 marker with a non-standard placeholder: sliding-window
	// search still finds a plausible 8-digit value.
	value, ok := d.DecodeValue("-1234153697168399012345")
	require.True(t, ok)
	assert.GreaterOrEqual(t, value, 10_000.0)
	assert.LessOrEqual(t, value, 500_000_000.0)
}

func TestDecodeValue_DirectParse(t *testing.T) {
	d := NewDecoder()

	value, ok := d.DecodeValue("2,500,000")
	require.True(t, ok)
	assert.Equal(t, 2500000.0, value)
}

func TestDecodeValue_ImplausibleIsNull(t *testing.T) {
	d := NewDecoder()

	tests := []string{
		"",
		"42",        // below the plausibility floor
		"abc",       // not numeric
		"999999999", // above the window, no known prefix
	}

	for _, token := range tests {
		_, ok := d.DecodeValue(token)
		assert.False(t, ok, "token %q", token)
	}
}

func TestPositionalPass_ParticipantBands(t *testing.T) {
	d := NewDecoder()

	words := []document.Word{
		// Right-hand column of page one, in the BOY and EOY bands.
		{Text: "1234567487", Page: 1, X: 450, Y: 445},
		{Text: "1234567512", Page: 1, X: 450, Y: 410},
		// Same placeholder but in the left column: ignored.
		{Text: "1234567999", Page: 1, X: 100, Y: 445},
		// Label text: ignored.
		{Text: "Total participants", Page: 1, X: 50, Y: 445},
	}

	got := d.PositionalPass(words)

	assert.Equal(t, 487, got["total_participants_boy"])
	assert.Equal(t, 512, got["total_participants_eoy"])
	assert.Len(t, got, 2)
}

func TestPositionalPass_FinancialBands(t *testing.T) {
	d := NewDecoder()

	words := []document.Word{
		// Assets band, left column (BOY) and right column (EOY).
		{Text: "-1234567819004132", Page: 3, X: 150, Y: 560},
		{Text: "-1234567821500000", Page: 3, X: 420, Y: 560},
		// Token that decodes to nothing: skipped silently.
		{Text: "1234xx", Page: 3, X: 150, Y: 560},
	}

	got := d.PositionalPass(words)

	require.Contains(t, got, "total_assets_boy")
	require.Contains(t, got, "total_plan_assets_eoy")
	assert.NotEqual(t, got["total_assets_boy"], got["total_plan_assets_eoy"])
}

func TestMerge_Precedence(t *testing.T) {
	positional := map[string]any{
		"total_assets_boy": 200.0,
		"net_income":       nil,
	}
	pattern := map[string]any{
		"total_assets_boy": 100.0,
		"plan_number":      "001",
		"net_income":       50.0,
	}
	generic := map[string]any{
		"total_assets_boy": 1.0,
		"plan_number":      "999",
		"sponsor_name":     "Acme",
	}

	merged := Merge(positional, pattern, generic)

	// Positional beats pattern beats generic; nil never shadows.
	assert.Equal(t, 200.0, merged["total_assets_boy"])
	assert.Equal(t, "001", merged["plan_number"])
	assert.Equal(t, 50.0, merged["net_income"])
	assert.Equal(t, "Acme", merged["sponsor_name"])
}

func TestApplies(t *testing.T) {
	assert.True(t, Applies("form-5500"))
	assert.True(t, Applies("form-5500-sf"))
	assert.False(t, Applies("w2"))
}
