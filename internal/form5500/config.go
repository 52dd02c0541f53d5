// Package form5500 recovers real values from the obfuscated text layer of
// DOL Form 5500 and 5500-SF filings. The rendered text substitutes values
// with long digit strings carrying a fixed placeholder prefix followed by
// the genuine digits; decoding strips known prefixes or, for positioned
// tokens, routes plausible numbers to fields by coordinate band.
package form5500

// BandRoute maps a vertical coordinate band on a financial-schedule page to
// a pair of semantic fields. The horizontal position of the token picks the
// left (beginning of year) or right (end of year) field.
type BandRoute struct {
	YMin     float64
	YMax     float64
	LeftKey  string
	RightKey string
}

// ParticipantBand is one vertical band on the first page that identifies a
// participant-count line item.
type ParticipantBand struct {
	YMin float64
	YMax float64
	Key  string
}

// Config carries every magic number the decoder depends on. The prefixes,
// coordinate bands, and plausibility windows were reverse-engineered from
// real filings and are deliberately kept as data so they can be revised
// without touching the decoding algorithm.
type Config struct {
	// Placeholder prefixes for participant counts, longest first.
	ParticipantPrefixes []string
	// Maximum digits a decoded participant count may have.
	ParticipantMaxDigits int
	// Horizontal band (left edge) of the participant-count column on the
	// first page.
	ParticipantColumnX float64
	// Vertical bands distinguishing the participant line items.
	ParticipantBands []ParticipantBand

	// Placeholder prefixes for financial values, longest first.
	ValuePrefixes []string
	// Minimum token length before value decoding is attempted.
	ValueMinTokenLen int
	// Candidate value lengths, in order of preference.
	ValueLengths []int
	// Plausibility window for prefix-stripped values.
	ValueMin float64
	ValueMax float64

	// Generic placeholder marker for the sliding-window fallback.
	GenericPrefix string
	// Start offsets tried by the sliding-window fallback.
	WindowStartMin int
	WindowStartMax int
	// Candidate value lengths for the sliding-window fallback.
	WindowLengths []int
	// Plausibility window for the sliding-window fallback (wider, with a
	// higher floor).
	WindowMin float64
	WindowMax float64

	// Horizontal split between the beginning-of-year and end-of-year
	// columns on financial-schedule pages.
	ColumnSplitX float64
	// Vertical band to field routing for financial values.
	ValueBands []BandRoute
}

// DefaultConfig returns the decoder configuration matching the known
// rendering quirks of the form producer. These values are the contract;
// they are preserved bit-for-bit from the observed sample of filings.
func DefaultConfig() Config {
	return Config{
		ParticipantPrefixes:  []string{"1234567", "123456"},
		ParticipantMaxDigits: 4,
		ParticipantColumnX:   400,
		ParticipantBands: []ParticipantBand{
			{YMin: 430, YMax: 460, Key: "total_participants_boy"},
			{YMin: 395, YMax: 429, Key: "total_participants_eoy"},
		},

		ValuePrefixes:    []string{"123456789", "12345678", "1234567"},
		ValueMinTokenLen: 15,
		ValueLengths:     []int{8, 9, 7, 6, 10},
		ValueMin:         100,
		ValueMax:         500_000_000,

		GenericPrefix:  "1234",
		WindowStartMin: 4,
		WindowStartMax: 11,
		WindowLengths:  []int{8, 9, 7, 6},
		WindowMin:      10_000,
		WindowMax:      500_000_000,

		ColumnSplitX: 300,
		ValueBands: []BandRoute{
			{YMin: 540, YMax: 580, LeftKey: "total_assets_boy", RightKey: "total_plan_assets_eoy"},
			{YMin: 500, YMax: 539, LeftKey: "total_liabilities_boy", RightKey: "total_liabilities_eoy"},
			{YMin: 460, YMax: 499, LeftKey: "net_assets_boy", RightKey: "net_assets_eoy"},
			{YMin: 400, YMax: 459, LeftKey: "employer_contributions", RightKey: "total_contributions"},
			{YMin: 340, YMax: 399, LeftKey: "benefit_payments", RightKey: "total_expenses"},
			{YMin: 280, YMax: 339, LeftKey: "other_income", RightKey: "net_income"},
		},
	}
}

// TemplateIDs lists the template identifiers this decoder applies to.
var TemplateIDs = map[string]bool{
	"form-5500":    true,
	"form-5500-sf": true,
}

// Applies reports whether the decoder should run for the given template.
func Applies(templateID string) bool {
	return TemplateIDs[templateID]
}
