package form5500

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/openextract/openextract/internal/coerce"
)

// Line-anchor and marker patterns for the whole-document pattern pass.
// Compiled once; the pass itself is pure over the input text.
var (
	planYearRe      = regexp.MustCompile(`beginning\s+(\d{2}/\d{2}/\d{4})\s+and\s+ending\s+(\d{2}/\d{2}/\d{4})`)
	planNameRe      = regexp.MustCompile(`(?is)Name of plan.*?\n\s*(.+?)\s*\(PN\)`)
	planNumberRe    = regexp.MustCompile(`\(PN\)[^\d]*(\d{3})`)
	effectiveDateRe = regexp.MustCompile(`(?i)Effective date[^\d]*(\d{2}/\d{2}/\d{4})`)
	einRe           = regexp.MustCompile(`(?:EIN|Identification Number)[^\d]*(\d{2})-?(\d{7})`)
	phoneRe         = regexp.MustCompile(`(?i)Sponsor's telephone[^\d]*(\d{3})-(\d{3})-(\d{4})`)
	businessCodeRe  = regexp.MustCompile(`(?i)(?:Business code|2d)[^\d]*(\d{6})`)
	locationRe      = regexp.MustCompile(`([A-Z][A-Z\s]+),\s*([A-Z]{2})\s+(\d{5})`)
	bondRe          = regexp.MustCompile(`(?i)(?:10c|fidelity bond)[^\d]*\$?([\d,]+)`)
	featureCodeRe   = regexp.MustCompile(`\b([23][A-Z])\b`)

	participantLineRes = map[string]*regexp.Regexp{
		"total_participants_boy":         regexp.MustCompile(`5a\s+(\d+)`),
		"total_participants_eoy":         regexp.MustCompile(`5b\s+(\d+)`),
		"participants_with_balances_boy": regexp.MustCompile(`(?i)5c[e(]?1[)\s]+(\d+)`),
		"participants_with_balances_eoy": regexp.MustCompile(`(?i)5c[e(]?2[)\s]+(\d+)`),
	}

	// Paired BOY/EOY currency lines (assets and liabilities schedule).
	pairedCurrencyRes = map[[2]string]*regexp.Regexp{
		{"total_assets_boy", "total_plan_assets_eoy"}:      regexp.MustCompile(`7a\s+\$?([\d,]+)\s+\$?([\d,]+)`),
		{"total_liabilities_boy", "total_liabilities_eoy"}: regexp.MustCompile(`7b\s+\$?([\d,]+)\s+\$?([\d,]+)`),
		{"net_assets_boy", "net_assets_eoy"}:               regexp.MustCompile(`7c\s+\$?([\d,]+)\s+\$?([\d,]+)`),
	}

	// Single-column currency lines (income and expenses schedule).
	currencyLineRes = map[string]*regexp.Regexp{
		"employer_contributions":    regexp.MustCompile(`8a\(1\)\s+\$?([\d,]+)`),
		"participant_contributions": regexp.MustCompile(`8a\(2\)\s+\$?([\d,]+)`),
		"other_contributions":       regexp.MustCompile(`8a\(3\)\s+\$?([\d,]+)`),
		"other_income":              regexp.MustCompile(`8b\s+\$?([\d,]+)`),
		"total_contributions":       regexp.MustCompile(`8c\s+\$?([\d,]+)`),
		"benefit_payments":          regexp.MustCompile(`8d\s+\$?([\d,]+)`),
		"deemed_distributions":      regexp.MustCompile(`8e\s+\$?([\d,]+)`),
		"admin_expenses":            regexp.MustCompile(`8f\s+\$?([\d,]+)`),
		"other_expenses":            regexp.MustCompile(`8g\s+\$?([\d,]+)`),
		"total_expenses":            regexp.MustCompile(`8h\s+\$?([\d,]+)`),
		"net_income":                regexp.MustCompile(`8i\s+\$?([\d,]+)`),
		"transfers":                 regexp.MustCompile(`8j\s+\$?([\d,]+)`),
	}
)

// complianceDefaults are the compliance-line answers assumed when the form
// leaves the checkboxes untouched.
var complianceDefaults = map[string]string{
	"failed_contribution_transmittal": "No",
	"nonexempt_party_transactions":    "No",
	"fidelity_bond_coverage":          "Yes",
	"loss_from_fraud":                 "No",
	"insurance_broker_fees":           "No",
	"failed_benefit_payment":          "No",
	"participant_loans":               "No",
	"blackout_period":                 "No",
}

// PatternPass scans the whole document text for line-anchor tokens and
// known textual markers, returning every field it can identify. Fields it
// cannot find are simply absent from the result.
func (d *Decoder) PatternPass(text string) map[string]any {
	extracted := make(map[string]any)

	// Part I: annual report identification.
	if m := planYearRe.FindStringSubmatch(text); m != nil {
		if iso, ok := coerce.Date(m[1]); ok {
			extracted["plan_year_begin"] = iso
		}
		if iso, ok := coerce.Date(m[2]); ok {
			extracted["plan_year_end"] = iso
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "single-employer") {
		extracted["plan_type"] = "Single-employer"
	} else if strings.Contains(lower, "multiple-employer") {
		extracted["plan_type"] = "Multiple-employer"
	}

	extracted["is_first_return"] = strings.Contains(lower, "first return")
	extracted["is_final_return"] = strings.Contains(lower, "final return")
	extracted["is_amended_return"] = strings.Contains(lower, "amended return")
	extracted["is_short_plan_year"] = strings.Contains(lower, "short plan year")

	switch {
	case strings.Contains(text, "Form 5558"):
		extracted["filing_extension"] = "Form 5558"
	case strings.Contains(lower, "automatic extension"):
		extracted["filing_extension"] = "Automatic extension"
	case strings.Contains(text, "DFVC program"):
		extracted["filing_extension"] = "DFVC program"
	}

	// Part II: basic plan information.
	if m := planNameRe.FindStringSubmatch(text); m != nil {
		extracted["plan_name"] = coerce.CleanText(m[1])
	}
	if m := planNumberRe.FindStringSubmatch(text); m != nil {
		extracted["plan_number"] = m[1]
	}
	if m := effectiveDateRe.FindStringSubmatch(text); m != nil {
		if iso, ok := coerce.Date(m[1]); ok {
			extracted["effective_date"] = iso
		}
	}
	if m := einRe.FindStringSubmatch(text); m != nil {
		if ein, ok := coerce.NormalizeEIN(m[1] + m[2]); ok {
			extracted["ein"] = ein
		}
	}
	if m := phoneRe.FindStringSubmatch(text); m != nil {
		extracted["sponsor_phone"] = m[1] + "-" + m[2] + "-" + m[3]
	}
	if m := businessCodeRe.FindStringSubmatch(text); m != nil {
		extracted["business_code"] = m[1]
	}
	if m := locationRe.FindStringSubmatch(text); m != nil {
		extracted["sponsor_city"] = coerce.CleanText(m[1])
		extracted["sponsor_state"] = m[2]
		extracted["sponsor_zip"] = m[3]
	}
	extracted["admin_same_as_sponsor"] = strings.Contains(text, "Same as Plan Sponsor")

	// Line 5: participant counts.
	for key, re := range participantLineRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				extracted[key] = n
			}
		}
	}

	// Line 7: assets and liabilities, paired BOY/EOY columns.
	for keys, re := range pairedCurrencyRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := d.parseCurrency(m[1]); ok {
				extracted[keys[0]] = v
			}
			if v, ok := d.parseCurrency(m[2]); ok {
				extracted[keys[1]] = v
			}
		}
	}

	// Line 8: income and expenses.
	for key, re := range currencyLineRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := d.parseCurrency(m[1]); ok {
				extracted[key] = v
			}
		}
	}

	// Line 9: pension feature codes, deduplicated in order of appearance.
	if codes := featureCodeRe.FindAllStringSubmatch(text, -1); codes != nil {
		seen := make(map[string]bool)
		var unique []string
		for _, m := range codes {
			if !seen[m[1]] {
				seen[m[1]] = true
				unique = append(unique, m[1])
			}
			if len(unique) >= 10 {
				break
			}
		}
		if len(unique) > 0 {
			extracted["pension_feature_codes"] = strings.Join(unique, ", ")
		}
	}

	// Line 10: compliance defaults and fidelity bond amount.
	for key, value := range complianceDefaults {
		extracted[key] = value
	}
	if m := bondRe.FindStringSubmatch(text); m != nil {
		if v, ok := d.parseCurrency(m[1]); ok {
			extracted["fidelity_bond_amount"] = v
		}
	}

	return extracted
}

// parseCurrency parses a currency-looking token, stripping a recognized
// placeholder prefix first when the digits are placeholder-wrapped.
func (d *Decoder) parseCurrency(raw string) (float64, bool) {
	digits := strings.ReplaceAll(raw, ",", "")
	if stripped, ok := d.StripPlaceholder(digits, false); ok && stripped != digits {
		raw = stripped
	}
	return coerce.Currency(raw)
}
