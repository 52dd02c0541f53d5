package form5500

import (
	"strconv"
	"strings"

	"github.com/openextract/openextract/internal/document"
)

// Decoder runs the placeholder-decoding passes for Form 5500 family
// documents. It is stateless apart from its configuration and safe for
// concurrent use.
type Decoder struct {
	cfg Config
}

// NewDecoder creates a decoder with the default configuration.
func NewDecoder() *Decoder {
	return &Decoder{cfg: DefaultConfig()}
}

// NewDecoderWithConfig creates a decoder with a custom configuration.
func NewDecoderWithConfig(cfg Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// Merge folds the decoder passes and the generic engine output into one
// record. Precedence per field: positional pass, then pattern pass, then
// the generic result. Nil values never shadow a non-nil one from a lower
// precedence source.
func Merge(positional, pattern, generic map[string]any) map[string]any {
	merged := make(map[string]any, len(generic))
	for key, value := range generic {
		merged[key] = value
	}
	for key, value := range pattern {
		if value != nil {
			merged[key] = value
		}
	}
	for key, value := range positional {
		if value != nil {
			merged[key] = value
		}
	}
	return merged
}

// StripPlaceholder recovers the genuine digits from a placeholder-embedded
// string. Participant counts carry a short prefix with the real value in
// the remaining digits; financial values carry a longer prefix. A string
// with no recognizable placeholder is returned as-is when it is plainly
// numeric.
func (d *Decoder) StripPlaceholder(raw string, participant bool) (string, bool) {
	if raw == "" {
		return "", false
	}
	clean := strings.TrimPrefix(strings.TrimSpace(raw), "-")

	if participant {
		if len(clean) >= 7 && strings.HasPrefix(clean, "123456") {
			for _, prefix := range d.cfg.ParticipantPrefixes {
				if strings.HasPrefix(clean, prefix) {
					remainder := clean[len(prefix):]
					if remainder != "" && isDigits(remainder) {
						n, _ := strconv.Atoi(remainder)
						return strconv.Itoa(n), true
					}
				}
			}
		}
		if isDigits(clean) && clean != "" {
			n, _ := strconv.Atoi(clean)
			return strconv.Itoa(n), true
		}
		return "", false
	}

	for _, prefix := range []string{"123456789", "12345678"} {
		if len(clean) > len(prefix) && strings.HasPrefix(clean, prefix) {
			remainder := clean[len(prefix):]
			if isDigits(remainder) {
				return remainder, true
			}
		}
	}
	if isDigits(clean) && clean != "" {
		return clean, true
	}
	return "", false
}

// DecodeValue recovers a financial value from a placeholder token. It tries
// the known prefixes longest first with each candidate value length, falls
// back to a sliding-window search for tokens that only carry the generic
// marker, and finally attempts a direct parse. The first candidate whose
// magnitude lands in the plausibility window wins; a token with no
// plausible candidate decodes to nothing.
func (d *Decoder) DecodeValue(token string) (float64, bool) {
	if token == "" {
		return 0, false
	}
	clean := strings.TrimPrefix(strings.TrimSpace(token), "-")

	// Known prefixes, longest first.
	for _, prefix := range d.cfg.ValuePrefixes {
		if !strings.HasPrefix(clean, prefix) {
			continue
		}
		remainder := clean[len(prefix):]
		if len(remainder) < 5 {
			continue
		}
		for _, valueLen := range d.cfg.ValueLengths {
			if len(remainder) < valueLen {
				continue
			}
			value, err := strconv.ParseFloat(remainder[:valueLen], 64)
			if err != nil {
				continue
			}
			if value >= d.cfg.ValueMin && value <= d.cfg.ValueMax {
				return value, true
			}
		}
	}

	// Generic marker: the prefix digits after "1234" vary, so slide the
	// window across several start offsets.
	if strings.HasPrefix(clean, d.cfg.GenericPrefix) && len(clean) >= d.cfg.ValueMinTokenLen {
		for start := d.cfg.WindowStartMin; start <= d.cfg.WindowStartMax; start++ {
			for _, valueLen := range d.cfg.WindowLengths {
				if start+valueLen > len(clean) {
					continue
				}
				value, err := strconv.ParseFloat(clean[start:start+valueLen], 64)
				if err != nil {
					continue
				}
				if value >= d.cfg.WindowMin && value <= d.cfg.WindowMax {
					return value, true
				}
			}
		}
	}

	// No placeholder at all: accept a plain number in the narrow window.
	if value, err := strconv.ParseFloat(strings.ReplaceAll(clean, ",", ""), 64); err == nil {
		if value >= d.cfg.ValueMin && value <= d.cfg.ValueMax {
			return value, true
		}
	}

	return 0, false
}

// PositionalPass scans positioned word tokens and decodes participant
// counts and financial values by placeholder prefix and coordinate band.
// Tokens that fail to decode are skipped silently.
func (d *Decoder) PositionalPass(words []document.Word) map[string]any {
	decoded := make(map[string]any)

	for _, word := range words {
		token := strings.TrimSpace(word.Text)
		if token == "" {
			continue
		}

		if word.Page == 1 {
			d.decodeParticipantToken(token, word, decoded)
			continue
		}
		d.decodeFinancialToken(token, word, decoded)
	}

	return decoded
}

// decodeParticipantToken handles first-page tokens: a short placeholder
// prefix in the right-hand column is a participant count, assigned to a
// line item by vertical band.
func (d *Decoder) decodeParticipantToken(token string, word document.Word, decoded map[string]any) {
	if word.X < d.cfg.ParticipantColumnX {
		return
	}
	clean := strings.TrimPrefix(token, "-")
	if !strings.HasPrefix(clean, "123456") {
		return
	}

	for _, prefix := range d.cfg.ParticipantPrefixes {
		if !strings.HasPrefix(clean, prefix) {
			continue
		}
		remainder := clean[len(prefix):]
		if remainder == "" || !isDigits(remainder) || len(remainder) > d.cfg.ParticipantMaxDigits {
			continue
		}

		count, err := strconv.Atoi(remainder)
		if err != nil {
			continue
		}
		for _, band := range d.cfg.ParticipantBands {
			if word.Y >= band.YMin && word.Y < band.YMax {
				if _, exists := decoded[band.Key]; !exists {
					decoded[band.Key] = count
				}
				return
			}
		}
		return
	}
}

// decodeFinancialToken handles later-page tokens: decode the value and
// route it to a field by vertical band, with the horizontal position
// picking the beginning-of-year or end-of-year column.
func (d *Decoder) decodeFinancialToken(token string, word document.Word, decoded map[string]any) {
	clean := strings.TrimPrefix(token, "-")
	if !strings.HasPrefix(clean, d.cfg.GenericPrefix) || len(clean) < d.cfg.ValueMinTokenLen {
		// Unprefixed tokens still get a direct-parse attempt; anything
		// else on these pages is label text.
		if !isDigits(strings.ReplaceAll(clean, ",", "")) {
			return
		}
	}

	value, ok := d.DecodeValue(token)
	if !ok {
		return
	}

	for _, band := range d.cfg.ValueBands {
		if word.Y < band.YMin || word.Y >= band.YMax {
			continue
		}
		key := band.LeftKey
		if word.X >= d.cfg.ColumnSplitX {
			key = band.RightKey
		}
		if _, exists := decoded[key]; !exists {
			decoded[key] = value
		}
		return
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
