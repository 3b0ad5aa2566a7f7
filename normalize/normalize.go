// ABOUTME: Pure normalizers for raw CSV field values
// ABOUTME: Canonicalizes emails, phones, dates, money amounts and free text; failures mean "missing"
package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// missingMarkers are the placeholder strings spreadsheet exports use for empty
// cells. They are treated exactly like a blank cell.
var missingMarkers = map[string]bool{
	"nan": true, "NaN": true, "-nan": true, "-NaN": true,
	"null": true, "NULL": true, "None": true,
	"N/A": true, "n/a": true, "NA": true, "<NA>": true,
	"#N/A": true, "#NA": true,
}

// IsMissing reports whether s carries no value.
func IsMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || missingMarkers[s]
}

// Text returns the trimmed value, or nil when the cell is blank or a
// missing-value marker.
func Text(s string) *string {
	if IsMissing(s) {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

// Email lowercases and trims s. It fails when the result is empty or has no @.
func Email(s string) (string, bool) {
	if IsMissing(s) {
		return "", false
	}
	email := strings.ToLower(strings.TrimSpace(s))
	if !strings.Contains(email, "@") {
		return "", false
	}
	return email, true
}

// EmailStrict is Email that additionally requires a dot somewhere in the address.
func EmailStrict(s string) (string, bool) {
	email, ok := Email(s)
	if !ok || !strings.Contains(email, ".") {
		return "", false
	}
	return email, true
}

// MinPhoneDigits is the shortest digit string accepted as a phone number.
const MinPhoneDigits = 10

// Phone keeps only the digits of s. Fewer than MinPhoneDigits digits fails.
func Phone(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < MinPhoneDigits {
		return "", false
	}
	return digits, true
}

// dateLayouts are tried in order before the fallback list.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02 15:04:05 -0700",
}

// fallbackLayouts covers the other shapes seen in CRM, Stripe and Denefits exports.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04pm",
	"2006/01/02",
	"2006/1/2 15:04:05",
	"1-2-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006, 3:04 PM",
	"Mon, Jan 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
}

// Date parses s with the ordered layout list, then the fallback list.
// Layouts without a zone are read as UTC.
func Date(s string) (time.Time, bool) {
	if IsMissing(s) {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DatePtr is Date returning nil on failure.
func DatePtr(s string) *time.Time {
	t, ok := Date(s)
	if !ok {
		return nil
	}
	return &t
}

// Amount strips currency symbols, thousands separators and whitespace, then
// parses the remainder as an exact decimal.
func Amount(s string) (decimal.Decimal, bool) {
	if IsMissing(s) {
		return decimal.Zero, false
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', '€', '£', '¥':
			return -1
		}
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
