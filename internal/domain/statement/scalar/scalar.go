// Package scalar provides tolerant parsing of numbers and dates from raw
// statement cells. Bank exports mix regional conventions freely, so parsing
// here is heuristic: it recognises the two common decimal conventions without
// requiring explicit locale configuration.
package scalar

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ISODate is the canonical date layout used throughout the pipeline.
// ISO strings compare correctly lexicographically, which the exclusion
// and transfer logic rely on.
const ISODate = "2006-01-02"

var (
	// "1,234.56" - period decimal, commas as thousands separators
	usDecimal = regexp.MustCompile(`^[^.]*\.\d\d$`)
	// "1.234,56" - comma decimal, periods as thousands separators
	euDecimal = regexp.MustCompile(`^[^,]*,\d\d$`)
)

// ParseNumber parses a raw cell as a number. It recognises US ("1,234.56")
// and European ("1.234,56") conventions by their two-digit decimal suffix and
// falls back to a plain parse otherwise. Ambiguous for 3+ digit fractional
// inputs; accepted as a known limitation.
func ParseNumber(raw string) (decimal.Decimal, bool) {
	s := cleanNumber(raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}

	switch {
	case usDecimal.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case euDecimal.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

var currencySymbols = []string{"R$", "$", "€", "£", "¥", "₹"}

// cleanNumber removes currency symbols and interior spaces. Anything else
// that is not a digit, separator, sign or accounting parenthesis makes the
// cell a non-number, so the result is rejected rather than stripped.
func cleanNumber(raw string) string {
	s := strings.TrimSpace(raw)
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	for _, r := range s {
		if !unicode.IsDigit(r) && r != ',' && r != '.' && r != '-' && r != '+' && r != '(' && r != ')' {
			return ""
		}
	}
	return s
}

// freeFormLayouts are tried in order when no explicit date layout is
// configured. Date-only layouts come before layouts with time components.
var freeFormLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
}

// ParseDate parses a raw cell as a date. When layout is non-empty the cell
// must match it exactly; otherwise any recognisable date string is accepted.
func ParseDate(raw, layout string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if layout != "" {
		t, err := time.Parse(layout, s)
		return t, err == nil
	}

	for _, l := range freeFormLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateKey formats a parsed date as its canonical ISO string.
func DateKey(t time.Time) string {
	return t.Format(ISODate)
}

// NormalizeStatementText prepares raw file bytes for tokenization: strips a
// UTF-8 BOM and re-decodes latin-1 exports that are not valid UTF-8.
func NormalizeStatementText(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return data
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
