package mapping

import (
	"errors"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/schema"
)

// ErrNoDateColumn is returned when the common schema offers no non-nullable
// date column, which the required date role cannot do without.
var ErrNoDateColumn = errors.New("no non-nullable date column available")

// Bank export column names are not standardized; these ordered candidate
// lists are data, extended as new export formats show up.
var (
	dateKeywords      = []string{"date"}
	balanceKeywords   = []string{"balance"}
	creditKeywords    = []string{"deposit", "credit", "in"}
	debitKeywords     = []string{"withdrawal", "debit", "out"}
	valueKeywords     = []string{"value", "amount"}
	referenceKeywords = []string{"description", "reference", "summary"}
	currencyKeywords  = []string{"currency"}
)

// keywordMatcher wraps an Aho-Corasick matcher for case-insensitive
// substring matching against a keyword list.
type keywordMatcher struct {
	m *ahocorasick.Matcher
}

func newKeywordMatcher(keywords []string) keywordMatcher {
	patterns := make([][]byte, len(keywords))
	for i, kw := range keywords {
		patterns[i] = []byte(strings.ToLower(kw))
	}
	return keywordMatcher{m: ahocorasick.NewMatcher(patterns)}
}

func (k keywordMatcher) matches(name string) bool {
	return len(k.m.Match([]byte(strings.ToLower(name)))) > 0
}

var (
	dateMatcher      = newKeywordMatcher(dateKeywords)
	balanceMatcher   = newKeywordMatcher(balanceKeywords)
	creditMatcher    = newKeywordMatcher(creditKeywords)
	debitMatcher     = newKeywordMatcher(debitKeywords)
	valueMatcher     = newKeywordMatcher(valueKeywords)
	referenceMatcher = newKeywordMatcher(referenceKeywords)
	currencyMatcher  = newKeywordMatcher(currencyKeywords)
)

// Guess produces an initial mapping from the common schema. Roles are
// guessed in a fixed order (date, balance, value, reference, currency),
// each guess skipping columns already claimed by an earlier one. The files
// and matches arguments feed the split-mode sign sampling; defaultCurrency
// backs the constant currency fallback.
func Guess(
	common []schema.Descriptor,
	files map[string][]columns.Column,
	matches map[string]bool,
	defaultCurrency uuid.UUID,
) (Mapping, error) {
	claimed := make(map[string]bool)
	claim := func(id string) string {
		claimed[id] = true
		return id
	}

	pick := func(test func(schema.Descriptor) bool) string {
		for _, d := range common {
			if !claimed[d.ID] && test(d) {
				return d.ID
			}
		}
		return ""
	}

	var m Mapping

	// Date: required. Prefer a column whose name says so.
	date := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeDate && !d.Nullable && dateMatcher.matches(d.Name)
	})
	if date == "" {
		date = pick(func(d schema.Descriptor) bool {
			return d.Type == columns.TypeDate && !d.Nullable
		})
	}
	if date == "" {
		return Mapping{}, ErrNoDateColumn
	}
	m.Date = claim(date)

	if balance := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeNumber && balanceMatcher.matches(d.Name)
	}); balance != "" {
		m.Balance = claim(balance)
	}

	m.Value = guessValue(common, files, matches, claimed, claim)

	if ref := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeString && referenceMatcher.matches(d.Name)
	}); ref != "" {
		m.Reference = claim(ref)
	} else if ref := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeString
	}); ref != "" {
		m.Reference = claim(ref)
	}

	if cur := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeString && !d.Nullable && currencyMatcher.matches(d.Name)
	}); cur != "" {
		m.Currency = ColumnCurrency{Column: claim(cur), Field: FieldTicker}
	} else {
		m.Currency = ConstantCurrency{CurrencyID: defaultCurrency}
	}

	return m, nil
}

// guessValue prefers split credit/debit columns when both exist, otherwise a
// single signed value column.
func guessValue(
	common []schema.Descriptor,
	files map[string][]columns.Column,
	matches map[string]bool,
	claimed map[string]bool,
	claim func(string) string,
) ValueRole {
	pick := func(test func(schema.Descriptor) bool) string {
		for _, d := range common {
			if !claimed[d.ID] && test(d) {
				return d.ID
			}
		}
		return ""
	}

	credit := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeNumber && creditMatcher.matches(d.Name)
	})
	debit := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeNumber && d.ID != credit && debitMatcher.matches(d.Name)
	})
	if credit != "" && debit != "" {
		claim(credit)
		claim(debit)
		return SplitValue{
			Credit: credit,
			Debit:  debit,
			Flip:   debitsMostlyPositive(common, files, matches, debit),
		}
	}

	value := pick(func(d schema.Descriptor) bool {
		return d.Type == columns.TypeNumber && valueMatcher.matches(d.Name)
	})
	if value == "" {
		value = pick(func(d schema.Descriptor) bool {
			return d.Type == columns.TypeNumber
		})
	}
	if value == "" {
		return nil
	}
	return SingleValue{Column: claim(value)}
}

// debitsMostlyPositive samples the parsed debit column across every file
// matching the common schema: when positive cells outnumber negative ones,
// the bank records debits as positive magnitudes and the sign must be
// flipped so debits end up negative. With no matching files the default is
// no flip.
func debitsMostlyPositive(
	common []schema.Descriptor,
	files map[string][]columns.Column,
	matches map[string]bool,
	debitID string,
) bool {
	idx := -1
	for i, d := range common {
		if d.ID == debitID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	positive, negative := 0, 0
	for fileID, cols := range files {
		if !matches[fileID] || idx >= len(cols) {
			continue
		}
		for _, cell := range cols[idx].Cells {
			if cell.Null {
				continue
			}
			switch cell.Num.Sign() {
			case 1:
				positive++
			case -1:
				negative++
			}
		}
	}
	return positive > negative
}
