// Package transfer detects internal transfers: statement rows that are the
// counterpart of a transaction already recorded on another account. There
// are no explicit transfer markers in bank exports, so detection is a
// sequence of increasingly loose match predicates over a sliding date
// window. Every match is a suggestion for the user to confirm, never an
// authority.
package transfer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/ledger"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/scalar"
)

// Candidate is one statement row eligible for transfer matching, built fresh
// each run; nothing here is persisted. Excluded rows (already imported per
// the watermark) stay matchable so they can absorb their ledger counterpart
// rather than letting it steal a fresh row.
type Candidate struct {
	FileID             string
	Row                int
	Value              decimal.Decimal
	Currency           uuid.UUID
	Reference          string
	Excluded           bool
	MatchedTransaction *uuid.UUID
}

// Candidates indexes candidates by ISO date. Insertion order within a date
// bucket is file order then row order, which makes matching deterministic.
type Candidates map[string][]*Candidate

// Add appends a candidate to its date bucket.
func (c Candidates) Add(date string, cand *Candidate) {
	c[date] = append(c[date], cand)
}

// Matcher runs the multi-pass transfer search. The ratio window and day
// window are tunables with long-standing defaults; see DefaultMatcher.
type Matcher struct {
	WindowDays int
	RatioLow   decimal.Decimal
	RatioHigh  decimal.Decimal
	logger     *slog.Logger
}

// NewMatcher creates a matcher with explicit tunables.
func NewMatcher(windowDays int, ratioLow, ratioHigh decimal.Decimal, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{WindowDays: windowDays, RatioLow: ratioLow, RatioHigh: ratioHigh, logger: logger}
}

// DefaultMatcher creates a matcher with the default 5-day window and
// [0.8, 1.2] fuzzy ratio bounds.
func DefaultMatcher(logger *slog.Logger) *Matcher {
	return NewMatcher(5, decimal.RequireFromString("0.8"), decimal.RequireFromString("1.2"), logger)
}

// predicate tests one candidate against one transaction. Conversion errors
// indicate data-model corruption (a transaction referencing a currency that
// no longer exists) and propagate as hard errors.
type predicate func(c *Candidate, tx ledger.Transaction) (bool, error)

// Match binds candidates to their likely transfer counterparts in the
// ledger. Four passes run in fixed order, strictest first, so a loose pass
// never steals a candidate an earlier strict pass would have matched:
//
//  1. reference, currency and value all equal
//  2. reference equal, converted value ratio within bounds
//  3. currency and value equal, reference ignored
//  4. converted value ratio within bounds only
//
// Value equality here means the candidate offsets the transaction: a -50
// transaction matches a +50 row. For each transaction the search walks up to
// WindowDays dates starting at the transaction date, forward when the
// transaction value is negative (the money arrives elsewhere on or after
// that date) and backward when positive. Transactions bind at most one
// candidate across all passes.
func (m *Matcher) Match(candidates Candidates, transactions []ledger.Transaction, currencies map[uuid.UUID]ledger.Currency) error {
	passes := []predicate{
		func(c *Candidate, tx ledger.Transaction) (bool, error) {
			return c.Reference == tx.Reference && c.Currency == tx.Currency && c.Value.Equal(tx.Value.Neg()), nil
		},
		func(c *Candidate, tx ledger.Transaction) (bool, error) {
			if c.Reference != tx.Reference {
				return false, nil
			}
			return m.ratioWithin(c, tx, currencies)
		},
		func(c *Candidate, tx ledger.Transaction) (bool, error) {
			return c.Currency == tx.Currency && c.Value.Equal(tx.Value.Neg()), nil
		},
		func(c *Candidate, tx ledger.Transaction) (bool, error) {
			return m.ratioWithin(c, tx, currencies)
		},
	}

	bound := make(map[uuid.UUID]bool)
	for _, pass := range passes {
		for _, tx := range transactions {
			if bound[tx.ID] || tx.Value.IsZero() {
				continue
			}
			matched, err := m.searchWindow(pass, tx, candidates)
			if err != nil {
				return err
			}
			if matched {
				bound[tx.ID] = true
			}
		}
	}
	return nil
}

// searchWindow walks the transaction's date window and binds the first
// unmatched candidate satisfying the pass predicate.
func (m *Matcher) searchWindow(pass predicate, tx ledger.Transaction, candidates Candidates) (bool, error) {
	date, err := time.Parse(scalar.ISODate, tx.Date)
	if err != nil {
		m.logger.Warn("skipping transaction with malformed date",
			slog.String("transaction", tx.ID.String()),
			slog.String("date", tx.Date),
		)
		return false, nil
	}

	direction := 1
	if tx.Value.Sign() > 0 {
		direction = -1
	}

	for day := 0; day < m.WindowDays; day++ {
		key := scalar.DateKey(date.AddDate(0, 0, day*direction))
		for _, cand := range candidates[key] {
			if cand.MatchedTransaction != nil {
				continue
			}
			ok, err := pass(cand, tx)
			if err != nil {
				return false, err
			}
			if ok {
				id := tx.ID
				cand.MatchedTransaction = &id
				return true, nil
			}
		}
	}
	return false, nil
}

// ratioWithin converts the transaction value into the candidate's currency
// and checks that the candidate offsets it within the fuzzy ratio bounds.
func (m *Matcher) ratioWithin(c *Candidate, tx ledger.Transaction, currencies map[uuid.UUID]ledger.Currency) (bool, error) {
	converted, err := Convert(tx.Value, tx.Currency, c.Currency, currencies)
	if err != nil {
		return false, err
	}
	offset := converted.Neg()
	if offset.IsZero() {
		return false, nil
	}
	ratio := c.Value.Div(offset)
	return ratio.GreaterThanOrEqual(m.RatioLow) && ratio.LessThanOrEqual(m.RatioHigh), nil
}

// Convert translates a value between currencies through their shared-base
// exchange rates. A missing currency id is data-model corruption and is
// reported as a hard error rather than papered over.
func Convert(value decimal.Decimal, from, to uuid.UUID, currencies map[uuid.UUID]ledger.Currency) (decimal.Decimal, error) {
	if from == to {
		return value, nil
	}
	fromCur, ok := currencies[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown currency %s", from)
	}
	toCur, ok := currencies[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown currency %s", to)
	}
	if toCur.Rate.IsZero() {
		return decimal.Zero, fmt.Errorf("currency %s has zero exchange rate", toCur.Ticker)
	}
	return value.Mul(fromCur.Rate).Div(toCur.Rate), nil
}
