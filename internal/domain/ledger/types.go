// Package ledger exposes the persisted entity store (accounts, currencies
// and transactions) as read-only lookups for the import pipeline. The
// pipeline never writes here: committing an import is a single external
// state transition owned by the caller.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementFormat remembers how an account's statements were last parsed so
// the next import of the same export format needs no reconfiguration.
type StatementFormat struct {
	Header     bool   `json:"header"`
	Delimiter  string `json:"delimiter,omitempty"`
	DateFormat string `json:"date_format,omitempty"`
	// Date is the watermark: statements through this ISO date are already
	// imported for the account.
	Date string `json:"date,omitempty"`
}

// Account is a bank account known to the ledger.
type Account struct {
	ID                  uuid.UUID
	Name                string
	LastStatementFormat *StatementFormat
	CreatedAt           time.Time
}

// StatementFormat returns the account's remembered parse format, or nil.
func (a *Account) StatementFormat() *StatementFormat {
	if a == nil {
		return nil
	}
	return a.LastStatementFormat
}

// Watermark returns the account's last-imported-statement date, or "" when
// the account has never had a statement imported.
func (a *Account) Watermark() string {
	if a == nil || a.LastStatementFormat == nil {
		return ""
	}
	return a.LastStatementFormat.Date
}

// Currency is a currency known to the ledger. Rate is the exchange rate
// relative to a shared base, so converting between two currencies is
// value * from.Rate / to.Rate.
type Currency struct {
	ID     uuid.UUID
	Ticker string
	Symbol string
	Name   string
	Rate   decimal.Decimal
}

// Transaction is one recorded ledger entry. Date is an ISO YYYY-MM-DD
// string; ISO strings compare correctly lexicographically.
type Transaction struct {
	ID        uuid.UUID
	Date      string
	Value     decimal.Decimal
	Currency  uuid.UUID
	Reference string
	Account   uuid.UUID
}
