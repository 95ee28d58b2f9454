// Package mapping binds semantic transaction roles (date, value, currency,
// reference, balance) to statement columns. The initial binding comes from
// name-based heuristics over the common schema; the user then edits it field
// by field.
package mapping

import (
	"github.com/google/uuid"
)

// CurrencyField selects which currency attribute a column's cells contain.
type CurrencyField string

const (
	FieldTicker CurrencyField = "ticker"
	FieldSymbol CurrencyField = "symbol"
	FieldName   CurrencyField = "name"
)

// ValueRole is a closed union: SingleValue or SplitValue.
type ValueRole interface {
	// ValueColumns lists the column ids the role is bound to.
	ValueColumns() []string
}

// SingleValue maps one signed number column to the transaction value.
type SingleValue struct {
	Column string
	Flip   bool
}

func (v SingleValue) ValueColumns() []string { return []string{v.Column} }

// SplitValue maps separate credit and debit columns to the transaction
// value. Flip negates debit cells so that debits end up negative.
type SplitValue struct {
	Credit string
	Debit  string
	Flip   bool
}

func (v SplitValue) ValueColumns() []string { return []string{v.Credit, v.Debit} }

// CurrencyRole is a closed union: ConstantCurrency or ColumnCurrency.
type CurrencyRole interface {
	// CurrencyColumn returns the bound column id, or "" for a constant.
	CurrencyColumn() string
}

// ConstantCurrency applies one currency to every row.
type ConstantCurrency struct {
	CurrencyID uuid.UUID
}

func (c ConstantCurrency) CurrencyColumn() string { return "" }

// ColumnCurrency resolves each row's currency from a column cell.
type ColumnCurrency struct {
	Column string
	Field  CurrencyField
}

func (c ColumnCurrency) CurrencyColumn() string { return c.Column }

// Mapping binds roles to column ids. Date is required and must reference a
// non-nullable date column; the other roles are optional. No column id is
// ever bound to two roles at once: the With* mutators clear a column's old
// role before assigning the new one.
type Mapping struct {
	Date      string
	Reference string
	Balance   string
	Value     ValueRole
	Currency  CurrencyRole
}

// WithDate returns the mapping with the date role bound to col.
func (m Mapping) WithDate(col string) Mapping {
	m = m.clearColumn(col)
	m.Date = col
	return m
}

// WithReference returns the mapping with the reference role bound to col.
// An empty col unbinds the role.
func (m Mapping) WithReference(col string) Mapping {
	m = m.clearColumn(col)
	m.Reference = col
	return m
}

// WithBalance returns the mapping with the balance role bound to col.
// An empty col unbinds the role.
func (m Mapping) WithBalance(col string) Mapping {
	m = m.clearColumn(col)
	m.Balance = col
	return m
}

// WithValue returns the mapping with the value role replaced.
func (m Mapping) WithValue(role ValueRole) Mapping {
	if role != nil {
		for _, col := range role.ValueColumns() {
			m = m.clearColumn(col)
		}
	}
	m.Value = role
	return m
}

// WithCurrency returns the mapping with the currency role replaced.
func (m Mapping) WithCurrency(role CurrencyRole) Mapping {
	if role != nil {
		if col := role.CurrencyColumn(); col != "" {
			m = m.clearColumn(col)
		}
	}
	m.Currency = role
	return m
}

// BoundColumns returns every column id the mapping currently claims.
func (m Mapping) BoundColumns() []string {
	var cols []string
	for _, c := range []string{m.Date, m.Reference, m.Balance} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	if m.Value != nil {
		for _, c := range m.Value.ValueColumns() {
			if c != "" {
				cols = append(cols, c)
			}
		}
	}
	if m.Currency != nil {
		if c := m.Currency.CurrencyColumn(); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// clearColumn removes col from whichever role currently holds it. A split
// value role loses the whole binding: half a split is not a usable value.
func (m Mapping) clearColumn(col string) Mapping {
	if col == "" {
		return m
	}
	if m.Date == col {
		m.Date = ""
	}
	if m.Reference == col {
		m.Reference = ""
	}
	if m.Balance == col {
		m.Balance = ""
	}
	if m.Value != nil {
		for _, c := range m.Value.ValueColumns() {
			if c == col {
				m.Value = nil
				break
			}
		}
	}
	if m.Currency != nil && m.Currency.CurrencyColumn() == col {
		m.Currency = nil
	}
	return m
}
