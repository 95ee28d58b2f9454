package ledger

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRepository is an in-memory Repository used by tests and the CLI's
// offline mode. Entities are fixed at construction; only exchange rates are
// mutable, through the RateUpdater surface.
type MemoryRepository struct {
	accounts     []Account
	currencies   []Currency
	transactions []Transaction
	defaultCur   uuid.UUID
}

var (
	_ Repository  = (*MemoryRepository)(nil)
	_ RateUpdater = (*MemoryRepository)(nil)
)

// NewMemoryRepository builds an in-memory ledger. The first currency is the
// default.
func NewMemoryRepository(accounts []Account, currencies []Currency, transactions []Transaction) *MemoryRepository {
	repo := &MemoryRepository{
		accounts:     accounts,
		currencies:   currencies,
		transactions: transactions,
	}
	if len(currencies) > 0 {
		repo.defaultCur = currencies[0].ID
	}
	return repo
}

func (r *MemoryRepository) Accounts(context.Context) ([]Account, error) {
	return r.accounts, nil
}

func (r *MemoryRepository) Account(_ context.Context, id uuid.UUID) (*Account, error) {
	for i := range r.accounts {
		if r.accounts[i].ID == id {
			return &r.accounts[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Currencies(context.Context) ([]Currency, error) {
	return r.currencies, nil
}

func (r *MemoryRepository) DefaultCurrency(context.Context) (*Currency, error) {
	for i := range r.currencies {
		if r.currencies[i].ID == r.defaultCur {
			return &r.currencies[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Transactions(context.Context) ([]Transaction, error) {
	return r.transactions, nil
}

func (r *MemoryRepository) UpdateCurrencyRates(_ context.Context, rates map[string]string) error {
	for i := range r.currencies {
		raw, ok := rates[r.currencies[i].Ticker]
		if !ok {
			continue
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("rate for %s: %w", r.currencies[i].Ticker, err)
		}
		r.currencies[i].Rate = rate
	}
	return nil
}

// currencyCSVRow and transactionCSVRow are the gocsv shapes for ledger
// exports loaded in offline mode.
type currencyCSVRow struct {
	Ticker string `csv:"ticker"`
	Symbol string `csv:"symbol"`
	Name   string `csv:"name"`
	Rate   string `csv:"rate"`
}

type transactionCSVRow struct {
	Date      string `csv:"date"`
	Value     string `csv:"value"`
	Currency  string `csv:"currency"`
	Reference string `csv:"reference"`
	Account   string `csv:"account"`
}

// LoadCurrenciesCSV reads a currency table from a CSV export with columns
// ticker, symbol, name, rate.
func LoadCurrenciesCSV(r io.Reader) ([]Currency, error) {
	var rows []currencyCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse currencies: %w", err)
	}

	currencies := make([]Currency, 0, len(rows))
	for i, row := range rows {
		rate, err := decimal.NewFromString(strings.TrimSpace(row.Rate))
		if err != nil {
			return nil, fmt.Errorf("currencies row %d: invalid rate %q", i+1, row.Rate)
		}
		currencies = append(currencies, Currency{
			ID:     uuid.New(),
			Ticker: strings.TrimSpace(row.Ticker),
			Symbol: strings.TrimSpace(row.Symbol),
			Name:   strings.TrimSpace(row.Name),
			Rate:   rate,
		})
	}
	return currencies, nil
}

// LoadTransactionsCSV reads a transaction ledger from a CSV export with
// columns date, value, currency (ticker), reference, account (name).
// Currencies are resolved against the given table; accounts are created on
// first sight.
func LoadTransactionsCSV(r io.Reader, currencies []Currency) ([]Transaction, []Account, error) {
	var rows []transactionCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, nil, fmt.Errorf("parse transactions: %w", err)
	}

	byTicker := make(map[string]uuid.UUID, len(currencies))
	for _, c := range currencies {
		byTicker[strings.ToUpper(c.Ticker)] = c.ID
	}

	accountsByName := map[string]uuid.UUID{}
	var accounts []Account
	transactions := make([]Transaction, 0, len(rows))

	for i, row := range rows {
		value, err := decimal.NewFromString(strings.TrimSpace(row.Value))
		if err != nil {
			return nil, nil, fmt.Errorf("transactions row %d: invalid value %q", i+1, row.Value)
		}
		currencyID, ok := byTicker[strings.ToUpper(strings.TrimSpace(row.Currency))]
		if !ok {
			return nil, nil, fmt.Errorf("transactions row %d: unknown currency %q", i+1, row.Currency)
		}

		name := strings.TrimSpace(row.Account)
		accountID, ok := accountsByName[name]
		if !ok {
			accountID = uuid.New()
			accountsByName[name] = accountID
			accounts = append(accounts, Account{ID: accountID, Name: name})
		}

		transactions = append(transactions, Transaction{
			ID:        uuid.New(),
			Date:      strings.TrimSpace(row.Date),
			Value:     value,
			Currency:  currencyID,
			Reference: strings.TrimSpace(row.Reference),
			Account:   accountID,
		})
	}
	return transactions, accounts, nil
}
