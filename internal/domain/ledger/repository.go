package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Repository is the read-only view of the ledger the pipeline consumes.
type Repository interface {
	// Accounts returns all accounts.
	Accounts(ctx context.Context) ([]Account, error)
	// Account returns one account by id.
	Account(ctx context.Context, id uuid.UUID) (*Account, error)
	// Currencies returns all currencies.
	Currencies(ctx context.Context) ([]Currency, error)
	// DefaultCurrency returns the ledger's default currency.
	DefaultCurrency(ctx context.Context) (*Currency, error)
	// Transactions returns the full transaction ledger in insertion order.
	Transactions(ctx context.Context) ([]Transaction, error)
}

// RateUpdater is the write surface used by the exchange-rate refresh job.
// It is deliberately separate from Repository: the import pipeline itself
// only ever reads.
type RateUpdater interface {
	UpdateCurrencyRates(ctx context.Context, rates map[string]string) error
}
