package ledger

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrations embed.FS

// querier is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it, so the query layer is testable without a database.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository implements Repository and RateUpdater on PostgreSQL.
type PostgresRepository struct {
	db querier
}

var (
	_ Repository  = (*PostgresRepository)(nil)
	_ RateUpdater = (*PostgresRepository)(nil)
)

// NewPostgresRepository creates a repository over an existing pool or mock.
func NewPostgresRepository(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects to the database, applies pending migrations and returns a
// ready repository.
func Open(ctx context.Context, dsn string) (*PostgresRepository, *pgxpool.Pool, error) {
	if err := migrate(dsn); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return NewPostgresRepository(pool), pool, nil
}

func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// Accounts returns all accounts ordered by creation time.
func (r *PostgresRepository) Accounts(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, last_statement_format, created_at
		FROM accounts
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// Account returns one account by id.
func (r *PostgresRepository) Account(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, last_statement_format, created_at
		FROM accounts
		WHERE id = $1`, id)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return account, err
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		account Account
		format  []byte
	)
	if err := row.Scan(&account.ID, &account.Name, &format, &account.CreatedAt); err != nil {
		return nil, err
	}
	if len(format) > 0 {
		account.LastStatementFormat = &StatementFormat{}
		if err := json.Unmarshal(format, account.LastStatementFormat); err != nil {
			return nil, fmt.Errorf("decode statement format for account %s: %w", account.ID, err)
		}
	}
	return &account, nil
}

// Currencies returns all currencies ordered by ticker.
func (r *PostgresRepository) Currencies(ctx context.Context) ([]Currency, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ticker, symbol, name, exchange_rate
		FROM currencies
		ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []Currency
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.ID, &c.Ticker, &c.Symbol, &c.Name, &c.Rate); err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

// DefaultCurrency returns the currency flagged as the ledger default.
func (r *PostgresRepository) DefaultCurrency(ctx context.Context) (*Currency, error) {
	var c Currency
	err := r.db.QueryRow(ctx, `
		SELECT id, ticker, symbol, name, exchange_rate
		FROM currencies
		WHERE is_default
		LIMIT 1`).Scan(&c.ID, &c.Ticker, &c.Symbol, &c.Name, &c.Rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query default currency: %w", err)
	}
	return &c, nil
}

// Transactions returns the full ledger in insertion order.
func (r *PostgresRepository) Transactions(ctx context.Context) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, date, value, currency_id, reference, account_id
		FROM transactions
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var (
			tx   Transaction
			date time.Time
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Value, &tx.Currency, &tx.Reference, &tx.Account); err != nil {
			return nil, err
		}
		tx.Date = date.Format("2006-01-02")
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// UpdateCurrencyRates writes refreshed exchange rates keyed by ticker.
func (r *PostgresRepository) UpdateCurrencyRates(ctx context.Context, rates map[string]string) error {
	for ticker, raw := range rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("rate for %s: %w", ticker, err)
		}
		if _, err := r.db.Exec(ctx, `
			UPDATE currencies SET exchange_rate = $2 WHERE ticker = $1`, ticker, rate); err != nil {
			return fmt.Errorf("update rate for %s: %w", ticker, err)
		}
	}
	return nil
}
