package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCurrenciesCSV(t *testing.T) {
	csv := `ticker,symbol,name,rate
EUR,€,Euro,1.08
USD,$,US Dollar,1.00`

	currencies, err := LoadCurrenciesCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, currencies, 2)
	assert.Equal(t, "EUR", currencies[0].Ticker)
	assert.Equal(t, "€", currencies[0].Symbol)
	assert.True(t, currencies[0].Rate.Equal(decimal.RequireFromString("1.08")))

	_, err = LoadCurrenciesCSV(strings.NewReader("ticker,symbol,name,rate\nEUR,€,Euro,bad"))
	assert.Error(t, err)
}

func TestLoadTransactionsCSV(t *testing.T) {
	currencies, err := LoadCurrenciesCSV(strings.NewReader("ticker,symbol,name,rate\nEUR,€,Euro,1.0"))
	require.NoError(t, err)

	csv := `date,value,currency,reference,account
2024-01-10,-50.00,EUR,RENT,Checking
2024-01-11,50.00,EUR,RENT,Savings
2024-01-12,-12.50,eur,GROCERIES,Checking`

	transactions, accounts, err := LoadTransactionsCSV(strings.NewReader(csv), currencies)
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	require.Len(t, accounts, 2)

	assert.Equal(t, "2024-01-10", transactions[0].Date)
	assert.Equal(t, currencies[0].ID, transactions[0].Currency)
	// Same account name resolves to the same id
	assert.Equal(t, transactions[0].Account, transactions[2].Account)
	assert.NotEqual(t, transactions[0].Account, transactions[1].Account)

	t.Run("unknown currency fails", func(t *testing.T) {
		bad := "date,value,currency,reference,account\n2024-01-10,-50.00,GBP,RENT,Checking"
		_, _, err := LoadTransactionsCSV(strings.NewReader(bad), currencies)
		assert.Error(t, err)
	})
}

func TestMemoryRepository(t *testing.T) {
	eur := Currency{ID: uuid.New(), Ticker: "EUR", Rate: decimal.NewFromInt(1)}
	usd := Currency{ID: uuid.New(), Ticker: "USD", Rate: decimal.RequireFromString("0.92")}
	account := Account{ID: uuid.New(), Name: "Checking", LastStatementFormat: &StatementFormat{Date: "2024-03-01"}}

	repo := NewMemoryRepository([]Account{account}, []Currency{eur, usd}, nil)
	ctx := context.Background()

	got, err := repo.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got.Watermark())

	_, err = repo.Account(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	def, err := repo.DefaultCurrency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", def.Ticker)

	require.NoError(t, repo.UpdateCurrencyRates(ctx, map[string]string{"USD": "0.95"}))
	currencies, err := repo.Currencies(ctx)
	require.NoError(t, err)
	assert.True(t, currencies[1].Rate.Equal(decimal.RequireFromString("0.95")))
}
