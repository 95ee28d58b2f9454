package mapping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/schema"
)

func inferBatch(t *testing.T, texts map[string]string) (map[string][]columns.Column, schema.Result) {
	t.Helper()
	files := make(map[string][]columns.Column, len(texts))
	for id, text := range texts {
		cols, err := columns.InferColumns(text, columns.ParseOptions{Header: true})
		require.NoError(t, err)
		files[id] = cols
	}
	return files, schema.Reconcile(files, nil)
}

func TestGuess(t *testing.T) {
	defaultCurrency := uuid.New()

	t.Run("single value statement", func(t *testing.T) {
		files, result := inferBatch(t, map[string]string{
			"a": "Date,Description,Amount,Balance\n2024-01-15,Coffee,-4.50,995.50",
		})
		require.NotNil(t, result.Common)

		m, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		require.NoError(t, err)

		assert.Equal(t, "c0", m.Date)
		assert.Equal(t, "c1", m.Reference)
		assert.Equal(t, "c3", m.Balance)
		assert.Equal(t, SingleValue{Column: "c2"}, m.Value)
		assert.Equal(t, ConstantCurrency{CurrencyID: defaultCurrency}, m.Currency)
	})

	t.Run("split credit and debit columns", func(t *testing.T) {
		files, result := inferBatch(t, map[string]string{
			"a": "Date,Description,Debit,Credit\n2024-01-15,Coffee,4.50,\n2024-01-16,Salary,,5000.00",
		})
		require.NotNil(t, result.Common)

		m, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		require.NoError(t, err)

		split, ok := m.Value.(SplitValue)
		require.True(t, ok, "expected split mode, got %#v", m.Value)
		assert.Equal(t, "c3", split.Credit)
		assert.Equal(t, "c2", split.Debit)
		// Debits recorded as positive magnitudes: flip so they import negative.
		assert.True(t, split.Flip)
		assert.Equal(t, "c1", m.Reference)
	})

	t.Run("no flip when debits are already negative", func(t *testing.T) {
		files, result := inferBatch(t, map[string]string{
			"a": "Date,Withdrawal,Deposit\n2024-01-15,-4.50,\n2024-01-16,,5000.00",
		})
		require.NotNil(t, result.Common)

		m, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		require.NoError(t, err)

		split, ok := m.Value.(SplitValue)
		require.True(t, ok)
		assert.False(t, split.Flip)
	})

	t.Run("date column preferred by name", func(t *testing.T) {
		// Two date columns; the one named like a date wins even if later.
		files, result := inferBatch(t, map[string]string{
			"a": "Posted,Value Date,Amount\n2024-01-14,2024-01-15,-4.50",
		})
		require.NotNil(t, result.Common)

		m, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		require.NoError(t, err)
		assert.Equal(t, "c1", m.Date)
	})

	t.Run("currency column bound as ticker source", func(t *testing.T) {
		files, result := inferBatch(t, map[string]string{
			"a": "Date,Description,Amount,Currency\n2024-01-15,Coffee,-4.50,EUR",
		})
		require.NotNil(t, result.Common)

		m, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		require.NoError(t, err)
		assert.Equal(t, ColumnCurrency{Column: "c3", Field: FieldTicker}, m.Currency)
	})

	t.Run("no date column is an error", func(t *testing.T) {
		files, result := inferBatch(t, map[string]string{
			"a": "Description,Amount\nCoffee,-4.50",
		})
		require.NotNil(t, result.Common)

		_, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		assert.ErrorIs(t, err, ErrNoDateColumn)
	})

	t.Run("nullable date column cannot satisfy the date role", func(t *testing.T) {
		files, result := inferBatch(t, map[string]string{
			"a": "Date,Amount\n2024-01-15,-4.50\n,-5.00",
		})
		require.NotNil(t, result.Common)

		_, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		assert.ErrorIs(t, err, ErrNoDateColumn)
	})

	t.Run("guessed mapping never double-binds a column", func(t *testing.T) {
		files, result := inferBatch(t, map[string]string{
			"a": "Date,Description,Debit,Credit,Balance,Currency\n2024-01-15,Coffee,4.50,,995.50,EUR",
		})
		require.NotNil(t, result.Common)

		m, err := Guess(result.Common, files, result.Matches, defaultCurrency)
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, col := range m.BoundColumns() {
			assert.False(t, seen[col], "column %s bound twice", col)
			seen[col] = true
		}
	})
}
