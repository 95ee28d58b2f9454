package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferColumns(t *testing.T) {
	t.Run("types columns by priority", func(t *testing.T) {
		text := `Date,Description,Amount
2024-01-15,Coffee Shop,-4.50
2024-01-16,Salary,5000.00
2024-01-17,Groceries,-125.30`

		cols, err := InferColumns(text, ParseOptions{Header: true})
		require.NoError(t, err)
		require.Len(t, cols, 3)

		assert.Equal(t, "Date", cols[0].Name)
		assert.Equal(t, TypeDate, cols[0].Type)
		assert.Equal(t, TypeString, cols[1].Type)
		assert.Equal(t, TypeNumber, cols[2].Type)

		for _, col := range cols {
			assert.False(t, col.Nullable)
			assert.Len(t, col.Raw, 3)
			assert.Len(t, col.Cells, 3)
		}

		assert.Equal(t, "2024-01-15", cols[0].Cells[0].Date)
		assert.Equal(t, "Coffee Shop", cols[1].Cells[0].Str)
		assert.Equal(t, "-4.5", cols[2].Cells[0].Num.String())
	})

	t.Run("empty cells mark column nullable", func(t *testing.T) {
		text := `Date,Amount
2024-01-15,4.50
2024-01-16,`

		cols, err := InferColumns(text, ParseOptions{Header: true})
		require.NoError(t, err)
		assert.False(t, cols[0].Nullable)
		assert.True(t, cols[1].Nullable)
		assert.True(t, cols[1].Cells[1].Null)
		// Type still inferred from the non-empty cells
		assert.Equal(t, TypeNumber, cols[1].Type)
	})

	t.Run("mixed values fall back to string", func(t *testing.T) {
		text := `Ref
12.50
pending`

		cols, err := InferColumns(text, ParseOptions{Header: true})
		require.NoError(t, err)
		assert.Equal(t, TypeString, cols[0].Type)
	})

	t.Run("strict date format gates the date type", func(t *testing.T) {
		text := `When
15/01/2024
16/01/2024`

		cols, err := InferColumns(text, ParseOptions{Header: true, DateFormat: "02/01/2006"})
		require.NoError(t, err)
		assert.Equal(t, TypeDate, cols[0].Type)
		assert.Equal(t, "2024-01-15", cols[0].Cells[0].Date)

		// Same file under a non-matching strict format is a string column
		cols, err = InferColumns(text, ParseOptions{Header: true, DateFormat: "2006-01-02"})
		require.NoError(t, err)
		assert.Equal(t, TypeString, cols[0].Type)
	})

	t.Run("headerless files get synthesized names", func(t *testing.T) {
		text := `2024-01-15;Coffee;-4,50
2024-01-16;Salary;5000,00`

		cols, err := InferColumns(text, ParseOptions{})
		require.NoError(t, err)
		require.Len(t, cols, 3)
		assert.Equal(t, "Column 1", cols[0].Name)
		assert.Equal(t, "c0", cols[0].ID)
		assert.Equal(t, TypeDate, cols[0].Type)
		assert.Equal(t, TypeNumber, cols[2].Type)
	})

	t.Run("ragged rows are unparseable", func(t *testing.T) {
		text := `Date,Amount
2024-01-15,4.50,extra`

		_, err := InferColumns(text, ParseOptions{Header: true})
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := InferColumns("", ParseOptions{Header: true})
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("idempotent", func(t *testing.T) {
		text := `Date,Amount
2024-01-15,4.50`
		first, err := InferColumns(text, ParseOptions{Header: true})
		require.NoError(t, err)
		second, err := InferColumns(text, ParseOptions{Header: true})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{"a;b;c,d", ';'},
	}
	for _, tt := range tests {
		got, err := DetectDelimiter(tt.line)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}

	_, err := DetectDelimiter("singlecolumn")
	assert.ErrorIs(t, err, ErrInvalidDelimiter)
}
