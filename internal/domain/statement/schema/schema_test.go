package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
)

func makeColumns(t *testing.T, text string) []columns.Column {
	t.Helper()
	cols, err := columns.InferColumns(text, columns.ParseOptions{Header: true})
	require.NoError(t, err)
	return cols
}

func TestReconcile(t *testing.T) {
	t.Run("identical files agree", func(t *testing.T) {
		a := makeColumns(t, "Date,Description,Amount\n2024-01-15,Coffee,-4.50")
		b := makeColumns(t, "Date,Description,Amount\n2024-02-01,Rent,-900.00")

		result := Reconcile(map[string][]columns.Column{"a": a, "b": b}, nil)
		require.NotNil(t, result.Common)
		assert.Len(t, result.Common, 3)
		assert.True(t, result.Matches["a"])
		assert.True(t, result.Matches["b"])
	})

	t.Run("nullable widens the common slot for everyone", func(t *testing.T) {
		// One file has a blank Amount cell, the other does not.
		a := makeColumns(t, "Date,Description,Amount\n2024-01-15,Coffee,-4.50\n2024-01-16,Pending,")
		b := makeColumns(t, "Date,Description,Amount\n2024-02-01,Rent,-900.00")

		result := Reconcile(map[string][]columns.Column{"a": a, "b": b}, nil)
		require.NotNil(t, result.Common)
		assert.True(t, result.Common[2].Nullable)
		assert.True(t, result.Matches["a"])
		assert.True(t, result.Matches["b"])
	})

	t.Run("majority wins", func(t *testing.T) {
		a := makeColumns(t, "Date,Amount\n2024-01-15,-4.50")
		b := makeColumns(t, "Date,Amount\n2024-01-16,-5.00")
		c := makeColumns(t, "When,Value,Extra\n2024-01-17,-6.00,x")

		result := Reconcile(map[string][]columns.Column{"a": a, "b": b, "c": c}, nil)
		require.NotNil(t, result.Common)
		assert.Equal(t, "Date", result.Common[0].Name)
		assert.True(t, result.Matches["a"])
		assert.True(t, result.Matches["b"])
		assert.False(t, result.Matches["c"])
	})

	t.Run("no majority means no common schema", func(t *testing.T) {
		files := map[string][]columns.Column{
			"a": makeColumns(t, "Date,Amount\n2024-01-15,-4.50"),
			"b": makeColumns(t, "When,Value\n2024-01-16,-5.00"),
			"c": makeColumns(t, "Dia,Valor\n2024-01-17,-6.00"),
		}
		result := Reconcile(files, nil)
		assert.Nil(t, result.Common)
		for id := range files {
			assert.False(t, result.Matches[id])
		}
	})

	t.Run("unparseable files vote nothing and never match", func(t *testing.T) {
		a := makeColumns(t, "Date,Amount\n2024-01-15,-4.50")
		files := map[string][]columns.Column{"a": a, "bad": nil}

		result := Reconcile(files, nil)
		require.NotNil(t, result.Common)
		assert.True(t, result.Matches["a"])
		assert.False(t, result.Matches["bad"])
	})

	t.Run("fixed schema skips the vote", func(t *testing.T) {
		fixed := []Descriptor{
			{ID: "c0", Name: "Date", Type: columns.TypeDate},
			{ID: "c1", Name: "Amount", Type: columns.TypeNumber, Nullable: true},
		}
		a := makeColumns(t, "Date,Amount\n2024-01-15,-4.50")
		result := Reconcile(map[string][]columns.Column{"a": a}, fixed)
		assert.Equal(t, fixed, result.Common)
		assert.True(t, result.Matches["a"])
	})
}

func TestCompatible(t *testing.T) {
	base := makeColumns(t, "Date,Note\n2024-01-15,hello")

	t.Run("string common slot absorbs any type", func(t *testing.T) {
		common := []Descriptor{
			{ID: "c0", Name: "Date", Type: columns.TypeString},
			{ID: "c1", Name: "Note", Type: columns.TypeString},
		}
		assert.True(t, Compatible(common, base))
	})

	t.Run("typed common slot requires equal type", func(t *testing.T) {
		common := []Descriptor{
			{ID: "c0", Name: "Date", Type: columns.TypeNumber},
			{ID: "c1", Name: "Note", Type: columns.TypeString},
		}
		assert.False(t, Compatible(common, base))
	})

	t.Run("nullable file column needs a nullable slot", func(t *testing.T) {
		nullable := makeColumns(t, "Date,Note\n2024-01-15,hello\n2024-01-16,")
		common := []Descriptor{
			{ID: "c0", Name: "Date", Type: columns.TypeDate},
			{ID: "c1", Name: "Note", Type: columns.TypeString},
		}
		assert.False(t, Compatible(common, nullable))

		common[1].Nullable = true
		assert.True(t, Compatible(common, nullable))
	})

	t.Run("name mismatch fails", func(t *testing.T) {
		common := []Descriptor{
			{ID: "c0", Name: "When", Type: columns.TypeDate},
			{ID: "c1", Name: "Note", Type: columns.TypeString},
		}
		assert.False(t, Compatible(common, base))
	})
}
