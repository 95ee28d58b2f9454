package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/mapping"
	"github.com/Athenodoros/TopHat-sub000/pkg/config"
)

func TestSessionTransitions(t *testing.T) {
	repo, _ := testRepo(nil, nil)
	svc := New(repo, config.DefaultImport(), nil)

	base := Session{}.WithFiles([]StatementFile{
		{ID: "f1", Name: "jan.csv", Text: "Date,Amount\n2024-01-05,-20.00\n"},
	}).WithOptions(columns.ParseOptions{Header: true})

	analyzed, err := svc.Analyze(context.Background(), base)
	require.NoError(t, err)
	require.True(t, analyzed.Ready())

	t.Run("transitions return new values", func(t *testing.T) {
		next := analyzed.WithOptions(columns.ParseOptions{Header: false})
		assert.True(t, analyzed.Ready(), "original session untouched")
		assert.False(t, next.Ready(), "derived state dropped")
		assert.Nil(t, next.Columns)
	})

	t.Run("changing files drops derived state", func(t *testing.T) {
		next := analyzed.WithFiles(nil)
		assert.Nil(t, next.Schema.Common)
		assert.Equal(t, mapping.Mapping{}, next.Mapping)
	})

	t.Run("editing the mapping keeps parse state", func(t *testing.T) {
		next := analyzed.WithMapping(analyzed.Mapping.WithReference(""))
		assert.NotNil(t, next.Columns)
		assert.NotNil(t, next.Schema.Common)
	})
}
