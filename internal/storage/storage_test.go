package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookmerge/internal/reconcile"
)

func ptr[T any](v T) *T { return &v }

func openStore(t *testing.T) *BookStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "bookmerge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestReplaceBooksRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	dune := reconcile.Book{
		BookID:          "9780441013593",
		Title:           ptr("Dune"),
		TitleNormalized: ptr("dune"),
		AuthorPrincipal: ptr("Frank Herbert"),
		Authors:         []string{"Frank Herbert"},
		Publisher:       ptr("Ace"),
		YearPub:         ptr(int32(1990)),
		PubDateISO:      ptr("1990-09-01"),
		LanguageBCP:     ptr("en"),
		ISBN10:          ptr("0441013597"),
		ISBN13:          ptr("9780441013593"),
		Categories:      []string{},
		Price:           ptr(9.99),
		CurrencyISO:     ptr("USD"),
		FuenteGanadora:  "goodreads",
		TSLastUpdate:    "2025-03-01T12:00:00Z",
		ISBN13Valid:     true,
		ValidationFlag:  reconcile.FlagValid,
	}
	sparse := reconcile.Book{
		BookID:         "0123456789abcdef",
		Title:          ptr("Zine"),
		FuenteGanadora: "googlebooks",
		TSLastUpdate:   "2025-03-01T12:00:00Z",
		ValidationFlag: reconcile.FlagValid,
	}

	require.NoError(t, store.ReplaceBooks(ctx, "run-1", []reconcile.Book{dune, sparse}))

	got, ok, err := store.Get(ctx, dune.BookID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Dune", *got.Title)
	assert.Equal(t, int32(1990), *got.YearPub)
	assert.Equal(t, 9.99, *got.Price)
	assert.Equal(t, []string{"Frank Herbert"}, got.Authors)
	assert.Equal(t, []string{}, got.Categories)
	assert.True(t, got.ISBN13Valid)
	assert.False(t, got.UpdatedAt.IsZero())

	got, ok, err = store.Get(ctx, sparse.BookID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got.Publisher)
	assert.Nil(t, got.YearPub)
	assert.Nil(t, got.Price)
	assert.Equal(t, []string{}, got.Authors, "nil lists are stored as empty lists")
	assert.False(t, got.ISBN13Valid)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceBooksReplacesPreviousRun(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	first := []reconcile.Book{
		{BookID: "a", FuenteGanadora: "goodreads", TSLastUpdate: "t", ValidationFlag: "valid"},
		{BookID: "b", FuenteGanadora: "goodreads", TSLastUpdate: "t", ValidationFlag: "valid"},
	}
	require.NoError(t, store.ReplaceBooks(ctx, "run-1", first))

	second := []reconcile.Book{
		{BookID: "c", FuenteGanadora: "googlebooks", TSLastUpdate: "t", ValidationFlag: "valid"},
	}
	require.NoError(t, store.ReplaceBooks(ctx, "run-2", second))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "c", all[0].BookID)
}

func TestReplaceBooksRollsBackOnDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.ReplaceBooks(ctx, "run-1", []reconcile.Book{
		{BookID: "keep", FuenteGanadora: "goodreads", TSLastUpdate: "t", ValidationFlag: "valid"},
	}))

	err := store.ReplaceBooks(ctx, "run-2", []reconcile.Book{
		{BookID: "dup", FuenteGanadora: "goodreads", TSLastUpdate: "t", ValidationFlag: "valid"},
		{BookID: "dup", FuenteGanadora: "goodreads", TSLastUpdate: "t", ValidationFlag: "valid"},
	})
	require.Error(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "keep", all[0].BookID)
}

func TestOpenExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookmerge.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceBooks(ctx, "", []reconcile.Book{
		{BookID: "a", FuenteGanadora: "goodreads", TSLastUpdate: "t", ValidationFlag: "valid"},
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, path, reopened.Path())
}
