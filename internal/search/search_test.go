package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/history"
	"github.com/rebeliceyang/lazycirc/internal/models"
)

type fakeSearcher struct {
	requests []models.SearchRequest
	entries  []models.Entry
	err      error
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(_ context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.SearchResult{Entries: f.entries, After: req.After, Next: req.After + len(f.entries)}, nil
}

func newHistory(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), history.DefaultFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestService_RunRecordsHistory(t *testing.T) {
	ctx := context.Background()
	store := newHistory(t)
	searcher := &fakeSearcher{entries: []models.Entry{{ID: "a", Title: "The Shining"}}}
	svc := NewService(searcher, store, "main", 20, zap.NewNop())

	tree := &models.ValueFilter{ID: "1", Key: models.FieldGenre, Op: models.OpEqual, Value: "Horror"}
	result, err := svc.Run(ctx, tree, 0)
	require.NoError(t, err)

	assert.Equal(t, `{"query":{"key":"genre","value":"Horror"}}`, result.Query)
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, 20, searcher.requests[0].Size)

	// Later pages are not new searches
	_, err = svc.Run(ctx, tree, 20)
	require.NoError(t, err)

	entries, err := store.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "main", entries[0].Library)
	assert.Equal(t, "fake", entries[0].Backend)
	assert.Equal(t, "genre = Horror", entries[0].Expression)
	assert.Equal(t, 1, entries[0].ResultCount)
	assert.True(t, entries[0].Success)
}

func TestService_RunFailure(t *testing.T) {
	ctx := context.Background()
	store := newHistory(t)
	svc := NewService(&fakeSearcher{err: ErrUnauthorized}, store, "main", 0, nil)

	_, err := svc.Run(ctx, nil, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	entries, err := store.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, ErrUnauthorized.Error(), entries[0].ErrorMessage)
}

func TestService_InvalidTree(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewService(searcher, nil, "main", 10, nil)

	bad := &models.BooleanFilter{ID: "1", Combinator: "xor"}
	_, err := svc.Run(context.Background(), bad, 0)
	assert.Error(t, err)
	assert.Empty(t, searcher.requests, "invalid trees are never sent")
}

func TestStatusError(t *testing.T) {
	err := error(&StatusError{StatusCode: 500, Status: "500 Internal Server Error", URL: "http://x/search"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "search request to http://x/search failed: 500 Internal Server Error", err.Error())
}
