package opds

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/search"
)

const sampleFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:dcterms="http://purl.org/dc/terms/">
  <id>http://cm.example.org/main/search</id>
  <title>Search</title>
  <link rel="next" href="http://cm.example.org/main/search?q=x&amp;size=2&amp;after=2"/>
  <entry>
    <id>urn:isbn:9780385121675</id>
    <title>The Shining</title>
    <author><name>Stephen King</name></author>
    <updated>2024-02-01T10:00:00Z</updated>
    <dcterms:publisher>Doubleday</dcterms:publisher>
    <dcterms:issued>1977-01-28</dcterms:issued>
    <dcterms:language>eng</dcterms:language>
    <category scheme="http://librarysimplified.org/terms/genres/Simplified/" term="http://librarysimplified.org/terms/genres/Simplified/Horror" label="Horror"/>
    <category scheme="http://librarysimplified.org/terms/fiction/" term="http://librarysimplified.org/terms/fiction/Fiction" label="Fiction"/>
    <link rel="http://opds-spec.org/acquisition" href="http://cm.example.org/borrow/1" type="application/epub+zip"/>
  </entry>
  <entry>
    <id>urn:isbn:9780670813025</id>
    <title>It</title>
    <author><name>Stephen King</name></author>
    <updated>2024-02-02T10:00:00Z</updated>
  </entry>
</feed>`

func horrorQuery() models.QueryNode {
	return &models.ValueFilter{ID: "1", Key: models.FieldGenre, Op: models.OpEqual, Value: "Horror"}
}

func TestClient_Search(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/main/search", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("size"))
		assert.Empty(t, r.URL.Query().Get("after"))

		var q map[string]any
		assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("q")), &q))
		assert.Equal(t, map[string]any{"query": map[string]any{"key": "genre", "value": "Horror"}}, q)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/", Library: "main", Username: "admin", Password: "secret", CacheSize: 8}, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Search(context.Background(), models.SearchRequest{Query: horrorQuery(), Size: 2})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	shining := result.Entries[0]
	assert.Equal(t, "The Shining", shining.Title)
	assert.Equal(t, []string{"Stephen King"}, shining.Authors)
	assert.Equal(t, "Doubleday", shining.Publisher)
	assert.Equal(t, "1977-01-28", shining.Published)
	assert.Equal(t, "eng", shining.Language)
	assert.Equal(t, []string{"Horror"}, shining.CategoryTerms(models.SchemeGenre))
	assert.Equal(t, 2024, shining.Updated.Year())
	require.Len(t, shining.Links, 1)
	assert.Equal(t, "application/epub+zip", shining.Links[0].Type)

	assert.True(t, result.HasMore)
	assert.Equal(t, 2, result.Next)
	assert.Equal(t, Name, result.Backend)

	// Second identical request is served from the cache
	again, err := c.Search(context.Background(), models.SearchRequest{Query: horrorQuery(), Size: 2})
	require.NoError(t, err)
	assert.Len(t, again.Entries, 2)
	assert.Equal(t, int32(1), hits.Load())

	// Callers own what they get back; edits never reach the cached page
	again.Entries[0].Title = "changed"
	_ = append(result.Entries[:1], models.Entry{Title: "appended"})
	cached, err := c.Search(context.Background(), models.SearchRequest{Query: horrorQuery(), Size: 2})
	require.NoError(t, err)
	assert.Equal(t, "The Shining", cached.Entries[0].Title)
	assert.NotEqual(t, "appended", cached.Entries[1].Title)

	c.Purge()
	_, err = c.Search(context.Background(), models.SearchRequest{Query: horrorQuery(), Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("after") {
		case "":
			w.WriteHeader(http.StatusUnauthorized)
		case "1":
			http.Error(w, "bad query", http.StatusBadRequest)
		default:
			_, _ = w.Write([]byte("<feed><entry>"))
		}
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Library: "main"}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Search(ctx, models.SearchRequest{Query: horrorQuery()})
	assert.ErrorIs(t, err, search.ErrUnauthorized)

	_, err = c.Search(ctx, models.SearchRequest{Query: horrorQuery(), After: 1})
	var statusErr *search.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "bad query", statusErr.Body)

	_, err = c.Search(ctx, models.SearchRequest{Query: horrorQuery(), After: 2})
	assert.Error(t, err, "truncated feed")
}

func TestClient_SearchURL(t *testing.T) {
	c, err := New(Config{BaseURL: "https://cm.example.org", Library: "main branch"}, nil)
	require.NoError(t, err)

	u, err := c.SearchURL(models.SearchRequest{Query: horrorQuery(), Size: 25, After: 50})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(u, "https://cm.example.org/main%20branch/search?"), u)
	assert.Contains(t, u, "size=25")
	assert.Contains(t, u, "after=50")

	_, err = New(Config{}, nil)
	assert.Error(t, err)
}

func TestParseFeed_NoNextLink(t *testing.T) {
	page, err := ParseFeed(strings.NewReader(`<feed xmlns="http://www.w3.org/2005/Atom"><entry><id>a</id><title>A</title></entry></feed>`))
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	assert.Len(t, page.Entries, 1)
}
