// Package index refines a page of search results locally with a bleve
// in-memory index, so the query tree can be narrowed without another
// round trip to the server.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

// entryDocument is the structure stored in the bleve index. Text values are
// lowercased so term and regexp queries are case-insensitive.
type entryDocument struct {
	Title          string   `json:"title"`
	Author         []string `json:"author,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
	Published      float64  `json:"published,omitempty"`
	Language       string   `json:"language,omitempty"`
	Genre          []string `json:"genre,omitempty"`
	Audience       []string `json:"audience,omitempty"`
	Classification []string `json:"classification,omitempty"`
	DataSource     []string `json:"data_source,omitempty"`
	Fiction        string   `json:"fiction,omitempty"`
}

// Index wraps a bleve in-memory index over one result page
type Index struct {
	index   bleve.Index
	entries map[string]models.Entry
	order   []string
}

// New creates an empty index
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{index: idx, entries: make(map[string]models.Entry)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()
	numeric := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	for _, field := range []string{"title", "author", "publisher", "language", "genre", "audience", "classification", "data_source", "fiction"} {
		doc.AddFieldMappingsAt(field, keyword)
	}
	doc.AddFieldMappingsAt("published", numeric)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = doc
	indexMapping.IndexDynamic = false
	indexMapping.StoreDynamic = false
	return indexMapping
}

// Add indexes entries. Entries without an id are skipped.
func (i *Index) Add(entries []models.Entry) error {
	batch := i.index.NewBatch()
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if err := batch.Index(e.ID, newDocument(e)); err != nil {
			return fmt.Errorf("failed to index %s: %w", e.ID, err)
		}
		if _, seen := i.entries[e.ID]; !seen {
			i.order = append(i.order, e.ID)
		}
		i.entries[e.ID] = e
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index entries: %w", err)
	}
	return nil
}

// Len returns the number of indexed entries
func (i *Index) Len() int {
	return len(i.order)
}

// Refine returns the indexed entries matching tree, in the order they were
// added. A nil tree matches everything.
func (i *Index) Refine(ctx context.Context, tree models.QueryNode) ([]models.Entry, error) {
	if len(i.order) == 0 {
		return nil, nil
	}
	q, err := ToBleveQuery(tree)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(q, len(i.order), 0, false)
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	matched := make(map[string]bool, len(res.Hits))
	for _, hit := range res.Hits {
		matched[hit.ID] = true
	}
	out := make([]models.Entry, 0, len(matched))
	for _, id := range i.order {
		if matched[id] {
			out = append(out, i.entries[id])
		}
	}
	return out, nil
}

// Close closes the index
func (i *Index) Close() error {
	return i.index.Close()
}

func newDocument(e models.Entry) entryDocument {
	doc := entryDocument{
		Title:          lower(e.Title),
		Author:         lowerAll(e.Authors),
		Publisher:      lower(e.Publisher),
		Language:       lower(e.Language),
		Genre:          lowerAll(e.CategoryTerms(models.SchemeGenre)),
		Audience:       lowerAll(e.CategoryTerms(models.SchemeAudience)),
		Classification: lowerAll(classifications(e)),
		DataSource:     lowerAll(e.CategoryTerms(models.SchemeDataSource)),
	}
	if p, ok := parsePeriod(e.Published); ok {
		doc.Published = p.start
	}
	if terms := e.CategoryTerms(models.SchemeFiction); len(terms) > 0 {
		doc.Fiction = flagTerm(!strings.HasSuffix(strings.ToLower(terms[0]), "nonfiction"))
	}
	return doc
}

// classifications collects categories outside the well-known schemes
func classifications(e models.Entry) []string {
	var out []string
	for _, c := range e.Categories {
		switch c.Scheme {
		case models.SchemeGenre, models.SchemeAudience, models.SchemeFiction, models.SchemeDataSource:
			continue
		}
		out = append(out, c.Term)
	}
	return out
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, lower(v))
	}
	return out
}
