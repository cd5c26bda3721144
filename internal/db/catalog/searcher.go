package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
)

// Name identifies the catalog backend in history and the status bar
const Name = "catalog"

// listSeparator joins multi-valued columns such as author and genre
const listSeparator = "; "

// Querier is the part of pgxpool.Pool the searcher needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Searcher runs query trees against the works table
type Searcher struct {
	db      Querier
	table   string
	builder *filter.Builder
	logger  *zap.Logger
}

// NewSearcher creates a searcher over table
func NewSearcher(db Querier, table string, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == "" {
		table = "works"
	}
	return &Searcher{db: db, table: table, builder: filter.NewBuilder(), logger: logger}
}

// Name implements search.Searcher
func (s *Searcher) Name() string {
	return Name
}

// workRow is one row of the works table. Multi-valued columns are stored
// joined with "; ", dates as ISO text.
type workRow struct {
	ID             string `db:"id"`
	Title          string `db:"title"`
	Author         string `db:"author"`
	Publisher      string `db:"publisher"`
	Published      string `db:"published"`
	Language       string `db:"language"`
	Summary        string `db:"summary"`
	Genre          string `db:"genre"`
	Audience       string `db:"audience"`
	Classification string `db:"classification"`
	DataSource     string `db:"data_source"`
	Fiction        *bool  `db:"fiction"`
}

// Search implements search.Searcher. One extra row is fetched to learn
// whether another page exists.
func (s *Searcher) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	sql, args, err := s.BuildQuery(req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("catalog query", zap.String("sql", sql), zap.Int("args", len(args)))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog query failed: %w", err)
	}
	works, err := pgx.CollectRows(rows, pgx.RowToStructByName[workRow])
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	size := pageSize(req.Size)
	result := &models.SearchResult{After: req.After, Backend: Name}
	if len(works) > size {
		works = works[:size]
		result.HasMore = true
		result.Next = req.After + size
	}
	result.Entries = make([]models.Entry, 0, len(works))
	for _, w := range works {
		result.Entries = append(result.Entries, w.entry())
	}
	return result, nil
}

// BuildQuery compiles a search request into SQL and its arguments
func (s *Searcher) BuildQuery(req models.SearchRequest) (string, []any, error) {
	where, args, err := s.builder.BuildWhere(req.Query)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build catalog query: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, title,
	COALESCE(author, '') AS author,
	COALESCE(publisher, '') AS publisher,
	COALESCE(published, '') AS published,
	COALESCE(language, '') AS language,
	COALESCE(summary, '') AS summary,
	COALESCE(genre, '') AS genre,
	COALESCE(audience, '') AS audience,
	COALESCE(classification, '') AS classification,
	COALESCE(data_source, '') AS data_source,
	fiction
FROM `)
	sb.WriteString(quoteTable(s.table))
	if where != "" {
		sb.WriteString("\n")
		sb.WriteString(where)
	}
	n := len(args)
	fmt.Fprintf(&sb, "\nORDER BY title, id\nLIMIT $%d OFFSET $%d", n+1, n+2)

	after := req.After
	if after < 0 {
		after = 0
	}
	args = append(args, pageSize(req.Size)+1, after)
	return sb.String(), args, nil
}

func pageSize(size int) int {
	if size <= 0 {
		return 50
	}
	return size
}

// quoteTable quotes a possibly schema-qualified table name
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func (w workRow) entry() models.Entry {
	e := models.Entry{
		ID:        w.ID,
		Title:     w.Title,
		Authors:   splitList(w.Author),
		Publisher: w.Publisher,
		Published: w.Published,
		Language:  w.Language,
		Summary:   w.Summary,
	}
	add := func(scheme, value string) {
		for _, v := range splitList(value) {
			e.Categories = append(e.Categories, models.Category{Scheme: scheme, Term: scheme + v, Label: v})
		}
	}
	add(models.SchemeGenre, w.Genre)
	add(models.SchemeAudience, w.Audience)
	add(models.SchemeDataSource, w.DataSource)
	for _, v := range splitList(w.Classification) {
		e.Categories = append(e.Categories, models.Category{Term: v, Label: v})
	}
	if w.Fiction != nil {
		label := "Nonfiction"
		if *w.Fiction {
			label = "Fiction"
		}
		e.Categories = append(e.Categories, models.Category{Scheme: models.SchemeFiction, Term: models.SchemeFiction + label, Label: label})
	}
	return e
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
