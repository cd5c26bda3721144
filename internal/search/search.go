// Package search runs advanced searches against a circulation manager or a
// catalog mirror and records them in the search history.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/history"
	"github.com/rebeliceyang/lazycirc/internal/models"
)

// ErrUnauthorized is returned when the server rejects the admin credentials
var ErrUnauthorized = errors.New("unauthorized: check the admin username and password")

// StatusError is returned for any other non-2xx response
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("search request to %s failed: %s: %s", e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("search request to %s failed: %s", e.URL, e.Status)
}

// Searcher fetches one page of results for a query tree
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
	Name() string
}

// Recorder stores submitted searches
type Recorder interface {
	Add(ctx context.Context, entry history.Entry) (int64, error)
}

// Service submits searches and records each one
type Service struct {
	searcher Searcher
	recorder Recorder
	library  string
	pageSize int
	logger   *zap.Logger
}

// NewService creates a search service. recorder may be nil to disable
// history.
func NewService(searcher Searcher, recorder Recorder, library string, pageSize int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Service{
		searcher: searcher,
		recorder: recorder,
		library:  library,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Backend returns the name of the underlying searcher
func (s *Service) Backend() string {
	return s.searcher.Name()
}

// Run fetches the page of results starting at after
func (s *Service) Run(ctx context.Context, tree models.QueryNode, after int) (*models.SearchResult, error) {
	param, err := filter.QueryParam(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query: %w", err)
	}

	start := time.Now()
	result, err := s.searcher.Search(ctx, models.SearchRequest{Query: tree, Size: s.pageSize, After: after})
	elapsed := time.Since(start)

	entry := history.Entry{
		Library:    s.library,
		Backend:    s.searcher.Name(),
		QueryParam: param,
		Expression: filter.Format(tree),
		Duration:   elapsed,
		Success:    err == nil,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
		s.logger.Warn("search failed",
			zap.String("backend", s.searcher.Name()),
			zap.String("q", param),
			zap.Error(err))
	} else {
		result.Query = param
		result.Duration = elapsed
		entry.ResultCount = len(result.Entries)
		s.logger.Info("search completed",
			zap.String("backend", s.searcher.Name()),
			zap.String("q", param),
			zap.Int("results", len(result.Entries)),
			zap.Duration("duration", elapsed))
	}

	// Only the first page is a new search
	if s.recorder != nil && after == 0 {
		if _, recErr := s.recorder.Add(ctx, entry); recErr != nil {
			s.logger.Warn("failed to record search history", zap.Error(recErr))
		}
	}

	return result, err
}
