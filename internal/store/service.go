// Package store exposes query and bulk-removal operations over the chunk
// index.
package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/petra-io/petra/internal/engine"
	"github.com/petra-io/petra/internal/metrics"
)

// Service handles chunk queries and query-scoped deletion.
type Service struct {
	eng           Searcher
	del           Deleter
	logger        *zap.Logger
	pageSize      int
	scrollTimeout time.Duration
}

// New creates a store service.
func New(eng Searcher, del Deleter, logger *zap.Logger) *Service {
	return &Service{
		eng:           eng,
		del:           del,
		logger:        logger,
		pageSize:      100,
		scrollTimeout: time.Minute,
	}
}

// WithPageSize configures how many hits each scroll page requests.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// WithScrollTimeout configures how long the engine keeps a cursor alive
// between page fetches.
func (s *Service) WithScrollTimeout(d time.Duration) *Service {
	if d > 0 {
		s.scrollTimeout = d
	}
	return s
}

// Search runs a one-shot query. The result is bounded by the request
// parameters and may not contain the full match set.
func (s *Service) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error) {
	result, err := s.eng.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return result, nil
}

// Count returns the number of chunks matching query. A nil query counts the
// whole index.
func (s *Service) Count(ctx context.Context, query engine.Mapping) (int64, error) {
	n, err := s.eng.Count(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// EachPage streams every match of req through fn, one scroll page at a time.
// Iteration stops when the cursor is exhausted, when fn returns an error, or
// when ctx is done.
func (s *Service) EachPage(ctx context.Context, req *engine.SearchRequest, fn func(*engine.SearchResult) error) error {
	scoped := *req
	scoped.Parameters = withSize(req.Parameters, s.pageSize)

	page, err := s.eng.BeginScroll(ctx, &scoped, s.scrollTimeout)
	if err != nil {
		return fmt.Errorf("begin scroll: %w", err)
	}

	for len(page.Hits) > 0 {
		metrics.ScrollPagesTotal.Inc()
		if err := fn(page); err != nil {
			return err
		}
		if page.Scroll.Empty() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err = s.eng.ContinueScroll(ctx, page.Scroll, s.scrollTimeout)
		if err != nil {
			return fmt.Errorf("continue scroll: %w", err)
		}
	}
	return nil
}

// DeleteByQuery removes every chunk matching req and returns how many were
// deleted. Per-chunk delete failures are logged and subtracted from the
// count, not raised as errors.
func (s *Service) DeleteByQuery(ctx context.Context, req *engine.SearchRequest) (int64, error) {
	var deleted int64

	err := s.EachPage(ctx, req, func(page *engine.SearchResult) error {
		ids := make([]string, len(page.Hits))
		for i, h := range page.Hits {
			ids[i] = h.ID
		}

		result, err := s.del.BulkDelete(ctx, ids)
		if err != nil {
			return fmt.Errorf("bulk delete: %w", err)
		}

		deleted += int64(len(ids))
		if result.HasErrors() {
			failed := result.FailedIDs()
			deleted -= int64(len(failed))
			s.logger.Warn("delete by query partially failed",
				zap.Int("failed", len(failed)),
				zap.String("detail", result.ErrorMessage()))
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}
	return deleted, nil
}

// withSize merges the page size into request parameters without mutating the
// caller's map. An explicit caller size wins.
func withSize(params engine.Mapping, size int) engine.Mapping {
	merged := engine.Mapping{"size": size}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}
