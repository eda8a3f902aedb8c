package store

import (
	"context"
	"time"

	"github.com/petra-io/petra/internal/engine"
)

// Searcher answers chunk queries against the engine.
type Searcher interface {
	Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error)
	Count(ctx context.Context, query engine.Mapping) (int64, error)
	BeginScroll(ctx context.Context, req *engine.SearchRequest, timeout time.Duration) (*engine.SearchResult, error)
	ContinueScroll(ctx context.Context, scroll engine.ScrollState, timeout time.Duration) (*engine.SearchResult, error)
}

// Deleter removes chunks in bulk.
type Deleter interface {
	BulkDelete(ctx context.Context, ids []string) (*engine.BulkResult, error)
}
