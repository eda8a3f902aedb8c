// Package engine defines the gateway contract to the backing document-search
// engine: bulk mutation, one-shot and scrolling search, counting, and schema
// lifecycle. The protocol rules live here (parameter nullability, per-item
// result ordering, opaque cursor handling, idempotent ensure semantics)
// while transport detail lives in the driver packages underneath.
//
// The gateway performs no retries and holds no state of its own beyond the
// driver's connection pool. Concurrent calls are safe except for calls
// sharing one ScrollState, which the caller must serialize.
package engine

import (
	"context"
	"encoding/json"
	"time"
)

// Mapping is a JSON-like object passed through to the engine uninterpreted.
type Mapping = map[string]any

// Document pairs a caller-assigned identifier with its field mapping.
// The gateway never generates identifiers.
type Document struct {
	ID     string
	Fields Mapping
}

// ScrollState is an opaque server-issued cursor token. It is forward-only:
// each continuation consumes the previous token and yields a new one, or
// none once the cursor is exhausted. Never inspect or construct its content.
type ScrollState string

// Empty reports whether no further continuation is possible.
func (s ScrollState) Empty() bool { return s == "" }

// SearchRequest carries the independently optional predicate parts of a
// search or scroll call. Parameters holds engine options (size, sort, ...)
// merged verbatim into the request body.
type SearchRequest struct {
	Query        Mapping
	PostFilter   Mapping
	Aggregations Mapping
	Parameters   Mapping
}

// Validate enforces the predicate rule: at least one of Query and PostFilter
// must be present. Supplying both means both must match.
func (r *SearchRequest) Validate() error {
	if r == nil || (r.Query == nil && r.PostFilter == nil) {
		return ErrMissingPredicate
	}
	return nil
}

// Hit is a single matched document.
type Hit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

// SearchResult is the parsed outcome of a search, count-free scroll page, or
// scroll continuation. Scroll is zero for one-shot searches and for the
// terminal page of an exhausted cursor.
type SearchResult struct {
	Took         int
	TimedOut     bool
	Total        int64
	Hits         []Hit
	Aggregations map[string]json.RawMessage
	Scroll       ScrollState
}

// Mutator applies bulk document changes. Bulk operations return a result
// value even when some items failed; per-item failure never surfaces as an
// error (see BulkResult).
type Mutator interface {
	BulkInsert(ctx context.Context, docs []Document) (*BulkResult, error)
	BulkDelete(ctx context.Context, ids []string) (*BulkResult, error)
	UpdateByQuery(ctx context.Context, postFilter, script Mapping) (Mapping, error)
}

// Searcher answers read traffic. Search is bounded by its parameters and may
// not return the full match set; callers needing completeness scroll.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	Count(ctx context.Context, query Mapping) (int64, error)
	BeginScroll(ctx context.Context, req *SearchRequest, timeout time.Duration) (*SearchResult, error)
	ContinueScroll(ctx context.Context, scroll ScrollState, timeout time.Duration) (*SearchResult, error)
}

// SchemaManager controls index and mapping lifecycle. The Ensure operations
// are idempotent and tolerate concurrent creation by other actors.
type SchemaManager interface {
	IndexExists(ctx context.Context) (bool, error)
	CreateIndex(ctx context.Context, settings Mapping) (bool, error)
	EnsureIndex(ctx context.Context) error
	PutMapping(ctx context.Context, mapping Mapping) (bool, error)
	GetMapping(ctx context.Context) (Mapping, error)
	GetFieldMapping(ctx context.Context, field string) (Mapping, error)
	EnsureMapping(ctx context.Context, mapping Mapping) error
}

// Pinger probes engine liveness. IsRunning never returns an error: transport
// failure reads as false.
type Pinger interface {
	IsRunning(ctx context.Context) bool
}

// Client is the full gateway facade combining all capabilities. Consumers
// should depend on the narrow sub-interfaces instead.
type Client interface {
	Mutator
	Searcher
	SchemaManager
	Pinger
	Close()
}
