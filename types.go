package petra

import (
	"github.com/petra-io/petra/internal/engine"
	"github.com/petra-io/petra/internal/index"
)

// Chunk is a piece of a geospatial file queued for indexing.
type Chunk = index.Chunk

// Mapping is a JSON-like object passed through to the engine uninterpreted.
type Mapping = engine.Mapping

// SearchRequest carries the search predicate parts. At least one of Query
// and PostFilter must be set.
type SearchRequest = engine.SearchRequest

// SearchResult is one page of matches.
type SearchResult = engine.SearchResult

// Hit is a single matched chunk.
type Hit = engine.Hit

// BulkResult reports per-chunk outcomes of an import or delete.
type BulkResult = engine.BulkResult

// ErrMissingPredicate is returned when a search request carries neither a
// query nor a post filter.
var ErrMissingPredicate = engine.ErrMissingPredicate
