package index

import (
	"context"

	"github.com/petra-io/petra/internal/engine"
)

// Mutator applies bulk document changes to the chunk index.
type Mutator interface {
	BulkInsert(ctx context.Context, docs []engine.Document) (*engine.BulkResult, error)
	BulkDelete(ctx context.Context, ids []string) (*engine.BulkResult, error)
	UpdateByQuery(ctx context.Context, postFilter, script engine.Mapping) (engine.Mapping, error)
}
