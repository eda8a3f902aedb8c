// Package index turns geospatial chunks into searchable documents.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petra-io/petra/internal/engine"
	"github.com/petra-io/petra/internal/geo"
	"github.com/petra-io/petra/internal/metrics"
)

// Chunk is a piece of a geospatial file queued for indexing. Geometry is the
// chunk's raw GeoJSON; Start and End are its byte offsets in the source file.
type Chunk struct {
	ID       string
	Geometry []byte
	Tags     []string
	Path     string
	Start    int64
	End      int64
}

// Service handles chunk indexing, deletion and retagging.
type Service struct {
	mut    Mutator
	logger *zap.Logger
	now    func() time.Time
}

// New creates an index service.
func New(mut Mutator, logger *zap.Logger) *Service {
	return &Service{
		mut:    mut,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the import timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Add indexes a batch of chunks under a freshly generated import identifier.
// Per-chunk indexing failures are reported in the result, not as an error.
func (s *Service) Add(ctx context.Context, chunks []Chunk) (string, *engine.BulkResult, error) {
	importID := uuid.NewString()
	importTime := s.now().UTC().Format(time.RFC3339)

	docs := make([]engine.Document, 0, len(chunks))
	for _, c := range chunks {
		doc, err := buildDocument(c, importID, importTime)
		if err != nil {
			return "", nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		docs = append(docs, doc)
	}

	result, err := s.mut.BulkInsert(ctx, docs)
	if err != nil {
		return "", nil, fmt.Errorf("bulk insert: %w", err)
	}

	metrics.BulkDocumentsTotal.WithLabelValues("index").Add(float64(len(docs)))
	if result.HasErrors() {
		metrics.BulkItemErrorsTotal.WithLabelValues("index").Add(float64(len(result.FailedIDs())))
		s.logger.Warn("chunk indexing partially failed",
			zap.String("import_id", importID),
			zap.String("detail", result.ErrorMessage()))
	}

	return importID, result, nil
}

// Delete removes chunks by identifier. Per-chunk failures are reported in
// the result, not as an error.
func (s *Service) Delete(ctx context.Context, ids []string) (*engine.BulkResult, error) {
	result, err := s.mut.BulkDelete(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("bulk delete: %w", err)
	}

	metrics.BulkDocumentsTotal.WithLabelValues("delete").Add(float64(len(ids)))
	if result.HasErrors() {
		metrics.BulkItemErrorsTotal.WithLabelValues("delete").Add(float64(len(result.FailedIDs())))
		s.logger.Warn("chunk deletion partially failed",
			zap.String("detail", result.ErrorMessage()))
	}

	return result, nil
}

// Retag appends tags to every chunk matched by postFilter. A nil postFilter
// retags the whole index. Tags already present on a chunk are not duplicated.
func (s *Service) Retag(ctx context.Context, postFilter engine.Mapping, tags []string) error {
	if len(tags) == 0 {
		return fmt.Errorf("retag: no tags given")
	}

	script := engine.Mapping{
		"lang": "painless",
		"source": "if (ctx._source.tags == null) { ctx._source.tags = params.tags } " +
			"else { for (t in params.tags) { if (!ctx._source.tags.contains(t)) { ctx._source.tags.add(t) } } }",
		"params": engine.Mapping{"tags": tags},
	}

	if _, err := s.mut.UpdateByQuery(ctx, postFilter, script); err != nil {
		return fmt.Errorf("update by query: %w", err)
	}
	return nil
}

// buildDocument derives the indexable fields of one chunk.
func buildDocument(c Chunk, importID, importTime string) (engine.Document, error) {
	if c.ID == "" {
		return engine.Document{}, fmt.Errorf("missing chunk id")
	}

	bbox, err := geo.Bounds(c.Geometry)
	if err != nil {
		return engine.Document{}, fmt.Errorf("compute bounding box: %w", err)
	}

	fields := engine.Mapping{
		"bbox":       bbox.Envelope(),
		"path":       c.Path,
		"start":      c.Start,
		"end":        c.End,
		"importId":   importID,
		"importTime": importTime,
	}
	if len(c.Tags) > 0 {
		fields["tags"] = c.Tags
	}

	return engine.Document{ID: c.ID, Fields: fields}, nil
}
