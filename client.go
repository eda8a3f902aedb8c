// Package petra is the SDK entry point for the chunk store: importing
// geospatial chunks, querying them, and removing them again.
package petra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/petra-io/petra/internal/engine"
	"github.com/petra-io/petra/internal/engine/elastic"
	"github.com/petra-io/petra/internal/index"
	"github.com/petra-io/petra/internal/schema"
	"github.com/petra-io/petra/internal/store"
)

const (
	defaultIndex            = "chunks"
	defaultReadinessTimeout = 10 * time.Second
)

// Client is the petra SDK entry point.
type Client struct {
	engine engine.Client
	store  *store.Service
	index  *index.Service
}

// ImportResult reports the outcome of one Import call.
type ImportResult struct {
	ImportID string
	Indexed  int
	Failed   []string
}

// New creates a Client and connects to the engine.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		index:            defaultIndex,
		logger:           zap.NewNop(),
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	eng, err := createEngine(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := eng.WaitForRunning(ctx, cfg.readinessTimeout); err != nil {
		eng.Close()
		return nil, fmt.Errorf("petra: engine not ready: %w", err)
	}

	if !cfg.skipSetup {
		if err := schema.Setup(ctx, eng, cfg.logger); err != nil {
			eng.Close()
			return nil, fmt.Errorf("petra: provision index: %w", err)
		}
	}

	storeSvc := store.New(eng, eng, cfg.logger)
	if cfg.pageSize > 0 {
		storeSvc = storeSvc.WithPageSize(cfg.pageSize)
	}
	if cfg.scrollTimeout > 0 {
		storeSvc = storeSvc.WithScrollTimeout(cfg.scrollTimeout)
	}

	return &Client{
		engine: eng,
		store:  storeSvc,
		index:  index.New(eng, cfg.logger),
	}, nil
}

func createEngine(cfg *clientConfig) (*elastic.Client, error) {
	if cfg.transport != nil {
		return elastic.NewClientWithTransport(cfg.transport, cfg.index), nil
	}

	if len(cfg.addresses) == 0 {
		return nil, errors.New("petra: engine address required (use WithAddresses)")
	}
	eng, err := elastic.NewClient(elastic.Config{
		Addresses: cfg.addresses,
		Username:  cfg.username,
		Password:  cfg.password,
		Index:     cfg.index,
	})
	if err != nil {
		return nil, fmt.Errorf("petra: create engine client: %w", err)
	}
	return eng, nil
}

// Import indexes a batch of chunks under one import identifier. Chunks the
// engine rejected are listed in the result, not raised as an error.
func (c *Client) Import(ctx context.Context, chunks []Chunk) (ImportResult, error) {
	importID, result, err := c.index.Add(ctx, chunks)
	if err != nil {
		return ImportResult{}, err
	}

	failed := result.FailedIDs()
	return ImportResult{
		ImportID: importID,
		Indexed:  len(chunks) - len(failed),
		Failed:   failed,
	}, nil
}

// Delete removes chunks by identifier and returns the identifiers the engine
// failed to delete.
func (c *Client) Delete(ctx context.Context, ids []string) ([]string, error) {
	result, err := c.index.Delete(ctx, ids)
	if err != nil {
		return nil, err
	}
	return result.FailedIDs(), nil
}

// DeleteMatching removes every chunk matched by req and returns how many
// were deleted.
func (c *Client) DeleteMatching(ctx context.Context, req *SearchRequest) (int64, error) {
	return c.store.DeleteByQuery(ctx, req)
}

// Search runs a one-shot query. The result is bounded by the request
// parameters; use EachPage to walk the full match set.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	return c.store.Search(ctx, req)
}

// Count returns the number of chunks matching query. A nil query counts the
// whole index.
func (c *Client) Count(ctx context.Context, query Mapping) (int64, error) {
	return c.store.Count(ctx, query)
}

// EachPage streams every match of req through fn, one page at a time.
func (c *Client) EachPage(ctx context.Context, req *SearchRequest, fn func(*SearchResult) error) error {
	return c.store.EachPage(ctx, req, fn)
}

// Retag appends tags to every chunk matched by postFilter. A nil postFilter
// retags the whole index.
func (c *Client) Retag(ctx context.Context, postFilter Mapping, tags []string) error {
	return c.index.Retag(ctx, postFilter, tags)
}

// IsRunning probes engine liveness. Transport failure reads as false.
func (c *Client) IsRunning(ctx context.Context) bool {
	return c.engine.IsRunning(ctx)
}

// Close releases the engine connection.
func (c *Client) Close() {
	c.engine.Close()
}
