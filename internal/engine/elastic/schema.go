package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/petra-io/petra/internal/engine"
)

// indexAlreadyExists is the engine's rejection type for a creation race.
const indexAlreadyExists = "resource_already_exists_exception"

// IndexExists reports whether the index is present.
func (c *Client) IndexExists(ctx context.Context) (bool, error) {
	res, err := c.do(ctx, engine.OpIndexExists, esapi.IndicesExistsRequest{
		Index: []string{c.index},
	})
	if err != nil {
		return false, err
	}
	defer closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, engineError(engine.OpIndexExists, res)
	}
}

// CreateIndex creates the index, optionally with storage settings. The
// returned boolean is the engine's acknowledgment, not confirmation of full
// replication.
func (c *Client) CreateIndex(ctx context.Context, settings engine.Mapping) (bool, error) {
	var rd io.Reader
	if settings != nil {
		var err error
		rd, err = encodeBody(engine.Mapping{"settings": settings})
		if err != nil {
			return false, err
		}
	}

	res, err := c.do(ctx, engine.OpCreateIndex, esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  rd,
	})
	if err != nil {
		return false, err
	}
	defer closeBody(res)

	if res.IsError() {
		return false, engineError(engine.OpCreateIndex, res)
	}
	return decodeAcknowledged(res.Body, engine.OpCreateIndex)
}

// EnsureIndex creates the index if it does not exist yet. Idempotent: a
// present index is success, and losing a creation race to another actor is
// tolerated, not reported.
func (c *Client) EnsureIndex(ctx context.Context) error {
	exists, err := c.IndexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := c.CreateIndex(ctx, nil); err != nil {
		var ee *engine.EngineError
		if errors.As(err, &ee) && ee.Type == indexAlreadyExists {
			return nil
		}
		return err
	}
	return nil
}

// PutMapping sets the index mapping.
func (c *Client) PutMapping(ctx context.Context, mapping engine.Mapping) (bool, error) {
	rd, err := encodeBody(mapping)
	if err != nil {
		return false, err
	}

	res, err := c.do(ctx, engine.OpPutMapping, esapi.IndicesPutMappingRequest{
		Index: []string{c.index},
		Body:  rd,
	})
	if err != nil {
		return false, err
	}
	defer closeBody(res)

	if res.IsError() {
		return false, engineError(engine.OpPutMapping, res)
	}
	return decodeAcknowledged(res.Body, engine.OpPutMapping)
}

// GetMapping returns the index mapping. A fresh index without a mapping
// yields an empty Mapping.
func (c *Client) GetMapping(ctx context.Context) (engine.Mapping, error) {
	res, err := c.do(ctx, engine.OpGetMapping, esapi.IndicesGetMappingRequest{
		Index: []string{c.index},
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, engineError(engine.OpGetMapping, res)
	}

	// response is keyed by index name: {"<index>": {"mappings": {...}}}
	var wire map[string]struct {
		Mappings engine.Mapping `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode mapping response: %w", err)
	}
	for _, entry := range wire {
		return entry.Mappings, nil
	}
	return engine.Mapping{}, nil
}

// GetFieldMapping returns the mapping scoped to a single field path.
func (c *Client) GetFieldMapping(ctx context.Context, field string) (engine.Mapping, error) {
	if field == "" {
		return nil, fmt.Errorf("get field mapping: field is required")
	}

	res, err := c.do(ctx, engine.OpGetFieldMapping, esapi.IndicesGetFieldMappingRequest{
		Index:  []string{c.index},
		Fields: []string{field},
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, engineError(engine.OpGetFieldMapping, res)
	}

	var out engine.Mapping
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode field mapping response: %w", err)
	}
	return out, nil
}

// EnsureMapping puts the mapping if none is present yet. Idempotent: an
// existing mapping is accepted as-is without diffing; a conflicting one is
// left for the engine to reject at write time.
func (c *Client) EnsureMapping(ctx context.Context, mapping engine.Mapping) error {
	current, err := c.GetMapping(ctx)
	if err != nil {
		return err
	}
	if len(current) > 0 {
		return nil
	}

	if _, err := c.PutMapping(ctx, mapping); err != nil {
		return err
	}
	return nil
}

func decodeAcknowledged(body io.Reader, op string) (bool, error) {
	var wire struct {
		Acknowledged bool `json:"acknowledged"`
	}
	if err := json.NewDecoder(body).Decode(&wire); err != nil {
		return false, fmt.Errorf("decode %s response: %w", op, err)
	}
	return wire.Acknowledged, nil
}
