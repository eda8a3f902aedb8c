package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/petra-io/petra/internal/engine"
)

type bulkMeta struct {
	ID string `json:"_id"`
}

type bulkAction struct {
	Index  *bulkMeta `json:"index,omitempty"`
	Delete *bulkMeta `json:"delete,omitempty"`
}

// BulkInsert indexes the given documents in one bulk request. The result
// correlates one item per document in submission order; per-item failures
// never surface as an error; callers inspect the result.
func (c *Client) BulkInsert(ctx context.Context, docs []engine.Document) (*engine.BulkResult, error) {
	if len(docs) == 0 {
		return &engine.BulkResult{}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("bulk insert: document without id")
		}
		if err := enc.Encode(bulkAction{Index: &bulkMeta{ID: d.ID}}); err != nil {
			return nil, fmt.Errorf("encode bulk action for %s: %w", d.ID, err)
		}
		fields := d.Fields
		if fields == nil {
			fields = engine.Mapping{}
		}
		if err := enc.Encode(fields); err != nil {
			return nil, fmt.Errorf("encode document %s: %w", d.ID, err)
		}
	}

	return c.bulk(ctx, &buf)
}

// BulkDelete removes the documents with the given IDs in one bulk request,
// under the same per-item correlation contract as BulkInsert.
func (c *Client) BulkDelete(ctx context.Context, ids []string) (*engine.BulkResult, error) {
	if len(ids) == 0 {
		return &engine.BulkResult{}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("bulk delete: empty id")
		}
		if err := enc.Encode(bulkAction{Delete: &bulkMeta{ID: id}}); err != nil {
			return nil, fmt.Errorf("encode bulk action for %s: %w", id, err)
		}
	}

	return c.bulk(ctx, &buf)
}

func (c *Client) bulk(ctx context.Context, body io.Reader) (*engine.BulkResult, error) {
	res, err := c.do(ctx, engine.OpBulk, esapi.BulkRequest{Index: c.index, Body: body})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, engineError(engine.OpBulk, res)
	}
	return decodeBulkResult(res.Body)
}

// UpdateByQuery applies the update script to every document matched by
// postFilter, or to all documents when postFilter is nil. Returns the raw
// engine response.
func (c *Client) UpdateByQuery(ctx context.Context, postFilter, script engine.Mapping) (engine.Mapping, error) {
	body := engine.Mapping{"script": script}
	if postFilter != nil {
		body["query"] = postFilter
	}
	rd, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	res, err := c.do(ctx, engine.OpUpdateByQuery, esapi.UpdateByQueryRequest{
		Index: []string{c.index},
		Body:  rd,
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, engineError(engine.OpUpdateByQuery, res)
	}

	var out engine.Mapping
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode update_by_query response: %w", err)
	}
	return out, nil
}

func decodeBulkResult(body io.Reader) (*engine.BulkResult, error) {
	var wire struct {
		Took   int  `json:"took"`
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	out := &engine.BulkResult{
		Took:   wire.Took,
		Errors: wire.Errors,
		Items:  make([]engine.BulkItem, 0, len(wire.Items)),
	}
	for _, item := range wire.Items {
		// each item holds exactly one action key: index, delete, ...
		for action, op := range item {
			it := engine.BulkItem{Action: action, ID: op.ID, Status: op.Status}
			if op.Error != nil {
				it.Error = &engine.BulkError{Type: op.Error.Type, Reason: op.Error.Reason}
			}
			out.Items = append(out.Items, it)
		}
	}
	return out, nil
}
