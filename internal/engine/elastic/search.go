package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/petra-io/petra/internal/engine"
)

// Search runs a bounded one-shot search. The result set may not contain all
// matches; callers needing completeness scroll instead.
func (c *Client) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rd, err := encodeBody(buildSearchBody(req))
	if err != nil {
		return nil, err
	}

	res, err := c.do(ctx, engine.OpSearch, esapi.SearchRequest{
		Index: []string{c.index},
		Body:  rd,
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, engineError(engine.OpSearch, res)
	}
	return decodeSearchResult(res.Body)
}

// Count returns the number of documents matching query, or the total
// document count when query is nil. No documents or aggregations are
// fetched.
func (c *Client) Count(ctx context.Context, query engine.Mapping) (int64, error) {
	var rd io.Reader
	if query != nil {
		var err error
		rd, err = encodeBody(engine.Mapping{"query": query})
		if err != nil {
			return 0, err
		}
	}

	res, err := c.do(ctx, engine.OpCount, esapi.CountRequest{
		Index: []string{c.index},
		Body:  rd,
	})
	if err != nil {
		return 0, err
	}
	defer closeBody(res)

	if res.IsError() {
		return 0, engineError(engine.OpCount, res)
	}

	var wire struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&wire); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return wire.Count, nil
}

// BeginScroll runs a search and opens a cursor over its full match set. The
// returned Scroll token stays valid for timeout unless a continuation
// arrives first.
func (c *Client) BeginScroll(
	ctx context.Context, req *engine.SearchRequest, timeout time.Duration,
) (*engine.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rd, err := encodeBody(buildSearchBody(req))
	if err != nil {
		return nil, err
	}

	res, err := c.do(ctx, engine.OpScroll, esapi.SearchRequest{
		Index:  []string{c.index},
		Body:   rd,
		Scroll: timeout,
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, engineError(engine.OpScroll, res)
	}
	return decodeSearchResult(res.Body)
}

// ContinueScroll consumes a scroll token and returns the next page plus a
// fresh token. An exhausted cursor yields empty hits and a zero Scroll,
// which is the terminal signal, not an error. An elapsed validity window
// yields a ScrollExpiredError.
func (c *Client) ContinueScroll(
	ctx context.Context, scroll engine.ScrollState, timeout time.Duration,
) (*engine.SearchResult, error) {
	if scroll.Empty() {
		return nil, fmt.Errorf("scroll: empty scroll state")
	}

	res, err := c.do(ctx, engine.OpScroll, esapi.ScrollRequest{
		ScrollID: string(scroll),
		Scroll:   timeout,
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, &engine.ScrollExpiredError{Scroll: scroll}
	}
	if res.IsError() {
		return nil, engineError(engine.OpScroll, res)
	}

	page, err := decodeSearchResult(res.Body)
	if err != nil {
		return nil, err
	}
	if len(page.Hits) == 0 {
		// exhausted: the engine may echo a token, but the contract ends here
		page.Scroll = ""
	}
	return page, nil
}

// buildSearchBody merges parameters and the optional predicate parts into
// one request body. Parameters go first so the predicate keys win.
func buildSearchBody(req *engine.SearchRequest) engine.Mapping {
	body := engine.Mapping{}
	for k, v := range req.Parameters {
		body[k] = v
	}
	if req.Query != nil {
		body["query"] = req.Query
	}
	if req.PostFilter != nil {
		body["post_filter"] = req.PostFilter
	}
	if req.Aggregations != nil {
		body["aggs"] = req.Aggregations
	}
	return body
}

func decodeSearchResult(body io.Reader) (*engine.SearchResult, error) {
	var wire struct {
		Took     int    `json:"took"`
		TimedOut bool   `json:"timed_out"`
		ScrollID string `json:"_scroll_id"`
		Hits     struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []engine.Hit `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]json.RawMessage `json:"aggregations"`
	}
	if err := json.NewDecoder(body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return &engine.SearchResult{
		Took:         wire.Took,
		TimedOut:     wire.TimedOut,
		Total:        wire.Hits.Total.Value,
		Hits:         wire.Hits.Hits,
		Aggregations: wire.Aggregations,
		Scroll:       engine.ScrollState(wire.ScrollID),
	}, nil
}
