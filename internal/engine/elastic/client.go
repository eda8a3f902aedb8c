// Package elastic implements the engine gateway over an
// Elasticsearch-compatible HTTP API via the official client. Requests are
// issued through an esapi.Transport so tests inject a fake Perform.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/petra-io/petra/internal/engine"
)

// Compile-time check: Client implements engine.Client.
var _ engine.Client = (*Client)(nil)

// Config holds connection parameters for the backing engine.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Client is the Elasticsearch-backed gateway. Every operation issues a
// single request over the client's shared connection pool and performs no
// retries.
type Client struct {
	transport esapi.Transport
	index     string
}

// NewClient creates a gateway client for the given engine addresses.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elastic: addresses are required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("elastic: index name is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: create client: %w", err)
	}

	return &Client{transport: es, index: cfg.Index}, nil
}

// NewClientWithTransport creates a gateway client over a caller-supplied
// transport. Tests use this to fake the engine.
func NewClientWithTransport(t esapi.Transport, index string) *Client {
	return &Client{transport: t, index: index}
}

// Index returns the index this gateway operates on.
func (c *Client) Index() string { return c.index }

// Close releases client resources. The underlying HTTP client keeps no
// state beyond pooled connections, which the runtime reclaims.
func (c *Client) Close() {}

// IsRunning checks whether the engine answers a simple request. Transport
// failure is downgraded to false, never an error.
func (c *Client) IsRunning(ctx context.Context) bool {
	res, err := esapi.PingRequest{}.Do(ctx, c.transport)
	if err != nil {
		return false
	}
	defer closeBody(res)
	return !res.IsError()
}

// WaitForRunning polls IsRunning until the engine responds or the timeout
// expires.
func (c *Client) WaitForRunning(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.IsRunning(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for engine: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// do issues a request and wraps network failure as a TransportError.
func (c *Client) do(ctx context.Context, op string, req esapi.Request) (*esapi.Response, error) {
	res, err := req.Do(ctx, c.transport)
	if err != nil {
		return nil, &engine.TransportError{Op: op, Err: err}
	}
	return res, nil
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}

// encodeBody serializes a request body mapping.
func encodeBody(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return &buf, nil
}

// engineError turns a non-2xx engine response into an *engine.EngineError,
// extracting the engine-provided failure detail when present.
func engineError(op string, res *esapi.Response) error {
	var wire struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	_ = json.NewDecoder(res.Body).Decode(&wire)
	return &engine.EngineError{
		Op:     op,
		Status: res.StatusCode,
		Type:   wire.Error.Type,
		Reason: wire.Error.Reason,
	}
}
