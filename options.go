package petra

import (
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addresses        []string
	username         string
	password         string
	index            string
	logger           *zap.Logger
	pageSize         int
	scrollTimeout    time.Duration
	readinessTimeout time.Duration
	skipSetup        bool
	transport        esapi.Transport
}

// WithAddresses sets the engine node URLs.
func WithAddresses(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addresses = addrs
	}
}

// WithCredentials sets basic auth for the engine connection.
func WithCredentials(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithIndex sets the chunk index name. Defaults to "chunks".
func WithIndex(name string) Option {
	return func(c *clientConfig) {
		c.index = name
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithPageSize sets how many hits each scroll page requests.
func WithPageSize(n int) Option {
	return func(c *clientConfig) {
		c.pageSize = n
	}
}

// WithScrollTimeout sets how long the engine keeps a cursor alive between
// page fetches.
func WithScrollTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.scrollTimeout = d
	}
}

// WithReadinessTimeout bounds the startup wait for the engine.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.readinessTimeout = d
	}
}

// WithoutSetup skips index and mapping provisioning on connect. Use when the
// index is managed externally.
func WithoutSetup() Option {
	return func(c *clientConfig) {
		c.skipSetup = true
	}
}

// WithTransport overrides the engine transport. Mainly for tests.
func WithTransport(t esapi.Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}
