package engine

import (
	"errors"
	"fmt"
)

// ErrMissingPredicate signals a search or scroll call with neither a query
// nor a post filter. Rejected before any transport call is made.
var ErrMissingPredicate = errors.New("engine: at least one of query and post filter is required")

// Op constants name the engine endpoint an error originated from.
const (
	OpBulk            = "bulk"
	OpSearch          = "search"
	OpScroll          = "scroll"
	OpCount           = "count"
	OpUpdateByQuery   = "update_by_query"
	OpIndexExists     = "indices.exists"
	OpCreateIndex     = "indices.create"
	OpPutMapping      = "indices.put_mapping"
	OpGetMapping      = "indices.get_mapping"
	OpGetFieldMapping = "indices.get_field_mapping"
	OpPing            = "ping"
)

// TransportError reports a network-level failure reaching the engine. It is
// surfaced to the caller immediately; no retry happens at this layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// EngineError reports a well-formed request the engine rejected, carrying
// the engine-provided failure detail.
type EngineError struct {
	Op     string
	Status int
	Type   string
	Reason string
}

func (e *EngineError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: engine returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Type, e.Reason)
}

// ScrollExpiredError reports a continuation attempted after the cursor's
// validity window elapsed. Distinct from TransportError: the engine is
// reachable, the cursor is gone.
type ScrollExpiredError struct {
	Scroll ScrollState
}

func (e *ScrollExpiredError) Error() string {
	return "engine: scroll context expired"
}
