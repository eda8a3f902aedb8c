package health

import "context"

// EnginePinger checks search engine availability.
type EnginePinger interface {
	IsRunning(ctx context.Context) bool
}
