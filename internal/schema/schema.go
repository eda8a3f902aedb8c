// Package schema holds the chunk index layout and its startup provisioning.
package schema

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/petra-io/petra/internal/engine"
)

// DefaultMapping returns the field mapping for chunk documents. Geometry is
// indexed as its bounding envelope, tags and path as exact-match keywords,
// and the byte range as long offsets.
func DefaultMapping() engine.Mapping {
	return engine.Mapping{
		"properties": engine.Mapping{
			"bbox": engine.Mapping{
				"type": "geo_shape",
			},
			"tags": engine.Mapping{
				"type": "keyword",
			},
			"path": engine.Mapping{
				"type": "keyword",
			},
			"importId": engine.Mapping{
				"type": "keyword",
			},
			"importTime": engine.Mapping{
				"type": "date",
			},
			"start": engine.Mapping{
				"type": "long",
			},
			"end": engine.Mapping{
				"type": "long",
			},
		},
	}
}

// DefaultSettings returns index settings suitable for a single-node
// deployment.
func DefaultSettings() engine.Mapping {
	return engine.Mapping{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	}
}

// indexAlreadyExists is the engine's rejection type for a creation race.
const indexAlreadyExists = "resource_already_exists_exception"

// Setup provisions the chunk index and its mapping. Safe to run on every
// start and concurrently with other instances doing the same. Only losing a
// creation race is tolerated; any other creation failure aborts startup.
func Setup(ctx context.Context, m engine.SchemaManager, logger *zap.Logger) error {
	exists, err := m.IndexExists(ctx)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}

	if !exists {
		if _, err := m.CreateIndex(ctx, DefaultSettings()); err != nil {
			if !isCreationRace(err) {
				return fmt.Errorf("create index: %w", err)
			}
			logger.Warn("index created concurrently by another instance", zap.Error(err))
		}
	}

	if err := m.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	if err := m.EnsureMapping(ctx, DefaultMapping()); err != nil {
		return fmt.Errorf("ensure mapping: %w", err)
	}
	return nil
}

// isCreationRace reports whether err is the engine rejecting a create for an
// index another actor created first.
func isCreationRace(err error) bool {
	var ee *engine.EngineError
	return errors.As(err, &ee) && ee.Type == indexAlreadyExists
}
