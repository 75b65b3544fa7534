package search

import (
	"context"

	"github.com/openmkt/extdex/internal/domain/search/query"
	"github.com/openmkt/extdex/internal/domain/search/result"
)

// Backend is a query backend the facade can delegate to. The engine
// index and the in-memory fallback both implement it; callers never
// learn which one is active.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Search serves one page of matches.
	Search(ctx context.Context, opts query.Options, page query.Page) (result.Page, error)
	// EnsureIndex prepares backend state; with clear it starts from
	// scratch. A no-op for backends without persistent state.
	EnsureIndex(ctx context.Context, clear bool) error
	// RebuildAll refreshes every entry from the registry.
	RebuildAll(ctx context.Context) error
	// UpsertOne refreshes a single extension after a registry change.
	UpsertOne(ctx context.Context, id int64) error
	// DeleteOne removes a single extension.
	DeleteOne(ctx context.Context, id int64) error
}
