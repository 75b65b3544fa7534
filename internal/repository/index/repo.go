// Package index maintains the extension entries inside the external
// full-text engine and serves queries from them. All writes recompute
// relevance from the registry first: the engine never holds state that
// cannot be rebuilt.
package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openmkt/extdex/internal/db"
	"github.com/openmkt/extdex/internal/domain/search/query"
	"github.com/openmkt/extdex/internal/domain/search/result"
	"github.com/openmkt/extdex/internal/relevance"
)

// store is the consumer interface for engine operations (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Set(ctx context.Context, key string, value []byte) error
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

// Index is the engine-backed query backend. A single RWMutex guards the
// engine state: index lifecycle and entry writes take the write lock
// for their full duration, queries share the read lock. Queries
// therefore never observe a half-rebuilt index.
type Index struct {
	store    store
	registry relevance.Source
	scorer   *relevance.Scorer
	logger   *zap.Logger

	mu sync.RWMutex
}

// New creates the engine-backed backend.
func New(s store, registry relevance.Source, scorer *relevance.Scorer, logger *zap.Logger) *Index {
	return &Index{store: s, registry: registry, scorer: scorer, logger: logger}
}

// Name identifies the backend in logs and metrics.
func (ix *Index) Name() string { return "engine" }

// EnsureIndex prepares the index for serving. Without clear it is a
// no-op when the index already exists; with clear the index and all its
// entries are dropped and repopulated from scratch.
func (ix *Index) EnsureIndex(ctx context.Context, clear bool) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if clear {
		if err := ix.store.DropIndex(ctx, IndexName, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index: %w", err)
		}
	} else {
		exists, err := ix.store.IndexExists(ctx, IndexName)
		if err != nil {
			return fmt.Errorf("probe index: %w", err)
		}
		if exists {
			return nil
		}
	}

	if err := ix.createLocked(ctx); err != nil {
		return err
	}
	return ix.rebuildLocked(ctx)
}

// RebuildAll repopulates every entry from the registry, creating the
// index first if it is missing. It overwrites entries rather than
// clearing first, so removal of vanished extensions relies on deletion
// events or the next EnsureIndex with clear.
func (ix *Index) RebuildAll(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	exists, err := ix.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if !exists {
		if err := ix.createLocked(ctx); err != nil {
			return err
		}
	}
	return ix.rebuildLocked(ctx)
}

// UpsertOne recomputes and writes a single entry. When the extension
// turned inactive or disappeared, its entry is removed instead.
func (ix *Index) UpsertOne(ctx context.Context, id int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ext, err := relevance.RankOne(ctx, ix.registry, ix.scorer, id)
	if err != nil {
		return err
	}
	if ext == nil {
		return ix.deleteLocked(ctx, id)
	}
	if err := ix.store.HSet(ctx, entryKey(id), entryFields(ext)); err != nil {
		return fmt.Errorf("write entry %d: %w", id, err)
	}
	return nil
}

// DeleteOne removes an entry. Deleting an absent entry is not an error.
func (ix *Index) DeleteOne(ctx context.Context, id int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.deleteLocked(ctx, id)
}

func (ix *Index) deleteLocked(ctx context.Context, id int64) error {
	if err := ix.store.Del(ctx, entryKey(id)); err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return nil
}

func (ix *Index) createLocked(ctx context.Context) error {
	if err := ix.store.CreateIndex(ctx, definition()); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// rebuildLocked loads a consistently scored snapshot and overwrites
// every entry in one pipelined write. An empty registry skips the write
// entirely so a transient read problem cannot blank a serving index.
func (ix *Index) rebuildLocked(ctx context.Context) error {
	start := time.Now()

	exts, err := relevance.RankAll(ctx, ix.registry, ix.scorer)
	if err != nil {
		return err
	}
	if len(exts) == 0 {
		ix.logger.Warn("no active extensions, keeping existing search entries")
		return nil
	}

	items := make([]db.HashSetItem, len(exts))
	for i := range exts {
		items[i] = db.HashSetItem{Key: entryKey(exts[i].ID), Fields: entryFields(&exts[i])}
	}
	if err := ix.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}

	stamp := time.Now().UTC().Format(time.RFC3339)
	if err := ix.store.Set(ctx, rebuiltAtKey, []byte(stamp)); err != nil {
		ix.logger.Warn("failed to record rebuild timestamp", zap.Error(err))
	}

	ix.logger.Info("search index rebuilt",
		zap.Int("entries", len(exts)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Search runs one page of a query against the engine. Relevance-sorted
// text queries use the engine's own match score; every other sort maps
// onto a sortable stored field.
func (ix *Index) Search(ctx context.Context, opts query.Options, page query.Page) (result.Page, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q := &db.SearchQuery{
		IndexName:    IndexName,
		Query:        buildQuery(&opts),
		Offset:       page.Number * page.Size,
		Limit:        page.Size,
		ReturnFields: []string{"id"},
	}
	if opts.SortBy() == query.SortByRelevance && opts.Query() != "" {
		// the engine orders by match score descending on its own
		q.WithScores = true
	} else {
		q.SortBy = sortField[opts.SortBy()]
		q.SortAscending = opts.SortOrder() == query.SortOrderAsc
	}

	sr, err := ix.store.Search(ctx, q)
	if err != nil {
		return result.Empty(), fmt.Errorf("search: %w", err)
	}
	return parseResult(sr), nil
}

func parseResult(sr *db.SearchResult) result.Page {
	if sr == nil || sr.Total == 0 {
		return result.Empty()
	}
	ids := make([]int64, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if id, ok := entryID(entry); ok {
			ids = append(ids, id)
		}
	}
	return result.New(ids, int64(sr.Total))
}

func entryID(entry db.SearchEntry) (int64, bool) {
	raw, ok := entry.Fields["id"]
	if !ok {
		raw = strings.TrimPrefix(entry.Key, entryPrefix)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}
