package search

import (
	"context"
	"sort"
	"strings"

	"github.com/openmkt/extdex/internal/domain"
	"github.com/openmkt/extdex/internal/domain/search/query"
	"github.com/openmkt/extdex/internal/domain/search/result"
	"github.com/openmkt/extdex/internal/relevance"
)

// Fallback serves queries straight from the registry when no external
// engine is configured. It holds no state between calls: every query
// loads and scores a fresh snapshot, so results are always current at
// the cost of doing the ranking work per request.
type Fallback struct {
	registry relevance.Source
	scorer   *relevance.Scorer
}

// NewFallback creates the in-memory backend.
func NewFallback(registry relevance.Source, scorer *relevance.Scorer) *Fallback {
	return &Fallback{registry: registry, scorer: scorer}
}

// Name identifies the backend in logs and metrics.
func (f *Fallback) Name() string { return "memory" }

// Search filters, orders and pages the scored snapshot.
func (f *Fallback) Search(ctx context.Context, opts query.Options, page query.Page) (result.Page, error) {
	exts, err := relevance.RankAll(ctx, f.registry, f.scorer)
	if err != nil {
		return result.Empty(), err
	}

	matches := make([]domain.Extension, 0, len(exts))
	for i := range exts {
		if matchesQuery(&exts[i], &opts) {
			matches = append(matches, exts[i])
		}
	}

	sortMatches(matches, opts.SortBy(), opts.SortOrder())

	total := int64(len(matches))
	from := page.Number * page.Size
	if from >= len(matches) {
		return result.New(nil, total), nil
	}
	to := from + page.Size
	if to > len(matches) {
		to = len(matches)
	}

	ids := make([]int64, 0, to-from)
	for _, e := range matches[from:to] {
		ids = append(ids, e.ID)
	}
	return result.New(ids, total), nil
}

// EnsureIndex is a no-op: the fallback has no persistent state.
func (f *Fallback) EnsureIndex(_ context.Context, _ bool) error { return nil }

// RebuildAll is a no-op: every query already reads fresh data.
func (f *Fallback) RebuildAll(_ context.Context) error { return nil }

// UpsertOne is a no-op: every query already reads fresh data.
func (f *Fallback) UpsertOne(_ context.Context, _ int64) error { return nil }

// DeleteOne is a no-op: inactive extensions drop out of the snapshot.
func (f *Fallback) DeleteOne(_ context.Context, _ int64) error { return nil }

// matchesQuery applies the text and category conditions. Text matching
// is a case-insensitive substring check over namespace, name, display
// name and description only; tags are an engine-side signal. Category
// matching is exact.
func matchesQuery(ext *domain.Extension, opts *query.Options) bool {
	if c := opts.Category(); c != "" && !ext.HasCategory(c) {
		return false
	}
	q := strings.ToLower(opts.Query())
	if q == "" {
		return true
	}
	for _, field := range []string{ext.Namespace, ext.Name, ext.DisplayName, ext.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// sortMatches orders the snapshot deterministically: the requested key
// and direction first, extension ID ascending on ties.
func sortMatches(exts []domain.Extension, sortBy, sortOrder string) {
	key := sortKey(sortBy)
	asc := sortOrder == query.SortOrderAsc
	sort.SliceStable(exts, func(i, j int) bool {
		a, b := key(&exts[i]), key(&exts[j])
		if a != b {
			if asc {
				return a < b
			}
			return a > b
		}
		return exts[i].ID < exts[j].ID
	})
}

func sortKey(sortBy string) func(*domain.Extension) float64 {
	switch sortBy {
	case query.SortByTimestamp:
		return func(e *domain.Extension) float64 { return float64(e.PublishedAt.UTC().Unix()) }
	case query.SortByRating:
		return func(e *domain.Extension) float64 {
			if e.AverageRating == nil {
				return 0
			}
			return *e.AverageRating
		}
	case query.SortByDownloadCount:
		return func(e *domain.Extension) float64 { return float64(e.DownloadCount) }
	default:
		return func(e *domain.Extension) float64 { return e.Relevance }
	}
}
