package index

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openmkt/extdex/internal/db"
	"github.com/openmkt/extdex/internal/domain"
	"github.com/openmkt/extdex/internal/relevance"
)

// fakeStore records engine calls and serves canned search results.
// Optional function hooks let individual tests inject failures or block
// mid-call.
type fakeStore struct {
	mu sync.Mutex

	indexExists bool
	created     []*db.IndexDefinition
	dropped     []string
	droppedDocs []bool
	hsets       map[string]map[string]string
	deleted     []string
	kv          map[string]string

	searchResult *db.SearchResult
	searchErr    error
	lastQuery    *db.SearchQuery

	hsetMultiHook func()
	searchHook    func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hsets: make(map[string]map[string]string),
		kv:    make(map[string]string),
	}
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexExists {
		return db.ErrIndexExists
	}
	f.created = append(f.created, def)
	f.indexExists = true
	return nil
}

func (f *fakeStore) DropIndex(_ context.Context, name string, deleteDocs bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, name)
	f.droppedDocs = append(f.droppedDocs, deleteDocs)
	if !f.indexExists {
		return db.ErrIndexNotFound
	}
	f.indexExists = false
	if deleteDocs {
		f.hsets = make(map[string]map[string]string)
	}
	return nil
}

func (f *fakeStore) IndexExists(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexExists, nil
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hsets[key] = fields
	return nil
}

func (f *fakeStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if f.hsetMultiHook != nil {
		f.hsetMultiHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		f.hsets[item.Key] = item.Fields
	}
	return nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.hsets, key)
	return nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = string(value)
	return nil
}

func (f *fakeStore) Search(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if f.searchHook != nil {
		f.searchHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.searchResult != nil {
		return f.searchResult, nil
	}
	return &db.SearchResult{}, nil
}

// fakeRegistry is a canned relevance.Source over a fixed snapshot.
type fakeRegistry struct {
	exts   []domain.Extension
	oldest *time.Time
}

func (f *fakeRegistry) ListActiveExtensions(_ context.Context) ([]domain.Extension, error) {
	return f.exts, nil
}

func (f *fakeRegistry) FindActiveExtension(_ context.Context, id int64) (*domain.Extension, error) {
	for i := range f.exts {
		if f.exts[i].ID == id {
			ext := f.exts[i]
			return &ext, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistry) CountActiveReviews(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

func (f *fakeRegistry) CountOwnerMemberships(_ context.Context, _ string) (int64, error) {
	return 1, nil
}

func (f *fakeRegistry) CountMemberships(_ context.Context, _ int64, _ string) (int64, error) {
	return 1, nil
}

func (f *fakeRegistry) MaxActiveDownloadCount(_ context.Context) (int64, error) {
	var max int64
	for _, e := range f.exts {
		if e.DownloadCount > max {
			max = e.DownloadCount
		}
	}
	return max, nil
}

func (f *fakeRegistry) OldestActiveTimestamp(_ context.Context) (*time.Time, error) {
	return f.oldest, nil
}

func newTestIndex(store *fakeStore, reg *fakeRegistry) *Index {
	scorer := relevance.NewScorer(relevance.DefaultWeights(), zap.NewNop())
	return New(store, reg, scorer, zap.NewNop())
}

func testSnapshot() *fakeRegistry {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	oldest := now.AddDate(-1, 0, 0)
	return &fakeRegistry{
		oldest: &oldest,
		exts: []domain.Extension{
			{ID: 1, Namespace: "foo", Name: "bar", DisplayName: "Foo Bar",
				Categories: []string{"Other"}, DownloadCount: 500, PublishedAt: oldest, PublisherID: 1},
			{ID: 2, Namespace: "redhat", Name: "java", DisplayName: "Java Tools",
				Tags: []string{"java"}, Categories: []string{"Programming Languages"},
				DownloadCount: 10000, PublishedAt: now, PublisherID: 2},
		},
	}
}
