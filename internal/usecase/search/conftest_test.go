package search

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openmkt/extdex/internal/domain"
	"github.com/openmkt/extdex/internal/domain/search/query"
	"github.com/openmkt/extdex/internal/domain/search/result"
	"github.com/openmkt/extdex/internal/relevance"
)

// fakeBackend records facade delegation.
type fakeBackend struct {
	name string

	searchResult result.Page
	searchErr    error
	ensureErr    error
	rebuildErr   error

	searchCalls  int
	ensureCalls  []bool
	rebuildCalls int
	upserts      []int64
	deletes      []int64
}

func (f *fakeBackend) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeBackend) Search(_ context.Context, _ query.Options, _ query.Page) (result.Page, error) {
	f.searchCalls++
	return f.searchResult, f.searchErr
}

func (f *fakeBackend) EnsureIndex(_ context.Context, clear bool) error {
	f.ensureCalls = append(f.ensureCalls, clear)
	return f.ensureErr
}

func (f *fakeBackend) RebuildAll(_ context.Context) error {
	f.rebuildCalls++
	return f.rebuildErr
}

func (f *fakeBackend) UpsertOne(_ context.Context, id int64) error {
	f.upserts = append(f.upserts, id)
	return nil
}

func (f *fakeBackend) DeleteOne(_ context.Context, id int64) error {
	f.deletes = append(f.deletes, id)
	return nil
}

// fakeRegistry serves a fixed snapshot with owner-verified publishers.
type fakeRegistry struct {
	exts []domain.Extension
}

func (f *fakeRegistry) ListActiveExtensions(_ context.Context) ([]domain.Extension, error) {
	out := make([]domain.Extension, len(f.exts))
	copy(out, f.exts)
	return out, nil
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

func (f *fakeRegistry) CountActiveReviews(_ context.Context, extensionID int64) (int64, error) {
	for i := range f.exts {
		if f.exts[i].ID == extensionID {
			return f.exts[i].ReviewCount, nil
		}
	}
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
	var oldest *time.Time
	for _, e := range f.exts {
		t := e.PublishedAt
		if oldest == nil || t.Before(*oldest) {
			oldest = &t
		}
	}
	return oldest, nil
}

var corpusEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func ratingPtr(v float64) *float64 { return &v }

// marketCorpus mirrors a small marketplace: one unaffiliated publisher
// and a vendor namespace with three tools of very different reach.
func marketCorpus() *fakeRegistry {
	return &fakeRegistry{exts: []domain.Extension{
		{ID: 1, Namespace: "foo", Name: "bar", DisplayName: "Foo Bar",
			Description: "my custom description", Categories: []string{"Other"},
			AverageRating: ratingPtr(4), ReviewCount: 2,
			DownloadCount: 500, PublishedAt: corpusEpoch, PublisherID: 11},
		{ID: 2, Namespace: "redhat", Name: "java", DisplayName: "Java Tools",
			Description: "language support", Tags: []string{"java", "jdk"},
			Categories:    []string{"Programming Languages"},
			DownloadCount: 10000, PublishedAt: corpusEpoch.AddDate(0, 3, 0), PublisherID: 10},
		{ID: 3, Namespace: "redhat", Name: "openshift", DisplayName: "OpenShift Connector",
			Description: "cluster tooling", Categories: []string{"Other"},
			DownloadCount: 300, PublishedAt: corpusEpoch.AddDate(0, 6, 0), PublisherID: 10},
		{ID: 4, Namespace: "redhat", Name: "yaml", DisplayName: "YAML",
			Description: "yaml language server", Tags: []string{"yaml"},
			Categories:    []string{"Programming Languages"},
			DownloadCount: 100, PublishedAt: corpusEpoch.AddDate(0, 2, 0), PublisherID: 10},
	}}
}

// uniformCorpus returns n indistinguishable extensions for pagination
// and tie-break tests.
func uniformCorpus(n int) *fakeRegistry {
	exts := make([]domain.Extension, n)
	for i := range exts {
		exts[i] = domain.Extension{
			ID: int64(i + 1), Namespace: "ns", Name: "ext" + string(rune('a'+i)),
			DownloadCount: 50, PublishedAt: corpusEpoch, PublisherID: 1,
		}
	}
	return &fakeRegistry{exts: exts}
}

func newTestFallback(reg *fakeRegistry) *Fallback {
	return NewFallback(reg, relevance.NewScorer(relevance.DefaultWeights(), zap.NewNop()))
}

func testOptions(t *testing.T, text, category string, size, offset int, sortOrder, sortBy string) query.Options {
	t.Helper()
	opts, err := query.New(text, category, size, offset, sortOrder, sortBy, false)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	return opts
}
