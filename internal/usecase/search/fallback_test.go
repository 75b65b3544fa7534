package search

import (
	"context"
	"testing"

	"github.com/openmkt/extdex/internal/domain/search/query"
)

func searchIDs(t *testing.T, f *Fallback, opts query.Options) []int64 {
	t.Helper()
	res, err := f.Search(context.Background(), opts, query.PageOf(opts))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	return res.IDs()
}

func assertIDs(t *testing.T, got []int64, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFallback_MatchAll(t *testing.T) {
	f := newTestFallback(marketCorpus())
	opts := testOptions(t, "", "", 50, 0, "", "")

	res, err := f.Search(context.Background(), opts, query.PageOf(opts))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total() != 4 {
		t.Errorf("total = %d, want 4", res.Total())
	}
	if len(res.IDs()) != 4 {
		t.Errorf("ids = %v, want all four", res.IDs())
	}
}

func TestFallback_NamespaceQuery(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "redhat", "", 50, 0, "", ""))
	if len(ids) != 3 {
		t.Errorf("expected 3 redhat extensions, got %v", ids)
	}
}

func TestFallback_NameQuery(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "openshift", "", 50, 0, "", ""))
	assertIDs(t, ids, 3)
}

func TestFallback_DescriptionQuery(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "my custom desc", "", 50, 0, "", ""))
	assertIDs(t, ids, 1)
}

func TestFallback_DisplayNameQueryIsCaseInsensitive(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "openshift connector", "", 50, 0, "", ""))
	assertIDs(t, ids, 3)

	ids = searchIDs(t, f, testOptions(t, "JAVA", "", 50, 0, "", ""))
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("expected java only, got %v", ids)
	}
}

func TestFallback_TagOnlyQueryDoesNotMatch(t *testing.T) {
	// "jdk" appears only in java's tags, which the substring match
	// deliberately ignores.
	f := newTestFallback(marketCorpus())
	opts := testOptions(t, "jdk", "", 50, 0, "", "")

	res, err := f.Search(context.Background(), opts, query.PageOf(opts))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total() != 0 || len(res.IDs()) != 0 {
		t.Errorf("tag-only query matched %v (total %d), want nothing", res.IDs(), res.Total())
	}
}

func TestFallback_NoMatches(t *testing.T) {
	f := newTestFallback(marketCorpus())
	opts := testOptions(t, "nonexistent", "", 50, 0, "", "")

	res, err := f.Search(context.Background(), opts, query.PageOf(opts))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total() != 0 || len(res.IDs()) != 0 {
		t.Errorf("expected empty page, got %v (total %d)", res.IDs(), res.Total())
	}
}

func TestFallback_CategoryFilter(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "", "Programming Languages", 50, 0, "asc", "downloadCount"))
	assertIDs(t, ids, 4, 2) // yaml then java by downloads
}

func TestFallback_CategoryIsExact(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "", "Programming", 50, 0, "", ""))
	if len(ids) != 0 {
		t.Errorf("partial category must not match, got %v", ids)
	}
}

func TestFallback_SortByDownloadCount(t *testing.T) {
	f := newTestFallback(marketCorpus())

	desc := searchIDs(t, f, testOptions(t, "", "", 50, 0, "desc", "downloadCount"))
	assertIDs(t, desc, 2, 1, 3, 4)

	asc := searchIDs(t, f, testOptions(t, "", "", 50, 0, "asc", "downloadCount"))
	assertIDs(t, asc, 4, 3, 1, 2)
}

func TestFallback_SortByTimestamp(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "", "", 50, 0, "asc", "timestamp"))
	assertIDs(t, ids, 1, 4, 2, 3)
}

func TestFallback_SortByRating(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "", "", 50, 0, "desc", "averageRating"))
	// only foo.bar is rated; the rest tie at zero and fall back to ID order
	assertIDs(t, ids, 1, 2, 3, 4)
}

func TestFallback_SortByRelevance(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ids := searchIDs(t, f, testOptions(t, "", "", 50, 0, "desc", "relevance"))
	if len(ids) != 4 {
		t.Fatalf("expected 4, got %v", ids)
	}
	// java dominates downloads and is recent, it must come first
	if ids[0] != 2 {
		t.Errorf("expected java first, got %v", ids)
	}

	asc := searchIDs(t, f, testOptions(t, "", "", 50, 0, "asc", "relevance"))
	if asc[len(asc)-1] != 2 {
		t.Errorf("expected java last ascending, got %v", asc)
	}
}

func TestFallback_Pagination(t *testing.T) {
	f := newTestFallback(uniformCorpus(7))

	opts := testOptions(t, "", "", 2, 4, "", "")
	res, err := f.Search(context.Background(), opts, query.PageOf(opts))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total() != 7 {
		t.Errorf("total = %d, want 7", res.Total())
	}
	// identical scores: deterministic ID ascending tie-break
	assertIDs(t, res.IDs(), 5, 6)
}

func TestFallback_PageBeyondEnd(t *testing.T) {
	f := newTestFallback(uniformCorpus(3))

	opts := testOptions(t, "", "", 10, 30, "", "")
	res, err := f.Search(context.Background(), opts, query.PageOf(opts))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total() != 3 || len(res.IDs()) != 0 {
		t.Errorf("expected empty page with total 3, got %v (total %d)", res.IDs(), res.Total())
	}
}

func TestFallback_LifecycleIsNoop(t *testing.T) {
	f := newTestFallback(marketCorpus())
	ctx := context.Background()

	if err := f.EnsureIndex(ctx, true); err != nil {
		t.Errorf("EnsureIndex: %v", err)
	}
	if err := f.RebuildAll(ctx); err != nil {
		t.Errorf("RebuildAll: %v", err)
	}
	if err := f.UpsertOne(ctx, 1); err != nil {
		t.Errorf("UpsertOne: %v", err)
	}
	if err := f.DeleteOne(ctx, 1); err != nil {
		t.Errorf("DeleteOne: %v", err)
	}
}
