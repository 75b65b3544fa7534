package chi

import (
	"context"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openmkt/extdex/internal/domain/search/query"
	"github.com/openmkt/extdex/internal/domain/search/result"
	"github.com/openmkt/extdex/internal/relevance"
	healthuc "github.com/openmkt/extdex/internal/usecase/health"
	searchuc "github.com/openmkt/extdex/internal/usecase/search"
)

// stubBackend implements searchuc.Backend with canned responses.
type stubBackend struct {
	searchResult result.Page
	searchErr    error
	rebuildErr   error

	lastOpts query.Options
	lastPage query.Page
	ensures  []bool
	rebuilds int
	upserts  []int64
	deletes  []int64
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Search(_ context.Context, opts query.Options, page query.Page) (result.Page, error) {
	b.lastOpts = opts
	b.lastPage = page
	if b.searchErr != nil {
		return result.Empty(), b.searchErr
	}
	return b.searchResult, nil
}

func (b *stubBackend) EnsureIndex(_ context.Context, clear bool) error {
	b.ensures = append(b.ensures, clear)
	return b.rebuildErr
}

func (b *stubBackend) RebuildAll(_ context.Context) error {
	b.rebuilds++
	return b.rebuildErr
}

func (b *stubBackend) UpsertOne(_ context.Context, id int64) error {
	b.upserts = append(b.upserts, id)
	return nil
}

func (b *stubBackend) DeleteOne(_ context.Context, id int64) error {
	b.deletes = append(b.deletes, id)
	return nil
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(_ context.Context) error { return p.err }

// newTestHandler wires a router around stub services the way main does.
func newTestHandler(backend *stubBackend, registry *stubPinger) http.Handler {
	searchSvc := searchuc.New(backend, true, relevance.DefaultWeights(), zap.NewNop())
	healthSvc := healthuc.New(registry, nil)
	server := NewServer(searchSvc, healthSvc, zap.NewNop())

	r := chirouter.NewRouter()
	server.Register(r)
	return r
}
