// Package search is the single entry point for extension search. The
// facade hides which backend serves queries, absorbs registry change
// events, and owns the rebuild lifecycle.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/openmkt/extdex/internal/domain/search/query"
	"github.com/openmkt/extdex/internal/domain/search/result"
	"github.com/openmkt/extdex/internal/metrics"
	"github.com/openmkt/extdex/internal/relevance"
)

// Service routes every search concern through the configured backend.
type Service struct {
	backend      Backend
	engineBacked bool
	weights      relevance.Weights
	logger       *zap.Logger

	// rebuilds collapses concurrent rebuild triggers (scheduler, admin
	// endpoint) into one run.
	rebuilds singleflight.Group
}

// New creates the search facade. engineBacked marks backends with
// persistent index state; for the in-memory fallback the lifecycle and
// event paths short-circuit.
func New(backend Backend, engineBacked bool, weights relevance.Weights, logger *zap.Logger) *Service {
	return &Service{
		backend:      backend,
		engineBacked: engineBacked,
		weights:      weights,
		logger:       logger,
	}
}

// Enabled reports whether an external engine backs the search index.
func (s *Service) Enabled() bool { return s.engineBacked }

// BackendName identifies the active backend.
func (s *Service) BackendName() string { return s.backend.Name() }

// Init prepares the backend for serving. With clear the index is
// dropped and rebuilt from scratch; otherwise an existing index is
// reused as-is.
func (s *Service) Init(ctx context.Context, clear bool) error {
	if !s.engineBacked {
		return nil
	}
	start := time.Now()
	if err := s.backend.EnsureIndex(ctx, clear); err != nil {
		return err
	}
	s.logger.Info("search index ready",
		zap.Bool("cleared", clear),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Search serves one page of matches from the active backend.
func (s *Service) Search(ctx context.Context, opts query.Options, page query.Page) (result.Page, error) {
	start := time.Now()
	res, err := s.backend.Search(ctx, opts, page)
	metrics.SearchDuration.WithLabelValues(s.backend.Name()).Observe(time.Since(start).Seconds())
	metrics.SearchesTotal.WithLabelValues(s.backend.Name(), statusLabel(err)).Inc()
	if err != nil {
		return result.Empty(), err
	}
	return res, nil
}

// ExtensionChanged refreshes the index entry for a published, updated
// or reactivated extension.
func (s *Service) ExtensionChanged(ctx context.Context, id int64) error {
	if !s.engineBacked {
		return nil
	}
	err := s.backend.UpsertOne(ctx, id)
	metrics.IndexEventsTotal.WithLabelValues("changed", statusLabel(err)).Inc()
	return err
}

// ExtensionRemoved drops the index entry for a deleted or deactivated
// extension.
func (s *Service) ExtensionRemoved(ctx context.Context, id int64) error {
	if !s.engineBacked {
		return nil
	}
	err := s.backend.DeleteOne(ctx, id)
	metrics.IndexEventsTotal.WithLabelValues("removed", statusLabel(err)).Inc()
	return err
}

// Rebuild refreshes the whole index. A soft rebuild overwrites entries
// in place; a hard rebuild drops the index first. Concurrent callers
// share a single run.
func (s *Service) Rebuild(ctx context.Context, hard bool) error {
	if !s.engineBacked {
		return nil
	}
	mode := "soft"
	if hard {
		mode = "hard"
	}
	_, err, _ := s.rebuilds.Do(mode, func() (any, error) {
		start := time.Now()
		var err error
		if hard {
			err = s.backend.EnsureIndex(ctx, true)
		} else {
			err = s.backend.RebuildAll(ctx)
		}
		metrics.IndexRebuildDuration.Observe(time.Since(start).Seconds())
		metrics.IndexRebuildsTotal.WithLabelValues(mode, statusLabel(err)).Inc()
		return nil, err
	})
	return err
}

// MaintainIndex is the scheduled refresh hook. It only works when the
// recency signal actually moves scores over time; with a negligible
// timestamp weight the daily rebuild would churn the engine for
// nothing.
func (s *Service) MaintainIndex(ctx context.Context) {
	if !s.engineBacked {
		return
	}
	if s.weights.TimestampNegligible() {
		s.logger.Debug("skipping scheduled index refresh, recency weight negligible")
		return
	}
	if err := s.Rebuild(ctx, false); err != nil {
		s.logger.Error("scheduled index refresh failed", zap.Error(err))
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
