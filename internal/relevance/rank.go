package relevance

import (
	"context"
	"fmt"
	"time"

	"github.com/openmkt/extdex/internal/domain"
)

// Source is the registry view ranking needs: the active extension
// snapshot plus the aggregates the scorer normalizes against.
type Source interface {
	ListActiveExtensions(ctx context.Context) ([]domain.Extension, error)
	FindActiveExtension(ctx context.Context, id int64) (*domain.Extension, error)
	CountActiveReviews(ctx context.Context, extensionID int64) (int64, error)
	CountOwnerMemberships(ctx context.Context, namespace string) (int64, error)
	CountMemberships(ctx context.Context, userID int64, namespace string) (int64, error)
	MaxActiveDownloadCount(ctx context.Context) (int64, error)
	OldestActiveTimestamp(ctx context.Context) (*time.Time, error)
}

// CollectStats reads the corpus aggregates and derives scoring
// references from them.
func CollectStats(ctx context.Context, src Source) (Stats, error) {
	maxDownloads, err := src.MaxActiveDownloadCount(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("max download count: %w", err)
	}
	oldest, err := src.OldestActiveTimestamp(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("oldest timestamp: %w", err)
	}
	return NewStats(maxDownloads, oldest, time.Now()), nil
}

// RankAll loads the full active snapshot, hydrates the scoring inputs
// and scores every extension against one shared Stats. The result is a
// consistent corpus: all scores are comparable because they were
// normalized against the same references.
func RankAll(ctx context.Context, src Source, scorer *Scorer) ([]domain.Extension, error) {
	exts, err := src.ListActiveExtensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active extensions: %w", err)
	}
	if len(exts) == 0 {
		return nil, nil
	}

	stats, err := CollectStats(ctx, src)
	if err != nil {
		return nil, err
	}

	for i := range exts {
		if err := hydrate(ctx, src, &exts[i]); err != nil {
			return nil, err
		}
		exts[i].Relevance = scorer.Score(&exts[i], stats)
	}
	return exts, nil
}

// RankOne loads and scores a single extension with fresh Stats.
// It returns nil when the extension is missing or inactive.
func RankOne(ctx context.Context, src Source, scorer *Scorer, id int64) (*domain.Extension, error) {
	ext, err := src.FindActiveExtension(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find extension %d: %w", id, err)
	}
	if ext == nil {
		return nil, nil
	}

	stats, err := CollectStats(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := hydrate(ctx, src, ext); err != nil {
		return nil, err
	}
	ext.Relevance = scorer.Score(ext, stats)
	return ext, nil
}

// hydrate fills the scoring inputs the snapshot listing leaves out:
// review count (only needed when a rating exists) and publisher
// verification.
func hydrate(ctx context.Context, src Source, ext *domain.Extension) error {
	if ext.AverageRating != nil {
		n, err := src.CountActiveReviews(ctx, ext.ID)
		if err != nil {
			return fmt.Errorf("count reviews for %d: %w", ext.ID, err)
		}
		ext.ReviewCount = n
	}

	verified, err := isVerified(ctx, src, ext)
	if err != nil {
		return err
	}
	ext.Verified = verified
	return nil
}

// isVerified reports whether the namespace has at least one owner and
// the publisher of the latest version is a member of it.
func isVerified(ctx context.Context, src Source, ext *domain.Extension) (bool, error) {
	owners, err := src.CountOwnerMemberships(ctx, ext.Namespace)
	if err != nil {
		return false, fmt.Errorf("count owners for %s: %w", ext.Namespace, err)
	}
	if owners == 0 {
		return false, nil
	}
	memberships, err := src.CountMemberships(ctx, ext.PublisherID, ext.Namespace)
	if err != nil {
		return false, fmt.Errorf("count memberships for %s: %w", ext.Namespace, err)
	}
	return memberships > 0, nil
}
