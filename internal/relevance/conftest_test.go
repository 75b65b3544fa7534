package relevance

import (
	"context"
	"time"

	"github.com/openmkt/extdex/internal/domain"
)

// fakeSource is a hand-rolled registry stub. Unset functions fall back
// to harmless defaults so each test only wires what it asserts on.
type fakeSource struct {
	listFn        func(ctx context.Context) ([]domain.Extension, error)
	findFn        func(ctx context.Context, id int64) (*domain.Extension, error)
	reviewsFn     func(ctx context.Context, extensionID int64) (int64, error)
	ownersFn      func(ctx context.Context, namespace string) (int64, error)
	membershipsFn func(ctx context.Context, userID int64, namespace string) (int64, error)
	maxDownloads  int64
	oldest        *time.Time
}

func (f *fakeSource) ListActiveExtensions(ctx context.Context) ([]domain.Extension, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeSource) FindActiveExtension(ctx context.Context, id int64) (*domain.Extension, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeSource) CountActiveReviews(ctx context.Context, extensionID int64) (int64, error) {
	if f.reviewsFn != nil {
		return f.reviewsFn(ctx, extensionID)
	}
	return 0, nil
}

func (f *fakeSource) CountOwnerMemberships(ctx context.Context, namespace string) (int64, error) {
	if f.ownersFn != nil {
		return f.ownersFn(ctx, namespace)
	}
	return 0, nil
}

func (f *fakeSource) CountMemberships(ctx context.Context, userID int64, namespace string) (int64, error) {
	if f.membershipsFn != nil {
		return f.membershipsFn(ctx, userID, namespace)
	}
	return 0, nil
}

func (f *fakeSource) MaxActiveDownloadCount(_ context.Context) (int64, error) {
	return f.maxDownloads, nil
}

func (f *fakeSource) OldestActiveTimestamp(_ context.Context) (*time.Time, error) {
	return f.oldest, nil
}
