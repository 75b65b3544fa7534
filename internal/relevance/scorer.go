// Package relevance computes the ranking score stored with every search
// entry. Scores are derived values: they are recomputed from registry
// state on each index write and never read back.
package relevance

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/openmkt/extdex/internal/domain"
)

// saturationFactor shapes the rating confidence curve: a handful of
// reviews already counts for a lot, hundreds barely more.
const saturationFactor = 0.25

// Weights control the blend of ranking signals. Unverified is a
// multiplier applied to the final score of extensions whose publisher
// is not a verified namespace member.
type Weights struct {
	Rating     float64
	Downloads  float64
	Timestamp  float64
	Unverified float64
}

// DefaultWeights returns the standard production blend.
func DefaultWeights() Weights {
	return Weights{Rating: 1.0, Downloads: 1.0, Timestamp: 1.0, Unverified: 0.5}
}

// TimestampNegligible reports whether the recency signal is so small
// that periodic rebuilds to refresh it are not worth the work.
func (w Weights) TimestampNegligible() bool {
	return math.Abs(w.Timestamp) <= 0.01
}

// Stats holds the corpus-wide reference values every score is
// normalized against. They must come from a single snapshot: mixing
// references from different points in time skews the blend.
type Stats struct {
	// DownloadRef is the normalization ceiling for download counts,
	// padded past the current maximum so new downloads on the top
	// extension still move its score.
	DownloadRef float64
	// Oldest is the publication time of the oldest active version.
	Oldest time.Time
	// TimestampRef is the corpus age in seconds, padded so the oldest
	// extension keeps a small positive recency value.
	TimestampRef float64
}

// NewStats derives reference values from the registry aggregates.
// A nil oldest timestamp means the corpus is empty; the references
// degrade gracefully and scoring still yields finite results.
func NewStats(maxDownloads int64, oldest *time.Time, now time.Time) Stats {
	st := Stats{
		DownloadRef: 1.5*float64(maxDownloads) + 100,
	}
	if oldest != nil {
		st.Oldest = oldest.UTC()
		st.TimestampRef = now.UTC().Sub(st.Oldest).Seconds() + 60
	} else {
		st.Oldest = now.UTC()
		st.TimestampRef = 60
	}
	return st
}

// Scorer blends rating, download and recency signals into a single
// relevance value in a fixed range.
type Scorer struct {
	weights Weights
	logger  *zap.Logger
}

// NewScorer creates a scorer with the given weights.
func NewScorer(w Weights, logger *zap.Logger) *Scorer {
	return &Scorer{weights: w, logger: logger}
}

// Weights returns the configured blend.
func (s *Scorer) Weights() Weights { return s.weights }

// Score computes the relevance of one extension against the given
// corpus references. The result is always finite and non-negative;
// degenerate inputs are logged and mapped to zero rather than allowed
// to poison the index.
func (s *Scorer) Score(ext *domain.Extension, stats Stats) float64 {
	var rating float64
	if ext.AverageRating != nil {
		rating = (*ext.AverageRating / 5.0) * saturate(ext.ReviewCount)
	}

	var downloads float64
	if stats.DownloadRef > 0 {
		downloads = float64(ext.DownloadCount) / stats.DownloadRef
	}

	var recency float64
	if stats.TimestampRef > 0 {
		recency = ext.PublishedAt.UTC().Sub(stats.Oldest).Seconds() / stats.TimestampRef
	}

	value := s.weights.Rating*clamp01(rating) +
		s.weights.Downloads*clamp01(downloads) +
		s.weights.Timestamp*clamp01(recency)

	if !ext.Verified {
		value *= s.weights.Unverified
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		s.logger.Error("invalid relevance score",
			zap.String("extension", ext.ExtensionID()),
			zap.Float64("download_ref", stats.DownloadRef),
			zap.Float64("timestamp_ref", stats.TimestampRef),
		)
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}

// saturate maps a review count to a confidence factor in [0, 1).
func saturate(n int64) float64 {
	if n <= 0 {
		return 0
	}
	return 1 - 1/(float64(n)*saturationFactor+1)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
