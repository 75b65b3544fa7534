package query

import (
	"fmt"
	"strings"

	"github.com/openmkt/extdex/internal/domain"
)

// Sort keys accepted by search requests.
const (
	SortByRelevance     = "relevance"
	SortByTimestamp     = "timestamp"
	SortByRating        = "averageRating"
	SortByDownloadCount = "downloadCount"
)

// Sort directions accepted by search requests.
const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Search parameter limits.
const (
	MaxQueryLength = 4096
	DefaultSize    = 18
	MaxSize        = 200
)

// Options is a validated, immutable search request. Two Options built
// from the same inputs compare equal, so they are safe to use as cache
// or deduplication keys.
type Options struct {
	queryString        string
	category           string
	size               int
	offset             int
	sortOrder          string
	sortBy             string
	includeAllVersions bool
}

// New validates and normalizes search parameters.
// Defaults: size=18, sortOrder=desc, sortBy=relevance. Size is clamped
// to MaxSize; negative offsets are rejected. Unknown sort keys and
// directions are errors, not silently remapped.
func New(queryString, category string, size, offset int, sortOrder, sortBy string, includeAllVersions bool) (Options, error) {
	queryString = strings.TrimSpace(queryString)
	if len(queryString) > MaxQueryLength {
		return Options{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if offset < 0 {
		return Options{}, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidQuery)
	}
	switch sortOrder = strings.ToLower(sortOrder); sortOrder {
	case "":
		sortOrder = SortOrderDesc
	case SortOrderAsc, SortOrderDesc:
	default:
		return Options{}, fmt.Errorf("%w: invalid sortOrder: %q", domain.ErrInvalidQuery, sortOrder)
	}
	switch sortBy {
	case "":
		sortBy = SortByRelevance
	case SortByRelevance, SortByTimestamp, SortByRating, SortByDownloadCount:
	default:
		return Options{}, fmt.Errorf("%w: invalid sortBy: %q", domain.ErrInvalidQuery, sortBy)
	}

	return Options{
		queryString:        queryString,
		category:           strings.TrimSpace(category),
		size:               size,
		offset:             offset,
		sortOrder:          sortOrder,
		sortBy:             sortBy,
		includeAllVersions: includeAllVersions,
	}, nil
}

// Query returns the free-text query, trimmed. Empty means match all.
func (o *Options) Query() string { return o.queryString }

// Category returns the exact category filter. Empty means no filter.
func (o *Options) Category() string { return o.category }

// Size returns the requested page size.
func (o *Options) Size() int { return o.size }

// Offset returns the requested result offset.
func (o *Options) Offset() int { return o.offset }

// SortOrder returns "asc" or "desc".
func (o *Options) SortOrder() string { return o.sortOrder }

// SortBy returns the sort key.
func (o *Options) SortBy() string { return o.sortBy }

// IncludeAllVersions reports whether callers asked for every version of
// each match. It does not change which extensions match or their order.
func (o *Options) IncludeAllVersions() bool { return o.includeAllVersions }

// Page is a zero-based page request derived from an Options offset.
type Page struct {
	Number int
	Size   int
}

// PageOf converts the validated offset/size pair into a page request.
// Offsets that fall inside a page round down to that page's start.
func PageOf(o Options) Page {
	return Page{Number: o.Offset() / o.Size(), Size: o.Size()}
}
