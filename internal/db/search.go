package db

// SearchQuery is the input for an FT.SEARCH call. The query string is
// already in engine syntax; building it is the caller's job.
type SearchQuery struct {
	IndexName string
	Query     string

	// SortBy names a sortable schema field. Empty means order by the
	// engine's text score, in which case WithScores should be set so
	// Entries carry the score.
	SortBy        string
	SortAscending bool
	WithScores    bool

	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
