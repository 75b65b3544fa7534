package domain

import "time"

// KeyPrefix namespaces every Redis key written by extdex.
const KeyPrefix = "extdex:"

// Extension is the searchable projection of an active marketplace
// extension. It is a transient snapshot assembled from the registry,
// not an authoritative record: Relevance is recomputed at every index
// write or fallback query, and entries for deactivated extensions are
// never produced.
type Extension struct {
	ID            int64
	Namespace     string
	Name          string
	DisplayName   string
	Description   string
	Tags          []string
	Categories    []string
	AverageRating *float64
	ReviewCount   int64
	DownloadCount int64
	PublishedAt   time.Time // timestamp of the latest active version
	PublisherID   int64     // user who published the latest version
	Verified      bool
	Relevance     float64 // computed, never authoritative
}

// ExtensionID returns the public "namespace.name" identifier used for
// exact-match boosting.
func (e *Extension) ExtensionID() string {
	return e.Namespace + "." + e.Name
}

// HasCategory reports exact category membership.
func (e *Extension) HasCategory(category string) bool {
	for _, c := range e.Categories {
		if c == category {
			return true
		}
	}
	return false
}
