package index

import (
	"strconv"
	"strings"

	"github.com/openmkt/extdex/internal/db"
	"github.com/openmkt/extdex/internal/domain"
)

// Engine resources. Every entry lives under one hash key so a single
// FT index with one prefix covers the whole corpus.
const (
	IndexName    = domain.KeyPrefix + "extensions:idx"
	entryPrefix  = domain.KeyPrefix + "extension:"
	rebuiltAtKey = domain.KeyPrefix + "index:rebuilt_at"
)

// listSeparator joins multi-valued fields inside hash entries. Tag
// fields in the schema split on the same character.
const listSeparator = "|"

// definition returns the FT schema. Text field weights encode the
// ranking priority of each match target: exact identifiers dominate,
// then name and display name, tags, namespace, and finally free-form
// description text.
func definition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        IndexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{entryPrefix},
		Fields: []db.IndexField{
			{Name: "id", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "extension_id", Type: db.IndexFieldTag},
			{Name: "namespace", Type: db.IndexFieldText, TextWeight: 2, TextNoStem: true},
			{Name: "name", Type: db.IndexFieldText, TextWeight: 5, TextNoStem: true},
			{Name: "display_name", Type: db.IndexFieldText, TextWeight: 5},
			{Name: "description", Type: db.IndexFieldText},
			{Name: "tags", Type: db.IndexFieldText, TextWeight: 3, TextNoStem: true},
			{Name: "categories", Type: db.IndexFieldTag, TagSeparator: listSeparator},
			{Name: "average_rating", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "download_count", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "timestamp", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "relevance", Type: db.IndexFieldNumeric, Sortable: true},
		},
	}
}

// sortField maps a public sort key onto its sortable schema field.
var sortField = map[string]string{
	"relevance":     "relevance",
	"timestamp":     "timestamp",
	"averageRating": "average_rating",
	"downloadCount": "download_count",
}

func entryKey(id int64) string {
	return entryPrefix + strconv.FormatInt(id, 10)
}

// entryFields flattens a scored snapshot into hash fields. Numeric
// fields are always present so SORTBY treats missing data as zero
// instead of dropping the entry.
func entryFields(ext *domain.Extension) map[string]string {
	var rating float64
	if ext.AverageRating != nil {
		rating = *ext.AverageRating
	}
	return map[string]string{
		"id":             strconv.FormatInt(ext.ID, 10),
		"extension_id":   ext.ExtensionID(),
		"namespace":      ext.Namespace,
		"name":           ext.Name,
		"display_name":   ext.DisplayName,
		"description":    ext.Description,
		"tags":           strings.Join(ext.Tags, " "),
		"categories":     strings.Join(ext.Categories, listSeparator),
		"average_rating": strconv.FormatFloat(rating, 'g', -1, 64),
		"download_count": strconv.FormatInt(ext.DownloadCount, 10),
		"timestamp":      strconv.FormatInt(ext.PublishedAt.UTC().Unix(), 10),
		"relevance":      strconv.FormatFloat(ext.Relevance, 'g', -1, 64),
	}
}
