package index

import (
	"fmt"
	"strings"

	"github.com/openmkt/extdex/internal/db"
	"github.com/openmkt/extdex/internal/domain/search/query"
)

// Fuzzy matching widens with term length: short terms stay exact, from
// four characters one edit is tolerated, from eight characters two.
const (
	fuzzyOneDistanceLen = 4
	fuzzyTwoDistanceLen = 8
)

// buildQuery translates validated options into engine query syntax.
func buildQuery(opts *query.Options) string {
	var parts []string
	if q := opts.Query(); q != "" {
		parts = append(parts, textClause(q))
	}
	if c := opts.Category(); c != "" {
		parts = append(parts, "@categories:{"+db.EscapeTag(c)+"}")
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// textClause builds the scored union of match strategies for a text
// query. Clause weights layer on top of the schema field weights: an
// exact extension identifier beats everything, fuzzy multi-field
// matches beat plain prefix matches.
func textClause(q string) string {
	clauses := []string{
		fmt.Sprintf("(@extension_id:{%s})=>{$weight: 10.0;}", db.EscapeTag(q)),
		fmt.Sprintf("(@namespace|name|display_name|description|tags:(%s))=>{$weight: 5.0;}", fuzzyTerms(q)),
		fmt.Sprintf("(@display_name:(%s*))=>{$weight: 2.0;}", db.EscapeTerm(q)),
		fmt.Sprintf("@namespace:(%s*)", db.EscapeTerm(q)),
	}
	return "(" + strings.Join(clauses, " | ") + ")"
}

// fuzzyTerms escapes each whitespace-separated term and wraps it in
// length-scaled fuzzy markers.
func fuzzyTerms(q string) string {
	terms := strings.Fields(q)
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		escaped := db.EscapeTerm(t)
		switch {
		case len(t) >= fuzzyTwoDistanceLen:
			escaped = "%%" + escaped + "%%"
		case len(t) >= fuzzyOneDistanceLen:
			escaped = "%" + escaped + "%"
		}
		out = append(out, escaped)
	}
	return strings.Join(out, " ")
}
