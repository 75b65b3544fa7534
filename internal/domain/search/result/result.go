package result

// Page is one page of a search response: the matching extension IDs in
// rank order plus the total number of matches across all pages.
type Page struct {
	ids   []int64
	total int64
}

// New creates a result page.
func New(ids []int64, total int64) Page {
	return Page{ids: ids, total: total}
}

// Empty returns a page with no matches.
func Empty() Page {
	return Page{}
}

// IDs returns the extension identifiers on this page, in rank order.
func (p *Page) IDs() []int64 { return p.ids }

// Total returns the number of matches across all pages.
func (p *Page) Total() int64 { return p.total }
