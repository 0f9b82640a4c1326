package query

// Order specifies result ordering. The zero Descending value means
// ascending, matching the caller-facing default.
type Order struct {
	Column     string
	Descending bool
}

// Pagination selects a 1-based page of results.
type Pagination struct {
	Page     int
	PageSize int
}

// Offset returns the zero-based start row for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Options is the single request vocabulary every caller uses, regardless of
// entity type.
type Options struct {
	Select        string
	Filters       Filters
	Order         *Order
	Pagination    *Pagination
	Relationships []Relationship

	// Enabled, when pointing at false, short-circuits the read to an
	// empty zero-count result without touching the backend. Nil means
	// enabled.
	Enabled *bool
}

// Disabled reports whether the read was explicitly disabled.
func (o Options) Disabled() bool {
	return o.Enabled != nil && !*o.Enabled
}

// WithoutPagination returns a copy of the options with pagination removed,
// used by single-row and find-all reads.
func (o Options) WithoutPagination() Options {
	o.Pagination = nil
	return o
}
