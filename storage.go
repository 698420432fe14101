package collections

import "context"

// SubsetSpecification identifies an externally-computed subset of
// documents (a match or a selection) that a FilterSet's query should be
// restricted to. The zero value specifies no subset.
type SubsetSpecification struct {
	// filteringID is the opaque ID written onto matching documents by
	// the subset's upstream computation, e.g. "doc.matches_selections".
	filteringID string
	// MarkOnly indicates the subset should not restrict results, only mark
	// which documents are members of it. It applies to the match side only:
	// a mark-only match spec adds no AQL filter clause, while a selection
	// spec adds its clause whether or not MarkOnly is set.
	MarkOnly bool
}

// NewSubsetSpecification builds a SubsetSpecification with the given
// filtering ID. An empty id is equivalent to the zero value.
func NewSubsetSpecification(filteringID string, markOnly bool) SubsetSpecification {
	return SubsetSpecification{filteringID: filteringID, MarkOnly: markOnly}
}

// FilteringID returns the subset's filtering ID and whether one is set.
// It does not itself account for MarkOnly: a mark-only spec still reports
// its ID here so a selection-side caller can use it, while a match-side
// caller must additionally check MarkOnly and suppress its own filter
// clause when set (see FilterSet's match-spec handling).
func (s SubsetSpecification) FilteringID() (string, bool) {
	return s.filteringID, s.filteringID != ""
}

// Storage is the external document search backend that a compiled Query
// runs against. This module never constructs one itself in production
// code paths other than cmd/server and cmd/tools; FilterSet and its
// callers depend only on this interface.
type Storage interface {
	// HasSearchView reports whether the named ArangoSearch view (or
	// equivalent) exists and is ready to be queried.
	HasSearchView(ctx context.Context, view string) (bool, error)

	// CreateAnalyzer installs or updates a named text analyzer with the
	// given definition. Definitions are backend-specific opaque JSON
	// documents; see analyzers.go for the ones this module installs.
	CreateAnalyzer(ctx context.Context, name string, definition []byte) error

	// Execute runs a compiled Query and returns the decoded result rows.
	// Each row is a flat field-name-to-value map mirroring the fields
	// requested via WithKeep, or the whole document if none were
	// requested.
	Execute(ctx context.Context, q Query) ([]map[string]any, error)
}
