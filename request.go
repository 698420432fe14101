package collections

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// filterParamPrefix is the query-parameter prefix that marks a parameter
// as a per-field filter specification, e.g. "filter_classification".
const filterParamPrefix = "filter_"

// FilterQueryParam is a single filter_* query parameter with its prefix
// stripped, field name resolved.
type FilterQueryParam struct {
	Field       string
	QueryString string
}

// ExtractFilterMap pulls the filter_* query parameters out of query,
// returning one FilterQueryParam per field (with the prefix stripped),
// ordered by field name. url.Values is itself a map and carries no
// record of the order its parameters appeared on the wire, so field
// name order is the best reproducible substitute: it guarantees the
// same request always compiles to the same bind-var names, which an
// unordered map iteration cannot. A field supplied more than once in
// the query string is an error.
func ExtractFilterMap(query url.Values) ([]FilterQueryParam, error) {
	fields := make([]string, 0, len(query))
	byField := make(map[string]string, len(query))
	for key, values := range query {
		field, ok := strings.CutPrefix(key, filterParamPrefix)
		if !ok {
			continue
		}
		if len(values) > 1 {
			return nil, NewIllegalParameterError("More than one filter specification provided for field %s", field)
		}
		fields = append(fields, field)
		byField[field] = values[0]
	}
	sort.Strings(fields)
	filters := make([]FilterQueryParam, len(fields))
	for i, field := range fields {
		filters[i] = FilterQueryParam{Field: field, QueryString: byField[field]}
	}
	return filters, nil
}

// KeepConstraint pairs a column that should be kept with the set of
// column types acceptable for the operation. A nil/empty Types means any
// type is acceptable.
type KeepConstraint struct {
	Types []ColumnType
}

// GetFiltersParams bundles the GetFilters call's configuration.
type GetFiltersParams struct {
	CollectionArango string
	CollectionID     string
	LoadVer          string
	LoadVerOverride  bool
	DataProduct      string
	Columns          []AttributesColumn
	ViewName         string
	Count            bool
	SortOn           string
	SortDescending   bool
	Conjunction      bool
	MatchSpec        SubsetSpecification
	SelectionSpec    SubsetSpecification
	Keep             map[string]KeepConstraint
	KeepFilterNulls  bool
	Skip             int
	Limit            int
	StartAfter       string
	// TransField, if set, rewrites a filter's field name (as it appeared
	// in the request, after stripping the filter_ prefix) into the
	// column key FilterSet.Append should use. Used when request field
	// names are positional or otherwise not valid column keys directly.
	TransField func(field string) string
}

// GetFilters builds a FilterSet from query's filter_* parameters and p's
// configuration, validating every referenced field against p.Columns and
// applying each strategy's minimum query length before parsing. storage
// is consulted to confirm a configured search view actually exists
// whenever any filter parameter is present.
func GetFilters(ctx context.Context, storage Storage, query url.Values, p GetFiltersParams) (*FilterSet, error) {
	filterQuery, err := ExtractFilterMap(query)
	if err != nil {
		return nil, err
	}

	if len(filterQuery) > 0 {
		if p.LoadVerOverride {
			return nil, NewValueError("Filtering is not supported with a load version override.")
		}
		if p.ViewName == "" {
			return nil, NewValueError(
				"No search view name configured for collection %s, data product %s. Cannot perform filtering operation",
				p.CollectionID, p.DataProduct)
		}
		exists, err := storage.HasSearchView(ctx, p.ViewName)
		if err != nil {
			return nil, fmt.Errorf("collections: checking search view %s: %w", p.ViewName, err)
		}
		if !exists {
			return nil, NewValueError("View %s does not exist for collection %s", p.ViewName, p.CollectionID)
		}
	}

	columns := make(map[string]AttributesColumn, len(p.Columns))
	for _, c := range p.Columns {
		columns[c.Key] = c
	}

	if p.SortOn != "" {
		if _, ok := columns[p.SortOn]; !ok {
			return nil, NewIllegalParameterError(
				"No such field for collection %s load version %s: %s", p.CollectionID, p.LoadVer, p.SortOn)
		}
	}
	keep := make([]string, 0, len(p.Keep))
	for col, constraint := range p.Keep {
		column, ok := columns[col]
		if !ok {
			return nil, NewIllegalParameterError(
				"No such field for collection %s load version %s: %s", p.CollectionID, p.LoadVer, col)
		}
		if len(constraint.Types) > 0 && !containsColumnType(constraint.Types, column.Type) {
			return nil, NewIllegalParameterError(
				"Column %s is type '%s', which is not one of the acceptable types for this operation: %v",
				col, column.Type, constraint.Types)
		}
		keep = append(keep, col)
	}

	fs, err := NewFilterSet(p.CollectionID, p.LoadVer,
		WithCollection(p.CollectionArango),
		WithView(p.ViewName),
		WithCount(p.Count),
		WithSort(p.SortOn, p.SortDescending),
		WithConjunction(p.Conjunction),
		WithMatchSpec(p.MatchSpec),
		WithSelectionSpec(p.SelectionSpec),
		WithKeep(keep, p.KeepFilterNulls),
		WithSkip(p.Skip),
		WithLimit(p.Limit),
		WithStartAfter(p.StartAfter),
	)
	if err != nil {
		return nil, err
	}
	return AppendFilters(fs, filterQuery, columns, p.TransField)
}

// AppendFilters appends one filter per entry in filterQuery to fs, in
// filterQuery's order, looking up each field's type, strategy, and
// analyzer from columns. transField, if non-nil, rewrites the field
// name immediately before it's passed to FilterSet.Append. Returns fs
// for chaining.
func AppendFilters(fs *FilterSet, filterQuery []FilterQueryParam, columns map[string]AttributesColumn, transField func(string) string) (*FilterSet, error) {
	for _, p := range filterQuery {
		field, queryString := p.Field, p.QueryString
		column, ok := columns[field]
		if !ok {
			return nil, NewIllegalParameterError("No such filter field: %s", field)
		}
		strategy := FilterStrategy("")
		if column.FilterStrategy != nil {
			strategy = *column.FilterStrategy
		}
		if minLen := MinimumQueryLength(strategy); minLen > 0 && len(queryString) < minLen {
			return nil, NewIllegalParameterError(
				"Filter field '%s' requires a minimum query length of %d", field, minLen)
		}

		targetField := field
		if transField != nil {
			targetField = transField(field)
		}
		if _, err := fs.Append(targetField, column.Type, queryString, Analyzer(strategy), strategy); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func containsColumnType(types []ColumnType, t ColumnType) bool {
	for _, ct := range types {
		if ct == t {
			return true
		}
	}
	return false
}
