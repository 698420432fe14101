package collections

import (
	"fmt"
	"sort"
	"strings"
)

// Query is a compiled query program: text in the backend's AQL-like query
// language plus the bind variables it references.
type Query struct {
	AQL      string
	BindVars map[string]any
}

// filterEntry is one appended (field, filter) pair, retained in insertion
// order for deterministic query emission.
type filterEntry struct {
	field  string
	filter Filter
}

// FilterSetOption configures a FilterSet at construction time.
type FilterSetOption func(*FilterSet)

// FilterSet accumulates per-field filters for a single collection and load
// version and compiles them into a Query. It is mutable only via Append;
// all other configuration is supplied at construction time.
type FilterSet struct {
	collectionID    string
	loadVer         string
	view            string
	collection      string
	count           bool
	startAfter      string
	sortOn          string
	sortDescending  bool
	conjunction     bool
	matchSpec       SubsetSpecification
	selectionSpec   SubsetSpecification
	skip            int
	limit           int
	keep            []string
	keepFilterNulls bool
	docVar          string

	filters    []filterEntry
	fieldIndex map[string]int
}

// WithView sets the ArangoSearch view to query. Required if any filters
// are appended to the FilterSet.
func WithView(view string) FilterSetOption {
	return func(fs *FilterSet) { fs.view = view }
}

// WithCollection sets the plain collection to query. Required if no
// filters are appended to the FilterSet.
func WithCollection(collection string) FilterSetOption {
	return func(fs *FilterSet) { fs.collection = collection }
}

// WithCount makes the compiled query return a document count instead of
// documents.
func WithCount(count bool) FilterSetOption {
	return func(fs *FilterSet) { fs.count = count }
}

// WithStartAfter skips records up to and including this value of the
// sort_on field. Requires WithSortOn. Not implemented for filtered
// queries (spec.md's generic-view/scan distinction); only affects the
// standard scan path.
func WithStartAfter(startAfter string) FilterSetOption {
	return func(fs *FilterSet) { fs.startAfter = startAfter }
}

// WithSort sets the field to sort on and the sort direction.
func WithSort(field string, descending bool) FilterSetOption {
	return func(fs *FilterSet) {
		fs.sortOn = field
		fs.sortDescending = descending
	}
}

// WithConjunction controls whether appended filters are ANDed (true,
// the default) or ORed (false) together.
func WithConjunction(conjunction bool) FilterSetOption {
	return func(fs *FilterSet) { fs.conjunction = conjunction }
}

// WithMatchSpec restricts the query to a previously-computed match
// subset.
func WithMatchSpec(spec SubsetSpecification) FilterSetOption {
	return func(fs *FilterSet) { fs.matchSpec = spec }
}

// WithSelectionSpec restricts the query to a previously-computed
// selection subset.
func WithSelectionSpec(spec SubsetSpecification) FilterSetOption {
	return func(fs *FilterSet) { fs.selectionSpec = spec }
}

// WithSkip sets the number of matching records to skip before returning
// results.
func WithSkip(skip int) FilterSetOption {
	return func(fs *FilterSet) { fs.skip = skip }
}

// WithLimit sets the maximum number of records to return. A limit of
// zero means unlimited.
func WithLimit(limit int) FilterSetOption {
	return func(fs *FilterSet) { fs.limit = limit }
}

// WithKeep restricts the returned document fields to keep, optionally
// filtering out documents where any kept field is null.
func WithKeep(keep []string, filterNulls bool) FilterSetOption {
	return func(fs *FilterSet) {
		fs.keep = keep
		fs.keepFilterNulls = filterNulls
	}
}

// WithDocVar overrides the variable name used for the document under
// iteration in emitted AQL. Defaults to "doc".
func WithDocVar(docVar string) FilterSetOption {
	return func(fs *FilterSet) { fs.docVar = docVar }
}

// NewFilterSet constructs an empty FilterSet for the given collection and
// load version. At least one of WithView or WithCollection must
// ultimately be satisfiable: a view is required once any filter is
// appended, a collection is required if none ever are.
func NewFilterSet(collectionID, loadVer string, opts ...FilterSetOption) (*FilterSet, error) {
	cid, err := requireString(collectionID, "collection_id is required")
	if err != nil {
		return nil, err
	}
	lv, err := requireString(loadVer, "load_ver is required")
	if err != nil {
		return nil, err
	}
	fs := &FilterSet{
		collectionID: cid,
		loadVer:      lv,
		conjunction:  true,
		limit:        1000,
		docVar:       "doc",
		fieldIndex:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(fs)
	}
	fs.view = strings.TrimSpace(fs.view)
	fs.collection = strings.TrimSpace(fs.collection)
	if fs.view == "" && fs.collection == "" {
		return nil, NewValueError("At least one of a view or a collection is required")
	}
	fs.sortOn = strings.TrimSpace(fs.sortOn)
	fs.startAfter = strings.TrimSpace(fs.startAfter)
	if fs.startAfter != "" && fs.sortOn == "" {
		return nil, NewValueError("If start_after is supplied sort_on must be supplied")
	}
	if fs.skip < 0 {
		return nil, NewValueError("skip must be >= 0")
	}
	if fs.limit < 0 {
		return nil, NewValueError("limit must be >= 0")
	}
	for _, k := range fs.keep {
		if strings.TrimSpace(k) == "" {
			return nil, NewValueError("Falsy value in keep")
		}
	}
	fs.docVar, err = requireString(fs.docVar, "doc_var is required")
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// Len reports the number of filters appended so far.
func (fs *FilterSet) Len() int {
	return len(fs.filters)
}

// Append adds a filter on field to the FilterSet, parsing filterString
// according to colType (and, for string columns, strategy). analyzer is
// ignored for non-string columns. Appending a second filter for the same
// field is an error. Returns the FilterSet for chaining.
func (fs *FilterSet) Append(field string, colType ColumnType, filterString, analyzer string, strategy FilterStrategy) (*FilterSet, error) {
	field, err := requireString(field, "field is required")
	if err != nil {
		return nil, err
	}
	if _, ok := fs.fieldIndex[field]; ok {
		return nil, NewIllegalParameterError("Filter for field %s was provided more than once", field)
	}
	filter, err := parseFilterForColumn(colType, filterString, analyzer, strategy)
	if err != nil {
		return nil, wrapForField(field, err)
	}
	fs.fieldIndex[field] = len(fs.filters)
	fs.filters = append(fs.filters, filterEntry{field: field, filter: filter})
	return fs, nil
}

func parseFilterForColumn(colType ColumnType, filterString, analyzer string, strategy FilterStrategy) (Filter, error) {
	switch {
	case colType.IsRange():
		return ParseRangeFilter(colType, filterString)
	case colType == ColumnTypeString:
		return ParseStringFilter(strategy, filterString, analyzer)
	case colType == ColumnTypeBool:
		return ParseBooleanFilter(filterString)
	default:
		return nil, NewValueError("Unsupported column type: %s", colType)
	}
}

// ToQuery compiles the accumulated filters (if any) plus the FilterSet's
// configuration into a Query. If no filters have been appended the
// standard-scan backend is used and WithCollection is required; otherwise
// the ArangoSearch backend is used and WithView is required.
func (fs *FilterSet) ToQuery() (Query, error) {
	if len(fs.filters) > 0 {
		return fs.toSearchViewQuery()
	}
	return fs.toScanQuery()
}

func (fs *FilterSet) toScanQuery() (Query, error) {
	if fs.collection == "" {
		return Query{}, NewValueError(
			"If no filters are added to the filter set the collection argument is required in the constructor")
	}
	bindVars := map[string]any{
		"@collection": fs.collection,
		"collid":      fs.collectionID,
		"load_ver":    fs.loadVer,
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FOR %s IN @@collection\n", fs.docVar)
	fmt.Fprintf(&b, "    FILTER %s.%s == @collid\n", fs.docVar, FieldCollectionID)
	fmt.Fprintf(&b, "    FILTER %s.%s == @load_ver\n", fs.docVar, FieldLoadVersion)
	fs.writeScanKeepNullFilters(&b, "    ", bindVars)
	fs.writeSubsetFilters(&b, "    ", bindVars)
	if fs.count {
		b.WriteString("    COLLECT WITH COUNT INTO length\n")
		b.WriteString("    RETURN length\n")
	} else {
		if fs.startAfter != "" {
			fmt.Fprintf(&b, "    FILTER %s.@sort > @start_after\n", fs.docVar)
			bindVars["start_after"] = fs.startAfter
		}
		fs.writeSortSkipLimit(&b, bindVars)
		fs.writeReturn(&b, bindVars)
	}
	return Query{AQL: b.String(), BindVars: bindVars}, nil
}

func (fs *FilterSet) toSearchViewQuery() (Query, error) {
	if fs.view == "" {
		return Query{}, NewValueError(
			"If a filter is added to the filter set the view argument is required in the constructor")
	}
	varLines, aqlGroups, bindVars := fs.processFilters()

	var b strings.Builder
	if len(varLines) > 0 {
		b.WriteString(strings.Join(varLines, "\n"))
		b.WriteByte('\n')
	}
	if fs.count {
		b.WriteString("RETURN COUNT(")
	}
	fmt.Fprintf(&b, "FOR %s IN @@view", fs.docVar)
	b.WriteString("\n    SEARCH (\n")
	fmt.Fprintf(&b, "        %s.%s == @collid\n", fs.docVar, FieldCollectionID)
	b.WriteString("        AND\n")
	fmt.Fprintf(&b, "        %s.%s == @load_ver\n", fs.docVar, FieldLoadVersion)
	fs.writeSearchKeepNullConjuncts(&b, "        ", bindVars, "        AND\n")
	if id, ok := fs.matchSpec.FilteringID(); ok && !fs.matchSpec.MarkOnly {
		bindVars["internal_match_id"] = id
		b.WriteString("        AND\n")
		fmt.Fprintf(&b, "        %s.%s == @internal_match_id\n", fs.docVar, FieldMatchesSelections)
	}
	if id, ok := fs.selectionSpec.FilteringID(); ok {
		bindVars["internal_selection_id"] = id
		b.WriteString("        AND\n")
		fmt.Fprintf(&b, "        %s.%s == @internal_selection_id\n", fs.docVar, FieldMatchesSelections)
	}
	b.WriteString("    ) AND (\n    ")
	op := "AND"
	if !fs.conjunction {
		op = "OR"
	}
	aqlParts := make([]string, len(aqlGroups))
	for i, g := range aqlGroups {
		aqlParts[i] = strings.Join(g, "\n            ")
	}
	b.WriteString(strings.Join(aqlParts, fmt.Sprintf("\n        %s\n    ", op)))
	b.WriteString("\n    )\n")
	if !fs.count {
		fs.writeSortSkipLimit(&b, bindVars)
	}
	fs.writeReturn(&b, bindVars)
	if fs.count {
		b.WriteString(")\n")
	}
	return Query{AQL: b.String(), BindVars: bindVars}, nil
}

// processFilters emits each appended filter's SearchQueryPart under a
// unique "vN_" prefix, in append order, and merges their bind vars with
// the FilterSet's own.
func (fs *FilterSet) processFilters() (varLines []string, aqlGroups [][]string, bindVars map[string]any) {
	bindVars = map[string]any{
		"@view":    fs.view,
		"collid":   fs.collectionID,
		"load_ver": fs.loadVer,
	}
	for i, entry := range fs.filters {
		prefix := fmt.Sprintf("v%d_", i+1)
		identifier := fmt.Sprintf("%s.%s", fs.docVar, entry.field)
		part := entry.filter.Emit(identifier, prefix)
		if len(part.VariableAssignments) > 0 {
			vars := make([]string, 0, len(part.VariableAssignments))
			for v := range part.VariableAssignments {
				vars = append(vars, v)
			}
			sort.Strings(vars)
			for _, v := range vars {
				varLines = append(varLines, fmt.Sprintf("LET %s = %s", v, part.VariableAssignments[v]))
			}
		}
		if len(part.AQLLines) > 1 {
			group := make([]string, 0, len(part.AQLLines)+2)
			group = append(group, "(")
			for _, l := range part.AQLLines {
				group = append(group, "    "+l)
			}
			group = append(group, ")")
			aqlGroups = append(aqlGroups, group)
		} else {
			aqlGroups = append(aqlGroups, []string{"    " + part.AQLLines[0]})
		}
		for k, v := range part.BindVars {
			bindVars[k] = v
		}
	}
	return varLines, aqlGroups, bindVars
}

// writeScanKeepNullFilters emits one standalone FILTER statement per kept
// field for the plain document-scan backend, where each clause is its own
// AQL statement rather than a conjunct inside a SEARCH expression.
func (fs *FilterSet) writeScanKeepNullFilters(b *strings.Builder, indent string, bindVars map[string]any) {
	if !fs.keepFilterNulls {
		return
	}
	for i, k := range fs.keep {
		fmt.Fprintf(b, "%sFILTER %s.@keep%d != null\n", indent, fs.docVar, i)
		bindVars[fmt.Sprintf("keep%d", i)] = k
	}
}

// writeSearchKeepNullConjuncts emits one bare conjunct per kept field for
// the ArangoSearch backend. These live inside a SEARCH(...) boolean
// expression, so unlike the scan path they carry no FILTER keyword of
// their own; andLine is written ahead of every conjunct, including the
// first, to join it to the clause that precedes it.
func (fs *FilterSet) writeSearchKeepNullConjuncts(b *strings.Builder, indent string, bindVars map[string]any, andLine string) {
	if !fs.keepFilterNulls {
		return
	}
	for i, k := range fs.keep {
		b.WriteString(andLine)
		fmt.Fprintf(b, "%s%s.@keep%d != null\n", indent, fs.docVar, i)
		bindVars[fmt.Sprintf("keep%d", i)] = k
	}
}

func (fs *FilterSet) writeSubsetFilters(b *strings.Builder, indent string, bindVars map[string]any) {
	matchsel := fmt.Sprintf("%s.%s", fs.docVar, FieldMatchesSelections)
	if id, ok := fs.matchSpec.FilteringID(); ok && !fs.matchSpec.MarkOnly {
		bindVars["internal_match_id"] = id
		fmt.Fprintf(b, "%sFILTER @internal_match_id IN %s\n", indent, matchsel)
	}
	if id, ok := fs.selectionSpec.FilteringID(); ok {
		bindVars["internal_selection_id"] = id
		fmt.Fprintf(b, "%sFILTER @internal_selection_id IN %s\n", indent, matchsel)
	}
}

func (fs *FilterSet) writeSortSkipLimit(b *strings.Builder, bindVars map[string]any) {
	if fs.sortOn != "" {
		fmt.Fprintf(b, "    SORT %s.@sort @sortdir\n", fs.docVar)
		bindVars["sort"] = fs.sortOn
		dir := "ASC"
		if fs.sortDescending {
			dir = "DESC"
		}
		bindVars["sortdir"] = dir
	}
	if fs.skip != 0 || fs.limit != 0 {
		b.WriteString("    LIMIT @skip, @limit\n")
		bindVars["skip"] = fs.skip
		limit := fs.limit
		if limit <= 0 {
			limit = unboundedLimit
		}
		bindVars["limit"] = limit
	}
}

func (fs *FilterSet) writeReturn(b *strings.Builder, bindVars map[string]any) {
	if len(fs.keep) > 0 {
		fmt.Fprintf(b, "    RETURN KEEP(%s, @keep)\n", fs.docVar)
		bindVars["keep"] = fs.keep
	} else {
		fmt.Fprintf(b, "    RETURN %s\n", fs.docVar)
	}
}
