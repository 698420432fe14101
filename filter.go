package collections

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultAnalyzer = "identity"

// SearchQueryPart is the fragment of query program produced by a single
// filter's Emit method.
type SearchQueryPart struct {
	// VariableAssignments maps a temporary variable name to the AQL
	// expression that must be assigned to it (via a leading LET line)
	// before the search predicate that references it runs.
	VariableAssignments map[string]string
	// AQLLines holds one or more lines of ArangoSearch AQL representing
	// the filter's predicate.
	AQLLines []string
	// BindVars holds the bind variables referenced by AQLLines and
	// VariableAssignments.
	BindVars map[string]any
}

// Filter is the closed family of column filters: RangeFilter, StringFilter,
// and BooleanFilter. Implementations are immutable once parsed.
type Filter interface {
	// Emit converts the filter into a SearchQueryPart. identifier is the
	// fully-qualified document field, e.g. "doc.classification", spliced
	// verbatim into the predicate. prefix is applied to every variable
	// name, including bind variables, to avoid collisions between
	// multiple filters sharing one query.
	Emit(identifier, prefix string) SearchQueryPart
}

// --- BooleanFilter ---

// BooleanFilter filters on an exact boolean value.
type BooleanFilter struct {
	Value bool
}

// ParseBooleanFilter parses a case-insensitive "true"/"false" string.
func ParseBooleanFilter(s string) (*BooleanFilter, error) {
	trimmed, err := requireString(s, "Missing boolean string information")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return &BooleanFilter{Value: true}, nil
	case "false":
		return &BooleanFilter{Value: false}, nil
	default:
		return nil, NewIllegalParameterError("Invalid boolean specification; expected true or false: %s", strings.ToLower(trimmed))
	}
}

func (b *BooleanFilter) Emit(identifier, prefix string) SearchQueryPart {
	bv := prefix + "bool_value"
	return SearchQueryPart{
		AQLLines: []string{fmt.Sprintf("%s == @%s", identifier, bv)},
		BindVars: map[string]any{bv: b.Value},
	}
}

// --- RangeFilter ---

// RangeFilter filters a numeric or date column to a range. At least one
// endpoint must be present. Numeric endpoints are stored as float64 to
// cover both int and float columns uniformly; date endpoints are kept as
// the caller-provided ISO-8601 string since downstream comparison is
// lexicographic on the canonical form.
type RangeFilter struct {
	ColumnType    ColumnType
	Low           *float64
	High          *float64
	LowStr        *string // set instead of Low/High when ColumnType is date
	HighStr       *string
	LowInclusive  bool
	HighInclusive bool
}

// NewRangeFilter constructs and validates a RangeFilter from already
// type-appropriate endpoint values (nil means "no constraint on that
// side"). For date columns pass the ISO-8601 string endpoints via
// NewDateRangeFilter instead.
func NewRangeFilter(colType ColumnType, low, high *float64, lowIncl, highIncl bool) (*RangeFilter, error) {
	if !colType.IsRange() {
		return nil, NewValueError("Invalid type for range filter: %s", colType)
	}
	rf := &RangeFilter{ColumnType: colType, Low: low, High: high, LowInclusive: lowIncl, HighInclusive: highIncl}
	if err := rf.validate(); err != nil {
		return nil, err
	}
	return rf, nil
}

// NewDateRangeFilter constructs and validates a date RangeFilter from
// ISO-8601 string endpoints.
func NewDateRangeFilter(low, high *string, lowIncl, highIncl bool) (*RangeFilter, error) {
	for _, v := range []*string{low, high} {
		if v == nil {
			continue
		}
		if _, err := parseISO8601(*v); err != nil {
			return nil, NewIllegalParameterError("range endpoint value is not an ISO8601 date: %s", *v)
		}
	}
	rf := &RangeFilter{ColumnType: ColumnTypeDate, LowStr: low, HighStr: high, LowInclusive: lowIncl, HighInclusive: highIncl}
	if err := rf.validate(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (r *RangeFilter) validate() error {
	if r.ColumnType == ColumnTypeDate {
		if r.LowStr == nil && r.HighStr == nil {
			return NewIllegalParameterError("At least one of the low or high values for the filter range must be provided")
		}
		if r.LowStr != nil && r.HighStr != nil {
			if *r.LowStr > *r.HighStr || (*r.LowStr == *r.HighStr && (!r.LowInclusive || !r.HighInclusive)) {
				return NewIllegalParameterError("The filter range %s excludes all values", r.ToRangeString())
			}
		}
		return nil
	}
	if r.Low == nil && r.High == nil {
		return NewIllegalParameterError("At least one of the low or high values for the filter range must be provided")
	}
	if r.Low != nil && r.High != nil {
		if *r.Low > *r.High || (*r.Low == *r.High && (!r.LowInclusive || !r.HighInclusive)) {
			return NewIllegalParameterError("The filter range %s excludes all values", r.ToRangeString())
		}
	}
	return nil
}

// ToRangeString renders the filter back into its canonical textual form,
// e.g. "[-1.0,32.0)". Parsing this string for the same column type
// reproduces an equal RangeFilter.
func (r *RangeFilter) ToRangeString() string {
	var b strings.Builder
	if r.ColumnType == ColumnTypeDate {
		if r.LowStr != nil {
			b.WriteString(inclOpen(r.LowInclusive))
			b.WriteString(*r.LowStr)
		}
		b.WriteByte(',')
		if r.HighStr != nil {
			b.WriteString(*r.HighStr)
			b.WriteString(inclClose(r.HighInclusive))
		}
		return b.String()
	}
	if r.Low != nil {
		b.WriteString(inclOpen(r.LowInclusive))
		b.WriteString(formatFloat(*r.Low))
	}
	b.WriteByte(',')
	if r.High != nil {
		b.WriteString(formatFloat(*r.High))
		b.WriteString(inclClose(r.HighInclusive))
	}
	return b.String()
}

func inclOpen(incl bool) string {
	if incl {
		return "["
	}
	return "("
}

func inclClose(incl bool) string {
	if incl {
		return "]"
	}
	return ")"
}

// formatFloat renders f in plain decimal notation, always with a decimal
// point ("1.0", "0.2"), matching Python's str(float) and so the canonical
// range strings the original implementation produces (and that error
// messages quote verbatim). Exponent notation is never used, so values
// that Python prints in exponent form (e.g. 1e+16) are written out in
// full here instead.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseRangeFilter parses a filter string like "[-1, 20)". '[' or ']' mean
// the range is inclusive at the low and/or high end respectively; '(' or
// ')' (or omitted) mean exclusive. An omitted endpoint means no limit on
// that side; at least one limit is required. Exactly one comma separates
// the two endpoints.
func ParseRangeFilter(colType ColumnType, s string) (*RangeFilter, error) {
	trimmed, err := requireString(s, "Missing range information")
	if err != nil {
		return nil, err
	}
	if !colType.IsRange() {
		return nil, NewValueError("Invalid type for range filter: %s", colType)
	}
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return nil, NewIllegalParameterError("Invalid range specification; expected exactly one comma: %s", trimmed)
	}
	lowRaw, lowIncl := parseInclusivity(strings.TrimSpace(parts[0]), true)
	highRaw, highIncl := parseInclusivity(strings.TrimSpace(parts[1]), false)

	if colType == ColumnTypeDate {
		var low, high *string
		if lowRaw != "" {
			if _, err := parseISO8601(lowRaw); err != nil {
				return nil, NewIllegalParameterError("low range endpoint value is not an ISO8601 date: %s", lowRaw)
			}
			low = &lowRaw
		}
		if highRaw != "" {
			if _, err := parseISO8601(highRaw); err != nil {
				return nil, NewIllegalParameterError("high range endpoint value is not an ISO8601 date: %s", highRaw)
			}
			high = &highRaw
		}
		return NewDateRangeFilter(low, high, lowIncl, highIncl)
	}

	var low, high *float64
	if lowRaw != "" {
		v, err := strconv.ParseFloat(lowRaw, 64)
		if err != nil {
			return nil, NewIllegalParameterError("low range endpoint value is not a number: %s", lowRaw)
		}
		low = &v
	}
	if highRaw != "" {
		v, err := strconv.ParseFloat(highRaw, 64)
		if err != nil {
			return nil, NewIllegalParameterError("high range endpoint value is not a number: %s", highRaw)
		}
		high = &v
	}
	return NewRangeFilter(colType, low, high, lowIncl, highIncl)
}

func parseInclusivity(part string, start bool) (string, bool) {
	inclusive := false
	if start {
		if strings.HasPrefix(part, "[") {
			inclusive = true
		}
		if strings.HasPrefix(part, "(") || strings.HasPrefix(part, "[") {
			part = part[1:]
		}
	} else {
		if strings.HasSuffix(part, "]") {
			inclusive = true
		}
		if strings.HasSuffix(part, ")") || strings.HasSuffix(part, "]") {
			part = part[:len(part)-1]
		}
	}
	return part, inclusive
}

// parseISO8601 accepts the common ISO-8601 profiles emitted by the loaders
// that populate this system, including the "+0000" (no colon) numeric
// offset form alongside RFC3339.
func parseISO8601(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02",
	}
	var lastErr error
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func (r *RangeFilter) Emit(identifier, prefix string) SearchQueryPart {
	bvLow := prefix + "low"
	bvHigh := prefix + "high"
	low, high, hasLow, hasHigh := r.endpoints()
	switch {
	case hasLow && hasHigh:
		return SearchQueryPart{
			AQLLines: []string{fmt.Sprintf("IN_RANGE(%s, @%s, @%s, %s, %s)",
				identifier, bvLow, bvHigh, boolStr(r.LowInclusive), boolStr(r.HighInclusive))},
			BindVars: map[string]any{bvLow: low, bvHigh: high},
		}
	case hasLow:
		op := ">"
		if r.LowInclusive {
			op = ">="
		}
		return SearchQueryPart{
			AQLLines: []string{fmt.Sprintf("%s %s @%s", identifier, op, bvLow)},
			BindVars: map[string]any{bvLow: low},
		}
	default:
		op := "<"
		if r.HighInclusive {
			op = "<="
		}
		return SearchQueryPart{
			AQLLines: []string{fmt.Sprintf("%s %s @%s", identifier, op, bvHigh)},
			BindVars: map[string]any{bvHigh: high},
		}
	}
}

// endpoints returns the endpoint values as `any` (float64 for numeric
// columns, string for date columns) along with presence flags.
func (r *RangeFilter) endpoints() (low, high any, hasLow, hasHigh bool) {
	if r.ColumnType == ColumnTypeDate {
		if r.LowStr != nil {
			low, hasLow = *r.LowStr, true
		}
		if r.HighStr != nil {
			high, hasHigh = *r.HighStr, true
		}
		return
	}
	if r.Low != nil {
		low, hasLow = *r.Low, true
	}
	if r.High != nil {
		high, hasHigh = *r.High, true
	}
	return
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// --- StringFilter ---

// StringFilter filters a string column according to a matching strategy.
type StringFilter struct {
	Strategy FilterStrategy
	Needle   string
	Analyzer string
}

// ParseStringFilter constructs a StringFilter. The needle is the raw
// filter text, stripped of surrounding whitespace; it must be non-empty.
// If analyzer is empty or whitespace, it defaults to "identity".
func ParseStringFilter(strategy FilterStrategy, needle, analyzer string) (*StringFilter, error) {
	if strategy == "" {
		return nil, NewValueError("strategy is required")
	}
	if !strategy.Valid() {
		return nil, NewValueError("Unsupported filter strategy: %s", strategy)
	}
	trimmed, err := requireString(needle, "Filter string is required and must be non-whitespace only")
	if err != nil {
		return nil, err
	}
	a := strings.TrimSpace(analyzer)
	if a == "" {
		a = defaultAnalyzer
	}
	return &StringFilter{Strategy: strategy, Needle: trimmed, Analyzer: a}, nil
}

func (s *StringFilter) Emit(identifier, prefix string) SearchQueryPart {
	bindVar := prefix + "input"
	prefixVar := prefix + "prefixes"
	part := SearchQueryPart{BindVars: map[string]any{bindVar: s.Needle}}
	switch s.Strategy {
	case FilterStrategyIdentity:
		part.AQLLines = []string{fmt.Sprintf("%s == @%s", identifier, bindVar)}
	case FilterStrategyFullText:
		part.VariableAssignments = map[string]string{
			prefixVar: fmt.Sprintf("TOKENS(@%s, %q)", bindVar, s.Analyzer),
		}
		part.AQLLines = []string{fmt.Sprintf("ANALYZER(%s ALL == %s, %q)", prefixVar, identifier, s.Analyzer)}
	case FilterStrategyPrefix:
		part.VariableAssignments = map[string]string{
			prefixVar: fmt.Sprintf("TOKENS(@%s, %q)", bindVar, s.Analyzer),
		}
		part.AQLLines = []string{fmt.Sprintf(
			"ANALYZER(STARTS_WITH(%s, %s, LENGTH(%s)), %q)", identifier, prefixVar, prefixVar, s.Analyzer)}
	case FilterStrategyNgram:
		part.AQLLines = []string{fmt.Sprintf("NGRAM_MATCH(%s, @%s, 1, %q)", identifier, bindVar, s.Analyzer)}
	default:
		// Unreachable given strategy validation at parse time; present for
		// safety against future strategy additions.
		panic(fmt.Sprintf("collections: unexpected filter strategy: %s", s.Strategy))
	}
	return part
}

func requireString(s, errMsg string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", NewMissingParameterError("%s", errMsg)
	}
	return trimmed, nil
}
