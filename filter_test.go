package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRangeFilter_BothEndpoints(t *testing.T) {
	f, err := ParseRangeFilter(ColumnTypeInt, "[6,24]")
	require.NoError(t, err)
	assert.Equal(t, 6.0, *f.Low)
	assert.Equal(t, 24.0, *f.High)
	assert.True(t, f.LowInclusive)
	assert.True(t, f.HighInclusive)
	assert.Equal(t, "[6.0,24.0]", f.ToRangeString())
}

func TestParseRangeFilter_LowOnly(t *testing.T) {
	f, err := ParseRangeFilter(ColumnTypeFloat, "0.2,")
	require.NoError(t, err)
	require.NotNil(t, f.Low)
	assert.Equal(t, 0.2, *f.Low)
	assert.Nil(t, f.High)
	assert.False(t, f.LowInclusive)
}

func TestParseRangeFilter_HighOnlyInclusive(t *testing.T) {
	f, err := ParseRangeFilter(ColumnTypeDate, ",2023-09-13T18:51:19+0000]")
	require.NoError(t, err)
	assert.Nil(t, f.LowStr)
	require.NotNil(t, f.HighStr)
	assert.Equal(t, "2023-09-13T18:51:19+0000", *f.HighStr)
	assert.True(t, f.HighInclusive)
}

func TestParseRangeFilter_EmptyString(t *testing.T) {
	_, err := ParseRangeFilter(ColumnTypeInt, "   ")
	require.Error(t, err)
	assert.True(t, IsMissingParameter(err))
}

func TestParseRangeFilter_BothEndpointsMissing(t *testing.T) {
	_, err := ParseRangeFilter(ColumnTypeInt, ",")
	require.Error(t, err)
	assert.True(t, IsIllegalParameter(err))
}

func TestParseRangeFilter_NotExactlyOneComma(t *testing.T) {
	_, err := ParseRangeFilter(ColumnTypeInt, "1,2,3")
	require.Error(t, err)
	assert.True(t, IsIllegalParameter(err))
}

func TestParseRangeFilter_WrongColumnType(t *testing.T) {
	_, err := ParseRangeFilter(ColumnTypeString, "1,2")
	require.Error(t, err)
	assert.True(t, IsValueError(err))
}

func TestParseRangeFilter_ExcludesAllValues(t *testing.T) {
	// S5: exact error message reproduced from the original test fixtures.
	_, err := ParseRangeFilter(ColumnTypeInt, "(1,1)")
	require.Error(t, err)
	assert.True(t, IsIllegalParameter(err))
	assert.Equal(t, "[illegal_parameter] The filter range (1.0,1.0) excludes all values", err.Error())
}

func TestParseRangeFilter_LowEqualsHighBothInclusive(t *testing.T) {
	f, err := ParseRangeFilter(ColumnTypeInt, "[1,1]")
	require.NoError(t, err)
	assert.Equal(t, 1.0, *f.Low)
	assert.Equal(t, 1.0, *f.High)
}

func TestParseRangeFilter_LowGreaterThanHigh(t *testing.T) {
	_, err := ParseRangeFilter(ColumnTypeFloat, "[10,5]")
	require.Error(t, err)
	assert.True(t, IsIllegalParameter(err))
}

func TestRangeFilter_EmitBothEndpoints(t *testing.T) {
	f, err := ParseRangeFilter(ColumnTypeInt, "[6,24]")
	require.NoError(t, err)
	part := f.Emit("doc.rangefield", "v1_")
	assert.Equal(t, []string{"IN_RANGE(doc.rangefield, @v1_low, @v1_high, true, true)"}, part.AQLLines)
	assert.Equal(t, map[string]any{"v1_low": 6.0, "v1_high": 24.0}, part.BindVars)
}

func TestRangeFilter_EmitLowOnly(t *testing.T) {
	f, err := ParseRangeFilter(ColumnTypeFloat, "0.2,")
	require.NoError(t, err)
	part := f.Emit("doc.rangefield2", "v3_")
	assert.Equal(t, []string{"doc.rangefield2 > @v3_low"}, part.AQLLines)
	assert.Equal(t, map[string]any{"v3_low": 0.2}, part.BindVars)
}

func TestRangeFilter_ParseThenStringifyIsIdempotent(t *testing.T) {
	orig, err := ParseRangeFilter(ColumnTypeInt, "[6,24)")
	require.NoError(t, err)
	reparsed, err := ParseRangeFilter(ColumnTypeInt, orig.ToRangeString())
	require.NoError(t, err)
	assert.Equal(t, orig, reparsed)
}

func TestParseBooleanFilter(t *testing.T) {
	f, err := ParseBooleanFilter("TRUE")
	require.NoError(t, err)
	assert.True(t, f.Value)

	f, err = ParseBooleanFilter("false")
	require.NoError(t, err)
	assert.False(t, f.Value)

	_, err = ParseBooleanFilter("yes")
	require.Error(t, err)
	assert.True(t, IsIllegalParameter(err))

	_, err = ParseBooleanFilter("  ")
	require.Error(t, err)
	assert.True(t, IsMissingParameter(err))
}

func TestBooleanFilter_Emit(t *testing.T) {
	f, _ := ParseBooleanFilter("true")
	part := f.Emit("doc.active", "v1_")
	assert.Equal(t, []string{"doc.active == @v1_bool_value"}, part.AQLLines)
	assert.Equal(t, map[string]any{"v1_bool_value": true}, part.BindVars)
}

func TestParseStringFilter_DefaultsToIdentityAnalyzer(t *testing.T) {
	f, err := ParseStringFilter(FilterStrategyIdentity, " thingy ", "")
	require.NoError(t, err)
	assert.Equal(t, "thingy", f.Needle)
	assert.Equal(t, "identity", f.Analyzer)
}

func TestParseStringFilter_EmptyNeedle(t *testing.T) {
	_, err := ParseStringFilter(FilterStrategyIdentity, "   ", "identity")
	require.Error(t, err)
	assert.True(t, IsMissingParameter(err))
}

func TestStringFilter_EmitIdentity(t *testing.T) {
	f, _ := ParseStringFilter(FilterStrategyIdentity, "thingy", "identity")
	part := f.Emit("doc.strident", "v7_")
	assert.Equal(t, []string{"doc.strident == @v7_input"}, part.AQLLines)
	assert.Equal(t, map[string]any{"v7_input": "thingy"}, part.BindVars)
	assert.Empty(t, part.VariableAssignments)
}

func TestStringFilter_EmitFullText(t *testing.T) {
	f, _ := ParseStringFilter(FilterStrategyFullText, "whee", "text_rs")
	part := f.Emit("doc.fulltextfield", "v4_")
	assert.Equal(t, map[string]string{"v4_prefixes": `TOKENS(@v4_input, "text_rs")`}, part.VariableAssignments)
	assert.Equal(t, []string{`ANALYZER(v4_prefixes ALL == doc.fulltextfield, "text_rs")`}, part.AQLLines)
	assert.Equal(t, map[string]any{"v4_input": "whee"}, part.BindVars)
}

func TestStringFilter_EmitPrefix(t *testing.T) {
	f, _ := ParseStringFilter(FilterStrategyPrefix, "foobar", "text_en")
	part := f.Emit("doc.prefixfield", "v2_")
	assert.Equal(t, map[string]string{"v2_prefixes": `TOKENS(@v2_input, "text_en")`}, part.VariableAssignments)
	assert.Equal(t, []string{`ANALYZER(STARTS_WITH(doc.prefixfield, v2_prefixes, LENGTH(v2_prefixes)), "text_en")`}, part.AQLLines)
}

func TestStringFilter_EmitNgram(t *testing.T) {
	f, _ := ParseStringFilter(FilterStrategyNgram, "bitsnbobs", "ngram_stuff")
	part := f.Emit("doc.ngramfield", "v6_")
	assert.Equal(t, []string{`NGRAM_MATCH(doc.ngramfield, @v6_input, 1, "ngram_stuff")`}, part.AQLLines)
	assert.Equal(t, map[string]any{"v6_input": "bitsnbobs"}, part.BindVars)
	assert.Empty(t, part.VariableAssignments)
}

func TestParseISO8601_AcceptsNumericOffset(t *testing.T) {
	_, err := parseISO8601("2023-09-13T18:51:19+0000")
	require.NoError(t, err)
}

func TestParseISO8601_RejectsGarbage(t *testing.T) {
	_, err := parseISO8601("not-a-date")
	require.Error(t, err)
}
