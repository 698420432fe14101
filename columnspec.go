package collections

import (
	"fmt"
	"time"
)

// AttributesColumnSpec is the specification for a single column in an
// attributes table.
type AttributesColumnSpec struct {
	Key            string          `json:"key"`
	Type           ColumnType      `json:"type"`
	FilterStrategy *FilterStrategy `json:"filter_strategy,omitempty"`
	NonVisible     bool            `json:"non_visible"`
	DisplayName    string          `json:"display_name,omitempty"`
	Category       string          `json:"category,omitempty"`
	Description    string          `json:"description,omitempty"`
}

// Validate enforces the invariants from the column schema model: a string
// column must name exactly one strategy, no other column type may have
// one, and a visible column requires a display name and category.
func (c AttributesColumnSpec) Validate() error {
	if c.Key == "" {
		return NewIllegalParameterError("column key is required")
	}
	if !c.Type.Valid() {
		return NewIllegalParameterError("column %s: invalid column type %q", c.Key, c.Type)
	}
	if c.Type == ColumnTypeString {
		if c.FilterStrategy == nil {
			return NewIllegalParameterError("column %s: string types require a filter strategy", c.Key)
		}
		if !c.FilterStrategy.Valid() {
			return NewIllegalParameterError("column %s: invalid filter strategy %q", c.Key, *c.FilterStrategy)
		}
	} else if c.FilterStrategy != nil {
		return NewIllegalParameterError("column %s: only string types may have a filter strategy", c.Key)
	}
	if !c.NonVisible {
		if c.DisplayName == "" || c.Category == "" {
			return NewIllegalParameterError(
				"column %s may not be non-visible and not have a display name or category", c.Key)
		}
	}
	return nil
}

// Equal reports whether two column specs are structurally identical. Used
// by ColumnarAttributesSpec.Merge to detect conflicting duplicate keys.
func (c AttributesColumnSpec) Equal(o AttributesColumnSpec) bool {
	if c.Key != o.Key || c.Type != o.Type || c.NonVisible != o.NonVisible ||
		c.DisplayName != o.DisplayName || c.Category != o.Category || c.Description != o.Description {
		return false
	}
	if (c.FilterStrategy == nil) != (o.FilterStrategy == nil) {
		return false
	}
	if c.FilterStrategy != nil && *c.FilterStrategy != *o.FilterStrategy {
		return false
	}
	return true
}

// ColumnarAttributesSpec is an ordered set of column specifications for a
// collection of a data product, plus optional provenance paths (local
// files or S3 object keys the spec was loaded from).
type ColumnarAttributesSpec struct {
	Columns   []AttributesColumnSpec `json:"columns"`
	SpecFiles []string               `json:"spec_files,omitempty"`
}

// Validate validates every column and rejects duplicate keys.
func (s ColumnarAttributesSpec) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.Key] {
			return NewIllegalParameterError("duplicate column key: %s", c.Key)
		}
		seen[c.Key] = true
	}
	return nil
}

// ByKey indexes the spec's columns by key.
func (s ColumnarAttributesSpec) ByKey() map[string]AttributesColumnSpec {
	m := make(map[string]AttributesColumnSpec, len(s.Columns))
	for _, c := range s.Columns {
		m[c.Key] = c
	}
	return m
}

// Merge unions this spec (for collection name `thisName`) with another
// (`otherName`). Keys present in both must be structurally equal or the
// merge fails naming both collections in the conflict.
func (s ColumnarAttributesSpec) Merge(thisName string, other ColumnarAttributesSpec, otherName string) (ColumnarAttributesSpec, error) {
	merged := ColumnarAttributesSpec{
		Columns:   make([]AttributesColumnSpec, 0, len(s.Columns)+len(other.Columns)),
		SpecFiles: append(append([]string{}, s.SpecFiles...), other.SpecFiles...),
	}
	byKey := make(map[string]AttributesColumnSpec, len(s.Columns))
	for _, c := range s.Columns {
		byKey[c.Key] = c
		merged.Columns = append(merged.Columns, c)
	}
	for _, c := range other.Columns {
		existing, ok := byKey[c.Key]
		if !ok {
			byKey[c.Key] = c
			merged.Columns = append(merged.Columns, c)
			continue
		}
		if !existing.Equal(c) {
			return ColumnarAttributesSpec{}, NewIllegalParameterError(
				"conflicting specification for column %s between collections %s and %s",
				c.Key, thisName, otherName)
		}
	}
	return merged, nil
}

// AttributesColumn extends AttributesColumnSpec with observed data: the
// min/max value for numeric and date columns, and the member list for
// enum columns.
type AttributesColumn struct {
	AttributesColumnSpec
	MinValue   any      `json:"min_value,omitempty"`
	MaxValue   any      `json:"max_value,omitempty"`
	EnumValues []string `json:"enum_values,omitempty"`
}

// Validate checks the supplemental invariants: enum columns must enumerate
// their values, and a present min/max must have the shape the column type
// requires.
func (a AttributesColumn) Validate() error {
	if err := a.AttributesColumnSpec.Validate(); err != nil {
		return err
	}
	if a.Type == ColumnTypeEnum && len(a.EnumValues) == 0 {
		return NewIllegalParameterError("column %s: enum columns must specify the enum values", a.Key)
	}
	if !a.Type.IsRange() {
		return nil
	}
	endpoints := []struct {
		label string
		val   any
	}{
		{"min_value", a.MinValue},
		{"max_value", a.MaxValue},
	}
	for _, e := range endpoints {
		if e.val == nil {
			// This endpoint may be null (e.g. all values in the column are
			// null); only a present endpoint needs shape validation.
			continue
		}
		if err := validateRangeShape(a.Type, e.label, e.val); err != nil {
			return NewIllegalParameterError("%s: %s is not valid for a %s column: %v", a.Key, e.label, a.Type, e.val)
		}
	}
	return nil
}

func validateRangeShape(t ColumnType, label string, val any) error {
	switch t {
	case ColumnTypeInt:
		switch val.(type) {
		case int, int32, int64:
			return nil
		}
		return fmt.Errorf("%s must be an integer", label)
	case ColumnTypeFloat:
		switch val.(type) {
		case float32, float64, int, int32, int64:
			return nil
		}
		return fmt.Errorf("%s must be a float", label)
	case ColumnTypeDate:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("%s must be an ISO8601 date string", label)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("%s must be a valid ISO8601 date: %w", label, err)
		}
		return nil
	}
	return nil
}

// ColumnarAttributesMeta is metadata about the columns in a table of
// attributes, returned to clients describing a data product's schema.
type ColumnarAttributesMeta struct {
	Columns []AttributesColumn `json:"columns"`
	Count   int64              `json:"count"`
}
