package collections

import "strings"

// genericViewNameSuffix is appended to a data product name to form its
// generic view name.
const genericViewNameSuffix = "_generic_view"

// genericViewProducts is the closed set of data products whose results
// are served from a generic view rather than a per-product collection.
var genericViewProducts = map[string]bool{
	"microtrait": true,
	"biolog":     true,
}

// kbaseDisplayNameField is the one column common to every generic view,
// searchable via the ngram strategy.
const kbaseDisplayNameField = "kbase_display_name"

// CreateGenericSpec returns the column spec common to every generic view:
// the display-name field, searchable by ngram match. Generic-view products
// otherwise describe their remaining fields through the ordinary
// per-collection spec files.
func CreateGenericSpec() ColumnarAttributesSpec {
	strategy := FilterStrategyNgram
	return ColumnarAttributesSpec{
		Columns: []AttributesColumnSpec{
			{
				Key:            kbaseDisplayNameField,
				Type:           ColumnTypeString,
				FilterStrategy: &strategy,
				// No display metadata is defined for this field in the
				// generic spec; it is exposed to clients as a non-visible
				// search-only column.
				NonVisible: true,
			},
		},
	}
}

// IsGenericViewProduct reports whether dataProduct's results are served
// from a generic view.
func IsGenericViewProduct(dataProduct string) bool {
	return genericViewProducts[dataProduct]
}

// GetGenericViewName returns the generic view name for dataProduct.
func GetGenericViewName(dataProduct string) string {
	return strings.TrimSpace(dataProduct) + genericViewNameSuffix
}
