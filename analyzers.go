package collections

import (
	"context"
	"encoding/json"
	"fmt"
)

// collectionPrefix namespaces custom analyzer names so they cannot
// collide with analyzers installed by other applications sharing the
// backend.
const collectionPrefix = "kbase_collections_"

const (
	fulltextAnalyzer = "text_en" // built in to the search backend
	prefixAnalyzer   = collectionPrefix + "text_en_prefix"
	ngramAnalyzer    = collectionPrefix + "en_ngram3"
	ngramMinLength   = 3
)

var strategyToAnalyzer = map[FilterStrategy]string{
	FilterStrategyFullText: fulltextAnalyzer,
	FilterStrategyPrefix:   prefixAnalyzer,
	FilterStrategyNgram:    ngramAnalyzer,
}

var strategyToMinLength = map[FilterStrategy]int{
	FilterStrategyNgram: ngramMinLength,
}

// Analyzer returns the name of the analyzer to use for a filter strategy,
// defaulting to the identity analyzer for strategies with none registered
// (identity itself, and any unrecognized value).
func Analyzer(strategy FilterStrategy) string {
	if a, ok := strategyToAnalyzer[strategy]; ok {
		return a
	}
	return defaultAnalyzer
}

// AnalyzerOrEmpty behaves like Analyzer but returns "" instead of the
// default analyzer name when strategy has no analyzer registered,
// letting a caller distinguish "uses the default" from "has a named
// analyzer" without string comparison against defaultAnalyzer.
func AnalyzerOrEmpty(strategy FilterStrategy) string {
	return strategyToAnalyzer[strategy]
}

// MinimumQueryLength returns the minimum allowable filter string length
// for a filter strategy. Strategies without a registered minimum return
// zero.
func MinimumQueryLength(strategy FilterStrategy) int {
	return strategyToMinLength[strategy]
}

// analyzerDefinition is the backend-agnostic shape of a custom analyzer
// installation: its type, its configuration properties, and the index
// features it should expose.
type analyzerDefinition struct {
	Type     string         `json:"type"`
	Features []string       `json:"features"`
	Props    map[string]any `json:"properties"`
}

// customAnalyzerDefinitions returns the analyzer definitions this module
// requires, keyed by name. It is a function rather than a package-level
// map literal because map value construction here nests several levels
// of map[string]any and reads more clearly built imperatively.
func customAnalyzerDefinitions() map[string]analyzerDefinition {
	return map[string]analyzerDefinition{
		prefixAnalyzer: {
			Type:     "text",
			Features: nil,
			Props: map[string]any{
				"locale":   "en",
				"case":     "lower",
				"accent":   false,
				"stemming": false,
				"edgeNgram": map[string]any{
					"min":              2,
					"max":              8,
					"preserveOriginal": true,
				},
			},
		},
		ngramAnalyzer: {
			Type:     "pipeline",
			Features: []string{"position", "frequency"},
			Props: map[string]any{
				"pipeline": []map[string]any{
					{
						"type": "norm",
						"properties": map[string]any{
							"locale": "en",
							"case":   "lower",
							"accent": false,
						},
					},
					{
						"type": "ngram",
						"properties": map[string]any{
							"min":              ngramMinLength,
							"max":              ngramMinLength,
							"preserveOriginal": false,
							"streamType":       "utf8",
						},
					},
				},
			},
		},
	}
}

// InstallAnalyzers installs every custom analyzer this module requires
// into storage, in a fixed order: the prefix analyzer, then the ngram
// analyzer.
func InstallAnalyzers(ctx context.Context, storage Storage) error {
	defs := customAnalyzerDefinitions()
	for _, name := range []string{prefixAnalyzer, ngramAnalyzer} {
		body, err := json.Marshal(defs[name])
		if err != nil {
			return fmt.Errorf("collections: marshaling analyzer definition %s: %w", name, err)
		}
		if err := storage.CreateAnalyzer(ctx, name, body); err != nil {
			return fmt.Errorf("collections: installing analyzer %s: %w", name, err)
		}
	}
	return nil
}
