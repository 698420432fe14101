package collections

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_KnownStrategies(t *testing.T) {
	assert.Equal(t, "text_en", Analyzer(FilterStrategyFullText))
	assert.Equal(t, "kbase_collections_text_en_prefix", Analyzer(FilterStrategyPrefix))
	assert.Equal(t, "kbase_collections_en_ngram3", Analyzer(FilterStrategyNgram))
	assert.Equal(t, "identity", Analyzer(FilterStrategyIdentity))
	assert.Equal(t, "identity", Analyzer(FilterStrategy("unknown")))
}

func TestAnalyzerOrEmpty(t *testing.T) {
	assert.Equal(t, "", AnalyzerOrEmpty(FilterStrategyIdentity))
	assert.Equal(t, "text_en", AnalyzerOrEmpty(FilterStrategyFullText))
}

func TestMinimumQueryLength(t *testing.T) {
	assert.Equal(t, 3, MinimumQueryLength(FilterStrategyNgram))
	assert.Equal(t, 0, MinimumQueryLength(FilterStrategyIdentity))
	assert.Equal(t, 0, MinimumQueryLength(FilterStrategyFullText))
}

type recordingAnalyzerStorage struct {
	installed map[string][]byte
}

func (r *recordingAnalyzerStorage) HasSearchView(ctx context.Context, view string) (bool, error) {
	return false, nil
}

func (r *recordingAnalyzerStorage) CreateAnalyzer(ctx context.Context, name string, definition []byte) error {
	if r.installed == nil {
		r.installed = make(map[string][]byte)
	}
	r.installed[name] = definition
	return nil
}

func (r *recordingAnalyzerStorage) Execute(ctx context.Context, q Query) ([]map[string]any, error) {
	return nil, nil
}

func TestInstallAnalyzers_InstallsBothCustomAnalyzers(t *testing.T) {
	storage := &recordingAnalyzerStorage{}
	err := InstallAnalyzers(context.Background(), storage)
	require.NoError(t, err)
	require.Contains(t, storage.installed, prefixAnalyzer)
	require.Contains(t, storage.installed, ngramAnalyzer)

	var def analyzerDefinition
	require.NoError(t, json.Unmarshal(storage.installed[prefixAnalyzer], &def))
	assert.Equal(t, "text", def.Type)

	require.NoError(t, json.Unmarshal(storage.installed[ngramAnalyzer], &def))
	assert.Equal(t, "pipeline", def.Type)
}
