package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSpecLoader_LoadsAndValidatesSpec(t *testing.T) {
	dir := t.TempDir()
	body := `{"columns":[{"key":"myfield","type":"int","non_visible":true}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mycollection.json"), []byte(body), 0o644))

	loader := &LocalSpecLoader{Dir: dir}
	spec, err := loader.Load(context.Background(), "mycollection")
	require.NoError(t, err)
	require.Len(t, spec.Columns, 1)
	assert.Equal(t, "myfield", spec.Columns[0].Key)
	assert.Len(t, spec.SpecFiles, 1)
}

func TestLocalSpecLoader_MissingFileIsError(t *testing.T) {
	loader := &LocalSpecLoader{Dir: t.TempDir()}
	_, err := loader.Load(context.Background(), "nosuchcollection")
	require.Error(t, err)
}

func TestLocalSpecLoader_InvalidSpecIsError(t *testing.T) {
	dir := t.TempDir()
	body := `{"columns":[{"key":"myfield","type":"string"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(body), 0o644))

	loader := &LocalSpecLoader{Dir: dir}
	_, err := loader.Load(context.Background(), "bad")
	require.Error(t, err)
}
