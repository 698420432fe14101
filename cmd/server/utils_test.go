package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductPath(t *testing.T) {
	product, err := parseProductPath("/api/v1/genome_attribs/filter")
	require.NoError(t, err)
	assert.Equal(t, "genome_attribs", product)

	_, err = parseProductPath("/api/v1//filter")
	require.Error(t, err)

	_, err = parseProductPath("/api/v1/genome_attribs/extra/filter")
	require.Error(t, err)
}

func TestWriteSuccessAndError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, writeSuccess(rec, 200, map[string]string{"ok": "yes"}))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = httptest.NewRecorder()
	require.NoError(t, writeError(rec, 400, "bad request"))
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "bad request")
}
