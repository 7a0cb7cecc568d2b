package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankforge/rankforge/pkg/session"
)

func TestFormatErrorJSONIncludesCodeAndMessage(t *testing.T) {
	err := &CLIError{Code: ExitFileError, Message: "catalog file not found: x.csv", Suggestions: []string{"check the path"}}
	out := formatErrorJSON(err)
	assert.Contains(t, out, `"code": 1`)
	assert.Contains(t, out, "catalog file not found")
	assert.Contains(t, out, "check the path")
}

func TestExportResultsWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	results := []session.ResultRow{
		{ID: "a", Name: "Alpha", Rating: 1520.5, Wins: 2, Losses: 1},
		{ID: "b", Name: "Bravo", Rating: 1479.5, Wins: 1, Losses: 2},
	}
	require.NoError(t, exportResults(path, results))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "rank,id,name,rating,wins,losses")
	assert.Contains(t, content, "1,a,Alpha,1520.5000,2,1")
}

func TestOpenKeyValueStoreSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	fileKV, err := openKeyValueStore("file", dir)
	require.NoError(t, err)
	require.NoError(t, fileKV.Set("k", []byte("v")))
	val, ok, err := fileKV.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	sqliteKV, err := openKeyValueStore("sqlite", dir)
	require.NoError(t, err)
	require.NoError(t, sqliteKV.Set("k2", []byte("v2")))
	val2, ok2, err := sqliteKV.Get("k2")
	require.NoError(t, err)
	assert.True(t, ok2)
	assert.Equal(t, []byte("v2"), val2)
}
