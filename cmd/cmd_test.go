package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n  format: json\n"), 0o644))
	return path
}

func TestExportCommand(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "data")

	dir := filepath.Join(root, "content", "intelligence")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\ntitle: \"A\"\n---\nbody"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("---\ntitle: \"B\"\npublished: false\n---\nbody"), 0o644))

	rootCmd.SetArgs([]string{"export", "--config", writeConfig(t), "--root", root, "--out", out})
	t.Cleanup(func() { rootCmd.SetArgs(nil); flagRoot = ""; flagConfig = "" })
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(filepath.Join(out, "intelligence.json"))
	require.NoError(t, err)
	var items []model.ContentItem
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].Title)

	data, err = os.ReadFile(filepath.Join(out, "models.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &service.ContentMetrics{
		Collections: []service.CollectionMetrics{
			{Collection: model.CollectionIntelligence, Total: 2, Published: 1, Drafts: 1},
		},
		TotalItems:   2,
		TopBrand:     "BYD",
		LatestItemID: "a",
		LatestDate:   "2025-01-01",
	})

	out := buf.String()
	assert.Contains(t, out, "intelligence:")
	assert.Contains(t, out, "Top brand:       BYD")
	assert.Contains(t, out, "Top category:    -")
	assert.Contains(t, out, "Latest entry:    a (2025-01-01)")
}
