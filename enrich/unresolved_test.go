package enrich

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/catalogit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteUnresolved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review", "unresolved_products.json")
	now := time.Date(2025, 11, 5, 14, 30, 0, 0, time.UTC)
	entries := []*core.UnresolvedEntry{
		{
			CSVProduct: "Vertrouwenspersoon & klachten",
			Category:   "Sociaal",
			Problems:   []string{"Ongewenst gedrag"},
			Reason:     "no fuzzy match above 0.85 threshold and no manual mapping",
		},
	}

	require.NoError(t, WriteUnresolved(path, entries, now))

	doc, err := ReadUnresolved(path)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, "2025-11-05", doc.LastUpdated)
	assert.Equal(t, UnresolvedNote, doc.Note)
	assert.Equal(t, entries, doc.Products)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"csv_product": "Vertrouwenspersoon & klachten"`)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteUnresolved_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unresolved_products.json")

	require.NoError(t, WriteUnresolved(path, nil, time.Now()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"products": []`))
}

func TestWriteUnresolved_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unresolved_products.json")
	now := time.Now()

	require.NoError(t, WriteUnresolved(path, []*core.UnresolvedEntry{{CSVProduct: "A"}, {CSVProduct: "B"}}, now))
	require.NoError(t, WriteUnresolved(path, []*core.UnresolvedEntry{{CSVProduct: "C"}}, now))

	doc, err := ReadUnresolved(path)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, "C", doc.Products[0].CSVProduct)
}
