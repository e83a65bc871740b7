package storage

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makefoods"
)

func testCSV() []byte {
	header := strings.Repeat("COL,", minFields-1) + "COL"
	return []byte(strings.Join([]string{
		header,
		csvRow("1", "Kimchi Stew", `"kimchi, pork"`),
		csvRow("2", "Kimchi Fried Rice", `"kimchi, rice"`),
		"broken,row",
	}, "\n"))
}

func TestBulkLoader_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewRecipeStore(newTestDB(t))
	source := NewTestRecipeSource(testCSV())
	loader := NewBulkLoader(store, source)

	var wg sync.WaitGroup
	results := make([]LoadResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := loader.Load(ctx)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, LoadResult{Loaded: 2, Skipped: 1}, res)
	}
	assert.Equal(t, 1, source.Loads())

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBulkLoader_SkipsPopulatedTable(t *testing.T) {
	ctx := context.Background()
	store := NewRecipeStore(newTestDB(t))
	require.NoError(t, store.InsertAll(ctx, []makefoods.Recipe{{ID: 9, Name: "Existing", Ingredients: "x"}}))

	source := NewTestRecipeSource(testCSV())
	res, err := NewBulkLoader(store, source).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Existing: 1}, res)
	assert.Equal(t, 0, source.Loads())
}

func TestBulkLoader_SourceError(t *testing.T) {
	ctx := context.Background()
	store := NewRecipeStore(newTestDB(t))
	loader := NewBulkLoader(store, NewTestRecipeSourceWithError())

	_, err := loader.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load recipe source")

	// the failed result is remembered
	_, err = loader.Load(ctx)
	assert.Error(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
