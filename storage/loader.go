package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"makefoods"
)

type recipeWriter interface {
	Count(ctx context.Context) (int64, error)
	InsertAll(ctx context.Context, recipes []makefoods.Recipe) error
}

// LoadResult describes what the bulk loader did.
type LoadResult struct {
	Existing int64 `json:"existing"` // rows already present, load skipped when > 0
	Loaded   int   `json:"loaded"`
	Skipped  int   `json:"skipped"`
}

// BulkLoader imports the recipe dataset at most once per process.
// Concurrent callers block until the first load finishes and share its result.
type BulkLoader struct {
	store  recipeWriter
	source RecipeSource

	once   sync.Once
	result LoadResult
	err    error
}

func NewBulkLoader(store recipeWriter, source RecipeSource) *BulkLoader {
	return &BulkLoader{store: store, source: source}
}

func (l *BulkLoader) Load(ctx context.Context) (LoadResult, error) {
	l.once.Do(func() {
		l.result, l.err = l.load(ctx)
	})
	return l.result, l.err
}

func (l *BulkLoader) load(ctx context.Context) (LoadResult, error) {
	existing, err := l.store.Count(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	if existing > 0 {
		slog.Info("STORAGE: recipes already loaded, skipping import", "count", existing)
		return LoadResult{Existing: existing}, nil
	}

	data, err := l.source.Load(ctx)
	if err != nil {
		slog.Error("STORAGE: failed to read recipe source", "error", err)
		return LoadResult{}, fmt.Errorf("failed to load recipe source: %w", err)
	}

	recipes, skipped, err := ParseRecipes(bytes.NewReader(data))
	if err != nil {
		return LoadResult{Skipped: skipped}, err
	}

	if err := l.store.InsertAll(ctx, recipes); err != nil {
		return LoadResult{Skipped: skipped}, err
	}

	slog.Info("STORAGE: recipe import complete", "loaded", len(recipes), "skipped", skipped)
	return LoadResult{Loaded: len(recipes), Skipped: skipped}, nil
}
