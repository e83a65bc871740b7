package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makefoods"
)

// memFinder mimics the store's case-sensitive substring search.
type memFinder struct {
	recipes []makefoods.Recipe
	err     error
	calls   []string
}

func (f *memFinder) FindByIngredient(ctx context.Context, text string) ([]makefoods.Recipe, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	var out []makefoods.Recipe
	for _, r := range f.recipes {
		if strings.Contains(r.Ingredients, text) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *memFinder) FindByName(ctx context.Context, text string) ([]makefoods.Recipe, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	var out []makefoods.Recipe
	for _, r := range f.recipes {
		if strings.Contains(r.Name, text) {
			out = append(out, r)
		}
	}
	return out, nil
}

func kimchiFinder() *memFinder {
	return &memFinder{recipes: []makefoods.Recipe{
		{ID: 1, Name: "Kimchi Stew", Ingredients: "kimchi, pork"},
		{ID: 2, Name: "Kimchi Fried Rice", Ingredients: "kimchi, rice"},
		{ID: 3, Name: "Tofu Soup", Ingredients: "tofu"},
	}}
}

func ids(recipes []makefoods.Recipe) []int64 {
	out := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}

func TestMatcher_MatchByIngredients(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantIDs []int64
	}{
		{name: "kimchi", input: []string{"kimchi"}, wantIDs: []int64{1, 2}},
		{name: "kimchi and pork dedup", input: []string{"kimchi", "pork"}, wantIDs: []int64{1, 2}},
		{name: "pork first keeps first-seen order", input: []string{"pork", "kimchi"}, wantIDs: []int64{1, 2}},
		{name: "rice then kimchi", input: []string{"rice", "kimchi"}, wantIDs: []int64{2, 1}},
		{name: "trimmed names", input: []string{"  tofu  "}, wantIDs: []int64{3}},
		{name: "unmatched contributes nothing", input: []string{"beef", "tofu"}, wantIDs: []int64{3}},
		{name: "empty input", input: nil, wantIDs: []int64{}},
		{name: "all blank", input: []string{"", "  ", "\t"}, wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(kimchiFinder())
			got, err := m.MatchByIngredients(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func TestMatcher_MatchByIngredientsSkipsBlankLookups(t *testing.T) {
	finder := kimchiFinder()
	_, err := NewMatcher(finder).MatchByIngredients(context.Background(), []string{" ", "kimchi", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"kimchi"}, finder.calls)
}

func TestMatcher_MatchByName(t *testing.T) {
	m := NewMatcher(kimchiFinder())

	got, err := m.MatchByName(context.Background(), " Kimchi Stew ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(got))

	got, err = m.MatchByName(context.Background(), "kimchi stew")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = m.MatchByName(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatcher_MatchByNamesKeepsDuplicates(t *testing.T) {
	m := NewMatcher(kimchiFinder())

	got, err := m.MatchByNames(context.Background(), []string{"Kimchi", "Kimchi Stew", "Nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 1}, ids(got))
}

func TestMatcher_StoreErrors(t *testing.T) {
	boom := errors.New("database is locked")
	m := NewMatcher(&memFinder{err: boom})

	_, err := m.MatchByIngredients(context.Background(), []string{"kimchi"})
	assert.ErrorIs(t, err, boom)

	_, err = m.MatchByNames(context.Background(), []string{"Kimchi"})
	assert.ErrorIs(t, err, boom)
}
