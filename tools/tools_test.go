package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makefoods"
	"makefoods/recipe"
)

type mockInventory struct {
	items []makefoods.Ingredient
	err   error
}

func (m *mockInventory) Snapshot(ctx context.Context) ([]makefoods.Ingredient, error) {
	return m.items, m.err
}

type mockFinder struct{ recipes []makefoods.Recipe }

func (f *mockFinder) FindByIngredient(ctx context.Context, text string) ([]makefoods.Recipe, error) {
	var out []makefoods.Recipe
	for _, r := range f.recipes {
		if strings.Contains(r.Ingredients, text) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *mockFinder) FindByName(ctx context.Context, text string) ([]makefoods.Recipe, error) {
	var out []makefoods.Recipe
	for _, r := range f.recipes {
		if strings.Contains(r.Name, text) {
			out = append(out, r)
		}
	}
	return out, nil
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(inv *mockInventory) Registry {
	matcher := recipe.NewMatcher(&mockFinder{recipes: []makefoods.Recipe{
		{ID: 1, Name: "Kimchi Stew", Ingredients: "kimchi, pork"},
		{ID: 2, Name: "Kimchi Fried Rice", Ingredients: "kimchi, rice"},
	}})
	return NewRegistry(inv, matcher, func() time.Time { return now })
}

func TestRegistry(t *testing.T) {
	r := newTestRegistry(&mockInventory{})

	var names []string
	for _, tool := range r.GetTools() {
		names = append(names, tool.Name())
		assert.NotNil(t, tool.InputSchema())
		assert.NotNil(t, tool.OutputSchema())
		assert.NotEmpty(t, Describe(tool).Description)
	}
	assert.Equal(t, []string{"inventory_get", "recipe_get", "recipe_search"}, names)

	_, err := r.GetTool("grocery_list")
	assert.ErrorIs(t, err, makefoods.ErrNotFound)

	_, err = r.Run(context.Background(), Call{Name: "nope"})
	assert.ErrorIs(t, err, makefoods.ErrNotFound)
}

func TestInventoryGet_Run(t *testing.T) {
	day := 24 * time.Hour
	inv := &mockInventory{items: []makefoods.Ingredient{
		{ID: 1, Name: "milk", Quantity: 1, ExpiresAt: now.Add(3 * day)},
		{ID: 2, Name: "egg", Quantity: 6, ExpiresAt: now.Add(-2 * day)},
	}}

	out, err := newTestRegistry(inv).Run(context.Background(), Call{Name: "inventory_get"})
	require.NoError(t, err)

	ings, ok := out["ingredients"].([]any)
	require.True(t, ok)
	require.Len(t, ings, 2)

	milk := ings[0].(map[string]any)
	assert.Equal(t, "milk", milk["name"])
	assert.Equal(t, 1.0, milk["quantity"])
	assert.Equal(t, 3.0, milk["days_left"])

	egg := ings[1].(map[string]any)
	assert.Equal(t, -2.0, egg["days_left"])
}

func TestInventoryGet_Empty(t *testing.T) {
	out, err := newTestRegistry(&mockInventory{}).Run(context.Background(), Call{Name: "inventory_get"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, out["ingredients"])
}

func TestInventoryGet_Error(t *testing.T) {
	_, err := newTestRegistry(&mockInventory{err: errors.New("locked")}).Run(context.Background(), Call{Name: "inventory_get"})
	assert.ErrorContains(t, err, "read inventory")
}

func TestRecipeSearch_Run(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]any
		wantNames []any
	}{
		{
			name:      "dedup across ingredients",
			input:     map[string]any{"ingredients": []any{"kimchi", "pork"}},
			wantNames: []any{"Kimchi Stew", "Kimchi Fried Rice"},
		},
		{
			name:      "no match",
			input:     map[string]any{"ingredients": []any{"beef"}},
			wantNames: []any{},
		},
		{
			name:      "missing input",
			input:     map[string]any{},
			wantNames: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestRegistry(&mockInventory{}).Run(context.Background(), Call{Name: "recipe_search", Input: tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, recipeNamesFrom(t, out))
		})
	}
}

func TestRecipeGet_Run(t *testing.T) {
	r := newTestRegistry(&mockInventory{})

	out, err := r.Run(context.Background(), Call{Name: "recipe_get", Input: map[string]any{"name": "Fried"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"Kimchi Fried Rice"}, recipeNamesFrom(t, out))

	_, err = r.Run(context.Background(), Call{Name: "recipe_get", Input: map[string]any{"name": " "}})
	assert.EqualError(t, err, "name is required")
}

func recipeNamesFrom(t *testing.T, out map[string]any) []any {
	t.Helper()
	recipes, ok := out["recipes"].([]any)
	require.True(t, ok)
	names := make([]any, 0, len(recipes))
	for _, r := range recipes {
		names = append(names, r.(map[string]any)["name"])
	}
	return names
}
