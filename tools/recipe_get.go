package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"makefoods"
)

func recipeSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id":            {Type: "integer"},
			"name":          {Type: "string"},
			"ingredients":   {Type: "string"},
			"cooking_steps": {Type: "string"},
			"cooking_time":  {Type: "string"},
			"difficulty":    {Type: "string"},
			"image_url":     {Type: "string"},
			"description":   {Type: "string"},
		},
		Required: []string{"id", "name", "ingredients"},
	}
}

func recipesOutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {Type: "array", Items: recipeSchema()},
		},
		Required: []string{"recipes"},
	}
}

func recipesOutput(recipes []makefoods.Recipe) (map[string]any, error) {
	if recipes == nil {
		recipes = []makefoods.Recipe{}
	}
	return toMap(struct {
		Recipes []makefoods.Recipe `json:"recipes"`
	}{recipes})
}

// RecipeSearch finds stored recipes that use any of the given ingredients.
type RecipeSearch struct{ matcher recipeMatcher }

func NewRecipeSearch(matcher recipeMatcher) *RecipeSearch { return &RecipeSearch{matcher: matcher} }

func (t *RecipeSearch) Name() string  { return "recipe_search" }
func (t *RecipeSearch) Title() string { return "Search Recipes by Ingredient" }
func (t *RecipeSearch) Description() string {
	return "Returns stored recipes whose ingredient list contains any of the given ingredient names (case-sensitive), without duplicates."
}

func (t *RecipeSearch) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ingredients": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{"ingredients"},
	}
}

func (t *RecipeSearch) OutputSchema() *jsonschema.Schema { return recipesOutputSchema() }

func (t *RecipeSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	recipes, err := t.matcher.MatchByIngredients(ctx, stringList(input["ingredients"]))
	if err != nil {
		return nil, err
	}
	return recipesOutput(recipes)
}

// RecipeGet looks up stored recipes by dish name.
type RecipeGet struct{ matcher recipeMatcher }

func NewRecipeGet(matcher recipeMatcher) *RecipeGet { return &RecipeGet{matcher: matcher} }

func (t *RecipeGet) Name() string  { return "recipe_get" }
func (t *RecipeGet) Title() string { return "Get Recipes by Name" }
func (t *RecipeGet) Description() string {
	return "Returns stored recipes whose name contains the given text (case-sensitive)."
}

func (t *RecipeGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string"},
		},
		Required: []string{"name"},
	}
}

func (t *RecipeGet) OutputSchema() *jsonschema.Schema { return recipesOutputSchema() }

func (t *RecipeGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, _ := input["name"].(string)
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name is required")
	}

	recipes, err := t.matcher.MatchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return recipesOutput(recipes)
}
