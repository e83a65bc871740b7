package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"makefoods"
	"makefoods/app"
	"makefoods/storage"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	row := func(id, name, ingredients string) string {
		fields := make([]string, 20)
		fields[0], fields[1], fields[13] = id, name, ingredients
		return strings.Join(fields, ",")
	}
	csv := strings.Join([]string{
		strings.Repeat("COL,", 19) + "COL",
		row("1", "Kimchi Stew", `"kimchi, pork"`),
		row("2", "Kimchi Fried Rice", `"kimchi, rice"`),
	}, "\n")

	a, err := app.Build(context.Background(),
		makefoods.ModelConfig{Provider: makefoods.ProviderMock, VisionProvider: makefoods.ProviderNone},
		makefoods.AppConfig{DefaultShelfLifeDays: 7},
		app.Options{
			RecipeSource: storage.NewTestRecipeSource([]byte(csv)),
			TurnLogger:   makefoods.NewNoOpTurnLogger(),
			DBLogLevel:   logger.Silent,
		})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	res, err := run(ctx, a, Params{Action: actionChat, Text: "hi there"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "hi there", res.Messages[0].Text)
	assert.Equal(t, "You said: hi there", res.Messages[1].Text)

	res, err = run(ctx, a, Params{Action: actionDetail, Name: "Stew"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, makefoods.KindRecipeDetail, res.Messages[0].Kind)

	res, err = run(ctx, a, Params{Action: actionSuggest, Ingredients: []string{"pork"}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, []string{"Kimchi Stew"}, res.Messages[0].RecipeOptions)

	res, err = run(ctx, a, Params{Action: actionTool, Tool: "recipe_get", Input: map[string]any{"name": "Rice"}})
	require.NoError(t, err)
	assert.Len(t, res.Output["recipes"], 1)
}

func TestRun_Errors(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"unknown action", Params{Action: "dance"}, `unknown action "dance"`},
		{"blank chat", Params{Action: actionChat}, "text is required"},
		{"blank detail", Params{Action: actionDetail}, "name is required"},
		{"unknown tool", Params{Action: actionTool, Tool: "nope"}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(context.Background(), a, tt.params)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
