package prompt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makefoods"
)

func TestBuildInventorySummary(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name       string
		items      []makefoods.Ingredient
		contains   []string
		notContain []string
		exact      string
	}{
		{
			name:  "empty fridge",
			items: nil,
			exact: EmptyFridge,
		},
		{
			name:     "expiring in exactly three days",
			items:    []makefoods.Ingredient{{Name: "milk", Quantity: 1, ExpiresAt: now.Add(3 * day)}},
			contains: []string{"- milk (1)", "expiring soon: 3"},
		},
		{
			name:     "expires later today",
			items:    []makefoods.Ingredient{{Name: "tofu", Quantity: 2, ExpiresAt: now.Add(5 * time.Hour)}},
			contains: []string{"- tofu (2) [expiring soon: 0 days]"},
		},
		{
			name:       "expired yesterday",
			items:      []makefoods.Ingredient{{Name: "egg", Quantity: 6, ExpiresAt: now.Add(-day)}},
			contains:   []string{"- egg (6) [expired]"},
			notContain: []string{"expiring soon"},
		},
		{
			name:       "ten days left",
			items:      []makefoods.Ingredient{{Name: "rice", Quantity: 1, ExpiresAt: now.Add(10 * day)}},
			contains:   []string{"- rice (1)"},
			notContain: []string{"[expired]", "expiring soon"},
		},
		{
			name:       "four days is not soon",
			items:      []makefoods.Ingredient{{Name: "pork", Quantity: 1, ExpiresAt: now.Add(4 * day)}},
			notContain: []string{"expiring soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildInventorySummary(tt.items, now)
			if tt.exact != "" {
				assert.Equal(t, tt.exact, got)
				return
			}
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.notContain {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestBuildInventorySummary_OneLinePerItem(t *testing.T) {
	now := time.Now()
	got := BuildInventorySummary([]makefoods.Ingredient{
		{Name: "a", Quantity: 1, ExpiresAt: now.Add(100 * time.Hour * 24)},
		{Name: "b", Quantity: 2, ExpiresAt: now.Add(100 * time.Hour * 24)},
	}, now)
	assert.Equal(t, inventoryHeader+"\n- a (1)\n- b (2)", got)
}

func TestParseRecipeList(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{name: "two dishes", reply: "RECIPE_LIST:\n- A\n- B\n", want: []string{"A", "B"}},
		{name: "indented and padded", reply: "RECIPE_LIST:\n   -   Kimchi Stew  \n- Bibimbap", want: []string{"Kimchi Stew", "Bibimbap"}},
		{name: "blank names dropped", reply: "RECIPE_LIST:\n- \n-  \n- C", want: []string{"C"}},
		{name: "non bullet lines ignored", reply: "RECIPE_LIST:\nHere you go\n* D\n- E", want: []string{"E"}},
		{name: "header only", reply: "RECIPE_LIST:", want: nil},
		{name: "no header", reply: "Sure! Try\n- A\n- B", want: nil},
		{name: "header not at start", reply: " RECIPE_LIST:\n- A", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRecipeList(tt.reply))
		})
	}
}

func TestIsRecipeList(t *testing.T) {
	assert.True(t, IsRecipeList("RECIPE_LIST:\n- A"))
	assert.False(t, IsRecipeList("Hello there"))
	assert.False(t, IsRecipeList(""))
}

func TestBuildChatSystemPrompt(t *testing.T) {
	got := BuildChatSystemPrompt("- milk (1) [expired]")
	assert.Contains(t, got, "- milk (1) [expired]")
	assert.Contains(t, got, RecipeListHeader)
}

func TestBuildRecipeDetailPrompt(t *testing.T) {
	system, user := BuildRecipeDetailPrompt("Kimchi Stew", EmptyFridge)
	assert.Contains(t, system, EmptyFridge)
	assert.Contains(t, system, "Do NOT use the "+RecipeListHeader)
	assert.Contains(t, user, "Kimchi Stew")
}

func TestRecentHistory(t *testing.T) {
	msgs := make([]makefoods.Message, 12)
	for i := range msgs {
		msgs[i] = makefoods.NewTextMessage(makefoods.SenderUser, string(rune('a'+i)))
	}

	got := RecentHistory(msgs, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "c", got[0].Text)
	assert.Equal(t, "l", got[9].Text)

	assert.Len(t, RecentHistory(msgs[:3], 10), 3)
	assert.Empty(t, RecentHistory(msgs, 0))
}

func TestToChatMessages(t *testing.T) {
	history := []makefoods.Message{
		makefoods.NewTextMessage(makefoods.SenderUser, "what can I cook?"),
		makefoods.NewRecipeOptionsMessage("Here are some dishes you can make!", []string{"Kimchi Stew", "Tofu Soup"}),
		makefoods.NewRecipeDetailMessage("", makefoods.Recipe{ID: 1, Name: "Kimchi Stew"}),
		makefoods.NewTextMessage(makefoods.SenderAssistant, ""),
	}

	got := ToChatMessages(history)
	require.Len(t, got, 3)
	assert.Equal(t, makefoods.ChatMessage{Role: makefoods.RoleUser, Content: "what can I cook?"}, got[0])
	assert.Equal(t, makefoods.RoleAssistant, got[1].Role)
	assert.Equal(t, "Here are some dishes you can make!\n- Kimchi Stew\n- Tofu Soup", got[1].Content)
	assert.Equal(t, "Recipe: Kimchi Stew", got[2].Content)
}
