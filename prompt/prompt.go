package prompt

import (
	"fmt"
	"strings"
	"time"

	"makefoods"
)

// RecipeListHeader marks a reply that lists dish names instead of prose.
const RecipeListHeader = "RECIPE_LIST:"

const (
	EmptyFridge     = "The fridge is empty."
	inventoryHeader = "Current fridge contents:"

	dayMillis       = 86_400_000
	expiringWithin  = 3
	recipeListPoint = "- "
)

// BuildInventorySummary renders the fridge contents for the model, flagging
// items that expire within three days or have already expired.
func BuildInventorySummary(ingredients []makefoods.Ingredient, now time.Time) string {
	if len(ingredients) == 0 {
		return EmptyFridge
	}

	var b strings.Builder
	b.WriteString(inventoryHeader)
	for _, ing := range ingredients {
		fmt.Fprintf(&b, "\n- %s (%d)", ing.Name, ing.Quantity)

		days := (ing.ExpiresAt.UnixMilli() - now.UnixMilli()) / dayMillis
		switch {
		case days < 0:
			b.WriteString(" [expired]")
		case days <= expiringWithin:
			fmt.Fprintf(&b, " [expiring soon: %d days]", days)
		}
	}
	return b.String()
}

// BuildChatSystemPrompt returns the system prompt for a conversational turn.
func BuildChatSystemPrompt(inventorySummary string) string {
	return fmt.Sprintf(chatSystemPrompt, inventorySummary)
}

// BuildRecipeDetailPrompt returns the system and user prompts asking the
// model to explain how to cook recipeName.
func BuildRecipeDetailPrompt(recipeName, inventorySummary string) (system, user string) {
	return fmt.Sprintf(recipeDetailSystemPrompt, inventorySummary),
		fmt.Sprintf(recipeDetailUserPrompt, recipeName)
}

func IsRecipeList(reply string) bool {
	return strings.HasPrefix(reply, RecipeListHeader)
}

// ParseRecipeList extracts the dish names from a RECIPE_LIST reply.
// Replies without the header yield nil.
func ParseRecipeList(reply string) []string {
	if !IsRecipeList(reply) {
		return nil
	}

	var names []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, recipeListPoint) {
			continue
		}
		if name := strings.TrimSpace(line[len(recipeListPoint):]); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// RecentHistory returns the last n messages.
func RecentHistory(messages []makefoods.Message, n int) []makefoods.Message {
	if n <= 0 {
		return nil
	}
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// ToChatMessages converts timeline messages into chat roles, rendering
// option lists and detail cards as the text the user was shown.
func ToChatMessages(history []makefoods.Message) []makefoods.ChatMessage {
	out := make([]makefoods.ChatMessage, 0, len(history))
	for _, msg := range history {
		role := makefoods.RoleAssistant
		if msg.Sender == makefoods.SenderUser {
			role = makefoods.RoleUser
		}

		content := render(msg)
		if strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, makefoods.ChatMessage{Role: role, Content: content})
	}
	return out
}

func render(msg makefoods.Message) string {
	switch msg.Kind {
	case makefoods.KindRecipeOptions:
		lines := []string{msg.Text}
		for _, name := range msg.RecipeOptions {
			lines = append(lines, recipeListPoint+name)
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	case makefoods.KindRecipeDetail:
		lines := []string{}
		if msg.Text != "" {
			lines = append(lines, msg.Text)
		}
		for _, r := range msg.Recipes {
			lines = append(lines, "Recipe: "+r.Name)
		}
		return strings.Join(lines, "\n")
	default:
		return msg.Text
	}
}

const chatSystemPrompt = `You are a friendly cooking assistant for a smart fridge app.

The user's fridge is listed below. Prefer dishes that use ingredients marked as expiring soon.

%s

RULES:
- When the user asks what to eat, what to cook, or wants food or recipe recommendations, reply ONLY in this format, with no other text:
` + RecipeListHeader + `
- <dish name>
- <dish name>
- Use common, well-known dish names, one per line, at most 5 dishes.
- For any other question, answer conversationally in plain text and do NOT use the ` + RecipeListHeader + ` format.
`

const recipeDetailSystemPrompt = `You are a friendly cooking assistant for a smart fridge app.

%s

Explain how to cook the requested dish using this structure:
Cooking time: <minutes>
Ingredients:
- <ingredient and amount>
Steps:
1. <step>
Tip: <one practical tip, mention fridge items that should be used soon>

Do NOT use the ` + RecipeListHeader + ` format.
`

const recipeDetailUserPrompt = `How do I make %s?`
