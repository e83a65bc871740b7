package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"makefoods"
)

var defaultDishes = []string{"Kimchi Stew", "Kimchi Fried Rice", "Bibimbap"}

var recommendWords = []string{"recommend", "suggest", "cook", "make", "eat", "hungry", "dinner", "lunch", "breakfast", "recipe"}

// Client is a deterministic stand-in for the chat and vision models. It is
// only a demo and test aid; real models are rarely so predictable.
type Client struct {
	dishes     []string
	recognized []string
}

type Options struct {
	// Dishes are returned as the recipe list for recommendation requests.
	Dishes []string
	// Recognized are returned one per line by Recognize.
	Recognized []string
}

func NewClient(opts Options) *Client {
	if len(opts.Dishes) == 0 {
		opts.Dishes = defaultDishes
	}
	if len(opts.Recognized) == 0 {
		opts.Recognized = []string{"milk", "eggs", "kimchi"}
	}
	return &Client{dishes: opts.Dishes, recognized: opts.Recognized}
}

// Complete answers recommendation requests with a recipe list, recipe
// explanations with a fixed outline, and anything else with an echo.
func (c *Client) Complete(ctx context.Context, req makefoods.ChatRequest) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(req.Messages))

	var system, last string
	for _, m := range req.Messages {
		switch m.Role {
		case makefoods.RoleSystem:
			system = m.Content
		case makefoods.RoleUser:
			last = m.Content
		}
	}

	if strings.Contains(system, "Explain how to cook") {
		slog.Info("LLM_CLIENT: Returning recipe explanation")
		return fmt.Sprintf("Cooking time: 30 minutes\nIngredients:\n- whatever is in the fridge\nSteps:\n1. %s\nTip: use the items that expire first.", strings.TrimSpace(last)), nil
	}

	lower := strings.ToLower(last)
	for _, w := range recommendWords {
		if strings.Contains(lower, w) {
			slog.Info("LLM_CLIENT: Returning recipe list", "dishes", len(c.dishes))
			return "RECIPE_LIST:\n- " + strings.Join(c.dishes, "\n- "), nil
		}
	}

	slog.Info("LLM_CLIENT: Returning echo")
	return "You said: " + last, nil
}

func (c *Client) Recognize(ctx context.Context, req makefoods.VisionRequest) (string, error) {
	slog.Info("LLM_CLIENT: Recognize invoked", "image_bytes", len(req.Image))
	if len(req.Image) == 0 {
		return "", fmt.Errorf("empty image")
	}
	return "- " + strings.Join(c.recognized, "\n- "), nil
}
