package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"makefoods"
)

type inventoryReader interface {
	Snapshot(ctx context.Context) ([]makefoods.Ingredient, error)
}

type recipeMatcher interface {
	MatchByIngredients(ctx context.Context, names []string) ([]makefoods.Recipe, error)
	MatchByName(ctx context.Context, name string) ([]makefoods.Recipe, error)
}

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates the inventory and recipe tools.
func NewRegistry(inventory inventoryReader, matcher recipeMatcher, now func() time.Time) Registry {
	if now == nil {
		now = time.Now
	}
	r := Registry{}
	for _, t := range []Tool{
		NewInventoryGet(inventory, now),
		NewRecipeSearch(matcher),
		NewRecipeGet(matcher),
	} {
		r[t.Name()] = t
	}
	return r
}

// GetTools returns all tools sorted by name.
func (r Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(r))
	for _, tool := range r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q: %w", name, makefoods.ErrNotFound)
	}
	return tool, nil
}

// Run looks up call.Name and runs it with call.Input.
func (r Registry) Run(ctx context.Context, call Call) (map[string]any, error) {
	tool, err := r.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	input := call.Input
	if input == nil {
		input = map[string]any{}
	}
	return tool.Run(ctx, input)
}
