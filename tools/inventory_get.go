package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

const dayMillis = 86_400_000

type InventoryGet struct {
	inventory inventoryReader
	now       func() time.Time
}

func NewInventoryGet(inventory inventoryReader, now func() time.Time) *InventoryGet {
	return &InventoryGet{inventory: inventory, now: now}
}

func (t *InventoryGet) Name() string  { return "inventory_get" }
func (t *InventoryGet) Title() string { return "Get Fridge Inventory (with freshness)" }
func (t *InventoryGet) Description() string {
	return "Returns every ingredient in the fridge with its quantity and days_left until expiry (negative when expired)."
}

func (t *InventoryGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
}

func (t *InventoryGet) OutputSchema() *jsonschema.Schema {
	minQty := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ingredients": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":         {Type: "integer"},
						"name":       {Type: "string"},
						"quantity":   {Type: "integer", Minimum: &minQty},
						"expires_at": {Type: "string"},
						"days_left":  {Type: "integer"},
					},
					Required: []string{"id", "name", "quantity", "days_left"},
				},
			},
		},
		Required: []string{"ingredients"},
	}
}

func (t *InventoryGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	items, err := t.inventory.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	type outIng struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Quantity  int       `json:"quantity"`
		ExpiresAt time.Time `json:"expires_at"`
		DaysLeft  int64     `json:"days_left"`
	}
	out := struct {
		Ingredients []outIng `json:"ingredients"`
	}{Ingredients: make([]outIng, 0, len(items))}

	now := t.now()
	for _, it := range items {
		out.Ingredients = append(out.Ingredients, outIng{
			ID:        it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			ExpiresAt: it.ExpiresAt,
			DaysLeft:  (it.ExpiresAt.UnixMilli() - now.UnixMilli()) / dayMillis,
		})
	}

	return toMap(out)
}
