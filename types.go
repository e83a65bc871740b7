package makefoods

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested ingredient or recipe does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnsupportedImageFormat is returned by a VisionService that cannot read
// the image's format.
var ErrUnsupportedImageFormat = errors.New("unsupported image format")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatService is the boundary to the LLM chat model.
type ChatService interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// VisionService is the boundary to the image recognition model.
type VisionService interface {
	Recognize(ctx context.Context, req VisionRequest) (string, error)
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is an ordered conversation sent to the chat model.
// An empty Model or nil Temperature means the client default. Zero is a valid
// temperature.
type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
	Messages    []ChatMessage `json:"messages"`
}

type VisionRequest struct {
	Image       []byte
	Format      string // png, jpeg, gif or webp
	Instruction string
}

// Ingredient is an item the user keeps in the fridge.
type Ingredient struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	RegisteredAt time.Time `json:"registered_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Recipe is a read-only record imported from the recipe dataset.
type Recipe struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Ingredients  string `json:"ingredients"`
	CookingSteps string `json:"cooking_steps"`
	CookingTime  string `json:"cooking_time"`
	Difficulty   string `json:"difficulty"`
	ImageURL     string `json:"image_url"`
	Description  string `json:"description"`
}

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type MessageKind string

const (
	KindText          MessageKind = "text"
	KindRecipeOptions MessageKind = "recipe_options"
	KindRecipeDetail  MessageKind = "recipe_detail"
)

// Message is one entry of the conversation timeline. Messages are never
// mutated once appended.
type Message struct {
	ID            uuid.UUID   `json:"id"`
	Sender        Sender      `json:"sender"`
	Kind          MessageKind `json:"kind"`
	Text          string      `json:"text"`
	RecipeOptions []string    `json:"recipe_options,omitempty"`
	Recipes       []Recipe    `json:"recipes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func NewTextMessage(sender Sender, text string) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    sender,
		Kind:      KindText,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// NewRecipeOptionsMessage builds an assistant message offering selectable dish names.
func NewRecipeOptionsMessage(text string, options []string) Message {
	return Message{
		ID:            uuid.New(),
		Sender:        SenderAssistant,
		Kind:          KindRecipeOptions,
		Text:          text,
		RecipeOptions: append([]string(nil), options...),
		CreatedAt:     time.Now(),
	}
}

// NewRecipeDetailMessage builds an assistant detail card. Recipes are copied.
func NewRecipeDetailMessage(text string, recipes ...Recipe) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    SenderAssistant,
		Kind:      KindRecipeDetail,
		Text:      text,
		Recipes:   append([]Recipe(nil), recipes...),
		CreatedAt: time.Now(),
	}
}
