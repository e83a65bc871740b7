package makefoods

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderMock    = "mock"
	ProviderNone    = "none"
)

type ModelConfig struct {
	Provider       string  `env:"CHAT_PROVIDER,default=openai"`
	// VisionProvider defaults to bedrock, or mock when Provider is mock.
	// "none" disables image recognition.
	VisionProvider string  `env:"VISION_PROVIDER"`
	ModelID        string  `env:"MODEL_ID,default=gpt-4o-mini"`
	VisionModelID  string  `env:"VISION_MODEL_ID,default=us.anthropic.claude-3-7-sonnet-20250219-v1:0"`
	MaxTokens      int32   `env:"MAX_TOKENS,default=1024"`
	Temperature    float32 `env:"TEMPERATURE,default=0.7"` // 0 is honored
	TopP           float32 `env:"TOP_P,default=0.9"`
	OpenAIBaseURL  string  `env:"OPENAI_BASE_URL,default=https://api.openai.com"`
	OpenAIAPIKey   string  `env:"OPENAI_API_KEY"`
}

type AppConfig struct {
	DatabasePath         string `env:"DATABASE_PATH,default=makefoods.db"`
	RecipesCSVPath       string `env:"RECIPES_CSV_PATH,default=artifacts/recipes.csv"`
	RecipesS3Bucket      string `env:"RECIPES_S3_BUCKET"`
	RecipesS3Key         string `env:"RECIPES_S3_KEY,default=recipes.csv"`
	HistorySize          int    `env:"HISTORY_SIZE,default=10"`
	HTTPAddr             string `env:"HTTP_ADDR,default=:8080"`
	TurnLogDir           string `env:"TURN_LOG_DIR"`
	DefaultShelfLifeDays int    `env:"DEFAULT_SHELF_LIFE_DAYS,default=7"`
}

// LoadConfig decodes the model and application settings from the environment.
func LoadConfig() (ModelConfig, AppConfig, error) {
	var mc ModelConfig
	if err := decode(&mc); err != nil {
		return ModelConfig{}, AppConfig{}, fmt.Errorf("decode model config: %w", err)
	}

	var ac AppConfig
	if err := decode(&ac); err != nil {
		return ModelConfig{}, AppConfig{}, fmt.Errorf("decode app config: %w", err)
	}

	switch mc.Provider {
	case ProviderOpenAI, ProviderBedrock, ProviderMock:
	default:
		return ModelConfig{}, AppConfig{}, fmt.Errorf("unknown CHAT_PROVIDER %q", mc.Provider)
	}
	if mc.VisionProvider == "" {
		mc.VisionProvider = ProviderBedrock
		if mc.Provider == ProviderMock {
			mc.VisionProvider = ProviderMock
		}
	}
	switch mc.VisionProvider {
	case ProviderBedrock, ProviderMock, ProviderNone:
	default:
		return ModelConfig{}, AppConfig{}, fmt.Errorf("unknown VISION_PROVIDER %q", mc.VisionProvider)
	}
	if mc.Provider == ProviderOpenAI && mc.OpenAIAPIKey == "" {
		return ModelConfig{}, AppConfig{}, errors.New("OPENAI_API_KEY is required for the openai provider")
	}

	return mc, ac, nil
}

// decode treats "nothing set" as success so defaults alone are a valid config.
func decode(target any) error {
	err := envdecode.Decode(target)
	if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil
	}
	return err
}
