// Package app wires the stores, services and model clients shared by the
// server, lambda and CLI binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"makefoods"
	"makefoods/chat"
	"makefoods/fridge"
	"makefoods/httpapi"
	"makefoods/llm/bedrock"
	"makefoods/llm/mock"
	"makefoods/llm/openai"
	"makefoods/recipe"
	"makefoods/storage"
	"makefoods/tools"
	"makefoods/vision"
)

// Options override parts of the wiring. The zero value is valid.
type Options struct {
	// TurnLogger replaces the one derived from TURN_LOG_DIR.
	TurnLogger makefoods.TurnLogger
	// ChatService and VisionService replace the configured providers.
	ChatService   makefoods.ChatService
	VisionService makefoods.VisionService
	// RecipeSource replaces the file or S3 source chosen from the config.
	RecipeSource storage.RecipeSource
	DBLogLevel   logger.LogLevel
}

// App holds every long-lived component of a running makefoods process.
type App struct {
	ModelConfig makefoods.ModelConfig
	AppConfig   makefoods.AppConfig

	DB           *gorm.DB
	Recipes      *storage.RecipeStore
	Ingredients  *storage.IngredientStore
	Loader       *storage.BulkLoader
	Fridge       *fridge.Service
	Matcher      *recipe.Matcher
	Orchestrator *chat.Orchestrator
	Recognizer   *vision.Recognizer
	Tools        tools.Registry
	Metrics      *prometheus.Registry
	Collector    *httpapi.Collector

	closers []func() error
}

// Build opens the database, imports the recipe table when it is empty and
// starts the fridge worker. A failed recipe import is logged and the app
// keeps running with whatever the table holds.
func Build(ctx context.Context, mc makefoods.ModelConfig, ac makefoods.AppConfig, opts Options) (*App, error) {
	if opts.DBLogLevel == 0 {
		opts.DBLogLevel = logger.Warn
	}

	a := &App{ModelConfig: mc, AppConfig: ac}
	awsCfg := &awsLoader{}

	db, err := storage.Open(ac.DatabasePath, opts.DBLogLevel)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	slog.Info("SETUP: Database opened", "path", ac.DatabasePath)

	a.Recipes = storage.NewRecipeStore(db)
	a.Ingredients = storage.NewIngredientStore(db)

	source := opts.RecipeSource
	if source == nil {
		source, err = recipeSource(ctx, ac, awsCfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.Loader = storage.NewBulkLoader(a.Recipes, source)
	if res, err := a.Loader.Load(ctx); err != nil {
		slog.Error("SETUP: Recipe import failed, continuing with existing recipes", "error", err)
	} else {
		slog.Info("SETUP: Recipes ready", "existing", res.Existing, "loaded", res.Loaded, "skipped", res.Skipped)
	}

	a.Fridge, err = fridge.NewService(ctx, a.Ingredients)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("start fridge: %w", err)
	}
	a.closers = append(a.closers, func() error {
		a.Fridge.Close()
		return nil
	})

	chatSvc := opts.ChatService
	if chatSvc == nil {
		chatSvc, err = newChatService(ctx, mc, awsCfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	visionSvc := opts.VisionService
	if visionSvc == nil {
		visionSvc, err = newVisionService(ctx, mc, awsCfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	turnLogger := opts.TurnLogger
	if turnLogger == nil {
		turnLogger, err = a.newTurnLogger(ac.TurnLogDir, mc.ModelID)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Metrics = prometheus.NewRegistry()
	a.Collector = httpapi.NewCollector(a.Metrics)

	a.Matcher = recipe.NewMatcher(a.Recipes)
	a.Orchestrator = chat.NewOrchestrator(chatSvc, a.Matcher, a.Fridge, chat.Options{
		Model:       mc.ModelID,
		Temperature: aws.Float32(mc.Temperature),
		MaxTokens:   mc.MaxTokens,
		HistorySize: ac.HistorySize,
		TurnLogger:  turnLogger,
		Recorder:    a.Collector,
	})

	if visionSvc != nil {
		a.Recognizer = vision.NewRecognizer(visionSvc, a.Fridge, a.shelfLife())
	}
	a.Tools = tools.NewRegistry(a.Fridge, a.Matcher, time.Now)

	slog.Info("SETUP: App ready", "chat_provider", mc.Provider, "vision_provider", mc.VisionProvider, "model", mc.ModelID)
	return a, nil
}

// Handler returns the HTTP API for the app.
func (a *App) Handler() http.Handler {
	deps := httpapi.Deps{
		Conversation: a.Orchestrator,
		Messages:     a.Orchestrator.Timeline(),
		Fridge:       a.Fridge,
		Recipes:      a.Recipes,
		Tools:        a.Tools,
		Collector:    a.Collector,
		Gatherer:     a.Metrics,
		ShelfLife:    a.shelfLife(),
	}
	if a.Recognizer != nil {
		deps.Recognizer = a.Recognizer
	}
	return httpapi.NewRouter(deps)
}

// Close waits for in-flight conversation work, stops the fridge worker,
// flushes the turn log and closes the database, in that order.
func (a *App) Close() error {
	if a.Orchestrator != nil {
		a.Orchestrator.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) shelfLife() time.Duration {
	return time.Duration(a.AppConfig.DefaultShelfLifeDays) * 24 * time.Hour
}

func (a *App) newTurnLogger(dir, model string) (makefoods.TurnLogger, error) {
	if dir == "" {
		return makefoods.NewNoOpTurnLogger(), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create turn log dir: %w", err)
	}

	path := makefoods.NewTurnLogFilePath(dir, model)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open turn log: %w", err)
	}

	l := makefoods.NewFileTurnLogger(f)
	a.closers = append(a.closers, func() error {
		return errors.Join(l.Flush(), f.Close())
	})
	slog.Info("SETUP: Logging model turns", "path", path)
	return l, nil
}

func recipeSource(ctx context.Context, ac makefoods.AppConfig, awsCfg *awsLoader) (storage.RecipeSource, error) {
	if ac.RecipesS3Bucket == "" {
		return storage.NewFileRecipeSource(ac.RecipesCSVPath), nil
	}
	cfg, err := awsCfg.load(ctx)
	if err != nil {
		return nil, err
	}
	return storage.NewS3RecipeSource(s3.NewFromConfig(cfg), ac.RecipesS3Bucket, ac.RecipesS3Key), nil
}

func newChatService(ctx context.Context, mc makefoods.ModelConfig, awsCfg *awsLoader) (makefoods.ChatService, error) {
	switch mc.Provider {
	case makefoods.ProviderOpenAI:
		c, err := openai.NewClient(openai.ClientOpts{
			BaseURL:     mc.OpenAIBaseURL,
			APIKey:      mc.OpenAIAPIKey,
			ModelID:     mc.ModelID,
			Temperature: aws.Float32(mc.Temperature),
			MaxTokens:   mc.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return c, nil
	case makefoods.ProviderBedrock:
		brc, err := awsCfg.bedrock(ctx)
		if err != nil {
			return nil, err
		}
		return bedrock.NewClient(brc, bedrockOptions(mc)), nil
	case makefoods.ProviderMock:
		return mock.NewClient(mock.Options{}), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", mc.Provider)
	}
}

// newVisionService returns nil when recognition is disabled.
func newVisionService(ctx context.Context, mc makefoods.ModelConfig, awsCfg *awsLoader) (makefoods.VisionService, error) {
	switch mc.VisionProvider {
	case makefoods.ProviderBedrock:
		brc, err := awsCfg.bedrock(ctx)
		if err != nil {
			return nil, err
		}
		return bedrock.NewClient(brc, bedrockOptions(mc)), nil
	case makefoods.ProviderMock:
		return mock.NewClient(mock.Options{}), nil
	case makefoods.ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", mc.VisionProvider)
	}
}

func bedrockOptions(mc makefoods.ModelConfig) bedrock.Options {
	opts := bedrock.Options{
		VisionModelID: mc.VisionModelID,
		MaxTokens:     mc.MaxTokens,
		Temperature:   aws.Float32(mc.Temperature),
		TopP:          mc.TopP,
	}
	// MODEL_ID defaults to an OpenAI model name; Bedrock then uses its own default.
	if mc.Provider == makefoods.ProviderBedrock {
		opts.ModelID = mc.ModelID
	}
	return opts
}

// awsLoader loads the shared AWS config at most once, and only when a
// component needs it.
type awsLoader struct {
	cfg    *aws.Config
	client *bedrockruntime.Client
}

func (l *awsLoader) load(ctx context.Context) (aws.Config, error) {
	if l.cfg != nil {
		return *l.cfg, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	l.cfg = &cfg
	return cfg, nil
}

func (l *awsLoader) bedrock(ctx context.Context) (*bedrockruntime.Client, error) {
	if l.client != nil {
		return l.client, nil
	}
	cfg, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	l.client = bedrockruntime.NewFromConfig(cfg)
	return l.client, nil
}
