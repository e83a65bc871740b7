package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"

	"makefoods"
	"makefoods/app"
	"makefoods/tools"
)

const (
	actionChat    = "chat"
	actionDetail  = "detail"
	actionSuggest = "suggest"
	actionExplain = "explain"
	actionTool    = "tool"
)

type Params struct {
	Action      string         `json:"action"`
	Text        string         `json:"text,omitempty"`
	Name        string         `json:"name,omitempty"`
	Ingredients []string       `json:"ingredients,omitempty"`
	Tool        string         `json:"tool,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
}

type Results struct {
	// Messages are the timeline entries added by this invocation.
	Messages []makefoods.Message `json:"messages,omitempty"`
	Output   map[string]any      `json:"output,omitempty"`
}

// handler keeps the app between invocations of a warm container. The
// timeline therefore spans invocations until the container is recycled.
type handler struct {
	once sync.Once
	app  *app.App
	err  error
}

func (h *handler) init(ctx context.Context) (*app.App, error) {
	h.once.Do(func() {
		modelConfig, appConfig, err := makefoods.LoadConfig()
		if err != nil {
			h.err = fmt.Errorf("load config: %w", err)
			return
		}
		h.app, h.err = app.Build(ctx, modelConfig, appConfig, app.Options{
			TurnLogger: makefoods.NewStdoutTurnLogger(),
		})
	})
	return h.app, h.err
}

func (h *handler) Handle(ctx context.Context, params Params) (Results, error) {
	a, err := h.init(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to build app", "error", err)
		return Results{}, err
	}
	return run(ctx, a, params)
}

// run performs one action and waits for its reply to land on the timeline.
func run(ctx context.Context, a *app.App, params Params) (Results, error) {
	timeline := a.Orchestrator.Timeline()
	before := len(timeline.Snapshot())

	switch params.Action {
	case actionChat:
		if strings.TrimSpace(params.Text) == "" {
			return Results{}, errors.New("text is required")
		}
		a.Orchestrator.SendUserMessage(ctx, params.Text)
	case actionDetail:
		if strings.TrimSpace(params.Name) == "" {
			return Results{}, errors.New("name is required")
		}
		a.Orchestrator.RequestRecipeDetail(ctx, params.Name)
	case actionExplain:
		if strings.TrimSpace(params.Name) == "" {
			return Results{}, errors.New("name is required")
		}
		a.Orchestrator.ExplainRecipe(ctx, params.Name)
	case actionSuggest:
		a.Orchestrator.SuggestForIngredients(ctx, params.Ingredients)
	case actionTool:
		out, err := a.Tools.Run(ctx, tools.Call{Name: params.Tool, Input: params.Input})
		if err != nil {
			slog.Error("RESULT: Tool failed", "tool", params.Tool, "error", err)
			return Results{}, err
		}
		return Results{Output: out}, nil
	default:
		return Results{}, fmt.Errorf("unknown action %q", params.Action)
	}

	a.Orchestrator.Wait()
	return Results{Messages: timeline.Since(before)}, nil
}

func main() {
	makefoods.SetupLogging(os.Stdout, slog.LevelInfo)

	otelShutdown, err := makefoods.InitOtel(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}
	defer otelShutdown(context.Background()) // nolint: errcheck

	h := &handler{}
	lambda.Start(h.Handle)
}
