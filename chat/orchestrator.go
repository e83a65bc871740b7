package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"makefoods"
	"makefoods/prompt"
)

// Fixed assistant replies.
const (
	MsgNoMatch          = "I couldn't find any saved recipes for those ingredients."
	MsgRecipeOptions    = "Here are some dishes you can make!"
	MsgTryAgain         = "Sorry, something went wrong. Please try again."
	MsgRecipeNotFound   = "Sorry, I couldn't find that recipe."
	MsgRecipeLoadFailed = "Sorry, I couldn't load that recipe."
	MsgSearchFailed     = "Sorry, something went wrong while searching recipes."
)

const (
	OpSend    = "send"
	OpDetail  = "detail"
	OpSuggest = "suggest"
	OpExplain = "explain"

	OutcomeOK       = "ok"
	OutcomeNoMatch  = "no_match"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

const DefaultHistorySize = 10

var errEmptyReply = errors.New("empty reply from chat service")

type recipeMatcher interface {
	MatchByIngredients(ctx context.Context, names []string) ([]makefoods.Recipe, error)
	MatchByName(ctx context.Context, name string) ([]makefoods.Recipe, error)
	MatchByNames(ctx context.Context, names []string) ([]makefoods.Recipe, error)
}

type inventorySource interface {
	Snapshot(ctx context.Context) ([]makefoods.Ingredient, error)
}

// OutcomeRecorder is notified when an operation publishes its reply.
type OutcomeRecorder interface {
	RecordOutcome(operation, outcome string)
}

type Options struct {
	Model       string
	Temperature *float32
	MaxTokens   int32
	HistorySize int
	TurnLogger  makefoods.TurnLogger
	Recorder    OutcomeRecorder
	Now         func() time.Time
}

// Orchestrator runs the conversation. Each operation appends its reply to
// the timeline from its own goroutine; replies land in completion order.
type Orchestrator struct {
	timeline  *Timeline
	chat      makefoods.ChatService
	matcher   recipeMatcher
	inventory inventorySource
	opts      Options

	tracer     trace.Tracer
	operations metric.Int64Counter
	failures   metric.Int64Counter
	latency    metric.Float64Histogram

	wg sync.WaitGroup
}

func NewOrchestrator(chat makefoods.ChatService, matcher recipeMatcher, inventory inventorySource, opts Options) *Orchestrator {
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.TurnLogger == nil {
		opts.TurnLogger = makefoods.NewNoOpTurnLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	meter := otel.Meter(makefoods.InstrumentationChat)
	operations, _ := meter.Int64Counter("chat_operations_total",
		metric.WithDescription("Total number of chat operations completed"))
	failures, _ := meter.Int64Counter("chat_failures_total",
		metric.WithDescription("Total number of chat operations that ended in an apology"))
	latency, _ := meter.Float64Histogram("chat_model_latency_seconds",
		metric.WithDescription("Time taken to receive a reply from the chat model in seconds"))

	return &Orchestrator{
		timeline:   NewTimeline(),
		chat:       chat,
		matcher:    matcher,
		inventory:  inventory,
		opts:       opts,
		tracer:     otel.Tracer(makefoods.InstrumentationChat),
		operations: operations,
		failures:   failures,
		latency:    latency,
	}
}

func (o *Orchestrator) Timeline() *Timeline {
	return o.timeline
}

// Wait blocks until every operation started so far has published its reply.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// SendUserMessage appends the user's message and asynchronously asks the
// chat model for a reply.
func (o *Orchestrator) SendUserMessage(ctx context.Context, text string) makefoods.Message {
	msg := makefoods.NewTextMessage(makefoods.SenderUser, text)
	snapshot := o.timeline.Append(msg)
	history := prompt.RecentHistory(snapshot, o.opts.HistorySize)

	o.spawn(ctx, OpSend, MsgTryAgain, func(ctx context.Context) (makefoods.Message, string) {
		return o.reply(ctx, history)
	})
	return msg
}

// RequestRecipeDetail shows the first stored recipe whose name contains name.
func (o *Orchestrator) RequestRecipeDetail(ctx context.Context, name string) {
	o.spawn(ctx, OpDetail, MsgRecipeLoadFailed, func(ctx context.Context) (makefoods.Message, string) {
		recipes, err := o.matcher.MatchByName(ctx, name)
		if err != nil {
			slog.Error("CHAT: recipe detail lookup failed", "name", name, "error", err)
			return assistantText(MsgRecipeLoadFailed), OutcomeFailed
		}
		if len(recipes) == 0 {
			return assistantText(MsgRecipeNotFound), OutcomeNotFound
		}
		return makefoods.NewRecipeDetailMessage("", recipes[0]), OutcomeOK
	})
}

// SuggestForIngredients offers every stored recipe using any of names.
func (o *Orchestrator) SuggestForIngredients(ctx context.Context, names []string) {
	names = append([]string(nil), names...)
	o.spawn(ctx, OpSuggest, MsgSearchFailed, func(ctx context.Context) (makefoods.Message, string) {
		recipes, err := o.matcher.MatchByIngredients(ctx, names)
		if err != nil {
			slog.Error("CHAT: ingredient search failed", "ingredients", names, "error", err)
			return assistantText(MsgSearchFailed), OutcomeFailed
		}
		if len(recipes) == 0 {
			return assistantText(MsgNoMatch), OutcomeNoMatch
		}
		text := fmt.Sprintf("You can make %d dishes!", len(recipes))
		return makefoods.NewRecipeOptionsMessage(text, recipeNames(recipes)), OutcomeOK
	})
}

// ExplainRecipe asks the chat model for cooking instructions for name.
func (o *Orchestrator) ExplainRecipe(ctx context.Context, name string) {
	o.spawn(ctx, OpExplain, MsgTryAgain, func(ctx context.Context) (makefoods.Message, string) {
		summary, err := o.inventorySummary(ctx)
		if err != nil {
			slog.Error("CHAT: failed to read inventory", "error", err)
			return assistantText(MsgTryAgain), OutcomeFailed
		}

		system, user := prompt.BuildRecipeDetailPrompt(name, summary)
		reply, err := o.complete(ctx, OpExplain, []makefoods.ChatMessage{
			{Role: makefoods.RoleSystem, Content: system},
			{Role: makefoods.RoleUser, Content: user},
		})
		if err != nil {
			return assistantText(MsgTryAgain), OutcomeFailed
		}
		return assistantText(reply), OutcomeOK
	})
}

func (o *Orchestrator) reply(ctx context.Context, history []makefoods.Message) (makefoods.Message, string) {
	summary, err := o.inventorySummary(ctx)
	if err != nil {
		slog.Error("CHAT: failed to read inventory", "error", err)
		return assistantText(MsgTryAgain), OutcomeFailed
	}

	messages := []makefoods.ChatMessage{{Role: makefoods.RoleSystem, Content: prompt.BuildChatSystemPrompt(summary)}}
	messages = append(messages, prompt.ToChatMessages(history)...)

	reply, err := o.complete(ctx, OpSend, messages)
	if err != nil {
		return assistantText(MsgTryAgain), OutcomeFailed
	}

	if !prompt.IsRecipeList(reply) {
		return assistantText(reply), OutcomeOK
	}

	names := prompt.ParseRecipeList(reply)
	slog.Debug("CHAT: model suggested dishes", "names", names)

	recipes, err := o.matcher.MatchByNames(ctx, names)
	if err != nil {
		slog.Error("CHAT: failed to resolve suggested dishes", "names", names, "error", err)
		return assistantText(MsgTryAgain), OutcomeFailed
	}
	if len(recipes) == 0 {
		return assistantText(MsgNoMatch), OutcomeNoMatch
	}
	return makefoods.NewRecipeOptionsMessage(MsgRecipeOptions, recipeNames(recipes)), OutcomeOK
}

func (o *Orchestrator) inventorySummary(ctx context.Context) (string, error) {
	ingredients, err := o.inventory.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return prompt.BuildInventorySummary(ingredients, o.opts.Now()), nil
}

// complete sends one request to the chat model and records the turn.
func (o *Orchestrator) complete(ctx context.Context, op string, messages []makefoods.ChatMessage) (string, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.complete")
	defer span.End()

	start := time.Now()
	reply, err := o.chat.Complete(ctx, makefoods.ChatRequest{
		Model:       o.opts.Model,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
		Messages:    messages,
	})
	elapsed := time.Since(start)
	o.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("operation", op)))

	if err == nil && strings.TrimSpace(reply) == "" {
		err = errEmptyReply
	}

	turn := makefoods.TurnLog{
		Operation: op,
		Timestamp: start,
		Duration:  elapsed,
		Input:     messages,
		Output:    reply,
	}
	if err != nil {
		turn.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("CHAT: chat service failed", "operation", op, "error", err)
	}
	if logErr := o.opts.TurnLogger.LogTurn(turn); logErr != nil {
		slog.Warn("CHAT: failed to log turn", "error", logErr)
	}

	return reply, err
}

// spawn runs fn on its own goroutine and appends the message it returns.
// A panic in fn appends fallback instead.
func (o *Orchestrator) spawn(ctx context.Context, op, fallback string, fn func(ctx context.Context) (makefoods.Message, string)) {
	ctx = context.WithoutCancel(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		ctx, span := o.tracer.Start(ctx, "Orchestrator."+op)
		defer span.End()

		msg, outcome := o.guard(ctx, op, fallback, fn)
		span.SetAttributes(attribute.String("outcome", outcome))

		o.timeline.Append(msg)

		attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("outcome", outcome))
		o.operations.Add(ctx, 1, attrs)
		if outcome == OutcomeFailed {
			o.failures.Add(ctx, 1, attrs)
		}
		if o.opts.Recorder != nil {
			o.opts.Recorder.RecordOutcome(op, outcome)
		}
	}()
}

func (o *Orchestrator) guard(ctx context.Context, op, fallback string, fn func(ctx context.Context) (makefoods.Message, string)) (msg makefoods.Message, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CHAT: operation panicked", "operation", op, "panic", r)
			msg, outcome = assistantText(fallback), OutcomeFailed
		}
	}()
	return fn(ctx)
}

func assistantText(text string) makefoods.Message {
	return makefoods.NewTextMessage(makefoods.SenderAssistant, text)
}

func recipeNames(recipes []makefoods.Recipe) []string {
	names := make([]string, 0, len(recipes))
	for _, r := range recipes {
		names = append(names, r.Name)
	}
	return names
}
