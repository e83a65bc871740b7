package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"makefoods"
	"makefoods/fridge"
)

const (
	KindReceipt     = "receipt"
	KindIngredients = "ingredients"

	DefaultShelfLife = 7 * 24 * time.Hour
)

const (
	receiptInstruction = `This is a grocery receipt. Extract only the purchased food items.
Write one item name per line. Do not include prices, quantities, dates or any other text.`

	ingredientsInstruction = `List every food ingredient you can see in this photo.
Write one ingredient name per line and nothing else.`
)

var (
	ErrEmptyItems        = errors.New("no items to add")
	ErrUnsupportedFormat = makefoods.ErrUnsupportedImageFormat
)

type fridgeWriter interface {
	InsertAll(ings []makefoods.Ingredient) <-chan fridge.Inserted
}

// Result is a recognition reply and the item names parsed from it.
type Result struct {
	Text  string   `json:"text"`
	Items []string `json:"items"`
}

// Recognizer turns receipt and food photos into fridge items.
type Recognizer struct {
	svc       makefoods.VisionService
	fridge    fridgeWriter
	shelfLife time.Duration
	tracer    trace.Tracer
}

func NewRecognizer(svc makefoods.VisionService, fw fridgeWriter, shelfLife time.Duration) *Recognizer {
	if shelfLife <= 0 {
		shelfLife = DefaultShelfLife
	}
	return &Recognizer{
		svc:       svc,
		fridge:    fw,
		shelfLife: shelfLife,
		tracer:    otel.Tracer(makefoods.InstrumentationVision),
	}
}

func (r *Recognizer) RecognizeReceipt(ctx context.Context, image []byte, format string) (Result, error) {
	return r.recognize(ctx, KindReceipt, receiptInstruction, image, format)
}

func (r *Recognizer) RecognizeIngredients(ctx context.Context, image []byte, format string) (Result, error) {
	return r.recognize(ctx, KindIngredients, ingredientsInstruction, image, format)
}

// Recognize dispatches on kind, which is KindReceipt or KindIngredients.
func (r *Recognizer) Recognize(ctx context.Context, kind string, image []byte, format string) (Result, error) {
	switch kind {
	case KindReceipt:
		return r.RecognizeReceipt(ctx, image, format)
	case KindIngredients:
		return r.RecognizeIngredients(ctx, image, format)
	default:
		return Result{}, fmt.Errorf("unknown recognition kind %q", kind)
	}
}

func (r *Recognizer) recognize(ctx context.Context, kind, instruction string, image []byte, format string) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "Recognizer."+kind)
	defer span.End()

	text, err := r.svc.Recognize(ctx, makefoods.VisionRequest{
		Image:       image,
		Format:      format,
		Instruction: instruction,
	})
	if err != nil {
		span.RecordError(err)
		if strings.TrimSpace(err.Error()) == "" {
			slog.Error("VISION: recognition failed", "kind", kind, "error", "unknown error")
			return Result{}, fmt.Errorf("recognize %s: unknown error", kind)
		}
		slog.Error("VISION: recognition failed", "kind", kind, "error", err)
		return Result{}, fmt.Errorf("recognize %s: %w", kind, err)
	}

	items := ParseItems(text)
	span.SetAttributes(attribute.Int("items", len(items)))
	slog.Info("VISION: recognized items", "kind", kind, "count", len(items))
	return Result{Text: text, Items: items}, nil
}

// ParseItems returns the non-blank lines of text with list bullets removed.
func ParseItems(text string) []string {
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// AddToFridge stores each item with quantity 1, registered at now and
// expiring after the shelf life. It waits for the fridge to apply the insert
// and returns the stored rows.
func (r *Recognizer) AddToFridge(ctx context.Context, items []string, now time.Time) ([]makefoods.Ingredient, error) {
	ings := make([]makefoods.Ingredient, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item)
		if name == "" {
			continue
		}
		ings = append(ings, makefoods.Ingredient{
			Name:         name,
			Quantity:     1,
			RegisteredAt: now,
			ExpiresAt:    now.Add(r.shelfLife),
		})
	}
	if len(ings) == 0 {
		return nil, ErrEmptyItems
	}

	select {
	case res := <-r.fridge.InsertAll(ings):
		if res.Err != nil {
			return nil, fmt.Errorf("add recognized items: %w", res.Err)
		}
		return res.Ingredients, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
