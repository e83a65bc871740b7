// Package httpapi exposes the conversation, fridge, recognition and tool
// operations over HTTP for the mobile client.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"makefoods"
	"makefoods/tools"
	"makefoods/vision"
)

type conversation interface {
	SendUserMessage(ctx context.Context, text string) makefoods.Message
	RequestRecipeDetail(ctx context.Context, name string)
	SuggestForIngredients(ctx context.Context, names []string)
	ExplainRecipe(ctx context.Context, name string)
}

type messageLog interface {
	Since(n int) []makefoods.Message
}

type fridgeService interface {
	Current() []makefoods.Ingredient
	GetByID(ctx context.Context, id int64) (*makefoods.Ingredient, error)
	Insert(ing makefoods.Ingredient) <-chan error
	Update(ing makefoods.Ingredient) <-chan error
	DeleteByID(id int64) <-chan error
	DeleteBatch(ings []makefoods.Ingredient) <-chan error
	DeleteAll() <-chan error
}

type recognizer interface {
	Recognize(ctx context.Context, kind string, image []byte, format string) (vision.Result, error)
	AddToFridge(ctx context.Context, items []string, now time.Time) ([]makefoods.Ingredient, error)
}

type recipeReader interface {
	GetByID(ctx context.Context, id int64) (*makefoods.Recipe, error)
	Count(ctx context.Context) (int64, error)
}

type toolRunner interface {
	GetTools() []tools.Tool
	Run(ctx context.Context, call tools.Call) (map[string]any, error)
}

// Deps are the services behind the routes. Recognizer may be nil, in which
// case /recognize answers 503.
type Deps struct {
	Conversation conversation
	Messages     messageLog
	Fridge       fridgeService
	Recognizer   recognizer
	Recipes      recipeReader
	Tools        toolRunner
	Collector    *Collector
	Gatherer     prometheus.Gatherer
	ShelfLife    time.Duration
	Now          func() time.Time
}

// NewRouter builds the chi router with logging, panic recovery and metrics.
func NewRouter(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ShelfLife <= 0 {
		deps.ShelfLife = vision.DefaultShelfLife
	}

	r := chi.NewRouter()
	r.Use(logRequests(deps.Collector))
	r.Use(recoverPanics)

	mh := &messageHandler{conv: deps.Conversation, log: deps.Messages}
	ih := &ingredientHandler{fridge: deps.Fridge, shelfLife: deps.ShelfLife, now: deps.Now}
	rh := &recognizeHandler{recognizer: deps.Recognizer, collector: deps.Collector, now: deps.Now}
	ch := &recipeHandler{recipes: deps.Recipes}
	th := &toolHandler{tools: deps.Tools}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", MetricsHandler(deps.Gatherer))
	}

	r.Route("/messages", func(r chi.Router) {
		r.Get("/", mh.List)
		r.Post("/", mh.Send)
		r.Post("/recipe-detail", mh.RecipeDetail)
		r.Post("/suggest", mh.Suggest)
		r.Post("/explain", mh.Explain)
	})

	r.Route("/ingredients", func(r chi.Router) {
		r.Get("/", ih.List)
		r.Post("/", ih.Create)
		r.Delete("/", ih.DeleteMany)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ih.Get)
			r.Put("/", ih.Update)
			r.Delete("/", ih.Delete)
		})
	})

	r.Post("/recognize", rh.Recognize)

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/count", ch.Count)
		r.Get("/{id}", ch.Get)
	})

	r.Route("/tools", func(r chi.Router) {
		r.Get("/", th.List)
		r.Post("/{name}", th.Run)
	})

	return r
}
