package fridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"makefoods"
)

var ErrClosed = errors.New("fridge service closed")

type ingredientStore interface {
	ListAll(ctx context.Context) ([]makefoods.Ingredient, error)
	Snapshot(ctx context.Context) ([]makefoods.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*makefoods.Ingredient, error)
	Insert(ctx context.Context, ing makefoods.Ingredient) (makefoods.Ingredient, error)
	InsertAll(ctx context.Context, ings []makefoods.Ingredient) ([]makefoods.Ingredient, error)
	Update(ctx context.Context, ing makefoods.Ingredient) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteBatch(ctx context.Context, ings []makefoods.Ingredient) error
	DeleteAll(ctx context.Context) error
}

type job struct {
	name   string
	run    func(ctx context.Context) error
	finish func(err error)
}

// Inserted is the outcome of InsertAll: the stored rows with their IDs.
type Inserted struct {
	Ingredients []makefoods.Ingredient
	Err         error
}

// Service serializes ingredient mutations on one worker goroutine and
// publishes the full inventory after each of them. The queue is unbounded,
// so submitting a mutation never waits on the database.
type Service struct {
	store ingredientStore
	feed  *makefoods.Feed[[]makefoods.Ingredient]

	mu     sync.Mutex
	queue  []job
	wake   chan struct{}
	closed bool
	done   chan struct{}

	mutations metric.Int64Counter
	items     metric.Int64Gauge
}

// NewService reads the current inventory and starts the worker.
func NewService(ctx context.Context, store ingredientStore) (*Service, error) {
	initial, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	meter := otel.Meter(makefoods.InstrumentationFridge)
	mutations, _ := meter.Int64Counter("fridge_mutations_total",
		metric.WithDescription("Total number of fridge mutations applied"))
	items, _ := meter.Int64Gauge("fridge_ingredients_count",
		metric.WithDescription("Number of ingredients in the fridge"))

	s := &Service{
		store:     store,
		feed:      makefoods.NewFeed(initial),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		mutations: mutations,
		items:     items,
	}
	go s.work(context.WithoutCancel(ctx))
	return s, nil
}

// Current returns the latest published inventory, most recent first.
func (s *Service) Current() []makefoods.Ingredient {
	return s.feed.Load()
}

func (s *Service) Subscribe() (<-chan []makefoods.Ingredient, func()) {
	return s.feed.Subscribe()
}

// Snapshot reads the inventory straight from the store.
func (s *Service) Snapshot(ctx context.Context) ([]makefoods.Ingredient, error) {
	return s.store.Snapshot(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*makefoods.Ingredient, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Insert(ing makefoods.Ingredient) <-chan error {
	return s.submit("insert", func(ctx context.Context) error {
		_, err := s.store.Insert(ctx, ing)
		return err
	})
}

// InsertAll stores ings and delivers the stored rows, IDs included.
func (s *Service) InsertAll(ings []makefoods.Ingredient) <-chan Inserted {
	ings = append([]makefoods.Ingredient(nil), ings...)
	out := make(chan Inserted, 1)

	var stored []makefoods.Ingredient
	s.enqueue(job{
		name: "insert_all",
		run: func(ctx context.Context) error {
			var err error
			stored, err = s.store.InsertAll(ctx, ings)
			return err
		},
		finish: func(err error) {
			if err != nil {
				out <- Inserted{Err: err}
				return
			}
			out <- Inserted{Ingredients: stored}
		},
	})
	return out
}

// Update replaces the ingredient with ing.ID; a missing ID is a no-op.
func (s *Service) Update(ing makefoods.Ingredient) <-chan error {
	return s.submit("update", func(ctx context.Context) error {
		return s.store.Update(ctx, ing)
	})
}

func (s *Service) Delete(ing makefoods.Ingredient) <-chan error {
	return s.DeleteByID(ing.ID)
}

func (s *Service) DeleteByID(id int64) <-chan error {
	return s.submit("delete", func(ctx context.Context) error {
		return s.store.DeleteByID(ctx, id)
	})
}

func (s *Service) DeleteBatch(ings []makefoods.Ingredient) <-chan error {
	ings = append([]makefoods.Ingredient(nil), ings...)
	return s.submit("delete_batch", func(ctx context.Context) error {
		return s.store.DeleteBatch(ctx, ings)
	})
}

func (s *Service) DeleteAll() <-chan error {
	return s.submit("delete_all", func(ctx context.Context) error {
		return s.store.DeleteAll(ctx)
	})
}

// Close stops accepting work, waits for queued mutations, then returns.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
	<-s.done
}

// submit queues a mutation whose only result is its error.
func (s *Service) submit(name string, run func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	s.enqueue(job{name: name, run: run, finish: func(err error) { done <- err }})
	return done
}

func (s *Service) enqueue(j job) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		j.finish(ErrClosed)
		return
	}
	s.queue = append(s.queue, j)
	s.mu.Unlock()
	s.signal()
}

func (s *Service) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest job. It returns false once the service is closed
// and the queue has drained.
func (s *Service) next() (job, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			j := s.queue[0]
			s.queue[0] = job{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return j, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return job{}, false
		}
		<-s.wake
	}
}

func (s *Service) work(ctx context.Context) {
	defer close(s.done)

	for {
		j, ok := s.next()
		if !ok {
			return
		}
		err := j.run(ctx)
		if err != nil {
			slog.Error("FRIDGE: mutation failed", "mutation", j.name, "error", err)
		} else {
			s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("mutation", j.name)))
			s.refresh(ctx)
		}
		j.finish(err)
	}
}

func (s *Service) refresh(ctx context.Context) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		slog.Error("FRIDGE: failed to reload inventory", "error", err)
		return
	}
	s.items.Record(ctx, int64(len(all)))
	s.feed.Publish(all)
}
