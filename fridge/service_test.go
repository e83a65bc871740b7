package fridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"makefoods"
	"makefoods/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open("", logger.Silent)
	require.NoError(t, err)

	svc, err := NewService(context.Background(), storage.NewIngredientStore(db))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func item(name string, registered time.Time) makefoods.Ingredient {
	return makefoods.Ingredient{
		Name:         name,
		Quantity:     1,
		RegisteredAt: registered,
		ExpiresAt:    registered.Add(7 * 24 * time.Hour),
	}
}

func names(ings []makefoods.Ingredient) []string {
	out := make([]string, 0, len(ings))
	for _, ing := range ings {
		out = append(out, ing.Name)
	}
	return out
}

func TestService_MutationsPublishSnapshots(t *testing.T) {
	svc := newTestService(t)
	base := time.UnixMilli(1_700_000_000_000)

	ch, cancel := svc.Subscribe()
	defer cancel()
	assert.Empty(t, <-ch)

	require.NoError(t, <-svc.Insert(item("egg", base)))
	inserted := <-svc.InsertAll([]makefoods.Ingredient{
		item("milk", base.Add(time.Hour)),
		item("pork", base.Add(2*time.Hour)),
	})
	require.NoError(t, inserted.Err)

	snap := <-ch
	assert.Equal(t, []string{"pork", "milk", "egg"}, names(snap))
	assert.Equal(t, snap, svc.Current())

	egg := snap[2]
	egg.Quantity = 12
	require.NoError(t, <-svc.Update(egg))
	got, err := svc.GetByID(context.Background(), egg.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Quantity)

	require.NoError(t, <-svc.Delete(snap[0]))
	require.NoError(t, <-svc.DeleteBatch(snap[1:2]))
	assert.Equal(t, []string{"egg"}, names(svc.Current()))

	require.NoError(t, <-svc.DeleteAll())
	assert.Empty(t, svc.Current())

	all, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_UpdateMissingIsNoOp(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, <-svc.Insert(item("egg", time.Now())))
	require.NoError(t, <-svc.Update(makefoods.Ingredient{ID: 4242, Name: "ghost", Quantity: 1}))
	assert.Equal(t, []string{"egg"}, names(svc.Current()))
}

func TestService_MutationsApplyInOrder(t *testing.T) {
	svc := newTestService(t)
	base := time.Now()

	var results []<-chan error
	for _, n := range []string{"a", "b", "c", "d"} {
		results = append(results, svc.Insert(item(n, base)))
	}
	results = append(results, svc.DeleteAll())
	results = append(results, svc.Insert(item("e", base)))

	for _, r := range results {
		require.NoError(t, <-r)
	}
	assert.Equal(t, []string{"e"}, names(svc.Current()))
}

type failingStore struct {
	ingredientStore
}

func (failingStore) ListAll(ctx context.Context) ([]makefoods.Ingredient, error) {
	return []makefoods.Ingredient{}, nil
}

func (failingStore) DeleteAll(ctx context.Context) error {
	return errors.New("database is locked")
}

func TestService_ErrorsAreDelivered(t *testing.T) {
	svc, err := NewService(context.Background(), failingStore{})
	require.NoError(t, err)

	err = <-svc.DeleteAll()
	assert.EqualError(t, err, "database is locked")

	svc.Close()
	assert.ErrorIs(t, <-svc.DeleteAll(), ErrClosed)
}

func TestService_InsertAllReturnsStoredRows(t *testing.T) {
	svc := newTestService(t)
	base := time.UnixMilli(1_700_000_000_000)

	res := <-svc.InsertAll([]makefoods.Ingredient{item("milk", base), item("eggs", base)})
	require.NoError(t, res.Err)
	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, []string{"milk", "eggs"}, names(res.Ingredients))
	for _, ing := range res.Ingredients {
		assert.NotZero(t, ing.ID)
		got, err := svc.GetByID(context.Background(), ing.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ing.Name, got.Name)
	}

	svc.Close()
	res = <-svc.InsertAll([]makefoods.Ingredient{item("tofu", base)})
	assert.ErrorIs(t, res.Err, ErrClosed)
	assert.Empty(t, res.Ingredients)
}

type blockingStore struct {
	ingredientStore
	release chan struct{}
}

func (blockingStore) ListAll(ctx context.Context) ([]makefoods.Ingredient, error) {
	return []makefoods.Ingredient{}, nil
}

func (s blockingStore) DeleteAll(ctx context.Context) error {
	<-s.release
	return nil
}

func TestService_SubmitDoesNotWaitForWorker(t *testing.T) {
	store := blockingStore{release: make(chan struct{})}
	svc, err := NewService(context.Background(), store)
	require.NoError(t, err)

	const n = 500
	results := make(chan (<-chan error), n)
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for range n {
			results <- svc.DeleteAll()
		}
	}()

	select {
	case <-submitted:
	case <-time.After(5 * time.Second):
		t.Fatal("submitting mutations blocked on a busy worker")
	}

	close(store.release)
	close(results)
	for r := range results {
		require.NoError(t, <-r)
	}
	svc.Close()
}
