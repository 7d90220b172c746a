package cart

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperrors"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/storage"
)

var (
	shirt = models.Product{ID: "1", Name: "Shirt", Price: 20}
	jeans = models.Product{ID: "2", Name: "Jeans", Price: 45.5}
)

func TestAdd_RejectsDuplicate(t *testing.T) {
	items, err := Add(nil, shirt, "M")
	require.NoError(t, err)

	again, err := Add(items, shirt, "L")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateItem)
	require.Len(t, again, 1)
	assert.Equal(t, 1, again[0].Quantity)
	assert.Equal(t, "M", again[0].SelectedSize)
}

func TestDecrease_FloorsAtOne(t *testing.T) {
	items, _ := Add(nil, shirt, "")
	items, err := Decrease(items, shirt.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	items, _ = Increase(items, shirt.ID)
	items, _ = Increase(items, shirt.ID)
	items, _ = Decrease(items, shirt.ID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestMutationsDoNotAliasInput(t *testing.T) {
	items, _ := Add(nil, shirt, "")
	bumped, err := Increase(items, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 2, bumped[0].Quantity)
}

func TestUnknownIDIsNotFound(t *testing.T) {
	_, err := Increase(nil, "x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = Decrease(nil, "x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = Remove(nil, "x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTotalMatchesRecomputation(t *testing.T) {
	catalog := []models.Product{shirt, jeans, {ID: "3", Price: 9.99}, {ID: "4", Price: 0}}
	rng := rand.New(rand.NewSource(7))
	var items []models.CartLineItem

	for step := 0; step < 500; step++ {
		p := catalog[rng.Intn(len(catalog))]
		switch rng.Intn(4) {
		case 0:
			items, _ = Add(items, p, "")
		case 1:
			items, _ = Increase(items, p.ID)
		case 2:
			items, _ = Decrease(items, p.ID)
		case 3:
			items, _ = Remove(items, p.ID)
		}

		var want float64
		seen := map[models.ID]bool{}
		for _, it := range items {
			require.False(t, seen[it.ID], "duplicate line item %s", it.ID)
			seen[it.ID] = true
			require.GreaterOrEqual(t, it.Quantity, 1)
			want += it.Price * float64(it.Quantity)
		}
		require.InDelta(t, want, Total(items), 1e-9)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(nil)
	assert.NotNil(t, s.Items)
	assert.Zero(t, s.Total)

	items, _ := Add(nil, shirt, "")
	items, _ = Add(items, jeans, "")
	items, _ = Increase(items, jeans.ID)
	s = Summarize(items)
	assert.Equal(t, 3, s.ItemCount)
	assert.InDelta(t, 111.0, s.Total, 1e-9)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCheckout(ctx context.Context, owner string, summary models.CheckoutSummary) error {
	args := m.Called(ctx, owner, summary)
	return args.Error(0)
}

func newAggregator(store storage.Store, pub CheckoutPublisher) *Aggregator {
	return NewAggregator(store, pub, logging.Discard())
}

func TestAggregator_PersistsEveryMutation(t *testing.T) {
	store := storage.NewMemoryStore()
	agg := newAggregator(store, nil)
	ctx := context.Background()

	_, err := agg.Add(ctx, "s1", shirt, "M")
	require.NoError(t, err)
	_, err = agg.Increase(ctx, "s1", shirt.ID)
	require.NoError(t, err)

	// A fresh aggregator over the same store sees the same cart.
	view, err := newAggregator(store, nil).View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "M", view.Items[0].SelectedSize)
	assert.InDelta(t, 40.0, view.Total, 1e-9)

	other, err := agg.View(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestAggregator_DuplicateLeavesCartUnchanged(t *testing.T) {
	agg := newAggregator(storage.NewMemoryStore(), nil)
	ctx := context.Background()

	_, err := agg.Add(ctx, "s1", shirt, "")
	require.NoError(t, err)
	view, err := agg.Add(ctx, "s1", shirt, "")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateItem)
	assert.Len(t, view.Items, 1)
}

func TestAggregator_CorruptStorageYieldsEmptyCart(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, storage.CartKey("s1"), []byte("{not json")))

	agg := newAggregator(store, nil)
	view, err := agg.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	view, err = agg.Add(ctx, "s1", jeans, "")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

type failingStore struct {
	storage.Store
}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestAggregator_StoreFailureIsReported(t *testing.T) {
	agg := newAggregator(failingStore{storage.NewMemoryStore()}, nil)
	_, err := agg.Add(context.Background(), "s1", shirt, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestAggregator_CheckoutSnapshotsWithoutClearing(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := new(MockPublisher)
	agg := newAggregator(store, pub)
	ctx := context.Background()

	_, err := agg.Checkout(ctx, "s1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _ = agg.Add(ctx, "s1", shirt, "")
	_, _ = agg.Add(ctx, "s1", jeans, "")
	_, _ = agg.Increase(ctx, "s1", shirt.ID)

	pub.On("PublishCheckout", mock.Anything, "s1", mock.AnythingOfType("models.CheckoutSummary")).Return(errors.New("broker down"))

	summary, err := agg.Checkout(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ItemCount)
	assert.InDelta(t, 85.5, summary.TotalAmount, 1e-9)
	assert.NotEmpty(t, summary.ID)

	last, err := agg.LastCheckout(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, summary.ID, last.ID)

	view, err := agg.View(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	pub.AssertExpectations(t)
}

func TestAggregator_LastCheckoutMissing(t *testing.T) {
	agg := newAggregator(storage.NewMemoryStore(), nil)
	_, err := agg.LastCheckout(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAggregator_ClearAndRemove(t *testing.T) {
	agg := newAggregator(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	_, _ = agg.Add(ctx, "s1", shirt, "")
	_, _ = agg.Add(ctx, "s1", jeans, "")

	view, err := agg.Remove(ctx, "s1", shirt.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, jeans.ID, view.Items[0].ID)

	view, err = agg.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestStripe_StableAndBounded(t *testing.T) {
	for i := 0; i < 1000; i++ {
		owner := fmt.Sprintf("session-%d", i)
		n := stripe(owner)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, lockStripes)
		assert.Equal(t, n, stripe(owner))
	}
}

func TestAggregator_ConcurrentAddsAcrossManyOwners(t *testing.T) {
	agg := newAggregator(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	products := []models.Product{shirt, jeans, {ID: "3", Name: "Scarf", Price: 12}}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		owner := fmt.Sprintf("s%d", i)
		for _, p := range products {
			wg.Add(1)
			go func(owner string, p models.Product) {
				defer wg.Done()
				_, err := agg.Add(ctx, owner, p, "")
				assert.NoError(t, err)
			}(owner, p)
		}
	}
	wg.Wait()

	for i := 0; i < 200; i++ {
		view, err := agg.View(ctx, fmt.Sprintf("s%d", i))
		require.NoError(t, err)
		assert.Len(t, view.Items, len(products))
	}
}
