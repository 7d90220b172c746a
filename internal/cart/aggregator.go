package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/storage"
)

// CheckoutPublisher announces checkout snapshots.
type CheckoutPublisher interface {
	PublishCheckout(ctx context.Context, owner string, summary models.CheckoutSummary) error
}

// Aggregator owns the persisted carts, one per owner.
type Aggregator struct {
	store     storage.Store
	publisher CheckoutPublisher
	log       *logrus.Entry
	now       func() time.Time

	locks [lockStripes]sync.Mutex
}

// lockStripes bounds the per-owner mutexes; owners hashing to the same stripe
// serialize against each other.
const lockStripes = 64

// NewAggregator creates an Aggregator. publisher may be nil.
func NewAggregator(store storage.Store, publisher CheckoutPublisher, log *logrus.Logger) *Aggregator {
	return &Aggregator{
		store:     store,
		publisher: publisher,
		log:       log.WithField("component", "cart"),
		now:       time.Now,
	}
}

func stripe(owner string) int {
	return int(xxhash.Sum64String(owner) % lockStripes)
}

func (a *Aggregator) lock(owner string) func() {
	mu := &a.locks[stripe(owner)]
	mu.Lock()
	return mu.Unlock
}

// load rehydrates owner's cart. Absent or unreadable data yields an empty
// cart; only a failing store is reported.
func (a *Aggregator) load(ctx context.Context, owner string) ([]models.CartLineItem, error) {
	raw, err := a.store.Get(ctx, storage.CartKey(owner))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []models.CartLineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	var items []models.CartLineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		a.log.WithError(err).WithField("owner", owner).Warn("discarding unreadable cart")
		return []models.CartLineItem{}, nil
	}
	if items == nil {
		items = []models.CartLineItem{}
	}
	return items, nil
}

func (a *Aggregator) save(ctx context.Context, owner string, items []models.CartLineItem) error {
	if err := storage.SetJSON(ctx, a.store, storage.CartKey(owner), items); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

type mutation func([]models.CartLineItem) ([]models.CartLineItem, error)

// apply runs one mutation under the owner's lock and persists the result.
// A rejected mutation leaves storage untouched.
func (a *Aggregator) apply(ctx context.Context, op, owner string, fn mutation) (Summary, error) {
	unlock := a.lock(owner)
	defer unlock()

	items, err := a.load(ctx, owner)
	if err != nil {
		return Summary{}, err
	}
	next, opErr := fn(items)
	metrics.RecordCartMutation(op, opErr)
	if opErr != nil {
		return Summarize(items), opErr
	}
	if err := a.save(ctx, owner, next); err != nil {
		return Summarize(items), err
	}
	return Summarize(next), nil
}

// View returns owner's cart.
func (a *Aggregator) View(ctx context.Context, owner string) (Summary, error) {
	items, err := a.load(ctx, owner)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}

// Add puts product in owner's cart. Adding a product already present returns
// the unchanged cart along with apperrors.ErrDuplicateItem.
func (a *Aggregator) Add(ctx context.Context, owner string, product models.Product, size string) (Summary, error) {
	return a.apply(ctx, "add", owner, func(items []models.CartLineItem) ([]models.CartLineItem, error) {
		return Add(items, product, size)
	})
}

// Increase adds one unit of id.
func (a *Aggregator) Increase(ctx context.Context, owner string, id models.ID) (Summary, error) {
	return a.apply(ctx, "increase", owner, func(items []models.CartLineItem) ([]models.CartLineItem, error) {
		return Increase(items, id)
	})
}

// Decrease removes one unit of id, keeping at least one.
func (a *Aggregator) Decrease(ctx context.Context, owner string, id models.ID) (Summary, error) {
	return a.apply(ctx, "decrease", owner, func(items []models.CartLineItem) ([]models.CartLineItem, error) {
		return Decrease(items, id)
	})
}

// Remove deletes id from the cart.
func (a *Aggregator) Remove(ctx context.Context, owner string, id models.ID) (Summary, error) {
	return a.apply(ctx, "remove", owner, func(items []models.CartLineItem) ([]models.CartLineItem, error) {
		return Remove(items, id)
	})
}

// Clear empties the cart.
func (a *Aggregator) Clear(ctx context.Context, owner string) (Summary, error) {
	return a.apply(ctx, "clear", owner, func([]models.CartLineItem) ([]models.CartLineItem, error) {
		return []models.CartLineItem{}, nil
	})
}

// Checkout records the cart's item count and total as owner's last order
// summary and announces it. The cart itself is left as it is.
func (a *Aggregator) Checkout(ctx context.Context, owner string) (*models.CheckoutSummary, error) {
	unlock := a.lock(owner)
	items, err := a.load(ctx, owner)
	unlock()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("cart", "cart is empty")
	}

	summary := models.CheckoutSummary{
		ID:          uuid.New().String(),
		Items:       items,
		ItemCount:   Count(items),
		TotalAmount: Total(items),
		CapturedAt:  a.now().UTC(),
	}
	if err := storage.SetJSON(ctx, a.store, storage.OrderKey(owner), summary); err != nil {
		return nil, fmt.Errorf("failed to save checkout summary: %w", err)
	}
	metrics.RecordCheckout()

	if a.publisher != nil {
		if err := a.publisher.PublishCheckout(ctx, owner, summary); err != nil {
			a.log.WithError(err).WithField("owner", owner).Warn("failed to publish checkout")
		}
	}
	return &summary, nil
}

// LastCheckout returns owner's most recent checkout summary.
func (a *Aggregator) LastCheckout(ctx context.Context, owner string) (*models.CheckoutSummary, error) {
	var summary models.CheckoutSummary
	err := storage.GetJSON(ctx, a.store, storage.OrderKey(owner), &summary)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, apperrors.NotFound("checkout", owner)
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
