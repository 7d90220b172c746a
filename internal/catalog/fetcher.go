package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
	"storefront/internal/filter"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// DefaultTimeout bounds a fetch when none is configured.
const DefaultTimeout = 10 * time.Second

// Lister is the part of the product repository the fetcher needs.
type Lister interface {
	List(ctx context.Context, q repositories.ListQuery) (*repositories.ProductPage, error)
	GetAll(ctx context.Context) ([]models.Product, error)
}

// Request identifies one listing: a filter and a page of a given size.
type Request struct {
	Filter   filter.State
	Page     int
	PageSize int
}

// Result is a fetched listing.
type Result struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	TotalCount int              `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
	Generation uint64           `json:"-"`
}

// CommitFunc applies a result to visible state. It runs only for the latest
// request of its key and must not call back into the Fetcher.
type CommitFunc func(*Result)

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Fetcher issues catalog list requests. Requests share a key when they
// feed the same visible listing; for each key only the newest request may
// commit, and starting a request cancels the one it supersedes.
type Fetcher struct {
	lister  Lister
	timeout time.Duration
	log     *logrus.Entry

	mu          sync.Mutex
	generations map[string]uint64
	running     map[string]inflight
}

// NewFetcher creates a Fetcher. A non-positive timeout means DefaultTimeout.
func NewFetcher(lister Lister, timeout time.Duration, log *logrus.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		lister:      lister,
		timeout:     timeout,
		log:         log.WithField("component", "catalog"),
		generations: make(map[string]uint64),
		running:     make(map[string]inflight),
	}
}

// Fetch lists products for req under key. If a newer Fetch for the same key
// starts before this one finishes, this one returns apperrors.ErrSuperseded
// and commit is not called.
func (f *Fetcher) Fetch(ctx context.Context, key string, req Request, commit CommitFunc) (*Result, error) {
	if req.PageSize < 1 {
		return nil, apperrors.NewValidationError("pageSize", "must be positive")
	}
	return f.FetchFunc(ctx, key, func() Request { return req }, commit)
}

// FetchFunc is Fetch with the request built by build in the same critical
// section that issues the request's generation, so the newest generation
// always carries the newest state build reads. build must not call back into
// the Fetcher.
func (f *Fetcher) FetchFunc(ctx context.Context, key string, build func() Request, commit CommitFunc) (*Result, error) {
	gen, req, ctx, done := f.begin(ctx, key, build)
	defer done()

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		return nil, apperrors.NewValidationError("pageSize", "must be positive")
	}

	start := time.Now()
	log := f.log.WithFields(logrus.Fields{"key": key, "generation": gen})

	result, err := f.list(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generations[key] != gen {
		log.Debug("discarding superseded catalog response")
		metrics.RecordFetch(metrics.FetchSuperseded, time.Since(start))
		return nil, apperrors.ErrSuperseded
	}
	if err != nil {
		log.WithError(err).Warn("catalog fetch failed")
		metrics.RecordFetch(metrics.FetchError, time.Since(start))
		return nil, err
	}
	result.Generation = gen
	if commit != nil {
		commit(result)
	}
	metrics.RecordFetch(metrics.FetchOK, time.Since(start))
	return result, nil
}

// Generation returns the latest generation issued for key.
func (f *Fetcher) Generation(key string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generations[key]
}

// Forget drops the bookkeeping for key, cancelling any request in flight.
func (f *Fetcher) Forget(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.running[key]; ok {
		run.cancel()
		delete(f.running, key)
	}
	delete(f.generations, key)
}

func (f *Fetcher) begin(parent context.Context, key string, build func() Request) (uint64, Request, context.Context, func()) {
	ctx, cancel := context.WithTimeout(parent, f.timeout)

	f.mu.Lock()
	gen := f.generations[key] + 1
	f.generations[key] = gen
	req := build()
	if prev, ok := f.running[key]; ok {
		prev.cancel()
	}
	f.running[key] = inflight{gen: gen, cancel: cancel}
	f.mu.Unlock()

	return gen, req, ctx, func() {
		f.mu.Lock()
		if run, ok := f.running[key]; ok && run.gen == gen {
			delete(f.running, key)
		}
		f.mu.Unlock()
		cancel()
	}
}

func (f *Fetcher) list(ctx context.Context, req Request) (*Result, error) {
	q := repositories.ListQuery{
		Categories: CategoryLabels(req.Filter.Categories),
		Genders:    req.Filter.Genders,
		Colors:     req.Filter.Colors,
		Sort:       string(req.Filter.Sort),
		Query:      req.Filter.Query,
		Page:       req.Page,
		Limit:      req.PageSize,
	}
	page, err := f.lister.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	total := page.TotalCount
	if !page.HasTotal {
		// No count header: learn the size from the whole collection.
		all, err := f.lister.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count products: %w", err)
		}
		total = len(all)
	}

	products := page.Items
	if products == nil {
		products = []models.Product{}
	}
	return &Result{
		Products:   products,
		Page:       req.Page,
		TotalCount: total,
		TotalPages: TotalPages(total, req.PageSize),
	}, nil
}

// TotalPages is ceil(total / pageSize); zero when either is non-positive.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// IsSuperseded reports whether err marks a discarded stale response.
func IsSuperseded(err error) bool {
	return errors.Is(err, apperrors.ErrSuperseded)
}
