package services

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/catalog"
	"storefront/internal/filter"
	"storefront/internal/models"
	"storefront/internal/pagination"
	"storefront/internal/state"
)

// pageParam is the storefront query key carrying the page number.
const pageParam = "_page"

// SessionState is everything a catalog page renders.
type SessionState struct {
	Filter      filter.State     `json:"filter"`
	Query       string           `json:"query"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"totalPages"`
	TotalCount  int              `json:"totalCount"`
	Products    []models.Product `json:"products"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
	ScrollToTop bool             `json:"scrollToTop"`
	Generation  uint64           `json:"generation"`
}

// CatalogSession is one shopper's catalog browsing state. Every filter
// change returns to page 1; every page change asks the view to scroll to the
// top and refetches.
type CatalogSession struct {
	id       string
	pageSize int
	fetcher  *catalog.Fetcher
	store    *state.Store[SessionState]
	pager    *pagination.Controller
	log      *logrus.Entry

	mu       sync.Mutex
	lastSeen time.Time
}

func newCatalogSession(id string, pageSize int, fetcher *catalog.Fetcher, log *logrus.Entry) *CatalogSession {
	s := &CatalogSession{
		id:       id,
		pageSize: pageSize,
		fetcher:  fetcher,
		store:    state.New(SessionState{Page: 1, Products: []models.Product{}}),
		pager:    pagination.New(),
		log:      log.WithField("session", id),
		lastSeen: time.Now(),
	}
	s.pager.OnChange(func(page int) {
		s.store.Dispatch(func(st SessionState) SessionState {
			st.Page = page
			st.ScrollToTop = true
			return st
		})
	})
	s.store.Subscribe(func(st SessionState) {
		s.log.WithFields(logrus.Fields{
			"page":       st.Page,
			"loading":    st.Loading,
			"generation": st.Generation,
		}).Debug("catalog state changed")
	})
	return s
}

// ID returns the session id.
func (s *CatalogSession) ID() string { return s.id }

// Snapshot returns the current state.
func (s *CatalogSession) Snapshot() SessionState {
	return s.store.Get()
}

func (s *CatalogSession) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *CatalogSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Navigate loads the catalog for a storefront query string. A changed filter
// starts over at page 1 unless the query names a page. A page past the end of
// the listing settles on the last page.
func (s *CatalogSession) Navigate(ctx context.Context, rawQuery string) (SessionState, error) {
	s.touch()
	values, _ := url.ParseQuery(rawQuery)
	next := filter.FromValues(values)

	s.clearScroll()
	if s.updateFilter(func(filter.State) filter.State { return next }) {
		s.pager.SetTotalPages(0)
	}
	if raw := values.Get(pageParam); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			s.pager.SetPage(n)
		}
	}
	st, err := s.refresh(ctx)
	if err != nil || st.TotalPages < 1 || st.Page <= st.TotalPages {
		return st, err
	}
	if !s.pager.SetPage(st.TotalPages) {
		return st, nil
	}
	return s.refresh(ctx)
}

// Toggle flips one facet value and refetches from page 1.
func (s *CatalogSession) Toggle(ctx context.Context, facet filter.Facet, value string) (SessionState, error) {
	s.touch()
	s.clearScroll()
	s.updateFilter(func(cur filter.State) filter.State {
		return filter.Toggle(cur, facet, value)
	})
	return s.refresh(ctx)
}

// ClearAll drops every facet, the sort and the search.
func (s *CatalogSession) ClearAll(ctx context.Context) (SessionState, error) {
	s.touch()
	s.clearScroll()
	s.updateFilter(func(filter.State) filter.State { return filter.ClearAll() })
	return s.refresh(ctx)
}

// Search replaces the whole filter with a free-text query.
func (s *CatalogSession) Search(ctx context.Context, q string) (SessionState, error) {
	s.touch()
	s.clearScroll()
	s.updateFilter(func(filter.State) filter.State { return filter.Search(q) })
	return s.refresh(ctx)
}

// SetSort changes the price sort order.
func (s *CatalogSession) SetSort(ctx context.Context, order filter.SortOrder) (SessionState, error) {
	s.touch()
	s.clearScroll()
	s.updateFilter(func(cur filter.State) filter.State {
		return filter.WithSort(cur, order)
	})
	return s.refresh(ctx)
}

// SetPage moves to page n. Out-of-range and unchanged pages return the
// current state without fetching.
func (s *CatalogSession) SetPage(ctx context.Context, n int) (SessionState, error) {
	s.touch()
	s.clearScroll()
	if !s.pager.SetPage(n) {
		return s.store.Get(), nil
	}
	return s.refresh(ctx)
}

func (s *CatalogSession) clearScroll() {
	s.store.Dispatch(func(st SessionState) SessionState {
		st.ScrollToTop = false
		return st
	})
}

// updateFilter applies fn to the current filter in a single dispatch and
// resets to page 1 when the result differs. It reports whether it did.
func (s *CatalogSession) updateFilter(fn func(filter.State) filter.State) bool {
	changed := false
	s.store.Dispatch(func(st SessionState) SessionState {
		next := fn(st.Filter)
		if filter.Equal(next, st.Filter) {
			return st
		}
		changed = true
		st.Filter = next
		st.Query = filter.Encode(next)
		st.Page = 1
		return st
	})
	if changed {
		s.pager.Reset()
	}
	return changed
}

// refresh fetches the listing for whatever the state holds when the fetch is
// issued. A result whose filter or page no longer matches the state is
// dropped; the change that moved the state has its own fetch under way.
func (s *CatalogSession) refresh(ctx context.Context) (SessionState, error) {
	s.store.Dispatch(func(st SessionState) SessionState {
		st.Loading = true
		st.Error = ""
		return st
	})

	var issued catalog.Request
	_, err := s.fetcher.FetchFunc(ctx, s.id, func() catalog.Request {
		st := s.store.Get()
		issued = catalog.Request{Filter: st.Filter, Page: st.Page, PageSize: s.pageSize}
		return issued
	}, func(res *catalog.Result) {
		applied := false
		s.store.Dispatch(func(st SessionState) SessionState {
			if st.Page != issued.Page || !filter.Equal(st.Filter, issued.Filter) {
				return st
			}
			applied = true
			st.Products = res.Products
			st.TotalCount = res.TotalCount
			st.TotalPages = res.TotalPages
			st.Generation = res.Generation
			st.Loading = false
			st.Error = ""
			return st
		})
		if applied {
			s.pager.SetTotalPages(res.TotalPages)
		}
	})

	switch {
	case err == nil:
	case catalog.IsSuperseded(err):
		// A newer request owns the view; report whatever it shows.
		return s.store.Get(), err
	default:
		s.store.Dispatch(func(st SessionState) SessionState {
			st.Loading = false
			st.Error = err.Error()
			return st
		})
		return s.store.Get(), err
	}
	return s.store.Get(), nil
}

// StorefrontService owns the catalog sessions.
type StorefrontService struct {
	fetcher  *catalog.Fetcher
	pageSize int
	log      *logrus.Entry

	mu       sync.Mutex
	sessions map[string]*CatalogSession
}

// NewStorefrontService creates a new StorefrontService.
func NewStorefrontService(fetcher *catalog.Fetcher, pageSize int, log *logrus.Logger) *StorefrontService {
	if pageSize < 1 {
		pageSize = 16
	}
	return &StorefrontService{
		fetcher:  fetcher,
		pageSize: pageSize,
		log:      log.WithField("component", "storefront"),
		sessions: make(map[string]*CatalogSession),
	}
}

// Session returns the catalog session for id, creating it on first use.
func (s *StorefrontService) Session(id string) *CatalogSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = newCatalogSession(id, s.pageSize, s.fetcher, s.log)
		s.sessions[id] = sess
	}
	return sess
}

// Prune drops sessions idle for longer than maxIdle and reports how many
// were removed.
func (s *StorefrontService) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			s.fetcher.Forget(id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *StorefrontService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
