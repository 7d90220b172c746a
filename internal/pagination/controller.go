// Package pagination owns the current page of a catalog listing.
package pagination

import "sync"

// ChangeFunc is notified with the new page after every page change.
type ChangeFunc func(page int)

// Controller holds a 1-indexed current page. It knows nothing about
// filters; callers reset it when the filter changes.
type Controller struct {
	mu         sync.Mutex
	current    int
	totalPages int
	listeners  []ChangeFunc
}

// New returns a controller on page 1 with no known page count.
func New() *Controller {
	return &Controller{current: 1}
}

// OnChange registers fn to run after each change of the current page.
func (c *Controller) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Current returns the current page.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// TotalPages returns the last known page count; zero means unknown.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

// SetTotalPages records the page count from the latest listing.
func (c *Controller) SetTotalPages(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.totalPages = n
	c.mu.Unlock()
}

// SetPage moves to page n. Pages below 1, or above the page count when it
// is known, are ignored. It reports whether the page changed; listeners run
// only in that case.
func (c *Controller) SetPage(n int) bool {
	c.mu.Lock()
	if n < 1 || (c.totalPages > 0 && n > c.totalPages) || n == c.current {
		c.mu.Unlock()
		return false
	}
	c.current = n
	listeners := append([]ChangeFunc(nil), c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(n)
	}
	return true
}

// Next advances one page if possible.
func (c *Controller) Next() bool {
	return c.SetPage(c.Current() + 1)
}

// Prev goes back one page if possible.
func (c *Controller) Prev() bool {
	return c.SetPage(c.Current() - 1)
}

// Reset returns to page 1. It must be called whenever the filter changes.
// It reports whether the page changed.
func (c *Controller) Reset() bool {
	return c.SetPage(1)
}
