package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_StartsOnFirstPage(t *testing.T) {
	c := New()
	assert.Equal(t, 1, c.Current())
	assert.Equal(t, 0, c.TotalPages())
}

func TestSetPage_OutOfRangeIsNoOp(t *testing.T) {
	c := New()
	c.SetTotalPages(5)
	assert.True(t, c.SetPage(3))

	assert.False(t, c.SetPage(0))
	assert.Equal(t, 3, c.Current())

	assert.False(t, c.SetPage(6))
	assert.Equal(t, 3, c.Current())

	assert.False(t, c.SetPage(-2))
	assert.Equal(t, 3, c.Current())

	assert.True(t, c.SetPage(5))
	assert.Equal(t, 5, c.Current())
}

func TestSetPage_UnknownTotalAcceptsAnyPositivePage(t *testing.T) {
	c := New()
	assert.True(t, c.SetPage(40))
	assert.Equal(t, 40, c.Current())
}

func TestListenersRunOnlyOnChange(t *testing.T) {
	c := New()
	c.SetTotalPages(3)
	var pages []int
	c.OnChange(func(p int) { pages = append(pages, p) })

	c.SetPage(2)
	c.SetPage(2)
	c.SetPage(9)
	c.Next()
	c.Next()
	c.Prev()
	c.Reset()
	c.Reset()

	assert.Equal(t, []int{2, 3, 2, 1}, pages)
}

func TestSetTotalPages_NegativeMeansUnknown(t *testing.T) {
	c := New()
	c.SetTotalPages(-1)
	assert.Equal(t, 0, c.TotalPages())
}
