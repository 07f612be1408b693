package catalog

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Alpha Probe", Price: 10, Category: "x", Rating: 4.0},
		{ID: 2, Name: "Beta Hub", Price: 20, Category: "y", Rating: 4.5},
		{ID: 3, Name: "Gamma Probe", Price: 20, Category: "x", Rating: 3.5},
		{ID: 4, Name: "Delta License", Price: 15, Rating: 4.2},
	}
}

func ids(products []models.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestCategoryFilter(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "A", Price: 10, Category: "x"},
		{ID: 2, Name: "B", Price: 20, Category: "y"},
	}

	filters := DefaultFilters()
	filters.Category = "x"
	assert.Equal(t, []int64{1}, ids(Apply(products, filters)))

	filters.Category = "all"
	assert.Equal(t, []int64{1, 2}, ids(Apply(products, filters)))
}

func TestPriceRangeInclusive(t *testing.T) {
	filters := DefaultFilters()
	filters.MinPrice = 15
	filters.MaxPrice = 20

	assert.Equal(t, []int64{2, 3, 4}, ids(Apply(testProducts(), filters)))
}

func TestInvertedPriceRangeMatchesNothing(t *testing.T) {
	filters := DefaultFilters()
	filters.MinPrice = 100
	filters.MaxPrice = 5

	assert.Empty(t, Apply(testProducts(), filters))
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	filters := DefaultFilters()
	filters.SearchQuery = "pRoBe"

	assert.Equal(t, []int64{1, 3}, ids(Apply(testProducts(), filters)))
}

func TestApplyIsIdempotent(t *testing.T) {
	filters := DefaultFilters()
	filters.Category = "x"
	filters.SortBy = models.SortPriceAsc

	once := Apply(testProducts(), filters)
	twice := Apply(once, filters)
	assert.Equal(t, once, twice)
}

func TestSortPriceAscThenDescReverses(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "A", Price: 30},
		{ID: 2, Name: "B", Price: 10},
		{ID: 3, Name: "C", Price: 20},
	}

	filters := DefaultFilters()
	filters.SortBy = models.SortPriceAsc
	asc := ids(Apply(products, filters))
	assert.Equal(t, []int64{2, 3, 1}, asc)

	filters.SortBy = models.SortPriceDesc
	desc := ids(Apply(products, filters))
	assert.Equal(t, []int64{1, 3, 2}, desc)
}

func TestSortIsStableOnTies(t *testing.T) {
	filters := DefaultFilters()
	filters.SortBy = models.SortPriceAsc

	// products 2 and 3 share price 20; catalog order must hold
	sorted := ids(Apply(testProducts(), filters))
	assert.Equal(t, []int64{1, 4, 2, 3}, sorted)
}

func TestSortNewestKeepsInputOrder(t *testing.T) {
	filters := DefaultFilters()
	filters.SortBy = models.SortNewest

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(Apply(testProducts(), filters)))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	products := testProducts()
	filters := DefaultFilters()
	filters.SortBy = models.SortPriceDesc

	Apply(products, filters)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(products))
}

func TestCategoriesFacetDropsUncategorized(t *testing.T) {
	c := New(testProducts())
	assert.Equal(t, []string{"all", "x", "y"}, c.Categories())
}

func TestFilterStoreMergeAndReset(t *testing.T) {
	fs := NewFilterStore()

	category := "x"
	minPrice := 5.0
	fs.SetFilters(FiltersPatch{Category: &category, MinPrice: &minPrice})

	got := fs.Filters()
	assert.Equal(t, "x", got.Category)
	assert.Equal(t, 5.0, got.MinPrice)
	// untouched fields keep their defaults
	assert.Equal(t, 1000.0, got.MaxPrice)
	assert.Equal(t, models.SortNewest, got.SortBy)

	fs.ResetFilters()
	assert.Equal(t, DefaultFilters(), fs.Filters())
}

func TestGetProduct(t *testing.T) {
	c := New(testProducts())

	p, err := c.GetProduct(2)
	require.NoError(t, err)
	assert.Equal(t, "Beta Hub", p.Name)

	_, err = c.GetProduct(999)
	assert.Error(t, err)
}
