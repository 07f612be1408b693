package catalog

import (
	"sort"
	"strings"

	"storefront-service/internal/models"
)

// DefaultFilters returns the filter defaults used when a view is reset.
func DefaultFilters() models.ShopFilters {
	return models.ShopFilters{
		Category:    "all",
		MinPrice:    0,
		MaxPrice:    1000,
		SortBy:      models.SortNewest,
		SearchQuery: "",
	}
}

// FilterStore holds the current catalog view filters. It is ephemeral view
// state; nothing is persisted.
type FilterStore struct {
	filters models.ShopFilters
}

// NewFilterStore creates a filter store initialized to the defaults.
func NewFilterStore() *FilterStore {
	return &FilterStore{filters: DefaultFilters()}
}

// Filters returns the current filter set.
func (fs *FilterStore) Filters() models.ShopFilters {
	return fs.filters
}

// SetFilters merges the non-nil fields of the patch into the current state.
func (fs *FilterStore) SetFilters(patch FiltersPatch) {
	if patch.Category != nil {
		fs.filters.Category = *patch.Category
	}
	if patch.MinPrice != nil {
		fs.filters.MinPrice = *patch.MinPrice
	}
	if patch.MaxPrice != nil {
		fs.filters.MaxPrice = *patch.MaxPrice
	}
	if patch.SortBy != nil {
		fs.filters.SortBy = *patch.SortBy
	}
	if patch.SearchQuery != nil {
		fs.filters.SearchQuery = *patch.SearchQuery
	}
}

// ResetFilters restores the fixed defaults.
func (fs *FilterStore) ResetFilters() {
	fs.filters = DefaultFilters()
}

// FiltersPatch is a partial filter update; nil fields are left untouched.
type FiltersPatch struct {
	Category    *string  `json:"category,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	SortBy      *string  `json:"sort_by,omitempty"`
	SearchQuery *string  `json:"search_query,omitempty"`
}

// Apply filters and sorts the given products. The input slice is never
// mutated. An inverted price range (min > max) matches nothing. Sorting is
// stable so equal keys keep their catalog order; "newest" keeps the input
// order as-is.
func Apply(products []models.Product, filters models.ShopFilters) []models.Product {
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if filters.Category != "all" && p.Category != filters.Category {
			continue
		}
		if p.Price < filters.MinPrice || p.Price > filters.MaxPrice {
			continue
		}
		if filters.SearchQuery != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.SearchQuery)) {
			continue
		}
		filtered = append(filtered, p)
	}

	switch filters.SortBy {
	case models.SortPriceAsc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price < filtered[j].Price
		})
	case models.SortPriceDesc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price > filtered[j].Price
		})
	case models.SortRating:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Rating > filtered[j].Rating
		})
	}

	return filtered
}
