package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "all"

type SortKey string

const (
	SortNone      SortKey = "none"
	SortPriceLow  SortKey = "priceLow"
	SortPriceHigh SortKey = "priceHigh"
	SortRating    SortKey = "rating"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortPriceLow, SortPriceHigh, SortRating:
		return true
	}
	return false
}

// ParseSortKey maps user input to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.TrimSpace(s))
	if k == "" {
		return SortNone, nil
	}
	if !k.Valid() {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}

// Filter is the set of inputs of the product view.
type Filter struct {
	Search   string
	Category string
	Sort     SortKey
}

// DefaultFilter shows every product in fetch order.
func DefaultFilter() Filter {
	return Filter{Category: AllCategories, Sort: SortNone}
}

// Derive computes the filtered, ordered projection of items. It never
// modifies items and always returns a fresh slice.
func Derive(items []Product, f Filter) []Product {
	out := make([]Product, 0, len(items))
	term := strings.ToLower(f.Search)
	matchText := strings.TrimSpace(f.Search) != ""
	matchCategory := f.Category != "" && f.Category != AllCategories

	for _, p := range items {
		if matchText && !strings.Contains(strings.ToLower(p.Title), term) {
			continue
		}
		if matchCategory && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b Product) int { return cmp.Compare(b.Score(), a.Score()) })
	}
	return out
}

// Categories lists the category selector options: the sentinel first, then
// every distinct category in first-seen order.
func Categories(items []Product) []string {
	seen := make(map[string]struct{}, len(items))
	out := []string{AllCategories}
	for _, p := range items {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
