package reference

import "sort"

// Taxonomy groups typed items by type, then category.
type Taxonomy map[string]map[string][]Item

// Pair is one distinct (type, category) combination.
type Pair struct {
	Type     string
	Category string
}

// GroupByTypeAndCategory builds the taxonomy of items. Items keep their input
// order within a category; untyped items are dropped.
func GroupByTypeAndCategory(items []Item) Taxonomy {
	tax := make(Taxonomy)
	for _, item := range items {
		if item.Type == "" {
			continue
		}
		byCategory, ok := tax[item.Type]
		if !ok {
			byCategory = make(map[string][]Item)
			tax[item.Type] = byCategory
		}
		cat := item.category()
		byCategory[cat] = append(byCategory[cat], item)
	}
	return tax
}

// GroupByType returns the category → items map for one type; empty when the
// type is unknown.
func GroupByType(items []Item, typ string) map[string][]Item {
	out := make(map[string][]Item)
	for _, item := range items {
		if item.Type == "" || item.Type != typ {
			continue
		}
		cat := item.category()
		out[cat] = append(out[cat], item)
	}
	return out
}

// AllTypeCategoryPairs returns the distinct (type, category) pairs sorted by
// type then category.
func AllTypeCategoryPairs(items []Item) []Pair {
	seen := make(map[Pair]struct{})
	var pairs []Pair
	for _, item := range items {
		if item.Type == "" {
			continue
		}
		p := Pair{Type: item.Type, Category: item.category()}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Type != pairs[j].Type {
			return pairs[i].Type < pairs[j].Type
		}
		return pairs[i].Category < pairs[j].Category
	})
	return pairs
}
