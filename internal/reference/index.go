package reference

import "sort"

// Index is the read-only query interface over one scan of the reference tree.
type Index struct {
	items    []Item
	taxonomy Taxonomy
	pairs    map[Pair]struct{}
}

// Load scans root and builds its index.
func Load(root string) (*Index, error) {
	items, err := Scan(root)
	if err != nil {
		return nil, err
	}
	return NewIndex(items), nil
}

// NewIndex builds an index over items.
func NewIndex(items []Item) *Index {
	idx := &Index{
		items:    items,
		taxonomy: GroupByTypeAndCategory(items),
		pairs:    make(map[Pair]struct{}),
	}
	for _, p := range AllTypeCategoryPairs(items) {
		idx.pairs[p] = struct{}{}
	}
	return idx
}

// Items returns every scanned item, typed or not.
func (x *Index) Items() []Item { return x.items }

// Taxonomy returns the type → category → items grouping.
func (x *Index) Taxonomy() Taxonomy { return x.taxonomy }

// Pairs returns the valid (type, category) pairs, sorted.
func (x *Index) Pairs() []Pair { return AllTypeCategoryPairs(x.items) }

// IsValidPair reports whether at least one item has type typ and category cat.
func (x *Index) IsValidPair(typ, cat string) bool {
	_, ok := x.pairs[Pair{Type: typ, Category: cat}]
	return ok
}

// Lookup finds the item of the given type and category whose identity path
// ends in filename. Display names are never consulted.
func (x *Index) Lookup(typ, cat, filename string) (Item, bool) {
	for _, item := range x.taxonomy[typ][cat] {
		if item.FileName() == filename {
			return item, true
		}
	}
	return Item{}, false
}

// Types returns the distinct types, sorted.
func (x *Index) Types() []string {
	types := make([]string, 0, len(x.taxonomy))
	for t := range x.taxonomy {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Categories returns the categories of typ, sorted.
func (x *Index) Categories(typ string) []string {
	cats := make([]string, 0, len(x.taxonomy[typ]))
	for c := range x.taxonomy[typ] {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ItemsIn returns the items of one (type, category) pair, sorted by identity path.
func (x *Index) ItemsIn(typ, cat string) []Item {
	items := append([]Item(nil), x.taxonomy[typ][cat]...)
	sort.Slice(items, func(i, j int) bool { return items[i].ReferencePath < items[j].ReferencePath })
	return items
}
