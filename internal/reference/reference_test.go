package reference

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuilder/internal/testutil"
)

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"_metadata.yml":           "title: Reference\n",
		"operators/eq.yml":        "name: $eq\ntype: operator\ncategory: comparison\ndescription: Equality\n",
		"operators/gt.yaml":       "name: $gt\ntype: operator\ncategory: comparison\n",
		"commands/admin/drop.yml": "name: drop\ntype: command\ncategory: admin\n",
		"commands/misc/ping.yml":  "type: command\n",
		"drafts/untyped.yml":      "name: Untyped\n",
		"operators/readme.md":     "# not a descriptor\n",
		"nested/_metadata.yml":    "name: nested metadata\ntype: meta\n",
	})
	return root
}

func TestScan(t *testing.T) {
	items, err := Scan(fixture(t))
	require.NoError(t, err)

	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.ReferencePath)
	}
	assert.Equal(t, []string{
		"commands/admin/drop",
		"commands/misc/ping",
		"drafts/untyped",
		"nested/_metadata",
		"operators/eq",
		"operators/gt",
	}, paths)

	assert.Equal(t, "ping", items[1].Name, "missing name defaults to the file name")
	assert.Equal(t, "Equality", items[4].Description)
}

func TestScanMissingRoot(t *testing.T) {
	items, err := Scan(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestScanInvalidDescriptor(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"bad.yml": "name: [oops\n"})

	_, err := Scan(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDescriptorParse)
	assert.Contains(t, err.Error(), "bad.yml")
}

func TestGroupByTypeAndCategory(t *testing.T) {
	items := []Item{
		{Name: "a", Type: "operator", Category: "comparison", ReferencePath: "ops/a"},
		{Name: "b", Type: "operator", Category: "comparison", ReferencePath: "ops/b"},
		{Name: "c", Type: "command", Category: "admin", ReferencePath: "cmd/c"},
		{Name: "untyped", ReferencePath: "x/untyped"},
	}

	tax := GroupByTypeAndCategory(items)
	require.Len(t, tax, 2)
	require.Len(t, tax["operator"], 1)
	assert.Len(t, tax["operator"]["comparison"], 2)
	require.Len(t, tax["command"], 1)
	assert.Len(t, tax["command"]["admin"], 1)

	total := 0
	for _, cats := range tax {
		for _, its := range cats {
			total += len(its)
		}
	}
	assert.Equal(t, 3, total)
	assert.Len(t, items, 4)
}

func TestDefaultCategory(t *testing.T) {
	items := []Item{{Name: "p", Type: "command", ReferencePath: "p"}}

	assert.Contains(t, GroupByTypeAndCategory(items)["command"], Uncategorized)
	assert.Equal(t, []Pair{{Type: "command", Category: Uncategorized}}, AllTypeCategoryPairs(items))
	assert.Len(t, GroupByType(items, "command")[Uncategorized], 1)
	assert.Empty(t, GroupByType(items, "operator"))
}

func TestIndex(t *testing.T) {
	idx, err := Load(fixture(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"command", "meta", "operator"}, idx.Types())
	assert.Equal(t, []string{"Uncategorized", "admin"}, idx.Categories("command"))
	assert.Equal(t, []Pair{
		{Type: "command", Category: "Uncategorized"},
		{Type: "command", Category: "admin"},
		{Type: "meta", Category: "Uncategorized"},
		{Type: "operator", Category: "comparison"},
	}, idx.Pairs())

	assert.True(t, idx.IsValidPair("operator", "comparison"))
	assert.False(t, idx.IsValidPair("operator", "admin"))
	assert.False(t, idx.IsValidPair("", "Uncategorized"))

	item, ok := idx.Lookup("operator", "comparison", "gt")
	require.True(t, ok)
	assert.Equal(t, "$gt", item.Name)

	_, ok = idx.Lookup("operator", "comparison", "$gt")
	assert.False(t, ok, "lookup matches the identity path, not the display name")

	_, ok = idx.Lookup("command", "admin", "eq")
	assert.False(t, ok)

	assert.Len(t, idx.Items(), 6)
	assert.Len(t, idx.ItemsIn("operator", "comparison"), 2)
}

func TestLookupSameNameDifferentCategories(t *testing.T) {
	idx := NewIndex([]Item{
		{Name: "count", Type: "function", Category: "aggregate", ReferencePath: "functions/aggregate/count"},
		{Name: "count", Type: "function", Category: "string", ReferencePath: "functions/string/count-chars"},
	})

	agg, ok := idx.Lookup("function", "aggregate", "count")
	require.True(t, ok)
	assert.Equal(t, "functions/aggregate/count", agg.ReferencePath)

	str, ok := idx.Lookup("function", "string", "count-chars")
	require.True(t, ok)
	assert.Equal(t, "functions/string/count-chars", str.ReferencePath)
}
