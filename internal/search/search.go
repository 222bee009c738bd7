// Package search filters the item pool for the draft board. It only reads
// copies of the pool and never touches draft state.
package search

import (
	"strings"

	"github.com/DoyleJ11/draftroom/internal/engine"
)

// categoryAliases expands shorthand categories into the ones they cover.
var categoryAliases = map[string][]string{
	"of": {"lf", "cf", "rf"},
}

// Items keeps the items matching both the name query and the category.
// Empty filters match everything.
func Items(items []engine.Item, query, category string) []engine.Item {
	return ByName(ByCategory(items, category), query)
}

func ByCategory(items []engine.Item, category string) []engine.Item {
	cleaned := strings.ToLower(strings.TrimSpace(category))
	if cleaned == "" || cleaned == "all" {
		return items
	}

	wanted, ok := categoryAliases[cleaned]
	if !ok {
		wanted = []string{cleaned}
	}

	var out []engine.Item
	for _, it := range items {
		if hasCategory(it, wanted) {
			out = append(out, it)
		}
	}
	return out
}

func ByName(items []engine.Item, query string) []engine.Item {
	cleaned := strings.ToLower(strings.TrimSpace(query))
	if cleaned == "" {
		return items
	}

	var out []engine.Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), cleaned) {
			out = append(out, it)
		}
	}
	return out
}

func hasCategory(it engine.Item, wanted []string) bool {
	for _, c := range it.Categories {
		c = strings.ToLower(c)
		for _, w := range wanted {
			if strings.Contains(c, w) {
				return true
			}
		}
	}
	return false
}
