package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dukerupert/pokedex/internal/model"
)

type ViewKind string

const (
	ViewLoading     ViewKind = "loading"
	ViewLoadingMore ViewKind = "loading_more"
	ViewSuccess     ViewKind = "success"
	ViewError       ViewKind = "error"
	ViewEmpty       ViewKind = "empty"
)

// View is what the list screen shows.
type View struct {
	Kind           ViewKind             `json:"state"`
	Items          []model.Pokemon      `json:"items"`
	IsSearchResult bool                 `json:"is_search_result"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	Message        string               `json:"message,omitempty"`
	Sort           model.SortPreference `json:"sort"`
	Connected      bool                 `json:"connected"`
}

// SortPokemon returns a sorted copy. The sort is stable in both directions:
// equal keys keep their relative order. Names compare byte-wise.
func SortPokemon(list []model.Pokemon, pref model.SortPreference) []model.Pokemon {
	out := slices.Clone(list)
	compare := func(a, b model.Pokemon) int {
		if pref.Field == model.SortByName {
			return strings.Compare(a.Name, b.Name)
		}
		return cmp.Compare(a.ID, b.ID)
	}
	slices.SortStableFunc(out, func(a, b model.Pokemon) int {
		if pref.Ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})
	return out
}

// appendNew appends the entries of page whose id is not already in list.
func appendNew(list, page []model.Pokemon) ([]model.Pokemon, int) {
	seen := make(map[int]bool, len(list))
	for _, p := range list {
		seen[p.ID] = true
	}
	added := 0
	for _, p := range page {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		list = append(list, p)
		added++
	}
	return list, added
}

// mergeRefresh replaces entries of list that share an id with fresh and
// appends the rest.
func mergeRefresh(list, fresh []model.Pokemon) []model.Pokemon {
	index := make(map[int]int, len(list))
	for i, p := range list {
		index[p.ID] = i
	}
	for _, p := range fresh {
		if i, ok := index[p.ID]; ok {
			list[i] = p
			continue
		}
		index[p.ID] = len(list)
		list = append(list, p)
	}
	return list
}
