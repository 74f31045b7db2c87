package catalog

import (
	"context"

	"github.com/dukerupert/pokedex/internal/model"
	"github.com/dukerupert/pokedex/internal/repository"
)

// DetailView is what the detail screen shows.
type DetailView struct {
	Kind      ViewKind             `json:"state"`
	Pokemon   *model.PokemonDetail `json:"pokemon,omitempty"`
	FromCache bool                 `json:"from_cache"`
	Message   string               `json:"message,omitempty"`
}

// Detail loads single Pokemon for the detail screen.
type Detail struct {
	src Source
}

func NewDetail(src Source) *Detail {
	return &Detail{src: src}
}

// Load runs the by-id query, passing every intermediate view to onView (if
// non-nil), and returns the last one. Retrying is calling Load again.
func (d *Detail) Load(ctx context.Context, id int, onView func(DetailView)) DetailView {
	last := DetailView{Kind: ViewLoading}
	for s := range d.src.ByID(ctx, id) {
		switch s.Kind {
		case repository.StateLoading:
			last = DetailView{Kind: ViewLoading}
		case repository.StateSuccess:
			detail := model.NewPokemonDetail(s.Data)
			last = DetailView{Kind: ViewSuccess, Pokemon: &detail, FromCache: s.FromCache}
		case repository.StateError:
			last = DetailView{Kind: ViewError, Message: s.Message}
		case repository.StateEmpty:
			last = DetailView{Kind: ViewError, Message: "Pokemon not found"}
		}
		if onView != nil {
			onView(last)
		}
	}
	return last
}
