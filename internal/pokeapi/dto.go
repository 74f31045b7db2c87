package pokeapi

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dukerupert/pokedex/internal/model"
)

type listResponse struct {
	Count   int            `json:"count"`
	Next    *string        `json:"next"`
	Results []namedReference `json:"results"`
}

type namedReference struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// id extracts the trailing numeric path segment, e.g. ".../pokemon/25/" -> 25.
func (r namedReference) id() (int, error) {
	trimmed := strings.TrimRight(r.URL, "/")
	i := strings.LastIndexByte(trimmed, '/')
	id, err := strconv.Atoi(trimmed[i+1:])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("no id in reference url %q", r.URL)
	}
	return id, nil
}

type detailResponse struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Height  int        `json:"height"`
	Weight  int        `json:"weight"`
	Sprites spritesDTO `json:"sprites"`
	Types   []struct {
		Slot int          `json:"slot"`
		Type namedReference `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int          `json:"base_stat"`
		Effort   int          `json:"effort"`
		Stat     namedReference `json:"stat"`
	} `json:"stats"`
}

type spritesDTO struct {
	FrontDefault *string `json:"front_default"`
	Other        *struct {
		OfficialArtwork *struct {
			FrontDefault *string `json:"front_default"`
		} `json:"official-artwork"`
	} `json:"other"`
}

const artworkURLFormat = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork/%d.png"

func (d detailResponse) imageURL() string {
	if o := d.Sprites.Other; o != nil && o.OfficialArtwork != nil && o.OfficialArtwork.FrontDefault != nil {
		return *o.OfficialArtwork.FrontDefault
	}
	if d.Sprites.FrontDefault != nil {
		return *d.Sprites.FrontDefault
	}
	return fmt.Sprintf(artworkURLFormat, d.ID)
}

func (d detailResponse) toModel() model.Pokemon {
	p := model.Pokemon{
		ID:       d.ID,
		Name:     capitalize(d.Name),
		ImageURL: d.imageURL(),
		Types:    make([]model.Category, 0, len(d.Types)),
		Height:   d.Height,
		Weight:   d.Weight,
	}
	for _, t := range d.Types {
		p.Types = append(p.Types, model.ParseCategory(t.Type.Name))
	}

	for _, s := range d.Stats {
		switch s.Stat.Name {
		case "hp":
			p.HP = s.BaseStat
		case "attack":
			p.Attack = s.BaseStat
		case "defense":
			p.Defense = s.BaseStat
		case "special-attack":
			p.SpecialAttack = s.BaseStat
		case "special-defense":
			p.SpecialDefense = s.BaseStat
		case "speed":
			p.Speed = s.BaseStat
		}
	}
	return p
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
