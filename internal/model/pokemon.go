package model

import "fmt"

// Pokemon is a single catalog entry as shown to the user.
type Pokemon struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	ImageURL       string     `json:"image_url"`
	Types          []Category `json:"types"`
	Height         int        `json:"height"`
	Weight         int        `json:"weight"`
	HP             int        `json:"hp"`
	Attack         int        `json:"attack"`
	Defense        int        `json:"defense"`
	SpecialAttack  int        `json:"special_attack"`
	SpecialDefense int        `json:"special_defense"`
	Speed          int        `json:"speed"`
}

// FormattedID returns the id as "#001".
func (p Pokemon) FormattedID() string {
	return fmt.Sprintf("#%03d", p.ID)
}

// HeightMeters converts the wire height (decimetres) to metres.
func (p Pokemon) HeightMeters() float64 {
	return float64(p.Height) / 10
}

// WeightKg converts the wire weight (hectograms) to kilograms.
func (p Pokemon) WeightKg() float64 {
	return float64(p.Weight) / 10
}

func (p Pokemon) PrimaryType() Category {
	if len(p.Types) == 0 {
		return CategoryUnknown
	}
	return p.Types[0]
}

func (p Pokemon) MaxStat() int {
	return max(p.HP, p.Attack, p.Defense, p.SpecialAttack, p.SpecialDefense, p.Speed)
}

// Stats returns the six base stats in display order.
func (p Pokemon) Stats() []Stat {
	return []Stat{
		{Name: "hp", Value: p.HP},
		{Name: "attack", Value: p.Attack},
		{Name: "defense", Value: p.Defense},
		{Name: "special-attack", Value: p.SpecialAttack},
		{Name: "special-defense", Value: p.SpecialDefense},
		{Name: "speed", Value: p.Speed},
	}
}

type Stat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// CachedPokemon is the persisted projection of a Pokemon.
type CachedPokemon struct {
	Pokemon
	LastFetchedAt int64 `json:"last_fetched_at"` // epoch milliseconds
}

// PokemonDetail is the JSON shape returned to API clients, carrying the
// derived display values alongside the stored fields.
type PokemonDetail struct {
	Pokemon
	FormattedID  string   `json:"formatted_id"`
	HeightMeters float64  `json:"height_m"`
	WeightKg     float64  `json:"weight_kg"`
	PrimaryType  Category `json:"primary_type"`
	PrimaryColor string   `json:"primary_color"`
	MaxStat      int      `json:"max_stat"`
}

func NewPokemonDetail(p Pokemon) PokemonDetail {
	primary := p.PrimaryType()
	return PokemonDetail{
		Pokemon:      p,
		FormattedID:  p.FormattedID(),
		HeightMeters: p.HeightMeters(),
		WeightKg:     p.WeightKg(),
		PrimaryType:  primary,
		PrimaryColor: primary.Color(),
		MaxStat:      p.MaxStat(),
	}
}
