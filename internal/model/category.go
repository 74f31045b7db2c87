package model

import "strings"

// Category is an elemental type tag. Unknown wire names map to CategoryUnknown.
type Category string

const (
	CategoryNormal   Category = "NORMAL"
	CategoryFire     Category = "FIRE"
	CategoryWater    Category = "WATER"
	CategoryElectric Category = "ELECTRIC"
	CategoryGrass    Category = "GRASS"
	CategoryIce      Category = "ICE"
	CategoryFighting Category = "FIGHTING"
	CategoryPoison   Category = "POISON"
	CategoryGround   Category = "GROUND"
	CategoryFlying   Category = "FLYING"
	CategoryPsychic  Category = "PSYCHIC"
	CategoryBug      Category = "BUG"
	CategoryRock     Category = "ROCK"
	CategoryGhost    Category = "GHOST"
	CategoryDragon   Category = "DRAGON"
	CategoryDark     Category = "DARK"
	CategorySteel    Category = "STEEL"
	CategoryFairy    Category = "FAIRY"
	CategoryUnknown  Category = "UNKNOWN"
)

var categoryColors = map[Category]string{
	CategoryNormal:   "#A8A878",
	CategoryFire:     "#F08030",
	CategoryWater:    "#6890F0",
	CategoryElectric: "#F8D030",
	CategoryGrass:    "#78C850",
	CategoryIce:      "#98D8D8",
	CategoryFighting: "#C03028",
	CategoryPoison:   "#A040A0",
	CategoryGround:   "#E0C068",
	CategoryFlying:   "#A890F0",
	CategoryPsychic:  "#F85888",
	CategoryBug:      "#A8B820",
	CategoryRock:     "#B8A038",
	CategoryGhost:    "#705898",
	CategoryDragon:   "#7038F8",
	CategoryDark:     "#705848",
	CategorySteel:    "#B8B8D0",
	CategoryFairy:    "#EE99AC",
	CategoryUnknown:  "#68A090",
}

// ParseCategory maps a wire type name such as "fire" to its Category.
func ParseCategory(name string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := categoryColors[c]; !ok {
		return CategoryUnknown
	}
	return c
}

// Color returns the display color as a hex string.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryUnknown]
}
