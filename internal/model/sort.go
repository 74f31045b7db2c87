package model

// SortField selects the key the catalog list is ordered by.
type SortField string

const (
	SortByNumber SortField = "NUMBER"
	SortByName   SortField = "NAME"
)

// ParseSortField returns SortByNumber for anything it does not recognise.
func ParseSortField(s string) SortField {
	if SortField(s) == SortByName {
		return SortByName
	}
	return SortByNumber
}

type SortPreference struct {
	Field     SortField `json:"sort_type"`
	Ascending bool      `json:"is_ascending"`
}

func DefaultSortPreference() SortPreference {
	return SortPreference{Field: SortByNumber, Ascending: true}
}
