package model

import "strings"

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHomeGarden  Category = "Home & Garden"
	CategoryBooks       Category = "Books"
	CategorySports      Category = "Sports"
	CategoryFurniture   Category = "Furniture"
	CategoryToysGames   Category = "Toys & Games"
	CategoryAutomotive  Category = "Automotive"
	CategoryOther       Category = "Other"
)

// Categories is the closed set of categories in display order
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHomeGarden,
	CategoryBooks,
	CategorySports,
	CategoryFurniture,
	CategoryToysGames,
	CategoryAutomotive,
	CategoryOther,
}

// Valid reports whether c is one of Categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s case-insensitively against the known categories.
// "home-garden" and "toys-games" style spellings are accepted as well.
func ParseCategory(s string) (Category, error) {
	norm := normalizeCategory(s)
	for _, known := range Categories {
		if normalizeCategory(string(known)) == norm {
			return known, nil
		}
	}
	return "", Errorf(CodeInvalidInput, "unknown category %q", s)
}

func normalizeCategory(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '&'
	})
	var sb strings.Builder
	for _, w := range words {
		if w != "and" {
			sb.WriteString(w)
		}
	}
	return sb.String()
}
