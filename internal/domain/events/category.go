package events

import (
	"strings"

	"github.com/happenit/server/internal/messages"
)

// Category is the fixed classification of an event.
type Category string

const (
	CategoryGastronomy  Category = "gastronomy"
	CategoryConferences Category = "conferences"
	CategorySports      Category = "sports"
	CategoryFestival    Category = "festival"
	CategoryConcerts    Category = "concerts"
	CategoryTheater     Category = "theater"
	CategoryOther       Category = "other"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryGastronomy,
	CategoryConferences,
	CategorySports,
	CategoryFestival,
	CategoryConcerts,
	CategoryTheater,
	CategoryOther,
}

// ParseCategory normalizes and validates a category value.
func ParseCategory(value string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, category := range Categories {
		if normalized == category {
			return category, nil
		}
	}
	return "", ValidationError{Field: "category", Key: messages.KeyInvalidCategory, Message: "must be one of: " + categoryList()}
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, category := range Categories {
		names[i] = string(category)
	}
	return strings.Join(names, ", ")
}
