package model

import "sort"

// CategoryStatus is the lifecycle state of a category.
type CategoryStatus string

// Category status constants.
const (
	CategoryActive   CategoryStatus = "active"
	CategoryInactive CategoryStatus = "inactive"
	CategoryDeleted  CategoryStatus = "deleted"
)

// Category groups products in the inventory.
type Category struct {
	ID          ID             `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      CategoryStatus `json:"status"`
}

// CategoryInput is the payload for creating or updating a category.
type CategoryInput struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *CategoryStatus `json:"status,omitempty"`
}

// ActiveCategoryNames returns the sorted names of active categories,
// falling back to every category when none are active.
func ActiveCategoryNames(categories []Category) []string {
	source := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Status == CategoryActive {
			source = append(source, c)
		}
	}
	if len(source) == 0 {
		source = categories
	}

	names := make([]string, 0, len(source))
	for _, c := range source {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}
