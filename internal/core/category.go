package core

// Category is a known spending category with display metadata.
type Category struct {
	ID    string
	Name  string
	Color string
}

// FallbackColor is used for categories missing from the registry.
const FallbackColor = "#6B7280"

var defaultCategories = [...]Category{
	{ID: "food", Name: "Food", Color: "#EF4444"},
	{ID: "transportation", Name: "Transportation", Color: "#F59E0B"},
	{ID: "rent", Name: "Rent", Color: "#3B82F6"},
	{ID: "entertainment", Name: "Entertainment", Color: "#10B981"},
	{ID: "utilities", Name: "Utilities", Color: "#6366F1"},
	{ID: "other", Name: "Other", Color: "#8B5CF6"},
}

// Categories returns a copy of the registry in display order.
func Categories() []Category {
	out := make([]Category, len(defaultCategories))
	copy(out, defaultCategories[:])
	return out
}

// LookupCategory finds a registry entry by display name.
func LookupCategory(name string) (Category, bool) {
	for _, c := range defaultCategories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryColor returns the registry color for a category name.
func CategoryColor(name string) string {
	if c, ok := LookupCategory(name); ok {
		return c.Color
	}
	return FallbackColor
}
