package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category represents a spending category with an optional monthly budget ceiling.
// A zero budget means the category is untracked.
type Category struct {
	CreatedAt time.Time
	Budget    decimal.Decimal
	Name      string
	Color     string
	ID        int64
}

// Tracked reports whether the category has a positive budget ceiling.
func (c Category) Tracked() bool {
	return c.Budget.IsPositive()
}

// Subcategory belongs to exactly one category and never changes its parent.
type Subcategory struct {
	Name       string
	ID         int64
	CategoryID int64
}

// CategorySeed describes one entry of the default category set.
type CategorySeed struct {
	Name          string
	Color         string
	Subcategories []string
}

// DefaultCategories returns the category set seeded into an empty ledger.
func DefaultCategories() []CategorySeed {
	return []CategorySeed{
		{Name: "Food", Color: "#FF6B6B", Subcategories: []string{"Groceries", "Dining Out", "Cafe", "Delivery"}},
		{Name: "Transport", Color: "#4ECDC4", Subcategories: []string{"Public Transit", "Taxi", "Fuel", "Parking"}},
		{Name: "Housing", Color: "#45B7D1", Subcategories: []string{"Rent", "Utilities", "Maintenance"}},
		{Name: "Communication", Color: "#96CEB4", Subcategories: []string{"Mobile", "Internet"}},
		{Name: "Medical", Color: "#FFEAA7", Subcategories: []string{"Hospital", "Pharmacy"}},
		{Name: "Education", Color: "#DDA0DD", Subcategories: []string{"Books", "Courses"}},
		{Name: "Leisure", Color: "#98D8C8", Subcategories: []string{"Movies", "Travel", "Hobbies"}},
		{Name: "Other", Color: "#B8B8B8", Subcategories: []string{"Gifts", "Miscellaneous"}},
	}
}
