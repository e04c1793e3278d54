package models

import "github.com/google/uuid"

type CategoryType string

const (
	CategoryIncome  CategoryType = "INCOME"
	CategoryExpense CategoryType = "EXPENSE"
	CategoryBoth    CategoryType = "BOTH"
)

// FallbackCategoryName names the category used when a transaction is created
// without one.
const FallbackCategoryName = "Others"

type Category struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	Type      CategoryType `json:"type"`
	IsDefault bool         `json:"is_default"`
}
