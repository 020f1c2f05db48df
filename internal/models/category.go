package models

import (
	"fmt"
	"strings"
)

// CategoryType classifies the money flow a category represents.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
	CategoryTypeSavings CategoryType = "SAVINGS"
	CategoryTypePayment CategoryType = "PAYMENT"
)

// ParseCategoryType converts a case-insensitive name into a CategoryType.
func ParseCategoryType(s string) (CategoryType, error) {
	switch t := CategoryType(strings.ToUpper(strings.TrimSpace(s))); t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeSavings, CategoryTypePayment:
		return t, nil
	}
	return "", fmt.Errorf("unsupported category type %q", s)
}

// CategoryTypeFor returns the mapping type staged for a row of the given stream.
func CategoryTypeFor(isIncome bool) CategoryType {
	if isIncome {
		return CategoryTypeIncome
	}
	return CategoryTypeExpense
}

// CategoryRole marks a category reserved for a fixed purpose. Each owner has
// exactly one category per role.
type CategoryRole string

const (
	RoleNone    CategoryRole = ""
	RoleIncome  CategoryRole = "income"
	RoleSavings CategoryRole = "savings"
	RolePayment CategoryRole = "payment"
	RoleNA      CategoryRole = "na"
)

// SingletonRoles lists the roles every owner must have a category for.
func SingletonRoles() []CategoryRole {
	return []CategoryRole{RoleNA, RoleIncome, RoleSavings, RolePayment}
}

// Category is a user-defined transaction category.
type Category struct {
	ID      int64        `yaml:"id"`
	OwnerID int64        `yaml:"owner_id"`
	Name    string       `yaml:"name"`
	Type    CategoryType `yaml:"category_type"`
	Role    CategoryRole `yaml:"role,omitempty"`
}

// SubCategory is a child of a Category. The N/A subcategory carries RoleNA.
type SubCategory struct {
	ID         int64        `yaml:"id"`
	OwnerID    int64        `yaml:"owner_id"`
	CategoryID int64        `yaml:"category_id"`
	Name       string       `yaml:"name"`
	Role       CategoryRole `yaml:"role,omitempty"`
}

// OwnerCategories holds the singleton category ids of one owner, resolved
// once per run.
type OwnerCategories struct {
	OwnerID       int64
	NA            int64
	NASubCategory int64
	Income        int64
	Savings       int64
	Payment       int64
}
