package models

import (
	"fmt"
	"strings"
	"time"
)

type MenuCategory string

const (
	CategoryAppetizer MenuCategory = "Appetizer"
	CategorySoup      MenuCategory = "Soup"
	CategorySalad     MenuCategory = "Salad"
	CategoryPasta     MenuCategory = "Pasta"
	CategoryFish      MenuCategory = "Fish"
	CategoryMeat      MenuCategory = "Meat"
	CategoryDessert   MenuCategory = "Dessert"
	CategoryBeverage  MenuCategory = "Beverage"
	CategorySpecial   MenuCategory = "Special"
)

// MenuCategories is the display order of categories.
var MenuCategories = []MenuCategory{
	CategoryAppetizer, CategorySoup, CategorySalad, CategoryPasta,
	CategoryFish, CategoryMeat, CategoryDessert, CategoryBeverage, CategorySpecial,
}

func ParseMenuCategory(s string) (MenuCategory, error) {
	for _, c := range MenuCategories {
		if equalFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown menu category %q", s)
}

// Rank is the category position in MenuCategories, or len when unknown.
func (c MenuCategory) Rank() int {
	for i, v := range MenuCategories {
		if v == c {
			return i
		}
	}
	return len(MenuCategories)
}

// Cents is a money amount in euro cents.
type Cents int64

// Euros renders the amount as a decimal for JSON payloads.
func (c Cents) Euros() float64 { return float64(c) / 100 }

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d EUR", sign, v/100, v%100)
}

// ApplyDiscount reduces c by percent (0-100), rounding half up to a cent.
func (c Cents) ApplyDiscount(percent int) Cents {
	if percent <= 0 {
		return c
	}
	if percent >= 100 {
		return 0
	}
	return Cents((int64(c)*int64(100-percent) + 50) / 100)
}

type MenuItem struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Price           Cents        `json:"-"`
	DiscountPercent int          `json:"discountPercent"`
	Category        MenuCategory `json:"category"`
	ImageURL        string       `json:"imageUrl"`
	IsAvailable     bool         `json:"isAvailable"`
	IsVegetarian    bool         `json:"isVegetarian"`
	IsVegan         bool         `json:"isVegan"`
	IsGlutenFree    bool         `json:"isGlutenFree"`
	Allergens       string       `json:"allergens"`
	SortOrder       int          `json:"sortOrder"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// EffectivePrice is the unit price after discount.
func (m *MenuItem) EffectivePrice() Cents {
	return m.Price.ApplyDiscount(m.DiscountPercent)
}

func equalFold(a, b string) bool { return strings.EqualFold(strings.TrimSpace(b), a) }
