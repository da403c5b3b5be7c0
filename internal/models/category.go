package models

import (
	"slices"
	"strings"
)

// DefaultCategory is assigned to names missing from the category table.
const DefaultCategory = "Other"

// Categories lists the category names in display order.
var Categories = []string{
	"Vegetables", "Fruits", "Dairy", "Meat", "Frozen", "Fish", "Bakery", "Beverages", "Alcohol",
	"Snacks", "Cleaning", "Pets", "Electronics", "Health", "Clothing", "Baby", DefaultCategory,
}

var categoryItems = map[string][]string{
	"Vegetables":  {"carrots", "broccoli", "spinach", "potatoes", "onions", "lettuce", "cucumber", "peppers", "zucchini", "celery"},
	"Fruits":      {"apples", "bananas", "oranges", "grapes", "berries", "mango", "pineapple", "kiwi", "peaches", "plums"},
	"Dairy":       {"milk", "cheese", "yogurt", "butter", "eggs", "cream", "sour cream", "cottage cheese", "cream cheese", "margarine"},
	"Meat":        {"chicken", "beef", "pork", "turkey", "ham", "sausage", "bacon", "lamb", "ground beef", "steak"},
	"Frozen":      {"ice cream", "frozen vegetables", "frozen pizza", "frozen fruit", "waffles", "french fries", "chicken nuggets", "fish sticks", "frozen meals", "sorbet"},
	"Fish":        {"salmon", "tuna", "cod", "shrimp", "tilapia", "sardines", "mackerel", "crab", "lobster", "oysters"},
	"Bakery":      {"bread", "bagels", "croissants", "muffins", "cookies", "cake", "donuts", "rolls", "tortillas", "buns"},
	"Beverages":   {"water", "juice", "soda", "coffee", "tea", "milkshake", "smoothie", "energy drink", "sports drink", "hot chocolate"},
	"Alcohol":     {"beer", "wine", "liquor", "vodka", "whiskey", "rum", "gin", "tequila", "champagne", "cider"},
	"Snacks":      {"chips", "crackers", "nuts", "popcorn", "chocolate", "candy", "pretzels", "granola bar", "fruit snacks", "gummy bears"},
	"Cleaning":    {"detergent", "soap", "cleaner", "dish soap", "bleach", "fabric softener", "glass cleaner", "toilet cleaner", "sponges", "gloves"},
	"Pets":        {"pet food", "dog food", "cat food", "bird seed", "fish food", "cat litter", "dog treats", "pet toys", "flea treatment", "pet shampoo"},
	"Electronics": {"batteries", "light bulbs", "headphones", "charger", "usb cable", "power bank", "smartwatch", "speaker", "webcam", "router"},
	"Health":      {"medicine", "vitamins", "pain reliever", "band-aids", "antiseptic", "cough syrup", "cold medicine", "thermometer", "supplements", "first aid kit"},
	"Clothing":    {"socks", "underwear", "t-shirt", "pants", "shorts", "dress", "skirt", "jacket", "sweater", "hat"},
	"Baby":        {"diapers", "baby food", "formula", "wipes", "baby lotion", "baby shampoo", "pacifier", "baby bottle", "baby clothes", "baby powder"},
	"Other":       {"sugar", "flour", "salt", "pepper", "olive oil", "canned tomatoes", "beans", "spices", "condiments", "paper towels"},
}

var categoryIndex = func() map[string]string {
	index := make(map[string]string)
	for _, category := range Categories {
		for _, name := range categoryItems[category] {
			index[name] = category
		}
	}
	return index
}()

// PopularItems are suggested when adding to a list.
var PopularItems = []string{
	"Milk", "Bread", "Eggs", "Butter", "Cheese",
	"Chicken", "Rice", "Pasta", "Tomatoes", "Onions",
	"Apples", "Bananas", "Yogurt", "Coffee", "Sugar",
}

// CategoryFor returns the category whose table contains name, compared case-insensitively, or [DefaultCategory].
func CategoryFor(name string) string {
	if category, ok := categoryIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		return category
	}
	return DefaultCategory
}

// IsCategory reports whether name is one of [Categories], ignoring case.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// CategoryGroup is the items of one category.
type CategoryGroup struct {
	Category string
	Items    []Item
}

// GroupByCategory groups items by category, keeping item order within a group. Groups follow [Categories], with
// unknown categories after them in alphabetical order. Items without a category go to [DefaultCategory].
func GroupByCategory(items []Item) []CategoryGroup {
	byCategory := make(map[string][]Item)
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = DefaultCategory
		}
		byCategory[category] = append(byCategory[category], item)
	}

	var extra []string
	for category := range byCategory {
		if !slices.Contains(Categories, category) {
			extra = append(extra, category)
		}
	}
	slices.Sort(extra)

	var groups []CategoryGroup
	for _, category := range append(slices.Clone(Categories), extra...) {
		if entries, ok := byCategory[category]; ok {
			groups = append(groups, CategoryGroup{Category: category, Items: entries})
		}
	}
	return groups
}
