package core

import "strings"

type (
	Category    string
	Subcategory string
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Bills          Category = "Bills"
	Education      Category = "Education"
	Investments    Category = "Investments"
	DailySpends    Category = "Daily Spends"
	EMI            Category = "EMI"
	Maintenance    Category = "Maintenance"
	Other          Category = "Other"
)

// CategoryAll is the filter selector matching every category.
const CategoryAll Category = "All"

var categories = []Category{
	Food, Transportation, Entertainment, Shopping, Bills, Education,
	Investments, DailySpends, EMI, Maintenance, Other,
}

type subcategoryRule struct {
	required bool
	values   []Subcategory
	other    Subcategory
}

var subcategoryRules = map[Category]subcategoryRule{
	Bills: {
		required: true,
		values: []Subcategory{
			"Credit Card", "Internet", "Mobile", "Electricity", "Water",
			"Gas", "Rent", "Insurance", "Other Bills",
		},
		other: "Other Bills",
	},
	Investments: {
		values: []Subcategory{"Savings", "Mutual Fund", "Stocks", "Jar", "Other"},
		other:  "Other",
	},
	DailySpends: {
		values: []Subcategory{"Groceries", "Vegetables", "Fruits", "Dairy", "Snacks", "Others"},
		other:  "Others",
	},
	EMI: {
		values: []Subcategory{"Personal Loan", "Home Loan", "Vehicle Loan", "Education Loan", "Others"},
		other:  "Others",
	},
}

// Categories returns every category in enumeration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Index returns the enumeration position of c, or -1.
func (c Category) Index() int {
	for i, v := range categories {
		if v == c {
			return i
		}
	}
	return -1
}

func (c Category) Valid() bool { return c.Index() >= 0 }

// ParseCategory matches s case-insensitively against the enumeration.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Err: ErrInvalidCategory}
}

// Subcategories returns the allowed subcategories for c, empty when c takes none.
func Subcategories(c Category) []Subcategory {
	rule, ok := subcategoryRules[c]
	if !ok {
		return nil
	}
	out := make([]Subcategory, len(rule.values))
	copy(out, rule.values)
	return out
}

// RequiresSubcategory reports whether c mandates a subcategory.
func RequiresSubcategory(c Category) bool {
	return subcategoryRules[c].required
}

// IsOtherSentinel reports whether s is the free-text sentinel of c's sub-enum.
func IsOtherSentinel(c Category, s Subcategory) bool {
	rule, ok := subcategoryRules[c]
	return ok && s != "" && s == rule.other
}

// Classification is the category part shared by expenses and templates.
// CustomCategory is set only for Other; CustomSubcategory only when the
// subcategory is the category's "other" sentinel.
type Classification struct {
	Category          Category
	Subcategory       Subcategory
	CustomCategory    string
	CustomSubcategory string
}

func (c Classification) Validate() error {
	if !c.Category.Valid() {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}

	custom := strings.TrimSpace(c.CustomCategory)
	switch {
	case c.Category == Other && custom == "":
		return &ValidationError{Field: "custom_category", Err: ErrMissingCustomText}
	case c.Category != Other && custom != "":
		return &ValidationError{Field: "custom_category", Err: ErrUnexpectedCustomText}
	}

	rule, hasSub := subcategoryRules[c.Category]
	if !hasSub {
		if c.Subcategory != "" {
			return &ValidationError{Field: "subcategory", Err: ErrInvalidSubcategory}
		}
	} else {
		if c.Subcategory == "" && rule.required {
			return &ValidationError{Field: "subcategory", Err: ErrMissingSubcategory}
		}
		if c.Subcategory != "" && !containsSub(rule.values, c.Subcategory) {
			return &ValidationError{Field: "subcategory", Err: ErrInvalidSubcategory}
		}
	}

	customSub := strings.TrimSpace(c.CustomSubcategory)
	sentinel := IsOtherSentinel(c.Category, c.Subcategory)
	switch {
	case sentinel && customSub == "":
		return &ValidationError{Field: "custom_subcategory", Err: ErrMissingCustomText}
	case !sentinel && customSub != "":
		return &ValidationError{Field: "custom_subcategory", Err: ErrUnexpectedCustomText}
	}
	return nil
}

// Label returns the display name, preferring custom text over sentinels.
func (c Classification) Label() string {
	name := string(c.Category)
	if c.Category == Other && c.CustomCategory != "" {
		name = c.CustomCategory
	}
	sub := string(c.Subcategory)
	if IsOtherSentinel(c.Category, c.Subcategory) && c.CustomSubcategory != "" {
		sub = c.CustomSubcategory
	}
	if sub == "" {
		return name
	}
	return name + " / " + sub
}

func containsSub(values []Subcategory, s Subcategory) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
