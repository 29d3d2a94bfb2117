package core

import (
	"errors"
	"testing"
)

func TestCategoriesOrder(t *testing.T) {
	got := Categories()
	if len(got) != 11 {
		t.Fatalf("Categories() len = %d, want 11", len(got))
	}
	if got[0] != Food || got[len(got)-1] != Other {
		t.Errorf("Categories() order = %v", got)
	}
	if Bills.Index() != 4 {
		t.Errorf("Bills.Index() = %d, want 4", Bills.Index())
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("daily spends")
	if err != nil || c != DailySpends {
		t.Fatalf("ParseCategory() = %v, %v", c, err)
	}
	if _, err := ParseCategory("Pets"); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("ParseCategory(Pets) = %v, want ErrInvalidCategory", err)
	}
}

func TestClassificationValidate(t *testing.T) {
	tests := []struct {
		name string
		c    Classification
		want error
	}{
		{"plain food", Classification{Category: Food}, nil},
		{"food with subcategory", Classification{Category: Food, Subcategory: "Rent"}, ErrInvalidSubcategory},
		{"bills rent", Classification{Category: Bills, Subcategory: "Rent"}, nil},
		{"bills missing", Classification{Category: Bills}, ErrMissingSubcategory},
		{"bills wrong sub", Classification{Category: Bills, Subcategory: "Groceries"}, ErrInvalidSubcategory},
		{"other bills needs text", Classification{Category: Bills, Subcategory: "Other Bills"}, ErrMissingCustomText},
		{"other bills with text", Classification{Category: Bills, Subcategory: "Other Bills", CustomSubcategory: "Parking"}, nil},
		{"custom sub on non-sentinel", Classification{Category: Bills, Subcategory: "Rent", CustomSubcategory: "x"}, ErrUnexpectedCustomText},
		{"investments optional", Classification{Category: Investments}, nil},
		{"daily others", Classification{Category: DailySpends, Subcategory: "Others", CustomSubcategory: "Bread"}, nil},
		{"emi loan", Classification{Category: EMI, Subcategory: "Home Loan"}, nil},
		{"other needs text", Classification{Category: Other}, ErrMissingCustomText},
		{"other with text", Classification{Category: Other, CustomCategory: "Gifts"}, nil},
		{"custom on food", Classification{Category: Food, CustomCategory: "x"}, ErrUnexpectedCustomText},
		{"unknown", Classification{Category: "Pets"}, ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClassificationLabel(t *testing.T) {
	tests := []struct {
		c    Classification
		want string
	}{
		{Classification{Category: Food}, "Food"},
		{Classification{Category: Bills, Subcategory: "Rent"}, "Bills / Rent"},
		{Classification{Category: Other, CustomCategory: "Gifts"}, "Gifts"},
		{Classification{Category: EMI, Subcategory: "Others", CustomSubcategory: "Phone"}, "EMI / Phone"},
	}
	for _, tt := range tests {
		if got := tt.c.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}
