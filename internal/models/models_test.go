package models

import (
	"errors"
	"testing"
	"time"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"carrots", "Vegetables"},
		{"  Milk ", "Dairy"},
		{"ICE CREAM", "Frozen"},
		{"dog food", "Pets"},
		{"sugar", "Other"},
		{"dragonfruit", DefaultCategory},
		{"", DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryFor(tt.name); got != tt.want {
				t.Errorf("CategoryFor(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestNewItem(t *testing.T) {
	item := NewItem("list-1", "  Bananas ")

	if item.Name != "Bananas" {
		t.Errorf("expected trimmed name, got %q", item.Name)
	}
	if item.Category != "Fruits" {
		t.Errorf("expected Fruits, got %q", item.Category)
	}
	if item.Quantity != 1 || item.Checked {
		t.Errorf("expected unchecked quantity 1, got %+v", item)
	}
	if err := item.Validate(); err != nil {
		t.Errorf("expected valid item, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		v       Validator
		wantErr bool
	}{
		{"valid credentials", Credentials{Email: "a@b.co", Password: "pw"}, false},
		{"missing email", Credentials{Password: "pw"}, true},
		{"bad email", Credentials{Email: "nope", Password: "pw"}, true},
		{"missing password", Credentials{Email: "a@b.co"}, true},
		{"valid list", ListBase{Name: "Groceries"}, false},
		{"blank list", ListBase{Name: "   "}, true},
		{"item without list", ItemBase{Name: "milk"}, true},
		{"item negative quantity", ItemBase{ListID: "l", Name: "milk", Quantity: -1}, true},
		{"empty update", ItemUpdate{}, false},
		{"update blank name", ItemUpdate{Name: Ptr(" ")}, true},
		{"update negative price", ItemUpdate{Price: Ptr(-1.0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestItemUpdate(t *testing.T) {
	t.Run("Apply copies only set fields", func(t *testing.T) {
		item := Item{ID: "i1", ItemBase: ItemBase{ListID: "l1", Name: "milk", Quantity: 2, Unit: "l"}}
		got := ItemUpdate{Checked: Ptr(true), Quantity: Ptr(3)}.Apply(item)

		if !got.Checked || got.Quantity != 3 {
			t.Errorf("expected checked quantity 3, got %+v", got)
		}
		if got.Name != "milk" || got.Unit != "l" || got.ID != "i1" {
			t.Errorf("expected untouched fields to survive, got %+v", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if !(ItemUpdate{}).Empty() {
			t.Error("zero update should be empty")
		}
		if (ItemUpdate{Unit: Ptr("")}).Empty() {
			t.Error("update with a field set should not be empty")
		}
	})
}

func TestFindByName(t *testing.T) {
	items := []Item{
		{ID: "1", ItemBase: ItemBase{Name: "Milk"}},
		{ID: "2", ItemBase: ItemBase{Name: "Bread"}},
	}

	if got, ok := FindByName(items, " milk "); !ok || got.ID != "1" {
		t.Errorf("expected to find Milk, got %+v %v", got, ok)
	}
	if _, ok := FindByName(items, "eggs"); ok {
		t.Error("did not expect to find eggs")
	}
}

func TestListExportRemaining(t *testing.T) {
	e := ListExport{Items: []Item{
		{ItemBase: ItemBase{Checked: true}},
		{ItemBase: ItemBase{}},
		{ItemBase: ItemBase{}},
	}}
	if got := e.Remaining(); got != 2 {
		t.Errorf("expected 2 remaining, got %d", got)
	}
}

func TestCookieExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	if (Cookie{}).Expired(now) {
		t.Error("session cookie should never expire")
	}
	if !(Cookie{ExpiresAt: now}).Expired(now) {
		t.Error("cookie expiring now should be expired")
	}
	if (Cookie{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("future cookie should not be expired")
	}
}

func TestGroupByCategory(t *testing.T) {
	items := []Item{
		{ID: "1", ItemBase: ItemBase{Name: "Soap", Category: "Cleaning"}},
		{ID: "2", ItemBase: ItemBase{Name: "Milk", Category: "Dairy"}},
		{ID: "3", ItemBase: ItemBase{Name: "Mystery"}},
		{ID: "4", ItemBase: ItemBase{Name: "Cheese", Category: "Dairy"}},
		{ID: "5", ItemBase: ItemBase{Name: "Tent", Category: "Camping"}},
		{ID: "6", ItemBase: ItemBase{Name: "Carrots", Category: "Vegetables"}},
	}

	groups := GroupByCategory(items)

	want := []struct {
		category string
		ids      []string
	}{
		{"Vegetables", []string{"6"}},
		{"Dairy", []string{"2", "4"}},
		{"Cleaning", []string{"1"}},
		{DefaultCategory, []string{"3"}},
		{"Camping", []string{"5"}},
	}

	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d: %+v", len(want), len(groups), groups)
	}
	for i, w := range want {
		if groups[i].Category != w.category {
			t.Errorf("group %d: expected %s, got %s", i, w.category, groups[i].Category)
			continue
		}
		if len(groups[i].Items) != len(w.ids) {
			t.Errorf("group %s: expected %d items, got %d", w.category, len(w.ids), len(groups[i].Items))
			continue
		}
		for j, id := range w.ids {
			if groups[i].Items[j].ID != id {
				t.Errorf("group %s item %d: expected %s, got %s", w.category, j, id, groups[i].Items[j].ID)
			}
		}
	}

	if GroupByCategory(nil) != nil {
		t.Error("expected nil groups for no items")
	}
}
