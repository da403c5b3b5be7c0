package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/cartx/internal/models"
)

func TestRepositoriesClosedDatabase(t *testing.T) {
	ctx := context.Background()

	db := setupTestDB(t)
	cookies := NewCookieRepository(db)
	lists := NewListRepository(db)
	items := NewItemRepository(db)
	db.Close()

	tests := []struct {
		name string
		run  func() error
	}{
		{"AllCookies", func() error { _, err := cookies.AllCookies(ctx); return err }},
		{"SaveCookie", func() error { return cookies.SaveCookie(ctx, models.Cookie{Host: "h", Name: "n"}) }},
		{"DeleteCookie", func() error { return cookies.DeleteCookie(ctx, "h", "n", "/") }},
		{"ClearCookies", func() error { return cookies.ClearCookies(ctx) }},
		{"ListSave", func() error { return lists.Save(ctx, groceries()) }},
		{"ListAll", func() error { _, err := lists.All(ctx); return err }},
		{"ListGet", func() error { _, err := lists.Get(ctx, "list-1"); return err }},
		{"ListDelete", func() error { return lists.Delete(ctx, "list-1") }},
		{"ListPrune", func() error { _, err := lists.Prune(ctx, nil); return err }},
		{"ItemByList", func() error { _, err := items.ByList(ctx, "list-1"); return err }},
		{"ItemUpsert", func() error { return items.Upsert(ctx, groceries().Items[0], time.Now()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	}
}

func TestListRepositorySaveRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewListRepository(db)

	if err := repo.Save(ctx, groceries()); err != nil {
		t.Fatalf("failed to save list: %v", err)
	}

	bad := groceries()
	bad.List.Name = "Renamed"
	bad.Items = append(bad.Items[:1], models.Item{ID: "item-9", ItemBase: models.ItemBase{ListID: "list-1", Name: "Broken"}})
	if _, err := db.Exec("CREATE TRIGGER reject_broken BEFORE INSERT ON items WHEN NEW.name = 'Broken' BEGIN SELECT RAISE(ABORT, 'broken item'); END"); err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}

	if err := repo.Save(ctx, bad); err == nil {
		t.Fatal("expected save to fail")
	}

	got, err := repo.Get(ctx, "list-1")
	if err != nil {
		t.Fatalf("failed to get list: %v", err)
	}
	if got.List.Name != "Groceries" || len(got.Items) != 3 {
		t.Errorf("expected original list to survive, got %+v", got)
	}
}
