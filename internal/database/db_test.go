package database

import (
	"testing"

	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestAutoMigrateAndSeedData(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}

	var plans []models.Plan
	if err := db.Order("price_minor_units").Find(&plans).Error; err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("expected 3 seeded plans, got %d", len(plans))
	}
	if plans[0].ID != "basic" || plans[0].DurationSeconds != 3600 || plans[0].SpeedMbps != 1 {
		t.Fatalf("unexpected basic plan: %+v", plans[0])
	}
	if plans[2].ID != "premium" || plans[2].PriceMinorUnits != 2000 {
		t.Fatalf("unexpected premium plan: %+v", plans[2])
	}

	for _, table := range []any{&models.Payment{}, &models.SessionEvent{}} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table for %T", table)
		}
	}
}

func TestSeedDataPreservesOperatorEdits(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}
	if err := db.Model(&models.Plan{}).Where("id = ?", "basic").Update("price_minor_units", 150).Error; err != nil {
		t.Fatalf("update plan: %v", err)
	}

	if err := SeedData(db); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var plan models.Plan
	if err := db.Take(&plan, "id = ?", "basic").Error; err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if plan.PriceMinorUnits != 150 {
		t.Fatalf("expected operator price to survive reseed, got %d", plan.PriceMinorUnits)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
