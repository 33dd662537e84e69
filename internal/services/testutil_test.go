package services

import (
	"fmt"
	"testing"
	"time"

	dbpkg "github.com/adrijusxx/truckpay/internal/db"
	"github.com/adrijusxx/truckpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(dbpkg.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return v
}

func dp(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	v := d(t, s)
	return &v
}

func seedDriver(t *testing.T, db *gorm.DB, number string) *models.Driver {
	t.Helper()
	company := models.Company{Name: "Route 9 Logistics"}
	if err := db.Where("name = ?", company.Name).FirstOrCreate(&company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}
	driver := models.Driver{
		CompanyID:    company.ID,
		DriverNumber: number,
		FirstName:    "Sam",
		LastName:     "Porter",
		DriverType:   models.DriverTypeCompany,
		Active:       true,
	}
	if err := db.Create(&driver).Error; err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	return &driver
}

func seedLoad(t *testing.T, db *gorm.DB, driver *models.Driver, number, pay, loadedMiles string, completedAt time.Time) *models.Load {
	t.Helper()
	loaded := d(t, loadedMiles)
	load := models.Load{
		CompanyID:   driver.CompanyID,
		LoadNumber:  number,
		DriverID:    driver.ID,
		TruckID:     7,
		TotalMiles:  loaded,
		LoadedMiles: loaded,
		EmptyMiles:  decimal.Zero,
		Revenue:     d(t, pay).Mul(d(t, "2")),
		DriverPay:   d(t, pay),
		Status:      models.LoadStatusDelivered,
		CompletedAt: &completedAt,
	}
	if err := db.Create(&load).Error; err != nil {
		t.Fatalf("seed load: %v", err)
	}
	return &load
}

// period returns a one-week window and a completion timestamp inside it.
func period() (time.Time, time.Time, time.Time) {
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	return start, end, start.AddDate(0, 0, 3)
}
