package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	dbpkg "github.com/adrijusxx/truckpay/internal/db"
	"github.com/adrijusxx/truckpay/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupFileDB opens a file-backed database so concurrent goroutines exercise
// real writer contention instead of shared-cache table locks.
func setupFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "truckpay.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(dbpkg.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func genSettlement(t *testing.T, db *gorm.DB, driver *models.Driver, start, end time.Time) *models.Settlement {
	t.Helper()
	result, err := NewSettlementService(db).Generate(GenerateInput{
		DriverID: driver.ID, PeriodStart: start, PeriodEnd: end,
	})
	if err != nil {
		t.Fatalf("generate settlement: %v", err)
	}
	return result.Settlement
}

func TestBatchCreateAssignsNumber(t *testing.T) {
	db := setupTestDB(t, t.Name())
	start, end, _ := period()

	svc := NewSalaryBatchService(db)
	batch, err := svc.Create(CreateBatchInput{CompanyID: 1, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if batch.Status != models.BatchStatusOpen {
		t.Fatalf("expected OPEN got %s", batch.Status)
	}
	if batch.BatchNumber != fmt.Sprintf("PR-2026-%04d", batch.ID) {
		t.Fatalf("unexpected batch number %s", batch.BatchNumber)
	}
	if batch.PostedAt != nil {
		t.Fatal("postedAt must be unset on an OPEN batch")
	}

	if _, err := svc.Create(CreateBatchInput{CompanyID: 1, PeriodStart: end, PeriodEnd: start}); !errors.Is(err, ErrValidation) {
		t.Fatalf("inverted period must fail validation, got %v", err)
	}
}

func TestBatchPostApprovesMembers(t *testing.T) {
	db := setupTestDB(t, t.Name())
	a := seedDriver(t, db, "DRV-020")
	b := seedDriver(t, db, "DRV-021")
	start, end, completed := period()
	seedLoad(t, db, a, "L-020", "900.00", "400", completed)
	seedLoad(t, db, b, "L-021", "850.00", "380", completed)
	sa := genSettlement(t, db, a, start, end)
	sb := genSettlement(t, db, b, start, end)

	svc := NewSalaryBatchService(db)
	batch, err := svc.Create(CreateBatchInput{CompanyID: a.CompanyID, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, id := range []uint{sa.ID, sb.ID} {
		if err := svc.AddSettlement(batch.ID, id); err != nil {
			t.Fatalf("add settlement %d: %v", id, err)
		}
	}

	if err := svc.Post(batch.ID, "req-1"); err != nil {
		t.Fatalf("post: %v", err)
	}

	var reloaded models.SalaryBatch
	if err := db.First(&reloaded, batch.ID).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if reloaded.Status != models.BatchStatusPosted || reloaded.PostedAt == nil {
		t.Fatalf("expected POSTED with postedAt, got %+v", reloaded)
	}
	var approved int64
	if err := db.Model(&models.Settlement{}).
		Where("salary_batch_id = ? AND status = ?", batch.ID, models.SettlementStatusApproved).
		Count(&approved).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if approved != 2 {
		t.Fatalf("expected both members APPROVED, got %d", approved)
	}
}

func TestBatchPostNonOpenConflicts(t *testing.T) {
	db := setupTestDB(t, t.Name())
	start, end, _ := period()
	svc := NewSalaryBatchService(db)
	batch, err := svc.Create(CreateBatchInput{CompanyID: 1, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Post(batch.ID, "req-1"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := svc.Post(batch.ID, "req-2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("second post must conflict, got %v", err)
	}
	if err := svc.Post(9999, "req-3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown batch must be not found, got %v", err)
	}
}

func TestBatchAddSettlementGuards(t *testing.T) {
	db := setupTestDB(t, t.Name())
	driver := seedDriver(t, db, "DRV-022")
	start, end, completed := period()
	seedLoad(t, db, driver, "L-022", "500.00", "200", completed)
	st := genSettlement(t, db, driver, start, end)

	svc := NewSalaryBatchService(db)
	first, err := svc.Create(CreateBatchInput{CompanyID: driver.CompanyID, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(CreateBatchInput{CompanyID: driver.CompanyID, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if err := svc.AddSettlement(first.ID, st.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	// A settlement belongs to at most one batch.
	if err := svc.AddSettlement(second.ID, st.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second attach must conflict, got %v", err)
	}
	if err := svc.AddSettlement(first.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown settlement must be not found, got %v", err)
	}
	if err := svc.AddSettlement(9999, st.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown batch must be not found, got %v", err)
	}

	if err := svc.Post(second.ID, "req-1"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := svc.AddSettlement(second.ID, st.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("posted batch must reject new settlements, got %v", err)
	}
}

func TestBatchDeleteUnlinksAdvances(t *testing.T) {
	db := setupTestDB(t, t.Name())
	driver := seedDriver(t, db, "DRV-023")
	start, end, completed := period()
	seedLoad(t, db, driver, "L-023", "2000.00", "900", completed)

	advanceIDs := make([]uint, 0, 3)
	for i := 0; i < 3; i++ {
		adv := models.DriverAdvance{
			CompanyID: driver.CompanyID,
			DriverID:  driver.ID,
			Amount:    d(t, "100.00"),
			Status:    models.AdvanceStatusApproved,
			IssuedAt:  start.Add(time.Duration(i-3) * time.Hour),
		}
		if err := db.Create(&adv).Error; err != nil {
			t.Fatalf("seed advance: %v", err)
		}
		advanceIDs = append(advanceIDs, adv.ID)
	}

	st := genSettlement(t, db, driver, start, end)
	if !st.NetPay.Equal(d(t, "1700.00")) {
		t.Fatalf("expected all 3 advances consumed, net %s", st.NetPay)
	}

	svc := NewSalaryBatchService(db)
	batch, err := svc.Create(CreateBatchInput{CompanyID: driver.CompanyID, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.AddSettlement(batch.ID, st.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Delete(batch.ID, "req-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, id := range advanceIDs {
		var adv models.DriverAdvance
		if err := db.First(&adv, id).Error; err != nil {
			t.Fatalf("reload advance %d: %v", id, err)
		}
		if adv.SettlementID != nil || adv.DeductedAt != nil {
			t.Fatalf("advance %d still linked: %+v", id, adv)
		}
	}
	for _, model := range []any{&models.Settlement{}, &models.DeductionItem{}, &models.SettlementLoad{}} {
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			t.Fatalf("count %T: %v", model, err)
		}
		if count != 0 {
			t.Fatalf("%T rows survived batch delete: %d", model, count)
		}
	}
	if err := db.First(&models.SalaryBatch{}, batch.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("batch must be gone, got %v", err)
	}

	// The freed advances are consumable again.
	regenerated := genSettlement(t, db, driver, start, end)
	if !regenerated.NetPay.Equal(d(t, "1700.00")) {
		t.Fatalf("regeneration must re-consume advances, net %s", regenerated.NetPay)
	}
}

func TestBatchDeletePostedConflicts(t *testing.T) {
	db := setupTestDB(t, t.Name())
	driver := seedDriver(t, db, "DRV-024")
	start, end, completed := period()
	seedLoad(t, db, driver, "L-024", "600.00", "250", completed)
	st := genSettlement(t, db, driver, start, end)

	svc := NewSalaryBatchService(db)
	batch, err := svc.Create(CreateBatchInput{CompanyID: driver.CompanyID, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.AddSettlement(batch.ID, st.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Post(batch.ID, "req-1"); err != nil {
		t.Fatalf("post: %v", err)
	}

	if err := svc.Delete(batch.ID, "req-2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("deleting a POSTED batch must conflict, got %v", err)
	}
	var reloaded models.Settlement
	if err := db.First(&reloaded, st.ID).Error; err != nil {
		t.Fatalf("settlement must survive the failed delete: %v", err)
	}
	if reloaded.SalaryBatchID == nil || *reloaded.SalaryBatchID != batch.ID {
		t.Fatalf("settlement lost its batch link: %+v", reloaded)
	}
}

func TestBatchArchiveLifecycle(t *testing.T) {
	db := setupTestDB(t, t.Name())
	start, end, _ := period()
	svc := NewSalaryBatchService(db)
	batch, err := svc.Create(CreateBatchInput{CompanyID: 1, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Archive(batch.ID, "req-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("archiving an OPEN batch must conflict, got %v", err)
	}
	if err := svc.Post(batch.ID, "req-2"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := svc.Archive(batch.ID, "req-3"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := svc.Archive(batch.ID, "req-4"); !errors.Is(err, ErrConflict) {
		t.Fatalf("double archive must conflict, got %v", err)
	}
	if err := svc.Delete(batch.ID, "req-5"); !errors.Is(err, ErrConflict) {
		t.Fatalf("deleting an ARCHIVED batch must conflict, got %v", err)
	}
}

func TestBatchConcurrentPostOneWins(t *testing.T) {
	db := setupFileDB(t)
	start, end, _ := period()
	svc := NewSalaryBatchService(db)
	batch, err := svc.Create(CreateBatchInput{CompanyID: 1, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Post(batch.ID, fmt.Sprintf("req-%d", i))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrConflict):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got %d winners and %d conflicts", won, lost)
	}

	var reloaded models.SalaryBatch
	if err := db.First(&reloaded, batch.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != models.BatchStatusPosted || reloaded.PostedAt == nil {
		t.Fatalf("expected POSTED with postedAt, got %+v", reloaded)
	}
}
