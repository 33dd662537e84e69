package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/adrijusxx/truckpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService turns a driver's completed loads for a period into a pay
// statement: gross pay, one line item per rule/advance/expense, and an exact
// net. Generation is a single transaction; the duplicate-period check, the
// sequence increment and the insert all commit or roll back together.
type SettlementService struct {
	DB       *gorm.DB
	Advances *DriverAdvanceService
}

func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{DB: db, Advances: NewDriverAdvanceService()}
}

type GenerateInput struct {
	DriverID    uint
	PeriodStart time.Time
	PeriodEnd   time.Time
	Notes       string
	RequestID   string
}

// GenerateResult carries the persisted settlement plus anything the caller
// must surface: rule configuration errors (those rules were skipped, not
// zeroed) and a negative-net flag for review tooling.
type GenerateResult struct {
	Settlement     *models.Settlement
	RuleErrors     []error
	HasNegativeNet bool
}

type itemDraft struct {
	category    string
	itemType    string
	description string
	amount      decimal.Decimal // signed: positive reduces net pay
	loadID      *uint
	ruleID      *uint
	advanceID   *uint
}

// Generate builds and persists the settlement for one driver and period.
// Loads and handoff segments with a completion event inside
// [periodStart, periodEnd) contribute; a prior settlement for the same driver
// and period is a conflict, never a silent duplicate payout. Negative net pay
// is kept as-is: clamping it to zero would silently lose the deficit.
func (s *SettlementService) Generate(in GenerateInput) (*GenerateResult, error) {
	if !in.PeriodStart.Before(in.PeriodEnd) {
		return nil, fmt.Errorf("%w: period start must precede period end", ErrValidation)
	}
	result := &GenerateResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var driver models.Driver
		if err := tx.First(&driver, in.DriverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: driver %d", ErrNotFound, in.DriverID)
			}
			return err
		}

		// Duplicate guard, inside the same transaction as the insert so no
		// window exists between check and create.
		var existing models.Settlement
		err := tx.Where("driver_id = ? AND period_start = ? AND period_end = ?",
			driver.ID, in.PeriodStart, in.PeriodEnd).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: settlement %s already covers this driver and period",
				ErrConflict, existing.SettlementNumber)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var loads []models.Load
		if err := tx.Where("driver_id = ? AND split = ? AND completed_at >= ? AND completed_at < ?",
			driver.ID, false, in.PeriodStart, in.PeriodEnd).
			Order("completed_at asc, id asc").Find(&loads).Error; err != nil {
			return err
		}
		var segments []models.LoadSegment
		if err := tx.Where("driver_id = ? AND completed_at >= ? AND completed_at < ?",
			driver.ID, in.PeriodStart, in.PeriodEnd).
			Order("completed_at asc, id asc").Find(&segments).Error; err != nil {
			return err
		}
		if len(loads) == 0 && len(segments) == 0 {
			return fmt.Errorf("%w: no completed loads for driver %d in period", ErrValidation, driver.ID)
		}

		gross := decimal.Zero
		miles := decimal.Zero
		var contributing []models.SettlementLoad
		loadIDs := make([]uint, 0, len(loads))
		for _, l := range loads {
			gross = gross.Add(l.DriverPay)
			miles = miles.Add(l.LoadedMiles)
			loadIDs = append(loadIDs, l.ID)
			contributing = append(contributing, models.SettlementLoad{LoadID: l.ID, Position: len(contributing)})
		}
		for _, seg := range segments {
			gross = gross.Add(seg.DriverPay)
			miles = miles.Add(seg.Miles)
			contributing = append(contributing, models.SettlementLoad{LoadID: seg.LoadID, SegmentID: &seg.ID, Position: len(contributing)})
		}

		ctx := RuleContext{GrossPay: gross, Miles: miles}
		drafts, err := s.ruleItems(tx, &driver, ctx, result)
		if err != nil {
			return err
		}

		passDrafts, err := s.passThroughItems(tx, loadIDs)
		if err != nil {
			return err
		}
		drafts = append(drafts, passDrafts...)

		advances, err := s.Advances.Consumable(tx, driver.ID, in.PeriodEnd)
		if err != nil {
			return err
		}
		for _, adv := range advances {
			drafts = append(drafts, itemDraft{
				category:    models.ItemCategoryDeduction,
				itemType:    "ADVANCE_REPAYMENT",
				description: fmt.Sprintf("Advance repayment (issued %s)", adv.IssuedAt.Format("2006-01-02")),
				amount:      adv.Amount,
				advanceID:   &adv.ID,
			})
		}

		net := gross
		for _, d := range drafts {
			net = net.Sub(d.amount)
		}

		number, err := nextSettlementNumber(tx, driver.CompanyID, in.PeriodEnd.Year())
		if err != nil {
			return err
		}

		settlement := models.Settlement{
			CompanyID:        driver.CompanyID,
			DriverID:         driver.ID,
			SettlementNumber: number,
			PeriodStart:      in.PeriodStart,
			PeriodEnd:        in.PeriodEnd,
			GrossPay:         gross,
			NetPay:           net,
			Status:           models.SettlementStatusPending,
			ApprovalStatus:   models.SettlementStatusPending,
			Notes:            in.Notes,
		}
		if err := tx.Create(&settlement).Error; err != nil {
			return err
		}
		for i := range contributing {
			contributing[i].SettlementID = settlement.ID
		}
		if len(contributing) > 0 {
			if err := tx.Create(&contributing).Error; err != nil {
				return err
			}
		}
		items := make([]models.DeductionItem, 0, len(drafts))
		for _, d := range drafts {
			items = append(items, models.DeductionItem{
				SettlementID:    settlement.ID,
				Category:        d.category,
				Type:            d.itemType,
				Description:     d.description,
				Amount:          d.amount,
				LoadID:          d.loadID,
				DeductionRuleID: d.ruleID,
				DriverAdvanceID: d.advanceID,
			})
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		advanceIDs := make([]uint, 0, len(advances))
		for _, adv := range advances {
			advanceIDs = append(advanceIDs, adv.ID)
		}
		if err := s.Advances.MarkDeducted(tx, advanceIDs, settlement.ID, time.Now()); err != nil {
			return err
		}

		if err := tx.Create(&models.ActivityLog{
			CompanyID:   driver.CompanyID,
			RequestID:   in.RequestID,
			Action:      models.ActionSettlementGenerated,
			EntityType:  "Settlement",
			EntityID:    settlement.ID,
			Description: fmt.Sprintf("Settlement %s generated for driver %s", number, driver.DriverNumber),
		}).Error; err != nil {
			return err
		}

		if err := tx.Preload("Items").Preload("Loads").First(&settlement, settlement.ID).Error; err != nil {
			return err
		}
		result.Settlement = &settlement
		result.HasNegativeNet = net.IsNegative()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ruleItems evaluates every active rule scoped to the driver. Addition rules
// (bonus, incentive, reimbursement) land as negative amounts so the net-pay
// identity stays a single subtraction. Misconfigured rules are skipped and
// reported, never coerced.
func (s *SettlementService) ruleItems(tx *gorm.DB, driver *models.Driver, ctx RuleContext, result *GenerateResult) ([]itemDraft, error) {
	var rules []models.DeductionRule
	if err := tx.Where("company_id = ? AND is_active = ?", driver.CompanyID, true).
		Where("(driver_type IS NULL AND driver_id IS NULL) OR (driver_type = ? AND driver_id IS NULL) OR driver_id = ?",
			driver.DriverType, driver.ID).
		Order("id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	var drafts []itemDraft
	for _, rule := range rules {
		res, err := EvaluateRule(&rule, ctx)
		if err != nil {
			var cfgErr *RuleConfigError
			if errors.As(err, &cfgErr) {
				result.RuleErrors = append(result.RuleErrors, err)
				continue
			}
			return nil, err
		}
		if res.Skipped || res.Amount.IsZero() {
			continue
		}
		draft := itemDraft{
			itemType:    rule.DeductionType,
			description: rule.Name,
			ruleID:      &rule.ID,
		}
		if rule.IsAddition {
			draft.category = models.ItemCategoryAddition
			draft.amount = res.Amount.Neg()
		} else {
			draft.category = models.ItemCategoryDeduction
			draft.amount = res.Amount
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// passThroughItems maps approved load expenses and billed accessorials on the
// contributing loads to line items. Tolls and scale tickets come back to the
// driver as reimbursements; stop pay and detention pass through from billing;
// other approved expenses are withheld. Accessorial types without a mapping
// are informational only.
func (s *SettlementService) passThroughItems(tx *gorm.DB, loadIDs []uint) ([]itemDraft, error) {
	if len(loadIDs) == 0 {
		return nil, nil
	}
	var drafts []itemDraft

	var expenses []models.LoadExpense
	if err := tx.Where("load_id IN ? AND approval_status = ?", loadIDs, models.ExpenseStatusApproved).
		Order("id asc").Find(&expenses).Error; err != nil {
		return nil, err
	}
	for _, e := range expenses {
		draft := itemDraft{
			itemType: e.ExpenseType,
			loadID:   &e.LoadID,
		}
		switch e.ExpenseType {
		case models.ExpenseTypeToll, models.ExpenseTypeScale:
			draft.category = models.ItemCategoryAddition
			draft.itemType = models.RuleTypeReimbursement
			draft.description = fmt.Sprintf("Reimbursement: %s %s", e.ExpenseType, e.Description)
			draft.amount = e.Amount.Neg()
		default:
			draft.category = models.ItemCategoryDeduction
			draft.description = fmt.Sprintf("Expense: %s %s", e.ExpenseType, e.Description)
			draft.amount = e.Amount
		}
		drafts = append(drafts, draft)
	}

	var charges []models.AccessorialCharge
	if err := tx.Where("load_id IN ? AND status IN ?", loadIDs,
		[]string{models.ChargeStatusApproved, models.ChargeStatusBilled}).
		Order("id asc").Find(&charges).Error; err != nil {
		return nil, err
	}
	for _, c := range charges {
		switch c.ChargeType {
		case models.ChargeTypeAdditionalStop:
			drafts = append(drafts, itemDraft{
				category:    models.ItemCategoryAddition,
				itemType:    "STOP_PAY",
				description: "Stop pay: " + nonEmpty(c.Description, "additional stop"),
				amount:      c.Amount.Neg(),
				loadID:      &c.LoadID,
			})
		case models.ChargeTypeDetention:
			drafts = append(drafts, itemDraft{
				category:    models.ItemCategoryAddition,
				itemType:    "DETENTION_PAY",
				description: "Detention pay: " + nonEmpty(c.Description, "detention"),
				amount:      c.Amount.Neg(),
				loadID:      &c.LoadID,
			})
		}
	}
	return drafts, nil
}

func nonEmpty(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// Approve moves a PENDING settlement to APPROVED. Anything else is a
// conflict.
func (s *SettlementService) Approve(id uint) error {
	return s.transition(id, []string{models.SettlementStatusPending}, map[string]any{
		"status":          models.SettlementStatusApproved,
		"approval_status": models.SettlementStatusApproved,
	})
}

// Dispute flags a PENDING or APPROVED settlement. PAID settlements are
// immutable.
func (s *SettlementService) Dispute(id uint) error {
	return s.transition(id, []string{models.SettlementStatusPending, models.SettlementStatusApproved}, map[string]any{
		"status": models.SettlementStatusDisputed,
	})
}

// MarkPaid finishes an APPROVED settlement and stamps the payment date.
func (s *SettlementService) MarkPaid(id uint) error {
	now := time.Now()
	return s.transition(id, []string{models.SettlementStatusApproved}, map[string]any{
		"status":    models.SettlementStatusPaid,
		"paid_date": now,
	})
}

// transition applies a guarded status update. The precondition rides in the
// UPDATE's WHERE clause, so a concurrent transition loses cleanly with a
// conflict instead of overwriting.
func (s *SettlementService) transition(id uint, from []string, set map[string]any) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Settlement{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Settlement{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: settlement %d", ErrNotFound, id)
			}
			return fmt.Errorf("%w: settlement %d not in required status", ErrConflict, id)
		}
		return nil
	})
}
