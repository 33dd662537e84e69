package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/adrijusxx/truckpay/internal/httpx"
	"github.com/adrijusxx/truckpay/internal/models"
	"github.com/adrijusxx/truckpay/internal/services"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DeductionRuleHandler struct {
	DB *gorm.DB
}

func NewDeductionRuleHandler(db *gorm.DB) *DeductionRuleHandler {
	return &DeductionRuleHandler{DB: db}
}

// List: GET /deduction-rules
func (h *DeductionRuleHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Model(&models.DeductionRule{})
	if v := r.URL.Query().Get("company_id"); v != "" {
		dbq = dbq.Where("company_id = ?", v)
	}
	var rules []models.DeductionRule
	if err := dbq.Order("id asc").Find(&rules).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_rules", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rules, "total": len(rules)})
}

// Create: POST /deduction-rules
// A rule whose value columns disagree with its calculationType never reaches
// the store; the tagged-union constructor rejects it here.
func (h *DeductionRuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID       uint             `json:"company_id"`
		Name            string           `json:"name"`
		DeductionType   string           `json:"deduction_type"`
		IsAddition      bool             `json:"is_addition"`
		DriverType      *string          `json:"driver_type"`
		DriverID        *uint            `json:"driver_id"`
		CalculationType string           `json:"calculation_type"`
		Amount          *decimal.Decimal `json:"amount"`
		Percentage      *decimal.Decimal `json:"percentage"`
		PerMileRate     *decimal.Decimal `json:"per_mile_rate"`
		Frequency       string           `json:"frequency"`
		MinGrossPay     *decimal.Decimal `json:"min_gross_pay"`
		MaxAmount       *decimal.Decimal `json:"max_amount"`
		IsActive        *bool            `json:"is_active"`
		Notes           string           `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.CompanyID == 0 || req.Name == "" || req.DeductionType == "" || req.CalculationType == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"company_id": "required", "name": "required", "deduction_type": "required", "calculation_type": "required"})
		return
	}
	rule := models.DeductionRule{
		CompanyID:       req.CompanyID,
		Name:            req.Name,
		DeductionType:   req.DeductionType,
		IsAddition:      req.IsAddition,
		DriverType:      req.DriverType,
		DriverID:        req.DriverID,
		CalculationType: req.CalculationType,
		Amount:          req.Amount,
		Percentage:      req.Percentage,
		PerMileRate:     req.PerMileRate,
		Frequency:       req.Frequency,
		MinGrossPay:     req.MinGrossPay,
		MaxAmount:       req.MaxAmount,
		IsActive:        true,
		Notes:           req.Notes,
	}
	if req.Frequency == "" {
		rule.Frequency = models.FrequencyPerSettlement
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if _, err := services.CalculationFor(&rule); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "rule_misconfigured", err.Error())
		return
	}
	if err := h.DB.Create(&rule).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_rule", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, rule)
}

// Deactivate: POST /deduction-rules/deactivate?id=...
// Rules are never hard-deleted; past settlements reference them.
func (h *DeductionRuleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Model(&models.DeductionRule{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_rule", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
