package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/adrijusxx/truckpay/internal/httpx"
	"github.com/adrijusxx/truckpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DriverAdvanceHandler records advances and exposes the outstanding list.
// Approval itself belongs to the accounting workflow upstream; settlement
// generation only ever consumes APPROVED rows.
type DriverAdvanceHandler struct {
	DB *gorm.DB
}

func NewDriverAdvanceHandler(db *gorm.DB) *DriverAdvanceHandler {
	return &DriverAdvanceHandler{DB: db}
}

// Create: POST /driver-advances
func (h *DriverAdvanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID uint            `json:"company_id"`
		DriverID  uint            `json:"driver_id"`
		Amount    decimal.Decimal `json:"amount"`
		Reason    string          `json:"reason"`
		Status    string          `json:"status"`
		IssuedAt  time.Time       `json:"issued_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.CompanyID == 0 || req.DriverID == 0 || !req.Amount.IsPositive() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"company_id": "required", "driver_id": "required", "amount": "must be positive"})
		return
	}
	advance := models.DriverAdvance{
		CompanyID: req.CompanyID,
		DriverID:  req.DriverID,
		Amount:    req.Amount,
		Reason:    req.Reason,
		Status:    models.AdvanceStatusPending,
		IssuedAt:  req.IssuedAt,
	}
	if req.Status != "" {
		advance.Status = req.Status
	}
	if advance.IssuedAt.IsZero() {
		advance.IssuedAt = time.Now()
	}
	if err := h.DB.Create(&advance).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_advance", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, advance)
}

// List: GET /driver-advances?driver_id=...&outstanding=1
func (h *DriverAdvanceHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Model(&models.DriverAdvance{})
	if v := r.URL.Query().Get("driver_id"); v != "" {
		dbq = dbq.Where("driver_id = ?", v)
	}
	if r.URL.Query().Get("outstanding") == "1" {
		dbq = dbq.Where("status = ? AND settlement_id IS NULL", models.AdvanceStatusApproved)
	}
	var advances []models.DriverAdvance
	if err := dbq.Order("issued_at asc").Find(&advances).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_advances", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": advances, "total": len(advances)})
}
