package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/adrijusxx/truckpay/internal/httpx"
	"github.com/adrijusxx/truckpay/internal/middleware"
	"github.com/adrijusxx/truckpay/internal/models"
	"github.com/adrijusxx/truckpay/internal/services"

	"gorm.io/gorm"
)

type SettlementHandler struct {
	DB  *gorm.DB
	Svc *services.SettlementService
}

func NewSettlementHandler(db *gorm.DB, svc *services.SettlementService) *SettlementHandler {
	return &SettlementHandler{DB: db, Svc: svc}
}

// idParam parses the ?id= query parameter shared by the action endpoints.
func idParam(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// Generate: POST /settlements/generate
func (h *SettlementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID    uint      `json:"driver_id"`
		PeriodStart time.Time `json:"period_start"`
		PeriodEnd   time.Time `json:"period_end"`
		Notes       string    `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.DriverID == 0 || req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"driver_id": "required", "period_start": "required", "period_end": "required"})
		return
	}
	result, err := h.Svc.Generate(services.GenerateInput{
		DriverID:    req.DriverID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Notes:       req.Notes,
		RequestID:   middleware.RequestIDFrom(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ruleErrors := make([]string, 0, len(result.RuleErrors))
	for _, e := range result.RuleErrors {
		ruleErrors = append(ruleErrors, e.Error())
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"settlement":       result.Settlement,
		"rule_errors":      ruleErrors,
		"has_negative_net": result.HasNegativeNet,
	})
}

// List: GET /settlements
func (h *SettlementHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	dbq := h.DB.Model(&models.Settlement{})
	if v := r.URL.Query().Get("driver_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			dbq = dbq.Where("driver_id = ?", n)
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		dbq = dbq.Where("status = ?", v)
	}
	var total int64
	dbq.Count(&total)
	var settlements []models.Settlement
	if err := dbq.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&settlements).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_settlements", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": settlements, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /settlements/get?id=...
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var settlement models.Settlement
	if err := h.DB.Preload("Items").Preload("Loads").First(&settlement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_settlement", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, settlement)
}

// Approve: POST /settlements/approve?id=...
func (h *SettlementHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Svc.Approve, "approved")
}

// Dispute: POST /settlements/dispute?id=...
func (h *SettlementHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Svc.Dispute, "disputed")
}

// MarkPaid: POST /settlements/pay?id=...
func (h *SettlementHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Svc.MarkPaid, "paid")
}

func (h *SettlementHandler) action(w http.ResponseWriter, r *http.Request, fn func(uint) error, status string) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := fn(id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": status})
}
