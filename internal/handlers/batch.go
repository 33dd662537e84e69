package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adrijusxx/truckpay/internal/httpx"
	"github.com/adrijusxx/truckpay/internal/middleware"
	"github.com/adrijusxx/truckpay/internal/models"
	"github.com/adrijusxx/truckpay/internal/services"

	"gorm.io/gorm"
)

type SalaryBatchHandler struct {
	DB     *gorm.DB
	Svc    *services.SalaryBatchService
	Export *services.BatchExportService
}

func NewSalaryBatchHandler(db *gorm.DB, svc *services.SalaryBatchService, export *services.BatchExportService) *SalaryBatchHandler {
	return &SalaryBatchHandler{DB: db, Svc: svc, Export: export}
}

// Create: POST /salary-batches
func (h *SalaryBatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID   uint      `json:"company_id"`
		PeriodStart time.Time `json:"period_start"`
		PeriodEnd   time.Time `json:"period_end"`
		Notes       string    `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.CompanyID == 0 || req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"company_id": "required", "period_start": "required", "period_end": "required"})
		return
	}
	batch, err := h.Svc.Create(services.CreateBatchInput{
		CompanyID:   req.CompanyID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, batch)
}

// List: GET /salary-batches
func (h *SalaryBatchHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Model(&models.SalaryBatch{})
	if v := r.URL.Query().Get("status"); v != "" {
		dbq = dbq.Where("status = ?", v)
	}
	var batches []models.SalaryBatch
	if err := dbq.Preload("Settlements").Order("id desc").Find(&batches).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_batches", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": batches, "total": len(batches)})
}

// AddSettlement: POST /salary-batches/add-settlement?id=...
func (h *SalaryBatchHandler) AddSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		SettlementID uint `json:"settlement_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SettlementID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"settlement_id": "required"})
		return
	}
	if err := h.Svc.AddSettlement(id, req.SettlementID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// Post: POST /salary-batches/post?id=...
func (h *SalaryBatchHandler) Post(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Svc.Post, "posted")
}

// Delete: POST /salary-batches/delete?id=...
func (h *SalaryBatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Svc.Delete, "deleted")
}

// Archive: POST /salary-batches/archive?id=...
func (h *SalaryBatchHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Svc.Archive, "archived")
}

func (h *SalaryBatchHandler) action(w http.ResponseWriter, r *http.Request, fn func(uint, string) error, status string) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := fn(id, middleware.RequestIDFrom(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// ExportXLSX: GET /salary-batches/export?id=...
func (h *SalaryBatchHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	data, err := h.Export.ExportXLSX(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"salary-batch-%d.xlsx\"", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
