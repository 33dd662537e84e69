package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/adrijusxx/truckpay/internal/httpx"
	"github.com/adrijusxx/truckpay/internal/middleware"
	"github.com/adrijusxx/truckpay/internal/services"

	"github.com/shopspring/decimal"
)

type LoadSplitHandler struct {
	Svc *services.LoadSplitService
}

func NewLoadSplitHandler(svc *services.LoadSplitService) *LoadSplitHandler {
	return &LoadSplitHandler{Svc: svc}
}

// Split: POST /loads/split?id=...
func (h *LoadSplitHandler) Split(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		NewDriverID   *uint           `json:"new_driver_id"`
		NewTruckID    *uint           `json:"new_truck_id"`
		SplitLocation string          `json:"split_location"`
		SplitDate     time.Time       `json:"split_date"`
		SplitMiles    decimal.Decimal `json:"split_miles"`
		Notes         string          `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.SplitDate.IsZero() {
		req.SplitDate = time.Now()
	}
	result, err := h.Svc.Split(id, services.SplitInput{
		NewDriverID:   req.NewDriverID,
		NewTruckID:    req.NewTruckID,
		SplitLocation: req.SplitLocation,
		SplitDate:     req.SplitDate,
		SplitMiles:    req.SplitMiles,
		Notes:         req.Notes,
		RequestID:     middleware.RequestIDFrom(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"segment_a":     result.SegmentA,
		"segment_b":     result.SegmentB,
		"zero_distance": result.ZeroDistance,
	})
}

// DriverMiles: GET /drivers/miles?id=...&start=...&end=...
func (h *LoadSplitHandler) DriverMiles(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	start, err1 := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	end, err2 := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err1 != nil || err2 != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"start": "RFC3339 required", "end": "RFC3339 required"})
		return
	}
	miles, err := h.Svc.DriverMilesForPeriod(id, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"driver_id":     strconv.Itoa(int(id)),
		"total_miles":   miles.TotalMiles,
		"loaded_miles":  miles.LoadedMiles,
		"load_count":    miles.LoadCount,
		"segment_count": miles.SegmentCount,
	})
}
