package server

import (
	"net/http"

	"github.com/adrijusxx/truckpay/internal/handlers"
	"github.com/adrijusxx/truckpay/internal/httpx"
	"github.com/adrijusxx/truckpay/internal/middleware"
	"github.com/adrijusxx/truckpay/internal/services"

	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Settlements
	settlementSvc := services.NewSettlementService(db)
	sh := handlers.NewSettlementHandler(db, settlementSvc)
	mux.HandleFunc("/settlements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			sh.List(w, r)
			return
		}
		methodNotAllowed(w, "GET")
	})
	mux.HandleFunc("/settlements/get", get(sh.Get))
	mux.HandleFunc("/settlements/generate", post(sh.Generate))
	mux.HandleFunc("/settlements/approve", post(sh.Approve))
	mux.HandleFunc("/settlements/dispute", post(sh.Dispute))
	mux.HandleFunc("/settlements/pay", post(sh.MarkPaid))

	// Salary batches
	batchSvc := services.NewSalaryBatchService(db)
	exportSvc := services.NewBatchExportService(db)
	bh := handlers.NewSalaryBatchHandler(db, batchSvc, exportSvc)
	mux.HandleFunc("/salary-batches", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bh.List(w, r)
		case http.MethodPost:
			bh.Create(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})
	mux.HandleFunc("/salary-batches/add-settlement", post(bh.AddSettlement))
	mux.HandleFunc("/salary-batches/post", post(bh.Post))
	mux.HandleFunc("/salary-batches/delete", post(bh.Delete))
	mux.HandleFunc("/salary-batches/archive", post(bh.Archive))
	mux.HandleFunc("/salary-batches/export", get(bh.ExportXLSX))

	// Deduction rules
	rh := handlers.NewDeductionRuleHandler(db)
	mux.HandleFunc("/deduction-rules", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rh.List(w, r)
		case http.MethodPost:
			rh.Create(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})
	mux.HandleFunc("/deduction-rules/deactivate", post(rh.Deactivate))

	// Load splits
	splitSvc := services.NewLoadSplitService(db)
	lh := handlers.NewLoadSplitHandler(splitSvc)
	mux.HandleFunc("/loads/split", post(lh.Split))
	mux.HandleFunc("/drivers/miles", get(lh.DriverMiles))

	// Driver advances
	ah := handlers.NewDriverAdvanceHandler(db)
	mux.HandleFunc("/driver-advances", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ah.List(w, r)
		case http.MethodPost:
			ah.Create(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})

	return middleware.RequestID(mux)
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		h(w, r)
	}
}

func get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		h(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}
