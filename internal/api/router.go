package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/quitanda/lossprev/internal/cache"
	"github.com/quitanda/lossprev/internal/ingestion"
	"github.com/quitanda/lossprev/internal/reconcile"
	"github.com/quitanda/lossprev/internal/report"
	"github.com/quitanda/lossprev/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	eventRepo *repository.LossEventRepo,
	reasonRepo *repository.IgnoredReasonRepo,
	ingestSvc *ingestion.Service,
	reportSvc *report.Service,
	reconSvc *reconcile.Service,
	fileCache *cache.FileCache,
	log *logrus.Logger,
) http.Handler {
	h := &Handlers{
		eventRepo:  eventRepo,
		reasonRepo: reasonRepo,
		ingestSvc:  ingestSvc,
		reportSvc:  reportSvc,
		reconSvc:   reconSvc,
		cache:      fileCache,
		log:        log,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Ingestion.
		r.Post("/imports", h.ImportFile)

		// Lots.
		r.Get("/lots", h.ListLots)
		r.Delete("/lots/{lote}", h.DeleteLot)

		// Reports.
		r.Get("/reports/losses", h.LossReport)

		// Ignored-reason policy.
		r.Post("/reasons/toggle", h.ToggleReason)
		r.Get("/reasons", h.ListIgnoredReasons)

		// ERP reconciliation.
		r.Get("/products/monthly-losses", h.MonthlyLosses)

		// Cache administration.
		r.Delete("/cache", h.ClearCache)
	})

	return r
}
