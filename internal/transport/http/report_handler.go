package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salespulse/internal/errors"
	appmiddleware "salespulse/internal/middleware"
	"salespulse/internal/services"
)

// Default and maximum page size of /normalized
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// PageQuery are the paging parameters of /normalized
type PageQuery struct {
	Limit  int `query:"limit" validate:"min=1,max=1000"`
	Offset int `query:"offset" validate:"min=0"`
}

// MoversQuery selects the size of the mover lists
type MoversQuery struct {
	N int `query:"n" validate:"min=0,max=100"`
}

// ReportHandler serves the latest pipeline run over REST
type ReportHandler struct {
	service      ReportServiceInterface
	validation   *appmiddleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &ReportHandler{
		service:      service,
		validation:   appmiddleware.NewValidationMiddleware(logger),
		logger:       logger.With(slog.String("handler", "report")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes, mounted under /api/v1
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/run", h.GetRun)
	r.Post("/run", h.StartRun)
	r.Get("/normalized", h.GetNormalized)

	r.Get("/classification", h.GetClassification)
	r.Get("/classification/summary", h.GetTierSummary)

	r.Get("/overview", h.GetOverview)
	r.Get("/trend/weekly", h.GetWeeklyTrend)
	r.Get("/movers", h.GetMovers)
	r.Get("/cogs", h.GetCOGS)
	r.Get("/forecast", h.GetForecast)
	return r
}

// GetRun handles GET /api/v1/run
func (h *ReportHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.LatestRun()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// StartRun handles POST /api/v1/run. The run executes synchronously and is
// not cancelled when the client goes away; the service bounds it with the
// run timeout.
func (h *ReportHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "run requested",
		slog.String("request_id", appmiddleware.GetReqID(r.Context())))

	run, err := h.service.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, run)
}

// GetNormalized handles GET /api/v1/normalized?limit=&offset=
func (h *ReportHandler) GetNormalized(w http.ResponseWriter, r *http.Request) {
	q := PageQuery{Limit: DefaultPageLimit}
	if err := h.validation.BindQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.service.Normalized(q.Limit, q.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// GetClassification handles GET /api/v1/classification
func (h *ReportHandler) GetClassification(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Classification()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, c)
}

// GetTierSummary handles GET /api/v1/classification/summary
func (h *ReportHandler) GetTierSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.TierSummary()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  summary,
		"count": len(summary),
	})
}

// GetOverview handles GET /api/v1/overview
func (h *ReportHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.Reports()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, reports.Overview)
}

// GetWeeklyTrend handles GET /api/v1/trend/weekly
func (h *ReportHandler) GetWeeklyTrend(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.Reports()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  reports.WeeklySales,
		"count": len(reports.WeeklySales),
	})
}

// GetMovers handles GET /api/v1/movers?n=
func (h *ReportHandler) GetMovers(w http.ResponseWriter, r *http.Request) {
	var q MoversQuery
	if err := h.validation.BindQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	movers, err := h.service.Movers(q.N)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, movers)
}

// GetCOGS handles GET /api/v1/cogs
func (h *ReportHandler) GetCOGS(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.Reports()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"cogs_ratio": reports.Overview.COGSRatio,
		"data":       reports.COGS,
	})
}

// GetForecast handles GET /api/v1/forecast
func (h *ReportHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.Reports()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  reports.Forecast,
		"count": len(reports.Forecast),
	})
}

// fail maps service errors to API errors and renders a problem response
func (h *ReportHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoRunAvailable):
		err = apierrors.ErrNoRunAvailable
	case errors.Is(err, services.ErrRunInProgress):
		err = apierrors.ErrRunInProgress
	}
	h.errorHandler.HandleError(w, r, err)
}
