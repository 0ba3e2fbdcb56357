package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/files"
)

var reportKinds = map[files.Kind]bool{
	files.KindNormalized:     true,
	files.KindClassification: true,
	files.KindTierSummary:    true,
	files.KindTrimmed:        true,
	files.KindWorkbook:       true,
}

// FilesHandler lists and serves the report files on disk
type FilesHandler struct {
	discovery    *files.Discovery
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewFilesHandler creates a report file handler
func NewFilesHandler(discovery *files.Discovery, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *FilesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &FilesHandler{
		discovery:    discovery,
		logger:       logger.With(slog.String("handler", "files")),
		errorHandler: errorHandler,
	}
}

// Routes returns the file routes, mounted under /api/v1/files
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListFiles)
	r.Get("/{name}", h.Download)
	return r
}

// ListFiles handles GET /api/v1/files?kind=&period=
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	kind := files.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !reportKinds[kind] {
		h.errorHandler.HandleError(w, r, apierrors.InvalidQueryParam("kind", string(kind)))
		return
	}

	list, err := h.discovery.ListReports()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("list report files", err))
		return
	}
	if kind != "" {
		list = files.FilterByKind(list, kind)
	}
	if period := r.URL.Query().Get("period"); period != "" {
		list = files.FilterByPeriod(list, period)
	}
	if list == nil {
		list = []files.FileInfo{}
	}

	render.JSON(w, r, map[string]interface{}{
		"data":  list,
		"count": len(list),
	})
}

// Download handles GET /api/v1/files/{name}. Only catalogued report files
// are served.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, ok, err := h.discovery.Find(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("list report files", err))
		return
	}
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NewNotFoundError("report file "+name))
		return
	}

	h.logger.DebugContext(r.Context(), "serving report file",
		slog.String("name", f.Name),
		slog.Int64("size", f.Size))
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	http.ServeFile(w, r, f.Path)
}
