package http

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"pricescope/internal/dataprocessing"
	apierrors "pricescope/internal/errors"
	"pricescope/internal/middleware"
	"pricescope/internal/services"
	api "pricescope/pkg/contracts/api/v1"
	"pricescope/pkg/contracts/domain"
)

// WarningsHeader carries the number of non-fatal warnings on downloads
const WarningsHeader = "X-Report-Warnings"

// ReportHandler serves report summaries and artifact downloads
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *middleware.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, validator *middleware.RequestValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	if validator == nil {
		validator = middleware.NewRequestValidator(middleware.DefaultMaxBodyBytes)
	}
	return &ReportHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes, mounted under /api/reports
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "application/json"))

	r.Post("/summary", h.Summary)
	r.With(h.FormatCtx).Post("/{format}", h.Download)
	return r
}

// FormatCtx rejects artifact formats the service cannot produce
func (h *ReportHandler) FormatCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "format") {
		case services.FormatCSV, services.FormatPDF, services.FormatXLSX:
			next.ServeHTTP(w, r)
		default:
			h.errorHandler.NotFound(w, r)
		}
	})
}

// SummaryResponse is the body of POST /api/reports/summary
type SummaryResponse struct {
	Identity  domain.Identity               `json:"identity"`
	Summary   dataprocessing.DisplaySummary `json:"summary"`
	Stats     dataprocessing.StatsSummary   `json:"stats"`
	Columns   []string                      `json:"columns"`
	Preview   []map[string]interface{}      `json:"preview"`
	TotalRows int                           `json:"total_rows"`
	Rows      int                           `json:"rows"`
	Facets    map[string]services.Facet     `json:"facets"`
	Warnings  []WarningResponse             `json:"warnings"`
}

// WarningResponse describes one non-fatal condition
type WarningResponse struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Summary handles POST /api/reports/summary
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.Summary(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if result.TotalRows == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoPredictionData)
		return
	}

	render.JSON(w, r, newSummaryResponse(result))
}

// Download handles POST /api/reports/{format}
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	req.Formats = []string{format}

	result, err := h.service.GenerateForUser(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if result.TotalRows == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoPredictionData)
		return
	}

	artifact, err := result.Artifact(format)
	if err != nil {
		if apierrors.TypeOf(err) == "" {
			err = apierrors.NewWithDetails(apierrors.ErrExportFailed.StatusCode, apierrors.ErrExportFailed.ErrorCode,
				apierrors.ErrExportFailed.Message, err.Error())
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(artifact.Size()))
	w.Header().Set(WarningsHeader, strconv.Itoa(len(result.Warnings)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write artifact",
			slog.String("artifact", format),
			slog.String("error", err.Error()))
	}
}

func (h *ReportHandler) decode(w http.ResponseWriter, r *http.Request) (services.ReportRequest, bool) {
	var body api.ReportRequest
	if err := h.validator.DecodeJSON(w, r, &body); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return services.ReportRequest{}, false
	}

	return services.ReportRequest{
		Identity: domain.Identity{
			UserID: body.UserID,
			Name:   body.Name,
			Email:  body.Email,
		},
		Filters:      dataprocessing.FilterSpec(body.Filters),
		Column:       body.Column,
		PreviewLimit: body.PreviewLimit,
	}, true
}

func newSummaryResponse(result *services.ReportResult) SummaryResponse {
	warnings := make([]WarningResponse, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, WarningResponse{
			Kind:    string(w.Type),
			Message: w.Message,
			Context: w.Context,
		})
	}
	preview := result.Preview
	if preview == nil {
		preview = []map[string]interface{}{}
	}

	return SummaryResponse{
		Identity:  result.Identity,
		Summary:   result.Display,
		Stats:     result.Summary,
		Columns:   result.Columns,
		Preview:   preview,
		TotalRows: result.TotalRows,
		Rows:      result.Rows,
		Facets:    result.Facets,
		Warnings:  warnings,
	}
}
