package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/solacehealth/practice/internal/platform/auth"
	"github.com/solacehealth/practice/internal/platform/db"
	"github.com/solacehealth/practice/pkg/pagination"
)

// typeSlugs maps URL path segments to report types.
var typeSlugs = map[string]string{
	"intake":         TypeIntake,
	"treatment-plan": TypeTreatmentPlan,
	"progress":       TypeProgress,
	"discharge":      TypeDischarge,
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/report-data", auth.RequireRole("admin", "counselor"))
	g.GET("/pdf/:report_id", h.RenderPDF)
	g.GET("/:type", h.Get)
	g.POST("/:type", h.Save)
	g.PUT("/treatment-plan-report", h.ReplaceTreatmentPlan)
	g.POST("/lock/:report_id", h.Lock)
	g.POST("/unlock/:report_id", h.Unlock)

	api.GET("/reports", h.List, auth.RequireRole("admin", "counselor"))
}

type errorResponse struct {
	Message string `json:"message"`
	Error   int    `json:"error"`
}

// respondError maps the report error taxonomy onto HTTP statuses with the
// {message, error: -1} body shape.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrLocked):
		status = http.StatusBadRequest
	}
	return c.JSON(status, errorResponse{Message: err.Error(), Error: -1})
}

func reportTypeParam(c echo.Context) (string, bool) {
	t, ok := typeSlugs[c.Param("type")]
	return t, ok
}

// Get returns the merged (or frozen) report document for a therapy request.
func (h *Handler) Get(c echo.Context) error {
	reportType, ok := reportTypeParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "unknown report type", Error: -1})
	}
	reqID, err := uuid.Parse(c.QueryParam("thrpy_req_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "thrpy_req_id is required", Error: -1})
	}
	var asOf *int64
	if raw := c.QueryParam("session_id"); raw != "" {
		var v int64
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "session_id must be a number", Error: -1})
		}
		asOf = &v
	}

	doc, err := h.svc.Get(c.Request().Context(), reqID, reportType, asOf)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSONBlob(http.StatusOK, doc)
}

type saveRequest struct {
	ReportID  *uuid.UUID      `json:"report_id"`
	SessionID *int64          `json:"session_id"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Save upserts authored metadata, keyed either by session (auto-creating
// the record on first save) or by an existing report id.
func (h *Handler) Save(c echo.Context) error {
	reportType, ok := reportTypeParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "unknown report type", Error: -1})
	}
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body", Error: -1})
	}
	if req.ReportID == nil && req.SessionID == nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "report_id or session_id is required", Error: -1})
	}
	if len(req.Metadata) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "metadata is required", Error: -1})
	}

	ctx := c.Request().Context()
	tenantID := db.TenantFromContext(ctx)

	var (
		rec *Record
		err error
	)
	if req.ReportID != nil {
		rec, err = h.svc.SaveByID(ctx, reportType, *req.ReportID, req.Metadata, tenantID)
	} else {
		rec, err = h.svc.Save(ctx, reportType, *req.SessionID, req.Metadata, tenantID)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

type replaceRequest struct {
	ReportID uuid.UUID       `json:"report_id"`
	Metadata json.RawMessage `json:"metadata"`
}

// ReplaceTreatmentPlan wholesale-replaces a treatment plan's metadata.
func (h *Handler) ReplaceTreatmentPlan(c echo.Context) error {
	var req replaceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body", Error: -1})
	}
	if req.ReportID == uuid.Nil || len(req.Metadata) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "report_id and metadata are required", Error: -1})
	}

	ctx := c.Request().Context()
	if err := h.svc.ReplaceTreatmentPlan(ctx, req.ReportID, req.Metadata, db.TenantFromContext(ctx)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "updated"})
}

// RenderPDF streams the rendered report.
func (h *Handler) RenderPDF(c echo.Context) error {
	reportID, err := uuid.Parse(c.Param("report_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid report_id", Error: -1})
	}
	pdf, reportType, err := h.svc.RenderPDF(c.Request().Context(), reportID)
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+reportType+`-`+reportID.String()+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) Lock(c echo.Context) error   { return h.setLocked(c, true) }
func (h *Handler) Unlock(c echo.Context) error { return h.setLocked(c, false) }

func (h *Handler) setLocked(c echo.Context, locked bool) error {
	reportID, err := uuid.Parse(c.Param("report_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid report_id", Error: -1})
	}
	rec, err := h.svc.SetLocked(c.Request().Context(), reportID, locked)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// List pages through report records.
func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	filter := ListFilter{Limit: params.Limit, Offset: params.Offset}
	if t := c.QueryParam("report_type"); t != "" {
		if !ValidType(t) {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "unknown report type", Error: -1})
		}
		filter.ReportType = t
	}
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid client_id", Error: -1})
		}
		filter.ClientID = &id
	}

	records, total, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, params.Limit, params.Offset))
}
