package assessment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/solacehealth/practice/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "counselor"))
	g.GET("/therapy-requests/:id/sessions/:session_id/forms", h.SessionSchedule)
	g.GET("/therapy-requests/:id/form-instances", h.RequestInstances)
}

func (h *Handler) SessionSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sessionID, err := strconv.ParseInt(c.Param("session_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session_id")
	}

	schedule, err := h.svc.SessionSchedule(c.Request().Context(), id, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "therapy request not found")
		case errors.Is(err, ErrSessionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, schedule)
}

func (h *Handler) RequestInstances(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	instances, err := h.svc.RequestInstances(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "therapy request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, instances)
}
