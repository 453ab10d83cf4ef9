package dashboard

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carelink/hms/internal/platform/auth"
)

// Branding supplies the hospital name printed on exports.
type Branding interface {
	HospitalName(ctx context.Context) string
}

type Handler struct {
	svc      *Service
	branding Branding
	now      func() time.Time
}

func NewHandler(svc *Service, branding Branding) *Handler {
	return &Handler{svc: svc, branding: branding, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.Stats, auth.RequireRole("admin"))

	g := api.Group("/analytics", auth.RequireRole("doctor"))
	g.GET("/revenue", h.Revenue)
	g.GET("/top-doctors", h.TopDoctors)
	g.GET("/revenue/export", h.Export)
}

func (h *Handler) Stats(c echo.Context) error {
	st, err := h.svc.AdminStats(c.Request().Context(), h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

// Revenue accepts ?specialization=.
func (h *Handler) Revenue(c echo.Context) error {
	rows, err := h.svc.DoctorRevenue(c.Request().Context(), c.QueryParam("specialization"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) TopDoctors(c echo.Context) error {
	rows, err := h.svc.TopDoctors(c.Request().Context(), c.QueryParam("specialization"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rows)
}

// Export streams the revenue table as ?format=pdf (default) or csv.
func (h *Handler) Export(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "csv" {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be pdf or csv")
	}
	ctx := c.Request().Context()
	rows, err := h.svc.DoctorRevenue(ctx, c.QueryParam("specialization"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var buf bytes.Buffer
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
		err = WriteRevenuePDF(&buf, h.branding.HospitalName(ctx), h.now(), rows)
	} else {
		err = WriteRevenueCSV(&buf, rows)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set("Content-Disposition", `attachment; filename="analytics-report.`+format+`"`)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
