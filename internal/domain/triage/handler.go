package triage

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// maxMessageLen bounds the analyzed text.
const maxMessageLen = 2000

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/triage")
	g.POST("/analyze", h.Analyze)
	g.GET("/follow-ups", h.FollowUps)
	g.GET("/categories", h.Categories)
	g.GET("/doctors", h.RankDoctors)
}

type analyzeRequest struct {
	Message string `json:"message"`
}

func (h *Handler) Analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if len(req.Message) > maxMessageLen {
		return echo.NewHTTPError(http.StatusBadRequest, "message is too long")
	}
	return c.JSON(http.StatusOK, h.svc.Analyze(c.Request().Context(), req.Message))
}

func (h *Handler) FollowUps(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"category":  c.QueryParam("category"),
		"questions": h.svc.FollowUps(c.QueryParam("category")),
	})
}

func (h *Handler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Categories())
}

// RankDoctors takes a comma-separated ?specialization= list.
func (h *Handler) RankDoctors(c echo.Context) error {
	var cats []string
	for _, s := range strings.Split(c.QueryParam("specialization"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			cats = append(cats, s)
		}
	}
	return c.JSON(http.StatusOK, h.svc.Rank(c.Request().Context(), cats))
}
