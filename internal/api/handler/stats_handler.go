package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

// StatsHandler handles HTTP requests for aggregated rule statistics.
type StatsHandler struct {
	service ports.StatsService
}

func NewStatsHandler(service ports.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

type respectedRateResponse struct {
	RespectedRate float64 `json:"respected_rate"`
}

// Dashboard handles GET /stats/dashboard, serving the cached aggregate view.
//
// @Summary      Get the dashboard statistics
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.DashboardStats
// @Failure      404  {object}  map[string]string
// @Router       /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Dashboard(c.Request().Context(), userID)
	if err != nil {
		return statsError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// RespectedRate handles GET /rules/stats/respected.
//
// @Summary      Get the overall respected rate
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  respectedRateResponse
// @Failure      404  {object}  map[string]string
// @Router       /rules/stats/respected [get]
func (h *StatsHandler) RespectedRate(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	rate, err := h.service.RespectedRate(c.Request().Context(), userID)
	if err != nil {
		return statsError(c, err)
	}
	return c.JSON(http.StatusOK, respectedRateResponse{RespectedRate: rate})
}

// MostBroken handles GET /rules/stats/most-broken.
//
// @Summary      Get the most broken rule
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Rule
// @Failure      404  {object}  map[string]string
// @Router       /rules/stats/most-broken [get]
func (h *StatsHandler) MostBroken(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	rule, err := h.service.MostBroken(c.Request().Context(), userID)
	if err != nil {
		return statsError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

// MostRespected handles GET /rules/stats/most-respected.
//
// @Summary      Get the most respected rule
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Rule
// @Failure      404  {object}  map[string]string
// @Router       /rules/stats/most-respected [get]
func (h *StatsHandler) MostRespected(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	rule, err := h.service.MostRespected(c.Request().Context(), userID)
	if err != nil {
		return statsError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

func statsError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNoEvents):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrRuleNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no rules with recorded events"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
