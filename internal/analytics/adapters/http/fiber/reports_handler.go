package fiber

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/usecase"
	"user-analytics-service/internal/cache"
)

type RetentionUseCase interface {
	Execute(ctx context.Context, in usecase.RetentionInput) (*domain.RetentionReport, cache.Result, error)
}

type FunnelUseCase interface {
	Execute(ctx context.Context) (*domain.Funnel, cache.Result, error)
}

type AlertsUseCase interface {
	Execute(ctx context.Context) (*domain.AlertReport, cache.Result, error)
}

type InsightsUseCase interface {
	Execute(ctx context.Context) (*domain.ConversationInsights, cache.Result, error)
}

// ReportsHandler serves the periodic report endpoints: retention
// cohorts, the conversion funnel, alerts and conversation insights.
type ReportsHandler struct {
	retentionUC RetentionUseCase
	funnelUC    FunnelUseCase
	alertsUC    AlertsUseCase
	insightsUC  InsightsUseCase
}

func NewReportsHandler(retentionUC RetentionUseCase, funnelUC FunnelUseCase, alertsUC AlertsUseCase, insightsUC InsightsUseCase) *ReportsHandler {
	return &ReportsHandler{
		retentionUC: retentionUC,
		funnelUC:    funnelUC,
		alertsUC:    alertsUC,
		insightsUC:  insightsUC,
	}
}

// GetRetention godoc
// @Summary Weekly retention cohorts
// @Description Returns per-cohort D1/D7/D30 rates (-1 when not yet measurable), averages and a trend tag
// @Tags Reports
// @Produce json
// @Param key query string true "Dashboard secret"
// @Param weeks query int false "Lookback cohort count (default 8)"
// @Success 200 {object} RetentionResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/retention [get]
func (h *ReportsHandler) GetRetention(c *fiber.Ctx) error {
	weeks, _ := strconv.Atoi(c.Query("weeks", ""))

	report, res, err := h.retentionUC.Execute(c.UserContext(), usecase.RetentionInput{Weeks: weeks})
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
	return c.Status(http.StatusOK).JSON(toRetentionResponse(report, res))
}

// GetFunnel godoc
// @Summary Feature-adoption funnel
// @Description Returns ordered funnel steps with drop-off, the biggest drop-off flag and feature adoption rates
// @Tags Reports
// @Produce json
// @Param key query string true "Dashboard secret"
// @Success 200 {object} FunnelResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/funnel [get]
func (h *ReportsHandler) GetFunnel(c *fiber.Ctx) error {
	funnel, res, err := h.funnelUC.Execute(c.UserContext())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
	return c.Status(http.StatusOK).JSON(toFunnelResponse(funnel, res))
}

// GetAlerts godoc
// @Summary Anomaly alerts
// @Description Returns severity-tagged alerts from current-vs-baseline comparisons, with supporting metrics
// @Tags Reports
// @Produce json
// @Param key query string true "Dashboard secret"
// @Success 200 {object} AlertsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/alerts [get]
func (h *ReportsHandler) GetAlerts(c *fiber.Ctx) error {
	report, res, err := h.alertsUC.Execute(c.UserContext())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
	return c.Status(http.StatusOK).JSON(toAlertsResponse(report, res))
}

// GetInsights godoc
// @Summary Conversation insights
// @Description Returns population-wide conversation aggregates (hourly cache)
// @Tags Reports
// @Produce json
// @Param key query string true "Dashboard secret"
// @Success 200 {object} InsightsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/insights [get]
func (h *ReportsHandler) GetInsights(c *fiber.Ctx) error {
	insights, res, err := h.insightsUC.Execute(c.UserContext())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
	return c.Status(http.StatusOK).JSON(toInsightsResponse(insights, res))
}
