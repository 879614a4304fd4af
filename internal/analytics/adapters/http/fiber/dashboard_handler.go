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

type DashboardUseCase interface {
	Execute(ctx context.Context, in usecase.DashboardInput) (*domain.Dashboard, cache.Result, error)
}

type DashboardHandler struct {
	uc DashboardUseCase
}

func NewDashboardHandler(uc DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetDashboard godoc
// @Summary Dashboard snapshot
// @Description Returns overview counters, histograms, daily timeline, notification funnel and retention proxies
// @Tags Analytics
// @Produce json
// @Param key query string true "Dashboard secret"
// @Param timelineDays query int false "Trailing timeline window (default 90)"
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	// Unparseable values fall back to the default window.
	days, _ := strconv.Atoi(c.Query("timelineDays", ""))

	d, res, err := h.uc.Execute(c.UserContext(), usecase.DashboardInput{TimelineDays: days})
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
	return c.Status(http.StatusOK).JSON(toDashboardResponse(d, res))
}
