package fiber

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/usecase"
	"user-analytics-service/internal/cache"
)

type ListUsersUseCase interface {
	Execute(ctx context.Context, in usecase.ListUsersInput) (*domain.UserPage, cache.Result, error)
}

type UserDetailUseCase interface {
	Execute(ctx context.Context, in usecase.UserDetailInput) (*domain.UserDetail, error)
}

type UsersHandler struct {
	listUC   ListUsersUseCase
	detailUC UserDetailUseCase
}

func NewUsersHandler(listUC ListUsersUseCase, detailUC UserDetailUseCase) *UsersHandler {
	return &UsersHandler{listUC: listUC, detailUC: detailUC}
}

// ListUsers godoc
// @Summary Filterable, sortable user list
// @Description Returns one page of users with engagement scores, plus global segment counts
// @Tags Users
// @Produce json
// @Param key query string true "Dashboard secret"
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param sortBy query string false "Sort field (default lastActive)"
// @Param sortOrder query string false "asc or desc (default desc)"
// @Param locale query string false "Locale filter"
// @Param device query string false "Device model filter"
// @Param segment query string false "Segment filter"
// @Param minMessages query int false "Minimum lifetime messages"
// @Param dateFrom query string false "last_active lower bound (RFC3339 or YYYY-MM-DD)"
// @Param dateTo query string false "last_active upper bound (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} UserListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users [get]
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	// Invalid optional parameters are ignored, not rejected; the
	// usecase substitutes safe defaults.
	page, _ := strconv.Atoi(c.Query("page", ""))
	limit, _ := strconv.Atoi(c.Query("limit", ""))
	minMessages, _ := strconv.Atoi(c.Query("minMessages", ""))

	in := usecase.ListUsersInput{
		Page:        page,
		Limit:       limit,
		SortBy:      c.Query("sortBy", ""),
		SortOrder:   c.Query("sortOrder", ""),
		Locale:      c.Query("locale", ""),
		Device:      c.Query("device", ""),
		Segment:     c.Query("segment", ""),
		MinMessages: minMessages,
		DateFrom:    parseDateParam(c.Query("dateFrom", ""), false),
		DateTo:      parseDateParam(c.Query("dateTo", ""), true),
	}

	pageResult, res, err := h.listUC.Execute(c.UserContext(), in)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
	return c.Status(http.StatusOK).JSON(toUserListResponse(pageResult, res))
}

// GetUser godoc
// @Summary User drill-down
// @Description Returns a full profile with recent conversations, voice sessions/failures, a 30-day activity timeline and streaks
// @Tags Users
// @Produce json
// @Param key query string true "Dashboard secret"
// @Param id path string true "User identifier"
// @Success 200 {object} UserDetailResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id} [get]
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	detail, err := h.detailUC.Execute(c.UserContext(), usecase.UserDetailInput{
		UserID: c.Params("id"),
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Error:   "user_not_found",
				Message: err.Error(),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
	return c.Status(http.StatusOK).JSON(toUserDetailResponse(detail))
}

// parseDateParam accepts RFC3339 or date-only values. Date-only upper
// bounds extend to the end of the day so the range stays inclusive.
// Invalid values yield the zero time, meaning "no bound".
func parseDateParam(s string, endOfDay bool) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	if endOfDay {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
