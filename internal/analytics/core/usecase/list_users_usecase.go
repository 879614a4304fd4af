package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

const (
	userListTTL      = 5 * time.Minute
	defaultPageLimit = 20
	maxPageLimit     = 100

	// conversationFetchWidth bounds the per-user sub-collection count
	// fan-out against the document store.
	conversationFetchWidth = 8

	defaultSortField = "lastActive"
)

type ListUsersInput struct {
	Page  int
	Limit int

	SortBy    string
	SortOrder string // "asc" or "desc"; anything else means desc

	Locale      string
	Device      string
	Segment     string
	MinMessages int
	DateFrom    time.Time // on last_active, inclusive
	DateTo      time.Time // on last_active, inclusive
}

type ListUsersUseCase struct {
	store ports.UserStorePort
	cache *cache.Cache
	clock cache.Clock
}

func NewListUsersUseCase(store ports.UserStorePort, c *cache.Cache, clock cache.Clock) *ListUsersUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &ListUsersUseCase{store: store, cache: c, clock: clock}
}

// Execute returns one page of the filtered, sorted population. The
// whole page payload (rows with conversation counts and scores, total,
// global segment counts, filter values) is memoized per parameter
// tuple. Unrecognized sort fields and segments silently fall back to
// defaults.
func (uc *ListUsersUseCase) Execute(ctx context.Context, in ListUsersInput) (*domain.UserPage, cache.Result, error) {
	in = normalizeListInput(in)

	key := cache.Key("users", map[string]string{
		"page":        strconv.Itoa(in.Page),
		"limit":       strconv.Itoa(in.Limit),
		"sortBy":      in.SortBy,
		"sortOrder":   in.SortOrder,
		"locale":      in.Locale,
		"device":      in.Device,
		"segment":     in.Segment,
		"minMessages": strconv.Itoa(in.MinMessages),
		"dateFrom":    formatDateParam(in.DateFrom),
		"dateTo":      formatDateParam(in.DateTo),
	})

	return cache.GetOrCompute(uc.cache, key, userListTTL, func() (*domain.UserPage, error) {
		return uc.compute(ctx, in)
	})
}

func (uc *ListUsersUseCase) compute(ctx context.Context, in ListUsersInput) (*domain.UserPage, error) {
	users, err := uc.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.clock()

	// Segment badges always reflect the unfiltered population.
	segCounts := domain.CountSegments(users, now)

	locales := domain.NewHistogram()
	devices := domain.NewHistogram()
	for i := range users {
		locales.Add(users[i].Locale)
		devices.Add(users[i].DeviceModel)
	}
	localeValues := locales.Keys()
	deviceValues := devices.Keys()
	sort.Strings(localeValues)
	sort.Strings(deviceValues)

	filtered := make([]domain.UserRecord, 0, len(users))
	for i := range users {
		if matchesFilter(&users[i], in, now) {
			filtered = append(filtered, users[i])
		}
	}

	sortUsers(filtered, in.SortBy, in.SortOrder == "asc")

	total := len(filtered)
	start := (in.Page - 1) * in.Limit
	if start > total {
		start = total
	}
	end := min(start+in.Limit, total)
	pageUsers := filtered[start:end]

	rows := make([]domain.UserRow, len(pageUsers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conversationFetchWidth)
	for i := range pageUsers {
		i := i
		g.Go(func() error {
			count, err := uc.store.CountConversations(gctx, pageUsers[i].ID)
			if err != nil {
				return err
			}
			rows[i] = domain.UserRow{
				User:              pageUsers[i],
				ConversationCount: count,
				EngagementScore:   domain.EngagementScore(&pageUsers[i], count),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.UserPage{
		Rows:          rows,
		Total:         total,
		Page:          in.Page,
		Limit:         in.Limit,
		SegmentCounts: segCounts,
		Locales:       localeValues,
		Devices:       deviceValues,
	}, nil
}

func normalizeListInput(in ListUsersInput) ListUsersInput {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 {
		in.Limit = defaultPageLimit
	}
	if in.Limit > maxPageLimit {
		in.Limit = maxPageLimit
	}
	if !validSortField(in.SortBy) {
		in.SortBy = defaultSortField
		in.SortOrder = "desc"
	}
	if in.SortOrder != "asc" {
		in.SortOrder = "desc"
	}
	if in.Segment != "" && !domain.KnownSegment(in.Segment) {
		in.Segment = ""
	}
	if in.MinMessages < 0 {
		in.MinMessages = 0
	}
	return in
}

func formatDateParam(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// matchesFilter applies the filter chain: segment, locale, device,
// last_active date range, minimum messages.
func matchesFilter(u *domain.UserRecord, in ListUsersInput, now time.Time) bool {
	if in.Segment != "" && !domain.MatchesSegment(u, domain.Segment(in.Segment), now) {
		return false
	}
	if in.Locale != "" && u.Locale != in.Locale {
		return false
	}
	if in.Device != "" && u.DeviceModel != in.Device {
		return false
	}
	if !in.DateFrom.IsZero() && (u.LastActive.IsZero() || u.LastActive.Before(in.DateFrom)) {
		return false
	}
	if !in.DateTo.IsZero() && (u.LastActive.IsZero() || u.LastActive.After(in.DateTo)) {
		return false
	}
	if in.MinMessages > 0 && u.MessagesSent < in.MinMessages {
		return false
	}
	return true
}

func validSortField(field string) bool {
	switch field {
	case "lastActive", "firstOpen", "createdAt", "messages", "appOpens", "sessionSeconds", "personalization":
		return true
	}
	return false
}

// sortUsers sorts the filtered set in place. Missing timestamps sort to
// the tail regardless of direction.
func sortUsers(users []domain.UserRecord, field string, asc bool) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := &users[i], &users[j]
		switch field {
		case "lastActive":
			return lessTime(a.LastActive, b.LastActive, asc)
		case "firstOpen":
			return lessTime(a.FirstOpen, b.FirstOpen, asc)
		case "createdAt":
			return lessTime(a.CreatedAt, b.CreatedAt, asc)
		case "messages":
			return lessInt(a.MessagesSent, b.MessagesSent, asc)
		case "appOpens":
			return lessInt(a.AppOpens, b.AppOpens, asc)
		case "sessionSeconds":
			return lessInt(a.SessionSeconds, b.SessionSeconds, asc)
		case "personalization":
			return lessInt(a.PersonalizationScore, b.PersonalizationScore, asc)
		default:
			return lessTime(a.LastActive, b.LastActive, asc)
		}
	})
}

func lessTime(a, b time.Time, asc bool) bool {
	if a.IsZero() || b.IsZero() {
		// A missing value never ranks before a present one.
		return b.IsZero() && !a.IsZero()
	}
	if a.Equal(b) {
		return false
	}
	if asc {
		return a.Before(b)
	}
	return a.After(b)
}

func lessInt(a, b int, asc bool) bool {
	if asc {
		return a < b
	}
	return a > b
}
