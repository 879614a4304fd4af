package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

var ErrUserNotFound = errors.New("user not found")

const (
	recentConversationLimit = 10
	recentVoiceLimit        = 10
	activityTimelineDays    = 30
	previewMaxRunes         = 100
)

type UserDetailInput struct {
	UserID string
}

type UserDetailUseCase struct {
	store ports.UserStorePort
	clock cache.Clock
}

func NewUserDetailUseCase(store ports.UserStorePort, clock cache.Clock) *UserDetailUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &UserDetailUseCase{store: store, clock: clock}
}

// Execute builds the single-user drill-down. Not cached: the payload is
// one user wide and the lookups are cheap relative to full scans.
func (uc *UserDetailUseCase) Execute(ctx context.Context, in UserDetailInput) (*domain.UserDetail, error) {
	if in.UserID == "" {
		return nil, ErrUserNotFound
	}

	u, err := uc.store.GetUser(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	count, err := uc.store.CountConversations(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	convs, err := uc.store.ListConversations(ctx, u.ID, recentConversationLimit)
	if err != nil {
		return nil, err
	}
	sessions, err := uc.store.ListVoiceSessions(ctx, u.ID, recentVoiceLimit)
	if err != nil {
		return nil, err
	}
	failures, err := uc.store.ListVoiceFailures(ctx, u.ID, recentVoiceLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		summaries = append(summaries, domain.ConversationSummary{
			ID:           c.ID,
			CreatedAt:    c.CreatedAt,
			MessageCount: len(c.Messages),
			Preview:      domain.ConversationPreview(c, previewMaxRunes),
			SuccessScore: domain.ConversationSuccessScore(c),
		})
	}

	now := uc.clock()
	activeDays := activeDaySet(u, now.Location())
	activity := buildActivityTimeline(activeDays, now)
	current, longest := streaks(activeDays, now)

	return &domain.UserDetail{
		User:              *u,
		EngagementScore:   domain.EngagementScore(u, count),
		ConversationCount: count,
		Conversations:     summaries,
		VoiceSessions:     sessions,
		VoiceFailures:     failures,
		Activity:          activity,
		CurrentStreak:     current,
		LongestStreak:     longest,
	}, nil
}

// activeDaySet collects day-granularity activity evidence: explicit
// active dates plus the last-active day as fallback.
func activeDaySet(u *domain.UserRecord, loc *time.Location) map[string]bool {
	days := make(map[string]bool, len(u.ActiveDates)+1)
	for _, d := range u.ActiveDates {
		days[d.In(loc).Format("2006-01-02")] = true
	}
	if !u.LastActive.IsZero() {
		days[u.LastActive.In(loc).Format("2006-01-02")] = true
	}
	return days
}

func buildActivityTimeline(activeDays map[string]bool, now time.Time) []domain.ActivityDay {
	dayStart := domain.StartOfDay(now)
	out := make([]domain.ActivityDay, activityTimelineDays)
	for i := range out {
		day := dayStart.AddDate(0, 0, -(activityTimelineDays - 1 - i))
		key := day.Format("2006-01-02")
		out[i] = domain.ActivityDay{Date: key, Active: activeDays[key]}
	}
	return out
}

// streaks computes the current consecutive-day streak (ending today or
// yesterday) and the longest run overall.
func streaks(activeDays map[string]bool, now time.Time) (current, longest int) {
	if len(activeDays) == 0 {
		return 0, 0
	}

	dayStart := domain.StartOfDay(now)
	cursor := dayStart
	if !activeDays[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for activeDays[cursor.Format("2006-01-02")] {
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	keys := make([]string, 0, len(activeDays))
	for k := range activeDays {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	run := 0
	var prev time.Time
	for _, k := range keys {
		day, err := time.Parse("2006-01-02", k)
		if err != nil {
			continue
		}
		if run > 0 && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
	}
	return current, longest
}
