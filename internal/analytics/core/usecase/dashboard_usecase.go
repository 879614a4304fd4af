package usecase

import (
	"context"
	"math"
	"strconv"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

const (
	defaultTimelineDays = 90
	maxTimelineDays     = 365
	dashboardTTL        = 5 * time.Minute
	peakHourCount       = 3
	histogramTopN       = 10
)

type DashboardInput struct {
	// TimelineDays is the trailing window of the daily timeline.
	// Out-of-range values fall back to the default rather than failing.
	TimelineDays int
}

type DashboardUseCase struct {
	store ports.UserStorePort
	cache *cache.Cache
	clock cache.Clock
}

func NewDashboardUseCase(store ports.UserStorePort, c *cache.Cache, clock cache.Clock) *DashboardUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &DashboardUseCase{store: store, cache: c, clock: clock}
}

// Execute returns the dashboard snapshot, memoized per timeline window
// for the dashboard TTL.
func (uc *DashboardUseCase) Execute(ctx context.Context, in DashboardInput) (*domain.Dashboard, cache.Result, error) {
	days := in.TimelineDays
	if days < 1 {
		days = defaultTimelineDays
	}
	if days > maxTimelineDays {
		days = maxTimelineDays
	}

	key := cache.Key("dashboard", map[string]string{"days": strconv.Itoa(days)})
	return cache.GetOrCompute(uc.cache, key, dashboardTTL, func() (*domain.Dashboard, error) {
		users, err := uc.store.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		return aggregateDashboard(users, uc.clock(), days), nil
	})
}

// aggregateDashboard is one linear pass over the population. All window
// boundaries derive from the single captured now so the snapshot is
// internally consistent.
func aggregateDashboard(users []domain.UserRecord, now time.Time, timelineDays int) *domain.Dashboard {
	dayStart := domain.StartOfDay(now)
	weekStart := dayStart.AddDate(0, 0, -7)
	monthStart := dayStart.AddDate(0, 0, -30)
	prevWeekStart := dayStart.AddDate(0, 0, -14)
	prevMonthStart := dayStart.AddDate(0, 0, -60)

	timeline := make([]domain.TimelinePoint, timelineDays)
	timelineIdx := make(map[string]int, timelineDays)
	for i := range timeline {
		day := dayStart.AddDate(0, 0, -(timelineDays - 1 - i))
		key := day.Format("2006-01-02")
		timeline[i] = domain.TimelinePoint{Date: key}
		timelineIdx[key] = i
	}

	var (
		ov             domain.Overview
		totals         domain.UsageTotals
		activeLastWeek, activeLastMonth int
		newLastWeek, newLastMonth       int
		notif          domain.NotificationStats
		engagedGranted int
		hourCounts     = make([]int, 24)
	)
	locales := domain.NewHistogram()
	devices := domain.NewHistogram()

	ov.TotalUsers = len(users)

	for i := range users {
		u := &users[i]

		if la := u.LastActive; !la.IsZero() {
			if !la.Before(dayStart) {
				ov.ActiveToday++
			}
			if !la.Before(weekStart) {
				ov.ActiveThisWeek++
			} else if !la.Before(prevWeekStart) {
				activeLastWeek++
			}
			if !la.Before(monthStart) {
				ov.ActiveThisMonth++
			} else if !la.Before(prevMonthStart) {
				activeLastMonth++
			}
			if idx, ok := timelineIdx[la.In(now.Location()).Format("2006-01-02")]; ok {
				timeline[idx].Active++
			}
		}

		if signup := u.SignupTime(); !signup.IsZero() {
			if !signup.Before(dayStart) {
				ov.NewToday++
			}
			if !signup.Before(weekStart) {
				ov.NewThisWeek++
			} else if !signup.Before(prevWeekStart) {
				newLastWeek++
			}
			if !signup.Before(monthStart) {
				ov.NewThisMonth++
			} else if !signup.Before(prevMonthStart) {
				newLastMonth++
			}
			if idx, ok := timelineIdx[signup.In(now.Location()).Format("2006-01-02")]; ok {
				timeline[idx].Signups++
			}
		}

		totals.AppOpens += u.AppOpens
		totals.MessagesSent += u.MessagesSent
		totals.ImagesGenerated += u.ImagesGenerated
		totals.VideosGenerated += u.VideosGenerated
		totals.VoiceSessions += u.VoiceSessions
		totals.WebSearches += u.WebSearches
		totals.SessionSeconds += u.SessionSeconds

		locales.Add(u.Locale)
		devices.Add(u.DeviceModel)

		switch u.NotificationStatus {
		case domain.NotificationGranted:
			notif.Granted++
			if !u.LastActive.IsZero() && !u.LastActive.Before(weekStart) {
				engagedGranted++
			}
		case domain.NotificationDenied:
			notif.Denied++
		default:
			notif.NotAsked++
		}
		if u.HasPushToken {
			notif.Reachable++
		} else {
			notif.Unreachable++
		}

		for _, h := range u.ActivityHours {
			if h >= 0 && h < 24 {
				hourCounts[h]++
			}
		}
	}

	notif.EngagedAfterGrantPct = domain.RoundPct(engagedGranted, notif.Granted)
	notif.PeakHours = domain.TopHours(hourCounts, peakHourCount)

	var avgs domain.UsageAverages
	if ov.TotalUsers > 0 {
		n := float64(ov.TotalUsers)
		avgs.MessagesPerUser = domain.Round1(float64(totals.MessagesSent) / n)
		avgs.AppOpensPerUser = domain.Round1(float64(totals.AppOpens) / n)
		avgs.SessionMinutesPerUser = domain.Round1(float64(totals.SessionSeconds) / 60 / n)
	}

	return &domain.Dashboard{
		Overview:      ov,
		Totals:        totals,
		Averages:      avgs,
		ActiveWoW:     domain.PctChange(ov.ActiveThisWeek, activeLastWeek),
		ActiveMoM:     domain.PctChange(ov.ActiveThisMonth, activeLastMonth),
		SignupsWoW:    domain.PctChange(ov.NewThisWeek, newLastWeek),
		SignupsMoM:    domain.PctChange(ov.NewThisMonth, newLastMonth),
		TopLocales:    locales.Top(histogramTopN, ov.TotalUsers),
		TopDevices:    devices.Top(histogramTopN, ov.TotalUsers),
		Timeline:      timeline,
		Notifications: notif,
		Retention: domain.RetentionProxy{
			D1: wholePct(ov.ActiveToday, ov.ActiveThisWeek),
			D7: wholePct(ov.ActiveThisWeek, ov.ActiveThisMonth),
		},
	}
}

// wholePct is the nested-window retention proxy: a whole-percent ratio,
// zero when the denominator is empty.
func wholePct(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}
