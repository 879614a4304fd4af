package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

const (
	retentionTTL         = 5 * time.Minute
	defaultCohortWeeks   = 8
	maxCohortWeeks       = 26
	trendRecentCohorts   = 2
	trendBaselineCohorts = 3
	trendThresholdPts    = 5.0
)

// retentionOffsets are the measured day offsets with their tolerance
// windows: a member counts as returned at offset d when activity
// evidence falls in [start+d, start+d+tol).
var retentionOffsets = []struct {
	days int
	tol  int
}{
	{days: 1, tol: 1},
	{days: 7, tol: 2},
	{days: 30, tol: 4},
}

type RetentionInput struct {
	Weeks int // lookback cohort count
}

type RetentionUseCase struct {
	store ports.UserStorePort
	cache *cache.Cache
	clock cache.Clock
}

func NewRetentionUseCase(store ports.UserStorePort, c *cache.Cache, clock cache.Clock) *RetentionUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &RetentionUseCase{store: store, cache: c, clock: clock}
}

func (uc *RetentionUseCase) Execute(ctx context.Context, in RetentionInput) (*domain.RetentionReport, cache.Result, error) {
	weeks := in.Weeks
	if weeks < 1 {
		weeks = defaultCohortWeeks
	}
	if weeks > maxCohortWeeks {
		weeks = maxCohortWeeks
	}

	key := cache.Key("retention", map[string]string{"weeks": strconv.Itoa(weeks)})
	return cache.GetOrCompute(uc.cache, key, retentionTTL, func() (*domain.RetentionReport, error) {
		users, err := uc.store.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		return buildRetentionReport(users, uc.clock(), weeks), nil
	})
}

type cohortAgg struct {
	week    string
	start   time.Time
	members []*domain.UserRecord
}

func buildRetentionReport(users []domain.UserRecord, now time.Time, weeks int) *domain.RetentionReport {
	earliest := isoWeekStart(now).AddDate(0, 0, -7*(weeks-1))

	cohorts := make(map[string]*cohortAgg)
	for i := range users {
		u := &users[i]
		signup := u.SignupTime()
		if signup.IsZero() {
			continue
		}
		start := isoWeekStart(signup)
		if start.Before(earliest) {
			continue
		}
		year, week := signup.ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)
		agg, ok := cohorts[key]
		if !ok {
			agg = &cohortAgg{week: key, start: start}
			cohorts[key] = agg
		}
		agg.members = append(agg.members, u)
	}

	ordered := make([]*cohortAgg, 0, len(cohorts))
	for _, agg := range cohorts {
		ordered = append(ordered, agg)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].start.Before(ordered[j].start)
	})

	report := &domain.RetentionReport{Cohorts: make([]domain.CohortRow, 0, len(ordered))}
	var sums [3]float64
	var measurable [3]int
	var d7Series []float64

	for _, agg := range ordered {
		row := domain.CohortRow{
			Week:  agg.week,
			Start: agg.start,
			Size:  len(agg.members),
		}
		cells := [3]*domain.RetentionCell{&row.D1, &row.D7, &row.D30}
		for oi, off := range retentionOffsets {
			cell := cells[oi]
			if now.Before(agg.start.AddDate(0, 0, off.days)) {
				// Too early to know is not the same as churned.
				continue
			}
			cell.Measurable = true
			for _, m := range agg.members {
				if returnedAt(m, agg.start, off.days, off.tol) {
					cell.Count++
				}
			}
			cell.Pct = domain.RoundPct(cell.Count, row.Size)
			sums[oi] += cell.Pct
			measurable[oi]++
			if oi == 1 {
				d7Series = append(d7Series, cell.Pct)
			}
		}
		report.Cohorts = append(report.Cohorts, row)
	}

	if measurable[0] > 0 {
		report.AvgD1 = domain.Round1(sums[0] / float64(measurable[0]))
	}
	if measurable[1] > 0 {
		report.AvgD7 = domain.Round1(sums[1] / float64(measurable[1]))
	}
	if measurable[2] > 0 {
		report.AvgD30 = domain.Round1(sums[2] / float64(measurable[2]))
	}
	report.Trend = classifyTrend(d7Series)

	return report
}

// returnedAt reports whether the user shows activity evidence inside
// the tolerance window around the cohort-start offset. Explicit active
// dates are preferred; last_active is the fallback signal.
func returnedAt(u *domain.UserRecord, start time.Time, days, tol int) bool {
	target := start.AddDate(0, 0, days)
	windowEnd := target.AddDate(0, 0, tol)

	evidence := u.ActiveDates
	if len(evidence) == 0 && !u.LastActive.IsZero() {
		evidence = []time.Time{u.LastActive}
	}
	for _, d := range evidence {
		if !d.Before(target) && d.Before(windowEnd) {
			return true
		}
	}
	return false
}

// classifyTrend compares the most recent measurable D7 cohorts against
// the preceding ones.
func classifyTrend(d7 []float64) string {
	if len(d7) <= trendRecentCohorts {
		return domain.TrendStable
	}
	recent := d7[len(d7)-trendRecentCohorts:]
	baseline := d7[:len(d7)-trendRecentCohorts]
	if len(baseline) > trendBaselineCohorts {
		baseline = baseline[len(baseline)-trendBaselineCohorts:]
	}

	diff := mean(recent) - mean(baseline)
	switch {
	case diff > trendThresholdPts:
		return domain.TrendImproving
	case diff < -trendThresholdPts:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// isoWeekStart returns Monday midnight of t's ISO week, in t's
// location.
func isoWeekStart(t time.Time) time.Time {
	t = domain.StartOfDay(t)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, -(wd - 1))
}
