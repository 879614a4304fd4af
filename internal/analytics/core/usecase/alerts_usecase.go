package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

const (
	alertsTTL = 5 * time.Minute

	// Severity tiers on the magnitude of the deviation.
	criticalThresholdPct = 50.0
	warningThresholdPct  = 20.0
	infoThresholdPct     = 10.0

	// Trailing window for the voice-error daily baseline.
	errorBaselineDays = 7
)

type AlertsUseCase struct {
	store ports.UserStorePort
	cache *cache.Cache
	clock cache.Clock
}

func NewAlertsUseCase(store ports.UserStorePort, c *cache.Cache, clock cache.Clock) *AlertsUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &AlertsUseCase{store: store, cache: c, clock: clock}
}

// Execute regenerates the full alert set from current-vs-baseline
// comparisons. There is no acknowledgement state; dismissal is a
// presentation concern.
func (uc *AlertsUseCase) Execute(ctx context.Context) (*domain.AlertReport, cache.Result, error) {
	return cache.GetOrCompute(uc.cache, "alerts", alertsTTL, func() (*domain.AlertReport, error) {
		return uc.compute(ctx)
	})
}

func (uc *AlertsUseCase) compute(ctx context.Context) (*domain.AlertReport, error) {
	users, err := uc.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.clock()

	failures24h, err := uc.store.CountVoiceFailuresSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	failuresWindow, err := uc.store.CountVoiceFailuresSince(ctx, now.Add(-time.Duration(errorBaselineDays+1)*24*time.Hour))
	if err != nil {
		return nil, err
	}

	m := collectAlertMetrics(users, now)
	m.VoiceFailures24h = failures24h
	m.VoiceFailureBase = float64(failuresWindow-failures24h) / errorBaselineDays

	report := &domain.AlertReport{
		SeverityCounts: make(map[domain.AlertSeverity]int),
		Metrics:        m,
	}

	add := func(a *domain.Alert) {
		if a == nil {
			return
		}
		a.GeneratedAt = now
		report.Alerts = append(report.Alerts, *a)
		report.SeverityCounts[a.Severity]++
	}

	add(errorSpikeAlert(float64(m.VoiceFailures24h), m.VoiceFailureBase))
	add(dropAlert(domain.AlertActiveDrop, "Active users dropped",
		"Users active today versus yesterday",
		float64(m.ActiveToday), float64(m.ActiveYesterday), m.ActiveYesterday-m.ActiveToday))
	add(dropAlert(domain.AlertNewUserDrop, "New signups dropped",
		"Signups in the last 7 days versus the 7 days before",
		float64(m.NewThisWeek), float64(m.NewLastWeek), 0))
	add(dropAlert(domain.AlertEngagementDrop, "Engagement dropped",
		"Mean engagement score of this week's active users versus last week's",
		m.AvgEngagementWeek, m.AvgEngagementPrev, 0))

	return report, nil
}

func collectAlertMetrics(users []domain.UserRecord, now time.Time) domain.AlertMetrics {
	dayStart := domain.StartOfDay(now)
	yesterdayStart := dayStart.AddDate(0, 0, -1)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)

	var m domain.AlertMetrics
	var scoreWeek, scorePrev, nWeek, nPrev int

	for i := range users {
		u := &users[i]

		if la := u.LastActive; !la.IsZero() {
			switch {
			case !la.Before(dayStart):
				m.ActiveToday++
			case !la.Before(yesterdayStart):
				m.ActiveYesterday++
			}
			switch {
			case !la.Before(weekAgo):
				scoreWeek += domain.EngagementScore(u, 0)
				nWeek++
			case !la.Before(twoWeeksAgo):
				scorePrev += domain.EngagementScore(u, 0)
				nPrev++
			}
		}

		if signup := u.SignupTime(); !signup.IsZero() {
			switch {
			case !signup.Before(weekAgo):
				m.NewThisWeek++
			case !signup.Before(twoWeeksAgo):
				m.NewLastWeek++
			}
		}
	}

	if nWeek > 0 {
		m.AvgEngagementWeek = domain.Round1(float64(scoreWeek) / float64(nWeek))
	}
	if nPrev > 0 {
		m.AvgEngagementPrev = domain.Round1(float64(scorePrev) / float64(nPrev))
	}
	return m
}

// errorSpikeAlert fires on rises of the 24h voice failure count above
// the trailing daily baseline.
func errorSpikeAlert(current, baseline float64) *domain.Alert {
	var pct float64
	switch {
	case baseline > 0:
		pct = domain.Round1((current - baseline) / baseline * 100)
	case current > 0:
		pct = 100
	default:
		return nil
	}

	sev, ok := severityFor(pct)
	if !ok || pct < 0 {
		return nil
	}
	return &domain.Alert{
		Kind:     domain.AlertErrorSpike,
		Severity: sev,
		Title:    "Voice error spike",
		Description: fmt.Sprintf("%.0f voice failures in the last 24h against a daily baseline of %.1f",
			current, baseline),
		Current:   current,
		Baseline:  baseline,
		PctChange: pct,
	}
}

// dropAlert fires on falls of current below baseline.
func dropAlert(kind, title, description string, current, baseline float64, affected int) *domain.Alert {
	if baseline <= 0 {
		return nil
	}
	pct := domain.Round1((current - baseline) / baseline * 100)
	sev, ok := severityFor(pct)
	if !ok || pct > 0 {
		return nil
	}
	a := &domain.Alert{
		Kind:        kind,
		Severity:    sev,
		Title:       title,
		Description: description,
		Current:     current,
		Baseline:    baseline,
		PctChange:   pct,
	}
	if affected > 0 {
		a.AffectedUsers = affected
	}
	return a
}

// severityFor maps a deviation magnitude to a severity tier. Deviations
// at or below the info threshold raise nothing.
func severityFor(pct float64) (domain.AlertSeverity, bool) {
	mag := math.Abs(pct)
	switch {
	case mag > criticalThresholdPct:
		return domain.SeverityCritical, true
	case mag > warningThresholdPct:
		return domain.SeverityWarning, true
	case mag > infoThresholdPct:
		return domain.SeverityInfo, true
	default:
		return "", false
	}
}
