package domain

// Dashboard is the full overview aggregation: one linear pass over the
// user population, internally consistent for a single captured "now".
type Dashboard struct {
	Overview      Overview
	Totals        UsageTotals
	Averages      UsageAverages
	ActiveWoW     Delta
	ActiveMoM     Delta
	SignupsWoW    Delta
	SignupsMoM    Delta
	TopLocales    []HistogramEntry
	TopDevices    []HistogramEntry
	Timeline      []TimelinePoint
	Notifications NotificationStats
	Retention     RetentionProxy
}

type Overview struct {
	TotalUsers      int
	ActiveToday     int
	ActiveThisWeek  int
	ActiveThisMonth int
	NewToday        int
	NewThisWeek     int
	NewThisMonth    int
}

type UsageTotals struct {
	AppOpens        int
	MessagesSent    int
	ImagesGenerated int
	VideosGenerated int
	VoiceSessions   int
	WebSearches     int
	SessionSeconds  int
}

type UsageAverages struct {
	MessagesPerUser       float64
	AppOpensPerUser       float64
	SessionMinutesPerUser float64
}

// TimelinePoint is one calendar day of the trailing timeline. Days with
// no activity are present with zero counts.
type TimelinePoint struct {
	Date    string // YYYY-MM-DD in the evaluation location
	Signups int
	Active  int
}

type NotificationStats struct {
	Granted  int
	Denied   int
	NotAsked int

	// Push-token presence splits the population into reachable and not.
	Reachable   int
	Unreachable int

	// EngagedAfterGrantPct is the share of notification-granted users
	// that were active in the current week window.
	EngagedAfterGrantPct float64

	// PeakHours ranks the local hours users are seen active in, for
	// notification timing.
	PeakHours []HourCount
}

type HourCount struct {
	Hour  int
	Count int
}

// RetentionProxy holds the cheap nested-window retention ratios, as
// whole percents.
type RetentionProxy struct {
	D1 int // activeToday / activeThisWeek
	D7 int // activeThisWeek / activeThisMonth
}
