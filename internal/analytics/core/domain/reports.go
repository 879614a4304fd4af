package domain

import "time"

// ---- Retention cohorts ----

// RetentionCell is one cohort/offset measurement. Measurable is false
// while the offset has not elapsed for the cohort yet; such cells render
// as -1 / N/A, never as zero.
type RetentionCell struct {
	Count      int
	Pct        float64
	Measurable bool
}

type CohortRow struct {
	Week  string // ISO week key, e.g. "2026-W33"
	Start time.Time
	Size  int
	D1    RetentionCell
	D7    RetentionCell
	D30   RetentionCell
}

// Trend classifications for the recent-vs-preceding D7 comparison.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

type RetentionReport struct {
	Cohorts []CohortRow // oldest first
	AvgD1   float64     // averages over measurable cohorts only
	AvgD7   float64
	AvgD30  float64
	Trend   string
}

// ---- Conversion funnel ----

// Funnel step names, in their fixed, significant order.
const (
	StepAppOpen      = "app_open"
	StepFirstMessage = "first_message"
	StepFirstImage   = "first_image"
	StepFirstVoice   = "first_voice"
)

type FunnelStep struct {
	Name       string
	Count      int
	PctOfTotal float64
	// Conversion is relative to the immediately preceding step; the
	// first step is pinned to 100.
	Conversion float64
	Dropoff    float64
}

type FeatureAdoption struct {
	MessagingPct    float64
	ImagesPct       float64
	VoicePct        float64
	VideosPct       float64
	MultiFeaturePct float64 // used >=2 of messaging/images/voice
}

type Funnel struct {
	TotalUsers      int
	Steps           []FunnelStep
	BiggestDropStep string
	Adoption        FeatureAdoption
}

// ---- Alerts ----

type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// Alert kinds raised by the anomaly detector.
const (
	AlertErrorSpike     = "voice_error_spike"
	AlertActiveDrop     = "active_user_drop"
	AlertNewUserDrop    = "new_user_drop"
	AlertEngagementDrop = "engagement_drop"
)

// Alert is derived, never persisted; the full set is regenerated on each
// evaluation.
type Alert struct {
	Kind          string
	Severity      AlertSeverity
	Title         string
	Description   string
	Current       float64
	Baseline      float64
	PctChange     float64
	AffectedUsers int // 0 when not applicable
	GeneratedAt   time.Time
}

// AlertMetrics carries the raw comparisons behind the alerts so callers
// can show supporting numbers without recomputing.
type AlertMetrics struct {
	ActiveToday         int
	ActiveYesterday     int
	NewThisWeek         int
	NewLastWeek         int
	VoiceFailures24h    int
	VoiceFailureBase    float64 // trailing daily baseline
	AvgEngagementWeek   float64
	AvgEngagementPrev   float64
}

type AlertReport struct {
	Alerts         []Alert
	SeverityCounts map[AlertSeverity]int
	Metrics        AlertMetrics
}

// ---- Conversation insights ----

type ConversationInsights struct {
	Conversations          int
	UsersWithConversations int
	TotalMessages          int
	UserMessages           int
	AssistantMessages      int
	AvgMessagesPerConv     float64
	AvgSuccessScore        float64
	LengthBuckets          []HistogramEntry // "1-2", "3-5", "6-10", "11+"
	PeakHours              []HourCount
}
