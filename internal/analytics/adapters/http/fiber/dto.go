package fiber

import (
	"fmt"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/cache"
)

type ErrorResponse struct {
	Error   string `json:"error" example:"unauthorized"`
	Message string `json:"message,omitempty" example:"user not found"`
}

// ---- Dashboard ----

type DashboardResponse struct {
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generatedAt"`

	Overview      OverviewDTO          `json:"overview"`
	Totals        UsageTotalsDTO       `json:"totals"`
	Averages      UsageAveragesDTO     `json:"averages"`
	ActiveWoW     string               `json:"activeWoW"`
	ActiveMoM     string               `json:"activeMoM"`
	SignupsWoW    string               `json:"signupsWoW"`
	SignupsMoM    string               `json:"signupsMoM"`
	TopLocales    []HistogramEntryDTO  `json:"topLocales"`
	TopDevices    []HistogramEntryDTO  `json:"topDevices"`
	Timeline      []TimelinePointDTO   `json:"timeline"`
	Notifications NotificationStatsDTO `json:"notifications"`
	Retention     RetentionProxyDTO    `json:"retention"`
}

type OverviewDTO struct {
	TotalUsers      int `json:"totalUsers"`
	ActiveToday     int `json:"activeToday"`
	ActiveThisWeek  int `json:"activeThisWeek"`
	ActiveThisMonth int `json:"activeThisMonth"`
	NewToday        int `json:"newToday"`
	NewThisWeek     int `json:"newThisWeek"`
	NewThisMonth    int `json:"newThisMonth"`
}

type UsageTotalsDTO struct {
	AppOpens        int `json:"appOpens"`
	MessagesSent    int `json:"messagesSent"`
	ImagesGenerated int `json:"imagesGenerated"`
	VideosGenerated int `json:"videosGenerated"`
	VoiceSessions   int `json:"voiceSessions"`
	WebSearches     int `json:"webSearches"`
	SessionSeconds  int `json:"sessionSeconds"`
}

type UsageAveragesDTO struct {
	MessagesPerUser       float64 `json:"messagesPerUser"`
	AppOpensPerUser       float64 `json:"appOpensPerUser"`
	SessionMinutesPerUser float64 `json:"sessionMinutesPerUser"`
}

type HistogramEntryDTO struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

type TimelinePointDTO struct {
	Date    string `json:"date"`
	Signups int    `json:"signups"`
	Active  int    `json:"active"`
}

type NotificationStatsDTO struct {
	Granted              int            `json:"granted"`
	Denied               int            `json:"denied"`
	NotAsked             int            `json:"notAsked"`
	Reachable            int            `json:"reachable"`
	Unreachable          int            `json:"unreachable"`
	EngagedAfterGrantPct float64        `json:"engagedAfterGrantPct"`
	PeakHours            []HourCountDTO `json:"peakHours"`
}

type HourCountDTO struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type RetentionProxyDTO struct {
	D1 int `json:"d1"`
	D7 int `json:"d7"`
}

func toDashboardResponse(d *domain.Dashboard, res cache.Result) DashboardResponse {
	out := DashboardResponse{
		Cached:      res.Cached,
		GeneratedAt: res.ComputedAt,
		Overview:    OverviewDTO(d.Overview),
		Totals:      UsageTotalsDTO(d.Totals),
		Averages:    UsageAveragesDTO(d.Averages),
		ActiveWoW:   formatDelta(d.ActiveWoW),
		ActiveMoM:   formatDelta(d.ActiveMoM),
		SignupsWoW:  formatDelta(d.SignupsWoW),
		SignupsMoM:  formatDelta(d.SignupsMoM),
		TopLocales:  toHistogramDTOs(d.TopLocales),
		TopDevices:  toHistogramDTOs(d.TopDevices),
		Timeline:    make([]TimelinePointDTO, 0, len(d.Timeline)),
		Notifications: NotificationStatsDTO{
			Granted:              d.Notifications.Granted,
			Denied:               d.Notifications.Denied,
			NotAsked:             d.Notifications.NotAsked,
			Reachable:            d.Notifications.Reachable,
			Unreachable:          d.Notifications.Unreachable,
			EngagedAfterGrantPct: d.Notifications.EngagedAfterGrantPct,
			PeakHours:            toHourCountDTOs(d.Notifications.PeakHours),
		},
		Retention: RetentionProxyDTO(d.Retention),
	}
	for _, p := range d.Timeline {
		out.Timeline = append(out.Timeline, TimelinePointDTO(p))
	}
	return out
}

func formatDelta(d domain.Delta) string {
	if !d.Defined {
		return "no change"
	}
	return fmt.Sprintf("%+.1f%%", d.Pct)
}

func toHistogramDTOs(entries []domain.HistogramEntry) []HistogramEntryDTO {
	out := make([]HistogramEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistogramEntryDTO(e))
	}
	return out
}

func toHourCountDTOs(hours []domain.HourCount) []HourCountDTO {
	out := make([]HourCountDTO, 0, len(hours))
	for _, h := range hours {
		out = append(out, HourCountDTO(h))
	}
	return out
}

// ---- User list / detail ----

type UserListResponse struct {
	Cached        bool           `json:"cached"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	Users         []UserRowDTO   `json:"users"`
	Total         int            `json:"total"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
	SegmentCounts map[string]int `json:"segmentCounts"`
	Filters       FilterValues   `json:"filters"`
}

type FilterValues struct {
	Locales []string `json:"locales"`
	Devices []string `json:"devices"`
}

type UserRowDTO struct {
	ID                   string     `json:"id"`
	Locale               string     `json:"locale,omitempty"`
	DeviceModel          string     `json:"deviceModel,omitempty"`
	DeviceOS             string     `json:"deviceOS,omitempty"`
	AppVersion           string     `json:"appVersion,omitempty"`
	AppOpens             int        `json:"appOpens"`
	MessagesSent         int        `json:"messagesSent"`
	ImagesGenerated      int        `json:"imagesGenerated"`
	VideosGenerated      int        `json:"videosGenerated"`
	VoiceSessions        int        `json:"voiceSessions"`
	WebSearches          int        `json:"webSearches"`
	SessionSeconds       int        `json:"sessionSeconds"`
	FirstOpen            *time.Time `json:"firstOpen,omitempty"`
	CreatedAt            *time.Time `json:"createdAt,omitempty"`
	LastActive           *time.Time `json:"lastActive,omitempty"`
	Subscribed           bool       `json:"subscribed"`
	HasPushToken         bool       `json:"hasPushToken"`
	HasRated             bool       `json:"hasRated"`
	PersonalizationScore int        `json:"personalizationScore"`
	ConversationCount    int        `json:"conversationCount"`
	EngagementScore      int        `json:"engagementScore"`
}

func toUserRowDTO(row domain.UserRow) UserRowDTO {
	u := row.User
	return UserRowDTO{
		ID:                   u.ID,
		Locale:               u.Locale,
		DeviceModel:          u.DeviceModel,
		DeviceOS:             u.DeviceOS,
		AppVersion:           u.AppVersion,
		AppOpens:             u.AppOpens,
		MessagesSent:         u.MessagesSent,
		ImagesGenerated:      u.ImagesGenerated,
		VideosGenerated:      u.VideosGenerated,
		VoiceSessions:        u.VoiceSessions,
		WebSearches:          u.WebSearches,
		SessionSeconds:       u.SessionSeconds,
		FirstOpen:            timePtr(u.FirstOpen),
		CreatedAt:            timePtr(u.CreatedAt),
		LastActive:           timePtr(u.LastActive),
		Subscribed:           u.Subscribed,
		HasPushToken:         u.HasPushToken,
		HasRated:             u.HasRated,
		PersonalizationScore: u.PersonalizationScore,
		ConversationCount:    row.ConversationCount,
		EngagementScore:      row.EngagementScore,
	}
}

func toUserListResponse(page *domain.UserPage, res cache.Result) UserListResponse {
	out := UserListResponse{
		Cached:        res.Cached,
		GeneratedAt:   res.ComputedAt,
		Users:         make([]UserRowDTO, 0, len(page.Rows)),
		Total:         page.Total,
		Page:          page.Page,
		Limit:         page.Limit,
		SegmentCounts: make(map[string]int, len(page.SegmentCounts)),
		Filters: FilterValues{
			Locales: page.Locales,
			Devices: page.Devices,
		},
	}
	for _, row := range page.Rows {
		out.Users = append(out.Users, toUserRowDTO(row))
	}
	for seg, count := range page.SegmentCounts {
		out.SegmentCounts[string(seg)] = count
	}
	return out
}

type UserDetailResponse struct {
	User          UserRowDTO               `json:"user"`
	Conversations []ConversationSummaryDTO `json:"conversations"`
	VoiceSessions []VoiceSessionDTO        `json:"voiceSessions"`
	VoiceFailures []VoiceFailureDTO        `json:"voiceFailures"`
	Activity      []ActivityDayDTO         `json:"activity"`
	CurrentStreak int                      `json:"currentStreak"`
	LongestStreak int                      `json:"longestStreak"`
}

type ConversationSummaryDTO struct {
	ID           string     `json:"id"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	MessageCount int        `json:"messageCount"`
	Preview      string     `json:"preview,omitempty"`
	SuccessScore int        `json:"successScore"`
}

type VoiceSessionDTO struct {
	ID              string     `json:"id"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	DurationSeconds int        `json:"durationSeconds"`
}

type VoiceFailureDTO struct {
	ID         string     `json:"id"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
	ErrorKind  string     `json:"errorKind,omitempty"`
}

type ActivityDayDTO struct {
	Date   string `json:"date"`
	Active bool   `json:"active"`
}

func toUserDetailResponse(d *domain.UserDetail) UserDetailResponse {
	user := toUserRowDTO(domain.UserRow{
		User:              d.User,
		ConversationCount: d.ConversationCount,
		EngagementScore:   d.EngagementScore,
	})

	out := UserDetailResponse{
		User:          user,
		Conversations: make([]ConversationSummaryDTO, 0, len(d.Conversations)),
		VoiceSessions: make([]VoiceSessionDTO, 0, len(d.VoiceSessions)),
		VoiceFailures: make([]VoiceFailureDTO, 0, len(d.VoiceFailures)),
		Activity:      make([]ActivityDayDTO, 0, len(d.Activity)),
		CurrentStreak: d.CurrentStreak,
		LongestStreak: d.LongestStreak,
	}
	for _, c := range d.Conversations {
		out.Conversations = append(out.Conversations, ConversationSummaryDTO{
			ID:           c.ID,
			CreatedAt:    timePtr(c.CreatedAt),
			MessageCount: c.MessageCount,
			Preview:      c.Preview,
			SuccessScore: c.SuccessScore,
		})
	}
	for _, s := range d.VoiceSessions {
		out.VoiceSessions = append(out.VoiceSessions, VoiceSessionDTO{
			ID:              s.ID,
			StartedAt:       timePtr(s.StartedAt),
			DurationSeconds: s.DurationSeconds,
		})
	}
	for _, f := range d.VoiceFailures {
		out.VoiceFailures = append(out.VoiceFailures, VoiceFailureDTO{
			ID:         f.ID,
			OccurredAt: timePtr(f.OccurredAt),
			ErrorKind:  f.ErrorKind,
		})
	}
	for _, a := range d.Activity {
		out.Activity = append(out.Activity, ActivityDayDTO(a))
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ---- Retention ----

type RetentionResponse struct {
	Cached      bool            `json:"cached"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Cohorts     []CohortRowDTO  `json:"cohorts"`
	Averages    RetentionAvgDTO `json:"averages"`
	Trend       string          `json:"trend"`
}

type RetentionAvgDTO struct {
	D1  float64 `json:"d1"`
	D7  float64 `json:"d7"`
	D30 float64 `json:"d30"`
}

// CohortRowDTO renders not-yet-measurable cells as -1 so callers can
// distinguish "too early to know" from zero retention.
type CohortRowDTO struct {
	Week     string  `json:"week"`
	Start    string  `json:"start"`
	Size     int     `json:"size"`
	D1Count  int     `json:"d1Count"`
	D1Pct    float64 `json:"d1Pct"`
	D7Count  int     `json:"d7Count"`
	D7Pct    float64 `json:"d7Pct"`
	D30Count int     `json:"d30Count"`
	D30Pct   float64 `json:"d30Pct"`
}

func toRetentionResponse(r *domain.RetentionReport, res cache.Result) RetentionResponse {
	out := RetentionResponse{
		Cached:      res.Cached,
		GeneratedAt: res.ComputedAt,
		Cohorts:     make([]CohortRowDTO, 0, len(r.Cohorts)),
		Averages:    RetentionAvgDTO{D1: r.AvgD1, D7: r.AvgD7, D30: r.AvgD30},
		Trend:       r.Trend,
	}
	for _, c := range r.Cohorts {
		row := CohortRowDTO{
			Week:  c.Week,
			Start: c.Start.Format("2006-01-02"),
			Size:  c.Size,
		}
		row.D1Count, row.D1Pct = cellValues(c.D1)
		row.D7Count, row.D7Pct = cellValues(c.D7)
		row.D30Count, row.D30Pct = cellValues(c.D30)
		out.Cohorts = append(out.Cohorts, row)
	}
	return out
}

func cellValues(cell domain.RetentionCell) (int, float64) {
	if !cell.Measurable {
		return -1, -1
	}
	return cell.Count, cell.Pct
}

// ---- Funnel ----

type FunnelResponse struct {
	Cached          bool               `json:"cached"`
	GeneratedAt     time.Time          `json:"generatedAt"`
	TotalUsers      int                `json:"totalUsers"`
	Steps           []FunnelStepDTO    `json:"steps"`
	BiggestDropStep string             `json:"biggestDropStep,omitempty"`
	Adoption        FeatureAdoptionDTO `json:"adoption"`
}

type FunnelStepDTO struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	PctOfTotal float64 `json:"pctOfTotal"`
	Conversion float64 `json:"conversion"`
	Dropoff    float64 `json:"dropoff"`
}

type FeatureAdoptionDTO struct {
	MessagingPct    float64 `json:"messagingPct"`
	ImagesPct       float64 `json:"imagesPct"`
	VoicePct        float64 `json:"voicePct"`
	VideosPct       float64 `json:"videosPct"`
	MultiFeaturePct float64 `json:"multiFeaturePct"`
}

func toFunnelResponse(f *domain.Funnel, res cache.Result) FunnelResponse {
	out := FunnelResponse{
		Cached:          res.Cached,
		GeneratedAt:     res.ComputedAt,
		TotalUsers:      f.TotalUsers,
		Steps:           make([]FunnelStepDTO, 0, len(f.Steps)),
		BiggestDropStep: f.BiggestDropStep,
		Adoption:        FeatureAdoptionDTO(f.Adoption),
	}
	for _, s := range f.Steps {
		out.Steps = append(out.Steps, FunnelStepDTO(s))
	}
	return out
}

// ---- Alerts ----

type AlertsResponse struct {
	Cached         bool            `json:"cached"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	Alerts         []AlertDTO      `json:"alerts"`
	SeverityCounts map[string]int  `json:"severityCounts"`
	Metrics        AlertMetricsDTO `json:"metrics"`
}

type AlertDTO struct {
	Kind          string    `json:"kind"`
	Severity      string    `json:"severity"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Current       float64   `json:"current"`
	Baseline      float64   `json:"baseline"`
	PctChange     float64   `json:"pctChange"`
	AffectedUsers int       `json:"affectedUsers,omitempty"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

type AlertMetricsDTO struct {
	ActiveToday       int     `json:"activeToday"`
	ActiveYesterday   int     `json:"activeYesterday"`
	NewThisWeek       int     `json:"newThisWeek"`
	NewLastWeek       int     `json:"newLastWeek"`
	VoiceFailures24h  int     `json:"voiceFailures24h"`
	VoiceFailureBase  float64 `json:"voiceFailureBase"`
	AvgEngagementWeek float64 `json:"avgEngagementWeek"`
	AvgEngagementPrev float64 `json:"avgEngagementPrev"`
}

func toAlertsResponse(r *domain.AlertReport, res cache.Result) AlertsResponse {
	out := AlertsResponse{
		Cached:         res.Cached,
		GeneratedAt:    res.ComputedAt,
		Alerts:         make([]AlertDTO, 0, len(r.Alerts)),
		SeverityCounts: make(map[string]int, len(r.SeverityCounts)),
		Metrics:        AlertMetricsDTO(r.Metrics),
	}
	for _, a := range r.Alerts {
		out.Alerts = append(out.Alerts, AlertDTO{
			Kind:          a.Kind,
			Severity:      string(a.Severity),
			Title:         a.Title,
			Description:   a.Description,
			Current:       a.Current,
			Baseline:      a.Baseline,
			PctChange:     a.PctChange,
			AffectedUsers: a.AffectedUsers,
			GeneratedAt:   a.GeneratedAt,
		})
	}
	for sev, count := range r.SeverityCounts {
		out.SeverityCounts[string(sev)] = count
	}
	return out
}

// ---- Conversation insights ----

type InsightsResponse struct {
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generatedAt"`

	Conversations          int                 `json:"conversations"`
	UsersWithConversations int                 `json:"usersWithConversations"`
	TotalMessages          int                 `json:"totalMessages"`
	UserMessages           int                 `json:"userMessages"`
	AssistantMessages      int                 `json:"assistantMessages"`
	AvgMessagesPerConv     float64             `json:"avgMessagesPerConv"`
	AvgSuccessScore        float64             `json:"avgSuccessScore"`
	LengthBuckets          []HistogramEntryDTO `json:"lengthBuckets"`
	PeakHours              []HourCountDTO      `json:"peakHours"`
}

func toInsightsResponse(ins *domain.ConversationInsights, res cache.Result) InsightsResponse {
	return InsightsResponse{
		Cached:                 res.Cached,
		GeneratedAt:            res.ComputedAt,
		Conversations:          ins.Conversations,
		UsersWithConversations: ins.UsersWithConversations,
		TotalMessages:          ins.TotalMessages,
		UserMessages:           ins.UserMessages,
		AssistantMessages:      ins.AssistantMessages,
		AvgMessagesPerConv:     ins.AvgMessagesPerConv,
		AvgSuccessScore:        ins.AvgSuccessScore,
		LengthBuckets:          toHistogramDTOs(ins.LengthBuckets),
		PeakHours:              toHourCountDTOs(ins.PeakHours),
	}
}
