package postgres

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
)

// Normalization boundary: one function per raw document type. Upstream
// documents are dynamically shaped - fields may be absent, carry legacy
// casings, or store timestamps as RFC3339 strings, unix seconds, unix
// millis, or {"_seconds": n} objects. Everything downstream operates on
// the canonical defaulted records produced here, so the aggregation
// code carries no optional-field checks.

func normalizeUser(id string, doc []byte) domain.UserRecord {
	raw := decode(doc)
	u := domain.UserRecord{ID: id}

	u.Locale = str(raw, "locale", "language")
	u.DeviceModel = str(raw, "deviceModel", "device_model", "device")
	u.DeviceOS = str(raw, "deviceOS", "device_os", "os")
	u.AppVersion = str(raw, "appVersion", "app_version")

	u.AppOpens = num(raw, "appOpens", "app_opens", "opens")
	u.MessagesSent = num(raw, "messagesSent", "messages_sent", "totalMessages")
	u.ImagesGenerated = num(raw, "imagesGenerated", "images_generated")
	u.VideosGenerated = num(raw, "videosGenerated", "videos_generated")
	u.VoiceSessions = num(raw, "voiceSessions", "voice_sessions")
	u.WebSearches = num(raw, "webSearches", "web_searches")
	u.SessionSeconds = num(raw, "sessionSeconds", "session_seconds", "totalSessionTime")

	u.FirstOpen = ts(raw, "firstOpen", "first_open")
	u.CreatedAt = ts(raw, "createdAt", "created_at")
	u.LastOpen = ts(raw, "lastOpen", "last_open")
	u.LastActive = ts(raw, "lastActive", "last_active", "lastActiveAt")

	u.Subscribed = flag(raw, "subscribed", "isSubscribed", "premium")
	u.NotificationStatus = notificationStatus(raw)
	u.HasPushToken = str(raw, "pushToken", "push_token") != ""
	u.HasRated = flag(raw, "hasRated", "has_rated")

	u.PersonalizationScore = num(raw, "personalizationScore", "personalization_score")
	u.EngagementLevel = str(raw, "engagementLevel", "engagement_level")

	u.ActivityHours = intList(raw, "activityHours", "activity_hours")
	u.ActiveDates = dayList(raw, "activeDates", "active_dates", "activeDays")

	return u
}

func normalizeConversation(id, userID string, doc []byte) domain.ConversationRecord {
	raw := decode(doc)
	c := domain.ConversationRecord{
		ID:        id,
		UserID:    userID,
		CreatedAt: ts(raw, "createdAt", "created_at"),
	}

	msgs, _ := lookup(raw, "messages").([]any)
	for _, m := range msgs {
		mm, ok := m.(map[string]any)
		if !ok {
			continue
		}
		c.Messages = append(c.Messages, domain.Message{
			Role:      str(mm, "role"),
			Content:   str(mm, "content", "text"),
			Timestamp: ts(mm, "timestamp", "createdAt"),
		})
	}
	return c
}

func normalizeVoiceSession(id, userID string, doc []byte) domain.VoiceSessionRecord {
	raw := decode(doc)
	return domain.VoiceSessionRecord{
		ID:              id,
		UserID:          userID,
		StartedAt:       ts(raw, "startedAt", "started_at", "timestamp"),
		DurationSeconds: num(raw, "durationSeconds", "duration_seconds", "duration"),
	}
}

func normalizeVoiceFailure(id, userID string, doc []byte) domain.VoiceFailureRecord {
	raw := decode(doc)
	return domain.VoiceFailureRecord{
		ID:         id,
		UserID:     userID,
		OccurredAt: ts(raw, "occurredAt", "occurred_at", "timestamp"),
		ErrorKind:  str(raw, "errorKind", "error_kind", "error", "code"),
	}
}

func decode(doc []byte) map[string]any {
	var raw map[string]any
	if len(doc) > 0 {
		// Undecodable documents normalize to a fully-defaulted record
		// rather than failing the whole scan.
		_ = json.Unmarshal(doc, &raw)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw
}

// lookup tries each key exactly, then falls back to a case-insensitive
// scan for the first key.
func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v
		}
	}
	if len(keys) > 0 {
		for k, v := range raw {
			if strings.EqualFold(k, keys[0]) {
				return v
			}
		}
	}
	return nil
}

func str(raw map[string]any, keys ...string) string {
	if s, ok := lookup(raw, keys...).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func num(raw map[string]any, keys ...string) int {
	switch v := lookup(raw, keys...).(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func flag(raw map[string]any, keys ...string) bool {
	switch v := lookup(raw, keys...).(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

// notificationStatus distinguishes never-asked (field absent) from an
// explicit grant or denial, whether stored as a string or a boolean.
func notificationStatus(raw map[string]any) string {
	switch v := lookup(raw, "notificationStatus", "notification_status", "notificationsGranted").(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "granted", "true", "authorized":
			return domain.NotificationGranted
		case "denied", "false":
			return domain.NotificationDenied
		}
	case bool:
		if v {
			return domain.NotificationGranted
		}
		return domain.NotificationDenied
	}
	return domain.NotificationNotAsked
}

func intList(raw map[string]any, keys ...string) []int {
	items, ok := lookup(raw, keys...).([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, it := range items {
		if f, ok := it.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}

func dayList(raw map[string]any, keys ...string) []time.Time {
	items, ok := lookup(raw, keys...).([]any)
	if !ok {
		return nil
	}
	out := make([]time.Time, 0, len(items))
	for _, it := range items {
		if t := parseTime(it); !t.IsZero() {
			out = append(out, t.Truncate(24*time.Hour))
		}
	}
	return out
}

func ts(raw map[string]any, keys ...string) time.Time {
	return parseTime(lookup(raw, keys...))
}

// parseTime accepts the timestamp shapes seen upstream. Numeric values
// above 1e12 are unix milliseconds, otherwise unix seconds.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed.UTC()
		}
		if parsed, err := time.Parse("2006-01-02", s); err == nil {
			return parsed.UTC()
		}
	case float64:
		if t <= 0 {
			return time.Time{}
		}
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC()
		}
		return time.Unix(int64(t), 0).UTC()
	case map[string]any:
		for _, key := range []string{"_seconds", "seconds"} {
			if secs, ok := t[key].(float64); ok && secs > 0 {
				return time.Unix(int64(secs), 0).UTC()
			}
		}
	}
	return time.Time{}
}
