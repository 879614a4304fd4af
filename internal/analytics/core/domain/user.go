package domain

import "time"

// Notification permission states as normalized from raw documents.
// An empty status means the user was never asked.
const (
	NotificationGranted  = "granted"
	NotificationDenied   = "denied"
	NotificationNotAsked = ""
)

// UserRecord is the canonical, fully-defaulted shape of one end-user
// document. The engine only ever reads these; ingestion owns the writes.
// Zero time values mean the timestamp is absent upstream.
type UserRecord struct {
	ID string

	Locale      string
	DeviceModel string
	DeviceOS    string
	AppVersion  string

	// Lifetime counters, monotonically non-decreasing upstream.
	AppOpens        int
	MessagesSent    int
	ImagesGenerated int
	VideosGenerated int
	VoiceSessions   int
	WebSearches     int
	SessionSeconds  int

	FirstOpen  time.Time
	CreatedAt  time.Time
	LastOpen   time.Time
	LastActive time.Time

	Subscribed         bool
	NotificationStatus string
	HasPushToken       bool
	HasRated           bool

	PersonalizationScore int
	EngagementLevel      string

	// ActivityHours holds the local hours (0-23) the user has been seen
	// active in, one entry per observation.
	ActivityHours []int

	// ActiveDates holds day-granularity activity evidence, truncated to
	// midnight. May be empty even for active users; LastActive is the
	// fallback signal.
	ActiveDates []time.Time
}

// SignupTime is the timestamp cohort and "new user" logic key off:
// first open when known, record creation otherwise.
func (u *UserRecord) SignupTime() time.Time {
	if !u.FirstOpen.IsZero() {
		return u.FirstOpen
	}
	return u.CreatedAt
}

// Message roles within a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// ConversationRecord is a child document of a user: an ordered message
// sequence used for previews, success scoring and insight aggregation.
type ConversationRecord struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Messages  []Message
}

type VoiceSessionRecord struct {
	ID              string
	UserID          string
	StartedAt       time.Time
	DurationSeconds int
}

type VoiceFailureRecord struct {
	ID         string
	UserID     string
	OccurredAt time.Time
	ErrorKind  string
}
