package domain

import "time"

// UserRow is a list row: the record plus the denormalized fields the
// list view needs, computed synchronously at query time.
type UserRow struct {
	User              UserRecord
	ConversationCount int
	EngagementScore   int
}

// UserPage is one page of the filtered, sorted population together with
// global segment counts and the distinct filter values present in the
// full population.
type UserPage struct {
	Rows          []UserRow
	Total         int // matches after filtering, before pagination
	Page          int
	Limit         int
	SegmentCounts map[Segment]int
	Locales       []string
	Devices       []string
}

// UserDetail is the single-user drill-down.
type UserDetail struct {
	User              UserRecord
	EngagementScore   int
	ConversationCount int
	Conversations     []ConversationSummary
	VoiceSessions     []VoiceSessionRecord
	VoiceFailures     []VoiceFailureRecord
	Activity          []ActivityDay // trailing 30 days, oldest first
	CurrentStreak     int
	LongestStreak     int
}

type ConversationSummary struct {
	ID           string
	CreatedAt    time.Time
	MessageCount int
	Preview      string
	SuccessScore int
}

type ActivityDay struct {
	Date   string // YYYY-MM-DD
	Active bool
}
