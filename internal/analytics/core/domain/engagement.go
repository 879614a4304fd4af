package domain

// Engagement scoring weights. Each signal contributes a capped number of
// points; the capped contributions are summed and the total clamped to
// 100. Flooring happens before the cap is applied (integer division).
const (
	engagementMessagesCap        = 30
	engagementConversationsCap   = 15
	engagementImagesCap          = 10
	engagementVoiceCap           = 10
	engagementVideosCap          = 10
	engagementSearchesCap        = 8
	engagementSessionMinutesCap  = 7
	engagementPersonalizationCap = 5
	engagementSubscriptionBonus  = 5
)

// EngagementScore maps raw usage counters to a score in [0, 100].
// Pure and deterministic; callers pass the user's conversation count
// because conversations live in a sub-collection.
func EngagementScore(u *UserRecord, conversationCount int) int {
	score := min(u.MessagesSent/5, engagementMessagesCap)
	score += min(conversationCount*2, engagementConversationsCap)
	score += min(u.ImagesGenerated*2, engagementImagesCap)
	score += min(u.VoiceSessions*3, engagementVoiceCap)
	score += min(u.VideosGenerated*5, engagementVideosCap)
	score += min(u.WebSearches*2, engagementSearchesCap)
	score += min(u.SessionSeconds/60/10, engagementSessionMinutesCap)
	score += min(u.PersonalizationScore/20, engagementPersonalizationCap)
	if u.Subscribed {
		score += engagementSubscriptionBonus
	}
	return min(score, 100)
}
