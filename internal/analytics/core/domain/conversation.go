package domain

// ConversationSuccessScore is a bounded heuristic in [0, 100] for how
// far a conversation got. An exchange is a user message directly
// followed by an assistant reply; deeper conversations score higher and
// the score is monotone in both signals.
func ConversationSuccessScore(c *ConversationRecord) int {
	exchanges := 0
	userMsgs := 0
	for i, m := range c.Messages {
		if m.Role != RoleUser {
			continue
		}
		userMsgs++
		if i+1 < len(c.Messages) && c.Messages[i+1].Role == RoleAssistant {
			exchanges++
		}
	}
	return min(exchanges*12+userMsgs*4, 100)
}

// ConversationPreview returns the first user message truncated to
// maxRunes, or empty when the conversation has no user message.
func ConversationPreview(c *ConversationRecord, maxRunes int) string {
	for _, m := range c.Messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) <= maxRunes {
			return m.Content
		}
		return string(runes[:maxRunes])
	}
	return ""
}
