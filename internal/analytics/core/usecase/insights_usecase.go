package usecase

import (
	"context"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

const (
	insightsTTL      = time.Hour
	insightPeakHours = 5
)

type InsightsUseCase struct {
	store ports.UserStorePort
	cache *cache.Cache
}

func NewInsightsUseCase(store ports.UserStorePort, c *cache.Cache) *InsightsUseCase {
	return &InsightsUseCase{store: store, cache: c}
}

// Execute aggregates every conversation in the store. This is the most
// expensive scan in the engine, hence the long TTL.
func (uc *InsightsUseCase) Execute(ctx context.Context) (*domain.ConversationInsights, cache.Result, error) {
	return cache.GetOrCompute(uc.cache, "insights", insightsTTL, func() (*domain.ConversationInsights, error) {
		convs, err := uc.store.ListAllConversations(ctx)
		if err != nil {
			return nil, err
		}
		return buildInsights(convs), nil
	})
}

func buildInsights(convs []domain.ConversationRecord) *domain.ConversationInsights {
	ins := &domain.ConversationInsights{Conversations: len(convs)}

	userSet := make(map[string]bool)
	buckets := domain.NewHistogram()
	hourCounts := make([]int, 24)
	var successSum int

	for i := range convs {
		c := &convs[i]
		if c.UserID != "" {
			userSet[c.UserID] = true
		}
		ins.TotalMessages += len(c.Messages)
		for _, msg := range c.Messages {
			switch msg.Role {
			case domain.RoleUser:
				ins.UserMessages++
			case domain.RoleAssistant:
				ins.AssistantMessages++
			}
			if !msg.Timestamp.IsZero() {
				hourCounts[msg.Timestamp.Hour()]++
			}
		}
		buckets.Add(lengthBucket(len(c.Messages)))
		successSum += domain.ConversationSuccessScore(c)
	}

	ins.UsersWithConversations = len(userSet)
	if len(convs) > 0 {
		ins.AvgMessagesPerConv = domain.Round1(float64(ins.TotalMessages) / float64(len(convs)))
		ins.AvgSuccessScore = domain.Round1(float64(successSum) / float64(len(convs)))
	}
	ins.LengthBuckets = buckets.Top(4, len(convs))
	ins.PeakHours = domain.TopHours(hourCounts, insightPeakHours)

	return ins
}

func lengthBucket(messages int) string {
	switch {
	case messages <= 0:
		return ""
	case messages <= 2:
		return "1-2"
	case messages <= 5:
		return "3-5"
	case messages <= 10:
		return "6-10"
	default:
		return "11+"
	}
}
