package usecase

import (
	"context"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

const funnelTTL = 5 * time.Minute

type FunnelUseCase struct {
	store ports.UserStorePort
	cache *cache.Cache
}

func NewFunnelUseCase(store ports.UserStorePort, c *cache.Cache) *FunnelUseCase {
	return &FunnelUseCase{store: store, cache: c}
}

func (uc *FunnelUseCase) Execute(ctx context.Context) (*domain.Funnel, cache.Result, error) {
	return cache.GetOrCompute(uc.cache, "funnel", funnelTTL, func() (*domain.Funnel, error) {
		users, err := uc.store.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		return buildFunnel(users), nil
	})
}

// buildFunnel computes the fixed-order adoption funnel. Step membership
// is cumulative by construction (a user reaches a step only if it
// reached every earlier one), which keeps counts non-increasing even
// when raw counters are inconsistent, e.g. messages recorded without
// any app open.
func buildFunnel(users []domain.UserRecord) *domain.Funnel {
	stepNames := []string{
		domain.StepAppOpen,
		domain.StepFirstMessage,
		domain.StepFirstImage,
		domain.StepFirstVoice,
	}
	counts := make([]int, len(stepNames))

	var msgUsers, imgUsers, voiceUsers, videoUsers, multiFeature int

	for i := range users {
		u := &users[i]

		flags := []bool{
			u.AppOpens > 0,
			u.MessagesSent > 0,
			u.ImagesGenerated > 0,
			u.VoiceSessions > 0,
		}
		for step := range flags {
			if !flags[step] {
				break
			}
			counts[step]++
		}

		features := 0
		if u.MessagesSent > 0 {
			msgUsers++
			features++
		}
		if u.ImagesGenerated > 0 {
			imgUsers++
			features++
		}
		if u.VoiceSessions > 0 {
			voiceUsers++
			features++
		}
		if u.VideosGenerated > 0 {
			videoUsers++
		}
		if features >= 2 {
			multiFeature++
		}
	}

	total := len(users)
	steps := make([]domain.FunnelStep, len(stepNames))
	biggestDrop := ""
	biggestDropPct := 0.0

	for i, name := range stepNames {
		step := domain.FunnelStep{
			Name:       name,
			Count:      counts[i],
			PctOfTotal: domain.RoundPct(counts[i], total),
		}
		if i == 0 {
			step.Conversion = 100
		} else if counts[i-1] > 0 {
			step.Conversion = domain.RoundPct(counts[i], counts[i-1])
			step.Dropoff = domain.Round1(100 - step.Conversion)
			if step.Dropoff > biggestDropPct {
				biggestDropPct = step.Dropoff
				biggestDrop = name
			}
		}
		steps[i] = step
	}

	return &domain.Funnel{
		TotalUsers:      total,
		Steps:           steps,
		BiggestDropStep: biggestDrop,
		Adoption: domain.FeatureAdoption{
			MessagingPct:    domain.RoundPct(msgUsers, total),
			ImagesPct:       domain.RoundPct(imgUsers, total),
			VoicePct:        domain.RoundPct(voiceUsers, total),
			VideosPct:       domain.RoundPct(videoUsers, total),
			MultiFeaturePct: domain.RoundPct(multiFeature, total),
		},
	}
}
