package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/analytics/core/usecase"
)

var detailNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return domain.StartOfDay(detailNow).AddDate(0, 0, offset)
}

func TestUserDetail_NotFound(t *testing.T) {
	store := &fakeUserStore{
		GetUserFn: func(context.Context, string) (*domain.UserRecord, error) {
			return nil, ports.ErrNotFound
		},
	}
	uc := usecase.NewUserDetailUseCase(store, fixedClock(detailNow))

	_, err := uc.Execute(context.Background(), usecase.UserDetailInput{UserID: "ghost"})
	if !errors.Is(err, usecase.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}

	_, err = uc.Execute(context.Background(), usecase.UserDetailInput{})
	if !errors.Is(err, usecase.ErrUserNotFound) {
		t.Fatalf("empty id error = %v, want ErrUserNotFound", err)
	}
}

func TestUserDetail_StoreErrorPassedThrough(t *testing.T) {
	boom := errors.New("read timeout")
	store := &fakeUserStore{
		GetUserFn: func(context.Context, string) (*domain.UserRecord, error) {
			return nil, boom
		},
	}
	uc := usecase.NewUserDetailUseCase(store, fixedClock(detailNow))

	_, err := uc.Execute(context.Background(), usecase.UserDetailInput{UserID: "u-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if errors.Is(err, usecase.ErrUserNotFound) {
		t.Fatal("store error mapped to not-found")
	}
}

func TestUserDetail_AssemblesDrillDown(t *testing.T) {
	user := &domain.UserRecord{
		ID:           "u-1",
		MessagesSent: 25,
		LastActive:   detailNow.Add(-time.Hour),
		ActiveDates:  []time.Time{day(0), day(-1), day(-2)},
	}
	conv := domain.ConversationRecord{
		ID:        "c-1",
		UserID:    "u-1",
		CreatedAt: detailNow.Add(-2 * time.Hour),
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "how do I reset my profile"},
			{Role: domain.RoleAssistant, Content: "open settings"},
		},
	}
	store := &fakeUserStore{
		GetUserFn: func(_ context.Context, id string) (*domain.UserRecord, error) {
			if id != "u-1" {
				return nil, ports.ErrNotFound
			}
			return user, nil
		},
		CountConversationsFn: func(context.Context, string) (int, error) { return 7, nil },
		ListConversationsFn: func(_ context.Context, _ string, limit int) ([]domain.ConversationRecord, error) {
			if limit != 10 {
				t.Errorf("conversation limit = %d, want 10", limit)
			}
			return []domain.ConversationRecord{conv}, nil
		},
		ListVoiceSessionsFn: func(context.Context, string, int) ([]domain.VoiceSessionRecord, error) {
			return []domain.VoiceSessionRecord{{ID: "v-1", UserID: "u-1", DurationSeconds: 42}}, nil
		},
	}
	uc := usecase.NewUserDetailUseCase(store, fixedClock(detailNow))

	d, err := uc.Execute(context.Background(), usecase.UserDetailInput{UserID: "u-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.ConversationCount != 7 {
		t.Errorf("conversation count = %d, want 7", d.ConversationCount)
	}
	if want := domain.EngagementScore(user, 7); d.EngagementScore != want {
		t.Errorf("engagement score = %d, want %d", d.EngagementScore, want)
	}

	if len(d.Conversations) != 1 {
		t.Fatalf("conversations = %d, want 1", len(d.Conversations))
	}
	summary := d.Conversations[0]
	if summary.ID != "c-1" || summary.MessageCount != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Preview != "how do I reset my profile" {
		t.Errorf("preview = %q", summary.Preview)
	}
	if summary.SuccessScore != domain.ConversationSuccessScore(&conv) {
		t.Errorf("success score = %d", summary.SuccessScore)
	}

	if len(d.VoiceSessions) != 1 || d.VoiceSessions[0].ID != "v-1" {
		t.Errorf("voice sessions = %+v", d.VoiceSessions)
	}
}

func TestUserDetail_ActivityTimeline(t *testing.T) {
	user := &domain.UserRecord{
		ID:          "u-1",
		ActiveDates: []time.Time{day(0), day(-2)},
	}
	store := &fakeUserStore{
		GetUserFn: func(context.Context, string) (*domain.UserRecord, error) { return user, nil },
	}
	uc := usecase.NewUserDetailUseCase(store, fixedClock(detailNow))

	d, err := uc.Execute(context.Background(), usecase.UserDetailInput{UserID: "u-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.Activity) != 30 {
		t.Fatalf("activity length = %d, want 30", len(d.Activity))
	}
	last := d.Activity[len(d.Activity)-1]
	if last.Date != day(0).Format("2006-01-02") || !last.Active {
		t.Errorf("today's entry = %+v", last)
	}
	if d.Activity[len(d.Activity)-2].Active {
		t.Error("yesterday marked active without evidence")
	}
	if !d.Activity[len(d.Activity)-3].Active {
		t.Error("two days ago not marked active")
	}
}

func TestUserDetail_LastActiveBacksActivityEvidence(t *testing.T) {
	user := &domain.UserRecord{ID: "u-1", LastActive: detailNow.Add(-3 * time.Hour)}
	store := &fakeUserStore{
		GetUserFn: func(context.Context, string) (*domain.UserRecord, error) { return user, nil },
	}
	uc := usecase.NewUserDetailUseCase(store, fixedClock(detailNow))

	d, err := uc.Execute(context.Background(), usecase.UserDetailInput{UserID: "u-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Activity[len(d.Activity)-1].Active {
		t.Error("last_active fallback did not mark today active")
	}
	if d.CurrentStreak != 1 || d.LongestStreak != 1 {
		t.Errorf("streaks = %d/%d, want 1/1", d.CurrentStreak, d.LongestStreak)
	}
}

func TestUserDetail_Streaks(t *testing.T) {
	tests := []struct {
		name        string
		activeDates []time.Time
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "no activity",
			activeDates: nil,
			wantCurrent: 0,
			wantLongest: 0,
		},
		{
			name:        "three days ending today",
			activeDates: []time.Time{day(0), day(-1), day(-2)},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "streak ending yesterday still counts",
			activeDates: []time.Time{day(-1), day(-2)},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "gap before yesterday breaks current streak",
			activeDates: []time.Time{day(-3), day(-4)},
			wantCurrent: 0,
			wantLongest: 2,
		},
		{
			name:        "longest run may predate current",
			activeDates: []time.Time{day(0), day(-5), day(-6), day(-7), day(-8)},
			wantCurrent: 1,
			wantLongest: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user := &domain.UserRecord{ID: "u-1", ActiveDates: tc.activeDates}
			store := &fakeUserStore{
				GetUserFn: func(context.Context, string) (*domain.UserRecord, error) { return user, nil },
			}
			uc := usecase.NewUserDetailUseCase(store, fixedClock(detailNow))

			d, err := uc.Execute(context.Background(), usecase.UserDetailInput{UserID: "u-1"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.CurrentStreak != tc.wantCurrent || d.LongestStreak != tc.wantLongest {
				t.Errorf("streaks = %d/%d, want %d/%d", d.CurrentStreak, d.LongestStreak, tc.wantCurrent, tc.wantLongest)
			}
		})
	}
}
