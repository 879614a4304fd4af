package usecase_test

import (
	"context"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
	"user-analytics-service/internal/cache"
)

// fakeUserStore implements ports.UserStorePort for tests. Unset
// functions return empty results.
type fakeUserStore struct {
	ListUsersFn               func(ctx context.Context) ([]domain.UserRecord, error)
	GetUserFn                 func(ctx context.Context, id string) (*domain.UserRecord, error)
	CountConversationsFn      func(ctx context.Context, userID string) (int, error)
	ListConversationsFn       func(ctx context.Context, userID string, limit int) ([]domain.ConversationRecord, error)
	ListAllConversationsFn    func(ctx context.Context) ([]domain.ConversationRecord, error)
	ListVoiceSessionsFn       func(ctx context.Context, userID string, limit int) ([]domain.VoiceSessionRecord, error)
	ListVoiceFailuresFn       func(ctx context.Context, userID string, limit int) ([]domain.VoiceFailureRecord, error)
	CountVoiceFailuresSinceFn func(ctx context.Context, since time.Time) (int, error)

	listUsersCalls int
}

var _ ports.UserStorePort = (*fakeUserStore)(nil)

func (f *fakeUserStore) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	f.listUsersCalls++
	if f.ListUsersFn != nil {
		return f.ListUsersFn(ctx)
	}
	return nil, nil
}

func (f *fakeUserStore) GetUser(ctx context.Context, id string) (*domain.UserRecord, error) {
	if f.GetUserFn != nil {
		return f.GetUserFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (f *fakeUserStore) CountConversations(ctx context.Context, userID string) (int, error) {
	if f.CountConversationsFn != nil {
		return f.CountConversationsFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeUserStore) ListConversations(ctx context.Context, userID string, limit int) ([]domain.ConversationRecord, error) {
	if f.ListConversationsFn != nil {
		return f.ListConversationsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (f *fakeUserStore) ListAllConversations(ctx context.Context) ([]domain.ConversationRecord, error) {
	if f.ListAllConversationsFn != nil {
		return f.ListAllConversationsFn(ctx)
	}
	return nil, nil
}

func (f *fakeUserStore) ListVoiceSessions(ctx context.Context, userID string, limit int) ([]domain.VoiceSessionRecord, error) {
	if f.ListVoiceSessionsFn != nil {
		return f.ListVoiceSessionsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (f *fakeUserStore) ListVoiceFailures(ctx context.Context, userID string, limit int) ([]domain.VoiceFailureRecord, error) {
	if f.ListVoiceFailuresFn != nil {
		return f.ListVoiceFailuresFn(ctx, userID, limit)
	}
	return nil, nil
}

func (f *fakeUserStore) CountVoiceFailuresSince(ctx context.Context, since time.Time) (int, error) {
	if f.CountVoiceFailuresSinceFn != nil {
		return f.CountVoiceFailuresSinceFn(ctx, since)
	}
	return 0, nil
}

// fixedClock pins the evaluation time.
func fixedClock(t time.Time) cache.Clock {
	return func() time.Time { return t }
}

// staticUsers wires a fixed population into the fake store.
func staticUsers(users []domain.UserRecord) func(context.Context) ([]domain.UserRecord, error) {
	return func(context.Context) ([]domain.UserRecord, error) {
		return users, nil
	}
}
