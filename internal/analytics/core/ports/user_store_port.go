package ports

import (
	"context"
	"errors"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
)

// ErrNotFound is returned by lookups for identifiers absent from the
// store.
var ErrNotFound = errors.New("not found")

// UserStorePort is the opaque document-store boundary. The engine is a
// read-only consumer: implementations return fully normalized records
// (see the postgres adapter) and may paginate internally, but the port
// exposes the snapshot reads the aggregations need.
type UserStorePort interface {
	// ListUsers returns the full user population.
	ListUsers(ctx context.Context) ([]domain.UserRecord, error)

	// GetUser returns one user or ErrNotFound.
	GetUser(ctx context.Context, id string) (*domain.UserRecord, error)

	// CountConversations counts one user's conversations.
	CountConversations(ctx context.Context, userID string) (int, error)

	// ListConversations returns one user's most recent conversations,
	// newest first, at most limit.
	ListConversations(ctx context.Context, userID string, limit int) ([]domain.ConversationRecord, error)

	// ListAllConversations returns every conversation in the store, for
	// population-wide insight aggregation.
	ListAllConversations(ctx context.Context) ([]domain.ConversationRecord, error)

	// ListVoiceSessions returns one user's most recent voice sessions,
	// newest first, at most limit.
	ListVoiceSessions(ctx context.Context, userID string, limit int) ([]domain.VoiceSessionRecord, error)

	// ListVoiceFailures returns one user's most recent voice failures,
	// newest first, at most limit.
	ListVoiceFailures(ctx context.Context, userID string, limit int) ([]domain.VoiceFailureRecord, error)

	// CountVoiceFailuresSince counts voice failures across all users at
	// or after the given instant.
	CountVoiceFailuresSince(ctx context.Context, since time.Time) (int, error)
}
