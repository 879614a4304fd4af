package postgres

import (
	"context"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/ports"
)

// scanBatchSize bounds each keyset page of the full-population scan.
const scanBatchSize = 500

// UserStore reads the externally-owned document tables. Documents are
// stored as JSONB and pass through the normalization boundary in
// normalize.go before anything downstream sees them.
type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

var _ ports.UserStorePort = (*UserStore)(nil)

const listUsersSQL = `
SELECT id, doc
FROM users
WHERE id > $1
ORDER BY id
LIMIT $2;
`

func (s *UserStore) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	var out []domain.UserRecord
	cursor := ""

	for {
		batch, last, err := s.listUsersPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < scanBatchSize {
			return out, nil
		}
		cursor = last
	}
}

func (s *UserStore) listUsersPage(ctx context.Context, cursor string) ([]domain.UserRecord, string, error) {
	rows, err := s.db.QueryContext(ctx, listUsersSQL, cursor, scanBatchSize)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var batch []domain.UserRecord
	var last string
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, "", err
		}
		batch = append(batch, normalizeUser(id, doc))
		last = id
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	return batch, last, nil
}

const getUserSQL = `
SELECT doc
FROM users
WHERE id = $1;
`

func (s *UserStore) GetUser(ctx context.Context, id string) (*domain.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, getUserSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ports.ErrNotFound
	}
	var doc []byte
	if err := rows.Scan(&doc); err != nil {
		return nil, err
	}
	u := normalizeUser(id, doc)
	return &u, nil
}

const countConversationsSQL = `
SELECT COUNT(*)
FROM conversations
WHERE user_id = $1;
`

func (s *UserStore) CountConversations(ctx context.Context, userID string) (int, error) {
	return s.countQuery(ctx, countConversationsSQL, userID)
}

const listConversationsSQL = `
SELECT id, doc
FROM conversations
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`

func (s *UserStore) ListConversations(ctx context.Context, userID string, limit int) ([]domain.ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx, listConversationsSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ConversationRecord
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		out = append(out, normalizeConversation(id, userID, doc))
	}
	return out, rows.Err()
}

const listAllConversationsSQL = `
SELECT id, user_id, doc
FROM conversations
WHERE id > $1
ORDER BY id
LIMIT $2;
`

func (s *UserStore) ListAllConversations(ctx context.Context) ([]domain.ConversationRecord, error) {
	var out []domain.ConversationRecord
	cursor := ""

	for {
		rows, err := s.db.QueryContext(ctx, listAllConversationsSQL, cursor, scanBatchSize)
		if err != nil {
			return nil, err
		}

		n := 0
		for rows.Next() {
			var id, userID string
			var doc []byte
			if err := rows.Scan(&id, &userID, &doc); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, normalizeConversation(id, userID, doc))
			cursor = id
			n++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if n < scanBatchSize {
			return out, nil
		}
	}
}

const listVoiceSessionsSQL = `
SELECT id, doc
FROM voice_sessions
WHERE user_id = $1
ORDER BY started_at DESC
LIMIT $2;
`

func (s *UserStore) ListVoiceSessions(ctx context.Context, userID string, limit int) ([]domain.VoiceSessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, listVoiceSessionsSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VoiceSessionRecord
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		out = append(out, normalizeVoiceSession(id, userID, doc))
	}
	return out, rows.Err()
}

const listVoiceFailuresSQL = `
SELECT id, doc
FROM voice_failures
WHERE user_id = $1
ORDER BY occurred_at DESC
LIMIT $2;
`

func (s *UserStore) ListVoiceFailures(ctx context.Context, userID string, limit int) ([]domain.VoiceFailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, listVoiceFailuresSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VoiceFailureRecord
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		out = append(out, normalizeVoiceFailure(id, userID, doc))
	}
	return out, rows.Err()
}

const countVoiceFailuresSinceSQL = `
SELECT COUNT(*)
FROM voice_failures
WHERE occurred_at >= $1;
`

func (s *UserStore) CountVoiceFailuresSince(ctx context.Context, since time.Time) (int, error) {
	return s.countQuery(ctx, countVoiceFailuresSinceSQL, since)
}

func (s *UserStore) countQuery(ctx context.Context, query string, args ...any) (int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return int(count), nil
}
