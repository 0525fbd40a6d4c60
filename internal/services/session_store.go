package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	contextutils "campusvoice/internal/utils"
)

// SessionStore persists admin session records keyed by session id.
// Load returns contextutils.ErrSessionExpired when the record is gone.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, user *models.User, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (*models.User, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessionRecord struct {
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

// RedisSessionStore keeps session records in Redis with a TTL matching the token lifetime
type RedisSessionStore struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *observability.Logger
}

// NewRedisSessionStore creates a session store on top of an existing client
func NewRedisSessionStore(client redis.UniversalClient, keyPrefix string, logger *observability.Logger) *RedisSessionStore {
	if client == nil {
		panic("NewRedisSessionStore: client is nil")
	}
	if logger == nil {
		panic("NewRedisSessionStore: logger is nil")
	}
	return &RedisSessionStore{client: client, keyPrefix: keyPrefix, logger: logger}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return sessionKey(s.keyPrefix, sessionID)
}

func sessionKey(prefix, sessionID string) string {
	if prefix == "" {
		return "session:" + sessionID
	}
	return prefix + ":session:" + sessionID
}

// Save stores the session record
func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, user *models.User, ttl time.Duration) (err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "redis_save_session", attribute.String("session.id", sessionID))
	defer observability.FinishSpan(span, &err)

	data, err := json.Marshal(sessionRecord{User: *user, CreatedAt: time.Now().UTC()})
	if err != nil {
		return contextutils.WrapError(err, "failed to encode session")
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"failed to save session", err.Error(), err)
	}
	return nil
}

// Load fetches the user bound to a session
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (result0 *models.User, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "redis_load_session", attribute.String("session.id", sessionID))
	defer observability.FinishSpan(span, &err)

	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, contextutils.ErrSessionExpired
		}
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"failed to load session", err.Error(), err)
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn(ctx, "Discarding unreadable session record", map[string]interface{}{"session.id": sessionID, "error": err.Error()})
		return nil, contextutils.ErrSessionExpired
	}
	return &record.User, nil
}

// Delete removes the session record. Deleting a missing session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) (err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "redis_delete_session", attribute.String("session.id", sessionID))
	defer observability.FinishSpan(span, &err)

	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"failed to delete session", err.Error(), err)
	}
	return nil
}

const scanBatchSize = 100

func (s *RedisSessionStore) scanPattern() string {
	return sessionKey(s.keyPrefix, "*")
}

// Count returns the number of live sessions
func (s *RedisSessionStore) Count(ctx context.Context) (result0 int, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "redis_count_sessions")
	defer observability.FinishSpan(span, &err)

	count := 0
	iter := s.client.Scan(ctx, 0, s.scanPattern(), scanBatchSize).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"failed to scan sessions", err.Error(), err)
	}
	span.SetAttributes(attribute.Int("session.count", count))
	return count, nil
}

// RevokeAll deletes every session under the store prefix and returns how many were removed
func (s *RedisSessionStore) RevokeAll(ctx context.Context) (result0 int, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "redis_revoke_all_sessions")
	defer observability.FinishSpan(span, &err)

	revoked := 0
	batch := make([]string, 0, scanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		revoked += int(n)
		batch = batch[:0]
		return nil
	}

	iter := s.client.Scan(ctx, 0, s.scanPattern(), scanBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return revoked, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
					"failed to revoke sessions", err.Error(), err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return revoked, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"failed to scan sessions", err.Error(), err)
	}
	if err := flush(); err != nil {
		return revoked, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"failed to revoke sessions", err.Error(), err)
	}

	s.logger.Info(ctx, "Revoked admin sessions", map[string]interface{}{"count": revoked})
	return revoked, nil
}
