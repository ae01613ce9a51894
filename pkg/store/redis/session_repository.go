package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"

	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix    = "session:"  // session:{kind}:{id}
	sessionSetKeyPrefix = "sessions:" // sessions:{kind} index
)

// SessionRepository stores plugin sessions in Redis with a TTL
type SessionRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionRepository creates session repository
func NewSessionRepository(redisClient *RedisClient, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		redis: redisClient.GetClient(),
		ttl:   ttl,
	}
}

func sessionKey(kind model.SessionKind, id string) string {
	return sessionKeyPrefix + string(kind) + ":" + id
}

func sessionSetKey(kind model.SessionKind) string {
	return sessionSetKeyPrefix + string(kind)
}

// Save stores the session and refreshes its TTL
func (r *SessionRepository) Save(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, sessionKey(session.Kind, session.ID), data, r.ttl)
	pipe.SAdd(ctx, sessionSetKey(session.Kind), session.ID)
	pipe.Expire(ctx, sessionSetKey(session.Kind), r.ttl*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get retrieves a session
func (r *SessionRepository) Get(ctx context.Context, kind model.SessionKind, id string) (*model.Session, error) {
	data, err := r.redis.Get(ctx, sessionKey(kind, id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session %s/%s: %w", kind, id, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// List retrieves all live sessions of kind, dropping expired index entries
func (r *SessionRepository) List(ctx context.Context, kind model.SessionKind) ([]*model.Session, error) {
	ids, err := r.redis.SMembers(ctx, sessionSetKey(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		return []*model.Session{}, nil
	}

	pipe := r.redis.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(ctx, sessionKey(kind, id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	sessions := make([]*model.Session, 0, len(ids))
	var expired []interface{}
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			expired = append(expired, ids[i])
			continue
		}
		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		sessions = append(sessions, &session)
	}
	if len(expired) > 0 {
		r.redis.SRem(ctx, sessionSetKey(kind), expired...)
	}
	return sessions, nil
}

// Delete removes a session
func (r *SessionRepository) Delete(ctx context.Context, kind model.SessionKind, id string) error {
	pipe := r.redis.Pipeline()
	del := pipe.Del(ctx, sessionKey(kind, id))
	pipe.SRem(ctx, sessionSetKey(kind), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("session %s/%s: %w", kind, id, interfaces.ErrNotFound)
	}
	return nil
}
