package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const dialogueKeyPrefix = "dialogue:"

// dialogueTTL bounds how long an idle conversation survives.
const dialogueTTL = 30 * 24 * time.Hour

// RedisStore persists history as a Redis list of JSON-encoded turns, one list
// per user, newest at the tail.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("dialogue: redis client is required")
	}
	return &RedisStore{
		redis:  redisClient,
		tracer: otel.Tracer("aiinbox.internal.dialogue"),
	}
}

// History returns all stored turns for userID, oldest first.
func (s *RedisStore) History(ctx context.Context, userID string) ([]Turn, error) {
	if userID == "" {
		return nil, errors.New("dialogue: userID required")
	}

	ctx, span := s.tracer.Start(ctx, "dialogue.history")
	defer span.End()

	raw, err := s.redis.LRange(ctx, dialogueKey(userID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, redis.Nil) {
			return []Turn{}, nil
		}
		return nil, fmt.Errorf("dialogue: read history: %w", err)
	}

	out := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, turn)
	}
	return out, nil
}

// Append pushes turns onto the tail of the user's list and refreshes the TTL.
// All turns land in a single transaction so readers never see a partial write.
func (s *RedisStore) Append(ctx context.Context, userID string, turns ...Turn) error {
	if userID == "" {
		return errors.New("dialogue: userID required")
	}
	if len(turns) == 0 {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "dialogue.append")
	defer span.End()

	payloads := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("dialogue: marshal turn: %w", err)
		}
		payloads = append(payloads, data)
	}

	key := dialogueKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, payloads...)
	pipe.Expire(ctx, key, dialogueTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: append turns: %w", err)
	}
	return nil
}

// Trim drops all but the newest max turns.
func (s *RedisStore) Trim(ctx context.Context, userID string, max int) error {
	if userID == "" {
		return errors.New("dialogue: userID required")
	}

	ctx, span := s.tracer.Start(ctx, "dialogue.trim")
	defer span.End()

	if err := s.redis.LTrim(ctx, dialogueKey(userID), int64(-max), -1).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: trim history: %w", err)
	}
	return nil
}

func dialogueKey(userID string) string {
	return dialogueKeyPrefix + userID
}
