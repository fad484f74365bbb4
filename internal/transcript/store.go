// Package transcript archives what was said on a call.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix       = "call_transcript:"
	DefaultTTL      = 7 * 24 * time.Hour
	defaultMaxLines = 500
)

// Line is one folded turn as shown to humans.
type Line struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
}

// Archive stores and reads back call transcripts.
type Archive interface {
	Save(ctx context.Context, callID string, lines []Line) error
	List(ctx context.Context, callID string) ([]Line, error)
}

// RedisStore keeps each transcript as a Redis list with a TTL.
type RedisStore struct {
	redis    *redis.Client
	tracer   trace.Tracer
	ttl      time.Duration
	maxLines int64
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("transcript: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:    client,
		tracer:   otel.Tracer("voicebooking.internal.transcript"),
		ttl:      ttl,
		maxLines: defaultMaxLines,
	}
}

// Save replaces the transcript for callID.
func (s *RedisStore) Save(ctx context.Context, callID string, lines []Line) error {
	if callID == "" {
		return errors.New("transcript: callID required")
	}
	ctx, span := s.tracer.Start(ctx, "transcript.save")
	defer span.End()

	values := make([]any, 0, len(lines))
	for _, line := range lines {
		data, err := json.Marshal(line)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("transcript: marshal line: %w", err)
		}
		values = append(values, data)
	}

	key := transcriptKey(callID)
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, s.ttl)
		pipe.LTrim(ctx, key, -s.maxLines, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("transcript: save: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, callID string) ([]Line, error) {
	if callID == "" {
		return nil, errors.New("transcript: callID required")
	}
	ctx, span := s.tracer.Start(ctx, "transcript.list")
	defer span.End()

	raw, err := s.redis.LRange(ctx, transcriptKey(callID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Line{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("transcript: list: %w", err)
	}

	out := make([]Line, 0, len(raw))
	for _, item := range raw {
		var line Line
		if err := json.Unmarshal([]byte(item), &line); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

func transcriptKey(callID string) string {
	return keyPrefix + callID
}

// MemoryStore is an Archive for runs without Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	calls map[string][]Line
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: make(map[string][]Line)}
}

func (s *MemoryStore) Save(_ context.Context, callID string, lines []Line) error {
	if callID == "" {
		return errors.New("transcript: callID required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[callID] = append([]Line(nil), lines...)
	return nil
}

func (s *MemoryStore) List(_ context.Context, callID string) ([]Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Line{}, s.calls[callID]...), nil
}

var (
	_ Archive = (*RedisStore)(nil)
	_ Archive = (*MemoryStore)(nil)
)
