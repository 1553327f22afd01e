package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

const summaryKeyPrefix = "session:summary:"

func summaryKey(meetingID string) string {
	return summaryKeyPrefix + meetingID
}

// RedisSummaryStore keeps completed session summaries in Redis
type RedisSummaryStore struct {
	client *redis.Client
}

// NewRedisSummaryStore creates a Redis backed summary store
func NewRedisSummaryStore(client *redis.Client) *RedisSummaryStore {
	return &RedisSummaryStore{client: client}
}

// SaveSummary stores the summary until ttl elapses
func (s *RedisSummaryStore) SaveSummary(ctx context.Context, summary *entities.SessionSummary, ttl time.Duration) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := s.client.Set(ctx, summaryKey(summary.MeetingID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", summaryKey(summary.MeetingID), err)
	}
	return nil
}

// GetSummary loads the summary of the last completed session
func (s *RedisSummaryStore) GetSummary(ctx context.Context, meetingID string) (*entities.SessionSummary, error) {
	payload, err := s.client.Get(ctx, summaryKey(meetingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entities.ErrSessionSummaryNotFound
		}
		return nil, fmt.Errorf("redis GET %s: %w", summaryKey(meetingID), err)
	}
	return decodeSummary(payload)
}

// MemorySummaryStore keeps completed session summaries in process memory
type MemorySummaryStore struct {
	store *MemoryStore
}

// NewMemorySummaryStore creates a summary store over a MemoryStore
func NewMemorySummaryStore(store *MemoryStore) *MemorySummaryStore {
	return &MemorySummaryStore{store: store}
}

// SaveSummary stores the summary until ttl elapses
func (s *MemorySummaryStore) SaveSummary(ctx context.Context, summary *entities.SessionSummary, ttl time.Duration) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	s.store.Set(summaryKey(summary.MeetingID), string(payload), ttl)
	return nil
}

// GetSummary loads the summary of the last completed session
func (s *MemorySummaryStore) GetSummary(ctx context.Context, meetingID string) (*entities.SessionSummary, error) {
	payload, ok := s.store.Get(summaryKey(meetingID))
	if !ok {
		return nil, entities.ErrSessionSummaryNotFound
	}
	return decodeSummary([]byte(payload))
}

func decodeSummary(payload []byte) (*entities.SessionSummary, error) {
	var summary entities.SessionSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &summary, nil
}
