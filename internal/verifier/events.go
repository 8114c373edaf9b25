package verifier

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// EventJobAnalyzed is both the event type and the Redis channel it is
// published on.
const EventJobAnalyzed = "EVENT_JOB_ANALYZED"

// AnalyzedEvent announces a finished analysis. It carries no
// posting text.
type AnalyzedEvent struct {
	Type       string  `json:"type"`
	RequestID  string  `json:"requestId"`
	Verdict    string  `json:"verdict"`
	FakePct    float64 `json:"fakePct"`
	IndexFound bool    `json:"indexFound"`
}

// Publisher delivers analysis events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev AnalyzedEvent) error
}

// RedisPublisher publishes events with Redis PUBLISH.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev AnalyzedEvent) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, EventJobAnalyzed, payload).Err()
}
