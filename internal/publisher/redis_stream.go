// Package publisher emits pipeline events onto Redis streams for
// downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Swai-D/bet-bot-sub000/internal/scheduler"
)

const runStream = "betbot.runs"

// RedisStreamPublisher publishes run summaries to a Redis stream
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a stream publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishRunSummary appends one run summary to the stream
func (p *RedisStreamPublisher) PublishRunSummary(ctx context.Context, summary scheduler.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: runStream,
		MaxLen: 1000,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// OnRunComplete implements the run listener hook; publish failures are
// logged and swallowed.
func (p *RedisStreamPublisher) OnRunComplete(ctx context.Context, summary scheduler.RunSummary) {
	if err := p.PublishRunSummary(ctx, summary); err != nil {
		log.Printf("⚠️  Failed to publish run summary: %v", err)
	}
}
