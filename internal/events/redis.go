package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStream appends events to a Redis stream so every instance of the
// service sees the same invalidations.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
	log    *zap.Logger
}

func NewRedisStream(client *redis.Client, stream string, maxLen int64, log *zap.Logger) *RedisStream {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisStream{client: client, stream: stream, maxLen: maxLen, log: log}
}

func (r *RedisStream) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"kind": string(e.Kind),
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}

// Relay tails the stream from "$" and republishes every entry to dst until ctx
// is cancelled.
func (r *RedisStream) Relay(ctx context.Context, dst Publisher, block time.Duration) error {
	last := "$"
	for {
		res, err := r.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{r.stream, last},
			Count:   100,
			Block:   block,
		}).Result()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			r.log.Warn("relay read failed", zap.String("stream", r.stream), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				last = msg.ID
				raw, _ := msg.Values["data"].(string)
				var e Event
				if err := json.Unmarshal([]byte(raw), &e); err != nil {
					r.log.Warn("relay: bad entry", zap.String("id", msg.ID), zap.Error(err))
					continue
				}
				if err := dst.Publish(ctx, e); err != nil {
					r.log.Warn("relay publish failed", zap.String("event", e.ID), zap.Error(err))
				}
			}
		}
	}
}
