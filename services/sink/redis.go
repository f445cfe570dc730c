package sink

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/redis/go-redis/v9"

	"pricesnap/internal/scraper"
)

// RedisSink publishes records to Redis streams so downstream consumers can
// tail the snapshot as it is produced. Each record is base64-encoded JSON
// spread over streamCount streams.
type RedisSink struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisSink connects to Redis and returns the stream sink.
func NewRedisSink(ctx context.Context, addr string, db int, streamPrefix string, streamCount, streamMaxLength int) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if streamCount < 1 {
		streamCount = 1
	}
	return &RedisSink{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Append publishes each record to a randomly chosen stream.
func (s *RedisSink) Append(records []scraper.ProductRecord) error {
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(data)

		stream := s.streamPrefix + ":" + strconv.Itoa(rand.IntN(s.streamCount))
		err = s.client.XAdd(s.ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				rec.SiteName: encoded,
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish record: %w", err)
		}
	}
	return nil
}

// Close trims every stream to the configured maximum length and closes the
// connection.
func (s *RedisSink) Close() error {
	pattern := s.streamPrefix + ":*"
	streams, err := s.client.Keys(s.ctx, pattern).Result()
	if err == nil {
		for _, stream := range streams {
			s.client.XTrimMaxLen(s.ctx, stream, int64(s.streamMaxLength))
		}
	}
	return s.client.Close()
}
