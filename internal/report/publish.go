package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/resilience"
)

// KeyPrefix prefixes the Redis key holding the latest Summary of a table.
const KeyPrefix = "sentiment:report:"

// Publisher delivers a Summary to an external sink.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, s Summary) error
}

// PublishAll hands s to every publisher, retrying each one per retry.
// Failures are logged and counted but never stop the remaining publishers;
// the return value is the number of sinks that failed.
func PublishAll(ctx context.Context, s Summary, retry resilience.RetryConfig, pubs ...Publisher) int {
	logger := slog.Default().With("component", "report")
	failed := 0
	for _, p := range pubs {
		err := resilience.Retry(ctx, "publish report to "+p.Name(), retry, func(ctx context.Context) error {
			return p.Publish(ctx, s)
		})
		if err != nil {
			failed++
			logger.Warn("report not published", "sink", p.Name(), "error", err)
			continue
		}
		logger.Info("report published", "sink", p.Name())
	}
	return failed
}

// RedisPublisher stores the latest Summary per table.
type RedisPublisher struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPublisher(client *redis.Client, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{client: client, ttl: ttl}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := p.client.Set(ctx, KeyPrefix+s.Table, data, p.ttl); err != nil {
		return fmt.Errorf("caching report: %w", err)
	}
	return nil
}

// Latest returns the cached Summary for table. found is false when no
// report is cached or it has expired.
func Latest(ctx context.Context, client *redis.Client, table string) (s Summary, found bool, err error) {
	data, err := client.Get(ctx, KeyPrefix+table)
	if redis.IsNilError(err) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("reading cached report: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, false, fmt.Errorf("decoding cached report: %w", err)
	}
	return s, true, nil
}

// KafkaPublisher sends each Summary as one message keyed by table name.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) Publish(ctx context.Context, s Summary) error {
	return p.producer.Publish(ctx, kafka.Event{Key: s.Table, Value: s})
}
