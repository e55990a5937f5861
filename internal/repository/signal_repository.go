package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/domain/repository"
	pkghttp "SignalForge/pkg/http"
	pkgkafka "SignalForge/pkg/kafka"
	"SignalForge/pkg/queue"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, sig *models.Signal) error {
	factors, err := json.Marshal(sig.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}
	session, err := json.Marshal(sig.Session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, strategy, direction, entry, stop, target, score, max_score, factors, session, event_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency: event_id derived from symbol+strategy+timestamp
	eventID := fmt.Sprintf("%s-%s-%d", sig.Symbol, sig.Strategy, sig.Timestamp.UnixNano())
	_, err = s.db.ExecContext(ctx, q,
		sig.Timestamp,
		sig.Symbol,
		string(sig.Strategy),
		string(sig.Direction),
		sig.EntryPrice,
		sig.StopLoss,
		sig.TargetPrice,
		sig.ConfluenceScore,
		sig.ConfluenceMax,
		string(factors),
		string(session),
		eventID,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 500
	for start := 0; start < len(signals); start += chunkSize {
		end := start + chunkSize
		if end > len(signals) {
			end = len(signals)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for _, sig := range signals[start:end] {
			if sig == nil || sig.Symbol == "" {
				continue
			}
			factors, err := json.Marshal(sig.Factors)
			if err != nil {
				return fmt.Errorf("marshal factors: %w", err)
			}
			session, err := json.Marshal(sig.Session)
			if err != nil {
				return fmt.Errorf("marshal session: %w", err)
			}
			eventID := fmt.Sprintf("%s-%s-%d", sig.Symbol, sig.Strategy, sig.Timestamp.UnixNano())
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sig.Timestamp,
				sig.Symbol,
				string(sig.Strategy),
				string(sig.Direction),
				sig.EntryPrice,
				sig.StopLoss,
				sig.TargetPrice,
				sig.ConfluenceScore,
				sig.ConfluenceMax,
				string(factors),
				string(session),
				eventID,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, strategy, direction, entry, stop, target, score, max_score, factors, session, event_id) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Signal, error) {
	q := fmt.Sprintf("SELECT ts, symbol, strategy, direction, entry, stop, target, score, max_score, factors, session FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		var sig models.Signal
		var strategy, direction, factors, session string
		if err := rows.Scan(&sig.Timestamp, &sig.Symbol, &strategy, &direction, &sig.EntryPrice, &sig.StopLoss, &sig.TargetPrice, &sig.ConfluenceScore, &sig.ConfluenceMax, &factors, &session); err != nil {
			return nil, err
		}
		sig.Strategy = models.StrategyTag(strategy)
		sig.Direction = models.Direction(direction)
		if err := json.Unmarshal([]byte(factors), &sig.Factors); err != nil {
			return nil, fmt.Errorf("unmarshal factors: %w", err)
		}
		if err := json.Unmarshal([]byte(session), &sig.Session); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		signals = append(signals, &sig)
	}
	return signals, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), sig)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, sig := range signals {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(sig.Symbol),
			Value: sig,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// RedisPublisher implements Publisher over the Redis queue, for deployments
// where the order-execution collaborator pulls from a list instead of Kafka.
type RedisPublisher struct {
	q *queue.RedisQueue
}

// NewRedisPublisher creates a Redis-backed publisher.
func NewRedisPublisher(q *queue.RedisQueue) repository.Publisher {
	return &RedisPublisher{q: q}
}

func (p *RedisPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.q.Enqueue(ctx, "signal", sig)
}

func (p *RedisPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	for _, sig := range signals {
		if err := p.q.Enqueue(ctx, "signal", sig); err != nil {
			return err
		}
	}
	return nil
}

func (p *RedisPublisher) Close() error { return nil }

// WebhookPublisher POSTs each signal to a configured endpoint.
type WebhookPublisher struct {
	client *pkghttp.Client
	url    string
}

// NewWebhookPublisher creates a webhook publisher.
func NewWebhookPublisher(client *pkghttp.Client, url string) repository.Publisher {
	return &WebhookPublisher{client: client, url: url}
}

func (p *WebhookPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: http.MethodPost,
		URL:    p.url,
		Body:   sig,
	}, nil)
}

func (p *WebhookPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	return p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: http.MethodPost,
		URL:    p.url,
		Body:   signals,
	}, nil)
}

func (p *WebhookPublisher) Close() error { return nil }
