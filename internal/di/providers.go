package di

import (
	"context"
	"fmt"
	"time"

	"SignalForge/internal/domain/repository"
	mid "SignalForge/internal/middleware"
	internalrepo "SignalForge/internal/repository"
	icache "SignalForge/internal/service/cache"
	"SignalForge/internal/service/databento"
	"SignalForge/internal/usecase"
	pkgch "SignalForge/pkg/clickhouse"
	"SignalForge/pkg/config"
	pkghttp "SignalForge/pkg/http"
	pkgkafka "SignalForge/pkg/kafka"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/metrics"
	"SignalForge/pkg/queue"
	"SignalForge/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client when the backend needs
// one; other backends get a nil client and never touch it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS signalforge",
		"CREATE TABLE IF NOT EXISTS signalforge.signals (ts DateTime64(3), symbol String, strategy String, direction String, entry Float64, stop Float64, target Float64, score UInt8, max_score UInt8, factors String, session String, event_id String) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts, event_id)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer for the kafka backend.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideSignalStorage creates ClickHouse storage for emitted signals.
func ProvideSignalStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".signals")
}

// ProvideSignalPublisher creates the publisher matching the configured
// delivery backend. The clickhouse and log backends need none.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.Publisher {
	switch cfg.Backend.Type {
	case "kafka":
		return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts := []queue.RedisQueueOption{}
		if cfg.Redis.KeyPrefix != "" {
			opts = append(opts, queue.WithKeyPrefix(cfg.Redis.KeyPrefix))
		}
		return internalrepo.NewRedisPublisher(queue.NewRedisPublisher(l, client, opts...))
	case "webhook":
		client := pkghttp.NewClient(pkghttp.WithTimeout(cfg.Webhook.Timeout))
		return internalrepo.NewWebhookPublisher(client, cfg.Webhook.URL)
	default:
		return nil
	}
}

// ProvideKafkaConsumer creates the position-events consumer when a topic is
// configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.Positions.Topic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Positions.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Positions.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Positions.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Positions.RetryMax, cfg.Kafka.Positions.BackoffMin, cfg.Kafka.Positions.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Positions.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Positions.MinBytes, cfg.Kafka.Positions.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvidePositionEventsHandler registers the handler for the positions topic.
func ProvidePositionEventsHandler(runner *usecase.EngineRunner, metrics repository.Metrics, cfg *config.Config) *usecase.PositionEventsHandler {
	return usecase.NewPositionEventsHandler(cfg.Kafka.Positions.Topic, runner, metrics)
}

// ProvideDatabentoStream creates the Databento WebSocket stream.
func ProvideDatabentoStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return databento.New(
		cfg.Databento.APIKey,
		cfg.Databento.GatewayURL,
		cfg.Databento.Dataset,
		cfg.Databento.Schema,
		cfg.Databento.Symbols,
		cfg.Databento.ReconnectDelay,
		cfg.Databento.PingInterval,
		l,
	)
}

// ProvideBytesCache backs the read-API cache with Redis when an address is
// configured, an in-process TTL map otherwise.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Addr != "" {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideRecentSignals creates the in-memory ring behind the read API.
func ProvideRecentSignals() *usecase.RecentSignals {
	return usecase.NewRecentSignals(256)
}

// ProvideSignalHistory chooses the read-API history source: the ClickHouse
// table when signals are persisted there, the in-memory ring otherwise.
func ProvideSignalHistory(recent *usecase.RecentSignals, chClient *pkgch.Client, cfg *config.Config) repository.SignalHistory {
	if cfg.Backend.Type == "clickhouse" && chClient != nil {
		return internalrepo.NewCHSignalHistory(chClient, cfg.ClickHouse.Database+".signals")
	}
	return recent
}

// ProvideSignalProcessor creates the signal delivery use case.
func ProvideSignalProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.SignalProcessor {
	return usecase.NewSignalProcessor(
		pub,
		store,
		metrics,
		l,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideEngineRunner creates the per-symbol engine runner.
func ProvideEngineRunner(
	cfg *config.Config,
	proc *usecase.SignalProcessor,
	recent *usecase.RecentSignals,
	metrics repository.Metrics,
	l *applogger.Logger,
) (*usecase.EngineRunner, error) {
	return usecase.NewEngineRunner(cfg.Engine, proc, recent, metrics, l)
}

// ProvideBarCollector creates the bar collector use case.
func ProvideBarCollector(
	stream repository.MarketStream,
	runner *usecase.EngineRunner,
	metrics repository.Metrics,
) *usecase.BarCollector {
	// Build middleware pipeline between WebSocket and the engine
	pipe := mid.NewBarPipeline(runner, metrics,
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(stream, runner, metrics, pipe)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	ph *usecase.PositionEventsHandler,
	chClient *pkgch.Client,
	history repository.SignalHistory,
	cache icache.BytesCache,
	proc *usecase.SignalProcessor,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, ph, chClient, history)
	app.SetCache(cache)
	app.SignalProc = proc
	return app
}
