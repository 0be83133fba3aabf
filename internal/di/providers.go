package di

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/repository"
	"MarketPulse/internal/handler/api"
	"MarketPulse/internal/handler/ws"
	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/internal/service/history"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/cache"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	"MarketPulse/pkg/server"
	"MarketPulse/pkg/util"
)

// ProvideLogger creates the application logger. Console output in development,
// JSON elsewhere.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	level := "info"
	if cfg.Environment == "development" {
		format = "console"
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLocation resolves the trading-calendar anchor timezone.
func ProvideLocation(cfg *config.Config) (*time.Location, error) {
	return util.LoadLocation(cfg.History.AnchorTimezone)
}

// ProvideStore creates the in-memory day snapshot store.
func ProvideStore() *history.Store {
	return history.NewStore()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		`CREATE TABLE IF NOT EXISTS ` + db + `.day_scores (
            date Date,
            composite Int32,
            sentiment Nullable(Float64),
            volatility Nullable(Float64),
            long_rate_change Nullable(Float64),
            dollar_change Nullable(Float64),
            market_open UInt8,
            recorded_at DateTime
        ) ENGINE=ReplacingMergeTree(recorded_at) ORDER BY date`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArchive creates the ClickHouse-backed archive, or nil when disabled.
func ProvideArchive(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.Archive {
	if chClient == nil {
		return nil
	}
	archive := internalrepo.NewCHArchive(chClient, cfg.ClickHouse.Database+".day_scores")
	archive.SetLogger(l)
	return archive
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
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

// ProvideScorePublisher creates the scores-topic publisher, or nil when Kafka
// is disabled.
func ProvideScorePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ScorePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaScorePublisher(producer, cfg.Kafka.ScoresTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCache creates the history response cache: memory-fronted Redis when
// Redis is enabled, plain memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideRecorder creates the live write path use case.
func ProvideRecorder(
	store *history.Store,
	archive repository.Archive,
	pub repository.ScorePublisher,
	m repository.Metrics,
	loc *time.Location,
	l *applogger.Logger,
) *usecase.SnapshotRecorder {
	rec := usecase.NewSnapshotRecorder(store, archive, pub, m, loc)
	rec.SetLogger(l)
	return rec
}

// ProvideBackfiller creates the backfill/warm use case.
func ProvideBackfiller(
	store *history.Store,
	archive repository.Archive,
	m repository.Metrics,
	loc *time.Location,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Backfiller {
	bf := usecase.NewBackfiller(store, archive, m, loc, cfg.History.WarmDays)
	bf.SetLogger(l)
	return bf
}

// ProvideHistoryReader creates the cached range reader.
func ProvideHistoryReader(
	store *history.Store,
	cacheSv cache.Service,
	cfg *config.Config,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.HistoryReader {
	reader := usecase.NewHistoryReader(store, cacheSv, cfg.History.CacheTTL, m)
	reader.SetLogger(l)
	return reader
}

// ProvideSignalsHandler registers the handler for the signals topic.
func ProvideSignalsHandler(
	cfg *config.Config,
	recorder *usecase.SnapshotRecorder,
	backfiller *usecase.Backfiller,
	reader *usecase.HistoryReader,
	l *applogger.Logger,
) *usecase.SignalsHandler {
	h := usecase.NewSignalsHandler(cfg.Kafka.SignalsTopic, recorder, backfiller, reader)
	h.SetLogger(l)
	return h
}

// ProvideRetention creates the scheduled store pruner.
func ProvideRetention(
	store *history.Store,
	m repository.Metrics,
	loc *time.Location,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Retention {
	ret := usecase.NewRetention(store, m, loc, cfg.History.RetentionDays)
	ret.SetLogger(l)
	return ret
}

// ProvideHub creates the websocket stream hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideAPIHandler creates the Echo HTTP handler.
func ProvideAPIHandler(
	l *applogger.Logger,
	recorder *usecase.SnapshotRecorder,
	backfiller *usecase.Backfiller,
	reader *usecase.HistoryReader,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewHistoryEchoHandler(
		l,
		recorder,
		backfiller,
		reader,
		ratelimit.New(),
		cfg.History.IngestRPS,
		cfg.History.IngestBurst,
	)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	hub *ws.Hub,
	store *history.Store,
	recorder *usecase.SnapshotRecorder,
	backfiller *usecase.Backfiller,
	retention *usecase.Retention,
	consumer *pkgkafka.Consumer,
	signals *usecase.SignalsHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	archive repository.Archive,
) *server.App {
	recorder.SetNotifier(hub)
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}

	app := server.New(cfg, l, handler, hub, store, backfiller, retention)
	if consumer != nil {
		app.SetKafka(consumer, signals, producer)
	}
	if chClient != nil {
		app.SetClickHouse(chClient, archive)
	}
	return app
}
