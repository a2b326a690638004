package di

import (
	"fmt"

	"PriceRadar/internal/broadcast"
	"PriceRadar/internal/catalog"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/internal/handler/api"
	"PriceRadar/internal/matching"
	"PriceRadar/internal/service/ratelimit"
	"PriceRadar/internal/usecase"
	"PriceRadar/pkg/cache"
	pkgch "PriceRadar/pkg/clickhouse"
	"PriceRadar/pkg/config"
	xhttp "PriceRadar/pkg/http"
	pkgkafka "PriceRadar/pkg/kafka"
	"PriceRadar/pkg/logger"
	"PriceRadar/pkg/metrics"
	"PriceRadar/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client when any store uses
// the warehouse backend; otherwise nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	needed := false
	for _, s := range cfg.Stores {
		if s.Backend == "clickhouse" {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotCache creates the aggregation snapshot cache. With Redis
// enabled the memory layer is backed by Redis so replicas share snapshots.
func ProvideSnapshotCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("priceradar"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideKeyGenerator creates the identity key generator.
func ProvideKeyGenerator(cfg *config.Config) *matching.KeyGenerator {
	var opts []matching.Option
	if len(cfg.Matcher.StopWords) > 0 {
		opts = append(opts, matching.WithStopWords(cfg.Matcher.StopWords))
	}
	opts = append(opts, matching.WithFallbackMaxLen(cfg.Matcher.FallbackMaxLen))
	return matching.NewKeyGenerator(opts...)
}

// ProvideCatalogSources builds one catalog source per configured store.
func ProvideCatalogSources(cfg *config.Config, chClient *pkgch.Client, log *logger.Logger) ([]repository.CatalogSource, error) {
	sources := make([]repository.CatalogSource, 0, len(cfg.Stores))
	for _, s := range cfg.Stores {
		switch s.Backend {
		case "clickhouse":
			if chClient == nil {
				return nil, fmt.Errorf("store %s: clickhouse backend without a client", s.ID)
			}
			src, err := catalog.NewClickHouseSource(s.DisplayName(), s.Table, chClient, log)
			if err != nil {
				return nil, fmt.Errorf("store %s: %w", s.ID, err)
			}
			sources = append(sources, src)
		default:
			sources = append(sources, catalog.NewFileSource(s.DisplayName(), s.Locations, cfg.Catalog.MinFileBytes, log))
		}
	}
	return sources, nil
}

// ProvideAggregator creates the market aggregator.
func ProvideAggregator(
	cfg *config.Config,
	sources []repository.CatalogSource,
	keys *matching.KeyGenerator,
	m repository.Metrics,
	cacheSvc cache.Service,
	log *logger.Logger,
) *usecase.MarketAggregator {
	return usecase.NewMarketAggregator(sources, keys, m, log,
		usecase.WithPriceBounds(cfg.Catalog.MinPrice, cfg.Catalog.MaxPrice),
		usecase.WithStoreTimeout(cfg.Catalog.StoreTimeout),
		usecase.WithSnapshotCache(cacheSvc, cfg.Catalog.SnapshotTTL),
	)
}

// ProvideRadar creates the opportunity radar.
func ProvideRadar(cfg *config.Config, agg *usecase.MarketAggregator) *usecase.Radar {
	return usecase.NewRadar(agg,
		usecase.WithThresholds(cfg.Radar.GapThreshold, cfg.Radar.DiscountThreshold),
		usecase.WithGapWeight(cfg.Radar.GapWeight),
	)
}

// ProvideBus creates the broadcast bus.
func ProvideBus(cfg *config.Config, m repository.Metrics, log *logger.Logger) *broadcast.Bus {
	return broadcast.NewBus(m, log,
		broadcast.WithObserverBuffer(cfg.Broadcast.ObserverBuffer),
		broadcast.WithHeartbeatInterval(cfg.Broadcast.HeartbeatInterval),
	)
}

// ProvideKafkaConsumer creates the ingest consumer when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.RetryMax, cfg.Kafka.BackoffMin, cfg.Kafka.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideOpportunityIngest creates the Kafka handler feeding the bus.
func ProvideOpportunityIngest(cfg *config.Config, bus *broadcast.Bus, metrics repository.Metrics, log *logger.Logger) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return usecase.NewOpportunityIngest(cfg.Kafka.Topic, bus, metrics, log)
}

// ProvideHTTPHandler composes the read-path and realtime handlers.
func ProvideHTTPHandler(cfg *config.Config, log *logger.Logger, radar *usecase.Radar, bus *broadcast.Bus) xhttp.Handler {
	return xhttp.Compose(
		api.NewRadarEchoHandler(log, radar),
		api.NewEventsEchoHandler(log, bus, ratelimit.New(),
			cfg.Broadcast.PublishRPS, cfg.Broadcast.PublishBurst),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	bus *broadcast.Bus,
	consumer *pkgkafka.Consumer,
	ingest pkgkafka.MessageHandler,
	httpHandler xhttp.Handler,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, log, bus, consumer, ingest, httpHandler, chClient, cacheSvc)
}
