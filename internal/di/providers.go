package di

import (
	"context"
	"fmt"
	"time"

	"StockPredictor/internal/domain/repository"
	"StockPredictor/internal/domain/service"
	"StockPredictor/internal/handler/api"
	internalrepo "StockPredictor/internal/repository"
	"StockPredictor/internal/service/ratelimit"
	"StockPredictor/internal/service/yahoo"
	"StockPredictor/internal/services/lstm"
	"StockPredictor/internal/services/tickers"
	"StockPredictor/internal/usecase"
	"StockPredictor/pkg/cache"
	pkgch "StockPredictor/pkg/clickhouse"
	"StockPredictor/pkg/config"
	xhttp "StockPredictor/pkg/http"
	pkgkafka "StockPredictor/pkg/kafka"
	applogger "StockPredictor/pkg/logger"
	"StockPredictor/pkg/metrics"
	"StockPredictor/pkg/server"
)

// Toolkit is the use-case layer without the HTTP surface, for one-shot CLI commands.
type Toolkit struct {
	Resolver *usecase.Resolver
	Gate     *usecase.ModelGate
	Predict  *usecase.PredictUseCase
	Recorder *usecase.ForecastRecorder
	Cache    cache.Service
}

// Close releases the journal backend and the market-data cache.
func (t *Toolkit) Close() {
	if t.Recorder != nil {
		t.Recorder.Close()
	}
	if t.Cache != nil {
		_ = t.Cache.Close()
	}
}

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAliasTable loads the alias sources once at start-up.
func ProvideAliasTable(cfg *config.Config, l *applogger.Logger) *tickers.AliasTable {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Aliases.Timeout)
	defer cancel()
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Aliases.Timeout))
	return tickers.NewLoader(client, l).Load(ctx, cfg.Aliases.Sources)
}

// ProvideMarketCache returns nil when caching is disabled, memory alone by default and
// memory in front of Redis when redis is enabled.
func ProvideMarketCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if cfg.Market.CacheTTL <= 0 {
		return nil, nil
	}
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Market.CacheSize)), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("market data cache backed by redis",
		applogger.String("host", cfg.Redis.Host),
		applogger.Int("port", cfg.Redis.Port))
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Market.CacheSize),
		cache.WithLayeredMemoryTTL(cfg.Market.CacheTTL),
	), nil
}

// ProvideMarketData creates the Yahoo client, behind the cache when one is configured.
func ProvideMarketData(cfg *config.Config, c cache.Service, l *applogger.Logger) repository.MarketData {
	client := yahoo.NewClient(l)
	if c == nil {
		return client
	}
	return yahoo.NewCachedMarketData(client, c, cfg.Market.CacheTTL, l)
}

// ProvideModelStore creates the artifact store under model.dir.
func ProvideModelStore(cfg *config.Config, l *applogger.Logger) (*internalrepo.FileModelStore, error) {
	store, err := internalrepo.NewFileModelStore(cfg.Model.Dir, l, internalrepo.WithMaxAge(cfg.Model.MaxAge))
	if err != nil {
		return nil, fmt.Errorf("model store: %w", err)
	}
	return store, nil
}

// ProvideTrainer creates the LSTM trainer from the model section.
func ProvideTrainer(cfg *config.Config, l *applogger.Logger) service.Trainer {
	c := lstm.DefaultConfig()
	c.LookBack = usecase.MinPredictionCloses
	c.Units = cfg.Model.Units
	c.DenseUnits = cfg.Model.DenseUnits
	c.Dropout = cfg.Model.Dropout
	c.Epochs = cfg.Model.Epochs
	c.BatchSize = cfg.Model.BatchSize
	c.LearningRate = cfg.Model.LearningRate
	c.Seed = cfg.Model.Seed
	return lstm.NewTrainer(c, l)
}

// ProvideResolver creates the ticker resolver.
func ProvideResolver(
	cfg *config.Config,
	aliases *tickers.AliasTable,
	market repository.MarketData,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Resolver {
	return usecase.NewResolver(aliases, tickers.NewValidator(), market, m, l, cfg.Market.HistoryYears)
}

// ProvideModelGate creates the train-or-reuse gate.
func ProvideModelGate(
	cfg *config.Config,
	store repository.ModelStore,
	market repository.MarketData,
	trainer service.Trainer,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ModelGate {
	return usecase.NewModelGate(store, market, trainer, m, l, cfg.Market.TrainingYears)
}

// ProvideForecaster creates the recursive forecaster.
func ProvideForecaster() *usecase.Forecaster {
	return usecase.NewForecaster(usecase.MinPredictionCloses)
}

// ProvideForecastRecorder connects the configured journal backend.
func ProvideForecastRecorder(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*usecase.ForecastRecorder, error) {
	switch cfg.Journal.Backend {
	case usecase.BackendKafka:
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		l.Info("forecast journal: kafka",
			applogger.Strings("brokers", cfg.Kafka.Brokers),
			applogger.String("topic", cfg.Kafka.Topic))
		pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		return usecase.NewForecastRecorder(pub, nil, m, usecase.BackendKafka), nil

	case usecase.BackendClickHouse:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ClickHouse.DialTimeout+cfg.ClickHouse.ReadTimeout)
		defer cancel()
		ch, err := pkgch.NewClient(ctx,
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, max(1, cfg.ClickHouse.MaxOpenConns/2), 5*time.Minute),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store, err := internalrepo.NewClickHouseStorage(ctx, ch, l)
		if err != nil {
			_ = ch.Close()
			return nil, err
		}
		l.Info("forecast journal: clickhouse", applogger.String("database", ch.Database()))
		return usecase.NewForecastRecorder(nil, store, m, usecase.BackendClickHouse), nil

	case usecase.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := internalrepo.NewPostgresStorage(ctx, cfg.Postgres.DSN, cfg.Postgres.Table, cfg.Postgres.MaxOpenConns, l)
		if err != nil {
			return nil, err
		}
		l.Info("forecast journal: postgres", applogger.String("table", cfg.Postgres.Table))
		return usecase.NewForecastRecorder(nil, store, m, usecase.BackendPostgres), nil

	default:
		return usecase.NewForecastRecorder(nil, nil, m, usecase.BackendNone), nil
	}
}

// ProvidePredictUseCase creates the predict use case.
func ProvidePredictUseCase(
	cfg *config.Config,
	resolver *usecase.Resolver,
	gate *usecase.ModelGate,
	store repository.ModelStore,
	forecaster *usecase.Forecaster,
	recorder *usecase.ForecastRecorder,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PredictUseCase {
	return usecase.NewPredictUseCase(resolver, gate, store, forecaster, recorder, m, l, cfg.Journal.Timeout)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
}

// ProvideHTTPHandler creates the forecast routes.
func ProvideHTTPHandler(
	l *applogger.Logger,
	uc *usecase.PredictUseCase,
	aliases *tickers.AliasTable,
	recorder *usecase.ForecastRecorder,
	rl *ratelimit.Limiter,
) xhttp.Handler {
	status := api.Status{AliasesLoaded: aliases.Loaded(), Journal: recorder}
	return api.NewForecastEchoHandler(l, uc, status, rl)
}

// ProvideHTTPServer creates the Echo server from the server and metrics sections.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(metricsPath, cfg.Metrics.SlowThreshold),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	recorder *usecase.ForecastRecorder,
	c cache.Service,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, srv, recorder, c, l)
}
