package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/ingest"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/tracing"
)

type options struct {
	configPath    string
	input         string
	rows          int
	db            string
	skipBenchmark bool
	showLast      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config file (defaults are used when empty)")
	flag.StringVar(&opts.input, "input", "", "review CSV file, overrides source.path")
	flag.IntVar(&opts.rows, "rows", -1, "maximum rows to ingest, 0 for the whole file; overrides ingest.maxRows")
	flag.StringVar(&opts.db, "db", "", "SQLite database file, overrides store.path")
	flag.BoolVar(&opts.skipBenchmark, "skip-benchmark", false, "score and store only, without the index benchmark")
	flag.BoolVar(&opts.showLast, "show-last", false, "print the last report cached in Redis and exit")
	flag.Parse()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.showLast {
		err = showLast(ctx, cfg)
	} else {
		err = run(ctx, cfg, opts.skipBenchmark)
	}
	if err != nil {
		slog.Error("run failed", "error", err)
		stop()
		os.Exit(apperrors.ExitCode(err))
	}
}

func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, err, "loading configuration")
	}
	if opts.input != "" {
		cfg.Source.Path = opts.input
	}
	if opts.rows >= 0 {
		cfg.Ingest.MaxRows = opts.rows
	}
	if opts.db != "" {
		cfg.Store.Path = opts.db
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, skipBenchmark bool) error {
	ctx, root := tracing.Start(ctx, "sentiment_run")
	defer func() {
		root.End()
		root.Log(logger.WithComponent("tracing"))
	}()

	var m *metrics.Metrics
	checker := health.NewChecker()
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		shutdown := metrics.StartServer(cfg.Metrics.Port, m, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	// The source is opened before the store so a missing file leaves the
	// previous results table untouched.
	src, err := ingest.OpenCSV(cfg.Source, cfg.Ingest.ChunkSize)
	if err != nil {
		return err
	}
	defer src.Close()

	db, err := database.New(cfg.Store)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err, "connecting to results store")
	}
	defer db.Close()
	checker.Register("store", db.DB.PingContext)

	results, err := store.New(db)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err, "preparing results store")
	}

	slog.Info("starting sentiment run",
		"source", cfg.Source.Path,
		"driver", cfg.Store.Driver,
		"max_rows", cfg.Ingest.MaxRows,
		"chunk_size", cfg.Ingest.ChunkSize,
		"skip_benchmark", skipBenchmark,
	)

	classifier := sentiment.NewClassifier(sentiment.DefaultScorer(), sentiment.Thresholds{
		Positive: cfg.Scoring.PositiveThreshold,
		Negative: cfg.Scoring.NegativeThreshold,
	})
	pipeline := ingest.New(classifier, results, cfg.Ingest.MaxRows, ingest.WithMetrics(m))
	res, err := pipeline.Run(ctx, src)
	if err != nil {
		return err
	}

	var cmp *benchmark.Comparison
	if !skipBenchmark {
		c, err := benchmark.NewHarness(cfg.Benchmark.Runs, benchmark.WithMetrics(m)).Run(ctx, results)
		if err != nil {
			return err
		}
		cmp = &c
	}

	summary := report.NewSummary(db.Driver, store.Table, res, cmp, time.Now())
	if err := report.Write(os.Stdout, summary); err != nil {
		slog.Warn("writing report", "error", err)
	}

	publishers, closeAll := openPublishers(cfg)
	defer closeAll()
	if len(publishers) > 0 {
		pubCtx, span := tracing.Start(ctx, "publish")
		failed := report.PublishAll(pubCtx, summary, resilience.DefaultRetryConfig(), publishers...)
		span.SetAttr("failed_sinks", failed)
		span.End()
	}
	return nil
}

// openPublishers connects the enabled sinks. A sink that cannot be reached is
// skipped with a warning.
func openPublishers(cfg *config.Config) ([]report.Publisher, func()) {
	var (
		pubs    []report.Publisher
		closers []func() error
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis report sink disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			pubs = append(pubs, report.NewRedisPublisher(client, cfg.Redis.ReportTTL))
			closers = append(closers, client.Close)
		}
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		pubs = append(pubs, report.NewKafkaPublisher(producer))
		closers = append(closers, producer.Close)
	}
	return pubs, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("closing report sink", "error", err)
			}
		}
	}
}

func showLast(ctx context.Context, cfg *config.Config) error {
	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err, "connecting to report cache")
	}
	defer client.Close()

	summary, found, err := report.Latest(ctx, client, store.Table)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err, "loading cached report")
	}
	if !found {
		fmt.Println("no cached report found")
		return nil
	}
	fmt.Printf("Report generated at %s (%s)\n", summary.GeneratedAt.Format(time.RFC3339), summary.Driver)
	return report.Write(os.Stdout, summary)
}
