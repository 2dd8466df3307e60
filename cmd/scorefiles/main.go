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

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/filescore"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults are used when empty)")
	dir := flag.String("dir", "", "directory to scan, overrides fileScore.dir")
	workers := flag.Int("workers", -1, "parallel workers, 0 for one per CPU; overrides fileScore.workers")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *dir, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("file scoring failed", "error", err)
		stop()
		os.Exit(apperrors.ExitCode(err))
	}
}

// loadConfig applies the flag overrides on top of the loaded config and
// validates the result.
func loadConfig(path, dir string, workers int) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, err, "loading configuration")
	}
	if dir != "" {
		cfg.FileScore.Dir = dir
	}
	if workers >= 0 {
		cfg.FileScore.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	files, err := filescore.ListFiles(cfg.FileScore.Dir, cfg.FileScore.Extension)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("no text files found")
		return nil
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		checker := health.NewChecker()
		checker.Register("input_dir", func(context.Context) error {
			_, err := os.Stat(cfg.FileScore.Dir)
			return err
		})
		shutdown := metrics.StartServer(cfg.Metrics.Port, m, checker)
		defer shutdown(context.Background())
	}

	scorer, err := filescore.New(filescore.DefaultKeywords, cfg.FileScore.Workers, filescore.WithMetrics(m))
	if err != nil {
		return err
	}
	slog.Info("scoring files", "dir", cfg.FileScore.Dir, "files", len(files), "workers", scorer.Workers())

	cmp, err := scorer.Compare(ctx, files)
	if err != nil {
		return err
	}

	fmt.Println("\n===== SINGLE PROCESS EXECUTION =====")
	fmt.Printf("Files:       %d\n", cmp.Sequential.Files)
	fmt.Printf("Total Score: %d\n", cmp.Sequential.Total)
	fmt.Println("\n===== PARALLEL EXECUTION =====")
	fmt.Printf("Workers:     %d\n", cmp.Workers)
	fmt.Printf("Total Score: %d\n", cmp.Parallel.Total)
	fmt.Println("\n======COMPARISON======")
	fmt.Printf("Single Process Time: %.2f seconds\n", cmp.Sequential.Elapsed.Seconds())
	fmt.Printf("Parallel Time:       %.2f seconds\n", cmp.Parallel.Elapsed.Seconds())
	if s := cmp.Speedup(); s > 0 {
		fmt.Printf("Speedup:             %.2fx\n", s)
	}
	return nil
}
