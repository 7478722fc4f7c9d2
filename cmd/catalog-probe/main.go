package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Sternrassler/catalog-probe/pkg/cache"
	"github.com/Sternrassler/catalog-probe/pkg/catalog"
	"github.com/Sternrassler/catalog-probe/pkg/logging"
	"github.com/Sternrassler/catalog-probe/pkg/metrics"
	"github.com/Sternrassler/catalog-probe/pkg/pool"
	"github.com/Sternrassler/catalog-probe/pkg/probe"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// options holds raw flag values; they override the loaded Config only when set.
type options struct {
	configFile string
	envFile    string
	inputFile  string

	workers     int
	batchSize   int
	strategy    string
	baseURL     string
	maxAttempts int
	rateLimit   float64
	redisURL    string
	logLevel    string
	pretty      bool
	metricsAddr string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{})
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog-probe [identifier...]",
		Short: "Check which catalog identifiers still exist",
		Long: `Probe a remote catalog with one GET per identifier, spread over a bounded
pool of workers. Identifiers come from --file (comma or newline separated)
and/or positional arguments. Each result is printed as "identifier,exists".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.inputFile, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	defaults := defaultConfig()
	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before reading CATALOG_* variables")
	flags.StringVarP(&opts.inputFile, "file", "f", "", "File with identifiers (comma or newline separated)")
	flags.IntVarP(&opts.workers, "workers", "w", defaults.Workers, "Maximum number of concurrent workers")
	flags.IntVarP(&opts.batchSize, "batch-size", "b", defaults.BatchSize, "Identifiers per batch")
	flags.StringVarP(&opts.strategy, "strategy", "s", defaults.Strategy, "Worker lifecycle: spawn or reuse")
	flags.StringVar(&opts.baseURL, "base-url", defaults.BaseURL, "Catalog base URL")
	flags.IntVar(&opts.maxAttempts, "max-attempts", defaults.MaxAttempts, "Attempts per identifier (1-10)")
	flags.Float64Var(&opts.rateLimit, "rate-limit", defaults.RateLimit, "Requests per second across all workers (0 = unlimited)")
	flags.StringVar(&opts.redisURL, "redis-url", "", "Redis address or URL for the result cache (empty = no cache)")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.pretty, "pretty", false, "Human-readable console logs")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")

	return cmd
}

// resolveConfig layers explicitly set flags over file and environment values.
func resolveConfig(cmd *cobra.Command, opts *options) (Config, error) {
	cfg, err := loadConfig(opts.configFile, opts.envFile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if flags.Changed("strategy") {
		cfg.Strategy = opts.strategy
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = opts.maxAttempts
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = opts.rateLimit
	}
	if flags.Changed("redis-url") {
		cfg.RedisURL = opts.redisURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("pretty") {
		cfg.LogPretty = opts.pretty
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}

	return cfg, nil
}

func run(ctx context.Context, cfg Config, inputFile string, args []string, out, logOut io.Writer) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.Setup(logging.Config{
		Level:  level,
		Pretty: cfg.LogPretty,
		Output: logOut,
	})
	logger := logging.NewLogger("cli")

	ids, err := collectIdentifiers(inputFile, args)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read identifiers")
		return err
	}
	if len(ids) == 0 {
		return errors.New("no identifiers given: use --file or positional arguments")
	}

	poolCfg, err := cfg.poolConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid pool configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	probeCfg := cfg.probeConfig()
	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Str("redis_url", cfg.RedisURL).Msg("Failed to connect to Redis")
			return err
		}
		defer redisClient.Close()
		probeCfg.Cache = cache.NewManager(redisClient)
		logger.Info().Str("redis_url", cfg.RedisURL).Msg("Result cache enabled")
	}

	fetcher, err := probe.New(probeCfg, logging.NewLogger("probe"))
	if err != nil {
		logger.Error().Err(err).Msg("Invalid probe configuration")
		return err
	}

	p, err := pool.New(fetcher, poolCfg, logging.NewLogger("pool"))
	if err != nil {
		return err
	}

	report, runErr := p.Run(ctx, ids)
	if report != nil {
		if err := writeResults(out, report.Results); err != nil {
			return err
		}
		logSummary(logger, report)
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("Run aborted")
		return runErr
	}
	return nil
}

// collectIdentifiers reads inputFile (if any) followed by args.
func collectIdentifiers(inputFile string, args []string) ([]catalog.Identifier, error) {
	var ids []catalog.Identifier

	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("open identifiers: %w", err)
		}
		defer f.Close()

		ids, err = catalog.ReadIdentifiers(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", inputFile, err)
		}
	}

	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			ids = append(ids, catalog.Identifier(arg))
		}
	}
	return ids, nil
}

// connectRedis accepts either a redis:// URL or a plain host:port address.
func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// writeResults prints one "identifier,exists" record per result.
func writeResults(out io.Writer, results []catalog.Result) error {
	w := csv.NewWriter(out)
	for _, r := range results {
		if err := w.Write([]string{string(r.Identifier), strconv.FormatBool(r.Exists)}); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func logSummary(logger zerolog.Logger, report *pool.Report) {
	for _, r := range report.Results {
		logger.Info().
			Str("identifier", string(r.Identifier)).
			Bool("exists", r.Exists).
			Msg("Result")
	}

	workerBatches := zerolog.Dict()
	for _, w := range report.Workers {
		workerBatches.Int(w.ID, w.Batches)
	}

	logger.Info().
		Str("run_id", report.RunID).
		Str("strategy", report.Strategy.String()).
		Str("state", report.State.String()).
		Int("results", len(report.Results)).
		Int("exists", report.Exists).
		Int("missing", report.Missing).
		Int("batches", len(report.Batches)).
		Int("max_active", report.MaxActive).
		Dict("worker_batches", workerBatches).
		Dur("duration", report.Duration).
		Msg("Run summary")
}
