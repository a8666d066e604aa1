package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/screwyprof/stakesync/pkg/endpoint"
	"github.com/screwyprof/stakesync/pkg/logger"
	"github.com/screwyprof/stakesync/pkg/pgxdb"
	"github.com/screwyprof/stakesync/pkg/zilrpc"
	"github.com/screwyprof/stakesync/syncer"
	"github.com/screwyprof/stakesync/syncer/config"
	"github.com/screwyprof/stakesync/syncer/store/pgxstore"
	"github.com/screwyprof/stakesync/web"
	webconfig "github.com/screwyprof/stakesync/web/config"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	cfg := config.New()
	webCfg := webconfig.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Staking state sync service starting",
		slog.String("network", cfg.Network),
		slog.String("version", version),
		slog.String("date", date),
	)

	network, endpoints, err := loadNetwork(ctx, cfg)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load network", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := endpoint.NewPool(endpoints)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build endpoint pool", slog.Any("error", err))
		os.Exit(1)
	}

	client := zilrpc.NewClientWithHTTP(&http.Client{Timeout: cfg.HttpClientTimeout})
	defer client.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := syncer.NewMetrics(reg)

	querier := syncer.NewQuerier(pool, client,
		syncer.WithMaxAttempts(cfg.MaxAttempts),
		syncer.WithRetryDelay(cfg.RetryDelay),
		syncer.WithQueryMetrics(metrics),
	)
	reader := syncer.NewReader(querier, network.Contracts.Syncer(),
		syncer.WithNodeConcurrency(cfg.NodeConcurrency),
	)
	aggregator := syncer.NewVaultAggregator(reader,
		syncer.WithVaultConcurrency(cfg.VaultConcurrency),
		syncer.WithVaultMetrics(metrics),
	)
	scheduler := syncer.NewScheduler(reader, aggregator,
		syncer.WithInterval(syncer.ClassLanding, cfg.LandingInterval),
		syncer.WithInterval(syncer.ClassUser, cfg.UserInterval),
		syncer.WithInterval(syncer.ClassVault, cfg.VaultInterval),
		syncer.WithEventBuffer(cfg.EventBuffer),
		syncer.WithMetrics(metrics),
	)

	log.InfoContext(ctx, "Scheduler starting",
		slog.Int("endpoints", pool.Len()),
		slog.String("stakingContract", network.Contracts.Staking),
	)
	events, done := scheduler.Start(ctx)

	subCloser := setupEventLogging(ctx, events, log)
	defer subCloser()

	addr := net.JoinHostPort(webCfg.HTTPHost, webCfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           web.NewHandler(log, scheduler, aggregator, reg),
		ReadHeaderTimeout: webCfg.ReadTimeout,
	}

	go func() {
		log.InfoContext(ctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Server failed to start", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.InfoContext(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), webCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Server forced to shutdown", slog.Any("error", err))
	}

	<-done
	log.InfoContext(ctx, "Staking state sync service stopped gracefully")
}

// loadNetwork reads the networks file and resolves the endpoint list, from the
// endpoint registry when a database is configured.
func loadNetwork(ctx context.Context, cfg config.Config) (config.Network, []string, error) {
	networks, err := config.LoadNetworks(cfg.NetworksFile)
	if err != nil {
		return config.Network{}, nil, err
	}
	network, err := networks.Get(cfg.Network)
	if err != nil {
		return config.Network{}, nil, err
	}

	if cfg.EndpointsDatabaseURL == "" {
		endpoints, err := network.ResolveEndpoints(ctx, nil)
		return network, endpoints, err
	}

	db, err := pgxdb.NewConnection(ctx, cfg.EndpointsDatabaseURL)
	if err != nil {
		return config.Network{}, nil, err
	}
	store, closer := pgxstore.New(db)
	defer closer()

	endpoints, err := network.ResolveEndpoints(ctx, store)
	return network, endpoints, err
}

// setupEventLogging configures event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan syncer.Event, log *slog.Logger) func() {
	return syncer.NewSubscriber(events,
		syncer.OnPollingStarted(func(event syncer.PollingStarted) {
			log.InfoContext(ctx, "Polling started",
				slog.String("key", event.Key.String()),
				slog.String("wallet", event.Wallet),
				slog.Duration("interval", event.Interval),
			)
		}),
		syncer.OnPollingSyncCompleted(func(event syncer.PollingSyncCompleted) {
			log.DebugContext(ctx, "Polling pass committed",
				slog.String("key", event.Key.String()),
				slog.Uint64("iteration", event.Iteration),
				slog.Duration("duration", event.Duration.Round(time.Millisecond)),
			)
		}),
		syncer.OnPollingError(func(event syncer.PollingError) {
			log.WarnContext(ctx, "Polling pass fell back to empty data",
				slog.String("key", event.Key.String()),
				slog.String("wallet", event.Wallet),
				slog.Uint64("iteration", event.Iteration),
				slog.Any("error", event.Err),
			)
		}),
		syncer.OnPollingStopped(func(event syncer.PollingStopped) {
			reason := "stopped"
			if event.Reason != nil {
				reason = event.Reason.Error()
			}
			log.InfoContext(ctx, "Polling stopped",
				slog.String("key", event.Key.String()),
				slog.String("reason", reason),
			)
		}),
	)
}
