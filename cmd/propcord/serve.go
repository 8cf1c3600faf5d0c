package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/propcord/internal/config"
	"github.com/alfredjeanlab/propcord/internal/events"
	"github.com/alfredjeanlab/propcord/internal/presence"
	"github.com/alfredjeanlab/propcord/internal/server"
	"github.com/alfredjeanlab/propcord/internal/store/postgres"
	mapsync "github.com/alfredjeanlab/propcord/internal/sync"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Run the HTTP and gRPC render servers",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

// serve runs until ctx is canceled or a listener fails, then shuts every
// component down.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "store", store.Close)

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "publisher", publisher.Close)

	nc := newNotionClient(cfg)
	if nc == nil {
		logger.Info("page rendering disabled (PROPCORD_NOTION_TOKEN not set)")
	}
	rs := server.NewRenderServer(store, publisher, pageFetcher(nc), buildResolver(cfg, store, nc, logger), logger)

	rs.Presence().StartReaper(presence.ReaperConfig{Logger: logger})
	defer rs.Presence().Stop()

	if scheduler := startScheduler(cfg, store, logger); scheduler != nil {
		defer scheduler.Stop()
	}

	if cfg.AuthToken == "" {
		logger.Warn("authentication disabled (PROPCORD_AUTH_TOKEN not set)")
	}

	grpcServer := server.NewGRPCServer(rs, cfg.AuthToken)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rs.NewHTTPHandler(cfg.AuthToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		grpcServer.GracefulStop()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("propcord server stopped")
	return nil
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("events disabled (PROPCORD_NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	logger.Info("events enabled", "nats_url", cfg.NATSURL)
	return pub, nil
}

func closeLogged(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("close failed", "component", what, "err", err)
	}
}

// startScheduler starts mapping backups when an interval and at least one
// destination are configured.
func startScheduler(cfg *config.Config, store *postgres.PostgresStore, logger *slog.Logger) *mapsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}
	var dests []mapsync.Destination
	if cfg.SyncS3Bucket != "" {
		d, err := mapsync.NewS3Destination(context.Background(), cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("S3 backup destination unavailable", "bucket", cfg.SyncS3Bucket, "err", err)
		} else {
			dests = append(dests, d)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, mapsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
	}
	if len(dests) == 0 {
		return nil
	}
	for _, d := range dests {
		logger.Info("mapping backup enabled", "destination", d.Name(), "interval", cfg.SyncInterval)
	}
	scheduler := mapsync.NewScheduler(store, dests, cfg.SyncInterval, logger)
	scheduler.Start()
	return scheduler
}
