package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiserver "github.com/mediafetch/video-downloader/internal/api_server"
	"github.com/mediafetch/video-downloader/internal/config"
	"github.com/mediafetch/video-downloader/internal/events"
	"github.com/mediafetch/video-downloader/internal/jobs"
	"github.com/mediafetch/video-downloader/internal/service"
	"github.com/mediafetch/video-downloader/internal/storage"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/tracking"
	"github.com/mediafetch/video-downloader/internal/ytdlp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the download api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		if err := migrate(ctx, cfg, db, s); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		local := storage.NewLocal(cfg.Service.Download.Folder)
		if err := local.Ensure(); err != nil {
			zap.S().Fatalw("creating download folder", "error", err)
		}

		recorder := newRecorder(ctx, cfg)
		defer recorder.Close()

		producer := events.NewEventProducer(&events.StdoutWriter{})
		defer func() { _ = producer.Close() }()

		fetcher := ytdlp.NewFetcher(ytdlp.Options{
			Binary:      cfg.Service.Download.YtDlpPath,
			Folder:      local.Folder(),
			CookiesFile: cfg.Service.Download.CookiesFile,
			MaxFileSize: cfg.Service.Download.MaxFileSize,
		})

		poolOpts := []jobs.PoolOption{
			jobs.WithMaxConcurrent(cfg.Service.Download.MaxConcurrent),
			jobs.WithJobTimeout(cfg.Service.Download.JobTimeout),
			jobs.WithRecorder(recorder),
			jobs.WithPublisher(producer),
		}

		cleaner := service.NewCleaner(local, s, cfg.Service.Download.Retention)
		files := storage.Fallback{local}

		if mirror := newMirror(ctx, cfg); mirror != nil {
			poolOpts = append(poolOpts, jobs.WithMirror(mirror, local.Path))
			cleaner = cleaner.WithMirror(mirror)
			files = append(files, mirror)
		}

		pool := jobs.NewPool(s, fetcher, poolOpts...)
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if err := pool.Stop(stopCtx); err != nil {
				zap.S().Warnw("failed to stop worker pool", "error", err)
			}
		}()

		downloadSrv := service.NewDownloadService(s, pool, files, cleaner)
		if _, err := downloadSrv.RecoverInterrupted(ctx); err != nil {
			zap.S().Errorw("failed to recover interrupted jobs", "error", err)
		}

		cleaner.Start(ctx, cfg.Service.Download.CleanupInterval)

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, downloadSrv, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("Error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("failed to run metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newRecorder(ctx context.Context, cfg *config.Config) tracking.Recorder {
	if !cfg.TrackingEnabled() {
		return tracking.NoopRecorder{}
	}

	geo := tracking.NewGeoLocator(cfg.Tracking.GeoURL, cfg.Tracking.GeoTimeout)
	recorder, err := tracking.NewPgRecorder(ctx, cfg.Tracking.DSN, geo)
	if err != nil {
		zap.S().Errorw("tracking disabled: failed to connect", "error", err)
		return tracking.NoopRecorder{}
	}
	if err := recorder.EnsureSchema(ctx); err != nil {
		zap.S().Errorw("tracking disabled: failed to create schema", "error", err)
		recorder.Close()
		return tracking.NoopRecorder{}
	}
	return recorder
}

func newMirror(ctx context.Context, cfg *config.Config) *storage.Mirror {
	if !cfg.MirrorEnabled() {
		return nil
	}

	mirror, err := storage.NewMinioMirror(
		storage.WithEndpoint(cfg.Storage.Endpoint),
		storage.WithBucket(cfg.Storage.Bucket),
		storage.WithAccessKey(cfg.Storage.AccessKey),
		storage.WithSecretKey(cfg.Storage.SecretKey),
		storage.WithSSL(cfg.Storage.UseSSL),
	)
	if err != nil {
		zap.S().Errorw("failed to create minio mirror", "error", err)
		return nil
	}
	if err := mirror.EnsureBucket(ctx); err != nil {
		zap.S().Errorw("failed to ensure mirror bucket", "error", err)
		return nil
	}
	return mirror
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
