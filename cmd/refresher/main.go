package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"subhub/internal/app/service"
	"subhub/internal/app/worker"
	"subhub/internal/common/security"
	"subhub/internal/platform/config"
	"subhub/internal/platform/logger"
	"subhub/internal/platform/store"
	"subhub/internal/platform/upstream"
	"syscall"
	"time"
)

func main() {
	if err := run(); err != nil {
		slog.Error("refresher exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	interval := flag.Duration("interval", cfg.RefreshInterval, "repeat every interval; zero runs once")
	flag.Parse()

	logger.SetupDefault(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	codec, err := security.NewTokenCodec(cfg.JWTKey)
	if err != nil {
		return err
	}
	client := upstream.NewClient(cfg.UpstreamTimeout, cfg.UpstreamSSRFGuard)
	refresh := service.NewRefreshService(st.Records, security.NewGate(codec), client, cfg.UpstreamTimeout, nil)

	w := worker.NewRefreshWorker(st.Records, refresh, cfg.RefreshConcurrency)
	if st.Redis != nil {
		w.WithRunLock(st.Redis, cfg.RedisLockKey, 10*time.Minute)
	}

	if *interval > 0 {
		w.Start(ctx, *interval)
		return nil
	}
	_, err = w.RunOnce(ctx)
	return err
}
