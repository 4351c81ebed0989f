package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"subhub/internal/api"
	"subhub/internal/api/middleware"
	"subhub/internal/api/view"
	"subhub/internal/app/service"
	"subhub/internal/common/security"
	"subhub/internal/platform/config"
	"subhub/internal/platform/logger"
	"subhub/internal/platform/metrics"
	"subhub/internal/platform/store"
	"subhub/internal/platform/upstream"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.SetupDefault(cfg.LogLevel)

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
	adminKey, err := security.NewAdminKey(cfg.AdminKey)
	if err != nil {
		return err
	}
	views, err := view.NewRenderer()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	gate := security.NewGate(codec)
	client := upstream.NewClient(cfg.UpstreamTimeout, cfg.UpstreamSSRFGuard)

	router := api.NewRouter(api.Dependencies{
		Logger:         log,
		Gate:           gate,
		AuthService:    service.NewAuthService(st.Records, codec, adminKey, cfg.SessionTTL, collector),
		RecordService:  service.NewRecordService(st.Records),
		RefreshService: service.NewRefreshService(st.Records, gate, client, cfg.UpstreamTimeout, collector),
		LoginLimiter:   middleware.NewLoginLimiter(cfg.LoginRatePerMinute),
		Views:          views,
		Metrics:        collector,
		Gatherer:       reg,

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("port", cfg.APIPort), slog.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
