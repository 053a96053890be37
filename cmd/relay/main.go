package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hushnet/internal/authgate"
	"hushnet/internal/config"
	"hushnet/internal/enroll"
	"hushnet/internal/handshake"
	"hushnet/internal/mailbox"
	"hushnet/internal/observability/logging"
	"hushnet/internal/observability/metrics"
	"hushnet/internal/realtime"
	"hushnet/internal/registry"
	"hushnet/internal/store"
	httptransport "hushnet/internal/transport/http"
	"hushnet/pkg/db"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: "relay",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)

	metrics.MustRegister("relay")

	gormDB, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New(gormDB)
	if err := st.AutoMigrate(ctx); err != nil {
		logger.Error("automigrate failed", "error", err)
		os.Exit(1)
	}
	if err := st.EnsureNotifyTriggers(ctx); err != nil {
		logger.Error("notify trigger install failed", "error", err)
		os.Exit(1)
	}

	if cfg.EnrollmentSecret == "" {
		logger.Error("ENROLLMENT_SECRET must be set")
		os.Exit(1)
	}

	bus := realtime.NewBus()
	listener := realtime.NewListener(cfg.DatabaseURL, bus, logger)
	go listener.Run(ctx)

	gate := authgate.New(st, logger)
	tokens := enroll.New(cfg.EnrollmentSecret)
	reg := registry.New(st, tokens, logger)
	coord := handshake.New(st, logger)
	relay := mailbox.New(st, logger)
	ws := realtime.NewWSHandler(bus, logger)

	router := httptransport.NewRouter(gate, reg, coord, relay, ws, logger, httptransport.Options{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("relay listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
