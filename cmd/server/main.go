package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/auth"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/billing"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/config"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/currency"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/metrics"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/middleware"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/scheduler"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/service"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage/sqlite"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api/billingconnect"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.SetupWith(cfg.LogFormat, cfg.LogLevel)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	engine := billing.NewService(store,
		billing.WithLocation(cfg.BillingLocation),
		billing.WithDefaultCurrency(cfg.DefaultCurrency),
		billing.WithRates(currency.NewCache(cfg.ExchangeRates, cfg.ExchangeRateTTL, nil)),
		billing.WithMetrics(m),
	)

	sched, err := scheduler.New(engine, cfg.BillingCron, cfg.BillingLocation, cfg.BillingJobTimeout)
	if err != nil {
		return err
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(billingconnect.NewBillingServiceHandler(service.NewBillingService(engine, store), interceptors))
	mux.Handle(billingconnect.NewClassServiceHandler(service.NewClassService(store, engine), interceptors))
	mux.Handle(billingconnect.NewDirectoryServiceHandler(service.NewDirectoryService(store), interceptors))

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	if cfg.RunBillingOnStartup {
		go sched.RunOnce(ctx)
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down HTTP server", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Error("Failed to stop scheduler", "error", err)
	}
	slog.Info("Server stopped")
	return nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
