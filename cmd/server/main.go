package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"reservas/internal/api"
	"reservas/internal/booking"
	"reservas/internal/config"
	"reservas/internal/google"
	"reservas/internal/mailer"
	"reservas/internal/metrics"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Local .env so ${VAR} placeholders in the YAML resolve in dev.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("RESERVAS_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("load studio time zone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := google.NewHTTPClient(ctx, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RefreshToken)

	cal, err := google.NewCalendarService(ctx, httpClient, cfg.Google.CalendarID, cfg.Studio.Timezone, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create calendar service")
	}
	ledger, err := google.NewSheetsService(ctx, httpClient, cfg.Google.SheetID, cfg.Google.SheetName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create sheets service")
	}

	mail := mailer.New(cfg.Mail.BrevoAPIKey, cfg.Mail.SenderName, cfg.Mail.SenderEmail, logger)

	studio := booking.Studio{
		Name:          cfg.Studio.Name,
		OwnerEmail:    cfg.Studio.OwnerEmail,
		WhatsappPhone: cfg.Studio.WhatsappPhone,
		DepositLine:   cfg.Studio.DepositLine,
		BankLines:     cfg.Studio.BankLines,
	}
	svc := booking.NewService(cal, ledger, mail, studio, loc, logger)

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.UseRedisCache(rdb, cfg.CacheTTL())
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst)
	server := api.New(cfg.Server.Port, svc, limiter, logger)

	logger.Info().Msg("booking backend started")
	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if rdb != nil {
			ctxPing, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
