package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"aura/internal/api"
	"aura/internal/audit"
	"aura/internal/availability"
	"aura/internal/booking"
	"aura/internal/config"
	"aura/internal/db"
	"aura/internal/events"
	"aura/internal/metrics"
	"aura/internal/notify"
	"aura/internal/session"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("AURA_CONFIG_PATH"))
	if err != nil {
		bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, db.Options{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	}, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	// Initial load + hot reload of restaurant.yaml. The weekly template is
	// only seeded into an empty store; later reloads refresh closures and menu.
	if err := config.WatchRestaurant(ctx, cfg.Restaurant.ConfigPath, cfg.RestaurantWatchInterval(), func(updated *config.RestaurantConfig) {
		if _, err := database.SyncRestaurant(ctx, updated); err != nil {
			logger.Error().Err(err).Msg("failed to apply restaurant config")
			return
		}
		logger.Info().Time("reloaded_at", time.Now()).Msg("restaurant config applied")
	}, func(err error) {
		logger.Error().Err(err).Msg("failed to reload restaurant config")
	}); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Restaurant.ConfigPath).Msg("restaurant config unavailable, applying defaults")
		if _, err := database.SyncRestaurant(ctx, config.DefaultRestaurantConfig()); err != nil {
			logger.Error().Err(err).Msg("failed to apply default restaurant config")
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	verifier := newVerifier(cfg, database, rdb, &logger)

	bus := events.NewBus(&logger)
	dispatcher, closeSenders := newDispatcher(ctx, cfg, &logger)
	bus.SubscribeAll(dispatcher.Handle)

	loc := cfg.Location()
	engine := availability.NewEngine(database,
		availability.WithLocation(loc),
		availability.WithMaxRangeDays(cfg.Booking.MaxRangeDays),
	)
	bookings := booking.NewService(database,
		booking.WithLocation(loc),
		booking.WithRules(booking.Rules{
			MaxGuests:              cfg.Booking.MaxGuests,
			MaxSpecialRequestChars: cfg.Booking.MaxSpecialRequestChars,
		}),
		booking.WithPublisher(bus),
		booking.WithLogger(&logger),
	)

	server := api.NewHTTPServer(api.Options{
		Address:          cfg.Server.Address,
		ReadTimeout:      cfg.ReadTimeout(),
		WriteTimeout:     cfg.WriteTimeout(),
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RatePerSecond:    cfg.RateLimit.RequestsPerSecond,
		RateBurst:        cfg.RateLimit.Burst,
		TrustedProxies:   cfg.RateLimit.TrustedProxies,
	}, api.Deps{
		Store:    database,
		Engine:   engine,
		Booking:  bookings,
		Verifier: verifier,
		Exporter: audit.NewExporter(database, &logger),
	}, &logger)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.GRPCHealthPort > 0 {
		go startGRPCHealthServer(ctx, cfg.Monitoring.GRPCHealthPort, database, &logger)
	}

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backups := db.NewBackupService(database, db.BackupConfig{
			Enabled:       true,
			Interval:      cfg.BackupInterval(),
			StoragePath:   cfg.Backup.Path,
			RetentionDays: cfg.Backup.RetentionDays,
		}, &logger)
		go backups.Start(ctx)
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api server error")
			stop()
		}
	}()
	logger.Info().
		Str("address", cfg.Server.Address).
		Str("driver", cfg.Database.Driver).
		Str("session_backend", cfg.Session.Backend).
		Strs("notifiers", dispatcher.Senders()).
		Msg("Reservation service started")

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("pending notifications dropped")
	}
	// Connections go only after the dispatcher has drained.
	closeSenders()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

func newVerifier(cfg *config.Config, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) session.Verifier {
	var verifier session.Verifier
	switch cfg.Session.Backend {
	case config.SessionJWT:
		verifier = session.NewJWTVerifier(cfg.Session.JWTSecret, cfg.Session.JWTIssuer)
	default:
		verifier = session.NewSQLVerifier(database, nil)
	}
	if rdb != nil {
		verifier = session.NewCachedVerifier(verifier, rdb, cfg.SessionCacheTTL(), logger)
	}
	return verifier
}

// newDispatcher builds the enabled senders. A sender that fails to start is
// logged and skipped; notifications never block startup. The returned func
// releases sender connections and must run after the dispatcher is closed.
func newDispatcher(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*notify.Dispatcher, func()) {
	var senders []notify.Sender
	var closers []func()

	if cfg.Notify.AMQP.Enabled {
		s, err := notify.DialAMQP(cfg.Notify.AMQP.URL, cfg.Notify.AMQP.Exchange)
		if err != nil {
			logger.Error().Err(err).Msg("amqp notifier disabled")
		} else {
			senders = append(senders, s)
			closers = append(closers, s.Close)
		}
	}

	if cfg.Notify.Telegram.Enabled {
		s, err := notify.NewTelegramSender(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatIDs, cfg.Notify.Telegram.Debug)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier disabled")
		} else {
			senders = append(senders, s)
		}
	}

	if cfg.Notify.Sheets.Enabled {
		s, err := notify.NewSheetsSender(ctx, cfg.Notify.Sheets.CredentialsFile, cfg.Notify.Sheets.SpreadsheetID, cfg.Notify.Sheets.SheetName)
		if err != nil {
			logger.Error().Err(err).Msg("sheets notifier disabled")
		} else {
			senders = append(senders, s)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return notify.NewDispatcher(cfg.NotifyTimeout(), logger, senders...), closeAll
}

func startHealthServer(ctx context.Context, port int, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
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

// startGRPCHealthServer serves grpc.health.v1 for orchestrators that probe
// over gRPC. Status follows a periodic database ping.
func startGRPCHealthServer(ctx context.Context, port int, database *db.DB, logger *zerolog.Logger) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Error().Err(err).Msg("grpc health listen error")
		return
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			ctxPing, cancel := context.WithTimeout(ctx, time.Second)
			status := healthpb.HealthCheckResponse_SERVING
			if err := database.PingContext(ctxPing); err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			cancel()
			hs.SetServingStatus("", status)

			select {
			case <-ctx.Done():
				hs.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
			}
		}
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		logger.Error().Err(err).Msg("grpc health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
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
