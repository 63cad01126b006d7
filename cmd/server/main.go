package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/audit"
	auditrepo "ordayna/backend/internal/audit/repository"
	authhandler "ordayna/backend/internal/auth/handler"
	authservice "ordayna/backend/internal/auth/service"
	"ordayna/backend/internal/config"
	"ordayna/backend/internal/db"
	healthhandler "ordayna/backend/internal/health/handler"
	homeworkhandler "ordayna/backend/internal/homework/handler"
	homeworkrepo "ordayna/backend/internal/homework/repository"
	institutionhandler "ordayna/backend/internal/institution/handler"
	institutionrepo "ordayna/backend/internal/institution/repository"
	"ordayna/backend/internal/revocation"
	schoolhandler "ordayna/backend/internal/school/handler"
	schoolrepo "ordayna/backend/internal/school/repository"
	"ordayna/backend/internal/security"
	"ordayna/backend/internal/server"
	"ordayna/backend/internal/telemetry/otel"
	timetablehandler "ordayna/backend/internal/timetable/handler"
	timetablerepo "ordayna/backend/internal/timetable/repository"
	userhandler "ordayna/backend/internal/user/handler"
	userrepo "ordayna/backend/internal/user/repository"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "ordayna-backend", false)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry")
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer conn.Close()

	// Revocation rides on Redis when configured; a single-process deploy can
	// run on the in-memory ledger.
	var ledger revocation.Ledger
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		ledger = revocation.NewRedisLedger(redisClient)
	} else {
		mem := revocation.NewMemoryLedger()
		defer mem.Stop()
		ledger = mem
		log.Warn().Msg("REDIS_ADDR not set, revocations are not shared across instances")
	}

	tokens := security.NewTokenProvider(
		cfg.JWTSecret,
		cfg.JWTIssuer,
		cfg.JWTAudience,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(conn)
	institutions := institutionrepo.NewPostgresRepository(conn)
	school := schoolrepo.NewPostgresRepository(conn)
	timetable := timetablerepo.NewPostgresRepository(conn)
	homework := homeworkrepo.NewPostgresRepository(conn)

	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(conn), log)
	auth := authservice.NewAuthService(tokens, hasher, ledger, users, log)
	secure := cfg.SecureCookies()

	var cachePinger healthhandler.Pinger
	if redisClient != nil {
		cachePinger = redisPinger{redisClient}
	}

	srv, err := server.New(cfg.HTTPAddr, server.Deps{
		Auth:         auth,
		AuthHandler:  authhandler.NewHTTP(auth, auditLog, secure, log),
		UserHandler:  userhandler.NewHTTP(users, auth, hasher, institutions, auditLog, secure, log),
		Institutions: institutionhandler.NewHTTP(institutions, users, auditLog, log),
		School:       schoolhandler.NewHTTP(school, institutions, log),
		Timetable:    timetablehandler.NewHTTP(timetable, school, institutions, log),
		Homework:     homeworkhandler.NewHTTP(homework, school, institutions, log),
		Health:       healthhandler.NewHTTP(conn, cachePinger),
		Meter:        providers.MeterProvider.Meter("ordayna-backend"),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("server")
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("http server stopped")
}

// redisPinger adapts the Redis client to the health handler's Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
