package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth/jwt"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/config"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/game"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/logging"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/metrics"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/quiz"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/room"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/server"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/standings"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/validation"
	ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	roomSvc        *room.Service
	broadcaster    *standings.Broadcaster
	snapshotWorker *standings.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	pool, err := pgxpool.New(ctx, cfg.Postgres.ConnString()+" pool_max_conns=10")
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	gameRepo := repository.NewGameRepository(pool)
	standingsRepo := repository.NewStandingsRepository(pool)

	m := metrics.New()
	validate := validation.New()
	wsHub := ws.NewHub(logger)

	authSvc := auth.NewService(userRepo, jwt.Config{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	}, logger)

	var oauthSvc *auth.OAuthService
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		redirectURL := cfg.OAuth.GoogleRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/v1/oauth/google/callback", cfg.HTTPAddr)
		}
		oauthSvc = auth.NewOAuthService(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, redirectURL, logger)
		logger.Info().Msg("OAuth service initialized")
	} else {
		logger.Warn().Msg("OAuth not configured (missing GOOGLE_OAUTH_CLIENT_ID or GOOGLE_OAUTH_CLIENT_SECRET)")
	}
	authHandlers := auth.NewHTTPHandlers(authSvc, oauthSvc, validate, logger)

	quizSvc := quiz.NewService(quizRepo, quiz.NewCache(redisClient, 0), logger)
	quizHandlers := quiz.NewHTTPHandlers(quizSvc, validate, logger)

	standingsSvc := standings.NewService(redisClient, logger, standings.Options{
		SnapshotTopLimit: cfg.Standings.SnapshotTopN,
	})
	broadcaster := standings.NewBroadcaster(redisClient, wsHub, "", logger)
	var snapshotWorker *standings.SnapshotWorker
	if cfg.Standings.SnapshotInterval > 0 {
		snapshotWorker = standings.NewSnapshotWorker(standingsSvc, standingsRepo, cfg.Standings.SnapshotInterval, logger)
	}
	standingsHandler := standings.NewHTTPHandler(standingsSvc, standingsRepo, logger)

	recorder := game.NewRecorder(gameRepo, standingsSvc, logger)
	gameHandlers := game.NewHTTPHandlers(gameRepo, logger)

	registry := room.NewRegistry(logger)
	roomSvc := room.NewService(registry, quizSvc, wsHub, recorder, m, logger, room.Options{
		Capacity:         cfg.Room.Capacity,
		QuestionDuration: cfg.Room.QuestionDuration,
		MinDuration:      cfg.Room.MinDuration,
		MaxDuration:      cfg.Room.MaxDuration,
		CompletedGrace:   cfg.Room.CompletedGrace,
		SweepInterval:    cfg.Room.SweepInterval,
		StaleAge:         cfg.Room.StaleAge,
	})
	roomHandler := room.NewHandler(roomSvc, wsHub, logger)

	ready := func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}

	apiServer := server.NewHTTPServer(cfg, logger, authSvc, server.Handlers{
		Auth:      authHandlers,
		Quiz:      quizHandlers,
		Standings: standingsHandler,
		Games:     gameHandlers,
		Room:      roomHandler,
	}, ready)

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		roomSvc:        roomSvc,
		broadcaster:    broadcaster,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 3),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("standings broadcaster stopped")
			}
		}()
	}

	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("standings snapshot worker stopped")
			}
		}()
	}

	if a.roomSvc != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go a.roomSvc.RunSweeper(bgCtx)
	}
}
