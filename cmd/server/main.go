package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/DrawQuiz/internal/adapters/auth"
	router "github.com/dkeye/DrawQuiz/internal/adapters/http"
	wssignal "github.com/dkeye/DrawQuiz/internal/adapters/signal"
	"github.com/dkeye/DrawQuiz/internal/adapters/storage"
	"github.com/dkeye/DrawQuiz/internal/adapters/storage/migrations"
	"github.com/dkeye/DrawQuiz/internal/app"
	"github.com/dkeye/DrawQuiz/internal/app/game"
	"github.com/dkeye/DrawQuiz/internal/app/orch"
	"github.com/dkeye/DrawQuiz/internal/config"
	"github.com/dkeye/DrawQuiz/internal/core"
)

const eventBuffer = 256

type directory interface {
	core.Directory
	core.Archive
}

func openDirectory(ctx context.Context, cfg *config.Config) (directory, func(), error) {
	if cfg.PostgresURL == "" {
		log.Warn().Str("module", "main").Msg("postgres_url empty, using in-memory directory")
		return storage.NewMemoryDirectory(), func() {}, nil
	}
	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		return nil, nil, err
	}
	pg, err := storage.NewPostgresDirectory(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open room directory")
	}
	defer closeDir()

	verifier := auth.NewJWTVerifier(cfg.Secret, cfg.TokenTTL)
	broker := app.NewBroker()
	rooms := app.NewRoomService(dir, verifier, broker, app.RandomInviteCodes(cfg.InviteCodeLength), app.RoomOptions{
		DefaultCapacity:    cfg.DefaultCapacity,
		MaxCapacity:        cfg.MaxCapacity,
		InviteCodeAttempts: cfg.InviteCodeAttempts,
	})

	gateway := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    rooms,
		Games:    game.NewStore(cfg.StrokeCacheSize),
		Policy:   app.SimplePolicy{},
		Archive:  dir,
	}
	events, unsubscribe := broker.Subscribe(eventBuffer)
	defer unsubscribe()
	go gateway.Run(ctx, events)

	ws := wssignal.NewSignalWSController(gateway, verifier, wssignal.Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		StrokeRate:     cfg.StrokeRate,
		StrokeBurst:    cfg.StrokeBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	r := router.SetupRouter(ctx, cfg, rooms, verifier, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("DrawQuiz server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
