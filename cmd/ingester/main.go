package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/config"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/ingest"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/source"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/store"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/web"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	var (
		cfgPath = flag.String("config", "config.yml", "path to YAML config")
		once    = flag.Bool("once", false, "run a single ingestion cycle then exit")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	log.Info().Str("version", Version).Int("sources", len(cfg.Sources)).Msg("Starting ingester")

	db, err := store.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Postgres storage")
	}
	defer db.Close()
	log.Info().Msg("Postgres storage initialized")

	srcs := make([]source.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		s, err := source.NewFromConfig(sc, db)
		if err != nil {
			log.Fatal().Err(err).Str("type", sc.Type).Msg("Failed to build source")
		}
		srcs = append(srcs, s)
		log.Info().Str("source", s.Name()).Msg("Configured source")
	}

	manager := ingest.NewManager(srcs)
	sched := ingest.NewScheduler(manager, cfg.Interval)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		sched.RunNow(ctx)
		return
	}

	srv := web.NewServer(cfg.Web.Addr, sched, db)
	go func() {
		log.Info().Str("addr", cfg.Web.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sched.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
