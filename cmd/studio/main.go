package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"portraitstudio/internal/auth"
	"portraitstudio/internal/http/handlers"
	httpapi "portraitstudio/internal/http/httpapi"
	"portraitstudio/internal/infra"
	"portraitstudio/internal/notify"
	"portraitstudio/internal/portrait"
	imageprovider "portraitstudio/internal/providers/image"
	"portraitstudio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	flush := infra.InitSentry(cfg, logger)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := imageprovider.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("image provider init failed")
	}
	store, err := storage.NewFileStore(cfg.DownloadDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.DownloadDir).Msg("download dir unavailable")
	}

	verifier := auth.NewTokenVerifier(cfg.SupabaseJWTSecret)
	provider, err := auth.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey, verifier)
	if err != nil {
		logger.Fatal().Err(err).Msg("supabase init failed")
	}

	hub := notify.NewHub(notify.NewCatalog(), cfg.DefaultLocale, logger)
	opts := portrait.Options{
		Generator: generator,
		Fetcher:   portrait.NewHTTPFetcher(nil),
		Saver:     store,
		Notifier:  hub,
		Logger:    &logger,
	}
	if cfg.SentryDSN != "" {
		opts.Reporter = sentry.CurrentHub()
	}
	studio, err := portrait.New(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("studio init failed")
	}

	session := auth.NewSession()
	binding := auth.Bind(session, studio)
	defer binding.Close()

	app := handlers.NewApp(studio, auth.NewAuthenticator(session, provider, logger), hub, logger)
	app.GenerateTimeout = cfg.GenerateTimeout
	app.AllowedOrigins = cfg.CORSAllowedOrigins

	router := httpapi.NewRouter(app, logger, httpapi.Options{
		Verifier:       verifier,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DefaultLocale:  cfg.DefaultLocale,
	})
	server := infra.NewHTTPServer(cfg, router, logger)
	logger.Info().Str("provider", cfg.ImageProvider).Str("download_dir", store.BasePath()).Msg("portrait studio starting")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
}
