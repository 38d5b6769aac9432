package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"renderstudio/internal/bootstrap"
	"renderstudio/internal/http/handlers"
	httpapi "renderstudio/internal/http/httpapi"
	"renderstudio/internal/infra"
	"renderstudio/internal/storage"
	"renderstudio/internal/studio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Build(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise studio")
	}

	exports, err := storage.NewFileStore(cfg.ExportDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare export directory")
	}

	sessions := studio.NewRegistry(studio.RegistryOptions{
		Session:     components.SessionOptions(&logger),
		IdleTimeout: cfg.SessionIdle,
		MaxSessions: cfg.MaxSessions,
	})
	defer sessions.Shutdown()

	app := &handlers.App{
		Sessions:       sessions,
		Catalog:        components.Catalog,
		Exports:        exports,
		Generator:      components.Generator,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		BaseContext:    ctx,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		CORSOrigins:   cfg.CORSOrigins,
		SessionMaxAge: cfg.SessionIdle,
		SecureCookies: cfg.SecureCookies,
	})

	server := infra.NewHTTPServer(ctx, cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("exports", exports.Dir()).Msg("studio listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	cancel()
	app.Wait()
	logger.Info().Msg("server stopped")
}
