// moviebot-actions serves the moviebot actions on the dialogue manager's
// custom-action webhook.
//
// Configuration comes from defaults, an optional YAML file (CONFIG_PATH or
// ./config.yaml) and environment variables such as HTTP_PORT, LOG_LEVEL,
// MOVIEBOT_STORE, OPENAI_API_KEY and REDIS_URL.
//
// Usage:
//
//	go install github.com/goblincore/moviebot/cmd/moviebot-actions
//	moviebot-actions
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goblincore/moviebot/internal/app"
	"github.com/goblincore/moviebot/internal/config"
	"github.com/goblincore/moviebot/internal/logging"
	"github.com/goblincore/moviebot/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "moviebot-actions: config: %v\n", err)
		os.Exit(1)
	}
	app.InitLogging(cfg)

	bot, err := app.NewBot(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("moviebot init")
	}
	defer bot.Close()

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: server.New(bot, server.Config{
			RateLimitReqs:   cfg.Server.RateLimitReqs,
			RateLimitWindow: cfg.Server.RateLimitWindow,
		}).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", srv.Addr).
			Strs("actions", bot.Actions()).
			Str("store", cfg.Store.Driver).
			Str("generator", cfg.Generation.Provider).
			Msg("action server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("action server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("graceful shutdown incomplete")
	}
}
