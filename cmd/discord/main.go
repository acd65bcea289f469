package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sonora/internal/config"
	"sonora/internal/discord"
	"sonora/internal/logging"
	"sonora/internal/storage"
	"sonora/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "logs")
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, cfg.LogDir)
	log.Info().Str("version", version.Version).Msgf("starting %s", version.AppName)

	store, err := storage.New(cfg.StoragePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- discord.StartBot(ctx, cfg, store, log)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("bot exited with error")
		}
		cancel()
	}

	log.Info().Msg("bot exited cleanly")
}
