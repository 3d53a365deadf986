package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

// RunApp - runs the application until SIGINT/SIGTERM or a server failure.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, closePublisher, err := initPublisher(ctx, log, conf.Redis)
	if err != nil {
		return err
	}
	defer closePublisher()

	coordinator := usecase.NewMatchCoordinator(logger, registry.New())
	wsServer := websocket.New(logger, coordinator, publisher, conf.Socket, conf.AllowedOrigins)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if wsErr := wsServer.Run(ctx); wsErr != nil {
			log.Error("WebSocket dispatcher error", "error", wsErr)
		}
	}()

	log.Info("Starting HTTP server", "port", conf.HTTPPort)

	err = rest.Start(ctx, logger, conf.HTTPPort, rest.NewRouter(wsServer, conf.AllowedOrigins))

	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application stopped")

	return nil
}

func initPublisher(ctx context.Context, log *slog.Logger, conf config.Redis) (repository.MatchResultPublisher, func(), error) {
	if !conf.Enabled {
		log.Info("redis disabled, match results are not published")
		return repository.NewDiscardPublisher(), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	log.Info("publishing match results", "channel", conf.Channel)

	return repository.NewMatchResultPublisher(redisStorage.Connection, conf.Channel), closeStorage, nil
}
