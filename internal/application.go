package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/bus"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/coordinator"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

// RunApp - runs the roles selected by the config until a signal arrives or one of them fails.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	messageBus, err := newBus(ctx, logger, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = messageBus.Close(); err != nil {
			log.Error("could not close bus", "error", err)
		}
	}()

	errCh := make(chan error, 3)

	var snapshots interface {
		Snapshot(ctx context.Context) (coordinator.Snapshot, error)
	}

	if conf.RunsCoordinator() {
		sessions := coordinator.New(logger, messageBus, messageBus, coordinator.Options{
			RestartTimeout: conf.Session.RestartTimeout,
			WaitTimeout:    conf.Session.WaitTimeout,
			EdgeTTL:        conf.Session.EdgeTTL,
			OutboxSize:     conf.Session.OutboxSize,
		})
		snapshots = sessions

		// run coordinator
		go func() {
			log.Info("Starting coordinator", "bus", conf.Bus.Driver)
			if runErr := sessions.Run(ctx); runErr != nil {
				log.Error("coordinator error", "error", runErr)
				errCh <- fmt.Errorf("coordinator error: %w", runErr)
			}
		}()
	}

	var edgeStats interface {
		Stats() websocket.Stats
	}

	if conf.RunsEdge() {
		edgeID := conf.EdgeID
		if edgeID == "" {
			edgeID = pkg.NewEdgeID()
		}

		wsServer := websocket.New(logger, messageBus, edgeID, websocket.Options{
			HeartbeatInterval: conf.Session.HeartbeatInterval,
		})
		edgeStats = wsServer

		if err = wsServer.Attach(ctx); err != nil {
			return fmt.Errorf("could not attach edge: %w", err)
		}

		// run Websocket server
		go func() {
			log.Info("Starting WebSocket server", "port", conf.SocketPort, "edge", edgeID)
			if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
				log.Error("WebSocket server error", "error", wsErr)
				errCh <- fmt.Errorf("WebSocket server error: %w", wsErr)
			}
		}()
	}

	// run HTTP server
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, snapshots, edgeStats).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
		}
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func newBus(ctx context.Context, logger *slog.Logger, conf *config.Config) (bus.Bus, error) {
	switch conf.Bus.Driver {
	case config.DriverRedis:
		client, err := bus.NewRedisClient(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis: %w", err)
		}
		return bus.NewRedis(logger, client, conf.Bus.Prefix), nil

	default:
		return bus.NewMemory(conf.Session.OutboxSize), nil
	}
}
