package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/coordinator"
	"github.com/rocketscienceinc/tictactoe-rooms/pkg/handlers"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

const snapshotTimeout = 2 * time.Second

type snapshotter interface {
	Snapshot(ctx context.Context) (coordinator.Snapshot, error)
}

type edgeStats interface {
	Stats() websocket.Stats
}

// Server is the ops endpoint. Either dependency may be nil when the process does not run that role.
type Server struct {
	logger      *slog.Logger
	coordinator snapshotter
	edge        edgeStats
}

func New(logger *slog.Logger, coordinator snapshotter, edge edgeStats) *Server {
	return &Server{
		logger:      logger.With("component", "rest"),
		coordinator: coordinator,
		edge:        edge,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlers.PingHandler)

	if that.coordinator != nil {
		mux.HandleFunc("/state", that.stateHandler)
	}

	if that.edge != nil {
		mux.HandleFunc("/edge", that.edgeHandler)
	}

	return mux
}

func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "stateHandler")

	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()

	snapshot, err := that.coordinator.Snapshot(ctx)
	if err != nil {
		log.Error("failed to take snapshot", "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, snapshot)
}

func (that *Server) edgeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, that.edge.Stats())
}
