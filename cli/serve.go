package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pairs-server/api"
	"pairs-server/auth"
	"pairs-server/config"
	"pairs-server/events"
	"pairs-server/game"
	"pairs-server/matchmaking"
	"pairs-server/storage"
	"pairs-server/ws"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve games over WebSocket and the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				cfg.WSPort = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (env: WS_PORT)")

	return cmd
}

// Deps are the optional backends a server runs with. Nil fields are disabled.
type Deps struct {
	Store    storage.HistoryStore
	Events   game.TelemetrySink
	Verifier *auth.Verifier
}

// NewHandler builds the matchmaker, websocket hub and HTTP routes. The hub
// and every game stop when ctx is cancelled.
func NewHandler(ctx context.Context, cfg *config.Config, deps Deps) (http.Handler, *matchmaking.Matchmaker) {
	verifier := deps.Verifier
	if verifier == nil {
		verifier = auth.NewVerifier("")
	}
	mm := matchmaking.NewMatchmaker(ctx, cfg, deps.Store, deps.Events)
	hub := ws.NewHub(cfg, mm, verifier)
	go hub.Run(ctx)

	h := api.NewHandler(cfg, deps.Store, mm, verifier)
	return api.NewRouter(h, http.HandlerFunc(hub.ServeWS)), mm
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default().With("tag", "cli")
	var deps Deps

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	if store != nil {
		defer store.Close()
		deps.Store = store
	} else {
		logger.Info("DATABASE_URL not set; match history disabled")
	}

	if cfg.NatsURL != "" {
		nc, err := events.Connect(cfg.NatsURL, "pairs-server")
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Drain()
		deps.Events = events.NewPublisher(nc, cfg.NatsSubject)
		logger.Info("publishing match events", "subject", cfg.NatsSubject)
	}

	deps.Verifier = auth.NewVerifier(cfg.NeonAuthBaseURL)
	if !deps.Verifier.Enabled() {
		logger.Info("NEON_AUTH_BASE_URL not set; websocket auth disabled, history API will reject requests")
	}

	handler, _ := NewHandler(ctx, cfg, deps)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WSPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server listening", "addr", srv.Addr,
		"reveal_delay", cfg.RevealDelay(), "game_over_delay", cfg.GameOverDelay(), "first_pick_pool", cfg.FirstPickPool)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
