package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"pairs-server/auth"
	"pairs-server/config"
	"pairs-server/game"
	"pairs-server/matcherrors"
	"pairs-server/storage"
)

const bearerPrefix = "Bearer "

// snapshotTimeout bounds how long a request waits on a busy game loop.
const snapshotTimeout = 2 * time.Second

// GameLookup finds running or recently finished games by ID.
type GameLookup interface {
	Lookup(id string) (*game.Game, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config       *config.Config
	HistoryStore storage.HistoryStore // optional
	Games        GameLookup
	Verifier     *auth.Verifier

	logger *slog.Logger
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, historyStore storage.HistoryStore, games GameLookup, verifier *auth.Verifier) *Handler {
	return &Handler{
		Config:       cfg,
		HistoryStore: historyStore,
		Games:        games,
		Verifier:     verifier,
		logger:       slog.Default().With("tag", "api"),
	}
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// extractUserID validates the Authorization header and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	claims, err := h.Verifier.ValidateToken(token)
	if err != nil {
		h.logger.Debug("token rejected", "err", err)
		return ""
	}
	return auth.UserIDFromClaims(claims)
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, map[string]string{"status": "ok"})
}

// History returns the finished matches of the authenticated user.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}

	userID := h.extractUserID(r)
	if userID == "" {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	list := []storage.MatchRecord{}
	if h.HistoryStore != nil {
		var err error
		list, err = h.HistoryStore.ListByUserID(r.Context(), userID)
		if err != nil {
			h.logger.Error("ListByUserID failed", "user", userID, "err", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, h.logger, list)
}

// Game returns the player's view of one game.
func (h *Handler) Game(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	g, err := h.Games.Lookup(id)
	if errors.Is(err, matcherrors.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()
	st, err := g.Snapshot(ctx)
	if err != nil {
		h.logger.Warn("snapshot failed", "game", id, "err", err)
		http.Error(w, "game busy", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.logger, st)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response failed", "err", err)
	}
}
