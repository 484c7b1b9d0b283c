package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pairs-server/cli"
	"pairs-server/config"
	"pairs-server/game"
)

// setupTestServerWithConfig creates a test HTTP server with the full stack and no backends.
func setupTestServerWithConfig(t *testing.T, cfg *config.Config) (*httptest.Server, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	handler, _ := cli.NewHandler(ctx, cfg, cli.Deps{})

	server := httptest.NewServer(handler)
	cleanup := func() {
		server.Close()
		cancel()
	}
	return server, cleanup
}

// setupTestServer creates a test server with millisecond delays.
func setupTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()

	cfg := config.Defaults()
	cfg.RevealDelayMS = 5
	cfg.GameOverDelayMS = 5
	return setupTestServerWithConfig(t, cfg)
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

// readMsg reads a JSON message from the WebSocket and returns it as a map.
func readMsg(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v\ndata: %s", err, string(data))
	}
	return msg
}

// sendMsg sends a JSON message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msg interface{}) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

// playerCanFlip reports whether a game_state message is waiting on the human.
func playerCanFlip(msg map[string]interface{}) bool {
	return msg["turn"] == "player" && (msg["phase"] == "idle" || msg["phase"] == "awaiting_second_flip")
}

// firstHiddenCard returns the lowest face-down card still in play.
func firstHiddenCard(t *testing.T, msg map[string]interface{}) int {
	t.Helper()
	for _, raw := range msg["cards"].([]interface{}) {
		card := raw.(map[string]interface{})
		if card["faceUp"] == false && card["disabled"] == false {
			return int(card["index"].(float64))
		}
	}
	t.Fatal("no hidden card to flip")
	return -1
}

func TestIntegration_FullGame(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "start_game", "name": "Alice"})

	started := readMsg(t, conn)
	if started["type"] != "game_started" {
		t.Fatalf("expected game_started, got %v", started["type"])
	}
	if started["playerName"] != "Alice" {
		t.Errorf("expected playerName Alice, got %v", started["playerName"])
	}
	gameID := started["gameId"].(string)

	first := readMsg(t, conn)
	if first["type"] != "game_state" {
		t.Fatalf("expected game_state, got %v", first["type"])
	}
	if n := len(first["cards"].([]interface{})); n != game.DeckSize {
		t.Errorf("expected %d cards, got %d", game.DeckSize, n)
	}
	for _, raw := range first["cards"].([]interface{}) {
		if _, ok := raw.(map[string]interface{})["pictureId"]; ok {
			t.Fatal("face-down card exposed its picture")
		}
	}

	msg := first
	var last map[string]interface{}
	for steps := 0; ; steps++ {
		if steps > 2000 {
			t.Fatal("game did not finish")
		}
		switch msg["type"] {
		case "game_state":
			last = msg
			if playerCanFlip(msg) {
				sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "index": firstHiddenCard(t, msg)})
			}
		case "game_over":
			won := msg["won"].(bool)
			ps := last["playerScore"].(float64)
			os := last["opponentScore"].(float64)
			if ps+os != game.NumPairs {
				t.Errorf("scores %v + %v do not add up to %d", ps, os, game.NumPairs)
			}
			if won != (ps >= os) {
				t.Errorf("won=%v with score %v:%v", won, ps, os)
			}
			if last["phase"] != "game_over" {
				t.Errorf("expected final phase game_over, got %v", last["phase"])
			}

			resp, err := http.Get(server.URL + "/api/games/" + gameID)
			if err != nil {
				t.Fatalf("GET game: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200 for finished game, got %d", resp.StatusCode)
			}
			var st game.StateMsg
			if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
				t.Fatalf("decode state: %v", err)
			}
			if st.PairsRemaining != 0 || st.Result == "" {
				t.Errorf("unexpected final state: %+v", st)
			}
			return
		case "error":
			t.Fatalf("unexpected error: %v", msg["message"])
		}
		msg = readMsg(t, conn)
	}
}

func TestIntegration_ErrorOnNameTooLong(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	longName := strings.Repeat("a", 25)
	sendMsg(t, conn, map[string]string{"type": "start_game", "name": longName})
	msg := readMsg(t, conn)
	if msg["type"] != "error" {
		t.Fatalf("expected error for long name, got %v", msg["type"])
	}
}

func TestIntegration_FlipCardNotInGame(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "index": 0})
	msg := readMsg(t, conn)
	if msg["type"] != "error" {
		t.Fatalf("expected error for flip_card without game, got %v", msg["type"])
	}
}

func TestIntegration_OutOfTurnFlipIgnored(t *testing.T) {
	cfg := config.Defaults()
	cfg.RevealDelayMS = 300
	server, cleanup := setupTestServerWithConfig(t, cfg)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "start_game"})
	readMsg(t, conn) // game_started
	readMsg(t, conn) // game_state

	sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "index": 0})
	sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "index": 1})
	readMsg(t, conn) // one card up
	evaluating := readMsg(t, conn)
	if evaluating["phase"] != "evaluating" {
		t.Fatalf("expected evaluating, got %v", evaluating["phase"])
	}

	// Rejected while the pair is evaluated: no state change is pushed.
	sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "index": 2})
	next := readMsg(t, conn)
	if next["turn"] != "opponent" {
		t.Fatalf("expected the turn to pass to the opponent, got %v", next["turn"])
	}
	for _, raw := range next["cards"].([]interface{}) {
		card := raw.(map[string]interface{})
		if card["index"].(float64) == 2 && card["faceUp"] == true {
			t.Fatal("card flipped during evaluation")
		}
	}
}

func TestIntegration_PlayAgainRequiresFinishedGame(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "start_game"})
	readMsg(t, conn) // game_started

	sendMsg(t, conn, map[string]string{"type": "play_again"})
	for {
		msg := readMsg(t, conn)
		if msg["type"] == "error" {
			if msg["message"] != "Cannot start a new game while in an active game." {
				t.Errorf("unexpected error: %v", msg["message"])
			}
			return
		}
	}
}

func TestIntegration_Health(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
