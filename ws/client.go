package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairs-server/auth"
	"pairs-server/game"
	"pairs-server/matcherrors"
	"pairs-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// MaxNameLength bounds display names chosen in start_game.
	MaxNameLength = 24
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Name   string
	UserID string // set after a successful auth message

	mu   sync.Mutex
	game *game.Game
}

// CurrentGame returns the client's game, or nil.
func (c *Client) CurrentGame() *game.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game
}

// SetGame assigns the client's current game.
func (c *Client) SetGame(g *game.Game) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.game = g
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("websocket read error", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "auth":
		c.handleAuth(envelope.Raw)
	case "start_game":
		c.handleStartGame(envelope.Raw)
	case "flip_card":
		c.handleFlipCard(envelope.Raw)
	case "play_again":
		c.startGame()
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	if !c.Hub.Verifier.Enabled() {
		c.sendError("Server auth not configured.")
		return
	}
	claims, err := c.Hub.Verifier.ValidateToken(msg.Token)
	if err != nil {
		c.Hub.logger.Info("auth rejected", "err", err)
		c.sendError("Authentication failed.")
		return
	}
	c.UserID = auth.UserIDFromClaims(claims)
	c.Name = auth.DisplayNameFromClaims(claims, c.Hub.Config.PlayerName)
	wsutil.SendJSON(c.Send, AuthOKMsg{Type: "auth_ok", Name: c.Name})
}

func (c *Client) handleStartGame(raw json.RawMessage) {
	var msg StartGameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start_game message.")
		return
	}
	if name := strings.TrimSpace(msg.Name); name != "" {
		if len(name) > MaxNameLength {
			c.sendError(fmt.Sprintf("Name must be between 1 and %d characters.", MaxNameLength))
			return
		}
		c.Name = name
	}
	c.startGame()
}

// startGame serves both start_game and play_again.
func (c *Client) startGame() {
	if g := c.CurrentGame(); g != nil && !g.Finished() {
		c.sendError("Cannot start a new game while in an active game.")
		return
	}
	if c.Name == "" {
		c.Name = c.Hub.Config.PlayerName
	}
	if _, err := c.Hub.Matchmaker.StartGame(c); err != nil {
		c.Hub.logger.Error("start game failed", "err", err)
		c.sendError("Could not start a game.")
	}
}

func (c *Client) handleFlipCard(raw json.RawMessage) {
	g := c.CurrentGame()
	if g == nil {
		c.sendError("You are not in a game.")
		return
	}

	var msg FlipCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid flip_card message.")
		return
	}

	if err := g.Flip(msg.Index); errors.Is(err, matcherrors.ErrGameFinished) {
		c.sendError("The game is over.")
	}
}

func (c *Client) sendError(message string) {
	wsutil.SendJSON(c.Send, ErrorMsg{Type: "error", Message: message})
}
