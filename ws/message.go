package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg is sent by the client with a Neon Auth JWT before starting a game.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// StartGameMsg starts a game against the opponent. Name is optional.
type StartGameMsg struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// FlipCardMsg is sent by the client to flip a card.
type FlipCardMsg struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AuthOKMsg confirms a validated token.
type AuthOKMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// GameStartedMsg is sent when a new game is created, before its first game_state.
type GameStartedMsg struct {
	Type         string `json:"type"`
	GameID       string `json:"gameId"`
	PlayerName   string `json:"playerName"`
	OpponentName string `json:"opponentName"`
	Cards        int    `json:"cards"`
	YourTurn     bool   `json:"yourTurn"`
}

// GameOverMsg is sent once, after the game-over delay.
type GameOverMsg struct {
	Type          string `json:"type"`
	GameID        string `json:"gameId"`
	Won           bool   `json:"won"`
	Result        string `json:"result"`
	PlayerScore   int    `json:"playerScore"`
	OpponentScore int    `json:"opponentScore"`
}
