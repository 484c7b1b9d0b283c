package ws

import (
	"pairs-server/game"
	"pairs-server/wsutil"
)

// View forwards one game's state to a client. It is the game's SessionShell
// and, through PushState, its state listener.
type View struct {
	client *Client
	gameID string

	last game.StateMsg
}

// Ensure *View implements game.SessionShell
var _ game.SessionShell = (*View)(nil)

// NewView creates a View pushing to c.
func NewView(c *Client, gameID string) *View {
	return &View{client: c, gameID: gameID}
}

// PushState sends a game_state message. Suitable for game.Game.OnState.
func (v *View) PushState(st game.StateMsg) {
	v.last = st
	wsutil.SendJSON(v.client.Send, st)
}

// OnGameWon sends game_over with won=true.
func (v *View) OnGameWon() { v.sendGameOver(true) }

// OnGameLost sends game_over with won=false.
func (v *View) OnGameLost() { v.sendGameOver(false) }

func (v *View) sendGameOver(won bool) {
	result := game.PlayerWins.String()
	if !won {
		result = game.OpponentWins.String()
	}
	wsutil.SendJSON(v.client.Send, GameOverMsg{
		Type:          "game_over",
		GameID:        v.gameID,
		Won:           won,
		Result:        result,
		PlayerScore:   v.last.PlayerScore,
		OpponentScore: v.last.OpponentScore,
	})
}
