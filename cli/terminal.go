package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"pairs-server/game"
)

// pictureColors gives each picture its own color on the board.
var pictureColors = []*color.Color{
	color.New(color.FgRed),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
	color.New(color.FgCyan),
	color.New(color.FgHiRed),
	color.New(color.FgHiGreen),
}

var (
	headerColor = color.New(color.FgWhite, color.Bold)
	infoColor   = color.New(color.FgCyan)
	winColor    = color.New(color.FgGreen, color.Bold)
	loseColor   = color.New(color.FgRed, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
)

// terminal renders a game to a text stream. It implements the game's
// Renderer, Display and SessionShell and is safe to call from the game
// goroutine and the input loop at once.
type terminal struct {
	mu           sync.Mutex
	out          io.Writer
	playerName   string
	opponentName string
	owner        game.Side
}

func newTerminal(out io.Writer, playerName, opponentName string) *terminal {
	return &terminal{
		out:          out,
		playerName:   playerName,
		opponentName: opponentName,
	}
}

func (t *terminal) name(s game.Side) string {
	if s == game.Player {
		return t.playerName
	}
	return t.opponentName
}

func pictureColor(pic int) *color.Color {
	return pictureColors[(pic-1)%len(pictureColors)]
}

func (t *terminal) Reveal(c game.Card) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s flips card %d: ", t.name(t.owner), c.Index)
	pictureColor(c.PictureID).Fprintf(t.out, "picture %d\n", c.PictureID)
}

func (t *terminal) Hide(c game.Card) {}

func (t *terminal) Disable(c game.Card) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dimColor.Fprintf(t.out, "card %d removed\n", c.Index)
}

func (t *terminal) ShowTurn(owner game.Side) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owner = owner
	infoColor.Fprintf(t.out, "%s's turn\n", t.name(owner))
}

func (t *terminal) ShowScores(player, opponent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	headerColor.Fprintf(t.out, "%s %d : %d %s\n", t.playerName, player, opponent, t.opponentName)
}

func (t *terminal) ShowResult(o game.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if o == game.PlayerWins {
		winColor.Fprintf(t.out, "%s wins!\n", t.playerName)
	} else {
		loseColor.Fprintf(t.out, "%s wins.\n", t.opponentName)
	}
}

func (t *terminal) OnGameWon()  { t.println("Well played.") }
func (t *terminal) OnGameLost() { t.println("Better luck next time.") }

// RenderBoard prints the 4x4 board. Suitable for game.Game.OnState.
func (t *terminal) RenderBoard(st game.StateMsg) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for i, cv := range st.Cards {
		switch {
		case cv.Disabled:
			b.WriteString(dimColor.Sprint("  .  "))
		case cv.PictureID != nil:
			b.WriteString(pictureColor(*cv.PictureID).Sprintf(" [%d] ", *cv.PictureID))
		default:
			b.WriteString(fmt.Sprintf(" %3d ", i))
		}
		if i%4 == 3 {
			b.WriteString("\n")
		}
	}
	fmt.Fprint(t.out, b.String())
	if st.Turn == game.Player.String() && (st.Phase == game.Idle.String() || st.Phase == game.AwaitingSecondFlip.String()) {
		fmt.Fprint(t.out, "pick a card (q to quit)> ")
	}
}

func (t *terminal) println(a ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, a...)
}
