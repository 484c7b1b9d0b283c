package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pairs-server/ai"
	"pairs-server/config"
	"pairs-server/game"
	"pairs-server/random"
)

func newPlayCmd() *cobra.Command {
	var (
		seed int64
		pool string
		name string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pool != "" {
				cfg.FirstPickPool = ai.ParsePool(pool).String()
			}
			if name != "" {
				cfg.PlayerName = name
			}
			var rng random.Random = random.New()
			if seed != 0 {
				rng = random.NewSeeded(seed)
			}
			return runPlay(cmd.Context(), cfg, rng, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the shuffle and the opponent (0: random)")
	cmd.Flags().StringVar(&pool, "pool", "", "Opponent first-pick pool: unseen or enabled (env: FIRST_PICK_POOL)")
	cmd.Flags().StringVar(&name, "name", "", "Your display name (env: PLAYER_NAME)")

	return cmd
}

// runPlay plays one game reading card numbers from in. It returns when the
// game ends, the player quits or in is exhausted.
func runPlay(ctx context.Context, cfg *config.Config, rng random.Random, in io.Reader, out io.Writer) error {
	term := newTerminal(out, cfg.PlayerName, cfg.OpponentName)
	hooks := game.Hooks{Renderer: term, Display: term, Shell: term}
	g := game.NewGame(uuid.NewString(), cfg, hooks, rng, slog.Default())
	g.OnState = term.RenderBoard

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go g.Run(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-g.Done:
				return
			}
		}
	}()

	for {
		select {
		case <-g.Done:
			return g.Controller.Err()
		case line, ok := <-lines:
			if !ok || line == "q" {
				g.Disconnect()
				<-g.Done
				term.println("bye")
				return nil
			}
			if line == "" {
				continue
			}
			idx, err := strconv.Atoi(line)
			if err != nil || idx < 0 || idx >= game.DeckSize {
				term.println("enter a card number 0-15, or q")
				continue
			}
			if err := g.Flip(idx); err != nil {
				return nil
			}
		}
	}
}
