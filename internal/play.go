package application

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/stats"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

const quitCommand = "q"

// Play - hot-seat games on in-memory stores. Each input line is a cell 0-8 for the player
// to move; "q" or EOF ends the session and prints the stats.
func Play(ctx context.Context, logger *slog.Logger, drawPolicy stats.DrawPolicy, in io.Reader, out io.Writer) error {
	gameManager := usecase.NewGameManager(
		logger,
		tictactoe.New(),
		repository.NewMemoryGameRepository(),
		repository.NewMemoryLocker(time.Second),
		stats.NewAggregator(repository.NewMemoryStatRepository(), drawPolicy),
		nil,
		metrics.New(),
	)

	game, err := gameManager.CreateGame(ctx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	printBoard(out, game)

	for {
		fmt.Fprintf(out, "%s to move (0-8, q to quit): ", game.CurrentPlayer)

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == quitCommand {
			break
		}

		position, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintf(out, "not a number: %q\n", line)
			continue
		}

		next, err := gameManager.MakeMove(ctx, game.ID, position, game.CurrentPlayer)
		if err != nil {
			if isRuleViolation(err) {
				fmt.Fprintln(out, unwrapRule(err))
				continue
			}

			return err
		}

		game = next
		printBoard(out, game)

		if !game.IsFinished() {
			continue
		}

		printOutcome(out, game)

		if game, err = gameManager.CreateGame(ctx); err != nil {
			return err
		}

		fmt.Fprintln(out, "new game")
		printBoard(out, game)
	}

	if err = scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	playerStats, err := gameManager.ListStats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	PrintStats(out, playerStats)

	return nil
}

var ruleErrors = []error{
	apperror.ErrInvalidPosition,
	apperror.ErrNotPlayersTurn,
	apperror.ErrPositionOccupied,
	apperror.ErrGameAlreadyFinished,
}

func isRuleViolation(err error) bool {
	for _, ruleErr := range ruleErrors {
		if errors.Is(err, ruleErr) {
			return true
		}
	}

	return false
}

func unwrapRule(err error) error {
	for _, ruleErr := range ruleErrors {
		if errors.Is(err, ruleErr) {
			return ruleErr
		}
	}

	return err
}

func printBoard(out io.Writer, game *entity.Game) {
	for row := range 3 {
		cells := make([]string, 3)
		for col := range 3 {
			position := row*3 + col

			cells[col] = string(game.Board[position])
			if game.Board[position] == entity.EmptyCell {
				cells[col] = strconv.Itoa(position)
			}
		}

		fmt.Fprintf(out, " %s\n", strings.Join(cells, " | "))
		if row < 2 {
			fmt.Fprintln(out, "---+---+---")
		}
	}
}

func printOutcome(out io.Writer, game *entity.Game) {
	if game.IsDraw {
		fmt.Fprintln(out, "draw")
		return
	}

	_, pattern := tictactoe.Winner(game.Board)
	fmt.Fprintf(out, "%s wins (%s)\n", game.Winner, entity.WinComboNames[pattern])
}

// PrintStats - one row per counter key.
func PrintStats(out io.Writer, playerStats []entity.PlayerStat) {
	fmt.Fprintf(out, "%-8s %6s %6s %6s %6s\n", "player", "wins", "losses", "draws", "total")

	for _, stat := range playerStats {
		fmt.Fprintf(out, "%-8s %6d %6d %6d %6d\n", stat.PlayerName, stat.Wins, stat.Losses, stat.Draws, stat.TotalGames)
	}
}
