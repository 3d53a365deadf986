// Command local plays tic-tac-toe in the terminal, either hotseat or against the computer.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/local"
)

func main() {
	mode := flag.String("mode", local.ModeComputer, "hotseat or computer")
	mark := flag.String("mark", entity.PlayerX, "your mark against the computer (X or O)")
	delay := flag.Duration("delay", local.DefaultComputerDelay, "pause before the computer moves")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, *mode, strings.ToUpper(*mark), *delay); err != nil {
		fmt.Fprintf(os.Stderr, "local game failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, mode, mark string, delay time.Duration) error {
	session, err := local.NewSession(mode, mark, delay)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	scanner := bufio.NewScanner(in)

	for {
		state := session.State()
		printBoard(out, state.Board)

		if state.Over {
			printResult(out, state)
			fmt.Fprint(out, "play again? [y/N] ")

			if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
				return scanner.Err()
			}

			session.Reset()
			continue
		}

		if session.ComputerToMove() {
			fmt.Fprintln(out, "computer is thinking...")

			move, err := session.ComputerMove(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "computer plays %d\n", move)
			continue
		}

		fmt.Fprintf(out, "%s to move (0-8, q to quit): ", state.Turn)

		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "q" {
			return nil
		}

		index, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintf(out, "%q is not a cell\n", input)
			continue
		}

		if err = session.Play(index); err != nil {
			fmt.Fprintln(out, err)
		}
	}
}

func printBoard(out io.Writer, board [entity.BoardSize]string) {
	for row := range 3 {
		cells := make([]string, 3)
		for col := range 3 {
			index := row*3 + col
			cells[col] = board[index]
			if cells[col] == entity.EmptyCell {
				cells[col] = strconv.Itoa(index)
			}
		}

		fmt.Fprintf(out, " %s \n", strings.Join(cells, " | "))
		if row < 2 {
			fmt.Fprintln(out, "---+---+---")
		}
	}
}

func printResult(out io.Writer, state local.State) {
	if state.Result == entity.ResultDraw {
		fmt.Fprintln(out, "draw")
		return
	}

	fmt.Fprintf(out, "%s wins on %v\n", state.Winner, state.Combo)
}
