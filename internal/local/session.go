// Package local runs offline games: two people on one device, or one person against the computer.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/minimax"
)

const (
	ModeHotseat  = "hotseat"
	ModeComputer = "computer"

	DefaultComputerDelay = 500 * time.Millisecond
)

var (
	ErrUnknownMode  = errors.New("unknown mode")
	ErrComputerTurn = errors.New("it's the computer's turn")
	ErrNotComputer  = errors.New("computer does not move in this mode")
)

// State is a snapshot of a local game.
type State struct {
	Board  [entity.BoardSize]string
	Turn   string
	Over   bool
	Result string
	Winner string
	Combo  []int
}

// Session holds one local game. It is meant to be driven from a single goroutine.
type Session struct {
	mode     string
	human    string
	computer string
	delay    time.Duration

	board  [entity.BoardSize]string
	turn   string
	result string
	win    *entity.Win
}

// NewSession starts a game. In computer mode humanMark picks the human's side; it is ignored for hotseat.
func NewSession(mode, humanMark string, delay time.Duration) (*Session, error) {
	session := &Session{
		mode:  mode,
		delay: delay,
	}

	switch mode {
	case ModeHotseat:
	case ModeComputer:
		if !entity.IsMark(humanMark) {
			return nil, fmt.Errorf("%w: %q", minimax.ErrInvalidMark, humanMark)
		}
		session.human = humanMark
		session.computer = entity.Opponent(humanMark)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	session.Reset()

	return session, nil
}

func (that *Session) Reset() {
	that.board = [entity.BoardSize]string{}
	that.turn = entity.PlayerX
	that.result = ""
	that.win = nil
}

// ComputerToMove reports whether the next move belongs to the computer.
func (that *Session) ComputerToMove() bool {
	return that.mode == ModeComputer && that.result == "" && that.turn == that.computer
}

// Play applies a human move for whoever's turn it is.
func (that *Session) Play(index int) error {
	if that.result != "" {
		return apperror.ErrGameNotInProgress
	}

	if that.ComputerToMove() {
		return ErrComputerTurn
	}

	return that.apply(index)
}

// ComputerMove waits for the pacing delay and then plays the computer's best move.
func (that *Session) ComputerMove(ctx context.Context) (int, error) {
	if that.mode != ModeComputer {
		return -1, ErrNotComputer
	}

	if !that.ComputerToMove() {
		if that.result != "" {
			return -1, apperror.ErrGameNotInProgress
		}
		return -1, apperror.ErrNotYourTurn
	}

	timer := time.NewTimer(that.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return -1, fmt.Errorf("computer move canceled: %w", ctx.Err())
	case <-timer.C:
	}

	move, err := minimax.BestMove(that.board, that.computer)
	if err != nil {
		return -1, fmt.Errorf("failed to pick computer move: %w", err)
	}

	if err = that.apply(move); err != nil {
		return -1, err
	}

	return move, nil
}

func (that *Session) State() State {
	state := State{
		Board:  that.board,
		Turn:   that.turn,
		Over:   that.result != "",
		Result: that.result,
	}

	if that.win != nil {
		combo := that.win.Combo
		state.Winner = that.win.Player
		state.Combo = combo[:]
	}

	return state
}

func (that *Session) apply(index int) error {
	if !entity.IsValidCell(that.board, index) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, index)
	}

	that.board[index] = that.turn

	if win := entity.Evaluate(that.board); win != nil {
		that.win = win
		that.result = entity.ResultWin
		return nil
	}

	if entity.IsFull(that.board) {
		that.result = entity.ResultDraw
		return nil
	}

	that.turn = entity.Opponent(that.turn)

	return nil
}
