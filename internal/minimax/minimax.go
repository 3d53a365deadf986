// Package minimax picks moves for the computer opponent by searching the whole game tree.
package minimax

import (
	"errors"
	"math"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	winScore  = 10
	lossScore = -10
	drawScore = 0
)

var (
	ErrInvalidMark = errors.New("mark must be X or O")
	ErrNoMoves     = errors.New("no moves left")
)

// BestMove returns the cell aiMark should play next.
// Ties go to the lowest cell index.
func BestMove(board [entity.BoardSize]string, aiMark string) (int, error) {
	move, _, err := search(board, aiMark)
	return move, err
}

// Score returns the value of the position for aiMark, assuming aiMark moves next and both sides play perfectly.
func Score(board [entity.BoardSize]string, aiMark string) (int, error) {
	_, score, err := search(board, aiMark)
	return score, err
}

func search(board [entity.BoardSize]string, aiMark string) (int, int, error) {
	if !entity.IsMark(aiMark) {
		return -1, 0, ErrInvalidMark
	}

	if entity.Evaluate(board) != nil || entity.IsFull(board) {
		return -1, 0, ErrNoMoves
	}

	bestMove, bestScore := -1, math.MinInt
	for cell := range board {
		if board[cell] != entity.EmptyCell {
			continue
		}

		board[cell] = aiMark
		score := minimax(board, aiMark, entity.Opponent(aiMark))
		board[cell] = entity.EmptyCell

		if score > bestScore {
			bestMove, bestScore = cell, score
		}
	}

	return bestMove, bestScore, nil
}

func minimax(board [entity.BoardSize]string, aiMark, toMove string) int {
	if win := entity.Evaluate(board); win != nil {
		if win.Player == aiMark {
			return winScore
		}
		return lossScore
	}

	if entity.IsFull(board) {
		return drawScore
	}

	maximizing := toMove == aiMark

	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}

	for cell := range board {
		if board[cell] != entity.EmptyCell {
			continue
		}

		board[cell] = toMove
		score := minimax(board, aiMark, entity.Opponent(toMove))
		board[cell] = entity.EmptyCell

		if maximizing && score > best || !maximizing && score < best {
			best = score
		}
	}

	return best
}
