package apperror

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrNotInRoom         = errors.New("you are not in this room")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrInvalidCell       = errors.New("invalid cell")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrGameNotFinished   = errors.New("game is not finished")
	ErrMatchInProgress   = errors.New("match already in progress")
)

// IsMoveRejection reports whether err is a rule violation of a move, as opposed to a bad room reference.
func IsMoveRejection(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrInvalidCell) ||
		errors.Is(err, ErrGameNotInProgress)
}
