package usecase

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Inbound actions.
const (
	ActionQuickplay  = "quickplay"
	ActionCreateRoom = "createRoom"
	ActionJoinRoom   = "joinRoom"
	ActionSetReady   = "setReady"
	ActionPlayMove   = "playMove"
	ActionRematch    = "rematch"
	ActionLeaveRoom  = "leaveRoom"
)

// Outbound actions.
const (
	ActionRoomCreated   = "roomCreated"
	ActionRoomUpdate    = "roomUpdate"
	ActionMatchReady    = "matchReady"
	ActionGameStart     = "gameStart"
	ActionBoardUpdate   = "boardUpdate"
	ActionGameOver      = "gameOver"
	ActionInvalidMove   = "invalidMove"
	ActionErrorMsg      = "errorMsg"
	ActionOpponentLeft  = "opponentLeft"
	ActionRematchUpdate = "rematchUpdate"
)

const opponentLeftMessage = "Your opponent left the room"

// Outbound is a message addressed to a set of connections.
type Outbound struct {
	Action  string
	To      []string
	Payload any
}

type RoomCreatedPayload struct {
	RoomID string `json:"roomId"`
}

type BoardUpdatePayload struct {
	Board [entity.BoardSize]string `json:"board"`
	Turn  string                   `json:"turn"`
}

type GameOverPayload struct {
	Result string           `json:"result"`
	Winner string           `json:"winner,omitempty"`
	Combo  []int            `json:"combo,omitempty"`
	Room   *entity.RoomView `json:"room"`
}

// MatchResult turns a finished match into the record handed to the result publisher.
func (that GameOverPayload) MatchResult(finishedAt time.Time) entity.MatchResult {
	result := entity.MatchResult{
		Result:     that.Result,
		Winner:     that.Winner,
		Combo:      that.Combo,
		FinishedAt: finishedAt,
	}

	if that.Room != nil {
		result.RoomID = that.Room.RoomID
		result.Players = that.Room.Players
	}

	return result
}

type OpponentLeftPayload struct {
	Message string           `json:"message"`
	Room    *entity.RoomView `json:"room,omitempty"`
}

type RematchUpdatePayload struct {
	Votes int `json:"votes"`
}

type InvalidMovePayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
