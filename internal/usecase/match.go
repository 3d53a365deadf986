package usecase

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type roomRegistry interface {
	Create() string
	Get(id string) (*entity.Room, bool)
	Delete(id string)
	Rooms() []*entity.Room
}

// MatchCoordinator applies client intents to rooms and returns the messages to deliver.
// Handlers never mutate a room when they return an error.
type MatchCoordinator struct {
	logger *slog.Logger
	rooms  roomRegistry
}

func NewMatchCoordinator(logger *slog.Logger, rooms roomRegistry) *MatchCoordinator {
	return &MatchCoordinator{
		logger: logger.With("component", "match"),
		rooms:  rooms,
	}
}

// Quickplay seats the connection in the first room waiting for an opponent, or in a new room.
func (that *MatchCoordinator) Quickplay(connID, name string) ([]Outbound, error) {
	for _, room := range that.rooms.Rooms() {
		if len(room.Players) == 1 && room.IsWaiting() && !room.HasPlayer(connID) {
			return that.join(room, connID, name), nil
		}
	}

	room := that.createRoom()

	return that.join(room, connID, name), nil
}

func (that *MatchCoordinator) CreateRoom(connID, name string) ([]Outbound, error) {
	room := that.createRoom()

	out := []Outbound{{
		Action:  ActionRoomCreated,
		To:      []string{connID},
		Payload: RoomCreatedPayload{RoomID: room.ID},
	}}

	return append(out, that.join(room, connID, name)...), nil
}

func (that *MatchCoordinator) JoinRoom(connID, roomID, name string) ([]Outbound, error) {
	room, ok := that.rooms.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	if !room.HasPlayer(connID) && room.IsFull() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomFull, roomID)
	}

	return that.join(room, connID, name), nil
}

func (that *MatchCoordinator) SetReady(connID, roomID string, ready bool) ([]Outbound, error) {
	room, err := that.seatedRoom(connID, roomID)
	if err != nil {
		return nil, err
	}

	if !room.IsWaiting() && !room.IsWaitingReady() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrMatchInProgress, roomID)
	}

	room.SetReady(connID, ready)

	out := []Outbound{toRoom(room, ActionRoomUpdate, entity.NewRoomView(room))}

	if room.IsWaitingReady() && len(room.ReadySet) == entity.MaxPlayers {
		room.ResetBoard()
		clear(room.RematchVotes)
		room.Status = entity.StatusPlaying

		that.logger.Info("match started", "roomID", room.ID)

		out = append(out, toRoom(room, ActionGameStart, entity.NewRoomView(room)))
	}

	return out, nil
}

func (that *MatchCoordinator) PlayMove(connID, roomID string, index int) ([]Outbound, error) {
	room, ok := that.rooms.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	if !room.IsPlaying() {
		return nil, apperror.ErrGameNotInProgress
	}

	player := room.Player(connID)
	if player == nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotInRoom, roomID)
	}

	if player.Mark != room.Turn {
		return nil, apperror.ErrNotYourTurn
	}

	if !entity.IsValidCell(room.Board, index) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidCell, index)
	}

	room.Board[index] = player.Mark

	if win := entity.Evaluate(room.Board); win != nil {
		room.Status = entity.StatusFinished

		that.logger.Info("match won", "roomID", room.ID, "winner", win.Player)

		combo := win.Combo
		return []Outbound{toRoom(room, ActionGameOver, GameOverPayload{
			Result: entity.ResultWin,
			Winner: win.Player,
			Combo:  combo[:],
			Room:   entity.NewRoomView(room),
		})}, nil
	}

	if entity.IsFull(room.Board) {
		room.Status = entity.StatusFinished

		that.logger.Info("match drawn", "roomID", room.ID)

		return []Outbound{toRoom(room, ActionGameOver, GameOverPayload{
			Result: entity.ResultDraw,
			Room:   entity.NewRoomView(room),
		})}, nil
	}

	room.Turn = entity.Opponent(room.Turn)

	return []Outbound{toRoom(room, ActionBoardUpdate, BoardUpdatePayload{
		Board: room.Board,
		Turn:  room.Turn,
	})}, nil
}

func (that *MatchCoordinator) Rematch(connID, roomID string) ([]Outbound, error) {
	room, err := that.seatedRoom(connID, roomID)
	if err != nil {
		return nil, err
	}

	if !room.IsFinished() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFinished, roomID)
	}

	room.VoteRematch(connID)

	out := []Outbound{toRoom(room, ActionRematchUpdate, RematchUpdatePayload{Votes: len(room.RematchVotes)})}

	if len(room.RematchVotes) == entity.MaxPlayers {
		room.ResetBoard()
		room.Status = entity.StatusPlaying
		clear(room.ReadySet)
		for _, id := range room.ConnectionIDs() {
			room.SetReady(id, true)
		}
		clear(room.RematchVotes)

		that.logger.Info("rematch started", "roomID", room.ID)

		out = append(out, toRoom(room, ActionGameStart, entity.NewRoomView(room)))
	}

	return out, nil
}

func (that *MatchCoordinator) LeaveRoom(connID, roomID string) ([]Outbound, error) {
	room, err := that.seatedRoom(connID, roomID)
	if err != nil {
		return nil, err
	}

	return that.leave(room, connID), nil
}

// Disconnect frees every seat held by a dropped connection. Remaining players get a single notice each.
func (that *MatchCoordinator) Disconnect(connID string) []Outbound {
	var out []Outbound

	for _, room := range that.rooms.Rooms() {
		if !room.RemovePlayer(connID) {
			continue
		}

		if room.IsEmpty() {
			that.rooms.Delete(room.ID)
			that.logger.Info("room deleted", "roomID", room.ID)
			continue
		}

		room.ResetToWaiting()

		out = append(out, toRoom(room, ActionOpponentLeft, OpponentLeftPayload{
			Message: opponentLeftMessage,
			Room:    entity.NewRoomView(room),
		}))
	}

	return out
}

func (that *MatchCoordinator) createRoom() *entity.Room {
	id := that.rooms.Create()
	room, _ := that.rooms.Get(id)

	that.logger.Info("room created", "roomID", id)

	return room
}

// join seats the connection. The caller has checked that a seat is free.
func (that *MatchCoordinator) join(room *entity.Room, connID, name string) []Outbound {
	if room.HasPlayer(connID) {
		return []Outbound{{
			Action:  ActionRoomUpdate,
			To:      []string{connID},
			Payload: entity.NewRoomView(room),
		}}
	}

	out := that.leaveOtherRooms(connID, room.ID)

	room.AddPlayer(entity.NewPlayer(connID, name, room.FreeMark()))

	out = append(out, toRoom(room, ActionRoomUpdate, entity.NewRoomView(room)))

	if len(room.Players) == entity.MaxPlayers {
		room.ResetBoard()
		clear(room.ReadySet)
		room.Status = entity.StatusWaitingReady

		out = append(out, toRoom(room, ActionMatchReady, entity.NewRoomView(room)))
	}

	return out
}

func (that *MatchCoordinator) leaveOtherRooms(connID, keepRoomID string) []Outbound {
	var out []Outbound

	for _, room := range that.rooms.Rooms() {
		if room.ID != keepRoomID && room.HasPlayer(connID) {
			out = append(out, that.leave(room, connID)...)
		}
	}

	return out
}

func (that *MatchCoordinator) leave(room *entity.Room, connID string) []Outbound {
	room.RemovePlayer(connID)

	if room.IsEmpty() {
		that.rooms.Delete(room.ID)
		that.logger.Info("room deleted", "roomID", room.ID)

		return nil
	}

	room.ResetToWaiting()

	return []Outbound{
		toRoom(room, ActionRoomUpdate, entity.NewRoomView(room)),
		toRoom(room, ActionOpponentLeft, OpponentLeftPayload{Message: opponentLeftMessage}),
	}
}

func (that *MatchCoordinator) seatedRoom(connID, roomID string) (*entity.Room, error) {
	room, ok := that.rooms.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	if !room.HasPlayer(connID) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotInRoom, roomID)
	}

	return room, nil
}

func toRoom(room *entity.Room, action string, payload any) Outbound {
	return Outbound{
		Action:  action,
		To:      room.ConnectionIDs(),
		Payload: payload,
	}
}
