package websocket

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

func (that *Server) decode(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if err := that.validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return nil
}

func (that *Server) handleQuickplay(connID string, raw json.RawMessage) ([]usecase.Outbound, error) {
	var payload namePayload
	if err := that.decode(raw, &payload); err != nil {
		return nil, err
	}

	return that.coordinator.Quickplay(connID, payload.Name)
}

func (that *Server) handleCreateRoom(connID string, raw json.RawMessage) ([]usecase.Outbound, error) {
	var payload namePayload
	if err := that.decode(raw, &payload); err != nil {
		return nil, err
	}

	return that.coordinator.CreateRoom(connID, payload.Name)
}

func (that *Server) handleJoinRoom(connID string, raw json.RawMessage) ([]usecase.Outbound, error) {
	var payload joinRoomPayload
	if err := that.decode(raw, &payload); err != nil {
		return nil, err
	}

	return that.coordinator.JoinRoom(connID, payload.RoomID, payload.Name)
}

func (that *Server) handleSetReady(connID string, raw json.RawMessage) ([]usecase.Outbound, error) {
	var payload setReadyPayload
	if err := that.decode(raw, &payload); err != nil {
		return nil, err
	}

	return that.coordinator.SetReady(connID, payload.RoomID, *payload.Ready)
}

func (that *Server) handlePlayMove(connID string, raw json.RawMessage) ([]usecase.Outbound, error) {
	var payload playMovePayload
	if err := that.decode(raw, &payload); err != nil {
		return nil, err
	}

	// any number is accepted on the wire; one that is not a cell index is a rejected move
	index, err := strconv.Atoi(payload.Index.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrInvalidCell, payload.Index)
	}

	return that.coordinator.PlayMove(connID, payload.RoomID, index)
}

func (that *Server) handleRematch(connID string, raw json.RawMessage) ([]usecase.Outbound, error) {
	var payload roomPayload
	if err := that.decode(raw, &payload); err != nil {
		return nil, err
	}

	return that.coordinator.Rematch(connID, payload.RoomID)
}

func (that *Server) handleLeaveRoom(connID string, raw json.RawMessage) ([]usecase.Outbound, error) {
	var payload roomPayload
	if err := that.decode(raw, &payload); err != nil {
		return nil, err
	}

	return that.coordinator.LeaveRoom(connID, payload.RoomID)
}
