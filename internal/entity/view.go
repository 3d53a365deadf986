package entity

import "github.com/samber/lo"

type PlayerView struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	SocketID string `json:"socketId"`
	IsReady  bool   `json:"isReady"`
}

// RoomView is the public projection of a Room sent to clients. It is rebuilt for every message.
type RoomView struct {
	RoomID         string            `json:"roomId"`
	Players        []PlayerView      `json:"players"`
	Board          [BoardSize]string `json:"board"`
	Turn           string            `json:"turn"`
	Status         string            `json:"status"`
	ReadyCount     int               `json:"readyCount"`
	PlayerCount    int               `json:"playerCount"`
	CanStart       bool              `json:"canStart"`
	IsGameActive   bool              `json:"isGameActive"`
	IsGameFinished bool              `json:"isGameFinished"`
}

func NewRoomView(room *Room) *RoomView {
	readyCount := len(room.ReadySet)

	return &RoomView{
		RoomID: room.ID,
		Players: lo.Map(room.Players, func(p *Player, _ int) PlayerView {
			return PlayerView{
				Name:     p.Name,
				Symbol:   p.Mark,
				SocketID: p.ConnectionID,
				IsReady:  room.IsReady(p.ConnectionID),
			}
		}),
		Board:          room.Board,
		Turn:           room.Turn,
		Status:         room.Status,
		ReadyCount:     readyCount,
		PlayerCount:    len(room.Players),
		CanStart:       room.IsWaitingReady() && readyCount == MaxPlayers,
		IsGameActive:   room.IsPlaying(),
		IsGameFinished: room.IsFinished(),
	}
}
