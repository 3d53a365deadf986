package entity

import "time"

const (
	ResultWin  = "win"
	ResultDraw = "draw"
)

// MatchResult is the record published when a match finishes.
type MatchResult struct {
	RoomID     string       `json:"roomId"`
	Result     string       `json:"result"`
	Winner     string       `json:"winner,omitempty"`
	Combo      []int        `json:"combo,omitempty"`
	Players    []PlayerView `json:"players"`
	FinishedAt time.Time    `json:"finishedAt"`
}
