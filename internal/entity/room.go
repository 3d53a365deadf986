package entity

import "github.com/samber/lo"

const (
	StatusWaiting      = "waiting"
	StatusWaitingReady = "waitingReady"
	StatusPlaying      = "playing"
	StatusFinished     = "finished"

	MaxPlayers = 2
)

// Room is the authoritative state of one match.
type Room struct {
	ID           string
	Players      []*Player
	Board        [BoardSize]string
	Turn         string
	ReadySet     map[string]struct{}
	RematchVotes map[string]struct{}
	Status       string
}

func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		Players:      make([]*Player, 0, MaxPlayers),
		Turn:         PlayerX,
		ReadySet:     make(map[string]struct{}),
		RematchVotes: make(map[string]struct{}),
		Status:       StatusWaiting,
	}
}

func (that *Room) Player(connectionID string) *Player {
	player, _ := lo.Find(that.Players, func(p *Player) bool {
		return p.ConnectionID == connectionID
	})

	return player
}

func (that *Room) HasPlayer(connectionID string) bool {
	return that.Player(connectionID) != nil
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= MaxPlayers
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// FreeMark returns X unless a seated player already holds it.
func (that *Room) FreeMark() string {
	taken := lo.ContainsBy(that.Players, func(p *Player) bool {
		return p.Mark == PlayerX
	})
	if taken {
		return PlayerO
	}

	return PlayerX
}

func (that *Room) AddPlayer(player *Player) {
	that.Players = append(that.Players, player)
	delete(that.ReadySet, player.ConnectionID)
}

// RemovePlayer drops the connection from the seats, the ready set and the rematch votes.
func (that *Room) RemovePlayer(connectionID string) bool {
	if !that.HasPlayer(connectionID) {
		return false
	}

	that.Players = lo.Filter(that.Players, func(p *Player, _ int) bool {
		return p.ConnectionID != connectionID
	})
	delete(that.ReadySet, connectionID)
	delete(that.RematchVotes, connectionID)

	return true
}

// ConnectionIDs returns the seated connections in join order.
func (that *Room) ConnectionIDs() []string {
	return lo.Map(that.Players, func(p *Player, _ int) string {
		return p.ConnectionID
	})
}

func (that *Room) IsReady(connectionID string) bool {
	_, ok := that.ReadySet[connectionID]
	return ok
}

func (that *Room) SetReady(connectionID string, ready bool) {
	if ready {
		that.ReadySet[connectionID] = struct{}{}
		return
	}

	delete(that.ReadySet, connectionID)
}

func (that *Room) VoteRematch(connectionID string) {
	that.RematchVotes[connectionID] = struct{}{}
}

// ResetBoard clears every cell and gives the first move to X.
func (that *Room) ResetBoard() {
	that.Board = [BoardSize]string{}
	that.Turn = PlayerX
}

// ResetToWaiting returns the room to a fresh lobby for whoever is still seated.
func (that *Room) ResetToWaiting() {
	that.ResetBoard()
	that.ReadySet = make(map[string]struct{})
	that.RematchVotes = make(map[string]struct{})
	that.Status = StatusWaiting
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsWaitingReady() bool {
	return that.Status == StatusWaitingReady
}

func (that *Room) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}
