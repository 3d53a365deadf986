package usecase

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
)

const (
	connA = "conn-a"
	connB = "conn-b"
	connC = "conn-c"
)

func newCoordinator(t *testing.T) (*MatchCoordinator, *registry.Registry) {
	t.Helper()

	reg := registry.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewMatchCoordinator(logger, reg), reg
}

func actionsOf(out []Outbound) []string {
	return lo.Map(out, func(o Outbound, _ int) string {
		return o.Action
	})
}

func findOutbound(t *testing.T, out []Outbound, action string) Outbound {
	t.Helper()

	o, ok := lo.Find(out, func(o Outbound) bool {
		return o.Action == action
	})
	require.True(t, ok, "no %s in %v", action, actionsOf(out))

	return o
}

// seatTwo creates a room for connA and seats connB in it.
func seatTwo(t *testing.T, coordinator *MatchCoordinator) string {
	t.Helper()

	out, err := coordinator.CreateRoom(connA, "Ann")
	require.NoError(t, err)
	roomID := findOutbound(t, out, ActionRoomCreated).Payload.(RoomCreatedPayload).RoomID

	_, err = coordinator.JoinRoom(connB, roomID, "Bob")
	require.NoError(t, err)

	return roomID
}

// startMatch seats two players and readies both.
func startMatch(t *testing.T, coordinator *MatchCoordinator) string {
	t.Helper()

	roomID := seatTwo(t, coordinator)

	_, err := coordinator.SetReady(connA, roomID, true)
	require.NoError(t, err)
	_, err = coordinator.SetReady(connB, roomID, true)
	require.NoError(t, err)

	return roomID
}

func playMoves(t *testing.T, coordinator *MatchCoordinator, roomID string, moves ...int) []Outbound {
	t.Helper()

	var out []Outbound
	conns := []string{connA, connB}
	for i, cell := range moves {
		var err error
		out, err = coordinator.PlayMove(conns[i%2], roomID, cell)
		require.NoError(t, err, "move %d at cell %d", i, cell)
	}

	return out
}

func TestMatchCoordinator_CreateRoom(t *testing.T) {
	// Given: an empty registry
	coordinator, reg := newCoordinator(t)

	// When: a connection creates a room
	out, err := coordinator.CreateRoom(connA, "Ann")
	require.NoError(t, err)

	// Then: the creator receives the room id directly, then the room view
	require.Equal(t, []string{ActionRoomCreated, ActionRoomUpdate}, actionsOf(out))
	assert.Equal(t, []string{connA}, out[0].To)

	roomID := out[0].Payload.(RoomCreatedPayload).RoomID
	room, ok := reg.Get(roomID)
	require.True(t, ok)

	// Then: the creator holds X and the room waits for an opponent
	require.Len(t, room.Players, 1)
	assert.Equal(t, entity.PlayerX, room.Players[0].Mark)
	assert.Equal(t, "Ann", room.Players[0].Name)
	assert.Equal(t, entity.StatusWaiting, room.Status)
}

func TestMatchCoordinator_JoinRoom(t *testing.T) {
	t.Run("Second player gets O and the match becomes ready", func(t *testing.T) {
		// Given: a room with one player
		coordinator, reg := newCoordinator(t)
		out, err := coordinator.CreateRoom(connA, "")
		require.NoError(t, err)
		roomID := out[0].Payload.(RoomCreatedPayload).RoomID

		// When: a second connection joins without a name
		out, err = coordinator.JoinRoom(connB, roomID, "")
		require.NoError(t, err)

		// Then: both players receive the view and the match-ready event
		require.Equal(t, []string{ActionRoomUpdate, ActionMatchReady}, actionsOf(out))
		for _, o := range out {
			assert.ElementsMatch(t, []string{connA, connB}, o.To)
		}

		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.StatusWaitingReady, room.Status)
		assert.Equal(t, entity.PlayerO, room.Player(connB).Mark)
		assert.Equal(t, "Player O", room.Player(connB).Name)
		assert.Equal(t, "Player X", room.Player(connA).Name)

		view := findOutbound(t, out, ActionMatchReady).Payload.(*entity.RoomView)
		assert.Equal(t, 2, view.PlayerCount)
		assert.False(t, view.CanStart)
	})

	t.Run("Unknown room", func(t *testing.T) {
		coordinator, _ := newCoordinator(t)

		out, err := coordinator.JoinRoom(connA, "nope", "Ann")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Nil(t, out)
	})

	t.Run("Third player is rejected without touching the room", func(t *testing.T) {
		// Given: a full room
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)
		room, _ := reg.Get(roomID)
		before := append([]*entity.Player(nil), room.Players...)

		// When: a third connection joins
		out, err := coordinator.JoinRoom(connC, roomID, "Cid")

		// Then: RoomFull and the seats are unchanged
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Nil(t, out)
		assert.Equal(t, before, room.Players)
		assert.Equal(t, entity.StatusWaitingReady, room.Status)
	})

	t.Run("Joining a room twice is idempotent", func(t *testing.T) {
		// Given: a full room
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)

		// When: a seated player joins again
		out, err := coordinator.JoinRoom(connB, roomID, "Again")

		// Then: only the issuer gets the current view
		require.NoError(t, err)
		require.Equal(t, []string{ActionRoomUpdate}, actionsOf(out))
		assert.Equal(t, []string{connB}, out[0].To)

		room, _ := reg.Get(roomID)
		assert.Len(t, room.Players, 2)
		assert.Equal(t, "Bob", room.Player(connB).Name)
	})

	t.Run("Symbols are one X and one O whatever the arrival order", func(t *testing.T) {
		// Given: a full room where the X player leaves
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)
		_, err := coordinator.LeaveRoom(connA, roomID)
		require.NoError(t, err)

		// When: a newcomer joins
		_, err = coordinator.JoinRoom(connC, roomID, "Cid")
		require.NoError(t, err)

		// Then: the newcomer takes the free X
		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.PlayerO, room.Player(connB).Mark)
		assert.Equal(t, entity.PlayerX, room.Player(connC).Mark)
	})

	t.Run("Joining another room leaves the previous one", func(t *testing.T) {
		// Given: connA alone in a room and connB alone in another
		coordinator, reg := newCoordinator(t)
		out, err := coordinator.CreateRoom(connA, "Ann")
		require.NoError(t, err)
		firstID := out[0].Payload.(RoomCreatedPayload).RoomID
		out, err = coordinator.CreateRoom(connB, "Bob")
		require.NoError(t, err)
		secondID := out[0].Payload.(RoomCreatedPayload).RoomID

		// When: connA joins connB's room
		_, err = coordinator.JoinRoom(connA, secondID, "Ann")
		require.NoError(t, err)

		// Then: the abandoned room is deleted
		_, ok := reg.Get(firstID)
		assert.False(t, ok)
		assert.Equal(t, 1, reg.Len())
	})
}

func TestMatchCoordinator_Quickplay(t *testing.T) {
	t.Run("Creates a room when none is waiting", func(t *testing.T) {
		coordinator, reg := newCoordinator(t)

		out, err := coordinator.Quickplay(connA, "Ann")

		require.NoError(t, err)
		assert.Equal(t, []string{ActionRoomUpdate}, actionsOf(out))
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("Joins the first waiting room", func(t *testing.T) {
		// Given: a full room and then two waiting rooms
		coordinator, reg := newCoordinator(t)
		seatTwo(t, coordinator)
		out, err := coordinator.CreateRoom(connC, "Cid")
		require.NoError(t, err)
		firstWaiting := out[0].Payload.(RoomCreatedPayload).RoomID
		_, err = coordinator.CreateRoom("conn-d", "Dee")
		require.NoError(t, err)

		// When: a new connection asks for quickplay
		out, err = coordinator.Quickplay("conn-e", "Eve")
		require.NoError(t, err)

		// Then: it lands in the first waiting room
		room, _ := reg.Get(firstWaiting)
		assert.True(t, room.HasPlayer("conn-e"))
		assert.Equal(t, entity.StatusWaitingReady, room.Status)
		assert.Equal(t, []string{ActionRoomUpdate, ActionMatchReady}, actionsOf(out))
		assert.Equal(t, 3, reg.Len())
	})

	t.Run("Does not match a player with themselves", func(t *testing.T) {
		// Given: connA waiting alone
		coordinator, reg := newCoordinator(t)
		_, err := coordinator.Quickplay(connA, "Ann")
		require.NoError(t, err)

		// When: connA asks for quickplay again
		_, err = coordinator.Quickplay(connA, "Ann")
		require.NoError(t, err)

		// Then: connA sits alone in exactly one room
		rooms := reg.Rooms()
		require.Len(t, rooms, 1)
		assert.Len(t, rooms[0].Players, 1)
	})
}

func TestMatchCoordinator_SetReady(t *testing.T) {
	t.Run("One ready player does not start the game", func(t *testing.T) {
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)

		out, err := coordinator.SetReady(connA, roomID, true)

		require.NoError(t, err)
		assert.Equal(t, []string{ActionRoomUpdate}, actionsOf(out))
		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.StatusWaitingReady, room.Status)
		assert.Equal(t, 1, out[0].Payload.(*entity.RoomView).ReadyCount)
	})

	t.Run("Both ready starts the game with a fresh board", func(t *testing.T) {
		// Given: a room where A is ready
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)
		_, err := coordinator.SetReady(connA, roomID, true)
		require.NoError(t, err)
		room, _ := reg.Get(roomID)
		room.RematchVotes[connA] = struct{}{}

		// When: B gets ready
		out, err := coordinator.SetReady(connB, roomID, true)
		require.NoError(t, err)

		// Then: the game starts
		require.Equal(t, []string{ActionRoomUpdate, ActionGameStart}, actionsOf(out))
		assert.Equal(t, entity.StatusPlaying, room.Status)
		assert.Equal(t, entity.PlayerX, room.Turn)
		assert.Equal(t, [entity.BoardSize]string{}, room.Board)
		assert.Empty(t, room.RematchVotes)

		view := out[1].Payload.(*entity.RoomView)
		assert.True(t, view.IsGameActive)
	})

	t.Run("Withdrawing readiness", func(t *testing.T) {
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)
		_, err := coordinator.SetReady(connA, roomID, true)
		require.NoError(t, err)

		_, err = coordinator.SetReady(connA, roomID, false)
		require.NoError(t, err)
		_, err = coordinator.SetReady(connB, roomID, true)
		require.NoError(t, err)

		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.StatusWaitingReady, room.Status)
		assert.False(t, room.IsReady(connA))
	})

	t.Run("Errors", func(t *testing.T) {
		coordinator, _ := newCoordinator(t)
		roomID := startMatch(t, coordinator)

		_, err := coordinator.SetReady(connA, "nope", true)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		_, err = coordinator.SetReady(connC, roomID, true)
		require.ErrorIs(t, err, apperror.ErrNotInRoom)

		_, err = coordinator.SetReady(connA, roomID, false)
		require.ErrorIs(t, err, apperror.ErrMatchInProgress)
	})
}

func TestMatchCoordinator_PlayMove(t *testing.T) {
	t.Run("Non-terminal move flips the turn", func(t *testing.T) {
		// Given: a started match
		coordinator, reg := newCoordinator(t)
		roomID := startMatch(t, coordinator)

		// When: X plays the centre
		out, err := coordinator.PlayMove(connA, roomID, 4)
		require.NoError(t, err)

		// Then: both players get a board update with O to move
		require.Equal(t, []string{ActionBoardUpdate}, actionsOf(out))
		assert.ElementsMatch(t, []string{connA, connB}, out[0].To)

		payload := out[0].Payload.(BoardUpdatePayload)
		assert.Equal(t, entity.PlayerX, payload.Board[4])
		assert.Equal(t, entity.PlayerO, payload.Turn)

		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.PlayerO, room.Turn)
	})

	t.Run("Wrong turn never touches the board", func(t *testing.T) {
		// Given: a started match where X is to move
		coordinator, reg := newCoordinator(t)
		roomID := startMatch(t, coordinator)
		room, _ := reg.Get(roomID)

		// When: O tries to move
		out, err := coordinator.PlayMove(connB, roomID, 0)

		// Then: NotYourTurn and nothing changes
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Nil(t, out)
		assert.Equal(t, [entity.BoardSize]string{}, room.Board)
		assert.Equal(t, entity.PlayerX, room.Turn)
	})

	t.Run("Occupied and out of range cells", func(t *testing.T) {
		coordinator, reg := newCoordinator(t)
		roomID := startMatch(t, coordinator)
		playMoves(t, coordinator, roomID, 0)

		_, err := coordinator.PlayMove(connB, roomID, 0)
		require.ErrorIs(t, err, apperror.ErrInvalidCell)

		_, err = coordinator.PlayMove(connB, roomID, -1)
		require.ErrorIs(t, err, apperror.ErrInvalidCell)

		_, err = coordinator.PlayMove(connB, roomID, 9)
		require.ErrorIs(t, err, apperror.ErrInvalidCell)

		room, _ := reg.Get(roomID)
		assert.Equal(t, [entity.BoardSize]string{entity.PlayerX}, room.Board)
		assert.Equal(t, entity.PlayerO, room.Turn)
	})

	t.Run("Rejections before the game is running", func(t *testing.T) {
		coordinator, _ := newCoordinator(t)
		roomID := seatTwo(t, coordinator)

		_, err := coordinator.PlayMove(connA, "nope", 0)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		_, err = coordinator.PlayMove(connA, roomID, 0)
		require.ErrorIs(t, err, apperror.ErrGameNotInProgress)
	})

	t.Run("Outsider cannot move", func(t *testing.T) {
		coordinator, _ := newCoordinator(t)
		roomID := startMatch(t, coordinator)

		_, err := coordinator.PlayMove(connC, roomID, 0)

		require.ErrorIs(t, err, apperror.ErrNotInRoom)
	})

	t.Run("Left column wins for X", func(t *testing.T) {
		// Given: a started match
		coordinator, reg := newCoordinator(t)
		roomID := startMatch(t, coordinator)

		// When: X plays 0, 3, 6 while O plays 1, 4
		out := playMoves(t, coordinator, roomID, 0, 1, 3, 4, 6)

		// Then: game over with X winning on the left column
		require.Equal(t, []string{ActionGameOver}, actionsOf(out))
		payload := out[0].Payload.(GameOverPayload)
		assert.Equal(t, entity.ResultWin, payload.Result)
		assert.Equal(t, entity.PlayerX, payload.Winner)
		assert.Equal(t, []int{0, 3, 6}, payload.Combo)
		assert.True(t, payload.Room.IsGameFinished)

		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.StatusFinished, room.Status)
		assert.Equal(t, entity.PlayerX, room.Turn)

		// Then: further moves are rejected
		_, err := coordinator.PlayMove(connB, roomID, 8)
		require.ErrorIs(t, err, apperror.ErrGameNotInProgress)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		coordinator, _ := newCoordinator(t)
		roomID := startMatch(t, coordinator)

		out := playMoves(t, coordinator, roomID, 0, 1, 2, 4, 3, 5, 7, 6, 8)

		require.Equal(t, []string{ActionGameOver}, actionsOf(out))
		payload := out[0].Payload.(GameOverPayload)
		assert.Equal(t, entity.ResultDraw, payload.Result)
		assert.Empty(t, payload.Winner)
		assert.Nil(t, payload.Combo)
	})
}

func TestMatchCoordinator_Rematch(t *testing.T) {
	finished := func(t *testing.T) (*MatchCoordinator, *registry.Registry, string) {
		t.Helper()

		coordinator, reg := newCoordinator(t)
		roomID := startMatch(t, coordinator)
		playMoves(t, coordinator, roomID, 0, 1, 3, 4, 6)

		return coordinator, reg, roomID
	}

	t.Run("Only after the game finished", func(t *testing.T) {
		coordinator, _ := newCoordinator(t)
		roomID := startMatch(t, coordinator)

		_, err := coordinator.Rematch(connA, roomID)
		require.ErrorIs(t, err, apperror.ErrGameNotFinished)

		_, err = coordinator.Rematch(connA, "nope")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		_, err = coordinator.Rematch(connC, roomID)
		require.ErrorIs(t, err, apperror.ErrNotInRoom)
	})

	t.Run("One vote is not enough", func(t *testing.T) {
		coordinator, reg, roomID := finished(t)

		out, err := coordinator.Rematch(connA, roomID)
		require.NoError(t, err)
		out2, err := coordinator.Rematch(connA, roomID)
		require.NoError(t, err)

		assert.Equal(t, []string{ActionRematchUpdate}, actionsOf(out))
		assert.Equal(t, RematchUpdatePayload{Votes: 1}, out[0].Payload)
		assert.Equal(t, RematchUpdatePayload{Votes: 1}, out2[0].Payload)

		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.StatusFinished, room.Status)
	})

	t.Run("Two votes restart the match", func(t *testing.T) {
		// Given: a finished match with one vote
		coordinator, reg, roomID := finished(t)
		_, err := coordinator.Rematch(connA, roomID)
		require.NoError(t, err)

		// When: the second player votes
		out, err := coordinator.Rematch(connB, roomID)
		require.NoError(t, err)

		// Then: the game restarts with both players implicitly ready
		require.Equal(t, []string{ActionRematchUpdate, ActionGameStart}, actionsOf(out))
		assert.Equal(t, RematchUpdatePayload{Votes: 2}, out[0].Payload)

		room, _ := reg.Get(roomID)
		assert.Equal(t, entity.StatusPlaying, room.Status)
		assert.Equal(t, [entity.BoardSize]string{}, room.Board)
		assert.Equal(t, entity.PlayerX, room.Turn)
		assert.Empty(t, room.RematchVotes)
		assert.True(t, room.IsReady(connA))
		assert.True(t, room.IsReady(connB))

		// Then: the symbols are kept
		assert.Equal(t, entity.PlayerX, room.Player(connA).Mark)
		_, err = coordinator.PlayMove(connA, roomID, 4)
		require.NoError(t, err)
	})
}

func TestMatchCoordinator_LeaveRoom(t *testing.T) {
	t.Run("Remaining player returns to a fresh lobby", func(t *testing.T) {
		// Given: a match in progress
		coordinator, reg := newCoordinator(t)
		roomID := startMatch(t, coordinator)
		playMoves(t, coordinator, roomID, 4)

		// When: A leaves
		out, err := coordinator.LeaveRoom(connA, roomID)
		require.NoError(t, err)

		// Then: B gets the view and the opponent-left notice
		require.Equal(t, []string{ActionRoomUpdate, ActionOpponentLeft}, actionsOf(out))
		for _, o := range out {
			assert.Equal(t, []string{connB}, o.To)
		}

		room, ok := reg.Get(roomID)
		require.True(t, ok)
		assert.Equal(t, entity.StatusWaiting, room.Status)
		assert.Equal(t, [entity.BoardSize]string{}, room.Board)
		assert.Equal(t, entity.PlayerX, room.Turn)
		assert.Empty(t, room.ReadySet)
		assert.Empty(t, room.RematchVotes)
		assert.Equal(t, []string{connB}, room.ConnectionIDs())
	})

	t.Run("Last player leaving deletes the room", func(t *testing.T) {
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)

		_, err := coordinator.LeaveRoom(connA, roomID)
		require.NoError(t, err)
		out, err := coordinator.LeaveRoom(connB, roomID)
		require.NoError(t, err)

		assert.Empty(t, out)
		_, ok := reg.Get(roomID)
		assert.False(t, ok)
	})

	t.Run("Errors", func(t *testing.T) {
		coordinator, _ := newCoordinator(t)
		roomID := seatTwo(t, coordinator)

		_, err := coordinator.LeaveRoom(connA, "nope")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		_, err = coordinator.LeaveRoom(connC, roomID)
		require.ErrorIs(t, err, apperror.ErrNotInRoom)
	})
}

func TestMatchCoordinator_Disconnect(t *testing.T) {
	t.Run("Remaining player gets one notice", func(t *testing.T) {
		// Given: a match in progress
		coordinator, reg := newCoordinator(t)
		roomID := startMatch(t, coordinator)
		playMoves(t, coordinator, roomID, 0, 4)

		// When: A drops
		out := coordinator.Disconnect(connA)

		// Then: only B is notified, once, with the refreshed room
		require.Equal(t, []string{ActionOpponentLeft}, actionsOf(out))
		assert.Equal(t, []string{connB}, out[0].To)

		payload := out[0].Payload.(OpponentLeftPayload)
		require.NotNil(t, payload.Room)
		assert.Equal(t, entity.StatusWaiting, payload.Room.Status)

		room, ok := reg.Get(roomID)
		require.True(t, ok)
		assert.True(t, room.HasPlayer(connB))
		assert.Equal(t, entity.StatusWaiting, room.Status)
		assert.Equal(t, [entity.BoardSize]string{}, room.Board)
	})

	t.Run("Last player disconnecting deletes the room", func(t *testing.T) {
		coordinator, reg := newCoordinator(t)
		roomID := seatTwo(t, coordinator)

		coordinator.Disconnect(connA)
		out := coordinator.Disconnect(connB)

		assert.Empty(t, out)
		_, ok := reg.Get(roomID)
		assert.False(t, ok)
	})

	t.Run("Unknown connection", func(t *testing.T) {
		coordinator, reg := newCoordinator(t)
		seatTwo(t, coordinator)

		out := coordinator.Disconnect(connC)

		assert.Empty(t, out)
		assert.Equal(t, 1, reg.Len())
	})
}

func TestGameOverPayload_MatchResult(t *testing.T) {
	coordinator, _ := newCoordinator(t)
	roomID := startMatch(t, coordinator)

	// Given: X wins on the top row
	out := playMoves(t, coordinator, roomID, 0, 3, 1, 4, 2)
	payload := findOutbound(t, out, ActionGameOver).Payload.(GameOverPayload)

	// When: it is turned into a result record
	finishedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	result := payload.MatchResult(finishedAt)

	// Then: the record names the room, the winner and both players
	assert.Equal(t, roomID, result.RoomID)
	assert.Equal(t, entity.ResultWin, result.Result)
	assert.Equal(t, entity.PlayerX, result.Winner)
	assert.Equal(t, []int{0, 1, 2}, result.Combo)
	assert.Equal(t, finishedAt, result.FinishedAt)
	assert.Equal(t, []string{connA, connB}, lo.Map(result.Players, func(p entity.PlayerView, _ int) string {
		return p.SocketID
	}))
}
