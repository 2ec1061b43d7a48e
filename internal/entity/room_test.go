package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

func newActiveRoom(t *testing.T) *Room {
	t.Helper()

	room := NewRoom("id-1", "r1", "A")
	require.NoError(t, room.Join("B"))

	return room
}

func TestNewRoom(t *testing.T) {
	// When: a room is created
	room := NewRoom("id-1", "r1", "A")

	// Then: it waits for an opponent with the creator as X
	expected := &Room{
		ID:      "id-1",
		Name:    "r1",
		Members: []string{"A"},
		Turn:    PlayerX,
		Status:  StatusWaiting,
	}
	require.Equal(t, expected, room)
	assert.Equal(t, PlayerX, room.MarkOf("A"))
}

func TestRoom_Join(t *testing.T) {
	t.Run("Second member becomes O and the room is active", func(t *testing.T) {
		// Given: a waiting room
		room := NewRoom("id-1", "r1", "A")

		// When: B joins
		err := room.Join("B")

		// Then: the room is active, A is X and B is O
		require.NoError(t, err)
		assert.True(t, room.IsActive())
		assert.Equal(t, PlayerX, room.MarkOf("A"))
		assert.Equal(t, PlayerO, room.MarkOf("B"))
		assert.Equal(t, "B", room.Opponent("A"))
		assert.Equal(t, "A", room.Opponent("B"))
	})

	t.Run("Full room rejects without mutation", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: C tries to join
		err := room.Join("C")

		// Then: ErrRoomNotJoinable and the members stay the same
		require.ErrorIs(t, err, apperror.ErrRoomNotJoinable)
		assert.Equal(t, []string{"A", "B"}, room.Members)
	})

	t.Run("Creator cannot join twice", func(t *testing.T) {
		room := NewRoom("id-1", "r1", "A")

		err := room.Join("A")

		require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
		assert.True(t, room.IsWaiting())
	})
}

func TestRoom_MakeMove(t *testing.T) {
	t.Run("Turn alternates starting with X", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: X then O play
		_, err := room.MakeMove("A", 4)
		require.NoError(t, err)
		assert.Equal(t, PlayerO, room.Turn)

		_, err = room.MakeMove("B", 0)
		require.NoError(t, err)

		// Then: the board holds both marks and it is X's turn again
		assert.Equal(t, PlayerX, room.Turn)
		assert.Equal(t, PlayerX, room.Board[4])
		assert.Equal(t, PlayerO, room.Board[0])
	})

	t.Run("Out of turn move is rejected", func(t *testing.T) {
		room := newActiveRoom(t)
		before := *room

		_, err := room.MakeMove("B", 1)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, before.Board, room.Board)
		assert.Equal(t, PlayerX, room.Turn)
	})

	t.Run("Occupied cell is rejected", func(t *testing.T) {
		room := newActiveRoom(t)
		_, err := room.MakeMove("A", 0)
		require.NoError(t, err)

		_, err = room.MakeMove("B", 0)

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, PlayerX, room.Board[0])
		assert.Equal(t, PlayerO, room.Turn)
	})

	t.Run("Cell out of range is rejected", func(t *testing.T) {
		room := newActiveRoom(t)

		_, err := room.MakeMove("A", 9)
		require.ErrorIs(t, err, apperror.ErrInvalidCell)

		_, err = room.MakeMove("A", -1)
		require.ErrorIs(t, err, apperror.ErrInvalidCell)
	})

	t.Run("Waiting room accepts no moves", func(t *testing.T) {
		room := NewRoom("id-1", "r1", "A")

		_, err := room.MakeMove("A", 0)

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.True(t, room.Board.IsEmpty())
	})

	t.Run("Winning line finishes the room and blocks further moves", func(t *testing.T) {
		// Given: X is one move from the top row
		room := newActiveRoom(t)
		for _, move := range []struct {
			player string
			cell   int
		}{{"A", 0}, {"B", 3}, {"A", 1}, {"B", 4}} {
			_, err := room.MakeMove(move.player, move.cell)
			require.NoError(t, err)
		}

		// When: X completes the line
		result, err := room.MakeMove("A", 2)

		// Then: X wins and the room is finished
		require.NoError(t, err)
		assert.Equal(t, PlayerX, result)
		assert.True(t, room.IsFinished())
		assert.Equal(t, "", room.Turn)

		_, err = room.MakeMove("B", 5)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestRoom_RequestRestart(t *testing.T) {
	t.Run("One request keeps the board", func(t *testing.T) {
		// Given: an active room with a move
		room := newActiveRoom(t)
		_, err := room.MakeMove("A", 4)
		require.NoError(t, err)

		// When: only A asks for a restart
		added, completed, err := room.RequestRestart("A")

		// Then: the handshake is open and the board unchanged
		require.NoError(t, err)
		assert.True(t, added)
		assert.False(t, completed)
		assert.Equal(t, PlayerX, room.Board[4])
		assert.Equal(t, []string{"A"}, room.Restart)
	})

	t.Run("Both requests reset the board", func(t *testing.T) {
		room := newActiveRoom(t)
		_, err := room.MakeMove("A", 4)
		require.NoError(t, err)

		_, _, err = room.RequestRestart("A")
		require.NoError(t, err)
		added, completed, err := room.RequestRestart("B")

		require.NoError(t, err)
		assert.True(t, added)
		assert.True(t, completed)
		assert.True(t, room.Board.IsEmpty())
		assert.Equal(t, PlayerX, room.Turn)
		assert.True(t, room.IsActive())
		assert.Empty(t, room.Restart)
		assert.Equal(t, PlayerX, room.MarkOf("A"))
	})

	t.Run("Repeated request is a no-op", func(t *testing.T) {
		room := newActiveRoom(t)

		_, _, err := room.RequestRestart("A")
		require.NoError(t, err)
		round := room.RestartRound

		added, completed, err := room.RequestRestart("A")

		require.NoError(t, err)
		assert.False(t, added)
		assert.False(t, completed)
		assert.Equal(t, round, room.RestartRound)
	})

	t.Run("Waiting room cannot restart", func(t *testing.T) {
		room := NewRoom("id-1", "r1", "A")

		_, _, err := room.RequestRestart("A")

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("ClearRestart moves the round forward", func(t *testing.T) {
		room := newActiveRoom(t)
		_, _, err := room.RequestRestart("A")
		require.NoError(t, err)
		round := room.RestartRound

		room.ClearRestart()

		assert.Empty(t, room.Restart)
		assert.Equal(t, round+1, room.RestartRound)
	})
}
