package entity

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"

	MaxMembers = 2
)

// Room is a two-player match. Members keep insertion order: the creator is X, the joiner is O.
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Board   Board    `json:"board"`
	Turn    string   `json:"turn"`
	Status  string   `json:"status"`

	// RestartRound changes every time a handshake opens or closes, pending timers compare it.
	RestartRound int      `json:"restart_round"`
	Restart      []string `json:"restart,omitempty"`
}

func NewRoom(id, name, creator string) *Room {
	return &Room{
		ID:      id,
		Name:    name,
		Members: []string{creator},
		Turn:    PlayerX,
		Status:  StatusWaiting,
	}
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) Has(name string) bool {
	return slices.Contains(that.Members, name)
}

// MarkOf - returns the logical mark of a member, "" for strangers.
func (that *Room) MarkOf(name string) string {
	switch slices.Index(that.Members, name) {
	case 0:
		return PlayerX
	case 1:
		return PlayerO
	default:
		return ""
	}
}

// Opponent - returns the other member, "" when there is none.
func (that *Room) Opponent(name string) string {
	for _, member := range that.Members {
		if member != name {
			return member
		}
	}
	return ""
}

func (that *Room) Join(name string) error {
	if !that.IsWaiting() || len(that.Members) != 1 {
		return fmt.Errorf("%w: room %s has %d players", apperror.ErrRoomNotJoinable, that.Name, len(that.Members))
	}

	if that.Has(name) {
		return apperror.ErrAlreadyInRoom
	}

	that.Members = append(that.Members, name)
	that.Status = StatusActive

	return nil
}

// MakeMove - applies the move of a member and returns the result of the board after it.
func (that *Room) MakeMove(name string, cell int) (string, error) {
	switch {
	case that.IsWaiting():
		return "", apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return "", apperror.ErrGameFinished
	case len(that.Members) != MaxMembers:
		return "", apperror.ErrGameIsNotStarted
	}

	if cell < 0 || cell >= BoardSize {
		return "", fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	mark := that.MarkOf(name)
	if mark == "" || that.Turn != mark {
		return "", apperror.ErrNotYourTurn
	}

	if that.Board[cell] != EmptyCell {
		return "", apperror.ErrCellOccupied
	}

	that.Board[cell] = mark

	result := that.Board.Result()
	if result != "" {
		that.Status = StatusFinished
		that.Turn = ""
		return result, nil
	}

	that.Turn = toggleMark(mark)

	return "", nil
}

// RequestRestart - records the rematch request of a member.
// added is false for a repeated request, completed is true once every member agreed and the board was reset.
func (that *Room) RequestRestart(name string) (added, completed bool, err error) {
	if that.IsWaiting() {
		return false, false, apperror.ErrGameIsNotStarted
	}

	if !that.Has(name) {
		return false, false, apperror.ErrNotInRoom
	}

	if slices.Contains(that.Restart, name) {
		return false, false, nil
	}

	if len(that.Restart) == 0 {
		that.RestartRound++
	}

	that.Restart = append(that.Restart, name)

	if len(that.Restart) < len(that.Members) {
		return true, false, nil
	}

	that.Reset()

	return true, true, nil
}

// ClearRestart - drops a pending handshake.
func (that *Room) ClearRestart() {
	if len(that.Restart) == 0 {
		return
	}
	that.Restart = nil
	that.RestartRound++
}

// Reset - empties the board for a rematch, marks stay with the members.
func (that *Room) Reset() {
	that.Board = Board{}
	that.Turn = PlayerX
	that.Status = StatusActive
	that.ClearRestart()
}
