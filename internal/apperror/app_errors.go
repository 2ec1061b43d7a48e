package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNameTaken       = errors.New("name is already taken")
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotJoinable = errors.New("room is not joinable")
	ErrInvalidMove     = errors.New("invalid move")
	ErrNotRegistered   = errors.New("player is not registered")

	ErrInvalidName       = errors.New("invalid name")
	ErrAlreadyRegistered = errors.New("connection is already registered")
	ErrAlreadyInRoom     = errors.New("player is already in a room")
	ErrNotInRoom         = errors.New("player is not in a room")
)

// move rejections, all of them are ErrInvalidMove for the caller.
var (
	ErrNotYourTurn      = fmt.Errorf("%w: it's not your turn", ErrInvalidMove)
	ErrCellOccupied     = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)
	ErrInvalidCell      = fmt.Errorf("%w: invalid cell index", ErrInvalidMove)
	ErrGameFinished     = fmt.Errorf("%w: game is already finished", ErrInvalidMove)
	ErrGameIsNotStarted = fmt.Errorf("%w: game is not started", ErrInvalidMove)
)
