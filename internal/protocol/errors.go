package protocol

import (
	"errors"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const genericErrorText = "Solicitud rechazada"

var errorTexts = []struct {
	err  error
	text string
}{
	{apperror.ErrNameTaken, "Nombre ya en uso"},
	{apperror.ErrInvalidName, "Nombre inválido"},
	{apperror.ErrAlreadyRegistered, "Ya estás registrado"},
	{apperror.ErrNotRegistered, "Jugador no registrado"},
	{apperror.ErrRoomExists, "La sala ya existe"},
	{apperror.ErrRoomNotJoinable, "No se puede unir a la sala"},
	{apperror.ErrAlreadyInRoom, "Ya estás en una sala"},
	{apperror.ErrNotInRoom, "No estás en una sala"},
	{apperror.ErrInvalidMove, "Jugada inválida"},
}

// ErrorText - maps an application error to the text shown to the player.
func ErrorText(err error) string {
	for _, entry := range errorTexts {
		if errors.Is(err, entry.err) {
			return entry.text
		}
	}
	return genericErrorText
}

// ErrorEvent - the single error event for any rejected intent.
func ErrorEvent(err error) Message {
	return Error(ErrorText(err))
}

// SessionLost is sent to every client of an edge the coordinator no longer knows.
func SessionLost() Message {
	return Error("Sesión perdida, vuelve a registrarte")
}
