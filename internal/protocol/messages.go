// Package protocol holds the vocabulary exchanged between clients, edges and the coordinator.
package protocol

import (
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// client -> server intents.
const (
	TypeRegister   = "registro"
	TypeCreateRoom = "crearSala"
	TypeJoinRoom   = "unirseSala"
	TypeMove       = "jugada"
	TypeRestart    = "reiniciar"
	TypeLeaveRoom  = "salirSala"
	TypeLogout     = "cerrarSesion"
)

// server -> client events. TypeMove and TypeRestart are used in both directions.
const (
	TypeRegistered       = "registroOK"
	TypeError            = "error"
	TypePlayerList       = "listaJugadores"
	TypeRoomList         = "listaSalas"
	TypeWaitingOpponent  = "esperandoJugador"
	TypeMatchStart       = "inicioPartida"
	TypeRestartRequested = "solicitaReinicio"
	TypeRestartExpired   = "reinicioExpirado"
	TypeRoomClosed       = "salaCerrada"
	TypeLoggedOut        = "sesionCerrada"
)

// edge -> coordinator control intents, never sent by clients.
const (
	TypeEdgeHello      = "edge:hello"
	TypeEdgeHeartbeat  = "edge:heartbeat"
	TypeEdgeDisconnect = "edge:disconnect"
)

// Message is one record on the wire, `type` selects which of the other fields matter.
type Message struct {
	Type string `json:"type"`
	Name string `json:"nombre,omitempty"`
	Text string `json:"mensaje,omitempty"`

	Players *[]string   `json:"jugadores,omitempty"`
	Rooms   *[]RoomInfo `json:"salas,omitempty"`

	Mark         string        `json:"jugador,omitempty"`
	SelfName     string        `json:"tuNombre,omitempty"`
	OpponentName string        `json:"rival,omitempty"`
	Board        *entity.Board `json:"tablero,omitempty"`
	Cell         *int          `json:"casilla,omitempty"`
	NextTurn     string        `json:"turno,omitempty"`
	Result       string        `json:"resultado,omitempty"`
}

type RoomInfo struct {
	Name  string `json:"nombre"`
	Count int    `json:"cantidad"`
}

func Registered() Message {
	return Message{Type: TypeRegistered}
}

func Error(text string) Message {
	return Message{Type: TypeError, Text: text}
}

// PlayerList - roster broadcast, an empty roster is still sent as [].
func PlayerList(names []string) Message {
	list := append([]string{}, names...)
	return Message{Type: TypePlayerList, Players: &list}
}

func RoomList(rooms []RoomInfo) Message {
	list := append([]RoomInfo{}, rooms...)
	return Message{Type: TypeRoomList, Rooms: &list}
}

func WaitingOpponent() Message {
	return Message{Type: TypeWaitingOpponent}
}

func MatchStart(mark, selfName, opponentName string, board entity.Board, turn string) Message {
	return Message{
		Type:         TypeMatchStart,
		Mark:         mark,
		SelfName:     selfName,
		OpponentName: opponentName,
		Board:        &board,
		NextTurn:     turn,
	}
}

func MoveApplied(cell int, mark string, board entity.Board, nextTurn, result string) Message {
	return Message{
		Type:     TypeMove,
		Cell:     &cell,
		Mark:     mark,
		Board:    &board,
		NextTurn: nextTurn,
		Result:   result,
	}
}

func RestartRequested() Message {
	return Message{Type: TypeRestartRequested}
}

func Restarted() Message {
	return Message{Type: TypeRestart}
}

func RestartExpired() Message {
	return Message{Type: TypeRestartExpired}
}

func RoomClosed() Message {
	return Message{Type: TypeRoomClosed}
}

func LoggedOut() Message {
	return Message{Type: TypeLoggedOut}
}
