package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

func TestDecode(t *testing.T) {
	t.Run("Register trims the name", func(t *testing.T) {
		// Given: a registration frame with padded name
		raw := []byte(`{"type":"registro","nombre":"  Ana  "}`)

		// When: decoding
		msg, err := Decode(raw)

		// Then: the name is trimmed
		require.NoError(t, err)
		assert.Equal(t, TypeRegister, msg.Type)
		assert.Equal(t, "Ana", msg.Name)
	})

	t.Run("Move keeps the cell and the mark", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"jugada","casilla":0,"jugador":"X"}`))

		require.NoError(t, err)
		require.NotNil(t, msg.Cell)
		assert.Equal(t, 0, *msg.Cell)
		assert.Equal(t, entity.PlayerX, msg.Mark)
	})

	t.Run("Unparseable frame is droppable", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":`))

		require.ErrorIs(t, err, ErrMalformed)
		assert.True(t, IsDroppable(err))
	})

	t.Run("Unknown type is droppable", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"bailar"}`))

		require.ErrorIs(t, err, ErrUnknownType)
		assert.True(t, IsDroppable(err))
	})

	t.Run("Clients cannot send edge control types", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"edge:disconnect"}`))

		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("Blank name is rejected", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"registro","nombre":"   "}`))

		require.ErrorIs(t, err, apperror.ErrInvalidName)
		assert.False(t, IsDroppable(err))
	})

	t.Run("Name of exactly the maximum length is accepted", func(t *testing.T) {
		name := strings.Repeat("ñ", MaxNameLength)

		msg, err := Decode([]byte(fmt.Sprintf(`{"type":"registro","nombre":"%s"}`, name)))

		require.NoError(t, err)
		assert.Equal(t, name, msg.Name)
		require.ErrorIs(t, ValidateName(name+"a"), apperror.ErrInvalidName)
	})

	t.Run("Long room name is rejected", func(t *testing.T) {
		raw := fmt.Sprintf(`{"type":"crearSala","nombre":"%s"}`, strings.Repeat("a", MaxNameLength+1))

		_, err := Decode([]byte(raw))

		require.ErrorIs(t, err, apperror.ErrInvalidName)
	})

	t.Run("Missing or out of range cell is rejected", func(t *testing.T) {
		for _, raw := range []string{
			`{"type":"jugada"}`,
			`{"type":"jugada","casilla":9}`,
			`{"type":"jugada","casilla":-1}`,
		} {
			_, err := Decode([]byte(raw))

			require.ErrorIs(t, err, apperror.ErrInvalidMove, raw)
		}
	})

	t.Run("Server-only fields are dropped", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"reiniciar","mensaje":"hola","tablero":["X","","","","","","","",""]}`))

		require.NoError(t, err)
		assert.Equal(t, Message{Type: TypeRestart}, msg)
	})
}

func TestMessageEncoding(t *testing.T) {
	t.Run("Empty room list is an array", func(t *testing.T) {
		raw, err := json.Marshal(RoomList(nil))

		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"listaSalas","salas":[]}`, string(raw))
	})

	t.Run("Move event carries the board and the next turn", func(t *testing.T) {
		board := entity.Board{4: entity.PlayerX}

		raw, err := json.Marshal(MoveApplied(4, entity.PlayerX, board, entity.PlayerO, ""))

		require.NoError(t, err)
		assert.JSONEq(t,
			`{"type":"jugada","casilla":4,"jugador":"X","tablero":["","","","","X","","","",""],"turno":"O"}`,
			string(raw))
	})

	t.Run("Cell zero is not omitted", func(t *testing.T) {
		raw, err := json.Marshal(MoveApplied(0, entity.PlayerO, entity.Board{}, entity.PlayerX, ""))

		require.NoError(t, err)
		assert.Contains(t, string(raw), `"casilla":0`)
	})

	t.Run("Match start", func(t *testing.T) {
		raw, err := json.Marshal(MatchStart(entity.PlayerO, "B", "A", entity.Board{}, entity.PlayerX))

		require.NoError(t, err)
		assert.JSONEq(t,
			`{"type":"inicioPartida","jugador":"O","tuNombre":"B","rival":"A","tablero":["","","","","","","","",""],"turno":"X"}`,
			string(raw))
	})
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Nombre ya en uso", ErrorText(apperror.ErrNameTaken))
	assert.Equal(t, "Jugada inválida", ErrorText(apperror.ErrCellOccupied))
	assert.Equal(t, "Jugada inválida", ErrorText(fmt.Errorf("failed to move: %w", apperror.ErrNotYourTurn)))
	assert.Equal(t, "La sala ya existe", ErrorText(apperror.ErrRoomExists))
	assert.Equal(t, genericErrorText, ErrorText(assert.AnError))

	event := ErrorEvent(apperror.ErrNotRegistered)
	assert.Equal(t, TypeError, event.Type)
	assert.Equal(t, "Jugador no registrado", event.Text)
}
