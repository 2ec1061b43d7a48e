package coordinator

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

func (that *Coordinator) handleRegister(intent protocol.Intent) error {
	log := that.logger.With("method", "handleRegister")

	name := strings.TrimSpace(intent.Message.Name)
	if err := protocol.ValidateName(name); err != nil {
		return err
	}

	if current, ok := that.byConn[intent.From]; ok {
		return fmt.Errorf("%w: as %s", apperror.ErrAlreadyRegistered, current)
	}

	if _, ok := that.players[name]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrNameTaken, name)
	}

	that.players[name] = &entity.Player{Name: name, Conn: intent.From}
	that.byConn[intent.From] = name

	log.Info("player registered", "player", name, "edge", intent.From.Edge)

	that.events = append(that.events, event{
		target:  toConn,
		conn:    intent.From,
		bind:    name,
		message: protocol.Registered(),
	})
	that.broadcastPlayers()
	that.broadcastRooms()

	return nil
}

func (that *Coordinator) handleLogout(intent protocol.Intent) error {
	player, err := that.playerOf(intent.From)
	if err != nil {
		return err
	}

	// the reply goes first so the edge unbinds before the roster broadcast reaches it
	that.events = append(that.events, event{
		target:  toConn,
		conn:    intent.From,
		unbind:  true,
		message: protocol.LoggedOut(),
	})

	that.unregister(player.Name)

	return nil
}

func (that *Coordinator) handleDisconnect(intent protocol.Intent) error {
	if name, ok := that.byConn[intent.From]; ok {
		that.unregister(name)
	}
	return nil
}

// unregister - removes a player and tears down its room. Unknown names are ignored.
func (that *Coordinator) unregister(name string) {
	if _, ok := that.players[name]; !ok {
		return
	}

	roomRemoved := that.removePlayer(name)

	that.broadcastPlayers()
	if roomRemoved {
		that.broadcastRooms()
	}
}

// removePlayer - drops the record without broadcasting, reports whether a room was torn down.
func (that *Coordinator) removePlayer(name string) bool {
	log := that.logger.With("method", "removePlayer")

	player, ok := that.players[name]
	if !ok {
		return false
	}

	roomRemoved := false
	if room, ok := that.rooms[player.Room]; ok && player.InRoom() {
		that.closeRoom(room, name)
		roomRemoved = true
	}

	delete(that.players, name)
	delete(that.byConn, player.Conn)

	log.Info("player unregistered", "player", name)

	return roomRemoved
}

func (that *Coordinator) playerOf(ref entity.ConnRef) (*entity.Player, error) {
	name, ok := that.byConn[ref]
	if !ok {
		return nil, apperror.ErrNotRegistered
	}

	return that.players[name], nil
}

func (that *Coordinator) playerNames() []string {
	names := make([]string, 0, len(that.players))
	for name := range that.players {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
