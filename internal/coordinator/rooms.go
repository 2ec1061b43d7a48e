package coordinator

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

func (that *Coordinator) handleCreateRoom(intent protocol.Intent) error {
	log := that.logger.With("method", "handleCreateRoom")

	player, err := that.playerOf(intent.From)
	if err != nil {
		return err
	}

	if player.InRoom() {
		return apperror.ErrAlreadyInRoom
	}

	name := strings.TrimSpace(intent.Message.Name)
	if err = protocol.ValidateName(name); err != nil {
		return err
	}

	if _, ok := that.rooms[name]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomExists, name)
	}

	room := entity.NewRoom(that.newID(), name, player.Name)
	that.rooms[name] = room
	player.Room = name

	log.Info("room created", "room", name, "player", player.Name)

	that.toPlayer(player.Name, protocol.WaitingOpponent())
	that.broadcastRooms()
	that.scheduleWait(room)

	return nil
}

func (that *Coordinator) handleJoinRoom(intent protocol.Intent) error {
	log := that.logger.With("method", "handleJoinRoom")

	player, err := that.playerOf(intent.From)
	if err != nil {
		return err
	}

	if player.InRoom() {
		return apperror.ErrAlreadyInRoom
	}

	name := strings.TrimSpace(intent.Message.Name)

	room, ok := that.rooms[name]
	if !ok {
		return fmt.Errorf("%w: room %s does not exist", apperror.ErrRoomNotJoinable, name)
	}

	if err = room.Join(player.Name); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	player.Room = room.Name

	log.Info("match started", "room", room.Name, "players", room.Members)

	for _, member := range room.Members {
		that.toPlayer(member, protocol.MatchStart(room.MarkOf(member), member, room.Opponent(member), room.Board, room.Turn))
	}
	that.broadcastRooms()

	return nil
}

func (that *Coordinator) handleMove(intent protocol.Intent) error {
	log := that.logger.With("method", "handleMove")

	player, room, err := that.roomOf(intent.From)
	if err != nil {
		return err
	}

	if intent.Message.Cell == nil {
		return apperror.ErrInvalidCell
	}
	cell := *intent.Message.Cell

	mark := room.MarkOf(player.Name)

	result, err := room.MakeMove(player.Name, cell)
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	if result != "" {
		log.Info("match finished", "room", room.Name, "result", result)
	}

	msg := protocol.MoveApplied(cell, mark, room.Board, room.Turn, result)
	for _, member := range room.Members {
		that.toPlayer(member, msg)
	}

	return nil
}

func (that *Coordinator) handleRestart(intent protocol.Intent) error {
	player, room, err := that.roomOf(intent.From)
	if err != nil {
		return err
	}

	added, completed, err := room.RequestRestart(player.Name)
	if err != nil {
		return fmt.Errorf("failed to request restart: %w", err)
	}

	switch {
	case !added:
	case completed:
		for _, member := range room.Members {
			that.toPlayer(member, protocol.Restarted())
		}
	default:
		that.toPlayer(room.Opponent(player.Name), protocol.RestartRequested())
		that.scheduleRestart(room)
	}

	return nil
}

func (that *Coordinator) handleLeaveRoom(intent protocol.Intent) error {
	player, room, err := that.roomOf(intent.From)
	if err != nil {
		return err
	}

	that.closeRoom(room, player.Name)
	that.broadcastRooms()

	return nil
}

// closeRoom - removes the room and tells every member except leaver that it was closed.
// An empty leaver notifies all members.
func (that *Coordinator) closeRoom(room *entity.Room, leaver string) {
	log := that.logger.With("method", "closeRoom")

	for _, member := range room.Members {
		if player, ok := that.players[member]; ok && player.Room == room.Name {
			player.Room = ""
		}

		if member != leaver {
			that.toPlayer(member, protocol.RoomClosed())
		}
	}

	room.ClearRestart()
	delete(that.rooms, room.Name)

	log.Info("room closed", "room", room.Name)
}

func (that *Coordinator) roomOf(ref entity.ConnRef) (*entity.Player, *entity.Room, error) {
	player, err := that.playerOf(ref)
	if err != nil {
		return nil, nil, err
	}

	room, ok := that.rooms[player.Room]
	if !ok || !player.InRoom() {
		return nil, nil, apperror.ErrNotInRoom
	}

	return player, room, nil
}

func (that *Coordinator) roomByID(id string) *entity.Room {
	for _, room := range that.rooms {
		if room.ID == id {
			return room
		}
	}
	return nil
}

func (that *Coordinator) roomInfos() []protocol.RoomInfo {
	infos := make([]protocol.RoomInfo, 0, len(that.rooms))
	for _, room := range that.rooms {
		infos = append(infos, protocol.RoomInfo{Name: room.Name, Count: len(room.Members)})
	}

	slices.SortFunc(infos, func(a, b protocol.RoomInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	return infos
}
