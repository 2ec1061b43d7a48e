package coordinator

import (
	"golang.org/x/exp/slices"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

type target int

const (
	toPlayer target = iota
	toConn
	toEdge
	toEveryone
)

type event struct {
	target target
	player string
	conn   entity.ConnRef
	edge   string

	bind    string
	unbind  bool
	reset   bool
	message protocol.Message
}

func (that event) delivery(conn string) protocol.Delivery {
	msg := that.message

	return protocol.Delivery{
		Conn:    conn,
		Bind:    that.bind,
		Unbind:  that.unbind,
		Reset:   that.reset,
		Message: &msg,
	}
}

func (that *Coordinator) toPlayer(name string, msg protocol.Message) {
	that.events = append(that.events, event{target: toPlayer, player: name, message: msg})
}

func (that *Coordinator) toConn(ref entity.ConnRef, msg protocol.Message) {
	that.events = append(that.events, event{target: toConn, conn: ref, message: msg})
}

func (that *Coordinator) broadcast(msg protocol.Message) {
	that.events = append(that.events, event{target: toEveryone, message: msg})
}

func (that *Coordinator) broadcastPlayers() {
	that.broadcast(protocol.PlayerList(that.playerNames()))
}

func (that *Coordinator) broadcastRooms() {
	that.broadcast(protocol.RoomList(that.roomInfos()))
}

// flush - resolves pending events against the current state.
// Events for players that are gone by now are dropped.
func (that *Coordinator) flush() []Outgoing {
	if len(that.events) == 0 {
		return nil
	}

	outs := make([]Outgoing, 0, len(that.events))

	for _, ev := range that.events {
		switch ev.target {
		case toPlayer:
			player, ok := that.players[ev.player]
			if !ok {
				continue
			}
			outs = append(outs, Outgoing{Edge: player.Conn.Edge, Delivery: ev.delivery(player.Conn.Conn)})

		case toConn:
			outs = append(outs, Outgoing{Edge: ev.conn.Edge, Delivery: ev.delivery(ev.conn.Conn)})

		case toEdge:
			outs = append(outs, Outgoing{Edge: ev.edge, Delivery: ev.delivery("")})

		case toEveryone:
			for _, edgeID := range that.edgeIDs() {
				outs = append(outs, Outgoing{Edge: edgeID, Delivery: ev.delivery("")})
			}
		}
	}

	that.events = that.events[:0]

	return outs
}

func (that *Coordinator) edgeIDs() []string {
	ids := make([]string, 0, len(that.edges))
	for id := range that.edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}
