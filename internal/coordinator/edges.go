package coordinator

import (
	"golang.org/x/exp/slices"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

// helloEdge - an edge (re)started: whatever it held before is gone.
func (that *Coordinator) helloEdge(edgeID string) {
	log := that.logger.With("method", "helloEdge", "edge", edgeID)

	if _, known := that.edges[edgeID]; known {
		log.Info("edge restarted, dropping its players")
		that.dropPlayersOf(edgeID)
	} else {
		log.Info("edge joined")
	}

	that.edges[edgeID] = that.now()
}

func (that *Coordinator) handleHeartbeat(_ protocol.Intent) error {
	return nil
}

// touchEdge - refreshes the liveness of an edge, reports whether it was known before.
func (that *Coordinator) touchEdge(edgeID string) bool {
	_, known := that.edges[edgeID]
	that.edges[edgeID] = that.now()

	return known
}

// resetEdge - tells an edge to forget every binding, its clients have to register again.
func (that *Coordinator) resetEdge(edgeID string) {
	that.dropPlayersOf(edgeID)

	that.events = append(that.events, event{
		target:  toEdge,
		edge:    edgeID,
		reset:   true,
		message: protocol.SessionLost(),
	})
}

// sweepEdges - forgets edges silent for longer than the TTL together with their players.
func (that *Coordinator) sweepEdges() []Outgoing {
	log := that.logger.With("method", "sweepEdges")

	if that.opts.EdgeTTL <= 0 {
		return nil
	}

	now := that.now()

	for _, edgeID := range that.edgeIDs() {
		if now.Sub(that.edges[edgeID]) <= that.opts.EdgeTTL {
			continue
		}

		log.Warn("edge expired", "edge", edgeID, "last_seen", that.edges[edgeID])

		delete(that.edges, edgeID)
		that.dropPlayersOf(edgeID)
	}

	return that.flush()
}

// dropPlayersOf - unregisters every player connected through an edge, broadcasting once.
func (that *Coordinator) dropPlayersOf(edgeID string) {
	var names []string
	for name, player := range that.players {
		if player.Conn.Edge == edgeID {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return
	}

	slices.Sort(names)

	roomRemoved := false
	for _, name := range names {
		if that.removePlayer(name) {
			roomRemoved = true
		}
	}

	that.broadcastPlayers()
	if roomRemoved {
		that.broadcastRooms()
	}
}
