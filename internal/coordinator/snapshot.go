package coordinator

import (
	"context"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type Edge struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"last_seen"`
}

// Snapshot is a copy of the coordinator state, safe to use outside the actor.
type Snapshot struct {
	Players []entity.Player `json:"players"`
	Rooms   []entity.Room   `json:"rooms"`
	Edges   []Edge          `json:"edges"`
}

// Snapshot - asks the running coordinator for a copy of its state.
func (that *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)

	select {
	case that.snapshots <- reply:
	case <-that.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snapshot := <-reply:
		return snapshot, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (that *Coordinator) snapshot() Snapshot {
	snapshot := Snapshot{
		Players: make([]entity.Player, 0, len(that.players)),
		Rooms:   make([]entity.Room, 0, len(that.rooms)),
		Edges:   make([]Edge, 0, len(that.edges)),
	}

	for _, name := range that.playerNames() {
		snapshot.Players = append(snapshot.Players, *that.players[name])
	}

	for _, room := range that.rooms {
		copied := *room
		copied.Members = slices.Clone(room.Members)
		copied.Restart = slices.Clone(room.Restart)
		snapshot.Rooms = append(snapshot.Rooms, copied)
	}

	slices.SortFunc(snapshot.Rooms, func(a, b entity.Room) int {
		return strings.Compare(a.Name, b.Name)
	})

	for _, id := range that.edgeIDs() {
		snapshot.Edges = append(snapshot.Edges, Edge{ID: id, LastSeen: that.edges[id]})
	}

	return snapshot
}
