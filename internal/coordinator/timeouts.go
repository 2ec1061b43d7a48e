package coordinator

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

type expirationKind int

const (
	waitExpired expirationKind = iota
	restartExpired
)

// expiration is a fired timer. It only applies if the room it was armed for is still in the same phase.
type expiration struct {
	kind   expirationKind
	roomID string
	round  int
}

func (that *Coordinator) scheduleWait(room *entity.Room) {
	that.schedule(that.opts.WaitTimeout, expiration{kind: waitExpired, roomID: room.ID})
}

func (that *Coordinator) scheduleRestart(room *entity.Room) {
	that.schedule(that.opts.RestartTimeout, expiration{kind: restartExpired, roomID: room.ID, round: room.RestartRound})
}

func (that *Coordinator) schedule(after time.Duration, exp expiration) {
	if after <= 0 {
		return
	}

	time.AfterFunc(after, func() {
		select {
		case that.expirations <- exp:
		case <-that.done:
		}
	})
}

func (that *Coordinator) handleExpiration(exp expiration) []Outgoing {
	log := that.logger.With("method", "handleExpiration")

	room := that.roomByID(exp.roomID)
	if room == nil {
		return nil
	}

	switch exp.kind {
	case waitExpired:
		if !room.IsWaiting() {
			return nil
		}

		log.Info("nobody joined in time", "room", room.Name)

		that.closeRoom(room, "")
		that.broadcastRooms()

	case restartExpired:
		if room.RestartRound != exp.round || len(room.Restart) == 0 {
			return nil
		}

		log.Info("restart request expired", "room", room.Name)

		room.ClearRestart()
		for _, member := range room.Members {
			that.toPlayer(member, protocol.RestartExpired())
		}
	}

	return that.flush()
}
