package pkg

import (
	"github.com/google/uuid"
)

// NewConnID - generates an edge-local connection id.
func NewConnID() string {
	return uuid.NewString()
}

// NewEdgeID - generates an id for an edge started without one in the config.
func NewEdgeID() string {
	return "edge-" + uuid.NewString()[:8]
}

// NewRoomID - generates the id of a new room, unique per creation even when the name is reused.
func NewRoomID() string {
	return uuid.NewString()
}
