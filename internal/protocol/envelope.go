package protocol

import (
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Intent is what an edge forwards to the coordinator: a client message tagged with its origin,
// or one of the edge control types.
type Intent struct {
	From    entity.ConnRef `json:"from"`
	Message Message        `json:"message"`
}

func (that Intent) Type() string {
	return that.Message.Type
}

func Hello(edgeID string) Intent {
	return Intent{From: entity.ConnRef{Edge: edgeID}, Message: Message{Type: TypeEdgeHello}}
}

func Heartbeat(edgeID string) Intent {
	return Intent{From: entity.ConnRef{Edge: edgeID}, Message: Message{Type: TypeEdgeHeartbeat}}
}

func Disconnect(from entity.ConnRef) Intent {
	return Intent{From: from, Message: Message{Type: TypeEdgeDisconnect}}
}

// Delivery is what the coordinator sends to one edge.
// An empty Conn means every registered connection of that edge.
type Delivery struct {
	Conn    string   `json:"conn,omitempty"`
	Bind    string   `json:"bind,omitempty"`
	Unbind  bool     `json:"unbind,omitempty"`
	Reset   bool     `json:"reset,omitempty"`
	Message *Message `json:"message,omitempty"`
}

func (that Delivery) IsBroadcast() bool {
	return that.Conn == ""
}
