package coordinator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

var (
	ana  = entity.ConnRef{Edge: "e1", Conn: "c-ana"}
	beto = entity.ConnRef{Edge: "e2", Conn: "c-beto"}
	caro = entity.ConnRef{Edge: "e1", Conn: "c-caro"}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness drives a coordinator without its goroutine and applies deliveries the way an edge does.
type harness struct {
	t *testing.T
	c *Coordinator

	bound map[entity.ConnRef]string
	inbox map[entity.ConnRef][]protocol.Message
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	c := New(discardLogger(), nil, nil, opts)

	ids := 0
	c.newID = func() string {
		ids++
		return fmt.Sprintf("room-%d", ids)
	}

	h := &harness{
		t:     t,
		c:     c,
		bound: make(map[entity.ConnRef]string),
		inbox: make(map[entity.ConnRef][]protocol.Message),
	}

	h.apply(c.handle(protocol.Hello("e1")))
	h.apply(c.handle(protocol.Hello("e2")))

	return h
}

func (that *harness) send(from entity.ConnRef, msg protocol.Message) {
	that.t.Helper()
	that.apply(that.c.handle(protocol.Intent{From: from, Message: msg}))
}

func (that *harness) register(from entity.ConnRef, name string) {
	that.t.Helper()
	that.send(from, protocol.Message{Type: protocol.TypeRegister, Name: name})
	require.Equal(that.t, name, that.bound[from])
}

func (that *harness) move(from entity.ConnRef, cell int) {
	that.t.Helper()
	that.send(from, protocol.Message{Type: protocol.TypeMove, Cell: &cell})
}

// startMatch registers ana and beto and puts them into room "sala1", ana plays X.
func (that *harness) startMatch() {
	that.t.Helper()

	that.register(ana, "Ana")
	that.register(beto, "Beto")
	that.send(ana, protocol.Message{Type: protocol.TypeCreateRoom, Name: "sala1"})
	that.send(beto, protocol.Message{Type: protocol.TypeJoinRoom, Name: "sala1"})
	that.clear()
}

// winAsX plays a finished match where X takes the top row.
func (that *harness) winAsX() {
	that.t.Helper()

	for i, cell := range []int{0, 3, 1, 4, 2} {
		if i%2 == 0 {
			that.move(ana, cell)
		} else {
			that.move(beto, cell)
		}
	}
	that.clear()
}

func (that *harness) apply(outs []Outgoing) {
	for _, out := range outs {
		delivery := out.Delivery
		require.NotNil(that.t, delivery.Message)

		switch {
		case delivery.Reset:
			for ref := range that.bound {
				if ref.Edge == out.Edge {
					that.push(ref, *delivery.Message)
					delete(that.bound, ref)
				}
			}

		case delivery.IsBroadcast():
			for ref := range that.bound {
				if ref.Edge == out.Edge {
					that.push(ref, *delivery.Message)
				}
			}

		default:
			ref := entity.ConnRef{Edge: out.Edge, Conn: delivery.Conn}
			if delivery.Bind != "" {
				that.bound[ref] = delivery.Bind
			}
			that.push(ref, *delivery.Message)
			if delivery.Unbind {
				delete(that.bound, ref)
			}
		}
	}
}

func (that *harness) push(ref entity.ConnRef, msg protocol.Message) {
	that.inbox[ref] = append(that.inbox[ref], msg)
}

func (that *harness) clear() {
	that.inbox = make(map[entity.ConnRef][]protocol.Message)
}

func (that *harness) types(ref entity.ConnRef) []string {
	var types []string
	for _, msg := range that.inbox[ref] {
		types = append(types, msg.Type)
	}
	return types
}

func (that *harness) last(ref entity.ConnRef, msgType string) protocol.Message {
	that.t.Helper()

	messages := that.inbox[ref]
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Type == msgType {
			return messages[i]
		}
	}

	that.t.Fatalf("%s got no %s message, got %v", ref.Conn, msgType, that.types(ref))
	return protocol.Message{}
}

func (that *harness) room(name string) *entity.Room {
	that.t.Helper()

	room, ok := that.c.rooms[name]
	require.True(that.t, ok, "room %s does not exist", name)

	return room
}

// recordingSink keeps every delivery published by a running coordinator.
type recordingSink struct {
	mu   sync.Mutex
	outs []Outgoing
}

func (that *recordingSink) PublishDelivery(_ context.Context, edgeID string, delivery protocol.Delivery) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.outs = append(that.outs, Outgoing{Edge: edgeID, Delivery: delivery})
	return nil
}

func (that *recordingSink) messagesTo(conn string) []protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	var messages []protocol.Message
	for _, out := range that.outs {
		if out.Delivery.Conn == conn && out.Delivery.Message != nil {
			messages = append(messages, *out.Delivery.Message)
		}
	}
	return messages
}

type mockSink struct {
	mock.Mock
}

func (that *mockSink) PublishDelivery(ctx context.Context, edgeID string, delivery protocol.Delivery) error {
	args := that.Called(ctx, edgeID, delivery)
	return args.Error(0)
}
