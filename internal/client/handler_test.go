package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauravsingh786/peerchat/internal/signaling"
)

func runHandler(t *testing.T, msgs ...*signaling.Message) *Handler {
	t.Helper()

	in := make(chan *signaling.Message, len(msgs))
	for _, m := range msgs {
		in <- m
	}
	close(in)

	h := NewHandler(in)
	h.Start() // returns once the channel is drained
	return h
}

func TestHandlerRoutesPresenceAndAck(t *testing.T) {
	h := runHandler(t,
		&signaling.Message{Type: signaling.TypeRoomJoined, RoomID: "r1"},
		&signaling.Message{Type: signaling.TypeUserJoined, Name: "Bob"},
		&signaling.Message{Type: signaling.TypeUserLeft, Name: "Bob"},
	)

	assert.Equal(t, "r1", <-h.RoomJoined)
	assert.Equal(t, "Bob", <-h.UserJoined)
	assert.Equal(t, "Bob", <-h.UserLeft)
}

func TestHandlerDecodesChatBody(t *testing.T) {
	body, _ := json.Marshal("hello there")
	h := runHandler(t,
		&signaling.Message{Type: signaling.TypeChat, Name: "Alice", Payload: body},
		&signaling.Message{Type: signaling.TypeChat, Name: "Bob", Payload: json.RawMessage(`raw bytes`)},
	)

	first := <-h.Chat
	require.Equal(t, "Alice", first.Name)
	assert.Equal(t, "hello there", first.Body)

	// A body that is not a JSON string comes through verbatim.
	second := <-h.Chat
	assert.Equal(t, "raw bytes", second.Body)
}

func TestHandlerRoutesSignalsWithSender(t *testing.T) {
	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	h := runHandler(t,
		&signaling.Message{Type: signaling.TypeOffer, Sender: "conn-a", Payload: offer},
		&signaling.Message{Type: signaling.TypeAnswer, Sender: "conn-b", Payload: json.RawMessage(`{}`)},
		&signaling.Message{Type: signaling.TypeICECandidate, Sender: "conn-a", Payload: json.RawMessage(`{"candidate":"one"}`)},
		&signaling.Message{Type: signaling.TypeICECandidate, Sender: "conn-a", Payload: json.RawMessage(`{"candidate":"two"}`)},
	)

	got := <-h.Offer
	require.Equal(t, "conn-a", got.Sender)
	assert.JSONEq(t, string(offer), string(got.Payload))

	assert.Equal(t, "conn-b", (<-h.Answer).Sender)

	// Candidate order is preserved.
	assert.JSONEq(t, `{"candidate":"one"}`, string((<-h.ICECandidate).Payload))
	assert.JSONEq(t, `{"candidate":"two"}`, string((<-h.ICECandidate).Payload))
}

func TestHandlerIgnoresUnknownTypes(t *testing.T) {
	h := runHandler(t, &signaling.Message{Type: "mystery"})

	select {
	case <-h.Chat:
		t.Fatal("unknown type must not be routed")
	default:
	}

	h.Close()
	h.Close() // idempotent
}
