package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/gauravsingh786/peerchat/internal/signaling"
)

func startRelay(t *testing.T) (string, func()) {
	t.Helper()

	hub := signaling.NewHub()
	go hub.Run()

	server := httptest.NewServer(NewMux(hub))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return wsURL, server.Close
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return ws
}

func readMsg(t *testing.T, ws *websocket.Conn) signaling.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg signaling.Message
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func joinRoom(t *testing.T, ws *websocket.Conn, roomID, name string) string {
	t.Helper()
	require.NoError(t, ws.WriteJSON(signaling.Message{
		Type:   signaling.TypeJoinRoom,
		RoomID: roomID,
		Name:   name,
	}))
	ack := readMsg(t, ws)
	require.Equal(t, signaling.TypeRoomJoined, ack.Type)
	require.NotEmpty(t, ack.RoomID)
	return ack.RoomID
}

func TestChatBetweenTwoParticipants(t *testing.T) {
	wsURL, stop := startRelay(t)
	defer stop()

	wsA := dial(t, wsURL)
	defer wsA.Close()
	wsB := dial(t, wsURL)
	defer wsB.Close()

	joinRoom(t, wsA, "r1", "Alice")
	joinRoom(t, wsB, "r1", "Bob")

	// Alice sees Bob arrive.
	joined := readMsg(t, wsA)
	require.Equal(t, signaling.TypeUserJoined, joined.Type)
	require.Equal(t, "Bob", joined.Name)

	body, _ := json.Marshal("hi")
	require.NoError(t, wsA.WriteJSON(signaling.Message{
		Type:    signaling.TypeChat,
		RoomID:  "r1",
		Name:    "Alice",
		Payload: body,
	}))

	chat := readMsg(t, wsB)
	require.Equal(t, signaling.TypeChat, chat.Type)
	require.Equal(t, "Alice", chat.Name)
	require.JSONEq(t, `"hi"`, string(chat.Payload))

	// Alice must not get her own message back.
	wsA.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var echo signaling.Message
	require.Error(t, wsA.ReadJSON(&echo))
}

func TestOfferBeforePeerJoinsIsNotRetroactive(t *testing.T) {
	wsURL, stop := startRelay(t)
	defer stop()

	wsA := dial(t, wsURL)
	defer wsA.Close()

	joinRoom(t, wsA, "r1", "Alice")

	// Alone in the room: the offer goes nowhere and that is not an error.
	require.NoError(t, wsA.WriteJSON(signaling.Message{
		Type:    signaling.TypeOffer,
		RoomID:  "r1",
		Payload: json.RawMessage(`{"type":"offer","sdp":"v=0"}`),
	}))

	wsB := dial(t, wsURL)
	defer wsB.Close()
	joinRoom(t, wsB, "r1", "Bob")

	// Bob sees nothing but silence: the earlier offer is gone.
	wsB.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var late signaling.Message
	require.Error(t, wsB.ReadJSON(&late))

	// Alice still learns about Bob.
	joined := readMsg(t, wsA)
	require.Equal(t, signaling.TypeUserJoined, joined.Type)
	require.Equal(t, "Bob", joined.Name)
}

func TestNegotiationRoundTripTaggedAndOrdered(t *testing.T) {
	wsURL, stop := startRelay(t)
	defer stop()

	wsA := dial(t, wsURL)
	defer wsA.Close()
	wsB := dial(t, wsURL)
	defer wsB.Close()

	joinRoom(t, wsA, "r1", "Alice")
	joinRoom(t, wsB, "r1", "Bob")
	readMsg(t, wsA) // Bob's arrival

	require.NoError(t, wsA.WriteJSON(signaling.Message{
		Type:    signaling.TypeOffer,
		RoomID:  "r1",
		Payload: json.RawMessage(`{"type":"offer","sdp":"v=0 a"}`),
	}))

	offer := readMsg(t, wsB)
	require.Equal(t, signaling.TypeOffer, offer.Type)
	require.NotEmpty(t, offer.Sender, "offer must carry the sender's connection id")
	aliceID := offer.Sender

	require.NoError(t, wsB.WriteJSON(signaling.Message{
		Type:    signaling.TypeAnswer,
		RoomID:  "r1",
		Payload: json.RawMessage(`{"type":"answer","sdp":"v=0 b"}`),
	}))

	answer := readMsg(t, wsA)
	require.Equal(t, signaling.TypeAnswer, answer.Type)
	require.NotEmpty(t, answer.Sender)
	require.NotEqual(t, aliceID, answer.Sender, "answer is tagged with the other side's id")

	// Candidates flow both ways in send order, tagged consistently.
	for _, c := range []string{`{"candidate":"a1"}`, `{"candidate":"a2"}`} {
		require.NoError(t, wsA.WriteJSON(signaling.Message{
			Type:    signaling.TypeICECandidate,
			RoomID:  "r1",
			Payload: json.RawMessage(c),
		}))
	}

	first := readMsg(t, wsB)
	second := readMsg(t, wsB)
	require.Equal(t, aliceID, first.Sender)
	require.Equal(t, aliceID, second.Sender)
	require.JSONEq(t, `{"candidate":"a1"}`, string(first.Payload))
	require.JSONEq(t, `{"candidate":"a2"}`, string(second.Payload))
}

func TestDisconnectBroadcastsDeparture(t *testing.T) {
	wsURL, stop := startRelay(t)
	defer stop()

	wsA := dial(t, wsURL)
	defer wsA.Close()
	wsB := dial(t, wsURL)

	joinRoom(t, wsA, "r1", "Alice")
	joinRoom(t, wsB, "r1", "Bob")
	readMsg(t, wsA) // Bob's arrival

	wsB.Close()

	left := readMsg(t, wsA)
	require.Equal(t, signaling.TypeUserLeft, left.Type)
	require.Equal(t, "Bob", left.Name)
}

func TestServerGeneratedRoomID(t *testing.T) {
	wsURL, stop := startRelay(t)
	defer stop()

	wsA := dial(t, wsURL)
	defer wsA.Close()

	roomID := joinRoom(t, wsA, "", "Alice")
	require.NotEmpty(t, roomID)

	// The generated room is fully usable.
	wsB := dial(t, wsURL)
	defer wsB.Close()
	got := joinRoom(t, wsB, roomID, "Bob")
	require.Equal(t, roomID, got)

	joined := readMsg(t, wsA)
	require.Equal(t, signaling.TypeUserJoined, joined.Type)
	require.Equal(t, "Bob", joined.Name)
}
