package client

import (
	"encoding/json"

	"github.com/gauravsingh786/peerchat/internal/signaling"
)

// ChatMessage is a rendered chat line from another room member.
type ChatMessage struct {
	Name string
	Body string
}

// RemoteSignal is a negotiation message from another room member, tagged by
// the relay with the sender's connection id. Payload stays opaque here; the
// peer session decodes it.
type RemoteSignal struct {
	Sender  string
	Payload json.RawMessage
}

// Handler routes incoming relay messages to appropriate channels.
type Handler struct {
	in <-chan *signaling.Message

	RoomJoined   chan string
	UserJoined   chan string
	UserLeft     chan string
	Chat         chan *ChatMessage
	Offer        chan *RemoteSignal
	Answer       chan *RemoteSignal
	ICECandidate chan *RemoteSignal
	closed       bool
}

// NewHandler creates a new message handler draining the given channel,
// usually Client.Incoming().
func NewHandler(in <-chan *signaling.Message) *Handler {
	return &Handler{
		in:           in,
		RoomJoined:   make(chan string, 1),
		UserJoined:   make(chan string, 4),
		UserLeft:     make(chan string, 4),
		Chat:         make(chan *ChatMessage, 32),
		Offer:        make(chan *RemoteSignal, 4),
		Answer:       make(chan *RemoteSignal, 4),
		ICECandidate: make(chan *RemoteSignal, 32),
	}
}

// Start begins listening to incoming messages and routing them.
// It returns when the incoming channel closes.
func (h *Handler) Start() {
	for msg := range h.in {
		switch msg.Type {

		case signaling.TypeRoomJoined:
			h.RoomJoined <- msg.RoomID

		case signaling.TypeUserJoined:
			h.UserJoined <- msg.Name

		case signaling.TypeUserLeft:
			h.UserLeft <- msg.Name

		case signaling.TypeChat:
			h.handleChat(msg)

		case signaling.TypeOffer:
			h.Offer <- &RemoteSignal{Sender: msg.Sender, Payload: msg.Payload}

		case signaling.TypeAnswer:
			h.Answer <- &RemoteSignal{Sender: msg.Sender, Payload: msg.Payload}

		case signaling.TypeICECandidate:
			h.ICECandidate <- &RemoteSignal{Sender: msg.Sender, Payload: msg.Payload}

		default:

		}
	}
}

// handleChat decodes the chat body and sends it through the Chat channel.
func (h *Handler) handleChat(msg *signaling.Message) {
	var body string
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		// A body that is not a JSON string is rendered raw.
		body = string(msg.Payload)
	}

	h.Chat <- &ChatMessage{Name: msg.Name, Body: body}
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.RoomJoined)
	close(h.UserJoined)
	close(h.UserLeft)
	close(h.Chat)
	close(h.Offer)
	close(h.Answer)
	close(h.ICECandidate)
}
