package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gauravsingh786/peerchat/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the WebSocket connection to the signaling relay.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *signaling.Message
	outgoing  chan *signaling.Message
	done      chan struct{}
	closed    bool
}

// NewClient creates a new signaling client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan *signaling.Message, 32),
		outgoing:  make(chan *signaling.Message, 32),
		done:      make(chan struct{}, 1),
	}
}

// Connect establishes WebSocket connection to the relay.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg signaling.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		c.incoming <- &msg
	}
}

// writePump writes messages to the WebSocket connection and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// SendMessage sends a raw message to the relay.
func (c *Client) SendMessage(msg *signaling.Message) {
	c.outgoing <- msg
}

// JoinRoom asks the relay to add this connection to roomID under the given
// display name. An empty roomID asks the server to generate one; the
// effective id comes back on the handler's RoomJoined channel.
func (c *Client) JoinRoom(roomID, name string) {
	c.SendMessage(&signaling.Message{
		Type:   signaling.TypeJoinRoom,
		RoomID: roomID,
		Name:   name,
	})
}

// LeaveRoom removes this connection from roomID.
func (c *Client) LeaveRoom(roomID, name string) {
	c.SendMessage(&signaling.Message{
		Type:   signaling.TypeLeaveRoom,
		RoomID: roomID,
		Name:   name,
	})
}

// SendChat relays a chat line to the other members of roomID.
func (c *Client) SendChat(roomID, name, body string) {
	payload, _ := json.Marshal(body)
	c.SendMessage(&signaling.Message{
		Type:    signaling.TypeChat,
		RoomID:  roomID,
		Name:    name,
		Payload: payload,
	})
}

// SendOffer relays an opaque session offer to the other members of roomID.
func (c *Client) SendOffer(roomID string, payload []byte) {
	c.sendSignal(signaling.TypeOffer, roomID, payload)
}

// SendAnswer relays an opaque session answer to the other members of roomID.
func (c *Client) SendAnswer(roomID string, payload []byte) {
	c.sendSignal(signaling.TypeAnswer, roomID, payload)
}

// SendICECandidate relays an opaque network candidate to the other members
// of roomID.
func (c *Client) SendICECandidate(roomID string, payload []byte) {
	c.sendSignal(signaling.TypeICECandidate, roomID, payload)
}

func (c *Client) sendSignal(kind, roomID string, payload []byte) {
	c.SendMessage(&signaling.Message{
		Type:    kind,
		RoomID:  roomID,
		Payload: payload,
	})
}

// Incoming returns the channel for receiving messages.
func (c *Client) Incoming() <-chan *signaling.Message {
	return c.incoming
}

// Close closes the WebSocket connection and cleans up resources.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	close(c.done)
}
