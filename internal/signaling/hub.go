package signaling

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hub is the central brain of the signaling relay.
//
// It owns every live connection and every room, and it is the single point
// through which all state mutates: one goroutine (Run) consumes the three
// channels below, so joins, leaves and fan-outs for a room are serialized and
// a message is never fanned out against a stale member list. Within one room,
// delivery order to a member equals the hub's receipt order.
type Hub struct {
	// Rooms maps room IDs to Room instances.
	Rooms map[string]*Room

	// clients maps connection IDs to every registered client, in a room
	// or not.
	clients map[string]*Client

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Broadcast is a channel for clients to submit messages to.
	// The hub will process these messages.
	Broadcast chan *Message

	log *logrus.Entry
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *Message),
		log:        logrus.WithField("component", "hub"),
	}
}

// Run starts the hub's main processing loop.
// This is the single goroutine that safely manages all state (rooms, clients).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.Broadcast:
			h.dispatch(message)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.clients[c.ID] = c
	h.log.WithField("conn", c.ID).Debug("client registered")
}

// removeClient handles a disconnect as an implicit leave: the room never
// retains a stale member, and the remaining members get exactly one
// departure broadcast. A second unregister for the same client (read and
// write pump both failing) is a no-op so Send is never closed twice.
func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)

	h.removeFromRoom(c, c.RoomID)

	close(c.Send)
	h.log.WithField("conn", c.ID).Debug("client unregistered")
}

// dispatch is the core relay logic for a single inbound message.
func (h *Hub) dispatch(msg *Message) {
	sender := msg.client

	switch msg.Type {
	case TypeJoinRoom:
		h.joinRoom(sender, msg.RoomID, msg.Name)

	case TypeLeaveRoom:
		if msg.Name != "" {
			sender.Name = msg.Name
		}
		h.removeFromRoom(sender, msg.RoomID)

	case TypeChat:
		// Chat carries the sender's display name, not its connection id:
		// receivers render "Alice: hi" and the sender renders its own
		// message locally, so it is excluded from the fan-out.
		h.fanOut(msg.RoomID, sender.ID, &Message{
			Type:    TypeChat,
			RoomID:  msg.RoomID,
			Name:    msg.Name,
			Payload: msg.Payload,
		})

	case TypeOffer, TypeAnswer, TypeICECandidate:
		// Negotiation payloads are opaque; the relay only injects the
		// sender's connection id so receivers can ignore echoes.
		h.fanOut(msg.RoomID, sender.ID, &Message{
			Type:    msg.Type,
			RoomID:  msg.RoomID,
			Sender:  sender.ID,
			Payload: msg.Payload,
		})

	default:
		h.log.WithFields(logrus.Fields{
			"conn": sender.ID,
			"type": msg.Type,
		}).Warn("unknown message type")
	}
}

// joinRoom adds the client to the given room, creating it on first join.
// An empty roomID asks the server to generate one. The joiner always gets a
// room_joined ack carrying the effective room id; all other members get a
// user_joined presence broadcast, including on a duplicate join, whose
// re-broadcast is deliberately kept.
func (h *Hub) joinRoom(c *Client, roomID, name string) {
	if roomID == "" {
		roomID = uuid.NewString()
	}

	// A connection is in at most one room. Joining a new room leaves the
	// old one first so the membership bookkeeping stays consistent.
	if c.RoomID != "" && c.RoomID != roomID {
		h.removeFromRoom(c, c.RoomID)
	}

	room, ok := h.Rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		h.Rooms[roomID] = room
		h.log.WithField("room", roomID).Info("room created")
	}

	room.Members[c.ID] = c
	c.RoomID = roomID
	c.Name = name

	h.log.WithFields(logrus.Fields{
		"room": roomID,
		"conn": c.ID,
		"name": name,
	}).Info("client joined room")

	for _, member := range room.others(c.ID) {
		h.send(member, &Message{
			Type:   TypeUserJoined,
			RoomID: roomID,
			Name:   name,
		})
	}

	h.send(c, &Message{
		Type:   TypeRoomJoined,
		RoomID: roomID,
	})
}

// removeFromRoom takes the client out of the given room, reclaims the room
// when it becomes empty and notifies the remaining members. Leaving a room
// the client is not a member of is a silent no-op with no spurious broadcast.
func (h *Hub) removeFromRoom(c *Client, roomID string) {
	if roomID == "" {
		return
	}

	room, ok := h.Rooms[roomID]
	if !ok {
		return
	}
	if _, member := room.Members[c.ID]; !member {
		return
	}

	delete(room.Members, c.ID)
	if c.RoomID == roomID {
		c.RoomID = ""
	}

	h.log.WithFields(logrus.Fields{
		"room": roomID,
		"conn": c.ID,
	}).Info("client left room")

	if room.empty() {
		delete(h.Rooms, roomID)
		h.log.WithField("room", roomID).Info("room deleted")
		return
	}

	for _, member := range room.others(c.ID) {
		h.send(member, &Message{
			Type:   TypeUserLeft,
			RoomID: roomID,
			Name:   c.Name,
		})
	}
}

// fanOut delivers msg to every member of the room except the sender.
// A missing or empty room id, an unknown room, or a room with no other
// members all fall through silently: the relay is fire-and-forget with no
// notion of delivery failure.
func (h *Hub) fanOut(roomID, senderID string, msg *Message) {
	if roomID == "" {
		return
	}
	room, ok := h.Rooms[roomID]
	if !ok {
		return
	}
	for _, member := range room.others(senderID) {
		h.send(member, msg)
	}
}

// send enqueues msg for one client without blocking the hub. A client whose
// buffer is full simply misses the message; delivery is at most once,
// best effort.
func (h *Hub) send(c *Client, msg *Message) {
	select {
	case c.Send <- msg:
	default:
		h.log.WithFields(logrus.Fields{
			"conn": c.ID,
			"type": msg.Type,
		}).Warn("client send buffer full, dropping message")
	}
}
