package signaling

import "encoding/json"

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
//
// The relay only ever looks at Type, RoomID, Name and Sender. Payload is an
// opaque blob carried verbatim: for chat it is the message body, for
// offer/answer/ice_candidate it is whatever the peer's session library
// produced.
type Message struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Sender  string          `json:"sender,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// client is the client that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

// Message type constants.
const (
	// C2S
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeChat         = "chat"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice_candidate"

	// S2C
	TypeRoomJoined = "room_joined"
	TypeUserJoined = "user_joined"
	TypeUserLeft   = "user_left"
)
