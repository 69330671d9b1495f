package signaling

// Room is an ephemeral named group of connections that receive each other's
// signaling and chat messages. It is created implicitly on first join and
// reclaimed when the last member leaves or disconnects.
//
// Membership is an open N-member set. The relay itself is a correct N-member
// broadcast primitive; the offer/answer protocol layered on top of it only
// makes sense for two parties, and it is the caller's responsibility to keep
// a room at two members. The relay does not enforce a limit.
type Room struct {
	// ID is the unique identifier for the room.
	ID string

	// Members maps connection IDs to the clients currently in the room.
	Members map[string]*Client
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		Members: make(map[string]*Client),
	}
}

// others returns every member except the connection with the given id.
func (r *Room) others(exclude string) []*Client {
	out := make([]*Client, 0, len(r.Members))
	for id, c := range r.Members {
		if id != exclude {
			out = append(out, c)
		}
	}
	return out
}

func (r *Room) empty() bool {
	return len(r.Members) == 0
}
