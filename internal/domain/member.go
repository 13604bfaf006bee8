package domain

// Member represents one signaling connection's participation in a room on the server side.
// No transport or lifecycle logic here.
type Member struct {
	UserID UserID
	PeerID PeerID
	Room   RoomID
	// Admitted is set once the server let the peer past the waiting room.
	Admitted bool
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(uid UserID) *Member {
	return &Member{UserID: uid}
}
