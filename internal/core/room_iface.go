package core

import (
	"context"

	"github.com/dkeye/Huddle/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// CallRoom is the server-side live state of one room.
// It owns membership and the people/waiting sets but never touches transport resources.
type CallRoom interface {
	Room() domain.Room
	SetControl(domain.ControlPolicy)

	AddMember(ms MemberSession)
	RemoveMember(sid SessionID)
	Member(sid SessionID) (MemberSession, bool)
	Members() []MemberSession
	MemberCount() int

	Person(peer domain.PeerID) (domain.Participant, bool)
	PutPerson(p domain.Participant)
	UpdatePerson(peer domain.PeerID, fn func(*domain.Participant)) (domain.Participant, bool)
	RemovePerson(peer domain.PeerID) bool
	Count() int

	PutWaiting(p domain.Participant)
	TakeWaiting(peer domain.PeerID) (domain.Participant, bool)
	Waiting() []domain.Participant

	Broadcast(from SessionID, data Frame) PublishResult
	Unicast(to SessionID, data Frame) error
}

type RoomInfo struct {
	ID          domain.RoomID `json:"roomId"`
	MemberCount int           `json:"client_count"`
}

type RoomManager interface {
	Get(ctx context.Context, id domain.RoomID) (CallRoom, error)
	List() []RoomInfo
	StopRoom(id domain.RoomID)
}
