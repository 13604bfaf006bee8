package domain

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotHost       = errors.New("not a host of the room")
	ErrUnknownPeer   = errors.New("unknown peer")
	ErrNotAdmitted   = errors.New("peer is not admitted")
)

type RoomID string

// Room is the persisted room record together with its control policy.
type Room struct {
	ID      RoomID        `json:"roomId"`
	Hosts   []UserID      `json:"host"`
	Control ControlPolicy `json:"control"`
}

func (r *Room) IsHost(uid UserID) bool {
	return uid != "" && slices.Contains(r.Hosts, uid)
}

// ChatMessage is a single in-call chat line. Timestamp is unix milliseconds.
type ChatMessage struct {
	UserID    UserID `json:"userId" validate:"max=64"`
	Name      string `json:"name" validate:"max=64"`
	Text      string `json:"text" validate:"required,max=4096"`
	Timestamp int64  `json:"timestamp"`
	Aggregate bool   `json:"aggregate,omitempty"`
}

// Minute is the minute-truncated send time used for grouping.
func (m ChatMessage) Minute() time.Time {
	return time.UnixMilli(m.Timestamp).Truncate(time.Minute)
}

// Aggregates reports whether next should be rendered under prev's header:
// same sender within the same minute.
func Aggregates(prev, next ChatMessage) bool {
	return prev.UserID == next.UserID && prev.Minute().Equal(next.Minute())
}
