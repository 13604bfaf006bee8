package core

import "github.com/dkeye/Huddle/internal/domain"

// SessionID names one signaling connection on the server.
type SessionID string

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Meta() domain.Member
	UpdateMeta(func(*domain.Member)) domain.Member
	Signal() SignalConnection
}
