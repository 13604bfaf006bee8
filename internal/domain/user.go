// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 64
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type (
	// UserID is the stable identity of a person across sessions.
	UserID string
	// PeerID is the ephemeral per-connection identity, regenerated on every session.
	PeerID string
)

func NewUserID() UserID { return UserID(uuid.NewString()) }

func NewPeerID() PeerID { return PeerID(uuid.NewString()) }

// Participant is the shared view of one call member.
// Identity is PeerID; UserID is informational.
type Participant struct {
	PeerID  PeerID `json:"peerId" validate:"required,max=64"`
	UserID  UserID `json:"userId,omitempty" validate:"max=64"`
	Name    string `json:"name,omitempty" validate:"max=64"`
	Photo   string `json:"photo,omitempty" validate:"omitempty,max=2048"`
	Muted   bool   `json:"muted"`
	Visible bool   `json:"visible"`
	Host    bool   `json:"host"`
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
