package core

import (
	"context"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Huddle/internal/domain"
)

// TrackSender is the outbound half of one track on a connection.
// *webrtc.RTPSender satisfies it.
type TrackSender interface {
	Track() webrtc.TrackLocal
	ReplaceTrack(webrtc.TrackLocal) error
}

// RemoteTrack is an inbound media track. *webrtc.TrackRemote satisfies it.
type RemoteTrack interface {
	ID() string
	StreamID() string
	Kind() webrtc.RTPCodecType
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// MediaConnection is one direct media connection of the mesh.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	IsClosed() bool
	// CreateOffer returns a local offer with all ICE candidates gathered.
	CreateOffer() (*webrtc.SessionDescription, error)
	ApplyOfferAndCreateAnswer(webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	ApplyAnswer(webrtc.SessionDescription) error
	// AddLocalTrack attaches a local track to the underlying PeerConnection.
	AddLocalTrack(webrtc.TrackLocal) (TrackSender, error)
	RemoveSender(TrackSender) error
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track RemoteTrack))
	// OnClosed sets a callback for cleanup media session.
	OnClosed(func())
}

// MediaDialer opens a fresh MediaConnection towards peer.
type MediaDialer interface {
	NewConnection(peer domain.PeerID) (MediaConnection, error)
}

// RoomLookup resolves a room record and whether the caller hosts it.
type RoomLookup interface {
	LookupRoom(ctx context.Context, id domain.RoomID) (domain.Room, bool, error)
}

type RoomCreator interface {
	CreateRoom(ctx context.Context) (domain.RoomID, error)
}
