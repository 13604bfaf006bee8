package protocol

import "github.com/dkeye/Huddle/internal/domain"

// Message is anything that travels inside an Envelope.
type Message interface {
	Type() string
}

// Command is the closed set of client to server messages.
type Command interface {
	Message
	command()
}

// Event is the closed set of server to client messages.
type Event interface {
	Message
	event()
}

// RoomPeer addresses one peer inside a room.
type RoomPeer struct {
	RoomID domain.RoomID `json:"roomId" validate:"required,max=64"`
	PeerID domain.PeerID `json:"peerId" validate:"required,max=64"`
}

type Reaction struct {
	RoomID   domain.RoomID `json:"roomId" validate:"required,max=64"`
	PeerID   domain.PeerID `json:"peerId" validate:"required,max=64"`
	Reaction string        `json:"reaction" validate:"required,max=32"`
}

// Offer carries a media session description between two peers.
// The server fills From; clients address it with To.
type Offer struct {
	To          domain.PeerID       `json:"to,omitempty" validate:"required,max=64"`
	From        domain.PeerID       `json:"from,omitempty"`
	SDP         string              `json:"sdp" validate:"required"`
	Metadata    *domain.Participant `json:"metadata,omitempty"`
	ScreenTrack string              `json:"screenTrack,omitempty"`
	Renegotiate bool                `json:"renegotiate,omitempty"`
}

type Answer struct {
	To   domain.PeerID `json:"to,omitempty" validate:"required,max=64"`
	From domain.PeerID `json:"from,omitempty"`
	SDP  string        `json:"sdp" validate:"required"`
}

// Commands.

type (
	PeerOpenRequest struct{}

	JoinRequest struct {
		RoomID domain.RoomID      `json:"roomId" validate:"required,max=64"`
		User   domain.Participant `json:"user"`
	}

	AcceptRequest domain.PeerID
	RejectRequest domain.PeerID
	CountQuery    domain.RoomID

	RoomJoin struct {
		RoomID domain.RoomID      `json:"roomId" validate:"required,max=64"`
		User   domain.Participant `json:"user"`
	}

	HostMuteUser           RoomPeer
	HostRemoveUser         RoomPeer
	HostRemoveSharedScreen RoomPeer

	ChangeControl struct {
		RoomID  domain.RoomID        `json:"roomId" validate:"required,max=64"`
		Control domain.ControlPolicy `json:"control"`
	}

	UserLeave         RoomPeer
	ToggleAudio       RoomPeer
	ToggleVideo       RoomPeer
	DisableMicrophone RoomPeer
	DisableCamera     RoomPeer
	ShareScreen       RoomPeer
	StopShareScreen   RoomPeer
	SendReaction      Reaction

	ChatPost struct {
		Message domain.ChatMessage `json:"message"`
		RoomID  domain.RoomID      `json:"roomId" validate:"required,max=64"`
	}

	Ping struct{}
)

func (PeerOpenRequest) Type() string        { return TypePeerOpen }
func (JoinRequest) Type() string            { return TypeRequestJoin }
func (AcceptRequest) Type() string          { return TypeRequestAccept }
func (RejectRequest) Type() string          { return TypeRequestReject }
func (CountQuery) Type() string             { return TypeRoomCount }
func (RoomJoin) Type() string               { return TypeRoomJoin }
func (HostMuteUser) Type() string           { return TypeHostMuteUser }
func (HostRemoveUser) Type() string         { return TypeHostRemoveUser }
func (HostRemoveSharedScreen) Type() string { return TypeHostRemoveSharedScreen }
func (ChangeControl) Type() string          { return TypeHostChangeControl }
func (UserLeave) Type() string              { return TypeUserLeave }
func (ToggleAudio) Type() string            { return TypeUserToggleAudio }
func (ToggleVideo) Type() string            { return TypeUserToggleVideo }
func (DisableMicrophone) Type() string      { return TypeUserDisableMicrophone }
func (DisableCamera) Type() string          { return TypeUserDisableCamera }
func (ShareScreen) Type() string            { return TypeUserShareScreen }
func (StopShareScreen) Type() string        { return TypeUserStopShareScreen }
func (SendReaction) Type() string           { return TypeUserReaction }
func (ChatPost) Type() string               { return TypeChatPost }
func (Offer) Type() string                  { return TypePeerOffer }
func (Answer) Type() string                 { return TypePeerAnswer }
func (Ping) Type() string                   { return TypePing }

func (PeerOpenRequest) command()        {}
func (JoinRequest) command()            {}
func (AcceptRequest) command()          {}
func (RejectRequest) command()          {}
func (CountQuery) command()             {}
func (RoomJoin) command()               {}
func (HostMuteUser) command()           {}
func (HostRemoveUser) command()         {}
func (HostRemoveSharedScreen) command() {}
func (ChangeControl) command()          {}
func (UserLeave) command()              {}
func (ToggleAudio) command()            {}
func (ToggleVideo) command()            {}
func (DisableMicrophone) command()      {}
func (DisableCamera) command()          {}
func (ShareScreen) command()            {}
func (StopShareScreen) command()        {}
func (SendReaction) command()           {}
func (ChatPost) command()               {}
func (Offer) command()                  {}
func (Answer) command()                 {}
func (Ping) command()                   {}

// Events.

type (
	// PeerOpened hands the client its transport identity and stable user id.
	PeerOpened struct {
		PeerID domain.PeerID `json:"peerId"`
		UserID domain.UserID `json:"userId"`
	}

	Waiting  []domain.Participant
	Accepted domain.PeerID
	Rejected domain.PeerID
	Joined   domain.Participant
	Count    int
	Left     domain.PeerID

	MutedUser           domain.PeerID
	RemovedUser         domain.PeerID
	RemovedSharedScreen domain.PeerID

	ControlChanged domain.ControlPolicy

	ToggledAudio       domain.PeerID
	ToggledVideo       domain.PeerID
	MicrophoneDisabled domain.PeerID
	CameraDisabled     domain.PeerID
	SharedScreen       domain.PeerID
	StoppedScreenShare domain.PeerID
	Reacted            Reaction
	Reconnect          domain.Participant
	ChatReceived       domain.ChatMessage

	ChangeControlFailed string
	JoinFailed          string
	ToggleAudioFailed   string
	ToggleVideoFailed   string

	Pong struct{}
)

func (PeerOpened) Type() string          { return TypePeerOpen }
func (Waiting) Type() string             { return TypeRequestWaiting }
func (Accepted) Type() string            { return TypeRequestAccepted }
func (Rejected) Type() string            { return TypeRequestRejected }
func (Joined) Type() string              { return TypeRoomJoined }
func (Count) Type() string               { return TypeRoomCount }
func (Left) Type() string                { return TypeRoomLeave }
func (MutedUser) Type() string           { return TypeHostMutedUser }
func (RemovedUser) Type() string         { return TypeHostRemovedUser }
func (RemovedSharedScreen) Type() string { return TypeHostRemovedUserSharedScreen }
func (ControlChanged) Type() string      { return TypeUserControlChanged }
func (ToggledAudio) Type() string        { return TypeUserToggledAudio }
func (ToggledVideo) Type() string        { return TypeUserToggledVideo }
func (MicrophoneDisabled) Type() string  { return TypeUserDisableMicrophone }
func (CameraDisabled) Type() string      { return TypeUserDisableCamera }
func (SharedScreen) Type() string        { return TypeUserSharedScreen }
func (StoppedScreenShare) Type() string  { return TypeUserStoppedScreenShare }
func (Reacted) Type() string             { return TypeUserReacted }
func (Reconnect) Type() string           { return TypeUserReconnect }
func (ChatReceived) Type() string        { return TypeChatGet }
func (ChangeControlFailed) Type() string { return TypeErrorChangeControl }
func (JoinFailed) Type() string          { return TypeErrorJoin }
func (ToggleAudioFailed) Type() string   { return TypeErrorToggleAudio }
func (ToggleVideoFailed) Type() string   { return TypeErrorToggleVideo }
func (Pong) Type() string                { return TypePong }

func (PeerOpened) event()          {}
func (Waiting) event()             {}
func (Accepted) event()            {}
func (Rejected) event()            {}
func (Joined) event()              {}
func (Count) event()               {}
func (Left) event()                {}
func (MutedUser) event()           {}
func (RemovedUser) event()         {}
func (RemovedSharedScreen) event() {}
func (ControlChanged) event()      {}
func (ToggledAudio) event()        {}
func (ToggledVideo) event()        {}
func (MicrophoneDisabled) event()  {}
func (CameraDisabled) event()      {}
func (SharedScreen) event()        {}
func (StoppedScreenShare) event()  {}
func (Reacted) event()             {}
func (Reconnect) event()           {}
func (ChatReceived) event()        {}
func (ChangeControlFailed) event() {}
func (JoinFailed) event()          {}
func (ToggleAudioFailed) event()   {}
func (ToggleVideoFailed) event()   {}
func (Offer) event()               {}
func (Answer) event()              {}
func (Pong) event()                {}
